// Package source opens the raw delimited text behind a table name, either
// from a local directory or from an HTTP base URL.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/i474232898/bike-sharing-dashboard/internal/table"
)

// Source yields the bytes of a named table. A name that does not resolve
// fails with table.ErrNotFound.
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// Dir resolves relative names against Root. Absolute names are used as is.
type Dir struct {
	Root string
}

// Open opens the file behind name.
func (d Dir) Open(_ context.Context, name string) (io.ReadCloser, error) {
	path := name
	if !filepath.IsAbs(path) && d.Root != "" {
		path = filepath.Join(d.Root, name)
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", table.ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, nil
}

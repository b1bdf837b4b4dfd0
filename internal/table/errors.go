package table

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a table source path does not resolve.
	ErrNotFound = errors.New("table source not found")
	// ErrParse is matched by every *ParseError.
	ErrParse = errors.New("table parse error")
	// ErrInvalidRange is matched by every *RangeError.
	ErrInvalidRange = errors.New("invalid date range")
	// ErrColumnNotFound is returned when a named column is absent.
	ErrColumnNotFound = errors.New("column not found")
	// ErrDuplicateKey is returned when a join key repeats on the right side.
	ErrDuplicateKey = errors.New("duplicate join key")
	// ErrKindMismatch is returned when a column does not hold the expected kind.
	ErrKindMismatch = errors.New("column kind mismatch")
)

// ParseError describes a malformed row or an unparseable/missing date column.
// Line is 1-based and counts the header; it is 0 when the problem is not tied
// to a single row.
type ParseError struct {
	Path   string
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	parts := []string{"parse"}
	if e.Path != "" {
		parts = append(parts, e.Path)
	}
	if e.Line > 0 {
		parts = append(parts, fmt.Sprintf("line %d", e.Line))
	}
	if e.Column != "" {
		parts = append(parts, fmt.Sprintf("column %q", e.Column))
	}
	if e.Value != "" {
		parts = append(parts, fmt.Sprintf("value %q", e.Value))
	}
	msg := strings.Join(parts, " ")
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// RangeError is returned when a date range starts after it ends.
type RangeError struct {
	Start time.Time
	End   time.Time
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid date range: start %s is after end %s",
		e.Start.Format(DateLayout), e.End.Format(DateLayout))
}

func (e *RangeError) Is(target error) bool { return target == ErrInvalidRange }

func columnNotFound(name string) error {
	return fmt.Errorf("%w: %q", ErrColumnNotFound, name)
}

package export

import (
	"fmt"
	"log/slog"

	"github.com/hashicorp/go-multierror"

	"github.com/i474232898/bike-sharing-dashboard/internal/rides"
	"github.com/i474232898/bike-sharing-dashboard/internal/table"
)

// Targets names the optional outputs of a merge run. Empty paths are skipped.
type Targets struct {
	ParquetPath string
	XLSXPath    string
	// Compression is the Parquet codec name; see CompressionCodec.
	Compression string
}

// WriteAll writes merged to every configured target. A failing target does
// not stop the others; all failures are returned together.
func WriteAll(merged *table.Table, targets Targets) error {
	var errs error

	if targets.ParquetPath != "" {
		if err := writeParquetTarget(merged, targets); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("parquet %s: %w", targets.ParquetPath, err))
		} else {
			slog.Info("wrote parquet export", slog.String("path", targets.ParquetPath), slog.Int("rows", merged.Len()))
		}
	}

	if targets.XLSXPath != "" {
		if err := WriteXLSX(targets.XLSXPath, merged); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("xlsx %s: %w", targets.XLSXPath, err))
		} else {
			slog.Info("wrote xlsx export", slog.String("path", targets.XLSXPath), slog.Int("rows", merged.Len()))
		}
	}

	return errs
}

func writeParquetTarget(merged *table.Table, targets Targets) error {
	codec, err := CompressionCodec(targets.Compression)
	if err != nil {
		return err
	}
	records, err := rides.MergedRecords(merged)
	if err != nil {
		return err
	}
	return WriteParquet(targets.ParquetPath, records, codec)
}

// Package export writes the merged table to columnar and spreadsheet formats.
package export

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/i474232898/bike-sharing-dashboard/internal/rides"
)

// parallelism of the parquet column encoders.
const parquetWorkers = 4

// CompressionCodec returns the Parquet codec named by s: SNAPPY, GZIP or NONE.
// The empty string selects SNAPPY.
func CompressionCodec(s string) (parquet.CompressionCodec, error) {
	switch strings.ToUpper(s) {
	case "", "SNAPPY":
		return parquet.CompressionCodec_SNAPPY, nil
	case "GZIP":
		return parquet.CompressionCodec_GZIP, nil
	case "NONE", "UNCOMPRESSED":
		return parquet.CompressionCodec_UNCOMPRESSED, nil
	}
	return parquet.CompressionCodec_UNCOMPRESSED, fmt.Errorf("unsupported parquet compression %q", s)
}

// WriteParquet writes records to path, replacing any existing file.
func WriteParquet(path string, records []rides.MergedRecord, codec parquet.CompressionCodec) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()
	return EncodeParquet(f, records, codec)
}

// EncodeParquet writes records as a single Parquet file to w.
func EncodeParquet(w io.Writer, records []rides.MergedRecord, codec parquet.CompressionCodec) (err error) {
	pw, err := writer.NewParquetWriterFromWriter(w, new(rides.MergedRecord), parquetWorkers)
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}
	pw.CompressionType = codec

	for i := range records {
		if err := pw.Write(records[i]); err != nil {
			return fmt.Errorf("failed to write parquet row %d: %w", i, err)
		}
	}

	// WriteStop panics on some malformed schemas instead of returning.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parquet writer panicked during WriteStop: %v", r)
		}
	}()
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

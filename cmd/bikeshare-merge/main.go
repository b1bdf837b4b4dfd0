// Command bikeshare-merge joins the hourly rides table with the daily one and
// writes the combined table, optionally also as Parquet and XLSX.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/i474232898/bike-sharing-dashboard/internal/config"
	"github.com/i474232898/bike-sharing-dashboard/internal/export"
	"github.com/i474232898/bike-sharing-dashboard/internal/rides"
	"github.com/i474232898/bike-sharing-dashboard/internal/source"
	"github.com/i474232898/bike-sharing-dashboard/internal/table"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", slog.String("error", err.Error()))
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	day := flag.String("day", cfg.DayPath(), "daily table (csv)")
	hour := flag.String("hour", cfg.HourPath(), "hourly table (csv)")
	out := flag.String("out", cfg.MergedPath(), "merged output (csv)")
	parquetOut := flag.String("parquet", "", "also write the merged table as parquet to this path")
	xlsxOut := flag.String("xlsx", "", "also write the merged table as xlsx to this path")
	flag.Parse()

	logger := config.NewLogger(cfg.LogLevel).With(slog.String("run_id", uuid.NewString()))
	slog.SetDefault(logger)

	if err := run(context.Background(), *day, *hour, *out, export.Targets{
		ParquetPath: *parquetOut,
		XLSXPath:    *xlsxOut,
		Compression: cfg.ParquetCompression,
	}); err != nil {
		slog.Error("merge failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, dayPath, hourPath, outPath string, targets export.Targets) error {
	started := time.Now()
	slog.Info("starting merge",
		slog.String("day", dayPath),
		slog.String("hour", hourPath),
		slog.String("out", outPath))

	// Paths from flags are used as given.
	src := source.Dir{}
	daily, err := rides.LoadTable(ctx, src, dayPath)
	if err != nil {
		return err
	}
	hourly, err := rides.LoadTable(ctx, src, hourPath)
	if err != nil {
		return err
	}

	merged, stats, err := rides.Merge(hourly, daily)
	if err != nil {
		return err
	}
	if err := merged.WriteCSV(outPath, table.WithDateColumn(rides.ColDate)); err != nil {
		return err
	}
	if err := export.WriteAll(merged, targets); err != nil {
		return err
	}

	slog.Info("merge complete",
		slog.Int("rows", merged.Len()),
		slog.Int("matched", stats.Matched),
		slog.Int("dropped", stats.Dropped),
		slog.Int("columns", len(merged.Columns())),
		slog.Duration("took", time.Since(started)))
	return nil
}

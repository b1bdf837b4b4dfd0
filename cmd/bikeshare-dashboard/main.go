package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/i474232898/bike-sharing-dashboard/internal/api/http"
	"github.com/i474232898/bike-sharing-dashboard/internal/config"
	"github.com/i474232898/bike-sharing-dashboard/internal/metrics"
	"github.com/i474232898/bike-sharing-dashboard/internal/rides"
	"github.com/i474232898/bike-sharing-dashboard/internal/scheduler"
	"github.com/i474232898/bike-sharing-dashboard/internal/source"
	"github.com/i474232898/bike-sharing-dashboard/internal/store"
	"github.com/i474232898/bike-sharing-dashboard/internal/table"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found or error loading it", slog.String("error", err.Error()))
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.SetDefault(config.NewLogger(cfg.LogLevel))

	rec := metrics.New()

	// Tables come from DATA_DIR unless a base URL is configured.
	var src source.Source = source.Dir{Root: cfg.DataDir}
	if cfg.DataBaseURL != "" {
		httpClient := &http.Client{
			Timeout: cfg.HTTPTimeout,
		}
		src = source.NewHTTP(httpClient, cfg.DataBaseURL)
	}

	// Load-once table cache; entries change only on reload.
	cache := store.NewTableCache(func(ctx context.Context, path string) (*table.Table, error) {
		return rides.LoadTable(ctx, src, path)
	}, rec)

	service := rides.NewService(cache, cfg.DayFile, cfg.HourFile)

	// Fail early on a missing or malformed source rather than on the first request.
	warmCtx, cancelWarm := context.WithTimeout(context.Background(), 30*time.Second)
	if _, err := service.Bounds(warmCtx); err != nil {
		slog.Warn("initial table load failed", slog.String("error", err.Error()))
	}
	cancelWarm()

	sched := scheduler.New(cfg.ReloadInterval, cache)
	if err := sched.Start(); err != nil {
		slog.Error("failed to start scheduler", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "bike-sharing-dashboard",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "bike-sharing-dashboard",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(rec.Registry(), promhttp.HandlerOpts{})))

	// API routes.
	httpapi.RegisterRoutes(app, service, rec)

	go func() {
		slog.Info("listening", slog.String("port", cfg.Port), slog.String("data", cfg.DataDir))
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("fiber server stopped", slog.String("error", err.Error()))
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("error during shutdown", slog.String("error", err.Error()))
	}
}

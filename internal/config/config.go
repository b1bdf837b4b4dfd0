package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
)

type AppConfig struct {
	// DataDir holds the input tables and receives the merged output.
	DataDir    string
	DayFile    string
	HourFile   string
	MergedFile string

	// DataBaseURL, when set, loads tables over HTTP instead of from DataDir.
	DataBaseURL string

	// ReloadInterval re-reads every cached table; 0 disables scheduled reloads.
	ReloadInterval time.Duration

	HTTPTimeout time.Duration
	Port        string
	LogLevel    string

	// ParquetCompression is SNAPPY, GZIP or NONE.
	ParquetCompression string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{}

	cfg.DataDir = getenvDefault("DATA_DIR", "data")
	cfg.DayFile = getenvDefault("DAY_FILE", "day.csv")
	cfg.HourFile = getenvDefault("HOUR_FILE", "hour.csv")
	cfg.MergedFile = getenvDefault("MERGED_FILE", "all_data.csv")
	cfg.DataBaseURL = os.Getenv("DATA_BASE_URL")

	var errs error
	var err error
	if cfg.ReloadInterval, err = getenvDuration("RELOAD_INTERVAL", 0); err != nil {
		errs = multierror.Append(errs, err)
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", 10*time.Second); err != nil {
		errs = multierror.Append(errs, err)
	}
	if errs != nil {
		return nil, errs
	}

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.ParquetCompression = strings.ToUpper(getenvDefault("PARQUET_COMPRESSION", "SNAPPY"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *AppConfig) Validate() error {
	var errs error
	if c.DayFile == "" {
		errs = multierror.Append(errs, errors.New("DAY_FILE must not be empty"))
	}
	if c.HourFile == "" {
		errs = multierror.Append(errs, errors.New("HOUR_FILE must not be empty"))
	}
	if c.DataBaseURL != "" {
		if u, err := url.Parse(c.DataBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errs = multierror.Append(errs, fmt.Errorf("DATA_BASE_URL must be an http(s) URL, got %q", c.DataBaseURL))
		}
	}
	if c.ReloadInterval < 0 {
		errs = multierror.Append(errs, errors.New("RELOAD_INTERVAL must not be negative"))
	}
	if c.HTTPTimeout <= 0 {
		errs = multierror.Append(errs, errors.New("HTTP_TIMEOUT must be positive"))
	}
	if n, err := strconv.Atoi(c.Port); err != nil || n <= 0 || n > 65535 {
		errs = multierror.Append(errs, fmt.Errorf("PORT must be a TCP port, got %q", c.Port))
	}
	switch c.ParquetCompression {
	case "SNAPPY", "GZIP", "NONE":
	default:
		errs = multierror.Append(errs, fmt.Errorf("PARQUET_COMPRESSION must be SNAPPY, GZIP or NONE, got %q", c.ParquetCompression))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = multierror.Append(errs, err)
	}
	return errs
}

// DayPath, HourPath and MergedPath join the file names with DataDir.
func (c *AppConfig) DayPath() string    { return filepath.Join(c.DataDir, c.DayFile) }
func (c *AppConfig) HourPath() string   { return filepath.Join(c.DataDir, c.HourFile) }
func (c *AppConfig) MergedPath() string { return filepath.Join(c.DataDir, c.MergedFile) }

// ParseLevel maps debug, info, warn or error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}

// NewLogger builds the JSON logger every command installs as default.
func NewLogger(level string) *slog.Logger {
	lvl, err := ParseLevel(level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/i474232898/bike-sharing-dashboard/internal/metrics"
	"github.com/i474232898/bike-sharing-dashboard/internal/table"
)

// LoadFunc reads the table behind a path.
type LoadFunc func(ctx context.Context, path string) (*table.Table, error)

// TableCache is a concurrency-safe, load-once cache of tables keyed by path.
// Entries change only through Reload, ReloadAll and Invalidate.
type TableCache struct {
	mu sync.RWMutex

	// key: path, value: loaded table
	data map[string]*table.Table

	load    LoadFunc
	metrics *metrics.Recorder
}

// NewTableCache creates an empty cache. rec may be nil.
func NewTableCache(load LoadFunc, rec *metrics.Recorder) *TableCache {
	return &TableCache{
		data:    make(map[string]*table.Table),
		load:    load,
		metrics: rec,
	}
}

// Get returns the cached table for path, loading it on first use. A failed
// load is not cached.
func (c *TableCache) Get(ctx context.Context, path string) (*table.Table, error) {
	c.mu.RLock()
	t, ok := c.data[path]
	c.mu.RUnlock()
	if ok {
		c.metrics.CacheHit(path)
		return t, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another caller may have loaded it while we waited for the lock.
	if t, ok := c.data[path]; ok {
		c.metrics.CacheHit(path)
		return t, nil
	}
	c.metrics.CacheMiss(path)

	return c.loadLocked(ctx, path)
}

// Reload re-reads path and replaces its entry. On failure the previous entry,
// if any, is kept.
func (c *TableCache) Reload(ctx context.Context, path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.loadLocked(ctx, path)
	return err
}

// ReloadAll re-reads every cached path and stops at the first failure.
func (c *TableCache) ReloadAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for path := range c.data {
		if _, err := c.loadLocked(ctx, path); err != nil {
			return err
		}
	}
	return nil
}

// Invalidate drops the entry for path; the next Get loads it again.
func (c *TableCache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.data, path)
}

// Paths returns the cached paths.
func (c *TableCache) Paths() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	paths := make([]string, 0, len(c.data))
	for p := range c.data {
		paths = append(paths, p)
	}
	return paths
}

func (c *TableCache) loadLocked(ctx context.Context, path string) (*table.Table, error) {
	start := time.Now()
	t, err := c.load(ctx, path)
	took := time.Since(start)

	rows := 0
	if t != nil {
		rows = t.Len()
	}
	c.metrics.TableLoaded(path, took, rows, err)

	if err != nil {
		slog.ErrorContext(ctx, "table load failed", slog.String("path", path), slog.String("error", err.Error()))
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	slog.InfoContext(ctx, "table loaded",
		slog.String("path", path),
		slog.Int("rows", rows),
		slog.Duration("took", took))
	c.data[path] = t
	return t, nil
}

// Package slicecache remembers per-document view configurations (display
// slice, image width, render resolution) across sessions of a document
// viewer.
//
// The mapping is loaded from durable storage at most once per process, on
// first access. All gets and puts then hit memory only; the full mapping is
// written back on document-close and process-exit events. Persistence is
// best-effort caching: no storage failure is ever fatal to the host.
//
// Example usage:
//
//	cache, err := slicecache.New(
//	    slicecache.WithStorePath("/home/u/.config/slicecache/slices"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cache.Close()
//
//	rec, err := cache.Get(ctx, "/home/u/paper.pdf")
//	if err == nil {
//	    fmt.Printf("saved width: %d\n", rec.ImageWidth)
//	}
package slicecache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/docfold/slicecache/internal/stats"
	"github.com/docfold/slicecache/internal/store"
)

// Sentinel errors for well-defined error conditions.
var (
	// ErrNotFound indicates no record is cached for the key.
	ErrNotFound = errors.New("slicecache: record not found")

	// ErrClosed indicates the cache has been closed.
	ErrClosed = errors.New("slicecache: cache closed")

	// ErrNoStore indicates no store was provided.
	ErrNoStore = errors.New("slicecache: no store provided")

	// ErrNoView indicates no document view was provided.
	ErrNoView = errors.New("slicecache: no document view provided")

	// ErrNoLifecycle indicates no lifecycle events source was provided.
	ErrNoLifecycle = errors.New("slicecache: no lifecycle events provided")
)

// Cache mediates all access to the persisted mapping. It loads lazily on
// first access, serves gets and puts from memory, and writes back on flush.
// A Cache is safe for concurrent use by multiple goroutines.
type Cache struct {
	store  store.Store
	stats  stats.Collector
	logger *zap.Logger
	closed atomic.Bool

	mu      sync.Mutex
	loaded  bool
	records map[string]Record
}

// New creates a new Cache with the given options.
// A store is required; see WithStore and WithStorePath.
func New(opts ...Option) (*Cache, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	c := &Cache{
		store:  cfg.store,
		stats:  cfg.stats,
		logger: cfg.logger,
	}

	if c.store == nil {
		return nil, ErrNoStore
	}

	c.logger.Debug("cache initialized", zap.String("path", c.storePath()))

	return c, nil
}

// EnsureLoaded forces the lazy initial load. It is idempotent: the store is
// read at most once per Cache, even when the read fails, so calling it on
// every operation is free after the first. Explicit calls are only useful
// for front-loading the disk read; Get, Put and FlushAll all call it
// themselves.
func (c *Cache) EnsureLoaded(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureLoadedLocked(ctx)
	return nil
}

// Get returns the cached record for key.
// Returns ErrNotFound if no record is cached.
func (c *Cache) Get(ctx context.Context, key string) (Record, error) {
	if c.closed.Load() {
		return Record{}, ErrClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureLoadedLocked(ctx)

	rec, ok := c.records[key]
	if !ok {
		c.stats.IncCounter(stats.MetricMisses, 1)
		return Record{}, ErrNotFound
	}

	c.stats.IncCounter(stats.MetricHits, 1)
	return rec.clone(), nil
}

// Put inserts or fully replaces the record for key. There is no merge: the
// new record is the whole truth for that key. The change is in-memory only
// until the next flush.
func (c *Cache) Put(ctx context.Context, key string, rec Record) error {
	if c.closed.Load() {
		return ErrClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureLoadedLocked(ctx)

	c.records[key] = rec.normalize().clone()
	c.stats.IncCounter(stats.MetricPuts, 1)
	c.stats.SetGauge(stats.MetricRecords, int64(len(c.records)))
	return nil
}

// Keys returns all cached document keys in sorted order.
func (c *Cache) Keys(ctx context.Context) ([]string, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureLoadedLocked(ctx)

	keys := make([]string, 0, len(c.records))
	for k := range c.records {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Len returns the number of cached records.
func (c *Cache) Len(ctx context.Context) (int, error) {
	if c.closed.Load() {
		return 0, ErrClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureLoadedLocked(ctx)
	return len(c.records), nil
}

// FlushOne captures the live view configuration for key and puts it into
// the cache. A view whose state cannot be read (the document session is
// already torn down, for example) is skipped silently; flushing is
// best-effort and never reports an error.
func (c *Cache) FlushOne(ctx context.Context, key string, view DocumentView) {
	if c.closed.Load() || view == nil {
		return
	}

	rec, ok := captureRecord(view)
	if !ok {
		c.stats.IncCounter(stats.MetricFlushSkips, 1)
		c.logger.Debug("view state unavailable, skipping flush",
			zap.String("key", key),
		)
		return
	}

	_ = c.Put(ctx, key, rec)
}

// FlushAll writes the entire in-memory mapping to the store. On failure the
// in-memory mapping is untouched and the error is returned; per the
// persistence policy it is a warning, not a fatal condition, and is already
// logged with the store path by the time FlushAll returns.
func (c *Cache) FlushAll(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureLoadedLocked(ctx)
	return c.flushLocked(ctx)
}

// Close flushes any loaded state and releases the store. A cache that was
// never touched writes nothing. After Close, the cache should not be used.
func (c *Cache) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var flushErr error
	if c.loaded {
		flushErr = c.flushLocked(context.Background())
	}

	if err := c.store.Close(); err != nil {
		return errors.Join(flushErr, fmt.Errorf("closing store: %w", err))
	}
	return flushErr
}

// ensureLoadedLocked performs the one lazy load per process. The loaded
// flag flips before the read so a failed attempt is still final: a missing
// or damaged store file degrades to an empty mapping, it does not retrigger
// reads. Callers must hold c.mu.
func (c *Cache) ensureLoadedLocked(ctx context.Context) {
	if c.loaded {
		return
	}
	c.loaded = true

	start := time.Now()
	wire, err := c.store.Load(ctx)
	c.stats.IncCounter(stats.MetricLoads, 1)
	c.stats.ObserveHistogram(stats.MetricLoadSeconds, time.Since(start).Seconds())

	if err != nil {
		c.stats.IncCounter(stats.MetricLoadFailures, 1)
		c.logger.Warn("loading store failed, starting with empty cache",
			zap.String("path", c.storePath()),
			zap.Error(err),
		)
	}

	c.records = make(map[string]Record, len(wire))
	for k, w := range wire {
		c.records[k] = wireToRecord(w)
	}
	c.stats.SetGauge(stats.MetricRecords, int64(len(c.records)))

	c.logger.Debug("store loaded",
		zap.String("path", c.storePath()),
		zap.Int("records", len(c.records)),
	)
}

// flushLocked saves the full mapping. Callers must hold c.mu and have
// loaded the cache.
func (c *Cache) flushLocked(ctx context.Context) error {
	wire := make(map[string]store.Record, len(c.records))
	for k, r := range c.records {
		wire[k] = recordToWire(r)
	}

	start := time.Now()
	err := c.store.Save(ctx, wire)
	c.stats.IncCounter(stats.MetricSaves, 1)
	c.stats.ObserveHistogram(stats.MetricSaveSeconds, time.Since(start).Seconds())

	if err != nil {
		c.stats.IncCounter(stats.MetricSaveFailures, 1)
		c.logger.Warn("saving store failed, in-memory records kept",
			zap.String("path", c.storePath()),
			zap.Error(err),
		)
		return fmt.Errorf("saving store: %w", err)
	}

	c.logger.Debug("store saved",
		zap.String("path", c.storePath()),
		zap.Int("records", len(wire)),
	)
	return nil
}

// storePath names the backing location for diagnostics, when the backend
// has one.
func (c *Cache) storePath() string {
	if p, ok := c.store.(interface{ Path() string }); ok {
		return p.Path()
	}
	return ""
}

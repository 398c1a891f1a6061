// Package slicecachefx provides an fx module for a file-backed slice cache.
package slicecachefx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/docfold/slicecache"
	"github.com/docfold/slicecache/internal/stats"
	"github.com/docfold/slicecache/internal/stats/logger"
)

// Config holds configuration for the file-backed slice cache.
type Config struct {
	// Path is the store file location. Empty means the per-user default
	// (see slicecache.DefaultStorePath).
	Path string
}

// Module provides a file-backed *slicecache.Cache.
// Requires a *zap.Logger to be provided.
var Module = fx.Module("slicecache",
	fx.Provide(
		newStatsCollector,
		newCache,
	),
)

func newStatsCollector(log *zap.Logger) stats.Collector {
	return logger.New(log.Named("slicecache.stats"))
}

// Params holds dependencies for creating the cache.
type Params struct {
	fx.In

	Config    Config
	Logger    *zap.Logger
	Collector stats.Collector
	Lifecycle fx.Lifecycle
}

// Result holds the provided cache.
type Result struct {
	fx.Out

	Cache *slicecache.Cache
}

func newCache(p Params) (Result, error) {
	path := p.Config.Path
	if path == "" {
		defaultPath, err := slicecache.DefaultStorePath()
		if err != nil {
			return Result{}, err
		}
		path = defaultPath
	}

	cache, err := slicecache.New(
		slicecache.WithStorePath(path),
		slicecache.WithStats(p.Collector),
		slicecache.WithLogger(p.Logger.Named("slicecache")),
	)
	if err != nil {
		return Result{}, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			// Close flushes; a failed flush is logged by the cache and
			// must not abort shutdown.
			_ = cache.Close()
			return nil
		},
	})

	return Result{Cache: cache}, nil
}

// Package stats provides a unified interface for collecting metrics.
package stats

// Metric names used throughout the library.
const (
	// Cache metrics.
	MetricHits       = "slicecache_hits_total"
	MetricMisses     = "slicecache_misses_total"
	MetricPuts       = "slicecache_puts_total"
	MetricFlushSkips = "slicecache_flush_skips_total"
	MetricRecords    = "slicecache_records"

	// Storage metrics.
	MetricLoads        = "slicecache_loads_total"
	MetricLoadFailures = "slicecache_load_failures_total"
	MetricLoadSeconds  = "slicecache_load_seconds"
	MetricSaves        = "slicecache_saves_total"
	MetricSaveFailures = "slicecache_save_failures_total"
	MetricSaveSeconds  = "slicecache_save_seconds"
)

// Collector defines the interface for collecting metrics.
type Collector interface {
	// IncCounter increments a counter metric by delta.
	IncCounter(name string, delta int64)

	// SetGauge sets a gauge metric to value.
	SetGauge(name string, value int64)

	// ObserveHistogram records a value in a histogram metric.
	ObserveHistogram(name string, value float64)
}

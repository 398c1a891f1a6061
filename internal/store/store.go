// Package store defines the storage backend interface for persisting the
// key -> view-record mapping as a single durable snapshot.
package store

import (
	"context"
	"errors"
)

// ErrWriteFailed wraps any failure to persist a snapshot. Callers treat it
// as non-fatal: the in-memory mapping stays authoritative for the session.
var ErrWriteFailed = errors.New("store: write failed")

// Record is the wire form of one cached view configuration. Absent fields
// are omitted from the serialized form entirely.
type Record struct {
	// Slice is the displayed sub-region as [left, top, width, height],
	// or nil when the document has no custom slice.
	Slice []int `json:"slice,omitempty"`

	// ImageWidth is the display scaling width in pixels, 0 when unset.
	ImageWidth int `json:"image_width,omitempty"`

	// Resolution is the render resolution in DPI, 0 when unset.
	Resolution float64 `json:"resolution,omitempty"`
}

// Store defines the interface for storage backends. A backend persists the
// whole mapping at once; there are no per-key operations at this layer.
type Store interface {
	// Load reads the persisted mapping. A missing or unreadable backing
	// file is not an error: implementations return an empty map so a
	// fresh installation starts with no history. Corrupt content degrades
	// to whatever subset still parses.
	Load(ctx context.Context) (map[string]Record, error)

	// Save replaces the persisted mapping with records, atomically.
	// Failures are reported wrapped in ErrWriteFailed and must leave any
	// previous snapshot intact.
	Save(ctx context.Context, records map[string]Record) error

	// Close releases any resources held by the store.
	Close() error
}

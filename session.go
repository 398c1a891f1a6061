package slicecache

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// DocumentView is the live view of one open document, implemented by the
// host viewer. The cache reads the getters to capture a record on flush and
// calls the setters plus Reconvert to apply a restored record.
//
// Getters return an error when the view state is unavailable, typically
// because the document session is being torn down; the cache then skips the
// flush rather than surfacing the error.
type DocumentView interface {
	// CurrentSlice returns the displayed slice, or nil when the document
	// has no custom slice.
	CurrentSlice() (*Slice, error)
	ImageWidth() (int, error)
	Resolution() (float64, error)

	SetSlice(Slice) error
	SetImageWidth(int) error
	SetResolution(float64) error

	// Reconvert forces a re-render after slice, width or resolution
	// changes.
	Reconvert() error
}

// LifecycleEvents is the host's event registry. The cache registers
// callbacks here instead of knowing anything about the host's event loop.
// The returned cancel funcs unregister the callback and must be safe to
// call more than once.
type LifecycleEvents interface {
	// OnDocumentClose registers fn to run when the document identified by
	// key is closed.
	OnDocumentClose(key string, fn func()) (cancel func())

	// OnShutdown registers fn to run when the host process is exiting.
	// Hosts running in non-interactive batch contexts may never fire it.
	OnShutdown(fn func()) (cancel func())
}

// Session is an active attachment of the cache to one open document.
// While attached, the document's view configuration is flushed to the
// cache when the document closes.
type Session struct {
	cache *Cache
	key   string
	view  DocumentView

	once   sync.Once
	cancel func()
}

// Attach activates persistence for the document identified by key. If a
// record is already cached for the key, it is applied to the view first:
// slice, image width, resolution, then one Reconvert. A close hook is then
// registered so the view's configuration at close time is captured into
// the cache.
func (c *Cache) Attach(ctx context.Context, key string, view DocumentView, events LifecycleEvents) (*Session, error) {
	if view == nil {
		return nil, ErrNoView
	}
	if events == nil {
		return nil, ErrNoLifecycle
	}

	rec, err := c.Get(ctx, key)
	switch {
	case err == nil:
		c.applyRecord(key, view, rec)
	case errors.Is(err, ErrNotFound):
		// First time this document is seen; nothing to restore.
	default:
		return nil, err
	}

	s := &Session{cache: c, key: key, view: view}
	s.cancel = events.OnDocumentClose(key, func() {
		c.FlushOne(context.Background(), key, view)
	})

	c.logger.Debug("session attached", zap.String("key", key))
	return s, nil
}

// HandleShutdown registers a process-exit hook that flushes the whole
// mapping to the store. Flush failures are logged inside FlushAll; exit
// proceeds regardless.
func (c *Cache) HandleShutdown(events LifecycleEvents) (cancel func()) {
	return events.OnShutdown(func() {
		_ = c.FlushAll(context.Background())
	})
}

// Key returns the document key this session is attached to.
func (s *Session) Key() string {
	return s.key
}

// Detach deactivates persistence for the document: the close hook is
// unregistered and nothing further is captured. Detach does not flush;
// callers that want the current view state kept should call FlushOne
// first. Detach is idempotent.
func (s *Session) Detach() {
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		s.cache.logger.Debug("session detached", zap.String("key", s.key))
	})
}

// applyRecord restores a cached record to the live view. Order matters for
// the host renderer: geometry first, then scaling parameters, then one
// re-render. A setter failure abandons the rest of the restore; the cached
// record itself stays intact for a later attempt.
func (c *Cache) applyRecord(key string, view DocumentView, rec Record) {
	if rec.Slice != nil {
		if err := view.SetSlice(*rec.Slice); err != nil {
			c.logger.Debug("restoring slice failed", zap.String("key", key), zap.Error(err))
			return
		}
	}
	if rec.ImageWidth > 0 {
		if err := view.SetImageWidth(rec.ImageWidth); err != nil {
			c.logger.Debug("restoring image width failed", zap.String("key", key), zap.Error(err))
			return
		}
	}
	if rec.Resolution > 0 {
		if err := view.SetResolution(rec.Resolution); err != nil {
			c.logger.Debug("restoring resolution failed", zap.String("key", key), zap.Error(err))
			return
		}
	}
	if err := view.Reconvert(); err != nil {
		c.logger.Debug("reconvert after restore failed", zap.String("key", key), zap.Error(err))
	}
}

// captureRecord builds a record from the live view state. Any getter
// failure means the view is no longer in a readable shape and the capture
// is abandoned.
func captureRecord(view DocumentView) (Record, bool) {
	slice, err := view.CurrentSlice()
	if err != nil {
		return Record{}, false
	}

	width, err := view.ImageWidth()
	if err != nil {
		return Record{}, false
	}

	resolution, err := view.Resolution()
	if err != nil {
		return Record{}, false
	}

	rec := Record{ImageWidth: width, Resolution: resolution}
	if slice != nil {
		s := *slice
		rec.Slice = &s
	}
	return rec.normalize(), true
}

package slicecache

import "github.com/docfold/slicecache/internal/store"

// Slice is a rectangular sub-region of a rendered document page selected
// for display. Offsets are measured from the top-left corner in pixels.
type Slice struct {
	Left   int
	Top    int
	Width  int
	Height int
}

// valid reports whether the slice describes a usable region.
func (s Slice) valid() bool {
	return s.Left >= 0 && s.Top >= 0 && s.Width > 0 && s.Height > 0
}

// Record is the cached view configuration for one document.
//
// A nil Slice means the document has no custom slice. ImageWidth and
// Resolution are absent when zero.
type Record struct {
	Slice      *Slice
	ImageWidth int
	Resolution float64
}

// clone returns a copy that shares no pointers with r, so callers cannot
// mutate cached state through a returned record.
func (r Record) clone() Record {
	if r.Slice != nil {
		s := *r.Slice
		r.Slice = &s
	}
	return r
}

// normalize drops fields that carry no usable value: a malformed slice,
// a non-positive image width or resolution. The stored mapping only ever
// holds present-and-valid fields.
func (r Record) normalize() Record {
	if r.Slice != nil && !r.Slice.valid() {
		r.Slice = nil
	}
	if r.ImageWidth < 0 {
		r.ImageWidth = 0
	}
	if r.Resolution < 0 {
		r.Resolution = 0
	}
	return r
}

// recordToWire converts a record to its serialized form.
func recordToWire(r Record) store.Record {
	w := store.Record{
		ImageWidth: r.ImageWidth,
		Resolution: r.Resolution,
	}
	if r.Slice != nil {
		w.Slice = []int{r.Slice.Left, r.Slice.Top, r.Slice.Width, r.Slice.Height}
	}
	return w
}

// wireToRecord converts a serialized record back to the public type.
// A slice that is not a valid 4-tuple is treated as absent.
func wireToRecord(w store.Record) Record {
	r := Record{
		ImageWidth: w.ImageWidth,
		Resolution: w.Resolution,
	}
	if len(w.Slice) == 4 {
		s := Slice{Left: w.Slice[0], Top: w.Slice[1], Width: w.Slice[2], Height: w.Slice[3]}
		if s.valid() {
			r.Slice = &s
		}
	}
	return r.normalize()
}

package filestore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/docfold/slicecache/internal/store"
)

func testRecords() map[string]store.Record {
	return map[string]store.Record{
		"/home/u/paper.pdf": {
			Slice:      []int{0, 40, 1200, 1500},
			ImageWidth: 800,
			Resolution: 150,
		},
		"/home/u/scan.djvu": {
			Resolution: 300,
		},
		"/home/u/slides.pdf": {
			Slice: []int{10, 10, 640, 480},
		},
	}
}

func TestStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slices")
	s := New(path)
	ctx := context.Background()

	want := testRecords()
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_SaveWritesCodingMarker(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slices")
	s := New(path)

	if err := s.Save(context.Background(), testRecords()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	lines := strings.Split(string(data), "\n")
	if lines[0] != ";;; -*- coding: utf-8 -*-" {
		t.Errorf("first line = %q, want coding marker", lines[0])
	}
}

func TestStore_SaveIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	a := New(filepath.Join(dir, "a"))
	b := New(filepath.Join(dir, "b"))
	ctx := context.Background()

	records := testRecords()
	if err := a.Save(ctx, records); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := b.Save(ctx, records); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	dataA, _ := os.ReadFile(a.Path())
	dataB, _ := os.ReadFile(b.Path())
	if string(dataA) != string(dataB) {
		t.Error("two saves of the same mapping produced different bytes")
	}
}

func TestStore_LoadMissingFile(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "does-not-exist"))

	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v, want nil for a missing file", err)
	}
	if len(got) != 0 {
		t.Errorf("Load() returned %d records, want 0", len(got))
	}
}

func TestStore_LoadAcceptsAnyEncodingToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slices")
	content := ";;; -*- coding: latin-1 -*-\n" +
		`{"key":"/a.pdf","image_width":800}` + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	got, err := New(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got["/a.pdf"].ImageWidth != 800 {
		t.Errorf("record = %+v, want image_width 800", got["/a.pdf"])
	}
}

func TestStore_LoadMissingMarker(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slices")
	content := `{"key":"/a.pdf","image_width":800}` + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	got, err := New(path).Load(context.Background())
	if err == nil {
		t.Error("Load() error = nil, want diagnostic for missing marker")
	}
	if len(got) != 0 {
		t.Errorf("Load() returned %d records, want 0", len(got))
	}
}

func TestStore_LoadSkipsDamagedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slices")
	content := ";;; -*- coding: utf-8 -*-\n" +
		`{"key":"/good.pdf","image_width":800}` + "\n" +
		"{this is not json\n" +
		`{"image_width":640}` + "\n" + // no key
		`{"key":"/also-good.pdf","resolution":150}` + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	got, err := New(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := map[string]store.Record{
		"/good.pdf":      {ImageWidth: 800},
		"/also-good.pdf": {Resolution: 150},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("surviving subset mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_SaveUnwritablePath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "notadir")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	// Parent "directory" is a regular file, so the save cannot succeed.
	s := New(filepath.Join(blocker, "slices"))

	err := s.Save(context.Background(), testRecords())
	if err == nil {
		t.Fatal("Save() error = nil, want write failure")
	}
	if !errors.Is(err, store.ErrWriteFailed) {
		t.Errorf("Save() error = %v, want store.ErrWriteFailed", err)
	}
}

func TestStore_SaveLeavesOldFileOnFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slices")
	s := New(path)
	ctx := context.Background()

	if err := s.Save(ctx, map[string]store.Record{"/a.pdf": {ImageWidth: 800}}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	// A canceled context aborts the save before any write.
	canceled, cancel := context.WithCancel(ctx)
	cancel()
	if err := s.Save(canceled, map[string]store.Record{"/b.pdf": {ImageWidth: 640}}); err == nil {
		t.Fatal("Save() with canceled context succeeded")
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(before) != string(after) {
		t.Error("failed save changed the file contents")
	}
}

func TestStore_SaveCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config", "slices")
	s := New(path)

	if err := s.Save(context.Background(), testRecords()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Stat() error = %v, want store file to exist", err)
	}
}

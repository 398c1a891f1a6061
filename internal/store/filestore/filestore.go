// Package filestore implements a file-backed storage backend. The whole
// mapping lives in one text file that is replaced atomically on every save.
//
// The file format is line-oriented and human-inspectable. The first line is
// a coding marker declaring the text encoding; every following line is one
// JSON object holding a key and its record:
//
//	;;; -*- coding: utf-8 -*-
//	{"key":"/home/u/a.pdf","slice":[0,0,100,200],"image_width":800,"resolution":150}
//
// Readers accept any encoding token in the marker; writers always emit
// utf-8.
package filestore

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/docfold/slicecache/internal/store"
)

// codingHeader is the marker line written at the top of every store file.
const codingHeader = ";;; -*- coding: utf-8 -*-"

// headerRe matches a coding marker with any encoding token.
var headerRe = regexp.MustCompile(`^;;;\s*-\*-\s*coding:\s*[A-Za-z0-9._-]+\s*-\*-\s*$`)

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// Store is a file-backed storage backend.
type Store struct {
	path string
}

// New creates a file store backed by the file at path. The file does not
// need to exist yet; a fresh installation has no prior history.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// entry is the serialized form of one line in the store file.
type entry struct {
	Key string `json:"key"`
	store.Record
}

// Load reads the persisted mapping from the backing file.
//
// A missing file yields an empty map and no error. An unreadable file or a
// file without a valid coding marker yields an empty map and a diagnostic
// error the caller may log; lines that fail to parse are skipped so a
// partially damaged file still yields the entries that survive.
func (s *Store) Load(ctx context.Context) (map[string]store.Record, error) {
	records := make(map[string]store.Record)

	// Check for cancellation before starting I/O.
	select {
	case <-ctx.Done():
		return records, ctx.Err()
	default:
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return records, nil
		}
		return records, fmt.Errorf("reading store file: %w", err)
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	if !scanner.Scan() || !headerRe.MatchString(scanner.Text()) {
		return records, fmt.Errorf("store file %s: missing coding marker", s.path)
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var e entry
		if err := json.Unmarshal([]byte(line), &e); err != nil || e.Key == "" {
			// Damaged line; keep whatever else parses.
			continue
		}
		records[e.Key] = e.Record
	}

	return records, nil
}

// Save serializes the full mapping and atomically replaces the backing
// file. The parent directory is created if needed. Any failure is wrapped
// in store.ErrWriteFailed and leaves the previous file contents intact.
func (s *Store) Save(ctx context.Context, records map[string]store.Record) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	// Stable key order keeps saves byte-for-byte reproducible.
	keys := make([]string, 0, len(records))
	for k := range records {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteString(codingHeader)
	buf.WriteByte('\n')

	for _, k := range keys {
		line, err := json.Marshal(entry{Key: k, Record: records[k]})
		if err != nil {
			return fmt.Errorf("%w: encoding record for %q: %v", store.ErrWriteFailed, k, err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: creating %s: %v", store.ErrWriteFailed, dir, err)
		}
	}

	if err := atomic.WriteFile(s.path, &buf); err != nil {
		return fmt.Errorf("%w: writing %s: %v", store.ErrWriteFailed, s.path, err)
	}

	return nil
}

// Close releases any resources held by the store.
func (s *Store) Close() error {
	return nil
}

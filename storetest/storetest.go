// Package storetest provides in-memory implementations of the document
// store interfaces for use in tests. MemoryView performs its writes
// synchronously, unlike production view-store adapters, so tests can
// assert on view entries immediately after a save.
package storetest

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jacentio/espalier/document"
)

// MemoryPrimary is an in-memory document.PrimaryStore.
type MemoryPrimary struct {
	mu   sync.RWMutex
	docs map[string]map[string]any
}

// NewMemoryPrimary creates an empty MemoryPrimary.
func NewMemoryPrimary() *MemoryPrimary {
	return &MemoryPrimary{docs: make(map[string]map[string]any)}
}

// Exists reports whether a record is stored under id.
func (s *MemoryPrimary) Exists(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.docs[id]
	return ok, nil
}

// Read returns a copy of the stored snapshot for id.
func (s *MemoryPrimary) Read(_ context.Context, id string) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", document.ErrNotFound, id)
	}
	return copyMap(snapshot), nil
}

// Upsert stores a copy of the snapshot under id.
func (s *MemoryPrimary) Upsert(_ context.Context, id string, snapshot map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[id] = copyMap(snapshot)
	return nil
}

// Delete removes the record stored under id.
func (s *MemoryPrimary) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, id)
	return nil
}

// ScanKeys returns the sorted stored keys matching a glob pattern.
func (s *MemoryPrimary) ScanKeys(_ context.Context, pattern string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for key := range s.docs {
		ok, err := path.Match(pattern, key)
		if err != nil {
			return nil, err
		}
		if ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Len returns the number of stored records.
func (s *MemoryPrimary) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Snapshot returns a copy of the record stored under id, if any.
func (s *MemoryPrimary) Snapshot(id string) (map[string]any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot, ok := s.docs[id]
	if !ok {
		return nil, false
	}
	return copyMap(snapshot), true
}

// MemoryView is an in-memory document.ViewStore.
type MemoryView struct {
	mu      sync.RWMutex
	entries map[string]map[string]any
	writes  int
}

// NewMemoryView creates an empty MemoryView.
func NewMemoryView() *MemoryView {
	return &MemoryView{entries: make(map[string]map[string]any)}
}

// Read returns the entry stored at a full "path/id" location.
func (s *MemoryView) Read(_ context.Context, location string) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[location]
	if !ok {
		return nil, nil
	}
	return copyMap(entry), nil
}

// Create sets the entry at path/id.
func (s *MemoryView) Create(_ context.Context, viewPath, id string, value map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[join(viewPath, id)] = copyMap(value)
	s.writes++
}

// Update merges value into the entry at path/id, dropping nil values and
// skipping the write entirely when nothing remains.
func (s *MemoryView) Update(_ context.Context, viewPath, id string, value map[string]any) {
	pruned := make(map[string]any, len(value))
	for key, item := range value {
		if item != nil {
			pruned[key] = item
		}
	}
	if len(pruned) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	location := join(viewPath, id)
	entry, ok := s.entries[location]
	if !ok {
		entry = make(map[string]any, len(pruned))
		s.entries[location] = entry
	}
	for key, item := range pruned {
		entry[key] = copyValue(item)
	}
	s.writes++
}

// Delete removes the entry at path/id.
func (s *MemoryView) Delete(_ context.Context, viewPath, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, join(viewPath, id))
}

// Entry returns a copy of the entry at path/id, if any.
func (s *MemoryView) Entry(viewPath, id string) (map[string]any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[join(viewPath, id)]
	if !ok {
		return nil, false
	}
	return copyMap(entry), true
}

// Len returns the number of stored entries.
func (s *MemoryView) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Writes returns the number of create and update operations that actually
// touched the store.
func (s *MemoryView) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

func join(viewPath, id string) string {
	return strings.TrimSuffix(viewPath, "/") + "/" + id
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for key, item := range m {
		out[key] = copyValue(item)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = copyValue(item)
		}
		return out
	case time.Time:
		return t
	}
	return v
}

package store

import (
	"context"
	"sort"
	"sync"
)

// InMemory keeps records in a map guarded by a RWMutex. Ids are assigned
// from a counter starting at 1 and never reused.
type InMemory[T Entity[T]] struct {
	mu      sync.RWMutex
	records map[int64]T
	nextID  int64
}

// NewInMemory creates an empty in-memory store.
func NewInMemory[T Entity[T]]() *InMemory[T] {
	return &InMemory[T]{records: make(map[int64]T)}
}

// Create assigns the next id to rec and stores a copy.
func (s *InMemory[T]) Create(_ context.Context, rec T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	rec.SetID(s.nextID)
	s.records[s.nextID] = rec.Clone()
	return nil
}

func (s *InMemory[T]) Get(_ context.Context, id int64) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	return rec.Clone(), nil
}

// List returns copies ordered by registration date then id, newest first.
func (s *InMemory[T]) List(_ context.Context) ([]T, error) {
	s.mu.RLock()
	out := make([]T, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].RegisteredOn(), out[j].RegisteredOn()
		if !a.Equal(b) {
			return a.After(b)
		}
		return out[i].RecordID() > out[j].RecordID()
	})
	return out, nil
}

// Update replaces the stored record with the same id. The registration
// date of the stored record is kept.
func (s *InMemory[T]) Update(_ context.Context, rec T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.records[rec.RecordID()]
	if !ok {
		return ErrNotFound
	}
	next := rec.Clone()
	next.Stamp(prev.RegisteredOn())
	s.records[rec.RecordID()] = next
	return nil
}

// Delete removes the record and returns what was stored.
func (s *InMemory[T]) Delete(_ context.Context, id int64) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	delete(s.records, id)
	return rec, nil
}

func (s *InMemory[T]) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

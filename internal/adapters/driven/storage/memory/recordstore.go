// Package memory provides an in-memory RecordStore for tests and
// small runs.
package memory

import (
	"context"
	"sync"

	"github.com/poeticinspiired/llm-data-pipeline/internal/core/domain"
	"github.com/poeticinspiired/llm-data-pipeline/internal/core/ports/driven"
)

// Ensure RecordStore implements the interface.
var _ driven.RecordStore = (*RecordStore)(nil)

// RecordStore keeps records in a map guarded by a RWMutex. Insertion
// order is tracked so listings are deterministic.
type RecordStore struct {
	mu      sync.RWMutex
	records map[string]*domain.Record
	order   []string
}

// NewRecordStore creates an empty in-memory record store.
func NewRecordStore() *RecordStore {
	return &RecordStore{
		records: make(map[string]*domain.Record),
	}
}

// SaveRecords stores a batch of records, replacing same-ID entries.
func (s *RecordStore) SaveRecords(_ context.Context, recs []*domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range recs {
		if rec == nil {
			return domain.ErrNilRecord
		}
		if _, exists := s.records[rec.ID]; !exists {
			s.order = append(s.order, rec.ID)
		}
		s.records[rec.ID] = rec
	}
	return nil
}

// GetRecord retrieves a record by ID.
func (s *RecordStore) GetRecord(_ context.Context, id string) (*domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return rec, nil
}

// ListBySource returns all records from the named source in insertion
// order.
func (s *RecordStore) ListBySource(_ context.Context, source string) ([]*domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Record
	for _, id := range s.order {
		if rec, ok := s.records[id]; ok && rec.Source == source {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Count returns the number of stored records.
func (s *RecordStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// DeleteRecord removes a record by ID. Deleting an absent record is
// not an error.
func (s *RecordStore) DeleteRecord(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return nil
	}
	delete(s.records, id)
	for i, stored := range s.order {
		if stored == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

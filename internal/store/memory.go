package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory RecordStore for tests and storeless runs.
type MemoryStore struct {
	mu      sync.RWMutex
	records []*InspectionRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Insert appends one record.
func (s *MemoryStore) Insert(ctx context.Context, rec *InspectionRecord) error {
	cp := *rec

	s.mu.Lock()
	s.records = append(s.records, &cp)
	s.mu.Unlock()

	return nil
}

// Ping always reports healthy.
func (s *MemoryStore) Ping(ctx context.Context) Health {
	return Health{OK: true}
}

// Records returns a snapshot of everything inserted so far.
func (s *MemoryStore) Records() []*InspectionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*InspectionRecord, len(s.records))
	copy(out, s.records)
	return out
}

var _ RecordStore = (*MemoryStore)(nil)

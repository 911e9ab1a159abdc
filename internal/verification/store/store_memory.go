package store

import (
	"context"
	"fmt"
	"sync"

	"admission/internal/verification"
	"admission/pkg/platform/sentinel"
)

// DefaultCapacity bounds the registry when no capacity is configured.
const DefaultCapacity = 100

// InMemory is the append-only identity registry. Registration numbers and
// national IDs are unique; the table holds at most capacity records.
type InMemory struct {
	mu           sync.RWMutex
	capacity     int
	records      []verification.Record
	byRegNumber  map[string]int
	byNationalID map[string]int
}

func New(capacity int) *InMemory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &InMemory{
		capacity:     capacity,
		byRegNumber:  make(map[string]int),
		byNationalID: make(map[string]int),
	}
}

// Append stores a record. It returns sentinel.ErrExhausted when the table is
// full and sentinel.ErrConflict when the registration number or national ID exists.
func (s *InMemory) Append(_ context.Context, record verification.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.records) >= s.capacity {
		return fmt.Errorf("registry holds %d records: %w", s.capacity, sentinel.ErrExhausted)
	}
	if _, ok := s.byRegNumber[record.RegNumber]; ok {
		return fmt.Errorf("registration number %s: %w", record.RegNumber, sentinel.ErrConflict)
	}
	if _, ok := s.byNationalID[record.NationalID]; ok {
		return fmt.Errorf("national ID %s: %w", record.NationalID, sentinel.ErrConflict)
	}
	s.byRegNumber[record.RegNumber] = len(s.records)
	s.byNationalID[record.NationalID] = len(s.records)
	s.records = append(s.records, record)
	return nil
}

func (s *InMemory) FindByRegNumber(_ context.Context, regNumber string) (*verification.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i, ok := s.byRegNumber[regNumber]; ok {
		record := s.records[i]
		return &record, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) ExistsNationalID(_ context.Context, nationalID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byNationalID[nationalID]
	return ok, nil
}

func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

package store

import (
	"context"
	"sort"
	"sync"

	"aegis/internal/consent/models"
)

// InMemoryStore keeps consent records in memory for tests and for running
// without a database.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]map[models.Type]*models.Record
}

// NewInMemory constructs an empty in-memory consent store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]map[models.Type]*models.Record)}
}

func (s *InMemoryStore) Save(_ context.Context, record *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byType, ok := s.records[record.UserID]
	if !ok {
		byType = make(map[models.Type]*models.Record)
		s.records[record.UserID] = byType
	}
	if _, exists := byType[record.Type]; exists {
		return ErrAlreadyExists
	}
	cp := *record
	byType[record.Type] = &cp
	return nil
}

func (s *InMemoryStore) FindByUserAndType(_ context.Context, userID string, consentType models.Type) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[userID][consentType]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *record
	return &cp, nil
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID string) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Record
	for _, record := range s.records[userID] {
		cp := *record
		out = append(out, &cp)
	}
	sortByGrantedAt(out)
	return out, nil
}

func (s *InMemoryStore) List(_ context.Context, consentType models.Type, limit, offset int) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []*models.Record
	for _, byType := range s.records {
		for _, record := range byType {
			if consentType != "" && record.Type != consentType {
				continue
			}
			cp := *record
			matched = append(matched, &cp)
		}
	}
	sortByGrantedAt(matched)

	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *InMemoryStore) Count(_ context.Context, consentType models.Type) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, byType := range s.records {
		for _, record := range byType {
			if consentType == "" || record.Type == consentType {
				count++
			}
		}
	}
	return count, nil
}

func (s *InMemoryStore) CountByType(_ context.Context) (map[models.Type]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[models.Type]int)
	for _, byType := range s.records {
		for consentType := range byType {
			counts[consentType]++
		}
	}
	return counts, nil
}

func (s *InMemoryStore) Exists(_ context.Context, userID string, consentType models.Type) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[userID][consentType]
	return ok, nil
}

func sortByGrantedAt(records []*models.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].GrantedAt.After(records[j].GrantedAt)
	})
}

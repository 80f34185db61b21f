package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"aegis/internal/audit/models"
)

// InMemoryStore keeps audit entries in memory for tests and for running
// without a database. Entries are copied on the way in and out so callers
// can never mutate stored state.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []*models.Entry
}

// NewInMemory constructs an empty in-memory audit store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, entry *models.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *entry
	s.entries = append(s.entries, &cp)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.ID == id {
			cp := *e
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) List(_ context.Context, filter models.Filter, limit, offset int) ([]*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.filtered(filter)
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	out := make([]*models.Entry, len(matched))
	for i, e := range matched {
		cp := *e
		out[i] = &cp
	}
	return out, nil
}

func (s *InMemoryStore) Count(_ context.Context, filter models.Filter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.filtered(filter)), nil
}

func (s *InMemoryStore) CountByAction(_ context.Context, filter models.Filter) (map[models.Action]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[models.Action]int)
	for _, e := range s.filtered(filter) {
		counts[e.Action]++
	}
	return counts, nil
}

func (s *InMemoryStore) CountByEntity(_ context.Context, filter models.Filter) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int)
	for _, e := range s.filtered(filter) {
		counts[e.Entity]++
	}
	return counts, nil
}

func (s *InMemoryStore) ListSince(_ context.Context, filter models.Filter, since time.Time, limit int) ([]*models.Entry, error) {
	from := since
	filter.From = &from
	return s.List(context.Background(), filter, limit, 0)
}

// filtered returns matching entries without copying; callers copy before
// returning and must hold the lock.
func (s *InMemoryStore) filtered(filter models.Filter) []*models.Entry {
	var matched []*models.Entry
	for _, e := range s.entries {
		if filter.Matches(e) {
			matched = append(matched, e)
		}
	}
	return matched
}

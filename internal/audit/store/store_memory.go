package store

import (
	"context"
	"sort"
	"sync"

	"fiuportal/internal/audit"
)

// InMemoryStore keeps the ledger in memory, append-only.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []audit.Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *InMemoryStore) Query(_ context.Context, filters audit.Filters) ([]audit.Entry, int, error) {
	filters.Normalize()

	s.mu.RLock()
	var matched []audit.Entry
	for _, e := range s.entries {
		if matches(e, filters) {
			matched = append(matched, e)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].At.Equal(matched[j].At) {
			return matched[i].ID.String() > matched[j].ID.String()
		}
		return matched[i].At.After(matched[j].At)
	})

	total := len(matched)
	start := (filters.Page - 1) * filters.PageSize
	if start >= total {
		return nil, total, nil
	}
	end := start + filters.PageSize
	if end > total {
		end = total
	}
	page := make([]audit.Entry, end-start)
	copy(page, matched[start:end])
	return page, total, nil
}

func matches(e audit.Entry, f audit.Filters) bool {
	if f.Kind != "" && e.Kind != f.Kind {
		return false
	}
	if !f.Actor.IsNil() && e.Actor != f.Actor {
		return false
	}
	if f.Reference != "" && e.Reference != f.Reference {
		return false
	}
	if !f.From.IsZero() && e.At.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.At.After(f.To) {
		return false
	}
	return true
}

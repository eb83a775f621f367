package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"fiuportal/internal/report/models"
	id "fiuportal/pkg/domain"
	"fiuportal/pkg/platform/sentinel"
)

// InMemoryStore keeps reports in a mutex-guarded map. The mutex gives the
// same per-report serialization the postgres store gets from its
// conditional UPDATE.
type InMemoryStore struct {
	mu      sync.RWMutex
	reports map[id.Reference]*models.Report
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{reports: make(map[id.Reference]*models.Report)}
}

func (s *InMemoryStore) Create(_ context.Context, report *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reports[report.Reference]; exists {
		return sentinel.ErrConflict
	}
	cp := *report
	s.reports[report.Reference] = &cp
	return nil
}

func (s *InMemoryStore) GetByReference(_ context.Context, ref id.Reference) (*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, ok := s.reports[ref]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *report
	return &cp, nil
}

func (s *InMemoryStore) UpdateStateFrom(_ context.Context, ref id.Reference, from, to models.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, ok := s.reports[ref]
	if !ok {
		return sentinel.ErrNotFound
	}
	if report.State != from {
		return sentinel.ErrStale
	}
	report.State = to
	return nil
}

func (s *InMemoryStore) List(_ context.Context, filter Filter) ([]*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Report
	for _, report := range s.reports {
		if !matches(report, filter) {
			continue
		}
		cp := *report
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].EnteredQueueAt.Equal(out[j].EnteredQueueAt) {
			return out[i].Reference < out[j].Reference
		}
		return out[i].EnteredQueueAt.Before(out[j].EnteredQueueAt)
	})
	return out, nil
}

func matches(report *models.Report, filter Filter) bool {
	if len(filter.States) > 0 {
		found := false
		for _, st := range filter.States {
			if report.State == st {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.Type != "" && report.Type != filter.Type {
		return false
	}
	if filter.Risk != "" && report.Risk != filter.Risk {
		return false
	}
	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(report.Reference.String()), needle) &&
			!strings.Contains(strings.ToLower(report.EntityName), needle) {
			return false
		}
	}
	return true
}

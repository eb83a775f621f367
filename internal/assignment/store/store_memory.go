package store

import (
	"context"
	"sync"

	"fiuportal/internal/assignment"
	id "fiuportal/pkg/domain"
	"fiuportal/pkg/platform/sentinel"
)

// InMemoryStore keeps assignments in memory. The single mutex makes
// supersede atomic, mirroring the transaction the postgres store uses.
type InMemoryStore struct {
	mu sync.RWMutex
	// byReport holds only the active assignment per report.
	byReport map[id.ReportID]*assignment.Assignment
	// history keeps superseded records; never read by the engine but kept
	// because assignments are superseded, not erased.
	history []*assignment.Assignment
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byReport: make(map[id.ReportID]*assignment.Assignment)}
}

func (s *InMemoryStore) CreateSuperseding(_ context.Context, a *assignment.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prior, ok := s.byReport[a.ReportID]; ok {
		prior.Active = false
		s.history = append(s.history, prior)
	}
	cp := *a
	cp.Active = true
	s.byReport[a.ReportID] = &cp
	return nil
}

func (s *InMemoryStore) ActiveByReport(_ context.Context, reportID id.ReportID) (*assignment.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.byReport[reportID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *InMemoryStore) ActiveByAssignee(_ context.Context, assignee id.ActorID) ([]*assignment.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*assignment.Assignment
	for _, a := range s.byReport {
		if a.Assignee == assignee {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *InMemoryStore) ActiveAll(_ context.Context) ([]*assignment.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*assignment.Assignment, 0, len(s.byReport))
	for _, a := range s.byReport {
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

func (s *InMemoryStore) CountActiveByAssignee(_ context.Context, assignee id.ActorID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, a := range s.byReport {
		if a.Assignee == assignee {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryStore) Deactivate(_ context.Context, reportID id.ReportID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prior, ok := s.byReport[reportID]; ok {
		prior.Active = false
		s.history = append(s.history, prior)
		delete(s.byReport, reportID)
	}
	return nil
}

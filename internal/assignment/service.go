package assignment

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"fiuportal/internal/platform/metrics"
	"fiuportal/internal/report/models"
	id "fiuportal/pkg/domain"
	dErrors "fiuportal/pkg/domain-errors"
	"fiuportal/pkg/platform/sentinel"
	"fiuportal/pkg/requestcontext"
)

// ReportStore is the slice of the report port the manager needs.
type ReportStore interface {
	GetByReference(ctx context.Context, ref id.Reference) (*models.Report, error)
	UpdateStateFrom(ctx context.Context, ref id.Reference, from, to models.State) error
}

// Store is the assignment persistence dependency (see store.Store).
type Store interface {
	CreateSuperseding(ctx context.Context, a *Assignment) error
	ActiveByReport(ctx context.Context, reportID id.ReportID) (*Assignment, error)
	ActiveByAssignee(ctx context.Context, assignee id.ActorID) ([]*Assignment, error)
	ActiveAll(ctx context.Context) ([]*Assignment, error)
	CountActiveByAssignee(ctx context.Context, assignee id.ActorID) (int, error)
	Deactivate(ctx context.Context, reportID id.ReportID) error
}

// Service enforces the assignment preconditions: exclusivity, supervisor
// reassignment authority, and assignable lifecycle states.
type Service struct {
	store           Store
	reports         ReportStore
	defaultDeadline time.Duration
	logger          *slog.Logger
	metrics         *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithDefaultDeadline overrides the 48h review deadline applied when the
// caller does not set one explicitly.
func WithDefaultDeadline(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.defaultDeadline = d
		}
	}
}

func New(store Store, reports ReportStore, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("assignment store is required")
	}
	if reports == nil {
		return nil, errors.New("report store is required")
	}

	svc := &Service{
		store:           store,
		reports:         reports,
		defaultDeadline: 48 * time.Hour,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// AssignRequest carries one assignment action. Caller identity and role
// come from the request context.
type AssignRequest struct {
	Reference id.Reference
	Assignee  id.ActorID
	// Deadline is optional; zero means entered_queue_at + default.
	Deadline time.Time
}

// Assign grants or transfers the exclusive assignment for a report.
//
// Errors: CodeNotFound, CodeNotAssignable, CodeAlreadyAssigned (active
// assignment and caller lacks reassignment authority), CodeForbidden
// (individual contributor assigning someone other than themselves),
// CodeStaleState (lost the pickup race).
func (s *Service) Assign(ctx context.Context, req AssignRequest) (*Assignment, error) {
	caller := requestcontext.Actor(ctx)
	role := requestcontext.Role(ctx)

	if req.Assignee.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "assignee is required")
	}
	if !role.IsSupervisor() && req.Assignee != caller {
		return nil, dErrors.New(dErrors.CodeForbidden, "only supervisors may assign reports to others")
	}

	report, err := s.reports.GetByReference(ctx, req.Reference)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "report not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "report store unavailable")
	}

	if !report.State.IsAssignable() {
		return nil, dErrors.New(dErrors.CodeNotAssignable,
			"report in state "+string(report.State)+" cannot be assigned")
	}

	prior, err := s.store.ActiveByReport(ctx, report.ID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "assignment store unavailable")
	}
	if prior != nil && !role.IsSupervisor() {
		return nil, dErrors.New(dErrors.CodeAlreadyAssigned, "report is already assigned")
	}

	// Granting an assignment advances queued reports into their
	// in-progress state. The CAS loses when another actor picked the
	// report up (or decided it) between our read and this write.
	if next := report.State.OnAssignment(); next != report.State {
		if err := s.reports.UpdateStateFrom(ctx, req.Reference, report.State, next); err != nil {
			if errors.Is(err, sentinel.ErrStale) {
				return nil, dErrors.New(dErrors.CodeStaleState, "report was picked up or decided by someone else")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "report store unavailable")
		}
	}

	deadline := req.Deadline
	if deadline.IsZero() {
		deadline = report.EnteredQueueAt.Add(s.defaultDeadline)
	}

	a := &Assignment{
		ID:         id.NewAssignmentID(),
		ReportID:   report.ID,
		Reference:  report.Reference,
		Assignee:   req.Assignee,
		AssignedBy: caller,
		AssignedAt: requestcontext.Now(ctx),
		Deadline:   deadline,
		Active:     true,
	}
	if err := s.store.CreateSuperseding(ctx, a); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "assignment store unavailable")
	}
	if prior == nil && s.metrics != nil {
		s.metrics.ActiveAssignments.Inc()
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "report assigned",
			"reference", report.Reference,
			"assignee", a.Assignee,
			"assigned_by", caller,
			"superseded", prior != nil,
			"log_type", "audit",
		)
	}
	return a, nil
}

// WorkloadOf counts the active assignments held by an officer, computed
// at query time.
func (s *Service) WorkloadOf(ctx context.Context, officer id.ActorID) (int, error) {
	count, err := s.store.CountActiveByAssignee(ctx, officer)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeUnavailable, "assignment store unavailable")
	}
	return count, nil
}

// ActiveFor returns the active assignment for a report, or nil when
// unassigned.
func (s *Service) ActiveFor(ctx context.Context, reportID id.ReportID) (*Assignment, error) {
	a, err := s.store.ActiveByReport(ctx, reportID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "assignment store unavailable")
	}
	return a, nil
}

// ActiveAll returns every active assignment, for the queue resolver's
// assignee join.
func (s *Service) ActiveAll(ctx context.Context) ([]*Assignment, error) {
	all, err := s.store.ActiveAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "assignment store unavailable")
	}
	return all, nil
}

// ClearActive drops the active assignment for a report. Called by the
// decision engine when a transition leaves a non-assignable state behind.
func (s *Service) ClearActive(ctx context.Context, reportID id.ReportID) error {
	prior, err := s.store.ActiveByReport(ctx, reportID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "assignment store unavailable")
	}
	if err := s.store.Deactivate(ctx, reportID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "assignment store unavailable")
	}
	if prior != nil && s.metrics != nil {
		s.metrics.ActiveAssignments.Dec()
	}
	return nil
}

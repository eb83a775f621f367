// Package decision is the workflow state machine: it validates a decision
// against a report's current lifecycle state, applies the transition with
// a compare-and-swap, and records the audit entry in the same breath.
package decision

import (
	"context"
	"errors"
	"log/slog"

	"fiuportal/internal/audit"
	"fiuportal/internal/decision/metrics"
	"fiuportal/internal/report/models"
	id "fiuportal/pkg/domain"
	dErrors "fiuportal/pkg/domain-errors"
	"fiuportal/pkg/platform/sentinel"
	"fiuportal/pkg/requestcontext"
)

// ReportStore is the slice of the report port the engine needs.
type ReportStore interface {
	GetByReference(ctx context.Context, ref id.Reference) (*models.Report, error)
	UpdateStateFrom(ctx context.Context, ref id.Reference, from, to models.State) error
}

// Assignments is the engine's hook into the assignment manager: every
// successful transition ends the deciding actor's assignment.
type Assignments interface {
	ClearActive(ctx context.Context, reportID id.ReportID) error
}

// Ledger records each applied decision.
type Ledger interface {
	Record(ctx context.Context, entry audit.Entry) (audit.Entry, error)
}

// SubmitDecision is one decision against one report. Reason carries the
// mandatory justification for negative/escalating kinds; Comments the
// optional note for archive/monitor.
type SubmitDecision struct {
	Kind     models.DecisionKind
	Reason   string
	Comments string
}

// Outcome reports an applied transition.
type Outcome struct {
	Reference id.Reference        `json:"reference"`
	Decision  models.DecisionKind `json:"decision"`
	FromState models.State        `json:"from_state"`
	ToState   models.State        `json:"to_state"`
	AuditID   string              `json:"audit_id"`
}

type Service struct {
	reports     ReportStore
	assignments Assignments
	ledger      Ledger
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(reports ReportStore, assignments Assignments, ledger Ledger, opts ...Option) (*Service, error) {
	if reports == nil {
		return nil, errors.New("report store is required")
	}
	if assignments == nil {
		return nil, errors.New("assignment manager is required")
	}
	if ledger == nil {
		return nil, errors.New("audit ledger is required")
	}

	svc := &Service{reports: reports, assignments: assignments, ledger: ledger}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Apply validates and applies one decision. Exactly one of two concurrent
// decisions against the same report in the same state succeeds; the loser
// gets CodeStaleState and leaves no trace in the ledger.
func (s *Service) Apply(ctx context.Context, ref id.Reference, sub SubmitDecision) (*Outcome, error) {
	if !sub.Kind.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unsupported decision kind")
	}
	if err := ValidateReason(sub.Kind, sub.Reason); err != nil {
		s.count(sub.Kind, "missing_reason")
		return nil, err
	}

	report, err := s.reports.GetByReference(ctx, ref)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "report not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "report store unavailable")
	}

	next, err := NextState(report.Type, report.State, sub.Kind)
	if err != nil {
		s.count(sub.Kind, "illegal_transition")
		return nil, err
	}

	// The lifecycle state is the CAS token: if someone else decided (or
	// picked up) the report after our read, the conditional write loses
	// and the caller must re-read rather than overwrite.
	if err := s.reports.UpdateStateFrom(ctx, ref, report.State, next); err != nil {
		if errors.Is(err, sentinel.ErrStale) {
			s.count(sub.Kind, "stale_state")
			return nil, dErrors.New(dErrors.CodeStaleState, "report state changed; someone else decided first")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "report store unavailable")
	}

	// The deciding actor's task is done regardless of destination;
	// follow-on stages get fresh assignments.
	if err := s.assignments.ClearActive(ctx, report.ID); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "failed to clear assignment after decision",
			"reference", ref,
			"error", err,
		)
	}

	actor := requestcontext.Actor(ctx)
	entry, err := s.ledger.Record(ctx, audit.Entry{
		DecisionID: id.NewDecisionID(),
		Reference:  report.Reference,
		ReportType: report.Type,
		EntityName: report.EntityName,
		Kind:       sub.Kind,
		Actor:      actor,
		Reason:     sub.Reason,
		Comments:   sub.Comments,
		FromState:  report.State,
		ToState:    next,
	})
	if err != nil {
		// The transition committed but its ledger entry did not; this is
		// the one inconsistency the engine cannot hide. Surface loudly.
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "decision applied but audit record failed",
				"reference", ref,
				"decision", sub.Kind,
				"error", err,
			)
		}
		return nil, err
	}

	s.count(sub.Kind, "applied")
	if s.logger != nil {
		s.logger.InfoContext(ctx, "decision applied",
			"reference", ref,
			"decision", sub.Kind,
			"actor", actor,
			"from_state", report.State,
			"to_state", next,
			"log_type", "audit",
		)
	}

	return &Outcome{
		Reference: report.Reference,
		Decision:  sub.Kind,
		FromState: report.State,
		ToState:   next,
		AuditID:   entry.ID.String(),
	}, nil
}

func (s *Service) count(kind models.DecisionKind, outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveDecision(string(kind), outcome)
	}
}

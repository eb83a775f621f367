// Package escalation is the second-reviewer gate over escalated reports.
// It layers one constraint on top of the decision engine: the supervisor
// resolving an escalation must not be the actor who raised it.
package escalation

import (
	"context"
	"log/slog"

	"fiuportal/internal/audit"
	"fiuportal/internal/decision"
	"fiuportal/internal/report/models"
	id "fiuportal/pkg/domain"
	dErrors "fiuportal/pkg/domain-errors"
	"fiuportal/pkg/requestcontext"
)

// Decider is the slice of the decision engine the gate delegates to.
type Decider interface {
	Apply(ctx context.Context, ref id.Reference, sub decision.SubmitDecision) (*decision.Outcome, error)
}

// Ledger lets the gate look up who raised the escalation.
type Ledger interface {
	Query(ctx context.Context, filters audit.Filters) ([]audit.Entry, int, error)
}

type Service struct {
	decisions Decider
	ledger    Ledger
	logger    *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(decisions Decider, ledger Ledger, opts ...Option) (*Service, error) {
	if decisions == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "decision engine is required")
	}
	if ledger == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "audit ledger is required")
	}

	svc := &Service{decisions: decisions, ledger: ledger}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Approve sends an escalated report on to analysis. The caller must be a
// different actor than the one who recorded the ESCALATE decision.
func (s *Service) Approve(ctx context.Context, ref id.Reference) (*decision.Outcome, error) {
	if err := s.refuseSelfReview(ctx, ref); err != nil {
		return nil, err
	}
	return s.decisions.Apply(ctx, ref, decision.SubmitDecision{
		Kind: models.KindEscalationApprove,
	})
}

// Reject closes an escalation with a mandatory note; the report archives.
func (s *Service) Reject(ctx context.Context, ref id.Reference, note string) (*decision.Outcome, error) {
	if err := s.refuseSelfReview(ctx, ref); err != nil {
		return nil, err
	}
	return s.decisions.Apply(ctx, ref, decision.SubmitDecision{
		Kind:   models.KindEscalationReject,
		Reason: note,
	})
}

// refuseSelfReview finds the most recent ESCALATE entry for the report
// and rejects the request when the caller is its actor. The ledger query
// is ordered newest-first, so the first entry is the escalation that put
// the report in its current pending state.
func (s *Service) refuseSelfReview(ctx context.Context, ref id.Reference) error {
	entries, _, err := s.ledger.Query(ctx, audit.Filters{
		Reference: ref,
		Kind:      models.KindEscalate,
		Page:      1,
		PageSize:  1,
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "audit ledger unavailable")
	}
	if len(entries) == 0 {
		return nil
	}

	approver := requestcontext.Actor(ctx)
	if entries[0].Actor == approver {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "self-approval attempt refused",
				"reference", ref,
				"actor", approver,
				"log_type", "audit",
			)
		}
		return dErrors.New(dErrors.CodeSelfApproval,
			"the actor who escalated a report cannot resolve its escalation")
	}
	return nil
}

// Package intake accepts report submissions from reporting entities and
// places them in the validation queue.
package intake

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"fiuportal/internal/platform/metrics"
	"fiuportal/internal/ratelimit"
	"fiuportal/internal/report/models"
	reportstore "fiuportal/internal/report/store"
	id "fiuportal/pkg/domain"
	dErrors "fiuportal/pkg/domain-errors"
	"fiuportal/pkg/platform/sentinel"
	"fiuportal/pkg/requestcontext"
)

// SubmitReport is one submission from a reporting entity.
type SubmitReport struct {
	Reference        string
	Type             string
	EntityID         id.EntityID
	EntityName       string
	Risk             string
	TransactionCount int
	TotalAmount      float64
}

type Service struct {
	reports reportstore.Store
	limiter *ratelimit.Limiter
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLimiter enables per-entity submission throttling. Without it intake
// accepts everything.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(s *Service) { s.limiter = l }
}

func New(reports reportstore.Store, opts ...Option) (*Service, error) {
	if reports == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "report store is required")
	}

	svc := &Service{reports: reports}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Submit validates and stores a new report. The report enters the
// validation queue immediately; entered_queue_at is the submission time
// and anchors both FIFO ordering and the default assignment deadline.
func (s *Service) Submit(ctx context.Context, sub SubmitReport) (*models.Report, error) {
	report, err := s.prepare(ctx, sub)
	if err != nil {
		return nil, err
	}

	if s.limiter != nil {
		res, err := s.limiter.Allow(ctx, report.EntityID.String())
		if err != nil {
			return nil, err
		}
		if !res.Allowed {
			if s.metrics != nil {
				s.metrics.IntakeThrottled.Inc()
			}
			if s.logger != nil {
				s.logger.WarnContext(ctx, "submission throttled",
					"entity_id", report.EntityID,
					"reference", report.Reference,
					"reset_at", res.ResetAt,
				)
			}
			return nil, dErrors.New(dErrors.CodeRateLimited, "entity submission limit reached")
		}
	}

	if err := s.reports.Create(ctx, report); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "reference "+report.Reference.String()+" already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "report store unavailable")
	}

	if s.metrics != nil {
		s.metrics.ReportsSubmitted.Inc()
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "report submitted",
			"reference", report.Reference,
			"report_type", report.Type,
			"entity_id", report.EntityID,
			"log_type", "audit",
		)
	}
	return report, nil
}

func (s *Service) prepare(ctx context.Context, sub SubmitReport) (*models.Report, error) {
	ref, err := id.ParseReference(sub.Reference)
	if err != nil {
		return nil, err
	}

	rtype := models.ReportType(strings.ToUpper(strings.TrimSpace(sub.Type)))
	if rtype != models.TypeCTR && rtype != models.TypeSTR {
		return nil, dErrors.NewField(dErrors.CodeInvalidInput, "report_type", "report type must be CTR or STR")
	}
	if sub.EntityID.IsNil() {
		return nil, dErrors.NewField(dErrors.CodeInvalidInput, "entity_id", "entity id is required")
	}
	if strings.TrimSpace(sub.EntityName) == "" {
		return nil, dErrors.NewField(dErrors.CodeInvalidInput, "entity_name", "entity name is required")
	}
	if sub.TransactionCount < 0 || sub.TotalAmount < 0 {
		return nil, dErrors.NewField(dErrors.CodeInvalidInput, "transactions", "transaction totals cannot be negative")
	}

	risk := models.RiskLevel(strings.ToUpper(strings.TrimSpace(sub.Risk)))
	if risk == "" {
		risk = models.RiskLow
	}
	if !risk.IsValid() {
		return nil, dErrors.NewField(dErrors.CodeInvalidInput, "risk", "unknown risk level")
	}

	now := requestcontext.Now(ctx)
	return &models.Report{
		ID:               id.NewReportID(),
		Reference:        ref,
		Type:             rtype,
		EntityID:         sub.EntityID,
		EntityName:       strings.TrimSpace(sub.EntityName),
		State:            models.StatePendingValidation,
		Risk:             risk,
		TransactionCount: sub.TransactionCount,
		TotalAmount:      sub.TotalAmount,
		SubmittedAt:      now,
		EnteredQueueAt:   now,
	}, nil
}

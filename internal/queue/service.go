// Package queue computes the role-scoped, ordered view of reports a staff
// member may act on. Views are recomputed from current store state on
// every read; nothing here is cached as authoritative.
package queue

import (
	"context"
	"log/slog"
	"time"

	"fiuportal/internal/assignment"
	"fiuportal/internal/platform/metrics"
	"fiuportal/internal/report/models"
	reportstore "fiuportal/internal/report/store"
	id "fiuportal/pkg/domain"
	dErrors "fiuportal/pkg/domain-errors"
	"fiuportal/pkg/requestcontext"
)

// Name identifies one of the three queues.
type Name string

const (
	QueueValidation  Name = "validation"
	QueueReview      Name = "review"
	QueueEscalations Name = "escalations"
)

// queueStates maps each queue to the lifecycle states it surfaces. A
// report leaves every queue the instant it transitions out of these sets;
// there is no membership flag to go stale.
var queueStates = map[Name][]models.State{
	QueueValidation:  {models.StatePendingValidation, models.StateInValidation},
	QueueReview:      {models.StateValidated, models.StateUnderComplianceReview},
	QueueEscalations: {models.StateEscalationPending},
}

// Filters are the caller-supplied narrowing parameters. Role policy is
// applied first and wins on conflicts.
type Filters struct {
	Status models.State
	Risk   models.RiskLevel
	// Age selects an age bucket by time in queue: "24h", "48h", "72h",
	// or "72h+".
	Age    string
	Search string
	// AssignedToMe and Unassigned are honored only for supervisory roles.
	AssignedToMe bool
	Unassigned   bool
	// Sort accepts only "newest" as an override of the FIFO base order.
	Sort     string
	Page     int
	PageSize int
}

// QueueView is the computed projection returned to the caller.
type QueueView struct {
	Items      []models.Summary `json:"items"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
	HasMore    bool             `json:"has_more"`
}

// Assignments is the slice of the assignment manager the resolver needs
// to join active assignees onto report summaries.
type Assignments interface {
	ActiveAll(ctx context.Context) ([]*assignment.Assignment, error)
}

type Service struct {
	reports     reportstore.Store
	assignments Assignments
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

func New(reports reportstore.Store, assignments Assignments, opts ...Option) (*Service, error) {
	if reports == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "report store is required")
	}
	if assignments == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "assignment manager is required")
	}

	svc := &Service{reports: reports, assignments: assignments}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Resolve computes the requested queue for the calling actor. Role policy
// (fixed report type, forced assigned-to-me for individual contributors,
// supervisor-only escalations) is applied before the caller's filters and
// cannot be overridden by them.
func (s *Service) Resolve(ctx context.Context, queue Name, filters Filters) (*QueueView, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.QueueQueryLatency.Observe(time.Since(start).Seconds())
		}
	}()

	states, ok := queueStates[queue]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "unknown queue "+string(queue))
	}

	role := requestcontext.Role(ctx)
	policy, ok := scopeFor(role)
	if !ok {
		return nil, dErrors.New(dErrors.CodeForbidden, "role has no queue access")
	}
	if queue == QueueEscalations && !policy.SeesEscalations {
		return nil, dErrors.New(dErrors.CodeForbidden, "escalation queue is limited to supervisory roles")
	}
	if filters.Sort != "" && filters.Sort != "newest" {
		return nil, dErrors.NewField(dErrors.CodeInvalidInput, "sort", "sort accepts only newest")
	}

	assignedToMe := policy.AssignedToMe
	unassigned := false
	if policy.AssignedOverride {
		assignedToMe = filters.AssignedToMe
		unassigned = filters.Unassigned
	}

	// A report accepted out of validation stays visible in its assignee's
	// personal validation view while compliance review runs; the next
	// disposition removes it from both queues in the same read.
	if queue == QueueValidation && assignedToMe {
		states = append(states[:len(states):len(states)], models.StateUnderComplianceReview)
	}

	storeFilter := reportstore.Filter{
		States: states,
		Type:   policy.ReportType,
		Risk:   filters.Risk,
		Search: filters.Search,
	}
	if filters.Status != "" {
		if !stateInQueue(filters.Status, states) {
			return nil, dErrors.NewField(dErrors.CodeInvalidInput, "status",
				string(filters.Status)+" is not a state of the "+string(queue)+" queue")
		}
		storeFilter.States = []models.State{filters.Status}
	}

	reports, err := s.reports.List(ctx, storeFilter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "report store unavailable")
	}

	active, err := s.assignments.ActiveAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "assignment store unavailable")
	}
	byReport := make(map[id.ReportID]*assignment.Assignment, len(active))
	for _, a := range active {
		byReport[a.ReportID] = a
	}

	actor := requestcontext.Actor(ctx)
	now := requestcontext.Now(ctx)

	items := make([]models.Summary, 0, len(reports))
	for _, report := range reports {
		a := byReport[report.ID]
		if assignedToMe && (a == nil || a.Assignee != actor) {
			continue
		}
		if unassigned && a != nil {
			continue
		}
		if filters.Age != "" && !inAgeBucket(now.Sub(report.EnteredQueueAt), filters.Age) {
			continue
		}
		items = append(items, summarize(report, a))
	}

	if filters.Sort == "newest" {
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
	}

	total := len(items)
	page, size := normalizePage(filters.Page, filters.PageSize)
	offset := (page - 1) * size
	if offset > total {
		offset = total
	}
	end := offset + size
	if end > total {
		end = total
	}

	totalPages := (total + size - 1) / size
	if totalPages == 0 {
		totalPages = 1
	}

	return &QueueView{
		Items:      items[offset:end],
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: totalPages,
		HasMore:    end < total,
	}, nil
}

func stateInQueue(state models.State, states []models.State) bool {
	for _, s := range states {
		if s == state {
			return true
		}
	}
	return false
}

// inAgeBucket tests time-in-queue against a named bucket. Each bucket is
// a half-open day band; 72h+ is everything past the third day.
func inAgeBucket(age time.Duration, bucket string) bool {
	switch bucket {
	case "24h":
		return age < 24*time.Hour
	case "48h":
		return age >= 24*time.Hour && age < 48*time.Hour
	case "72h":
		return age >= 48*time.Hour && age < 72*time.Hour
	case "72h+":
		return age >= 72*time.Hour
	default:
		return true
	}
}

func summarize(report *models.Report, a *assignment.Assignment) models.Summary {
	s := models.Summary{
		Reference:        report.Reference,
		Type:             report.Type,
		EntityName:       report.EntityName,
		State:            report.State,
		Risk:             report.Risk,
		TransactionCount: report.TransactionCount,
		TotalAmount:      report.TotalAmount,
		EnteredQueueAt:   report.EnteredQueueAt,
	}
	if a != nil {
		s.Assignee = a.Assignee.String()
		deadline := a.Deadline
		s.Deadline = &deadline
	}
	return s
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 200 {
		size = 50
	}
	return page, size
}

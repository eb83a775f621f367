package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"fiuportal/internal/assignment"
	assignstore "fiuportal/internal/assignment/store"
	"fiuportal/internal/audit"
	auditstore "fiuportal/internal/audit/store"
	"fiuportal/internal/decision"
	"fiuportal/internal/queue"
	"fiuportal/internal/report/models"
	reportstore "fiuportal/internal/report/store"
	id "fiuportal/pkg/domain"
	dErrors "fiuportal/pkg/domain-errors"
	"fiuportal/pkg/requestcontext"
)

type QueueResolverSuite struct {
	suite.Suite

	reports     *reportstore.InMemoryStore
	assignments *assignment.Service
	ledger      *audit.Ledger
	decisions   *decision.Service
	resolver    *queue.Service

	officerA   id.ActorID
	officerB   id.ActorID
	analyst    id.ActorID
	supervisor id.ActorID

	baseTime time.Time
}

func TestQueueResolverSuite(t *testing.T) {
	suite.Run(t, new(QueueResolverSuite))
}

func (s *QueueResolverSuite) SetupTest() {
	s.reports = reportstore.NewInMemoryStore()

	var err error
	s.assignments, err = assignment.New(assignstore.NewInMemoryStore(), s.reports)
	s.Require().NoError(err)

	s.ledger, err = audit.New(auditstore.NewInMemoryStore())
	s.Require().NoError(err)

	s.decisions, err = decision.New(s.reports, s.assignments, s.ledger)
	s.Require().NoError(err)

	s.resolver, err = queue.New(s.reports, s.assignments)
	s.Require().NoError(err)

	s.officerA = s.mustActor("11111111-1111-4111-8111-111111111111")
	s.officerB = s.mustActor("22222222-2222-4222-8222-222222222222")
	s.analyst = s.mustActor("33333333-3333-4333-8333-333333333333")
	s.supervisor = s.mustActor("44444444-4444-4444-8444-444444444444")

	s.baseTime = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
}

func (s *QueueResolverSuite) TearDownTest() {
	s.ledger.Close()
}

func (s *QueueResolverSuite) mustActor(raw string) id.ActorID {
	actor, err := id.ParseActorID(raw)
	s.Require().NoError(err)
	return actor
}

func (s *QueueResolverSuite) as(actor id.ActorID, role id.Role) context.Context {
	ctx := requestcontext.WithActor(context.Background(), actor)
	ctx = requestcontext.WithRole(ctx, role)
	return requestcontext.WithTime(ctx, s.baseTime.Add(80*time.Hour))
}

func (s *QueueResolverSuite) seed(ref string, rtype models.ReportType, state models.State, queuedAt time.Time) *models.Report {
	report := &models.Report{
		ID:             id.NewReportID(),
		Reference:      id.Reference(ref),
		Type:           rtype,
		EntityName:     "Unity Commercial Bank",
		State:          state,
		Risk:           models.RiskMedium,
		SubmittedAt:    queuedAt.Add(-10 * time.Minute),
		EnteredQueueAt: queuedAt,
	}
	s.Require().NoError(s.reports.Create(context.Background(), report))
	return report
}

func (s *QueueResolverSuite) assign(report *models.Report, officer id.ActorID) {
	ctx := s.as(officer, id.RoleComplianceOfficer)
	_, err := s.assignments.Assign(ctx, assignment.AssignRequest{
		Reference: report.Reference,
		Assignee:  officer,
	})
	s.Require().NoError(err)
}

func (s *QueueResolverSuite) TestFIFOOrdering() {
	s.seed("CTR-0003", models.TypeCTR, models.StatePendingValidation, s.baseTime.Add(2*time.Hour))
	s.seed("CTR-0001", models.TypeCTR, models.StatePendingValidation, s.baseTime)
	s.seed("CTR-0002", models.TypeCTR, models.StatePendingValidation, s.baseTime.Add(time.Hour))

	view, err := s.resolver.Resolve(s.as(s.supervisor, id.RoleHeadOfCompliance), queue.QueueValidation, queue.Filters{})
	s.Require().NoError(err)
	s.Require().Len(view.Items, 3)
	s.Equal(id.Reference("CTR-0001"), view.Items[0].Reference)
	s.Equal(id.Reference("CTR-0002"), view.Items[1].Reference)
	s.Equal(id.Reference("CTR-0003"), view.Items[2].Reference)
}

func (s *QueueResolverSuite) TestNewestSortOverride() {
	s.seed("CTR-0001", models.TypeCTR, models.StatePendingValidation, s.baseTime)
	s.seed("CTR-0002", models.TypeCTR, models.StatePendingValidation, s.baseTime.Add(time.Hour))

	view, err := s.resolver.Resolve(s.as(s.supervisor, id.RoleHeadOfCompliance), queue.QueueValidation, queue.Filters{Sort: "newest"})
	s.Require().NoError(err)
	s.Require().Len(view.Items, 2)
	s.Equal(id.Reference("CTR-0002"), view.Items[0].Reference)

	_, err = s.resolver.Resolve(s.as(s.supervisor, id.RoleHeadOfCompliance), queue.QueueValidation, queue.Filters{Sort: "risk"})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *QueueResolverSuite) TestOfficerSeesOnlyOwnCTRs() {
	mine := s.seed("CTR-MINE", models.TypeCTR, models.StatePendingValidation, s.baseTime)
	other := s.seed("CTR-OTHER", models.TypeCTR, models.StatePendingValidation, s.baseTime.Add(time.Minute))
	s.seed("STR-0001", models.TypeSTR, models.StatePendingValidation, s.baseTime.Add(2*time.Minute))

	s.assign(mine, s.officerA)
	s.assign(other, s.officerB)

	view, err := s.resolver.Resolve(s.as(s.officerA, id.RoleComplianceOfficer), queue.QueueValidation, queue.Filters{})
	s.Require().NoError(err)
	s.Require().Len(view.Items, 1)
	s.Equal(id.Reference("CTR-MINE"), view.Items[0].Reference)
	s.Equal(s.officerA.String(), view.Items[0].Assignee)
}

func (s *QueueResolverSuite) TestAnalystPinnedToSTRs() {
	str := s.seed("STR-0001", models.TypeSTR, models.StatePendingValidation, s.baseTime)
	s.seed("CTR-0001", models.TypeCTR, models.StatePendingValidation, s.baseTime.Add(time.Minute))

	ctx := s.as(s.analyst, id.RoleAnalyst)
	_, err := s.assignments.Assign(ctx, assignment.AssignRequest{
		Reference: str.Reference,
		Assignee:  s.analyst,
	})
	s.Require().NoError(err)

	view, err := s.resolver.Resolve(ctx, queue.QueueValidation, queue.Filters{})
	s.Require().NoError(err)
	s.Require().Len(view.Items, 1)
	s.Equal(models.TypeSTR, view.Items[0].Type)
}

func (s *QueueResolverSuite) TestSupervisorSeesGlobalQueueWithOptInFilters() {
	assigned := s.seed("CTR-ASSIGNED", models.TypeCTR, models.StatePendingValidation, s.baseTime)
	s.seed("CTR-FREE", models.TypeCTR, models.StatePendingValidation, s.baseTime.Add(time.Minute))
	s.assign(assigned, s.officerA)

	ctx := s.as(s.supervisor, id.RoleHeadOfCompliance)

	view, err := s.resolver.Resolve(ctx, queue.QueueValidation, queue.Filters{})
	s.Require().NoError(err)
	s.Len(view.Items, 2, "supervisors see the whole domain queue by default")

	view, err = s.resolver.Resolve(ctx, queue.QueueValidation, queue.Filters{Unassigned: true})
	s.Require().NoError(err)
	s.Require().Len(view.Items, 1)
	s.Equal(id.Reference("CTR-FREE"), view.Items[0].Reference)
}

func (s *QueueResolverSuite) TestEscalationQueueSupervisorsOnly() {
	s.seed("CTR-ESC", models.TypeCTR, models.StateEscalationPending, s.baseTime)

	view, err := s.resolver.Resolve(s.as(s.supervisor, id.RoleHeadOfCompliance), queue.QueueEscalations, queue.Filters{})
	s.Require().NoError(err)
	s.Len(view.Items, 1)

	_, err = s.resolver.Resolve(s.as(s.officerA, id.RoleComplianceOfficer), queue.QueueEscalations, queue.Filters{})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *QueueResolverSuite) TestDualQueueMembershipAndAtomicRemoval() {
	report := s.seed("CTR-DUAL", models.TypeCTR, models.StateValidated, s.baseTime)
	s.assign(report, s.officerA)

	stored, err := s.reports.GetByReference(context.Background(), report.Reference)
	s.Require().NoError(err)
	s.Require().Equal(models.StateUnderComplianceReview, stored.State)

	officerCtx := s.as(s.officerA, id.RoleComplianceOfficer)
	supervisorCtx := s.as(s.supervisor, id.RoleHeadOfCompliance)

	personal, err := s.resolver.Resolve(officerCtx, queue.QueueValidation, queue.Filters{})
	s.Require().NoError(err)
	s.Len(personal.Items, 1, "assignee's personal view keeps the in-review report")

	review, err := s.resolver.Resolve(supervisorCtx, queue.QueueReview, queue.Filters{})
	s.Require().NoError(err)
	s.Len(review.Items, 1)

	_, err = s.decisions.Apply(officerCtx, report.Reference, decision.SubmitDecision{Kind: models.KindArchive})
	s.Require().NoError(err)

	personal, err = s.resolver.Resolve(officerCtx, queue.QueueValidation, queue.Filters{})
	s.Require().NoError(err)
	s.Empty(personal.Items, "disposition removes the report from the personal queue")

	review, err = s.resolver.Resolve(supervisorCtx, queue.QueueReview, queue.Filters{})
	s.Require().NoError(err)
	s.Empty(review.Items, "disposition removes the report from the review queue in the same read")
}

func (s *QueueResolverSuite) TestSearchNarrowsWithoutChangingScope() {
	s.seed("CTR-0001", models.TypeCTR, models.StatePendingValidation, s.baseTime)
	s.seed("CTR-0002", models.TypeCTR, models.StatePendingValidation, s.baseTime.Add(time.Minute))
	s.seed("STR-UNITY", models.TypeSTR, models.StatePendingValidation, s.baseTime.Add(2*time.Minute))

	ctx := s.as(s.supervisor, id.RoleHeadOfCompliance)

	view, err := s.resolver.Resolve(ctx, queue.QueueValidation, queue.Filters{Search: "0002"})
	s.Require().NoError(err)
	s.Require().Len(view.Items, 1)
	s.Equal(id.Reference("CTR-0002"), view.Items[0].Reference)

	// Every seeded entity is named Unity Commercial Bank; the STR still
	// must not surface in a CTR supervisor's queue.
	view, err = s.resolver.Resolve(ctx, queue.QueueValidation, queue.Filters{Search: "unity"})
	s.Require().NoError(err)
	s.Require().Len(view.Items, 2)
	for _, item := range view.Items {
		s.Equal(models.TypeCTR, item.Type, "search must not widen the role's report type")
	}
}

func (s *QueueResolverSuite) TestAgeBuckets() {
	s.seed("CTR-FRESH", models.TypeCTR, models.StatePendingValidation, s.baseTime.Add(70*time.Hour))
	s.seed("CTR-AGING", models.TypeCTR, models.StatePendingValidation, s.baseTime.Add(20*time.Hour))
	s.seed("CTR-STALE", models.TypeCTR, models.StatePendingValidation, s.baseTime)

	ctx := s.as(s.supervisor, id.RoleHeadOfCompliance)

	view, err := s.resolver.Resolve(ctx, queue.QueueValidation, queue.Filters{Age: "24h"})
	s.Require().NoError(err)
	s.Require().Len(view.Items, 1)
	s.Equal(id.Reference("CTR-FRESH"), view.Items[0].Reference)

	// Queued 60 hours: in the third-day band, not yet overdue.
	view, err = s.resolver.Resolve(ctx, queue.QueueValidation, queue.Filters{Age: "72h"})
	s.Require().NoError(err)
	s.Require().Len(view.Items, 1)
	s.Equal(id.Reference("CTR-AGING"), view.Items[0].Reference)

	view, err = s.resolver.Resolve(ctx, queue.QueueValidation, queue.Filters{Age: "72h+"})
	s.Require().NoError(err)
	s.Require().Len(view.Items, 1)
	s.Equal(id.Reference("CTR-STALE"), view.Items[0].Reference)
}

func (s *QueueResolverSuite) TestPagination() {
	for i := 0; i < 5; i++ {
		s.seed("CTR-000"+string(rune('1'+i)), models.TypeCTR, models.StatePendingValidation, s.baseTime.Add(time.Duration(i)*time.Minute))
	}

	ctx := s.as(s.supervisor, id.RoleHeadOfCompliance)

	view, err := s.resolver.Resolve(ctx, queue.QueueValidation, queue.Filters{Page: 1, PageSize: 2})
	s.Require().NoError(err)
	s.Equal(5, view.Total)
	s.Equal(3, view.TotalPages)
	s.True(view.HasMore)
	s.Require().Len(view.Items, 2)
	s.Equal(id.Reference("CTR-0001"), view.Items[0].Reference)

	view, err = s.resolver.Resolve(ctx, queue.QueueValidation, queue.Filters{Page: 3, PageSize: 2})
	s.Require().NoError(err)
	s.Len(view.Items, 1)
	s.False(view.HasMore)
}

func (s *QueueResolverSuite) TestStatusFilterMustBelongToQueue() {
	_, err := s.resolver.Resolve(s.as(s.supervisor, id.RoleHeadOfCompliance), queue.QueueValidation, queue.Filters{
		Status: models.StateArchived,
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *QueueResolverSuite) TestTerminalReportsAbsentFromAllQueues() {
	report := s.seed("CTR-DONE", models.TypeCTR, models.StateInValidation, s.baseTime)
	s.assign(report, s.officerA)

	officerCtx := s.as(s.officerA, id.RoleComplianceOfficer)
	_, err := s.decisions.Apply(officerCtx, report.Reference, decision.SubmitDecision{
		Kind:   models.KindReject,
		Reason: "narrative and transaction details are materially inconsistent",
	})
	s.Require().NoError(err)

	for _, name := range []queue.Name{queue.QueueValidation, queue.QueueReview, queue.QueueEscalations} {
		view, err := s.resolver.Resolve(s.as(s.supervisor, id.RoleHeadOfCompliance), name, queue.Filters{})
		s.Require().NoError(err)
		s.Empty(view.Items, "terminal report leaked into the %s queue", name)
	}
}

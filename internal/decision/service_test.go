package decision_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"fiuportal/internal/assignment"
	assignstore "fiuportal/internal/assignment/store"
	"fiuportal/internal/audit"
	auditstore "fiuportal/internal/audit/store"
	"fiuportal/internal/decision"
	"fiuportal/internal/report/models"
	reportstore "fiuportal/internal/report/store"
	id "fiuportal/pkg/domain"
	dErrors "fiuportal/pkg/domain-errors"
	"fiuportal/pkg/requestcontext"
)

type DecisionServiceSuite struct {
	suite.Suite

	reports     *reportstore.InMemoryStore
	assignments *assignment.Service
	ledger      *audit.Ledger
	service     *decision.Service

	officer id.ActorID
}

func TestDecisionServiceSuite(t *testing.T) {
	suite.Run(t, new(DecisionServiceSuite))
}

func (s *DecisionServiceSuite) SetupTest() {
	s.reports = reportstore.NewInMemoryStore()

	var err error
	s.assignments, err = assignment.New(assignstore.NewInMemoryStore(), s.reports)
	s.Require().NoError(err)

	s.ledger, err = audit.New(auditstore.NewInMemoryStore())
	s.Require().NoError(err)

	s.service, err = decision.New(s.reports, s.assignments, s.ledger)
	s.Require().NoError(err)

	s.officer, err = id.ParseActorID("7c9e6679-7425-40de-944b-e07fc1f90ae7")
	s.Require().NoError(err)
}

func (s *DecisionServiceSuite) TearDownTest() {
	s.ledger.Close()
}

func (s *DecisionServiceSuite) ctx() context.Context {
	ctx := requestcontext.WithActor(context.Background(), s.officer)
	ctx = requestcontext.WithRole(ctx, id.RoleComplianceOfficer)
	return requestcontext.WithRequestID(ctx, "req-test-1")
}

func (s *DecisionServiceSuite) seedReport(reportType models.ReportType, state models.State) *models.Report {
	report := &models.Report{
		ID:             id.NewReportID(),
		Reference:      id.Reference("CTR-2026-" + id.NewReportID().String()[:8]),
		Type:           reportType,
		EntityID:       id.EntityID{},
		EntityName:     "First Meridian Bank",
		State:          state,
		Risk:           models.RiskMedium,
		SubmittedAt:    time.Now().Add(-2 * time.Hour),
		EnteredQueueAt: time.Now().Add(-1 * time.Hour),
	}
	s.Require().NoError(s.reports.Create(context.Background(), report))
	return report
}

func (s *DecisionServiceSuite) TestAcceptAdvancesCTRToValidated() {
	report := s.seedReport(models.TypeCTR, models.StateInValidation)

	outcome, err := s.service.Apply(s.ctx(), report.Reference, decision.SubmitDecision{
		Kind: models.KindAccept,
	})
	s.Require().NoError(err)
	s.Equal(models.StateInValidation, outcome.FromState)
	s.Equal(models.StateValidated, outcome.ToState)

	stored, err := s.reports.GetByReference(context.Background(), report.Reference)
	s.Require().NoError(err)
	s.Equal(models.StateValidated, stored.State)
}

func (s *DecisionServiceSuite) TestAcceptRoutesSTRStraightToAnalysis() {
	report := s.seedReport(models.TypeSTR, models.StateInValidation)

	outcome, err := s.service.Apply(s.ctx(), report.Reference, decision.SubmitDecision{
		Kind: models.KindAccept,
	})
	s.Require().NoError(err)
	s.Equal(models.StateUnderAnalysis, outcome.ToState)
}

func (s *DecisionServiceSuite) TestDecisionWritesLedgerEntry() {
	report := s.seedReport(models.TypeCTR, models.StateUnderComplianceReview)

	_, err := s.service.Apply(s.ctx(), report.Reference, decision.SubmitDecision{
		Kind:   models.KindEscalate,
		Reason: "pattern matches structured deposits across three branches",
	})
	s.Require().NoError(err)

	entries, total, err := s.ledger.Query(context.Background(), audit.Filters{Reference: report.Reference})
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Require().Len(entries, 1)

	entry := entries[0]
	s.Equal(models.KindEscalate, entry.Kind)
	s.Equal(s.officer, entry.Actor)
	s.Equal("pattern matches structured deposits across three branches", entry.Reason)
	s.Equal(models.StateUnderComplianceReview, entry.FromState)
	s.Equal(models.StateEscalationPending, entry.ToState)
	s.Equal("req-test-1", entry.RequestID)
	s.Equal(report.EntityName, entry.EntityName)
	s.False(entry.At.IsZero())
}

func (s *DecisionServiceSuite) TestDecisionClearsActiveAssignment() {
	report := s.seedReport(models.TypeCTR, models.StatePendingValidation)

	_, err := s.assignments.Assign(s.ctx(), assignment.AssignRequest{
		Reference: report.Reference,
		Assignee:  s.officer,
	})
	s.Require().NoError(err)

	active, err := s.assignments.ActiveFor(context.Background(), report.ID)
	s.Require().NoError(err)
	s.Require().NotNil(active)

	_, err = s.service.Apply(s.ctx(), report.Reference, decision.SubmitDecision{
		Kind:   models.KindReturn,
		Reason: "missing transaction annexes",
	})
	s.Require().NoError(err)

	active, err = s.assignments.ActiveFor(context.Background(), report.ID)
	s.Require().NoError(err)
	s.Nil(active, "deciding a report must release its assignment")
}

func (s *DecisionServiceSuite) TestMissingReasonLeavesNoTrace() {
	report := s.seedReport(models.TypeCTR, models.StateInValidation)

	_, err := s.service.Apply(s.ctx(), report.Reference, decision.SubmitDecision{
		Kind: models.KindReject,
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeMissingReason))
	s.Equal("rejection_reason", dErrors.FieldOf(err))

	stored, err := s.reports.GetByReference(context.Background(), report.Reference)
	s.Require().NoError(err)
	s.Equal(models.StateInValidation, stored.State, "rejected submission must not move the report")

	_, total, err := s.ledger.Query(context.Background(), audit.Filters{Reference: report.Reference})
	s.Require().NoError(err)
	s.Zero(total)
}

func (s *DecisionServiceSuite) TestIllegalTransitionRefused() {
	report := s.seedReport(models.TypeCTR, models.StatePendingValidation)

	_, err := s.service.Apply(s.ctx(), report.Reference, decision.SubmitDecision{
		Kind: models.KindArchive,
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeIllegalTransition))
}

func (s *DecisionServiceSuite) TestTerminalReportCannotBeRedecided() {
	report := s.seedReport(models.TypeCTR, models.StateArchived)

	_, err := s.service.Apply(s.ctx(), report.Reference, decision.SubmitDecision{
		Kind: models.KindMonitor,
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeIllegalTransition))
}

func (s *DecisionServiceSuite) TestUnknownReference() {
	_, err := s.service.Apply(s.ctx(), id.Reference("CTR-2026-MISSING"), decision.SubmitDecision{
		Kind: models.KindAccept,
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

// rendezvousStore holds every reader at GetByReference until all expected
// readers have taken their snapshot. Two decisions applied through it are
// guaranteed to race on the same observed state, so the loser fails the
// compare-and-swap rather than the transition check.
type rendezvousStore struct {
	*reportstore.InMemoryStore
	readers sync.WaitGroup
}

func (r *rendezvousStore) GetByReference(ctx context.Context, ref id.Reference) (*models.Report, error) {
	report, err := r.InMemoryStore.GetByReference(ctx, ref)
	r.readers.Done()
	r.readers.Wait()
	return report, err
}

func (s *DecisionServiceSuite) TestConcurrentDecisionsYieldOneWinner() {
	report := s.seedReport(models.TypeCTR, models.StateUnderComplianceReview)

	store := &rendezvousStore{InMemoryStore: s.reports}
	store.readers.Add(2)
	service, err := decision.New(store, s.assignments, s.ledger)
	s.Require().NoError(err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	kinds := []decision.SubmitDecision{
		{Kind: models.KindArchive},
		{Kind: models.KindMonitor},
	}

	for i := range kinds {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = service.Apply(s.ctx(), report.Reference, kinds[i])
		}(i)
	}
	wg.Wait()

	successes, stale := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case dErrors.HasCode(err, dErrors.CodeStaleState):
			stale++
		default:
			s.FailNowf("unexpected error", "got %v", err)
		}
	}
	s.Equal(1, successes, "exactly one concurrent decision may win")
	s.Equal(1, stale, "the loser must see a stale-state conflict")

	_, total, err := s.ledger.Query(context.Background(), audit.Filters{Reference: report.Reference})
	s.Require().NoError(err)
	s.Equal(1, total, "the losing decision must leave no ledger entry")
}

func TestServiceRejectsNilDependencies(t *testing.T) {
	reports := reportstore.NewInMemoryStore()
	assignments, err := assignment.New(assignstore.NewInMemoryStore(), reports)
	require.NoError(t, err)
	ledger, err := audit.New(auditstore.NewInMemoryStore())
	require.NoError(t, err)
	defer ledger.Close()

	_, err = decision.New(nil, assignments, ledger)
	assert.Error(t, err)
	_, err = decision.New(reports, nil, ledger)
	assert.Error(t, err)
	_, err = decision.New(reports, assignments, nil)
	assert.Error(t, err)
}

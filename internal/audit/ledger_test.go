package audit_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiuportal/internal/audit"
	auditstore "fiuportal/internal/audit/store"
	"fiuportal/internal/report/models"
	id "fiuportal/pkg/domain"
	dErrors "fiuportal/pkg/domain-errors"
	"fiuportal/pkg/requestcontext"
)

func entryFor(ref string, kind models.DecisionKind, actor id.ActorID, at time.Time) audit.Entry {
	return audit.Entry{
		DecisionID: id.NewDecisionID(),
		Reference:  id.Reference(ref),
		ReportType: models.TypeCTR,
		EntityName: "Unity Commercial Bank",
		Kind:       kind,
		Actor:      actor,
		FromState:  models.StateInValidation,
		ToState:    models.StateValidated,
		At:         at,
	}
}

func TestRecordAssignsIdentityAndContext(t *testing.T) {
	ledger, err := audit.New(auditstore.NewInMemoryStore())
	require.NoError(t, err)
	defer ledger.Close()

	pinned := time.Date(2026, time.April, 9, 14, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), pinned)
	ctx = requestcontext.WithRequestID(ctx, "req-777")

	entry := entryFor("CTR-0001", models.KindAccept, id.ActorID{}, time.Time{})
	recorded, err := ledger.Record(ctx, entry)
	require.NoError(t, err)

	assert.NotEqual(t, recorded.ID.String(), "00000000-0000-0000-0000-000000000000")
	assert.Equal(t, pinned, recorded.At)
	assert.Equal(t, "req-777", recorded.RequestID)
}

func TestQueryNewestFirstWithStablePagination(t *testing.T) {
	ledger, err := audit.New(auditstore.NewInMemoryStore())
	require.NoError(t, err)
	defer ledger.Close()

	actor, err := id.ParseActorID("eeeeeeee-5555-4555-8555-eeeeeeeeeeee")
	require.NoError(t, err)

	base := time.Date(2026, time.April, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := ledger.Record(context.Background(),
			entryFor("CTR-000"+string(rune('1'+i)), models.KindAccept, actor, base.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}

	page1, total, err := ledger.Query(context.Background(), audit.Filters{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page1, 2)
	assert.Equal(t, id.Reference("CTR-0005"), page1[0].Reference)
	assert.Equal(t, id.Reference("CTR-0004"), page1[1].Reference)

	page2, _, err := ledger.Query(context.Background(), audit.Filters{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.Equal(t, id.Reference("CTR-0003"), page2[0].Reference)

	page3, _, err := ledger.Query(context.Background(), audit.Filters{Page: 3, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.Equal(t, id.Reference("CTR-0001"), page3[0].Reference)
}

func TestQueryFilters(t *testing.T) {
	ledger, err := audit.New(auditstore.NewInMemoryStore())
	require.NoError(t, err)
	defer ledger.Close()

	alice, err := id.ParseActorID("11111111-aaaa-4aaa-8aaa-111111111111")
	require.NoError(t, err)
	bob, err := id.ParseActorID("22222222-bbbb-4bbb-8bbb-222222222222")
	require.NoError(t, err)

	base := time.Date(2026, time.April, 1, 8, 0, 0, 0, time.UTC)
	_, err = ledger.Record(context.Background(), entryFor("CTR-0001", models.KindAccept, alice, base))
	require.NoError(t, err)
	_, err = ledger.Record(context.Background(), entryFor("CTR-0002", models.KindReturn, bob, base.Add(time.Hour)))
	require.NoError(t, err)
	_, err = ledger.Record(context.Background(), entryFor("CTR-0001", models.KindEscalate, alice, base.Add(2*time.Hour)))
	require.NoError(t, err)

	byKind, total, err := ledger.Query(context.Background(), audit.Filters{Kind: models.KindReturn})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, id.Reference("CTR-0002"), byKind[0].Reference)

	byActor, total, err := ledger.Query(context.Background(), audit.Filters{Actor: alice})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	for _, e := range byActor {
		assert.Equal(t, alice, e.Actor)
	}

	byRef, total, err := ledger.Query(context.Background(), audit.Filters{Reference: id.Reference("CTR-0001")})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, models.KindEscalate, byRef[0].Kind, "newest first")

	windowed, total, err := ledger.Query(context.Background(), audit.Filters{
		From: base.Add(30 * time.Minute),
		To:   base.Add(90 * time.Minute),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, id.Reference("CTR-0002"), windowed[0].Reference)
}

type captureSink struct {
	mu      sync.Mutex
	entries []audit.Entry
	closed  bool
}

func (c *captureSink) Publish(_ context.Context, entry audit.Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, entry)
	return nil
}

func (c *captureSink) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func TestSinkReceivesEntriesAndDrainsOnClose(t *testing.T) {
	sink := &captureSink{}
	ledger, err := audit.New(auditstore.NewInMemoryStore(), audit.WithSink(sink, 8))
	require.NoError(t, err)

	actor, err := id.ParseActorID("eeeeeeee-5555-4555-8555-eeeeeeeeeeee")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err := ledger.Record(context.Background(), entryFor("CTR-0001", models.KindAccept, actor, time.Now()))
		require.NoError(t, err)
	}

	ledger.Close()

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Len(t, sink.entries, 5, "close must drain every buffered entry")
	assert.True(t, sink.closed)
}

type failingSink struct{ captureSink }

func (f *failingSink) Publish(context.Context, audit.Entry) error {
	return errors.New("broker unreachable")
}

func TestFailingSinkDoesNotFailRecord(t *testing.T) {
	sink := &failingSink{}
	ledger, err := audit.New(auditstore.NewInMemoryStore(), audit.WithSink(sink, 2))
	require.NoError(t, err)

	actor, err := id.ParseActorID("eeeeeeee-5555-4555-8555-eeeeeeeeeeee")
	require.NoError(t, err)

	recorded, err := ledger.Record(context.Background(), entryFor("CTR-0001", models.KindAccept, actor, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, id.Reference("CTR-0001"), recorded.Reference)

	ledger.Close()

	_, total, err := ledger.Query(context.Background(), audit.Filters{})
	require.NoError(t, err)
	assert.Equal(t, 1, total, "the store write is the source of truth regardless of the sink")
}

type failingAuditStore struct{}

func (failingAuditStore) Append(context.Context, audit.Entry) error {
	return errors.New("disk full")
}
func (failingAuditStore) Query(context.Context, audit.Filters) ([]audit.Entry, int, error) {
	return nil, 0, errors.New("disk full")
}

func TestStoreFailureSurfacesAsUnavailable(t *testing.T) {
	ledger, err := audit.New(failingAuditStore{})
	require.NoError(t, err)
	defer ledger.Close()

	_, err = ledger.Record(context.Background(), entryFor("CTR-0001", models.KindAccept, id.ActorID{}, time.Now()))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
}

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"fiuportal/internal/audit"
	"fiuportal/internal/report/models"
	id "fiuportal/pkg/domain"
	"fiuportal/pkg/platform/sentinel"
	txcontext "fiuportal/pkg/platform/tx"
)

// PostgresStore persists the ledger in PostgreSQL. Entries share the
// transaction of the state transition when one is present in the context,
// so a decision and its audit record commit atomically.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, entry audit.Entry) error {
	query := `
		INSERT INTO audit_entries (
			id, decision_id, reference, report_type, entity_name, decision,
			actor, reason, comments, from_state, to_state, decided_at, request_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		entry.ID,
		uuid.UUID(entry.DecisionID),
		entry.Reference.String(),
		string(entry.ReportType),
		entry.EntityName,
		entry.Kind.String(),
		uuid.UUID(entry.Actor),
		entry.Reason,
		entry.Comments,
		string(entry.FromState),
		string(entry.ToState),
		entry.At,
		entry.RequestID,
	)
	if err != nil {
		return fmt.Errorf("%w: insert audit entry: %v", sentinel.ErrUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) Query(ctx context.Context, filters audit.Filters) ([]audit.Entry, int, error) {
	filters.Normalize()

	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filters.Kind != "" {
		conds = append(conds, "decision = "+arg(filters.Kind.String()))
	}
	if !filters.Actor.IsNil() {
		conds = append(conds, "actor = "+arg(uuid.UUID(filters.Actor)))
	}
	if filters.Reference != "" {
		conds = append(conds, "reference = "+arg(filters.Reference.String()))
	}
	if !filters.From.IsZero() {
		conds = append(conds, "decided_at >= "+arg(filters.From))
	}
	if !filters.To.IsZero() {
		conds = append(conds, "decided_at <= "+arg(filters.To))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := s.execer(ctx).QueryRowContext(ctx,
		"SELECT COUNT(*) FROM audit_entries"+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit entries: %w", err)
	}

	query := `
		SELECT id, decision_id, reference, report_type, entity_name, decision,
		       actor, reason, comments, from_state, to_state, decided_at, request_id
		FROM audit_entries` + where + `
		ORDER BY decided_at DESC, id DESC
		LIMIT ` + arg(filters.PageSize) + ` OFFSET ` + arg((filters.Page-1)*filters.PageSize)

	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var out []audit.Entry
	for rows.Next() {
		var (
			e          audit.Entry
			decisionID uuid.UUID
			actor      uuid.UUID
			reference  string
			rtype      string
			kind       string
			fromState  string
			toState    string
		)
		if err := rows.Scan(
			&e.ID, &decisionID, &reference, &rtype, &e.EntityName, &kind,
			&actor, &e.Reason, &e.Comments, &fromState, &toState, &e.At, &e.RequestID,
		); err != nil {
			return nil, 0, fmt.Errorf("scan audit entry: %w", err)
		}
		e.DecisionID = id.DecisionID(decisionID)
		e.Actor = id.ActorID(actor)
		e.Reference = id.Reference(reference)
		e.ReportType = models.ReportType(rtype)
		e.Kind = models.DecisionKind(kind)
		e.FromState = models.State(fromState)
		e.ToState = models.State(toState)
		out = append(out, e)
	}
	return out, total, rows.Err()
}

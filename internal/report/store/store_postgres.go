package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"fiuportal/internal/report/models"
	id "fiuportal/pkg/domain"
	"fiuportal/pkg/platform/sentinel"
	txcontext "fiuportal/pkg/platform/tx"
)

// PostgresStore persists reports in PostgreSQL. The conditional UPDATE in
// UpdateStateFrom is the system's compare-and-swap.
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

func (s *PostgresStore) Create(ctx context.Context, report *models.Report) error {
	query := `
		INSERT INTO reports (
			id, reference, report_type, entity_id, entity_name, state, risk,
			transaction_count, total_amount, submitted_at, entered_queue_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(report.ID),
		report.Reference.String(),
		string(report.Type),
		uuid.UUID(report.EntityID),
		report.EntityName,
		string(report.State),
		string(report.Risk),
		report.TransactionCount,
		report.TotalAmount,
		report.SubmittedAt,
		report.EnteredQueueAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetByReference(ctx context.Context, ref id.Reference) (*models.Report, error) {
	query := `
		SELECT id, reference, report_type, entity_id, entity_name, state, risk,
		       transaction_count, total_amount, submitted_at, entered_queue_at
		FROM reports
		WHERE reference = $1
	`
	row := s.execer(ctx).QueryRowContext(ctx, query, ref.String())
	report, err := scanReport(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get report by reference: %w", err)
	}
	return report, nil
}

func (s *PostgresStore) UpdateStateFrom(ctx context.Context, ref id.Reference, from, to models.State) error {
	query := `UPDATE reports SET state = $1 WHERE reference = $2 AND state = $3`
	res, err := s.execer(ctx).ExecContext(ctx, query, string(to), ref.String(), string(from))
	if err != nil {
		return fmt.Errorf("update report state: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update report state: %w", err)
	}
	if affected == 0 {
		// Distinguish a missing report from a lost race.
		var exists bool
		if err := s.execer(ctx).QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM reports WHERE reference = $1)`, ref.String(),
		).Scan(&exists); err != nil {
			return fmt.Errorf("update report state: %w", err)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrStale
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, filter Filter) ([]*models.Report, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(filter.States) > 0 {
		states := make([]string, len(filter.States))
		for i, st := range filter.States {
			states[i] = string(st)
		}
		conds = append(conds, "state = ANY("+arg(pq.Array(states))+")")
	}
	if filter.Type != "" {
		conds = append(conds, "report_type = "+arg(string(filter.Type)))
	}
	if filter.Risk != "" {
		conds = append(conds, "risk = "+arg(string(filter.Risk)))
	}
	if filter.Search != "" {
		p := arg("%" + strings.ToLower(filter.Search) + "%")
		conds = append(conds, "(LOWER(reference) LIKE "+p+" OR LOWER(entity_name) LIKE "+p+")")
	}

	query := `
		SELECT id, reference, report_type, entity_id, entity_name, state, risk,
		       transaction_count, total_amount, submitted_at, entered_queue_at
		FROM reports
	`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY entered_queue_at ASC, reference ASC"

	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var out []*models.Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		out = append(out, report)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*models.Report, error) {
	var (
		report    models.Report
		reportID  uuid.UUID
		entityID  uuid.UUID
		reference string
		rtype     string
		state     string
		risk      string
	)
	err := row.Scan(
		&reportID, &reference, &rtype, &entityID, &report.EntityName,
		&state, &risk, &report.TransactionCount, &report.TotalAmount,
		&report.SubmittedAt, &report.EnteredQueueAt,
	)
	if err != nil {
		return nil, err
	}
	report.ID = id.ReportID(reportID)
	report.EntityID = id.EntityID(entityID)
	report.Reference = id.Reference(reference)
	report.Type = models.ReportType(rtype)
	report.State = models.State(state)
	report.Risk = models.RiskLevel(risk)
	return &report, nil
}

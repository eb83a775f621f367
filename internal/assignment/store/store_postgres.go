package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"fiuportal/internal/assignment"
	id "fiuportal/pkg/domain"
	"fiuportal/pkg/platform/sentinel"
	txcontext "fiuportal/pkg/platform/tx"
)

// PostgresStore persists assignments in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// CreateSuperseding deactivates any prior active assignment and inserts
// the new one in one transaction, joining an outer one when present.
func (s *PostgresStore) CreateSuperseding(ctx context.Context, a *assignment.Assignment) error {
	return txcontext.Run(ctx, s.db, func(ctx context.Context) error {
		if _, err := s.exec(ctx,
			`UPDATE assignments SET active = FALSE WHERE report_id = $1 AND active`,
			uuid.UUID(a.ReportID),
		); err != nil {
			return fmt.Errorf("supersede assignment: %w", err)
		}
		if _, err := s.exec(ctx, `
			INSERT INTO assignments (id, report_id, reference, assignee, assigned_by, assigned_at, deadline, active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)`,
			uuid.UUID(a.ID),
			uuid.UUID(a.ReportID),
			a.Reference.String(),
			uuid.UUID(a.Assignee),
			uuid.UUID(a.AssignedBy),
			a.AssignedAt,
			a.Deadline,
		); err != nil {
			return fmt.Errorf("insert assignment: %w", err)
		}
		return nil
	})
}

const assignmentColumns = `id, report_id, reference, assignee, assigned_by, assigned_at, deadline, active`

func (s *PostgresStore) ActiveByReport(ctx context.Context, reportID id.ReportID) (*assignment.Assignment, error) {
	row := s.queryRow(ctx,
		`SELECT `+assignmentColumns+` FROM assignments WHERE report_id = $1 AND active`,
		uuid.UUID(reportID),
	)
	a, err := scanAssignment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("active assignment by report: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) ActiveByAssignee(ctx context.Context, assignee id.ActorID) ([]*assignment.Assignment, error) {
	return s.queryMany(ctx,
		`SELECT `+assignmentColumns+` FROM assignments WHERE assignee = $1 AND active`,
		uuid.UUID(assignee),
	)
}

func (s *PostgresStore) ActiveAll(ctx context.Context) ([]*assignment.Assignment, error) {
	return s.queryMany(ctx, `SELECT `+assignmentColumns+` FROM assignments WHERE active`)
}

func (s *PostgresStore) CountActiveByAssignee(ctx context.Context, assignee id.ActorID) (int, error) {
	var count int
	err := s.queryRowScan(ctx,
		`SELECT COUNT(*) FROM assignments WHERE assignee = $1 AND active`,
		[]any{uuid.UUID(assignee)}, &count,
	)
	if err != nil {
		return 0, fmt.Errorf("count active assignments: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) Deactivate(ctx context.Context, reportID id.ReportID) error {
	if _, err := s.exec(ctx,
		`UPDATE assignments SET active = FALSE WHERE report_id = $1 AND active`,
		uuid.UUID(reportID),
	); err != nil {
		return fmt.Errorf("deactivate assignment: %w", err)
	}
	return nil
}

func (s *PostgresStore) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if tx, ok := txcontext.From(ctx); ok {
		return tx.ExecContext(ctx, query, args...)
	}
	return s.db.ExecContext(ctx, query, args...)
}

func (s *PostgresStore) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	if tx, ok := txcontext.From(ctx); ok {
		return tx.QueryRowContext(ctx, query, args...)
	}
	return s.db.QueryRowContext(ctx, query, args...)
}

func (s *PostgresStore) queryRowScan(ctx context.Context, query string, args []any, dest ...any) error {
	return s.queryRow(ctx, query, args...).Scan(dest...)
}

func (s *PostgresStore) queryMany(ctx context.Context, query string, args ...any) ([]*assignment.Assignment, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if tx, ok := txcontext.From(ctx); ok {
		rows, err = tx.QueryContext(ctx, query, args...)
	} else {
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("query assignments: %w", err)
	}
	defer rows.Close()

	var out []*assignment.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssignment(row rowScanner) (*assignment.Assignment, error) {
	var (
		a          assignment.Assignment
		aID        uuid.UUID
		reportID   uuid.UUID
		reference  string
		assignee   uuid.UUID
		assignedBy uuid.UUID
	)
	if err := row.Scan(&aID, &reportID, &reference, &assignee, &assignedBy, &a.AssignedAt, &a.Deadline, &a.Active); err != nil {
		return nil, err
	}
	a.ID = id.AssignmentID(aID)
	a.ReportID = id.ReportID(reportID)
	a.Reference = id.Reference(reference)
	a.Assignee = id.ActorID(assignee)
	a.AssignedBy = id.ActorID(assignedBy)
	return &a, nil
}

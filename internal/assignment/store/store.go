package store

import (
	"context"

	"fiuportal/internal/assignment"
	id "fiuportal/pkg/domain"
)

// Store is the assignment persistence port. Exclusivity lives here: the
// supersede operation deactivates any prior active assignment and inserts
// the new one atomically.
type Store interface {
	// CreateSuperseding inserts a new active assignment, deactivating any
	// prior active assignment for the same report in the same operation.
	CreateSuperseding(ctx context.Context, a *assignment.Assignment) error

	// ActiveByReport returns the active assignment for a report, or
	// sentinel.ErrNotFound when the report is unassigned.
	ActiveByReport(ctx context.Context, reportID id.ReportID) (*assignment.Assignment, error)

	// ActiveByAssignee returns every active assignment held by an actor.
	ActiveByAssignee(ctx context.Context, assignee id.ActorID) ([]*assignment.Assignment, error)

	// ActiveAll returns every active assignment, for queue joins.
	ActiveAll(ctx context.Context) ([]*assignment.Assignment, error)

	// CountActiveByAssignee counts an actor's active assignments at query
	// time; workload is never served from a snapshot.
	CountActiveByAssignee(ctx context.Context, assignee id.ActorID) (int, error)

	// Deactivate clears the active assignment for a report. A no-op when
	// the report is unassigned.
	Deactivate(ctx context.Context, reportID id.ReportID) error
}

// Package store persists reports. The lifecycle-state column is the single
// point of contention in the system; both implementations expose a
// compare-and-swap update instead of a blind write.
package store

import (
	"context"

	"fiuportal/internal/report/models"
	id "fiuportal/pkg/domain"
)

// Filter narrows a List read. Zero fields are ignored. Results are always
// ordered oldest-first by entered_queue_at; the resolver layers any
// explicit sort override on top.
type Filter struct {
	States []models.State
	Type   models.ReportType
	Risk   models.RiskLevel
	// Search matches reference and entity name, case-insensitive.
	Search string
}

// Store is the report persistence port.
type Store interface {
	// Create inserts a new report. Returns sentinel.ErrConflict when the
	// reference already exists.
	Create(ctx context.Context, report *models.Report) error

	// GetByReference fetches one report. Returns sentinel.ErrNotFound.
	GetByReference(ctx context.Context, ref id.Reference) (*models.Report, error)

	// UpdateStateFrom transitions ref from 'from' to 'to' atomically.
	// Returns sentinel.ErrStale when the current state is not 'from',
	// sentinel.ErrNotFound when the report does not exist.
	UpdateStateFrom(ctx context.Context, ref id.Reference, from, to models.State) error

	// List returns reports matching the filter, oldest-first.
	List(ctx context.Context, filter Filter) ([]*models.Report, error)
}

package store

import (
	"context"

	"fiuportal/internal/audit"
)

// Store is the ledger persistence port. Append never fails on business
// grounds; validation happened in the decision engine before the write.
type Store interface {
	Append(ctx context.Context, entry audit.Entry) error

	// Query returns entries matching the filters ordered by decision
	// timestamp descending (entry ID descending as tiebreak, so
	// pagination is stable), plus the total match count.
	Query(ctx context.Context, filters audit.Filters) ([]audit.Entry, int, error)
}

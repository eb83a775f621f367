// Package audit is the append-only ledger of review decisions. One entry
// is written synchronously with every successful transition; the ledger is
// the only source of historical truth for compliance.
package audit

import (
	"time"

	"github.com/google/uuid"

	"fiuportal/internal/report/models"
	id "fiuportal/pkg/domain"
)

// Entry is the immutable record of one decision, denormalizing the report
// identity so compliance queries never need a join. Keep it
// transport-agnostic so stores and sinks can fan out.
type Entry struct {
	ID         uuid.UUID           `json:"id"`
	DecisionID id.DecisionID       `json:"decision_id"`
	Reference  id.Reference        `json:"reference"`
	ReportType models.ReportType   `json:"report_type"`
	EntityName string              `json:"entity_name"`
	Kind       models.DecisionKind `json:"decision"`
	Actor      id.ActorID          `json:"actor"`
	Reason     string              `json:"reason,omitempty"`
	Comments   string              `json:"comments,omitempty"`
	FromState  models.State        `json:"from_state"`
	ToState    models.State        `json:"to_state"`
	At         time.Time           `json:"decided_at"`
	RequestID  string              `json:"request_id,omitempty"`
}

// Filters narrows an audit query. Zero fields are ignored.
type Filters struct {
	Kind      models.DecisionKind
	Actor     id.ActorID
	Reference id.Reference
	From      time.Time
	To        time.Time
	Page      int
	PageSize  int
}

// Normalize clamps pagination to sane bounds.
func (f *Filters) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 200 {
		f.PageSize = 50
	}
}

// Package assignment owns the exclusive assignee relation for reports.
// At most one active assignment exists per report; reassignment supersedes
// the prior record rather than editing it.
package assignment

import (
	"time"

	id "fiuportal/pkg/domain"
)

// Assignment binds a report to a staff member with a review deadline.
type Assignment struct {
	ID         id.AssignmentID `json:"id"`
	ReportID   id.ReportID     `json:"report_id"`
	Reference  id.Reference    `json:"reference"`
	Assignee   id.ActorID      `json:"assignee"`
	AssignedBy id.ActorID      `json:"assigned_by"`
	AssignedAt time.Time       `json:"assigned_at"`
	Deadline   time.Time       `json:"deadline"`
	Active     bool            `json:"active"`
}

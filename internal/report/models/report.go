package models

import (
	"time"

	id "fiuportal/pkg/domain"
	dErrors "fiuportal/pkg/domain-errors"
)

// ReportType distinguishes the two regulatory report families. The type
// decides which domain owns the report after validation: CTRs go to
// compliance review, STRs go straight to analysis.
type ReportType string

const (
	TypeCTR ReportType = "CTR"
	TypeSTR ReportType = "STR"
)

func ParseReportType(s string) (ReportType, error) {
	switch ReportType(s) {
	case TypeCTR, TypeSTR:
		return ReportType(s), nil
	case "":
		return "", dErrors.New(dErrors.CodeInvalidInput, "report type cannot be empty")
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "report type must be CTR or STR")
	}
}

func (t ReportType) IsValid() bool { return t == TypeCTR || t == TypeSTR }

// RiskLevel is assigned at intake from the submission's screening score.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

func (r RiskLevel) IsValid() bool {
	return r == RiskLow || r == RiskMedium || r == RiskHigh
}

// State is the report lifecycle state. The engine owns every transition;
// pages and clients never infer state from ad hoc status strings.
type State string

const (
	// StateSubmitted names the instant between a filing arriving and it
	// entering the validation queue. Intake collapses both into a single
	// write, so stored reports start at PENDING_VALIDATION; the constant
	// stays in the taxonomy for clients that echo submission receipts.
	StateSubmitted             State = "SUBMITTED"
	StatePendingValidation     State = "PENDING_VALIDATION"
	StateInValidation          State = "IN_VALIDATION"
	StateValidated             State = "VALIDATED"
	StateReturned              State = "RETURNED"
	StateRejected              State = "REJECTED"
	StateUnderComplianceReview State = "UNDER_COMPLIANCE_REVIEW"
	StateArchived              State = "ARCHIVED"
	StateMonitored             State = "MONITORED"
	StateEscalationPending     State = "ESCALATION_PENDING"
	StateUnderAnalysis         State = "UNDER_ANALYSIS"
)

// terminalStates are final with respect to this engine. UNDER_ANALYSIS is
// a hand-off to the downstream analysis workflow, not an end state of the
// report itself, but the engine never touches it again.
var terminalStates = map[State]bool{
	StateReturned:      true,
	StateRejected:      true,
	StateArchived:      true,
	StateUnderAnalysis: true,
}

// assignableStates accept a (re)assignment. SUBMITTED has not entered a
// queue yet; MONITORED and terminal states have left all queues.
var assignableStates = map[State]bool{
	StatePendingValidation:     true,
	StateInValidation:          true,
	StateValidated:             true,
	StateUnderComplianceReview: true,
	StateEscalationPending:     true,
}

// activeStates still occupy at least one queue.
var activeStates = map[State]bool{
	StatePendingValidation:     true,
	StateInValidation:          true,
	StateValidated:             true,
	StateUnderComplianceReview: true,
	StateEscalationPending:     true,
}

func (s State) IsTerminal() bool   { return terminalStates[s] }
func (s State) IsAssignable() bool { return assignableStates[s] }
func (s State) IsActive() bool     { return activeStates[s] }

// OnAssignment returns the state a report moves to when an assignment is
// granted, or the state unchanged when assignment does not advance it
// (reassignment of in-progress work, escalation pickup).
func (s State) OnAssignment() State {
	switch s {
	case StatePendingValidation:
		return StateInValidation
	case StateValidated:
		return StateUnderComplianceReview
	default:
		return s
	}
}

// Report is the durable record of one CTR/STR submission. Created at
// intake; mutated only by the decision engine and assignment manager;
// never deleted, only transitioned.
type Report struct {
	ID               id.ReportID
	Reference        id.Reference
	Type             ReportType
	EntityID         id.EntityID
	EntityName       string
	State            State
	Risk             RiskLevel
	TransactionCount int
	TotalAmount      float64
	SubmittedAt      time.Time
	EnteredQueueAt   time.Time
}

// Summary is the queue-facing projection of a report.
type Summary struct {
	Reference        id.Reference `json:"reference"`
	Type             ReportType   `json:"report_type"`
	EntityName       string       `json:"entity_name"`
	State            State        `json:"status"`
	Risk             RiskLevel    `json:"risk"`
	TransactionCount int          `json:"transaction_count"`
	TotalAmount      float64      `json:"total_amount"`
	EnteredQueueAt   time.Time    `json:"entered_queue_at"`
	Assignee         string       `json:"assigned_to,omitempty"`
	Deadline         *time.Time   `json:"deadline,omitempty"`
}

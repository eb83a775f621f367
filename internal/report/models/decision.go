package models

import dErrors "fiuportal/pkg/domain-errors"

// DecisionKind enumerates every decision the engine accepts. Validation
// kinds apply to IN_VALIDATION, review kinds to UNDER_COMPLIANCE_REVIEW,
// and escalation kinds to ESCALATION_PENDING.
type DecisionKind string

const (
	KindAccept DecisionKind = "ACCEPT"
	KindReturn DecisionKind = "RETURN"
	KindReject DecisionKind = "REJECT"

	KindArchive  DecisionKind = "ARCHIVE"
	KindMonitor  DecisionKind = "MONITOR"
	KindEscalate DecisionKind = "ESCALATE"

	KindEscalationApprove DecisionKind = "ESCALATION_APPROVE"
	KindEscalationReject  DecisionKind = "ESCALATION_REJECT"
)

var validKinds = map[DecisionKind]bool{
	KindAccept:            true,
	KindReturn:            true,
	KindReject:            true,
	KindArchive:           true,
	KindMonitor:           true,
	KindEscalate:          true,
	KindEscalationApprove: true,
	KindEscalationReject:  true,
}

func ParseDecisionKind(s string) (DecisionKind, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "decision kind cannot be empty")
	}
	k := DecisionKind(s)
	if !validKinds[k] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unsupported decision kind: "+s)
	}
	return k, nil
}

func (k DecisionKind) IsValid() bool { return validKinds[k] }

func (k DecisionKind) String() string { return string(k) }

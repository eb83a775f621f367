package decision

import (
	"strings"

	"fiuportal/internal/report/models"
	dErrors "fiuportal/pkg/domain-errors"
)

// legalKinds is the explicit transition table: which decision kinds a
// lifecycle state accepts. Anything not in the table is rejected; state is
// never inferred from ad hoc status strings.
var legalKinds = map[models.State]map[models.DecisionKind]bool{
	models.StateInValidation: {
		models.KindAccept: true,
		models.KindReturn: true,
		models.KindReject: true,
	},
	models.StateUnderComplianceReview: {
		models.KindArchive:  true,
		models.KindMonitor:  true,
		models.KindEscalate: true,
	},
	models.StateEscalationPending: {
		models.KindEscalationApprove: true,
		models.KindEscalationReject:  true,
	},
}

// reasonFields maps the kinds that demand a reason to the payload field
// the client must populate, so a rejection can point at the exact field.
var reasonFields = map[models.DecisionKind]string{
	models.KindReturn:           "return_reason",
	models.KindReject:           "rejection_reason",
	models.KindEscalate:         "escalation_reason",
	models.KindEscalationReject: "rejection_note",
}

// ValidateReason is the single authoritative reason check. Client-side
// checks are advisory; this one decides.
func ValidateReason(kind models.DecisionKind, reason string) error {
	field, required := reasonFields[kind]
	if !required {
		return nil
	}
	if strings.TrimSpace(reason) == "" {
		return dErrors.NewField(dErrors.CodeMissingReason, field,
			string(kind)+" requires a non-empty "+field)
	}
	return nil
}

// NextState resolves the destination of a legal decision. STR acceptance
// routes straight to analysis; validated STRs are analyst-owned, not
// compliance-owned.
func NextState(reportType models.ReportType, state models.State, kind models.DecisionKind) (models.State, error) {
	if !legalKinds[state][kind] {
		return "", dErrors.New(dErrors.CodeIllegalTransition,
			string(kind)+" is not legal from state "+string(state))
	}

	switch kind {
	case models.KindAccept:
		if reportType == models.TypeSTR {
			return models.StateUnderAnalysis, nil
		}
		return models.StateValidated, nil
	case models.KindReturn:
		return models.StateReturned, nil
	case models.KindReject:
		return models.StateRejected, nil
	case models.KindArchive:
		return models.StateArchived, nil
	case models.KindMonitor:
		return models.StateMonitored, nil
	case models.KindEscalate:
		return models.StateEscalationPending, nil
	case models.KindEscalationApprove:
		return models.StateUnderAnalysis, nil
	case models.KindEscalationReject:
		return models.StateArchived, nil
	}
	return "", dErrors.New(dErrors.CodeIllegalTransition, "unknown decision kind "+string(kind))
}

package queue

import (
	"fiuportal/internal/report/models"
	id "fiuportal/pkg/domain"
)

// scope is the role-based visibility policy applied before any caller
// filters. Individual contributors are pinned to their own assignments and
// their domain's report type; supervisors get the global domain queue and
// may opt into assignment filters.
type scope struct {
	ReportType       models.ReportType
	AssignedToMe     bool
	AssignedOverride bool
	SeesEscalations  bool
}

// policyTable is the single source of role scoping. Every queue read goes
// through it; there are no per-endpoint role checks to drift apart.
var policyTable = map[id.Role]scope{
	id.RoleComplianceOfficer: {ReportType: models.TypeCTR, AssignedToMe: true},
	id.RoleAnalyst:           {ReportType: models.TypeSTR, AssignedToMe: true},
	id.RoleHeadOfCompliance:  {ReportType: models.TypeCTR, AssignedOverride: true, SeesEscalations: true},
	id.RoleHeadOfAnalysis:    {ReportType: models.TypeSTR, AssignedOverride: true, SeesEscalations: true},
}

func scopeFor(role id.Role) (scope, bool) {
	s, ok := policyTable[role]
	return s, ok
}

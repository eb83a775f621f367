package domain

import dErrors "fiuportal/pkg/domain-errors"

// Role is the staff role attached to an authenticated actor. Roles drive
// queue scoping and decision authority; they are resolved by the identity
// collaborator and carried in the token claims.
type Role string

const (
	// RoleComplianceOfficer validates CTR submissions.
	RoleComplianceOfficer Role = "compliance_officer"
	// RoleAnalyst validates STR submissions.
	RoleAnalyst Role = "analyst"
	// RoleHeadOfCompliance supervises the CTR domain.
	RoleHeadOfCompliance Role = "head_of_compliance"
	// RoleHeadOfAnalysis supervises the STR domain.
	RoleHeadOfAnalysis Role = "head_of_analysis"
)

// validRoles is the single source of truth for supported roles.
var validRoles = map[Role]bool{
	RoleComplianceOfficer: true,
	RoleAnalyst:           true,
	RoleHeadOfCompliance:  true,
	RoleHeadOfAnalysis:    true,
}

// ParseRole constructs a Role from external input (token claims).
//
// Errors: CodeInvalidInput when the value is empty or unsupported.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role cannot be empty")
	}
	r := Role(s)
	if !validRoles[r] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unsupported role: "+s)
	}
	return r, nil
}

func (r Role) IsValid() bool { return validRoles[r] }

// IsSupervisor reports whether the role carries supervisory authority:
// reassignment, global queue visibility, and escalation approval.
func (r Role) IsSupervisor() bool {
	return r == RoleHeadOfCompliance || r == RoleHeadOfAnalysis
}

func (r Role) String() string { return string(r) }

package domain

import (
	"github.com/google/uuid"

	dErrors "fiuportal/pkg/domain-errors"
)

// Typed IDs prevent cross-entity assignment at compile time. Construct via
// the Parse helpers at trust boundaries; direct casting bypasses validation.
type (
	// ActorID identifies a staff member (officer, analyst, supervisor).
	ActorID uuid.UUID

	// EntityID identifies a reporting entity (bank, exchange house, ...).
	EntityID uuid.UUID

	// ReportID is the internal identity of a report. The human-facing
	// identity is the Reference; the ReportID never leaves the system.
	ReportID uuid.UUID

	// AssignmentID identifies one assignment record. Reassignment creates
	// a new AssignmentID; records are superseded, never edited.
	AssignmentID uuid.UUID

	// DecisionID identifies one immutable decision record.
	DecisionID uuid.UUID
)

func (a ActorID) IsNil() bool      { return uuid.UUID(a) == uuid.Nil }
func (e EntityID) IsNil() bool     { return uuid.UUID(e) == uuid.Nil }
func (r ReportID) IsNil() bool     { return uuid.UUID(r) == uuid.Nil }
func (a AssignmentID) IsNil() bool { return uuid.UUID(a) == uuid.Nil }
func (d DecisionID) IsNil() bool   { return uuid.UUID(d) == uuid.Nil }

func (a ActorID) String() string      { return uuid.UUID(a).String() }
func (e EntityID) String() string     { return uuid.UUID(e).String() }
func (r ReportID) String() string     { return uuid.UUID(r).String() }
func (a AssignmentID) String() string { return uuid.UUID(a).String() }
func (d DecisionID) String() string   { return uuid.UUID(d).String() }

// Defined types do not inherit uuid.UUID's marshaling, so without these
// the IDs would serialize as raw byte arrays.

func (a ActorID) MarshalText() ([]byte, error)      { return []byte(a.String()), nil }
func (e EntityID) MarshalText() ([]byte, error)     { return []byte(e.String()), nil }
func (r ReportID) MarshalText() ([]byte, error)     { return []byte(r.String()), nil }
func (a AssignmentID) MarshalText() ([]byte, error) { return []byte(a.String()), nil }
func (d DecisionID) MarshalText() ([]byte, error)   { return []byte(d.String()), nil }

func (a *ActorID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	*a = ActorID(u)
	return err
}

func (e *EntityID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	*e = EntityID(u)
	return err
}

func (r *ReportID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	*r = ReportID(u)
	return err
}

func (a *AssignmentID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	*a = AssignmentID(u)
	return err
}

func (d *DecisionID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	*d = DecisionID(u)
	return err
}

// parseUUID enforces the shared invariant: valid, non-empty, non-nil.
func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+what+": must be a UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" cannot be the nil UUID")
	}
	return u, nil
}

func ParseActorID(s string) (ActorID, error) {
	u, err := parseUUID(s, "actor id")
	return ActorID(u), err
}

func ParseEntityID(s string) (EntityID, error) {
	u, err := parseUUID(s, "entity id")
	return EntityID(u), err
}

func ParseReportID(s string) (ReportID, error) {
	u, err := parseUUID(s, "report id")
	return ReportID(u), err
}

func NewReportID() ReportID         { return ReportID(uuid.New()) }
func NewAssignmentID() AssignmentID { return AssignmentID(uuid.New()) }
func NewDecisionID() DecisionID     { return DecisionID(uuid.New()) }

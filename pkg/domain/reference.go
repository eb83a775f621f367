package domain

import (
	"strings"

	dErrors "fiuportal/pkg/domain-errors"
)

// Reference is the human-presentable, immutable report reference number
// (e.g. "F5-UAT-CTR-0001"). Unique across all reports and report types.
//
// Usage: construct via ParseReference at trust boundaries.
type Reference string

const maxReferenceLen = 64

// ParseReference constructs a Reference from external input.
//
// Errors: CodeInvalidInput when empty, overlong, or containing whitespace.
func ParseReference(s string) (Reference, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "reference cannot be empty")
	}
	if len(s) > maxReferenceLen {
		return "", dErrors.New(dErrors.CodeInvalidInput, "reference exceeds maximum length")
	}
	if strings.ContainsAny(s, " \t\n") {
		return "", dErrors.New(dErrors.CodeInvalidInput, "reference cannot contain whitespace")
	}
	return Reference(s), nil
}

func (r Reference) String() string { return string(r) }

func (r Reference) IsZero() bool { return r == "" }

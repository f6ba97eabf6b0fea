package domain

import dErrors "biblio/pkg/domain-errors"

// Role is the access level of a user account.
// Invariant: the value must be one of the supported roles.
//
// Usage: construct via ParseRole at trust boundaries; direct casting bypasses validation.
type Role string

const (
	RoleLibrarian Role = "LIBRARIAN"
	RoleMember    Role = "MEMBER"
)

var validRoles = map[Role]bool{
	RoleLibrarian: true,
	RoleMember:    true,
}

// ParseRole constructs a Role from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role cannot be empty")
	}
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}
	return r, nil
}

// IsValid checks if the role is one of the supported enum values.
func (r Role) IsValid() bool {
	return validRoles[r]
}

func (r Role) String() string {
	return string(r)
}

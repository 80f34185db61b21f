package rbac

import (
	"fmt"

	dErrors "aegis/pkg/domain-errors"
)

// Role is the identity class assigned to a user at creation time. It is
// immutable once assigned and drives every authorization decision.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleManager   Role = "manager"
	RoleClient    Role = "client"
	RoleCandidate Role = "candidate"
)

// ValidRoles is the single source of truth for supported roles.
var ValidRoles = map[Role]bool{
	RoleAdmin:     true,
	RoleManager:   true,
	RoleClient:    true,
	RoleCandidate: true,
}

// IsValid checks if the role is one of the supported enum values.
func (r Role) IsValid() bool {
	return ValidRoles[r]
}

// Elevated reports whether the role is exempt from row-level ownership
// scoping. Admin and manager see all rows; client and candidate only their own.
func (r Role) Elevated() bool {
	return r == RoleAdmin || r == RoleManager
}

// ParseRole validates an untrusted role string, e.g. from a token claim.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown role: %s", s))
	}
	return r, nil
}

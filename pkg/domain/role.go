package domain

import dErrors "estatecore/pkg/domain-errors"

// Role is the fixed ordered set of caller roles. Order matters: each role
// includes every capability of the roles below it except where an action
// names an explicit role set.
type Role string

const (
	RolePlatformAdmin Role = "platform-admin"
	RoleTenantAdmin   Role = "tenant-admin"
	RoleManager       Role = "manager"
	RoleAgent         Role = "agent"
	RoleClient        Role = "client"
)

// roleRank orders roles from least to most privileged.
var roleRank = map[Role]int{
	RoleClient:        1,
	RoleAgent:         2,
	RoleManager:       3,
	RoleTenantAdmin:   4,
	RolePlatformAdmin: 5,
}

// ParseRole validates a role string from a credential claim.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := roleRank[r]; !ok {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown role: "+s)
	}
	return r, nil
}

func (r Role) String() string { return string(r) }

// IsValid reports whether the role belongs to the fixed set.
func (r Role) IsValid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether the role ranks at or above other.
func (r Role) AtLeast(other Role) bool {
	return roleRank[r] >= roleRank[other]
}

// CanReview reports whether the role may approve or reject a property.
// Reviewing is restricted to tenant-admin and manager (and platform-admin).
func (r Role) CanReview() bool {
	return r == RolePlatformAdmin || r == RoleTenantAdmin || r == RoleManager
}

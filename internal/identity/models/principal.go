package models

import (
	"time"

	id "estatecore/pkg/domain"
	dErrors "estatecore/pkg/domain-errors"
)

// Principal is an authenticated actor. Created by invite/registration flows
// outside this core; consumed read-only here.
type Principal struct {
	ID        id.PrincipalID `json:"id"`
	TenantID  id.TenantID    `json:"tenant_id"` // nil only for platform-admin
	Role      id.Role        `json:"role"`
	Name      string         `json:"name"`
	Email     string         `json:"email"`
	Active    bool           `json:"active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (p *Principal) IsActive() bool {
	return p.Active
}

// NewPrincipal validates the tenant/role pairing: every role except
// platform-admin must belong to exactly one tenant.
func NewPrincipal(principalID id.PrincipalID, tenantID id.TenantID, role id.Role, name, email string, now time.Time) (*Principal, error) {
	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "unknown role")
	}
	if role == id.RolePlatformAdmin {
		if !tenantID.IsNil() {
			return nil, dErrors.New(dErrors.CodeInvariantViolation, "platform-admin must not be bound to a tenant")
		}
	} else if tenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "principal requires a tenant")
	}
	return &Principal{
		ID:        principalID,
		TenantID:  tenantID,
		Role:      role,
		Name:      name,
		Email:     email,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

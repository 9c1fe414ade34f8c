// Package authz is the single choke point for role and tenant-scope checks.
// The guard never mutates state and is safe to call repeatedly; every handler
// path that crosses a tenant or role boundary consults it before touching the
// record store.
package authz

import (
	"estatecore/internal/identity"
	id "estatecore/pkg/domain"
	dErrors "estatecore/pkg/domain-errors"
)

// Action names an operation the guard knows how to gate.
type Action string

const (
	ActionCreateProperty     Action = "property.create"
	ActionViewProperty       Action = "property.view"
	ActionListProperties     Action = "property.list"
	ActionSubmitProperty     Action = "property.submit"
	ActionReviewProperty     Action = "property.review"
	ActionAdvancePublication Action = "property.advance"
	ActionArchiveProperty    Action = "property.archive"
	ActionDeactivateTenant   Action = "tenant.deactivate"
)

// Decision is a tagged allow/deny result. Handlers translate a deny into a
// domain error instead of the guard throwing inline.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Err converts a deny decision into its domain error. Allowed decisions
// return nil.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return dErrors.New(dErrors.CodeForbidden, d.Reason)
}

// roleGates lists the minimum role set per action, beyond the tenant-scope
// rule. Actions absent from the map are open to every tenant role.
var roleGates = map[Action]func(id.Role) bool{
	ActionCreateProperty:     func(r id.Role) bool { return r.AtLeast(id.RoleAgent) },
	ActionSubmitProperty:     func(r id.Role) bool { return r.AtLeast(id.RoleAgent) },
	ActionReviewProperty:     func(r id.Role) bool { return r.CanReview() },
	ActionAdvancePublication: func(r id.Role) bool { return r.AtLeast(id.RoleAgent) },
	ActionArchiveProperty:    func(r id.Role) bool { return r.CanReview() },
	ActionDeactivateTenant:   func(r id.Role) bool { return r == id.RolePlatformAdmin },
}

// Guard evaluates role-based and tenant-scoping rules against a requested
// operation. It is stateless; the zero value is ready to use.
type Guard struct{}

func New() Guard {
	return Guard{}
}

// Authorize evaluates the rules in order:
//  1. platform-admin is allowed, for any tenant
//  2. every other role is denied when the target tenant differs from its own
//  3. action-specific role gates
func (Guard) Authorize(actor identity.Actor, action Action, targetTenant id.TenantID) Decision {
	if actor.IsPlatformAdmin() {
		return allow()
	}
	if targetTenant != actor.TenantID {
		return deny("cross-tenant access denied")
	}
	if gate, ok := roleGates[action]; ok && !gate(actor.Role) {
		return deny("role " + actor.Role.String() + " not permitted to " + string(action))
	}
	return allow()
}

// Visibility bounds what a listing may return for the actor's role: reviewers
// see the whole tenant, agents see their own listings plus anything published,
// clients only published listings. A published listing awaiting re-review
// (approval back to pending) drops out of the published scope until the
// decision lands; the filter checks both dimensions.
type Visibility struct {
	// AssignedTo widens PublishedOnly to also include listings assigned to
	// this principal. Nil means no assignment carve-out.
	AssignedTo *id.PrincipalID
	// PublishedOnly restricts results to published listings.
	PublishedOnly bool
}

// VisibilityFor returns the listing scope for an actor within its own tenant.
func (Guard) VisibilityFor(actor identity.Actor) Visibility {
	switch actor.Role {
	case id.RolePlatformAdmin, id.RoleTenantAdmin, id.RoleManager:
		return Visibility{}
	case id.RoleAgent:
		pid := actor.PrincipalID
		return Visibility{AssignedTo: &pid, PublishedOnly: true}
	default:
		return Visibility{PublishedOnly: true}
	}
}

// Unrestricted reports whether the scope imposes no filter.
func (v Visibility) Unrestricted() bool {
	return v.AssignedTo == nil && !v.PublishedOnly
}

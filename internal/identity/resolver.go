// Package identity derives the acting tenant and caller from a verified
// credential. Every downstream component consumes the Actor it produces.
package identity

import (
	"context"
	"errors"
	"log/slog"

	"estatecore/internal/identity/models"
	"estatecore/internal/identity/token"
	"estatecore/internal/sentinel"
	tenantmodels "estatecore/internal/tenant/models"
	id "estatecore/pkg/domain"
	dErrors "estatecore/pkg/domain-errors"
)

// Actor is the resolved request identity: constructed once per request,
// immutable, and passed explicitly to every component that needs it.
type Actor struct {
	PrincipalID id.PrincipalID
	TenantID    id.TenantID
	Role        id.Role
}

// IsPlatformAdmin reports whether the actor holds the platform-wide super-role.
func (a Actor) IsPlatformAdmin() bool {
	return a.Role == id.RolePlatformAdmin
}

// PrincipalStore is the read-only directory lookup the resolver needs.
type PrincipalStore interface {
	FindByID(ctx context.Context, principalID id.PrincipalID) (*models.Principal, error)
}

// TenantDirectory is the read-only tenant lookup the resolver uses to refuse
// members of a deactivated tenant.
type TenantDirectory interface {
	FindByID(ctx context.Context, tenantID id.TenantID) (*tenantmodels.Tenant, error)
}

// Resolver turns verified credential claims into an Actor.
type Resolver struct {
	principals PrincipalStore
	tenants    TenantDirectory
	logger     *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

func NewResolver(principals PrincipalStore, tenants TenantDirectory, opts ...Option) *Resolver {
	r := &Resolver{principals: principals, tenants: tenants}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve produces the Actor for a request. targetTenant is the optional
// per-request tenant override; only a platform-admin may supply one, every
// other role's tenant is fixed to the value embedded in the credential.
func (r *Resolver) Resolve(ctx context.Context, claims *token.Claims, targetTenant string) (Actor, error) {
	if claims == nil {
		return Actor{}, dErrors.New(dErrors.CodeUnauthenticated, "no verified principal present")
	}

	principalID, err := id.ParsePrincipalID(claims.PrincipalID)
	if err != nil {
		return Actor{}, dErrors.Wrap(err, dErrors.CodeUnauthenticated, "malformed credential claims")
	}

	principal, err := r.principals.FindByID(ctx, principalID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Actor{}, dErrors.New(dErrors.CodeUnauthenticated, "unknown principal")
		}
		return Actor{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load principal")
	}
	if !principal.IsActive() {
		if r.logger != nil {
			r.logger.WarnContext(ctx, "rejected inactive principal", "principal_id", principalID)
		}
		return Actor{}, dErrors.New(dErrors.CodeUnauthenticated, "principal is inactive")
	}

	tenantID := principal.TenantID
	if targetTenant != "" {
		override, err := id.ParseTenantID(targetTenant)
		if err != nil {
			return Actor{}, dErrors.Wrap(err, dErrors.CodeValidation, "invalid target tenant")
		}
		if principal.Role == id.RolePlatformAdmin {
			tenantID = override
		} else if override != principal.TenantID {
			return Actor{}, dErrors.New(dErrors.CodeForbidden, "tenant cannot be overridden by request parameters")
		}
	}

	// Members of a deactivated tenant are refused here, before any handler
	// runs. Platform admins keep access so the tenant can still be managed.
	if principal.Role != id.RolePlatformAdmin {
		tenant, err := r.tenants.FindByID(ctx, tenantID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return Actor{}, dErrors.New(dErrors.CodeForbidden, "tenant is not active")
			}
			return Actor{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load tenant")
		}
		if !tenant.IsActive() {
			if r.logger != nil {
				r.logger.WarnContext(ctx, "rejected member of deactivated tenant",
					"principal_id", principalID, "tenant_id", tenantID)
			}
			return Actor{}, dErrors.New(dErrors.CodeForbidden, "tenant is deactivated")
		}
	}

	return Actor{
		PrincipalID: principal.ID,
		TenantID:    tenantID,
		Role:        principal.Role,
	}, nil
}

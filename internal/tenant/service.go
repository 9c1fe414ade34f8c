// Package tenant manages the isolation boundary every other record hangs off.
package tenant

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"estatecore/internal/audit"
	"estatecore/internal/authz"
	"estatecore/internal/identity"
	"estatecore/internal/sentinel"
	"estatecore/internal/tenant/models"
	id "estatecore/pkg/domain"
	dErrors "estatecore/pkg/domain-errors"
)

// Store is the tenant persistence. CreateIfSlugAvailable must reject a taken
// slug atomically with sentinel.ErrAlreadyUsed.
type Store interface {
	CreateIfSlugAvailable(ctx context.Context, t *models.Tenant) error
	FindByID(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error)
	Update(ctx context.Context, t *models.Tenant) error
}

// Auditor records tenant state changes.
type Auditor interface {
	Record(ctx context.Context, rec audit.Record)
}

// Service handles tenant provisioning and deactivation. Both are platform
// operations: no tenant role may create or deactivate tenants.
type Service struct {
	tenants Store
	guard   authz.Guard
	auditor Auditor
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditor(a Auditor) Option {
	return func(s *Service) {
		s.auditor = a
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New constructs the tenant service.
func New(tenants Store, opts ...Option) *Service {
	s := &Service{
		tenants: tenants,
		guard:   authz.New(),
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create provisions a tenant with a unique slug. Platform admins only.
func (s *Service) Create(ctx context.Context, actor identity.Actor, name, slug string) (*models.Tenant, error) {
	if !actor.IsPlatformAdmin() {
		return nil, dErrors.New(dErrors.CodeForbidden, "only platform administrators may create tenants")
	}

	t, err := models.NewTenant(id.NewTenantID(), name, slug, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.tenants.CreateIfSlugAvailable(ctx, t); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "tenant slug is already taken")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create tenant")
	}

	s.logger.Info("tenant created", "tenant_id", t.ID, "slug", t.Slug)
	return t, nil
}

// Get returns a tenant by ID. Members may read their own tenant; everything
// else reads as not found.
func (s *Service) Get(ctx context.Context, actor identity.Actor, tenantID id.TenantID) (*models.Tenant, error) {
	if !actor.IsPlatformAdmin() && actor.TenantID != tenantID {
		return nil, dErrors.New(dErrors.CodeNotFound, "tenant not found")
	}
	t, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "tenant not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load tenant")
	}
	return t, nil
}

// Deactivate marks a tenant inactive. Its data is retained; request
// resolution refuses deactivated tenants at the boundary.
func (s *Service) Deactivate(ctx context.Context, actor identity.Actor, tenantID id.TenantID) (*models.Tenant, error) {
	if err := s.guard.Authorize(actor, authz.ActionDeactivateTenant, tenantID).Err(); err != nil {
		return nil, err
	}

	t, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "tenant not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load tenant")
	}
	if err := t.Deactivate(s.now()); err != nil {
		return nil, err
	}
	if err := s.tenants.Update(ctx, t); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to deactivate tenant")
	}

	if s.auditor != nil {
		s.auditor.Record(ctx, audit.Record{
			PrincipalID: actor.PrincipalID,
			TenantID:    t.ID,
			Action:      audit.ActionDeactivateTenant,
			Target:      audit.TargetRef{Kind: "tenant", ID: t.ID.String()},
		})
	}
	s.logger.Info("tenant deactivated", "tenant_id", t.ID)
	return t, nil
}

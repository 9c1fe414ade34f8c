package tenant_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estatecore/internal/audit"
	auditstore "estatecore/internal/audit/store"
	"estatecore/internal/identity"
	"estatecore/internal/tenant"
	"estatecore/internal/tenant/models"
	"estatecore/internal/tenant/store"
	id "estatecore/pkg/domain"
	dErrors "estatecore/pkg/domain-errors"
)

func platformAdmin() identity.Actor {
	return identity.Actor{PrincipalID: id.NewPrincipalID(), Role: id.RolePlatformAdmin}
}

func TestCreateTenant(t *testing.T) {
	ctx := context.Background()
	svc := tenant.New(store.NewInMemory())

	created, err := svc.Create(ctx, platformAdmin(), "Acme Realty", "acme-realty")
	require.NoError(t, err)
	assert.Equal(t, "acme-realty", created.Slug)
	assert.True(t, created.IsActive())
}

func TestCreateTenantSlugTaken(t *testing.T) {
	ctx := context.Background()
	svc := tenant.New(store.NewInMemory())

	_, err := svc.Create(ctx, platformAdmin(), "Acme Realty", "acme-realty")
	require.NoError(t, err)

	_, err = svc.Create(ctx, platformAdmin(), "Acme Copycat", "acme-realty")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestCreateTenantRequiresPlatformAdmin(t *testing.T) {
	svc := tenant.New(store.NewInMemory())
	admin := identity.Actor{PrincipalID: id.NewPrincipalID(), TenantID: id.NewTenantID(), Role: id.RoleTenantAdmin}

	_, err := svc.Create(context.Background(), admin, "Rogue", "rogue")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func TestGetScopedToOwnTenant(t *testing.T) {
	ctx := context.Background()
	svc := tenant.New(store.NewInMemory())

	created, err := svc.Create(ctx, platformAdmin(), "Acme Realty", "acme-realty")
	require.NoError(t, err)

	member := identity.Actor{PrincipalID: id.NewPrincipalID(), TenantID: created.ID, Role: id.RoleAgent}
	got, err := svc.Get(ctx, member, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	outsider := identity.Actor{PrincipalID: id.NewPrincipalID(), TenantID: id.NewTenantID(), Role: id.RoleTenantAdmin}
	_, err = svc.Get(ctx, outsider, created.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestDeactivateTenant(t *testing.T) {
	ctx := context.Background()
	audits := auditstore.NewInMemory()
	svc := tenant.New(store.NewInMemory(), tenant.WithAuditor(audit.NewRecorder(audits)))

	created, err := svc.Create(ctx, platformAdmin(), "Acme Realty", "acme-realty")
	require.NoError(t, err)

	deactivated, err := svc.Deactivate(ctx, platformAdmin(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TenantStatusInactive, deactivated.Status)

	entries := audits.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, audit.ActionDeactivateTenant, entries[0].Action)

	// tenant admins cannot deactivate, not even their own tenant
	admin := identity.Actor{PrincipalID: id.NewPrincipalID(), TenantID: created.ID, Role: id.RoleTenantAdmin}
	_, err = svc.Deactivate(ctx, admin, created.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"estatecore/internal/identity"
	id "estatecore/pkg/domain"
	dErrors "estatecore/pkg/domain-errors"
)

func actor(role id.Role, tenant id.TenantID) identity.Actor {
	return identity.Actor{
		PrincipalID: id.NewPrincipalID(),
		TenantID:    tenant,
		Role:        role,
	}
}

func TestAuthorizeRules(t *testing.T) {
	guard := New()
	home := id.NewTenantID()
	other := id.NewTenantID()

	tests := []struct {
		name    string
		actor   identity.Actor
		action  Action
		target  id.TenantID
		allowed bool
	}{
		{"platform-admin any tenant", actor(id.RolePlatformAdmin, id.TenantID{}), ActionReviewProperty, other, true},
		{"platform-admin deactivates tenant", actor(id.RolePlatformAdmin, id.TenantID{}), ActionDeactivateTenant, home, true},
		{"cross-tenant denied before role check", actor(id.RoleTenantAdmin, home), ActionReviewProperty, other, false},
		{"tenant-admin reviews", actor(id.RoleTenantAdmin, home), ActionReviewProperty, home, true},
		{"manager reviews", actor(id.RoleManager, home), ActionReviewProperty, home, true},
		{"agent cannot review", actor(id.RoleAgent, home), ActionReviewProperty, home, false},
		{"agent creates", actor(id.RoleAgent, home), ActionCreateProperty, home, true},
		{"client cannot create", actor(id.RoleClient, home), ActionCreateProperty, home, false},
		{"client lists own tenant", actor(id.RoleClient, home), ActionListProperties, home, true},
		{"agent cannot archive", actor(id.RoleAgent, home), ActionArchiveProperty, home, false},
		{"manager archives", actor(id.RoleManager, home), ActionArchiveProperty, home, true},
		{"tenant-admin cannot deactivate tenant", actor(id.RoleTenantAdmin, home), ActionDeactivateTenant, home, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := guard.Authorize(tt.actor, tt.action, tt.target)
			assert.Equal(t, tt.allowed, d.Allowed)
			if tt.allowed {
				assert.NoError(t, d.Err())
			} else {
				assert.True(t, dErrors.HasCode(d.Err(), dErrors.CodeForbidden))
				assert.NotEmpty(t, d.Reason)
			}
		})
	}
}

func TestAuthorizeIsIdempotent(t *testing.T) {
	guard := New()
	home := id.NewTenantID()
	a := actor(id.RoleAgent, home)

	first := guard.Authorize(a, ActionReviewProperty, home)
	second := guard.Authorize(a, ActionReviewProperty, home)
	assert.Equal(t, first, second)
}

func TestVisibilityFor(t *testing.T) {
	guard := New()
	home := id.NewTenantID()

	t.Run("reviewers are unrestricted", func(t *testing.T) {
		assert.True(t, guard.VisibilityFor(actor(id.RoleTenantAdmin, home)).Unrestricted())
		assert.True(t, guard.VisibilityFor(actor(id.RoleManager, home)).Unrestricted())
		assert.True(t, guard.VisibilityFor(actor(id.RolePlatformAdmin, id.TenantID{})).Unrestricted())
	})

	t.Run("agent sees own plus published", func(t *testing.T) {
		a := actor(id.RoleAgent, home)
		v := guard.VisibilityFor(a)
		assert.True(t, v.PublishedOnly)
		if assert.NotNil(t, v.AssignedTo) {
			assert.Equal(t, a.PrincipalID, *v.AssignedTo)
		}
	})

	t.Run("client sees only published", func(t *testing.T) {
		v := guard.VisibilityFor(actor(id.RoleClient, home))
		assert.True(t, v.PublishedOnly)
		assert.Nil(t, v.AssignedTo)
	})
}

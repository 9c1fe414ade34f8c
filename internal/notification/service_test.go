package notification_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	identitymodels "estatecore/internal/identity/models"
	identitystore "estatecore/internal/identity/store"
	"estatecore/internal/notification"
	"estatecore/internal/notification/store"
	id "estatecore/pkg/domain"
	dErrors "estatecore/pkg/domain-errors"
)

func seedPrincipal(t *testing.T, principals *identitystore.InMemory, tenantID id.TenantID, role id.Role) *identitymodels.Principal {
	t.Helper()
	p, err := identitymodels.NewPrincipal(id.NewPrincipalID(), tenantID, role, "Test User", "user@example.com", time.Now())
	require.NoError(t, err)
	require.NoError(t, principals.Create(context.Background(), p))
	return p
}

func TestRequestApprovalNotifiesEveryReviewer(t *testing.T) {
	ctx := context.Background()
	tenantID := id.NewTenantID()
	principals := identitystore.NewInMemory()
	admin := seedPrincipal(t, principals, tenantID, id.RoleTenantAdmin)
	manager := seedPrincipal(t, principals, tenantID, id.RoleManager)
	seedPrincipal(t, principals, tenantID, id.RoleAgent)           // not a reviewer
	seedPrincipal(t, principals, id.NewTenantID(), id.RoleManager) // other tenant

	notifications := store.NewInMemory()
	svc := notification.New(notifications, principals)

	propertyID := id.NewPropertyID()
	require.NoError(t, svc.RequestApproval(ctx, tenantID, propertyID, "Sea View Villa"))

	assert.Equal(t, 1, notifications.CountByRecipient(admin.ID))
	assert.Equal(t, 1, notifications.CountByRecipient(manager.ID))

	got, err := svc.List(ctx, tenantID, admin.ID, false)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, notification.TypeApprovalRequested, got[0].Type)
	assert.Contains(t, got[0].Message, "Sea View Villa")
	require.NotNil(t, got[0].PropertyID)
	assert.Equal(t, propertyID, *got[0].PropertyID)
}

func TestAnnounceOutcome(t *testing.T) {
	ctx := context.Background()
	tenantID := id.NewTenantID()
	principals := identitystore.NewInMemory()
	agent := seedPrincipal(t, principals, tenantID, id.RoleAgent)

	notifications := store.NewInMemory()
	svc := notification.New(notifications, principals)
	propertyID := id.NewPropertyID()

	t.Run("approval notifies the assigned agent", func(t *testing.T) {
		require.NoError(t, svc.AnnounceOutcome(ctx, tenantID, propertyID, "Loft", &agent.ID, true, ""))
		got, err := svc.List(ctx, tenantID, agent.ID, false)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, notification.TypePropertyApproved, got[0].Type)
	})

	t.Run("rejection carries the reason", func(t *testing.T) {
		require.NoError(t, svc.AnnounceOutcome(ctx, tenantID, propertyID, "Loft", &agent.ID, false, "blurry photos"))
		got, err := svc.List(ctx, tenantID, agent.ID, false)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Contains(t, got[0].Message, "blurry photos")
	})

	t.Run("no assigned agent means no notification", func(t *testing.T) {
		before := notifications.CountByRecipient(agent.ID)
		require.NoError(t, svc.AnnounceOutcome(ctx, tenantID, propertyID, "Loft", nil, true, ""))
		assert.Equal(t, before, notifications.CountByRecipient(agent.ID))
	})
}

func TestNotifyFailureIsContained(t *testing.T) {
	ctx := context.Background()
	tenantID := id.NewTenantID()
	principals := identitystore.NewInMemory()
	agent := seedPrincipal(t, principals, tenantID, id.RoleAgent)

	notifications := store.NewInMemory()
	notifications.FailCreates(errors.New("sink unavailable"))
	svc := notification.New(notifications, principals)

	// The service reports the failure so the caller can log it, but nothing
	// was persisted and nothing panicked.
	err := svc.AnnounceOutcome(ctx, tenantID, id.NewPropertyID(), "Loft", &agent.ID, true, "")
	assert.Error(t, err)
	assert.Equal(t, 0, notifications.CountByRecipient(agent.ID))
}

func TestListNewestFirstCappedAt50(t *testing.T) {
	ctx := context.Background()
	tenantID := id.NewTenantID()
	principals := identitystore.NewInMemory()
	agent := seedPrincipal(t, principals, tenantID, id.RoleAgent)

	notifications := store.NewInMemory()
	base := time.Now()
	clock := base
	svc := notification.New(notifications, principals, notification.WithClock(func() time.Time { return clock }))

	for i := 0; i < 60; i++ {
		clock = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, svc.Notify(ctx, tenantID, []id.PrincipalID{agent.ID},
			notification.TypeApprovalRequested, fmt.Sprintf("message %d", i), nil))
	}

	got, err := svc.List(ctx, tenantID, agent.ID, false)
	require.NoError(t, err)
	assert.Len(t, got, notification.ListLimit)
	assert.Equal(t, "message 59", got[0].Message)
	assert.True(t, got[0].CreatedAt.After(got[len(got)-1].CreatedAt))
}

func TestMarkRead(t *testing.T) {
	ctx := context.Background()
	tenantID := id.NewTenantID()
	principals := identitystore.NewInMemory()
	agent := seedPrincipal(t, principals, tenantID, id.RoleAgent)
	other := seedPrincipal(t, principals, tenantID, id.RoleAgent)

	notifications := store.NewInMemory()
	svc := notification.New(notifications, principals)
	require.NoError(t, svc.Notify(ctx, tenantID, []id.PrincipalID{agent.ID},
		notification.TypePropertyApproved, "done", nil))

	listed, err := svc.List(ctx, tenantID, agent.ID, true)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	t.Run("recipient can mark read", func(t *testing.T) {
		updated, err := svc.MarkRead(ctx, listed[0].ID, agent.ID)
		require.NoError(t, err)
		assert.True(t, updated.Read)

		unread, err := svc.List(ctx, tenantID, agent.ID, true)
		require.NoError(t, err)
		assert.Empty(t, unread)
	})

	t.Run("someone else's notification is not found", func(t *testing.T) {
		_, err := svc.MarkRead(ctx, listed[0].ID, other.ID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

package quota_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estatecore/internal/quota"
	"estatecore/internal/quota/store"
	id "estatecore/pkg/domain"
	dErrors "estatecore/pkg/domain-errors"
)

func subscription(tenantID id.TenantID, status quota.SubscriptionStatus, maxProps, usedProps int) *quota.Subscription {
	return &quota.Subscription{
		ID:       id.NewSubscriptionID(),
		TenantID: tenantID,
		Plan: quota.Plan{
			Name: "starter",
			Features: quota.Limits{
				MaxUsers:      5,
				MaxProperties: maxProps,
				MaxLeads:      quota.Unlimited,
				MaxDeals:      10,
			},
		},
		Status:       status,
		CurrentUsage: quota.Usage{TotalProperties: usedProps},
		StartDate:    time.Now().Add(-24 * time.Hour),
		EndDate:      time.Now().Add(24 * time.Hour),
	}
}

func TestCheckAdmits(t *testing.T) {
	ctx := context.Background()
	tenantID := id.NewTenantID()
	subs := store.NewInMemory()
	require.NoError(t, subs.Put(ctx, subscription(tenantID, quota.StatusActive, 10, 3)))

	enforcer := quota.NewEnforcer(subs)
	assert.NoError(t, enforcer.Check(ctx, tenantID, quota.ResourceProperties))
}

func TestCheckDeniesWithoutSubscription(t *testing.T) {
	enforcer := quota.NewEnforcer(store.NewInMemory())
	err := enforcer.Check(context.Background(), id.NewTenantID(), quota.ResourceProperties)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeQuotaExceeded))
	assert.Contains(t, err.Error(), "no-subscription")
}

func TestCheckDeniesInvalidSubscription(t *testing.T) {
	ctx := context.Background()

	t.Run("status outside active or trial", func(t *testing.T) {
		tenantID := id.NewTenantID()
		subs := store.NewInMemory()
		require.NoError(t, subs.Put(ctx, subscription(tenantID, quota.StatusSuspended, 10, 0)))

		err := quota.NewEnforcer(subs).Check(ctx, tenantID, quota.ResourceProperties)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeQuotaExceeded))
		assert.Contains(t, err.Error(), "subscription-invalid")
	})

	t.Run("past end date", func(t *testing.T) {
		tenantID := id.NewTenantID()
		subs := store.NewInMemory()
		sub := subscription(tenantID, quota.StatusActive, 10, 0)
		sub.EndDate = time.Now().Add(-time.Hour)
		require.NoError(t, subs.Put(ctx, sub))

		err := quota.NewEnforcer(subs).Check(ctx, tenantID, quota.ResourceProperties)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeQuotaExceeded))
		assert.Contains(t, err.Error(), "subscription-invalid")
	})

	t.Run("trial still admits", func(t *testing.T) {
		tenantID := id.NewTenantID()
		subs := store.NewInMemory()
		require.NoError(t, subs.Put(ctx, subscription(tenantID, quota.StatusTrial, 10, 0)))

		assert.NoError(t, quota.NewEnforcer(subs).Check(ctx, tenantID, quota.ResourceProperties))
	})
}

func TestCheckDeniesAtLimit(t *testing.T) {
	ctx := context.Background()
	tenantID := id.NewTenantID()
	subs := store.NewInMemory()
	require.NoError(t, subs.Put(ctx, subscription(tenantID, quota.StatusActive, 1, 1)))

	err := quota.NewEnforcer(subs).Check(ctx, tenantID, quota.ResourceProperties)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeQuotaExceeded))

	var exceeded *quota.ExceededError
	require.True(t, errors.As(err, &exceeded))
	assert.Equal(t, "maxProperties", exceeded.Limit)
	assert.Equal(t, 1, exceeded.Current)
	assert.Equal(t, 1, exceeded.Max)
	// The message must name the plan and the limit so the caller can decide
	// to upgrade.
	assert.Contains(t, err.Error(), "starter")
	assert.Contains(t, err.Error(), "maxProperties")
}

func TestCheckUnlimitedResource(t *testing.T) {
	ctx := context.Background()
	tenantID := id.NewTenantID()
	subs := store.NewInMemory()
	sub := subscription(tenantID, quota.StatusActive, 1, 1)
	sub.CurrentUsage.TotalLeads = 100000
	require.NoError(t, subs.Put(ctx, sub))

	assert.NoError(t, quota.NewEnforcer(subs).Check(ctx, tenantID, quota.ResourceLeads))
}

func TestRecordAdmissionBumpsSnapshot(t *testing.T) {
	ctx := context.Background()
	tenantID := id.NewTenantID()
	subs := store.NewInMemory()
	require.NoError(t, subs.Put(ctx, subscription(tenantID, quota.StatusActive, 1, 0)))

	enforcer := quota.NewEnforcer(subs)
	require.NoError(t, enforcer.Check(ctx, tenantID, quota.ResourceProperties))
	enforcer.RecordAdmission(ctx, tenantID, quota.ResourceProperties)

	err := enforcer.Check(ctx, tenantID, quota.ResourceProperties)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeQuotaExceeded))
}

// Package quota gates resource-creating operations on a tenant's subscription
// capacity. The check reads a point-in-time usage snapshot and never mutates
// it; usage is recomputed by a periodic reconciliation outside this core. The
// check is advisory under concurrency - two creations racing past the same
// snapshot may transiently over-admit, which the plan reconciler corrects.
package quota

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"estatecore/internal/sentinel"
	id "estatecore/pkg/domain"
	dErrors "estatecore/pkg/domain-errors"
)

// Store loads the active subscription for a tenant.
type Store interface {
	FindByTenant(ctx context.Context, tenantID id.TenantID) (*Subscription, error)
	// IncrementUsage bumps a usage counter after a successful creation so the
	// snapshot tracks admissions between reconciliation runs. Best-effort.
	IncrementUsage(ctx context.Context, tenantID id.TenantID, kind ResourceKind, delta int) error
}

// Enforcer checks plan capacity before resource-creating operations.
type Enforcer struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// Option configures an Enforcer.
type Option func(*Enforcer)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Enforcer) {
		e.logger = logger
	}
}

// WithClock overrides the validity-window clock in tests.
func WithClock(now func() time.Time) Option {
	return func(e *Enforcer) {
		e.now = now
	}
}

func NewEnforcer(store Store, opts ...Option) *Enforcer {
	e := &Enforcer{store: store, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Check admits or denies a resource creation for the tenant. Platform-admin
// initiated actions bypass this check entirely; callers enforce that.
func (e *Enforcer) Check(ctx context.Context, tenantID id.TenantID, kind ResourceKind) error {
	sub, err := e.store.FindByTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeQuotaExceeded, "no-subscription: tenant has no active subscription")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load subscription")
	}

	if e.now().After(sub.EndDate) || !sub.Status.Admits() {
		return dErrors.New(dErrors.CodeQuotaExceeded, "subscription-invalid: subscription is not active")
	}

	max := sub.Plan.Features.For(kind)
	if max == Unlimited {
		return nil
	}
	current := sub.CurrentUsage.For(kind)
	if current >= max {
		exceeded := &ExceededError{
			Plan:    sub.Plan.Name,
			Limit:   kind.LimitName(),
			Current: current,
			Max:     max,
		}
		if e.logger != nil {
			e.logger.InfoContext(ctx, "quota denied",
				"tenant_id", tenantID,
				"plan", exceeded.Plan,
				"limit", exceeded.Limit,
				"current", exceeded.Current,
				"max", exceeded.Max,
			)
		}
		return dErrors.Wrap(exceeded, dErrors.CodeQuotaExceeded, exceeded.Error())
	}
	return nil
}

// RecordAdmission bumps the usage snapshot after a successful creation.
// Failures are logged, not surfaced: the snapshot is advisory and the
// reconciler will converge it.
func (e *Enforcer) RecordAdmission(ctx context.Context, tenantID id.TenantID, kind ResourceKind) {
	if err := e.store.IncrementUsage(ctx, tenantID, kind, 1); err != nil && e.logger != nil {
		e.logger.WarnContext(ctx, "failed to record quota admission",
			"tenant_id", tenantID,
			"resource", string(kind),
			"error", err,
		)
	}
}

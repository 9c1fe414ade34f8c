package store

import (
	"context"
	"sync"

	"estatecore/internal/quota"
	"estatecore/internal/sentinel"
	id "estatecore/pkg/domain"
)

// InMemory keeps one subscription per tenant in memory.
type InMemory struct {
	mu   sync.RWMutex
	subs map[id.TenantID]*quota.Subscription
}

// NewInMemory creates an in-memory subscription store.
func NewInMemory() *InMemory {
	return &InMemory{subs: make(map[id.TenantID]*quota.Subscription)}
}

// Put installs or replaces the tenant's subscription (plan changes, seeding).
func (s *InMemory) Put(_ context.Context, sub *quota.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[sub.TenantID] = sub
	return nil
}

// FindByTenant returns the tenant's subscription.
func (s *InMemory) FindByTenant(_ context.Context, tenantID id.TenantID) (*quota.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sub, ok := s.subs[tenantID]; ok {
		cp := *sub
		return &cp, nil
	}
	return nil, sentinel.ErrNotFound
}

// IncrementUsage bumps a usage counter in the snapshot.
func (s *InMemory) IncrementUsage(_ context.Context, tenantID id.TenantID, kind quota.ResourceKind, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[tenantID]
	if !ok {
		return sentinel.ErrNotFound
	}
	switch kind {
	case quota.ResourceUsers:
		sub.CurrentUsage.TotalUsers += delta
	case quota.ResourceProperties:
		sub.CurrentUsage.TotalProperties += delta
	case quota.ResourceLeads:
		sub.CurrentUsage.TotalLeads += delta
	case quota.ResourceDeals:
		sub.CurrentUsage.TotalDeals += delta
	default:
		return sentinel.ErrInvalidInput
	}
	return nil
}

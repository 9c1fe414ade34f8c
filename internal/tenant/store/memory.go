package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"estatecore/internal/sentinel"
	"estatecore/internal/tenant/models"
	id "estatecore/pkg/domain"
)

// InMemory stores tenants in memory for tests and the demo environment.
type InMemory struct {
	mu      sync.RWMutex
	tenants map[id.TenantID]*models.Tenant
	slugIdx map[string]id.TenantID
}

// NewInMemory creates an in-memory tenant store.
func NewInMemory() *InMemory {
	return &InMemory{
		tenants: make(map[id.TenantID]*models.Tenant),
		slugIdx: make(map[string]id.TenantID),
	}
}

// CreateIfSlugAvailable atomically creates the tenant if the slug is not already taken.
func (s *InMemory) CreateIfSlugAvailable(_ context.Context, t *models.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	slug := strings.ToLower(t.Slug)
	if _, exists := s.slugIdx[slug]; exists {
		return fmt.Errorf("tenant slug must be unique: %w", sentinel.ErrAlreadyUsed)
	}
	s.tenants[t.ID] = t
	s.slugIdx[slug] = t.ID
	return nil
}

// FindByID retrieves a tenant by its UUID.
func (s *InMemory) FindByID(_ context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.tenants[tenantID]; ok {
		return t, nil
	}
	return nil, sentinel.ErrNotFound
}

// Update replaces an existing tenant record.
func (s *InMemory) Update(_ context.Context, t *models.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tenants[t.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.tenants[t.ID] = t
	return nil
}

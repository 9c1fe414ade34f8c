package store

import (
	"context"
	"sync"

	"estatecore/internal/identity/models"
	"estatecore/internal/sentinel"
	id "estatecore/pkg/domain"
)

// InMemory stores principals in memory for tests and the demo environment.
type InMemory struct {
	mu         sync.RWMutex
	principals map[id.PrincipalID]*models.Principal
}

// NewInMemory creates an in-memory principal store.
func NewInMemory() *InMemory {
	return &InMemory{principals: make(map[id.PrincipalID]*models.Principal)}
}

// Create inserts a principal.
func (s *InMemory) Create(_ context.Context, p *models.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.principals[p.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	s.principals[p.ID] = p
	return nil
}

// FindByID retrieves a principal by its UUID.
func (s *InMemory) FindByID(_ context.Context, principalID id.PrincipalID) (*models.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.principals[principalID]; ok {
		return p, nil
	}
	return nil, sentinel.ErrNotFound
}

// ListReviewers returns every active tenant-admin and manager for a tenant.
func (s *InMemory) ListReviewers(_ context.Context, tenantID id.TenantID) ([]*models.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Principal
	for _, p := range s.principals {
		if p.TenantID != tenantID || !p.Active {
			continue
		}
		if p.Role == id.RoleTenantAdmin || p.Role == id.RoleManager {
			out = append(out, p)
		}
	}
	return out, nil
}

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"estatecore/internal/property/models"
	"estatecore/internal/sentinel"
	id "estatecore/pkg/domain"
)

// InMemory keeps listings in memory. The compare-and-write primitives
// (ApplyReview, Submit, UpdatePublication, Archive) hold the lock across the
// state check and the mutation, matching the single-statement guarantees of
// the SQL store.
type InMemory struct {
	mu         sync.RWMutex
	properties map[id.PropertyID]*models.Property
	archived   []*models.ArchivedProperty
}

func NewInMemory() *InMemory {
	return &InMemory{
		properties: make(map[id.PropertyID]*models.Property),
	}
}

func (s *InMemory) Create(_ context.Context, property *models.Property) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.properties[property.ID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	cp := *property
	s.properties[property.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, propertyID id.PropertyID) (*models.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	property, ok := s.properties[propertyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *property
	return &cp, nil
}

func (s *InMemory) FindByTenantAndID(_ context.Context, tenantID id.TenantID, propertyID id.PropertyID) (*models.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	property, ok := s.properties[propertyID]
	if !ok || property.TenantID != tenantID {
		return nil, sentinel.ErrNotFound
	}
	cp := *property
	return &cp, nil
}

func (s *InMemory) List(_ context.Context, filter models.Filter) ([]*models.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Property
	for _, property := range s.properties {
		if filter.Matches(property) {
			cp := *property
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// ApplyReview records a decision iff the listing is still pending. A listing
// that was already decided returns sentinel.ErrInvalidState and is left
// untouched, so concurrent reviewers cannot overwrite each other.
func (s *InMemory) ApplyReview(_ context.Context, propertyID id.PropertyID, review models.Review) (*models.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	property, ok := s.properties[propertyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if property.ApprovalStatus != models.ApprovalPending {
		return nil, sentinel.ErrInvalidState
	}
	if err := property.ApplyReview(review); err != nil {
		return nil, sentinel.ErrInvalidState
	}
	cp := *property
	return &cp, nil
}

// Submit marks the listing pending review iff it is not already pending and
// not archived.
func (s *InMemory) Submit(_ context.Context, propertyID id.PropertyID, now time.Time) (*models.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	property, ok := s.properties[propertyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := property.Submit(now); err != nil {
		return nil, sentinel.ErrInvalidState
	}
	cp := *property
	return &cp, nil
}

// UpdatePublication moves publication state iff the listing is still at from.
func (s *InMemory) UpdatePublication(_ context.Context, propertyID id.PropertyID, from, to models.PublicationStatus, now time.Time) (*models.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	property, ok := s.properties[propertyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if property.PublicationStatus != from {
		return nil, sentinel.ErrInvalidState
	}
	property.PublicationStatus = to
	property.UpdatedAt = now
	cp := *property
	return &cp, nil
}

// Archive marks the listing archived and retains a full copy.
func (s *InMemory) Archive(_ context.Context, propertyID id.PropertyID, archivedBy id.PrincipalID, now time.Time) (*models.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	property, ok := s.properties[propertyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := property.Archive(now); err != nil {
		return nil, sentinel.ErrInvalidState
	}
	retained := *property
	s.archived = append(s.archived, &models.ArchivedProperty{
		Property:   retained,
		ArchivedBy: archivedBy,
		ArchivedAt: now,
	})
	cp := *property
	return &cp, nil
}

// Archived returns the retained copies. Test helper.
func (s *InMemory) Archived() []*models.ArchivedProperty {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.ArchivedProperty, len(s.archived))
	copy(out, s.archived)
	return out
}

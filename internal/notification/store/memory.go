package store

import (
	"context"
	"sort"
	"sync"

	"estatecore/internal/notification"
	"estatecore/internal/sentinel"
	id "estatecore/pkg/domain"
)

// InMemory stores notifications in memory for tests and the demo environment.
type InMemory struct {
	mu            sync.RWMutex
	notifications map[id.NotificationID]*notification.Notification
	// failCreate lets tests simulate a broken notification sink.
	failCreate error
}

// NewInMemory creates an in-memory notification store.
func NewInMemory() *InMemory {
	return &InMemory{notifications: make(map[id.NotificationID]*notification.Notification)}
}

// FailCreates makes every subsequent Create return err. Pass nil to heal.
func (s *InMemory) FailCreates(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failCreate = err
}

// Create inserts a notification.
func (s *InMemory) Create(_ context.Context, n *notification.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate != nil {
		return s.failCreate
	}
	s.notifications[n.ID] = n
	return nil
}

// ListByRecipient returns the recipient's notifications, newest first.
func (s *InMemory) ListByRecipient(_ context.Context, tenantID id.TenantID, recipientID id.PrincipalID, unreadOnly bool, limit int) ([]*notification.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*notification.Notification
	for _, n := range s.notifications {
		if n.TenantID != tenantID || n.RecipientID != recipientID {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MarkRead flips the read flag iff the notification belongs to the recipient.
func (s *InMemory) MarkRead(_ context.Context, notificationID id.NotificationID, recipientID id.PrincipalID) (*notification.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[notificationID]
	if !ok || n.RecipientID != recipientID {
		return nil, sentinel.ErrNotFound
	}
	n.Read = true
	return n, nil
}

// CountByRecipient is a test helper.
func (s *InMemory) CountByRecipient(recipientID id.PrincipalID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, n := range s.notifications {
		if n.RecipientID == recipientID {
			count++
		}
	}
	return count
}

// Package notification fans out notifications to interested users when a
// workflow transition completes. Delivery is best-effort: a failed creation is
// logged and counted but never fails the transition that triggered it.
package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	identitymodels "estatecore/internal/identity/models"
	"estatecore/internal/notification/metrics"
	"estatecore/internal/sentinel"
	id "estatecore/pkg/domain"
	dErrors "estatecore/pkg/domain-errors"
)

// ListLimit caps every notification listing.
const ListLimit = 50

// Store persists notifications.
type Store interface {
	Create(ctx context.Context, n *Notification) error
	ListByRecipient(ctx context.Context, tenantID id.TenantID, recipientID id.PrincipalID, unreadOnly bool, limit int) ([]*Notification, error)
	// MarkRead flips the read flag iff the notification belongs to the
	// recipient. Returns sentinel.ErrNotFound otherwise.
	MarkRead(ctx context.Context, notificationID id.NotificationID, recipientID id.PrincipalID) (*Notification, error)
}

// Directory resolves the reviewer fan-out set for a tenant.
type Directory interface {
	ListReviewers(ctx context.Context, tenantID id.TenantID) ([]*identitymodels.Principal, error)
}

// Service creates notifications and serves the recipient-facing reads.
type Service struct {
	store     Store
	directory Directory
	logger    *slog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock overrides the timestamp source in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(store Store, directory Directory, opts ...Option) *Service {
	s := &Service{store: store, directory: directory, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Notify creates one notification per recipient concurrently. Individual
// failures are logged and counted; the first error is returned so callers can
// log it, but partial delivery is expected and acceptable.
func (s *Service) Notify(ctx context.Context, tenantID id.TenantID, recipients []id.PrincipalID, typ Type, message string, propertyID *id.PropertyID) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, recipient := range recipients {
		n := &Notification{
			ID:          id.NewNotificationID(),
			TenantID:    tenantID,
			RecipientID: recipient,
			Type:        typ,
			Message:     message,
			PropertyID:  propertyID,
			CreatedAt:   s.now().UTC(),
		}
		g.Go(func() error {
			if err := s.store.Create(ctx, n); err != nil {
				if s.metrics != nil {
					s.metrics.IncrementFailures()
				}
				if s.logger != nil {
					s.logger.ErrorContext(ctx, "failed to create notification",
						"recipient_id", n.RecipientID,
						"type", string(typ),
						"error", err,
					)
				}
				return err
			}
			if s.metrics != nil {
				s.metrics.IncrementCreated(string(typ))
			}
			return nil
		})
	}
	return g.Wait()
}

// RequestApproval notifies every active tenant-admin and manager that a
// property awaits review.
func (s *Service) RequestApproval(ctx context.Context, tenantID id.TenantID, propertyID id.PropertyID, title string) error {
	reviewers, err := s.directory.ListReviewers(ctx, tenantID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list reviewers")
	}
	if len(reviewers) == 0 {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "no reviewers to notify", "tenant_id", tenantID, "property_id", propertyID)
		}
		return nil
	}

	recipients := make([]id.PrincipalID, 0, len(reviewers))
	for _, r := range reviewers {
		recipients = append(recipients, r.ID)
	}
	message := fmt.Sprintf("Property %q was submitted for approval", title)
	return s.Notify(ctx, tenantID, recipients, TypeApprovalRequested, message, &propertyID)
}

// AnnounceOutcome notifies the property's assigned agent of a review outcome.
// A property without an assigned agent produces no notification.
func (s *Service) AnnounceOutcome(ctx context.Context, tenantID id.TenantID, propertyID id.PropertyID, title string, agent *id.PrincipalID, approved bool, reason string) error {
	if agent == nil {
		return nil
	}
	typ := TypePropertyApproved
	message := fmt.Sprintf("Property %q was approved and published", title)
	if !approved {
		typ = TypePropertyRejected
		message = fmt.Sprintf("Property %q was rejected: %s", title, reason)
	}
	return s.Notify(ctx, tenantID, []id.PrincipalID{*agent}, typ, message, &propertyID)
}

// List returns the recipient's notifications, newest first, capped at ListLimit.
func (s *Service) List(ctx context.Context, tenantID id.TenantID, recipientID id.PrincipalID, unreadOnly bool) ([]*Notification, error) {
	out, err := s.store.ListByRecipient(ctx, tenantID, recipientID, unreadOnly, ListLimit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list notifications")
	}
	return out, nil
}

// MarkRead flips the read flag for the recipient's own notification.
func (s *Service) MarkRead(ctx context.Context, notificationID id.NotificationID, recipientID id.PrincipalID) (*Notification, error) {
	if notificationID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "notification ID required")
	}
	n, err := s.store.MarkRead(ctx, notificationID, recipientID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "notification not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark notification read")
	}
	return n, nil
}

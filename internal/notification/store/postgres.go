package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"estatecore/internal/notification"
	"estatecore/internal/sentinel"
	id "estatecore/pkg/domain"
)

// PostgresStore persists notifications in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed notification store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts a notification.
func (s *PostgresStore) Create(ctx context.Context, n *notification.Notification) error {
	if n == nil {
		return fmt.Errorf("notification is required")
	}
	query := `
		INSERT INTO notifications (id, tenant_id, recipient_id, type, message, property_id, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	var propertyID any
	if n.PropertyID != nil {
		propertyID = uuid.UUID(*n.PropertyID)
	}
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(n.ID),
		uuid.UUID(n.TenantID),
		uuid.UUID(n.RecipientID),
		string(n.Type),
		n.Message,
		propertyID,
		n.Read,
		n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// ListByRecipient returns the recipient's notifications, newest first.
func (s *PostgresStore) ListByRecipient(ctx context.Context, tenantID id.TenantID, recipientID id.PrincipalID, unreadOnly bool, limit int) ([]*notification.Notification, error) {
	query := `
		SELECT id, tenant_id, recipient_id, type, message, property_id, read, created_at
		FROM notifications
		WHERE tenant_id = $1 AND recipient_id = $2 AND ($3 = false OR read = false)
		ORDER BY created_at DESC
		LIMIT $4
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(tenantID), uuid.UUID(recipientID), unreadOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	var out []*notification.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead flips the read flag iff the notification belongs to the recipient.
func (s *PostgresStore) MarkRead(ctx context.Context, notificationID id.NotificationID, recipientID id.PrincipalID) (*notification.Notification, error) {
	query := `
		UPDATE notifications
		SET read = true
		WHERE id = $1 AND recipient_id = $2
		RETURNING id, tenant_id, recipient_id, type, message, property_id, read, created_at
	`
	n, err := scanNotification(s.db.QueryRowContext(ctx, query, uuid.UUID(notificationID), uuid.UUID(recipientID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("mark notification read: %w", err)
	}
	return n, nil
}

type notificationRow interface {
	Scan(dest ...any) error
}

func scanNotification(row notificationRow) (*notification.Notification, error) {
	var n notification.Notification
	var nID, tenantID, recipientID uuid.UUID
	var propertyID sql.Null[uuid.UUID]
	var typ string
	if err := row.Scan(&nID, &tenantID, &recipientID, &typ, &n.Message, &propertyID, &n.Read, &n.CreatedAt); err != nil {
		return nil, err
	}
	n.ID = id.NotificationID(nID)
	n.TenantID = id.TenantID(tenantID)
	n.RecipientID = id.PrincipalID(recipientID)
	n.Type = notification.Type(typ)
	if propertyID.Valid {
		pid := id.PropertyID(propertyID.V)
		n.PropertyID = &pid
	}
	return &n, nil
}

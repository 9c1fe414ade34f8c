package notification

import (
	"time"

	id "estatecore/pkg/domain"
)

// Type tags what a notification is about.
type Type string

const (
	TypeApprovalRequested Type = "approval-requested"
	TypePropertyApproved  Type = "property-approved"
	TypePropertyRejected  Type = "property-rejected"
)

// Notification is scoped to exactly one (tenant, recipient) pair. Created
// only by the dispatcher; the recipient may flip the read flag, nothing else.
type Notification struct {
	ID          id.NotificationID `json:"id"`
	TenantID    id.TenantID       `json:"tenant_id"`
	RecipientID id.PrincipalID    `json:"recipient_id"`
	Type        Type              `json:"type"`
	Message     string            `json:"message"`
	PropertyID  *id.PropertyID    `json:"property_id,omitempty"`
	Read        bool              `json:"read"`
	CreatedAt   time.Time         `json:"created_at"`
}

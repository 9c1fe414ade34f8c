package audit

import (
	"time"

	id "estatecore/pkg/domain"
)

// Action tags every state-changing operation reachable through this core.
type Action string

const (
	ActionCreateProperty       Action = "CREATE_PROPERTY"
	ActionSubmitProperty       Action = "SUBMIT_PROPERTY"
	ActionApproveProperty      Action = "APPROVE_PROPERTY"
	ActionRejectProperty       Action = "REJECT_PROPERTY"
	ActionAdvancePublication   Action = "ADVANCE_PUBLICATION"
	ActionArchiveProperty      Action = "ARCHIVE_PROPERTY"
	ActionDeactivateTenant     Action = "DEACTIVATE_TENANT"
	ActionMarkNotificationRead Action = "MARK_NOTIFICATION_READ"
)

// TargetRef points an entry at the entity it mutated.
type TargetRef struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

// Entry is the append-only audit record. Never updated or deleted by the
// application; retention is the record store's concern.
type Entry struct {
	ID          string            `json:"id"`
	PrincipalID id.PrincipalID    `json:"principal_id"`
	TenantID    id.TenantID       `json:"tenant_id"`
	Action      Action            `json:"action"`
	Target      TargetRef         `json:"target"`
	Details     map[string]string `json:"details,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Record is the input to the Recorder; the Recorder assigns identity and
// timestamp when it appends.
type Record struct {
	PrincipalID id.PrincipalID
	TenantID    id.TenantID
	Action      Action
	Target      TargetRef
	Details     map[string]string
}

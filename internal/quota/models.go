package quota

import (
	"fmt"
	"time"

	id "estatecore/pkg/domain"
)

// ResourceKind names the countable resources a plan caps.
type ResourceKind string

const (
	ResourceUsers      ResourceKind = "users"
	ResourceProperties ResourceKind = "properties"
	ResourceLeads      ResourceKind = "leads"
	ResourceDeals      ResourceKind = "deals"
)

// LimitName returns the plan-feature name for the kind, e.g. "maxProperties".
func (k ResourceKind) LimitName() string {
	switch k {
	case ResourceUsers:
		return "maxUsers"
	case ResourceProperties:
		return "maxProperties"
	case ResourceLeads:
		return "maxLeads"
	case ResourceDeals:
		return "maxDeals"
	}
	return string(k)
}

// Limits are the per-plan resource caps. Zero means the plan grants none of
// that resource; use Unlimited for no cap.
const Unlimited = -1

type Limits struct {
	MaxUsers      int `json:"max_users"`
	MaxProperties int `json:"max_properties"`
	MaxLeads      int `json:"max_leads"`
	MaxDeals      int `json:"max_deals"`
}

// For returns the limit for a resource kind.
func (l Limits) For(kind ResourceKind) int {
	switch kind {
	case ResourceUsers:
		return l.MaxUsers
	case ResourceProperties:
		return l.MaxProperties
	case ResourceLeads:
		return l.MaxLeads
	case ResourceDeals:
		return l.MaxDeals
	}
	return 0
}

// Plan is a subscription tier.
type Plan struct {
	Name     string `json:"name"`
	Features Limits `json:"features"`
}

// Usage is the point-in-time counter snapshot a subscription carries. It is
// recomputed by a periodic reconciliation outside this core and is eventually
// consistent with concurrent creations.
type Usage struct {
	TotalUsers      int `json:"total_users"`
	TotalProperties int `json:"total_properties"`
	TotalLeads      int `json:"total_leads"`
	TotalDeals      int `json:"total_deals"`
}

// For returns the usage counter for a resource kind.
func (u Usage) For(kind ResourceKind) int {
	switch kind {
	case ResourceUsers:
		return u.TotalUsers
	case ResourceProperties:
		return u.TotalProperties
	case ResourceLeads:
		return u.TotalLeads
	case ResourceDeals:
		return u.TotalDeals
	}
	return 0
}

// SubscriptionStatus is the billing lifecycle state.
type SubscriptionStatus string

const (
	StatusTrial     SubscriptionStatus = "trial"
	StatusActive    SubscriptionStatus = "active"
	StatusCancelled SubscriptionStatus = "cancelled"
	StatusExpired   SubscriptionStatus = "expired"
	StatusSuspended SubscriptionStatus = "suspended"
)

// Admits reports whether the status still admits resource creation.
func (s SubscriptionStatus) Admits() bool {
	return s == StatusActive || s == StatusTrial
}

// Subscription is the one active record per tenant linking it to a plan.
// Read-only from the enforcer's perspective.
type Subscription struct {
	ID           id.SubscriptionID  `json:"id"`
	TenantID     id.TenantID        `json:"tenant_id"`
	Plan         Plan               `json:"plan"`
	Status       SubscriptionStatus `json:"status"`
	CurrentUsage Usage              `json:"current_usage"`
	StartDate    time.Time          `json:"start_date"`
	EndDate      time.Time          `json:"end_date"`
}

// ExceededError carries the machine-readable denial detail so callers can
// render an upgrade prompt: plan name, limit name, current usage and the cap.
type ExceededError struct {
	Plan    string
	Limit   string
	Current int
	Max     int
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("plan %s limit %s reached (%d of %d)", e.Plan, e.Limit, e.Current, e.Max)
}

package models

import (
	"strings"
	"time"

	id "estatecore/pkg/domain"
	dErrors "estatecore/pkg/domain-errors"
)

// PublicationStatus is the listing lifecycle dimension.
type PublicationStatus string

const (
	PublicationDraft         PublicationStatus = "draft"
	PublicationSubmitted     PublicationStatus = "submitted"
	PublicationApproved      PublicationStatus = "approved"
	PublicationRejected      PublicationStatus = "rejected"
	PublicationPublished     PublicationStatus = "published"
	PublicationUnderContract PublicationStatus = "under-contract"
	PublicationSold          PublicationStatus = "sold"
	PublicationArchived      PublicationStatus = "archived"
)

// ApprovalStatus is the review dimension, independent of publication except
// that published can only ever be entered through an approval.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Property is owned by exactly one tenant and optionally assigned to one
// principal, the listing agent. TenantID is immutable after creation.
type Property struct {
	ID                id.PropertyID     `json:"id"`
	TenantID          id.TenantID       `json:"tenant_id"`
	AssignedTo        *id.PrincipalID   `json:"assigned_to,omitempty"`
	CreatedBy         id.PrincipalID    `json:"created_by"`
	Title             string            `json:"title"`
	Description       string            `json:"description"`
	Address           string            `json:"address"`
	City              string            `json:"city"`
	PriceCents        int64             `json:"price_cents"`
	Bedrooms          int               `json:"bedrooms"`
	Bathrooms         int               `json:"bathrooms"`
	PublicationStatus PublicationStatus `json:"publication_status"`
	ApprovalStatus    ApprovalStatus    `json:"approval_status"`
	RejectionReason   string            `json:"rejection_reason,omitempty"`
	ReviewedBy        *id.PrincipalID   `json:"reviewed_by,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// Fields are the caller-supplied attributes of a new or updated listing.
type Fields struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Address     string          `json:"address"`
	City        string          `json:"city"`
	PriceCents  int64           `json:"price_cents"`
	Bedrooms    int             `json:"bedrooms"`
	Bathrooms   int             `json:"bathrooms"`
	AssignedTo  *id.PrincipalID `json:"assigned_to,omitempty"`
}

// Validate checks caller-supplied fields at the trust boundary.
func (f *Fields) Validate() error {
	if strings.TrimSpace(f.Title) == "" {
		return dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if len(f.Title) > 256 {
		return dErrors.New(dErrors.CodeValidation, "title must be 256 characters or less")
	}
	if f.PriceCents < 0 {
		return dErrors.New(dErrors.CodeValidation, "price cannot be negative")
	}
	if f.Bedrooms < 0 || f.Bathrooms < 0 {
		return dErrors.New(dErrors.CodeValidation, "room counts cannot be negative")
	}
	return nil
}

// NewProperty builds a listing in its initial state: draft, with approval
// granted up front when the creator may review listings themselves and
// pending otherwise.
func NewProperty(propertyID id.PropertyID, tenantID id.TenantID, creator id.PrincipalID, creatorRole id.Role, fields Fields, now time.Time) (*Property, error) {
	if tenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "property requires a tenant")
	}
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	approval := ApprovalPending
	if creatorRole.CanReview() {
		approval = ApprovalApproved
	}

	assigned := fields.AssignedTo
	if assigned == nil && creatorRole == id.RoleAgent {
		assigned = &creator
	}

	return &Property{
		ID:                propertyID,
		TenantID:          tenantID,
		AssignedTo:        assigned,
		CreatedBy:         creator,
		Title:             strings.TrimSpace(fields.Title),
		Description:       fields.Description,
		Address:           fields.Address,
		City:              fields.City,
		PriceCents:        fields.PriceCents,
		Bedrooms:          fields.Bedrooms,
		Bathrooms:         fields.Bathrooms,
		PublicationStatus: PublicationDraft,
		ApprovalStatus:    approval,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// CheckInvariant verifies a published listing never carries a rejected
// review. Pending is legal: a re-submitted listing stays published until its
// re-review decides.
func (p *Property) CheckInvariant() error {
	if p.PublicationStatus == PublicationPublished && p.ApprovalStatus == ApprovalRejected {
		return dErrors.New(dErrors.CodeInvariantViolation, "published property cannot be rejected")
	}
	return nil
}

// Review is a pending-state decision: approve publishes the listing, reject
// sends it back to draft with the reviewer's reason.
type Review struct {
	ReviewerID id.PrincipalID
	Approve    bool
	Reason     string
	At         time.Time
}

// ApplyReview applies a decision in place. Only legal while approval is
// pending; any other state is an invalid transition and mutates nothing.
// Stores must express this same guard as a single conditional write.
func (p *Property) ApplyReview(r Review) error {
	if p.PublicationStatus == PublicationArchived {
		return dErrors.New(dErrors.CodeInvalidStateTransition, "archived property cannot be reviewed")
	}
	if p.ApprovalStatus != ApprovalPending {
		return dErrors.New(dErrors.CodeInvalidStateTransition,
			"property is not pending review (approval status: "+string(p.ApprovalStatus)+")")
	}
	reviewer := r.ReviewerID
	p.ReviewedBy = &reviewer
	p.UpdatedAt = r.At
	if r.Approve {
		p.ApprovalStatus = ApprovalApproved
		p.PublicationStatus = PublicationPublished
		p.RejectionReason = ""
	} else {
		p.ApprovalStatus = ApprovalRejected
		p.PublicationStatus = PublicationDraft
		p.RejectionReason = r.Reason
	}
	return nil
}

// Submit puts the listing up for review: approval becomes pending and a draft
// moves to submitted. Re-submitting an already-approved listing keeps its
// publication state until the re-review decides.
func (p *Property) Submit(now time.Time) error {
	if p.PublicationStatus == PublicationArchived {
		return dErrors.New(dErrors.CodeInvalidStateTransition, "archived property cannot be submitted")
	}
	if p.ApprovalStatus == ApprovalPending && p.PublicationStatus == PublicationSubmitted {
		return dErrors.New(dErrors.CodeInvalidStateTransition, "property is already submitted for review")
	}
	p.ApprovalStatus = ApprovalPending
	if p.PublicationStatus == PublicationDraft {
		p.PublicationStatus = PublicationSubmitted
	}
	p.RejectionReason = ""
	p.UpdatedAt = now
	return nil
}

// publicationMoves is the forward-only progression open to direct moves.
// published is deliberately absent as a target: it can only be entered
// through an approval.
var publicationMoves = map[PublicationStatus][]PublicationStatus{
	PublicationSubmitted:     {PublicationDraft},
	PublicationPublished:     {PublicationUnderContract},
	PublicationUnderContract: {PublicationSold},
}

// CanMovePublication reports whether from -> to is a legal direct move.
func CanMovePublication(from, to PublicationStatus) bool {
	for _, next := range publicationMoves[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Archive soft-deletes the listing: the live record is marked archived and the
// store retains a copy. Nothing is ever hard-deleted without an audit trail.
func (p *Property) Archive(now time.Time) error {
	if p.PublicationStatus == PublicationArchived {
		return dErrors.New(dErrors.CodeInvalidStateTransition, "property is already archived")
	}
	p.PublicationStatus = PublicationArchived
	p.UpdatedAt = now
	return nil
}

// ArchivedProperty is the retained copy written when a listing is archived.
type ArchivedProperty struct {
	Property   Property       `json:"property"`
	ArchivedBy id.PrincipalID `json:"archived_by"`
	ArchivedAt time.Time      `json:"archived_at"`
}

// Filter bounds a listing query. AssignedTo widens PublishedOnly to include
// listings assigned to that principal, mirroring the agent visibility rule.
type Filter struct {
	TenantID      id.TenantID
	AssignedTo    *id.PrincipalID
	PublishedOnly bool
	Publication   *PublicationStatus
	City          string
}

// Matches reports whether a property falls inside the filter. Shared by the
// in-memory store and tests; the SQL store encodes the same predicate.
func (f Filter) Matches(p *Property) bool {
	if p.TenantID != f.TenantID {
		return false
	}
	if f.Publication != nil && p.PublicationStatus != *f.Publication {
		return false
	}
	if f.City != "" && !strings.EqualFold(p.City, f.City) {
		return false
	}
	if f.PublishedOnly {
		published := p.PublicationStatus == PublicationPublished && p.ApprovalStatus == ApprovalApproved
		assigned := f.AssignedTo != nil && p.AssignedTo != nil && *p.AssignedTo == *f.AssignedTo
		if !published && !assigned {
			return false
		}
	}
	return true
}

// ApprovalSnapshot is the read model returned by the approval-status lookup.
type ApprovalSnapshot struct {
	PropertyID        id.PropertyID     `json:"property_id"`
	ApprovalStatus    ApprovalStatus    `json:"approval_status"`
	PublicationStatus PublicationStatus `json:"publication_status"`
	RejectionReason   string            `json:"rejection_reason,omitempty"`
	ReviewedBy        *id.PrincipalID   `json:"reviewed_by,omitempty"`
}

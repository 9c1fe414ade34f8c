// Package service implements the property workflow: creation behind the quota
// gate, the submit/review cycle, publication progression, and archival. Every
// state change passes the authorization guard first and lands in the audit
// record afterwards.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"estatecore/internal/audit"
	"estatecore/internal/authz"
	"estatecore/internal/identity"
	"estatecore/internal/property/metrics"
	"estatecore/internal/property/models"
	"estatecore/internal/property/tracer"
	"estatecore/internal/quota"
	"estatecore/internal/sentinel"
	id "estatecore/pkg/domain"
	dErrors "estatecore/pkg/domain-errors"
)

// Store is the listing persistence the workflow drives. The state-changing
// methods are conditional writes: they return sentinel.ErrInvalidState when
// the precondition no longer holds, which is how concurrent decisions are
// serialized without locks above the store.
type Store interface {
	Create(ctx context.Context, property *models.Property) error
	FindByID(ctx context.Context, propertyID id.PropertyID) (*models.Property, error)
	FindByTenantAndID(ctx context.Context, tenantID id.TenantID, propertyID id.PropertyID) (*models.Property, error)
	List(ctx context.Context, filter models.Filter) ([]*models.Property, error)
	ApplyReview(ctx context.Context, propertyID id.PropertyID, review models.Review) (*models.Property, error)
	Submit(ctx context.Context, propertyID id.PropertyID, now time.Time) (*models.Property, error)
	UpdatePublication(ctx context.Context, propertyID id.PropertyID, from, to models.PublicationStatus, now time.Time) (*models.Property, error)
	Archive(ctx context.Context, propertyID id.PropertyID, archivedBy id.PrincipalID, now time.Time) (*models.Property, error)
}

// QuotaChecker gates admission against the tenant's subscription.
type QuotaChecker interface {
	Check(ctx context.Context, tenantID id.TenantID, kind quota.ResourceKind) error
	RecordAdmission(ctx context.Context, tenantID id.TenantID, kind quota.ResourceKind)
}

// Auditor records state changes. Recording is fire-and-forget; see the audit
// package for the delivery guarantees.
type Auditor interface {
	Record(ctx context.Context, rec audit.Record)
}

// Notifier delivers workflow notifications best-effort.
type Notifier interface {
	RequestApproval(ctx context.Context, tenantID id.TenantID, propertyID id.PropertyID, title string) error
	AnnounceOutcome(ctx context.Context, tenantID id.TenantID, propertyID id.PropertyID, title string, agent *id.PrincipalID, approved bool, reason string) error
}

// Service orchestrates the property lifecycle.
type Service struct {
	properties Store
	guard      authz.Guard
	quotas     QuotaChecker
	auditor    Auditor
	notifier   Notifier
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     tracer.Tracer
	now        func() time.Time
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditor(a Auditor) Option {
	return func(s *Service) {
		s.auditor = a
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New constructs the workflow service. Auditor and notifier default to no-ops
// so tests can wire only what they assert on.
func New(properties Store, quotas QuotaChecker, opts ...Option) *Service {
	s := &Service{
		properties: properties,
		guard:      authz.New(),
		quotas:     quotas,
		logger:     slog.Default(),
		tracer:     tracer.NewNoop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates the listing, checks the tenant's quota, and stores it in
// its initial state. Listings created by reviewers start approved; agent
// listings start pending and fan out an approval request. A quota denial is
// reported to the caller but never audited: nothing changed.
func (s *Service) Create(ctx context.Context, actor identity.Actor, fields models.Fields) (*models.Property, error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanCreate,
		tracer.String(tracer.AttrTenantID, actor.TenantID.String()),
		tracer.String(tracer.AttrActorRole, actor.Role.String()))
	property, err := s.create(ctx, actor, fields)
	span.End(err)
	return property, err
}

func (s *Service) create(ctx context.Context, actor identity.Actor, fields models.Fields) (*models.Property, error) {
	if actor.TenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "target tenant is required")
	}
	if err := s.guard.Authorize(actor, authz.ActionCreateProperty, actor.TenantID).Err(); err != nil {
		return nil, err
	}

	if !actor.IsPlatformAdmin() {
		if err := s.quotas.Check(ctx, actor.TenantID, quota.ResourceProperties); err != nil {
			if s.metrics != nil && dErrors.HasCode(err, dErrors.CodeQuotaExceeded) {
				s.metrics.IncrementQuotaDenials()
			}
			return nil, err
		}
	}

	property, err := models.NewProperty(id.NewPropertyID(), actor.TenantID, actor.PrincipalID, actor.Role, fields, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.properties.Create(ctx, property); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create property")
	}

	if !actor.IsPlatformAdmin() {
		s.quotas.RecordAdmission(ctx, actor.TenantID, quota.ResourceProperties)
	}
	if s.metrics != nil {
		s.metrics.IncrementPropertiesCreated()
	}
	s.record(ctx, actor, audit.ActionCreateProperty, property, map[string]string{
		"title":           property.Title,
		"approval_status": string(property.ApprovalStatus),
	})
	if property.ApprovalStatus == models.ApprovalPending {
		s.requestApproval(ctx, property)
	}

	s.logger.Info("property created",
		"property_id", property.ID,
		"tenant_id", property.TenantID,
		"approval_status", property.ApprovalStatus,
	)
	return property, nil
}

// Submit puts a listing up for review and notifies the tenant's reviewers.
func (s *Service) Submit(ctx context.Context, actor identity.Actor, propertyID id.PropertyID) (*models.Property, error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanSubmit,
		tracer.String(tracer.AttrPropertyID, propertyID.String()))
	property, err := s.submit(ctx, actor, propertyID)
	span.End(err)
	return property, err
}

func (s *Service) submit(ctx context.Context, actor identity.Actor, propertyID id.PropertyID) (*models.Property, error) {
	property, err := s.load(ctx, actor, propertyID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Authorize(actor, authz.ActionSubmitProperty, property.TenantID).Err(); err != nil {
		return nil, err
	}
	if err := s.requireOwnListing(actor, property); err != nil {
		return nil, err
	}

	before := stateOf(property)
	property, err = s.properties.Submit(ctx, propertyID, s.now())
	if err != nil {
		return nil, s.translate(err, "failed to submit property")
	}

	if s.metrics != nil {
		s.metrics.IncrementSubmissions()
	}
	s.record(ctx, actor, audit.ActionSubmitProperty, property, map[string]string{
		"before": before,
		"after":  stateOf(property),
	})
	s.requestApproval(ctx, property)
	return property, nil
}

// Approve resolves a pending review in the listing's favor and publishes it.
// The underlying write is conditional on the listing still being pending, so
// of two concurrent decisions exactly one succeeds.
func (s *Service) Approve(ctx context.Context, actor identity.Actor, propertyID id.PropertyID) (*models.Property, error) {
	return s.review(ctx, actor, propertyID, true, "")
}

// Reject resolves a pending review against the listing. The reason is
// mandatory: it is stored on the listing and relayed to the assigned agent.
func (s *Service) Reject(ctx context.Context, actor identity.Actor, propertyID id.PropertyID, reason string) (*models.Property, error) {
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "rejection reason is required")
	}
	return s.review(ctx, actor, propertyID, false, reason)
}

func (s *Service) review(ctx context.Context, actor identity.Actor, propertyID id.PropertyID, approve bool, reason string) (*models.Property, error) {
	outcome := "rejected"
	if approve {
		outcome = "approved"
	}
	ctx, span := s.tracer.Start(ctx, tracer.SpanReview,
		tracer.String(tracer.AttrPropertyID, propertyID.String()),
		tracer.String(tracer.AttrOutcome, outcome))

	property, err := s.doReview(ctx, actor, propertyID, approve, reason, outcome)
	span.End(err)
	return property, err
}

func (s *Service) doReview(ctx context.Context, actor identity.Actor, propertyID id.PropertyID, approve bool, reason, outcome string) (*models.Property, error) {
	property, err := s.load(ctx, actor, propertyID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Authorize(actor, authz.ActionReviewProperty, property.TenantID).Err(); err != nil {
		return nil, err
	}

	before := stateOf(property)
	submittedAt := property.UpdatedAt
	now := s.now()

	property, err = s.properties.ApplyReview(ctx, propertyID, models.Review{
		ReviewerID: actor.PrincipalID,
		Approve:    approve,
		Reason:     reason,
		At:         now,
	})
	if err != nil {
		if s.metrics != nil && errors.Is(err, sentinel.ErrInvalidState) {
			s.metrics.IncrementInvalidTransitions()
		}
		return nil, s.translate(err, "failed to apply review")
	}

	if s.metrics != nil {
		s.metrics.IncrementReviews(outcome)
		s.metrics.ObserveReviewLatency(now.Sub(submittedAt).Seconds())
	}
	action := audit.ActionApproveProperty
	details := map[string]string{
		"before": before,
		"after":  stateOf(property),
	}
	if !approve {
		action = audit.ActionRejectProperty
		details["reason"] = reason
	}
	s.record(ctx, actor, action, property, details)

	if s.notifier != nil {
		if err := s.notifier.AnnounceOutcome(ctx, property.TenantID, property.ID, property.Title, property.AssignedTo, approve, reason); err != nil {
			s.logger.Error("outcome notification failed", "property_id", property.ID, "error", err)
		}
	}

	s.logger.Info("property reviewed",
		"property_id", property.ID,
		"tenant_id", property.TenantID,
		"outcome", outcome,
		"reviewer_id", actor.PrincipalID,
	)
	return property, nil
}

// Get returns one listing, bounded by the actor's visibility. A listing the
// actor may not see reads exactly like one that does not exist.
func (s *Service) Get(ctx context.Context, actor identity.Actor, propertyID id.PropertyID) (*models.Property, error) {
	property, err := s.load(ctx, actor, propertyID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Authorize(actor, authz.ActionViewProperty, property.TenantID).Err(); err != nil {
		return nil, err
	}
	if !s.visible(actor, property) {
		return nil, dErrors.New(dErrors.CodeNotFound, "property not found")
	}
	return property, nil
}

// ApprovalStatus returns the review read model for a listing the actor can see.
func (s *Service) ApprovalStatus(ctx context.Context, actor identity.Actor, propertyID id.PropertyID) (*models.ApprovalSnapshot, error) {
	property, err := s.Get(ctx, actor, propertyID)
	if err != nil {
		return nil, err
	}
	return &models.ApprovalSnapshot{
		PropertyID:        property.ID,
		ApprovalStatus:    property.ApprovalStatus,
		PublicationStatus: property.PublicationStatus,
		RejectionReason:   property.RejectionReason,
		ReviewedBy:        property.ReviewedBy,
	}, nil
}

// Query narrows a listing search beyond what visibility already imposes.
type Query struct {
	Publication *models.PublicationStatus
	City        string
}

// List returns the tenant's listings the actor is allowed to see, newest
// first. Platform admins must resolve a target tenant before listing.
func (s *Service) List(ctx context.Context, actor identity.Actor, query Query) ([]*models.Property, error) {
	if actor.TenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "target tenant is required")
	}
	if err := s.guard.Authorize(actor, authz.ActionListProperties, actor.TenantID).Err(); err != nil {
		return nil, err
	}

	visibility := s.guard.VisibilityFor(actor)
	properties, err := s.properties.List(ctx, models.Filter{
		TenantID:      actor.TenantID,
		AssignedTo:    visibility.AssignedTo,
		PublishedOnly: visibility.PublishedOnly,
		Publication:   query.Publication,
		City:          query.City,
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list properties")
	}
	return properties, nil
}

// Advance moves publication state along the direct progression (for example
// published to under-contract). Entering published this way is impossible;
// only an approval publishes.
func (s *Service) Advance(ctx context.Context, actor identity.Actor, propertyID id.PropertyID, to models.PublicationStatus) (*models.Property, error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanAdvance,
		tracer.String(tracer.AttrPropertyID, propertyID.String()),
		tracer.String(tracer.AttrOutcome, string(to)))
	property, err := s.advance(ctx, actor, propertyID, to)
	span.End(err)
	return property, err
}

func (s *Service) advance(ctx context.Context, actor identity.Actor, propertyID id.PropertyID, to models.PublicationStatus) (*models.Property, error) {
	property, err := s.load(ctx, actor, propertyID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Authorize(actor, authz.ActionAdvancePublication, property.TenantID).Err(); err != nil {
		return nil, err
	}
	if err := s.requireOwnListing(actor, property); err != nil {
		return nil, err
	}

	from := property.PublicationStatus
	if !models.CanMovePublication(from, to) {
		if s.metrics != nil {
			s.metrics.IncrementInvalidTransitions()
		}
		return nil, dErrors.New(dErrors.CodeInvalidStateTransition,
			"cannot move publication from "+string(from)+" to "+string(to))
	}

	property, err = s.properties.UpdatePublication(ctx, propertyID, from, to, s.now())
	if err != nil {
		if s.metrics != nil && errors.Is(err, sentinel.ErrInvalidState) {
			s.metrics.IncrementInvalidTransitions()
		}
		return nil, s.translate(err, "failed to update publication")
	}

	s.record(ctx, actor, audit.ActionAdvancePublication, property, map[string]string{
		"from": string(from),
		"to":   string(to),
	})
	return property, nil
}

// Archive soft-deletes a listing. The store retains a full copy; nothing is
// hard-deleted.
func (s *Service) Archive(ctx context.Context, actor identity.Actor, propertyID id.PropertyID) (*models.Property, error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanArchive,
		tracer.String(tracer.AttrPropertyID, propertyID.String()))
	property, err := s.archive(ctx, actor, propertyID)
	span.End(err)
	return property, err
}

func (s *Service) archive(ctx context.Context, actor identity.Actor, propertyID id.PropertyID) (*models.Property, error) {
	property, err := s.load(ctx, actor, propertyID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Authorize(actor, authz.ActionArchiveProperty, property.TenantID).Err(); err != nil {
		return nil, err
	}

	before := stateOf(property)
	property, err = s.properties.Archive(ctx, propertyID, actor.PrincipalID, s.now())
	if err != nil {
		return nil, s.translate(err, "failed to archive property")
	}

	s.record(ctx, actor, audit.ActionArchiveProperty, property, map[string]string{
		"before": before,
	})
	return property, nil
}

// load fetches a listing scoped to the actor's tenant. Cross-tenant lookups
// fall out as not-found, never as forbidden, so existence leaks nothing.
func (s *Service) load(ctx context.Context, actor identity.Actor, propertyID id.PropertyID) (*models.Property, error) {
	var (
		property *models.Property
		err      error
	)
	if actor.IsPlatformAdmin() && actor.TenantID.IsNil() {
		property, err = s.properties.FindByID(ctx, propertyID)
	} else {
		property, err = s.properties.FindByTenantAndID(ctx, actor.TenantID, propertyID)
	}
	if err != nil {
		return nil, s.translate(err, "failed to load property")
	}
	return property, nil
}

// requireOwnListing restricts agent mutations to listings assigned to them.
func (s *Service) requireOwnListing(actor identity.Actor, property *models.Property) error {
	if actor.Role != id.RoleAgent {
		return nil
	}
	if property.AssignedTo == nil || *property.AssignedTo != actor.PrincipalID {
		return dErrors.New(dErrors.CodeForbidden, "agents may only modify their own listings")
	}
	return nil
}

func (s *Service) visible(actor identity.Actor, property *models.Property) bool {
	visibility := s.guard.VisibilityFor(actor)
	if visibility.Unrestricted() {
		return true
	}
	if visibility.AssignedTo != nil && property.AssignedTo != nil && *property.AssignedTo == *visibility.AssignedTo {
		return true
	}
	return property.PublicationStatus == models.PublicationPublished
}

func (s *Service) requestApproval(ctx context.Context, property *models.Property) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.RequestApproval(ctx, property.TenantID, property.ID, property.Title); err != nil {
		s.logger.Error("approval request notification failed", "property_id", property.ID, "error", err)
	}
}

func (s *Service) record(ctx context.Context, actor identity.Actor, action audit.Action, property *models.Property, details map[string]string) {
	if s.auditor == nil {
		return
	}
	s.auditor.Record(ctx, audit.Record{
		PrincipalID: actor.PrincipalID,
		TenantID:    property.TenantID,
		Action:      action,
		Target:      audit.TargetRef{Kind: "property", ID: property.ID.String()},
		Details:     details,
	})
}

func (s *Service) translate(err error, message string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "property not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.New(dErrors.CodeInvalidStateTransition, "property state changed; transition no longer valid")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, message)
	}
}

func stateOf(property *models.Property) string {
	return string(property.PublicationStatus) + "/" + string(property.ApprovalStatus)
}

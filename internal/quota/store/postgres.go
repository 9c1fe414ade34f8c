package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"estatecore/internal/quota"
	"estatecore/internal/sentinel"
	id "estatecore/pkg/domain"
)

// usageColumns maps resource kinds onto snapshot columns. Kept explicit so
// IncrementUsage can never interpolate caller input into SQL.
var usageColumns = map[quota.ResourceKind]string{
	quota.ResourceUsers:      "usage_users",
	quota.ResourceProperties: "usage_properties",
	quota.ResourceLeads:      "usage_leads",
	quota.ResourceDeals:      "usage_deals",
}

// PostgresStore persists subscriptions in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed subscription store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// FindByTenant returns the tenant's subscription with its plan limits and
// usage snapshot.
func (s *PostgresStore) FindByTenant(ctx context.Context, tenantID id.TenantID) (*quota.Subscription, error) {
	query := `
		SELECT id, tenant_id, plan_name, max_users, max_properties, max_leads, max_deals,
		       status, usage_users, usage_properties, usage_leads, usage_deals,
		       start_date, end_date
		FROM subscriptions
		WHERE tenant_id = $1
	`
	var sub quota.Subscription
	var subID, tID uuid.UUID
	var status string
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(tenantID)).Scan(
		&subID, &tID, &sub.Plan.Name,
		&sub.Plan.Features.MaxUsers, &sub.Plan.Features.MaxProperties,
		&sub.Plan.Features.MaxLeads, &sub.Plan.Features.MaxDeals,
		&status,
		&sub.CurrentUsage.TotalUsers, &sub.CurrentUsage.TotalProperties,
		&sub.CurrentUsage.TotalLeads, &sub.CurrentUsage.TotalDeals,
		&sub.StartDate, &sub.EndDate,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find subscription by tenant: %w", err)
	}
	sub.ID = id.SubscriptionID(subID)
	sub.TenantID = id.TenantID(tID)
	sub.Status = quota.SubscriptionStatus(status)
	return &sub, nil
}

// IncrementUsage bumps one usage counter in place.
func (s *PostgresStore) IncrementUsage(ctx context.Context, tenantID id.TenantID, kind quota.ResourceKind, delta int) error {
	column, ok := usageColumns[kind]
	if !ok {
		return sentinel.ErrInvalidInput
	}
	query := fmt.Sprintf(`UPDATE subscriptions SET %s = %s + $2 WHERE tenant_id = $1`, column, column)
	res, err := s.db.ExecContext(ctx, query, uuid.UUID(tenantID), delta)
	if err != nil {
		return fmt.Errorf("increment usage: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("increment usage rows: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

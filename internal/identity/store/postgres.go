package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"estatecore/internal/identity/models"
	"estatecore/internal/sentinel"
	id "estatecore/pkg/domain"
)

// PostgresStore persists principals in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed principal store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts a principal.
func (s *PostgresStore) Create(ctx context.Context, p *models.Principal) error {
	if p == nil {
		return fmt.Errorf("principal is required")
	}
	query := `
		INSERT INTO principals (id, tenant_id, role, name, email, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(p.ID),
		nullableTenant(p.TenantID),
		string(p.Role),
		p.Name,
		p.Email,
		p.Active,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create principal: %w", err)
	}
	return nil
}

// FindByID retrieves a principal by its UUID.
func (s *PostgresStore) FindByID(ctx context.Context, principalID id.PrincipalID) (*models.Principal, error) {
	query := `
		SELECT id, tenant_id, role, name, email, active, created_at, updated_at
		FROM principals
		WHERE id = $1
	`
	p, err := scanPrincipal(s.db.QueryRowContext(ctx, query, uuid.UUID(principalID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find principal by id: %w", err)
	}
	return p, nil
}

// ListReviewers returns every active tenant-admin and manager for a tenant.
func (s *PostgresStore) ListReviewers(ctx context.Context, tenantID id.TenantID) ([]*models.Principal, error) {
	query := `
		SELECT id, tenant_id, role, name, email, active, created_at, updated_at
		FROM principals
		WHERE tenant_id = $1 AND active AND role IN ('tenant-admin', 'manager')
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(tenantID))
	if err != nil {
		return nil, fmt.Errorf("list reviewers: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	var out []*models.Principal
	for rows.Next() {
		p, err := scanPrincipal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reviewer: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type principalRow interface {
	Scan(dest ...any) error
}

func scanPrincipal(row principalRow) (*models.Principal, error) {
	var p models.Principal
	var principalID uuid.UUID
	var tenantID sql.Null[uuid.UUID]
	var role string
	if err := row.Scan(&principalID, &tenantID, &role, &p.Name, &p.Email, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.ID = id.PrincipalID(principalID)
	if tenantID.Valid {
		p.TenantID = id.TenantID(tenantID.V)
	}
	p.Role = id.Role(role)
	return &p, nil
}

// nullableTenant maps the nil tenant (platform-admin) onto SQL NULL.
func nullableTenant(tenantID id.TenantID) any {
	if tenantID.IsNil() {
		return nil
	}
	return uuid.UUID(tenantID)
}

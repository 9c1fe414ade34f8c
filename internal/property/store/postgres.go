package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"estatecore/internal/property/models"
	"estatecore/internal/sentinel"
	id "estatecore/pkg/domain"
)

const propertyColumns = `id, tenant_id, assigned_to, created_by, title, description,
	address, city, price_cents, bedrooms, bathrooms,
	publication_status, approval_status, rejection_reason, reviewed_by,
	created_at, updated_at`

// PostgresStore persists listings in PostgreSQL. The state-changing queries
// carry their precondition in the WHERE clause, so a decision that lost the
// race matches zero rows instead of clobbering the winner.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed property store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, p *models.Property) error {
	if p == nil {
		return fmt.Errorf("property is required")
	}
	query := `
		INSERT INTO properties (` + propertyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(p.ID),
		uuid.UUID(p.TenantID),
		nullablePrincipal(p.AssignedTo),
		uuid.UUID(p.CreatedBy),
		p.Title,
		p.Description,
		p.Address,
		p.City,
		p.PriceCents,
		p.Bedrooms,
		p.Bathrooms,
		string(p.PublicationStatus),
		string(p.ApprovalStatus),
		nullableString(p.RejectionReason),
		nullablePrincipal(p.ReviewedBy),
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create property: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, propertyID id.PropertyID) (*models.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE id = $1`
	p, err := scanProperty(s.db.QueryRowContext(ctx, query, uuid.UUID(propertyID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find property: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) FindByTenantAndID(ctx context.Context, tenantID id.TenantID, propertyID id.PropertyID) (*models.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE id = $1 AND tenant_id = $2`
	p, err := scanProperty(s.db.QueryRowContext(ctx, query, uuid.UUID(propertyID), uuid.UUID(tenantID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find property: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) List(ctx context.Context, filter models.Filter) ([]*models.Property, error) {
	var (
		where = []string{"tenant_id = $1"}
		args  = []any{uuid.UUID(filter.TenantID)}
	)
	if filter.Publication != nil {
		args = append(args, string(*filter.Publication))
		where = append(where, fmt.Sprintf("publication_status = $%d", len(args)))
	}
	if filter.City != "" {
		args = append(args, filter.City)
		where = append(where, fmt.Sprintf("LOWER(city) = LOWER($%d)", len(args)))
	}
	if filter.PublishedOnly {
		cond := "(publication_status = 'published' AND approval_status = 'approved')"
		if filter.AssignedTo != nil {
			args = append(args, uuid.UUID(*filter.AssignedTo))
			cond = fmt.Sprintf("(%s OR assigned_to = $%d)", cond, len(args))
		}
		where = append(where, cond)
	}

	query := `SELECT ` + propertyColumns + ` FROM properties WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	defer rows.Close()

	var out []*models.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("list properties: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	return out, nil
}

// ApplyReview resolves a pending review in one conditional statement. The
// approval_status = 'pending' guard makes the first decision win: the loser
// matches no rows and the caller reports an invalid transition.
func (s *PostgresStore) ApplyReview(ctx context.Context, propertyID id.PropertyID, review models.Review) (*models.Property, error) {
	var query string
	args := []any{uuid.UUID(propertyID), uuid.UUID(review.ReviewerID), review.At}
	if review.Approve {
		query = `
			UPDATE properties
			SET approval_status = 'approved',
			    publication_status = 'published',
			    rejection_reason = NULL,
			    reviewed_by = $2,
			    updated_at = $3
			WHERE id = $1 AND approval_status = 'pending' AND publication_status <> 'archived'
			RETURNING ` + propertyColumns
	} else {
		query = `
			UPDATE properties
			SET approval_status = 'rejected',
			    publication_status = 'draft',
			    rejection_reason = $4,
			    reviewed_by = $2,
			    updated_at = $3
			WHERE id = $1 AND approval_status = 'pending' AND publication_status <> 'archived'
			RETURNING ` + propertyColumns
		args = append(args, review.Reason)
	}

	p, err := scanProperty(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.disambiguate(ctx, propertyID)
		}
		return nil, fmt.Errorf("apply review: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) Submit(ctx context.Context, propertyID id.PropertyID, now time.Time) (*models.Property, error) {
	query := `
		UPDATE properties
		SET approval_status = 'pending',
		    publication_status = CASE WHEN publication_status = 'draft' THEN 'submitted' ELSE publication_status END,
		    rejection_reason = NULL,
		    updated_at = $2
		WHERE id = $1
		  AND publication_status <> 'archived'
		  AND NOT (approval_status = 'pending' AND publication_status = 'submitted')
		RETURNING ` + propertyColumns
	p, err := scanProperty(s.db.QueryRowContext(ctx, query, uuid.UUID(propertyID), now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.disambiguate(ctx, propertyID)
		}
		return nil, fmt.Errorf("submit property: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) UpdatePublication(ctx context.Context, propertyID id.PropertyID, from, to models.PublicationStatus, now time.Time) (*models.Property, error) {
	query := `
		UPDATE properties
		SET publication_status = $3, updated_at = $4
		WHERE id = $1 AND publication_status = $2
		RETURNING ` + propertyColumns
	p, err := scanProperty(s.db.QueryRowContext(ctx, query,
		uuid.UUID(propertyID), string(from), string(to), now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.disambiguate(ctx, propertyID)
		}
		return nil, fmt.Errorf("update publication: %w", err)
	}
	return p, nil
}

// Archive retains a full copy of the listing and marks the live row archived,
// all inside one transaction.
func (s *PostgresStore) Archive(ctx context.Context, propertyID id.PropertyID, archivedBy id.PrincipalID, now time.Time) (*models.Property, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("archive property: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE properties
		SET publication_status = 'archived', updated_at = $2
		WHERE id = $1 AND publication_status <> 'archived'
		RETURNING ` + propertyColumns
	p, err := scanProperty(tx.QueryRowContext(ctx, query, uuid.UUID(propertyID), now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.disambiguate(ctx, propertyID)
		}
		return nil, fmt.Errorf("archive property: %w", err)
	}

	retain := `
		INSERT INTO archived_properties (property_id, tenant_id, archived_by, archived_at, snapshot)
		VALUES ($1, $2, $3, $4,
			(SELECT to_jsonb(p) FROM properties p WHERE p.id = $1))
	`
	if _, err := tx.ExecContext(ctx, retain,
		uuid.UUID(p.ID), uuid.UUID(p.TenantID), uuid.UUID(archivedBy), now); err != nil {
		return nil, fmt.Errorf("retain archived property: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("archive property: %w", err)
	}
	return p, nil
}

// disambiguate tells a missing row apart from a row the precondition skipped.
func (s *PostgresStore) disambiguate(ctx context.Context, propertyID id.PropertyID) error {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM properties WHERE id = $1)`,
		uuid.UUID(propertyID)).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check property exists: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrInvalidState
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProperty(row rowScanner) (*models.Property, error) {
	var (
		p          models.Property
		propertyID uuid.UUID
		tenantID   uuid.UUID
		createdBy  uuid.UUID
		assignedTo sql.Null[uuid.UUID]
		reviewedBy sql.Null[uuid.UUID]
		reason     sql.NullString
	)
	err := row.Scan(
		&propertyID,
		&tenantID,
		&assignedTo,
		&createdBy,
		&p.Title,
		&p.Description,
		&p.Address,
		&p.City,
		&p.PriceCents,
		&p.Bedrooms,
		&p.Bathrooms,
		&p.PublicationStatus,
		&p.ApprovalStatus,
		&reason,
		&reviewedBy,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.ID = id.PropertyID(propertyID)
	p.TenantID = id.TenantID(tenantID)
	p.CreatedBy = id.PrincipalID(createdBy)
	if assignedTo.Valid {
		principal := id.PrincipalID(assignedTo.V)
		p.AssignedTo = &principal
	}
	if reviewedBy.Valid {
		principal := id.PrincipalID(reviewedBy.V)
		p.ReviewedBy = &principal
	}
	if reason.Valid {
		p.RejectionReason = reason.String
	}
	return &p, nil
}

func nullablePrincipal(principalID *id.PrincipalID) sql.Null[uuid.UUID] {
	if principalID == nil {
		return sql.Null[uuid.UUID]{}
	}
	return sql.Null[uuid.UUID]{V: uuid.UUID(*principalID), Valid: true}
}

func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

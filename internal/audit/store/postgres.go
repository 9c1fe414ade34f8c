package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"estatecore/internal/audit"
)

// PostgresStore appends audit entries to PostgreSQL. Rows are insert-only;
// retention is enforced by the database, not the application.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed audit store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Append inserts one entry.
func (s *PostgresStore) Append(ctx context.Context, entry *audit.Entry) error {
	if entry == nil {
		return fmt.Errorf("entry is required")
	}

	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}

	query := `
		INSERT INTO audit_entries (id, principal_id, tenant_id, action, target_kind, target_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = s.db.ExecContext(ctx, query,
		entry.ID,
		uuid.UUID(entry.PrincipalID),
		uuid.UUID(entry.TenantID),
		string(entry.Action),
		entry.Target.Kind,
		entry.Target.ID,
		details,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

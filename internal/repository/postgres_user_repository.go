package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"pisces-api/internal/domain"
	"pisces-api/pkg/database"
)

// UsersTableDDL creates the users table used by the Postgres store
const UsersTableDDL = `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		display_name TEXT NOT NULL,
		email TEXT NOT NULL,
		email_verified BOOLEAN NOT NULL DEFAULT FALSE,
		provider TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// postgresUserRepository stores user records in a PostgreSQL table
type postgresUserRepository struct {
	db *database.PostgresDB
}

// NewPostgresUserRepository creates a new PostgreSQL-backed user repository
func NewPostgresUserRepository(db *database.PostgresDB) UserRepository {
	return &postgresUserRepository{
		db: db,
	}
}

// Exists reports whether a user row exists
func (r *postgresUserRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to read user %s: %w", id, err)
	}
	return exists, nil
}

// Get retrieves a user row
func (r *postgresUserRepository) Get(ctx context.Context, id string) (*domain.UserRecord, error) {
	query := `
		SELECT id, display_name, email, email_verified, provider, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	record := &domain.UserRecord{}
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&record.ID,
		&record.DisplayName,
		&record.Email,
		&record.EmailVerified,
		&record.Provider,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read user %s: %w", id, err)
	}
	return record, nil
}

// Merge upserts the row. created_at is only ever set by the INSERT branch,
// so SetCreatedAt is implied by the conflict handling.
func (r *postgresUserRepository) Merge(ctx context.Context, write *domain.UserWrite) error {
	query := `
		INSERT INTO users (id, display_name, email, email_verified, provider, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			email = EXCLUDED.email,
			email_verified = EXCLUDED.email_verified,
			provider = EXCLUDED.provider,
			updated_at = NOW()
	`

	_, err := r.db.Pool.Exec(ctx, query,
		write.ID,
		write.DisplayName,
		write.Email,
		write.EmailVerified,
		write.Provider,
	)
	if err != nil {
		return fmt.Errorf("failed to merge user %s: %w", write.ID, err)
	}
	return nil
}

// List returns up to limit rows ordered by id
func (r *postgresUserRepository) List(ctx context.Context, limit int) ([]domain.UserDocument, error) {
	query := `
		SELECT id, display_name, email, email_verified, provider, created_at, updated_at
		FROM users
		ORDER BY id
		LIMIT $1
	`

	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	documents := make([]domain.UserDocument, 0, limit)
	for rows.Next() {
		var record domain.UserRecord
		if err := rows.Scan(
			&record.ID,
			&record.DisplayName,
			&record.Email,
			&record.EmailVerified,
			&record.Provider,
			&record.CreatedAt,
			&record.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		documents = append(documents, recordDocument(&record))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return documents, nil
}

// Health pings the pool
func (r *postgresUserRepository) Health(ctx context.Context) error {
	return r.db.Health(ctx)
}

// Close closes the pool
func (r *postgresUserRepository) Close() error {
	r.db.Close()
	return nil
}

// recordDocument renders a record as a diagnostics document
func recordDocument(record *domain.UserRecord) domain.UserDocument {
	return domain.UserDocument{
		ID: record.ID,
		Data: map[string]interface{}{
			"display_name":   record.DisplayName,
			"email":          record.Email,
			"email_verified": record.EmailVerified,
			"provider":       record.Provider,
			"created_at":     record.CreatedAt,
			"updated_at":     record.UpdatedAt,
		},
	}
}

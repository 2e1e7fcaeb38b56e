package repository

import (
	"context"

	"pisces-api/internal/domain"
)

// DiagnosticsLimit caps how many user documents the diagnostics listing returns
const DiagnosticsLimit = 5

// UserRepository defines the persistence operations on user records
type UserRepository interface {
	// Exists reports whether a record is stored under id
	Exists(ctx context.Context, id string) (bool, error)

	// Get retrieves a record by id, returning nil when absent
	Get(ctx context.Context, id string) (*domain.UserRecord, error)

	// Merge creates the record or updates only the fields carried by write.
	// updated_at is always stamped with the store's clock; created_at only when write.SetCreatedAt.
	Merge(ctx context.Context, write *domain.UserWrite) error

	// List returns up to limit raw documents
	List(ctx context.Context, limit int) ([]domain.UserDocument, error)

	// Health checks connectivity to the backing store
	Health(ctx context.Context) error

	// Close releases the store's resources
	Close() error
}

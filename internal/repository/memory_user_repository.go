package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"pisces-api/internal/domain"
)

// MemoryUserRepository keeps user records in process memory. It backs local runs and tests.
type MemoryUserRepository struct {
	mu      sync.RWMutex
	records map[string]*domain.UserRecord
	now     func() time.Time
}

// NewMemoryUserRepository creates an empty in-memory repository
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		records: make(map[string]*domain.UserRecord),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the timestamp source
func (r *MemoryUserRepository) WithClock(now func() time.Time) *MemoryUserRepository {
	r.now = now
	return r
}

// Exists reports whether a record is stored under id
func (r *MemoryUserRepository) Exists(ctx context.Context, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.records[id]
	return ok, nil
}

// Get returns a copy of the record, or nil
func (r *MemoryUserRepository) Get(ctx context.Context, id string) (*domain.UserRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.records[id]
	if !ok {
		return nil, nil
	}
	clone := *record
	return &clone, nil
}

// Merge applies the write with the same semantics as a document merge
func (r *MemoryUserRepository) Merge(ctx context.Context, write *domain.UserWrite) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	record, ok := r.records[write.ID]
	if !ok {
		record = &domain.UserRecord{ID: write.ID}
		r.records[write.ID] = record
	}

	record.DisplayName = write.DisplayName
	record.Email = write.Email
	record.EmailVerified = write.EmailVerified
	record.Provider = write.Provider
	record.UpdatedAt = now
	if write.SetCreatedAt {
		record.CreatedAt = now
	}
	return nil
}

// List returns up to limit documents ordered by id
func (r *MemoryUserRepository) List(ctx context.Context, limit int) ([]domain.UserDocument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.records))
	for id := range r.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}

	documents := make([]domain.UserDocument, 0, len(ids))
	for _, id := range ids {
		documents = append(documents, recordDocument(r.records[id]))
	}
	return documents, nil
}

// Health always succeeds
func (r *MemoryUserRepository) Health(ctx context.Context) error {
	return nil
}

// Close is a no-op
func (r *MemoryUserRepository) Close() error {
	return nil
}

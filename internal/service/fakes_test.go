package service

import (
	"context"
	"errors"
	"sync"

	"pisces-api/internal/domain"
	"pisces-api/internal/repository"
)

type staticKey string

func (k staticKey) ResolveGeminiAPIKey() string { return string(k) }

type fakeGenerationClient struct {
	mu      sync.Mutex
	reply   string
	err     error
	calls   int
	lastKey string
	lastMsg string
}

func (f *fakeGenerationClient) GenerateReply(ctx context.Context, apiKey, message string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastKey = apiKey
	f.lastMsg = message
	return f.reply, f.err
}

type fakeVerifier struct {
	claims *domain.IdentityClaims
	err    error
	calls  int
}

func (f *fakeVerifier) Verify(ctx context.Context, credential string) (*domain.IdentityClaims, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	clone := *f.claims
	return &clone, nil
}

// failingRepository wraps a memory repository and fails selected operations
type failingRepository struct {
	*repository.MemoryUserRepository
	existsErr error
	mergeErr  error
	listErr   error
}

func (r *failingRepository) Exists(ctx context.Context, id string) (bool, error) {
	if r.existsErr != nil {
		return false, r.existsErr
	}
	return r.MemoryUserRepository.Exists(ctx, id)
}

func (r *failingRepository) Merge(ctx context.Context, write *domain.UserWrite) error {
	if r.mergeErr != nil {
		return r.mergeErr
	}
	return r.MemoryUserRepository.Merge(ctx, write)
}

func (r *failingRepository) List(ctx context.Context, limit int) ([]domain.UserDocument, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.MemoryUserRepository.List(ctx, limit)
}

var errBoom = errors.New("boom")

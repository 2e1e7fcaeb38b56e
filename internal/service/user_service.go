package service

import (
	"context"
	"strings"

	"pisces-api/internal/domain"
	"pisces-api/internal/repository"
	"pisces-api/pkg/errors"
	"pisces-api/pkg/logger"
)

// Client-facing messages of the identity ingestion endpoint
const (
	MsgCredentialRequired = "credential is required"
	MsgInvalidCredential  = "invalid google credential: "
	MsgMissingClaims      = "google token missing sub/email"
	MsgSaveUserFailed     = "failed to save user: "
)

// userService verifies credentials and persists user records
type userService struct {
	verifier IdentityVerifier
	users    repository.UserRepository
	cache    *CacheService
	logger   *logger.Logger
}

// NewUserService creates a new user service. cache may be nil.
func NewUserService(verifier IdentityVerifier, users repository.UserRepository, cache *CacheService, logger *logger.Logger) UserService {
	return &userService{
		verifier: verifier,
		users:    users,
		cache:    cache,
		logger:   logger,
	}
}

// AuthenticateGoogle verifies the credential, then merge-upserts the record keyed by subject id.
// created_at is only written when no record exists yet.
func (s *userService) AuthenticateGoogle(ctx context.Context, credential string) (*domain.User, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, errors.NewValidationError(MsgCredentialRequired)
	}

	claims, err := s.verifier.Verify(ctx, credential)
	if err != nil {
		s.logger.WithError(err).Warn("Credential verification failed")
		return nil, errors.NewAuthenticationError(MsgInvalidCredential+err.Error(), err)
	}

	if claims.Sub == "" || claims.Email == "" {
		s.logger.WithFields(map[string]interface{}{
			"has_sub":   claims.Sub != "",
			"has_email": claims.Email != "",
		}).Warn("Verified credential is missing required claims")
		return nil, errors.NewAuthenticationError(MsgMissingClaims, nil)
	}

	log := s.logger.WithField("user_id", claims.Sub)

	known, err := s.isKnownUser(ctx, claims.Sub)
	if err != nil {
		log.WithError(err).Error("Failed to look up user")
		return nil, errors.NewPersistenceError(MsgSaveUserFailed+err.Error(), err)
	}

	write := &domain.UserWrite{
		ID:            claims.Sub,
		DisplayName:   claims.DisplayName(),
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Provider:      domain.ProviderGoogle,
		SetCreatedAt:  !known,
	}

	if err := s.users.Merge(ctx, write); err != nil {
		log.WithError(err).Error("Failed to save user")
		return nil, errors.NewPersistenceError(MsgSaveUserFailed+err.Error(), err)
	}

	if s.cache != nil {
		s.cache.MarkUserKnown(ctx, claims.Sub)
	}

	log.WithFields(map[string]interface{}{
		"created":        !known,
		"email_verified": claims.EmailVerified,
	}).Info("User signed in")

	return &domain.User{
		ID:            write.ID,
		DisplayName:   write.DisplayName,
		Email:         write.Email,
		EmailVerified: write.EmailVerified,
	}, nil
}

// ListUsers returns up to repository.DiagnosticsLimit user documents
func (s *userService) ListUsers(ctx context.Context) ([]domain.UserDocument, error) {
	return s.users.List(ctx, repository.DiagnosticsLimit)
}

func (s *userService) isKnownUser(ctx context.Context, userID string) (bool, error) {
	if s.cache == nil {
		return s.users.Exists(ctx, userID)
	}
	return s.cache.IsUserKnownWithCache(ctx, userID, s.users.Exists)
}

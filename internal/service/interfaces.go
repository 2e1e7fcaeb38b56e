package service

import (
	"context"

	"pisces-api/internal/domain"
)

// GenerationClient relays a message to the generation provider
type GenerationClient interface {
	// GenerateReply sends message with apiKey and returns the extracted reply text
	GenerateReply(ctx context.Context, apiKey, message string) (string, error)
}

// APIKeyResolver yields the generation API key, re-resolving on every call
type APIKeyResolver interface {
	ResolveGeminiAPIKey() string
}

// IdentityVerifier validates an opaque credential and extracts its claims
type IdentityVerifier interface {
	Verify(ctx context.Context, credential string) (*domain.IdentityClaims, error)
}

// ChatService defines the generation proxy operations
type ChatService interface {
	// Reply validates the message and returns the provider's reply.
	// Failures are *errors.AppError values carrying the response status.
	Reply(ctx context.Context, message string) (string, error)
}

// UserService defines identity ingestion and user listing operations
type UserService interface {
	// AuthenticateGoogle verifies the credential and merge-upserts the user record
	AuthenticateGoogle(ctx context.Context, credential string) (*domain.User, error)

	// ListUsers returns a bounded sample of persisted user documents
	ListUsers(ctx context.Context) ([]domain.UserDocument, error)
}

// Services aggregates all service interfaces
type Services struct {
	Chat  ChatService
	Users UserService
}

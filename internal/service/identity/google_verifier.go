package identity

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/api/idtoken"
	"google.golang.org/api/option"

	"pisces-api/internal/domain"
	"pisces-api/pkg/logger"
)

// GoogleVerifier validates Google Identity Services ID tokens against a client id
type GoogleVerifier struct {
	clientID  string
	validator *idtoken.Validator
	logger    *logger.Logger
}

// NewGoogleVerifier creates a verifier. Google's signing keys are fetched lazily and cached
// by the validator, so no network call happens here.
func NewGoogleVerifier(ctx context.Context, clientID string, logger *logger.Logger) (*GoogleVerifier, error) {
	validator, err := idtoken.NewValidator(ctx, option.WithHTTPClient(&http.Client{
		Timeout: 10 * time.Second,
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to create id token validator: %w", err)
	}

	return &GoogleVerifier{
		clientID:  clientID,
		validator: validator,
		logger:    logger,
	}, nil
}

// Verify checks signature, expiry, issuer and audience, then extracts the identity claims
func (v *GoogleVerifier) Verify(ctx context.Context, credential string) (*domain.IdentityClaims, error) {
	if !isJWTToken(credential) {
		return nil, ErrMalformedCredential
	}

	payload, err := v.validator.Validate(ctx, credential, v.clientID)
	if err != nil {
		v.logger.WithError(err).Debug("Google ID token rejected")
		return nil, err
	}

	claims := claimsFromMap(payload.Subject, payload.Claims)

	v.logger.WithFields(map[string]interface{}{
		"user_id":        claims.Sub,
		"issuer":         payload.Issuer,
		"email_verified": claims.EmailVerified,
		"has_name":       claims.Name != "",
	}).Debug("Google ID token validated")

	return claims, nil
}

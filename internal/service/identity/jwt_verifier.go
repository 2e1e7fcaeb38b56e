package identity

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"pisces-api/internal/domain"
	"pisces-api/pkg/logger"
)

// JWTVerifier validates HS256 credentials signed with a shared development secret.
// It lets the service run locally without reaching Google.
type JWTVerifier struct {
	secret   []byte
	audience string
	logger   *logger.Logger
}

// NewJWTVerifier creates a development verifier. An empty audience disables the aud check.
func NewJWTVerifier(secret, audience string, logger *logger.Logger) (*JWTVerifier, error) {
	if secret == "" {
		return nil, errors.New("jwt verifier requires a secret")
	}
	return &JWTVerifier{
		secret:   []byte(secret),
		audience: audience,
		logger:   logger,
	}, nil
}

// Verify parses and validates the token and extracts identity claims
func (v *JWTVerifier) Verify(ctx context.Context, credential string) (*domain.IdentityClaims, error) {
	if !isJWTToken(credential) {
		return nil, ErrMalformedCredential
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	token, err := jwt.Parse(credential, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		v.logger.WithError(err).Debug("Development JWT rejected")
		return nil, err
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("unexpected claims type")
	}

	return claimsFromMap("", mapClaims), nil
}

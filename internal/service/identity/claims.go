package identity

import (
	"errors"
	"strings"

	"pisces-api/internal/domain"
)

// ErrMalformedCredential is returned before any network call when the credential is not a compact JWT
var ErrMalformedCredential = errors.New("credential is not a JWT")

// isJWTToken reports whether token has the three dot-separated segments of a compact JWT
func isJWTToken(token string) bool {
	if token == "" {
		return false
	}
	segments := strings.Split(token, ".")
	if len(segments) != 3 {
		return false
	}
	for _, segment := range segments {
		if segment == "" {
			return false
		}
	}
	return true
}

// claimsFromMap builds identity claims from a decoded token payload
func claimsFromMap(sub string, m map[string]interface{}) *domain.IdentityClaims {
	if sub == "" {
		sub = getStringValue(m, "sub")
	}
	return &domain.IdentityClaims{
		Sub:           sub,
		Email:         getStringValue(m, "email"),
		Name:          getStringValue(m, "name"),
		Picture:       getStringValue(m, "picture"),
		EmailVerified: getBoolValue(m, "email_verified"),
	}
}

// Helper functions to safely extract values from claim maps
func getStringValue(m map[string]interface{}, key string) string {
	if val, ok := m[key].(string); ok {
		return val
	}
	return ""
}

// getBoolValue accepts both JSON booleans and the "true"/"false" strings some issuers emit
func getBoolValue(m map[string]interface{}, key string) bool {
	switch val := m[key].(type) {
	case bool:
		return val
	case string:
		return strings.EqualFold(val, "true")
	}
	return false
}

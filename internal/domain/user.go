package domain

import "time"

const (
	// UsersCollection is the document collection holding user records
	UsersCollection = "users"
	// ProviderGoogle marks records created from Google credentials
	ProviderGoogle = "google"
	// FallbackDisplayName is used when the provider supplies neither name nor email
	FallbackDisplayName = "User"
)

// User is the client-facing view of a persisted user record
type User struct {
	ID            string `json:"id"`
	DisplayName   string `json:"display_name"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}

// UserRecord is the persisted document keyed by the provider subject id
type UserRecord struct {
	ID            string    `json:"id" firestore:"-"`
	DisplayName   string    `json:"display_name" firestore:"display_name"`
	Email         string    `json:"email" firestore:"email"`
	EmailVerified bool      `json:"email_verified" firestore:"email_verified"`
	Provider      string    `json:"provider" firestore:"provider"`
	CreatedAt     time.Time `json:"created_at" firestore:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" firestore:"updated_at"`
}

// UserWrite is a merge-upsert command. Only the listed fields are written;
// created_at is stamped by the store only when SetCreatedAt is true.
type UserWrite struct {
	ID            string
	DisplayName   string
	Email         string
	EmailVerified bool
	Provider      string
	SetCreatedAt  bool
}

// UserDocument is a raw listing entry used by diagnostics
type UserDocument struct {
	ID   string                 `json:"id"`
	Data map[string]interface{} `json:"data"`
}

// IdentityClaims are the facts extracted from a verified credential
type IdentityClaims struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	EmailVerified bool   `json:"email_verified"`
}

// DisplayName returns the name, falling back to email and then FallbackDisplayName
func (c *IdentityClaims) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	if c.Email != "" {
		return c.Email
	}
	return FallbackDisplayName
}

// AuthResult is the body returned by the identity ingestion endpoint
type AuthResult struct {
	OK    bool   `json:"ok"`
	User  *User  `json:"user,omitempty"`
	Error string `json:"error,omitempty"`
}

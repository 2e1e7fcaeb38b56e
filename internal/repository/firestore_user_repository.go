package repository

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"pisces-api/internal/domain"
	pfirestore "pisces-api/pkg/firestore"
)

// firestoreUserRepository stores user records as documents in the users collection
type firestoreUserRepository struct {
	client *pfirestore.Client
}

// NewFirestoreUserRepository creates a new Firestore-backed user repository
func NewFirestoreUserRepository(client *pfirestore.Client) UserRepository {
	return &firestoreUserRepository{
		client: client,
	}
}

func (r *firestoreUserRepository) users() *firestore.CollectionRef {
	return r.client.Collection(domain.UsersCollection)
}

// Exists reports whether a user document exists
func (r *firestoreUserRepository) Exists(ctx context.Context, id string) (bool, error) {
	snap, err := r.users().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, fmt.Errorf("failed to read user %s: %w", id, err)
	}
	return snap.Exists(), nil
}

// Get retrieves a user document
func (r *firestoreUserRepository) Get(ctx context.Context, id string) (*domain.UserRecord, error) {
	snap, err := r.users().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read user %s: %w", id, err)
	}

	var record domain.UserRecord
	if err := snap.DataTo(&record); err != nil {
		return nil, fmt.Errorf("failed to decode user %s: %w", id, err)
	}
	record.ID = snap.Ref.ID
	return &record, nil
}

// Merge writes the user fields with MergeAll so untouched fields survive
func (r *firestoreUserRepository) Merge(ctx context.Context, write *domain.UserWrite) error {
	if _, err := r.users().Doc(write.ID).Set(ctx, firestoreUserFields(write), firestore.MergeAll); err != nil {
		return fmt.Errorf("failed to merge user %s: %w", write.ID, err)
	}
	return nil
}

// List returns up to limit user documents with their raw data
func (r *firestoreUserRepository) List(ctx context.Context, limit int) ([]domain.UserDocument, error) {
	snaps, err := r.users().Limit(limit).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	documents := make([]domain.UserDocument, 0, len(snaps))
	for _, snap := range snaps {
		documents = append(documents, domain.UserDocument{
			ID:   snap.Ref.ID,
			Data: snap.Data(),
		})
	}
	return documents, nil
}

// Health runs a single-document read against the collection
func (r *firestoreUserRepository) Health(ctx context.Context) error {
	_, err := r.users().Limit(1).Documents(ctx).GetAll()
	return err
}

// Close closes the Firestore client
func (r *firestoreUserRepository) Close() error {
	return r.client.Close()
}

// firestoreUserFields builds the merge payload. Timestamps use the server sentinel.
func firestoreUserFields(write *domain.UserWrite) map[string]interface{} {
	fields := map[string]interface{}{
		"display_name":   write.DisplayName,
		"email":          write.Email,
		"email_verified": write.EmailVerified,
		"provider":       write.Provider,
		"updated_at":     firestore.ServerTimestamp,
	}
	if write.SetCreatedAt {
		fields["created_at"] = firestore.ServerTimestamp
	}
	return fields
}

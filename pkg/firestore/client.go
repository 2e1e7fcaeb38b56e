package firestore

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// Client wraps a Firestore client bound to one project and database
type Client struct {
	*firestore.Client
	ProjectID  string
	DatabaseID string
}

// NewClient creates a Firestore client. When credentialsFile is set it is loaded explicitly;
// otherwise Application Default Credentials are discovered. When FIRESTORE_EMULATOR_HOST is
// set the SDK talks to the emulator and no credentials are needed.
func NewClient(ctx context.Context, projectID, databaseID, credentialsFile string) (*Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("firestore project id is required")
	}

	opts, err := clientOptions(ctx, credentialsFile)
	if err != nil {
		return nil, err
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	return &Client{
		Client:     client,
		ProjectID:  projectID,
		DatabaseID: databaseID,
	}, nil
}

// Scopes requested for Firestore access
var Scopes = []string{
	"https://www.googleapis.com/auth/cloud-platform",
	"https://www.googleapis.com/auth/datastore",
}

func clientOptions(ctx context.Context, credentialsFile string) ([]option.ClientOption, error) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") != "" {
		return nil, nil
	}

	if credentialsFile != "" {
		return []option.ClientOption{option.WithCredentialsFile(credentialsFile)}, nil
	}

	creds, err := google.FindDefaultCredentials(ctx, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("no google credentials found: %w", err)
	}
	return []option.ClientOption{option.WithCredentials(creds)}, nil
}

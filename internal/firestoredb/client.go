package firestoredb

import (
	"context"
	"fmt"

	"storefront/internal/util"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// ClientWrapper wraps a Firestore client and the options it was created with
type ClientWrapper struct {
	Client    *firestore.Client
	ProjectID string
	Options   []option.ClientOption
}

// CredentialOptions builds client options from a credentials file or raw service-account JSON.
// Both empty means application default credentials.
func CredentialOptions(credentialsFile string, credentialsJSON []byte) []option.ClientOption {
	switch {
	case len(credentialsJSON) > 0:
		return []option.ClientOption{option.WithCredentialsJSON(credentialsJSON)}
	case credentialsFile != "":
		return []option.ClientOption{option.WithCredentialsFile(credentialsFile)}
	default:
		return nil
	}
}

// NewClient initializes a Firestore client
func NewClient(ctx context.Context, projectID string, opts ...option.ClientOption) (*ClientWrapper, error) {
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	util.GetLogger().Info("Firestore connected", zap.String("project", projectID))
	return &ClientWrapper{Client: client, ProjectID: projectID, Options: opts}, nil
}

// Ping runs a cheap read since Firestore has no ping API
func (cw *ClientWrapper) Ping(ctx context.Context) error {
	if cw == nil || cw.Client == nil {
		return fmt.Errorf("firestore client is nil")
	}
	if _, err := cw.Client.Collections(ctx).GetAll(); err != nil {
		return fmt.Errorf("firestore ping failed: %w", err)
	}
	return nil
}

// Close closes the Firestore client
func (cw *ClientWrapper) Close() error {
	if cw == nil || cw.Client == nil {
		return nil
	}
	return cw.Client.Close()
}

package config

import (
	"context"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// FirestoreCredentials returns the service-account JSON stored in Secret Manager
// when FIRESTORE_CREDENTIALS_SECRET is set, or nil when credentials come from
// a file or application default credentials.
func (c *Config) FirestoreCredentials(ctx context.Context) ([]byte, error) {
	if c.Firestore.CredentialsSecret == "" {
		return nil, nil
	}

	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	name := secretVersionName(c.Firestore.ProjectID, c.Firestore.CredentialsSecret)

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: name,
	})
	if err != nil {
		return nil, fmt.Errorf("accessing secret %s: %w", name, err)
	}

	return result.Payload.Data, nil
}

// secretVersionName accepts either a bare secret id or a full resource name.
func secretVersionName(project, secret string) string {
	if strings.HasPrefix(secret, "projects/") {
		if strings.Contains(secret, "/versions/") {
			return secret
		}
		return secret + "/versions/latest"
	}
	return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", project, secret)
}

package identity

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/models"
	"storefront/internal/util"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// Firebase verifies Firebase Authentication ID tokens
type Firebase struct {
	client *auth.Client
}

// NewFirebase initializes the Firebase app and its auth client
func NewFirebase(ctx context.Context, projectID string, opts ...option.ClientOption) (*Firebase, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app init failed: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth init failed: %w", err)
	}

	return &Firebase{client: client}, nil
}

// Verify checks an ID token and returns the identity it carries
func (f *Firebase) Verify(ctx context.Context, idToken string) (*models.Identity, error) {
	ctx, span := util.StartSpan(ctx, "Firebase.Verify")
	defer span.End()

	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return nil, ErrInvalidToken
	}

	token, err := f.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	uid := strings.TrimSpace(token.UID)
	if uid == "" {
		return nil, fmt.Errorf("%w: empty uid", ErrInvalidToken)
	}

	return &models.Identity{
		UID:         uid,
		Email:       claimString(token.Claims, "email"),
		DisplayName: claimString(token.Claims, "name"),
		PhotoURL:    claimString(token.Claims, "picture"),
	}, nil
}

func claimString(claims map[string]interface{}, key string) string {
	if raw, ok := claims[key]; ok {
		if s, ok := raw.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

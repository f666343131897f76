package identity

import (
	"context"
	"strings"

	"storefront/internal/models"

	"github.com/google/uuid"
)

// Dev accepts "email" or "email|Display Name" as a token. For local development only.
type Dev struct{}

// NewDev creates a development verifier
func NewDev() *Dev {
	return &Dev{}
}

// Verify derives a stable identity from the email in the token
func (Dev) Verify(_ context.Context, token string) (*models.Identity, error) {
	email, name, _ := strings.Cut(strings.TrimSpace(token), "|")
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidToken
	}

	return &models.Identity{
		UID:         uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+email)).String(),
		Email:       email,
		DisplayName: strings.TrimSpace(name),
	}, nil
}

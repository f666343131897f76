package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDevVerify(t *testing.T) {
	ctx := context.Background()
	d := NewDev()

	id, err := d.Verify(ctx, "Demo@Example.com|Demo User")
	require.NoError(t, err)
	assert.Equal(t, "demo@example.com", id.Email)
	assert.Equal(t, "Demo User", id.DisplayName)
	assert.NotEmpty(t, id.UID)

	again, err := d.Verify(ctx, "demo@example.com")
	require.NoError(t, err)
	assert.Equal(t, id.UID, again.UID)

	other, err := d.Verify(ctx, "someone@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, id.UID, other.UID)
}

func TestDevVerifyRejectsGarbage(t *testing.T) {
	for _, token := range []string{"", "   ", "not-an-email", "|name"} {
		_, err := NewDev().Verify(context.Background(), token)
		assert.ErrorIs(t, err, ErrInvalidToken, token)
	}
}

func TestClaimString(t *testing.T) {
	claims := map[string]interface{}{"email": " a@b.c ", "n": 3}
	assert.Equal(t, "a@b.c", claimString(claims, "email"))
	assert.Equal(t, "", claimString(claims, "n"))
	assert.Equal(t, "", claimString(claims, "missing"))
}

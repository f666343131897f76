package identity

import "errors"

var (
	// ErrInvalidToken is returned when a sign-in token cannot be verified
	ErrInvalidToken = errors.New("invalid identity token")
)

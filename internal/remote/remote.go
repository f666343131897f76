package remote

import "errors"

var (
	// ErrIndexNotReady is returned when a query needs a composite index that is still being built
	ErrIndexNotReady = errors.New("query index not ready")
)

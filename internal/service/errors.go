package service

import "errors"

var (
	ErrEmptyCart    = errors.New("cart is empty")
	ErrInvalidDelta = errors.New("quantity delta must be +1 or -1")
	ErrEmptyMessage = errors.New("empty message")
	ErrUnknownReply = errors.New("unknown quick reply")
	ErrLoginFailed  = errors.New("login failed")

	ErrCatalogUnavailable = errors.New("catalog unavailable")
)

// Notices shown to the shopper
const (
	NoticeEmptyCart   = "Cart is empty"
	NoticeLoginFailed = "Login failed."
)

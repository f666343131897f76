package models

import "time"

// Event types
const (
	EventTypeCheckoutStarted = "CHECKOUT_STARTED"
	EventTypeFavoritesMerged = "FAVORITES_MERGED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// CheckoutStartedEvent published when a session hands its cart off to checkout
type CheckoutStartedEvent struct {
	BaseEvent
	SessionID    string         `json:"session_id"`
	UserID       string         `json:"user_id,omitempty"`
	CheckoutType string         `json:"checkout_type"`
	Subtotal     int64          `json:"subtotal"`
	Discount     int            `json:"discount_percent"`
	Total        string         `json:"total"`
	Items        []CartItemData `json:"items"`
}

// FavoritesMergedEvent published after local and remote favorites were merged on sign-in
type FavoritesMergedEvent struct {
	BaseEvent
	SessionID string   `json:"session_id"`
	UserID    string   `json:"user_id"`
	Favorites []string `json:"favorites"`
}

// CartItemData represents a grouped cart line in events
type CartItemData struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

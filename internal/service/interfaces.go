package service

import (
	"context"

	"storefront/internal/models"
)

// ProductQuery lists the catalog
type ProductQuery interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
}

// OrderQuery looks up placed orders. A missing order is (nil, nil).
type OrderQuery interface {
	FindOrderByTrackingID(ctx context.Context, trackingID string) (*models.Order, error)
	ListOrdersByCustomer(ctx context.Context, email string) ([]models.Order, error)
}

// CouponLookup resolves a coupon code. A missing coupon is (nil, nil).
type CouponLookup interface {
	GetCoupon(ctx context.Context, code string) (*models.Coupon, error)
}

// FavoritesProfile reads and merge-upserts the favorites of a customer profile
type FavoritesProfile interface {
	GetFavorites(ctx context.Context, uid string) ([]string, error)
	SetFavorites(ctx context.Context, uid string, favorites []string) error
}

// RemoteStore is the document store behind the storefront
type RemoteStore interface {
	ProductQuery
	OrderQuery
	CouponLookup
	FavoritesProfile
	Ping(ctx context.Context) error
}

// CatalogLoader installs the catalog of a session before cart prices or lines are read
type CatalogLoader interface {
	EnsureCatalog(ctx context.Context, s *Session) error
}

// IdentityProvider verifies a sign-in token
type IdentityProvider interface {
	Verify(ctx context.Context, token string) (*models.Identity, error)
}

// EventPublisher publishes storefront events
type EventPublisher interface {
	PublishCheckoutStarted(ctx context.Context, event *models.CheckoutStartedEvent) error
	PublishFavoritesMerged(ctx context.Context, event *models.FavoritesMergedEvent) error
}

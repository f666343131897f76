package service

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/broker"
	"storefront/internal/models"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// CheckoutService hands a cart off to the checkout page
type CheckoutService struct {
	catalog      CatalogLoader
	publisher    EventPublisher
	checkoutPath string
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(catalog CatalogLoader, publisher EventPublisher, checkoutPath string) *CheckoutService {
	return &CheckoutService{catalog: catalog, publisher: publisher, checkoutPath: checkoutPath}
}

// Start marks the session for a cart checkout and returns the page to navigate to.
// The catalog is installed first so the cart is priced. The cart is left as is.
func (s *CheckoutService) Start(ctx context.Context, sess *Session) (string, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.Start")
	defer span.End()

	r := sess.Reconciler
	if r.CartCount() == 0 {
		return "", ErrEmptyCart
	}
	if err := s.catalog.EnsureCatalog(ctx, sess); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	if r.CartCount() == 0 {
		return "", ErrEmptyCart
	}

	if err := r.MarkCheckout(ctx, models.CheckoutTypeCart); err != nil {
		return "", fmt.Errorf("failed to mark checkout: %w", err)
	}

	totals := r.Totals()
	event := &models.CheckoutStartedEvent{
		BaseEvent:    broker.NewBaseEvent(models.EventTypeCheckoutStarted),
		SessionID:    sess.ID,
		CheckoutType: models.CheckoutTypeCart,
		Subtotal:     totals.Subtotal,
		Discount:     totals.Discount,
		Total:        totals.Total.String(),
		Items:        []models.CartItemData{},
	}
	if u := r.User(); u != nil {
		event.UserID = u.UID
	}
	for _, line := range r.CartLines() {
		event.Items = append(event.Items, models.CartItemData{
			ProductID: line.Product.ID,
			Quantity:  line.Quantity,
			UnitPrice: line.Product.Price,
		})
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.publisher.PublishCheckoutStarted(ctx, event); err != nil {
			util.SessionLogger(sess.ID).Error("Failed to publish checkout started event", zap.Error(err))
		}
	}()

	util.CheckoutsStartedTotal.Inc()
	return s.checkoutPath, nil
}

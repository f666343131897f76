package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/models"
	"storefront/internal/util"

	"github.com/lib/pq"
)

// FindOrderByTrackingID retrieves the order with an exactly matching tracking id, or nil
func (s *Store) FindOrderByTrackingID(ctx context.Context, trackingID string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "Store.FindOrderByTrackingID")
	defer span.End()

	var order models.Order
	err := s.db.GetContext(ctx, &order,
		"SELECT id, tracking_id, user_email, status, product, price, created_at FROM orders WHERE tracking_id = $1 LIMIT 1",
		trackingID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	return &order, nil
}

// ListOrdersByCustomer retrieves the orders placed with email, newest first
func (s *Store) ListOrdersByCustomer(ctx context.Context, email string) ([]models.Order, error) {
	ctx, span := util.StartSpan(ctx, "Store.ListOrdersByCustomer")
	defer span.End()

	orders := []models.Order{}
	err := s.db.SelectContext(ctx, &orders, `
		SELECT id, tracking_id, user_email, status, product, price, created_at
		FROM orders
		WHERE user_email = $1
		ORDER BY created_at DESC NULLS LAST`, email)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// GetCoupon retrieves a coupon by code, or nil
func (s *Store) GetCoupon(ctx context.Context, code string) (*models.Coupon, error) {
	ctx, span := util.StartSpan(ctx, "Store.GetCoupon")
	defer span.End()

	var coupon models.Coupon
	err := s.db.GetContext(ctx, &coupon, "SELECT code, percent FROM coupons WHERE code = $1", code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	return &coupon, nil
}

// GetFavorites retrieves the favorites of a customer profile
func (s *Store) GetFavorites(ctx context.Context, uid string) ([]string, error) {
	ctx, span := util.StartSpan(ctx, "Store.GetFavorites")
	defer span.End()

	var favorites pq.StringArray
	err := s.db.GetContext(ctx, &favorites, "SELECT favorites FROM customers WHERE uid = $1", uid)
	if errors.Is(err, sql.ErrNoRows) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get favorites: %w", err)
	}
	return []string(favorites), nil
}

// SetFavorites upserts the favorites column, leaving the rest of the profile untouched
func (s *Store) SetFavorites(ctx context.Context, uid string, favorites []string) error {
	ctx, span := util.StartSpan(ctx, "Store.SetFavorites")
	defer span.End()

	if favorites == nil {
		favorites = []string{}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (uid, favorites, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (uid) DO UPDATE SET favorites = EXCLUDED.favorites, updated_at = NOW()`,
		uid, pq.StringArray(favorites))
	if err != nil {
		return fmt.Errorf("set favorites: %w", err)
	}
	return nil
}

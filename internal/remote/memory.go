package remote

import (
	"context"
	"sort"
	"sync"
	"time"

	"storefront/internal/models"
)

// Memory is an in-process document store used for development and tests
type Memory struct {
	mu        sync.RWMutex
	products  map[string]models.Product
	orders    map[string]models.Order
	coupons   map[string]models.Coupon
	favorites map[string][]string
}

// NewMemory creates an empty store
func NewMemory() *Memory {
	return &Memory{
		products:  make(map[string]models.Product),
		orders:    make(map[string]models.Order),
		coupons:   make(map[string]models.Coupon),
		favorites: make(map[string][]string),
	}
}

// PutProduct inserts or replaces a product
func (m *Memory) PutProduct(p models.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
}

// DeleteProduct removes a product
func (m *Memory) DeleteProduct(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.products, id)
}

// PutOrder inserts or replaces an order
func (m *Memory) PutOrder(o models.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = o
}

// PutCoupon inserts or replaces a coupon keyed by its code
func (m *Memory) PutCoupon(c models.Coupon) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.coupons[c.Code] = c
}

// Ping always succeeds
func (m *Memory) Ping(context.Context) error {
	return nil
}

// ListProducts returns all products, newest first
func (m *Memory) ListProducts(context.Context) ([]models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	products := make([]models.Product, 0, len(m.products))
	for _, p := range m.products {
		products = append(products, p)
	}
	sort.SliceStable(products, func(i, j int) bool {
		if products[i].CreatedAt.Equal(products[j].CreatedAt) {
			return products[i].ID < products[j].ID
		}
		return products[i].CreatedAt.After(products[j].CreatedAt)
	})
	return products, nil
}

// FindOrderByTrackingID returns the order with an exactly matching tracking id, or nil
func (m *Memory) FindOrderByTrackingID(_ context.Context, trackingID string) (*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, o := range m.orders {
		if o.TrackingID == trackingID {
			order := o
			return &order, nil
		}
	}
	return nil, nil
}

// ListOrdersByCustomer returns the orders placed with email, newest first
func (m *Memory) ListOrdersByCustomer(_ context.Context, email string) ([]models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	orders := []models.Order{}
	for _, o := range m.orders {
		if o.UserEmail == email {
			orders = append(orders, o)
		}
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orderTime(orders[i]).After(orderTime(orders[j]))
	})
	return orders, nil
}

// GetCoupon returns the coupon stored under code, or nil
func (m *Memory) GetCoupon(_ context.Context, code string) (*models.Coupon, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.coupons[code]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// GetFavorites returns the favorites stored on the customer profile
func (m *Memory) GetFavorites(_ context.Context, uid string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]string{}, m.favorites[uid]...), nil
}

// SetFavorites replaces the favorites field of the customer profile
func (m *Memory) SetFavorites(_ context.Context, uid string, favorites []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.favorites[uid] = append([]string{}, favorites...)
	return nil
}

func orderTime(o models.Order) time.Time {
	if o.CreatedAt == nil {
		return time.Time{}
	}
	return *o.CreatedAt
}

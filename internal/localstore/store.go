package localstore

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"storefront/internal/util"

	"go.uber.org/zap"
)

// Record names
const (
	RecordCart         = "cart"
	RecordFavorites    = "favorites"
	RecordDiscount     = "discount_percent"
	RecordCheckoutType = "checkout_type"
)

const keyPrefix = "storefront"

// Store reads and writes the persisted records of one session
type Store struct {
	kv        KV
	sessionID string
	logger    *zap.Logger
}

// New creates a store scoped to sessionID
func New(kv KV, sessionID string) *Store {
	return &Store{
		kv:        kv,
		sessionID: sessionID,
		logger:    util.SessionLogger(sessionID),
	}
}

// Key returns the backing key of a record
func Key(sessionID, record string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, sessionID, record)
}

// LoadCart returns the persisted cart. Absent or malformed records yield an empty cart.
func (s *Store) LoadCart(ctx context.Context) []string {
	var ids []string
	if !s.load(ctx, RecordCart, &ids) {
		return []string{}
	}
	cart := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			cart = append(cart, id)
		}
	}
	return cart
}

// LoadFavorites returns the persisted favorites with duplicates removed, first occurrence kept
func (s *Store) LoadFavorites(ctx context.Context) []string {
	var ids []string
	if !s.load(ctx, RecordFavorites, &ids) {
		return []string{}
	}
	seen := make(map[string]struct{}, len(ids))
	favs := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		favs = append(favs, id)
	}
	return favs
}

// LoadDiscount returns the persisted discount percentage, or 0 when absent, malformed or out of range
func (s *Store) LoadDiscount(ctx context.Context) int {
	var pct float64
	if !s.load(ctx, RecordDiscount, &pct) {
		return 0
	}
	if pct < 0 || pct > 100 || pct != math.Trunc(pct) {
		s.logger.Warn("Ignoring out of range discount", zap.Float64("percent", pct))
		return 0
	}
	return int(pct)
}

// CheckoutType returns the checkout marker, or "" when unset
func (s *Store) CheckoutType(ctx context.Context) string {
	var v string
	if !s.load(ctx, RecordCheckoutType, &v) {
		return ""
	}
	return v
}

// SaveCart replaces the cart record
func (s *Store) SaveCart(ctx context.Context, cart []string) error {
	if cart == nil {
		cart = []string{}
	}
	return s.save(ctx, RecordCart, cart)
}

// SaveFavorites replaces the favorites record
func (s *Store) SaveFavorites(ctx context.Context, favorites []string) error {
	if favorites == nil {
		favorites = []string{}
	}
	return s.save(ctx, RecordFavorites, favorites)
}

// SaveDiscount replaces the discount record
func (s *Store) SaveDiscount(ctx context.Context, percent int) error {
	return s.save(ctx, RecordDiscount, percent)
}

// SetCheckoutType writes the checkout marker read by the checkout page
func (s *Store) SetCheckoutType(ctx context.Context, checkoutType string) error {
	return s.save(ctx, RecordCheckoutType, checkoutType)
}

func (s *Store) load(ctx context.Context, record string, dst interface{}) bool {
	raw, ok, err := s.kv.Get(ctx, Key(s.sessionID, record))
	if err != nil {
		s.logger.Warn("Failed to read record", zap.String("record", record), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		s.logger.Warn("Discarding malformed record", zap.String("record", record), zap.Error(err))
		return false
	}
	return true
}

func (s *Store) save(ctx context.Context, record string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", record, err)
	}
	if err := s.kv.Set(ctx, Key(s.sessionID, record), string(data)); err != nil {
		util.LocalPersistFailuresTotal.WithLabelValues(record).Inc()
		return fmt.Errorf("failed to save %s: %w", record, err)
	}
	return nil
}

package firestoredb

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/models"
	"storefront/internal/remote"
	"storefront/internal/util"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	colProducts  = "products"
	colOrders    = "orders"
	colCoupons   = "coupons"
	colCustomers = "customers"
)

// Store serves catalog, order, coupon and customer-profile reads from Firestore
type Store struct {
	cw *ClientWrapper
}

// NewStore creates a Firestore backed store
func NewStore(cw *ClientWrapper) *Store {
	return &Store{cw: cw}
}

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	return s.cw.Ping(ctx)
}

// ListProducts returns every product ordered by creation time, newest first
func (s *Store) ListProducts(ctx context.Context) ([]models.Product, error) {
	ctx, span := util.StartSpan(ctx, "Firestore.ListProducts")
	defer span.End()

	it := s.cw.Client.Collection(colProducts).OrderBy("timestamp", firestore.Desc).Documents(ctx)
	defer it.Stop()

	products := []models.Product{}
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, classify("list products", err)
		}
		products = append(products, productFromDoc(snap.Ref.ID, snap.Data()))
	}
	return products, nil
}

// FindOrderByTrackingID returns the first order whose trackingId equals trackingID, or nil
func (s *Store) FindOrderByTrackingID(ctx context.Context, trackingID string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "Firestore.FindOrderByTrackingID")
	defer span.End()

	it := s.cw.Client.Collection(colOrders).Where("trackingId", "==", trackingID).Limit(1).Documents(ctx)
	defer it.Stop()

	snap, err := it.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, classify("find order", err)
	}
	o := orderFromDoc(snap.Ref.ID, snap.Data())
	return &o, nil
}

// ListOrdersByCustomer returns the orders placed with email, newest first
func (s *Store) ListOrdersByCustomer(ctx context.Context, email string) ([]models.Order, error) {
	ctx, span := util.StartSpan(ctx, "Firestore.ListOrdersByCustomer")
	defer span.End()

	it := s.cw.Client.Collection(colOrders).
		Where("userEmail", "==", email).
		OrderBy("timestamp", firestore.Desc).
		Documents(ctx)
	defer it.Stop()

	orders := []models.Order{}
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, classify("list orders", err)
		}
		orders = append(orders, orderFromDoc(snap.Ref.ID, snap.Data()))
	}
	return orders, nil
}

// GetCoupon reads coupons/<code>. A missing document returns nil.
func (s *Store) GetCoupon(ctx context.Context, code string) (*models.Coupon, error) {
	ctx, span := util.StartSpan(ctx, "Firestore.GetCoupon")
	defer span.End()

	if code == "" || strings.Contains(code, "/") {
		return nil, nil
	}

	snap, err := s.cw.Client.Collection(colCoupons).Doc(code).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, classify("get coupon", err)
	}
	return &models.Coupon{Code: code, Percent: int(asInt64(snap.Data()["percent"]))}, nil
}

// GetFavorites reads the favorites field of customers/<uid>
func (s *Store) GetFavorites(ctx context.Context, uid string) ([]string, error) {
	ctx, span := util.StartSpan(ctx, "Firestore.GetFavorites")
	defer span.End()

	snap, err := s.cw.Client.Collection(colCustomers).Doc(uid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return []string{}, nil
		}
		return nil, classify("get favorites", err)
	}
	return asStringSlice(snap.Data()["favorites"]), nil
}

// SetFavorites merges the favorites field into customers/<uid> without touching other fields
func (s *Store) SetFavorites(ctx context.Context, uid string, favorites []string) error {
	ctx, span := util.StartSpan(ctx, "Firestore.SetFavorites")
	defer span.End()

	if favorites == nil {
		favorites = []string{}
	}
	_, err := s.cw.Client.Collection(colCustomers).Doc(uid).Set(ctx, map[string]interface{}{
		"favorites": favorites,
	}, firestore.MergeAll)
	if err != nil {
		return classify("set favorites", err)
	}
	return nil
}

func classify(op string, err error) error {
	if status.Code(err) == codes.FailedPrecondition {
		return fmt.Errorf("%s: %w: %v", op, remote.ErrIndexNotReady, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

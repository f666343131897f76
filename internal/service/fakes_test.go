package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"storefront/internal/localstore"
	"storefront/internal/models"
	"storefront/internal/remote"
)

var errRemoteDown = errors.New("remote unavailable")

// fakeRemote wraps the in-memory store with failure switches and call counters
type fakeRemote struct {
	*remote.Memory

	mu          sync.Mutex
	listErr     error
	ordersErr   error
	couponErr   error
	getFavErr   error
	setFavErr   error
	listCalls   int
	findCalls   int
	setFavCalls [][]string
	getFavGate  chan struct{}
	listGate    chan struct{}
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{Memory: remote.NewMemory()}
}

func (f *fakeRemote) ListProducts(ctx context.Context) ([]models.Product, error) {
	f.mu.Lock()
	f.listCalls++
	gate, err := f.listGate, f.listErr
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return f.Memory.ListProducts(ctx)
}

func (f *fakeRemote) FindOrderByTrackingID(ctx context.Context, id string) (*models.Order, error) {
	f.mu.Lock()
	f.findCalls++
	err := f.ordersErr
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return f.Memory.FindOrderByTrackingID(ctx, id)
}

func (f *fakeRemote) ListOrdersByCustomer(ctx context.Context, email string) ([]models.Order, error) {
	f.mu.Lock()
	err := f.ordersErr
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return f.Memory.ListOrdersByCustomer(ctx, email)
}

func (f *fakeRemote) GetCoupon(ctx context.Context, code string) (*models.Coupon, error) {
	f.mu.Lock()
	err := f.couponErr
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return f.Memory.GetCoupon(ctx, code)
}

func (f *fakeRemote) GetFavorites(ctx context.Context, uid string) ([]string, error) {
	f.mu.Lock()
	gate, err := f.getFavGate, f.getFavErr
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return f.Memory.GetFavorites(ctx, uid)
}

func (f *fakeRemote) SetFavorites(ctx context.Context, uid string, favorites []string) error {
	f.mu.Lock()
	f.setFavCalls = append(f.setFavCalls, append([]string{}, favorites...))
	err := f.setFavErr
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.Memory.SetFavorites(ctx, uid, favorites)
}

func (f *fakeRemote) findCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.findCalls
}

func (f *fakeRemote) setFavCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.setFavCalls)
}

// fakePublisher records published events
type fakePublisher struct {
	mu        sync.Mutex
	checkouts []*models.CheckoutStartedEvent
	merges    []*models.FavoritesMergedEvent
	err       error
}

func (p *fakePublisher) PublishCheckoutStarted(_ context.Context, e *models.CheckoutStartedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checkouts = append(p.checkouts, e)
	return p.err
}

func (p *fakePublisher) PublishFavoritesMerged(_ context.Context, e *models.FavoritesMergedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.merges = append(p.merges, e)
	return p.err
}

func (p *fakePublisher) checkoutCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.checkouts)
}

func (p *fakePublisher) mergeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.merges)
}

// fakeIdentities accepts tokens registered in ids
type fakeIdentities struct {
	ids map[string]*models.Identity
}

func (f fakeIdentities) Verify(_ context.Context, token string) (*models.Identity, error) {
	if id, ok := f.ids[token]; ok {
		return id, nil
	}
	return nil, errors.New("popup closed by user")
}

// failingKV rejects every write
type failingKV struct {
	*localstore.MemoryKV
}

func (failingKV) Set(context.Context, string, string) error {
	return errors.New("redis down")
}

func testCatalog() []models.Product {
	now := time.Now()
	return []models.Product{
		{ID: "A", Name: "Pashmina Shawl", Price: 100, Category: "Shawls", SubCategory: "Winter", CreatedAt: now},
		{ID: "B", Name: "Walnut Box", Price: 250, Category: "Woodwork", SubCategory: "Boxes", CreatedAt: now.Add(-time.Minute)},
		{ID: "C", Name: "Saffron", Price: 650, Category: "Spices", SoldOut: true, CreatedAt: now.Add(-2 * time.Minute)},
	}
}

func newTestReconciler(kv localstore.KV, profile FavoritesProfile) *Reconciler {
	r := NewReconciler(localstore.New(kv, "test-session"), profile, nil)
	r.Initialize(context.Background())
	return r
}

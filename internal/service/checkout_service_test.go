package service

import (
	"context"
	"testing"
	"time"

	"storefront/internal/localstore"
	"storefront/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCheckoutFixture() (*CheckoutService, *Session, *fakePublisher, *localstore.MemoryKV) {
	kv := localstore.NewMemoryKV()
	r := newTestReconciler(kv, nil)
	r.ReconcileAgainstCatalog(context.Background(), testCatalog())
	pub := &fakePublisher{}
	sess := &Session{ID: "test-session", Reconciler: r}
	return NewCheckoutService(fixedCatalog{}, pub, "/checkout.html"), sess, pub, kv
}

// fixedCatalog installs testCatalog on first use, or fails with err
type fixedCatalog struct {
	err error
}

func (c fixedCatalog) EnsureCatalog(ctx context.Context, s *Session) error {
	if c.err != nil {
		return c.err
	}
	if !s.Reconciler.CatalogLoaded() {
		s.Reconciler.ReconcileAgainstCatalog(ctx, testCatalog())
	}
	return nil
}

func TestCheckoutEmptyCart(t *testing.T) {
	svc, sess, pub, kv := newCheckoutFixture()

	path, err := svc.Start(context.Background(), sess)

	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, path)
	_, ok, _ := kv.Get(context.Background(), localstore.Key("test-session", localstore.RecordCheckoutType))
	assert.False(t, ok)
	assert.Equal(t, 0, pub.checkoutCount())
}

func TestCheckoutHandsOffWithoutClearingCart(t *testing.T) {
	ctx := context.Background()
	svc, sess, pub, kv := newCheckoutFixture()
	sess.Reconciler.AddToCart(ctx, "A")
	sess.Reconciler.AddToCart(ctx, "A")
	sess.Reconciler.AddToCart(ctx, "B")
	sess.Reconciler.SetDiscount(ctx, 10)

	path, err := svc.Start(ctx, sess)
	require.NoError(t, err)

	assert.Equal(t, "/checkout.html", path)
	assert.Equal(t, 3, sess.Reconciler.CartCount())
	assert.Equal(t, `"cart"`, persisted(t, kv, localstore.RecordCheckoutType))

	require.Eventually(t, func() bool { return pub.checkoutCount() == 1 }, time.Second, 5*time.Millisecond)
	pub.mu.Lock()
	event := pub.checkouts[0]
	pub.mu.Unlock()
	assert.Equal(t, models.EventTypeCheckoutStarted, event.EventType)
	assert.Equal(t, "test-session", event.SessionID)
	assert.Equal(t, int64(450), event.Subtotal)
	assert.Equal(t, "405", event.Total)
	require.Len(t, event.Items, 2)
	assert.Equal(t, models.CartItemData{ProductID: "A", Quantity: 2, UnitPrice: 100}, event.Items[0])
}

func TestCheckoutPublishFailureIsNotSurfaced(t *testing.T) {
	ctx := context.Background()
	svc, sess, pub, _ := newCheckoutFixture()
	pub.err = errRemoteDown
	sess.Reconciler.AddToCart(ctx, "A")

	_, err := svc.Start(ctx, sess)
	assert.NoError(t, err)
}

func TestCheckoutRestoredSessionPricesCartFromCatalog(t *testing.T) {
	ctx := context.Background()
	kv := localstore.NewMemoryKV()
	f := newFakeRemote()
	for _, p := range testCatalog() {
		f.PutProduct(p)
	}
	id := NewSessionID()
	require.NoError(t, kv.Set(ctx, localstore.Key(id, localstore.RecordCart), `["A","A","B"]`))

	m := newTestManager(kv, f)
	sess := m.Get(ctx, id)
	require.False(t, sess.Reconciler.CatalogLoaded())

	pub := &fakePublisher{}
	path, err := NewCheckoutService(m, pub, "/checkout.html").Start(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, "/checkout.html", path)

	require.Eventually(t, func() bool { return pub.checkoutCount() == 1 }, time.Second, 5*time.Millisecond)
	pub.mu.Lock()
	event := pub.checkouts[0]
	pub.mu.Unlock()
	assert.Equal(t, int64(450), event.Subtotal)
	assert.Equal(t, "450", event.Total)
	require.Len(t, event.Items, 2)
	assert.Equal(t, models.CartItemData{ProductID: "A", Quantity: 2, UnitPrice: 100}, event.Items[0])
	assert.Equal(t, models.CartItemData{ProductID: "B", Quantity: 1, UnitPrice: 250}, event.Items[1])
}

func TestCheckoutCatalogFailure(t *testing.T) {
	ctx := context.Background()
	kv := localstore.NewMemoryKV()
	r := newTestReconciler(kv, nil)
	r.AddToCart(ctx, "A")
	pub := &fakePublisher{}
	sess := &Session{ID: "test-session", Reconciler: r}

	path, err := NewCheckoutService(fixedCatalog{err: errRemoteDown}, pub, "/checkout.html").Start(ctx, sess)

	assert.ErrorIs(t, err, ErrCatalogUnavailable)
	assert.Empty(t, path)
	_, ok, _ := kv.Get(ctx, localstore.Key("test-session", localstore.RecordCheckoutType))
	assert.False(t, ok)
	assert.Equal(t, 0, pub.checkoutCount())
}

func TestCheckoutCartPrunedToEmpty(t *testing.T) {
	ctx := context.Background()
	kv := localstore.NewMemoryKV()
	r := newTestReconciler(kv, nil)
	r.AddToCart(ctx, "GONE")
	sess := &Session{ID: "test-session", Reconciler: r}

	_, err := NewCheckoutService(fixedCatalog{}, &fakePublisher{}, "/checkout.html").Start(ctx, sess)
	assert.ErrorIs(t, err, ErrEmptyCart)
}

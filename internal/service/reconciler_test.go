package service

import (
	"context"
	"sort"
	"testing"
	"time"

	"storefront/internal/localstore"
	"storefront/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func persisted(t *testing.T, kv localstore.KV, record string) string {
	t.Helper()
	raw, ok, err := kv.Get(context.Background(), localstore.Key("test-session", record))
	require.NoError(t, err)
	require.True(t, ok, "record %s not written", record)
	return raw
}

func signIn(t *testing.T, r *Reconciler, f *fakeRemote, uid string) []string {
	t.Helper()
	ctx := context.Background()
	r.SetUser(&models.Identity{UID: uid, Email: uid + "@example.com"})
	remoteFavs, err := f.GetFavorites(ctx, uid)
	require.NoError(t, err)
	merged, applied := r.MergeRemoteFavoritesOnSignIn(ctx, uid, remoteFavs)
	require.True(t, applied)
	return merged
}

func sorted(ids []string) []string {
	out := append([]string{}, ids...)
	sort.Strings(out)
	return out
}

func TestInitializeFromStore(t *testing.T) {
	ctx := context.Background()
	kv := localstore.NewMemoryKV()
	require.NoError(t, kv.Set(ctx, localstore.Key("test-session", "cart"), `["A","A","B"]`))
	require.NoError(t, kv.Set(ctx, localstore.Key("test-session", "favorites"), `["B"]`))
	require.NoError(t, kv.Set(ctx, localstore.Key("test-session", "discount_percent"), `10`))

	r := newTestReconciler(kv, nil)

	assert.Equal(t, []string{"A", "A", "B"}, r.Cart())
	assert.Equal(t, []string{"B"}, r.Favorites())
	assert.Equal(t, 10, r.Discount())
}

func TestInitializeMalformedIsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := localstore.NewMemoryKV()
	require.NoError(t, kv.Set(ctx, localstore.Key("test-session", "cart"), `not json`))

	r := newTestReconciler(kv, nil)

	assert.Empty(t, r.Cart())
	assert.Equal(t, 0, r.CartCount())
}

func TestReconcilePrunesUnknownProducts(t *testing.T) {
	ctx := context.Background()
	kv := localstore.NewMemoryKV()
	require.NoError(t, kv.Set(ctx, localstore.Key("test-session", "cart"), `["A","GONE","B","GONE"]`))
	r := newTestReconciler(kv, nil)

	var hookCount = -1
	r.OnCountChange(func(count int) { hookCount = count })

	pruned := r.ReconcileAgainstCatalog(ctx, testCatalog())

	assert.True(t, pruned)
	assert.Equal(t, 0, r.Quantity("GONE"))
	assert.Equal(t, []string{"A", "B"}, r.Cart())
	assert.Equal(t, `["A","B"]`, persisted(t, kv, "cart"))
	assert.Equal(t, 2, hookCount)
}

func TestReconcileIsIdempotent(t *testing.T) {
	ctx := context.Background()
	kv := localstore.NewMemoryKV()
	require.NoError(t, kv.Set(ctx, localstore.Key("test-session", "cart"), `["A","GONE"]`))
	r := newTestReconciler(kv, nil)
	catalog := testCatalog()

	first := r.ReconcileAgainstCatalog(ctx, catalog)
	afterFirst := r.Cart()
	second := r.ReconcileAgainstCatalog(ctx, catalog)

	assert.True(t, first)
	assert.False(t, second)
	assert.Equal(t, afterFirst, r.Cart())
}

func TestReconcileKeepsFavoritesOfDeletedProducts(t *testing.T) {
	ctx := context.Background()
	kv := localstore.NewMemoryKV()
	require.NoError(t, kv.Set(ctx, localstore.Key("test-session", "favorites"), `["GONE","A"]`))
	r := newTestReconciler(kv, nil)

	r.ReconcileAgainstCatalog(ctx, testCatalog())

	assert.Equal(t, []string{"GONE", "A"}, r.Favorites())
}

func TestAddAndAdjust(t *testing.T) {
	ctx := context.Background()
	kv := localstore.NewMemoryKV()
	r := newTestReconciler(kv, nil)
	r.ReconcileAgainstCatalog(ctx, testCatalog())

	assert.Equal(t, 1, r.AddToCart(ctx, "A"))
	assert.Equal(t, 2, r.AddToCart(ctx, "A"))

	qty, err := r.AdjustQty(ctx, "A", 1)
	require.NoError(t, err)
	assert.Equal(t, 3, qty)

	qty, err = r.AdjustQty(ctx, "A", -1)
	require.NoError(t, err)
	assert.Equal(t, 2, qty)

	qty, err = r.AdjustQty(ctx, "B", -1)
	require.NoError(t, err)
	assert.Equal(t, 0, qty)

	_, err = r.AdjustQty(ctx, "A", 2)
	assert.ErrorIs(t, err, ErrInvalidDelta)

	assert.Equal(t, `["A","A"]`, persisted(t, kv, "cart"))
}

func TestAddThenDecrementLeavesEmptyCart(t *testing.T) {
	ctx := context.Background()
	kv := localstore.NewMemoryKV()
	r := newTestReconciler(kv, nil)
	r.ReconcileAgainstCatalog(ctx, testCatalog())

	assert.True(t, r.Totals().Total.Equal(decimal.Zero))

	r.AddToCart(ctx, "A")
	_, err := r.AdjustQty(ctx, "A", -1)
	require.NoError(t, err)

	assert.Empty(t, r.Cart())
	assert.Equal(t, "[]", persisted(t, kv, "cart"))
	assert.True(t, r.CartTotal().Equal(decimal.Zero))
}

func TestRemoveAllAndClear(t *testing.T) {
	ctx := context.Background()
	kv := localstore.NewMemoryKV()
	r := newTestReconciler(kv, nil)

	r.AddToCart(ctx, "A")
	r.AddToCart(ctx, "B")
	r.AddToCart(ctx, "A")

	r.RemoveAllOfItem(ctx, "A")
	assert.Equal(t, []string{"B"}, r.Cart())
	assert.Equal(t, `["B"]`, persisted(t, kv, "cart"))

	r.ClearCart(ctx)
	assert.Equal(t, 0, r.CartCount())
	assert.Equal(t, "[]", persisted(t, kv, "cart"))
}

func TestSubtotalAndTotal(t *testing.T) {
	ctx := context.Background()
	r := newTestReconciler(localstore.NewMemoryKV(), nil)
	r.ReconcileAgainstCatalog(ctx, testCatalog())

	r.AddToCart(ctx, "A")
	r.AddToCart(ctx, "B")
	r.AddToCart(ctx, "A")

	assert.Equal(t, int64(450), r.CartSubtotal())
	assert.True(t, r.CartTotal().Equal(decimal.NewFromInt(450)))

	r.SetDiscount(ctx, 10)

	totals := r.Totals()
	assert.Equal(t, int64(450), totals.Subtotal)
	assert.True(t, totals.DiscountAmount.Equal(decimal.NewFromInt(45)))
	assert.True(t, r.CartTotal().Equal(decimal.NewFromInt(405)), r.CartTotal().String())
}

func TestCartLinesGroupByProduct(t *testing.T) {
	ctx := context.Background()
	r := newTestReconciler(localstore.NewMemoryKV(), nil)
	r.ReconcileAgainstCatalog(ctx, testCatalog())

	r.AddToCart(ctx, "B")
	r.AddToCart(ctx, "A")
	r.AddToCart(ctx, "B")

	lines := r.CartLines()
	require.Len(t, lines, 2)
	assert.Equal(t, "B", lines[0].Product.ID)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, int64(500), lines[0].LineTotal)
	assert.Equal(t, "A", lines[1].Product.ID)

	var sum int64
	for _, l := range lines {
		sum += l.LineTotal
	}
	assert.Equal(t, r.CartSubtotal(), sum)
}

func TestToggleFavoriteInvolution(t *testing.T) {
	ctx := context.Background()
	kv := localstore.NewMemoryKV()
	r := newTestReconciler(kv, nil)
	r.ToggleFavorite(ctx, "B")
	before := r.Favorites()

	assert.True(t, r.ToggleFavorite(ctx, "A"))
	assert.True(t, r.IsFavorite("A"))
	assert.False(t, r.ToggleFavorite(ctx, "A"))

	assert.Equal(t, before, r.Favorites())
	assert.Equal(t, `["B"]`, persisted(t, kv, "favorites"))
}

func TestAnonymousToggleNeverWritesRemote(t *testing.T) {
	f := newFakeRemote()
	r := newTestReconciler(localstore.NewMemoryKV(), f)

	r.ToggleFavorite(context.Background(), "A")
	require.NoError(t, r.Sync(context.Background()))

	assert.Equal(t, 0, f.setFavCount())
}

func TestMergeIsUnionAndRemoteMatches(t *testing.T) {
	ctx := context.Background()
	kv := localstore.NewMemoryKV()
	f := newFakeRemote()
	require.NoError(t, f.Memory.SetFavorites(ctx, "uid-1", []string{"B", "C"}))

	r := newTestReconciler(kv, f)
	r.ToggleFavorite(ctx, "A")
	r.ToggleFavorite(ctx, "B")

	merged := signIn(t, r, f, "uid-1")
	require.NoError(t, r.Sync(ctx))

	assert.Equal(t, []string{"A", "B", "C"}, sorted(merged))
	assert.Equal(t, []string{"A", "B", "C"}, sorted(r.Favorites()))
	assert.Equal(t, `["A","B","C"]`, persisted(t, kv, "favorites"))

	remoteFavs, err := f.Memory.GetFavorites(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, r.Favorites(), remoteFavs)
}

func TestMergeRunsOncePerUser(t *testing.T) {
	ctx := context.Background()
	f := newFakeRemote()
	r := newTestReconciler(localstore.NewMemoryKV(), f)

	signIn(t, r, f, "uid-1")
	require.NoError(t, r.Sync(ctx))
	writes := f.setFavCount()

	_, applied := r.MergeRemoteFavoritesOnSignIn(ctx, "uid-1", []string{"Z"})
	require.NoError(t, r.Sync(ctx))

	assert.False(t, applied)
	assert.NotContains(t, r.Favorites(), "Z")
	assert.Equal(t, writes, f.setFavCount())
}

func TestMergeIgnoredAfterSignOut(t *testing.T) {
	ctx := context.Background()
	f := newFakeRemote()
	r := newTestReconciler(localstore.NewMemoryKV(), f)

	r.SetUser(&models.Identity{UID: "uid-1"})
	r.ReloadFavoritesFromLocal(ctx)

	_, applied := r.MergeRemoteFavoritesOnSignIn(ctx, "uid-1", []string{"A"})
	assert.False(t, applied)
	assert.Empty(t, r.Favorites())
}

func TestTogglesDuringPendingMergeAreKept(t *testing.T) {
	ctx := context.Background()
	f := newFakeRemote()
	require.NoError(t, f.Memory.SetFavorites(ctx, "uid-1", []string{"A", "B"}))
	r := newTestReconciler(localstore.NewMemoryKV(), f)
	r.ToggleFavorite(ctx, "A")

	r.SetUser(&models.Identity{UID: "uid-1"})
	remoteFavs, err := f.Memory.GetFavorites(ctx, "uid-1")
	require.NoError(t, err)

	// issued while the remote read is in flight
	r.ToggleFavorite(ctx, "A")
	r.ToggleFavorite(ctx, "C")
	assert.Equal(t, 0, f.setFavCount())

	merged, applied := r.MergeRemoteFavoritesOnSignIn(ctx, "uid-1", remoteFavs)
	require.True(t, applied)
	require.NoError(t, r.Sync(ctx))

	assert.Equal(t, []string{"B", "C"}, sorted(merged))
	got, err := f.Memory.GetFavorites(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C"}, sorted(got))
}

func TestRemoteWritesCarryLatestFavorites(t *testing.T) {
	ctx := context.Background()
	f := newFakeRemote()
	r := newTestReconciler(localstore.NewMemoryKV(), f)
	signIn(t, r, f, "uid-1")

	for _, id := range []string{"A", "B", "C", "A"} {
		r.ToggleFavorite(ctx, id)
	}
	require.NoError(t, r.Sync(ctx))

	got, err := f.Memory.GetFavorites(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C"}, got)
	assert.LessOrEqual(t, f.setFavCount(), 5)
}

func TestAbandonedMergeDisablesRemoteWrites(t *testing.T) {
	ctx := context.Background()
	f := newFakeRemote()
	require.NoError(t, f.Memory.SetFavorites(ctx, "uid-1", []string{"B"}))
	r := newTestReconciler(localstore.NewMemoryKV(), f)

	r.SetUser(&models.Identity{UID: "uid-1"})
	r.AbandonMerge("uid-1")
	r.ToggleFavorite(ctx, "A")
	require.NoError(t, r.Sync(ctx))

	assert.Equal(t, 0, f.setFavCount())
	got, _ := f.Memory.GetFavorites(ctx, "uid-1")
	assert.Equal(t, []string{"B"}, got)
}

func TestRemoteWriteFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	f := newFakeRemote()
	r := newTestReconciler(localstore.NewMemoryKV(), f)
	signIn(t, r, f, "uid-1")
	require.NoError(t, r.Sync(ctx))

	f.mu.Lock()
	f.setFavErr = errRemoteDown
	f.mu.Unlock()

	assert.True(t, r.ToggleFavorite(ctx, "A"))
	require.NoError(t, r.Sync(ctx))
	assert.Equal(t, []string{"A"}, r.Favorites())
}

func TestSignOutReloadsLocalFavorites(t *testing.T) {
	ctx := context.Background()
	kv := localstore.NewMemoryKV()
	f := newFakeRemote()
	require.NoError(t, f.Memory.SetFavorites(ctx, "uid-1", []string{"B"}))
	r := newTestReconciler(kv, f)

	signIn(t, r, f, "uid-1")
	require.NoError(t, r.Sync(ctx))
	r.ReloadFavoritesFromLocal(ctx)

	assert.Nil(t, r.User())
	assert.Equal(t, []string{"B"}, r.Favorites())
}

func TestPersistFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	r := newTestReconciler(failingKV{localstore.NewMemoryKV()}, nil)

	assert.Equal(t, 1, r.AddToCart(ctx, "A"))
	assert.True(t, r.ToggleFavorite(ctx, "A"))

	assert.Equal(t, []string{"A"}, r.Cart())
	assert.Equal(t, []string{"A"}, r.Favorites())
}

func TestSyncHonoursContext(t *testing.T) {
	f := newFakeRemote()
	r := newTestReconciler(localstore.NewMemoryKV(), f)
	signIn(t, r, f, "uid-1")
	require.NoError(t, r.Sync(context.Background()))

	gate := make(chan struct{})
	slow := &slowProfile{fakeRemote: f, gate: gate}
	r.profile = slow
	r.ToggleFavorite(context.Background(), "A")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.Sync(ctx), context.DeadlineExceeded)

	close(gate)
	assert.NoError(t, r.Sync(context.Background()))
}

type slowProfile struct {
	*fakeRemote
	gate chan struct{}
}

func (s *slowProfile) SetFavorites(ctx context.Context, uid string, favorites []string) error {
	<-s.gate
	return s.fakeRemote.SetFavorites(ctx, uid, favorites)
}

package service

import (
	"context"
	"sync"

	"storefront/internal/localstore"
	"storefront/internal/models"
	"storefront/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CartLine is one product of the cart with its quantity
type CartLine struct {
	Product   models.Product `json:"product"`
	Quantity  int            `json:"quantity"`
	LineTotal int64          `json:"lineTotal"`
}

// CartTotals is a consistent snapshot of the cart price breakdown
type CartTotals struct {
	Subtotal       int64           `json:"subtotal"`
	Discount       int             `json:"discountPercent"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	Total          decimal.Decimal `json:"total"`
}

// Reconciler owns the cart and favorites of one session and keeps them
// consistent with the catalog, the session store and the remote profile.
//
// Every mutation is written to the session store before the call returns.
// A failed write is logged and the in-memory state stays authoritative.
// Remote favorites writes run in the background: one pusher per reconciler
// reads the current favorites right before each write and keeps going while
// newer changes arrive, so the last write always carries the full set.
type Reconciler struct {
	local   *localstore.Store
	profile FavoritesProfile
	logger  *zap.Logger

	mu        sync.Mutex
	cart      []string
	favorites []string
	catalog   []models.Product
	products  map[string]models.Product
	discount  int
	user      *models.Identity

	// mergedFor is the uid whose remote favorites were merged in. Remote
	// writes are only issued for that uid.
	mergedFor string
	// While a sign-in merge is pending, toggles record the state the
	// shopper asked for so the merge cannot undo them.
	mergePending  bool
	pendingIntent map[string]bool

	pushDirty bool
	pushDone  chan struct{}

	onCountChange func(count int)
}

// NewReconciler creates an empty reconciler. profile may be nil, which disables remote favorites.
func NewReconciler(local *localstore.Store, profile FavoritesProfile, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = util.GetLogger()
	}
	return &Reconciler{
		local:     local,
		profile:   profile,
		logger:    logger,
		cart:      []string{},
		favorites: []string{},
		products:  map[string]models.Product{},
	}
}

// OnCountChange registers a hook called with the new item count after the cart changes
func (r *Reconciler) OnCountChange(fn func(count int)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onCountChange = fn
}

// Initialize loads the cart, favorites and discount from the session store
func (r *Reconciler) Initialize(ctx context.Context) {
	cart := r.local.LoadCart(ctx)
	favorites := r.local.LoadFavorites(ctx)
	discount := r.local.LoadDiscount(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.cart = cart
	r.favorites = favorites
	r.discount = discount
}

// ReconcileAgainstCatalog installs catalog and drops every cart entry whose
// product is not in it. Returns true when entries were dropped.
func (r *Reconciler) ReconcileAgainstCatalog(ctx context.Context, catalog []models.Product) bool {
	if catalog == nil {
		catalog = []models.Product{}
	}
	products := make(map[string]models.Product, len(catalog))
	for _, p := range catalog {
		products[p.ID] = p
	}

	r.mu.Lock()
	r.catalog = catalog
	r.products = products

	kept := make([]string, 0, len(r.cart))
	for _, id := range r.cart {
		if _, ok := products[id]; ok {
			kept = append(kept, id)
		}
	}
	removed := len(r.cart) - len(kept)
	if removed == 0 {
		r.mu.Unlock()
		return false
	}

	r.cart = kept
	r.persistCartLocked(ctx)
	count, hook := len(r.cart), r.onCountChange
	r.mu.Unlock()

	r.logger.Info("Pruned cart against catalog", zap.Int("removed", removed))
	util.CartEntriesPrunedTotal.Add(float64(removed))
	if hook != nil {
		hook(count)
	}
	return true
}

// AddToCart appends one occurrence of id and returns its new quantity
func (r *Reconciler) AddToCart(ctx context.Context, id string) int {
	r.mu.Lock()
	r.cart = append(r.cart, id)
	r.persistCartLocked(ctx)
	qty := r.quantityLocked(id)
	count, hook := len(r.cart), r.onCountChange
	r.mu.Unlock()

	util.CartMutationsTotal.WithLabelValues("add").Inc()
	if hook != nil {
		hook(count)
	}
	return qty
}

// AdjustQty adds (+1) or removes (-1) one occurrence of id and returns its new quantity.
// Removing an id that is not in the cart changes nothing.
func (r *Reconciler) AdjustQty(ctx context.Context, id string, delta int) (int, error) {
	switch delta {
	case 1:
		return r.AddToCart(ctx, id), nil
	case -1:
	default:
		return 0, ErrInvalidDelta
	}

	r.mu.Lock()
	idx := indexOf(r.cart, id)
	if idx < 0 {
		r.mu.Unlock()
		return 0, nil
	}
	r.cart = append(r.cart[:idx], r.cart[idx+1:]...)
	r.persistCartLocked(ctx)
	qty := r.quantityLocked(id)
	count, hook := len(r.cart), r.onCountChange
	r.mu.Unlock()

	util.CartMutationsTotal.WithLabelValues("decrement").Inc()
	if hook != nil {
		hook(count)
	}
	return qty, nil
}

// RemoveAllOfItem drops every occurrence of id
func (r *Reconciler) RemoveAllOfItem(ctx context.Context, id string) {
	r.mu.Lock()
	kept := make([]string, 0, len(r.cart))
	for _, c := range r.cart {
		if c != id {
			kept = append(kept, c)
		}
	}
	r.cart = kept
	r.persistCartLocked(ctx)
	count, hook := len(r.cart), r.onCountChange
	r.mu.Unlock()

	util.CartMutationsTotal.WithLabelValues("remove").Inc()
	if hook != nil {
		hook(count)
	}
}

// ClearCart empties the cart
func (r *Reconciler) ClearCart(ctx context.Context) {
	r.mu.Lock()
	r.cart = []string{}
	r.persistCartLocked(ctx)
	hook := r.onCountChange
	r.mu.Unlock()

	util.CartMutationsTotal.WithLabelValues("clear").Inc()
	if hook != nil {
		hook(0)
	}
}

// ToggleFavorite adds id to the favorites if absent, removes it otherwise, and
// reports whether it is now a favorite. Signed-in sessions push the new set in the background.
func (r *Reconciler) ToggleFavorite(ctx context.Context, id string) bool {
	r.mu.Lock()
	idx := indexOf(r.favorites, id)
	if idx >= 0 {
		r.favorites = append(r.favorites[:idx], r.favorites[idx+1:]...)
	} else {
		r.favorites = append(r.favorites, id)
	}
	now := idx < 0
	r.persistFavoritesLocked(ctx)
	if r.mergePending {
		r.pendingIntent[id] = now
	}
	r.schedulePushLocked()
	r.mu.Unlock()

	action := "removed"
	if now {
		action = "added"
	}
	util.FavoriteTogglesTotal.WithLabelValues(action).Inc()
	return now
}

// SetUser records the signed-in identity. A new uid opens a merge window;
// nil clears the identity.
func (r *Reconciler) SetUser(identity *models.Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if identity == nil {
		r.clearUserLocked()
		return
	}

	id := *identity
	if r.user != nil && r.user.UID == id.UID {
		r.user = &id
		return
	}
	r.user = &id
	r.mergedFor = ""
	r.mergePending = true
	r.pendingIntent = map[string]bool{}
}

// User returns the signed-in identity, or nil
func (r *Reconciler) User() *models.Identity {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.user == nil {
		return nil
	}
	id := *r.user
	return &id
}

// MergeRemoteFavoritesOnSignIn sets favorites to the union of the current local
// favorites and remote, persists it and writes it back to the profile of uid.
// It runs at most once per signed-in uid; later calls return the current set and false.
func (r *Reconciler) MergeRemoteFavoritesOnSignIn(ctx context.Context, uid string, remote []string) ([]string, bool) {
	r.mu.Lock()
	if r.user == nil || r.user.UID != uid || r.mergedFor == uid {
		out := append([]string{}, r.favorites...)
		r.mu.Unlock()
		util.FavoritesMergesTotal.WithLabelValues("skipped").Inc()
		return out, false
	}

	merged := union(r.favorites, remote)
	for id, want := range r.pendingIntent {
		if !want {
			if idx := indexOf(merged, id); idx >= 0 {
				merged = append(merged[:idx], merged[idx+1:]...)
			}
		}
	}

	r.favorites = merged
	r.persistFavoritesLocked(ctx)
	r.mergedFor = uid
	r.mergePending = false
	r.pendingIntent = nil
	r.schedulePushLocked()
	out := append([]string{}, r.favorites...)
	r.mu.Unlock()

	util.FavoritesMergesTotal.WithLabelValues("merged").Inc()
	return out, true
}

// AbandonMerge closes the merge window of uid without merging. Remote writes
// stay disabled for uid so its profile is never overwritten with a partial set.
func (r *Reconciler) AbandonMerge(uid string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.user != nil && r.user.UID == uid && r.mergedFor != uid {
		r.mergePending = false
		r.pendingIntent = nil
		util.FavoritesMergesTotal.WithLabelValues("abandoned").Inc()
	}
}

// ReloadFavoritesFromLocal clears the identity and reloads favorites from the session store only
func (r *Reconciler) ReloadFavoritesFromLocal(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearUserLocked()
	r.favorites = r.local.LoadFavorites(ctx)
}

// SetDiscount replaces the applied discount percentage, clamped to [0, 100]
func (r *Reconciler) SetDiscount(ctx context.Context, percent int) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.discount = percent
	if err := r.local.SaveDiscount(context.WithoutCancel(ctx), percent); err != nil {
		r.logger.Warn("Failed to persist discount", zap.Error(err))
	}
}

// Discount returns the applied discount percentage
func (r *Reconciler) Discount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.discount
}

// MarkCheckout writes the checkout marker read by the checkout page
func (r *Reconciler) MarkCheckout(ctx context.Context, checkoutType string) error {
	return r.local.SetCheckoutType(context.WithoutCancel(ctx), checkoutType)
}

// Quantity returns how many times id is in the cart
func (r *Reconciler) Quantity(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.quantityLocked(id)
}

// CartCount returns the number of items in the cart
func (r *Reconciler) CartCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cart)
}

// Cart returns a copy of the cart entries
func (r *Reconciler) Cart() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.cart...)
}

// Favorites returns a copy of the favorites
func (r *Reconciler) Favorites() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.favorites...)
}

// IsFavorite reports whether id is a favorite
func (r *Reconciler) IsFavorite(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return indexOf(r.favorites, id) >= 0
}

// Catalog returns the installed catalog. Callers must not modify it.
func (r *Reconciler) Catalog() []models.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.catalog
}

// Product looks up id in the installed catalog
func (r *Reconciler) Product(id string) (models.Product, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	return p, ok
}

// CatalogLoaded reports whether a catalog was installed
func (r *Reconciler) CatalogLoaded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.catalog != nil
}

// CartLines groups the cart by product in first-added order. Entries without a catalog product are skipped.
func (r *Reconciler) CartLines() []CartLine {
	r.mu.Lock()
	defer r.mu.Unlock()

	lines := []CartLine{}
	pos := map[string]int{}
	for _, id := range r.cart {
		p, ok := r.products[id]
		if !ok {
			continue
		}
		if i, seen := pos[id]; seen {
			lines[i].Quantity++
			lines[i].LineTotal += p.Price
			continue
		}
		pos[id] = len(lines)
		lines = append(lines, CartLine{Product: p, Quantity: 1, LineTotal: p.Price})
	}
	return lines
}

// CartSubtotal sums the price of every cart entry
func (r *Reconciler) CartSubtotal() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.subtotalLocked()
}

// CartTotal is the subtotal minus the applied discount
func (r *Reconciler) CartTotal() decimal.Decimal {
	return r.Totals().Total
}

// Totals returns subtotal, discount and total computed from one snapshot
func (r *Reconciler) Totals() CartTotals {
	r.mu.Lock()
	subtotal, discount := r.subtotalLocked(), r.discount
	r.mu.Unlock()

	s := decimal.NewFromInt(subtotal)
	off := s.Mul(decimal.NewFromInt(int64(discount))).Div(decimal.NewFromInt(100))
	return CartTotals{
		Subtotal:       subtotal,
		Discount:       discount,
		DiscountAmount: off,
		Total:          s.Sub(off),
	}
}

// Sync waits until no remote favorites write is in flight or ctx is done
func (r *Reconciler) Sync(ctx context.Context) error {
	for {
		r.mu.Lock()
		done := r.pushDone
		r.mu.Unlock()
		if done == nil {
			return nil
		}
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (r *Reconciler) schedulePushLocked() {
	if r.profile == nil || r.user == nil || r.mergedFor != r.user.UID {
		return
	}
	r.pushDirty = true
	if r.pushDone != nil {
		return
	}
	done := make(chan struct{})
	r.pushDone = done
	go r.pushFavorites(done)
}

// pushFavorites writes the current favorites until no new change is pending.
// Remote writes carry no timeout.
func (r *Reconciler) pushFavorites(done chan struct{}) {
	defer close(done)

	for {
		r.mu.Lock()
		if !r.pushDirty || r.user == nil || r.mergedFor != r.user.UID {
			r.pushDirty = false
			r.pushDone = nil
			r.mu.Unlock()
			return
		}
		r.pushDirty = false
		uid := r.user.UID
		favorites := append([]string{}, r.favorites...)
		r.mu.Unlock()

		ctx, span := util.StartSpan(context.Background(), "Reconciler.PushFavorites")
		err := r.profile.SetFavorites(ctx, uid, favorites)
		span.End()
		if err != nil {
			r.logger.Error("Failed to sync favorites", zap.String("uid", uid), zap.Error(err))
			util.FavoritesSyncTotal.WithLabelValues("failed").Inc()
			continue
		}
		util.FavoritesSyncTotal.WithLabelValues("ok").Inc()
	}
}

func (r *Reconciler) clearUserLocked() {
	r.user = nil
	r.mergedFor = ""
	r.mergePending = false
	r.pendingIntent = nil
}

func (r *Reconciler) persistCartLocked(ctx context.Context) {
	if err := r.local.SaveCart(context.WithoutCancel(ctx), r.cart); err != nil {
		r.logger.Warn("Failed to persist cart", zap.Error(err))
	}
}

func (r *Reconciler) persistFavoritesLocked(ctx context.Context) {
	if err := r.local.SaveFavorites(context.WithoutCancel(ctx), r.favorites); err != nil {
		r.logger.Warn("Failed to persist favorites", zap.Error(err))
	}
}

func (r *Reconciler) quantityLocked(id string) int {
	n := 0
	for _, c := range r.cart {
		if c == id {
			n++
		}
	}
	return n
}

func (r *Reconciler) subtotalLocked() int64 {
	var sum int64
	for _, id := range r.cart {
		if p, ok := r.products[id]; ok {
			sum += p.Price
		}
	}
	return sum
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

// union keeps the order of a, then appends the members of b not already present
func union(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, id := range list {
			if id == "" {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

package render

import (
	"fmt"
	"net/url"

	"storefront/internal/models"
	"storefront/internal/service"
)

// Action is the single control shown on a product card
type Action string

const (
	ActionAdd     Action = "add"
	ActionStepper Action = "stepper"
	ActionSoldOut Action = "sold_out"
)

// Placeholders
const (
	PlaceholderEmptyCatalog  = "No products found."
	PlaceholderEmptySearch   = "No products match your search."
	PlaceholderEmptyWishlist = "Your favourites list is empty."
	PlaceholderEmptyBag      = "Your bag is empty."
	PlaceholderLoadError     = "Could not load products. Please try again."
	PlaceholderIndexing      = "System Indexing... Check back in 5 mins."
	PlaceholderOrdersFailed  = "Could not load your orders. Please try again."
	PlaceholderNoOrders      = "No orders linked to %s"
	HintGuestOrders          = "If you placed an order as Guest, use the Track tab."
)

// Collection titles
const (
	TitleCollection    = "Current Collection"
	TitleSearchResults = "Search Results"
	titleResultsFor    = "Results for %q"
)

// Order status tones
const (
	TonePending   = "pending"
	ToneShipped   = "shipped"
	ToneDelivered = "delivered"
)

const dateLayout = "2 Jan 2006"

// Snapshot is the cart and favorites state a view is projected from
type Snapshot struct {
	Quantities map[string]int
	Favorites  map[string]bool
}

// SnapshotOf captures the state of r
func SnapshotOf(r *service.Reconciler) Snapshot {
	s := Snapshot{Quantities: map[string]int{}, Favorites: map[string]bool{}}
	for _, id := range r.Cart() {
		s.Quantities[id]++
	}
	for _, id := range r.Favorites() {
		s.Favorites[id] = true
	}
	return s
}

// Card is one product tile
type Card struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Image    string `json:"image"`
	Price    string `json:"price"`
	URL      string `json:"url"`
	Sale     bool   `json:"sale"`
	SoldOut  bool   `json:"soldOut"`
	Favorite bool   `json:"favorite"`
	Action   Action `json:"action"`
	Quantity int    `json:"quantity"`
}

// GridOptions describes why a grid is being drawn
type GridOptions struct {
	Query     string
	Instant   bool
	LoadError bool
}

// GridView is the product grid
type GridView struct {
	Title       string `json:"title"`
	Cards       []Card `json:"cards"`
	Placeholder string `json:"placeholder,omitempty"`
}

// Grid projects products onto cards
func Grid(products []models.Product, snap Snapshot, opts GridOptions, f *Formatter) GridView {
	v := GridView{Title: gridTitle(opts), Cards: []Card{}}

	switch {
	case opts.LoadError:
		v.Placeholder = PlaceholderLoadError
		return v
	case len(products) == 0 && opts.Query != "":
		v.Placeholder = PlaceholderEmptySearch
		return v
	case len(products) == 0:
		v.Placeholder = PlaceholderEmptyCatalog
		return v
	}

	for _, p := range products {
		v.Cards = append(v.Cards, card(p, snap, f))
	}
	return v
}

func gridTitle(opts GridOptions) string {
	switch {
	case opts.Query == "":
		return TitleCollection
	case opts.Instant:
		return TitleSearchResults
	default:
		return fmt.Sprintf(titleResultsFor, opts.Query)
	}
}

func card(p models.Product, snap Snapshot, f *Formatter) Card {
	c := Card{
		ID:       p.ID,
		Name:     p.Name,
		Image:    p.DisplayImage(),
		Price:    f.Price(p.Price),
		URL:      ProductURL(p.ID),
		Sale:     p.Sale,
		SoldOut:  p.SoldOut,
		Favorite: snap.Favorites[p.ID],
		Quantity: snap.Quantities[p.ID],
	}
	switch {
	case p.SoldOut:
		c.Action = ActionSoldOut
	case c.Quantity > 0:
		c.Action = ActionStepper
	default:
		c.Action = ActionAdd
	}
	return c
}

// ProductURL links to the product page
func ProductURL(id string) string {
	return "/product.html?id=" + url.QueryEscape(id)
}

// CartLineView is one grouped line of the cart drawer
type CartLineView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Image     string `json:"image"`
	UnitPrice string `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
	LineTotal string `json:"lineTotal"`
}

// CartView is the cart drawer
type CartView struct {
	Lines           []CartLineView `json:"lines"`
	Placeholder     string         `json:"placeholder,omitempty"`
	Count           int            `json:"count"`
	Subtotal        string         `json:"subtotal"`
	ShowDiscount    bool           `json:"showDiscount"`
	DiscountPercent int            `json:"discountPercent"`
	DiscountAmount  string         `json:"discountAmount,omitempty"`
	Total           string         `json:"total"`
}

// CartDrawer projects grouped cart lines and totals
func CartDrawer(lines []service.CartLine, count int, totals service.CartTotals, f *Formatter) CartView {
	v := CartView{
		Lines:           []CartLineView{},
		Count:           count,
		Subtotal:        f.Price(totals.Subtotal),
		DiscountPercent: totals.Discount,
		Total:           f.Amount(totals.Total),
	}
	if totals.Discount > 0 {
		v.ShowDiscount = true
		v.DiscountAmount = "-" + f.Amount(totals.DiscountAmount)
	}
	if len(lines) == 0 {
		v.Placeholder = PlaceholderEmptyBag
		return v
	}
	for _, l := range lines {
		v.Lines = append(v.Lines, CartLineView{
			ID:        l.Product.ID,
			Name:      l.Product.Name,
			Image:     l.Product.DisplayImage(),
			UnitPrice: f.Price(l.Product.Price),
			Quantity:  l.Quantity,
			LineTotal: f.Price(l.LineTotal),
		})
	}
	return v
}

// WishItem is one favorite in the wishlist
type WishItem struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
	Price string `json:"price"`
	URL   string `json:"url"`
}

// WishlistView is the favorites tab
type WishlistView struct {
	Items       []WishItem `json:"items"`
	Placeholder string     `json:"placeholder,omitempty"`
}

// Wishlist projects favorites that still exist in the catalog, in favorites order
func Wishlist(favorites []string, lookup func(id string) (models.Product, bool), f *Formatter) WishlistView {
	v := WishlistView{Items: []WishItem{}}
	for _, id := range favorites {
		p, ok := lookup(id)
		if !ok {
			continue
		}
		v.Items = append(v.Items, WishItem{
			ID:    p.ID,
			Name:  p.Name,
			Image: p.DisplayImage(),
			Price: f.Price(p.Price),
			URL:   ProductURL(p.ID),
		})
	}
	if len(v.Items) == 0 {
		v.Placeholder = PlaceholderEmptyWishlist
	}
	return v
}

// OrderView is one order of the history tab
type OrderView struct {
	TrackingID string `json:"trackingId"`
	Status     string `json:"status"`
	Tone       string `json:"tone"`
	Product    string `json:"product"`
	Date       string `json:"date"`
	Price      string `json:"price"`
}

// OrderHistoryView is the order history tab
type OrderHistoryView struct {
	Orders      []OrderView `json:"orders"`
	Placeholder string      `json:"placeholder,omitempty"`
	Hint        string      `json:"hint,omitempty"`
}

// OrderHistory projects an order history fetch
func OrderHistory(h service.OrderHistory, f *Formatter) OrderHistoryView {
	v := OrderHistoryView{Orders: []OrderView{}}

	switch {
	case h.IndexNotReady:
		v.Placeholder = PlaceholderIndexing
		return v
	case h.Failed:
		v.Placeholder = PlaceholderOrdersFailed
		return v
	case len(h.Orders) == 0:
		v.Placeholder = fmt.Sprintf(PlaceholderNoOrders, h.Email)
		v.Hint = HintGuestOrders
		return v
	}

	for _, o := range h.Orders {
		date := "N/A"
		if o.CreatedAt != nil {
			date = o.CreatedAt.Format(dateLayout)
		}
		v.Orders = append(v.Orders, OrderView{
			TrackingID: o.DisplayTrackingID(),
			Status:     o.Status,
			Tone:       StatusTone(o.Status),
			Product:    o.Product,
			Date:       date,
			Price:      f.Price(o.Price),
		})
	}
	return v
}

// StatusTone maps an order status to its display treatment. Unknown statuses look pending.
func StatusTone(status string) string {
	switch status {
	case models.OrderStatusShipped:
		return ToneShipped
	case models.OrderStatusDelivered:
		return ToneDelivered
	default:
		return TonePending
	}
}

// BadgeView is the cart count badge
type BadgeView struct {
	Count int `json:"count"`
}

// CartBadge projects the cart item count
func CartBadge(count int) BadgeView {
	return BadgeView{Count: count}
}

package api

import (
	"errors"
	"net/http"
	"strings"

	"storefront/internal/models"
	"storefront/internal/render"
	"storefront/internal/service"
	"storefront/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type addToCartRequest struct {
	ProductID string `json:"productId" binding:"required"`
}

type adjustQtyRequest struct {
	Delta int `json:"delta" binding:"required"`
}

type couponRequest struct {
	Code string `json:"code"`
}

// grid fetches the catalog for sess and projects it. A failed fetch yields the load-error grid.
func (h *Handler) grid(c *gin.Context, sess *service.Session, q string, instant bool) (render.GridView, error) {
	products, err := h.Sessions.LoadCatalog(c.Request.Context(), sess)
	if err != nil {
		util.SessionLogger(sess.ID).Error("Failed to load catalog", zap.Error(err))
		return render.Grid(nil, render.Snapshot{}, render.GridOptions{Query: q, Instant: instant, LoadError: true}, h.Formatter), err
	}

	if instant {
		products = service.InstantSearch(products, q)
	} else {
		products = service.Filter(products, q)
	}
	opts := render.GridOptions{Query: q, Instant: instant}
	return render.Grid(products, render.SnapshotOf(sess.Reconciler), opts, h.Formatter), nil
}


// storefrontPage renders the HTML product grid
func (h *Handler) storefrontPage(c *gin.Context) {
	sess := sessionFrom(c)
	q := strings.TrimSpace(c.Query("q"))

	view, _ := h.grid(c, sess, q, false)
	user := sess.Auth.Identity()
	c.HTML(http.StatusOK, render.TemplateGrid, render.PageView{
		Grid:  view,
		Badge: render.CartBadge(sess.Reconciler.CartCount()),
		Query: q,
		User:  user,
		Admin: sess.Auth.IsAdmin(user),
	})
}

// adminPage renders the admin catalog view for the configured administrator
func (h *Handler) adminPage(c *gin.Context) {
	sess := sessionFrom(c)
	user := sess.Auth.Identity()
	if !sess.Auth.IsAdmin(user) {
		c.Redirect(http.StatusFound, "/")
		return
	}

	view, _ := h.grid(c, sess, "", false)
	c.HTML(http.StatusOK, render.TemplateAdmin, render.PageView{
		Grid:  view,
		User:  user,
		Admin: true,
	})
}

// listProducts returns the product grid, filtered by the q parameter
func (h *Handler) listProducts(c *gin.Context) {
	h.writeGrid(c, false)
}

// instantSearch returns the product grid matched as the shopper types
func (h *Handler) instantSearch(c *gin.Context) {
	h.writeGrid(c, true)
}

func (h *Handler) writeGrid(c *gin.Context, instant bool) {
	sess := sessionFrom(c)
	view, err := h.grid(c, sess, strings.TrimSpace(c.Query("q")), instant)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, view)
		return
	}
	c.JSON(http.StatusOK, view)
}

// getCart returns the cart drawer
func (h *Handler) getCart(c *gin.Context) {
	c.JSON(http.StatusOK, h.cartView(c, sessionFrom(c)))
}

// cartCount returns the cart badge
func (h *Handler) cartCount(c *gin.Context) {
	sess := sessionFrom(c)
	c.JSON(http.StatusOK, render.CartBadge(sess.Reconciler.CartCount()))
}

// addToCart adds one unit of a product
func (h *Handler) addToCart(c *gin.Context) {
	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	sess := sessionFrom(c)
	qty := sess.Reconciler.AddToCart(c.Request.Context(), req.ProductID)
	c.JSON(http.StatusOK, gin.H{
		"productId": req.ProductID,
		"quantity":  qty,
		"count":     sess.Reconciler.CartCount(),
	})
}

// adjustQty adds or removes one unit of a product
func (h *Handler) adjustQty(c *gin.Context) {
	var req adjustQtyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	sess := sessionFrom(c)
	id := c.Param("id")
	qty, err := sess.Reconciler.AdjustQty(c.Request.Context(), id, req.Delta)
	if errors.Is(err, service.ErrInvalidDelta) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"productId": id,
		"quantity":  qty,
		"count":     sess.Reconciler.CartCount(),
	})
}

// removeItem drops every unit of a product
func (h *Handler) removeItem(c *gin.Context) {
	sess := sessionFrom(c)
	sess.Reconciler.RemoveAllOfItem(c.Request.Context(), c.Param("id"))
	c.JSON(http.StatusOK, h.cartView(c, sess))
}

// clearCart empties the cart
func (h *Handler) clearCart(c *gin.Context) {
	sess := sessionFrom(c)
	sess.Reconciler.ClearCart(c.Request.Context())
	c.JSON(http.StatusOK, h.cartView(c, sess))
}

// applyCoupon resolves a coupon code into the cart discount
func (h *Handler) applyCoupon(c *gin.Context) {
	var req couponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	sess := sessionFrom(c)
	result := h.Coupons.Apply(c.Request.Context(), sess.Reconciler, req.Code)
	c.JSON(http.StatusOK, gin.H{
		"coupon": result,
		"cart":   h.cartView(c, sess),
	})
}

// startCheckout hands the cart off to the checkout page
func (h *Handler) startCheckout(c *gin.Context) {
	sess := sessionFrom(c)
	path, err := h.Checkout.Start(c.Request.Context(), sess)
	switch {
	case errors.Is(err, service.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": service.NoticeEmptyCart})
		return
	case errors.Is(err, service.ErrCatalogUnavailable):
		util.SessionLogger(sess.ID).Error("Checkout without catalog", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": render.PlaceholderLoadError})
		return
	case err != nil:
		util.SessionLogger(sess.ID).Error("Failed to start checkout", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to start checkout",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"redirect":     path,
		"checkoutType": models.CheckoutTypeCart,
	})
}

// listFavorites returns the wishlist
func (h *Handler) listFavorites(c *gin.Context) {
	sess := sessionFrom(c)
	if err := h.Sessions.EnsureCatalog(c.Request.Context(), sess); err != nil {
		util.SessionLogger(sess.ID).Error("Failed to load catalog for favorites", zap.Error(err))
	}
	c.JSON(http.StatusOK, render.Wishlist(sess.Reconciler.Favorites(), sess.Reconciler.Product, h.Formatter))
}

// toggleFavorite flips the favorite flag of a product
func (h *Handler) toggleFavorite(c *gin.Context) {
	sess := sessionFrom(c)
	id := c.Param("id")
	favorite := sess.Reconciler.ToggleFavorite(c.Request.Context(), id)
	c.JSON(http.StatusOK, gin.H{
		"productId": id,
		"favorite":  favorite,
	})
}

// cartView prices the cart of sess, installing the catalog first
func (h *Handler) cartView(c *gin.Context, sess *service.Session) render.CartView {
	if err := h.Sessions.EnsureCatalog(c.Request.Context(), sess); err != nil {
		util.SessionLogger(sess.ID).Error("Failed to load catalog for cart", zap.Error(err))
	}
	r := sess.Reconciler
	return render.CartDrawer(r.CartLines(), r.CartCount(), r.Totals(), h.Formatter)
}

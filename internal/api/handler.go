package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"storefront/internal/render"
	"storefront/internal/service"
	"storefront/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Services are the storefront services behind the HTTP API
type Services struct {
	Sessions   *service.SessionManager
	Coupons    *service.CouponService
	Checkout   *service.CheckoutService
	Assistant  *service.Assistant
	Remote     service.RemoteStore
	Identities service.IdentityProvider
	Formatter  *render.Formatter
}

// Handler contains HTTP handlers
type Handler struct {
	Services
	cookieSecure bool
}

// NewHandler creates a new HTTP handler
func NewHandler(services Services, cookieSecure bool) *Handler {
	return &Handler{
		Services:     services,
		cookieSecure: cookieSecure,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(requestLogger())
	router.SetHTMLTemplate(render.Templates())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	pages := router.Group("/", h.sessionMiddleware(), h.identityMiddleware())
	{
		pages.GET("/", h.storefrontPage)
		pages.GET("/admin", h.adminPage)
	}

	v1 := router.Group("/api/v1", h.sessionMiddleware(), h.identityMiddleware())
	{
		v1.GET("/products", h.listProducts)
		v1.GET("/search", h.instantSearch)

		v1.GET("/cart", h.getCart)
		v1.GET("/cart/count", h.cartCount)
		v1.POST("/cart/items", h.addToCart)
		v1.POST("/cart/items/:id/adjust", h.adjustQty)
		v1.DELETE("/cart/items/:id", h.removeItem)
		v1.DELETE("/cart", h.clearCart)
		v1.POST("/cart/coupon", h.applyCoupon)
		v1.POST("/checkout", h.startCheckout)

		v1.GET("/favorites", h.listFavorites)
		v1.POST("/favorites/:id/toggle", h.toggleFavorite)

		v1.GET("/auth/me", h.me)
		v1.POST("/auth/signin", h.signIn)
		v1.POST("/auth/signout", h.signOut)
		v1.GET("/account/orders", h.orderHistory)

		v1.POST("/assistant/messages", h.assistantMessage)
		v1.POST("/assistant/quick/:kind", h.assistantQuickReply)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"time":     time.Now().Unix(),
		"sessions": h.Sessions.Len(),
	})
}

// readinessCheck reports whether the remote store answers
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.Remote.Ping(ctx); err != nil {
		util.GetLogger().Warn("Readiness check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}

// requestLogger logs every request on the global logger
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		util.GetLogger().Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("session_id", c.GetString(sessionIDKey)),
		)
	}
}

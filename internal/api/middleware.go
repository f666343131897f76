package api

import (
	"net/http"
	"strings"

	"storefront/internal/service"
	"storefront/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	sessionCookie = "storefront_session"
	tokenCookie   = "storefront_token"

	sessionCookieMaxAge = 365 * 24 * 60 * 60

	sessionKey   = "session"
	sessionIDKey = "session_id"
)

// sessionMiddleware attaches the visitor session, issuing a cookie on first visit
func (h *Handler) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(sessionCookie)
		if err != nil || !service.ValidSessionID(id) {
			id = service.NewSessionID()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(sessionCookie, id, sessionCookieMaxAge, "/", "", h.cookieSecure, true)
		}

		c.Set(sessionIDKey, id)
		c.Set(sessionKey, h.Sessions.Get(c.Request.Context(), id))
		c.Next()
	}
}

// identityMiddleware verifies the request token and reports the result to the session
func (h *Handler) identityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessionFrom(c)
		ctx := c.Request.Context()

		token := requestToken(c)
		if token == "" {
			sess.Auth.Observe(ctx, nil)
			c.Next()
			return
		}

		identity, err := h.Identities.Verify(ctx, token)
		if err != nil {
			util.SessionLogger(sess.ID).Info("Dropping unverifiable token", zap.Error(err))
			h.clearToken(c)
			identity = nil
		}
		sess.Auth.Observe(ctx, identity)
		c.Next()
	}
}

// requestToken reads a bearer token, falling back to the token cookie
func requestToken(c *gin.Context) string {
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	token, _ := c.Cookie(tokenCookie)
	return token
}

func (h *Handler) setToken(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(tokenCookie, token, 0, "/", "", h.cookieSecure, true)
}

func (h *Handler) clearToken(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(tokenCookie, "", -1, "/", "", h.cookieSecure, true)
}

func sessionFrom(c *gin.Context) *service.Session {
	return c.MustGet(sessionKey).(*service.Session)
}

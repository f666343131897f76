package api

import (
	"errors"
	"net/http"

	"storefront/internal/render"
	"storefront/internal/service"

	"github.com/gin-gonic/gin"
)

type signInRequest struct {
	Token string `json:"token" binding:"required"`
}

type assistantRequest struct {
	Message string `json:"message"`
}

type redirectResponse struct {
	URL     string `json:"url"`
	DelayMs int64  `json:"delayMs"`
}

type replyResponse struct {
	Message       string            `json:"message,omitempty"`
	Text          string            `json:"text"`
	Intent        service.Intent    `json:"intent"`
	TypingDelayMs int64             `json:"typingDelayMs"`
	Redirect      *redirectResponse `json:"redirect,omitempty"`
}

func newReplyResponse(message string, reply service.Reply) replyResponse {
	resp := replyResponse{
		Message:       message,
		Text:          reply.Text,
		Intent:        reply.Intent,
		TypingDelayMs: reply.TypingDelay.Milliseconds(),
	}
	if reply.Redirect != nil {
		resp.Redirect = &redirectResponse{
			URL:     reply.Redirect.URL,
			DelayMs: reply.Redirect.Delay.Milliseconds(),
		}
	}
	return resp
}

func (h *Handler) authState(sess *service.Session) gin.H {
	user := sess.Auth.Identity()
	return gin.H{
		"state": sess.Auth.State().String(),
		"user":  user,
		"admin": sess.Auth.IsAdmin(user),
	}
}

// me returns the sign-in state of the session
func (h *Handler) me(c *gin.Context) {
	c.JSON(http.StatusOK, h.authState(sessionFrom(c)))
}

// signIn verifies an identity token and signs the session in
func (h *Handler) signIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	sess := sessionFrom(c)
	if _, err := sess.Auth.SignIn(c.Request.Context(), req.Token); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": service.NoticeLoginFailed})
		return
	}

	h.setToken(c, req.Token)
	c.JSON(http.StatusOK, h.authState(sess))
}

// signOut signs the session out
func (h *Handler) signOut(c *gin.Context) {
	sess := sessionFrom(c)
	sess.Auth.SignOut(c.Request.Context())
	h.clearToken(c)
	c.JSON(http.StatusOK, h.authState(sess))
}

// orderHistory returns the orders of the signed-in shopper
func (h *Handler) orderHistory(c *gin.Context) {
	sess := sessionFrom(c)
	if sess.Auth.State() != service.StateAuthenticated {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Sign in to see your orders"})
		return
	}

	history := sess.Auth.OrderHistory()
	if !history.Loaded || c.Query("refresh") == "true" {
		history = sess.Auth.LoadOrderHistory(c.Request.Context())
	}
	c.JSON(http.StatusOK, render.OrderHistory(history, h.Formatter))
}

// assistantMessage answers a typed assistant message
func (h *Handler) assistantMessage(c *gin.Context) {
	var req assistantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	reply, err := h.Assistant.Respond(c.Request.Context(), req.Message)
	if errors.Is(err, service.ErrEmptyMessage) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, newReplyResponse("", reply))
}

// assistantQuickReply answers a quick reply button
func (h *Handler) assistantQuickReply(c *gin.Context) {
	message, reply, err := h.Assistant.QuickReply(c.Request.Context(), c.Param("kind"))
	if errors.Is(err, service.ErrUnknownReply) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, newReplyResponse(message, reply))
}

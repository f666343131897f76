package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"storefront/internal/util"

	"go.uber.org/zap"
)

// Intent is what an assistant message was classified as
type Intent string

const (
	IntentOrderLookup Intent = "order_lookup"
	IntentTrackingFAQ Intent = "tracking_faq"
	IntentShipping    Intent = "shipping"
	IntentReturns     Intent = "returns"
	IntentHuman       Intent = "human"
	IntentFallback    Intent = "fallback"
)

const trackingMarker = "#"

// Canned replies
const (
	replyOrderNotFound = "I couldn't find an order with that ID. Please check and try again."
	replyLookupFailed  = "Network error checking order."
	replyTrackingFAQ   = "To track an order, please type your Order ID starting with # (e.g., #A1B2C3)."
	replyShipping      = "Shipping is FREE for Prepaid orders. For COD, it's ₹50 (Srinagar) or ₹120 (Rest of India)."
	replyReturns       = "We accept returns within 7 days for defective items. Please contact support on WhatsApp."
	replyHuman         = "Redirecting you to our WhatsApp Support..."
	replyFallback      = "I'm sorry, I didn't understand. Try clicking one of the options above."
)

var (
	trackingKeywords = []string{"track", "where"}
	shippingKeywords = []string{"shipping", "cost"}
	returnKeywords   = []string{"return", "exchange"}
	humanKeywords    = []string{"human", "talk"}
)

// quickReplies maps the quick reply buttons to the message sent on the shopper's behalf
var quickReplies = map[string]string{
	"track":    "I want to track my order.",
	"shipping": "What are the shipping charges?",
	"return":   "What is the return policy?",
	"human":    "Connect me to a human.",
}

// Redirect asks the client to open URL after Delay
type Redirect struct {
	URL   string
	Delay time.Duration
}

// Reply is the assistant answer to one message
type Reply struct {
	Text        string
	Intent      Intent
	TypingDelay time.Duration
	Redirect    *Redirect
}

// AssistantConfig holds the assistant timings and handoff target
type AssistantConfig struct {
	SupportURL    string
	TypingDelay   time.Duration
	RedirectDelay time.Duration
}

// Assistant answers shopper messages with fixed keyword rules and an order lookup
type Assistant struct {
	orders OrderQuery
	cfg    AssistantConfig
}

// NewAssistant creates a new assistant
func NewAssistant(orders OrderQuery, cfg AssistantConfig) *Assistant {
	return &Assistant{orders: orders, cfg: cfg}
}

// Classify returns the intent of a trimmed message. The first matching rule wins.
func Classify(input string) Intent {
	lower := strings.ToLower(input)

	switch {
	case looksLikeTrackingCode(lower):
		return IntentOrderLookup
	case containsAny(lower, trackingKeywords):
		return IntentTrackingFAQ
	case containsAny(lower, shippingKeywords):
		return IntentShipping
	case containsAny(lower, returnKeywords):
		return IntentReturns
	case containsAny(lower, humanKeywords):
		return IntentHuman
	default:
		return IntentFallback
	}
}

// NormalizeTrackingCode upper-cases a code and prefixes the marker if missing
func NormalizeTrackingCode(input string) string {
	code := strings.ToUpper(strings.TrimSpace(input))
	if !strings.HasPrefix(code, trackingMarker) {
		code = trackingMarker + code
	}
	return code
}

// Respond answers one message. Only order lookups touch the remote store.
func (a *Assistant) Respond(ctx context.Context, input string) (Reply, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Reply{}, ErrEmptyMessage
	}

	intent := Classify(input)
	reply := Reply{Intent: intent, TypingDelay: a.cfg.TypingDelay}

	switch intent {
	case IntentOrderLookup:
		reply.Text = a.lookup(ctx, NormalizeTrackingCode(input))
	case IntentTrackingFAQ:
		reply.Text = replyTrackingFAQ
	case IntentShipping:
		reply.Text = replyShipping
	case IntentReturns:
		reply.Text = replyReturns
	case IntentHuman:
		reply.Text = replyHuman
		reply.Redirect = &Redirect{URL: a.cfg.SupportURL, Delay: a.cfg.RedirectDelay}
	default:
		reply.Text = replyFallback
	}

	util.AssistantRepliesTotal.WithLabelValues(string(intent)).Inc()
	return reply, nil
}

// QuickReply answers a quick reply button and returns the message sent on the shopper's behalf
func (a *Assistant) QuickReply(ctx context.Context, kind string) (string, Reply, error) {
	msg, ok := quickReplies[strings.ToLower(strings.TrimSpace(kind))]
	if !ok {
		return "", Reply{}, ErrUnknownReply
	}
	reply, err := a.Respond(ctx, msg)
	return msg, reply, err
}

func (a *Assistant) lookup(ctx context.Context, code string) string {
	ctx, span := util.StartSpan(ctx, "Assistant.Lookup")
	defer span.End()

	order, err := a.orders.FindOrderByTrackingID(ctx, code)
	if err != nil {
		util.GetLogger().Error("Order lookup failed", zap.String("tracking_id", code), zap.Error(err))
		return replyLookupFailed
	}
	if order == nil {
		return replyOrderNotFound
	}
	return fmt.Sprintf("Order %s found! \nStatus: %s\nItems: %s", code, order.Status, order.Product)
}

// looksLikeTrackingCode is true for input starting with the marker or exactly 8 characters without whitespace
func looksLikeTrackingCode(s string) bool {
	if strings.HasPrefix(s, trackingMarker) {
		return true
	}
	return utf8.RuneCountInString(s) == 8 && strings.IndexFunc(s, unicode.IsSpace) < 0
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"storefront/internal/broker"
	"storefront/internal/models"
	"storefront/internal/remote"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// AuthState is the sign-in state of a session
type AuthState int

const (
	StateAnonymous AuthState = iota
	StateAuthenticated
)

func (s AuthState) String() string {
	if s == StateAuthenticated {
		return "authenticated"
	}
	return "anonymous"
}

// OrderHistory is the result of the last order history fetch
type OrderHistory struct {
	Email         string
	Orders        []models.Order
	Loaded        bool
	IndexNotReady bool
	Failed        bool
}

// AuthBridge follows identity changes of one session and drives the sign-in merge
type AuthBridge struct {
	sessionID  string
	reconciler *Reconciler
	profile    FavoritesProfile
	orders     OrderQuery
	identities IdentityProvider
	publisher  EventPublisher
	adminEmail string
	logger     *zap.Logger

	mu      sync.Mutex
	current *models.Identity
	history OrderHistory
}

// NewAuthBridge creates an anonymous bridge for one session
func NewAuthBridge(sessionID string, reconciler *Reconciler, profile FavoritesProfile, orders OrderQuery,
	identities IdentityProvider, publisher EventPublisher, adminEmail string) *AuthBridge {
	return &AuthBridge{
		sessionID:  sessionID,
		reconciler: reconciler,
		profile:    profile,
		orders:     orders,
		identities: identities,
		publisher:  publisher,
		adminEmail: adminEmail,
		logger:     util.SessionLogger(sessionID),
	}
}

// State returns the current sign-in state
func (b *AuthBridge) State() AuthState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return StateAnonymous
	}
	return StateAuthenticated
}

// Identity returns the signed-in identity, or nil
func (b *AuthBridge) Identity() *models.Identity {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return nil
	}
	id := *b.current
	return &id
}

// Observe receives the identity verified for a request, or nil when there is none.
// Only transitions have effects: signing in merges favorites and loads the order
// history, signing out reloads favorites from the session store.
func (b *AuthBridge) Observe(ctx context.Context, identity *models.Identity) {
	b.mu.Lock()
	prev := b.current

	if identity == nil {
		if prev == nil {
			b.mu.Unlock()
			return
		}
		b.current = nil
		b.history = OrderHistory{}
		b.mu.Unlock()

		b.reconciler.ReloadFavoritesFromLocal(ctx)
		b.logger.Info("Signed out", zap.String("uid", prev.UID))
		return
	}

	id := *identity
	if prev != nil && prev.UID == id.UID {
		b.current = &id
		b.mu.Unlock()
		b.reconciler.SetUser(&id)
		return
	}

	b.current = &id
	b.history = OrderHistory{}
	b.mu.Unlock()

	if prev != nil {
		b.reconciler.ReloadFavoritesFromLocal(ctx)
	}
	b.signedIn(ctx, &id)
}

// SignIn verifies token and, on success, moves the session to Authenticated
func (b *AuthBridge) SignIn(ctx context.Context, token string) (*models.Identity, error) {
	ctx, span := util.StartSpan(ctx, "AuthBridge.SignIn")
	defer span.End()

	identity, err := b.identities.Verify(ctx, token)
	if err != nil {
		b.logger.Warn("Sign-in rejected", zap.Error(err))
		util.SignInsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}

	util.SignInsTotal.WithLabelValues("ok").Inc()
	b.Observe(ctx, identity)
	return identity, nil
}

// SignOut moves the session to Anonymous
func (b *AuthBridge) SignOut(ctx context.Context) {
	b.Observe(ctx, nil)
}

// IsAdmin reports whether identity is the configured administrator
func (b *AuthBridge) IsAdmin(identity *models.Identity) bool {
	return identity != nil && b.adminEmail != "" && identity.Email == b.adminEmail
}

// OrderHistory returns the last fetched order history
func (b *AuthBridge) OrderHistory() OrderHistory {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.history
}

// LoadOrderHistory fetches the orders of the signed-in identity, newest first
func (b *AuthBridge) LoadOrderHistory(ctx context.Context) OrderHistory {
	ctx, span := util.StartSpan(ctx, "AuthBridge.LoadOrderHistory")
	defer span.End()

	cur := b.Identity()
	if cur == nil {
		return OrderHistory{}
	}

	h := OrderHistory{Email: cur.Email, Orders: []models.Order{}, Loaded: true}
	if cur.Email != "" {
		orders, err := b.orders.ListOrdersByCustomer(ctx, cur.Email)
		switch {
		case errors.Is(err, remote.ErrIndexNotReady):
			b.logger.Warn("Order history index not ready", zap.Error(err))
			h.IndexNotReady = true
		case err != nil:
			b.logger.Error("Failed to load order history", zap.Error(err))
			h.Failed = true
		default:
			h.Orders = orders
		}
	}

	b.mu.Lock()
	if b.current != nil && b.current.UID == cur.UID {
		b.history = h
	}
	b.mu.Unlock()
	return h
}

func (b *AuthBridge) signedIn(ctx context.Context, id *models.Identity) {
	b.logger.Info("Signed in", zap.String("uid", id.UID))
	b.reconciler.SetUser(id)

	remoteFavorites, err := b.profile.GetFavorites(ctx, id.UID)
	if err != nil {
		b.logger.Error("Failed to read remote favorites", zap.String("uid", id.UID), zap.Error(err))
		b.reconciler.AbandonMerge(id.UID)
	} else if merged, applied := b.reconciler.MergeRemoteFavoritesOnSignIn(ctx, id.UID, remoteFavorites); applied {
		b.publishMerged(id.UID, merged)
	}

	b.LoadOrderHistory(ctx)
}

func (b *AuthBridge) publishMerged(uid string, favorites []string) {
	event := &models.FavoritesMergedEvent{
		BaseEvent: broker.NewBaseEvent(models.EventTypeFavoritesMerged),
		SessionID: b.sessionID,
		UserID:    uid,
		Favorites: favorites,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := b.publisher.PublishFavoritesMerged(ctx, event); err != nil {
			b.logger.Error("Failed to publish favorites merged event", zap.Error(err))
		}
	}()
}

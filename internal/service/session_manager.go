package service

import (
	"context"
	"sync"
	"time"

	"storefront/internal/localstore"
	"storefront/internal/models"
	"storefront/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Session is the state of one visitor
type Session struct {
	ID         string
	Reconciler *Reconciler
	Auth       *AuthBridge

	lastSeen time.Time
}

// SessionDeps are the collaborators shared by every session
type SessionDeps struct {
	KV         localstore.KV
	Remote     RemoteStore
	Identities IdentityProvider
	Publisher  EventPublisher
	AdminEmail string
}

// SessionManager creates sessions lazily and keeps them in memory
type SessionManager struct {
	deps    SessionDeps
	catalog *CatalogService
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionManager creates a new session manager
func NewSessionManager(deps SessionDeps, catalog *CatalogService) *SessionManager {
	return &SessionManager{
		deps:     deps,
		catalog:  catalog,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// NewSessionID returns a fresh random session id
func NewSessionID() string {
	return uuid.New().String()
}

// ValidSessionID reports whether id has the shape of a session id
func ValidSessionID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Get returns the session for id, creating it from the session store if needed
func (m *SessionManager) Get(ctx context.Context, id string) *Session {
	m.mu.Lock()
	if s, ok := m.sessions[id]; ok {
		s.lastSeen = m.now()
		m.mu.Unlock()
		return s
	}
	m.mu.Unlock()

	s := m.newSession(ctx, id)

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[id]; ok {
		existing.lastSeen = m.now()
		return existing
	}
	s.lastSeen = m.now()
	m.sessions[id] = s
	util.ActiveSessions.Set(float64(len(m.sessions)))
	return s
}

// LoadCatalog fetches the catalog and reconciles the session cart against it
func (m *SessionManager) LoadCatalog(ctx context.Context, s *Session) ([]models.Product, error) {
	products, err := m.catalog.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	s.Reconciler.ReconcileAgainstCatalog(ctx, products)
	return products, nil
}

// EnsureCatalog loads and reconciles the catalog of s unless one is already installed
func (m *SessionManager) EnsureCatalog(ctx context.Context, s *Session) error {
	if s.Reconciler.CatalogLoaded() {
		return nil
	}
	_, err := m.LoadCatalog(ctx, s)
	return err
}

// EvictIdle drops sessions not seen for maxIdle after flushing their pending remote writes.
// Their records stay in the session store.
func (m *SessionManager) EvictIdle(ctx context.Context, maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)

	m.mu.Lock()
	var idle []*Session
	for id, s := range m.sessions {
		if s.lastSeen.Before(cutoff) {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	util.ActiveSessions.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	for _, s := range idle {
		if err := s.Reconciler.Sync(ctx); err != nil {
			util.SessionLogger(s.ID).Warn("Evicted session with pending favorites sync", zap.Error(err))
		}
	}
	return len(idle)
}

// Len returns the number of sessions in memory
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close waits for the pending remote writes of every session
func (m *SessionManager) Close(ctx context.Context) error {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		if err := s.Reconciler.Sync(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (m *SessionManager) newSession(ctx context.Context, id string) *Session {
	logger := util.SessionLogger(id)
	local := localstore.New(m.deps.KV, id)

	r := NewReconciler(local, m.deps.Remote, logger)
	r.Initialize(ctx)
	r.OnCountChange(func(count int) {
		logger.Debug("Cart count changed", zap.Int("count", count))
	})

	return &Session{
		ID:         id,
		Reconciler: r,
		Auth: NewAuthBridge(id, r, m.deps.Remote, m.deps.Remote, m.deps.Identities,
			m.deps.Publisher, m.deps.AdminEmail),
	}
}

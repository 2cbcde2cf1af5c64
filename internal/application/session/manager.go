// internal/application/session/manager.go
package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	sessiondom "storefront/internal/domain/session"
)

// Listener receives every identity transition in order. A returned error is
// reported to the caller of the transition but does not undo it.
type Listener func(ctx context.Context, st sessiondom.State) error

// Manager holds the current identity and fans transitions out to listeners
// (the cart sync engine among them).
type Manager struct {
	verifier sessiondom.TokenVerifier
	store    sessiondom.Store
	log      *zap.Logger

	mu    sync.Mutex
	state sessiondom.State

	// emitMu serializes transitions so listeners observe them in order.
	emitMu    sync.Mutex
	listeners map[int]Listener
	nextID    int
}

func NewManager(verifier sessiondom.TokenVerifier, store sessiondom.Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		verifier:  verifier,
		store:     store,
		log:       logger.Named("session"),
		listeners: map[int]Listener{},
	}
}

// Current returns the current identity state.
func (m *Manager) Current() sessiondom.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registers l for future transitions.
func (m *Manager) Subscribe(l Listener) func() {
	m.emitMu.Lock()
	m.nextID++
	id := m.nextID
	m.listeners[id] = l
	m.emitMu.Unlock()

	return func() {
		m.emitMu.Lock()
		delete(m.listeners, id)
		m.emitMu.Unlock()
	}
}

// SignIn verifies an identity-provider token and signs the user in.
func (m *Manager) SignIn(ctx context.Context, idToken string) (sessiondom.State, error) {
	if m.verifier == nil {
		return m.Current(), errors.New("session: token verifier not configured")
	}
	tok := strings.TrimSpace(idToken)
	if tok == "" {
		return m.Current(), sessiondom.ErrInvalidToken
	}
	id, err := m.verifier.Verify(ctx, tok)
	if err != nil {
		m.log.Warn("token verification failed", zap.Error(err))
		return m.Current(), errors.Join(sessiondom.ErrInvalidToken, err)
	}
	return m.SignInIdentity(ctx, id)
}

// SignInIdentity signs in an already verified identity. The returned error,
// if any, comes from listeners; the state is authenticated regardless.
func (m *Manager) SignInIdentity(ctx context.Context, id sessiondom.Identity) (sessiondom.State, error) {
	st := sessiondom.Authenticated(id)
	if !st.IsAuthenticated() {
		return m.Current(), sessiondom.ErrInvalidToken
	}

	m.emitMu.Lock()
	defer m.emitMu.Unlock()

	m.set(st)
	if m.store != nil {
		if err := m.store.Save(ctx, st.Identity); err != nil {
			m.log.Warn("persist identity failed", zap.Error(err))
		}
	}
	m.log.Info("signed in", zap.String("uid", st.UID))
	return st, m.emitLocked(ctx, st)
}

// SignOut ends the session.
func (m *Manager) SignOut(ctx context.Context) error {
	m.emitMu.Lock()
	defer m.emitMu.Unlock()

	prev := m.Current()
	st := sessiondom.Unauthenticated()
	m.set(st)
	if m.store != nil {
		if err := m.store.Delete(ctx); err != nil {
			m.log.Warn("forget identity failed", zap.Error(err))
		}
	}
	if prev.IsAuthenticated() {
		m.log.Info("signed out", zap.String("uid", prev.UID))
	}
	return m.emitLocked(ctx, st)
}

// Restore re-emits the identity persisted by a previous process, if any.
func (m *Manager) Restore(ctx context.Context) (sessiondom.State, error) {
	if m.store == nil {
		return m.Current(), nil
	}
	id, ok, err := m.store.Load(ctx)
	if err != nil {
		m.log.Warn("load persisted identity failed", zap.Error(err))
		return m.Current(), nil
	}
	if !ok || strings.TrimSpace(id.UID) == "" {
		return m.Current(), nil
	}
	m.log.Info("restoring session", zap.String("uid", id.UID))
	return m.SignInIdentity(ctx, id)
}

func (m *Manager) set(st sessiondom.State) {
	m.mu.Lock()
	m.state = st
	m.mu.Unlock()
}

func (m *Manager) emitLocked(ctx context.Context, st sessiondom.State) error {
	var errs []error
	for _, l := range m.listeners {
		if err := l(ctx, st); err != nil {
			m.log.Warn("session listener failed", zap.Stringer("state", st), zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

package memory

import (
	"context"
	"sync"

	cartdom "storefront/internal/domain/cart"
	sessiondom "storefront/internal/domain/session"
)

// LocalCartStore is a cart.LocalStore held in process memory.
type LocalCartStore struct {
	mu sync.Mutex
	c  cartdom.Cart
}

var _ cartdom.LocalStore = (*LocalCartStore)(nil)

func NewLocalCartStore(initial cartdom.Cart) *LocalCartStore {
	return &LocalCartStore{c: initial.Clone()}
}

func (s *LocalCartStore) Read(ctx context.Context) (cartdom.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.Clone(), nil
}

func (s *LocalCartStore) Write(ctx context.Context, c cartdom.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.c = c.Clone()
	return nil
}

func (s *LocalCartStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.c = cartdom.Cart{}
	return nil
}

// SessionStore is a session.Store held in process memory.
type SessionStore struct {
	mu  sync.Mutex
	id  sessiondom.Identity
	has bool
}

var _ sessiondom.Store = (*SessionStore)(nil)

func NewSessionStore() *SessionStore { return &SessionStore{} }

func (s *SessionStore) Load(ctx context.Context) (sessiondom.Identity, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id, s.has, nil
}

func (s *SessionStore) Save(ctx context.Context, id sessiondom.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id, s.has = id, true
	return nil
}

func (s *SessionStore) Delete(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id, s.has = sessiondom.Identity{}, false
	return nil
}

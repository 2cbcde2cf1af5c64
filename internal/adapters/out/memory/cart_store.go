// internal/adapters/out/memory/cart_store.go
package memory

import (
	"context"
	"errors"
	"strings"
	"sync"

	cartdom "storefront/internal/domain/cart"
)

// CartStore is an in-process cart.RemoteStore. It keeps the keyed document
// form per uid and notifies subscribers synchronously after every write, in
// write order.
type CartStore struct {
	mu       sync.Mutex
	notifyMu sync.Mutex
	docs     map[string]map[string]cartdom.LineItem
	subs     map[string]map[int]func(cartdom.Cart)
	next     int
}

var _ cartdom.RemoteStore = (*CartStore)(nil)

func NewCartStore() *CartStore {
	return &CartStore{
		docs: map[string]map[string]cartdom.LineItem{},
		subs: map[string]map[int]func(cartdom.Cart){},
	}
}

func (s *CartStore) Get(ctx context.Context, uid string) (cartdom.Cart, error) {
	uid, err := normalizeUID(uid)
	if err != nil {
		return cartdom.Cart{}, err
	}
	if err := ctx.Err(); err != nil {
		return cartdom.Cart{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return cartdom.FromKeyed(s.docs[uid]), nil
}

func (s *CartStore) Put(ctx context.Context, uid string, c cartdom.Cart) error {
	uid, err := normalizeUID(uid)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.docs[uid] = c.Keyed()
	snap, fns := s.snapshotLocked(uid)
	s.notifyMu.Lock()
	s.mu.Unlock()

	notify(fns, snap)
	s.notifyMu.Unlock()
	return nil
}

func (s *CartStore) UpsertOne(ctx context.Context, uid string, item cartdom.LineItem, op cartdom.Op) error {
	uid, err := normalizeUID(uid)
	if err != nil {
		return err
	}
	if strings.TrimSpace(item.ID) == "" {
		return cartdom.ErrInvalidProduct
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	cur := cartdom.FromKeyed(s.docs[uid])
	s.docs[uid] = cartdom.ApplyOp(cur, item, op).Keyed()
	snap, fns := s.snapshotLocked(uid)
	s.notifyMu.Lock()
	s.mu.Unlock()

	notify(fns, snap)
	s.notifyMu.Unlock()
	return nil
}

// Subscribe delivers the current document immediately, then every change.
func (s *CartStore) Subscribe(ctx context.Context, uid string, onChange func(cartdom.Cart)) (cartdom.Unsubscribe, error) {
	uid, err := normalizeUID(uid)
	if err != nil {
		return nil, err
	}
	if onChange == nil {
		return nil, errors.New("memory: onChange is nil")
	}

	s.mu.Lock()
	s.next++
	id := s.next
	if s.subs[uid] == nil {
		s.subs[uid] = map[int]func(cartdom.Cart){}
	}
	s.subs[uid][id] = onChange
	initial := cartdom.FromKeyed(s.docs[uid])
	s.notifyMu.Lock()
	s.mu.Unlock()

	onChange(initial)
	s.notifyMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs[uid], id)
			s.mu.Unlock()
		})
	}, nil
}

// Subscribers reports the number of open subscriptions for uid.
func (s *CartStore) Subscribers(uid string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs[uid])
}

func (s *CartStore) snapshotLocked(uid string) (cartdom.Cart, []func(cartdom.Cart)) {
	fns := make([]func(cartdom.Cart), 0, len(s.subs[uid]))
	for _, fn := range s.subs[uid] {
		fns = append(fns, fn)
	}
	return cartdom.FromKeyed(s.docs[uid]), fns
}

func notify(fns []func(cartdom.Cart), c cartdom.Cart) {
	for _, fn := range fns {
		fn(c.Clone())
	}
}

func normalizeUID(uid string) (string, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return "", errors.New("memory: uid is empty")
	}
	return uid, nil
}

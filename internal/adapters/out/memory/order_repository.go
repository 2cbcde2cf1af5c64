package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	contactdom "storefront/internal/domain/contact"
	orderdom "storefront/internal/domain/order"
)

// OrderRepository is an in-process orderdom.Repository and orderdom.Watcher.
type OrderRepository struct {
	mu       sync.Mutex
	orders   map[string]orderdom.Order
	watchers map[int]orderWatcher
	next     int
	now      func() time.Time
}

type orderWatcher struct {
	uid string
	fn  func([]orderdom.Order)
}

var (
	_ orderdom.Repository = (*OrderRepository)(nil)
	_ orderdom.Watcher    = (*OrderRepository)(nil)
)

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		orders:   map[string]orderdom.Order{},
		watchers: map[int]orderWatcher{},
		now:      time.Now,
	}
}

func (r *OrderRepository) Create(ctx context.Context, o orderdom.Order) (orderdom.Order, error) {
	if err := ctx.Err(); err != nil {
		return orderdom.Order{}, err
	}
	r.mu.Lock()
	if strings.TrimSpace(o.ID) == "" {
		o.ID = uuid.NewString()
	}
	if _, exists := r.orders[o.ID]; exists {
		r.mu.Unlock()
		return orderdom.Order{}, orderdom.ErrConflict
	}
	o.CreatedAt = r.now().UTC()
	r.orders[o.ID] = o
	list, fns := r.listLocked(o.UserID), r.watchersLocked(o.UserID)
	r.mu.Unlock()

	for _, fn := range fns {
		fn(list)
	}
	return o, nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (orderdom.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[strings.TrimSpace(id)]
	if !ok {
		return orderdom.Order{}, orderdom.ErrNotFound
	}
	return o, nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string, f orderdom.Filter) ([]orderdom.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return orderdom.ApplyFilter(r.listLocked(strings.TrimSpace(userID)), f), nil
}

func (r *OrderRepository) WatchByUser(ctx context.Context, userID string, onChange func([]orderdom.Order)) (func(), error) {
	uid := strings.TrimSpace(userID)
	r.mu.Lock()
	r.next++
	id := r.next
	r.watchers[id] = orderWatcher{uid: uid, fn: onChange}
	initial := r.listLocked(uid)
	r.mu.Unlock()

	onChange(initial)
	return func() {
		r.mu.Lock()
		delete(r.watchers, id)
		r.mu.Unlock()
	}, nil
}

func (r *OrderRepository) listLocked(uid string) []orderdom.Order {
	out := make([]orderdom.Order, 0)
	for _, o := range r.orders {
		if o.UserID == uid {
			out = append(out, o)
		}
	}
	orderdom.SortNewestFirst(out)
	return out
}

func (r *OrderRepository) watchersLocked(uid string) []func([]orderdom.Order) {
	var fns []func([]orderdom.Order)
	for _, w := range r.watchers {
		if w.uid == uid {
			fns = append(fns, w.fn)
		}
	}
	return fns
}

// ContactRepository keeps contact messages in memory.
type ContactRepository struct {
	mu   sync.Mutex
	msgs []contactdom.Message
}

var _ contactdom.Repository = (*ContactRepository)(nil)

func NewContactRepository() *ContactRepository { return &ContactRepository{} }

func (r *ContactRepository) Create(ctx context.Context, m contactdom.Message) (contactdom.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m.ID = uuid.NewString()
	m.CreatedAt = time.Now().UTC()
	r.msgs = append(r.msgs, m)
	return m, nil
}

// All returns stored messages in submission order.
func (r *ContactRepository) All() []contactdom.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]contactdom.Message(nil), r.msgs...)
}

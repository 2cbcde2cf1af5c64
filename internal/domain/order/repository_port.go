package order

import (
	"context"
	"errors"
)

// Filter narrows a user's order history.
type Filter struct {
	Status Status
	Limit  int
}

// Repository defines the persistence port for Order.
//
// Orders are written once. There is no update path.
type Repository interface {
	// Create assigns ID and CreatedAt and stores the order.
	Create(ctx context.Context, o Order) (Order, error)
	GetByID(ctx context.Context, id string) (Order, error)
	// ListByUser returns the user's orders newest first.
	ListByUser(ctx context.Context, userID string, f Filter) ([]Order, error)
}

// Watcher is implemented by stores that can push order history changes.
type Watcher interface {
	WatchByUser(ctx context.Context, userID string, onChange func([]Order)) (stop func(), err error)
}

// Standard repository errors
var (
	ErrNotFound = errors.New("order: not found")
	ErrConflict = errors.New("order: conflict")
)

// ApplyFilter filters already-sorted orders in memory.
func ApplyFilter(orders []Order, f Filter) []Order {
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		out = append(out, o)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out
}

// internal/domain/cart/repository_port.go
package cart

import "context"

// Unsubscribe tears down a remote subscription. Calling it more than once is safe.
type Unsubscribe func()

// RemoteStore is the per-user account cart.
//
// Storage (Firestore):
//   - collection: carts
//   - docId: uid
//   - fields: items (map productId -> line item), updatedAt
type RemoteStore interface {
	// Get returns the user's cart. A missing document is an empty cart, not an error.
	Get(ctx context.Context, uid string) (Cart, error)

	// Put replaces the whole remote cart.
	Put(ctx context.Context, uid string, c Cart) error

	// UpsertOne atomically updates one line item. OpDecrement at qty 1 is
	// equivalent to OpRemoveEntirely.
	UpsertOne(ctx context.Context, uid string, item LineItem, op Op) error

	// Subscribe pushes every change of the user's cart, including changes
	// written by this client, until the returned func is called or ctx ends.
	Subscribe(ctx context.Context, uid string, onChange func(Cart)) (Unsubscribe, error)
}

// LocalStore is the device cart, kept across process restarts.
type LocalStore interface {
	Read(ctx context.Context) (Cart, error)
	Write(ctx context.Context, c Cart) error
	Clear(ctx context.Context) error
}

package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	cartdom "storefront/internal/domain/cart"
)

// CartKey is the kv key holding the device cart as a JSON array of line items.
const CartKey = "cart"

// CartStore implements cart.LocalStore on top of KVStore.
type CartStore struct {
	kv *KVStore
}

var _ cartdom.LocalStore = (*CartStore)(nil)

func NewCartStore(kv *KVStore) *CartStore {
	return &CartStore{kv: kv}
}

// Read returns an empty cart when nothing is stored. A value that does not
// decode is reported as an error so the caller can log it.
func (s *CartStore) Read(ctx context.Context) (cartdom.Cart, error) {
	raw, ok, err := s.kv.Get(ctx, CartKey)
	if err != nil || !ok {
		return cartdom.Cart{}, err
	}
	var items []cartdom.LineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return cartdom.Cart{}, fmt.Errorf("%w: %v", cartdom.ErrMalformedCart, err)
	}
	return cartdom.New(items)
}

func (s *CartStore) Write(ctx context.Context, c cartdom.Cart) error {
	items := c.Items
	if items == nil {
		items = []cartdom.LineItem{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, CartKey, string(b))
}

func (s *CartStore) Clear(ctx context.Context) error {
	return s.kv.Delete(ctx, CartKey)
}

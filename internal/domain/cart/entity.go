// internal/domain/cart/entity.go
package cart

import (
	"errors"
	"sort"
	"strings"

	productdom "storefront/internal/domain/product"
)

var (
	ErrMalformedCart  = errors.New("cart: malformed cart")
	ErrInvalidProduct = errors.New("cart: invalid product")
	ErrUnknownAction  = errors.New("cart: unknown action")
)

// Product is the catalog entry a line item refers to.
type Product = productdom.Product

// LineItem is one product and its requested quantity.
// The product fields are flattened on the wire ({id,title,...,qty}).
type LineItem struct {
	Product
	Qty int `json:"qty" firestore:"qty"`
}

// Cart is the ordered (local) form of a cart.
//
// Invariants:
//   - at most one line item per product ID
//   - every line item has Qty >= 1
type Cart struct {
	Items []LineItem `json:"items"`
}

// New builds a cart from items after validating the invariants.
func New(items []LineItem) (Cart, error) {
	c := Cart{Items: cloneItems(items)}
	if err := c.Validate(); err != nil {
		return Cart{}, err
	}
	return c, nil
}

// Validate checks the cart invariants.
func (c Cart) Validate() error {
	seen := make(map[string]struct{}, len(c.Items))
	for _, it := range c.Items {
		id := strings.TrimSpace(it.ID)
		if id == "" || it.Qty <= 0 {
			return ErrMalformedCart
		}
		if _, dup := seen[id]; dup {
			return ErrMalformedCart
		}
		seen[id] = struct{}{}
	}
	return nil
}

func (c Cart) IsEmpty() bool { return len(c.Items) == 0 }

func (c Cart) Len() int { return len(c.Items) }

// Get returns the line item for productID.
func (c Cart) Get(productID string) (LineItem, bool) {
	if i := c.indexOf(productID); i >= 0 {
		return c.Items[i], true
	}
	return LineItem{}, false
}

// Qty returns the quantity held for productID (0 when absent).
func (c Cart) Qty(productID string) int {
	it, ok := c.Get(productID)
	if !ok {
		return 0
	}
	return it.Qty
}

// TotalQty is the number of units across all line items.
func (c Cart) TotalQty() int {
	n := 0
	for _, it := range c.Items {
		n += it.Qty
	}
	return n
}

// IDs returns product IDs in cart order.
func (c Cart) IDs() []string {
	out := make([]string, 0, len(c.Items))
	for _, it := range c.Items {
		out = append(out, it.ID)
	}
	return out
}

// Clone returns a deep copy safe to hand to other goroutines.
func (c Cart) Clone() Cart {
	return Cart{Items: cloneItems(c.Items)}
}

// Keyed returns the remote (keyed) form of the cart.
func (c Cart) Keyed() map[string]LineItem {
	out := make(map[string]LineItem, len(c.Items))
	for _, it := range c.Items {
		out[it.ID] = it
	}
	return out
}

// FromKeyed converts the remote (keyed) form into an ordered cart.
// Keys carry no order, so items are sorted by product ID. Entries with a
// blank ID or a non-positive quantity are dropped; a blank item ID is
// filled from its map key.
func FromKeyed(m map[string]LineItem) Cart {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	items := make([]LineItem, 0, len(keys))
	for _, k := range keys {
		it := m[k]
		if strings.TrimSpace(it.ID) == "" {
			it.ID = strings.TrimSpace(k)
		}
		if it.ID == "" || it.Qty <= 0 {
			continue
		}
		items = append(items, it)
	}
	return Cart{Items: items}
}

func (c Cart) indexOf(productID string) int {
	for i := range c.Items {
		if c.Items[i].ID == productID {
			return i
		}
	}
	return -1
}

func cloneItems(src []LineItem) []LineItem {
	out := make([]LineItem, len(src))
	copy(out, src)
	return out
}

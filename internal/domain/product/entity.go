// internal/domain/product/entity.go
package product

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrNotFound       = errors.New("product: not found")
	ErrInvalidProduct = errors.New("product: invalid")
)

// Rating is the aggregated review score the catalog reports for a product.
type Rating struct {
	Rate  float64 `json:"rate" firestore:"rate"`
	Count int     `json:"count" firestore:"count"`
}

// Product is a catalog entry.
//
// Only ID is interpreted by the cart; the remaining fields are carried
// through carts and orders as display metadata.
type Product struct {
	ID          string  `json:"id" firestore:"id"`
	Title       string  `json:"title,omitempty" firestore:"title"`
	Price       float64 `json:"price,omitempty" firestore:"price"`
	Description string  `json:"description,omitempty" firestore:"description"`
	Category    string  `json:"category,omitempty" firestore:"category"`
	Image       string  `json:"image,omitempty" firestore:"image"`
	Rating      Rating  `json:"rating" firestore:"rating"`
}

// Validate checks the only hard requirement: a stable identifier.
func (p Product) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return ErrInvalidProduct
	}
	return nil
}

// Catalog is a read port over the product source.
type Catalog interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (Product, error)
}

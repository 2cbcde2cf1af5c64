// internal/application/usecase/cart_usecase.go
package usecase

import (
	"context"
	"strings"

	cartdom "storefront/internal/domain/cart"
	orderdom "storefront/internal/domain/order"
	productdom "storefront/internal/domain/product"
)

// CartEngine is the cart sync engine as seen by the cart usecase.
type CartEngine interface {
	CartState
	Dispatch(ctx context.Context, a cartdom.Action) (cartdom.Cart, error)
}

// ProductLookup resolves a product ID to catalog data.
type ProductLookup interface {
	Get(ctx context.Context, id string) (productdom.Product, error)
}

// CartView is the rendered cart.
type CartView struct {
	Items      []cartdom.LineItem `json:"items"`
	TotalItems int                `json:"totalItems"`
	SubTotal   float64            `json:"subTotal"`
}

// CartUsecase turns product IDs from the outer layers into cart actions.
type CartUsecase struct {
	engine   CartEngine
	products ProductLookup
}

func NewCartUsecase(engine CartEngine, products ProductLookup) *CartUsecase {
	return &CartUsecase{engine: engine, products: products}
}

func (u *CartUsecase) Get(ctx context.Context) CartView {
	return NewCartView(u.engine.Snapshot())
}

// Add puts one unit of productID into the cart. Products already in the
// cart keep their stored metadata; new ones are looked up in the catalog.
func (u *CartUsecase) Add(ctx context.Context, productID string) (CartView, error) {
	p, err := u.resolve(ctx, productID, true)
	if err != nil {
		return CartView{}, err
	}
	return u.dispatch(ctx, cartdom.AddItem{Product: p})
}

// AddProduct adds a product the caller already holds.
func (u *CartUsecase) AddProduct(ctx context.Context, p productdom.Product) (CartView, error) {
	if err := p.Validate(); err != nil {
		return CartView{}, err
	}
	return u.dispatch(ctx, cartdom.AddItem{Product: p})
}

func (u *CartUsecase) RemoveOne(ctx context.Context, productID string) (CartView, error) {
	p, err := u.resolve(ctx, productID, false)
	if err != nil {
		return CartView{}, err
	}
	return u.dispatch(ctx, cartdom.RemoveOne{Product: p})
}

func (u *CartUsecase) RemoveAll(ctx context.Context, productID string) (CartView, error) {
	p, err := u.resolve(ctx, productID, false)
	if err != nil {
		return CartView{}, err
	}
	return u.dispatch(ctx, cartdom.RemoveAll{Product: p})
}

func (u *CartUsecase) Clear(ctx context.Context) (CartView, error) {
	c, err := u.engine.Clear(ctx)
	return NewCartView(c), err
}

func (u *CartUsecase) dispatch(ctx context.Context, a cartdom.Action) (CartView, error) {
	c, err := u.engine.Dispatch(ctx, a)
	if err != nil {
		return CartView{}, err
	}
	return NewCartView(c), nil
}

func (u *CartUsecase) resolve(ctx context.Context, productID string, lookup bool) (productdom.Product, error) {
	id := strings.TrimSpace(productID)
	if id == "" {
		return productdom.Product{}, cartdom.ErrInvalidProduct
	}
	if it, ok := u.engine.Snapshot().Get(id); ok {
		return it.Product, nil
	}
	if !lookup || u.products == nil {
		return productdom.Product{ID: id}, nil
	}
	return u.products.Get(ctx, id)
}

// NewCartView renders c with its item count and subtotal.
func NewCartView(c cartdom.Cart) CartView {
	items := c.Items
	if items == nil {
		items = []cartdom.LineItem{}
	}
	totals := orderdom.ComputeTotals(items, 0, nil)
	return CartView{Items: items, TotalItems: totals.TotalItems, SubTotal: totals.SubTotal}
}

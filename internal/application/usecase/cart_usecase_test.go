package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartdom "storefront/internal/domain/cart"
	productdom "storefront/internal/domain/product"
)

type staticCatalog map[string]productdom.Product

func (c staticCatalog) List(context.Context) ([]productdom.Product, error) {
	out := make([]productdom.Product, 0, len(c))
	for _, p := range c {
		out = append(out, p)
	}
	return out, nil
}

func (c staticCatalog) GetByID(_ context.Context, id string) (productdom.Product, error) {
	p, ok := c[id]
	if !ok {
		return productdom.Product{}, productdom.ErrNotFound
	}
	return p, nil
}

func (c staticCatalog) Get(ctx context.Context, id string) (productdom.Product, error) {
	return c.GetByID(ctx, id)
}

func TestCartUsecase(t *testing.T) {
	ctx := context.Background()
	catalog := staticCatalog{"1": {ID: "1", Title: "Backpack", Price: 109.95}}
	u := NewCartUsecase(&fakeCart{}, catalog)

	v, err := u.Add(ctx, "1")
	require.NoError(t, err)
	v, err = u.Add(ctx, " 1 ")
	require.NoError(t, err)
	assert.Equal(t, 2, v.TotalItems)
	assert.Equal(t, 219.9, v.SubTotal)
	assert.Equal(t, "Backpack", v.Items[0].Title)

	_, err = u.Add(ctx, "404")
	assert.True(t, errors.Is(err, productdom.ErrNotFound))

	_, err = u.Add(ctx, "")
	assert.ErrorIs(t, err, cartdom.ErrInvalidProduct)

	v, err = u.RemoveOne(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 1, v.TotalItems)

	v, err = u.RemoveAll(ctx, "unknown")
	require.NoError(t, err, "removing an absent product is a no-op")
	assert.Equal(t, 1, v.TotalItems)

	v, err = u.Clear(ctx)
	require.NoError(t, err)
	assert.Empty(t, v.Items)
	assert.NotNil(t, v.Items)
}

func TestProductUsecase_ListAndCache(t *testing.T) {
	ctx := context.Background()
	calls := 0
	catalog := staticCountingCatalog{
		staticCatalog: staticCatalog{
			"1": {ID: "1", Title: "Backpack", Price: 100, Category: "bags", Rating: productdom.Rating{Rate: 3.9}},
			"2": {ID: "2", Title: "Shirt", Price: 20, Category: "clothing", Rating: productdom.Rating{Rate: 4.1}},
		},
		calls: &calls,
	}
	u := NewProductUsecase(catalog, time.Minute, nil)

	page, err := u.List(ctx, productdom.Filters{Categories: []string{"clothing"}})
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	assert.Equal(t, "2", page.Products[0].ID)
	assert.ElementsMatch(t, []string{"bags", "clothing"}, page.Categories)
	assert.Equal(t, 100.0, page.MaxPrice)

	_, err = u.List(ctx, productdom.Filters{})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	p, err := u.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Backpack", p.Title)
	assert.Equal(t, 1, calls)
}

type staticCountingCatalog struct {
	staticCatalog
	calls *int
}

func (c staticCountingCatalog) List(ctx context.Context) ([]productdom.Product, error) {
	*c.calls++
	return c.staticCatalog.List(ctx)
}

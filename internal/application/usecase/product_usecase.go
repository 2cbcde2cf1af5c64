// internal/application/usecase/product_usecase.go
package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	productdom "storefront/internal/domain/product"
)

// ProductPage is a filtered catalog listing plus the facets the filter UI
// is built from.
type ProductPage struct {
	Products   []productdom.Product `json:"products"`
	Total      int                  `json:"total"`
	Categories []string             `json:"categories"`
	MaxPrice   float64              `json:"maxPrice"`
}

// ProductUsecase serves the catalog with a short-lived in-process cache.
type ProductUsecase struct {
	catalog productdom.Catalog
	ttl     time.Duration
	now     func() time.Time
	log     *zap.Logger

	mu       sync.Mutex
	cached   []productdom.Product
	cachedAt time.Time
}

func NewProductUsecase(catalog productdom.Catalog, ttl time.Duration, logger *zap.Logger) *ProductUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductUsecase{
		catalog: catalog,
		ttl:     ttl,
		now:     time.Now,
		log:     logger.Named("product_usecase"),
	}
}

// List returns the products matching f. Facets are computed over the whole
// catalog so the filter UI does not shrink as filters are applied.
func (u *ProductUsecase) List(ctx context.Context, f productdom.Filters) (ProductPage, error) {
	all, err := u.all(ctx)
	if err != nil {
		return ProductPage{}, err
	}
	matched := f.Apply(all)
	return ProductPage{
		Products:   matched,
		Total:      len(matched),
		Categories: productdom.Categories(all),
		MaxPrice:   productdom.MaxPrice(all),
	}, nil
}

// Get returns one product, served from the cache when possible.
func (u *ProductUsecase) Get(ctx context.Context, id string) (productdom.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return productdom.Product{}, productdom.ErrNotFound
	}
	u.mu.Lock()
	for _, p := range u.cached {
		if p.ID == id && u.fresh() {
			u.mu.Unlock()
			return p, nil
		}
	}
	u.mu.Unlock()
	return u.catalog.GetByID(ctx, id)
}

func (u *ProductUsecase) all(ctx context.Context) ([]productdom.Product, error) {
	u.mu.Lock()
	if u.cached != nil && u.fresh() {
		out := u.cached
		u.mu.Unlock()
		return out, nil
	}
	u.mu.Unlock()

	list, err := u.catalog.List(ctx)
	if err != nil {
		return nil, err
	}
	u.log.Debug("catalog refreshed", zap.Int("products", len(list)))

	u.mu.Lock()
	u.cached = list
	u.cachedAt = u.now()
	u.mu.Unlock()
	return list, nil
}

func (u *ProductUsecase) fresh() bool {
	return u.ttl > 0 && u.now().Sub(u.cachedAt) < u.ttl
}

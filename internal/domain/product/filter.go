// internal/domain/product/filter.go
package product

import (
	"math"
	"strings"
)

// PriceRange is inclusive on both ends. Max <= 0 means no upper bound.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Filters mirrors the storefront sidebar: free-text search, category
// toggles, price range and star-rating toggles.
type Filters struct {
	Search     string     `json:"search,omitempty"`
	Categories []string   `json:"categories,omitempty"`
	Price      PriceRange `json:"price"`
	Ratings    []int      `json:"ratings,omitempty"`
}

// IsZero reports whether no filter is active.
func (f Filters) IsZero() bool {
	return strings.TrimSpace(f.Search) == "" &&
		len(f.Categories) == 0 &&
		f.Price.Min <= 0 && f.Price.Max <= 0 &&
		len(f.Ratings) == 0
}

// Match reports whether p passes every active filter.
func (f Filters) Match(p Product) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(strings.ToLower(p.Title), q) &&
			!strings.Contains(strings.ToLower(p.Description), q) {
			return false
		}
	}

	if len(f.Categories) > 0 && !containsFold(f.Categories, p.Category) {
		return false
	}

	if p.Price < f.Price.Min {
		return false
	}
	if f.Price.Max > 0 && p.Price > f.Price.Max {
		return false
	}

	if len(f.Ratings) > 0 {
		star := int(math.Floor(p.Rating.Rate))
		ok := false
		for _, r := range f.Ratings {
			if r == star {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}

	return true
}

// Apply returns the products that match, preserving input order.
func (f Filters) Apply(products []Product) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

// Categories returns the distinct non-empty categories in first-seen order.
func Categories(products []Product) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, p := range products {
		c := strings.TrimSpace(p.Category)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// MaxPrice returns the highest price in products (0 for an empty slice).
func MaxPrice(products []Product) float64 {
	max := 0.0
	for _, p := range products {
		if p.Price > max {
			max = p.Price
		}
	}
	return max
}

func containsFold(xs []string, v string) bool {
	v = strings.TrimSpace(v)
	for _, x := range xs {
		if strings.EqualFold(strings.TrimSpace(x), v) {
			return true
		}
	}
	return false
}

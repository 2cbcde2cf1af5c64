// internal/adapters/in/http/handlers/product_handler.go
package handlers

import (
	"net/http"
	"strconv"
	"strings"

	usecase "storefront/internal/application/usecase"
	productdom "storefront/internal/domain/product"
)

// ProductHandler serves the read-only catalog.
type ProductHandler struct {
	uc *usecase.ProductUsecase
}

func NewProductHandler(uc *usecase.ProductUsecase) http.Handler {
	return &ProductHandler{uc: uc}
}

func (h *ProductHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	switch {
	// GET /products?search=&categories=a,b&minPrice=&maxPrice=&ratings=4,5
	case r.URL.Path == "/products":
		page, err := h.uc.List(r.Context(), filtersFromQuery(r))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, page)

	// GET /products/{id}
	case strings.HasPrefix(r.URL.Path, "/products/"):
		id := pathID(r.URL.Path, "/products/")
		if id == "" {
			writeError(w, http.StatusNotFound, productdom.ErrNotFound.Error())
			return
		}
		p, err := h.uc.Get(r.Context(), id)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)

	default:
		http.NotFound(w, r)
	}
}

func filtersFromQuery(r *http.Request) productdom.Filters {
	q := r.URL.Query()
	f := productdom.Filters{
		Search:     strings.TrimSpace(q.Get("search")),
		Categories: splitCSV(q.Get("categories")),
		Price: productdom.PriceRange{
			Min: parseFloatDefault(q.Get("minPrice"), 0),
			Max: parseFloatDefault(q.Get("maxPrice"), 0),
		},
	}
	for _, s := range splitCSV(q.Get("ratings")) {
		if n, err := strconv.Atoi(s); err == nil {
			f.Ratings = append(f.Ratings, n)
		}
	}
	return f
}

// internal/adapters/in/http/handlers/order_handler.go
package handlers

import (
	"net/http"
	"strings"

	usecase "storefront/internal/application/usecase"
	orderdom "storefront/internal/domain/order"
)

// OrderHandler serves /orders. Mount it behind middleware.SessionGate.
type OrderHandler struct {
	uc *usecase.OrderUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase) http.Handler {
	return &OrderHandler{uc: uc}
}

func (h *OrderHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {

	// POST /orders (checkout)
	case r.Method == http.MethodPost && r.URL.Path == "/orders":
		var in usecase.PlaceOrderInput
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		o, err := h.uc.PlaceOrder(r.Context(), in)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, o)

	// GET /orders?status=delivered&limit=20
	case r.Method == http.MethodGet && r.URL.Path == "/orders":
		q := r.URL.Query()
		f := orderdom.Filter{
			Status: orderdom.Status(strings.TrimSpace(q.Get("status"))),
			Limit:  parseIntDefault(q.Get("limit"), 0),
		}
		orders, err := h.uc.ListOrders(r.Context(), f)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"orders": orders, "count": len(orders)})

	// GET /orders/quote?coupon=SAVE10
	case r.Method == http.MethodGet && r.URL.Path == "/orders/quote":
		t, err := h.uc.Quote(r.Context(), r.URL.Query().Get("coupon"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, t)

	// GET /orders/{id}
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/orders/"):
		id := pathID(r.URL.Path, "/orders/")
		if id == "" {
			writeError(w, http.StatusNotFound, orderdom.ErrNotFound.Error())
			return
		}
		o, err := h.uc.GetOrder(r.Context(), id)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, o)

	default:
		methodNotAllowed(w)
	}
}

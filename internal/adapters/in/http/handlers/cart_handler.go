// internal/adapters/in/http/handlers/cart_handler.go
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	usecase "storefront/internal/application/usecase"
	cartdom "storefront/internal/domain/cart"
	productdom "storefront/internal/domain/product"
)

// CartWatcher delivers every change of the canonical cart.
type CartWatcher interface {
	Subscribe(fn func(cartdom.Cart)) (unsubscribe func())
}

// CartHandler serves /cart, /cart/items/{id} and /cart/events.
type CartHandler struct {
	uc        *usecase.CartUsecase
	watcher   CartWatcher
	heartbeat time.Duration
}

func NewCartHandler(uc *usecase.CartUsecase, watcher CartWatcher) http.Handler {
	return &CartHandler{uc: uc, watcher: watcher, heartbeat: 25 * time.Second}
}

func (h *CartHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {

	// GET /cart
	case r.Method == http.MethodGet && r.URL.Path == "/cart":
		writeJSON(w, http.StatusOK, h.uc.Get(r.Context()))

	// DELETE /cart
	case r.Method == http.MethodDelete && r.URL.Path == "/cart":
		v, err := h.uc.Clear(r.Context())
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, v)

	// POST /cart/items
	//   body: {"id": "1"}                       -> catalog lookup
	//   body: {"id": "1", "title": ..., ...}    -> product as given
	case r.Method == http.MethodPost && r.URL.Path == "/cart/items":
		h.add(w, r)

	// DELETE /cart/items/{id}[?all=true]
	case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/cart/items/"):
		id := pathID(r.URL.Path, "/cart/items/")
		if id == "" {
			writeError(w, http.StatusBadRequest, "product id is required")
			return
		}
		var (
			v   usecase.CartView
			err error
		)
		if strings.EqualFold(r.URL.Query().Get("all"), "true") {
			v, err = h.uc.RemoveAll(r.Context(), id)
		} else {
			v, err = h.uc.RemoveOne(r.Context(), id)
		}
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, v)

	// GET /cart/events (server-sent events)
	case r.Method == http.MethodGet && r.URL.Path == "/cart/events":
		h.events(w, r)

	default:
		if r.URL.Path == "/cart" || r.URL.Path == "/cart/items" || r.URL.Path == "/cart/events" ||
			strings.HasPrefix(r.URL.Path, "/cart/items/") {
			methodNotAllowed(w)
			return
		}
		http.NotFound(w, r)
	}
}

func (h *CartHandler) add(w http.ResponseWriter, r *http.Request) {
	var p productdom.Product
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p.ID = strings.TrimSpace(p.ID)
	if p.ID == "" {
		writeError(w, http.StatusBadRequest, "product id is required")
		return
	}

	var (
		v   usecase.CartView
		err error
	)
	if p.Title == "" && p.Price == 0 {
		v, err = h.uc.Add(r.Context(), p.ID)
	} else {
		v, err = h.uc.AddProduct(r.Context(), p)
	}
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *CartHandler) events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok || h.watcher == nil {
		writeError(w, http.StatusNotImplemented, "streaming not supported")
		return
	}

	// Latest cart wins; observers must never block the engine.
	updates := make(chan cartdom.Cart, 1)
	unsubscribe := h.watcher.Subscribe(func(c cartdom.Cart) {
		for {
			select {
			case updates <- c:
				return
			default:
				select {
				case <-updates:
				default:
				}
			}
		}
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, h.uc.Get(r.Context())); err != nil {
		return
	}
	flusher.Flush()

	tick := time.NewTicker(h.heartbeat)
	defer tick.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case c := <-updates:
			if err := writeEvent(w, usecase.NewCartView(c)); err != nil {
				return
			}
			flusher.Flush()
		case <-tick.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, v usecase.CartView) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: cart\ndata: %s\n\n", b)
	return err
}

// internal/adapters/in/http/router.go
package httpin

import (
	"net/http"

	"go.uber.org/zap"

	"storefront/internal/adapters/in/http/handlers"
	"storefront/internal/adapters/in/http/middleware"
	usecase "storefront/internal/application/usecase"
)

// RouterDeps collects the usecases injected by the DI container.
type RouterDeps struct {
	Session     handlers.SessionService
	Cart        *usecase.CartUsecase
	CartWatcher handlers.CartWatcher
	Orders      *usecase.OrderUsecase
	Products    *usecase.ProductUsecase
	Contact     *usecase.ContactUsecase

	AllowOrigin string
	Logger      *zap.Logger
}

// NewRouter sets up the local storefront API.
func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()

	// Health check (always on)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Mount only what is wired.
	if deps.Session != nil {
		mux.Handle("/session", handlers.NewSessionHandler(deps.Session))
	}

	if deps.Cart != nil {
		h := handlers.NewCartHandler(deps.Cart, deps.CartWatcher)
		mux.Handle("/cart", h)
		mux.Handle("/cart/", h)
	}

	if deps.Orders != nil {
		gate := &middleware.SessionGate{Session: deps.Session}
		h := gate.Handler(handlers.NewOrderHandler(deps.Orders))
		mux.Handle("/orders", h)
		mux.Handle("/orders/", h)
	}

	if deps.Products != nil {
		h := handlers.NewProductHandler(deps.Products)
		mux.Handle("/products", h)
		mux.Handle("/products/", h)
	}

	if deps.Contact != nil {
		mux.Handle("/contact", handlers.NewContactHandler(deps.Contact))
	}

	// CORS outermost so even panics carry CORS headers.
	var h http.Handler = mux
	h = middleware.RequestLog(deps.Logger)(h)
	h = middleware.Recover(deps.Logger)(h)
	h = middleware.CORS(deps.AllowOrigin)(h)
	return h
}

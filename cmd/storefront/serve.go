// cmd/storefront/serve.go
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"storefront/internal/adapters/in/http/middleware"
	"storefront/internal/platform/di"
)

// atomicHandler allows swapping the underlying handler at runtime safely.
type atomicHandler struct {
	v atomic.Value // stores http.Handler
}

func newAtomicHandler(initial http.Handler) *atomicHandler {
	ah := &atomicHandler{}
	if initial == nil {
		initial = http.NotFoundHandler()
	}
	ah.v.Store(initial)
	return ah
}

func (h *atomicHandler) Store(next http.Handler) {
	if next == nil {
		return
	}
	h.v.Store(next)
}

func (h *atomicHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.v.Load().(http.Handler).ServeHTTP(w, r)
}

func healthOnly(origin string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return middleware.CORS(origin)(mux)
}

func serveCmd(a *app) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the local storefront API",
		Long: `Serve the storefront API for a UI shell.

/healthz answers immediately; the full API is swapped in once the cloud
clients are initialized.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port == "" {
				port = a.cfg.Port
			}
			return a.serve(cmd.Context(), port)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "Listen port (default from PORT)")
	return cmd
}

func (a *app) serve(ctx context.Context, port string) error {
	log := a.log.Named("boot")
	switcher := newAtomicHandler(healthOnly(a.cfg.AllowOrigin))

	// Cancelled before Shutdown so /cart/events streams end.
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     switcher,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
		BaseContext: func(net.Listener) context.Context { return baseCtx },
	}

	var holder atomic.Pointer[di.Container]
	ready := make(chan struct{})

	// Heavy DI init in background; then swap handler to the full API.
	go func() {
		defer close(ready)
		initCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		defer cancel()

		c, err := di.Build(initCtx, a.cfg, a.log)
		if err != nil {
			log.Warn("di init failed; serving /healthz only", zap.Error(err))
			return
		}
		if ctx.Err() != nil {
			_ = c.Close()
			return
		}
		st := c.Restore(ctx)
		holder.Store(c)

		switcher.Store(c.Handler())
		log.Info("handler switched to storefront router", zap.Stringer("session", st))
	}()

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", srv.Addr), zap.Bool("offline", a.cfg.Offline))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case serveErr = <-errCh:
	}

	cancelBase()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("server shutdown", zap.Error(err))
	}

	<-ready
	if c := holder.Load(); c != nil {
		if err := c.Close(); err != nil {
			log.Warn("container close", zap.Error(err))
		}
	}
	log.Info("server stopped")
	return serveErr
}

// internal/adapters/in/http/middleware/session_gate.go
package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	sessiondom "storefront/internal/domain/session"
)

// SessionReader exposes the process-wide session.
type SessionReader interface {
	Current() sessiondom.State
}

type ctxKey struct{ name string }

var ctxKeyIdentity = ctxKey{name: "identity"}

// SessionGate rejects requests with 401 while nobody is signed in and
// stores the identity in the request context otherwise.
type SessionGate struct {
	Session SessionReader
}

func (g *SessionGate) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g == nil || g.Session == nil {
			writeGateError(w, http.StatusServiceUnavailable, "session gate not initialized")
			return
		}
		st := g.Session.Current()
		if !st.IsAuthenticated() {
			writeGateError(w, http.StatusUnauthorized, "unauthenticated")
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyIdentity, st.Identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CurrentIdentity returns the identity stored by SessionGate.
func CurrentIdentity(r *http.Request) (sessiondom.Identity, bool) {
	id, ok := r.Context().Value(ctxKeyIdentity).(sessiondom.Identity)
	return id, ok
}

func writeGateError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

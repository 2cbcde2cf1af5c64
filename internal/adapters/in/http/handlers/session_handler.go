// internal/adapters/in/http/handlers/session_handler.go
package handlers

import (
	"context"
	"errors"
	"net/http"

	"storefront/internal/application/cartsync"
	sessiondom "storefront/internal/domain/session"
)

// SessionService is the session manager as seen over HTTP.
type SessionService interface {
	Current() sessiondom.State
	SignIn(ctx context.Context, idToken string) (sessiondom.State, error)
	SignOut(ctx context.Context) error
}

type sessionResponse struct {
	Authenticated bool                 `json:"authenticated"`
	User          *sessiondom.Identity `json:"user,omitempty"`
	Warning       string               `json:"warning,omitempty"`
}

func toSessionResponse(st sessiondom.State) sessionResponse {
	if !st.IsAuthenticated() {
		return sessionResponse{}
	}
	id := st.Identity
	return sessionResponse{Authenticated: true, User: &id}
}

// SessionHandler serves /session.
type SessionHandler struct {
	svc SessionService
}

func NewSessionHandler(svc SessionService) http.Handler {
	return &SessionHandler{svc: svc}
}

func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, toSessionResponse(h.svc.Current()))

	// POST /session {"idToken": "..."}
	case http.MethodPost:
		var body struct {
			IDToken string `json:"idToken"`
		}
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		st, err := h.svc.SignIn(r.Context(), body.IDToken)
		if err != nil && !errors.Is(err, cartsync.ErrMergeFailed) {
			writeErr(w, err)
			return
		}
		// A failed cart merge is reported but does not undo the sign-in.
		resp := toSessionResponse(st)
		if err != nil {
			resp.Warning = err.Error()
		}
		writeJSON(w, http.StatusOK, resp)

	case http.MethodDelete:
		if err := h.svc.SignOut(r.Context()); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w)
	}
}

// internal/adapters/in/http/handlers/helpers.go
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"storefront/internal/application/cartsync"
	usecase "storefront/internal/application/usecase"
	cartdom "storefront/internal/domain/cart"
	contactdom "storefront/internal/domain/contact"
	orderdom "storefront/internal/domain/order"
	productdom "storefront/internal/domain/product"
	sessiondom "storefront/internal/domain/session"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeErr maps sentinel errors to status codes.
func writeErr(w http.ResponseWriter, err error) {
	writeError(w, statusOf(err), err.Error())
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, sessiondom.ErrUnauthenticated),
		errors.Is(err, sessiondom.ErrInvalidToken):
		return http.StatusUnauthorized

	case errors.Is(err, orderdom.ErrNotFound),
		errors.Is(err, productdom.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, orderdom.ErrConflict),
		errors.Is(err, usecase.ErrEmptyCart):
		return http.StatusConflict

	case errors.Is(err, cartdom.ErrInvalidProduct),
		errors.Is(err, cartdom.ErrUnknownAction),
		errors.Is(err, productdom.ErrInvalidProduct),
		errors.Is(err, orderdom.ErrInvalidAddress),
		errors.Is(err, orderdom.ErrInvalidEmail),
		errors.Is(err, orderdom.ErrInvalidItems),
		errors.Is(err, orderdom.ErrInvalidCoupon),
		errors.Is(err, contactdom.ErrInvalidName),
		errors.Is(err, contactdom.ErrInvalidEmail),
		errors.Is(err, contactdom.ErrInvalidMessage):
		return http.StatusBadRequest

	case errors.Is(err, cartsync.ErrMergeFailed):
		return http.StatusBadGateway

	case errors.Is(err, cartsync.ErrClosed):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.New("invalid json: " + err.Error())
	}
	return nil
}

func parseIntDefault(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func parseFloatDefault(s string, def float64) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return def
	}
	return f
}

// splitCSV parses "a,b,c" / "a, b, c" into []string (empty trimmed items are removed).
func splitCSV(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// pathID returns the single segment after prefix, or "".
func pathID(path, prefix string) string {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" || strings.Contains(rest, "/") {
		return ""
	}
	return rest
}

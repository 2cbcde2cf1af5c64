// internal/domain/session/state.go
package session

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrUnauthenticated = errors.New("session: unauthenticated")
	ErrInvalidToken    = errors.New("session: invalid id token")
)

// Identity is the verified result of a sign-in.
type Identity struct {
	UID   string `json:"uid"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// State is either unauthenticated (zero value) or authenticated with a UID.
type State struct {
	Identity
}

// Unauthenticated returns the signed-out state.
func Unauthenticated() State { return State{} }

// Authenticated returns the signed-in state for id.
func Authenticated(id Identity) State {
	id.UID = strings.TrimSpace(id.UID)
	id.Email = strings.TrimSpace(id.Email)
	id.Name = strings.TrimSpace(id.Name)
	return State{Identity: id}
}

func (s State) IsAuthenticated() bool { return strings.TrimSpace(s.UID) != "" }

func (s State) String() string {
	if !s.IsAuthenticated() {
		return "unauthenticated"
	}
	return "authenticated(" + s.UID + ")"
}

// TokenVerifier turns an identity-provider token into a verified identity.
type TokenVerifier interface {
	Verify(ctx context.Context, idToken string) (Identity, error)
}

// Store persists the last signed-in identity on the device.
type Store interface {
	Load(ctx context.Context) (Identity, bool, error)
	Save(ctx context.Context, id Identity) error
	Delete(ctx context.Context) error
}

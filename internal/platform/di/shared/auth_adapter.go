// internal/platform/di/shared/auth_adapter.go
package shared

import (
	"context"
	"errors"
	"strings"

	firebaseauth "firebase.google.com/go/v4/auth"

	sessiondom "storefront/internal/domain/session"
)

// FirebaseVerifier adapts Firebase Auth to sessiondom.TokenVerifier.
type FirebaseVerifier struct {
	Auth *firebaseauth.Client
}

func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (sessiondom.Identity, error) {
	if v == nil || v.Auth == nil {
		return sessiondom.Identity{}, errors.New("shared.FirebaseVerifier: auth client is nil")
	}
	tok, err := v.Auth.VerifyIDToken(ctx, idToken)
	if err != nil {
		return sessiondom.Identity{}, err
	}
	return identityFromClaims(tok.UID, tok.Claims)
}

func identityFromClaims(uid string, claims map[string]any) (sessiondom.Identity, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return sessiondom.Identity{}, errors.New("shared.FirebaseVerifier: empty uid in token")
	}
	id := sessiondom.Identity{UID: uid}
	if s, ok := claims["email"].(string); ok {
		id.Email = strings.TrimSpace(s)
	}
	if s, ok := claims["name"].(string); ok {
		id.Name = strings.TrimSpace(s)
	}
	return id, nil
}

// DevVerifier accepts unsigned tokens of the form "uid[:email[:name]]".
// It is wired only in offline mode.
type DevVerifier struct{}

func (DevVerifier) Verify(_ context.Context, idToken string) (sessiondom.Identity, error) {
	parts := strings.SplitN(strings.TrimSpace(idToken), ":", 3)
	id := sessiondom.Identity{UID: strings.TrimSpace(parts[0])}
	if id.UID == "" {
		return sessiondom.Identity{}, errors.New("shared.DevVerifier: empty uid")
	}
	if len(parts) > 1 {
		id.Email = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 {
		id.Name = strings.TrimSpace(parts[2])
	}
	return id, nil
}

package sqlite

import (
	"context"
	"encoding/json"
	"strings"

	sessiondom "storefront/internal/domain/session"
)

// UserKey is the kv key holding the last signed-in identity.
const UserKey = "user"

// SessionStore implements session.Store on top of KVStore.
type SessionStore struct {
	kv *KVStore
}

var _ sessiondom.Store = (*SessionStore)(nil)

func NewSessionStore(kv *KVStore) *SessionStore {
	return &SessionStore{kv: kv}
}

func (s *SessionStore) Load(ctx context.Context) (sessiondom.Identity, bool, error) {
	raw, ok, err := s.kv.Get(ctx, UserKey)
	if err != nil || !ok {
		return sessiondom.Identity{}, false, err
	}
	var id sessiondom.Identity
	if err := json.Unmarshal([]byte(raw), &id); err != nil {
		return sessiondom.Identity{}, false, err
	}
	if strings.TrimSpace(id.UID) == "" {
		return sessiondom.Identity{}, false, nil
	}
	return id, true, nil
}

func (s *SessionStore) Save(ctx context.Context, id sessiondom.Identity) error {
	b, err := json.Marshal(id)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, UserKey, string(b))
}

func (s *SessionStore) Delete(ctx context.Context) error {
	return s.kv.Delete(ctx, UserKey)
}

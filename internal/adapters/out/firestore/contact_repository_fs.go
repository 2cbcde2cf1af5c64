// internal/adapters/out/firestore/contact_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"

	contactdom "storefront/internal/domain/contact"
)

// ContactRepositoryFS stores contact-form messages in the contacts collection.
type ContactRepositoryFS struct {
	Client *firestore.Client
}

var _ contactdom.Repository = (*ContactRepositoryFS)(nil)

func NewContactRepositoryFS(client *firestore.Client) *ContactRepositoryFS {
	return &ContactRepositoryFS{Client: client}
}

func (r *ContactRepositoryFS) Create(ctx context.Context, m contactdom.Message) (contactdom.Message, error) {
	if r.Client == nil {
		return contactdom.Message{}, errors.New("contact_repository_fs: firestore client is nil")
	}
	ref := r.Client.Collection("contacts").NewDoc()
	data := map[string]any{
		"name":      m.Name,
		"email":     m.Email,
		"message":   m.Message,
		"createdAt": firestore.ServerTimestamp,
	}
	if m.UserID != "" {
		data["userId"] = m.UserID
	}
	if _, err := ref.Create(ctx, data); err != nil {
		return contactdom.Message{}, err
	}
	m.ID = ref.ID
	m.CreatedAt = time.Now().UTC()
	return m, nil
}

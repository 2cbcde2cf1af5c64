// internal/domain/contact/entity.go
package contact

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	ErrInvalidName    = errors.New("contact: name must be at least 2 characters")
	ErrInvalidEmail   = errors.New("contact: invalid email")
	ErrInvalidMessage = errors.New("contact: message must be at least 10 characters")
)

const (
	MinNameLen    = 2
	MinMessageLen = 10
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Message is a contact-form submission.
type Message struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	UserID    string    `json:"userId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// New trims and validates a submission.
func New(name, email, message, userID string) (Message, error) {
	m := Message{
		Name:    strings.TrimSpace(name),
		Email:   strings.TrimSpace(email),
		Message: strings.TrimSpace(message),
		UserID:  strings.TrimSpace(userID),
	}
	if err := m.Validate(); err != nil {
		return Message{}, err
	}
	return m, nil
}

func (m Message) Validate() error {
	if utf8.RuneCountInString(strings.TrimSpace(m.Name)) < MinNameLen {
		return ErrInvalidName
	}
	if !emailPattern.MatchString(strings.TrimSpace(m.Email)) {
		return ErrInvalidEmail
	}
	if utf8.RuneCountInString(strings.TrimSpace(m.Message)) < MinMessageLen {
		return ErrInvalidMessage
	}
	return nil
}

// Repository stores contact messages. Create assigns ID and CreatedAt.
type Repository interface {
	Create(ctx context.Context, m Message) (Message, error)
}

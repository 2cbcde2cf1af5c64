// internal/application/usecase/contact_usecase.go
package usecase

import (
	"context"

	"go.uber.org/zap"

	contactdom "storefront/internal/domain/contact"
)

// ContactInput is the contact form.
type ContactInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// ContactUsecase validates and stores contact messages. Signing in is not
// required; when a session exists its uid is attached.
type ContactUsecase struct {
	repo    contactdom.Repository
	session SessionState
	log     *zap.Logger
}

func NewContactUsecase(repo contactdom.Repository, session SessionState, logger *zap.Logger) *ContactUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContactUsecase{repo: repo, session: session, log: logger.Named("contact_usecase")}
}

func (u *ContactUsecase) Submit(ctx context.Context, in ContactInput) (contactdom.Message, error) {
	uid := ""
	if u.session != nil {
		if st := u.session.Current(); st.IsAuthenticated() {
			uid = st.UID
		}
	}
	m, err := contactdom.New(in.Name, in.Email, in.Message, uid)
	if err != nil {
		return contactdom.Message{}, err
	}
	saved, err := u.repo.Create(ctx, m)
	if err != nil {
		return contactdom.Message{}, err
	}
	u.log.Info("contact message stored", zap.String("id", saved.ID))
	return saved, nil
}

package account

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/letsgobuy/storefront/internal/feira"
	"github.com/letsgobuy/storefront/internal/session"
	"github.com/letsgobuy/storefront/pkg/model"
)

var (
	ErrPasswordMismatch = errors.New("password and confirmation do not match")
	ErrBlankEmail       = errors.New("new email is blank")
)

// API is the part of the backend used by account flows.
type API interface {
	Login(ctx context.Context, email, password string) (*feira.UserResponse, error)
	Register(ctx context.Context, r *feira.RegisterRequest) (*feira.UserResponse, error)
	UpdateEmail(ctx context.Context, id, email string) (*feira.UserResponse, error)
}

// Service runs login, registration and profile updates against the session store.
type Service struct {
	api      API
	sessions *session.Store
	logger   *zap.Logger
}

func NewService(api API, sessions *session.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{api: api, sessions: sessions, logger: logger}
}

// Login authenticates and stores the user summary in the session. The display name is
// the email.
func (s *Service) Login(ctx context.Context, email, password string) (model.User, error) {
	resp, err := s.api.Login(ctx, strings.TrimSpace(email), password)
	if err != nil {
		s.logger.Info("account.login_failed", zap.String("email", email), zap.Error(err))
		return model.User{}, err
	}
	u := model.User{ID: resp.ID, Name: resp.Email, Email: resp.Email, Type: resp.Type}
	if err := s.sessions.Set(ctx, u); err != nil {
		return model.User{}, err
	}
	s.logger.Info("account.logged_in", zap.String("user_id", u.ID))
	return u, nil
}

// Logout clears the session.
func (s *Service) Logout(ctx context.Context) error {
	return s.sessions.Logout(ctx)
}

// RegisterInput is the sign-up form.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Confirm  string
	Type     string
}

// Register creates an account after checking the confirmation locally.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*feira.UserResponse, error) {
	if in.Password != in.Confirm {
		return nil, ErrPasswordMismatch
	}
	typ := in.Type
	if typ == "" {
		typ = model.UserTypeUser
	}
	req := &feira.RegisterRequest{
		Name:     strings.TrimSpace(in.Name),
		Email:    strings.TrimSpace(in.Email),
		Password: in.Password,
		Type:     typ,
	}
	if err := feira.Validate(req); err != nil {
		return nil, err
	}
	return s.api.Register(ctx, req)
}

// ChangeEmail updates the logged-in user's email and patches the session on success.
func (s *Service) ChangeEmail(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrBlankEmail
	}
	u, ok := s.sessions.Current()
	if !ok {
		return session.ErrNoUser
	}
	if _, err := s.api.UpdateEmail(ctx, u.ID, email); err != nil {
		s.logger.Info("account.email_change_failed", zap.String("user_id", u.ID), zap.Error(err))
		return err
	}
	return s.sessions.PatchEmail(ctx, email)
}

// ChangePassword only checks the confirmation; the backend has no password endpoint.
func (s *Service) ChangePassword(current, next, confirm string) error {
	if next != confirm {
		return ErrPasswordMismatch
	}
	return nil
}

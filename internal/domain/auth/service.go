package auth

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type UserStore interface {
	FindActiveUserByEmail(ctx context.Context, email string) (AuthUser, error)
	UpdateLastLogin(ctx context.Context, userID string) error
}

type Service struct {
	store  UserStore
	secret string
	log    *zap.Logger
}

func NewService(store UserStore, secret string, log *zap.Logger) *Service {
	return &Service{store: store, secret: secret, log: log.Named("auth.service")}
}

type LoginResult struct {
	Token string
	User  AuthUser
}

// Login checks the credentials and issues a signed token. Unknown e-mails and
// wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	user, err := s.store.FindActiveUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}
	if err := CheckPassword(user.Password, password); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := GenerateToken(s.secret, Claims{UserID: user.ID, TenantID: user.TenantID, RoleName: user.RoleName}, TokenTTL)
	if err != nil {
		return LoginResult{}, err
	}
	if err := s.store.UpdateLastLogin(ctx, user.ID); err != nil {
		s.log.Warn("update last_login failed", zap.String("userId", user.ID), zap.Error(err))
	}
	user.Password = ""
	return LoginResult{Token: token, User: user}, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cyberkittens/kittens/internal/auth"
	"github.com/cyberkittens/kittens/internal/metrics"
	"github.com/cyberkittens/kittens/internal/model"
	"github.com/cyberkittens/kittens/internal/repository"
)

// UserFinder looks users up by email.
type UserFinder interface {
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

// TokenIssuer mints bearer tokens for a user ID.
type TokenIssuer interface {
	Issue(userID string) (string, time.Time, error)
}

// LoginResult is returned on successful login.
type LoginResult struct {
	User      *model.User
	Token     string
	ExpiresAt time.Time
}

// LoginService exchanges email and password for a bearer token.
// It never creates or modifies users.
type LoginService struct {
	users   UserFinder
	tokens  TokenIssuer
	metrics metrics.Recorder
}

// NewLoginService creates a new LoginService.
func NewLoginService(users UserFinder, tokens TokenIssuer, recorder metrics.Recorder) *LoginService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &LoginService{users: users, tokens: tokens, metrics: recorder}
}

// Login verifies credentials and issues a token.
// Unknown email and wrong password both return auth.ErrInvalidCredentials.
func (s *LoginService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("failed to look up user: %w", err)
		}
		// Burn the same hashing cost as a real check.
		_ = auth.CheckPassword(password, "")
		s.metrics.IncAuthFailure(metrics.ReasonBadLogin)
		return nil, auth.ErrInvalidCredentials
	}

	if err := auth.CheckPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.metrics.IncAuthFailure(metrics.ReasonBadLogin)
			return nil, auth.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}

	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &LoginResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

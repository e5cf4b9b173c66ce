package auth

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/routepulse/server/internal/errs"
	"github.com/routepulse/server/internal/model"
	"github.com/routepulse/server/internal/repo"
)

// Service orchestrates registration and login.
type Service struct {
	users  repo.UserRepo
	tokens *TokenService
	log    *zap.Logger
}

// NewService creates a new auth service.
func NewService(users repo.UserRepo, tokens *TokenService, log *zap.Logger) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		log:    log,
	}
}

// Register creates a user with a hashed password. A taken username or email
// yields errs.ErrConflict.
func (s *Service) Register(ctx context.Context, username, email, password string) (model.User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return model.User{}, err
	}

	user, err := s.users.Create(ctx, username, email, hash)
	if err != nil {
		if errors.Is(err, errs.ErrConflict) {
			s.log.Warn("registration rejected, username or email taken",
				zap.String("username", username))
			return model.User{}, err
		}
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info("user registered",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username))
	return user, nil
}

// Login verifies credentials and mints an identity token. Unknown email and
// wrong password both yield errs.ErrUnauthenticated, indistinguishably.
func (s *Service) Login(ctx context.Context, email, password string) (model.User, string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			s.log.Warn("login attempt for unknown email")
			return model.User{}, "", errs.ErrUnauthenticated
		}
		return model.User{}, "", fmt.Errorf("failed to query user: %w", err)
	}

	if !VerifyPassword(password, user.PasswordHash) {
		s.log.Warn("login attempt with wrong password",
			zap.String("user_id", user.ID.String()))
		return model.User{}, "", errs.ErrUnauthenticated
	}

	token, err := s.tokens.Issue(user.ID, user.Username, user.Email)
	if err != nil {
		return model.User{}, "", fmt.Errorf("failed to issue token: %w", err)
	}

	s.log.Info("login successful", zap.String("user_id", user.ID.String()))
	return user, token, nil
}

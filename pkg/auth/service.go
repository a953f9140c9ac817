package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Service implements local registration, login and account settings
type Service struct {
	store UserStore
	log   *logrus.Logger
}

// NewService creates a new auth service
func NewService(store UserStore, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.New()
	}
	return &Service{
		store: store,
		log:   log,
	}
}

// Register creates a local account and immediately authenticates with the
// new credential. No user is created when the confirmation differs.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if req.Password != req.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	if req.Username == "" {
		return nil, ErrMissingCredentials
	}
	if err := ValidatePassword(req.Password); err != nil {
		return nil, err
	}

	_, err := s.store.GetByUsername(ctx, req.Username)
	if err == nil {
		return nil, ErrUserExists
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := s.store.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"username": user.Username,
	}).Info("registered local user")

	return s.Authenticate(ctx, req.Username, req.Password)
}

// Authenticate verifies a username/password pair.
// Unknown users and wrong passwords both yield ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := s.store.GetByUsername(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := CheckPassword(user.PasswordHash, password); err != nil {
		if errors.Is(err, ErrIncorrectPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	return user, nil
}

// ChangeUsername overwrites the username of userID.
// Duplicate usernames are not rejected here.
func (s *Service) ChangeUsername(ctx context.Context, userID, username string) (*User, error) {
	user, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	user.Username = username
	if err := s.store.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

// ChangePassword replaces the password of userID after verifying the old one
func (s *Service) ChangePassword(ctx context.Context, userID string, req ChangePasswordRequest) (*User, error) {
	if req.NewPassword != req.ConfirmNewPassword {
		return nil, ErrPasswordMismatch
	}
	if err := ValidatePassword(req.NewPassword); err != nil {
		return nil, err
	}

	user, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := CheckPassword(user.PasswordHash, req.OldPassword); err != nil {
		return nil, err
	}

	hash, err := HashPassword(req.NewPassword)
	if err != nil {
		return nil, err
	}

	user.PasswordHash = hash
	if err := s.store.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.log.WithField("user_id", user.ID).Info("password changed")
	return user, nil
}

// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package auth implements the credential store: registration, password
// login and the admin bootstrap.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"codeberg.org/oliverandrich/godfactor/internal/config"
	"codeberg.org/oliverandrich/godfactor/internal/models"
	"codeberg.org/oliverandrich/godfactor/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrDuplicateIdentity  = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// dummyHash is used for constant-time login to prevent timing attacks
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), bcrypt.DefaultCost)

type Service struct {
	repo              *repository.Repository
	config            *config.AuthConfig
	passwordValidator *PasswordValidator
	now               func() time.Time
}

func NewService(repo *repository.Repository, cfg *config.AuthConfig) *Service {
	return &Service{
		repo:              repo,
		config:            cfg,
		passwordValidator: &PasswordValidator{MinLength: cfg.MinPasswordLength},
		now:               time.Now,
	}
}

// FindByEmail returns the user with exactly this email, or nil if none exists.
func (s *Service) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// FindByID returns the user with this ID, or nil if none exists.
func (s *Service) FindByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// Register creates a believer account.
func (s *Service) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	return s.create(ctx, name, email, password, models.RoleBeliever)
}

func (s *Service) create(ctx context.Context, name, email, password string, role models.Role) (*models.User, error) {
	if err := s.passwordValidator.Validate(password); err != nil {
		return nil, err
	}

	exists, err := s.repo.UserExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists {
		return nil, ErrDuplicateIdentity
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost())
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// The unique index decides when two signups race past the check above.
	user, err := s.repo.CreateUser(ctx, name, email, string(passwordHash), role)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, ErrDuplicateIdentity
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("register_success", "user_id", user.ID, "email", email, "role", role)
	return user, nil
}

func (s *Service) bcryptCost() int {
	if s.config.BcryptCost < bcrypt.MinCost {
		return bcrypt.DefaultCost
	}
	return s.config.BcryptCost
}

// Login authenticates a user and returns the user if successful
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Constant-time: always perform bcrypt comparison to prevent timing attacks
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			slog.Warn("login_failed", "email", email, "reason", "user_not_found")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		slog.Warn("login_failed", "email", email, "reason", "invalid_password")
		return nil, ErrInvalidCredentials
	}

	s.TouchLogin(ctx, user)

	slog.Info("login_success", "user_id", user.ID, "email", email)
	return user, nil
}

// TouchLogin records the login time. Failures are logged and otherwise ignored.
func (s *Service) TouchLogin(ctx context.Context, user *models.User) {
	now := s.now().UTC()
	if err := s.repo.TouchLogin(ctx, user.ID, now); err != nil {
		slog.Warn("touch_login_failed", "user_id", user.ID, "error", err)
		return
	}
	user.LastLogin = &now
}

// EnsureAdmin ensures at least one admin exists, creating or promoting the
// account with the given email if needed.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	count, err := s.repo.CountAdmins(ctx)
	if err != nil {
		return fmt.Errorf("failed to count admins: %w", err)
	}

	if count > 0 {
		return nil // Admin already exists
	}

	user, err := s.create(ctx, "Admin", email, password, models.RoleAdmin)
	if err == nil {
		slog.Info("admin_created", "user_id", user.ID, "email", email)
		return nil
	}
	if !errors.Is(err, ErrDuplicateIdentity) {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	existing, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if err := s.repo.SetUserRole(ctx, existing.ID, models.RoleAdmin); err != nil {
		return fmt.Errorf("failed to set admin: %w", err)
	}

	slog.Info("admin_promoted", "user_id", existing.ID, "email", email)
	return nil
}

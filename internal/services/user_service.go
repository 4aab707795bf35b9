package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BradenHooton/inscriptions/internal/models"
	"github.com/BradenHooton/inscriptions/pkg/auth"
)

// AdminUserRepository defines the admin account operations UserService needs
type AdminUserRepository interface {
	GetByUsername(ctx context.Context, username string) (*models.AdminUser, error)
	List(ctx context.Context) ([]*models.AdminUser, error)
	Create(ctx context.Context, user *models.AdminUser) (*models.AdminUser, error)
	DeleteUnlessLast(ctx context.Context, id int64) error
	ReplaceByUsername(ctx context.Context, user *models.AdminUser) (*models.AdminUser, int64, error)
}

// AttemptPurger clears the login ledger
type AttemptPurger interface {
	Purge(ctx context.Context) (int64, error)
}

// UserService manages dashboard administrator accounts
type UserService struct {
	repo   AdminUserRepository
	hasher PasswordHasher
	logger *slog.Logger
}

// NewUserService creates a new UserService
func NewUserService(repo AdminUserRepository, hasher PasswordHasher, logger *slog.Logger) *UserService {
	return &UserService{
		repo:   repo,
		hasher: hasher,
		logger: logger,
	}
}

// ListAdmins returns every admin ordered by username
func (s *UserService) ListAdmins(ctx context.Context) ([]*models.AdminUser, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list admin users", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return users, nil
}

// CreateAdmin adds an administrator. Duplicate usernames return models.ErrConflict.
func (s *UserService) CreateAdmin(ctx context.Context, username, password string) (*models.AdminUser, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("username is required: %w", models.ErrBadRequest)
	}
	if err := auth.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrWeakPassword, err)
	}

	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		s.logger.Info("admin user already exists")
		return nil, models.ErrConflict
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to look up admin user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	created, err := s.repo.Create(ctx, &models.AdminUser{Username: username, PasswordHash: hash})
	if err != nil {
		// Lost a race with a concurrent create
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create admin user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("admin user created", slog.Int64("user_id", created.ID))
	return created, nil
}

// DeleteAdmin removes an administrator unless it is the last one
func (s *UserService) DeleteAdmin(ctx context.Context, id int64) error {
	err := s.repo.DeleteUnlessLast(ctx, id)
	switch {
	case err == nil:
		s.logger.Info("admin user deleted", slog.Int64("user_id", id))
		return nil
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrLastAdmin):
		return err
	default:
		s.logger.Error("failed to delete admin user", slog.Int64("user_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}
}

// EnsureAdmin creates the bootstrap administrator when it does not exist yet.
// It reports whether an account was created.
func (s *UserService) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	_, err := s.repo.GetByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return false, fmt.Errorf("failed to look up bootstrap admin: %w", err)
	}

	if _, err := s.CreateAdmin(ctx, username, password); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create bootstrap admin: %w", err)
	}
	return true, nil
}

// ResetAdmin replaces the account named username with a fresh one and clears
// every recorded login attempt. The old account is only gone once the new one
// is stored. It returns the number of purged attempts.
func (s *UserService) ResetAdmin(ctx context.Context, username, password string, attempts AttemptPurger) (*models.AdminUser, int64, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, 0, fmt.Errorf("username is required: %w", models.ErrBadRequest)
	}
	if err := auth.ValidatePassword(password); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", models.ErrWeakPassword, err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to hash password: %w", err)
	}

	user, removed, err := s.repo.ReplaceByUsername(ctx, &models.AdminUser{Username: username, PasswordHash: hash})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to replace admin %q: %w", username, err)
	}
	if removed > 0 {
		s.logger.Info("replaced existing admin account", slog.Int64("user_id", user.ID))
	}

	purged, err := attempts.Purge(ctx)
	if err != nil {
		return user, 0, fmt.Errorf("failed to purge login attempts: %w", err)
	}

	return user, purged, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BradenHooton/inscriptions/internal/models"
)

// RegistrationRepository defines the sign-up storage operations
type RegistrationRepository interface {
	List(ctx context.Context, order models.RegistrationOrder) ([]*models.Registration, error)
	GetByID(ctx context.Context, id int64) (*models.Registration, error)
	GetByPhone(ctx context.Context, phone string) (*models.Registration, error)
	Create(ctx context.Context, reg *models.Registration) (*models.Registration, error)
	Update(ctx context.Context, id int64, reg *models.Registration) (*models.Registration, error)
	Delete(ctx context.Context, id int64) error
	Stats(ctx context.Context) (*models.RegistrationStats, error)
}

// RegistrationService handles attendee sign-ups
type RegistrationService struct {
	repo   RegistrationRepository
	logger *slog.Logger
}

// NewRegistrationService creates a new RegistrationService
func NewRegistrationService(repo RegistrationRepository, logger *slog.Logger) *RegistrationService {
	return &RegistrationService{
		repo:   repo,
		logger: logger,
	}
}

// prepare trims free text, defaults optional answers and drops the conditional
// fields that do not apply
func prepare(reg *models.Registration) error {
	reg.FirstName = strings.TrimSpace(reg.FirstName)
	reg.LastName = strings.TrimSpace(reg.LastName)
	reg.Phone = strings.TrimSpace(reg.Phone)
	reg.Church = strings.TrimSpace(reg.Church)
	if reg.IsStudent == "" {
		reg.IsStudent = models.No
	}

	if reg.Age < models.MinAttendeeAge {
		return models.ErrUnderage
	}

	reg.Normalize()
	return nil
}

// Register stores a new sign-up. A phone number may only register once.
func (s *RegistrationService) Register(ctx context.Context, reg *models.Registration) (*models.Registration, error) {
	if err := prepare(reg); err != nil {
		return nil, err
	}
	reg.ID = 0
	reg.AddedToGroup = false

	if _, err := s.repo.GetByPhone(ctx, reg.Phone); err == nil {
		s.logger.Info("registration rejected: phone already registered")
		return nil, models.ErrPhoneRegistered
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to look up phone", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	created, err := s.repo.Create(ctx, reg)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrPhoneRegistered
		}
		s.logger.Error("failed to create registration", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("registration created", slog.Int64("registration_id", created.ID))
	return created, nil
}

// List returns every registration, newest first
func (s *RegistrationService) List(ctx context.Context) ([]*models.Registration, error) {
	regs, err := s.repo.List(ctx, models.OrderNewestFirst)
	if err != nil {
		s.logger.Error("failed to list registrations", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return regs, nil
}

// Update replaces the editable fields of a registration
func (s *RegistrationService) Update(ctx context.Context, id int64, reg *models.Registration) (*models.Registration, error) {
	if err := prepare(reg); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, id, reg)
	switch {
	case err == nil:
		s.logger.Info("registration updated", slog.Int64("registration_id", id))
		return updated, nil
	case errors.Is(err, models.ErrNotFound):
		return nil, models.ErrNotFound
	case errors.Is(err, models.ErrConflict):
		return nil, models.ErrPhoneRegistered
	default:
		s.logger.Error("failed to update registration", slog.Int64("registration_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
}

// Delete removes a registration
func (s *RegistrationService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to delete registration", slog.Int64("registration_id", id), slog.Any("error", err))
		return fmt.Errorf("delete registration %d: %w", id, models.ErrInternalServer)
	}
	s.logger.Info("registration deleted", slog.Int64("registration_id", id))
	return nil
}

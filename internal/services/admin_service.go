package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/BradenHooton/inscriptions/internal/models"
)

// DashboardRepository is the subset of RegistrationRepository the dashboard reads
type DashboardRepository interface {
	List(ctx context.Context, order models.RegistrationOrder) ([]*models.Registration, error)
	Stats(ctx context.Context) (*models.RegistrationStats, error)
}

// ExportHeader is the first row of the CSV export
var ExportHeader = []string{
	"ID", "Prénom", "Nom", "Âge", "Téléphone", "Étudiante",
	"Niveau d'études", "Lieu d'études", "Église",
	"Apporte un snack", "Détail du snack", "Ajouté(e) au groupe", "Date d'inscription",
}

const exportTimeLayout = "02/01/2006 15:04:05"

// AdminService aggregates registration data for dashboard endpoints
type AdminService struct {
	repo   DashboardRepository
	logger *slog.Logger
}

// NewAdminService creates a new AdminService
func NewAdminService(repo DashboardRepository, logger *slog.Logger) *AdminService {
	return &AdminService{
		repo:   repo,
		logger: logger,
	}
}

// Stats returns headline counts with the snack share as a rounded percentage
func (s *AdminService) Stats(ctx context.Context) (*models.RegistrationStats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		s.logger.Error("failed to compute registration stats", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	stats.SnackPercentage = percentage(stats.WithSnack, stats.Total)
	return stats, nil
}

// percentage rounds part/total*100 half up; 0 when total is 0
func percentage(part, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*part + total) / (2 * total)
}

// ExportCSV writes every registration, sorted by last then first name, to w
func (s *AdminService) ExportCSV(ctx context.Context, w io.Writer) error {
	regs, err := s.repo.List(ctx, models.OrderByName)
	if err != nil {
		s.logger.Error("failed to list registrations for export", slog.Any("error", err))
		return models.ErrInternalServer
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, reg := range regs {
		if err := cw.Write(exportRow(reg)); err != nil {
			return fmt.Errorf("failed to write csv row %d: %w", reg.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}

	s.logger.Info("registrations exported", slog.Int("count", len(regs)))
	return nil
}

func exportRow(reg *models.Registration) []string {
	added := "Non"
	if reg.AddedToGroup {
		added = "Oui"
	}
	return []string{
		strconv.FormatInt(reg.ID, 10),
		cell(reg.FirstName),
		cell(reg.LastName),
		strconv.Itoa(reg.Age),
		cell(reg.Phone),
		reg.IsStudent,
		cell(deref(reg.StudentLevel)),
		cell(deref(reg.StudentLocation)),
		cell(reg.Church),
		reg.HasSnack,
		cell(deref(reg.SnackDetail)),
		added,
		reg.CreatedAt.Local().Format(exportTimeLayout),
	}
}

// cell quotes text a spreadsheet would otherwise evaluate as a formula
func cell(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/BradenHooton/inscriptions/internal/models"
	pkghttp "github.com/BradenHooton/inscriptions/pkg/http"
	pkglogger "github.com/BradenHooton/inscriptions/pkg/logger"
)

// RegistrationService defines the sign-up operations
type RegistrationService interface {
	Register(ctx context.Context, reg *models.Registration) (*models.Registration, error)
	List(ctx context.Context) ([]*models.Registration, error)
	Update(ctx context.Context, id int64, reg *models.Registration) (*models.Registration, error)
	Delete(ctx context.Context, id int64) error
}

// DashboardService defines the aggregate views of registrations
type DashboardService interface {
	Stats(ctx context.Context) (*models.RegistrationStats, error)
	ExportCSV(ctx context.Context, w io.Writer) error
}

// RegistrationHandler handles registration HTTP requests
type RegistrationHandler struct {
	service   RegistrationService
	dashboard DashboardService
	logger    *slog.Logger
	env       string
}

// NewRegistrationHandler creates a new RegistrationHandler. Attendee phone
// numbers only reach the logs outside production.
func NewRegistrationHandler(service RegistrationService, dashboard DashboardService, logger *slog.Logger, env string) *RegistrationHandler {
	return &RegistrationHandler{
		service:   service,
		dashboard: dashboard,
		logger:    logger,
		env:       env,
	}
}

// RegistrationRequest is the body of the public sign-up form and of admin edits
type RegistrationRequest struct {
	FirstName       string          `json:"firstName" validate:"required,max=100"`
	LastName        string          `json:"lastName" validate:"required,max=100"`
	Age             models.LooseInt `json:"age" validate:"required,gte=1,lte=120"`
	Phone           string          `json:"phone" validate:"required,max=30"`
	IsStudent       string          `json:"isStudent" validate:"omitempty,oneof=oui non"`
	StudentLevel    *string         `json:"studentLevel" validate:"omitempty,max=100"`
	StudentLocation *string         `json:"studentLocation" validate:"omitempty,max=100"`
	Church          string          `json:"church" validate:"max=100"`
	HasSnack        string          `json:"hasSnack" validate:"required,oneof=oui non"`
	SnackDetail     *string         `json:"snackDetail" validate:"omitempty,max=200"`
	AddedToGroup    models.Flag     `json:"addedToGroup"`
}

func (req *RegistrationRequest) toModel() *models.Registration {
	return &models.Registration{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Age:             int(req.Age),
		Phone:           req.Phone,
		IsStudent:       req.IsStudent,
		StudentLevel:    req.StudentLevel,
		StudentLocation: req.StudentLocation,
		Church:          req.Church,
		HasSnack:        req.HasSnack,
		SnackDetail:     req.SnackDetail,
		AddedToGroup:    req.AddedToGroup,
	}
}

// CreateRegistrationResponse acknowledges a public sign-up
type CreateRegistrationResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

func (h *RegistrationHandler) decodeRegistration(w http.ResponseWriter, r *http.Request) (*models.Registration, bool) {
	var req RegistrationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return nil, false
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return nil, false
	}
	return req.toModel(), true
}

func writeRegistrationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrUnderage):
		pkghttp.WriteBadRequest(w, "Minimum age is 15")
	case errors.Is(err, models.ErrPhoneRegistered):
		pkghttp.WriteConflict(w, "This phone number is already registered")
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "Registration not found")
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}

// CreateRegistration handles the public POST /api/registrations
func (h *RegistrationHandler) CreateRegistration(w http.ResponseWriter, r *http.Request) {
	reg, ok := h.decodeRegistration(w, r)
	if !ok {
		return
	}

	created, err := h.service.Register(r.Context(), reg)
	if err != nil {
		if errors.Is(err, models.ErrPhoneRegistered) {
			h.logger.Info("duplicate registration rejected", pkglogger.RedactedAttr("phone", reg.Phone, h.env))
		}
		writeRegistrationError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, CreateRegistrationResponse{
		Message: "Registration saved",
		ID:      created.ID,
	})
}

// ListRegistrations handles GET /api/registrations
func (h *RegistrationHandler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	regs, err := h.service.List(r.Context())
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to list registrations")
		return
	}
	if regs == nil {
		regs = []*models.Registration{}
	}
	pkghttp.WriteJSON(w, http.StatusOK, regs)
}

// UpdateRegistration handles PUT /api/registrations/{id}
func (h *RegistrationHandler) UpdateRegistration(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		pkghttp.WriteBadRequest(w, "Invalid registration ID")
		return
	}

	reg, ok := h.decodeRegistration(w, r)
	if !ok {
		return
	}

	updated, err := h.service.Update(r.Context(), id, reg)
	if err != nil {
		writeRegistrationError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, updated)
}

// DeleteRegistration handles DELETE /api/registrations/{id}
func (h *RegistrationHandler) DeleteRegistration(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		pkghttp.WriteBadRequest(w, "Invalid registration ID")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeRegistrationError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Stats handles GET /api/registrations/stats
func (h *RegistrationHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboard.Stats(r.Context())
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to compute statistics")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, stats)
}

// ExportCSV handles GET /api/registrations/export/csv
func (h *RegistrationHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	// Buffered so a mid-export failure can still become a JSON error
	var buf bytes.Buffer
	if err := h.dashboard.ExportCSV(r.Context(), &buf); err != nil {
		h.logger.Error("csv export failed", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Export failed")
		return
	}

	filename := "inscriptions-" + time.Now().Format("2006-01-02") + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/BradenHooton/inscriptions/internal/auth"
	"github.com/BradenHooton/inscriptions/internal/models"
	pkghttp "github.com/BradenHooton/inscriptions/pkg/http"
	pkglogger "github.com/BradenHooton/inscriptions/pkg/logger"
)

// UserService defines the interface for admin account management
type UserService interface {
	ListAdmins(ctx context.Context) ([]*models.AdminUser, error)
	CreateAdmin(ctx context.Context, username, password string) (*models.AdminUser, error)
	DeleteAdmin(ctx context.Context, id int64) error
}

// UserHandler handles admin account HTTP requests
type UserHandler struct {
	service     UserService
	auditLogger *pkglogger.AuditLogger
	ipConfig    *pkghttp.IPConfig
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service UserService, auditLogger *pkglogger.AuditLogger, ipConfig *pkghttp.IPConfig) *UserHandler {
	return &UserHandler{
		service:     service,
		auditLogger: auditLogger,
		ipConfig:    ipConfig,
	}
}

// CreateUserRequest represents the request body for creating an admin
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required"`
}

// UserResponse represents an admin in the HTTP response. The hash never leaves the service.
type UserResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	CreatedAt string `json:"createdAt"`
}

func userToResponse(u *models.AdminUser) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ListUsers handles GET /api/users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListAdmins(r.Context())
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to list users")
		return
	}

	resp := make([]UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, userToResponse(u))
	}
	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// CreateUser handles POST /api/users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	user, err := h.service.CreateAdmin(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrWeakPassword):
			pkghttp.WriteBadRequest(w, "Password must be at least 6 characters")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Username is required")
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "Username already exists")
		default:
			pkghttp.WriteInternalError(w, "Failed to create user")
		}
		return
	}

	h.audit(r, "admin_created", map[string]string{"target_id": strconv.FormatInt(user.ID, 10)})
	pkghttp.WriteJSON(w, http.StatusCreated, userToResponse(user))
}

// DeleteUser handles DELETE /api/users/{id}
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		pkghttp.WriteBadRequest(w, "Invalid user ID")
		return
	}

	if err := h.service.DeleteAdmin(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, models.ErrLastAdmin):
			pkghttp.WriteBadRequest(w, "Cannot delete the last administrator")
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "User not found")
		default:
			pkghttp.WriteInternalError(w, "Failed to delete user")
		}
		return
	}

	h.audit(r, "admin_deleted", map[string]string{"target_id": strconv.FormatInt(id, 10)})
	pkghttp.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *UserHandler) audit(r *http.Request, eventType string, metadata map[string]string) {
	if h.auditLogger == nil {
		return
	}
	actor := ""
	if claims := auth.GetUserFromContext(r); claims != nil {
		actor = claims.Username
	}
	h.auditLogger.LogAccountAction(eventType, actor, pkghttp.ExtractClientIP(r, h.ipConfig), metadata)
}

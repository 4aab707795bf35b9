package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/BradenHooton/inscriptions/internal/services"
	pkghttp "github.com/BradenHooton/inscriptions/pkg/http"
	pkglogger "github.com/BradenHooton/inscriptions/pkg/logger"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Authenticate(ctx context.Context, username, password string) (*services.AuthResult, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service  AuthServiceInterface
	ipConfig *pkghttp.IPConfig
	logger   *slog.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface, ipConfig *pkghttp.IPConfig, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service:  service,
		ipConfig: ipConfig,
		logger:   logger,
	}
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned for every login decision. Lock fields appear only
// when a lock is active.
type LoginResponse struct {
	Success          bool   `json:"success"`
	Token            string `json:"token,omitempty"`
	Username         string `json:"username,omitempty"`
	Message          string `json:"message"`
	Locked           bool   `json:"locked,omitempty"`
	RemainingMinutes int    `json:"remainingMinutes,omitempty"`
}

// Login handles admin login
// @Summary Admin login
// @Accept json
// @Param request body LoginRequest true "Login request"
// @Produce json
// @Success 200 {object} LoginResponse
// @Failure 400 {object} pkghttp.ErrorResponse
// @Failure 401 {object} LoginResponse
// @Failure 429 {object} pkghttp.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	result, err := h.service.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	resp := LoginResponse{
		Success:          result.Success,
		Token:            result.Token,
		Username:         result.Username,
		Message:          result.Message,
		Locked:           result.Locked,
		RemainingMinutes: result.RemainingMinutes,
	}

	if !result.Success {
		h.logger.Info("login rejected",
			slog.String("username", pkglogger.MaskUsername(req.Username)),
			slog.String("ip_address", pkghttp.ExtractClientIP(r, h.ipConfig)),
			slog.Bool("locked", result.Locked))
		pkghttp.WriteJSON(w, http.StatusUnauthorized, resp)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

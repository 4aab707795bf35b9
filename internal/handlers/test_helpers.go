package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BradenHooton/inscriptions/internal/auth"
	"github.com/BradenHooton/inscriptions/internal/models"
	"github.com/BradenHooton/inscriptions/internal/services"
	pkghttp "github.com/BradenHooton/inscriptions/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithAuthContext adds admin claims to request context for testing protected endpoints
func WithAuthContext(req *http.Request, username string) *http.Request {
	claims := &models.TokenClaims{Username: username}
	claims.Subject = username
	ctx := context.WithValue(req.Context(), auth.UserContextKey, claims)
	return req.WithContext(ctx)
}

// WithURLParam sets a chi route parameter on the request
func WithURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"), "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	AuthenticateFunc func(ctx context.Context, username, password string) (*services.AuthResult, error)
}

func (m *MockAuthService) Authenticate(ctx context.Context, username, password string) (*services.AuthResult, error) {
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(ctx, username, password)
	}
	return &services.AuthResult{Message: services.MsgInvalidCredentials}, nil
}

// MockUserService implements UserService for testing
type MockUserService struct {
	ListAdminsFunc  func(ctx context.Context) ([]*models.AdminUser, error)
	CreateAdminFunc func(ctx context.Context, username, password string) (*models.AdminUser, error)
	DeleteAdminFunc func(ctx context.Context, id int64) error
}

func (m *MockUserService) ListAdmins(ctx context.Context) ([]*models.AdminUser, error) {
	if m.ListAdminsFunc != nil {
		return m.ListAdminsFunc(ctx)
	}
	return []*models.AdminUser{}, nil
}

func (m *MockUserService) CreateAdmin(ctx context.Context, username, password string) (*models.AdminUser, error) {
	if m.CreateAdminFunc != nil {
		return m.CreateAdminFunc(ctx, username, password)
	}
	return &models.AdminUser{ID: 1, Username: username}, nil
}

func (m *MockUserService) DeleteAdmin(ctx context.Context, id int64) error {
	if m.DeleteAdminFunc != nil {
		return m.DeleteAdminFunc(ctx, id)
	}
	return nil
}

// MockRegistrationService implements RegistrationService for testing
type MockRegistrationService struct {
	RegisterFunc func(ctx context.Context, reg *models.Registration) (*models.Registration, error)
	ListFunc     func(ctx context.Context) ([]*models.Registration, error)
	UpdateFunc   func(ctx context.Context, id int64, reg *models.Registration) (*models.Registration, error)
	DeleteFunc   func(ctx context.Context, id int64) error
}

func (m *MockRegistrationService) Register(ctx context.Context, reg *models.Registration) (*models.Registration, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, reg)
	}
	created := *reg
	created.ID = 1
	return &created, nil
}

func (m *MockRegistrationService) List(ctx context.Context) ([]*models.Registration, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func (m *MockRegistrationService) Update(ctx context.Context, id int64, reg *models.Registration) (*models.Registration, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, reg)
	}
	updated := *reg
	updated.ID = id
	return &updated, nil
}

func (m *MockRegistrationService) Delete(ctx context.Context, id int64) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockDashboardService implements DashboardService for testing
type MockDashboardService struct {
	StatsFunc     func(ctx context.Context) (*models.RegistrationStats, error)
	ExportCSVFunc func(ctx context.Context, w io.Writer) error
}

func (m *MockDashboardService) Stats(ctx context.Context) (*models.RegistrationStats, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx)
	}
	return &models.RegistrationStats{}, nil
}

func (m *MockDashboardService) ExportCSV(ctx context.Context, w io.Writer) error {
	if m.ExportCSVFunc != nil {
		return m.ExportCSVFunc(ctx, w)
	}
	return nil
}

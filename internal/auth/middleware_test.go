package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BradenHooton/inscriptions/internal/models"
	pkghttp "github.com/BradenHooton/inscriptions/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockVerifier struct {
	VerifyTokenFunc func(tokenString string) (*models.TokenClaims, error)
}

func (m *mockVerifier) VerifyToken(tokenString string) (*models.TokenClaims, error) {
	if m.VerifyTokenFunc != nil {
		return m.VerifyTokenFunc(tokenString)
	}
	return nil, errors.New("not configured")
}

func protectedHandler(t *testing.T, called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		claims := GetUserFromContext(r)
		require.NotNil(t, claims)
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestRequireAuth_Rejections(t *testing.T) {
	verifier := &mockVerifier{
		VerifyTokenFunc: func(string) (*models.TokenClaims, error) {
			return nil, errors.New("token is expired")
		},
	}

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic YWRtaW46cGFzcw=="},
		{"empty bearer", "Bearer "},
		{"no scheme", "sometoken"},
		{"invalid token", "Bearer expired.token.value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := RequireAuth(verifier)(protectedHandler(t, &called))

			req := httptest.NewRequest(http.MethodGet, "/api/registrations", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.False(t, called)
			assert.Equal(t, http.StatusUnauthorized, w.Code)

			var resp pkghttp.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "unauthorized", resp.Error)
		})
	}
}

func TestRequireAuth_ValidToken(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour, "inscriptions")
	token, _, err := tm.GenerateToken("admin")
	require.NoError(t, err)

	var got *models.TokenClaims
	handler := RequireAuth(tm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetUserFromContext(r)
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Authorization", "bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	require.NotNil(t, got)
	assert.Equal(t, "admin", got.Username)
}

func TestGetUserFromContext_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, GetUserFromContext(req))
}

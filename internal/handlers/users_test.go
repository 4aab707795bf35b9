package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BradenHooton/inscriptions/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserHandler_ListUsers(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	svc := &MockUserService{
		ListAdminsFunc: func(ctx context.Context) ([]*models.AdminUser, error) {
			return []*models.AdminUser{
				{ID: 1, Username: "admin", PasswordHash: "$2a$12$secret", CreatedAt: created},
				{ID: 2, Username: "zoe", PasswordHash: "$2a$12$secret", CreatedAt: created},
			}, nil
		},
	}

	w := httptest.NewRecorder()
	NewUserHandler(svc, nil, nil).ListUsers(w, WithAuthContext(httptest.NewRequest(http.MethodGet, "/api/users", nil), "admin"))

	var resp []UserResponse
	AssertJSONResponse(t, w, http.StatusOK, &resp)
	require.Len(t, resp, 2)
	assert.Equal(t, UserResponse{ID: 1, Username: "admin", CreatedAt: "2026-01-02T03:04:05Z"}, resp[0])
	assert.NotContains(t, w.Body.String(), "secret")
}

func TestUserHandler_ListUsers_Empty(t *testing.T) {
	w := httptest.NewRecorder()
	NewUserHandler(&MockUserService{}, nil, nil).ListUsers(w, httptest.NewRequest(http.MethodGet, "/api/users", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestUserHandler_CreateUser(t *testing.T) {
	tests := []struct {
		name       string
		body       interface{}
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{"created", CreateUserRequest{Username: "zoe", Password: "secret1"}, nil, http.StatusCreated, ""},
		{"missing password", map[string]string{"username": "zoe"}, nil, http.StatusBadRequest, "bad_request"},
		{"weak password", CreateUserRequest{Username: "zoe", Password: "123"}, fmt.Errorf("%w: too short", models.ErrWeakPassword), http.StatusBadRequest, "bad_request"},
		{"duplicate", CreateUserRequest{Username: "admin", Password: "secret1"}, models.ErrConflict, http.StatusConflict, "conflict"},
		{"storage failure", CreateUserRequest{Username: "zoe", Password: "secret1"}, models.ErrInternalServer, http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockUserService{
				CreateAdminFunc: func(ctx context.Context, username, password string) (*models.AdminUser, error) {
					if tt.serviceErr != nil {
						return nil, tt.serviceErr
					}
					return &models.AdminUser{ID: 7, Username: username}, nil
				},
			}

			w := httptest.NewRecorder()
			req := WithAuthContext(NewTestRequest(t, http.MethodPost, "/api/users", tt.body), "admin")
			NewUserHandler(svc, nil, nil).CreateUser(w, req)

			if tt.wantCode != "" {
				AssertErrorResponse(t, w, tt.wantStatus, tt.wantCode)
				return
			}
			var resp UserResponse
			AssertJSONResponse(t, w, tt.wantStatus, &resp)
			assert.Equal(t, int64(7), resp.ID)
			assert.Equal(t, "zoe", resp.Username)
		})
	}
}

func TestUserHandler_DeleteUser(t *testing.T) {
	tests := []struct {
		name       string
		id         string
		serviceErr error
		wantStatus int
	}{
		{"deleted", "2", nil, http.StatusOK},
		{"last admin", "1", models.ErrLastAdmin, http.StatusBadRequest},
		{"missing", "9", models.ErrNotFound, http.StatusNotFound},
		{"failure", "2", errors.New("boom"), http.StatusInternalServerError},
		{"bad id", "abc", nil, http.StatusBadRequest},
		{"negative id", "-3", nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockUserService{
				DeleteAdminFunc: func(ctx context.Context, id int64) error {
					return tt.serviceErr
				},
			}

			w := httptest.NewRecorder()
			req := WithURLParam(httptest.NewRequest(http.MethodDelete, "/api/users/"+tt.id, nil), "id", tt.id)
			NewUserHandler(svc, nil, nil).DeleteUser(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.JSONEq(t, `{"success":true}`, w.Body.String())
			}
		})
	}
}

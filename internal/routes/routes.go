package routes

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BradenHooton/inscriptions/internal/auth"
	"github.com/BradenHooton/inscriptions/internal/handlers"
	"github.com/BradenHooton/inscriptions/internal/middleware"
	pkghttp "github.com/BradenHooton/inscriptions/pkg/http"
	"github.com/go-chi/chi/v5"
)

// HealthChecker pings the backing database
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Handlers groups the HTTP handlers mounted under /api
type Handlers struct {
	Auth          *handlers.AuthHandler
	Users         *handlers.UserHandler
	Registrations *handlers.RegistrationHandler
}

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	h Handlers,
	tokens auth.TokenVerifier,
	loginLimit middleware.RateLimitConfig,
	health HealthChecker,
	staticDir string,
) {
	router.Get("/health", healthHandler(health))

	router.Route("/api", func(r chi.Router) {
		// Public routes
		r.With(middleware.RateLimitByIP(loginLimit)).Post("/auth/login", h.Auth.Login)
		r.Post("/registrations", h.Registrations.CreateRegistration)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Get("/registrations", h.Registrations.ListRegistrations)
			r.Get("/registrations/stats", h.Registrations.Stats)
			r.Get("/registrations/export/csv", h.Registrations.ExportCSV)
			r.Put("/registrations/{id}", h.Registrations.UpdateRegistration)
			r.Delete("/registrations/{id}", h.Registrations.DeleteRegistration)

			r.Get("/users", h.Users.ListUsers)
			r.Post("/users", h.Users.CreateUser)
			r.Delete("/users/{id}", h.Users.DeleteUser)
		})

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			pkghttp.WriteNotFound(w, "Route not found")
		})
		r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
			pkghttp.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		})
	})

	if staticDir != "" {
		spa := spaHandler(staticDir)
		router.Get("/", spa)
		router.Get("/admin", spa)
		router.Get("/*", spa)
	}
}

func healthHandler(health HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := health.HealthCheck(ctx); err != nil {
			pkghttp.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "database": "down"})
			return
		}
		pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy", "database": "up"})
	}
}

// spaHandler serves files from dir and falls back to index.html for client-side routes
func spaHandler(dir string) http.HandlerFunc {
	fs := http.FileServer(http.Dir(dir))
	index := filepath.Join(dir, "index.html")

	return func(w http.ResponseWriter, r *http.Request) {
		name := filepath.Join(dir, filepath.FromSlash(filepath.Clean("/"+r.URL.Path)))
		if info, err := os.Stat(name); err == nil && !info.IsDir() && !strings.HasSuffix(r.URL.Path, "/index.html") {
			fs.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, index)
	}
}

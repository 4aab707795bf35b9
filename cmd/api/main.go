package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BradenHooton/inscriptions/internal/auth"
	"github.com/BradenHooton/inscriptions/internal/config"
	"github.com/BradenHooton/inscriptions/internal/database"
	"github.com/BradenHooton/inscriptions/internal/handlers"
	middlewareCustom "github.com/BradenHooton/inscriptions/internal/middleware"
	"github.com/BradenHooton/inscriptions/internal/repositories"
	"github.com/BradenHooton/inscriptions/internal/routes"
	"github.com/BradenHooton/inscriptions/internal/services"
	pkgauth "github.com/BradenHooton/inscriptions/pkg/auth"
	pkghttp "github.com/BradenHooton/inscriptions/pkg/http"
	pkglogger "github.com/BradenHooton/inscriptions/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Server.SlogLevel()}))
	slog.SetDefault(logger)

	logger.Info("configuration loaded",
		slog.String("env", cfg.Server.Env),
		slog.String("db_driver", cfg.Database.Driver),
	)

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = db.Migrate(migrateCtx)
	migrateCancel()
	if err != nil {
		logger.Error("failed to migrate database", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize repositories
	store, err := repositories.NewStore(db)
	if err != nil {
		logger.Error("failed to initialize repositories", slog.Any("error", err))
		os.Exit(1)
	}

	hasher := pkgauth.NewHasher(cfg.Auth.BcryptCost)
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry, cfg.Auth.TokenIssuer)
	auditLogger := pkglogger.NewAuditLogger(logger)
	ipConfig := pkghttp.NewIPConfig(cfg.Server.TrustedProxies)

	// Lockout guard; locks live in this process only
	guard := services.NewLockoutGuard(store.Attempts, nil, services.LockoutConfig{
		MaxFailures: cfg.Lockout.MaxFailures,
		Window:      cfg.Lockout.Window,
		Duration:    cfg.Lockout.Duration,
		FailClosed:  cfg.Lockout.FailMode == config.FailClosed,
	}, logger, auditLogger)

	// Initialize services
	authService := services.NewAuthService(store.Admins, hasher, tokenManager, guard, logger, auditLogger)
	userService := services.NewUserService(store.Admins, hasher, logger)
	registrationService := services.NewRegistrationService(store.Registrations, logger)
	adminService := services.NewAdminService(store.Registrations, logger)

	// Bootstrap first admin user if configured
	ensureAdminUser(userService, cfg.Auth, logger)

	// Initialize handlers
	h := routes.Handlers{
		Auth:          handlers.NewAuthHandler(authService, ipConfig, logger),
		Users:         handlers.NewUserHandler(userService, auditLogger, ipConfig),
		Registrations: handlers.NewRegistrationHandler(registrationService, adminService, logger, cfg.Server.Env),
	}

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)))
	router.Use(middlewareCustom.SecureLogger(logger, ipConfig))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	loginLimit := middlewareCustom.RateLimitConfig{
		RequestsPerMinute: cfg.Server.LoginRateLimit,
		IPConfig:          ipConfig,
	}
	routes.RegisterRoutes(router, h, tokenManager, loginLimit, db, cfg.Server.StaticDir)

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		return
	}

	logger.Info("server stopped gracefully")
}

// ensureAdminUser creates the configured admin account when ADMIN_PASSWORD is set
// and no account with ADMIN_USERNAME exists
func ensureAdminUser(users *services.UserService, cfg config.AuthConfig, logger *slog.Logger) {
	if cfg.AdminPassword == "" {
		logger.Info("no ADMIN_PASSWORD set, skipping admin user creation")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	created, err := users.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword)
	if err != nil {
		logger.Error("failed to ensure admin user", slog.Any("error", err))
		return
	}
	if created {
		logger.Info("admin user created", slog.String("username", pkglogger.MaskUsername(cfg.AdminUsername)))
		return
	}
	logger.Info("admin user already exists")
}

package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	FailOpen   = "open"
	FailClosed = "closed"
)

type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Auth     AuthConfig
	Lockout  LockoutConfig
}

type DatabaseConfig struct {
	Driver            string
	URL               string
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	SQLitePath        string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
	StaticDir      string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	LoginRateLimit int
	TrustedProxies []string
}

type AuthConfig struct {
	JWTSecret     string
	TokenExpiry   time.Duration
	TokenIssuer   string
	BcryptCost    int
	AdminUsername string
	AdminPassword string
}

// LockoutConfig tunes the login throttle. Window and Duration are
// independent even though both default to 30 minutes.
type LockoutConfig struct {
	MaxFailures int
	Window      time.Duration
	Duration    time.Duration
	FailMode    string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	env := getEnv("ENV", "development")

	cfg := &Config{
		Database: loadDatabaseConfig(env),
		Server: ServerConfig{
			Port:           getEnv("PORT", "3000"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			AllowedOrigins: parseAllowedOrigins(env),
			StaticDir:      getEnv("STATIC_DIR", ""),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:    getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			LoginRateLimit: getEnvAsInt("LOGIN_RATE_LIMIT", 20),
			TrustedProxies: splitList(getEnv("TRUSTED_PROXIES", "")),
		},
		Auth: AuthConfig{
			JWTSecret:     jwtSecret,
			TokenExpiry:   getEnvAsDuration("TOKEN_EXPIRY", 8*time.Hour),
			TokenIssuer:   getEnv("TOKEN_ISSUER", "inscriptions"),
			BcryptCost:    getEnvAsInt("BCRYPT_COST", 12),
			AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
			AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		},
		Lockout: LockoutConfig{
			MaxFailures: getEnvAsInt("LOCKOUT_MAX_FAILURES", 5),
			Window:      getEnvAsDuration("LOCKOUT_WINDOW", 30*time.Minute),
			Duration:    getEnvAsDuration("LOCKOUT_DURATION", 30*time.Minute),
			FailMode:    strings.ToLower(getEnv("LOCKOUT_FAIL_MODE", FailOpen)),
		},
	}

	if err := cfg.Database.validate(); err != nil {
		return nil, err
	}

	if err := cfg.Lockout.validate(); err != nil {
		return nil, err
	}

	// Validate JWT secret strength
	if err := validateJWTSecret(jwtSecret, env); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadDatabase reads only the database section, for tools that do not serve HTTP
func LoadDatabase() (*DatabaseConfig, error) {
	_ = godotenv.Load()

	cfg := loadDatabaseConfig(getEnv("ENV", "development"))
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadDatabaseConfig(env string) DatabaseConfig {
	return DatabaseConfig{
		Driver:            strings.ToLower(getEnv("DB_DRIVER", defaultDriver(env))),
		URL:               getEnv("DATABASE_URL", ""),
		Host:              getEnv("DB_HOST", "localhost"),
		Port:              getEnvAsInt("DB_PORT", 5432),
		User:              getEnv("DB_USER", "postgres"),
		Password:          getEnv("DB_PASSWORD", ""),
		Name:              getEnv("DB_NAME", "inscriptions"),
		SSLMode:           getEnv("DB_SSLMODE", "disable"),
		SQLitePath:        getEnv("SQLITE_PATH", "db.sqlite"),
		MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 10)),
		MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 2)),
		MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
		MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
		HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
	}
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info
func (c *ServerConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *DatabaseConfig) validate() error {
	switch c.Driver {
	case DriverPostgres:
		if c.URL == "" && c.Password == "" {
			return fmt.Errorf("DATABASE_URL or DB_PASSWORD is required for the postgres driver")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want %q or %q)", c.Driver, DriverPostgres, DriverSQLite)
	}
	return nil
}

func (c *LockoutConfig) validate() error {
	if c.MaxFailures < 1 {
		return fmt.Errorf("LOCKOUT_MAX_FAILURES must be at least 1 (got %d)", c.MaxFailures)
	}
	if c.Window <= 0 || c.Duration <= 0 {
		return fmt.Errorf("LOCKOUT_WINDOW and LOCKOUT_DURATION must be positive")
	}
	if c.FailMode != FailOpen && c.FailMode != FailClosed {
		return fmt.Errorf("LOCKOUT_FAIL_MODE must be %q or %q (got %q)", FailOpen, FailClosed, c.FailMode)
	}
	return nil
}

// validateJWTSecret enforces minimum security standards for JWT secret
func validateJWTSecret(secret, env string) error {
	minLength := 16
	if env == "production" {
		minLength = 32
	}

	if len(secret) < minLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("JWT_SECRET cannot be a common weak value")
		}
	}

	return nil
}

// DSN returns the Postgres connection string. DATABASE_URL wins when set.
func (c *DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Production deployments run on Postgres, everything else on a local SQLite file.
func defaultDriver(env string) string {
	if env == "production" {
		return DriverPostgres
	}
	return DriverSQLite
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func parseAllowedOrigins(env string) []string {
	originsStr := getEnv("ALLOWED_ORIGINS", "")
	if originsStr == "" {
		if env == "production" {
			return []string{}
		}
		// Vite dev server and the bundled frontend
		return []string{
			"http://localhost:3000",
			"http://localhost:5173",
			"http://127.0.0.1:3000",
			"http://127.0.0.1:5173",
		}
	}

	return splitList(originsStr)
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-32-characters-long!!")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", ":memory:")
}

func TestServerConfig_Timeouts_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	tests := []struct {
		name     string
		actual   time.Duration
		expected time.Duration
	}{
		{"ReadTimeout", cfg.Server.ReadTimeout, 15 * time.Second},
		{"WriteTimeout", cfg.Server.WriteTimeout, 15 * time.Second},
		{"IdleTimeout", cfg.Server.IdleTimeout, 60 * time.Second},
	}

	for _, tt := range tests {
		if tt.actual != tt.expected {
			t.Errorf("%s: got %v, want %v", tt.name, tt.actual, tt.expected)
		}
	}
}

func TestServerConfig_Timeouts_InvalidDuration(t *testing.T) {
	setRequired(t)
	t.Setenv("SERVER_READ_TIMEOUT", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)

	// Invalid duration should fall back to default
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
}

func TestLockoutConfig_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Lockout.MaxFailures)
	assert.Equal(t, 30*time.Minute, cfg.Lockout.Window)
	assert.Equal(t, 30*time.Minute, cfg.Lockout.Duration)
	assert.Equal(t, FailOpen, cfg.Lockout.FailMode)
}

func TestLockoutConfig_WindowAndDurationIndependent(t *testing.T) {
	setRequired(t)
	t.Setenv("LOCKOUT_WINDOW", "10m")
	t.Setenv("LOCKOUT_DURATION", "1h")
	t.Setenv("LOCKOUT_MAX_FAILURES", "3")
	t.Setenv("LOCKOUT_FAIL_MODE", "CLOSED")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Lockout.MaxFailures)
	assert.Equal(t, 10*time.Minute, cfg.Lockout.Window)
	assert.Equal(t, time.Hour, cfg.Lockout.Duration)
	assert.Equal(t, FailClosed, cfg.Lockout.FailMode)
}

func TestLockoutConfig_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero threshold", "LOCKOUT_MAX_FAILURES", "0"},
		{"negative window", "LOCKOUT_WINDOW", "-5m"},
		{"unknown fail mode", "LOCKOUT_FAIL_MODE", "sideways"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_DRIVER", "sqlite")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_WeakJWTSecretInProduction(t *testing.T) {
	t.Setenv("JWT_SECRET", "only-twenty-chars-xx")
	t.Setenv("ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/db")

	_, err := Load()
	assert.Error(t, err)
}

func TestDatabaseConfig_DefaultDriver(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-32-characters-long!!")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)

	t.Setenv("ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/db")

	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "postgres://u:p@localhost/db", cfg.Database.DSN())
}

func TestDatabaseConfig_PostgresRequiresCredentials(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-32-characters-long!!")
	t.Setenv("DB_DRIVER", "postgres")

	_, err := Load()
	assert.Error(t, err)
}

func TestDatabaseConfig_UnknownDriver(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-32-characters-long!!")
	t.Setenv("DB_DRIVER", "mysql")

	_, err := Load()
	assert.Error(t, err)
}

func TestServerConfig_SlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}

	for level, want := range tests {
		c := ServerConfig{LogLevel: level}
		assert.Equal(t, want, c.SlogLevel(), level)
	}
}

func TestParseAllowedOrigins(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, parseAllowedOrigins("production"))

	t.Setenv("ALLOWED_ORIGINS", "")
	assert.Empty(t, parseAllowedOrigins("production"))
	assert.NotEmpty(t, parseAllowedOrigins("development"))
}

func TestServerConfig_TrustedProxies(t *testing.T) {
	setRequired(t)
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, ,127.0.0.1/32")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1/32"}, cfg.Server.TrustedProxies)
}

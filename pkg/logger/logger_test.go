package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferedAuditLogger() (*AuditLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	al := NewAuditLogger(l)
	al.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return al, &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestMaskUsername(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"a", "*"},
		{"admin", "a****"},
		{"élodie", "é*****"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MaskUsername(tt.in), tt.in)
	}
}

func TestSanitizeQueryString(t *testing.T) {
	assert.True(t, SanitizeQueryString("password=abc"))
	assert.True(t, SanitizeQueryString("Token=xyz"))
	assert.True(t, SanitizeQueryString("phone=0600000000"))
	assert.False(t, SanitizeQueryString("order=name"))
	assert.False(t, SanitizeQueryString(""))
}

func TestRedactedAttr(t *testing.T) {
	assert.Equal(t, "[REDACTED]", RedactedAttr("k", "v", "production").Value.String())
	assert.Equal(t, "v", RedactedAttr("k", "v", "development").Value.String())
}

func TestLogAuthAttempt_FailureAtWarnWithMaskedUsername(t *testing.T) {
	al, buf := newBufferedAuditLogger()

	al.LogAuthAttempt(AuditEvent{
		EventType:     EventLoginFailure,
		Username:      "admin",
		IPAddress:     "10.0.0.1",
		FailureReason: "invalid_credentials",
	})

	entry := decodeLine(t, buf)
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "a****", entry["username"])
	assert.Equal(t, "10.0.0.1", entry["ip_address"])
	assert.Equal(t, false, entry["success"])
	assert.Equal(t, "2026-03-01T12:00:00Z", entry["timestamp"])
}

func TestLogAuthAttempt_SuccessAtInfo(t *testing.T) {
	al, buf := newBufferedAuditLogger()

	al.LogAuthAttempt(AuditEvent{EventType: EventLoginSuccess, Username: "admin", Success: true})

	entry := decodeLine(t, buf)
	assert.Equal(t, "INFO", entry["level"])
	assert.NotContains(t, entry, "failure_reason")
}

func TestLogLockout(t *testing.T) {
	al, buf := newBufferedAuditLogger()

	al.LogLockout("admin", 5, time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC))

	entry := decodeLine(t, buf)
	assert.Equal(t, EventAccountLock, entry["event_type"])
	assert.Equal(t, "5", entry["failures"])
	assert.Equal(t, "2026-03-01T12:30:00Z", entry["locked_until"])
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/BradenHooton/inscriptions/internal/models"
	pkglogger "github.com/BradenHooton/inscriptions/pkg/logger"
)

const (
	MsgInvalidCredentials = "Invalid credentials"
	MsgLoginSuccess       = "Login successful"
	msgLockedFormat       = "Too many failed attempts. Please try again in %d minutes."
)

// CredentialStore looks up admin credentials by username
type CredentialStore interface {
	GetByUsername(ctx context.Context, username string) (*models.AdminUser, error)
}

// PasswordHasher hashes and checks secrets
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hashedPassword, password string) (bool, error)
}

// TokenIssuer mints session tokens
type TokenIssuer interface {
	GenerateToken(username string) (string, time.Time, error)
}

// AuthResult is the outcome of a login. Failures carry a caller-safe message
// and, when a lock is active, its remaining minutes.
type AuthResult struct {
	Success          bool
	Token            string
	ExpiresAt        time.Time
	Username         string
	Message          string
	Locked           bool
	RemainingMinutes int
}

// AuthService orchestrates throttled password logins
type AuthService struct {
	creds       CredentialStore
	hasher      PasswordHasher
	tokens      TokenIssuer
	guard       *LockoutGuard
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates a new AuthService
func NewAuthService(creds CredentialStore, hasher PasswordHasher, tokens TokenIssuer, guard *LockoutGuard, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *AuthService {
	return &AuthService{
		creds:       creds,
		hasher:      hasher,
		tokens:      tokens,
		guard:       guard,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// Authenticate checks username and password against the lock table and the
// credential store. A locked username is rejected before any lookup and
// produces no ledger record. Unknown users and wrong passwords get the same
// message.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*AuthResult, error) {
	if locked, remaining := s.guard.LockStatus(username); locked {
		s.audit(pkglogger.EventLoginLocked, username, false, "locked")
		return &AuthResult{
			Message:          lockedMessage(remaining),
			Locked:           true,
			RemainingMinutes: remaining,
		}, nil
	}

	user, err := s.creds.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to get admin user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if user == nil {
		s.compareDummy(password)
		return s.fail(ctx, username, "unknown_user"), nil
	}

	match, err := s.hasher.Compare(user.PasswordHash, password)
	if err != nil {
		s.logger.Error("stored password hash is unusable",
			slog.Int64("user_id", user.ID),
			slog.Any("error", err))
	}
	if !match {
		return s.fail(ctx, username, "invalid_password"), nil
	}

	if attempt := s.guard.RecordAttempt(ctx, username, true); attempt.LedgerErr != nil && s.guard.FailClosed() {
		s.audit(pkglogger.EventLoginFailure, username, false, "ledger_unavailable")
		return &AuthResult{Message: MsgInvalidCredentials}, nil
	}

	token, expiresAt, err := s.tokens.GenerateToken(user.Username)
	if err != nil {
		s.logger.Error("failed to generate token", slog.Int64("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("admin logged in", slog.Int64("user_id", user.ID))
	s.audit(pkglogger.EventLoginSuccess, username, true, "")

	return &AuthResult{
		Success:   true,
		Token:     token,
		ExpiresAt: expiresAt,
		Username:  user.Username,
		Message:   MsgLoginSuccess,
	}, nil
}

// fail records a failed attempt and builds the generic failure, carrying lock
// metadata when this failure crossed the threshold
func (s *AuthService) fail(ctx context.Context, username, reason string) *AuthResult {
	attempt := s.guard.RecordAttempt(ctx, username, false)
	s.audit(pkglogger.EventLoginFailure, username, false, reason)

	result := &AuthResult{Message: MsgInvalidCredentials}
	if attempt.LedgerErr == nil && attempt.Locked {
		result.Locked = true
		result.RemainingMinutes = attempt.RemainingMinutes
	}
	return result
}

// compareDummy spends a bcrypt comparison so unknown usernames cost as much as wrong passwords
func (s *AuthService) compareDummy(password string) {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("inscriptions-timing-equalizer")
		if err != nil {
			s.logger.Error("failed to prepare dummy hash", slog.Any("error", err))
			return
		}
		s.dummyHash = hash
	})
	if s.dummyHash != "" {
		_, _ = s.hasher.Compare(s.dummyHash, password)
	}
}

func (s *AuthService) audit(eventType, username string, success bool, reason string) {
	if s.auditLogger == nil {
		return
	}
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType:     eventType,
		Username:      username,
		Success:       success,
		FailureReason: reason,
	})
}

func lockedMessage(minutes int) string {
	return fmt.Sprintf(msgLockedFormat, minutes)
}

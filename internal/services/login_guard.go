package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/BradenHooton/inscriptions/internal/models"
	pkglogger "github.com/BradenHooton/inscriptions/pkg/logger"
)

// AttemptLedger is the persisted log the guard counts failures from
type AttemptLedger interface {
	Append(ctx context.Context, username string, success bool, at time.Time) error
	CountFailuresSince(ctx context.Context, username string, since time.Time) (int, error)
}

// LockoutConfig holds the throttle parameters. Window and Duration are
// separate knobs even when they share a value.
type LockoutConfig struct {
	MaxFailures int
	Window      time.Duration
	Duration    time.Duration
	FailClosed  bool
}

// DefaultLockoutConfig returns 5 failures in 30 minutes locking for 30 minutes, failing open
func DefaultLockoutConfig() LockoutConfig {
	return LockoutConfig{
		MaxFailures: 5,
		Window:      30 * time.Minute,
		Duration:    30 * time.Minute,
	}
}

// AttemptResult is the outcome of recording one attempt
type AttemptResult struct {
	Locked           bool
	RemainingMinutes int
	// LedgerErr is set when the ledger could not be written or read. The
	// result is then never Locked.
	LedgerErr error
}

// LockoutGuard decides whether a username may attempt to authenticate and
// escalates to a timed lock after repeated failures
type LockoutGuard struct {
	ledger      AttemptLedger
	locks       *LockTable
	config      LockoutConfig
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
	now         func() time.Time
}

// NewLockoutGuard creates a LockoutGuard. A nil locks gets a fresh table.
func NewLockoutGuard(ledger AttemptLedger, locks *LockTable, config LockoutConfig, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *LockoutGuard {
	if locks == nil {
		locks = NewLockTable()
	}
	return &LockoutGuard{
		ledger:      ledger,
		locks:       locks,
		config:      config,
		logger:      logger,
		auditLogger: auditLogger,
		now:         time.Now,
	}
}

// FailClosed reports whether ledger errors should reject the attempt
func (g *LockoutGuard) FailClosed() bool {
	return g.config.FailClosed
}

// LockStatus reads the lock for username once and returns whether it is live
// together with the whole minutes left, rounded up. A live lock always has at
// least one minute left. Expired locks are removed.
func (g *LockoutGuard) LockStatus(username string) (bool, int) {
	now := g.now()
	entry, ok := g.locks.Live(username, now)
	if !ok {
		return false, 0
	}
	return true, ceilMinutes(entry.LockedUntil.Sub(now))
}

// IsLocked reports whether username holds a live lock
func (g *LockoutGuard) IsLocked(username string) bool {
	locked, _ := g.LockStatus(username)
	return locked
}

// RemainingLockMinutes returns the minutes left on a live lock, or 0
func (g *LockoutGuard) RemainingLockMinutes(username string) int {
	_, remaining := g.LockStatus(username)
	return remaining
}

// RecordAttempt appends the attempt to the ledger and, for a failure, locks
// username once the failures inside the window reach the threshold
func (g *LockoutGuard) RecordAttempt(ctx context.Context, username string, success bool) AttemptResult {
	now := g.now()

	if err := g.ledger.Append(ctx, username, success, now); err != nil {
		g.logger.Error("failed to record login attempt",
			slog.String("username", pkglogger.MaskUsername(username)),
			slog.Bool("success", success),
			slog.Any("error", err))
		return AttemptResult{LedgerErr: err}
	}

	if success {
		return AttemptResult{}
	}

	failures, err := g.ledger.CountFailuresSince(ctx, username, now.Add(-g.config.Window))
	if err != nil {
		g.logger.Error("failed to count login failures",
			slog.String("username", pkglogger.MaskUsername(username)),
			slog.Any("error", err))
		return AttemptResult{LedgerErr: err}
	}

	if failures < g.config.MaxFailures {
		return AttemptResult{}
	}

	lockedUntil := now.Add(g.config.Duration)
	g.locks.Set(username, models.LockEntry{LockedUntil: lockedUntil, Failures: failures})

	g.logger.Warn("login locked",
		slog.String("username", pkglogger.MaskUsername(username)),
		slog.Int("failures", failures),
		slog.Duration("duration", g.config.Duration))
	if g.auditLogger != nil {
		g.auditLogger.LogLockout(username, failures, lockedUntil)
	}

	return AttemptResult{Locked: true, RemainingMinutes: ceilMinutes(g.config.Duration)}
}

func ceilMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Minute - 1) / time.Minute)
}

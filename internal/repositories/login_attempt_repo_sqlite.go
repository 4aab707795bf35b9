package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/BradenHooton/inscriptions/internal/database"
)

// SQLiteLoginAttemptRepository is the SQLite attempt ledger.
// attempt_time is stored as unix nanoseconds.
type SQLiteLoginAttemptRepository struct {
	db *sql.DB
}

// NewSQLiteLoginAttemptRepository creates a new SQLiteLoginAttemptRepository
func NewSQLiteLoginAttemptRepository(db *database.DB) *SQLiteLoginAttemptRepository {
	return &SQLiteLoginAttemptRepository{db: db.SQL}
}

// Append records one login attempt
func (r *SQLiteLoginAttemptRepository) Append(ctx context.Context, username string, success bool, at time.Time) error {
	query := `INSERT INTO login_attempts (username, success, attempt_time) VALUES (?, ?, ?)`

	if _, err := r.db.ExecContext(ctx, query, username, boolToInt(success), at.UnixNano()); err != nil {
		return fmt.Errorf("failed to record login attempt: %w", database.MapError(err))
	}
	return nil
}

// CountFailuresSince returns the failed attempts for username strictly after since
func (r *SQLiteLoginAttemptRepository) CountFailuresSince(ctx context.Context, username string, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM login_attempts
		WHERE username = ? AND success = 0 AND attempt_time > ?
	`

	var count int
	if err := r.db.QueryRowContext(ctx, query, username, since.UnixNano()).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count failed attempts: %w", database.MapError(err))
	}
	return count, nil
}

// Purge deletes every attempt. Maintenance only.
func (r *SQLiteLoginAttemptRepository) Purge(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM login_attempts`)
	if err != nil {
		return 0, fmt.Errorf("failed to purge login attempts: %w", database.MapError(err))
	}
	return result.RowsAffected()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func fromUnixNano(ns int64) time.Time {
	return time.Unix(0, ns).UTC()
}

package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BradenHooton/inscriptions/internal/database"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LoginAttemptRepository is the Postgres attempt ledger
type LoginAttemptRepository struct {
	pool *pgxpool.Pool
}

// NewLoginAttemptRepository creates a new LoginAttemptRepository
func NewLoginAttemptRepository(db *database.DB) *LoginAttemptRepository {
	return &LoginAttemptRepository{pool: db.Pool}
}

// Append records one login attempt. It is a single INSERT, so an aborted
// request never leaves a partial row behind.
func (r *LoginAttemptRepository) Append(ctx context.Context, username string, success bool, at time.Time) error {
	query := `INSERT INTO login_attempts (username, success, attempt_time) VALUES ($1, $2, $3)`

	if _, err := r.pool.Exec(ctx, query, username, success, at.UTC()); err != nil {
		return fmt.Errorf("failed to record login attempt: %w", database.MapError(err))
	}
	return nil
}

// CountFailuresSince returns the number of failed attempts for username strictly after since
func (r *LoginAttemptRepository) CountFailuresSince(ctx context.Context, username string, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM login_attempts
		WHERE username = $1 AND success = FALSE AND attempt_time > $2
	`

	var count int
	if err := r.pool.QueryRow(ctx, query, username, since.UTC()).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count failed attempts: %w", database.MapError(err))
	}
	return count, nil
}

// Purge deletes every attempt. Maintenance only.
func (r *LoginAttemptRepository) Purge(ctx context.Context) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM login_attempts`)
	if err != nil {
		return 0, fmt.Errorf("failed to purge login attempts: %w", database.MapError(err))
	}
	return result.RowsAffected(), nil
}

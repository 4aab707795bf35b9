package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BradenHooton/inscriptions/internal/database"
	"github.com/BradenHooton/inscriptions/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// rowScanner interface for scanning rows (supports both single row and multiple rows)
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// AdminUserRepository stores dashboard accounts in Postgres
type AdminUserRepository struct {
	db   *database.DB
	pool *pgxpool.Pool
}

// NewAdminUserRepository creates a new AdminUserRepository
func NewAdminUserRepository(db *database.DB) *AdminUserRepository {
	return &AdminUserRepository{db: db, pool: db.Pool}
}

const adminColumns = `id, username, password_hash, created_at`

func scanAdminRow(scanner rowScanner) (*models.AdminUser, error) {
	var user models.AdminUser
	if err := scanner.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt); err != nil {
		return nil, database.MapError(err)
	}
	return &user, nil
}

func scanAdminRows(rows pgx.Rows) ([]*models.AdminUser, error) {
	defer rows.Close()

	users := make([]*models.AdminUser, 0)
	for rows.Next() {
		user, err := scanAdminRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan admin user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return users, nil
}

// GetByUsername returns the account with username or models.ErrNotFound
func (r *AdminUserRepository) GetByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	query := `SELECT ` + adminColumns + ` FROM admin_users WHERE username = $1`
	return scanAdminRow(r.pool.QueryRow(ctx, query, username))
}

// GetByID returns the account with id or models.ErrNotFound
func (r *AdminUserRepository) GetByID(ctx context.Context, id int64) (*models.AdminUser, error) {
	query := `SELECT ` + adminColumns + ` FROM admin_users WHERE id = $1`
	return scanAdminRow(r.pool.QueryRow(ctx, query, id))
}

// List returns every account ordered by username
func (r *AdminUserRepository) List(ctx context.Context) ([]*models.AdminUser, error) {
	query := `SELECT ` + adminColumns + ` FROM admin_users ORDER BY username`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query admin users: %w", err)
	}
	return scanAdminRows(rows)
}

// Create inserts an account. A taken username returns models.ErrConflict.
func (r *AdminUserRepository) Create(ctx context.Context, user *models.AdminUser) (*models.AdminUser, error) {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO admin_users (username, password_hash, created_at)
		VALUES ($1, $2, $3)
		RETURNING ` + adminColumns

	return scanAdminRow(r.pool.QueryRow(ctx, query, user.Username, user.PasswordHash, user.CreatedAt))
}

// Count returns the number of accounts
func (r *AdminUserRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM admin_users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count admin users: %w", err)
	}
	return count, nil
}

// DeleteUnlessLast removes the account unless it is the only one left.
// Every admin row is locked first, so concurrent deletes queue up and the
// later one sees the earlier one's result.
func (r *AdminUserRepository) DeleteUnlessLast(ctx context.Context, id int64) error {
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT id FROM admin_users FOR UPDATE`)
		if err != nil {
			return database.MapError(err)
		}
		ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
		if err != nil {
			return fmt.Errorf("failed to lock admin users: %w", database.MapError(err))
		}

		found := false
		for _, existing := range ids {
			if existing == id {
				found = true
				break
			}
		}
		if !found {
			return models.ErrNotFound
		}
		if len(ids) <= 1 {
			return models.ErrLastAdmin
		}

		if _, err := tx.Exec(ctx, `DELETE FROM admin_users WHERE id = $1`, id); err != nil {
			return database.MapError(err)
		}
		return nil
	})
}

// ReplaceByUsername deletes any account named user.Username and inserts user
// in its place, in one transaction. It returns the new row and how many rows
// were removed.
func (r *AdminUserRepository) ReplaceByUsername(ctx context.Context, user *models.AdminUser) (*models.AdminUser, int64, error) {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	var (
		created *models.AdminUser
		removed int64
	)
	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, `DELETE FROM admin_users WHERE username = $1`, user.Username)
		if err != nil {
			return database.MapError(err)
		}
		removed = result.RowsAffected()

		query := `
			INSERT INTO admin_users (username, password_hash, created_at)
			VALUES ($1, $2, $3)
			RETURNING ` + adminColumns
		created, err = scanAdminRow(tx.QueryRow(ctx, query, user.Username, user.PasswordHash, user.CreatedAt))
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return created, removed, nil
}

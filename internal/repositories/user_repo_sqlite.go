package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/BradenHooton/inscriptions/internal/database"
	"github.com/BradenHooton/inscriptions/internal/models"
)

// SQLiteAdminUserRepository stores dashboard accounts in SQLite.
// created_at is stored as unix nanoseconds.
type SQLiteAdminUserRepository struct {
	conn *database.DB
	db   *sql.DB
}

// NewSQLiteAdminUserRepository creates a new SQLiteAdminUserRepository
func NewSQLiteAdminUserRepository(db *database.DB) *SQLiteAdminUserRepository {
	return &SQLiteAdminUserRepository{conn: db, db: db.SQL}
}

func scanSQLiteAdminRow(scanner rowScanner) (*models.AdminUser, error) {
	var (
		user      models.AdminUser
		createdAt int64
	)
	if err := scanner.Scan(&user.ID, &user.Username, &user.PasswordHash, &createdAt); err != nil {
		return nil, database.MapError(err)
	}
	user.CreatedAt = fromUnixNano(createdAt)
	return &user, nil
}

// GetByUsername returns the account with username or models.ErrNotFound
func (r *SQLiteAdminUserRepository) GetByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	query := `SELECT ` + adminColumns + ` FROM admin_users WHERE username = ?`
	return scanSQLiteAdminRow(r.db.QueryRowContext(ctx, query, username))
}

// GetByID returns the account with id or models.ErrNotFound
func (r *SQLiteAdminUserRepository) GetByID(ctx context.Context, id int64) (*models.AdminUser, error) {
	query := `SELECT ` + adminColumns + ` FROM admin_users WHERE id = ?`
	return scanSQLiteAdminRow(r.db.QueryRowContext(ctx, query, id))
}

// List returns every account ordered by username
func (r *SQLiteAdminUserRepository) List(ctx context.Context) ([]*models.AdminUser, error) {
	query := `SELECT ` + adminColumns + ` FROM admin_users ORDER BY username`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query admin users: %w", err)
	}
	defer rows.Close()

	users := make([]*models.AdminUser, 0)
	for rows.Next() {
		user, err := scanSQLiteAdminRow(rows)
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

// Create inserts an account. A taken username returns models.ErrConflict.
func (r *SQLiteAdminUserRepository) Create(ctx context.Context, user *models.AdminUser) (*models.AdminUser, error) {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO admin_users (username, password_hash, created_at) VALUES (?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query, user.Username, user.PasswordHash, user.CreatedAt.UnixNano())
	if err != nil {
		return nil, database.MapError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read admin user id: %w", err)
	}

	created := *user
	created.ID = id
	return &created, nil
}

// Count returns the number of accounts
func (r *SQLiteAdminUserRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM admin_users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count admin users: %w", err)
	}
	return count, nil
}

// DeleteUnlessLast removes the account unless it is the only one left.
// SQLite serializes writers, so the single statement cannot interleave with another delete.
func (r *SQLiteAdminUserRepository) DeleteUnlessLast(ctx context.Context, id int64) error {
	query := `
		DELETE FROM admin_users
		WHERE id = ? AND (SELECT COUNT(*) FROM admin_users) > 1
	`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return database.MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return models.ErrLastAdmin
	}
	return nil
}

// ReplaceByUsername deletes any account named user.Username and inserts user
// in its place, in one transaction
func (r *SQLiteAdminUserRepository) ReplaceByUsername(ctx context.Context, user *models.AdminUser) (*models.AdminUser, int64, error) {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	created := *user
	var removed int64
	err := r.conn.WithSQLTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM admin_users WHERE username = ?`, user.Username)
		if err != nil {
			return database.MapError(err)
		}
		if removed, err = result.RowsAffected(); err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}

		query := `INSERT INTO admin_users (username, password_hash, created_at) VALUES (?, ?, ?)`
		result, err = tx.ExecContext(ctx, query, user.Username, user.PasswordHash, user.CreatedAt.UnixNano())
		if err != nil {
			return database.MapError(err)
		}
		if created.ID, err = result.LastInsertId(); err != nil {
			return fmt.Errorf("failed to read admin user id: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return &created, removed, nil
}

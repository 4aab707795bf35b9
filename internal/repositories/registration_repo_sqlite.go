package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/BradenHooton/inscriptions/internal/database"
	"github.com/BradenHooton/inscriptions/internal/models"
)

// SQLiteRegistrationRepository stores attendee sign-ups in SQLite
type SQLiteRegistrationRepository struct {
	db *sql.DB
}

// NewSQLiteRegistrationRepository creates a new SQLiteRegistrationRepository
func NewSQLiteRegistrationRepository(db *database.DB) *SQLiteRegistrationRepository {
	return &SQLiteRegistrationRepository{db: db.SQL}
}

func scanSQLiteRegistrationRow(scanner rowScanner) (*models.Registration, error) {
	var (
		reg          models.Registration
		addedToGroup int
		createdAt    int64
	)
	err := scanner.Scan(
		&reg.ID, &reg.FirstName, &reg.LastName, &reg.Age, &reg.Phone,
		&reg.IsStudent, &reg.StudentLevel, &reg.StudentLocation,
		&reg.Church, &reg.HasSnack, &reg.SnackDetail, &addedToGroup, &createdAt,
	)
	if err != nil {
		return nil, database.MapError(err)
	}
	reg.AddedToGroup = addedToGroup != 0
	reg.CreatedAt = fromUnixNano(createdAt)
	return &reg, nil
}

// List returns every registration in the requested order
func (r *SQLiteRegistrationRepository) List(ctx context.Context, order models.RegistrationOrder) ([]*models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations` + orderClause(order)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query registrations: %w", err)
	}
	defer rows.Close()

	regs := make([]*models.Registration, 0)
	for rows.Next() {
		reg, err := scanSQLiteRegistrationRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		regs = append(regs, reg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return regs, nil
}

// GetByID returns one registration or models.ErrNotFound
func (r *SQLiteRegistrationRepository) GetByID(ctx context.Context, id int64) (*models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE id = ?`
	return scanSQLiteRegistrationRow(r.db.QueryRowContext(ctx, query, id))
}

// GetByPhone returns the registration using phone or models.ErrNotFound
func (r *SQLiteRegistrationRepository) GetByPhone(ctx context.Context, phone string) (*models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE phone = ?`
	return scanSQLiteRegistrationRow(r.db.QueryRowContext(ctx, query, phone))
}

// Create inserts a registration. A taken phone number returns models.ErrConflict.
func (r *SQLiteRegistrationRepository) Create(ctx context.Context, reg *models.Registration) (*models.Registration, error) {
	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO registrations (first_name, last_name, age, phone, is_student, student_level, student_location,
			church, has_snack, snack_detail, added_to_group, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		reg.FirstName, reg.LastName, reg.Age, reg.Phone, reg.IsStudent, reg.StudentLevel, reg.StudentLocation,
		reg.Church, reg.HasSnack, reg.SnackDetail, boolToInt(bool(reg.AddedToGroup)), reg.CreatedAt.UnixNano(),
	)
	if err != nil {
		return nil, database.MapError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read registration id: %w", err)
	}
	return r.GetByID(ctx, id)
}

// Update overwrites the editable fields of registration id
func (r *SQLiteRegistrationRepository) Update(ctx context.Context, id int64, reg *models.Registration) (*models.Registration, error) {
	query := `
		UPDATE registrations
		SET first_name = ?, last_name = ?, age = ?, phone = ?, is_student = ?, student_level = ?,
			student_location = ?, church = ?, has_snack = ?, snack_detail = ?, added_to_group = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		reg.FirstName, reg.LastName, reg.Age, reg.Phone, reg.IsStudent, reg.StudentLevel, reg.StudentLocation,
		reg.Church, reg.HasSnack, reg.SnackDetail, boolToInt(bool(reg.AddedToGroup)), id,
	)
	if err != nil {
		return nil, database.MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return nil, models.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// Delete removes registration id
func (r *SQLiteRegistrationRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM registrations WHERE id = ?`, id)
	if err != nil {
		return database.MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Stats aggregates dashboard counters in one query
func (r *SQLiteRegistrationRepository) Stats(ctx context.Context) (*models.RegistrationStats, error) {
	var stats models.RegistrationStats
	err := r.db.QueryRowContext(ctx, registrationStatsQuery).Scan(
		&stats.Total, &stats.WithSnack, &stats.Students, &stats.AddedToGroup,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compute registration stats: %w", err)
	}
	return &stats, nil
}

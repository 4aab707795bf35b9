package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BradenHooton/inscriptions/internal/database"
	"github.com/BradenHooton/inscriptions/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

const registrationColumns = `id, first_name, last_name, age, phone, is_student, student_level, student_location,
	church, has_snack, snack_detail, added_to_group, created_at`

const registrationStatsQuery = `
	SELECT
		COUNT(*),
		COALESCE(SUM(CASE WHEN has_snack = 'oui' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN is_student = 'oui' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN added_to_group THEN 1 ELSE 0 END), 0)
	FROM registrations
`

func orderClause(order models.RegistrationOrder) string {
	if order == models.OrderByName {
		return ` ORDER BY last_name, first_name`
	}
	return ` ORDER BY created_at DESC, id DESC`
}

// RegistrationRepository stores attendee sign-ups in Postgres
type RegistrationRepository struct {
	pool *pgxpool.Pool
}

// NewRegistrationRepository creates a new RegistrationRepository
func NewRegistrationRepository(db *database.DB) *RegistrationRepository {
	return &RegistrationRepository{pool: db.Pool}
}

func scanRegistrationRow(scanner rowScanner) (*models.Registration, error) {
	var (
		reg          models.Registration
		addedToGroup bool
	)
	err := scanner.Scan(
		&reg.ID, &reg.FirstName, &reg.LastName, &reg.Age, &reg.Phone,
		&reg.IsStudent, &reg.StudentLevel, &reg.StudentLocation,
		&reg.Church, &reg.HasSnack, &reg.SnackDetail, &addedToGroup, &reg.CreatedAt,
	)
	if err != nil {
		return nil, database.MapError(err)
	}
	reg.AddedToGroup = models.Flag(addedToGroup)
	return &reg, nil
}

// List returns every registration in the requested order
func (r *RegistrationRepository) List(ctx context.Context, order models.RegistrationOrder) ([]*models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations` + orderClause(order)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query registrations: %w", err)
	}
	defer rows.Close()

	regs := make([]*models.Registration, 0)
	for rows.Next() {
		reg, err := scanRegistrationRow(rows)
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
func (r *RegistrationRepository) GetByID(ctx context.Context, id int64) (*models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE id = $1`
	return scanRegistrationRow(r.pool.QueryRow(ctx, query, id))
}

// GetByPhone returns the registration using phone or models.ErrNotFound
func (r *RegistrationRepository) GetByPhone(ctx context.Context, phone string) (*models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE phone = $1`
	return scanRegistrationRow(r.pool.QueryRow(ctx, query, phone))
}

// Create inserts a registration. A taken phone number returns models.ErrConflict.
func (r *RegistrationRepository) Create(ctx context.Context, reg *models.Registration) (*models.Registration, error) {
	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO registrations (first_name, last_name, age, phone, is_student, student_level, student_location,
			church, has_snack, snack_detail, added_to_group, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + registrationColumns

	return scanRegistrationRow(r.pool.QueryRow(ctx, query,
		reg.FirstName, reg.LastName, reg.Age, reg.Phone, reg.IsStudent, reg.StudentLevel, reg.StudentLocation,
		reg.Church, reg.HasSnack, reg.SnackDetail, bool(reg.AddedToGroup), reg.CreatedAt,
	))
}

// Update overwrites the editable fields of registration id
func (r *RegistrationRepository) Update(ctx context.Context, id int64, reg *models.Registration) (*models.Registration, error) {
	query := `
		UPDATE registrations
		SET first_name = $1, last_name = $2, age = $3, phone = $4, is_student = $5, student_level = $6,
			student_location = $7, church = $8, has_snack = $9, snack_detail = $10, added_to_group = $11
		WHERE id = $12
		RETURNING ` + registrationColumns

	return scanRegistrationRow(r.pool.QueryRow(ctx, query,
		reg.FirstName, reg.LastName, reg.Age, reg.Phone, reg.IsStudent, reg.StudentLevel, reg.StudentLocation,
		reg.Church, reg.HasSnack, reg.SnackDetail, bool(reg.AddedToGroup), id,
	))
}

// Delete removes registration id
func (r *RegistrationRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM registrations WHERE id = $1`, id)
	if err != nil {
		return database.MapError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Stats aggregates dashboard counters in one query
func (r *RegistrationRepository) Stats(ctx context.Context) (*models.RegistrationStats, error) {
	var stats models.RegistrationStats
	err := r.pool.QueryRow(ctx, registrationStatsQuery).Scan(
		&stats.Total, &stats.WithSnack, &stats.Students, &stats.AddedToGroup,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compute registration stats: %w", err)
	}
	return &stats, nil
}

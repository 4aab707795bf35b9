package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BradenHooton/inscriptions/internal/config"
	"github.com/BradenHooton/inscriptions/internal/database"
	"github.com/BradenHooton/inscriptions/internal/models"
)

// AttemptLedger is the append-only log of login attempts
type AttemptLedger interface {
	Append(ctx context.Context, username string, success bool, at time.Time) error
	CountFailuresSince(ctx context.Context, username string, since time.Time) (int, error)
	Purge(ctx context.Context) (int64, error)
}

// AdminUserStore holds dashboard credentials
type AdminUserStore interface {
	GetByUsername(ctx context.Context, username string) (*models.AdminUser, error)
	GetByID(ctx context.Context, id int64) (*models.AdminUser, error)
	List(ctx context.Context) ([]*models.AdminUser, error)
	Create(ctx context.Context, user *models.AdminUser) (*models.AdminUser, error)
	Count(ctx context.Context) (int, error)
	DeleteUnlessLast(ctx context.Context, id int64) error
	ReplaceByUsername(ctx context.Context, user *models.AdminUser) (*models.AdminUser, int64, error)
}

// RegistrationStore holds attendee sign-ups
type RegistrationStore interface {
	List(ctx context.Context, order models.RegistrationOrder) ([]*models.Registration, error)
	GetByID(ctx context.Context, id int64) (*models.Registration, error)
	GetByPhone(ctx context.Context, phone string) (*models.Registration, error)
	Create(ctx context.Context, reg *models.Registration) (*models.Registration, error)
	Update(ctx context.Context, id int64, reg *models.Registration) (*models.Registration, error)
	Delete(ctx context.Context, id int64) error
	Stats(ctx context.Context) (*models.RegistrationStats, error)
}

// Store bundles the repositories of one backend. Callers never see which one.
type Store struct {
	Attempts      AttemptLedger
	Admins        AdminUserStore
	Registrations RegistrationStore
}

// NewStore picks the repository implementations matching db.Driver
func NewStore(db *database.DB) (*Store, error) {
	switch db.Driver {
	case config.DriverPostgres:
		return &Store{
			Attempts:      NewLoginAttemptRepository(db),
			Admins:        NewAdminUserRepository(db),
			Registrations: NewRegistrationRepository(db),
		}, nil
	case config.DriverSQLite:
		return &Store{
			Attempts:      NewSQLiteLoginAttemptRepository(db),
			Admins:        NewSQLiteAdminUserRepository(db),
			Registrations: NewSQLiteRegistrationRepository(db),
		}, nil
	default:
		return nil, fmt.Errorf("no repositories for database driver %q", db.Driver)
	}
}

package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BradenHooton/inscriptions/internal/models"
)

// FakeClock is a settable time source for lockout tests
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock starts a clock at t
func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{now: t}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// MemoryLedger is an in-memory AttemptLedger that counts its calls
type MemoryLedger struct {
	mu       sync.Mutex
	attempts []models.LoginAttempt

	AppendCalls atomic.Int64
	CountCalls  atomic.Int64
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{}
}

func (l *MemoryLedger) Append(ctx context.Context, username string, success bool, at time.Time) error {
	l.AppendCalls.Add(1)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.attempts = append(l.attempts, models.LoginAttempt{
		ID:          int64(len(l.attempts) + 1),
		Username:    username,
		Success:     success,
		AttemptTime: at,
	})
	return nil
}

func (l *MemoryLedger) CountFailuresSince(ctx context.Context, username string, since time.Time) (int, error) {
	l.CountCalls.Add(1)
	l.mu.Lock()
	defer l.mu.Unlock()
	count := 0
	for _, a := range l.attempts {
		if a.Username == username && !a.Success && a.AttemptTime.After(since) {
			count++
		}
	}
	return count, nil
}

// Failures returns how many failed attempts were recorded for username
func (l *MemoryLedger) Failures(username string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	count := 0
	for _, a := range l.attempts {
		if a.Username == username && !a.Success {
			count++
		}
	}
	return count
}

// Len returns the number of stored attempts
func (l *MemoryLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.attempts)
}

var errLedgerDown = errors.New("ledger unavailable")

// FailingLedger returns an error from every call
type FailingLedger struct {
	Calls atomic.Int64
}

func (l *FailingLedger) Append(ctx context.Context, username string, success bool, at time.Time) error {
	l.Calls.Add(1)
	return errLedgerDown
}

func (l *FailingLedger) CountFailuresSince(ctx context.Context, username string, since time.Time) (int, error) {
	l.Calls.Add(1)
	return 0, errLedgerDown
}

// MockCredentialStore implements CredentialStore for testing
type MockCredentialStore struct {
	GetByUsernameFunc func(ctx context.Context, username string) (*models.AdminUser, error)
	Calls             atomic.Int64
}

func (m *MockCredentialStore) GetByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	m.Calls.Add(1)
	if m.GetByUsernameFunc != nil {
		return m.GetByUsernameFunc(ctx, username)
	}
	return nil, models.ErrNotFound
}

// MockTokenIssuer implements TokenIssuer for testing
type MockTokenIssuer struct {
	GenerateTokenFunc func(username string) (string, time.Time, error)
}

func (m *MockTokenIssuer) GenerateToken(username string) (string, time.Time, error) {
	if m.GenerateTokenFunc != nil {
		return m.GenerateTokenFunc(username)
	}
	return "token-for-" + username, time.Now().Add(time.Hour), nil
}

// MockAdminUserRepository implements AdminUserRepository for testing
type MockAdminUserRepository struct {
	GetByUsernameFunc     func(ctx context.Context, username string) (*models.AdminUser, error)
	ListFunc              func(ctx context.Context) ([]*models.AdminUser, error)
	CreateFunc            func(ctx context.Context, user *models.AdminUser) (*models.AdminUser, error)
	DeleteUnlessLastFunc  func(ctx context.Context, id int64) error
	ReplaceByUsernameFunc func(ctx context.Context, user *models.AdminUser) (*models.AdminUser, int64, error)
}

func (m *MockAdminUserRepository) GetByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	if m.GetByUsernameFunc != nil {
		return m.GetByUsernameFunc(ctx, username)
	}
	return nil, models.ErrNotFound
}

func (m *MockAdminUserRepository) List(ctx context.Context) ([]*models.AdminUser, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []*models.AdminUser{}, nil
}

func (m *MockAdminUserRepository) Create(ctx context.Context, user *models.AdminUser) (*models.AdminUser, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	created := *user
	created.ID = 1
	created.CreatedAt = time.Now()
	return &created, nil
}

func (m *MockAdminUserRepository) DeleteUnlessLast(ctx context.Context, id int64) error {
	if m.DeleteUnlessLastFunc != nil {
		return m.DeleteUnlessLastFunc(ctx, id)
	}
	return nil
}

func (m *MockAdminUserRepository) ReplaceByUsername(ctx context.Context, user *models.AdminUser) (*models.AdminUser, int64, error) {
	if m.ReplaceByUsernameFunc != nil {
		return m.ReplaceByUsernameFunc(ctx, user)
	}
	created := *user
	created.ID = 1
	created.CreatedAt = time.Now()
	return &created, 0, nil
}

// MockRegistrationRepository implements RegistrationRepository for testing
type MockRegistrationRepository struct {
	ListFunc       func(ctx context.Context, order models.RegistrationOrder) ([]*models.Registration, error)
	GetByIDFunc    func(ctx context.Context, id int64) (*models.Registration, error)
	GetByPhoneFunc func(ctx context.Context, phone string) (*models.Registration, error)
	CreateFunc     func(ctx context.Context, reg *models.Registration) (*models.Registration, error)
	UpdateFunc     func(ctx context.Context, id int64, reg *models.Registration) (*models.Registration, error)
	DeleteFunc     func(ctx context.Context, id int64) error
	StatsFunc      func(ctx context.Context) (*models.RegistrationStats, error)
}

func (m *MockRegistrationRepository) List(ctx context.Context, order models.RegistrationOrder) ([]*models.Registration, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, order)
	}
	return []*models.Registration{}, nil
}

func (m *MockRegistrationRepository) GetByID(ctx context.Context, id int64) (*models.Registration, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockRegistrationRepository) GetByPhone(ctx context.Context, phone string) (*models.Registration, error) {
	if m.GetByPhoneFunc != nil {
		return m.GetByPhoneFunc(ctx, phone)
	}
	return nil, models.ErrNotFound
}

func (m *MockRegistrationRepository) Create(ctx context.Context, reg *models.Registration) (*models.Registration, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, reg)
	}
	created := *reg
	created.ID = 1
	created.CreatedAt = time.Now()
	return &created, nil
}

func (m *MockRegistrationRepository) Update(ctx context.Context, id int64, reg *models.Registration) (*models.Registration, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, reg)
	}
	updated := *reg
	updated.ID = id
	return &updated, nil
}

func (m *MockRegistrationRepository) Delete(ctx context.Context, id int64) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockRegistrationRepository) Stats(ctx context.Context) (*models.RegistrationStats, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx)
	}
	return &models.RegistrationStats{}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// NewTestGuard builds a guard over ledger whose clock is driven by clock
func NewTestGuard(ledger AttemptLedger, clock *FakeClock, config LockoutConfig) *LockoutGuard {
	guard := NewLockoutGuard(ledger, NewLockTable(), config, discardLogger(), nil)
	guard.now = clock.Now
	return guard
}

// NewTestRegistration returns a valid non-student sign-up without a snack
func NewTestRegistration(phone string) *models.Registration {
	return &models.Registration{
		FirstName: "Marie",
		LastName:  "Dupont",
		Age:       22,
		Phone:     phone,
		IsStudent: models.No,
		Church:    "Saint-Paul",
		HasSnack:  models.No,
	}
}

package repositories

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/BradenHooton/inscriptions/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The same behaviour is asserted against every backend.

func testLedger(t *testing.T, newStore func(t *testing.T) *Store) {
	t.Run("counts only failures strictly after since", func(t *testing.T) {
		ledger := newStore(t).Attempts
		ctx := context.Background()
		base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		require.NoError(t, ledger.Append(ctx, "alice", false, base))
		require.NoError(t, ledger.Append(ctx, "alice", false, base.Add(time.Minute)))
		require.NoError(t, ledger.Append(ctx, "alice", true, base.Add(2*time.Minute)))
		require.NoError(t, ledger.Append(ctx, "bob", false, base.Add(2*time.Minute)))

		count, err := ledger.CountFailuresSince(ctx, "alice", base.Add(-time.Second))
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		// Boundary is exclusive
		count, err = ledger.CountFailuresSince(ctx, "alice", base)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		count, err = ledger.CountFailuresSince(ctx, "carol", base.Add(-time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("concurrent appends are all counted", func(t *testing.T) {
		ledger := newStore(t).Attempts
		ctx := context.Background()
		now := time.Now()

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, ledger.Append(ctx, "alice", false, now))
			}()
		}
		wg.Wait()

		count, err := ledger.CountFailuresSince(ctx, "alice", now.Add(-time.Minute))
		require.NoError(t, err)
		assert.Equal(t, 20, count)
	})

	t.Run("purge removes everything", func(t *testing.T) {
		ledger := newStore(t).Attempts
		ctx := context.Background()
		now := time.Now()

		require.NoError(t, ledger.Append(ctx, "alice", false, now))
		require.NoError(t, ledger.Append(ctx, "bob", true, now))

		removed, err := ledger.Purge(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), removed)

		count, err := ledger.CountFailuresSince(ctx, "alice", now.Add(-time.Minute))
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func testAdminUsers(t *testing.T, newStore func(t *testing.T) *Store) {
	t.Run("create, lookup and list", func(t *testing.T) {
		admins := newStore(t).Admins
		ctx := context.Background()

		created, err := admins.Create(ctx, &models.AdminUser{Username: "zoe", PasswordHash: "h1"})
		require.NoError(t, err)
		assert.NotZero(t, created.ID)

		_, err = admins.Create(ctx, &models.AdminUser{Username: "adam", PasswordHash: "h2"})
		require.NoError(t, err)

		got, err := admins.GetByUsername(ctx, "zoe")
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, "h1", got.PasswordHash)

		list, err := admins.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "adam", list[0].Username)
		assert.Equal(t, "zoe", list[1].Username)

		_, err = admins.GetByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		admins := newStore(t).Admins
		ctx := context.Background()

		_, err := admins.Create(ctx, &models.AdminUser{Username: "admin", PasswordHash: "h"})
		require.NoError(t, err)

		_, err = admins.Create(ctx, &models.AdminUser{Username: "admin", PasswordHash: "h"})
		assert.ErrorIs(t, err, models.ErrConflict)
	})

	t.Run("last admin cannot be deleted", func(t *testing.T) {
		admins := newStore(t).Admins
		ctx := context.Background()

		first, err := admins.Create(ctx, &models.AdminUser{Username: "first", PasswordHash: "h"})
		require.NoError(t, err)
		second, err := admins.Create(ctx, &models.AdminUser{Username: "second", PasswordHash: "h"})
		require.NoError(t, err)

		require.NoError(t, admins.DeleteUnlessLast(ctx, first.ID))
		assert.ErrorIs(t, admins.DeleteUnlessLast(ctx, second.ID), models.ErrLastAdmin)
		assert.ErrorIs(t, admins.DeleteUnlessLast(ctx, first.ID), models.ErrNotFound)

		count, err := admins.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("concurrent deletes keep one admin", func(t *testing.T) {
		admins := newStore(t).Admins
		ctx := context.Background()

		first, err := admins.Create(ctx, &models.AdminUser{Username: "first", PasswordHash: "h"})
		require.NoError(t, err)
		second, err := admins.Create(ctx, &models.AdminUser{Username: "second", PasswordHash: "h"})
		require.NoError(t, err)

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i, id := range []int64{first.ID, second.ID} {
			wg.Add(1)
			go func(i int, id int64) {
				defer wg.Done()
				errs[i] = admins.DeleteUnlessLast(ctx, id)
			}(i, id)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
			} else {
				assert.ErrorIs(t, err, models.ErrLastAdmin)
			}
		}
		assert.Equal(t, 1, succeeded)

		count, err := admins.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("replace by username", func(t *testing.T) {
		admins := newStore(t).Admins
		ctx := context.Background()

		created, removed, err := admins.ReplaceByUsername(ctx, &models.AdminUser{Username: "admin", PasswordHash: "old"})
		require.NoError(t, err)
		assert.Zero(t, removed)

		replaced, removed, err := admins.ReplaceByUsername(ctx, &models.AdminUser{Username: "admin", PasswordHash: "new"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), removed)
		assert.NotEqual(t, created.ID, replaced.ID)

		got, err := admins.GetByUsername(ctx, "admin")
		require.NoError(t, err)
		assert.Equal(t, "new", got.PasswordHash)

		count, err := admins.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

func strPtr(s string) *string { return &s }

func newRegistration(first, last, phone string) *models.Registration {
	return &models.Registration{
		FirstName: first,
		LastName:  last,
		Age:       20,
		Phone:     phone,
		IsStudent: models.No,
		Church:    "",
		HasSnack:  models.No,
	}
}

func testRegistrations(t *testing.T, newStore func(t *testing.T) *Store) {
	t.Run("create, update, delete", func(t *testing.T) {
		regs := newStore(t).Registrations
		ctx := context.Background()

		reg := newRegistration("Marie", "Curie", "+33600000001")
		reg.IsStudent = models.Yes
		reg.StudentLevel = strPtr("Licence")
		reg.StudentLocation = strPtr("Paris")

		created, err := regs.Create(ctx, reg)
		require.NoError(t, err)
		assert.NotZero(t, created.ID)
		require.NotNil(t, created.StudentLevel)
		assert.Equal(t, "Licence", *created.StudentLevel)
		assert.Nil(t, created.SnackDetail)

		byPhone, err := regs.GetByPhone(ctx, "+33600000001")
		require.NoError(t, err)
		assert.Equal(t, created.ID, byPhone.ID)

		created.AddedToGroup = true
		created.HasSnack = models.Yes
		created.SnackDetail = strPtr("Crêpes")
		updated, err := regs.Update(ctx, created.ID, created)
		require.NoError(t, err)
		assert.True(t, bool(updated.AddedToGroup))
		require.NotNil(t, updated.SnackDetail)
		assert.Equal(t, "Crêpes", *updated.SnackDetail)

		_, err = regs.Update(ctx, created.ID+1000, created)
		assert.ErrorIs(t, err, models.ErrNotFound)

		require.NoError(t, regs.Delete(ctx, created.ID))
		assert.ErrorIs(t, regs.Delete(ctx, created.ID), models.ErrNotFound)

		_, err = regs.GetByID(ctx, created.ID)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("duplicate phone conflicts", func(t *testing.T) {
		regs := newStore(t).Registrations
		ctx := context.Background()

		_, err := regs.Create(ctx, newRegistration("A", "One", "0600"))
		require.NoError(t, err)

		_, err = regs.Create(ctx, newRegistration("B", "Two", "0600"))
		assert.ErrorIs(t, err, models.ErrConflict)
	})

	t.Run("list orders and stats", func(t *testing.T) {
		regs := newStore(t).Registrations
		ctx := context.Background()
		base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

		a := newRegistration("Zed", "Alpha", "01")
		a.CreatedAt = base
		a.HasSnack = models.Yes
		b := newRegistration("Amy", "Beta", "02")
		b.CreatedAt = base.Add(time.Hour)
		b.IsStudent = models.Yes
		c := newRegistration("Bob", "Alpha", "03")
		c.CreatedAt = base.Add(2 * time.Hour)
		c.AddedToGroup = true

		for _, reg := range []*models.Registration{a, b, c} {
			_, err := regs.Create(ctx, reg)
			require.NoError(t, err)
		}

		newest, err := regs.List(ctx, models.OrderNewestFirst)
		require.NoError(t, err)
		require.Len(t, newest, 3)
		assert.Equal(t, "03", newest[0].Phone)
		assert.Equal(t, "01", newest[2].Phone)

		byName, err := regs.List(ctx, models.OrderByName)
		require.NoError(t, err)
		require.Len(t, byName, 3)
		assert.Equal(t, []string{"Bob", "Zed", "Amy"}, []string{byName[0].FirstName, byName[1].FirstName, byName[2].FirstName})

		stats, err := regs.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, stats.Total)
		assert.Equal(t, 1, stats.WithSnack)
		assert.Equal(t, 1, stats.Students)
		assert.Equal(t, 1, stats.AddedToGroup)
	})

	t.Run("stats on empty table", func(t *testing.T) {
		regs := newStore(t).Registrations

		stats, err := regs.Stats(context.Background())
		require.NoError(t, err)
		assert.Equal(t, models.RegistrationStats{}, *stats)
	})
}

package services

import (
	"sync"
	"time"

	"github.com/BradenHooton/inscriptions/internal/models"
)

// LockTable holds the active login locks of this process, at most one per
// username. Entries are never persisted and are removed only when observed
// expired.
type LockTable struct {
	mu      sync.Mutex
	entries map[string]models.LockEntry
}

// NewLockTable creates an empty LockTable
func NewLockTable() *LockTable {
	return &LockTable{entries: make(map[string]models.LockEntry)}
}

// Live returns the entry for username if it expires after now. An expired
// entry is deleted.
func (t *LockTable) Live(username string, now time.Time) (models.LockEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[username]
	if !ok {
		return models.LockEntry{}, false
	}
	if !now.Before(entry.LockedUntil) {
		delete(t.entries, username)
		return models.LockEntry{}, false
	}
	return entry, true
}

// Set installs or refreshes the lock for username
func (t *LockTable) Set(username string, entry models.LockEntry) {
	t.mu.Lock()
	t.entries[username] = entry
	t.mu.Unlock()
}

// Len reports the number of entries, expired ones included
func (t *LockTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

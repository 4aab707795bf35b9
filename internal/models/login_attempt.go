package models

import "time"

// LoginAttempt is one row of the attempt ledger. Rows are append-only.
type LoginAttempt struct {
	ID          int64     `db:"id"`
	Username    string    `db:"username"`
	Success     bool      `db:"success"`
	AttemptTime time.Time `db:"attempt_time"`
}

// LockEntry describes an active in-memory lock for a subject
type LockEntry struct {
	LockedUntil time.Time
	Failures    int
}

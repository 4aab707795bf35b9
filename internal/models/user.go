package models

import (
	"time"
)

// AdminUser is a dashboard account. The username is the login subject.
type AdminUser struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

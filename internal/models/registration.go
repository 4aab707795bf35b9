package models

import "time"

const (
	Yes = "oui"
	No  = "non"

	MinAttendeeAge = 15
)

// Registration is an attendee sign-up collected by the public form
type Registration struct {
	ID              int64     `json:"id"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	Age             int       `json:"age"`
	Phone           string    `json:"phone"`
	IsStudent       string    `json:"isStudent"`
	StudentLevel    *string   `json:"studentLevel"`
	StudentLocation *string   `json:"studentLocation"`
	Church          string    `json:"church"`
	HasSnack        string    `json:"hasSnack"`
	SnackDetail     *string   `json:"snackDetail"`
	AddedToGroup    Flag      `json:"addedToGroup"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Normalize clears the conditional fields that only apply to students or snack contributors
func (r *Registration) Normalize() {
	if r.IsStudent != Yes {
		r.StudentLevel = nil
		r.StudentLocation = nil
	}
	if r.HasSnack != Yes {
		r.SnackDetail = nil
	}
}

// RegistrationStats aggregates headline numbers for the dashboard
type RegistrationStats struct {
	Total           int `json:"total"`
	WithSnack       int `json:"withSnack"`
	Students        int `json:"students"`
	AddedToGroup    int `json:"addedToGroup"`
	SnackPercentage int `json:"snackPercentage"`
}

// RegistrationOrder selects the listing order
type RegistrationOrder int

const (
	// OrderNewestFirst sorts by creation time, most recent first (dashboard)
	OrderNewestFirst RegistrationOrder = iota
	// OrderByName sorts by last name then first name (export)
	OrderByName
)

package models

import "time"

// RegistrationStatus tracks office follow-up on a registration.
type RegistrationStatus string

const (
	RegistrationStatusNew       RegistrationStatus = "new"
	RegistrationStatusContacted RegistrationStatus = "contacted"
	RegistrationStatusEnrolled  RegistrationStatus = "enrolled"
	RegistrationStatusCancelled RegistrationStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s RegistrationStatus) Valid() bool {
	switch s {
	case RegistrationStatusNew, RegistrationStatusContacted, RegistrationStatusEnrolled, RegistrationStatusCancelled:
		return true
	}
	return false
}

// Registration is a submitted course registration. Course, Location and Time hold the display
// values chosen in the form, not foreign keys.
type Registration struct {
	ID        string             `db:"id" json:"id"`
	Name      string             `db:"name" json:"name"`
	Phone     string             `db:"phone" json:"phone"`
	Email     string             `db:"email" json:"email"`
	Course    string             `db:"course" json:"course"`
	Location  string             `db:"location" json:"location"`
	Grade     string             `db:"grade" json:"grade"`
	Time      string             `db:"time" json:"time"`
	Gender    string             `db:"gender" json:"gender"`
	Period    *string            `db:"period" json:"period,omitempty"`
	Message   *string            `db:"message" json:"message,omitempty"`
	Status    RegistrationStatus `db:"status" json:"status"`
	CreatedAt time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt time.Time          `db:"updated_at" json:"updated_at"`
}

// RegistrationFilter scopes admin listings.
type RegistrationFilter struct {
	Status   RegistrationStatus
	Course   string
	Search   string
	Page     int
	PageSize int
}

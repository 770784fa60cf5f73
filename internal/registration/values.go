package registration

import (
	"context"
	"strings"

	"github.com/kodkids/site-api/internal/models"
)

// Values is the registration form as submitted.
type Values struct {
	Name     string `json:"name" validate:"required,min=2"`
	Phone    string `json:"phone" validate:"required,phone"`
	Email    string `json:"email" validate:"required,email"`
	Course   string `json:"course" validate:"required"`
	Location string `json:"location" validate:"required"`
	Grade    string `json:"grade" validate:"required"`
	Time     string `json:"time" validate:"required"`
	Gender   string `json:"gender" validate:"required"`
	Period   string `json:"period,omitempty"`
	Message  string `json:"message,omitempty" validate:"max=2000"`
}

// Normalize trims surrounding whitespace from free-text fields. Option values are left verbatim.
func (v Values) Normalize() Values {
	v.Name = strings.TrimSpace(v.Name)
	v.Phone = strings.TrimSpace(v.Phone)
	v.Email = strings.TrimSpace(v.Email)
	v.Grade = strings.TrimSpace(v.Grade)
	v.Message = strings.TrimSpace(v.Message)
	return v
}

// Details are the form fields that never cascade into other selections.
type Details struct {
	Name    string
	Phone   string
	Email   string
	Grade   string
	Gender  string
	Message string
}

// Submitter persists a completed form.
type Submitter interface {
	Submit(ctx context.Context, values Values) (*models.Registration, error)
}

package dto

// ContactRequest is the public contact form.
type ContactRequest struct {
	Name    string `json:"name" validate:"required,min=2,max=120"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"omitempty,phone"`
	Subject string `json:"subject" validate:"max=160"`
	Body    string `json:"message" validate:"required,max=2000"`
}

package dto

// UpdateRegistrationStatusRequest records office follow-up.
type UpdateRegistrationStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=new contacted enrolled cancelled"`
}

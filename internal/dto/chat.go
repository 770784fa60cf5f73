package dto

// StartChatRequest opens a chat session. Both fields are optional.
type StartChatRequest struct {
	VisitorName  string `json:"visitor_name" validate:"omitempty,max=120"`
	VisitorEmail string `json:"visitor_email" validate:"omitempty,email"`
}

// ChatMessageRequest posts a message into a session.
type ChatMessageRequest struct {
	Body string `json:"body" validate:"required,max=2000"`
}

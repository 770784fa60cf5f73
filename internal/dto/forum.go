package dto

// ThreadRequest starts or edits a forum thread.
type ThreadRequest struct {
	Title string `json:"title" validate:"required,min=3,max=160"`
	Body  string `json:"body" validate:"required,max=5000"`
}

// ReplyRequest answers a thread.
type ReplyRequest struct {
	Body string `json:"body" validate:"required,max=5000"`
}

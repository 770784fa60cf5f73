package mailer

import (
	"context"
	"net/mail"
)

// Message is a plain-text + HTML email.
type Message struct {
	To       []mail.Address
	ReplyTo  *mail.Address
	Subject  string
	TextBody string
	HTMLBody string
}

// HasRecipients reports whether the message can be delivered.
func (m Message) HasRecipients() bool {
	return len(m.To) > 0
}

// Sender delivers messages synchronously so callers can retry on failure.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

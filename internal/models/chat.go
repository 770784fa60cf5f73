package models

import "time"

// ChatSessionStatus marks whether staff still need to answer a session.
type ChatSessionStatus string

const (
	ChatSessionOpen   ChatSessionStatus = "open"
	ChatSessionClosed ChatSessionStatus = "closed"
)

// ChatSender distinguishes visitor and staff messages.
type ChatSender string

const (
	ChatSenderVisitor ChatSender = "visitor"
	ChatSenderStaff   ChatSender = "staff"
)

// ChatSession is a chat widget conversation. The ID is handed to the visitor, who keeps it locally.
type ChatSession struct {
	ID            string            `db:"id" json:"id"`
	VisitorName   *string           `db:"visitor_name" json:"visitor_name,omitempty"`
	VisitorEmail  *string           `db:"visitor_email" json:"visitor_email,omitempty"`
	Status        ChatSessionStatus `db:"status" json:"status"`
	CreatedAt     time.Time         `db:"created_at" json:"created_at"`
	LastMessageAt time.Time         `db:"last_message_at" json:"last_message_at"`
}

// ChatMessage is a single message in a session.
type ChatMessage struct {
	ID        string     `db:"id" json:"id"`
	SessionID string     `db:"session_id" json:"session_id"`
	Sender    ChatSender `db:"sender" json:"sender"`
	Body      string     `db:"body" json:"body"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

package models

import "time"

// ForumThread is a discussion started under a lesson.
type ForumThread struct {
	ID         string    `db:"id" json:"id"`
	LessonID   string    `db:"lesson_id" json:"lesson_id"`
	AuthorID   string    `db:"author_id" json:"author_id"`
	AuthorName string    `db:"author_name" json:"author_name"`
	Title      string    `db:"title" json:"title"`
	Body       string    `db:"body" json:"body"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// ForumReply answers a thread.
type ForumReply struct {
	ID         string    `db:"id" json:"id"`
	ThreadID   string    `db:"thread_id" json:"thread_id"`
	AuthorID   string    `db:"author_id" json:"author_id"`
	AuthorName string    `db:"author_name" json:"author_name"`
	Body       string    `db:"body" json:"body"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// ForumThreadDetail is a thread with its replies, oldest first.
type ForumThreadDetail struct {
	ForumThread
	Replies []ForumReply `json:"replies"`
}

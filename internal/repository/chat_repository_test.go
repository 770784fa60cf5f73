package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kodkids/site-api/internal/models"
)

func TestChatRepositoryAddMessageTouchesSession(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewChatRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO chat_messages").
		WithArgs(sqlmock.AnyArg(), "s1", "visitor", "hi there", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE chat_sessions SET last_message_at = $2 WHERE id = $1")).
		WithArgs("s1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	msg := &models.ChatMessage{SessionID: "s1", Sender: models.ChatSenderVisitor, Body: "hi there"}
	require.NoError(t, repo.AddMessage(context.Background(), msg))
	assert.NotEmpty(t, msg.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChatRepositoryAddMessageRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewChatRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO chat_messages").WillReturnError(errors.New("fk violation"))
	mock.ExpectRollback()

	err := repo.AddMessage(context.Background(), &models.ChatMessage{SessionID: "gone", Sender: models.ChatSenderVisitor, Body: "hi"})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChatRepositoryListMessagesChronological(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewChatRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "session_id", "sender", "body", "created_at"}).
		AddRow("m1", "s1", "visitor", "hello", now.Add(-time.Minute)).
		AddRow("m2", "s1", "staff", "hi! how can we help?", now)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE session_id = $1 ORDER BY created_at DESC LIMIT $2")).
		WithArgs("s1", 50).
		WillReturnRows(rows)

	messages, err := repo.ListMessages(context.Background(), "s1", 50)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, models.ChatSenderStaff, messages[1].Sender)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package repository

import (
	"testing"
	"time"

	"backend/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupChatRepo(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, ChatRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewChatRepository(sqlxDB, zap.NewNop())

	return sqlxDB, mock, repo
}

func TestGetBetweenUsers_NoChat(t *testing.T) {
	db, mock, repo := setupChatRepo(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT (.+) FROM chats`).
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user1_id", "user2_id", "created_at"}))

	chat, err := repo.GetBetweenUsers(1, 2)

	require.NoError(t, err)
	assert.Nil(t, chat)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMessages_ResolvesRequestStatus(t *testing.T) {
	db, mock, repo := setupChatRepo(t)
	defer db.Close()

	now := time.Now()
	requestID := int64(7)
	rows := sqlmock.NewRows([]string{
		"id", "chat_id", "sender_id", "body", "message_type", "request_id", "request_status", "sent_at",
	}).
		AddRow(int64(1), int64(3), int64(1), "Oi, tudo bem?", models.MessageTypeText, nil, nil, now).
		AddRow(int64(2), int64(3), int64(1), "Maria Silva gostaria de ter acesso aos dados dos seus filhos para poder cuidar melhor deles.",
			models.MessageTypeChildDataRequest, requestID, models.RequestStatusAccepted, now)

	mock.ExpectQuery(`LEFT JOIN child_data_requests`).
		WithArgs(int64(3)).
		WillReturnRows(rows)

	messages, err := repo.GetMessages(3)

	require.NoError(t, err)
	require.Len(t, messages, 2)

	assert.Equal(t, models.MessageTypeText, messages[0].MessageType)
	assert.Nil(t, messages[0].RequestID)
	assert.Nil(t, messages[0].RequestStatus)

	require.NotNil(t, messages[1].RequestID)
	assert.Equal(t, requestID, *messages[1].RequestID)
	require.NotNil(t, messages[1].RequestStatus)
	assert.Equal(t, models.RequestStatusAccepted, *messages[1].RequestStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendMessage_ExistingChat(t *testing.T) {
	db, mock, repo := setupChatRepo(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM chats`).
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user1_id", "user2_id", "created_at"}).
			AddRow(int64(3), int64(1), int64(2), now))
	mock.ExpectQuery(`INSERT INTO messages`).
		WithArgs(int64(3), int64(1), "Oi!", models.MessageTypeText, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "sent_at"}).AddRow(int64(10), now))
	mock.ExpectCommit()

	msg := &models.Message{SenderID: 1, Body: "Oi!", MessageType: models.MessageTypeText}
	chat, err := repo.AppendMessage(1, 2, msg)

	require.NoError(t, err)
	require.NotNil(t, chat)
	assert.Equal(t, int64(3), chat.ID)
	assert.Equal(t, int64(3), msg.ChatID)
	assert.Equal(t, int64(10), msg.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendMessage_CreatesChat(t *testing.T) {
	db, mock, repo := setupChatRepo(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM chats`).
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user1_id", "user2_id", "created_at"}))
	mock.ExpectQuery(`INSERT INTO chats`).
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user1_id", "user2_id", "created_at"}).
			AddRow(int64(4), int64(1), int64(2), now))
	mock.ExpectQuery(`INSERT INTO messages`).
		WithArgs(int64(4), int64(1), "Oi!", models.MessageTypeText, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "sent_at"}).AddRow(int64(11), now))
	mock.ExpectCommit()

	msg := &models.Message{SenderID: 1, Body: "Oi!", MessageType: models.MessageTypeText}
	chat, err := repo.AppendMessage(1, 2, msg)

	require.NoError(t, err)
	require.NotNil(t, chat)
	assert.Equal(t, int64(4), chat.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

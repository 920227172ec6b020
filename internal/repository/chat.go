package repository

import (
	"database/sql"

	"backend/internal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type ChatRepository interface {
	GetBetweenUsers(userID1, userID2 int64) (*models.Chat, error)
	GetUserChats(userID int64) ([]*models.Chat, error)
	GetMessages(chatID int64) ([]models.Message, error)
	AppendMessage(userID1, userID2 int64, msg *models.Message) (*models.Chat, error)
}

type chatRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewChatRepository(db *sqlx.DB, logger *zap.Logger) ChatRepository {
	return &chatRepository{db: db, logger: logger}
}

// GetBetweenUsers returns the chat between two users regardless of which
// side opened it, or nil when none exists.
func (r *chatRepository) GetBetweenUsers(userID1, userID2 int64) (*models.Chat, error) {
	var chat models.Chat
	query := `SELECT id, user1_id, user2_id, created_at FROM chats
	          WHERE (user1_id = $1 AND user2_id = $2) OR (user1_id = $2 AND user2_id = $1)`
	err := r.db.Get(&chat, query, userID1, userID2)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &chat, nil
}

func (r *chatRepository) GetUserChats(userID int64) ([]*models.Chat, error) {
	var chats []*models.Chat
	query := `SELECT id, user1_id, user2_id, created_at FROM chats
	          WHERE user1_id = $1 OR user2_id = $1
	          ORDER BY id`
	err := r.db.Select(&chats, query, userID)
	if err != nil {
		r.logger.Error("Failed to get user chats", zap.Int64("user_id", userID), zap.Error(err))
		return nil, err
	}
	return chats, nil
}

// GetMessages returns a chat's messages in send order. Request-notification
// messages carry the request's current status, resolved here rather than
// stored on the message row.
func (r *chatRepository) GetMessages(chatID int64) ([]models.Message, error) {
	var messages []models.Message
	query := `
		SELECT m.id, m.chat_id, m.sender_id, m.body, m.message_type, m.request_id, r.status AS request_status, m.sent_at
		FROM messages m
		LEFT JOIN child_data_requests r ON r.id = m.request_id
		WHERE m.chat_id = $1
		ORDER BY m.id
	`
	err := r.db.Select(&messages, query, chatID)
	if err != nil {
		r.logger.Error("Failed to get messages", zap.Int64("chat_id", chatID), zap.Error(err))
		return nil, err
	}
	return messages, nil
}

// AppendMessage stores a message in the chat between the two users,
// creating the chat first when none exists.
func (r *chatRepository) AppendMessage(userID1, userID2 int64, msg *models.Message) (*models.Chat, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var chat models.Chat
	findQuery := `SELECT id, user1_id, user2_id, created_at FROM chats
	              WHERE (user1_id = $1 AND user2_id = $2) OR (user1_id = $2 AND user2_id = $1)`
	err = tx.Get(&chat, findQuery, userID1, userID2)
	if err == sql.ErrNoRows {
		createQuery := `INSERT INTO chats (user1_id, user2_id) VALUES ($1, $2) RETURNING id, user1_id, user2_id, created_at`
		err = tx.QueryRowx(createQuery, userID1, userID2).StructScan(&chat)
	}
	if err != nil {
		r.logger.Error("Failed to find or create chat",
			zap.Int64("user1_id", userID1),
			zap.Int64("user2_id", userID2),
			zap.Error(err))
		return nil, err
	}

	insertQuery := `INSERT INTO messages (chat_id, sender_id, body, message_type, request_id)
	                VALUES ($1, $2, $3, $4, $5)
	                RETURNING id, sent_at`
	msg.ChatID = chat.ID
	err = tx.QueryRowx(insertQuery, msg.ChatID, msg.SenderID, msg.Body, msg.MessageType, msg.RequestID).
		Scan(&msg.ID, &msg.SentAt)
	if err != nil {
		r.logger.Error("Failed to insert message", zap.Int64("chat_id", chat.ID), zap.Error(err))
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &chat, nil
}

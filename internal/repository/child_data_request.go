package repository

import (
	"database/sql"
	"time"

	"backend/internal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// ChildDataRequestRepository defines the interface for child data request operations
type ChildDataRequestRepository interface {
	Create(req *models.ChildDataRequest, msg *models.Message) error
	GetByID(id int64) (*models.ChildDataRequest, error)
	FindPending(requesterID, recipientID int64) (*models.ChildDataRequest, error)
	GetPendingByRecipient(recipientID int64) ([]*models.ChildDataRequest, error)
	MarkResponded(id int64, status string, respondedAt time.Time) (bool, error)
}

type childDataRequestRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewChildDataRequestRepository creates a new child data request repository
func NewChildDataRequestRepository(db *sqlx.DB, logger *zap.Logger) ChildDataRequestRepository {
	return &childDataRequestRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts the request together with its notification message in
// the requester/recipient chat, creating the chat if needed. Both rows
// land in one transaction; a request never exists without its message.
func (r *childDataRequestRepository) Create(req *models.ChildDataRequest, msg *models.Message) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO child_data_requests (requester_id, requester_name, recipient_id, status, requested_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err = tx.QueryRowx(
		query,
		req.RequesterID,
		req.RequesterName,
		req.RecipientID,
		req.Status,
		req.RequestedAt,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to create child data request", zap.Error(err))
		return err
	}

	var chat models.Chat
	findQuery := `SELECT id, user1_id, user2_id, created_at FROM chats
	              WHERE (user1_id = $1 AND user2_id = $2) OR (user1_id = $2 AND user2_id = $1)`
	err = tx.Get(&chat, findQuery, req.RequesterID, req.RecipientID)
	if err == sql.ErrNoRows {
		createQuery := `INSERT INTO chats (user1_id, user2_id) VALUES ($1, $2) RETURNING id, user1_id, user2_id, created_at`
		err = tx.QueryRowx(createQuery, req.RequesterID, req.RecipientID).StructScan(&chat)
	}
	if err != nil {
		r.logger.Error("Failed to find or create chat for request",
			zap.Int64("requester_id", req.RequesterID),
			zap.Int64("recipient_id", req.RecipientID),
			zap.Error(err))
		return err
	}

	msg.ChatID = chat.ID
	msg.RequestID = &req.ID
	insertMsg := `INSERT INTO messages (chat_id, sender_id, body, message_type, request_id)
	              VALUES ($1, $2, $3, $4, $5)
	              RETURNING id, sent_at`
	err = tx.QueryRowx(insertMsg, msg.ChatID, msg.SenderID, msg.Body, msg.MessageType, msg.RequestID).
		Scan(&msg.ID, &msg.SentAt)
	if err != nil {
		r.logger.Error("Failed to insert request message", zap.Int64("chat_id", chat.ID), zap.Error(err))
		return err
	}

	return tx.Commit()
}

func (r *childDataRequestRepository) GetByID(id int64) (*models.ChildDataRequest, error) {
	var req models.ChildDataRequest
	query := `
		SELECT id, requester_id, requester_name, recipient_id, status, requested_at, responded_at, created_at, updated_at
		FROM child_data_requests
		WHERE id = $1
	`

	err := r.db.Get(&req, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Error("Failed to get child data request by ID", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}

	return &req, nil
}

// FindPending returns the live pending request for the exact ordered
// (requester, recipient) pair, if any. The reverse pair is a separate
// request and does not match.
func (r *childDataRequestRepository) FindPending(requesterID, recipientID int64) (*models.ChildDataRequest, error) {
	var req models.ChildDataRequest
	query := `
		SELECT id, requester_id, requester_name, recipient_id, status, requested_at, responded_at, created_at, updated_at
		FROM child_data_requests
		WHERE requester_id = $1 AND recipient_id = $2 AND status = 'pending'
	`

	err := r.db.Get(&req, query, requesterID, recipientID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Error("Failed to find pending request",
			zap.Int64("requester_id", requesterID),
			zap.Int64("recipient_id", recipientID),
			zap.Error(err))
		return nil, err
	}

	return &req, nil
}

func (r *childDataRequestRepository) GetPendingByRecipient(recipientID int64) ([]*models.ChildDataRequest, error) {
	var requests []*models.ChildDataRequest
	query := `
		SELECT id, requester_id, requester_name, recipient_id, status, requested_at, responded_at, created_at, updated_at
		FROM child_data_requests
		WHERE recipient_id = $1 AND status = 'pending'
		ORDER BY created_at DESC
	`

	err := r.db.Select(&requests, query, recipientID)
	if err != nil {
		r.logger.Error("Failed to get pending requests", zap.Int64("recipient_id", recipientID), zap.Error(err))
		return nil, err
	}

	return requests, nil
}

// MarkResponded moves a request out of pending. The status predicate makes
// the transition single-winner under concurrent responses: the second
// caller sees zero rows and gets false. On accept, the permission grant
// lands in the same transaction as the status change, so the request can
// never be terminally accepted without its grant.
func (r *childDataRequestRepository) MarkResponded(id int64, status string, respondedAt time.Time) (bool, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	query := `
		UPDATE child_data_requests
		SET status = $1, responded_at = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $3 AND status = 'pending'
		RETURNING requester_id, recipient_id
	`
	var requesterID, recipientID int64
	err = tx.QueryRowx(query, status, respondedAt, id).Scan(&requesterID, &recipientID)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		r.logger.Error("Failed to update request status", zap.Int64("id", id), zap.String("status", status), zap.Error(err))
		return false, err
	}

	if status == models.RequestStatusAccepted {
		grant := `
			INSERT INTO child_data_permissions (owner_id, viewer_id)
			VALUES ($1, $2)
			ON CONFLICT (owner_id, viewer_id) DO NOTHING
		`
		if _, err := tx.Exec(grant, recipientID, requesterID); err != nil {
			r.logger.Error("Failed to record permission grant",
				zap.Int64("request_id", id),
				zap.Int64("owner_id", recipientID),
				zap.Int64("viewer_id", requesterID),
				zap.Error(err))
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

package models

import "time"

// Child data request statuses. A request transitions from pending to
// exactly one terminal status; terminal statuses are immutable.
const (
	RequestStatusPending  = "pending"
	RequestStatusAccepted = "accepted"
	RequestStatusDeclined = "declined"
)

// ChildDataRequest represents one user's ask to view another user's
// children data. RequesterName is a display snapshot taken at creation.
type ChildDataRequest struct {
	ID            int64      `db:"id" json:"id"`
	RequesterID   int64      `db:"requester_id" json:"requester_id"`
	RequesterName string     `db:"requester_name" json:"requester_name"`
	RecipientID   int64      `db:"recipient_id" json:"recipient_id"`
	Status        string     `db:"status" json:"status"`
	RequestedAt   time.Time  `db:"requested_at" json:"requested_at"`
	RespondedAt   *time.Time `db:"responded_at" json:"responded_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// CreateChildDataRequestInput is the payload for opening a request.
type CreateChildDataRequestInput struct {
	RecipientID int64 `json:"recipient_id" binding:"required"`
}

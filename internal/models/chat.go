package models

import "time"

// Message types stored in the messages table.
const (
	MessageTypeText             = "text"
	MessageTypeChildDataRequest = "child_data_request"
)

// Chat is a conversation between two users. There is at most one chat per
// unordered user pair.
type Chat struct {
	ID        int64     `db:"id" json:"id"`
	User1ID   int64     `db:"user1_id" json:"user1_id"`
	User2ID   int64     `db:"user2_id" json:"user2_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	Messages []Message `db:"-" json:"messages,omitempty"`
}

// Message is one entry in a chat. Request-notification messages carry the
// request id only; RequestStatus is resolved from the request row at read
// time, so readers always see the authoritative status.
type Message struct {
	ID            int64     `db:"id" json:"id"`
	ChatID        int64     `db:"chat_id" json:"chat_id"`
	SenderID      int64     `db:"sender_id" json:"sender_id"`
	Body          string    `db:"body" json:"body"`
	MessageType   string    `db:"message_type" json:"message_type"`
	RequestID     *int64    `db:"request_id" json:"request_id,omitempty"`
	RequestStatus *string   `db:"request_status" json:"request_status,omitempty"`
	SentAt        time.Time `db:"sent_at" json:"sent_at"`
}

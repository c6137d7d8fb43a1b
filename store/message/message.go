package message

import (
	"context"
	"time"
)

// DirectMessage is a persisted one-to-one chat message. The real-time
// layer creates these before any fan-out; delivery never mutates them
// except for the read flag.
type DirectMessage struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Content    string    `json:"content"`
	IsRead     bool      `json:"is_read"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store defines direct message persistence operations.
type Store interface {
	// Create persists the message and fills in the server-assigned
	// ID and CreatedAt on the passed record.
	Create(ctx context.Context, m *DirectMessage) error
	// MarkRead flips the read flag on every message sent from
	// senderID to receiverID.
	MarkRead(ctx context.Context, receiverID, senderID string) error
	// ListBetween returns the most recent messages exchanged between
	// two users, newest last.
	ListBetween(ctx context.Context, userAID, userBID string, limit int) ([]DirectMessage, error)
}

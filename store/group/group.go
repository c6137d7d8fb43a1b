package group

import (
	"context"
	"errors"
	"time"

	"github.com/pulse-im/pulse/store/user"
)

// Group is a named multi-user conversation.
type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// GroupMessage is a persisted message addressed to a group. Fan-out
// resolves the member set at send time; the record itself carries no
// recipient list.
type GroupMessage struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"group_id"`
	SenderID  string    `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	ErrGroupNotFound = errors.New("group not found")
)

// Store defines group persistence operations.
type Store interface {
	CreateGroup(ctx context.Context, g *Group, memberIDs []string) error
	// Members returns the current member set. Callers must re-read
	// this per message rather than cache it, so membership changes
	// take effect on the next fan-out.
	Members(ctx context.Context, groupID string) ([]user.User, error)
	CreateMessage(ctx context.Context, m *GroupMessage) error
}

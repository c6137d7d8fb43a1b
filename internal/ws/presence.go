package ws

import (
	"context"
	"log"
	"time"

	"github.com/pulse-im/pulse/store/user"
)

// PresenceNotifier records online/offline transitions against the
// user store. Both writes are best-effort: presence is not
// safety-critical, so a failed update is logged and the connection
// lifecycle proceeds regardless.
type PresenceNotifier struct {
	users user.Store
}

// NewPresenceNotifier creates a PresenceNotifier backed by the user store.
func NewPresenceNotifier(users user.Store) *PresenceNotifier {
	return &PresenceNotifier{users: users}
}

// Online marks the user online. Called after registry admission.
func (n *PresenceNotifier) Online(ctx context.Context, userID string) {
	if err := n.users.UpdatePresence(ctx, userID, true, time.Now()); err != nil {
		log.Printf("presence: marking %s online: %v", userID, err)
	}
}

// Offline marks the user offline and stamps last-seen. Called after
// the peer is removed from the registry.
func (n *PresenceNotifier) Offline(ctx context.Context, userID string) {
	if err := n.users.UpdatePresence(ctx, userID, false, time.Now()); err != nil {
		log.Printf("presence: marking %s offline: %v", userID, err)
	}
}

package ws

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/pulse-im/pulse/internal/auth"
	"github.com/pulse-im/pulse/store/user"
)

// UpgradeGate authenticates websocket upgrade requests. The claimed
// identity arrives as a signed token in the `token` query parameter;
// it must validate and resolve to an existing user record before any
// socket is created. Unauthenticated requests never reach the
// registry.
type UpgradeGate struct {
	auth       *auth.Authenticator
	users      user.Store
	registry   *Registry
	presence   *PresenceNotifier
	dispatcher *Dispatcher
	upgrader   websocket.Upgrader
}

// NewUpgradeGate creates the gate serving the websocket endpoint.
func NewUpgradeGate(a *auth.Authenticator, users user.Store, registry *Registry, presence *PresenceNotifier, dispatcher *Dispatcher) *UpgradeGate {
	return &UpgradeGate{
		auth:       a,
		users:      users,
		registry:   registry,
		presence:   presence,
		dispatcher: dispatcher,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin policy is enforced at the edge proxy.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (g *UpgradeGate) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims, err := g.auth.ValidateToken(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	u, err := g.users.Get(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		log.Printf("gate: looking up %s: %v", claims.UserID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the handshake error.
		log.Printf("gate: upgrading connection for %s: %v", u.ID, err)
		return
	}

	client := newClient(u.ID, conn, g.registry, g.presence, g.dispatcher)
	g.registry.Add(client)
	// The request context dies with the hijacked connection; the
	// presence write is detached from it.
	g.presence.Online(context.Background(), u.ID)

	if frame, err := encodeFrame(ConnectedFrame{Type: TypeConnected, UserID: u.ID}); err == nil {
		_ = client.Send(frame)
	}

	client.start()
}

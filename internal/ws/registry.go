package ws

import (
	"log"
	"sync"
)

// Registry maps each authenticated user to at most one live peer.
// All access to the underlying map goes through the mutex; peers are
// handed out by value and never as the map itself.
type Registry struct {
	mu    sync.RWMutex
	peers map[string]Peer
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		peers: make(map[string]Peer),
	}
}

// Add registers the peer under its user id. A later connection for
// the same user wins: any previously registered peer is forcibly
// closed and replaced.
func (r *Registry) Add(p Peer) {
	r.mu.Lock()
	prior := r.peers[p.UserID()]
	r.peers[p.UserID()] = p
	count := len(r.peers)
	r.mu.Unlock()

	if prior != nil && prior != p {
		if err := prior.Close(); err != nil {
			log.Printf("registry: closing superseded peer for %s: %v", p.UserID(), err)
		}
	}

	log.Printf("registry: %s connected (%d online)", p.UserID(), count)
}

// Remove unregisters the peer, but only if it is still the one
// registered for its user. A stale disconnect arriving after a newer
// connection replaced the peer is a no-op. Reports whether an entry
// was removed.
func (r *Registry) Remove(p Peer) bool {
	r.mu.Lock()
	current, ok := r.peers[p.UserID()]
	if !ok || current != p {
		r.mu.Unlock()
		return false
	}
	delete(r.peers, p.UserID())
	count := len(r.peers)
	r.mu.Unlock()

	log.Printf("registry: %s disconnected (%d online)", p.UserID(), count)
	return true
}

// Lookup returns the live peer for a user, if any.
func (r *Registry) Lookup(userID string) (Peer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.peers[userID]
	return p, ok
}

// IsOnline reports whether the user currently has a live peer.
func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.peers[userID]
	return ok
}

// OnlineCount returns the number of live peers.
func (r *Registry) OnlineCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.peers)
}

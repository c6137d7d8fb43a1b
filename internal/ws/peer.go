package ws

import "errors"

var (
	// ErrPeerClosed reports a send attempted after the connection
	// entered teardown.
	ErrPeerClosed = errors.New("peer closed")
	// ErrSendBufferFull reports a peer whose write side cannot keep
	// up. The peer is torn down rather than letting senders block.
	ErrSendBufferFull = errors.New("peer send buffer full")
)

// Peer is one live connection handle as seen by the registry and the
// dispatcher. Send must never block: a slow or broken peer fails fast
// and is closed. Implementations serialize their own writes.
type Peer interface {
	UserID() string
	Send(frame []byte) error
	Close() error
}

package ws

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxFrameSize   = 4096
	sendBufferSize = 256
)

// Client binds an authenticated user to one websocket connection and
// implements Peer over it. One read pump and one write pump run per
// connection; all outbound frames funnel through the send channel so
// writes to the socket are serialized.
type Client struct {
	userID string
	conn   *websocket.Conn

	send chan []byte
	done chan struct{}
	once sync.Once

	registry   *Registry
	presence   *PresenceNotifier
	dispatcher *Dispatcher
}

func newClient(userID string, conn *websocket.Conn, registry *Registry, presence *PresenceNotifier, dispatcher *Dispatcher) *Client {
	return &Client{
		userID:     userID,
		conn:       conn,
		send:       make(chan []byte, sendBufferSize),
		done:       make(chan struct{}),
		registry:   registry,
		presence:   presence,
		dispatcher: dispatcher,
	}
}

// UserID returns the identity this connection was admitted under.
func (c *Client) UserID() string { return c.userID }

// Send queues a frame for the write pump. It fails fast instead of
// blocking: a closed client reports ErrPeerClosed, and a full buffer
// closes the client and reports ErrSendBufferFull.
func (c *Client) Send(frame []byte) error {
	select {
	case <-c.done:
		return ErrPeerClosed
	default:
	}

	select {
	case c.send <- frame:
		return nil
	case <-c.done:
		return ErrPeerClosed
	default:
		log.Printf("client %s: send buffer full, closing", c.userID)
		_ = c.Close()
		return ErrSendBufferFull
	}
}

// Close moves the client out of the open state and closes the
// underlying socket. Safe to call from any goroutine, any number of
// times; the first call wins.
func (c *Client) Close() error {
	c.once.Do(func() {
		close(c.done)
		if err := c.conn.Close(); err != nil {
			log.Printf("client %s: closing socket: %v", c.userID, err)
		}
	})
	return nil
}

// start launches the pumps. Called once, after registry admission.
func (c *Client) start() {
	go c.writePump()
	go c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		// Compare-and-remove: if a newer connection already replaced
		// this one, the registry entry and the user's presence belong
		// to it and must not be touched.
		if c.registry.Remove(c) {
			c.presence.Offline(context.Background(), c.userID)
		}
		_ = c.Close()
	}()

	c.conn.SetReadLimit(maxFrameSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("client %s: setting read deadline: %v", c.userID, err)
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("client %s: read error: %v", c.userID, err)
			}
			return
		}

		// Persistence already in flight for earlier frames is
		// unaffected by a close; only subsequent sends are skipped.
		c.dispatcher.Dispatch(context.Background(), c, data)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-c.done:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

var (
	ErrClientClosed = errors.New("client closed")
	ErrSlowConsumer = errors.New("client send buffer full")
)

// Client represents a WebSocket connection. Frames are queued on send and
// written by writePump; the queue is bounded so a stalled peer is cut off
// instead of holding up a broadcast.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan []byte

	// Set when the connection was opened with a participant token.
	participantID string
	sessionID     string

	mu     sync.Mutex
	closed bool
}

func newClient(id string, conn *websocket.Conn, buffer int) *Client {
	return &Client{
		id:   id,
		conn: conn,
		send: make(chan []byte, buffer),
	}
}

func (c *Client) ID() string { return c.id }

// Send queues a frame without blocking
func (c *Client) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrSlowConsumer
	}
}

// Close stops the writer, which sends a close frame and tears down the socket.
// Safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

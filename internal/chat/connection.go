package chat

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"chatroom-server/internal/middleware"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 10 * time.Second
	maxFrameSize   = 4096
	sendBufferSize = 256

	anonymousNickname = "anonymous"
)

// Conn wraps one live websocket session. The nickname is set exactly once
// at construction and never re-validated; it is client-supplied and may
// collide with other connections.
type Conn struct {
	ID       string
	Nickname string

	Send        chan []byte
	Limiter     *middleware.RateLimiter
	LastWarning time.Time

	sock   *websocket.Conn
	mu     sync.Mutex
	closed bool
	once   sync.Once
}

func NewConn(sock *websocket.Conn, nickname string) *Conn {
	if nickname == "" {
		nickname = anonymousNickname
	}
	return &Conn{
		ID:       uuid.NewString(),
		Nickname: nickname,
		Send:     make(chan []byte, sendBufferSize),
		Limiter:  middleware.NewRateLimiter(5, 500*time.Millisecond),
		sock:     sock,
	}
}

// IsOpen reports whether the connection still accepts outbound frames.
// The transition open -> closed happens exactly once.
func (c *Conn) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

// Close marks the connection closed and tears down the socket. Safe to
// call from multiple goroutines; only the first call does anything.
func (c *Conn) Close() {
	c.once.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.Send)
		c.mu.Unlock()

		if c.sock != nil {
			c.sock.Close()
		}
	})
}

// TrySend queues a payload without blocking. A closed connection or a
// full send buffer counts as a delivery failure and returns false; the
// caller skips the recipient and keeps fanning out.
func (c *Conn) TrySend(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.Send <- payload:
		return true
	default:
		return false
	}
}

// WritePump is the single writer for the socket. All outbound frames go
// through the send channel, so concurrent socket writes cannot happen.
func (c *Conn) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.sock.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.sock.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)
			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump drives the session: every inbound text frame goes through the
// router, and the deferred Disconnect runs the leave sequence exactly
// once no matter how the loop exits.
func (c *Conn) ReadPump(router *Router) {
	defer router.Disconnect(c)

	c.sock.SetReadLimit(maxFrameSize)
	c.sock.SetReadDeadline(time.Now().Add(pongWait))
	c.sock.SetPongHandler(func(string) error {
		c.sock.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, payload, err := c.sock.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[CONN] Unexpected close for %s: %v", c.Nickname, err)
			}
			break
		}

		if !c.Limiter.Allow() {
			if time.Since(c.LastWarning) > 3*time.Second {
				warning, _ := json.Marshal(errorEnvelope("rate limit exceeded, slow down"))
				if c.TrySend(warning) {
					c.LastWarning = time.Now()
				}
			}
			continue
		}

		router.HandleFrame(c, payload)
	}
}

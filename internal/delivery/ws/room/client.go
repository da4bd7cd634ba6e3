package ws_room

import (
	"log/slog"
	"time"

	"github.com/andrewjfei/klick-server/internal/model"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type Limits struct {
	SendBuffer     int
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
	MaxMessageSize int64
}

func DefaultLimits() Limits {
	return Limits{
		SendBuffer:     256,
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     54 * time.Second,
		MaxMessageSize: 4096,
	}
}

type Client struct {
	ID   model.ConnID
	conn *websocket.Conn
	send chan []byte

	// guarded by Hub.mu
	groups map[string]bool
}

func NewClient(conn *websocket.Conn, sendBuffer int) *Client {
	return &Client{
		ID:     uuid.New().String(),
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		groups: make(map[string]bool),
	}
}

// Frames exposes the outbound queue, closed once the hub removes the client.
func (c *Client) Frames() <-chan []byte {
	return c.send
}

// ReadLoop hands every inbound frame to handle, one at a time, so a
// connection's requests are processed in arrival order.
func (c *Client) ReadLoop(limits Limits, logger *slog.Logger, handle func(frame []byte)) {
	c.conn.SetReadLimit(limits.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(limits.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(limits.PongWait))
	})

	for {
		typ, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket read failed",
					slog.String("connection_id", c.ID),
					slog.String("error", err.Error()))
			}
			return
		}
		if typ != websocket.TextMessage && typ != websocket.BinaryMessage {
			continue
		}
		handle(frame)
	}
}

// WriteLoop drains the send queue and keeps the peer alive with pings.
func (c *Client) WriteLoop(limits Limits) {
	ticker := time.NewTicker(limits.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(limits.WriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(limits.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

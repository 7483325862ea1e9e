package ws

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/oshokin/slope-guard/internal/bus"
	"github.com/oshokin/slope-guard/internal/logger"
)

const (
	// writeWait bounds a single outbound frame write.
	writeWait = 10 * time.Second
	// maxMessageSize bounds inbound frames; device messages are tiny.
	maxMessageSize = 4096
)

// Conn is one live device connection. It implements bus.Sender: outbound
// events go through a buffered channel drained by the write pump, and a full
// buffer drops the event for this device only.
type Conn struct {
	// id is the opaque connection identifier assigned at upgrade time.
	id string
	// sock is the underlying websocket connection.
	sock *websocket.Conn
	// send buffers outbound frames for the write pump.
	send chan []byte
	// done is closed exactly once when the connection shuts down.
	done chan struct{}
	// closeOnce guards the done channel.
	closeOnce sync.Once
	// heartbeat is the ping period; pongs reset the read deadline.
	heartbeat time.Duration
}

// newConn wraps an upgraded websocket connection.
func newConn(id string, sock *websocket.Conn, sendBuffer int, heartbeat time.Duration) *Conn {
	return &Conn{
		id:        id,
		sock:      sock,
		send:      make(chan []byte, sendBuffer),
		done:      make(chan struct{}),
		heartbeat: heartbeat,
	}
}

// ID returns the connection identifier.
func (c *Conn) ID() string {
	return c.id
}

// Send frames the event and queues it without blocking. It reports false
// when the connection is closed or its buffer is full.
func (c *Conn) Send(event bus.Event) bool {
	framed, err := encodeEvent(event)
	if err != nil {
		return false
	}

	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- framed:
		return true
	default:
		return false
	}
}

// close shuts the connection down once; safe to call from any goroutine.
func (c *Conn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.sock.Close()
	})
}

// writePump drains the send buffer and keeps the connection alive with pings.
func (c *Conn) writePump(ctx context.Context) {
	ticker := time.NewTicker(c.heartbeat)

	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.sock.WriteMessage(websocket.CloseMessage, []byte{})

			return
		case frame := <-c.send:
			_ = c.sock.SetWriteDeadline(time.Now().Add(writeWait))

			if err := c.sock.WriteMessage(websocket.TextMessage, frame); err != nil {
				logger.DebugKV(ctx, "Write failed, dropping connection",
					"connection_id", c.id, "error", err)

				return
			}
		case <-ticker.C:
			_ = c.sock.SetWriteDeadline(time.Now().Add(writeWait))

			if err := c.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads inbound frames and hands them to onMessage until the
// connection drops. It owns the read deadline, refreshed by pongs.
func (c *Conn) readPump(ctx context.Context, onMessage func(raw []byte)) {
	defer c.close()

	pongWait := 2 * c.heartbeat

	c.sock.SetReadLimit(maxMessageSize)
	_ = c.sock.SetReadDeadline(time.Now().Add(pongWait))
	c.sock.SetPongHandler(func(string) error {
		return c.sock.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.sock.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.WarnKV(ctx, "Unexpected websocket close",
					"connection_id", c.id, "error", err)
			}

			return
		}

		onMessage(raw)
	}
}

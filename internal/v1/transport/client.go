package transport

import (
	"context"
	"sync"
	"time"

	"github.com/RoseWrightdev/Rank-It/internal/v1/game"
	"github.com/RoseWrightdev/Rank-It/internal/v1/ids"
	"github.com/RoseWrightdev/Rank-It/internal/v1/logging"
	"github.com/RoseWrightdev/Rank-It/internal/v1/metrics"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// writeWait is the deadline for a single WebSocket write.
	writeWait = 10 * time.Second
	// pingPeriod is the heartbeat interval.
	pingPeriod = 20 * time.Second
	// pongWait allows two missed heartbeats (plus latency slack) before the
	// read pump gives up on the connection.
	pongWait = 45 * time.Second
	// sendQueueSize bounds the per-client outbound queue. A client that falls
	// this far behind is disconnected by the room actor.
	sendQueueSize = 64
)

// wsConnection defines the WebSocket connection operations the client needs,
// so tests can substitute a mock for *websocket.Conn.
type wsConnection interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
	SetWriteDeadline(t time.Time) error
	SetReadDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
}

// Client is one WebSocket subscriber attached to a room. It implements
// game.Subscriber: the room actor hands it pre-serialized events and never
// blocks on it.
type Client struct {
	id   game.SubscriberID
	conn wsConnection
	room *game.Room

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once

	send chan []byte
}

func newClient(conn wsConnection, room *game.Room) *Client {
	return &Client{
		id:   game.SubscriberID(ids.NewSubscriberID()),
		conn: conn,
		room: room,
		send: make(chan []byte, sendQueueSize),
	}
}

// ID satisfies game.Subscriber.
func (c *Client) ID() game.SubscriberID {
	return c.id
}

// Send satisfies game.Subscriber. It never blocks: a full queue reports
// false so the actor can drop the subscriber instead of waiting. The read
// lock is held across the channel send so Close cannot close the channel
// underneath an in-flight enqueue.
func (c *Client) Send(data []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return true // already disconnecting, nothing to report
	}

	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// Close satisfies game.Subscriber. Closing the send channel lets the write
// pump drain queued events, emit a close frame, and shut the connection.
// The write lock excludes every concurrent Send before the channel closes.
func (c *Client) Close(code game.Code) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()
	})
}

// readPump processes inbound frames until the connection drops, then detaches
// the subscriber from the room.
func (c *Client) readPump() {
	defer func() {
		c.room.Unsubscribe(c.id)
		c.Close(game.CodeRoomClosed)
		c.conn.Close()
		metrics.DecConnection()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Warn(context.Background(), "WebSocket closed unexpectedly",
					zap.String("subscriber_id", string(c.id)), zap.Error(err))
			}
			break
		}
		if messageType != websocket.TextMessage {
			continue
		}
		c.room.HandleMessage(c, data)
	}
}

// writePump drains the send queue and keeps the connection alive with
// protocol-level pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logging.Warn(context.Background(), "error writing message",
					zap.String("subscriber_id", string(c.id)), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeTimeout bounds a single frame write to a peer.
	writeTimeout = 10 * time.Second

	// pongTimeout is how long the read side waits for any traffic before
	// declaring the peer dead.
	pongTimeout = 60 * time.Second

	// pingPeriod must be shorter than pongTimeout.
	pingPeriod = 54 * time.Second
)

// Client is one live subscriber connection. The dispatcher and the control
// message handler enqueue serialized frames; a single writePump goroutine
// owns all writes to the socket. The send queue is bounded: when it fills,
// the oldest queued frame for this client is dropped so one slow peer never
// backs up into the dispatcher.
//
// A new client starts in the handshake phase: live frames enqueued before
// finishHandshake are buffered and released only after the handshake frames,
// so connection_established and initial_data always precede every live
// frame even though the client is registered before the snapshot is loaded.
type Client struct {
	id    string
	scope Scope

	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	closer sync.Once

	mu      sync.Mutex
	ready   bool
	pending [][]byte

	logger *slog.Logger
}

// NewClient wraps an accepted websocket connection.
func NewClient(id string, scope Scope, conn *websocket.Conn, sendBuffer int, logger *slog.Logger) *Client {
	if sendBuffer < 1 {
		sendBuffer = 1
	}
	return &Client{
		id:     id,
		scope:  scope,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
		logger: logger.With(slog.String("client_id", id)),
	}
}

// ID returns the opaque connection identity.
func (c *Client) ID() string { return c.id }

// Scope returns the subscription scope this connection was opened with.
func (c *Client) Scope() Scope { return c.scope }

// Enqueue queues an already-serialized frame for delivery. During the
// handshake phase the frame is buffered instead. When the queue is full the
// oldest queued frame is evicted first. Returns false only if the connection
// is closed, which the caller must treat as a dead subscriber; queue
// pressure alone never reports a live connection as dead.
func (c *Client) Enqueue(message []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	c.mu.Lock()
	if !c.ready {
		c.pending = append(c.pending, message)
		c.mu.Unlock()
		return true
	}
	c.mu.Unlock()

	c.push(message)
	return true
}

// push puts one frame on the send queue, evicting the oldest queued frame
// when the queue is full. If a concurrent enqueuer claims the freed slot,
// the new frame is dropped instead.
func (c *Client) push(message []byte) {
	select {
	case c.send <- message:
		return
	default:
	}

	select {
	case <-c.send:
		c.logger.Debug("Subscriber queue full, dropped oldest frame")
	default:
	}
	select {
	case c.send <- message:
	default:
		c.logger.Debug("Subscriber queue full, dropped frame")
	}
}

// finishHandshake queues frames ahead of any live frame buffered while the
// snapshot was loading, then opens the live path. Must be called exactly
// once, before readPump.
func (c *Client) finishHandshake(frames ...Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, frame := range frames {
		payload, err := json.Marshal(frame)
		if err != nil {
			c.logger.Error("Failed to marshal frame", slog.String("frame_type", frame.Type), slog.String("error", err.Error()))
			continue
		}
		c.push(payload)
	}
	for _, message := range c.pending {
		c.push(message)
	}
	c.pending = nil
	c.ready = true
}

// EnqueueFrame serializes a frame and queues it.
func (c *Client) EnqueueFrame(frame Frame) bool {
	payload, err := json.Marshal(frame)
	if err != nil {
		c.logger.Error("Failed to marshal frame", slog.String("frame_type", frame.Type), slog.String("error", err.Error()))
		return true
	}
	return c.Enqueue(payload)
}

// Close tears the connection down. Safe to call more than once.
func (c *Client) Close() {
	c.closer.Do(func() {
		close(c.done)
		if c.conn != nil {
			c.conn.Close()
		}
	})
}

// writePump owns the socket's write side: it drains the send queue and
// keeps the connection alive with periodic pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump owns the socket's read side: it resets deadlines on pongs and
// hands control messages to the handler. It returns when the peer goes
// away, unregistering the client on the way out.
func (c *Client) readPump(h *Handler) {
	defer func() {
		h.registry.Unsubscribe(c)
		c.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket read error", slog.String("error", err.Error()))
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
		h.handleControlMessage(c, message)
	}
}

// Package stream provides a reconnecting consumer for the realtime
// transaction channel. It owns one logical subscription across physical
// reconnects: on an abnormal close it redials with exponential backoff,
// receives a fresh initial_data snapshot from the server, and resumes the
// live stream transparently. Only backoff exhaustion surfaces as a terminal
// error.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ErrReconnectExhausted is the terminal error after the maximum number of
// consecutive failed reconnect attempts.
var ErrReconnectExhausted = errors.New("reconnect attempts exhausted")

// State is the connection state of the logical subscription.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Frame is one JSON message received from the server; Data stays raw so the
// caller decodes only the variants it cares about.
type Frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Config configures a Client. URL is the global stream endpoint, e.g.
// "ws://localhost:8080/ws/transactions"; an account scope is appended as a
// path segment.
type Config struct {
	URL              string
	AccountID        string // optional initial account scope; empty = global
	BackoffBase      time.Duration
	BackoffCap       time.Duration
	MaxAttempts      int
	HandshakeTimeout time.Duration
	OnFrame          func(Frame)
	Logger           *slog.Logger
}

func (c *Config) withDefaults() Config {
	cfg := *c
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = time.Second
	}
	if cfg.BackoffCap <= 0 {
		cfg.BackoffCap = 30 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 10
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return cfg
}

// Backoff returns the reconnect delay for the given attempt number:
// min(base * 2^attempt, ceiling).
func Backoff(base, ceiling time.Duration, attempt int) time.Duration {
	delay := base
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= ceiling {
			return ceiling
		}
	}
	if delay > ceiling {
		return ceiling
	}
	return delay
}

// Client is the reconnecting subscription handle. All methods are safe for
// concurrent use.
type Client struct {
	cfg Config

	mu        sync.Mutex
	state     State
	accountID string
	running   bool
	parent    context.Context
	cancel    context.CancelFunc
	runDone   chan struct{}

	done chan error
}

// New creates a client; Connect starts it.
func New(cfg Config) *Client {
	resolved := cfg.withDefaults()
	return &Client{
		cfg:       resolved,
		accountID: resolved.AccountID,
		done:      make(chan error, 1),
	}
}

// State reports the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Done delivers the terminal result: ErrReconnectExhausted after too many
// failed reconnects, or nil when the server closed the stream normally.
func (c *Client) Done() <-chan error {
	return c.done
}

// Connect starts the connection loop. Calling it while a connection to the
// same logical target is pending or open is a no-op.
func (c *Client) Connect(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.parent = ctx
	c.cancel = cancel
	c.running = true
	c.runDone = make(chan struct{})
	go c.run(runCtx, c.runDone)
}

// SetAccount switches the logical subscription target. The old connection
// is fully torn down before the new one is established.
func (c *Client) SetAccount(accountID string) {
	c.mu.Lock()
	if c.accountID == accountID {
		c.mu.Unlock()
		return
	}
	c.accountID = accountID
	running := c.running
	cancel := c.cancel
	runDone := c.runDone
	parent := c.parent
	c.mu.Unlock()

	if !running {
		return
	}
	cancel()
	<-runDone
	c.Connect(parent)
}

// Close tears the connection down without a terminal error.
func (c *Client) Close() {
	c.mu.Lock()
	running := c.running
	cancel := c.cancel
	runDone := c.runDone
	c.mu.Unlock()

	if !running {
		return
	}
	cancel()
	<-runDone
}

func (c *Client) targetURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.accountID == "" {
		return c.cfg.URL
	}
	return c.cfg.URL + "/" + c.accountID
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// terminal delivers the one terminal result of this client, if any.
func (c *Client) terminal(err error) {
	select {
	case c.done <- err:
	default:
	}
}

func (c *Client) run(ctx context.Context, runDone chan struct{}) {
	defer func() {
		c.mu.Lock()
		c.running = false
		c.state = StateDisconnected
		c.mu.Unlock()
		close(runDone)
	}()

	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.HandshakeTimeout}
	attempt := 0
	first := true

	for {
		if !first {
			delay := Backoff(c.cfg.BackoffBase, c.cfg.BackoffCap, attempt)
			c.cfg.Logger.Info("Scheduling reconnect",
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay),
			)
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
		}
		first = false

		c.setState(StateConnecting)
		conn, resp, err := dialer.DialContext(ctx, c.targetURL(), nil)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			attempt++
			if attempt >= c.cfg.MaxAttempts {
				c.cfg.Logger.Error("Reconnect attempts exhausted", slog.Int("attempts", attempt))
				c.terminal(fmt.Errorf("%w after %d attempts: %v", ErrReconnectExhausted, attempt, err))
				return
			}
			continue
		}

		// Successful connect resets the backoff schedule.
		attempt = 0
		c.setState(StateConnected)
		closeErr := c.consume(ctx, conn)
		c.setState(StateDisconnected)

		if ctx.Err() != nil {
			return
		}
		if websocket.IsCloseError(closeErr, websocket.CloseNormalClosure) {
			c.terminal(nil)
			return
		}
		c.cfg.Logger.Warn("Connection dropped, will reconnect", slog.String("error", closeErr.Error()))
	}
}

// consume reads frames until the connection dies and returns the read
// error. The server sends connection_established and a fresh initial_data
// snapshot first on every (re)connect, so the caller always sees the
// boundary between historical and live state.
func (c *Client) consume(ctx context.Context, conn *websocket.Conn) error {
	defer conn.Close()

	// Unblock the read loop when the context ends.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var frame Frame
		if err := json.Unmarshal(payload, &frame); err != nil {
			c.cfg.Logger.Warn("Discarding malformed frame", slog.String("error", err.Error()))
			continue
		}
		if c.cfg.OnFrame != nil {
			c.cfg.OnFrame(frame)
		}
	}
}

package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ledgerstream/ledgerstream/internal/apperrors"
	"github.com/ledgerstream/ledgerstream/internal/core/domain"
	portssvc "github.com/ledgerstream/ledgerstream/internal/core/ports/services"
)

// defaultRecentLimit bounds a get_recent_transactions reply when the client
// does not say how many entries it wants.
const defaultRecentLimit = 10

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The dashboard is served from a different origin in development.
		return true
	},
}

// Handler owns the websocket endpoints: it upgrades connections, registers
// them with the registry, sends the initial snapshot and serves control
// messages for the lifetime of each connection.
type Handler struct {
	registry      *Registry
	accountSvc    portssvc.AccountSvcFacade
	ledgerSvc     portssvc.LedgerSvcFacade
	sendBuffer    int
	snapshotLimit int
	logger        *slog.Logger
}

// NewHandler creates the websocket handler. sendBuffer is each client's
// outbound queue length; snapshotLimit bounds the initial_data payload.
func NewHandler(registry *Registry, accountSvc portssvc.AccountSvcFacade, ledgerSvc portssvc.LedgerSvcFacade, sendBuffer, snapshotLimit int, logger *slog.Logger) *Handler {
	return &Handler{
		registry:      registry,
		accountSvc:    accountSvc,
		ledgerSvc:     ledgerSvc,
		sendBuffer:    sendBuffer,
		snapshotLimit: snapshotLimit,
		logger:        logger,
	}
}

// RegisterRoutes registers the realtime endpoints on the engine.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/ws/transactions", h.handleGlobalStream)
	r.GET("/ws/transactions/:account_id", h.handleAccountStream)
	r.GET("/ws/stats", h.handleStats)
}

func (h *Handler) handleGlobalStream(c *gin.Context) {
	h.handleStream(c, GlobalScope())
}

func (h *Handler) handleAccountStream(c *gin.Context) {
	h.handleStream(c, AccountScope(c.Param("account_id")))
}

// handleStats reports the live connection counts.
func (h *Handler) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.registry.Stats())
}

func (h *Handler) handleStream(c *gin.Context, scope Scope) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	// Account-scoped connections must name a real account. The check runs
	// after the upgrade so the client gets a proper close frame.
	if !scope.IsGlobal() {
		if _, err := h.accountSvc.GetAccountByID(c.Request.Context(), scope.AccountID()); err != nil {
			reason := "Internal server error"
			code := websocket.ClosePolicyViolation
			if errors.Is(err, apperrors.ErrNotFound) {
				reason = "Account not found"
			}
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(code, reason), time.Now().Add(writeTimeout))
			conn.Close()
			return
		}
	}

	client := NewClient(uuid.NewString(), scope, conn, h.sendBuffer, h.logger)

	// Register first so no event committed after this point is skipped; the
	// client buffers live frames until the handshake frames are queued. The
	// snapshot is loaded after registration, so an event committed in
	// between may arrive both in the snapshot and as a buffered live frame,
	// but never before the snapshot.
	h.registry.Subscribe(client)

	snapshot, err := h.snapshot(c.Request.Context(), scope, h.snapshotLimit)
	if err != nil {
		h.logger.Error("Failed to load initial snapshot", slog.String("client_id", client.ID()), slog.String("error", err.Error()))
		h.registry.Unsubscribe(client)
		client.Close()
		return
	}

	// The snapshot boundary contract: connection_established, then
	// initial_data, then live frames only.
	streamName := "global"
	if !scope.IsGlobal() {
		streamName = "account-specific"
	}
	client.finishHandshake(
		ConnectionEstablishedFrame(
			scope.AccountID(),
			fmt.Sprintf("Connected to %s transaction stream", streamName),
			len(snapshot),
		),
		InitialDataFrame(snapshot),
	)

	go client.writePump()
	client.readPump(h)
}

func (h *Handler) snapshot(ctx context.Context, scope Scope, limit int) ([]domain.Transaction, error) {
	if scope.IsGlobal() {
		return h.ledgerSvc.ListTransactions(ctx, limit)
	}
	return h.ledgerSvc.ListAccountTransactions(ctx, scope.AccountID(), limit)
}

// controlMessage is the envelope of every client-to-server message.
type controlMessage struct {
	Type  string `json:"type"`
	Limit int    `json:"limit"`
}

// handleControlMessage services one client-to-server message. Malformed
// input produces an error frame; the connection stays open.
func (h *Handler) handleControlMessage(c *Client, raw []byte) {
	ctx := context.Background()

	var msg controlMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.EnqueueFrame(ErrorFrame("Invalid JSON format"))
		return
	}

	switch msg.Type {
	case "ping":
		c.EnqueueFrame(PongFrame(time.Now().UTC()))

	case "get_stats":
		c.EnqueueFrame(StatsFrame(h.registry.Stats()))

	case "get_recent_transactions":
		limit := msg.Limit
		if limit <= 0 {
			limit = defaultRecentLimit
		}
		txns, err := h.snapshot(ctx, c.Scope(), limit)
		if err != nil {
			h.logger.Error("Failed to load recent transactions", slog.String("client_id", c.ID()), slog.String("error", err.Error()))
			c.EnqueueFrame(ErrorFrame("Error processing message"))
			return
		}
		c.EnqueueFrame(RecentTransactionsFrame(txns))

	case "get_account_balance":
		if c.Scope().IsGlobal() {
			c.EnqueueFrame(ErrorFrame("Account balance can only be requested for account-specific connections"))
			return
		}
		account, err := h.accountSvc.GetAccountByID(ctx, c.Scope().AccountID())
		if err != nil {
			h.logger.Error("Failed to load account balance", slog.String("client_id", c.ID()), slog.String("error", err.Error()))
			c.EnqueueFrame(ErrorFrame("Error processing message"))
			return
		}
		c.EnqueueFrame(AccountBalanceFrame(account))

	default:
		c.EnqueueFrame(ErrorFrame(fmt.Sprintf("Unknown message type: %s", msg.Type)))
	}
}

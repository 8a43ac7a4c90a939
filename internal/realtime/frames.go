package realtime

import (
	"time"

	"github.com/ledgerstream/ledgerstream/internal/core/domain"
	"github.com/ledgerstream/ledgerstream/internal/dto"
	"github.com/shopspring/decimal"
)

// Frame is one JSON message on the realtime channel. Every message is a
// tagged variant: Type selects the shape of Data. The constructors below are
// the only way frames are built, one per message kind.
type Frame struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

const (
	FrameConnectionEstablished = "connection_established"
	FrameInitialData           = "initial_data"
	FrameTransactionUpdate     = "transaction_update"
	FrameBalanceUpdate         = "balance_update"
	FramePong                  = "pong"
	FrameStats                 = "stats"
	FrameRecentTransactions    = "recent_transactions"
	FrameAccountBalance        = "account_balance"
	FrameError                 = "error"
)

type connectionEstablishedData struct {
	AccountID                string `json:"account_id,omitempty"`
	Message                  string `json:"message"`
	InitialTransactionsCount int    `json:"initial_transactions_count"`
}

type balanceUpdateData struct {
	AccountID  string          `json:"account_id"`
	NewBalance decimal.Decimal `json:"new_balance"`
	Timestamp  time.Time       `json:"timestamp"`
}

type accountBalanceData struct {
	AccountID string          `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
	Active    bool            `json:"is_active"`
}

type errorData struct {
	Message string `json:"message"`
}

type pongData struct {
	Timestamp time.Time `json:"timestamp"`
}

// ConnectionEstablishedFrame is the first frame on every connection.
// accountID is empty for global-scope connections.
func ConnectionEstablishedFrame(accountID, message string, initialCount int) Frame {
	return Frame{Type: FrameConnectionEstablished, Data: connectionEstablishedData{
		AccountID:                accountID,
		Message:                  message,
		InitialTransactionsCount: initialCount,
	}}
}

// InitialDataFrame carries the snapshot sent after connection_established
// and before any live event.
func InitialDataFrame(txns []domain.Transaction) Frame {
	return Frame{Type: FrameInitialData, Data: dto.ToTransactionResponses(txns)}
}

// TransactionUpdateFrame is the live-event frame for one journal entry.
func TransactionUpdateFrame(txn domain.Transaction) Frame {
	return Frame{Type: FrameTransactionUpdate, Data: dto.ToTransactionResponse(&txn)}
}

// BalanceUpdateFrame announces a balance change on one account.
func BalanceUpdateFrame(accountID string, newBalance decimal.Decimal, ts time.Time) Frame {
	return Frame{Type: FrameBalanceUpdate, Data: balanceUpdateData{
		AccountID:  accountID,
		NewBalance: newBalance,
		Timestamp:  ts,
	}}
}

// PongFrame answers a client ping.
func PongFrame(now time.Time) Frame {
	return Frame{Type: FramePong, Data: pongData{Timestamp: now}}
}

// StatsFrame answers a get_stats control message.
func StatsFrame(stats Stats) Frame {
	return Frame{Type: FrameStats, Data: stats}
}

// RecentTransactionsFrame answers a get_recent_transactions control message.
func RecentTransactionsFrame(txns []domain.Transaction) Frame {
	return Frame{Type: FrameRecentTransactions, Data: dto.ToTransactionResponses(txns)}
}

// AccountBalanceFrame answers a get_account_balance control message.
func AccountBalanceFrame(account *domain.Account) Frame {
	return Frame{Type: FrameAccountBalance, Data: accountBalanceData{
		AccountID: account.AccountID,
		Balance:   account.Balance,
		Active:    account.Active,
	}}
}

// ErrorFrame reports a malformed or out-of-scope control message. The
// connection stays open.
func ErrorFrame(message string) Frame {
	return Frame{Type: FrameError, Data: errorData{Message: message}}
}

// FrameForEvent maps a domain event variant to its wire frame.
func FrameForEvent(event domain.Event) Frame {
	switch e := event.(type) {
	case domain.TransactionCreated:
		return TransactionUpdateFrame(e.Transaction)
	case domain.BalanceUpdated:
		return BalanceUpdateFrame(e.AccountID, e.NewBalance, e.Timestamp)
	default:
		return ErrorFrame("unknown event")
	}
}

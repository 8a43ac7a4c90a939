package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind indicates the operation that produced a journal entry.
type TransactionKind string

const (
	Deposit    TransactionKind = "deposit"
	Withdrawal TransactionKind = "withdrawal"
	Transfer   TransactionKind = "transfer"
)

// Transaction is a single immutable entry in the append-only journal.
// Amount is signed: positive credits the account, negative debits it.
// BalanceAfter snapshots the account balance immediately after this entry
// was applied, in journal order.
type Transaction struct {
	TransactionID string          `json:"transaction_id"` // Primary key (UUID)
	AccountID     string          `json:"account_id"`
	Amount        decimal.Decimal `json:"amount"`
	Kind          TransactionKind `json:"transaction_type"`
	Description   string          `json:"description"`
	Timestamp     time.Time       `json:"timestamp"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event is a domain event emitted by LedgerService after a successful
// mutation. It is a closed set of variants; the realtime layer maps each
// variant to its wire frame.
type Event interface {
	// EventAccountID returns the account this event concerns, used for
	// subscription scope matching.
	EventAccountID() string
}

// TransactionCreated is published once per journal entry produced by a
// mutation (a transfer produces two).
type TransactionCreated struct {
	Transaction Transaction
}

func (e TransactionCreated) EventAccountID() string { return e.Transaction.AccountID }

// BalanceUpdated is published once per account whose balance changed.
type BalanceUpdated struct {
	AccountID  string
	NewBalance decimal.Decimal
	Timestamp  time.Time
}

func (e BalanceUpdated) EventAccountID() string { return e.AccountID }

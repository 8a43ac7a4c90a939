package services

import (
	"context"

	"github.com/ledgerstream/ledgerstream/internal/core/domain"
	"github.com/shopspring/decimal"
)

// LedgerWriterSvc defines the balance-mutating operations of the ledger.
// Every successful mutation publishes one domain.TransactionCreated per
// journal entry produced, plus one domain.BalanceUpdated per affected
// account, before the operation returns.
type LedgerWriterSvc interface {
	// Deposit credits amount (> 0) to the account and returns the journal entry.
	Deposit(ctx context.Context, accountID string, amount decimal.Decimal, description string) (*domain.Transaction, error)

	// Withdraw debits amount (> 0) from the account and returns the journal
	// entry. Fails with apperrors.ErrInsufficientFunds if the balance would
	// go negative.
	Withdraw(ctx context.Context, accountID string, amount decimal.Decimal, description string) (*domain.Transaction, error)

	// Transfer moves amount from one account to another as an atomic pair of
	// journal entries: both legs are recorded or neither is. The returned
	// slice is always [debit leg, credit leg].
	Transfer(ctx context.Context, fromAccountID, toAccountID string, amount decimal.Decimal, description string) ([]domain.Transaction, error)
}

// LedgerReaderSvc defines read operations over the journal.
type LedgerReaderSvc interface {
	// GetTransactionByID retrieves a single journal entry.
	GetTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// ListTransactions returns the newest entries first, at most limit of
	// them (limit <= 0 means no limit).
	ListTransactions(ctx context.Context, limit int) ([]domain.Transaction, error)

	// ListAccountTransactions is ListTransactions filtered to one account.
	// Fails with apperrors.ErrNotFound if the account does not exist.
	ListAccountTransactions(ctx context.Context, accountID string, limit int) ([]domain.Transaction, error)
}

// LedgerSvcFacade combines all ledger service interfaces.
type LedgerSvcFacade interface {
	LedgerWriterSvc
	LedgerReaderSvc
}

// EventPublisher is the outbound port the ledger uses to hand domain events
// to the delivery layer. Publish must never block on, nor fail because of,
// slow or dead subscribers.
type EventPublisher interface {
	Publish(event domain.Event)
}

// ServiceContainer holds instances of all the application services and is
// the main entry point for the handlers.
type ServiceContainer struct {
	Account AccountSvcFacade
	Ledger  LedgerSvcFacade
}

package repositories

import (
	"context"

	"github.com/ledgerstream/ledgerstream/internal/core/domain"
)

// TransactionRepository defines persistence operations for the append-only
// transaction journal. Entries are immutable once saved.
type TransactionRepository interface {
	// SaveTransaction appends an entry to the journal.
	SaveTransaction(ctx context.Context, txn domain.Transaction) error

	// FindTransactionByID returns a journal entry, or apperrors.ErrNotFound.
	FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// ListTransactions returns the newest entries first, at most limit of
	// them. limit <= 0 means no limit.
	ListTransactions(ctx context.Context, limit int) ([]domain.Transaction, error)

	// ListAccountTransactions returns the newest entries for one account
	// first, at most limit of them. limit <= 0 means no limit.
	ListAccountTransactions(ctx context.Context, accountID string, limit int) ([]domain.Transaction, error)
}

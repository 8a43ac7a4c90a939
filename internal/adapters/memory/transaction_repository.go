package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/ledgerstream/ledgerstream/internal/apperrors"
	"github.com/ledgerstream/ledgerstream/internal/core/domain"
	portsrepo "github.com/ledgerstream/ledgerstream/internal/core/ports/repositories"
)

// TransactionRepository is the in-memory implementation of
// portsrepo.TransactionRepository: an append-only journal with secondary
// indexes by ID and by account, in insertion order.
type TransactionRepository struct {
	mu        sync.RWMutex
	journal   []domain.Transaction
	byID      map[string]int
	byAccount map[string][]int
}

// NewTransactionRepository creates an empty in-memory journal.
func NewTransactionRepository() *TransactionRepository {
	return &TransactionRepository{
		byID:      make(map[string]int),
		byAccount: make(map[string][]int),
	}
}

var _ portsrepo.TransactionRepository = (*TransactionRepository)(nil)

func (r *TransactionRepository) SaveTransaction(ctx context.Context, txn domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[txn.TransactionID]; exists {
		return fmt.Errorf("%w: transaction %s already exists", apperrors.ErrValidation, txn.TransactionID)
	}
	idx := len(r.journal)
	r.journal = append(r.journal, txn)
	r.byID[txn.TransactionID] = idx
	r.byAccount[txn.AccountID] = append(r.byAccount[txn.AccountID], idx)
	return nil
}

func (r *TransactionRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, ok := r.byID[transactionID]
	if !ok {
		return nil, fmt.Errorf("%w: transaction %s", apperrors.ErrNotFound, transactionID)
	}
	txn := r.journal[idx]
	return &txn, nil
}

func (r *TransactionRepository) ListTransactions(ctx context.Context, limit int) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := len(r.journal)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]domain.Transaction, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, r.journal[i])
	}
	return out, nil
}

func (r *TransactionRepository) ListAccountTransactions(ctx context.Context, accountID string, limit int) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idxs := r.byAccount[accountID]
	n := len(idxs)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]domain.Transaction, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, r.journal[idxs[i]])
	}
	return out, nil
}

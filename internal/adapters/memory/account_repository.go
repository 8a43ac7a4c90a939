package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ledgerstream/ledgerstream/internal/apperrors"
	"github.com/ledgerstream/ledgerstream/internal/core/domain"
	portsrepo "github.com/ledgerstream/ledgerstream/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
)

// accountEntry pairs an account with its own mutex so that concurrent
// ApplyDelta calls on different accounts never contend with each other.
type accountEntry struct {
	mu      sync.Mutex
	account domain.Account
}

// AccountRepository is the in-memory implementation of
// portsrepo.AccountRepository. The outer RWMutex guards the map structure;
// each entry carries its own lock for balance mutation, so readers and
// writers of distinct accounts proceed in parallel.
type AccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*accountEntry
	order    []string // account IDs in creation order
}

// NewAccountRepository creates an empty in-memory account repository.
func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		accounts: make(map[string]*accountEntry),
	}
}

var _ portsrepo.AccountRepository = (*AccountRepository)(nil)

func (r *AccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.accounts[account.AccountID]; exists {
		return fmt.Errorf("%w: account %s already exists", apperrors.ErrValidation, account.AccountID)
	}
	r.accounts[account.AccountID] = &accountEntry{account: account}
	r.order = append(r.order, account.AccountID)
	return nil
}

func (r *AccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	entry, err := r.entry(accountID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	snapshot := entry.account
	entry.mu.Unlock()
	return &snapshot, nil
}

func (r *AccountRepository) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	r.mu.RLock()
	entries := make([]*accountEntry, 0, len(r.order))
	for _, id := range r.order {
		entries = append(entries, r.accounts[id])
	}
	r.mu.RUnlock()

	accounts := make([]domain.Account, 0, len(entries))
	for _, entry := range entries {
		entry.mu.Lock()
		snapshot := entry.account
		entry.mu.Unlock()
		if snapshot.Active {
			accounts = append(accounts, snapshot)
		}
	}
	return accounts, nil
}

func (r *AccountRepository) UpdateAccount(ctx context.Context, accountID string, holder string, kind domain.AccountKind) (*domain.Account, error) {
	entry, err := r.entry(accountID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	entry.account.Holder = holder
	entry.account.Kind = kind
	snapshot := entry.account
	entry.mu.Unlock()
	return &snapshot, nil
}

func (r *AccountRepository) DeactivateAccount(ctx context.Context, accountID string, now time.Time) (*domain.Account, error) {
	entry, err := r.entry(accountID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	entry.account.Active = false
	snapshot := entry.account
	entry.mu.Unlock()
	return &snapshot, nil
}

// ApplyDelta is the single balance mutation primitive. The per-entry lock
// makes the check-and-apply atomic: no lost updates, and a rejected delta
// leaves the balance untouched.
func (r *AccountRepository) ApplyDelta(ctx context.Context, accountID string, delta decimal.Decimal) (decimal.Decimal, error) {
	entry, err := r.entry(accountID)
	if err != nil {
		return decimal.Zero, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if !entry.account.Active {
		return decimal.Zero, fmt.Errorf("%w: account %s", apperrors.ErrAccountInactive, accountID)
	}

	newBalance := entry.account.Balance.Add(delta)
	if newBalance.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: account %s balance %s, delta %s",
			apperrors.ErrInsufficientFunds, accountID, entry.account.Balance.String(), delta.String())
	}

	entry.account.Balance = newBalance
	return newBalance, nil
}

func (r *AccountRepository) entry(accountID string) (*accountEntry, error) {
	r.mu.RLock()
	entry, ok := r.accounts[accountID]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
	}
	return entry, nil
}

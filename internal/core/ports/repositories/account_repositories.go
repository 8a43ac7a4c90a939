package repositories

import (
	"context"
	"time"

	"github.com/ledgerstream/ledgerstream/internal/core/domain"
	"github.com/shopspring/decimal"
)

// AccountRepository defines persistence operations for accounts.
// Implementations must keep reads consistent with concurrent ApplyDelta
// calls: a reader never observes a partially applied delta.
type AccountRepository interface {
	// SaveAccount stores a new account.
	SaveAccount(ctx context.Context, account domain.Account) error

	// FindAccountByID returns a snapshot of the account, or
	// apperrors.ErrNotFound.
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// ListAccounts returns snapshots of all active accounts in creation order.
	ListAccounts(ctx context.Context) ([]domain.Account, error)

	// UpdateAccount replaces the holder and kind of an existing account,
	// leaving balance, creation time and active flag untouched. Returns the
	// updated snapshot, or apperrors.ErrNotFound.
	UpdateAccount(ctx context.Context, accountID string, holder string, kind domain.AccountKind) (*domain.Account, error)

	// DeactivateAccount soft-deletes an account and returns its final state.
	DeactivateAccount(ctx context.Context, accountID string, now time.Time) (*domain.Account, error)

	// ApplyDelta atomically adjusts the account balance and returns the new
	// balance. It is the single mutation primitive for balances: concurrent
	// callers on the same account are serialized, and a delta that would
	// take the balance below zero is rejected with
	// apperrors.ErrInsufficientFunds leaving the balance unchanged.
	// Returns apperrors.ErrNotFound or apperrors.ErrAccountInactive as
	// applicable. Intended for use by LedgerService only.
	ApplyDelta(ctx context.Context, accountID string, delta decimal.Decimal) (decimal.Decimal, error)
}

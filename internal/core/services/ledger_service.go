package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledgerstream/ledgerstream/internal/apperrors"
	"github.com/ledgerstream/ledgerstream/internal/core/domain"
	portsrepo "github.com/ledgerstream/ledgerstream/internal/core/ports/repositories"
	portssvc "github.com/ledgerstream/ledgerstream/internal/core/ports/services"
	"github.com/ledgerstream/ledgerstream/internal/middleware"
)

// ledgerService applies balance mutations against the account repository and
// records them in the append-only journal. Each account has its own lock so
// that delta, journal append and event publication form one critical
// section: journal order equals application order, and an event is never
// published for an entry a concurrent reader cannot yet retrieve.
type ledgerService struct {
	accountRepo portsrepo.AccountRepository
	txnRepo     portsrepo.TransactionRepository
	publisher   portssvc.EventPublisher

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(accountRepo portsrepo.AccountRepository, txnRepo portsrepo.TransactionRepository, publisher portssvc.EventPublisher) portssvc.LedgerSvcFacade {
	return &ledgerService{
		accountRepo: accountRepo,
		txnRepo:     txnRepo,
		publisher:   publisher,
		locks:       make(map[string]*sync.Mutex),
	}
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// accountLock returns the serialization lock for one account. Locks are
// never taken for two accounts at once; transfers take each leg's lock
// separately, which rules out lock-order deadlocks.
func (s *ledgerService) accountLock(accountID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[accountID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[accountID] = lock
	}
	return lock
}

func (s *ledgerService) Deposit(ctx context.Context, accountID string, amount decimal.Decimal, description string) (*domain.Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: deposit amount must be positive", apperrors.ErrValidation)
	}
	return s.applyMutation(ctx, accountID, amount, domain.Deposit, description)
}

func (s *ledgerService) Withdraw(ctx context.Context, accountID string, amount decimal.Decimal, description string) (*domain.Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: withdrawal amount must be positive", apperrors.ErrValidation)
	}
	return s.applyMutation(ctx, accountID, amount.Neg(), domain.Withdrawal, description)
}

// applyMutation runs one signed delta against one account inside that
// account's critical section and commits the matching journal entry.
func (s *ledgerService) applyMutation(ctx context.Context, accountID string, delta decimal.Decimal, kind domain.TransactionKind, description string) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	lock := s.accountLock(accountID)
	lock.Lock()
	defer lock.Unlock()

	newBalance, err := s.accountRepo.ApplyDelta(ctx, accountID, delta)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) && !errors.Is(err, apperrors.ErrInsufficientFunds) && !errors.Is(err, apperrors.ErrAccountInactive) {
			logger.Error("Failed to apply balance delta", slog.String("error", err.Error()), slog.String("account_id", accountID))
		}
		return nil, err
	}

	txn := domain.Transaction{
		TransactionID: uuid.NewString(),
		AccountID:     accountID,
		Amount:        delta,
		Kind:          kind,
		Description:   description,
		Timestamp:     time.Now().UTC(),
		BalanceAfter:  newBalance,
	}
	if err := s.txnRepo.SaveTransaction(ctx, txn); err != nil {
		logger.Error("Failed to append journal entry", slog.String("error", err.Error()), slog.String("transaction_id", txn.TransactionID))
		return nil, err
	}

	s.publisher.Publish(domain.TransactionCreated{Transaction: txn})
	s.publisher.Publish(domain.BalanceUpdated{AccountID: accountID, NewBalance: newBalance, Timestamp: txn.Timestamp})

	logger.Info("Ledger mutation applied",
		slog.String("account_id", accountID),
		slog.String("transaction_id", txn.TransactionID),
		slog.String("kind", string(kind)),
		slog.String("balance_after", newBalance.String()),
	)
	return &txn, nil
}

// Transfer debits the source and credits the destination as two journal
// entries that commit together. The debit leg goes first; if the credit leg
// fails (the destination was deactivated after validation), the debit is
// rolled back with a compensating credit before the error surfaces, so the
// transfer is never left half-applied.
func (s *ledgerService) Transfer(ctx context.Context, fromAccountID, toAccountID string, amount decimal.Decimal, description string) ([]domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: transfer amount must be positive", apperrors.ErrValidation)
	}
	if fromAccountID == toAccountID {
		return nil, fmt.Errorf("%w: cannot transfer to the same account", apperrors.ErrValidation)
	}

	// Validate both ends before any side effect.
	for _, accountID := range []string{fromAccountID, toAccountID} {
		account, err := s.accountRepo.FindAccountByID(ctx, accountID)
		if err != nil {
			return nil, err
		}
		if !account.Active {
			return nil, fmt.Errorf("%w: account %s", apperrors.ErrAccountInactive, accountID)
		}
	}

	debitDesc := fmt.Sprintf("Transfer to %s: %s", toAccountID, description)
	creditDesc := fmt.Sprintf("Transfer from %s: %s", fromAccountID, description)

	debit, err := s.applyMutation(ctx, fromAccountID, amount.Neg(), domain.Transfer, debitDesc)
	if err != nil {
		return nil, err
	}

	credit, err := s.applyMutation(ctx, toAccountID, amount, domain.Transfer, creditDesc)
	if err != nil {
		logger.Warn("Transfer credit leg failed, rolling back debit",
			slog.String("from_account_id", fromAccountID),
			slog.String("to_account_id", toAccountID),
			slog.String("error", err.Error()),
		)
		reversalDesc := fmt.Sprintf("Transfer reversal, credit to %s failed: %s", toAccountID, description)
		if _, rbErr := s.applyMutation(ctx, fromAccountID, amount, domain.Transfer, reversalDesc); rbErr != nil {
			// The source account cannot reject a credit while it stays
			// active; reaching this means it was deactivated mid-rollback.
			logger.Error("Transfer rollback failed", slog.String("account_id", fromAccountID), slog.String("error", rbErr.Error()))
			return nil, fmt.Errorf("transfer rollback failed: %w", rbErr)
		}
		return nil, err
	}

	return []domain.Transaction{*debit, *credit}, nil
}

func (s *ledgerService) GetTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	return s.txnRepo.FindTransactionByID(ctx, transactionID)
}

func (s *ledgerService) ListTransactions(ctx context.Context, limit int) ([]domain.Transaction, error) {
	txns, err := s.txnRepo.ListTransactions(ctx, limit)
	if err != nil {
		return nil, err
	}
	if txns == nil {
		return []domain.Transaction{}, nil
	}
	return txns, nil
}

func (s *ledgerService) ListAccountTransactions(ctx context.Context, accountID string, limit int) ([]domain.Transaction, error) {
	if _, err := s.accountRepo.FindAccountByID(ctx, accountID); err != nil {
		return nil, err
	}
	txns, err := s.txnRepo.ListAccountTransactions(ctx, accountID, limit)
	if err != nil {
		return nil, err
	}
	if txns == nil {
		return []domain.Transaction{}, nil
	}
	return txns, nil
}

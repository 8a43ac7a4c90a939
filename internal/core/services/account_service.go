package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ledgerstream/ledgerstream/internal/apperrors"
	"github.com/ledgerstream/ledgerstream/internal/core/domain"
	portsrepo "github.com/ledgerstream/ledgerstream/internal/core/ports/repositories"
	portssvc "github.com/ledgerstream/ledgerstream/internal/core/ports/services"
	"github.com/ledgerstream/ledgerstream/internal/dto"
	"github.com/ledgerstream/ledgerstream/internal/middleware"
	"github.com/google/uuid"
)

// AccountService provides account lifecycle operations. Balance mutation is
// not here; that belongs to LedgerService.
type AccountService struct {
	AccountRepository portsrepo.AccountRepository
}

func NewAccountService(repo portsrepo.AccountRepository) *AccountService {
	return &AccountService{AccountRepository: repo}
}

var _ portssvc.AccountSvcFacade = (*AccountService)(nil)

func (s *AccountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if req.Balance.IsNegative() {
		return nil, fmt.Errorf("%w: opening balance must not be negative", apperrors.ErrValidation)
	}

	account := domain.Account{
		AccountID: uuid.NewString(),
		Holder:    req.Holder,
		Kind:      req.Kind,
		Balance:   req.Balance,
		CreatedAt: time.Now().UTC(),
		Active:    true,
	}

	if err := s.AccountRepository.SaveAccount(ctx, account); err != nil {
		logger.Error("Failed to save account in repository", slog.String("error", err.Error()), slog.String("account_id", account.AccountID))
		return nil, err
	}

	logger.Info("Account created successfully in service", slog.String("account_id", account.AccountID))
	return &account, nil
}

func (s *AccountService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	account, err := s.AccountRepository.FindAccountByID(ctx, accountID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Failed to find account by ID in repository", slog.String("error", err.Error()), slog.String("account_id", accountID))
		}
		return nil, err
	}
	logger.Debug("Account retrieved successfully from service", slog.String("account_id", account.AccountID))
	return account, nil
}

// ListAccounts retrieves all active accounts in creation order.
func (s *AccountService) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	accounts, err := s.AccountRepository.ListAccounts(ctx)
	if err != nil {
		logger.Error("Failed to list accounts from repository", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	if accounts == nil {
		return []domain.Account{}, nil
	}

	logger.Debug("Accounts listed successfully from service", slog.Int("count", len(accounts)))
	return accounts, nil
}

// UpdateAccount changes the holder and kind of an existing account. The
// balance stays under ledger control and is never touched here.
func (s *AccountService) UpdateAccount(ctx context.Context, accountID string, req dto.UpdateAccountRequest) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	account, err := s.AccountRepository.UpdateAccount(ctx, accountID, req.Holder, req.Kind)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Failed to update account in repository", slog.String("error", err.Error()), slog.String("account_id", accountID))
		}
		return nil, err
	}

	logger.Info("Account updated successfully in service", slog.String("account_id", accountID))
	return account, nil
}

// DeactivateAccount marks an account as inactive. The account and its
// journal history remain readable.
func (s *AccountService) DeactivateAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	account, err := s.AccountRepository.DeactivateAccount(ctx, accountID, time.Now().UTC())
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Failed to deactivate account in repository", slog.String("error", err.Error()), slog.String("account_id", accountID))
		}
		return nil, err
	}

	logger.Info("Account deactivated successfully in service", slog.String("account_id", accountID))
	return account, nil
}

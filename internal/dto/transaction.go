package dto

import (
	"time"

	"github.com/ledgerstream/ledgerstream/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateTransactionRequest defines a deposit or withdrawal against one
// account. Amount is always positive; the transaction type decides the sign.
type CreateTransactionRequest struct {
	AccountID   string                 `json:"account_id" binding:"required"`
	Amount      decimal.Decimal        `json:"amount" binding:"dgt=0"`
	Kind        domain.TransactionKind `json:"transaction_type" binding:"required,oneof=deposit withdrawal"`
	Description string                 `json:"description"`
}

// TransferRequest defines a transfer between two accounts.
type TransferRequest struct {
	FromAccountID string          `json:"from_account_id" binding:"required"`
	ToAccountID   string          `json:"to_account_id" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"dgt=0"`
	Description   string          `json:"description"`
}

// TransactionResponse defines the data returned for a journal entry.
// The amount is signed: positive credited the account, negative debited it.
type TransactionResponse struct {
	TransactionID string                 `json:"transaction_id"`
	AccountID     string                 `json:"account_id"`
	Amount        decimal.Decimal        `json:"amount"`
	Kind          domain.TransactionKind `json:"transaction_type"`
	Description   string                 `json:"description"`
	Timestamp     time.Time              `json:"timestamp"`
	BalanceAfter  decimal.Decimal        `json:"balance_after"`
}

// ToTransactionResponse converts a domain.Transaction to its DTO.
func ToTransactionResponse(txn *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID: txn.TransactionID,
		AccountID:     txn.AccountID,
		Amount:        txn.Amount,
		Kind:          txn.Kind,
		Description:   txn.Description,
		Timestamp:     txn.Timestamp,
		BalanceAfter:  txn.BalanceAfter,
	}
}

// ToTransactionResponses converts a slice of journal entries.
func ToTransactionResponses(txns []domain.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, len(txns))
	for i := range txns {
		out[i] = ToTransactionResponse(&txns[i])
	}
	return out
}

package dto

import (
	"time"

	"github.com/ledgerstream/ledgerstream/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest defines the data needed to open a new account.
type CreateAccountRequest struct {
	Holder  string             `json:"account_holder" binding:"required"`
	Kind    domain.AccountKind `json:"account_type" binding:"required,oneof=checking savings credit"`
	Balance decimal.Decimal    `json:"balance" binding:"dgte=0"` // Opening balance, defaults to zero
}

// UpdateAccountRequest defines the fields that can change on an existing
// account. Balance is deliberately absent; it moves only through ledger
// operations.
type UpdateAccountRequest struct {
	Holder string             `json:"account_holder" binding:"required"`
	Kind   domain.AccountKind `json:"account_type" binding:"required,oneof=checking savings credit"`
}

// AccountResponse defines the data returned for an account.
// Mirrors domain.Account; field names are part of the wire contract.
type AccountResponse struct {
	AccountID string             `json:"account_id"`
	Holder    string             `json:"account_holder"`
	Kind      domain.AccountKind `json:"account_type"`
	Balance   decimal.Decimal    `json:"balance"`
	CreatedAt time.Time          `json:"created_at"`
	Active    bool               `json:"is_active"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO
func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID: acc.AccountID,
		Holder:    acc.Holder,
		Kind:      acc.Kind,
		Balance:   acc.Balance,
		CreatedAt: acc.CreatedAt,
		Active:    acc.Active,
	}
}

// ToAccountResponses converts a slice of domain accounts.
func ToAccountResponses(accounts []domain.Account) []AccountResponse {
	out := make([]AccountResponse, len(accounts))
	for i := range accounts {
		out[i] = ToAccountResponse(&accounts[i])
	}
	return out
}

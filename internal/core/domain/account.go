package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountKind defines the product type of an account.
type AccountKind string

const (
	Checking AccountKind = "checking"
	Savings  AccountKind = "savings"
	Credit   AccountKind = "credit"
)

// Account represents a ledger account within the core domain.
// Balance is owned by the account repository and mutated only through
// LedgerService operations, never directly by callers.
type Account struct {
	AccountID string          `json:"account_id"` // Primary key (UUID)
	Holder    string          `json:"account_holder"`
	Kind      AccountKind     `json:"account_type"`
	Balance   decimal.Decimal `json:"balance"` // Exact decimal, never float
	CreatedAt time.Time       `json:"created_at"`
	Active    bool            `json:"is_active"` // Soft delete flag; accounts are never removed
}

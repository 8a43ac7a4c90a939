package domain_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/ledgerstream/ledgerstream/internal/core/domain"
)

func TestEventAccountID(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name  string
		event domain.Event
		want  string
	}{
		{
			name: "transaction created carries the entry's account",
			event: domain.TransactionCreated{
				Transaction: domain.Transaction{
					TransactionID: "txn_123",
					AccountID:     "acc_123",
					Amount:        decimal.NewFromInt(100),
					Kind:          domain.Deposit,
					Timestamp:     now,
				},
			},
			want: "acc_123",
		},
		{
			name: "balance updated carries the mutated account",
			event: domain.BalanceUpdated{
				AccountID:  "acc_456",
				NewBalance: decimal.NewFromInt(250),
				Timestamp:  now,
			},
			want: "acc_456",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.event.EventAccountID())
		})
	}
}

package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/ledgerstream/ledgerstream/internal/apperrors"
	"github.com/ledgerstream/ledgerstream/internal/core/domain"
	"github.com/ledgerstream/ledgerstream/internal/dto"
)

// decimalArg matches a decimal argument by value.
func decimalArg(expected string) interface{} {
	want := decimal.RequireFromString(expected)
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(want) })
}

type TransactionHandlerTestSuite struct {
	suite.Suite
	mockAccountSvc *MockAccountService
	mockLedgerSvc  *MockLedgerService
	router         *gin.Engine
}

func (suite *TransactionHandlerTestSuite) SetupTest() {
	suite.mockAccountSvc = new(MockAccountService)
	suite.mockLedgerSvc = new(MockLedgerService)
	suite.router = newTestRouter(suite.mockAccountSvc, suite.mockLedgerSvc)
}

func (suite *TransactionHandlerTestSuite) performRequest(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		suite.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *TransactionHandlerTestSuite) TestCreateTransaction_Deposit() {
	txn := &domain.Transaction{
		TransactionID: "txn-1",
		AccountID:     "acc-1",
		Amount:        decimal.RequireFromString("200.00"),
		Kind:          domain.Deposit,
		Description:   "payday",
		Timestamp:     time.Now().UTC(),
		BalanceAfter:  decimal.RequireFromString("1200.00"),
	}
	suite.mockLedgerSvc.On("Deposit", mock.Anything, "acc-1", decimalArg("200.00"), "payday").
		Return(txn, nil).Once()

	w := suite.performRequest(http.MethodPost, "/api/transactions", gin.H{
		"account_id":       "acc-1",
		"amount":           200.00,
		"transaction_type": "deposit",
		"description":      "payday",
	})

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.TransactionResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("txn-1", resp.TransactionID)
	suite.True(resp.BalanceAfter.Equal(decimal.RequireFromString("1200.00")))
	suite.mockLedgerSvc.AssertExpectations(suite.T())
}

func (suite *TransactionHandlerTestSuite) TestCreateTransaction_Withdrawal() {
	txn := &domain.Transaction{
		TransactionID: "txn-1",
		AccountID:     "acc-1",
		Amount:        decimal.RequireFromString("-50.00"),
		Kind:          domain.Withdrawal,
		BalanceAfter:  decimal.RequireFromString("950.00"),
	}
	suite.mockLedgerSvc.On("Withdraw", mock.Anything, "acc-1", decimalArg("50.00"), "").
		Return(txn, nil).Once()

	w := suite.performRequest(http.MethodPost, "/api/transactions", gin.H{
		"account_id":       "acc-1",
		"amount":           50.00,
		"transaction_type": "withdrawal",
	})

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.TransactionResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.True(resp.Amount.IsNegative())
	suite.mockLedgerSvc.AssertExpectations(suite.T())
}

func (suite *TransactionHandlerTestSuite) TestCreateTransaction_RejectsTransferType() {
	w := suite.performRequest(http.MethodPost, "/api/transactions", gin.H{
		"account_id":       "acc-1",
		"amount":           10.00,
		"transaction_type": "transfer",
	})

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockLedgerSvc.AssertNotCalled(suite.T(), "Deposit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockLedgerSvc.AssertNotCalled(suite.T(), "Withdraw", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *TransactionHandlerTestSuite) TestCreateTransaction_NonPositiveAmount() {
	w := suite.performRequest(http.MethodPost, "/api/transactions", gin.H{
		"account_id":       "acc-1",
		"amount":           0,
		"transaction_type": "deposit",
	})

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockLedgerSvc.AssertNotCalled(suite.T(), "Deposit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// TestCreateTransaction_TinyAmountValidatesExactly uses an amount below the
// smallest positive float64: exact decimal comparison must still see it as
// positive instead of rounding it to zero.
func (suite *TransactionHandlerTestSuite) TestCreateTransaction_TinyAmountValidatesExactly() {
	amount := decimal.RequireFromString("1E-324")
	txn := &domain.Transaction{
		TransactionID: "txn-1",
		AccountID:     "acc-1",
		Amount:        amount,
		Kind:          domain.Deposit,
		BalanceAfter:  amount,
	}
	suite.mockLedgerSvc.On("Deposit", mock.Anything, "acc-1", decimalArg("1E-324"), "dust").
		Return(txn, nil).Once()

	w := suite.performRequest(http.MethodPost, "/api/transactions",
		json.RawMessage(`{"account_id":"acc-1","amount":1E-324,"transaction_type":"deposit","description":"dust"}`))

	suite.Equal(http.StatusCreated, w.Code)
	suite.mockLedgerSvc.AssertExpectations(suite.T())
}

func (suite *TransactionHandlerTestSuite) TestCreateTransaction_InsufficientFunds() {
	suite.mockLedgerSvc.On("Withdraw", mock.Anything, "acc-1", decimalArg("2000.00"), "").
		Return(nil, fmt.Errorf("%w: balance 1200 is less than 2000", apperrors.ErrInsufficientFunds)).Once()

	w := suite.performRequest(http.MethodPost, "/api/transactions", gin.H{
		"account_id":       "acc-1",
		"amount":           2000.00,
		"transaction_type": "withdrawal",
	})

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Contains(w.Body.String(), "insufficient funds")
}

func (suite *TransactionHandlerTestSuite) TestCreateTransaction_UnknownAccount() {
	suite.mockLedgerSvc.On("Deposit", mock.Anything, "missing", decimalArg("10.00"), "").
		Return(nil, apperrors.ErrNotFound).Once()

	w := suite.performRequest(http.MethodPost, "/api/transactions", gin.H{
		"account_id":       "missing",
		"amount":           10.00,
		"transaction_type": "deposit",
	})

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *TransactionHandlerTestSuite) TestCreateTransaction_InactiveAccount() {
	suite.mockLedgerSvc.On("Deposit", mock.Anything, "acc-1", decimalArg("10.00"), "").
		Return(nil, apperrors.ErrAccountInactive).Once()

	w := suite.performRequest(http.MethodPost, "/api/transactions", gin.H{
		"account_id":       "acc-1",
		"amount":           10.00,
		"transaction_type": "deposit",
	})

	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *TransactionHandlerTestSuite) TestListTransactions() {
	txns := []domain.Transaction{
		{TransactionID: "txn-2", AccountID: "acc-1"},
		{TransactionID: "txn-1", AccountID: "acc-2"},
	}
	suite.mockLedgerSvc.On("ListTransactions", mock.Anything, 0).Return(txns, nil).Once()

	w := suite.performRequest(http.MethodGet, "/api/transactions", nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp []dto.TransactionResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Len(resp, 2)
	suite.mockLedgerSvc.AssertExpectations(suite.T())
}

func (suite *TransactionHandlerTestSuite) TestGetTransaction_NotFound() {
	suite.mockLedgerSvc.On("GetTransactionByID", mock.Anything, "missing").
		Return(nil, apperrors.ErrNotFound).Once()

	w := suite.performRequest(http.MethodGet, "/api/transactions/missing", nil)

	suite.Equal(http.StatusNotFound, w.Code)
	suite.JSONEq(`{"error": "Transaction not found"}`, w.Body.String())
}

func (suite *TransactionHandlerTestSuite) TestCreateTransfer_Success() {
	legs := []domain.Transaction{
		{TransactionID: "txn-1", AccountID: "acc-1", Amount: decimal.RequireFromString("-300.00"), Kind: domain.Transfer},
		{TransactionID: "txn-2", AccountID: "acc-2", Amount: decimal.RequireFromString("300.00"), Kind: domain.Transfer},
	}
	suite.mockLedgerSvc.On("Transfer", mock.Anything, "acc-1", "acc-2", decimalArg("300.00"), "rent").
		Return(legs, nil).Once()

	w := suite.performRequest(http.MethodPost, "/api/transfers", gin.H{
		"from_account_id": "acc-1",
		"to_account_id":   "acc-2",
		"amount":          300.00,
		"description":     "rent",
	})

	suite.Equal(http.StatusCreated, w.Code)
	var resp []dto.TransactionResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Require().Len(resp, 2)
	suite.True(resp[0].Amount.IsNegative())
	suite.True(resp[1].Amount.IsPositive())
	suite.mockLedgerSvc.AssertExpectations(suite.T())
}

func (suite *TransactionHandlerTestSuite) TestCreateTransfer_MissingDestination() {
	w := suite.performRequest(http.MethodPost, "/api/transfers", gin.H{
		"from_account_id": "acc-1",
		"amount":          300.00,
	})

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockLedgerSvc.AssertNotCalled(suite.T(), "Transfer",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *TransactionHandlerTestSuite) TestCreateTransfer_SameAccount() {
	suite.mockLedgerSvc.On("Transfer", mock.Anything, "acc-1", "acc-1", decimalArg("10.00"), "").
		Return(nil, fmt.Errorf("%w: cannot transfer to the same account", apperrors.ErrValidation)).Once()

	w := suite.performRequest(http.MethodPost, "/api/transfers", gin.H{
		"from_account_id": "acc-1",
		"to_account_id":   "acc-1",
		"amount":          10.00,
	})

	suite.Equal(http.StatusBadRequest, w.Code)
}

func TestTransactionHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(TransactionHandlerTestSuite))
}

package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
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
	portssvc "github.com/ledgerstream/ledgerstream/internal/core/ports/services"
	"github.com/ledgerstream/ledgerstream/internal/dto"
	"github.com/ledgerstream/ledgerstream/internal/handlers"
)

// MockAccountService is a mock type for the AccountSvcFacade interface
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest) (*domain.Account, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountService) UpdateAccount(ctx context.Context, accountID string, req dto.UpdateAccountRequest) (*domain.Account, error) {
	args := m.Called(ctx, accountID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) DeactivateAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

// MockLedgerService is a mock type for the LedgerSvcFacade interface
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) Deposit(ctx context.Context, accountID string, amount decimal.Decimal, description string) (*domain.Transaction, error) {
	args := m.Called(ctx, accountID, amount, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerService) Withdraw(ctx context.Context, accountID string, amount decimal.Decimal, description string) (*domain.Transaction, error) {
	args := m.Called(ctx, accountID, amount, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerService) Transfer(ctx context.Context, fromAccountID, toAccountID string, amount decimal.Decimal, description string) ([]domain.Transaction, error) {
	args := m.Called(ctx, fromAccountID, toAccountID, amount, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *MockLedgerService) GetTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerService) ListTransactions(ctx context.Context, limit int) ([]domain.Transaction, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *MockLedgerService) ListAccountTransactions(ctx context.Context, accountID string, limit int) ([]domain.Transaction, error) {
	args := m.Called(ctx, accountID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

// newTestRouter wires the REST routes onto a fresh engine backed by mocks.
func newTestRouter(accountSvc portssvc.AccountSvcFacade, ledgerSvc portssvc.LedgerSvcFacade) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handlers.RegisterValidations()
	r := gin.New()
	handlers.RegisterRoutes(r, &portssvc.ServiceContainer{Account: accountSvc, Ledger: ledgerSvc})
	return r
}

// --- Test Suite Setup ---

type AccountHandlerTestSuite struct {
	suite.Suite
	mockAccountSvc *MockAccountService
	mockLedgerSvc  *MockLedgerService
	router         *gin.Engine
}

func (suite *AccountHandlerTestSuite) SetupTest() {
	suite.mockAccountSvc = new(MockAccountService)
	suite.mockLedgerSvc = new(MockLedgerService)
	suite.router = newTestRouter(suite.mockAccountSvc, suite.mockLedgerSvc)
}

func (suite *AccountHandlerTestSuite) performRequest(method, path string, body any) *httptest.ResponseRecorder {
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

func (suite *AccountHandlerTestSuite) TestCreateAccount_Success() {
	account := &domain.Account{
		AccountID: "acc-1",
		Holder:    "Alice",
		Kind:      domain.Checking,
		Balance:   decimal.RequireFromString("1000.00"),
		CreatedAt: time.Now().UTC(),
		Active:    true,
	}
	suite.mockAccountSvc.On("CreateAccount", mock.Anything, mock.AnythingOfType("dto.CreateAccountRequest")).
		Return(account, nil).Once()

	w := suite.performRequest(http.MethodPost, "/api/accounts", gin.H{
		"account_holder": "Alice",
		"account_type":   "checking",
		"balance":        1000.00,
	})

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.AccountResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("acc-1", resp.AccountID)
	suite.Equal("Alice", resp.Holder)
	suite.True(resp.Active)
	suite.mockAccountSvc.AssertExpectations(suite.T())
}

func (suite *AccountHandlerTestSuite) TestCreateAccount_MissingHolder() {
	w := suite.performRequest(http.MethodPost, "/api/accounts", gin.H{
		"account_type": "checking",
	})

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockAccountSvc.AssertNotCalled(suite.T(), "CreateAccount", mock.Anything, mock.Anything)
}

func (suite *AccountHandlerTestSuite) TestCreateAccount_InvalidType() {
	w := suite.performRequest(http.MethodPost, "/api/accounts", gin.H{
		"account_holder": "Alice",
		"account_type":   "offshore",
	})

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockAccountSvc.AssertNotCalled(suite.T(), "CreateAccount", mock.Anything, mock.Anything)
}

func (suite *AccountHandlerTestSuite) TestCreateAccount_NegativeBalance() {
	w := suite.performRequest(http.MethodPost, "/api/accounts", gin.H{
		"account_holder": "Alice",
		"account_type":   "checking",
		"balance":        -5.00,
	})

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockAccountSvc.AssertNotCalled(suite.T(), "CreateAccount", mock.Anything, mock.Anything)
}

// TestCreateAccount_TinyNegativeBalance uses a negative opening balance so
// small that a float64 round-trip would flatten it to zero; exact decimal
// comparison must still reject it.
func (suite *AccountHandlerTestSuite) TestCreateAccount_TinyNegativeBalance() {
	w := suite.performRequest(http.MethodPost, "/api/accounts",
		json.RawMessage(`{"account_holder":"Alice","account_type":"checking","balance":-1E-324}`))

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockAccountSvc.AssertNotCalled(suite.T(), "CreateAccount", mock.Anything, mock.Anything)
}

func (suite *AccountHandlerTestSuite) TestListAccounts() {
	accounts := []domain.Account{
		{AccountID: "acc-1", Holder: "Alice", Active: true},
		{AccountID: "acc-2", Holder: "Bob", Active: true},
	}
	suite.mockAccountSvc.On("ListAccounts", mock.Anything).Return(accounts, nil).Once()

	w := suite.performRequest(http.MethodGet, "/api/accounts", nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp []dto.AccountResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Len(resp, 2)
	suite.mockAccountSvc.AssertExpectations(suite.T())
}

func (suite *AccountHandlerTestSuite) TestGetAccount_NotFound() {
	suite.mockAccountSvc.On("GetAccountByID", mock.Anything, "missing").
		Return(nil, apperrors.ErrNotFound).Once()

	w := suite.performRequest(http.MethodGet, "/api/accounts/missing", nil)

	suite.Equal(http.StatusNotFound, w.Code)
	suite.JSONEq(`{"error": "Account not found"}`, w.Body.String())
}

func (suite *AccountHandlerTestSuite) TestUpdateAccount_Success() {
	updated := &domain.Account{
		AccountID: "acc-1",
		Holder:    "Alice Smith",
		Kind:      domain.Savings,
		Balance:   decimal.RequireFromString("1000.00"),
		Active:    true,
	}
	suite.mockAccountSvc.On("UpdateAccount", mock.Anything, "acc-1",
		dto.UpdateAccountRequest{Holder: "Alice Smith", Kind: domain.Savings}).
		Return(updated, nil).Once()

	w := suite.performRequest(http.MethodPut, "/api/accounts/acc-1", gin.H{
		"account_holder": "Alice Smith",
		"account_type":   "savings",
	})

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.AccountResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("Alice Smith", resp.Holder)
	suite.Equal(domain.Savings, resp.Kind)
	suite.True(resp.Balance.Equal(decimal.RequireFromString("1000.00")))
	suite.mockAccountSvc.AssertExpectations(suite.T())
}

func (suite *AccountHandlerTestSuite) TestUpdateAccount_MissingHolder() {
	w := suite.performRequest(http.MethodPut, "/api/accounts/acc-1", gin.H{
		"account_type": "savings",
	})

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockAccountSvc.AssertNotCalled(suite.T(), "UpdateAccount", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *AccountHandlerTestSuite) TestUpdateAccount_NotFound() {
	suite.mockAccountSvc.On("UpdateAccount", mock.Anything, "missing",
		dto.UpdateAccountRequest{Holder: "Alice", Kind: domain.Checking}).
		Return(nil, apperrors.ErrNotFound).Once()

	w := suite.performRequest(http.MethodPut, "/api/accounts/missing", gin.H{
		"account_holder": "Alice",
		"account_type":   "checking",
	})

	suite.Equal(http.StatusNotFound, w.Code)
	suite.JSONEq(`{"error": "Account not found"}`, w.Body.String())
}

func (suite *AccountHandlerTestSuite) TestDeleteAccount_Success() {
	account := &domain.Account{AccountID: "acc-1", Holder: "Alice", Active: false}
	suite.mockAccountSvc.On("DeactivateAccount", mock.Anything, "acc-1").Return(account, nil).Once()

	w := suite.performRequest(http.MethodDelete, "/api/accounts/acc-1", nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.AccountResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.False(resp.Active)
	suite.mockAccountSvc.AssertExpectations(suite.T())
}

func (suite *AccountHandlerTestSuite) TestDeleteAccount_NotFound() {
	suite.mockAccountSvc.On("DeactivateAccount", mock.Anything, "missing").
		Return(nil, apperrors.ErrNotFound).Once()

	w := suite.performRequest(http.MethodDelete, "/api/accounts/missing", nil)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *AccountHandlerTestSuite) TestListAccountTransactions() {
	txns := []domain.Transaction{
		{TransactionID: "txn-2", AccountID: "acc-1", Amount: decimal.NewFromInt(5), Kind: domain.Deposit},
		{TransactionID: "txn-1", AccountID: "acc-1", Amount: decimal.NewFromInt(3), Kind: domain.Deposit},
	}
	suite.mockLedgerSvc.On("ListAccountTransactions", mock.Anything, "acc-1", 0).Return(txns, nil).Once()

	w := suite.performRequest(http.MethodGet, "/api/accounts/acc-1/transactions", nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp []dto.TransactionResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Require().Len(resp, 2)
	suite.Equal("txn-2", resp[0].TransactionID)
	suite.mockLedgerSvc.AssertExpectations(suite.T())
}

func (suite *AccountHandlerTestSuite) TestListAccountTransactions_UnknownAccount() {
	suite.mockLedgerSvc.On("ListAccountTransactions", mock.Anything, "missing", 0).
		Return(nil, apperrors.ErrNotFound).Once()

	w := suite.performRequest(http.MethodGet, "/api/accounts/missing/transactions", nil)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *AccountHandlerTestSuite) TestHealthCheck() {
	w := suite.performRequest(http.MethodGet, "/health", nil)

	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("OK", w.Body.String())
}

func TestAccountHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(AccountHandlerTestSuite))
}

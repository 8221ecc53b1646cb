package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"lendhub-backend/internal/domain"
	"lendhub-backend/internal/repository"
	"lendhub-backend/internal/service"
)

func accountRouter(svc service.AccountService) *mux.Router {
	router := mux.NewRouter()
	NewAccountHandler(svc).Register(router.PathPrefix("/accounts").Subrouter())
	return router
}

func authedRequest(method, target string, body string, caller *domain.User) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	if caller != nil {
		req = req.WithContext(withCaller(req.Context(), caller))
	}
	return req
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response envelope: %v", err)
	}
	return env
}

func TestAccountHandler_Deposit(t *testing.T) {
	caller := &domain.User{ID: "user-1", Role: domain.RoleUser}

	t.Run("Success", func(t *testing.T) {
		svc := new(MockAccountService)
		router := accountRouter(svc)

		account := &domain.Account{ID: "acc-1", UserID: "user-1", Balance: decimal.NewFromInt(600)}
		tx := &domain.Transaction{ID: "tx-1", Type: domain.TransactionTypeDeposit}
		svc.On("Deposit", mock.Anything, caller, "acc-1", mock.MatchedBy(func(d decimal.Decimal) bool {
			return d.Equal(decimal.NewFromInt(100))
		}), "salary").Return(account, tx, nil).Once()

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(http.MethodPost, "/accounts/acc-1/deposit",
			`{"amount":"100","description":"salary"}`, caller))

		assert.Equal(t, http.StatusOK, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.True(t, env.Success)
		assert.Equal(t, "Deposit successful", env.Message)
		svc.AssertExpectations(t)
	})

	t.Run("InsufficientFundsMapsTo400", func(t *testing.T) {
		svc := new(MockAccountService)
		router := accountRouter(svc)

		svc.On("Withdraw", mock.Anything, caller, "acc-1", mock.Anything, mock.Anything).
			Return(nil, nil, domain.ErrInsufficientFunds).Once()

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(http.MethodPost, "/accounts/acc-1/withdraw",
			`{"amount":"9999"}`, caller))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.False(t, env.Success)
	})

	t.Run("NoSession", func(t *testing.T) {
		router := accountRouter(new(MockAccountService))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(http.MethodPost, "/accounts/acc-1/deposit",
			`{"amount":"100"}`, nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("MalformedBody", func(t *testing.T) {
		router := accountRouter(new(MockAccountService))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(http.MethodPost, "/accounts/acc-1/deposit",
			`{"amount":`, caller))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAccountHandler_Get(t *testing.T) {
	caller := &domain.User{ID: "user-1", Role: domain.RoleUser}

	t.Run("ReturnsAccountWithRecentTransactions", func(t *testing.T) {
		svc := new(MockAccountService)
		router := accountRouter(svc)

		account := &domain.Account{ID: "acc-1", UserID: "user-1"}
		recent := []domain.Transaction{{ID: "tx-1"}}
		svc.On("GetAccount", mock.Anything, caller, "acc-1").Return(account, recent, nil).Once()

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(http.MethodGet, "/accounts/acc-1", "", caller))

		assert.Equal(t, http.StatusOK, rec.Code)
		env := decodeEnvelope(t, rec)
		data, ok := env.Data.(map[string]any)
		assert.True(t, ok)
		assert.Contains(t, data, "account")
		assert.Contains(t, data, "recentTransactions")
	})

	t.Run("NotFound", func(t *testing.T) {
		svc := new(MockAccountService)
		router := accountRouter(svc)

		svc.On("GetAccount", mock.Anything, caller, "missing").
			Return(nil, nil, domain.ErrNotFound).Once()

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(http.MethodGet, "/accounts/missing", "", caller))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestAccountHandler_Transfer(t *testing.T) {
	caller := &domain.User{ID: "user-1", Role: domain.RoleUser}

	t.Run("Success", func(t *testing.T) {
		svc := new(MockAccountService)
		router := accountRouter(svc)

		record := &repository.TransferRecord{
			Source: &domain.Account{ID: "acc-1", Balance: decimal.NewFromInt(450)},
			Target: &domain.Account{ID: "acc-2", Balance: decimal.NewFromInt(150)},
		}
		svc.On("Transfer", mock.Anything, caller, mock.MatchedBy(func(in service.TransferInput) bool {
			return in.SourceAccountID == "acc-1" && in.TargetAccountID == "acc-2" &&
				in.Amount.Equal(decimal.NewFromInt(50))
		})).Return(record, nil).Once()

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(http.MethodPost, "/accounts/transfer",
			`{"sourceAccountId":"acc-1","targetAccountId":"acc-2","amount":"50"}`, caller))

		assert.Equal(t, http.StatusOK, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.True(t, env.Success)
		svc.AssertExpectations(t)
	})
}

func TestAccountHandler_ListAll(t *testing.T) {
	admin := &domain.User{ID: "admin-1", Role: domain.RoleAdmin}

	t.Run("PageParamsForwarded", func(t *testing.T) {
		svc := new(MockAccountService)
		router := accountRouter(svc)

		accounts := []domain.Account{{ID: "acc-1"}}
		svc.On("ListAllAccounts", mock.Anything, admin, 2, 5).
			Return(accounts, domain.NewPagination(12, 2, 5), nil).Once()

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(http.MethodGet, "/accounts/admin/all?page=2&limit=5", "", admin))

		assert.Equal(t, http.StatusOK, rec.Code)
		env := decodeEnvelope(t, rec)
		data := env.Data.(map[string]any)
		assert.Contains(t, data, "items")
		assert.Contains(t, data, "pagination")
		svc.AssertExpectations(t)
	})

	t.Run("ForbiddenMapsTo403", func(t *testing.T) {
		svc := new(MockAccountService)
		router := accountRouter(svc)

		user := &domain.User{ID: "user-1", Role: domain.RoleUser}
		svc.On("ListAllAccounts", mock.Anything, user, 0, 0).
			Return(nil, nil, domain.ErrForbidden).Once()

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(http.MethodGet, "/accounts/admin/all", "", user))

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

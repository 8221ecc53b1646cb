package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"lendhub-backend/internal/domain"
	"lendhub-backend/internal/service"
)

type AccountHandler struct {
	accounts service.AccountService
}

func NewAccountHandler(accounts service.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

func (h *AccountHandler) Register(router *mux.Router) {
	router.HandleFunc("/create", h.Create).Methods(http.MethodPost)
	router.HandleFunc("", h.ListMine).Methods(http.MethodGet)
	router.HandleFunc("/transfer", h.Transfer).Methods(http.MethodPost)
	router.HandleFunc("/admin/all", h.ListAll).Methods(http.MethodGet)
	router.HandleFunc("/{id}", h.Get).Methods(http.MethodGet)
	router.HandleFunc("/{id}/status", h.SetStatus).Methods(http.MethodPatch)
	router.HandleFunc("/{id}/deposit", h.Deposit).Methods(http.MethodPost)
	router.HandleFunc("/{id}/withdraw", h.Withdraw).Methods(http.MethodPost)
	router.HandleFunc("/{id}/transactions", h.Transactions).Methods(http.MethodGet)
}

type createAccountRequest struct {
	Type           domain.AccountType `json:"type"`
	Currency       string             `json:"currency"`
	InitialDeposit decimal.Decimal    `json:"initialDeposit"`
}

func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, err := mustCaller(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var req createAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	account, err := h.accounts.CreateAccount(r.Context(), caller, service.CreateAccountInput{
		Type:           req.Type,
		Currency:       req.Currency,
		InitialDeposit: req.InitialDeposit,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, account, "Account created successfully")
}

func (h *AccountHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	caller, err := mustCaller(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	accounts, err := h.accounts.ListMyAccounts(r.Context(), caller)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, accounts, "Accounts fetched successfully")
}

func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, err := mustCaller(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	account, recent, err := h.accounts.GetAccount(r.Context(), caller, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"account":            account,
		"recentTransactions": recent,
	}, "Account fetched successfully")
}

type amountRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

func (h *AccountHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.moveFunds(w, r, h.accounts.Deposit, "Deposit successful")
}

func (h *AccountHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.moveFunds(w, r, h.accounts.Withdraw, "Withdrawal successful")
}

func (h *AccountHandler) moveFunds(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, caller *domain.User, accountID string, amount decimal.Decimal, description string) (*domain.Account, *domain.Transaction, error),
	message string,
) {
	caller, err := mustCaller(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var req amountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	account, tx, err := op(r.Context(), caller, mux.Vars(r)["id"], req.Amount, req.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"account":     account,
		"transaction": tx,
	}, message)
}

type transferRequest struct {
	SourceAccountID string          `json:"sourceAccountId"`
	TargetAccountID string          `json:"targetAccountId"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description"`
}

func (h *AccountHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	caller, err := mustCaller(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var req transferRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	record, err := h.accounts.Transfer(r.Context(), caller, service.TransferInput{
		SourceAccountID: req.SourceAccountID,
		TargetAccountID: req.TargetAccountID,
		Amount:          req.Amount,
		Description:     req.Description,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, record, "Transfer successful")
}

func (h *AccountHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	caller, err := mustCaller(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	page, limit := pageParams(r)
	transactions, pagination, err := h.accounts.ListTransactions(r.Context(), caller, mux.Vars(r)["id"], page, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, paginated{Items: transactions, Pagination: pagination}, "Transactions fetched successfully")
}

func (h *AccountHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	caller, err := mustCaller(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	page, limit := pageParams(r)
	accounts, pagination, err := h.accounts.ListAllAccounts(r.Context(), caller, page, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, paginated{Items: accounts, Pagination: pagination}, "Accounts fetched successfully")
}

type setStatusRequest struct {
	IsActive bool `json:"isActive"`
}

func (h *AccountHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	caller, err := mustCaller(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var req setStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	account, err := h.accounts.SetAccountStatus(r.Context(), caller, mux.Vars(r)["id"], req.IsActive)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, account, "Account status updated successfully")
}

func pageParams(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return page, limit
}

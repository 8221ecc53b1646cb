package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"lendhub-backend/internal/domain"
	"lendhub-backend/internal/service"
)

type PaymentHandler struct {
	payments service.PaymentService
}

func NewPaymentHandler(payments service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

func (h *PaymentHandler) Register(router *mux.Router) {
	router.HandleFunc("/create", h.Create).Methods(http.MethodPost)
	router.HandleFunc("", h.ListMine).Methods(http.MethodGet)
	router.HandleFunc("/reminder/create", h.CreateReminder).Methods(http.MethodPost)
	router.HandleFunc("/admin/all", h.ListAll).Methods(http.MethodGet)
	router.HandleFunc("/admin/{id}", h.Delete).Methods(http.MethodDelete)
	router.HandleFunc("/{id}", h.Get).Methods(http.MethodGet)
	router.HandleFunc("/{id}/status", h.UpdateStatus).Methods(http.MethodPatch)
}

type createPaymentRequest struct {
	LoanID        *string              `json:"loanId"`
	Amount        decimal.Decimal      `json:"amount"`
	PaymentMethod domain.PaymentMethod `json:"paymentMethod"`
	Description   string               `json:"description"`
	DueDate       *time.Time           `json:"dueDate"`
}

func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, err := mustCaller(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var req createPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	payment, err := h.payments.CreatePayment(r.Context(), caller, service.CreatePaymentInput{
		LoanID:        req.LoanID,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		Description:   req.Description,
		DueDate:       req.DueDate,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, payment, "Payment created successfully")
}

type createReminderRequest struct {
	LoanID  string          `json:"loanId"`
	Amount  decimal.Decimal `json:"amount"`
	DueDate time.Time       `json:"dueDate"`
}

func (h *PaymentHandler) CreateReminder(w http.ResponseWriter, r *http.Request) {
	caller, err := mustCaller(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var req createReminderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	payment, err := h.payments.CreatePaymentReminder(r.Context(), caller, service.CreateReminderInput{
		LoanID:  req.LoanID,
		Amount:  req.Amount,
		DueDate: req.DueDate,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, payment, "Payment reminder created successfully")
}

func (h *PaymentHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	caller, err := mustCaller(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	q := r.URL.Query()
	var loanID *string
	if id := q.Get("loanId"); id != "" {
		loanID = &id
	}
	payments, err := h.payments.ListMyPayments(r.Context(), caller, loanID, statusParam(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, payments, "Payments fetched successfully")
}

func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, err := mustCaller(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	payment, err := h.payments.GetPayment(r.Context(), caller, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, payment, "Payment fetched successfully")
}

type updatePaymentStatusRequest struct {
	Status domain.PaymentStatus `json:"status"`
}

func (h *PaymentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	caller, err := mustCaller(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var req updatePaymentStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	payment, err := h.payments.UpdatePaymentStatus(r.Context(), caller, mux.Vars(r)["id"], req.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, payment, "Payment status updated successfully")
}

func (h *PaymentHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	caller, err := mustCaller(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	payments, err := h.payments.ListAllPayments(r.Context(), caller, statusParam(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, payments, "Payments fetched successfully")
}

func (h *PaymentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, err := mustCaller(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := h.payments.DeletePayment(r.Context(), caller, mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, nil, "Payment deleted successfully")
}

func statusParam(r *http.Request) *domain.PaymentStatus {
	if s := r.URL.Query().Get("status"); s != "" {
		status := domain.PaymentStatus(s)
		return &status
	}
	return nil
}

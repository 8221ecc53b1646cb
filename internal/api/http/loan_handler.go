package http

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"lendhub-backend/internal/domain"
	"lendhub-backend/internal/service"
)

// maxDocumentUploadBytes caps a single multipart upload request.
const maxDocumentUploadBytes = 20 << 20

type LoanHandler struct {
	applications service.LoanApplicationService
	loans        service.LoanService
}

func NewLoanHandler(applications service.LoanApplicationService, loans service.LoanService) *LoanHandler {
	return &LoanHandler{applications: applications, loans: loans}
}

func (h *LoanHandler) Register(router *mux.Router) {
	router.HandleFunc("/applications/create", h.CreateApplication).Methods(http.MethodPost)
	router.HandleFunc("/applications", h.ListMyApplications).Methods(http.MethodGet)
	router.HandleFunc("/applications/all", h.ListAllApplications).Methods(http.MethodGet)
	router.HandleFunc("/applications/{id}", h.GetApplication).Methods(http.MethodGet)
	router.HandleFunc("/applications/{id}/documents", h.UploadDocuments).Methods(http.MethodPost)
	router.HandleFunc("/applications/{id}/status", h.DecideApplication).Methods(http.MethodPatch)

	router.HandleFunc("/loans", h.ListMyLoans).Methods(http.MethodGet)
	router.HandleFunc("/loans/all", h.ListAllLoans).Methods(http.MethodGet)
	router.HandleFunc("/loans/{id}", h.GetLoan).Methods(http.MethodGet)
	router.HandleFunc("/loans/{id}/payment", h.MakePayment).Methods(http.MethodPost)
	router.HandleFunc("/loans/{id}/status", h.UpdateLoanStatus).Methods(http.MethodPatch)
}

// CreateApplication accepts a multipart form: amount, purpose and term
// fields plus zero or more files under the "documents" field.
func (h *LoanHandler) CreateApplication(w http.ResponseWriter, r *http.Request) {
	caller, err := mustCaller(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := r.ParseMultipartForm(maxDocumentUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "expected multipart form data")
		return
	}

	amount, err := decimal.NewFromString(r.FormValue("amount"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	term, err := strconv.Atoi(r.FormValue("term"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid term")
		return
	}

	app, err := h.applications.CreateApplication(r.Context(), caller, service.CreateApplicationInput{
		Amount:  amount,
		Purpose: r.FormValue("purpose"),
		Term:    term,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	docs, err := h.storeDocuments(r, caller, app.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	app.Documents = docs
	writeSuccess(w, http.StatusCreated, app, "Loan application submitted successfully")
}

func (h *LoanHandler) UploadDocuments(w http.ResponseWriter, r *http.Request) {
	caller, err := mustCaller(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := r.ParseMultipartForm(maxDocumentUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "expected multipart form data")
		return
	}

	docs, err := h.storeDocuments(r, caller, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if len(docs) == 0 {
		writeError(w, http.StatusBadRequest, `no files in "documents" field`)
		return
	}
	writeSuccess(w, http.StatusCreated, docs, "Documents uploaded successfully")
}

func (h *LoanHandler) storeDocuments(r *http.Request, caller *domain.User, applicationID string) ([]domain.Document, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	var docs []domain.Document
	for _, header := range r.MultipartForm.File["documents"] {
		doc, err := h.storeDocument(r, caller, applicationID, header)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, nil
}

func (h *LoanHandler) storeDocument(r *http.Request, caller *domain.User, applicationID string, header *multipart.FileHeader) (*domain.Document, error) {
	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open uploaded file %s: %w", header.Filename, err)
	}
	defer file.Close()
	return h.applications.AttachDocument(r.Context(), caller, applicationID,
		header.Filename, header.Header.Get("Content-Type"), file)
}

func (h *LoanHandler) GetApplication(w http.ResponseWriter, r *http.Request) {
	caller, err := mustCaller(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	app, err := h.applications.GetApplication(r.Context(), caller, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, app, "Loan application fetched successfully")
}

func (h *LoanHandler) ListMyApplications(w http.ResponseWriter, r *http.Request) {
	h.listApplications(w, r, false)
}

func (h *LoanHandler) ListAllApplications(w http.ResponseWriter, r *http.Request) {
	h.listApplications(w, r, true)
}

func (h *LoanHandler) listApplications(w http.ResponseWriter, r *http.Request, all bool) {
	caller, err := mustCaller(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	in := applicationListInput(r)
	var (
		apps       []domain.LoanApplication
		pagination *domain.Pagination
	)
	if all {
		apps, pagination, err = h.applications.ListAllApplications(r.Context(), caller, in)
	} else {
		apps, pagination, err = h.applications.ListMyApplications(r.Context(), caller, in)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, paginated{Items: apps, Pagination: pagination}, "Loan applications fetched successfully")
}

func applicationListInput(r *http.Request) service.ListApplicationsInput {
	q := r.URL.Query()
	page, limit := pageParams(r)
	in := service.ListApplicationsInput{
		Purpose:   q.Get("purpose"),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
		Page:      page,
		Limit:     limit,
	}
	if s := q.Get("status"); s != "" {
		status := domain.ApplicationStatus(s)
		in.Status = &status
	}
	if t := q.Get("term"); t != "" {
		if term, err := strconv.Atoi(t); err == nil {
			in.Term = &term
		}
	}
	return in
}

type decideApplicationRequest struct {
	Status          domain.ApplicationStatus `json:"status"`
	InterestRate    *decimal.Decimal         `json:"interestRate"`
	RejectionReason string                   `json:"rejectionReason"`
}

func (h *LoanHandler) DecideApplication(w http.ResponseWriter, r *http.Request) {
	caller, err := mustCaller(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var req decideApplicationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	app, loan, err := h.applications.DecideApplication(r.Context(), caller, mux.Vars(r)["id"], service.ApplicationDecision{
		Status:          req.Status,
		InterestRate:    req.InterestRate,
		RejectionReason: req.RejectionReason,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"application": app,
		"loan":        loan,
	}, "Application status updated successfully")
}

func (h *LoanHandler) ListMyLoans(w http.ResponseWriter, r *http.Request) {
	h.listLoans(w, r, false)
}

func (h *LoanHandler) ListAllLoans(w http.ResponseWriter, r *http.Request) {
	h.listLoans(w, r, true)
}

func (h *LoanHandler) listLoans(w http.ResponseWriter, r *http.Request, all bool) {
	caller, err := mustCaller(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	q := r.URL.Query()
	page, limit := pageParams(r)
	in := service.ListLoansInput{
		Number:    q.Get("loanNumber"),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
		Page:      page,
		Limit:     limit,
	}
	if s := q.Get("status"); s != "" {
		status := domain.LoanStatus(s)
		in.Status = &status
	}

	var (
		loans      []domain.Loan
		pagination *domain.Pagination
	)
	if all {
		loans, pagination, err = h.loans.ListAllLoans(r.Context(), caller, in)
	} else {
		loans, pagination, err = h.loans.ListMyLoans(r.Context(), caller, in)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, paginated{Items: loans, Pagination: pagination}, "Loans fetched successfully")
}

func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	caller, err := mustCaller(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	loan, err := h.loans.GetLoan(r.Context(), caller, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, loan, "Loan fetched successfully")
}

type makePaymentRequest struct {
	Amount        decimal.Decimal      `json:"amount"`
	PaymentMethod domain.PaymentMethod `json:"paymentMethod"`
	Description   string               `json:"description"`
}

func (h *LoanHandler) MakePayment(w http.ResponseWriter, r *http.Request) {
	caller, err := mustCaller(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var req makePaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	payment, loan, err := h.loans.MakePayment(r.Context(), caller, mux.Vars(r)["id"], service.MakePaymentInput{
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		Description:   req.Description,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"payment": payment,
		"loan":    loan,
	}, "Payment recorded successfully")
}

type updateLoanStatusRequest struct {
	Status domain.LoanStatus `json:"status"`
}

func (h *LoanHandler) UpdateLoanStatus(w http.ResponseWriter, r *http.Request) {
	caller, err := mustCaller(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var req updateLoanStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	loan, err := h.loans.UpdateLoanStatus(r.Context(), caller, mux.Vars(r)["id"], req.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, loan, "Loan status updated successfully")
}

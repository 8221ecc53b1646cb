package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"lendhub-backend/internal/domain"
	"lendhub-backend/internal/service"
)

type CardHandler struct {
	cards service.CardService
}

func NewCardHandler(cards service.CardService) *CardHandler {
	return &CardHandler{cards: cards}
}

func (h *CardHandler) Register(router *mux.Router) {
	router.HandleFunc("/create", h.Create).Methods(http.MethodPost)
	router.HandleFunc("", h.ListMine).Methods(http.MethodGet)
	router.HandleFunc("/admin/all", h.ListAll).Methods(http.MethodGet)
	router.HandleFunc("/{id}", h.Get).Methods(http.MethodGet)
	router.HandleFunc("/{id}/update", h.Update).Methods(http.MethodPut)
	router.HandleFunc("/{id}/toggle-status", h.ToggleStatus).Methods(http.MethodPatch)
	router.HandleFunc("/{id}/delete", h.Delete).Methods(http.MethodDelete)
	router.HandleFunc("/{id}/transactions", h.Transactions).Methods(http.MethodGet)
}

type createCardRequest struct {
	CardNumber     string           `json:"cardNumber"`
	CardholderName string           `json:"cardholderName"`
	ExpiryMonth    int              `json:"expiryMonth"`
	ExpiryYear     int              `json:"expiryYear"`
	Type           domain.CardType  `json:"type"`
	CVV            string           `json:"cvv"`
	Limit          *decimal.Decimal `json:"limit"`
}

func (h *CardHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, err := mustCaller(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var req createCardRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	card, err := h.cards.CreateCard(r.Context(), caller, service.CreateCardInput{
		CardNumber:     req.CardNumber,
		CardholderName: req.CardholderName,
		ExpiryMonth:    req.ExpiryMonth,
		ExpiryYear:     req.ExpiryYear,
		Type:           req.Type,
		CVV:            req.CVV,
		Limit:          req.Limit,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, card, "Card created successfully")
}

func (h *CardHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	caller, err := mustCaller(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	cards, err := h.cards.ListMyCards(r.Context(), caller)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, cards, "Cards fetched successfully")
}

func (h *CardHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, err := mustCaller(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	card, err := h.cards.GetCard(r.Context(), caller, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, card, "Card fetched successfully")
}

type updateCardRequest struct {
	CardholderName *string          `json:"cardholderName"`
	ExpiryMonth    *int             `json:"expiryMonth"`
	ExpiryYear     *int             `json:"expiryYear"`
	Limit          *decimal.Decimal `json:"limit"`
}

func (h *CardHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, err := mustCaller(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var req updateCardRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	card, err := h.cards.UpdateCard(r.Context(), caller, mux.Vars(r)["id"], service.UpdateCardInput{
		CardholderName: req.CardholderName,
		ExpiryMonth:    req.ExpiryMonth,
		ExpiryYear:     req.ExpiryYear,
		Limit:          req.Limit,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, card, "Card updated successfully")
}

func (h *CardHandler) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	caller, err := mustCaller(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	card, err := h.cards.ToggleCardStatus(r.Context(), caller, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, card, "Card status updated successfully")
}

func (h *CardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, err := mustCaller(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := h.cards.DeleteCard(r.Context(), caller, mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, nil, "Card deleted successfully")
}

func (h *CardHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	caller, err := mustCaller(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	transactions, err := h.cards.ListCardTransactions(r.Context(), caller, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, transactions, "Card transactions fetched successfully")
}

func (h *CardHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	caller, err := mustCaller(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	page, limit := pageParams(r)
	cards, pagination, err := h.cards.ListAllCards(r.Context(), caller, page, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, paginated{Items: cards, Pagination: pagination}, "Cards fetched successfully")
}

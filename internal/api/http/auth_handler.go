package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"lendhub-backend/internal/logger"
	"lendhub-backend/internal/security"
	"lendhub-backend/internal/service"
)

type AuthHandler struct {
	users   service.UserService
	webhook *security.WebhookVerifier
}

func NewAuthHandler(users service.UserService, webhook *security.WebhookVerifier) *AuthHandler {
	return &AuthHandler{users: users, webhook: webhook}
}

func (h *AuthHandler) Register(router *mux.Router) {
	router.HandleFunc("/profile", h.Profile).Methods(http.MethodGet)
	router.HandleFunc("/profile/update", h.UpdateProfile).Methods(http.MethodPost)
	router.HandleFunc("/admin/users/{id}", h.GetUser).Methods(http.MethodGet)
}

// identityEvent mirrors the identity provider's webhook envelope.
type identityEvent struct {
	Type string `json:"type"`
	Data struct {
		ID             string `json:"id"`
		FirstName      string `json:"first_name"`
		LastName       string `json:"last_name"`
		EmailAddresses []struct {
			EmailAddress string `json:"email_address"`
		} `json:"email_addresses"`
	} `json:"data"`
}

func (h *AuthHandler) IdentityWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable payload")
		return
	}

	err = h.webhook.Verify(
		r.Header.Get("svix-id"),
		r.Header.Get("svix-timestamp"),
		r.Header.Get("svix-signature"),
		payload,
	)
	if err != nil {
		logger.Warn("rejected identity webhook", "error", err)
		writeError(w, http.StatusUnauthorized, "invalid webhook signature")
		return
	}

	var event identityEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		writeError(w, http.StatusBadRequest, "malformed webhook payload")
		return
	}

	var email string
	if len(event.Data.EmailAddresses) > 0 {
		email = event.Data.EmailAddresses[0].EmailAddress
	}
	user, err := h.users.HandleIdentityEvent(r.Context(), event.Type, service.IdentityUser{
		ExternalID: event.Data.ID,
		Email:      email,
		Name:       strings.TrimSpace(event.Data.FirstName + " " + event.Data.LastName),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if user == nil {
		writeSuccess(w, http.StatusOK, nil, "Event ignored")
		return
	}
	writeSuccess(w, http.StatusOK, user, "User synchronized successfully")
}

func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	caller, err := mustCaller(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	user, err := h.users.GetProfile(r.Context(), caller)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, user, "Profile fetched successfully")
}

type updateProfileRequest struct {
	Name        string `json:"name"`
	CreditScore *int32 `json:"creditScore"`
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	caller, err := mustCaller(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), caller, req.Name, req.CreditScore)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, user, "Profile updated successfully")
}

func (h *AuthHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	caller, err := mustCaller(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	user, err := h.users.GetUserByID(r.Context(), caller, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, user, "User fetched successfully")
}

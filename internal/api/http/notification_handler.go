package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"lendhub-backend/internal/domain"
	"lendhub-backend/internal/service"
)

type NotificationHandler struct {
	notifications service.NotificationService
}

func NewNotificationHandler(notifications service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) Register(router *mux.Router) {
	router.HandleFunc("", h.List).Methods(http.MethodGet)
	router.HandleFunc("", h.Create).Methods(http.MethodPost)
	router.HandleFunc("/unread/count", h.UnreadCount).Methods(http.MethodGet)
	router.HandleFunc("/mark-all-read", h.MarkAllRead).Methods(http.MethodPatch)
	router.HandleFunc("/{id}/read", h.MarkRead).Methods(http.MethodPatch)
	router.HandleFunc("/{id}", h.Delete).Methods(http.MethodDelete)
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, err := mustCaller(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	notifications, err := h.notifications.ListNotifications(r.Context(), caller)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, notifications, "Notifications fetched successfully")
}

type createNotificationRequest struct {
	UserID  string                  `json:"userId"`
	Title   string                  `json:"title"`
	Message string                  `json:"message"`
	Type    domain.NotificationType `json:"type"`
}

func (h *NotificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, err := mustCaller(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var req createNotificationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	note, err := h.notifications.CreateNotification(r.Context(), caller, service.CreateNotificationInput{
		UserID:  req.UserID,
		Title:   req.Title,
		Message: req.Message,
		Type:    req.Type,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, note, "Notification created successfully")
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	caller, err := mustCaller(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	count, err := h.notifications.UnreadCount(r.Context(), caller)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]int64{"count": count}, "Unread count fetched successfully")
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	caller, err := mustCaller(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	note, err := h.notifications.MarkRead(r.Context(), caller, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, note, "Notification marked as read")
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	caller, err := mustCaller(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	updated, err := h.notifications.MarkAllRead(r.Context(), caller)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]int64{"updated": updated}, "All notifications marked as read")
}

func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, err := mustCaller(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := h.notifications.DeleteNotification(r.Context(), caller, mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, nil, "Notification deleted successfully")
}

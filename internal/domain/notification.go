package domain

import "time"

type NotificationType string

const (
	NotificationTypeAccountUpdate   NotificationType = "ACCOUNT_UPDATE"
	NotificationTypeLoanUpdate      NotificationType = "LOAN_APPLICATION_UPDATE"
	NotificationTypePaymentConfirm  NotificationType = "PAYMENT_CONFIRMATION"
	NotificationTypePaymentReminder NotificationType = "PAYMENT_REMINDER"
	NotificationTypeGeneral         NotificationType = "GENERAL"
)

func ValidNotificationType(t NotificationType) bool {
	switch t {
	case NotificationTypeAccountUpdate, NotificationTypeLoanUpdate,
		NotificationTypePaymentConfirm, NotificationTypePaymentReminder,
		NotificationTypeGeneral:
		return true
	}
	return false
}

// Notification rows are pure audit/UX signal. They are recorded best-effort
// after the primary mutation commits and never influence control flow.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	IsRead    bool             `json:"isRead"`
	CreatedAt time.Time        `json:"createdAt"`
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

func ValidPaymentStatus(s PaymentStatus) bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusCancelled:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodBankTransfer   PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCard           PaymentMethod = "CARD"
	PaymentMethodUPI            PaymentMethod = "UPI"
	PaymentMethodAutomaticDebit PaymentMethod = "AUTOMATIC_DEBIT"
)

// Payment is either an immediate loan payment (created COMPLETED with the
// loan's outstanding amount decremented synchronously) or a scheduled/recorded
// payment (created PENDING, applied to the loan only when it completes).
type Payment struct {
	ID            string          `json:"id"`
	UserID        string          `json:"userId"`
	LoanID        *string         `json:"loanId,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	Status        PaymentStatus   `json:"status"`
	Reference     string          `json:"reference"`
	Description   string          `json:"description"`
	DueDate       *time.Time      `json:"dueDate,omitempty"`
	PaymentDate   time.Time       `json:"paymentDate"`
	CreatedAt     time.Time       `json:"createdAt"`

	Loan        *Loan        `json:"loan,omitempty"`
	Transaction *Transaction `json:"transaction,omitempty"`
	Owner       *UserRef     `json:"user,omitempty"`
}

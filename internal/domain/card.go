package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type CardType string

const (
	CardTypeDebit  CardType = "DEBIT"
	CardTypeCredit CardType = "CREDIT"
)

// Card stores the CVV only as a bcrypt hash and never includes it in a
// response payload.
type Card struct {
	ID             string           `json:"id"`
	UserID         string           `json:"userId"`
	CardNumber     string           `json:"cardNumber"`
	CardholderName string           `json:"cardholderName"`
	ExpiryMonth    int              `json:"expiryMonth"`
	ExpiryYear     int              `json:"expiryYear"`
	Type           CardType         `json:"type"`
	Limit          *decimal.Decimal `json:"limit,omitempty"` // CREDIT cards only
	Balance        decimal.Decimal  `json:"balance"`
	CVVHash        string           `json:"-"`
	IsActive       bool             `json:"isActive"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`

	Owner *UserRef `json:"user,omitempty"`
}

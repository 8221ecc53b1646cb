package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountTypeSavings  AccountType = "SAVINGS"
	AccountTypeCurrent  AccountType = "CURRENT"
	AccountTypeSalary   AccountType = "SALARY"
)

// DefaultCurrency is applied when an account is opened without one.
const DefaultCurrency = "INR"

// Account balances are mutated only through deposit, withdraw and transfer,
// each of which appends a Transaction row in the same database transaction.
type Account struct {
	ID            string          `json:"id"`
	UserID        string          `json:"userId"`
	AccountNumber string          `json:"accountNumber"`
	Type          AccountType     `json:"type"`
	Currency      string          `json:"currency"`
	Balance       decimal.Decimal `json:"balance"`
	IsActive      bool            `json:"isActive"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`

	Owner *UserRef `json:"user,omitempty"` // populated on admin listings
}

type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "DEPOSIT"
	TransactionTypeWithdrawal TransactionType = "WITHDRAWAL"
	TransactionTypeTransfer   TransactionType = "TRANSFER"
	TransactionTypePayment    TransactionType = "PAYMENT"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
	TransactionStatusCancelled TransactionStatus = "CANCELLED"
)

// Transaction is an append-only record of a balance-affecting event. The only
// permitted mutation is a status edit cascaded from its owning Payment.
type Transaction struct {
	ID          string            `json:"id"`
	Amount      decimal.Decimal   `json:"amount"`
	Type        TransactionType   `json:"type"`
	Description string            `json:"description"`
	Status      TransactionStatus `json:"status"`
	AccountID   *string           `json:"accountId,omitempty"`
	CardID      *string           `json:"cardId,omitempty"`
	PaymentID   *string           `json:"paymentId,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
}

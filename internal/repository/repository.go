package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"lendhub-backend/internal/domain"
)

type UserRepository interface {
	// UpsertByEmail inserts the user or, when the email already exists,
	// refreshes the display name. Used by the identity webhook.
	UpsertByEmail(ctx context.Context, user *domain.User) error
	GetByExternalID(ctx context.Context, externalID string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

// TransferParams describes a transfer between two accounts.
type TransferParams struct {
	SourceID          string
	TargetID          string
	Amount            decimal.Decimal
	SourceDescription string
	TargetDescription string
}

// TransferRecord is the result of a committed transfer.
type TransferRecord struct {
	Source            *domain.Account
	Target            *domain.Account
	SourceTransaction *domain.Transaction
	TargetTransaction *domain.Transaction
}

type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Account, error)
	ListAll(ctx context.Context, page, limit int) ([]domain.Account, int64, error)
	SetActive(ctx context.Context, id string, isActive bool) (*domain.Account, error)

	// Deposit, Withdraw and Transfer each run the balance change and the
	// transaction-log append inside one database transaction. Withdraw and
	// Transfer use conditional updates (balance >= amount) and return
	// domain.ErrInsufficientFunds when the condition does not hold.
	Deposit(ctx context.Context, accountID string, amount decimal.Decimal, description string) (*domain.Account, *domain.Transaction, error)
	Withdraw(ctx context.Context, accountID string, amount decimal.Decimal, description string) (*domain.Account, *domain.Transaction, error)
	Transfer(ctx context.Context, params TransferParams) (*TransferRecord, error)

	ListTransactions(ctx context.Context, accountID string, page, limit int) ([]domain.Transaction, int64, error)
	RecentTransactions(ctx context.Context, accountID string, n int) ([]domain.Transaction, error)
}

type CardRepository interface {
	Create(ctx context.Context, card *domain.Card) error
	GetByID(ctx context.Context, id string) (*domain.Card, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Card, error)
	ListAll(ctx context.Context, page, limit int) ([]domain.Card, int64, error)
	Update(ctx context.Context, card *domain.Card) error
	SetActive(ctx context.Context, id string, isActive bool) (*domain.Card, error)
	Delete(ctx context.Context, id string) error
	ListTransactions(ctx context.Context, cardID string) ([]domain.Transaction, error)
}

// ApplicationFilter narrows and orders application listings.
type ApplicationFilter struct {
	UserID          *string
	Status          *domain.ApplicationStatus
	PurposeContains string
	Term            *int
	SortBy          string
	SortOrder       string
	Page            int
	Limit           int
	IncludeOwner    bool
}

type LoanApplicationRepository interface {
	Create(ctx context.Context, app *domain.LoanApplication) error
	// GetByID returns the application with its documents attached.
	GetByID(ctx context.Context, id string) (*domain.LoanApplication, error)
	List(ctx context.Context, filter ApplicationFilter) ([]domain.LoanApplication, int64, error)
	Update(ctx context.Context, app *domain.LoanApplication) error
	AddDocument(ctx context.Context, doc *domain.Document) error
}

// LoanFilter narrows and orders loan listings.
type LoanFilter struct {
	UserID          *string
	Status          *domain.LoanStatus
	NumberContains  string
	SortBy          string
	SortOrder       string
	Page            int
	Limit           int
	IncludeOwner    bool
	IncludePayments bool
}

type LoanRepository interface {
	Create(ctx context.Context, loan *domain.Loan) error
	// GetByID populates UserID from the owning application.
	GetByID(ctx context.Context, id string) (*domain.Loan, error)
	List(ctx context.Context, filter LoanFilter) ([]domain.Loan, int64, error)
	// ApplyPayment persists a recomputed outstanding amount and status.
	ApplyPayment(ctx context.Context, id string, outstanding decimal.Decimal, status domain.LoanStatus) (*domain.Loan, error)
	UpdateStatus(ctx context.Context, id string, status domain.LoanStatus) (*domain.Loan, error)
}

// PaymentFilter narrows payment listings.
type PaymentFilter struct {
	UserID *string
	LoanID *string
	Status *domain.PaymentStatus
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	CreateTransaction(ctx context.Context, tx *domain.Transaction) error
	// GetByID returns the payment with its linked transaction attached.
	GetByID(ctx context.Context, id string) (*domain.Payment, error)
	List(ctx context.Context, filter PaymentFilter) ([]domain.Payment, error)
	UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus) (*domain.Payment, error)
	UpdateTransactionStatus(ctx context.Context, paymentID string, status domain.TransactionStatus) error
	// Delete removes the payment and its linked transaction. Any loan
	// balance change a COMPLETED payment already applied is not reversed.
	Delete(ctx context.Context, id string) error
	// ListDue returns PENDING payments with a due date inside [from, to),
	// optionally restricted to one payment method.
	ListDue(ctx context.Context, method *domain.PaymentMethod, from, to time.Time) ([]domain.Payment, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, note *domain.Notification) error
	ListByUser(ctx context.Context, userID string) ([]domain.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, id, userID string) (*domain.Notification, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	Delete(ctx context.Context, id, userID string) error
}

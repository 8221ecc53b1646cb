package service

import (
	"context"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"lendhub-backend/internal/domain"
	"lendhub-backend/internal/repository"
)

// IdentityUser is the user payload carried by identity-provider webhook
// events.
type IdentityUser struct {
	ExternalID string
	Email      string
	Name       string
}

type UserService interface {
	// HandleIdentityEvent upserts the user row for user.created and
	// user.updated events. Other event types are acknowledged and ignored.
	HandleIdentityEvent(ctx context.Context, eventType string, data IdentityUser) (*domain.User, error)
	// ResolveCaller maps a verified session subject to the local user row.
	ResolveCaller(ctx context.Context, externalID string) (*domain.User, error)
	GetProfile(ctx context.Context, caller *domain.User) (*domain.User, error)
	UpdateProfile(ctx context.Context, caller *domain.User, name string, creditScore *int32) (*domain.User, error)
	GetUserByID(ctx context.Context, caller *domain.User, id string) (*domain.User, error)
}

type CreateAccountInput struct {
	Type           domain.AccountType
	Currency       string
	InitialDeposit decimal.Decimal
}

type TransferInput struct {
	SourceAccountID string
	TargetAccountID string
	Amount          decimal.Decimal
	Description     string
}

type AccountService interface {
	CreateAccount(ctx context.Context, caller *domain.User, in CreateAccountInput) (*domain.Account, error)
	ListMyAccounts(ctx context.Context, caller *domain.User) ([]domain.Account, error)
	// GetAccount also returns the account's most recent transactions.
	GetAccount(ctx context.Context, caller *domain.User, id string) (*domain.Account, []domain.Transaction, error)
	Deposit(ctx context.Context, caller *domain.User, accountID string, amount decimal.Decimal, description string) (*domain.Account, *domain.Transaction, error)
	Withdraw(ctx context.Context, caller *domain.User, accountID string, amount decimal.Decimal, description string) (*domain.Account, *domain.Transaction, error)
	Transfer(ctx context.Context, caller *domain.User, in TransferInput) (*repository.TransferRecord, error)
	ListTransactions(ctx context.Context, caller *domain.User, accountID string, page, limit int) ([]domain.Transaction, *domain.Pagination, error)
	ListAllAccounts(ctx context.Context, caller *domain.User, page, limit int) ([]domain.Account, *domain.Pagination, error)
	SetAccountStatus(ctx context.Context, caller *domain.User, accountID string, isActive bool) (*domain.Account, error)
}

type CreateCardInput struct {
	CardNumber     string
	CardholderName string
	ExpiryMonth    int
	ExpiryYear     int
	Type           domain.CardType
	CVV            string
	Limit          *decimal.Decimal
}

type UpdateCardInput struct {
	CardholderName *string
	ExpiryMonth    *int
	ExpiryYear     *int
	Limit          *decimal.Decimal
}

type CardService interface {
	CreateCard(ctx context.Context, caller *domain.User, in CreateCardInput) (*domain.Card, error)
	ListMyCards(ctx context.Context, caller *domain.User) ([]domain.Card, error)
	GetCard(ctx context.Context, caller *domain.User, id string) (*domain.Card, error)
	UpdateCard(ctx context.Context, caller *domain.User, id string, in UpdateCardInput) (*domain.Card, error)
	ToggleCardStatus(ctx context.Context, caller *domain.User, id string) (*domain.Card, error)
	DeleteCard(ctx context.Context, caller *domain.User, id string) error
	ListCardTransactions(ctx context.Context, caller *domain.User, id string) ([]domain.Transaction, error)
	ListAllCards(ctx context.Context, caller *domain.User, page, limit int) ([]domain.Card, *domain.Pagination, error)
}

type CreateApplicationInput struct {
	Amount  decimal.Decimal
	Purpose string
	Term    int
}

type ListApplicationsInput struct {
	Status    *domain.ApplicationStatus
	Purpose   string
	Term      *int
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

// ApplicationDecision is an admin's disposition of a pending application.
type ApplicationDecision struct {
	Status          domain.ApplicationStatus
	InterestRate    *decimal.Decimal
	RejectionReason string
}

type LoanApplicationService interface {
	CreateApplication(ctx context.Context, caller *domain.User, in CreateApplicationInput) (*domain.LoanApplication, error)
	GetApplication(ctx context.Context, caller *domain.User, id string) (*domain.LoanApplication, error)
	ListMyApplications(ctx context.Context, caller *domain.User, in ListApplicationsInput) ([]domain.LoanApplication, *domain.Pagination, error)
	ListAllApplications(ctx context.Context, caller *domain.User, in ListApplicationsInput) ([]domain.LoanApplication, *domain.Pagination, error)
	// DecideApplication approves, rejects or cancels a PENDING application.
	// Approval also creates and returns the resulting loan.
	DecideApplication(ctx context.Context, caller *domain.User, id string, decision ApplicationDecision) (*domain.LoanApplication, *domain.Loan, error)
	AttachDocument(ctx context.Context, caller *domain.User, applicationID, filename, mimeType string, body io.Reader) (*domain.Document, error)
	OpenDocument(ctx context.Context, caller *domain.User, key string) (io.ReadCloser, error)
}

type ListLoansInput struct {
	Status    *domain.LoanStatus
	Number    string
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

type MakePaymentInput struct {
	Amount        decimal.Decimal
	PaymentMethod domain.PaymentMethod
	Description   string
}

type LoanService interface {
	ListMyLoans(ctx context.Context, caller *domain.User, in ListLoansInput) ([]domain.Loan, *domain.Pagination, error)
	ListAllLoans(ctx context.Context, caller *domain.User, in ListLoansInput) ([]domain.Loan, *domain.Pagination, error)
	GetLoan(ctx context.Context, caller *domain.User, id string) (*domain.Loan, error)
	// MakePayment records an immediate COMPLETED payment against an ACTIVE
	// loan and settles it into the outstanding balance.
	MakePayment(ctx context.Context, caller *domain.User, loanID string, in MakePaymentInput) (*domain.Payment, *domain.Loan, error)
	UpdateLoanStatus(ctx context.Context, caller *domain.User, id string, status domain.LoanStatus) (*domain.Loan, error)
}

type CreatePaymentInput struct {
	LoanID        *string
	Amount        decimal.Decimal
	PaymentMethod domain.PaymentMethod
	Description   string
	DueDate       *time.Time
}

type CreateReminderInput struct {
	LoanID  string
	Amount  decimal.Decimal
	DueDate time.Time
}

type PaymentService interface {
	// CreatePayment records a PENDING payment plus its PENDING transaction.
	CreatePayment(ctx context.Context, caller *domain.User, in CreatePaymentInput) (*domain.Payment, error)
	// CreatePaymentReminder schedules an AUTOMATIC_DEBIT payment against a
	// loan and leaves a reminder notification.
	CreatePaymentReminder(ctx context.Context, caller *domain.User, in CreateReminderInput) (*domain.Payment, error)
	GetPayment(ctx context.Context, caller *domain.User, id string) (*domain.Payment, error)
	ListMyPayments(ctx context.Context, caller *domain.User, loanID *string, status *domain.PaymentStatus) ([]domain.Payment, error)
	ListAllPayments(ctx context.Context, caller *domain.User, status *domain.PaymentStatus) ([]domain.Payment, error)
	// UpdatePaymentStatus cascades to the linked transaction and, when the
	// new status is COMPLETED and the payment targets a loan, settles the
	// amount into the loan balance.
	UpdatePaymentStatus(ctx context.Context, caller *domain.User, id string, status domain.PaymentStatus) (*domain.Payment, error)
	DeletePayment(ctx context.Context, caller *domain.User, id string) error

	// Scheduler entry points.
	SettleDueAutomaticDebits(ctx context.Context, now time.Time) (int, error)
	RemindUpcomingPayments(ctx context.Context, now time.Time, leadDays int) (int, error)
}

type CreateNotificationInput struct {
	UserID  string // admin only; empty targets the caller
	Title   string
	Message string
	Type    domain.NotificationType
}

type NotificationService interface {
	ListNotifications(ctx context.Context, caller *domain.User) ([]domain.Notification, error)
	CreateNotification(ctx context.Context, caller *domain.User, in CreateNotificationInput) (*domain.Notification, error)
	UnreadCount(ctx context.Context, caller *domain.User) (int64, error)
	MarkRead(ctx context.Context, caller *domain.User, id string) (*domain.Notification, error)
	MarkAllRead(ctx context.Context, caller *domain.User) (int64, error)
	DeleteNotification(ctx context.Context, caller *domain.User, id string) error
}

type EmailService interface {
	SendLoanDecision(ctx context.Context, email, name, status, detail string) error
	SendPaymentConfirmation(ctx context.Context, email, name, reference, amount string) error
	SendPaymentReminder(ctx context.Context, email, name, amount string, dueDate time.Time) error
}

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"lendhub-backend/internal/domain"
	"lendhub-backend/internal/logger"
	"lendhub-backend/internal/metrics"
	"lendhub-backend/internal/repository"
)

type loanService struct {
	loanRepo    repository.LoanRepository
	paymentRepo repository.PaymentRepository
	userRepo    repository.UserRepository
	noteRepo    repository.NotificationRepository
	emailSvc    EmailService
	collector   *metrics.Collector
}

func NewLoanService(
	loanRepo repository.LoanRepository,
	paymentRepo repository.PaymentRepository,
	userRepo repository.UserRepository,
	noteRepo repository.NotificationRepository,
	emailSvc EmailService,
	collector *metrics.Collector,
) LoanService {
	return &loanService{
		loanRepo:    loanRepo,
		paymentRepo: paymentRepo,
		userRepo:    userRepo,
		noteRepo:    noteRepo,
		emailSvc:    emailSvc,
		collector:   collector,
	}
}

func (s *loanService) ListMyLoans(ctx context.Context, caller *domain.User, in ListLoansInput) ([]domain.Loan, *domain.Pagination, error) {
	return s.list(ctx, repository.LoanFilter{
		UserID:          &caller.ID,
		Status:          in.Status,
		NumberContains:  in.Number,
		SortBy:          in.SortBy,
		SortOrder:       in.SortOrder,
		Page:            in.Page,
		Limit:           in.Limit,
		IncludePayments: true,
	})
}

func (s *loanService) ListAllLoans(ctx context.Context, caller *domain.User, in ListLoansInput) ([]domain.Loan, *domain.Pagination, error) {
	if !caller.IsAdmin() {
		return nil, nil, fmt.Errorf("%w: admin access required", domain.ErrForbidden)
	}
	return s.list(ctx, repository.LoanFilter{
		Status:         in.Status,
		NumberContains: in.Number,
		SortBy:         in.SortBy,
		SortOrder:      in.SortOrder,
		Page:           in.Page,
		Limit:          in.Limit,
		IncludeOwner:   true,
	})
}

func (s *loanService) list(ctx context.Context, filter repository.LoanFilter) ([]domain.Loan, *domain.Pagination, error) {
	filter.Page, filter.Limit = normalizePage(filter.Page, filter.Limit)
	loans, total, err := s.loanRepo.List(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	return loans, domain.NewPagination(total, filter.Page, filter.Limit), nil
}

func (s *loanService) GetLoan(ctx context.Context, caller *domain.User, id string) (*domain.Loan, error) {
	loan, err := s.loanRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if loan.UserID != caller.ID && !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: loan belongs to another user", domain.ErrForbidden)
	}
	return loan, nil
}

func (s *loanService) MakePayment(ctx context.Context, caller *domain.User, loanID string, in MakePaymentInput) (*domain.Payment, *domain.Loan, error) {
	loan, err := s.GetLoan(ctx, caller, loanID)
	if err != nil {
		return nil, nil, err
	}
	if loan.Status != domain.LoanStatusActive {
		return nil, nil, fmt.Errorf("%w: loan %s is %s, only active loans accept payments", domain.ErrValidation, loan.LoanNumber, loan.Status)
	}
	if !in.Amount.IsPositive() {
		return nil, nil, fmt.Errorf("%w: payment amount must be positive", domain.ErrValidation)
	}
	method := in.PaymentMethod
	if method == "" {
		method = domain.PaymentMethodBankTransfer
	}
	description := in.Description
	if description == "" {
		description = fmt.Sprintf("Payment towards loan %s", loan.LoanNumber)
	}

	payment := &domain.Payment{
		UserID:        loan.UserID,
		LoanID:        &loan.ID,
		Amount:        in.Amount,
		PaymentMethod: method,
		Status:        domain.PaymentStatusCompleted,
		Reference:     generatePaymentReference(),
		Description:   description,
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, nil, fmt.Errorf("record payment for loan %s: %w", loanID, err)
	}

	tx := &domain.Transaction{
		Amount:      in.Amount,
		Type:        domain.TransactionTypePayment,
		Description: description,
		Status:      domain.TransactionStatusCompleted,
		PaymentID:   &payment.ID,
	}
	if err := s.paymentRepo.CreateTransaction(ctx, tx); err != nil {
		return nil, nil, fmt.Errorf("record payment transaction: %w", err)
	}
	payment.Transaction = tx

	loan, err = settleLoanPayment(ctx, s.loanRepo, loan, in.Amount, s.collector)
	if err != nil {
		return nil, nil, err
	}
	s.collector.RecordPayment(string(method), string(payment.Status))

	s.notifyPayment(ctx, loan, payment)
	return payment, loan, nil
}

func (s *loanService) UpdateLoanStatus(ctx context.Context, caller *domain.User, id string, status domain.LoanStatus) (*domain.Loan, error) {
	if !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: admin access required", domain.ErrForbidden)
	}
	if !domain.ValidLoanStatus(status) {
		return nil, fmt.Errorf("%w: invalid loan status %q", domain.ErrValidation, status)
	}
	loan, err := s.loanRepo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	_ = s.noteRepo.Create(ctx, &domain.Notification{
		UserID:  loan.UserID,
		Title:   "Loan Status Changed",
		Message: fmt.Sprintf("Your loan %s is now %s", loan.LoanNumber, loan.Status),
		Type:    domain.NotificationTypeLoanUpdate,
	})
	return loan, nil
}

func (s *loanService) notifyPayment(ctx context.Context, loan *domain.Loan, payment *domain.Payment) {
	message := fmt.Sprintf("Payment of %s received for loan %s, outstanding %s",
		payment.Amount.StringFixed(2), loan.LoanNumber, loan.OutstandingAmount.StringFixed(2))
	if loan.Status == domain.LoanStatusPaid {
		message = fmt.Sprintf("Payment of %s received, loan %s is fully paid",
			payment.Amount.StringFixed(2), loan.LoanNumber)
	}
	_ = s.noteRepo.Create(ctx, &domain.Notification{
		UserID:  loan.UserID,
		Title:   "Payment Received",
		Message: message,
		Type:    domain.NotificationTypePaymentConfirm,
	})

	owner, err := s.userRepo.GetByID(ctx, loan.UserID)
	if err != nil {
		return
	}
	if err := s.emailSvc.SendPaymentConfirmation(ctx, owner.Email, owner.Name, payment.Reference, payment.Amount.StringFixed(2)); err != nil {
		logger.Warn("failed to send payment confirmation email", "payment_id", payment.ID, "error", err)
	}
}

// settleLoanPayment applies a completed payment amount against the loan's
// outstanding balance. The balance never goes below zero; reaching zero (or
// overpaying) transitions the loan to PAID. Both loan-mutation paths, direct
// loan payments and standalone payment completion, funnel through here.
func settleLoanPayment(ctx context.Context, loans repository.LoanRepository, loan *domain.Loan, amount decimal.Decimal, collector *metrics.Collector) (*domain.Loan, error) {
	remaining := loan.OutstandingAmount.Sub(amount)
	status := loan.Status
	if remaining.LessThanOrEqual(decimal.Zero) {
		remaining = decimal.Zero
		status = domain.LoanStatusPaid
	}
	updated, err := loans.ApplyPayment(ctx, loan.ID, remaining, status)
	if err != nil {
		return nil, fmt.Errorf("apply payment to loan %s: %w", loan.ID, err)
	}
	if status == domain.LoanStatusPaid && loan.Status != domain.LoanStatusPaid {
		collector.RecordLoanSettled()
	}
	return updated, nil
}

func generateLoanNumber() string {
	return "LOAN-" + strings.ToUpper(uuid.NewString()[:8])
}

func generatePaymentReference() string {
	return "PAY-" + uuid.NewString()[:8]
}

// reminderDueWindow returns the [from, to) day window ending leadDays from
// now, used when selecting payments to remind about.
func reminderDueWindow(now time.Time, leadDays int) (time.Time, time.Time) {
	day := now.Truncate(24 * time.Hour)
	target := day.AddDate(0, 0, leadDays)
	return day, target.AddDate(0, 0, 1)
}

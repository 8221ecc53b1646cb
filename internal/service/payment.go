package service

import (
	"context"
	"fmt"
	"time"

	"lendhub-backend/internal/domain"
	"lendhub-backend/internal/logger"
	"lendhub-backend/internal/metrics"
	"lendhub-backend/internal/repository"
)

type paymentService struct {
	paymentRepo repository.PaymentRepository
	loanRepo    repository.LoanRepository
	userRepo    repository.UserRepository
	noteRepo    repository.NotificationRepository
	emailSvc    EmailService
	collector   *metrics.Collector
}

func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	loanRepo repository.LoanRepository,
	userRepo repository.UserRepository,
	noteRepo repository.NotificationRepository,
	emailSvc EmailService,
	collector *metrics.Collector,
) PaymentService {
	return &paymentService{
		paymentRepo: paymentRepo,
		loanRepo:    loanRepo,
		userRepo:    userRepo,
		noteRepo:    noteRepo,
		emailSvc:    emailSvc,
		collector:   collector,
	}
}

func (s *paymentService) CreatePayment(ctx context.Context, caller *domain.User, in CreatePaymentInput) (*domain.Payment, error) {
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: payment amount must be positive", domain.ErrValidation)
	}
	switch in.PaymentMethod {
	case domain.PaymentMethodBankTransfer, domain.PaymentMethodCard,
		domain.PaymentMethodUPI, domain.PaymentMethodAutomaticDebit:
	default:
		return nil, fmt.Errorf("%w: invalid payment method %q", domain.ErrValidation, in.PaymentMethod)
	}
	if in.LoanID != nil {
		if _, err := s.ownedActiveLoan(ctx, caller, *in.LoanID); err != nil {
			return nil, err
		}
	}

	payment := &domain.Payment{
		UserID:        caller.ID,
		LoanID:        in.LoanID,
		Amount:        in.Amount,
		PaymentMethod: in.PaymentMethod,
		Status:        domain.PaymentStatusPending,
		Reference:     generatePaymentReference(),
		Description:   in.Description,
		DueDate:       in.DueDate,
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	tx := &domain.Transaction{
		Amount:      in.Amount,
		Type:        domain.TransactionTypePayment,
		Description: in.Description,
		Status:      domain.TransactionStatusPending,
		PaymentID:   &payment.ID,
	}
	if err := s.paymentRepo.CreateTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("create payment transaction: %w", err)
	}
	payment.Transaction = tx

	s.collector.RecordPayment(string(payment.PaymentMethod), string(payment.Status))
	return payment, nil
}

func (s *paymentService) CreatePaymentReminder(ctx context.Context, caller *domain.User, in CreateReminderInput) (*domain.Payment, error) {
	if in.LoanID == "" {
		return nil, fmt.Errorf("%w: reminder requires a loan", domain.ErrValidation)
	}
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: reminder amount must be positive", domain.ErrValidation)
	}
	if in.DueDate.Before(time.Now()) {
		return nil, fmt.Errorf("%w: due date must be in the future", domain.ErrValidation)
	}
	loan, err := s.ownedActiveLoan(ctx, caller, in.LoanID)
	if err != nil {
		return nil, err
	}

	payment := &domain.Payment{
		UserID:        caller.ID,
		LoanID:        &loan.ID,
		Amount:        in.Amount,
		PaymentMethod: domain.PaymentMethodAutomaticDebit,
		Status:        domain.PaymentStatusPending,
		Reference:     generatePaymentReference(),
		Description:   fmt.Sprintf("Scheduled payment for loan %s", loan.LoanNumber),
		DueDate:       &in.DueDate,
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("create payment reminder: %w", err)
	}

	_ = s.noteRepo.Create(ctx, &domain.Notification{
		UserID:  caller.ID,
		Title:   "Payment Reminder Set",
		Message: fmt.Sprintf("%s will be debited for loan %s on %s", in.Amount.StringFixed(2), loan.LoanNumber, in.DueDate.Format("2006-01-02")),
		Type:    domain.NotificationTypePaymentReminder,
	})
	return payment, nil
}

func (s *paymentService) GetPayment(ctx context.Context, caller *domain.User, id string) (*domain.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if payment.UserID != caller.ID && !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: payment belongs to another user", domain.ErrForbidden)
	}
	return payment, nil
}

func (s *paymentService) ListMyPayments(ctx context.Context, caller *domain.User, loanID *string, status *domain.PaymentStatus) ([]domain.Payment, error) {
	if status != nil && !domain.ValidPaymentStatus(*status) {
		return nil, fmt.Errorf("%w: invalid payment status %q", domain.ErrValidation, *status)
	}
	return s.paymentRepo.List(ctx, repository.PaymentFilter{
		UserID: &caller.ID,
		LoanID: loanID,
		Status: status,
	})
}

func (s *paymentService) ListAllPayments(ctx context.Context, caller *domain.User, status *domain.PaymentStatus) ([]domain.Payment, error) {
	if !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: admin access required", domain.ErrForbidden)
	}
	if status != nil && !domain.ValidPaymentStatus(*status) {
		return nil, fmt.Errorf("%w: invalid payment status %q", domain.ErrValidation, *status)
	}
	return s.paymentRepo.List(ctx, repository.PaymentFilter{Status: status})
}

func (s *paymentService) UpdatePaymentStatus(ctx context.Context, caller *domain.User, id string, status domain.PaymentStatus) (*domain.Payment, error) {
	if !domain.ValidPaymentStatus(status) {
		return nil, fmt.Errorf("%w: invalid payment status %q", domain.ErrValidation, status)
	}
	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// Status changes are owner-only; admins read payments but do not move
	// them on a user's behalf.
	if payment.UserID != caller.ID {
		return nil, fmt.Errorf("%w: payment belongs to another user", domain.ErrForbidden)
	}
	if payment.Status == status {
		return payment, nil
	}
	alreadyCompleted := payment.Status == domain.PaymentStatusCompleted

	payment, err = s.paymentRepo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	if err := s.paymentRepo.UpdateTransactionStatus(ctx, id, transactionStatusFor(status)); err != nil {
		return nil, fmt.Errorf("cascade status to transaction: %w", err)
	}

	// A payment settles its loan exactly once, on the transition into
	// COMPLETED.
	if status == domain.PaymentStatusCompleted && !alreadyCompleted && payment.LoanID != nil {
		loan, err := s.loanRepo.GetByID(ctx, *payment.LoanID)
		if err != nil {
			return nil, err
		}
		loan, err = settleLoanPayment(ctx, s.loanRepo, loan, payment.Amount, s.collector)
		if err != nil {
			return nil, err
		}
		s.notifyCompleted(ctx, payment, loan)
	}

	s.collector.RecordPayment(string(payment.PaymentMethod), string(status))
	return payment, nil
}

func (s *paymentService) DeletePayment(ctx context.Context, caller *domain.User, id string) error {
	if !caller.IsAdmin() {
		return fmt.Errorf("%w: admin access required", domain.ErrForbidden)
	}
	// Deletion is bookkeeping removal only. A loan balance already reduced
	// by this payment stays reduced.
	return s.paymentRepo.Delete(ctx, id)
}

func (s *paymentService) SettleDueAutomaticDebits(ctx context.Context, now time.Time) (int, error) {
	method := domain.PaymentMethodAutomaticDebit
	due, err := s.paymentRepo.ListDue(ctx, &method, time.Time{}, now)
	if err != nil {
		return 0, fmt.Errorf("list due automatic debits: %w", err)
	}

	settled := 0
	for i := range due {
		payment := &due[i]
		owner, err := s.userRepo.GetByID(ctx, payment.UserID)
		if err != nil {
			logger.Error("skipping automatic debit, owner lookup failed", "payment_id", payment.ID, "error", err)
			continue
		}
		if _, err := s.UpdatePaymentStatus(ctx, owner, payment.ID, domain.PaymentStatusCompleted); err != nil {
			logger.Error("automatic debit settlement failed", "payment_id", payment.ID, "error", err)
			continue
		}
		settled++
	}
	return settled, nil
}

func (s *paymentService) RemindUpcomingPayments(ctx context.Context, now time.Time, leadDays int) (int, error) {
	from, to := reminderDueWindow(now, leadDays)
	upcoming, err := s.paymentRepo.ListDue(ctx, nil, from, to)
	if err != nil {
		return 0, fmt.Errorf("list upcoming payments: %w", err)
	}

	reminded := 0
	for i := range upcoming {
		payment := &upcoming[i]
		_ = s.noteRepo.Create(ctx, &domain.Notification{
			UserID:  payment.UserID,
			Title:   "Payment Due Soon",
			Message: fmt.Sprintf("Payment %s of %s is due on %s", payment.Reference, payment.Amount.StringFixed(2), payment.DueDate.Format("2006-01-02")),
			Type:    domain.NotificationTypePaymentReminder,
		})
		owner, err := s.userRepo.GetByID(ctx, payment.UserID)
		if err == nil {
			if err := s.emailSvc.SendPaymentReminder(ctx, owner.Email, owner.Name, payment.Amount.StringFixed(2), *payment.DueDate); err != nil {
				logger.Warn("failed to send payment reminder email", "payment_id", payment.ID, "error", err)
			}
		}
		reminded++
	}
	return reminded, nil
}

func (s *paymentService) ownedActiveLoan(ctx context.Context, caller *domain.User, loanID string) (*domain.Loan, error) {
	loan, err := s.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.UserID != caller.ID && !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: loan belongs to another user", domain.ErrForbidden)
	}
	if loan.Status != domain.LoanStatusActive {
		return nil, fmt.Errorf("%w: loan %s is %s, only active loans accept payments", domain.ErrValidation, loan.LoanNumber, loan.Status)
	}
	return loan, nil
}

func (s *paymentService) notifyCompleted(ctx context.Context, payment *domain.Payment, loan *domain.Loan) {
	_ = s.noteRepo.Create(ctx, &domain.Notification{
		UserID:  payment.UserID,
		Title:   "Payment Completed",
		Message: fmt.Sprintf("Payment %s of %s applied to loan %s, outstanding %s", payment.Reference, payment.Amount.StringFixed(2), loan.LoanNumber, loan.OutstandingAmount.StringFixed(2)),
		Type:    domain.NotificationTypePaymentConfirm,
	})

	owner, err := s.userRepo.GetByID(ctx, payment.UserID)
	if err != nil {
		return
	}
	if err := s.emailSvc.SendPaymentConfirmation(ctx, owner.Email, owner.Name, payment.Reference, payment.Amount.StringFixed(2)); err != nil {
		logger.Warn("failed to send payment confirmation email", "payment_id", payment.ID, "error", err)
	}
}

// transactionStatusFor maps a payment status onto its transaction's status.
// The three terminal states carry over verbatim; anything else resets the
// transaction to PENDING.
func transactionStatusFor(status domain.PaymentStatus) domain.TransactionStatus {
	switch status {
	case domain.PaymentStatusCompleted:
		return domain.TransactionStatusCompleted
	case domain.PaymentStatusFailed:
		return domain.TransactionStatusFailed
	case domain.PaymentStatusCancelled:
		return domain.TransactionStatusCancelled
	default:
		return domain.TransactionStatusPending
	}
}

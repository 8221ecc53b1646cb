package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"lendhub-backend/internal/domain"
	"lendhub-backend/internal/logger"
	"lendhub-backend/internal/repository"
	"lendhub-backend/internal/storage"
)

type loanApplicationService struct {
	appRepo  repository.LoanApplicationRepository
	loanRepo repository.LoanRepository
	userRepo repository.UserRepository
	noteRepo repository.NotificationRepository
	docs     storage.DocumentStorage
	emailSvc EmailService
}

func NewLoanApplicationService(
	appRepo repository.LoanApplicationRepository,
	loanRepo repository.LoanRepository,
	userRepo repository.UserRepository,
	noteRepo repository.NotificationRepository,
	docs storage.DocumentStorage,
	emailSvc EmailService,
) LoanApplicationService {
	return &loanApplicationService{
		appRepo:  appRepo,
		loanRepo: loanRepo,
		userRepo: userRepo,
		noteRepo: noteRepo,
		docs:     docs,
		emailSvc: emailSvc,
	}
}

func (s *loanApplicationService) CreateApplication(ctx context.Context, caller *domain.User, in CreateApplicationInput) (*domain.LoanApplication, error) {
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: loan amount must be positive", domain.ErrValidation)
	}
	if in.Term < 1 || in.Term > 360 {
		return nil, fmt.Errorf("%w: term must be between 1 and 360 months", domain.ErrValidation)
	}
	if in.Purpose == "" {
		return nil, fmt.Errorf("%w: purpose is required", domain.ErrValidation)
	}

	app := &domain.LoanApplication{
		UserID:  caller.ID,
		Amount:  in.Amount,
		Purpose: in.Purpose,
		Term:    in.Term,
		Status:  domain.ApplicationStatusPending,
	}
	if err := s.appRepo.Create(ctx, app); err != nil {
		return nil, fmt.Errorf("create loan application: %w", err)
	}

	s.notify(ctx, caller.ID, "Loan Application Submitted",
		fmt.Sprintf("Your application for %s over %d months is being reviewed", app.Amount.StringFixed(2), app.Term))
	return app, nil
}

func (s *loanApplicationService) GetApplication(ctx context.Context, caller *domain.User, id string) (*domain.LoanApplication, error) {
	app, err := s.appRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.UserID != caller.ID && !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: application belongs to another user", domain.ErrForbidden)
	}
	return app, nil
}

func (s *loanApplicationService) ListMyApplications(ctx context.Context, caller *domain.User, in ListApplicationsInput) ([]domain.LoanApplication, *domain.Pagination, error) {
	return s.list(ctx, repository.ApplicationFilter{
		UserID:          &caller.ID,
		Status:          in.Status,
		PurposeContains: in.Purpose,
		Term:            in.Term,
		SortBy:          in.SortBy,
		SortOrder:       in.SortOrder,
		Page:            in.Page,
		Limit:           in.Limit,
	})
}

func (s *loanApplicationService) ListAllApplications(ctx context.Context, caller *domain.User, in ListApplicationsInput) ([]domain.LoanApplication, *domain.Pagination, error) {
	if !caller.IsAdmin() {
		return nil, nil, fmt.Errorf("%w: admin access required", domain.ErrForbidden)
	}
	return s.list(ctx, repository.ApplicationFilter{
		Status:          in.Status,
		PurposeContains: in.Purpose,
		Term:            in.Term,
		SortBy:          in.SortBy,
		SortOrder:       in.SortOrder,
		Page:            in.Page,
		Limit:           in.Limit,
		IncludeOwner:    true,
	})
}

func (s *loanApplicationService) list(ctx context.Context, filter repository.ApplicationFilter) ([]domain.LoanApplication, *domain.Pagination, error) {
	filter.Page, filter.Limit = normalizePage(filter.Page, filter.Limit)
	apps, total, err := s.appRepo.List(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	return apps, domain.NewPagination(total, filter.Page, filter.Limit), nil
}

func (s *loanApplicationService) DecideApplication(ctx context.Context, caller *domain.User, id string, decision ApplicationDecision) (*domain.LoanApplication, *domain.Loan, error) {
	if !caller.IsAdmin() {
		return nil, nil, fmt.Errorf("%w: admin access required", domain.ErrForbidden)
	}

	app, err := s.appRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if app.Status != domain.ApplicationStatusPending {
		return nil, nil, fmt.Errorf("%w: application is already %s", domain.ErrValidation, app.Status)
	}

	now := time.Now()
	var loan *domain.Loan
	switch decision.Status {
	case domain.ApplicationStatusApproved:
		if decision.InterestRate == nil || !decision.InterestRate.IsPositive() {
			return nil, nil, fmt.Errorf("%w: approval requires a positive interest rate", domain.ErrValidation)
		}
		app.Status = domain.ApplicationStatusApproved
		app.InterestRate = decision.InterestRate
		app.ApprovedAt = &now

		loan = &domain.Loan{
			ApplicationID:     app.ID,
			UserID:            app.UserID,
			LoanNumber:        generateLoanNumber(),
			Principal:         app.Amount,
			DisbursedAmount:   app.Amount,
			OutstandingAmount: app.Amount,
			InterestRate:      *decision.InterestRate,
			Term:              app.Term,
			StartDate:         now,
			EndDate:           now.AddDate(0, app.Term, 0),
			Status:            domain.LoanStatusActive,
		}

	case domain.ApplicationStatusRejected:
		if decision.RejectionReason == "" {
			return nil, nil, fmt.Errorf("%w: rejection requires a reason", domain.ErrValidation)
		}
		app.Status = domain.ApplicationStatusRejected
		app.RejectionReason = &decision.RejectionReason
		app.RejectedAt = &now

	case domain.ApplicationStatusCancelled:
		app.Status = domain.ApplicationStatusCancelled

	default:
		return nil, nil, fmt.Errorf("%w: invalid decision %q", domain.ErrValidation, decision.Status)
	}

	if err := s.appRepo.Update(ctx, app); err != nil {
		return nil, nil, fmt.Errorf("update application %s: %w", id, err)
	}
	if loan != nil {
		if err := s.loanRepo.Create(ctx, loan); err != nil {
			return nil, nil, fmt.Errorf("create loan for application %s: %w", id, err)
		}
	}

	// Cancellation is a bare status flip; only approvals and rejections
	// notify the applicant.
	if app.Status != domain.ApplicationStatusCancelled {
		s.notifyDecision(ctx, app, loan)
	}
	return app, loan, nil
}

func (s *loanApplicationService) AttachDocument(ctx context.Context, caller *domain.User, applicationID, filename, mimeType string, body io.Reader) (*domain.Document, error) {
	app, err := s.GetApplication(ctx, caller, applicationID)
	if err != nil {
		return nil, err
	}
	if filename == "" {
		return nil, fmt.Errorf("%w: document filename is required", domain.ErrValidation)
	}

	key := path.Join("applications", app.ID, uuid.NewString()+"-"+path.Base(filename))
	url, err := s.docs.Save(ctx, key, mimeType, body)
	if err != nil {
		return nil, fmt.Errorf("store document %s: %w", filename, err)
	}

	doc := &domain.Document{
		ApplicationID: app.ID,
		Name:          filename,
		FileURL:       url,
		MimeType:      mimeType,
	}
	if err := s.appRepo.AddDocument(ctx, doc); err != nil {
		_ = s.docs.Delete(ctx, key)
		return nil, fmt.Errorf("record document %s: %w", filename, err)
	}
	return doc, nil
}

// OpenDocument resolves the owning application from the storage key and
// enforces owner-or-admin access before streaming the blob.
func (s *loanApplicationService) OpenDocument(ctx context.Context, caller *domain.User, key string) (io.ReadCloser, error) {
	parts := strings.SplitN(key, "/", 3)
	if len(parts) != 3 || parts[0] != "applications" {
		return nil, fmt.Errorf("%w: document %s", domain.ErrNotFound, key)
	}
	if _, err := s.GetApplication(ctx, caller, parts[1]); err != nil {
		return nil, err
	}

	exists, _, err := s.docs.Exists(ctx, key)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: document %s", domain.ErrNotFound, key)
	}
	return s.docs.Open(ctx, key)
}

// notifyDecision records the decision notification and sends the decision
// email. Both are best-effort.
func (s *loanApplicationService) notifyDecision(ctx context.Context, app *domain.LoanApplication, loan *domain.Loan) {
	var title, message, detail string
	switch app.Status {
	case domain.ApplicationStatusApproved:
		title = "Loan Application Approved"
		message = fmt.Sprintf("Your loan %s for %s has been disbursed", loan.LoanNumber, loan.Principal.StringFixed(2))
		detail = loan.LoanNumber
	case domain.ApplicationStatusRejected:
		title = "Loan Application Rejected"
		message = fmt.Sprintf("Your application was rejected: %s", *app.RejectionReason)
		detail = *app.RejectionReason
	}
	s.notify(ctx, app.UserID, title, message)

	owner, err := s.userRepo.GetByID(ctx, app.UserID)
	if err != nil {
		return
	}
	if err := s.emailSvc.SendLoanDecision(ctx, owner.Email, owner.Name, string(app.Status), detail); err != nil {
		logger.Warn("failed to send loan decision email", "application_id", app.ID, "error", err)
	}
}

func (s *loanApplicationService) notify(ctx context.Context, userID, title, message string) {
	_ = s.noteRepo.Create(ctx, &domain.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    domain.NotificationTypeLoanUpdate,
	})
}

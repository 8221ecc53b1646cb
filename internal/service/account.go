package service

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/shopspring/decimal"

	"lendhub-backend/internal/domain"
	"lendhub-backend/internal/repository"
)

const recentTransactionCount = 10

type accountService struct {
	accountRepo repository.AccountRepository
	noteRepo    repository.NotificationRepository
}

func NewAccountService(
	accountRepo repository.AccountRepository,
	noteRepo repository.NotificationRepository,
) AccountService {
	return &accountService{
		accountRepo: accountRepo,
		noteRepo:    noteRepo,
	}
}

func (s *accountService) CreateAccount(ctx context.Context, caller *domain.User, in CreateAccountInput) (*domain.Account, error) {
	switch in.Type {
	case domain.AccountTypeSavings, domain.AccountTypeCurrent, domain.AccountTypeSalary:
	default:
		return nil, fmt.Errorf("%w: invalid account type %q", domain.ErrValidation, in.Type)
	}
	if in.InitialDeposit.IsNegative() {
		return nil, fmt.Errorf("%w: initial deposit cannot be negative", domain.ErrValidation)
	}
	currency := in.Currency
	if currency == "" {
		currency = domain.DefaultCurrency
	}

	account := &domain.Account{
		UserID:        caller.ID,
		AccountNumber: generateAccountNumber(),
		Type:          in.Type,
		Currency:      currency,
		Balance:       in.InitialDeposit,
		IsActive:      true,
	}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.notify(ctx, caller.ID, "Account Created",
		fmt.Sprintf("Your %s account %s has been opened", account.Type, account.AccountNumber))
	return account, nil
}

func (s *accountService) ListMyAccounts(ctx context.Context, caller *domain.User) ([]domain.Account, error) {
	return s.accountRepo.ListByUser(ctx, caller.ID)
}

func (s *accountService) GetAccount(ctx context.Context, caller *domain.User, id string) (*domain.Account, []domain.Transaction, error) {
	account, err := s.ownedAccount(ctx, caller, id)
	if err != nil {
		return nil, nil, err
	}
	recent, err := s.accountRepo.RecentTransactions(ctx, id, recentTransactionCount)
	if err != nil {
		return nil, nil, err
	}
	return account, recent, nil
}

func (s *accountService) Deposit(ctx context.Context, caller *domain.User, accountID string, amount decimal.Decimal, description string) (*domain.Account, *domain.Transaction, error) {
	account, err := s.ownedAccount(ctx, caller, accountID)
	if err != nil {
		return nil, nil, err
	}
	if err := requireActiveAccount(account); err != nil {
		return nil, nil, err
	}
	if !amount.IsPositive() {
		return nil, nil, fmt.Errorf("%w: deposit amount must be positive", domain.ErrValidation)
	}
	if description == "" {
		description = "Deposit"
	}

	account, tx, err := s.accountRepo.Deposit(ctx, accountID, amount, description)
	if err != nil {
		return nil, nil, fmt.Errorf("deposit to account %s: %w", accountID, err)
	}

	s.notify(ctx, caller.ID, "Deposit Successful",
		fmt.Sprintf("%s %s deposited to account %s", amount.StringFixed(2), account.Currency, account.AccountNumber))
	return account, tx, nil
}

func (s *accountService) Withdraw(ctx context.Context, caller *domain.User, accountID string, amount decimal.Decimal, description string) (*domain.Account, *domain.Transaction, error) {
	account, err := s.ownedAccount(ctx, caller, accountID)
	if err != nil {
		return nil, nil, err
	}
	if err := requireActiveAccount(account); err != nil {
		return nil, nil, err
	}
	if !amount.IsPositive() {
		return nil, nil, fmt.Errorf("%w: withdrawal amount must be positive", domain.ErrValidation)
	}
	if description == "" {
		description = "Withdrawal"
	}

	account, tx, err := s.accountRepo.Withdraw(ctx, accountID, amount, description)
	if err != nil {
		return nil, nil, err
	}

	s.notify(ctx, caller.ID, "Withdrawal Successful",
		fmt.Sprintf("%s %s withdrawn from account %s", amount.StringFixed(2), account.Currency, account.AccountNumber))
	return account, tx, nil
}

func (s *accountService) Transfer(ctx context.Context, caller *domain.User, in TransferInput) (*repository.TransferRecord, error) {
	if in.SourceAccountID == in.TargetAccountID {
		return nil, fmt.Errorf("%w: cannot transfer to the same account", domain.ErrValidation)
	}
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: transfer amount must be positive", domain.ErrValidation)
	}

	source, err := s.ownedAccount(ctx, caller, in.SourceAccountID)
	if err != nil {
		return nil, err
	}
	if err := requireActiveAccount(source); err != nil {
		return nil, err
	}
	target, err := s.accountRepo.GetByID(ctx, in.TargetAccountID)
	if err != nil {
		return nil, err
	}
	if err := requireActiveAccount(target); err != nil {
		return nil, err
	}

	description := in.Description
	if description == "" {
		description = "Transfer"
	}
	record, err := s.accountRepo.Transfer(ctx, repository.TransferParams{
		SourceID:          in.SourceAccountID,
		TargetID:          in.TargetAccountID,
		Amount:            in.Amount,
		SourceDescription: fmt.Sprintf("%s to %s", description, target.AccountNumber),
		TargetDescription: fmt.Sprintf("%s from %s", description, source.AccountNumber),
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, caller.ID, "Transfer Successful",
		fmt.Sprintf("%s %s transferred from %s to %s",
			in.Amount.StringFixed(2), source.Currency, source.AccountNumber, target.AccountNumber))
	return record, nil
}

func (s *accountService) ListTransactions(ctx context.Context, caller *domain.User, accountID string, page, limit int) ([]domain.Transaction, *domain.Pagination, error) {
	if _, err := s.ownedAccount(ctx, caller, accountID); err != nil {
		return nil, nil, err
	}
	page, limit = normalizePage(page, limit)
	transactions, total, err := s.accountRepo.ListTransactions(ctx, accountID, page, limit)
	if err != nil {
		return nil, nil, err
	}
	return transactions, domain.NewPagination(total, page, limit), nil
}

func (s *accountService) ListAllAccounts(ctx context.Context, caller *domain.User, page, limit int) ([]domain.Account, *domain.Pagination, error) {
	if !caller.IsAdmin() {
		return nil, nil, fmt.Errorf("%w: admin access required", domain.ErrForbidden)
	}
	page, limit = normalizePage(page, limit)
	accounts, total, err := s.accountRepo.ListAll(ctx, page, limit)
	if err != nil {
		return nil, nil, err
	}
	return accounts, domain.NewPagination(total, page, limit), nil
}

func (s *accountService) SetAccountStatus(ctx context.Context, caller *domain.User, accountID string, isActive bool) (*domain.Account, error) {
	if _, err := s.ownedAccount(ctx, caller, accountID); err != nil {
		return nil, err
	}
	account, err := s.accountRepo.SetActive(ctx, accountID, isActive)
	if err != nil {
		return nil, err
	}

	status := "deactivated"
	if isActive {
		status = "activated"
	}
	s.notify(ctx, account.UserID, "Account Status Changed",
		fmt.Sprintf("Your account %s has been %s", account.AccountNumber, status))
	return account, nil
}

// ownedAccount loads the account and enforces owner-or-admin access.
func (s *accountService) ownedAccount(ctx context.Context, caller *domain.User, id string) (*domain.Account, error) {
	account, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if account.UserID != caller.ID && !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: account belongs to another user", domain.ErrForbidden)
	}
	return account, nil
}

func (s *accountService) notify(ctx context.Context, userID, title, message string) {
	_ = s.noteRepo.Create(ctx, &domain.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    domain.NotificationTypeAccountUpdate,
	})
}

func requireActiveAccount(account *domain.Account) error {
	if !account.IsActive {
		return fmt.Errorf("%w: account %s is inactive", domain.ErrValidation, account.AccountNumber)
	}
	return nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return page, limit
}

func generateAccountNumber() string {
	digits := make([]byte, 12)
	for i := range digits {
		digits[i] = byte('0' + rand.Intn(10))
	}
	return "ACC" + string(digits)
}

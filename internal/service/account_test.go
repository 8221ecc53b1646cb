package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"lendhub-backend/internal/domain"
	"lendhub-backend/internal/repository"
	"lendhub-backend/internal/service"
)

func activeAccount(id, userID string, balance int64) *domain.Account {
	return &domain.Account{
		ID:            id,
		UserID:        userID,
		AccountNumber: "ACC" + strings.Repeat("1", 12),
		Type:          domain.AccountTypeSavings,
		Currency:      domain.DefaultCurrency,
		Balance:       decimal.NewFromInt(balance),
		IsActive:      true,
	}
}

func TestAccountService_CreateAccount(t *testing.T) {
	ctx := context.Background()
	caller := &domain.User{ID: "user-1", Role: domain.RoleUser}

	t.Run("Success", func(t *testing.T) {
		mockAccountRepo := new(MockAccountRepo)
		mockNoteRepo := new(MockNotificationRepo)
		svc := service.NewAccountService(mockAccountRepo, mockNoteRepo)

		mockAccountRepo.On("Create", ctx, mock.MatchedBy(func(a *domain.Account) bool {
			return a.UserID == "user-1" && a.IsActive &&
				a.Currency == domain.DefaultCurrency &&
				strings.HasPrefix(a.AccountNumber, "ACC") &&
				a.Balance.Equal(decimal.NewFromInt(500))
		})).Return(nil).Once()
		mockNoteRepo.On("Create", ctx, mock.MatchedBy(func(n *domain.Notification) bool {
			return n.Type == domain.NotificationTypeAccountUpdate
		})).Return(nil).Once()

		account, err := svc.CreateAccount(ctx, caller, service.CreateAccountInput{
			Type:           domain.AccountTypeSavings,
			InitialDeposit: decimal.NewFromInt(500),
		})
		assert.NoError(t, err)
		assert.True(t, account.IsActive)
		mockAccountRepo.AssertExpectations(t)
	})

	t.Run("InvalidType", func(t *testing.T) {
		svc := service.NewAccountService(nil, nil)

		_, err := svc.CreateAccount(ctx, caller, service.CreateAccountInput{
			Type: domain.AccountType("CHECKING"),
		})
		assert.True(t, errors.Is(err, domain.ErrValidation))
	})

	t.Run("NegativeInitialDeposit", func(t *testing.T) {
		svc := service.NewAccountService(nil, nil)

		_, err := svc.CreateAccount(ctx, caller, service.CreateAccountInput{
			Type:           domain.AccountTypeCurrent,
			InitialDeposit: decimal.NewFromInt(-1),
		})
		assert.True(t, errors.Is(err, domain.ErrValidation))
	})
}

func TestAccountService_Deposit(t *testing.T) {
	ctx := context.Background()
	caller := &domain.User{ID: "user-1", Role: domain.RoleUser}
	amount := decimal.NewFromInt(100)

	t.Run("Success", func(t *testing.T) {
		mockAccountRepo := new(MockAccountRepo)
		mockNoteRepo := new(MockNotificationRepo)
		svc := service.NewAccountService(mockAccountRepo, mockNoteRepo)

		tx := &domain.Transaction{ID: "tx-1", Type: domain.TransactionTypeDeposit}
		mockAccountRepo.On("GetByID", ctx, "acc-1").Return(activeAccount("acc-1", "user-1", 500), nil).Once()
		mockAccountRepo.On("Deposit", ctx, "acc-1", amount, "Deposit").Return(activeAccount("acc-1", "user-1", 600), tx, nil).Once()
		mockNoteRepo.On("Create", ctx, mock.Anything).Return(nil).Once()

		account, record, err := svc.Deposit(ctx, caller, "acc-1", amount, "")
		assert.NoError(t, err)
		assert.True(t, account.Balance.Equal(decimal.NewFromInt(600)))
		assert.Equal(t, "tx-1", record.ID)
		mockAccountRepo.AssertExpectations(t)
	})

	t.Run("InactiveAccount", func(t *testing.T) {
		mockAccountRepo := new(MockAccountRepo)
		svc := service.NewAccountService(mockAccountRepo, nil)

		frozen := activeAccount("acc-1", "user-1", 500)
		frozen.IsActive = false
		mockAccountRepo.On("GetByID", ctx, "acc-1").Return(frozen, nil).Once()

		_, _, err := svc.Deposit(ctx, caller, "acc-1", amount, "")
		assert.True(t, errors.Is(err, domain.ErrValidation))
	})

	t.Run("ForbidsOtherUsersAccount", func(t *testing.T) {
		mockAccountRepo := new(MockAccountRepo)
		svc := service.NewAccountService(mockAccountRepo, nil)

		mockAccountRepo.On("GetByID", ctx, "acc-1").Return(activeAccount("acc-1", "user-2", 500), nil).Once()

		_, _, err := svc.Deposit(ctx, caller, "acc-1", amount, "")
		assert.True(t, errors.Is(err, domain.ErrForbidden))
	})
}

func TestAccountService_Withdraw(t *testing.T) {
	ctx := context.Background()
	caller := &domain.User{ID: "user-1", Role: domain.RoleUser}

	t.Run("InsufficientFundsPassThrough", func(t *testing.T) {
		mockAccountRepo := new(MockAccountRepo)
		svc := service.NewAccountService(mockAccountRepo, nil)

		amount := decimal.NewFromInt(9999)
		mockAccountRepo.On("GetByID", ctx, "acc-1").Return(activeAccount("acc-1", "user-1", 500), nil).Once()
		mockAccountRepo.On("Withdraw", ctx, "acc-1", amount, "Withdrawal").Return(nil, nil, domain.ErrInsufficientFunds).Once()

		_, _, err := svc.Withdraw(ctx, caller, "acc-1", amount, "")
		assert.True(t, errors.Is(err, domain.ErrInsufficientFunds))
	})

	t.Run("NonPositiveAmount", func(t *testing.T) {
		mockAccountRepo := new(MockAccountRepo)
		svc := service.NewAccountService(mockAccountRepo, nil)

		mockAccountRepo.On("GetByID", ctx, "acc-1").Return(activeAccount("acc-1", "user-1", 500), nil).Once()

		_, _, err := svc.Withdraw(ctx, caller, "acc-1", decimal.Zero, "")
		assert.True(t, errors.Is(err, domain.ErrValidation))
	})
}

func TestAccountService_Transfer(t *testing.T) {
	ctx := context.Background()
	caller := &domain.User{ID: "user-1", Role: domain.RoleUser}
	amount := decimal.NewFromInt(50)

	t.Run("NotifiesCallerOnly", func(t *testing.T) {
		mockAccountRepo := new(MockAccountRepo)
		mockNoteRepo := new(MockNotificationRepo)
		svc := service.NewAccountService(mockAccountRepo, mockNoteRepo)

		source := activeAccount("acc-1", "user-1", 500)
		target := activeAccount("acc-2", "user-2", 100)
		record := &repository.TransferRecord{
			Source: activeAccount("acc-1", "user-1", 450),
			Target: activeAccount("acc-2", "user-2", 150),
		}
		mockAccountRepo.On("GetByID", ctx, "acc-1").Return(source, nil).Once()
		mockAccountRepo.On("GetByID", ctx, "acc-2").Return(target, nil).Once()
		mockAccountRepo.On("Transfer", ctx, mock.MatchedBy(func(p repository.TransferParams) bool {
			return p.SourceID == "acc-1" && p.TargetID == "acc-2" && p.Amount.Equal(amount)
		})).Return(record, nil).Once()
		mockNoteRepo.On("Create", ctx, mock.MatchedBy(func(n *domain.Notification) bool {
			return n.UserID == "user-1"
		})).Return(nil).Once()

		got, err := svc.Transfer(ctx, caller, service.TransferInput{
			SourceAccountID: "acc-1",
			TargetAccountID: "acc-2",
			Amount:          amount,
		})
		assert.NoError(t, err)
		assert.True(t, got.Source.Balance.Equal(decimal.NewFromInt(450)))
		mockAccountRepo.AssertExpectations(t)
		mockNoteRepo.AssertExpectations(t)
		// The target owner gets no row; the caller's is the only one.
		mockNoteRepo.AssertNumberOfCalls(t, "Create", 1)
	})

	t.Run("SameAccount", func(t *testing.T) {
		svc := service.NewAccountService(nil, nil)

		_, err := svc.Transfer(ctx, caller, service.TransferInput{
			SourceAccountID: "acc-1",
			TargetAccountID: "acc-1",
			Amount:          amount,
		})
		assert.True(t, errors.Is(err, domain.ErrValidation))
	})

	t.Run("InactiveTarget", func(t *testing.T) {
		mockAccountRepo := new(MockAccountRepo)
		svc := service.NewAccountService(mockAccountRepo, nil)

		frozen := activeAccount("acc-2", "user-2", 100)
		frozen.IsActive = false
		mockAccountRepo.On("GetByID", ctx, "acc-1").Return(activeAccount("acc-1", "user-1", 500), nil).Once()
		mockAccountRepo.On("GetByID", ctx, "acc-2").Return(frozen, nil).Once()

		_, err := svc.Transfer(ctx, caller, service.TransferInput{
			SourceAccountID: "acc-1",
			TargetAccountID: "acc-2",
			Amount:          amount,
		})
		assert.True(t, errors.Is(err, domain.ErrValidation))
	})
}

func TestAccountService_AdminOperations(t *testing.T) {
	ctx := context.Background()
	admin := &domain.User{ID: "admin-1", Role: domain.RoleAdmin}
	user := &domain.User{ID: "user-1", Role: domain.RoleUser}

	t.Run("ListAllRequiresAdmin", func(t *testing.T) {
		svc := service.NewAccountService(nil, nil)

		_, _, err := svc.ListAllAccounts(ctx, user, 1, 10)
		assert.True(t, errors.Is(err, domain.ErrForbidden))
	})

	t.Run("ListAllPaginates", func(t *testing.T) {
		mockAccountRepo := new(MockAccountRepo)
		svc := service.NewAccountService(mockAccountRepo, nil)

		accounts := []domain.Account{*activeAccount("acc-1", "user-1", 500)}
		mockAccountRepo.On("ListAll", ctx, 2, 10).Return(accounts, int64(25), nil).Once()

		got, pagination, err := svc.ListAllAccounts(ctx, admin, 2, 10)
		assert.NoError(t, err)
		assert.Len(t, got, 1)
		assert.Equal(t, int64(25), pagination.Total)
		assert.Equal(t, 3, pagination.TotalPages)
		assert.True(t, pagination.HasNextPage)
		assert.True(t, pagination.HasPrevPage)
	})

	t.Run("SetStatusNotifiesOwner", func(t *testing.T) {
		mockAccountRepo := new(MockAccountRepo)
		mockNoteRepo := new(MockNotificationRepo)
		svc := service.NewAccountService(mockAccountRepo, mockNoteRepo)

		frozen := activeAccount("acc-1", "user-1", 500)
		frozen.IsActive = false
		mockAccountRepo.On("GetByID", ctx, "acc-1").Return(activeAccount("acc-1", "user-1", 500), nil).Once()
		mockAccountRepo.On("SetActive", ctx, "acc-1", false).Return(frozen, nil).Once()
		mockNoteRepo.On("Create", ctx, mock.MatchedBy(func(n *domain.Notification) bool {
			return n.UserID == "user-1" && strings.Contains(n.Message, "deactivated")
		})).Return(nil).Once()

		account, err := svc.SetAccountStatus(ctx, admin, "acc-1", false)
		assert.NoError(t, err)
		assert.False(t, account.IsActive)
		mockNoteRepo.AssertExpectations(t)
	})

	t.Run("OwnerCanSetOwnStatus", func(t *testing.T) {
		mockAccountRepo := new(MockAccountRepo)
		mockNoteRepo := new(MockNotificationRepo)
		svc := service.NewAccountService(mockAccountRepo, mockNoteRepo)

		reopened := activeAccount("acc-1", "user-1", 500)
		mockAccountRepo.On("GetByID", ctx, "acc-1").Return(activeAccount("acc-1", "user-1", 500), nil).Once()
		mockAccountRepo.On("SetActive", ctx, "acc-1", true).Return(reopened, nil).Once()
		mockNoteRepo.On("Create", ctx, mock.MatchedBy(func(n *domain.Notification) bool {
			return n.UserID == "user-1" && strings.Contains(n.Message, "activated")
		})).Return(nil).Once()

		account, err := svc.SetAccountStatus(ctx, user, "acc-1", true)
		assert.NoError(t, err)
		assert.True(t, account.IsActive)
		mockAccountRepo.AssertExpectations(t)
	})

	t.Run("SetStatusForbidsOtherUsersAccount", func(t *testing.T) {
		mockAccountRepo := new(MockAccountRepo)
		svc := service.NewAccountService(mockAccountRepo, nil)

		mockAccountRepo.On("GetByID", ctx, "acc-2").Return(activeAccount("acc-2", "user-2", 100), nil).Once()

		_, err := svc.SetAccountStatus(ctx, user, "acc-2", false)
		assert.True(t, errors.Is(err, domain.ErrForbidden))
		mockAccountRepo.AssertNotCalled(t, "SetActive", ctx, "acc-2", false)
	})
}

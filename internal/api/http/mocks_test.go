package http

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"lendhub-backend/internal/domain"
	"lendhub-backend/internal/repository"
	"lendhub-backend/internal/security"
	"lendhub-backend/internal/service"
)

// MockUserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) HandleIdentityEvent(ctx context.Context, eventType string, data service.IdentityUser) (*domain.User, error) {
	args := m.Called(ctx, eventType, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserService) ResolveCaller(ctx context.Context, externalID string) (*domain.User, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserService) GetProfile(ctx context.Context, caller *domain.User) (*domain.User, error) {
	args := m.Called(ctx, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserService) UpdateProfile(ctx context.Context, caller *domain.User, name string, creditScore *int32) (*domain.User, error) {
	args := m.Called(ctx, caller, name, creditScore)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserService) GetUserByID(ctx context.Context, caller *domain.User, id string) (*domain.User, error) {
	args := m.Called(ctx, caller, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// MockAccountService
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) CreateAccount(ctx context.Context, caller *domain.User, in service.CreateAccountInput) (*domain.Account, error) {
	args := m.Called(ctx, caller, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}
func (m *MockAccountService) ListMyAccounts(ctx context.Context, caller *domain.User) ([]domain.Account, error) {
	args := m.Called(ctx, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}
func (m *MockAccountService) GetAccount(ctx context.Context, caller *domain.User, id string) (*domain.Account, []domain.Transaction, error) {
	args := m.Called(ctx, caller, id)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.Account), args.Get(1).([]domain.Transaction), args.Error(2)
}
func (m *MockAccountService) Deposit(ctx context.Context, caller *domain.User, accountID string, amount decimal.Decimal, description string) (*domain.Account, *domain.Transaction, error) {
	args := m.Called(ctx, caller, accountID, amount, description)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.Account), args.Get(1).(*domain.Transaction), args.Error(2)
}
func (m *MockAccountService) Withdraw(ctx context.Context, caller *domain.User, accountID string, amount decimal.Decimal, description string) (*domain.Account, *domain.Transaction, error) {
	args := m.Called(ctx, caller, accountID, amount, description)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.Account), args.Get(1).(*domain.Transaction), args.Error(2)
}
func (m *MockAccountService) Transfer(ctx context.Context, caller *domain.User, in service.TransferInput) (*repository.TransferRecord, error) {
	args := m.Called(ctx, caller, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.TransferRecord), args.Error(1)
}
func (m *MockAccountService) ListTransactions(ctx context.Context, caller *domain.User, accountID string, page, limit int) ([]domain.Transaction, *domain.Pagination, error) {
	args := m.Called(ctx, caller, accountID, page, limit)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]domain.Transaction), args.Get(1).(*domain.Pagination), args.Error(2)
}
func (m *MockAccountService) ListAllAccounts(ctx context.Context, caller *domain.User, page, limit int) ([]domain.Account, *domain.Pagination, error) {
	args := m.Called(ctx, caller, page, limit)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]domain.Account), args.Get(1).(*domain.Pagination), args.Error(2)
}
func (m *MockAccountService) SetAccountStatus(ctx context.Context, caller *domain.User, accountID string, isActive bool) (*domain.Account, error) {
	args := m.Called(ctx, caller, accountID, isActive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

// stubVerifier satisfies security.TokenVerifier with canned results.
type stubVerifier struct {
	claims *security.SessionClaims
	err    error
}

func (s *stubVerifier) VerifyToken(string) (*security.SessionClaims, error) {
	return s.claims, s.err
}

var _ security.TokenVerifier = (*stubVerifier)(nil)

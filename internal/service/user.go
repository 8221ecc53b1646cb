package service

import (
	"context"
	"fmt"
	"strings"

	"lendhub-backend/internal/domain"
	"lendhub-backend/internal/repository"
)

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) HandleIdentityEvent(ctx context.Context, eventType string, data IdentityUser) (*domain.User, error) {
	switch eventType {
	case "user.created", "user.updated":
	default:
		return nil, nil
	}

	email := strings.TrimSpace(strings.ToLower(data.Email))
	if email == "" {
		return nil, fmt.Errorf("%w: identity event without email", domain.ErrValidation)
	}

	user := &domain.User{
		ExternalID: data.ExternalID,
		Email:      email,
		Name:       strings.TrimSpace(data.Name),
		Role:       domain.RoleUser,
	}
	if err := s.userRepo.UpsertByEmail(ctx, user); err != nil {
		return nil, fmt.Errorf("upsert user %s: %w", email, err)
	}
	return user, nil
}

func (s *userService) ResolveCaller(ctx context.Context, externalID string) (*domain.User, error) {
	user, err := s.userRepo.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown session subject", domain.ErrUnauthorized)
	}
	return user, nil
}

func (s *userService) GetProfile(ctx context.Context, caller *domain.User) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, caller.ID)
}

func (s *userService) UpdateProfile(ctx context.Context, caller *domain.User, name string, creditScore *int32) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	if name = strings.TrimSpace(name); name != "" {
		user.Name = name
	}
	if creditScore != nil {
		if *creditScore < 300 || *creditScore > 900 {
			return nil, fmt.Errorf("%w: credit score must be between 300 and 900", domain.ErrValidation)
		}
		user.CreditScore = creditScore
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) GetUserByID(ctx context.Context, caller *domain.User, id string) (*domain.User, error) {
	if !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: admin access required", domain.ErrForbidden)
	}
	return s.userRepo.GetByID(ctx, id)
}

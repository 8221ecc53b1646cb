package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"lendhub-backend/internal/domain"
	"lendhub-backend/internal/repository"
)

type cardService struct {
	cardRepo repository.CardRepository
	noteRepo repository.NotificationRepository
}

func NewCardService(
	cardRepo repository.CardRepository,
	noteRepo repository.NotificationRepository,
) CardService {
	return &cardService{
		cardRepo: cardRepo,
		noteRepo: noteRepo,
	}
}

func (s *cardService) CreateCard(ctx context.Context, caller *domain.User, in CreateCardInput) (*domain.Card, error) {
	switch in.Type {
	case domain.CardTypeDebit, domain.CardTypeCredit:
	default:
		return nil, fmt.Errorf("%w: invalid card type %q", domain.ErrValidation, in.Type)
	}
	if len(in.CardNumber) < 13 || len(in.CardNumber) > 19 {
		return nil, fmt.Errorf("%w: card number must be 13-19 digits", domain.ErrValidation)
	}
	if len(in.CVV) < 3 || len(in.CVV) > 4 {
		return nil, fmt.Errorf("%w: cvv must be 3 or 4 digits", domain.ErrValidation)
	}
	if err := validateExpiry(in.ExpiryMonth, in.ExpiryYear); err != nil {
		return nil, err
	}
	if in.Type != domain.CardTypeCredit && in.Limit != nil {
		return nil, fmt.Errorf("%w: only credit cards carry a limit", domain.ErrValidation)
	}

	// The CVV is stored only as a hash; no read path ever returns it.
	hash, err := bcrypt.GenerateFromPassword([]byte(in.CVV), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash cvv: %w", err)
	}

	card := &domain.Card{
		UserID:         caller.ID,
		CardNumber:     in.CardNumber,
		CardholderName: in.CardholderName,
		ExpiryMonth:    in.ExpiryMonth,
		ExpiryYear:     in.ExpiryYear,
		Type:           in.Type,
		Limit:          in.Limit,
		CVVHash:        string(hash),
		IsActive:       true,
	}
	if err := s.cardRepo.Create(ctx, card); err != nil {
		return nil, fmt.Errorf("create card: %w", err)
	}

	s.notify(ctx, caller.ID, "Card Added",
		fmt.Sprintf("Your %s card ending in %s has been added", card.Type, lastFour(card.CardNumber)))
	return card, nil
}

func (s *cardService) ListMyCards(ctx context.Context, caller *domain.User) ([]domain.Card, error) {
	return s.cardRepo.ListByUser(ctx, caller.ID)
}

func (s *cardService) GetCard(ctx context.Context, caller *domain.User, id string) (*domain.Card, error) {
	return s.ownedCard(ctx, caller, id)
}

func (s *cardService) UpdateCard(ctx context.Context, caller *domain.User, id string, in UpdateCardInput) (*domain.Card, error) {
	card, err := s.ownedCard(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	if in.CardholderName != nil && *in.CardholderName != "" {
		card.CardholderName = *in.CardholderName
	}
	month, year := card.ExpiryMonth, card.ExpiryYear
	if in.ExpiryMonth != nil {
		month = *in.ExpiryMonth
	}
	if in.ExpiryYear != nil {
		year = *in.ExpiryYear
	}
	if month != card.ExpiryMonth || year != card.ExpiryYear {
		if err := validateExpiry(month, year); err != nil {
			return nil, err
		}
		card.ExpiryMonth, card.ExpiryYear = month, year
	}
	if in.Limit != nil {
		if card.Type != domain.CardTypeCredit {
			return nil, fmt.Errorf("%w: only credit cards carry a limit", domain.ErrValidation)
		}
		if in.Limit.IsNegative() {
			return nil, fmt.Errorf("%w: limit cannot be negative", domain.ErrValidation)
		}
		card.Limit = in.Limit
	}

	if err := s.cardRepo.Update(ctx, card); err != nil {
		return nil, err
	}
	return card, nil
}

func (s *cardService) ToggleCardStatus(ctx context.Context, caller *domain.User, id string) (*domain.Card, error) {
	card, err := s.ownedCard(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	card, err = s.cardRepo.SetActive(ctx, id, !card.IsActive)
	if err != nil {
		return nil, err
	}

	status := "blocked"
	if card.IsActive {
		status = "activated"
	}
	s.notify(ctx, card.UserID, "Card Status Changed",
		fmt.Sprintf("Your card ending in %s has been %s", lastFour(card.CardNumber), status))
	return card, nil
}

func (s *cardService) DeleteCard(ctx context.Context, caller *domain.User, id string) error {
	card, err := s.ownedCard(ctx, caller, id)
	if err != nil {
		return err
	}
	if err := s.cardRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.notify(ctx, card.UserID, "Card Removed",
		fmt.Sprintf("Your card ending in %s has been removed", lastFour(card.CardNumber)))
	return nil
}

func (s *cardService) ListCardTransactions(ctx context.Context, caller *domain.User, id string) ([]domain.Transaction, error) {
	if _, err := s.ownedCard(ctx, caller, id); err != nil {
		return nil, err
	}
	return s.cardRepo.ListTransactions(ctx, id)
}

func (s *cardService) ListAllCards(ctx context.Context, caller *domain.User, page, limit int) ([]domain.Card, *domain.Pagination, error) {
	if !caller.IsAdmin() {
		return nil, nil, fmt.Errorf("%w: admin access required", domain.ErrForbidden)
	}
	page, limit = normalizePage(page, limit)
	cards, total, err := s.cardRepo.ListAll(ctx, page, limit)
	if err != nil {
		return nil, nil, err
	}
	return cards, domain.NewPagination(total, page, limit), nil
}

func (s *cardService) ownedCard(ctx context.Context, caller *domain.User, id string) (*domain.Card, error) {
	card, err := s.cardRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if card.UserID != caller.ID && !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: card belongs to another user", domain.ErrForbidden)
	}
	return card, nil
}

func (s *cardService) notify(ctx context.Context, userID, title, message string) {
	_ = s.noteRepo.Create(ctx, &domain.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    domain.NotificationTypeAccountUpdate,
	})
}

func validateExpiry(month, year int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: expiry month must be 1-12", domain.ErrValidation)
	}
	now := time.Now()
	if year < now.Year() || (year == now.Year() && month < int(now.Month())) {
		return fmt.Errorf("%w: card is expired", domain.ErrValidation)
	}
	return nil
}

func lastFour(number string) string {
	if len(number) <= 4 {
		return number
	}
	return number[len(number)-4:]
}

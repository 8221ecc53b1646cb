package service

import (
	"context"
	"fmt"

	"lendhub-backend/internal/domain"
	"lendhub-backend/internal/repository"
)

type notificationService struct {
	noteRepo repository.NotificationRepository
}

func NewNotificationService(noteRepo repository.NotificationRepository) NotificationService {
	return &notificationService{noteRepo: noteRepo}
}

func (s *notificationService) ListNotifications(ctx context.Context, caller *domain.User) ([]domain.Notification, error) {
	return s.noteRepo.ListByUser(ctx, caller.ID)
}

func (s *notificationService) CreateNotification(ctx context.Context, caller *domain.User, in CreateNotificationInput) (*domain.Notification, error) {
	if in.Title == "" || in.Message == "" {
		return nil, fmt.Errorf("%w: title and message are required", domain.ErrValidation)
	}
	noteType := in.Type
	if noteType == "" {
		noteType = domain.NotificationTypeGeneral
	}
	if !domain.ValidNotificationType(noteType) {
		return nil, fmt.Errorf("%w: invalid notification type %q", domain.ErrValidation, noteType)
	}

	targetID := caller.ID
	if in.UserID != "" && in.UserID != caller.ID {
		if !caller.IsAdmin() {
			return nil, fmt.Errorf("%w: only admins can notify other users", domain.ErrForbidden)
		}
		targetID = in.UserID
	}

	note := &domain.Notification{
		UserID:  targetID,
		Title:   in.Title,
		Message: in.Message,
		Type:    noteType,
	}
	if err := s.noteRepo.Create(ctx, note); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}
	return note, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, caller *domain.User) (int64, error) {
	return s.noteRepo.UnreadCount(ctx, caller.ID)
}

func (s *notificationService) MarkRead(ctx context.Context, caller *domain.User, id string) (*domain.Notification, error) {
	return s.noteRepo.MarkRead(ctx, id, caller.ID)
}

func (s *notificationService) MarkAllRead(ctx context.Context, caller *domain.User) (int64, error) {
	return s.noteRepo.MarkAllRead(ctx, caller.ID)
}

func (s *notificationService) DeleteNotification(ctx context.Context, caller *domain.User, id string) error {
	return s.noteRepo.Delete(ctx, id, caller.ID)
}

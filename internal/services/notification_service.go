package services

import (
	"context"
	"fmt"
	"time"

	"freightdesk/internal/common"
	"freightdesk/internal/models"
	"freightdesk/internal/repositories"

	"github.com/google/uuid"
)

// NotificationServiceInterface defines the interface for notification operations
type NotificationServiceInterface interface {
	Notify(ctx context.Context, tenantID, userID uuid.UUID, kind, title, body string) error
	ListByUser(ctx context.Context, tenantID, userID uuid.UUID, limit, offset int) ([]*models.Notification, error)
	MarkRead(ctx context.Context, tenantID, notificationID uuid.UUID) error
}

type notificationService struct {
	notificationRepo repositories.NotificationRepository
}

// NewNotificationService creates a new notification service instance
func NewNotificationService(notificationRepo repositories.NotificationRepository) NotificationServiceInterface {
	return &notificationService{notificationRepo: notificationRepo}
}

// Notify records an in-app notification for a user.
func (s *notificationService) Notify(ctx context.Context, tenantID, userID uuid.UUID, kind, title, body string) error {
	switch kind {
	case models.NotificationLoadAssigned, models.NotificationLoadStatus,
		models.NotificationExpenseStatus, models.NotificationDVIRDefect:
	default:
		return fmt.Errorf("invalid notification kind: %s", kind)
	}
	if err := common.ValidateRequiredString(title, "title"); err != nil {
		return err
	}

	return s.notificationRepo.Create(ctx, &models.Notification{
		ID:        uuid.New(),
		TenantID:  tenantID,
		UserID:    userID,
		Kind:      kind,
		Title:     title,
		Body:      body,
		CreatedAt: time.Now(),
	})
}

// ListByUser lists a user's notifications with pagination, newest first.
func (s *notificationService) ListByUser(ctx context.Context, tenantID, userID uuid.UUID, limit, offset int) ([]*models.Notification, error) {
	limit, offset, err := common.ValidatePaginationParams(limit, offset)
	if err != nil {
		return nil, err
	}
	return s.notificationRepo.ListByUser(ctx, tenantID, userID, limit, offset)
}

// MarkRead marks one notification as read.
func (s *notificationService) MarkRead(ctx context.Context, tenantID, notificationID uuid.UUID) error {
	return s.notificationRepo.MarkRead(ctx, tenantID, notificationID)
}

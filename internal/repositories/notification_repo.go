package repositories

import (
	"context"
	"fmt"

	"freightdesk/internal/models"

	"github.com/google/uuid"
)

type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByUser(ctx context.Context, tenantID, userID uuid.UUID, limit, offset int) ([]*models.Notification, error)
	MarkRead(ctx context.Context, tenantID, id uuid.UUID) error
}

type notificationRepo struct {
	db Database
}

func NewNotificationRepo(db Database) NotificationRepository {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) Create(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (id, tenant_id, user_id, kind, title, body, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, NOW())
	`
	if _, err := r.db.Exec(ctx, query, n.ID, n.TenantID, n.UserID, n.Kind, n.Title, n.Body); err != nil {
		return fmt.Errorf("notification: insert: %w", err)
	}
	return nil
}

func (r *notificationRepo) ListByUser(ctx context.Context, tenantID, userID uuid.UUID, limit, offset int) ([]*models.Notification, error) {
	query := `
		SELECT id, tenant_id, user_id, kind, title, body, is_read, created_at
		FROM notifications
		WHERE tenant_id = $1 AND user_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, tenantID, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("notification: list: %w", err)
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		n := &models.Notification{}
		if err := rows.Scan(&n.ID, &n.TenantID, &n.UserID, &n.Kind, &n.Title, &n.Body, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("notification: scan row: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *notificationRepo) MarkRead(ctx context.Context, tenantID, id uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE tenant_id = $1 AND id = $2`, tenantID, id); err != nil {
		return fmt.Errorf("notification: mark read: %w", err)
	}
	return nil
}

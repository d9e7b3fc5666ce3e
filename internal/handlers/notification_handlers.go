package handlers

import (
	"net/http"

	"freightdesk/internal/common"
	"freightdesk/internal/services"

	"github.com/labstack/echo/v4"
)

// NotificationHandlers handles HTTP requests for in-app notifications
type NotificationHandlers struct {
	notificationService services.NotificationServiceInterface
}

// NewNotificationHandlers creates a new notification handlers instance
func NewNotificationHandlers(notificationService services.NotificationServiceInterface) *NotificationHandlers {
	return &NotificationHandlers{notificationService: notificationService}
}

// ListNotifications handles GET /v1/notifications
func (h *NotificationHandlers) ListNotifications(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	limit, offset := parsePagination(c)
	notifications, err := h.notificationService.ListByUser(ctx, tenantID, userID, limit, offset)
	if err != nil {
		return common.SendServerError(c, "Failed to list notifications")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"notifications": notifications,
		"limit":         limit,
		"offset":        offset,
	})
}

// MarkRead handles PUT /v1/notifications/:id/read
func (h *NotificationHandlers) MarkRead(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	notificationID, err := common.ValidateUUID(c.Param("id"), "notification ID")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	if err := h.notificationService.MarkRead(ctx, tenantID, notificationID); err != nil {
		return common.SendServerError(c, "Failed to mark notification read")
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "read"})
}

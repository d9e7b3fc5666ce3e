package handlers

import (
	"errors"
	"net/http"

	"freightdesk/internal/common"
	"freightdesk/internal/repositories"
	"freightdesk/internal/services"

	"github.com/labstack/echo/v4"
)

// SubscriptionHandlers handles HTTP requests for billing subscriptions
type SubscriptionHandlers struct {
	subscriptionService services.SubscriptionServiceInterface
}

// NewSubscriptionHandlers creates a new subscription handlers instance
func NewSubscriptionHandlers(subscriptionService services.SubscriptionServiceInterface) *SubscriptionHandlers {
	return &SubscriptionHandlers{subscriptionService: subscriptionService}
}

// GetSubscription handles GET /v1/subscription
func (h *SubscriptionHandlers) GetSubscription(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	sub, err := h.subscriptionService.GetByTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, repositories.ErrSubscriptionNotFound) {
			return common.SendNotFoundError(c, "Subscription")
		}
		return common.SendServerError(c, "Failed to get subscription")
	}

	return c.JSON(http.StatusOK, sub)
}

// CancelSubscription handles DELETE /v1/subscription
func (h *SubscriptionHandlers) CancelSubscription(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	if err := h.subscriptionService.Cancel(ctx, tenantID); err != nil {
		if errors.Is(err, repositories.ErrSubscriptionNotFound) {
			return common.SendNotFoundError(c, "Subscription")
		}
		return common.SendServerError(c, "Failed to cancel subscription")
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "canceled"})
}

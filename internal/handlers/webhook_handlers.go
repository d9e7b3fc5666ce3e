package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"freightdesk/internal/caching"
	"freightdesk/internal/common"
	"freightdesk/internal/services"

	"github.com/labstack/echo/v4"
)

// How long a processed webhook event id is remembered for replay dedup.
const eventDedupWindow = 24 * time.Hour

// WebhookHandlers handles HTTP requests for payment webhooks
type WebhookHandlers struct {
	stripeService       services.StripeService
	subscriptionService services.SubscriptionServiceInterface
	cacheSvc            caching.CacheService
}

// NewWebhookHandlers creates a new webhook handlers instance
func NewWebhookHandlers(stripeService services.StripeService, subscriptionService services.SubscriptionServiceInterface, cacheSvc caching.CacheService) *WebhookHandlers {
	return &WebhookHandlers{
		stripeService:       stripeService,
		subscriptionService: subscriptionService,
		cacheSvc:            cacheSvc,
	}
}

// StripeWebhook handles POST /webhooks/stripe. The signature is verified
// against the raw body before any parsing; unrecognized event types are
// acknowledged with 200 so Stripe stops retrying them.
func (h *WebhookHandlers) StripeWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return common.SendClientError(c, "Failed to read request body")
	}

	sigHeader := c.Request().Header.Get("Stripe-Signature")
	if sigHeader == "" {
		return common.SendClientError(c, "Missing Stripe signature")
	}

	event, err := h.stripeService.ConstructEvent(body, sigHeader)
	if err != nil {
		return common.SendClientError(c, "Invalid webhook signature")
	}

	// Stripe retries deliveries; a replayed event id is acknowledged
	// without reprocessing.
	if event.ID != "" {
		fresh, err := h.cacheSvc.MarkEventProcessed(ctx, event.ID, eventDedupWindow)
		if err == nil && !fresh {
			return c.JSON(http.StatusOK, map[string]string{"status": "duplicate", "event": event.Type})
		}
	}

	switch event.Type {
	case "checkout.session.completed":
		err = h.subscriptionService.HandleCheckoutCompleted(ctx, event.Data.Object)
	case "customer.subscription.updated":
		err = h.subscriptionService.HandleSubscriptionUpdated(ctx, event.Data.Object)
	case "customer.subscription.deleted":
		err = h.subscriptionService.HandleSubscriptionDeleted(ctx, event.Data.Object)
	default:
		// Unknown event types are acknowledged, not errored.
		return c.JSON(http.StatusOK, map[string]string{"status": "ignored", "event": event.Type})
	}

	if err != nil {
		// The event was not applied; release the dedup reservation so
		// Stripe's retry of the same id is processed instead of being
		// swallowed as a duplicate.
		if event.ID != "" {
			if clearErr := h.cacheSvc.ClearEvent(ctx, event.ID); clearErr != nil {
				c.Logger().Errorf("webhook: clear event %s: %v", event.ID, clearErr)
			}
		}
		if errors.Is(err, services.ErrUnknownCustomer) {
			return common.SendNotFoundError(c, "Customer")
		}
		return common.SendServerError(c, "Failed to process webhook event")
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "success", "event": event.Type})
}

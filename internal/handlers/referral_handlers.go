package handlers

import (
	"errors"
	"net/http"

	"freightdesk/internal/common"
	"freightdesk/internal/repositories"
	"freightdesk/internal/services"

	"github.com/labstack/echo/v4"
)

// ReferralHandlers handles HTTP requests for referral codes
type ReferralHandlers struct {
	referralService services.ReferralServiceInterface
}

// NewReferralHandlers creates a new referral handlers instance
func NewReferralHandlers(referralService services.ReferralServiceInterface) *ReferralHandlers {
	return &ReferralHandlers{referralService: referralService}
}

// GetOrCreateCode handles POST /v1/referrals/code. The operation is
// idempotent: repeat requests return the caller's existing code.
func (h *ReferralHandlers) GetOrCreateCode(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	code, err := h.referralService.GetOrCreateCode(ctx, tenantID, userID)
	if err != nil {
		return common.SendServerError(c, "Failed to get referral code")
	}

	return c.JSON(http.StatusOK, code)
}

// RedeemRequest represents the referral redemption payload
type RedeemRequest struct {
	Code string `json:"code" validate:"required"`
}

// Redeem handles POST /v1/referrals/redeem
func (h *ReferralHandlers) Redeem(c echo.Context) error {
	ctx := c.Request().Context()

	var req RedeemRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if req.Code == "" {
		return common.SendValidationError(c, "code", "code is required")
	}

	code, err := h.referralService.Redeem(ctx, req.Code)
	if err != nil {
		if errors.Is(err, repositories.ErrReferralNotFound) {
			return common.SendNotFoundError(c, "Referral code")
		}
		return common.SendServerError(c, "Failed to redeem referral code")
	}

	return c.JSON(http.StatusOK, code)
}

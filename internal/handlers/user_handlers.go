package handlers

import (
	"errors"
	"net/http"

	"freightdesk/internal/common"
	"freightdesk/internal/repositories"
	"freightdesk/internal/services"

	"github.com/labstack/echo/v4"
)

// UserHandlers handles HTTP requests for tenant users
type UserHandlers struct {
	userService services.UserServiceInterface
}

// NewUserHandlers creates a new user handlers instance
func NewUserHandlers(userService services.UserServiceInterface) *UserHandlers {
	return &UserHandlers{userService: userService}
}

// ListUsers handles GET /v1/users
func (h *UserHandlers) ListUsers(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	limit, offset := parsePagination(c)
	users, err := h.userService.List(ctx, tenantID, limit, offset)
	if err != nil {
		return common.SendServerError(c, "Failed to list users")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"users":  users,
		"limit":  limit,
		"offset": offset,
	})
}

// GetUser handles GET /v1/users/:id
func (h *UserHandlers) GetUser(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	userID, err := common.ValidateUUID(c.Param("id"), "user ID")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	user, err := h.userService.GetByID(ctx, tenantID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return common.SendNotFoundError(c, "User")
		}
		return common.SendServerError(c, "Failed to get user")
	}

	return c.JSON(http.StatusOK, user)
}

// ListAvailableDrivers handles GET /v1/drivers/available
func (h *UserHandlers) ListAvailableDrivers(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	drivers, err := h.userService.ListAvailableDrivers(ctx, tenantID)
	if err != nil {
		return common.SendServerError(c, "Failed to list available drivers")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"drivers": drivers})
}

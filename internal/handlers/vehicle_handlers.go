package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"freightdesk/internal/common"
	"freightdesk/internal/models"
	"freightdesk/internal/repositories"
	"freightdesk/internal/services"

	"github.com/labstack/echo/v4"
)

// VehicleHandlers handles HTTP requests for vehicles
type VehicleHandlers struct {
	vehicleService services.VehicleServiceInterface
}

// NewVehicleHandlers creates a new vehicle handlers instance
func NewVehicleHandlers(vehicleService services.VehicleServiceInterface) *VehicleHandlers {
	return &VehicleHandlers{vehicleService: vehicleService}
}

// CreateVehicle handles POST /v1/vehicles
func (h *VehicleHandlers) CreateVehicle(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var vehicle models.Vehicle
	if err := c.Bind(&vehicle); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	if err := h.vehicleService.CreateVehicle(ctx, tenantID, &vehicle); err != nil {
		return common.SendClientError(c, err.Error())
	}

	return c.JSON(http.StatusCreated, vehicle)
}

// GetVehicle handles GET /v1/vehicles/:id
func (h *VehicleHandlers) GetVehicle(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	vehicleID, err := common.ValidateUUID(c.Param("id"), "vehicle ID")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	vehicle, err := h.vehicleService.GetVehicleByID(ctx, tenantID, vehicleID)
	if err != nil {
		if errors.Is(err, repositories.ErrVehicleNotFound) {
			return common.SendNotFoundError(c, "Vehicle")
		}
		return common.SendServerError(c, "Failed to get vehicle")
	}

	return c.JSON(http.StatusOK, vehicle)
}

// UpdateVehicle handles PUT /v1/vehicles/:id
func (h *VehicleHandlers) UpdateVehicle(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	vehicleID, err := common.ValidateUUID(c.Param("id"), "vehicle ID")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var vehicle models.Vehicle
	if err := c.Bind(&vehicle); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	vehicle.ID = vehicleID

	if err := h.vehicleService.UpdateVehicle(ctx, tenantID, &vehicle); err != nil {
		if errors.Is(err, repositories.ErrVehicleNotFound) {
			return common.SendNotFoundError(c, "Vehicle")
		}
		return common.SendClientError(c, err.Error())
	}

	return c.JSON(http.StatusOK, vehicle)
}

// ListVehicles handles GET /v1/vehicles
func (h *VehicleHandlers) ListVehicles(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	limit, offset := parsePagination(c)
	vehicles, err := h.vehicleService.ListVehicles(ctx, tenantID, limit, offset)
	if err != nil {
		return common.SendServerError(c, "Failed to list vehicles")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"vehicles": vehicles,
		"limit":    limit,
		"offset":   offset,
	})
}

// parsePagination reads limit/offset query params with defaults.
func parsePagination(c echo.Context) (int, int) {
	limit := 50
	offset := 0
	if limitParam := c.QueryParam("limit"); limitParam != "" {
		if l, err := strconv.Atoi(limitParam); err == nil && l > 0 && l <= 200 {
			limit = l
		}
	}
	if offsetParam := c.QueryParam("offset"); offsetParam != "" {
		if o, err := strconv.Atoi(offsetParam); err == nil && o >= 0 {
			offset = o
		}
	}
	return limit, offset
}

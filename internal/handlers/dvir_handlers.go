package handlers

import (
	"errors"
	"net/http"

	"freightdesk/internal/common"
	"freightdesk/internal/models"
	"freightdesk/internal/repositories"
	"freightdesk/internal/services"

	"github.com/labstack/echo/v4"
)

// DVIRHandlers handles HTTP requests for vehicle inspection reports
type DVIRHandlers struct {
	dvirService services.DVIRServiceInterface
}

// NewDVIRHandlers creates a new inspection report handlers instance
func NewDVIRHandlers(dvirService services.DVIRServiceInterface) *DVIRHandlers {
	return &DVIRHandlers{dvirService: dvirService}
}

// SubmitReport handles POST /v1/dvir
func (h *DVIRHandlers) SubmitReport(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var report models.DVIRReport
	if err := c.Bind(&report); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	if err := h.dvirService.SubmitReport(ctx, tenantID, userID, &report); err != nil {
		if errors.Is(err, repositories.ErrVehicleNotFound) {
			return common.SendNotFoundError(c, "Vehicle")
		}
		return common.SendClientError(c, err.Error())
	}

	return c.JSON(http.StatusCreated, report)
}

// GetReport handles GET /v1/dvir/:id
func (h *DVIRHandlers) GetReport(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	reportID, err := common.ValidateUUID(c.Param("id"), "report ID")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	report, err := h.dvirService.GetReportByID(ctx, tenantID, reportID)
	if err != nil {
		if errors.Is(err, repositories.ErrDVIRNotFound) {
			return common.SendNotFoundError(c, "Inspection report")
		}
		return common.SendServerError(c, "Failed to get inspection report")
	}

	return c.JSON(http.StatusOK, report)
}

// ListReports handles GET /v1/dvir filtered by vehicle_id or driver_id.
func (h *DVIRHandlers) ListReports(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	limit, offset := parsePagination(c)

	if vehicleParam := c.QueryParam("vehicle_id"); vehicleParam != "" {
		vehicleID, err := common.ValidateUUID(vehicleParam, "vehicle_id")
		if err != nil {
			return common.SendValidationError(c, "vehicle_id", err.Error())
		}
		reports, err := h.dvirService.ListByVehicle(ctx, tenantID, vehicleID, limit, offset)
		if err != nil {
			return common.SendServerError(c, "Failed to list inspection reports")
		}
		return c.JSON(http.StatusOK, map[string]interface{}{"reports": reports, "limit": limit, "offset": offset})
	}

	if driverParam := c.QueryParam("driver_id"); driverParam != "" {
		driverID, err := common.ValidateUUID(driverParam, "driver_id")
		if err != nil {
			return common.SendValidationError(c, "driver_id", err.Error())
		}
		reports, err := h.dvirService.ListByDriver(ctx, tenantID, driverID, limit, offset)
		if err != nil {
			return common.SendServerError(c, "Failed to list inspection reports")
		}
		return c.JSON(http.StatusOK, map[string]interface{}{"reports": reports, "limit": limit, "offset": offset})
	}

	// Drivers default to their own reports.
	if role, _ := common.GetRoleFromContext(ctx); role == models.RoleDriver {
		userID, _ := common.GetUserIDFromContext(ctx)
		reports, err := h.dvirService.ListByDriver(ctx, tenantID, userID, limit, offset)
		if err != nil {
			return common.SendServerError(c, "Failed to list inspection reports")
		}
		return c.JSON(http.StatusOK, map[string]interface{}{"reports": reports, "limit": limit, "offset": offset})
	}

	return common.SendValidationError(c, "vehicle_id", "vehicle_id or driver_id is required")
}

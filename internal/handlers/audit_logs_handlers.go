package handlers

import (
	"net/http"
	"time"

	"freightdesk/internal/common"
	"freightdesk/internal/models"
	"freightdesk/internal/services"

	"github.com/labstack/echo/v4"
)

// AuditLogsHandlers handles HTTP requests for the audit trail
type AuditLogsHandlers struct {
	auditService services.AuditLogsService
}

// NewAuditLogsHandlers creates a new audit logs handlers instance
func NewAuditLogsHandlers(auditService services.AuditLogsService) *AuditLogsHandlers {
	return &AuditLogsHandlers{auditService: auditService}
}

// ListAuditLogs handles GET /v1/audit-logs
func (h *AuditLogsHandlers) ListAuditLogs(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	limit, offset := parsePagination(c)
	filters := &models.AuditLogFilters{Limit: limit, Offset: offset}

	if tableName := c.QueryParam("table_name"); tableName != "" {
		filters.TableName = &tableName
	}
	if recordID := c.QueryParam("record_id"); recordID != "" {
		filters.RecordID = &recordID
	}
	if action := c.QueryParam("action"); action != "" {
		filters.Action = &action
	}
	if changedByParam := c.QueryParam("changed_by"); changedByParam != "" {
		changedBy, err := common.ValidateUUID(changedByParam, "changed_by")
		if err != nil {
			return common.SendValidationError(c, "changed_by", err.Error())
		}
		filters.ChangedBy = &changedBy
	}
	if startParam := c.QueryParam("start_date"); startParam != "" {
		start, err := time.Parse(time.RFC3339, startParam)
		if err != nil {
			return common.SendValidationError(c, "start_date", "must be RFC3339")
		}
		filters.StartDate = &start
	}
	if endParam := c.QueryParam("end_date"); endParam != "" {
		end, err := time.Parse(time.RFC3339, endParam)
		if err != nil {
			return common.SendValidationError(c, "end_date", "must be RFC3339")
		}
		filters.EndDate = &end
	}
	if filters.StartDate != nil && filters.EndDate != nil {
		if err := common.ValidateDateRange(*filters.StartDate, *filters.EndDate); err != nil {
			return common.SendValidationError(c, "date_range", err.Error())
		}
	}

	logs, err := h.auditService.List(ctx, tenantID, filters)
	if err != nil {
		return common.SendServerError(c, "Failed to list audit logs")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"audit_logs": logs,
		"limit":      limit,
		"offset":     offset,
	})
}

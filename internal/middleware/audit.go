package middleware

import (
	"strings"
	"time"

	"freightdesk/internal/common"
	"freightdesk/internal/models"
	"freightdesk/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// AuditMiddleware records mutating HTTP requests to the audit trail.
type AuditMiddleware struct {
	auditService services.AuditLogsService
}

func NewAuditMiddleware(auditService services.AuditLogsService) *AuditMiddleware {
	return &AuditMiddleware{auditService: auditService}
}

// AuditRequest logs POST/PUT/PATCH/DELETE requests and any request that
// errored. Reads are not audited.
func (m *AuditMiddleware) AuditRequest() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)

			ctx := c.Request().Context()
			tenantID, ok := common.GetTenantIDFromContext(ctx)
			if !ok {
				return err
			}

			method := c.Request().Method
			path := c.Path()
			if !m.shouldLog(method, path, err) {
				return err
			}

			var userPtr *uuid.UUID
			if userID, ok := common.GetUserIDFromContext(ctx); ok {
				userPtr = &userID
			}

			data := models.JSONB{
				"method":     method,
				"path":       path,
				"user_agent": c.Request().UserAgent(),
				"ip":         c.RealIP(),
				"timestamp":  time.Now().Format(time.RFC3339),
			}
			if err != nil {
				data["error"] = err.Error()
			}

			if logErr := m.auditService.LogAction(ctx, tenantID, "http_requests", path, auditAction(method), nil, data, userPtr); logErr != nil {
				c.Logger().Errorf("Failed to log audit activity: %v", logErr)
			}

			return err
		}
	}
}

func auditAction(method string) string {
	switch method {
	case "PUT", "PATCH":
		return models.ActionUpdate
	case "DELETE":
		return models.ActionDelete
	default:
		return models.ActionInsert
	}
}

func (m *AuditMiddleware) shouldLog(method, path string, reqErr error) bool {
	if reqErr != nil {
		return true
	}
	if method == "POST" || method == "PUT" || method == "PATCH" || method == "DELETE" {
		return !strings.HasPrefix(path, "/health")
	}
	return false
}

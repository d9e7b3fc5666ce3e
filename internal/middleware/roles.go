package middleware

import (
	"net/http"

	"freightdesk/internal/common"
	"freightdesk/internal/models"

	"github.com/labstack/echo/v4"
)

// RequireRoles gates a route behind an allow-list of roles. Requests with no
// identity in context get 401; authenticated callers whose role is not in
// the list get 403. An empty list means any authenticated user.
func RequireRoles(allowed ...models.Role) echo.MiddlewareFunc {
	allowedSet := make(map[models.Role]bool, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			if _, ok := common.GetUserIDFromContext(ctx); !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
			}
			role, ok := common.GetRoleFromContext(ctx)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
			}

			if len(allowedSet) > 0 && !allowedSet[role] {
				return echo.NewHTTPError(http.StatusForbidden, "Insufficient permissions")
			}

			return next(c)
		}
	}
}

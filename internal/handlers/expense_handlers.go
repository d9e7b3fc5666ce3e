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

// ExpenseHandlers handles HTTP requests for driver expenses
type ExpenseHandlers struct {
	expenseService services.ExpenseServiceInterface
}

// NewExpenseHandlers creates a new expense handlers instance
func NewExpenseHandlers(expenseService services.ExpenseServiceInterface) *ExpenseHandlers {
	return &ExpenseHandlers{expenseService: expenseService}
}

// SubmitExpense handles POST /v1/expenses
func (h *ExpenseHandlers) SubmitExpense(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var expense models.Expense
	if err := c.Bind(&expense); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	if err := h.expenseService.SubmitExpense(ctx, tenantID, userID, &expense); err != nil {
		return common.SendClientError(c, err.Error())
	}

	return c.JSON(http.StatusCreated, expense)
}

// GetExpense handles GET /v1/expenses/:id
func (h *ExpenseHandlers) GetExpense(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	expenseID, err := common.ValidateUUID(c.Param("id"), "expense ID")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	expense, err := h.expenseService.GetExpenseByID(ctx, tenantID, expenseID)
	if err != nil {
		if errors.Is(err, repositories.ErrExpenseNotFound) {
			return common.SendNotFoundError(c, "Expense")
		}
		return common.SendServerError(c, "Failed to get expense")
	}

	// Drivers may only see their own expenses.
	if role, _ := common.GetRoleFromContext(ctx); role == models.RoleDriver {
		userID, _ := common.GetUserIDFromContext(ctx)
		if expense.DriverID != userID {
			return common.SendNotFoundError(c, "Expense")
		}
	}

	return c.JSON(http.StatusOK, expense)
}

// ReviewExpenseRequest represents the expense review payload
type ReviewExpenseRequest struct {
	Status          string  `json:"status" validate:"required"`
	RejectionReason *string `json:"rejection_reason"`
}

// ReviewExpense handles PUT /v1/expenses/:id/status
func (h *ExpenseHandlers) ReviewExpense(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	expenseID, err := common.ValidateUUID(c.Param("id"), "expense ID")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req ReviewExpenseRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	expense, err := h.expenseService.ReviewExpense(ctx, tenantID, expenseID, req.Status, req.RejectionReason)
	if err != nil {
		if errors.Is(err, repositories.ErrExpenseNotFound) {
			return common.SendNotFoundError(c, "Expense")
		}
		return common.SendClientError(c, err.Error())
	}

	return c.JSON(http.StatusOK, expense)
}

// ListExpenses handles GET /v1/expenses
func (h *ExpenseHandlers) ListExpenses(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	limit, offset := parsePagination(c)

	// Drivers get their own expenses; dispatch and admin filter by status.
	if role, _ := common.GetRoleFromContext(ctx); role == models.RoleDriver {
		userID, _ := common.GetUserIDFromContext(ctx)
		expenses, err := h.expenseService.ListByDriver(ctx, tenantID, userID, limit, offset)
		if err != nil {
			return common.SendServerError(c, "Failed to list expenses")
		}
		return c.JSON(http.StatusOK, map[string]interface{}{"expenses": expenses, "limit": limit, "offset": offset})
	}

	status := c.QueryParam("status")
	if status == "" {
		status = models.ExpenseStatusPending
	}
	expenses, err := h.expenseService.ListByStatus(ctx, tenantID, status, limit, offset)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"expenses": expenses, "limit": limit, "offset": offset})
}

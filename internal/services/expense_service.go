package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"freightdesk/internal/common"
	"freightdesk/internal/models"
	"freightdesk/internal/repositories"

	"github.com/google/uuid"
)

var expenseCategories = map[string]bool{
	"fuel":        true,
	"toll":        true,
	"maintenance": true,
	"lodging":     true,
	"other":       true,
}

// ExpenseServiceInterface defines the interface for expense service operations
type ExpenseServiceInterface interface {
	SubmitExpense(ctx context.Context, tenantID, driverID uuid.UUID, expense *models.Expense) error
	GetExpenseByID(ctx context.Context, tenantID, expenseID uuid.UUID) (*models.Expense, error)
	ReviewExpense(ctx context.Context, tenantID, expenseID uuid.UUID, status string, rejectionReason *string) (*models.Expense, error)
	ListByDriver(ctx context.Context, tenantID, driverID uuid.UUID, limit, offset int) ([]*models.Expense, error)
	ListByStatus(ctx context.Context, tenantID uuid.UUID, status string, limit, offset int) ([]*models.Expense, error)
}

type expenseService struct {
	expenseRepo repositories.ExpenseRepository
	distributor TaskDistributor
}

// NewExpenseService creates a new expense service instance
func NewExpenseService(expenseRepo repositories.ExpenseRepository, distributor TaskDistributor) ExpenseServiceInterface {
	return &expenseService{
		expenseRepo: expenseRepo,
		distributor: distributor,
	}
}

// SubmitExpense files a new driver expense in pending status.
func (s *expenseService) SubmitExpense(ctx context.Context, tenantID, driverID uuid.UUID, expense *models.Expense) error {
	if !expenseCategories[expense.Category] {
		return fmt.Errorf("invalid expense category: %s", expense.Category)
	}
	if err := common.ValidatePositiveFloat(expense.Amount, "amount", 1_000_000); err != nil {
		return err
	}

	if expense.ID == uuid.Nil {
		expense.ID = uuid.New()
	}
	expense.TenantID = tenantID
	expense.DriverID = driverID
	expense.Status = models.ExpenseStatusPending
	expense.RejectionReason = nil
	if expense.Currency == "" {
		expense.Currency = "USD"
	}
	now := time.Now()
	expense.CreatedAt = now
	expense.UpdatedAt = now

	return s.expenseRepo.Create(ctx, expense)
}

// GetExpenseByID retrieves an expense by ID
func (s *expenseService) GetExpenseByID(ctx context.Context, tenantID, expenseID uuid.UUID) (*models.Expense, error) {
	return s.expenseRepo.GetByID(ctx, tenantID, expenseID)
}

// ReviewExpense approves or rejects a pending expense. Rejection requires a
// reason; approval must not carry one.
func (s *expenseService) ReviewExpense(ctx context.Context, tenantID, expenseID uuid.UUID, status string, rejectionReason *string) (*models.Expense, error) {
	switch status {
	case models.ExpenseStatusApproved:
		if rejectionReason != nil && *rejectionReason != "" {
			return nil, fmt.Errorf("rejection reason is only valid when rejecting")
		}
		rejectionReason = nil
	case models.ExpenseStatusRejected:
		if rejectionReason == nil || *rejectionReason == "" {
			return nil, fmt.Errorf("rejection reason is required when rejecting")
		}
	default:
		return nil, fmt.Errorf("invalid review status: %s", status)
	}

	expense, err := s.expenseRepo.GetByID(ctx, tenantID, expenseID)
	if err != nil {
		return nil, err
	}
	if expense.Status != models.ExpenseStatusPending {
		return nil, fmt.Errorf("expense already reviewed: %s", expense.Status)
	}

	if err := s.expenseRepo.UpdateStatus(ctx, tenantID, expenseID, status, rejectionReason); err != nil {
		return nil, err
	}

	if s.distributor != nil {
		if err := s.distributor.EnqueueLoadEvent(ctx, tenantID, expenseID, "expense_status", []uuid.UUID{expense.DriverID}); err != nil {
			log.Printf("Failed to enqueue expense notification %s: %v", expenseID, err)
		}
	}

	return s.expenseRepo.GetByID(ctx, tenantID, expenseID)
}

// ListByDriver lists a driver's expenses with pagination.
func (s *expenseService) ListByDriver(ctx context.Context, tenantID, driverID uuid.UUID, limit, offset int) ([]*models.Expense, error) {
	limit, offset, err := common.ValidatePaginationParams(limit, offset)
	if err != nil {
		return nil, err
	}
	return s.expenseRepo.ListByDriver(ctx, tenantID, driverID, limit, offset)
}

// ListByStatus lists tenant expenses in a given status with pagination.
func (s *expenseService) ListByStatus(ctx context.Context, tenantID uuid.UUID, status string, limit, offset int) ([]*models.Expense, error) {
	if !models.ValidExpenseStatus(status) {
		return nil, fmt.Errorf("invalid expense status: %s", status)
	}
	limit, offset, err := common.ValidatePaginationParams(limit, offset)
	if err != nil {
		return nil, err
	}
	return s.expenseRepo.ListByStatus(ctx, tenantID, status, limit, offset)
}

package repositories

import (
	"context"
	"errors"
	"fmt"

	"freightdesk/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrExpenseNotFound is returned when no expense row matches the lookup.
var ErrExpenseNotFound = errors.New("expense: not found")

type ExpenseRepository interface {
	Create(ctx context.Context, expense *models.Expense) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Expense, error)
	UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status string, rejectionReason *string) error
	ListByDriver(ctx context.Context, tenantID, driverID uuid.UUID, limit, offset int) ([]*models.Expense, error)
	ListByStatus(ctx context.Context, tenantID uuid.UUID, status string, limit, offset int) ([]*models.Expense, error)
}

type expenseRepo struct {
	db Database
}

func NewExpenseRepo(db Database) ExpenseRepository {
	return &expenseRepo{db: db}
}

const expenseColumns = `id, tenant_id, driver_id, load_id, category, amount, currency, status, rejection_reason, receipt_key, notes, created_at, updated_at`

func scanExpense(row pgx.Row) (*models.Expense, error) {
	e := &models.Expense{}
	err := row.Scan(&e.ID, &e.TenantID, &e.DriverID, &e.LoadID, &e.Category, &e.Amount, &e.Currency, &e.Status, &e.RejectionReason, &e.ReceiptKey, &e.Notes, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExpenseNotFound
		}
		return nil, fmt.Errorf("expense: scan: %w", err)
	}
	return e, nil
}

func (r *expenseRepo) Create(ctx context.Context, expense *models.Expense) error {
	query := `
		INSERT INTO expenses (id, tenant_id, driver_id, load_id, category, amount, currency, status, rejection_reason, receipt_key, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
	`
	if _, err := r.db.Exec(ctx, query, expense.ID, expense.TenantID, expense.DriverID, expense.LoadID, expense.Category, expense.Amount, expense.Currency, expense.Status, expense.RejectionReason, expense.ReceiptKey, expense.Notes); err != nil {
		return fmt.Errorf("expense: insert: %w", err)
	}
	return nil
}

func (r *expenseRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE tenant_id = $1 AND id = $2`
	return scanExpense(r.db.QueryRow(ctx, query, tenantID, id))
}

func (r *expenseRepo) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status string, rejectionReason *string) error {
	query := `
		UPDATE expenses
		SET status = $1, rejection_reason = $2, updated_at = NOW()
		WHERE tenant_id = $3 AND id = $4
	`
	tag, err := r.db.Exec(ctx, query, status, rejectionReason, tenantID, id)
	if err != nil {
		return fmt.Errorf("expense: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrExpenseNotFound
	}
	return nil
}

func (r *expenseRepo) ListByDriver(ctx context.Context, tenantID, driverID uuid.UUID, limit, offset int) ([]*models.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE tenant_id = $1 AND driver_id = $2 ORDER BY created_at DESC LIMIT $3 OFFSET $4`
	return r.queryExpenses(ctx, query, tenantID, driverID, limit, offset)
}

func (r *expenseRepo) ListByStatus(ctx context.Context, tenantID uuid.UUID, status string, limit, offset int) ([]*models.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE tenant_id = $1 AND status = $2 ORDER BY created_at DESC LIMIT $3 OFFSET $4`
	return r.queryExpenses(ctx, query, tenantID, status, limit, offset)
}

func (r *expenseRepo) queryExpenses(ctx context.Context, query string, args ...interface{}) ([]*models.Expense, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("expense: list: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, expense)
	}
	return expenses, rows.Err()
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Expense statuses.
const (
	ExpenseStatusPending  = "pending"
	ExpenseStatusApproved = "approved"
	ExpenseStatusRejected = "rejected"
)

type Expense struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	TenantID        uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	DriverID        uuid.UUID  `json:"driver_id" db:"driver_id"`
	LoadID          *uuid.UUID `json:"load_id" db:"load_id"`
	Category        string     `json:"category" db:"category"` // fuel, toll, maintenance, lodging, other
	Amount          float64    `json:"amount" db:"amount"`
	Currency        string     `json:"currency" db:"currency"`
	Status          string     `json:"status" db:"status"`
	RejectionReason *string    `json:"rejection_reason" db:"rejection_reason"`
	ReceiptKey      *string    `json:"receipt_key" db:"receipt_key"`
	Notes           *string    `json:"notes" db:"notes"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// ValidExpenseStatus reports whether s is a member of the expense status enumeration.
func ValidExpenseStatus(s string) bool {
	switch s {
	case ExpenseStatusPending, ExpenseStatusApproved, ExpenseStatusRejected:
		return true
	}
	return false
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification kinds.
const (
	NotificationLoadAssigned  = "load_assigned"
	NotificationLoadStatus    = "load_status"
	NotificationExpenseStatus = "expense_status"
	NotificationDVIRDefect    = "dvir_defect"
)

// Notification is an in-app message delivered to one user.
type Notification struct {
	ID        uuid.UUID `json:"id" db:"id"`
	TenantID  uuid.UUID `json:"tenant_id" db:"tenant_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Kind      string    `json:"kind" db:"kind"`
	Title     string    `json:"title" db:"title"`
	Body      string    `json:"body" db:"body"`
	IsRead    bool      `json:"is_read" db:"is_read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of roles a user can hold. Authorization is a
// set-membership check against a route's allow-list, never a raw string
// comparison scattered through handlers.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleDispatcher Role = "dispatcher"
	RoleDriver     Role = "driver"
	RoleCustomer   Role = "customer"
	RoleWarehouse  Role = "warehouse"
)

// Valid reports whether r is a member of the role enumeration.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDispatcher, RoleDriver, RoleCustomer, RoleWarehouse:
		return true
	}
	return false
}

type User struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	TenantID         uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	Email            string     `json:"email" db:"email"`
	PasswordHash     string     `json:"-" db:"password_hash"` // Never serialize in JSON
	FirstName        string     `json:"first_name" db:"first_name"`
	LastName         string     `json:"last_name" db:"last_name"`
	Role             Role       `json:"role" db:"role"`
	IsAvailable      bool       `json:"is_available" db:"is_available"`
	CurrentLoadID    *uuid.UUID `json:"current_load_id" db:"current_load_id"`
	StripeCustomerID *string    `json:"-" db:"stripe_customer_id"`
	Status           string     `json:"status" db:"status"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

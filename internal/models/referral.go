package models

import (
	"time"

	"github.com/google/uuid"
)

// ReferralCode is a per-user invite code. One code per user; repeat requests
// return the existing code.
type ReferralCode struct {
	ID        uuid.UUID `json:"id" db:"id"`
	TenantID  uuid.UUID `json:"tenant_id" db:"tenant_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Code      string    `json:"code" db:"code"`
	Uses      int       `json:"uses" db:"uses"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

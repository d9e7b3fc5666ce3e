package models

import (
	"time"

	"github.com/google/uuid"
)

// Vehicle statuses.
const (
	VehicleStatusActive      = "active"
	VehicleStatusInTrip      = "in_trip"
	VehicleStatusMaintenance = "maintenance"
	VehicleStatusRetired     = "retired"
)

type Vehicle struct {
	ID          uuid.UUID `json:"id" db:"id"`
	TenantID    uuid.UUID `json:"tenant_id" db:"tenant_id"`
	UnitNumber  string    `json:"unit_number" db:"unit_number"`
	Make        string    `json:"make" db:"make"`
	Model       string    `json:"model" db:"model"`
	Year        int       `json:"year" db:"year"`
	VehicleType string    `json:"vehicle_type" db:"vehicle_type"` // truck, van, reefer, flatbed
	PlateNumber *string   `json:"plate_number" db:"plate_number"`
	Status      string    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// ValidVehicleStatus reports whether s is a member of the vehicle status enumeration.
func ValidVehicleStatus(s string) bool {
	switch s {
	case VehicleStatusActive, VehicleStatusInTrip, VehicleStatusMaintenance, VehicleStatusRetired:
		return true
	}
	return false
}

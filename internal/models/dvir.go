package models

import (
	"time"

	"github.com/google/uuid"
)

// DVIR inspection types.
const (
	InspectionPreTrip  = "pre_trip"
	InspectionPostTrip = "post_trip"
)

// DVIRDefect is one flagged item on a driver vehicle inspection report.
type DVIRDefect struct {
	Component string `json:"component"` // brakes, tires, lights, coupling, ...
	Severity  string `json:"severity"`  // minor, major, out_of_service
	Notes     string `json:"notes,omitempty"`
}

// DVIRReport is a driver vehicle inspection report. Reports are immutable
// once submitted; corrections are filed as new reports.
type DVIRReport struct {
	ID             uuid.UUID    `json:"id" db:"id"`
	TenantID       uuid.UUID    `json:"tenant_id" db:"tenant_id"`
	DriverID       uuid.UUID    `json:"driver_id" db:"driver_id"`
	VehicleID      uuid.UUID    `json:"vehicle_id" db:"vehicle_id"`
	InspectionType string       `json:"inspection_type" db:"inspection_type"`
	Defects        []DVIRDefect `json:"defects" db:"defects"`
	SafeToOperate  bool         `json:"safe_to_operate" db:"safe_to_operate"`
	Odometer       *int         `json:"odometer" db:"odometer"`
	Notes          *string      `json:"notes" db:"notes"`
	CreatedAt      time.Time    `json:"created_at" db:"created_at"`
}

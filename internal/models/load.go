package models

import (
	"time"

	"github.com/google/uuid"
)

// Load statuses. A load moves forward through these; cancelled is reachable
// from any non-terminal status.
const (
	LoadStatusPending         = "pending"
	LoadStatusAssigned        = "assigned"
	LoadStatusEnRoutePickup   = "en_route_pickup"
	LoadStatusAtPickup        = "at_pickup"
	LoadStatusLoaded          = "loaded"
	LoadStatusEnRouteDelivery = "en_route_delivery"
	LoadStatusAtDelivery      = "at_delivery"
	LoadStatusDelivered       = "delivered"
	LoadStatusCompleted       = "completed"
	LoadStatusCancelled       = "cancelled"
)

// Stop kinds and statuses.
const (
	StopKindPickup   = "pickup"
	StopKindDelivery = "delivery"

	StopStatusPending   = "pending"
	StopStatusArrived   = "arrived"
	StopStatusCompleted = "completed"
	StopStatusSkipped   = "skipped"
)

type Load struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	TenantID         uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	Reference        string     `json:"reference" db:"reference"`
	Status           string     `json:"status" db:"status"`
	AssignedDriverID *uuid.UUID `json:"assigned_driver_id" db:"assigned_driver_id"`
	VehicleID        *uuid.UUID `json:"vehicle_id" db:"vehicle_id"`
	RateAmount       float64    `json:"rate_amount" db:"rate_amount"`
	Currency         string     `json:"currency" db:"currency"`
	Notes            *string    `json:"notes" db:"notes"`
	Stops            []*Stop    `json:"stops,omitempty" db:"-"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

type Stop struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	TenantID    uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	LoadID      uuid.UUID  `json:"load_id" db:"load_id"`
	Seq         int        `json:"seq" db:"seq"`
	Kind        string     `json:"kind" db:"kind"`
	Status      string     `json:"status" db:"status"`
	Address     string     `json:"address" db:"address"`
	WindowStart *time.Time `json:"window_start" db:"window_start"`
	WindowEnd   *time.Time `json:"window_end" db:"window_end"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// StatusHistoryEntry is one row of a load's append-only audit trail. Rows are
// only ever inserted, never updated or deleted.
type StatusHistoryEntry struct {
	ID        int64      `json:"id" db:"id"`
	TenantID  uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	LoadID    uuid.UUID  `json:"load_id" db:"load_id"`
	Status    string     `json:"status" db:"status"`
	ActorID   *uuid.UUID `json:"actor_id" db:"actor_id"`
	Notes     *string    `json:"notes" db:"notes"`
	Location  *string    `json:"location" db:"location"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// LoadDocument references a file stored in object storage for a load
// (rate confirmation, bill of lading, proof of delivery).
type LoadDocument struct {
	ID          uuid.UUID `json:"id" db:"id"`
	TenantID    uuid.UUID `json:"tenant_id" db:"tenant_id"`
	LoadID      uuid.UUID `json:"load_id" db:"load_id"`
	Name        string    `json:"name" db:"name"`
	ContentType string    `json:"content_type" db:"content_type"`
	ObjectKey   string    `json:"object_key" db:"object_key"`
	UploadedBy  uuid.UUID `json:"uploaded_by" db:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// LoadSearchFilter holds filter criteria for load list queries
type LoadSearchFilter struct {
	Status   *string    `json:"status,omitempty"`
	DriverID *uuid.UUID `json:"driver_id,omitempty"`
	Limit    int        `json:"limit,omitempty"`
	Offset   int        `json:"offset,omitempty"`
}

// ValidLoadStatus reports whether s is a member of the load status enumeration.
func ValidLoadStatus(s string) bool {
	switch s {
	case LoadStatusPending, LoadStatusAssigned, LoadStatusEnRoutePickup,
		LoadStatusAtPickup, LoadStatusLoaded, LoadStatusEnRouteDelivery,
		LoadStatusAtDelivery, LoadStatusDelivered, LoadStatusCompleted,
		LoadStatusCancelled:
		return true
	}
	return false
}

// ValidStopStatus reports whether s is a member of the stop status enumeration.
func ValidStopStatus(s string) bool {
	switch s {
	case StopStatusPending, StopStatusArrived, StopStatusCompleted, StopStatusSkipped:
		return true
	}
	return false
}

// loadTransitions maps each status to the statuses a load may move to next.
var loadTransitions = map[string][]string{
	LoadStatusPending:         {LoadStatusAssigned, LoadStatusCancelled},
	LoadStatusAssigned:        {LoadStatusEnRoutePickup, LoadStatusCancelled},
	LoadStatusEnRoutePickup:   {LoadStatusAtPickup, LoadStatusCancelled},
	LoadStatusAtPickup:        {LoadStatusLoaded, LoadStatusCancelled},
	LoadStatusLoaded:          {LoadStatusEnRouteDelivery, LoadStatusCancelled},
	LoadStatusEnRouteDelivery: {LoadStatusAtDelivery, LoadStatusCancelled},
	LoadStatusAtDelivery:      {LoadStatusDelivered, LoadStatusCancelled},
	LoadStatusDelivered:       {LoadStatusCompleted},
	LoadStatusCompleted:       {},
	LoadStatusCancelled:       {},
}

// CanTransition reports whether a load may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range loadTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

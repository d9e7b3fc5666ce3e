package services

import (
	"context"
	"fmt"
	"time"

	"freightdesk/internal/common"
	"freightdesk/internal/models"
	"freightdesk/internal/repositories"

	"github.com/google/uuid"
)

// VehicleServiceInterface defines the interface for vehicle service operations
type VehicleServiceInterface interface {
	CreateVehicle(ctx context.Context, tenantID uuid.UUID, vehicle *models.Vehicle) error
	GetVehicleByID(ctx context.Context, tenantID, vehicleID uuid.UUID) (*models.Vehicle, error)
	UpdateVehicle(ctx context.Context, tenantID uuid.UUID, vehicle *models.Vehicle) error
	ListVehicles(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Vehicle, error)
}

type vehicleService struct {
	vehicleRepo repositories.VehicleRepository
}

// NewVehicleService creates a new vehicle service instance
func NewVehicleService(vehicleRepo repositories.VehicleRepository) VehicleServiceInterface {
	return &vehicleService{vehicleRepo: vehicleRepo}
}

// CreateVehicle validates and persists a new vehicle.
func (s *vehicleService) CreateVehicle(ctx context.Context, tenantID uuid.UUID, vehicle *models.Vehicle) error {
	if err := common.ValidateRequiredString(vehicle.UnitNumber, "unit number"); err != nil {
		return err
	}
	if vehicle.Year != 0 && (vehicle.Year < 1980 || vehicle.Year > time.Now().Year()+1) {
		return fmt.Errorf("implausible vehicle year: %d", vehicle.Year)
	}

	if vehicle.ID == uuid.Nil {
		vehicle.ID = uuid.New()
	}
	vehicle.TenantID = tenantID
	if vehicle.Status == "" {
		vehicle.Status = models.VehicleStatusActive
	}
	if !models.ValidVehicleStatus(vehicle.Status) {
		return fmt.Errorf("invalid vehicle status: %s", vehicle.Status)
	}
	now := time.Now()
	vehicle.CreatedAt = now
	vehicle.UpdatedAt = now

	return s.vehicleRepo.Create(ctx, vehicle)
}

// GetVehicleByID retrieves a vehicle by ID
func (s *vehicleService) GetVehicleByID(ctx context.Context, tenantID, vehicleID uuid.UUID) (*models.Vehicle, error) {
	return s.vehicleRepo.GetByID(ctx, tenantID, vehicleID)
}

// UpdateVehicle validates and updates an existing vehicle.
func (s *vehicleService) UpdateVehicle(ctx context.Context, tenantID uuid.UUID, vehicle *models.Vehicle) error {
	if err := common.ValidateRequiredString(vehicle.UnitNumber, "unit number"); err != nil {
		return err
	}
	if !models.ValidVehicleStatus(vehicle.Status) {
		return fmt.Errorf("invalid vehicle status: %s", vehicle.Status)
	}

	vehicle.TenantID = tenantID
	vehicle.UpdatedAt = time.Now()
	return s.vehicleRepo.Update(ctx, vehicle)
}

// ListVehicles lists vehicles with pagination
func (s *vehicleService) ListVehicles(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Vehicle, error) {
	limit, offset, err := common.ValidatePaginationParams(limit, offset)
	if err != nil {
		return nil, err
	}
	return s.vehicleRepo.List(ctx, tenantID, limit, offset)
}

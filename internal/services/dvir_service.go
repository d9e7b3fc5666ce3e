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

var dvirSeverities = map[string]bool{
	"minor":          true,
	"major":          true,
	"out_of_service": true,
}

// DVIRServiceInterface defines the interface for inspection report operations
type DVIRServiceInterface interface {
	SubmitReport(ctx context.Context, tenantID, driverID uuid.UUID, report *models.DVIRReport) error
	GetReportByID(ctx context.Context, tenantID, reportID uuid.UUID) (*models.DVIRReport, error)
	ListByVehicle(ctx context.Context, tenantID, vehicleID uuid.UUID, limit, offset int) ([]*models.DVIRReport, error)
	ListByDriver(ctx context.Context, tenantID, driverID uuid.UUID, limit, offset int) ([]*models.DVIRReport, error)
}

type dvirService struct {
	dvirRepo    repositories.DVIRRepository
	vehicleRepo repositories.VehicleRepository
	userRepo    repositories.UserRepository
	distributor TaskDistributor
}

// NewDVIRService creates a new inspection report service instance
func NewDVIRService(dvirRepo repositories.DVIRRepository, vehicleRepo repositories.VehicleRepository, userRepo repositories.UserRepository, distributor TaskDistributor) DVIRServiceInterface {
	return &dvirService{
		dvirRepo:    dvirRepo,
		vehicleRepo: vehicleRepo,
		userRepo:    userRepo,
		distributor: distributor,
	}
}

// SubmitReport validates and persists an inspection report. A vehicle with
// an out_of_service defect is moved to maintenance status; admins are
// notified of any unsafe report.
func (s *dvirService) SubmitReport(ctx context.Context, tenantID, driverID uuid.UUID, report *models.DVIRReport) error {
	if report.InspectionType != models.InspectionPreTrip && report.InspectionType != models.InspectionPostTrip {
		return fmt.Errorf("invalid inspection type: %s", report.InspectionType)
	}
	if report.VehicleID == uuid.Nil {
		return fmt.Errorf("vehicle ID is required")
	}
	for _, defect := range report.Defects {
		if err := common.ValidateRequiredString(defect.Component, "defect component"); err != nil {
			return err
		}
		if !dvirSeverities[defect.Severity] {
			return fmt.Errorf("invalid defect severity: %s", defect.Severity)
		}
	}

	vehicle, err := s.vehicleRepo.GetByID(ctx, tenantID, report.VehicleID)
	if err != nil {
		return err
	}

	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	report.TenantID = tenantID
	report.DriverID = driverID
	report.CreatedAt = time.Now()

	if err := s.dvirRepo.Create(ctx, report); err != nil {
		return err
	}

	if s.hasOutOfServiceDefect(report) {
		vehicle.Status = models.VehicleStatusMaintenance
		vehicle.UpdatedAt = time.Now()
		if err := s.vehicleRepo.Update(ctx, vehicle); err != nil {
			log.Printf("Failed to sideline vehicle %s after unsafe inspection: %v", vehicle.ID, err)
		}
	}

	if !report.SafeToOperate && s.distributor != nil {
		admins, err := s.userRepo.List(ctx, tenantID, 100, 0)
		if err != nil {
			log.Printf("Failed to list users for defect notification: %v", err)
			return nil
		}
		var adminIDs []uuid.UUID
		for _, u := range admins {
			if u.Role == models.RoleAdmin {
				adminIDs = append(adminIDs, u.ID)
			}
		}
		if len(adminIDs) > 0 {
			if err := s.distributor.EnqueueLoadEvent(ctx, tenantID, report.ID, "dvir_defect", adminIDs); err != nil {
				log.Printf("Failed to enqueue defect notification for report %s: %v", report.ID, err)
			}
		}
	}

	return nil
}

// GetReportByID retrieves an inspection report by ID
func (s *dvirService) GetReportByID(ctx context.Context, tenantID, reportID uuid.UUID) (*models.DVIRReport, error) {
	return s.dvirRepo.GetByID(ctx, tenantID, reportID)
}

// ListByVehicle lists a vehicle's inspection reports with pagination.
func (s *dvirService) ListByVehicle(ctx context.Context, tenantID, vehicleID uuid.UUID, limit, offset int) ([]*models.DVIRReport, error) {
	limit, offset, err := common.ValidatePaginationParams(limit, offset)
	if err != nil {
		return nil, err
	}
	return s.dvirRepo.ListByVehicle(ctx, tenantID, vehicleID, limit, offset)
}

// ListByDriver lists a driver's inspection reports with pagination.
func (s *dvirService) ListByDriver(ctx context.Context, tenantID, driverID uuid.UUID, limit, offset int) ([]*models.DVIRReport, error) {
	limit, offset, err := common.ValidatePaginationParams(limit, offset)
	if err != nil {
		return nil, err
	}
	return s.dvirRepo.ListByDriver(ctx, tenantID, driverID, limit, offset)
}

func (s *dvirService) hasOutOfServiceDefect(report *models.DVIRReport) bool {
	for _, defect := range report.Defects {
		if defect.Severity == "out_of_service" {
			return true
		}
	}
	return false
}

package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"freightdesk/internal/caching"
	"freightdesk/internal/common"
	"freightdesk/internal/models"
	"freightdesk/internal/repositories"

	"github.com/google/uuid"
)

const loadCacheTTL = 5 * time.Minute

// TaskDistributor enqueues background work triggered by load events.
// Implemented over asynq in the jobs package.
type TaskDistributor interface {
	EnqueueRateConfirmation(ctx context.Context, tenantID, loadID uuid.UUID) error
	EnqueueLoadEvent(ctx context.Context, tenantID, loadID uuid.UUID, event string, recipientIDs []uuid.UUID) error
}

// LoadServiceInterface defines the interface for load service operations
type LoadServiceInterface interface {
	CreateLoad(ctx context.Context, tenantID uuid.UUID, load *models.Load) error
	GetLoadByID(ctx context.Context, tenantID, loadID uuid.UUID) (*models.Load, error)
	ListLoads(ctx context.Context, tenantID uuid.UUID, filter *models.LoadSearchFilter) ([]*models.Load, error)
	AssignDriver(ctx context.Context, tenantID, loadID, driverID, actorID uuid.UUID) (*models.Load, error)
	UpdateStatus(ctx context.Context, params repositories.UpdateStatusParams) (*models.Load, error)
	GetStatusHistory(ctx context.Context, tenantID, loadID uuid.UUID) ([]*models.StatusHistoryEntry, error)
	AddDocument(ctx context.Context, doc *models.LoadDocument) error
	ListDocuments(ctx context.Context, tenantID, loadID uuid.UUID) ([]*models.LoadDocument, error)
}

type loadService struct {
	loadRepo    repositories.LoadRepository
	userRepo    repositories.UserRepository
	cacheSvc    caching.CacheService
	distributor TaskDistributor
}

// NewLoadService creates a new load service instance
func NewLoadService(loadRepo repositories.LoadRepository, userRepo repositories.UserRepository, cacheSvc caching.CacheService, distributor TaskDistributor) LoadServiceInterface {
	return &loadService{
		loadRepo:    loadRepo,
		userRepo:    userRepo,
		cacheSvc:    cacheSvc,
		distributor: distributor,
	}
}

// CreateLoad validates and persists a new load with its stops. New loads
// always start in pending regardless of what the caller sent.
func (s *loadService) CreateLoad(ctx context.Context, tenantID uuid.UUID, load *models.Load) error {
	if err := common.ValidateRequiredString(load.Reference, "reference"); err != nil {
		return err
	}
	if load.RateAmount < 0 {
		return fmt.Errorf("rate amount cannot be negative")
	}
	if len(load.Stops) == 0 {
		return fmt.Errorf("a load requires at least one stop")
	}
	for _, stop := range load.Stops {
		if stop.Kind != models.StopKindPickup && stop.Kind != models.StopKindDelivery {
			return fmt.Errorf("invalid stop kind: %s", stop.Kind)
		}
		if err := common.ValidateRequiredString(stop.Address, "stop address"); err != nil {
			return err
		}
	}

	if load.ID == uuid.Nil {
		load.ID = uuid.New()
	}
	load.TenantID = tenantID
	load.Status = models.LoadStatusPending
	load.AssignedDriverID = nil
	if load.Currency == "" {
		load.Currency = "USD"
	}
	now := time.Now()
	load.CreatedAt = now
	load.UpdatedAt = now

	for i, stop := range load.Stops {
		if stop.ID == uuid.Nil {
			stop.ID = uuid.New()
		}
		stop.TenantID = tenantID
		stop.LoadID = load.ID
		stop.Seq = i + 1
		stop.Status = models.StopStatusPending
		stop.UpdatedAt = now
	}

	return s.loadRepo.Create(ctx, load)
}

// GetLoadByID retrieves a load, trying the cache first.
func (s *loadService) GetLoadByID(ctx context.Context, tenantID, loadID uuid.UUID) (*models.Load, error) {
	if cached, err := s.cacheSvc.GetLoad(ctx, tenantID, loadID); err == nil {
		return cached, nil
	}

	load, err := s.loadRepo.GetByID(ctx, tenantID, loadID)
	if err != nil {
		return nil, err
	}

	if err := s.cacheSvc.SetLoad(ctx, tenantID, load, loadCacheTTL); err != nil {
		log.Printf("Failed to cache load %s: %v", loadID, err)
	}
	return load, nil
}

// ListLoads lists loads matching the filter.
func (s *loadService) ListLoads(ctx context.Context, tenantID uuid.UUID, filter *models.LoadSearchFilter) ([]*models.Load, error) {
	return s.loadRepo.List(ctx, tenantID, filter)
}

// AssignDriver assigns a driver to a pending load. The repository runs the
// whole assignment in one transaction; on success the load cache is
// invalidated and rate confirmation plus notification tasks are enqueued.
func (s *loadService) AssignDriver(ctx context.Context, tenantID, loadID, driverID, actorID uuid.UUID) (*models.Load, error) {
	err := s.loadRepo.AssignDriver(ctx, repositories.AssignDriverParams{
		TenantID: tenantID,
		LoadID:   loadID,
		DriverID: driverID,
		ActorID:  actorID,
	})
	if err != nil {
		return nil, err
	}

	s.invalidateLoad(ctx, tenantID, loadID)
	if err := s.cacheSvc.DeleteDriver(ctx, tenantID, driverID); err != nil {
		log.Printf("Failed to invalidate driver cache %s: %v", driverID, err)
	}

	if s.distributor != nil {
		if err := s.distributor.EnqueueRateConfirmation(ctx, tenantID, loadID); err != nil {
			log.Printf("Failed to enqueue rate confirmation for load %s: %v", loadID, err)
		}
		if err := s.distributor.EnqueueLoadEvent(ctx, tenantID, loadID, "load_assigned", []uuid.UUID{driverID}); err != nil {
			log.Printf("Failed to enqueue assignment notification for load %s: %v", loadID, err)
		}
	}

	return s.loadRepo.GetByID(ctx, tenantID, loadID)
}

// UpdateStatus advances a load through its lifecycle. Enum membership is
// checked here; transition legality and actor checks run inside the
// repository transaction against the current row.
func (s *loadService) UpdateStatus(ctx context.Context, params repositories.UpdateStatusParams) (*models.Load, error) {
	if !models.ValidLoadStatus(params.Status) {
		return nil, fmt.Errorf("invalid load status: %s", params.Status)
	}
	if params.StopStatus != nil && !models.ValidStopStatus(*params.StopStatus) {
		return nil, fmt.Errorf("invalid stop status: %s", *params.StopStatus)
	}
	if params.StopStatus != nil && params.StopID == nil {
		return nil, fmt.Errorf("stop status requires a stop id")
	}

	if err := s.loadRepo.UpdateStatus(ctx, params); err != nil {
		return nil, err
	}

	s.invalidateLoad(ctx, params.TenantID, params.LoadID)

	load, err := s.loadRepo.GetByID(ctx, params.TenantID, params.LoadID)
	if err != nil {
		return nil, err
	}

	if s.distributor != nil && load.AssignedDriverID != nil {
		if err := s.distributor.EnqueueLoadEvent(ctx, params.TenantID, params.LoadID, "load_status", []uuid.UUID{*load.AssignedDriverID}); err != nil {
			log.Printf("Failed to enqueue status notification for load %s: %v", params.LoadID, err)
		}
	}

	return load, nil
}

// GetStatusHistory returns the load's append-only status trail, oldest first.
func (s *loadService) GetStatusHistory(ctx context.Context, tenantID, loadID uuid.UUID) ([]*models.StatusHistoryEntry, error) {
	return s.loadRepo.ListHistory(ctx, tenantID, loadID)
}

// AddDocument records a document reference for a load.
func (s *loadService) AddDocument(ctx context.Context, doc *models.LoadDocument) error {
	if err := common.ValidateRequiredString(doc.Name, "document name"); err != nil {
		return err
	}
	if err := common.ValidateRequiredString(doc.ObjectKey, "object key"); err != nil {
		return err
	}
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	doc.CreatedAt = time.Now()
	return s.loadRepo.AddDocument(ctx, doc)
}

// ListDocuments lists document references for a load.
func (s *loadService) ListDocuments(ctx context.Context, tenantID, loadID uuid.UUID) ([]*models.LoadDocument, error) {
	return s.loadRepo.ListDocuments(ctx, tenantID, loadID)
}

func (s *loadService) invalidateLoad(ctx context.Context, tenantID, loadID uuid.UUID) {
	if err := s.cacheSvc.DeleteLoad(ctx, tenantID, loadID); err != nil {
		log.Printf("Failed to invalidate load cache %s: %v", loadID, err)
	}
}

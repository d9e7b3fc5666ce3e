package services

import (
	"context"
	"testing"
	"time"

	"freightdesk/internal/caching"
	"freightdesk/internal/models"
	"freightdesk/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// Mock repositories and services
type MockLoadRepository struct {
	mock.Mock
}

func (m *MockLoadRepository) Create(ctx context.Context, load *models.Load) error {
	args := m.Called(ctx, load)
	return args.Error(0)
}

func (m *MockLoadRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Load, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Load), args.Error(1)
}

func (m *MockLoadRepository) List(ctx context.Context, tenantID uuid.UUID, filter *models.LoadSearchFilter) ([]*models.Load, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]*models.Load), args.Error(1)
}

func (m *MockLoadRepository) ListStops(ctx context.Context, tenantID, loadID uuid.UUID) ([]*models.Stop, error) {
	args := m.Called(ctx, tenantID, loadID)
	return args.Get(0).([]*models.Stop), args.Error(1)
}

func (m *MockLoadRepository) ListHistory(ctx context.Context, tenantID, loadID uuid.UUID) ([]*models.StatusHistoryEntry, error) {
	args := m.Called(ctx, tenantID, loadID)
	return args.Get(0).([]*models.StatusHistoryEntry), args.Error(1)
}

func (m *MockLoadRepository) AssignDriver(ctx context.Context, params repositories.AssignDriverParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func (m *MockLoadRepository) UpdateStatus(ctx context.Context, params repositories.UpdateStatusParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func (m *MockLoadRepository) AddDocument(ctx context.Context, doc *models.LoadDocument) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockLoadRepository) ListDocuments(ctx context.Context, tenantID, loadID uuid.UUID) ([]*models.LoadDocument, error) {
	args := m.Called(ctx, tenantID, loadID)
	return args.Get(0).([]*models.LoadDocument), args.Error(1)
}

func (m *MockLoadRepository) ListStaleInTransit(ctx context.Context, olderThan time.Time, limit int) ([]*models.Load, error) {
	args := m.Called(ctx, olderThan, limit)
	return args.Get(0).([]*models.Load), args.Error(1)
}

type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) GetLoad(ctx context.Context, tenantID, loadID uuid.UUID) (*models.Load, error) {
	args := m.Called(ctx, tenantID, loadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Load), args.Error(1)
}

func (m *MockCacheService) SetLoad(ctx context.Context, tenantID uuid.UUID, load *models.Load, ttl time.Duration) error {
	args := m.Called(ctx, tenantID, load, ttl)
	return args.Error(0)
}

func (m *MockCacheService) DeleteLoad(ctx context.Context, tenantID, loadID uuid.UUID) error {
	args := m.Called(ctx, tenantID, loadID)
	return args.Error(0)
}

func (m *MockCacheService) GetDriver(ctx context.Context, tenantID, driverID uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, tenantID, driverID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockCacheService) SetDriver(ctx context.Context, tenantID uuid.UUID, driver *models.User, ttl time.Duration) error {
	args := m.Called(ctx, tenantID, driver, ttl)
	return args.Error(0)
}

func (m *MockCacheService) DeleteDriver(ctx context.Context, tenantID, driverID uuid.UUID) error {
	args := m.Called(ctx, tenantID, driverID)
	return args.Error(0)
}

func (m *MockCacheService) MarkEventProcessed(ctx context.Context, eventID string, window time.Duration) (bool, error) {
	args := m.Called(ctx, eventID, window)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheService) ClearEvent(ctx context.Context, eventID string) error {
	args := m.Called(ctx, eventID)
	return args.Error(0)
}

func (m *MockCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheService) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCacheService) GetString(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCacheService) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type MockTaskDistributor struct {
	mock.Mock
}

func (m *MockTaskDistributor) EnqueueRateConfirmation(ctx context.Context, tenantID, loadID uuid.UUID) error {
	args := m.Called(ctx, tenantID, loadID)
	return args.Error(0)
}

func (m *MockTaskDistributor) EnqueueLoadEvent(ctx context.Context, tenantID, loadID uuid.UUID, event string, recipientIDs []uuid.UUID) error {
	args := m.Called(ctx, tenantID, loadID, event, recipientIDs)
	return args.Error(0)
}

type LoadServiceTestSuite struct {
	suite.Suite
	loadRepo    *MockLoadRepository
	cacheSvc    *MockCacheService
	distributor *MockTaskDistributor
	service     LoadServiceInterface
	tenantID    uuid.UUID
	loadID      uuid.UUID
	driverID    uuid.UUID
	actorID     uuid.UUID
	ctx         context.Context
}

func (suite *LoadServiceTestSuite) SetupTest() {
	suite.loadRepo = new(MockLoadRepository)
	suite.cacheSvc = new(MockCacheService)
	suite.distributor = new(MockTaskDistributor)
	suite.service = NewLoadService(suite.loadRepo, nil, suite.cacheSvc, suite.distributor)
	suite.tenantID = uuid.New()
	suite.loadID = uuid.New()
	suite.driverID = uuid.New()
	suite.actorID = uuid.New()
	suite.ctx = context.Background()
}

func TestLoadServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LoadServiceTestSuite))
}

func (suite *LoadServiceTestSuite) assignedLoad() *models.Load {
	return &models.Load{
		ID:               suite.loadID,
		TenantID:         suite.tenantID,
		Reference:        "LD-1001",
		Status:           models.LoadStatusAssigned,
		AssignedDriverID: &suite.driverID,
	}
}

func (suite *LoadServiceTestSuite) TestCreateLoad_ForcesPendingStatus() {
	load := &models.Load{
		Reference: "LD-1001",
		Status:    models.LoadStatusDelivered,
		Stops: []*models.Stop{
			{Kind: models.StopKindPickup, Address: "100 Dock St, Memphis TN"},
			{Kind: models.StopKindDelivery, Address: "200 Yard Rd, Dallas TX"},
		},
	}

	suite.loadRepo.On("Create", suite.ctx, load).Return(nil)

	err := suite.service.CreateLoad(suite.ctx, suite.tenantID, load)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.LoadStatusPending, load.Status)
	assert.Equal(suite.T(), suite.tenantID, load.TenantID)
	assert.Nil(suite.T(), load.AssignedDriverID)
	assert.Equal(suite.T(), "USD", load.Currency)
	assert.Equal(suite.T(), 1, load.Stops[0].Seq)
	assert.Equal(suite.T(), 2, load.Stops[1].Seq)
	suite.loadRepo.AssertExpectations(suite.T())
}

func (suite *LoadServiceTestSuite) TestCreateLoad_RequiresStops() {
	load := &models.Load{Reference: "LD-1002"}

	err := suite.service.CreateLoad(suite.ctx, suite.tenantID, load)
	assert.Error(suite.T(), err)
	suite.loadRepo.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
}

func (suite *LoadServiceTestSuite) TestGetLoadByID_CacheHit() {
	load := suite.assignedLoad()
	suite.cacheSvc.On("GetLoad", suite.ctx, suite.tenantID, suite.loadID).Return(load, nil)

	got, err := suite.service.GetLoadByID(suite.ctx, suite.tenantID, suite.loadID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), load, got)
	suite.loadRepo.AssertNotCalled(suite.T(), "GetByID", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LoadServiceTestSuite) TestGetLoadByID_CacheMissFallsThrough() {
	load := suite.assignedLoad()
	suite.cacheSvc.On("GetLoad", suite.ctx, suite.tenantID, suite.loadID).Return(nil, caching.ErrCacheMiss)
	suite.loadRepo.On("GetByID", suite.ctx, suite.tenantID, suite.loadID).Return(load, nil)
	suite.cacheSvc.On("SetLoad", suite.ctx, suite.tenantID, load, mock.Anything).Return(nil)

	got, err := suite.service.GetLoadByID(suite.ctx, suite.tenantID, suite.loadID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), load, got)
	suite.cacheSvc.AssertExpectations(suite.T())
}

func (suite *LoadServiceTestSuite) TestAssignDriver_Success() {
	load := suite.assignedLoad()
	params := repositories.AssignDriverParams{
		TenantID: suite.tenantID,
		LoadID:   suite.loadID,
		DriverID: suite.driverID,
		ActorID:  suite.actorID,
	}

	suite.loadRepo.On("AssignDriver", suite.ctx, params).Return(nil)
	suite.cacheSvc.On("DeleteLoad", suite.ctx, suite.tenantID, suite.loadID).Return(nil)
	suite.cacheSvc.On("DeleteDriver", suite.ctx, suite.tenantID, suite.driverID).Return(nil)
	suite.distributor.On("EnqueueRateConfirmation", suite.ctx, suite.tenantID, suite.loadID).Return(nil)
	suite.distributor.On("EnqueueLoadEvent", suite.ctx, suite.tenantID, suite.loadID, "load_assigned", []uuid.UUID{suite.driverID}).Return(nil)
	suite.loadRepo.On("GetByID", suite.ctx, suite.tenantID, suite.loadID).Return(load, nil)

	got, err := suite.service.AssignDriver(suite.ctx, suite.tenantID, suite.loadID, suite.driverID, suite.actorID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.LoadStatusAssigned, got.Status)
	suite.loadRepo.AssertExpectations(suite.T())
	suite.distributor.AssertExpectations(suite.T())
}

func (suite *LoadServiceTestSuite) TestAssignDriver_RepoErrorSkipsSideEffects() {
	params := repositories.AssignDriverParams{
		TenantID: suite.tenantID,
		LoadID:   suite.loadID,
		DriverID: suite.driverID,
		ActorID:  suite.actorID,
	}
	suite.loadRepo.On("AssignDriver", suite.ctx, params).Return(repositories.ErrLoadAlreadyAssigned)

	got, err := suite.service.AssignDriver(suite.ctx, suite.tenantID, suite.loadID, suite.driverID, suite.actorID)
	assert.Nil(suite.T(), got)
	assert.ErrorIs(suite.T(), err, repositories.ErrLoadAlreadyAssigned)
	suite.distributor.AssertNotCalled(suite.T(), "EnqueueRateConfirmation", mock.Anything, mock.Anything, mock.Anything)
	suite.cacheSvc.AssertNotCalled(suite.T(), "DeleteLoad", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LoadServiceTestSuite) TestUpdateStatus_RejectsUnknownStatus() {
	_, err := suite.service.UpdateStatus(suite.ctx, repositories.UpdateStatusParams{
		TenantID: suite.tenantID,
		LoadID:   suite.loadID,
		Status:   "teleported",
	})
	assert.Error(suite.T(), err)
	suite.loadRepo.AssertNotCalled(suite.T(), "UpdateStatus", mock.Anything, mock.Anything)
}

func (suite *LoadServiceTestSuite) TestUpdateStatus_StopStatusRequiresStopID() {
	stopStatus := models.StopStatusArrived
	_, err := suite.service.UpdateStatus(suite.ctx, repositories.UpdateStatusParams{
		TenantID:   suite.tenantID,
		LoadID:     suite.loadID,
		Status:     models.LoadStatusAtPickup,
		StopStatus: &stopStatus,
	})
	assert.Error(suite.T(), err)
	suite.loadRepo.AssertNotCalled(suite.T(), "UpdateStatus", mock.Anything, mock.Anything)
}

func (suite *LoadServiceTestSuite) TestUpdateStatus_NotifiesAssignedDriver() {
	load := suite.assignedLoad()
	load.Status = models.LoadStatusEnRoutePickup
	params := repositories.UpdateStatusParams{
		TenantID:  suite.tenantID,
		LoadID:    suite.loadID,
		Status:    models.LoadStatusEnRoutePickup,
		ActorID:   suite.driverID,
		ActorRole: models.RoleDriver,
	}

	suite.loadRepo.On("UpdateStatus", suite.ctx, params).Return(nil)
	suite.cacheSvc.On("DeleteLoad", suite.ctx, suite.tenantID, suite.loadID).Return(nil)
	suite.loadRepo.On("GetByID", suite.ctx, suite.tenantID, suite.loadID).Return(load, nil)
	suite.distributor.On("EnqueueLoadEvent", suite.ctx, suite.tenantID, suite.loadID, "load_status", []uuid.UUID{suite.driverID}).Return(nil)

	got, err := suite.service.UpdateStatus(suite.ctx, params)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.LoadStatusEnRoutePickup, got.Status)
	suite.distributor.AssertExpectations(suite.T())
}

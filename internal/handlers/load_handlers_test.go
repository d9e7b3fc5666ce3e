package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"freightdesk/internal/common"
	"freightdesk/internal/models"
	"freightdesk/internal/repositories"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MockLoadService struct {
	mock.Mock
}

func (m *MockLoadService) CreateLoad(ctx context.Context, tenantID uuid.UUID, load *models.Load) error {
	args := m.Called(ctx, tenantID, load)
	return args.Error(0)
}

func (m *MockLoadService) GetLoadByID(ctx context.Context, tenantID, loadID uuid.UUID) (*models.Load, error) {
	args := m.Called(ctx, tenantID, loadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Load), args.Error(1)
}

func (m *MockLoadService) ListLoads(ctx context.Context, tenantID uuid.UUID, filter *models.LoadSearchFilter) ([]*models.Load, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]*models.Load), args.Error(1)
}

func (m *MockLoadService) AssignDriver(ctx context.Context, tenantID, loadID, driverID, actorID uuid.UUID) (*models.Load, error) {
	args := m.Called(ctx, tenantID, loadID, driverID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Load), args.Error(1)
}

func (m *MockLoadService) UpdateStatus(ctx context.Context, params repositories.UpdateStatusParams) (*models.Load, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Load), args.Error(1)
}

func (m *MockLoadService) GetStatusHistory(ctx context.Context, tenantID, loadID uuid.UUID) ([]*models.StatusHistoryEntry, error) {
	args := m.Called(ctx, tenantID, loadID)
	return args.Get(0).([]*models.StatusHistoryEntry), args.Error(1)
}

func (m *MockLoadService) AddDocument(ctx context.Context, doc *models.LoadDocument) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockLoadService) ListDocuments(ctx context.Context, tenantID, loadID uuid.UUID) ([]*models.LoadDocument, error) {
	args := m.Called(ctx, tenantID, loadID)
	return args.Get(0).([]*models.LoadDocument), args.Error(1)
}

type LoadHandlersTestSuite struct {
	suite.Suite
	loadSvc  *MockLoadService
	handlers *LoadHandlers
	echo     *echo.Echo
	tenantID uuid.UUID
	userID   uuid.UUID
	loadID   uuid.UUID
}

func (suite *LoadHandlersTestSuite) SetupTest() {
	suite.loadSvc = new(MockLoadService)
	suite.handlers = NewLoadHandlers(suite.loadSvc, nil, nil, "freightdesk-documents")
	suite.echo = echo.New()
	suite.tenantID = uuid.New()
	suite.userID = uuid.New()
	suite.loadID = uuid.New()
}

func TestLoadHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(LoadHandlersTestSuite))
}

func (suite *LoadHandlersTestSuite) newContext(method, path, body string, role models.Role) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	ctx := common.WithIdentity(req.Context(), suite.userID, suite.tenantID, role)
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	return suite.echo.NewContext(req, rec), rec
}

func (suite *LoadHandlersTestSuite) TestGetLoad_Success() {
	load := &models.Load{ID: suite.loadID, TenantID: suite.tenantID, Reference: "LD-1001", Status: models.LoadStatusPending}
	suite.loadSvc.On("GetLoadByID", mock.Anything, suite.tenantID, suite.loadID).Return(load, nil)

	c, rec := suite.newContext(http.MethodGet, "/v1/loads/"+suite.loadID.String(), "", models.RoleDispatcher)
	c.SetParamNames("id")
	c.SetParamValues(suite.loadID.String())

	assert.NoError(suite.T(), suite.handlers.GetLoad(c))
	assert.Equal(suite.T(), http.StatusOK, rec.Code)
	assert.Contains(suite.T(), rec.Body.String(), "LD-1001")
}

func (suite *LoadHandlersTestSuite) TestGetLoad_TenantMismatchHiddenAsNotFound() {
	suite.loadSvc.On("GetLoadByID", mock.Anything, suite.tenantID, suite.loadID).Return(nil, repositories.ErrTenantMismatch)

	c, rec := suite.newContext(http.MethodGet, "/v1/loads/"+suite.loadID.String(), "", models.RoleDispatcher)
	c.SetParamNames("id")
	c.SetParamValues(suite.loadID.String())

	assert.NoError(suite.T(), suite.handlers.GetLoad(c))
	assert.Equal(suite.T(), http.StatusNotFound, rec.Code)
	assert.Contains(suite.T(), rec.Body.String(), "NOT_FOUND")
}

func (suite *LoadHandlersTestSuite) TestGetLoad_InvalidUUID() {
	c, rec := suite.newContext(http.MethodGet, "/v1/loads/not-a-uuid", "", models.RoleDispatcher)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	assert.NoError(suite.T(), suite.handlers.GetLoad(c))
	assert.Equal(suite.T(), http.StatusBadRequest, rec.Code)
}

func (suite *LoadHandlersTestSuite) TestListLoads_DriverScopedToOwnLoads() {
	suite.loadSvc.On("ListLoads", mock.Anything, suite.tenantID, mock.MatchedBy(func(filter *models.LoadSearchFilter) bool {
		return filter.DriverID != nil && *filter.DriverID == suite.userID
	})).Return([]*models.Load{}, nil)

	c, rec := suite.newContext(http.MethodGet, "/v1/loads", "", models.RoleDriver)

	assert.NoError(suite.T(), suite.handlers.ListLoads(c))
	assert.Equal(suite.T(), http.StatusOK, rec.Code)
	suite.loadSvc.AssertExpectations(suite.T())
}

func (suite *LoadHandlersTestSuite) TestListLoads_DriverCannotListOthers() {
	otherDriver := uuid.New()
	suite.loadSvc.On("ListLoads", mock.Anything, suite.tenantID, mock.MatchedBy(func(filter *models.LoadSearchFilter) bool {
		// The requested driver_id filter must be overridden with the caller's id.
		return filter.DriverID != nil && *filter.DriverID == suite.userID
	})).Return([]*models.Load{}, nil)

	c, rec := suite.newContext(http.MethodGet, "/v1/loads?driver_id="+otherDriver.String(), "", models.RoleDriver)

	assert.NoError(suite.T(), suite.handlers.ListLoads(c))
	assert.Equal(suite.T(), http.StatusOK, rec.Code)
	suite.loadSvc.AssertExpectations(suite.T())
}

func (suite *LoadHandlersTestSuite) TestAssignDriver_Success() {
	driverID := uuid.New()
	load := &models.Load{ID: suite.loadID, TenantID: suite.tenantID, Status: models.LoadStatusAssigned, AssignedDriverID: &driverID}
	suite.loadSvc.On("AssignDriver", mock.Anything, suite.tenantID, suite.loadID, driverID, suite.userID).Return(load, nil)

	c, rec := suite.newContext(http.MethodPost, "/v1/loads/"+suite.loadID.String()+"/assign",
		`{"driver_id":"`+driverID.String()+`"}`, models.RoleDispatcher)
	c.SetParamNames("id")
	c.SetParamValues(suite.loadID.String())

	assert.NoError(suite.T(), suite.handlers.AssignDriver(c))
	assert.Equal(suite.T(), http.StatusOK, rec.Code)
	assert.Contains(suite.T(), rec.Body.String(), "assigned")
}

func (suite *LoadHandlersTestSuite) TestAssignDriver_AlreadyAssignedConflict() {
	driverID := uuid.New()
	suite.loadSvc.On("AssignDriver", mock.Anything, suite.tenantID, suite.loadID, driverID, suite.userID).
		Return(nil, repositories.ErrLoadAlreadyAssigned)

	c, rec := suite.newContext(http.MethodPost, "/v1/loads/"+suite.loadID.String()+"/assign",
		`{"driver_id":"`+driverID.String()+`"}`, models.RoleDispatcher)
	c.SetParamNames("id")
	c.SetParamValues(suite.loadID.String())

	assert.NoError(suite.T(), suite.handlers.AssignDriver(c))
	assert.Equal(suite.T(), http.StatusConflict, rec.Code)
	assert.Contains(suite.T(), rec.Body.String(), "FAILED_PRECONDITION")
}

func (suite *LoadHandlersTestSuite) TestUpdateStatus_InvalidTransitionConflict() {
	suite.loadSvc.On("UpdateStatus", mock.Anything, mock.Anything).Return(nil, repositories.ErrInvalidTransition)

	c, rec := suite.newContext(http.MethodPost, "/v1/loads/"+suite.loadID.String()+"/status",
		`{"status":"delivered"}`, models.RoleDriver)
	c.SetParamNames("id")
	c.SetParamValues(suite.loadID.String())

	assert.NoError(suite.T(), suite.handlers.UpdateStatus(c))
	assert.Equal(suite.T(), http.StatusConflict, rec.Code)
}

func (suite *LoadHandlersTestSuite) TestUpdateStatus_UnknownStatusRejected() {
	c, rec := suite.newContext(http.MethodPost, "/v1/loads/"+suite.loadID.String()+"/status",
		`{"status":"warp_speed"}`, models.RoleDriver)
	c.SetParamNames("id")
	c.SetParamValues(suite.loadID.String())

	assert.NoError(suite.T(), suite.handlers.UpdateStatus(c))
	assert.Equal(suite.T(), http.StatusBadRequest, rec.Code)
	suite.loadSvc.AssertNotCalled(suite.T(), "UpdateStatus", mock.Anything, mock.Anything)
}

func (suite *LoadHandlersTestSuite) TestUpdateStatus_DriverNotAssignedForbidden() {
	suite.loadSvc.On("UpdateStatus", mock.Anything, mock.Anything).Return(nil, repositories.ErrNotAssignedDriver)

	c, rec := suite.newContext(http.MethodPost, "/v1/loads/"+suite.loadID.String()+"/status",
		`{"status":"en_route_pickup"}`, models.RoleDriver)
	c.SetParamNames("id")
	c.SetParamValues(suite.loadID.String())

	assert.NoError(suite.T(), suite.handlers.UpdateStatus(c))
	assert.Equal(suite.T(), http.StatusForbidden, rec.Code)
	assert.Contains(suite.T(), rec.Body.String(), "PERMISSION_DENIED")
}

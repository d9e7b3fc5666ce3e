package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"freightdesk/internal/common"
	"freightdesk/internal/middleware"
	"freightdesk/internal/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MockVehicleService struct {
	mock.Mock
}

func (m *MockVehicleService) CreateVehicle(ctx context.Context, tenantID uuid.UUID, vehicle *models.Vehicle) error {
	args := m.Called(ctx, tenantID, vehicle)
	return args.Error(0)
}

func (m *MockVehicleService) GetVehicleByID(ctx context.Context, tenantID, vehicleID uuid.UUID) (*models.Vehicle, error) {
	args := m.Called(ctx, tenantID, vehicleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vehicle), args.Error(1)
}

func (m *MockVehicleService) UpdateVehicle(ctx context.Context, tenantID uuid.UUID, vehicle *models.Vehicle) error {
	args := m.Called(ctx, tenantID, vehicle)
	return args.Error(0)
}

func (m *MockVehicleService) ListVehicles(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Vehicle, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Vehicle), args.Error(1)
}

// VehicleHandlersTestSuite mounts the vehicle routes behind the same role
// middleware they are registered with, so the allow-list is exercised
// alongside the handlers.
type VehicleHandlersTestSuite struct {
	suite.Suite
	vehicleSvc *MockVehicleService
	echo       *echo.Echo
	tenantID   uuid.UUID
}

func (suite *VehicleHandlersTestSuite) SetupTest() {
	suite.vehicleSvc = new(MockVehicleService)
	suite.tenantID = uuid.New()

	handlers := NewVehicleHandlers(suite.vehicleSvc)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	suite.echo = echo.New()
	suite.echo.POST("/v1/vehicles", handlers.CreateVehicle, adminOnly)
	suite.echo.GET("/v1/vehicles", handlers.ListVehicles)
	suite.echo.PUT("/v1/vehicles/:id", handlers.UpdateVehicle, adminOnly)
}

func TestVehicleHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(VehicleHandlersTestSuite))
}

func (suite *VehicleHandlersTestSuite) serveAs(role models.Role, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	ctx := common.WithIdentity(req.Context(), uuid.New(), suite.tenantID, role)
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	suite.echo.ServeHTTP(rec, req)
	return rec
}

func (suite *VehicleHandlersTestSuite) TestCreateVehicle_AdminAllowed() {
	suite.vehicleSvc.On("CreateVehicle", mock.Anything, suite.tenantID, mock.Anything).Return(nil)

	rec := suite.serveAs(models.RoleAdmin, http.MethodPost, "/v1/vehicles", `{"unit_number":"TRK-101","vehicle_type":"truck"}`)
	assert.Equal(suite.T(), http.StatusCreated, rec.Code)
	suite.vehicleSvc.AssertExpectations(suite.T())
}

func (suite *VehicleHandlersTestSuite) TestCreateVehicle_DispatcherForbidden() {
	rec := suite.serveAs(models.RoleDispatcher, http.MethodPost, "/v1/vehicles", `{"unit_number":"TRK-102","vehicle_type":"truck"}`)
	assert.Equal(suite.T(), http.StatusForbidden, rec.Code)
	suite.vehicleSvc.AssertNotCalled(suite.T(), "CreateVehicle", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *VehicleHandlersTestSuite) TestUpdateVehicle_DriverForbidden() {
	rec := suite.serveAs(models.RoleDriver, http.MethodPut, "/v1/vehicles/"+uuid.NewString(), `{"status":"maintenance"}`)
	assert.Equal(suite.T(), http.StatusForbidden, rec.Code)
	suite.vehicleSvc.AssertNotCalled(suite.T(), "UpdateVehicle", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *VehicleHandlersTestSuite) TestListVehicles_AnyRole() {
	suite.vehicleSvc.On("ListVehicles", mock.Anything, suite.tenantID, 50, 0).Return([]*models.Vehicle{}, nil)

	rec := suite.serveAs(models.RoleDriver, http.MethodGet, "/v1/vehicles", "")
	assert.Equal(suite.T(), http.StatusOK, rec.Code)
	suite.vehicleSvc.AssertExpectations(suite.T())
}

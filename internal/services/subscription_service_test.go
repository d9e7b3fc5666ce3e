package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"freightdesk/internal/models"
	"freightdesk/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MockSubscriptionRepository struct {
	mock.Mock
}

func (m *MockSubscriptionRepository) Create(ctx context.Context, sub *models.Subscription) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

func (m *MockSubscriptionRepository) GetByTenant(ctx context.Context, tenantID uuid.UUID) (*models.Subscription, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) GetByStripeID(ctx context.Context, stripeSubscriptionID string) (*models.Subscription, error) {
	args := m.Called(ctx, stripeSubscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) Update(ctx context.Context, sub *models.Subscription) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

func (m *MockSubscriptionRepository) ListExpiring(ctx context.Context, before time.Time, limit int) ([]*models.Subscription, error) {
	args := m.Called(ctx, before, limit)
	return args.Get(0).([]*models.Subscription), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByStripeCustomerID(ctx context.Context, customerID string) (*models.User, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) SetStripeCustomerID(ctx context.Context, tenantID, id uuid.UUID, customerID string) error {
	args := m.Called(ctx, tenantID, id, customerID)
	return args.Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.User, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockUserRepository) ListAvailableDrivers(ctx context.Context, tenantID uuid.UUID) ([]*models.User, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]*models.User), args.Error(1)
}

type SubscriptionServiceTestSuite struct {
	suite.Suite
	subRepo  *MockSubscriptionRepository
	userRepo *MockUserRepository
	service  SubscriptionServiceInterface
	tenantID uuid.UUID
	userID   uuid.UUID
	ctx      context.Context
}

func (suite *SubscriptionServiceTestSuite) SetupTest() {
	suite.subRepo = new(MockSubscriptionRepository)
	suite.userRepo = new(MockUserRepository)
	suite.service = NewSubscriptionService(suite.subRepo, suite.userRepo, nil)
	suite.tenantID = uuid.New()
	suite.userID = uuid.New()
	suite.ctx = context.Background()
}

func TestSubscriptionServiceTestSuite(t *testing.T) {
	suite.Run(t, new(SubscriptionServiceTestSuite))
}

func (suite *SubscriptionServiceTestSuite) linkedUser(customerID string) *models.User {
	return &models.User{
		ID:               suite.userID,
		TenantID:         suite.tenantID,
		Email:            "owner@carrier.test",
		Role:             models.RoleAdmin,
		StripeCustomerID: &customerID,
	}
}

func (suite *SubscriptionServiceTestSuite) TestHandleCheckoutCompleted_NewSubscription() {
	object := json.RawMessage(`{"customer":"cus_123","subscription":"sub_456","customer_email":"owner@carrier.test"}`)
	suite.userRepo.On("GetByStripeCustomerID", suite.ctx, "cus_123").Return(suite.linkedUser("cus_123"), nil)
	suite.subRepo.On("GetByTenant", suite.ctx, suite.tenantID).Return(nil, repositories.ErrSubscriptionNotFound)
	suite.subRepo.On("Create", suite.ctx, mock.MatchedBy(func(sub *models.Subscription) bool {
		return sub.TenantID == suite.tenantID &&
			sub.Status == models.SubscriptionStatusActive &&
			sub.StripeSubscriptionID != nil && *sub.StripeSubscriptionID == "sub_456"
	})).Return(nil)

	err := suite.service.HandleCheckoutCompleted(suite.ctx, object)
	assert.NoError(suite.T(), err)
	suite.subRepo.AssertExpectations(suite.T())
}

func (suite *SubscriptionServiceTestSuite) TestHandleCheckoutCompleted_LinksCustomerByEmail() {
	object := json.RawMessage(`{"customer":"cus_new","subscription":"sub_789","customer_email":"owner@carrier.test"}`)
	user := suite.linkedUser("cus_old")

	suite.userRepo.On("GetByStripeCustomerID", suite.ctx, "cus_new").Return(nil, repositories.ErrUserNotFound)
	suite.userRepo.On("GetByEmail", suite.ctx, "owner@carrier.test").Return(user, nil)
	suite.userRepo.On("SetStripeCustomerID", suite.ctx, suite.tenantID, suite.userID, "cus_new").Return(nil)
	suite.subRepo.On("GetByTenant", suite.ctx, suite.tenantID).Return(nil, repositories.ErrSubscriptionNotFound)
	suite.subRepo.On("Create", suite.ctx, mock.Anything).Return(nil)

	err := suite.service.HandleCheckoutCompleted(suite.ctx, object)
	assert.NoError(suite.T(), err)
	suite.userRepo.AssertExpectations(suite.T())
}

func (suite *SubscriptionServiceTestSuite) TestHandleCheckoutCompleted_UnknownCustomer() {
	object := json.RawMessage(`{"customer":"cus_ghost","subscription":"sub_1"}`)
	suite.userRepo.On("GetByStripeCustomerID", suite.ctx, "cus_ghost").Return(nil, repositories.ErrUserNotFound)

	err := suite.service.HandleCheckoutCompleted(suite.ctx, object)
	assert.ErrorIs(suite.T(), err, ErrUnknownCustomer)
	suite.subRepo.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
}

func (suite *SubscriptionServiceTestSuite) TestHandleSubscriptionUpdated_SyncsStatus() {
	raw := json.RawMessage(`{"id":"sub_456","customer":"cus_123","status":"past_due","current_period_end":1756684800}`)
	stripeID := "sub_456"
	sub := &models.Subscription{ID: uuid.New(), TenantID: suite.tenantID, StripeSubscriptionID: &stripeID, Status: models.SubscriptionStatusActive}

	suite.subRepo.On("GetByStripeID", suite.ctx, "sub_456").Return(sub, nil)
	suite.subRepo.On("Update", suite.ctx, mock.MatchedBy(func(s *models.Subscription) bool {
		return s.Status == models.SubscriptionStatusPastDue
	})).Return(nil)

	err := suite.service.HandleSubscriptionUpdated(suite.ctx, raw)
	assert.NoError(suite.T(), err)
	suite.subRepo.AssertExpectations(suite.T())
}

func (suite *SubscriptionServiceTestSuite) TestHandleSubscriptionDeleted_FallsBackToCustomer() {
	raw := json.RawMessage(`{"id":"sub_missing","customer":"cus_123"}`)
	sub := &models.Subscription{ID: uuid.New(), TenantID: suite.tenantID, Status: models.SubscriptionStatusActive}

	suite.subRepo.On("GetByStripeID", suite.ctx, "sub_missing").Return(nil, repositories.ErrSubscriptionNotFound)
	suite.userRepo.On("GetByStripeCustomerID", suite.ctx, "cus_123").Return(suite.linkedUser("cus_123"), nil)
	suite.subRepo.On("GetByTenant", suite.ctx, suite.tenantID).Return(sub, nil)
	suite.subRepo.On("Update", suite.ctx, mock.MatchedBy(func(s *models.Subscription) bool {
		return s.Status == models.SubscriptionStatusCanceled
	})).Return(nil)

	err := suite.service.HandleSubscriptionDeleted(suite.ctx, raw)
	assert.NoError(suite.T(), err)
	suite.subRepo.AssertExpectations(suite.T())
}

func (suite *SubscriptionServiceTestSuite) TestSweepExpired() {
	lapsed := []*models.Subscription{
		{ID: uuid.New(), Status: models.SubscriptionStatusActive},
		{ID: uuid.New(), Status: models.SubscriptionStatusActive},
	}
	suite.subRepo.On("ListExpiring", suite.ctx, mock.Anything, 100).Return(lapsed, nil)
	suite.subRepo.On("Update", suite.ctx, mock.Anything).Return(nil)

	touched, err := suite.service.SweepExpired(suite.ctx)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 2, touched)
	for _, sub := range lapsed {
		assert.Equal(suite.T(), models.SubscriptionStatusPastDue, sub.Status)
	}
}

package services

import (
	"context"
	"testing"
	"time"

	"freightdesk/internal/models"
	"freightdesk/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MockReferralRepository struct {
	mock.Mock
}

func (m *MockReferralRepository) Create(ctx context.Context, code *models.ReferralCode) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

func (m *MockReferralRepository) GetByUser(ctx context.Context, tenantID, userID uuid.UUID) (*models.ReferralCode, error) {
	args := m.Called(ctx, tenantID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReferralCode), args.Error(1)
}

func (m *MockReferralRepository) GetByCode(ctx context.Context, code string) (*models.ReferralCode, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReferralCode), args.Error(1)
}

func (m *MockReferralRepository) IncrementUses(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type ReferralServiceTestSuite struct {
	suite.Suite
	referralRepo *MockReferralRepository
	service      ReferralServiceInterface
	ctx          context.Context
	tenantID     uuid.UUID
	userID       uuid.UUID
}

func (suite *ReferralServiceTestSuite) SetupTest() {
	suite.referralRepo = new(MockReferralRepository)
	suite.service = NewReferralService(suite.referralRepo)
	suite.ctx = context.Background()
	suite.tenantID = uuid.New()
	suite.userID = uuid.New()
}

func TestReferralServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReferralServiceTestSuite))
}

func (suite *ReferralServiceTestSuite) TestGetOrCreateCode_FirstCall() {
	suite.referralRepo.On("GetByUser", suite.ctx, suite.tenantID, suite.userID).
		Return(nil, repositories.ErrReferralNotFound).Once()
	suite.referralRepo.On("Create", suite.ctx, mock.MatchedBy(func(c *models.ReferralCode) bool {
		return c.TenantID == suite.tenantID && c.UserID == suite.userID && len(c.Code) == 8
	})).Return(nil).Once()

	code, err := suite.service.GetOrCreateCode(suite.ctx, suite.tenantID, suite.userID)

	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), code.Code, 8)
	suite.referralRepo.AssertExpectations(suite.T())
}

// Repeat calls return the stored code unchanged rather than minting a new one.
func (suite *ReferralServiceTestSuite) TestGetOrCreateCode_RepeatCallsReturnSameCode() {
	existing := &models.ReferralCode{
		ID:        uuid.New(),
		TenantID:  suite.tenantID,
		UserID:    suite.userID,
		Code:      "AB12CD34",
		CreatedAt: time.Now(),
	}
	suite.referralRepo.On("GetByUser", suite.ctx, suite.tenantID, suite.userID).
		Return(existing, nil).Twice()

	first, err := suite.service.GetOrCreateCode(suite.ctx, suite.tenantID, suite.userID)
	assert.NoError(suite.T(), err)
	second, err := suite.service.GetOrCreateCode(suite.ctx, suite.tenantID, suite.userID)
	assert.NoError(suite.T(), err)

	assert.Equal(suite.T(), "AB12CD34", first.Code)
	assert.Equal(suite.T(), first.Code, second.Code)
	suite.referralRepo.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
}

// The loser of a concurrent first-request insert race re-reads the
// winner's code instead of failing.
func (suite *ReferralServiceTestSuite) TestGetOrCreateCode_InsertRaceReReadsWinner() {
	winner := &models.ReferralCode{
		ID:       uuid.New(),
		TenantID: suite.tenantID,
		UserID:   suite.userID,
		Code:     "ZZ99YY88",
	}
	suite.referralRepo.On("GetByUser", suite.ctx, suite.tenantID, suite.userID).
		Return(nil, repositories.ErrReferralNotFound).Once()
	suite.referralRepo.On("Create", suite.ctx, mock.Anything).
		Return(repositories.ErrReferralExists).Once()
	suite.referralRepo.On("GetByUser", suite.ctx, suite.tenantID, suite.userID).
		Return(winner, nil).Once()

	code, err := suite.service.GetOrCreateCode(suite.ctx, suite.tenantID, suite.userID)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "ZZ99YY88", code.Code)
	suite.referralRepo.AssertExpectations(suite.T())
}

func (suite *ReferralServiceTestSuite) TestRedeem_IncrementsUses() {
	ref := &models.ReferralCode{ID: uuid.New(), Code: "AB12CD34", Uses: 2}
	suite.referralRepo.On("GetByCode", suite.ctx, "AB12CD34").Return(ref, nil)
	suite.referralRepo.On("IncrementUses", suite.ctx, ref.ID).Return(nil)

	redeemed, err := suite.service.Redeem(suite.ctx, "AB12CD34")

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 3, redeemed.Uses)
	suite.referralRepo.AssertExpectations(suite.T())
}

func (suite *ReferralServiceTestSuite) TestRedeem_UnknownCode() {
	suite.referralRepo.On("GetByCode", suite.ctx, "NOPE0000").
		Return(nil, repositories.ErrReferralNotFound)

	_, err := suite.service.Redeem(suite.ctx, "NOPE0000")

	assert.ErrorIs(suite.T(), err, repositories.ErrReferralNotFound)
	suite.referralRepo.AssertNotCalled(suite.T(), "IncrementUses", mock.Anything, mock.Anything)
}

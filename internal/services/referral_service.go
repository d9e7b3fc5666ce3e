package services

import (
	"context"
	"errors"
	"time"

	"freightdesk/internal/models"
	"freightdesk/internal/repositories"

	"github.com/google/uuid"
	"github.com/labstack/gommon/random"
)

const referralCodeLength = 8

// ReferralServiceInterface defines the interface for referral code operations
type ReferralServiceInterface interface {
	GetOrCreateCode(ctx context.Context, tenantID, userID uuid.UUID) (*models.ReferralCode, error)
	Redeem(ctx context.Context, code string) (*models.ReferralCode, error)
}

type referralService struct {
	referralRepo repositories.ReferralRepository
}

// NewReferralService creates a new referral service instance
func NewReferralService(referralRepo repositories.ReferralRepository) ReferralServiceInterface {
	return &referralService{referralRepo: referralRepo}
}

// GetOrCreateCode returns the user's referral code, generating one on first
// request. Concurrent first requests are resolved by the unique constraint:
// the loser of the insert race re-reads the winner's code.
func (s *referralService) GetOrCreateCode(ctx context.Context, tenantID, userID uuid.UUID) (*models.ReferralCode, error) {
	existing, err := s.referralRepo.GetByUser(ctx, tenantID, userID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repositories.ErrReferralNotFound) {
		return nil, err
	}

	code := &models.ReferralCode{
		ID:        uuid.New(),
		TenantID:  tenantID,
		UserID:    userID,
		Code:      random.String(referralCodeLength, random.Uppercase, random.Numeric),
		CreatedAt: time.Now(),
	}

	if err := s.referralRepo.Create(ctx, code); err != nil {
		if errors.Is(err, repositories.ErrReferralExists) {
			return s.referralRepo.GetByUser(ctx, tenantID, userID)
		}
		return nil, err
	}
	return code, nil
}

// Redeem looks up a code and increments its use counter.
func (s *referralService) Redeem(ctx context.Context, code string) (*models.ReferralCode, error) {
	ref, err := s.referralRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := s.referralRepo.IncrementUses(ctx, ref.ID); err != nil {
		return nil, err
	}
	ref.Uses++
	return ref, nil
}

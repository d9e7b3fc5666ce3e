package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"freightdesk/internal/models"
	"freightdesk/internal/repositories"

	"github.com/google/uuid"
)

// ErrUnknownCustomer is returned when a webhook delivery references a Stripe
// customer that no user in the system is linked to.
var ErrUnknownCustomer = errors.New("subscription: stripe customer not linked to any user")

// SubscriptionServiceInterface defines the interface for subscription operations
type SubscriptionServiceInterface interface {
	GetByTenant(ctx context.Context, tenantID uuid.UUID) (*models.Subscription, error)
	Cancel(ctx context.Context, tenantID uuid.UUID) error
	HandleCheckoutCompleted(ctx context.Context, object json.RawMessage) error
	HandleSubscriptionUpdated(ctx context.Context, object json.RawMessage) error
	HandleSubscriptionDeleted(ctx context.Context, object json.RawMessage) error
	SweepExpired(ctx context.Context) (int, error)
}

type subscriptionService struct {
	subRepo   repositories.SubscriptionRepository
	userRepo  repositories.UserRepository
	stripeSvc StripeService
}

// NewSubscriptionService creates a new subscription service instance
func NewSubscriptionService(subRepo repositories.SubscriptionRepository, userRepo repositories.UserRepository, stripeSvc StripeService) SubscriptionServiceInterface {
	return &subscriptionService{
		subRepo:   subRepo,
		userRepo:  userRepo,
		stripeSvc: stripeSvc,
	}
}

// checkoutSession is the subset of a checkout.session.completed object we use.
type checkoutSession struct {
	Customer      string `json:"customer"`
	Subscription  string `json:"subscription"`
	CustomerEmail string `json:"customer_email"`
}

// stripeSubObject is the subset of a subscription event object we use.
type stripeSubObject struct {
	ID               string `json:"id"`
	Customer         string `json:"customer"`
	Status           string `json:"status"`
	CurrentPeriodEnd int64  `json:"current_period_end"`
}

func (s *subscriptionService) GetByTenant(ctx context.Context, tenantID uuid.UUID) (*models.Subscription, error) {
	return s.subRepo.GetByTenant(ctx, tenantID)
}

// Cancel cancels the tenant's subscription at Stripe and marks it canceled
// locally. The webhook delivery for the cancellation is then a no-op update.
func (s *subscriptionService) Cancel(ctx context.Context, tenantID uuid.UUID) error {
	sub, err := s.subRepo.GetByTenant(ctx, tenantID)
	if err != nil {
		return err
	}

	if sub.StripeSubscriptionID != nil {
		if _, err := s.stripeSvc.CancelSubscription(ctx, *sub.StripeSubscriptionID); err != nil {
			return fmt.Errorf("subscription: cancel at stripe: %w", err)
		}
	}

	sub.Status = models.SubscriptionStatusCanceled
	sub.UpdatedAt = time.Now()
	return s.subRepo.Update(ctx, sub)
}

// HandleCheckoutCompleted links the Stripe customer to the user who paid and
// activates the tenant's subscription. The user is resolved by the
// customer link first, falling back to the checkout email.
func (s *subscriptionService) HandleCheckoutCompleted(ctx context.Context, object json.RawMessage) error {
	var session checkoutSession
	if err := json.Unmarshal(object, &session); err != nil {
		return fmt.Errorf("subscription: parse checkout session: %v", err)
	}

	user, err := s.resolveCheckoutUser(ctx, &session)
	if err != nil {
		return err
	}

	if user.StripeCustomerID == nil || *user.StripeCustomerID != session.Customer {
		if err := s.userRepo.SetStripeCustomerID(ctx, user.TenantID, user.ID, session.Customer); err != nil {
			return fmt.Errorf("subscription: link stripe customer: %w", err)
		}
	}

	now := time.Now()
	periodEnd := now.AddDate(0, 1, 0)

	existing, err := s.subRepo.GetByTenant(ctx, user.TenantID)
	if err == nil {
		existing.StripeSubscriptionID = &session.Subscription
		existing.Status = models.SubscriptionStatusActive
		existing.CurrentPeriodEnd = &periodEnd
		existing.UpdatedAt = now
		return s.subRepo.Update(ctx, existing)
	}
	if !errors.Is(err, repositories.ErrSubscriptionNotFound) {
		return err
	}

	return s.subRepo.Create(ctx, &models.Subscription{
		ID:                   uuid.New(),
		TenantID:             user.TenantID,
		StripeSubscriptionID: &session.Subscription,
		PlanName:             "standard",
		Currency:             "USD",
		Status:               models.SubscriptionStatusActive,
		CurrentPeriodEnd:     &periodEnd,
		CreatedAt:            now,
		UpdatedAt:            now,
	})
}

// HandleSubscriptionUpdated syncs status and period end from Stripe.
func (s *subscriptionService) HandleSubscriptionUpdated(ctx context.Context, object json.RawMessage) error {
	var obj stripeSubObject
	if err := json.Unmarshal(object, &obj); err != nil {
		return fmt.Errorf("subscription: parse subscription object: %v", err)
	}

	sub, err := s.findByStripeObject(ctx, &obj)
	if err != nil {
		return err
	}

	if models.ValidSubscriptionStatus(obj.Status) {
		sub.Status = obj.Status
	}
	if obj.CurrentPeriodEnd > 0 {
		periodEnd := time.Unix(obj.CurrentPeriodEnd, 0)
		sub.CurrentPeriodEnd = &periodEnd
	}
	sub.UpdatedAt = time.Now()
	return s.subRepo.Update(ctx, sub)
}

// HandleSubscriptionDeleted marks the subscription canceled.
func (s *subscriptionService) HandleSubscriptionDeleted(ctx context.Context, object json.RawMessage) error {
	var obj stripeSubObject
	if err := json.Unmarshal(object, &obj); err != nil {
		return fmt.Errorf("subscription: parse subscription object: %v", err)
	}

	sub, err := s.findByStripeObject(ctx, &obj)
	if err != nil {
		return err
	}

	sub.Status = models.SubscriptionStatusCanceled
	sub.UpdatedAt = time.Now()
	return s.subRepo.Update(ctx, sub)
}

// SweepExpired moves active subscriptions whose period has lapsed to
// past_due. Returns the number of subscriptions touched.
func (s *subscriptionService) SweepExpired(ctx context.Context) (int, error) {
	expiring, err := s.subRepo.ListExpiring(ctx, time.Now(), 100)
	if err != nil {
		return 0, err
	}

	touched := 0
	for _, sub := range expiring {
		sub.Status = models.SubscriptionStatusPastDue
		sub.UpdatedAt = time.Now()
		if err := s.subRepo.Update(ctx, sub); err != nil {
			log.Printf("Failed to mark subscription %s past due: %v", sub.ID, err)
			continue
		}
		touched++
	}
	return touched, nil
}

func (s *subscriptionService) resolveCheckoutUser(ctx context.Context, session *checkoutSession) (*models.User, error) {
	if user, err := s.userRepo.GetByStripeCustomerID(ctx, session.Customer); err == nil {
		return user, nil
	}
	if session.CustomerEmail != "" {
		if user, err := s.userRepo.GetByEmail(ctx, session.CustomerEmail); err == nil {
			return user, nil
		}
	}
	return nil, ErrUnknownCustomer
}

// findByStripeObject resolves the local subscription for a webhook object,
// preferring the subscription id and falling back to the customer link.
func (s *subscriptionService) findByStripeObject(ctx context.Context, obj *stripeSubObject) (*models.Subscription, error) {
	sub, err := s.subRepo.GetByStripeID(ctx, obj.ID)
	if err == nil {
		return sub, nil
	}
	if !errors.Is(err, repositories.ErrSubscriptionNotFound) {
		return nil, err
	}

	user, err := s.userRepo.GetByStripeCustomerID(ctx, obj.Customer)
	if err != nil {
		return nil, ErrUnknownCustomer
	}
	sub, err = s.subRepo.GetByTenant(ctx, user.TenantID)
	if err != nil {
		if errors.Is(err, repositories.ErrSubscriptionNotFound) {
			return nil, ErrUnknownCustomer
		}
		return nil, err
	}
	return sub, nil
}

package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"freightdesk/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrSubscriptionNotFound is returned when no subscription row matches the lookup.
var ErrSubscriptionNotFound = errors.New("subscription: not found")

type SubscriptionRepository interface {
	Create(ctx context.Context, sub *models.Subscription) error
	GetByTenant(ctx context.Context, tenantID uuid.UUID) (*models.Subscription, error)
	GetByStripeID(ctx context.Context, stripeSubscriptionID string) (*models.Subscription, error)
	Update(ctx context.Context, sub *models.Subscription) error
	ListExpiring(ctx context.Context, before time.Time, limit int) ([]*models.Subscription, error)
}

type subscriptionRepo struct {
	db Database
}

func NewSubscriptionRepo(db Database) SubscriptionRepository {
	return &subscriptionRepo{db: db}
}

const subscriptionColumns = `id, tenant_id, stripe_subscription_id, plan_name, amount, currency, status, current_period_end, created_at, updated_at`

func scanSubscription(row pgx.Row) (*models.Subscription, error) {
	sub := &models.Subscription{}
	err := row.Scan(&sub.ID, &sub.TenantID, &sub.StripeSubscriptionID, &sub.PlanName, &sub.Amount, &sub.Currency, &sub.Status, &sub.CurrentPeriodEnd, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("subscription: scan: %w", err)
	}
	return sub, nil
}

func (r *subscriptionRepo) Create(ctx context.Context, sub *models.Subscription) error {
	query := `
		INSERT INTO subscriptions (id, tenant_id, stripe_subscription_id, plan_name, amount, currency, status, current_period_end, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`
	if _, err := r.db.Exec(ctx, query, sub.ID, sub.TenantID, sub.StripeSubscriptionID, sub.PlanName, sub.Amount, sub.Currency, sub.Status, sub.CurrentPeriodEnd); err != nil {
		return fmt.Errorf("subscription: insert: %w", err)
	}
	return nil
}

func (r *subscriptionRepo) GetByTenant(ctx context.Context, tenantID uuid.UUID) (*models.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE tenant_id = $1 ORDER BY created_at DESC LIMIT 1`
	return scanSubscription(r.db.QueryRow(ctx, query, tenantID))
}

func (r *subscriptionRepo) GetByStripeID(ctx context.Context, stripeSubscriptionID string) (*models.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE stripe_subscription_id = $1`
	return scanSubscription(r.db.QueryRow(ctx, query, stripeSubscriptionID))
}

func (r *subscriptionRepo) Update(ctx context.Context, sub *models.Subscription) error {
	query := `
		UPDATE subscriptions
		SET stripe_subscription_id = $1, plan_name = $2, amount = $3, currency = $4, status = $5, current_period_end = $6, updated_at = NOW()
		WHERE id = $7
	`
	if _, err := r.db.Exec(ctx, query, sub.StripeSubscriptionID, sub.PlanName, sub.Amount, sub.Currency, sub.Status, sub.CurrentPeriodEnd, sub.ID); err != nil {
		return fmt.Errorf("subscription: update: %w", err)
	}
	return nil
}

// ListExpiring returns active subscriptions whose period ends before the
// cutoff, across all tenants. Used by the expiry sweep job.
func (r *subscriptionRepo) ListExpiring(ctx context.Context, before time.Time, limit int) ([]*models.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE status = $1 AND current_period_end IS NOT NULL AND current_period_end < $2
		ORDER BY current_period_end
		LIMIT $3
	`
	rows, err := r.db.Query(ctx, query, models.SubscriptionStatusActive, before, limit)
	if err != nil {
		return nil, fmt.Errorf("subscription: list expiring: %w", err)
	}
	defer rows.Close()

	var subs []*models.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

package repositories

import (
	"context"
	"errors"
	"fmt"

	"freightdesk/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrReferralNotFound is returned when no code row matches the lookup.
	ErrReferralNotFound = errors.New("referral: not found")
	// ErrReferralExists signals the unique-per-user constraint fired on insert.
	ErrReferralExists = errors.New("referral: code already exists for user")
)

type ReferralRepository interface {
	Create(ctx context.Context, code *models.ReferralCode) error
	GetByUser(ctx context.Context, tenantID, userID uuid.UUID) (*models.ReferralCode, error)
	GetByCode(ctx context.Context, code string) (*models.ReferralCode, error)
	IncrementUses(ctx context.Context, id uuid.UUID) error
}

type referralRepo struct {
	db Database
}

func NewReferralRepo(db Database) ReferralRepository {
	return &referralRepo{db: db}
}

func (r *referralRepo) Create(ctx context.Context, code *models.ReferralCode) error {
	query := `
		INSERT INTO referral_codes (id, tenant_id, user_id, code, uses, created_at)
		VALUES ($1, $2, $3, $4, 0, NOW())
	`
	if _, err := r.db.Exec(ctx, query, code.ID, code.TenantID, code.UserID, code.Code); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrReferralExists
		}
		return fmt.Errorf("referral: insert: %w", err)
	}
	return nil
}

func (r *referralRepo) GetByUser(ctx context.Context, tenantID, userID uuid.UUID) (*models.ReferralCode, error) {
	code := &models.ReferralCode{}
	query := `
		SELECT id, tenant_id, user_id, code, uses, created_at
		FROM referral_codes
		WHERE tenant_id = $1 AND user_id = $2
	`
	err := r.db.QueryRow(ctx, query, tenantID, userID).Scan(&code.ID, &code.TenantID, &code.UserID, &code.Code, &code.Uses, &code.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReferralNotFound
		}
		return nil, fmt.Errorf("referral: get by user: %w", err)
	}
	return code, nil
}

func (r *referralRepo) GetByCode(ctx context.Context, codeStr string) (*models.ReferralCode, error) {
	code := &models.ReferralCode{}
	query := `
		SELECT id, tenant_id, user_id, code, uses, created_at
		FROM referral_codes
		WHERE code = $1
	`
	err := r.db.QueryRow(ctx, query, codeStr).Scan(&code.ID, &code.TenantID, &code.UserID, &code.Code, &code.Uses, &code.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReferralNotFound
		}
		return nil, fmt.Errorf("referral: get by code: %w", err)
	}
	return code, nil
}

func (r *referralRepo) IncrementUses(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `UPDATE referral_codes SET uses = uses + 1 WHERE id = $1`, id); err != nil {
		return fmt.Errorf("referral: increment uses: %w", err)
	}
	return nil
}

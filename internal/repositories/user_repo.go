package repositories

import (
	"context"
	"errors"
	"fmt"

	"freightdesk/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrUserNotFound is returned when no user row matches the lookup.
var ErrUserNotFound = errors.New("user: not found")

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByStripeCustomerID(ctx context.Context, customerID string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	SetStripeCustomerID(ctx context.Context, tenantID, id uuid.UUID, customerID string) error
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.User, error)
	ListAvailableDrivers(ctx context.Context, tenantID uuid.UUID) ([]*models.User, error)
}

type userRepo struct {
	db Database
}

func NewUserRepo(db Database) UserRepository {
	return &userRepo{db: db}
}

const userColumns = `id, tenant_id, email, password_hash, first_name, last_name, role, is_available, current_load_id, stripe_customer_id, status, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.TenantID, &user.Email, &user.PasswordHash, &user.FirstName, &user.LastName, &user.Role, &user.IsAvailable, &user.CurrentLoadID, &user.StripeCustomerID, &user.Status, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user: scan: %w", err)
	}
	return user, nil
}

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, tenant_id, email, password_hash, first_name, last_name, role, is_available, current_load_id, stripe_customer_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
	`
	if _, err := r.db.Exec(ctx, query, user.ID, user.TenantID, user.Email, user.PasswordHash, user.FirstName, user.LastName, user.Role, user.IsAvailable, user.CurrentLoadID, user.StripeCustomerID, user.Status); err != nil {
		return fmt.Errorf("user: insert: %w", err)
	}
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE tenant_id = $1 AND id = $2`
	return scanUser(r.db.QueryRow(ctx, query, tenantID, id))
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRow(ctx, query, email))
}

// GetByStripeCustomerID is tenant-unscoped on purpose: webhook deliveries
// carry the provider's customer id, not a tenant claim.
func (r *userRepo) GetByStripeCustomerID(ctx context.Context, customerID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE stripe_customer_id = $1`
	return scanUser(r.db.QueryRow(ctx, query, customerID))
}

func (r *userRepo) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET email = $1, first_name = $2, last_name = $3, role = $4, is_available = $5, current_load_id = $6, status = $7, updated_at = NOW()
		WHERE tenant_id = $8 AND id = $9
	`
	if _, err := r.db.Exec(ctx, query, user.Email, user.FirstName, user.LastName, user.Role, user.IsAvailable, user.CurrentLoadID, user.Status, user.TenantID, user.ID); err != nil {
		return fmt.Errorf("user: update: %w", err)
	}
	return nil
}

func (r *userRepo) SetStripeCustomerID(ctx context.Context, tenantID, id uuid.UUID, customerID string) error {
	query := `UPDATE users SET stripe_customer_id = $1, updated_at = NOW() WHERE tenant_id = $2 AND id = $3`
	if _, err := r.db.Exec(ctx, query, customerID, tenantID, id); err != nil {
		return fmt.Errorf("user: set stripe customer id: %w", err)
	}
	return nil
}

func (r *userRepo) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE tenant_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("user: list: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *userRepo) ListAvailableDrivers(ctx context.Context, tenantID uuid.UUID) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE tenant_id = $1 AND role = $2 AND is_available = TRUE AND status = 'active' ORDER BY last_name, first_name`
	rows, err := r.db.Query(ctx, query, tenantID, models.RoleDriver)
	if err != nil {
		return nil, fmt.Errorf("user: list available drivers: %w", err)
	}
	defer rows.Close()

	var drivers []*models.User
	for rows.Next() {
		driver, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		drivers = append(drivers, driver)
	}
	return drivers, rows.Err()
}

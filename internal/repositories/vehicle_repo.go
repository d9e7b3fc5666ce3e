package repositories

import (
	"context"
	"errors"
	"fmt"

	"freightdesk/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrVehicleNotFound is returned when no vehicle row matches the lookup.
var ErrVehicleNotFound = errors.New("vehicle: not found")

type VehicleRepository interface {
	Create(ctx context.Context, vehicle *models.Vehicle) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Vehicle, error)
	Update(ctx context.Context, vehicle *models.Vehicle) error
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Vehicle, error)
}

type vehicleRepo struct {
	db Database
}

func NewVehicleRepo(db Database) VehicleRepository {
	return &vehicleRepo{db: db}
}

func (r *vehicleRepo) Create(ctx context.Context, vehicle *models.Vehicle) error {
	query := `
		INSERT INTO vehicles (id, tenant_id, unit_number, make, model, year, vehicle_type, plate_number, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
	`
	if _, err := r.db.Exec(ctx, query, vehicle.ID, vehicle.TenantID, vehicle.UnitNumber, vehicle.Make, vehicle.Model, vehicle.Year, vehicle.VehicleType, vehicle.PlateNumber, vehicle.Status); err != nil {
		return fmt.Errorf("vehicle: insert: %w", err)
	}
	return nil
}

func (r *vehicleRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Vehicle, error) {
	vehicle := &models.Vehicle{}
	query := `
		SELECT id, tenant_id, unit_number, make, model, year, vehicle_type, plate_number, status, created_at, updated_at
		FROM vehicles
		WHERE tenant_id = $1 AND id = $2
	`
	err := r.db.QueryRow(ctx, query, tenantID, id).Scan(&vehicle.ID, &vehicle.TenantID, &vehicle.UnitNumber, &vehicle.Make, &vehicle.Model, &vehicle.Year, &vehicle.VehicleType, &vehicle.PlateNumber, &vehicle.Status, &vehicle.CreatedAt, &vehicle.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVehicleNotFound
		}
		return nil, fmt.Errorf("vehicle: get by id: %w", err)
	}
	return vehicle, nil
}

func (r *vehicleRepo) Update(ctx context.Context, vehicle *models.Vehicle) error {
	query := `
		UPDATE vehicles
		SET unit_number = $1, make = $2, model = $3, year = $4, vehicle_type = $5, plate_number = $6, status = $7, updated_at = NOW()
		WHERE tenant_id = $8 AND id = $9
	`
	if _, err := r.db.Exec(ctx, query, vehicle.UnitNumber, vehicle.Make, vehicle.Model, vehicle.Year, vehicle.VehicleType, vehicle.PlateNumber, vehicle.Status, vehicle.TenantID, vehicle.ID); err != nil {
		return fmt.Errorf("vehicle: update: %w", err)
	}
	return nil
}

func (r *vehicleRepo) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Vehicle, error) {
	query := `
		SELECT id, tenant_id, unit_number, make, model, year, vehicle_type, plate_number, status, created_at, updated_at
		FROM vehicles
		WHERE tenant_id = $1
		ORDER BY unit_number
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("vehicle: list: %w", err)
	}
	defer rows.Close()

	var vehicles []*models.Vehicle
	for rows.Next() {
		vehicle := &models.Vehicle{}
		if err := rows.Scan(&vehicle.ID, &vehicle.TenantID, &vehicle.UnitNumber, &vehicle.Make, &vehicle.Model, &vehicle.Year, &vehicle.VehicleType, &vehicle.PlateNumber, &vehicle.Status, &vehicle.CreatedAt, &vehicle.UpdatedAt); err != nil {
			return nil, fmt.Errorf("vehicle: scan row: %w", err)
		}
		vehicles = append(vehicles, vehicle)
	}
	return vehicles, rows.Err()
}

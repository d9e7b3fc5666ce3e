package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"freightdesk/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrDVIRNotFound is returned when no report row matches the lookup.
var ErrDVIRNotFound = errors.New("dvir: not found")

type DVIRRepository interface {
	Create(ctx context.Context, report *models.DVIRReport) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.DVIRReport, error)
	ListByVehicle(ctx context.Context, tenantID, vehicleID uuid.UUID, limit, offset int) ([]*models.DVIRReport, error)
	ListByDriver(ctx context.Context, tenantID, driverID uuid.UUID, limit, offset int) ([]*models.DVIRReport, error)
}

type dvirRepo struct {
	db Database
}

func NewDVIRRepo(db Database) DVIRRepository {
	return &dvirRepo{db: db}
}

func (r *dvirRepo) Create(ctx context.Context, report *models.DVIRReport) error {
	defects, err := json.Marshal(report.Defects)
	if err != nil {
		return fmt.Errorf("dvir: marshal defects: %w", err)
	}

	query := `
		INSERT INTO dvir_reports (id, tenant_id, driver_id, vehicle_id, inspection_type, defects, safe_to_operate, odometer, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
	`
	if _, err := r.db.Exec(ctx, query, report.ID, report.TenantID, report.DriverID, report.VehicleID, report.InspectionType, defects, report.SafeToOperate, report.Odometer, report.Notes); err != nil {
		return fmt.Errorf("dvir: insert: %w", err)
	}
	return nil
}

func scanDVIR(row pgx.Row) (*models.DVIRReport, error) {
	report := &models.DVIRReport{}
	var defects []byte
	err := row.Scan(&report.ID, &report.TenantID, &report.DriverID, &report.VehicleID, &report.InspectionType, &defects, &report.SafeToOperate, &report.Odometer, &report.Notes, &report.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDVIRNotFound
		}
		return nil, fmt.Errorf("dvir: scan: %w", err)
	}
	if len(defects) > 0 {
		if err := json.Unmarshal(defects, &report.Defects); err != nil {
			return nil, fmt.Errorf("dvir: unmarshal defects: %w", err)
		}
	}
	return report, nil
}

const dvirColumns = `id, tenant_id, driver_id, vehicle_id, inspection_type, defects, safe_to_operate, odometer, notes, created_at`

func (r *dvirRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.DVIRReport, error) {
	query := `SELECT ` + dvirColumns + ` FROM dvir_reports WHERE tenant_id = $1 AND id = $2`
	return scanDVIR(r.db.QueryRow(ctx, query, tenantID, id))
}

func (r *dvirRepo) ListByVehicle(ctx context.Context, tenantID, vehicleID uuid.UUID, limit, offset int) ([]*models.DVIRReport, error) {
	query := `SELECT ` + dvirColumns + ` FROM dvir_reports WHERE tenant_id = $1 AND vehicle_id = $2 ORDER BY created_at DESC LIMIT $3 OFFSET $4`
	return r.queryReports(ctx, query, tenantID, vehicleID, limit, offset)
}

func (r *dvirRepo) ListByDriver(ctx context.Context, tenantID, driverID uuid.UUID, limit, offset int) ([]*models.DVIRReport, error) {
	query := `SELECT ` + dvirColumns + ` FROM dvir_reports WHERE tenant_id = $1 AND driver_id = $2 ORDER BY created_at DESC LIMIT $3 OFFSET $4`
	return r.queryReports(ctx, query, tenantID, driverID, limit, offset)
}

func (r *dvirRepo) queryReports(ctx context.Context, query string, args ...interface{}) ([]*models.DVIRReport, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("dvir: list: %w", err)
	}
	defer rows.Close()

	var reports []*models.DVIRReport
	for rows.Next() {
		report, err := scanDVIR(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

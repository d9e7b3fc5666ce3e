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

var (
	// ErrLoadNotFound is returned when no load row exists for the identifier.
	ErrLoadNotFound = errors.New("load: not found")
	// ErrDriverNotFound is returned when no user row exists for the driver identifier.
	ErrDriverNotFound = errors.New("load: driver not found")
	// ErrStopNotFound is returned when the named stop does not belong to the load.
	ErrStopNotFound = errors.New("load: stop not found")
	// ErrTenantMismatch signals the entity exists but belongs to another tenant.
	ErrTenantMismatch = errors.New("load: tenant mismatch")
	// ErrLoadAlreadyAssigned signals a second assignment attempt on an assigned load.
	ErrLoadAlreadyAssigned = errors.New("load: already assigned")
	// ErrNotADriver signals the assignment target does not hold the driver role.
	ErrNotADriver = errors.New("load: user is not a driver")
	// ErrNotAssignedDriver signals a driver touching a load that is not theirs.
	ErrNotAssignedDriver = errors.New("load: caller is not the assigned driver")
	// ErrInvalidTransition signals a status change outside the transition table.
	ErrInvalidTransition = errors.New("load: invalid status transition")
)

// AssignDriverParams carries the inputs of the assignment transaction.
type AssignDriverParams struct {
	TenantID uuid.UUID
	LoadID   uuid.UUID
	DriverID uuid.UUID
	ActorID  uuid.UUID
}

// UpdateStatusParams carries the inputs of the status update transaction.
type UpdateStatusParams struct {
	TenantID   uuid.UUID
	LoadID     uuid.UUID
	Status     string
	ActorID    uuid.UUID
	ActorRole  models.Role
	StopID     *uuid.UUID
	StopStatus *string
	Notes      *string
	Location   *string
}

type LoadRepository interface {
	Create(ctx context.Context, load *models.Load) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Load, error)
	List(ctx context.Context, tenantID uuid.UUID, filter *models.LoadSearchFilter) ([]*models.Load, error)
	ListStops(ctx context.Context, tenantID, loadID uuid.UUID) ([]*models.Stop, error)
	ListHistory(ctx context.Context, tenantID, loadID uuid.UUID) ([]*models.StatusHistoryEntry, error)
	AssignDriver(ctx context.Context, params AssignDriverParams) error
	UpdateStatus(ctx context.Context, params UpdateStatusParams) error
	AddDocument(ctx context.Context, doc *models.LoadDocument) error
	ListDocuments(ctx context.Context, tenantID, loadID uuid.UUID) ([]*models.LoadDocument, error)
	ListStaleInTransit(ctx context.Context, olderThan time.Time, limit int) ([]*models.Load, error)
}

type loadRepo struct {
	db Database
}

func NewLoadRepo(db Database) LoadRepository {
	return &loadRepo{db: db}
}

// Create inserts the load, its stops, and the opening history row in one
// transaction.
func (r *loadRepo) Create(ctx context.Context, load *models.Load) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("load: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO loads (id, tenant_id, reference, status, assigned_driver_id, vehicle_id, rate_amount, currency, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
	`
	if _, err := tx.Exec(ctx, query, load.ID, load.TenantID, load.Reference, load.Status, load.AssignedDriverID, load.VehicleID, load.RateAmount, load.Currency, load.Notes); err != nil {
		return fmt.Errorf("load: insert load: %w", err)
	}

	stopQuery := `
		INSERT INTO load_stops (id, tenant_id, load_id, seq, kind, status, address, window_start, window_end, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
	`
	for _, stop := range load.Stops {
		if _, err := tx.Exec(ctx, stopQuery, stop.ID, load.TenantID, load.ID, stop.Seq, stop.Kind, stop.Status, stop.Address, stop.WindowStart, stop.WindowEnd); err != nil {
			return fmt.Errorf("load: insert stop: %w", err)
		}
	}

	if err := appendHistory(ctx, tx, load.TenantID, load.ID, load.Status, nil, nil, nil); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("load: commit tx: %w", err)
	}
	return nil
}

func (r *loadRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Load, error) {
	load := &models.Load{}
	query := `
		SELECT id, tenant_id, reference, status, assigned_driver_id, vehicle_id, rate_amount, currency, notes, created_at, updated_at
		FROM loads
		WHERE tenant_id = $1 AND id = $2
	`
	err := r.db.QueryRow(ctx, query, tenantID, id).Scan(&load.ID, &load.TenantID, &load.Reference, &load.Status, &load.AssignedDriverID, &load.VehicleID, &load.RateAmount, &load.Currency, &load.Notes, &load.CreatedAt, &load.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLoadNotFound
		}
		return nil, fmt.Errorf("load: get by id: %w", err)
	}
	return load, nil
}

func (r *loadRepo) List(ctx context.Context, tenantID uuid.UUID, filter *models.LoadSearchFilter) ([]*models.Load, error) {
	query := `
		SELECT id, tenant_id, reference, status, assigned_driver_id, vehicle_id, rate_amount, currency, notes, created_at, updated_at
		FROM loads
		WHERE tenant_id = $1
	`
	args := []interface{}{tenantID}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.DriverID != nil {
		args = append(args, *filter.DriverID)
		query += fmt.Sprintf(" AND assigned_driver_id = $%d", len(args))
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load: list: %w", err)
	}
	defer rows.Close()

	var loads []*models.Load
	for rows.Next() {
		load := &models.Load{}
		if err := rows.Scan(&load.ID, &load.TenantID, &load.Reference, &load.Status, &load.AssignedDriverID, &load.VehicleID, &load.RateAmount, &load.Currency, &load.Notes, &load.CreatedAt, &load.UpdatedAt); err != nil {
			return nil, fmt.Errorf("load: scan row: %w", err)
		}
		loads = append(loads, load)
	}
	return loads, rows.Err()
}

func (r *loadRepo) ListStops(ctx context.Context, tenantID, loadID uuid.UUID) ([]*models.Stop, error) {
	query := `
		SELECT id, tenant_id, load_id, seq, kind, status, address, window_start, window_end, updated_at
		FROM load_stops
		WHERE tenant_id = $1 AND load_id = $2
		ORDER BY seq
	`
	rows, err := r.db.Query(ctx, query, tenantID, loadID)
	if err != nil {
		return nil, fmt.Errorf("load: list stops: %w", err)
	}
	defer rows.Close()

	var stops []*models.Stop
	for rows.Next() {
		stop := &models.Stop{}
		if err := rows.Scan(&stop.ID, &stop.TenantID, &stop.LoadID, &stop.Seq, &stop.Kind, &stop.Status, &stop.Address, &stop.WindowStart, &stop.WindowEnd, &stop.UpdatedAt); err != nil {
			return nil, fmt.Errorf("load: scan stop: %w", err)
		}
		stops = append(stops, stop)
	}
	return stops, rows.Err()
}

func (r *loadRepo) ListHistory(ctx context.Context, tenantID, loadID uuid.UUID) ([]*models.StatusHistoryEntry, error) {
	query := `
		SELECT id, tenant_id, load_id, status, actor_id, notes, location, created_at
		FROM load_status_history
		WHERE tenant_id = $1 AND load_id = $2
		ORDER BY id
	`
	rows, err := r.db.Query(ctx, query, tenantID, loadID)
	if err != nil {
		return nil, fmt.Errorf("load: list history: %w", err)
	}
	defer rows.Close()

	var entries []*models.StatusHistoryEntry
	for rows.Next() {
		e := &models.StatusHistoryEntry{}
		if err := rows.Scan(&e.ID, &e.TenantID, &e.LoadID, &e.Status, &e.ActorID, &e.Notes, &e.Location, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("load: scan history: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// AssignDriver binds a driver to a pending load. Both rows are locked for the
// duration of the transaction, load first then driver, so either both reflect
// the assignment or neither does.
func (r *loadRepo) AssignDriver(ctx context.Context, params AssignDriverParams) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("load: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		loadTenantID     uuid.UUID
		status           string
		assignedDriverID *uuid.UUID
	)
	err = tx.QueryRow(ctx,
		`SELECT tenant_id, status, assigned_driver_id FROM loads WHERE id = $1 FOR UPDATE`,
		params.LoadID,
	).Scan(&loadTenantID, &status, &assignedDriverID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrLoadNotFound
		}
		return fmt.Errorf("load: lock load: %w", err)
	}
	if loadTenantID != params.TenantID {
		return ErrTenantMismatch
	}
	if status == models.LoadStatusAssigned || assignedDriverID != nil {
		return ErrLoadAlreadyAssigned
	}
	if status != models.LoadStatusPending {
		return ErrInvalidTransition
	}

	var (
		driverTenantID uuid.UUID
		driverRole     models.Role
	)
	err = tx.QueryRow(ctx,
		`SELECT tenant_id, role FROM users WHERE id = $1 FOR UPDATE`,
		params.DriverID,
	).Scan(&driverTenantID, &driverRole)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrDriverNotFound
		}
		return fmt.Errorf("load: lock driver: %w", err)
	}
	if driverTenantID != params.TenantID {
		return ErrTenantMismatch
	}
	if driverRole != models.RoleDriver {
		return ErrNotADriver
	}

	if _, err := tx.Exec(ctx,
		`UPDATE loads SET status = $1, assigned_driver_id = $2, updated_at = NOW() WHERE id = $3`,
		models.LoadStatusAssigned, params.DriverID, params.LoadID,
	); err != nil {
		return fmt.Errorf("load: update load: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE users SET current_load_id = $1, is_available = FALSE, updated_at = NOW() WHERE id = $2`,
		params.LoadID, params.DriverID,
	); err != nil {
		return fmt.Errorf("load: update driver: %w", err)
	}

	if err := appendHistory(ctx, tx, params.TenantID, params.LoadID, models.LoadStatusAssigned, &params.ActorID, nil, nil); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("load: commit tx: %w", err)
	}
	return nil
}

// UpdateStatus moves a load to a new status, appends one history row, and
// optionally updates a single stop. All checks run before any write; the
// whole change commits or none of it does.
func (r *loadRepo) UpdateStatus(ctx context.Context, params UpdateStatusParams) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("load: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		loadTenantID     uuid.UUID
		currentStatus    string
		assignedDriverID *uuid.UUID
	)
	err = tx.QueryRow(ctx,
		`SELECT tenant_id, status, assigned_driver_id FROM loads WHERE id = $1 FOR UPDATE`,
		params.LoadID,
	).Scan(&loadTenantID, &currentStatus, &assignedDriverID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrLoadNotFound
		}
		return fmt.Errorf("load: lock load: %w", err)
	}
	if loadTenantID != params.TenantID {
		return ErrTenantMismatch
	}
	// Drivers may only advance their own loads.
	if params.ActorRole == models.RoleDriver {
		if assignedDriverID == nil || *assignedDriverID != params.ActorID {
			return ErrNotAssignedDriver
		}
	}
	if !models.CanTransition(currentStatus, params.Status) {
		return ErrInvalidTransition
	}

	if _, err := tx.Exec(ctx,
		`UPDATE loads SET status = $1, updated_at = NOW() WHERE id = $2`,
		params.Status, params.LoadID,
	); err != nil {
		return fmt.Errorf("load: update status: %w", err)
	}

	if err := appendHistory(ctx, tx, params.TenantID, params.LoadID, params.Status, &params.ActorID, params.Notes, params.Location); err != nil {
		return err
	}

	if params.StopID != nil && params.StopStatus != nil {
		tag, err := tx.Exec(ctx,
			`UPDATE load_stops SET status = $1, updated_at = NOW() WHERE tenant_id = $2 AND load_id = $3 AND id = $4`,
			*params.StopStatus, params.TenantID, params.LoadID, *params.StopID,
		)
		if err != nil {
			return fmt.Errorf("load: update stop: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrStopNotFound
		}
	}

	// Terminal statuses release the driver.
	if params.Status == models.LoadStatusDelivered || params.Status == models.LoadStatusCompleted || params.Status == models.LoadStatusCancelled {
		if _, err := tx.Exec(ctx,
			`UPDATE users SET current_load_id = NULL, is_available = TRUE, updated_at = NOW() WHERE current_load_id = $1`,
			params.LoadID,
		); err != nil {
			return fmt.Errorf("load: release driver: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("load: commit tx: %w", err)
	}
	return nil
}

func (r *loadRepo) AddDocument(ctx context.Context, doc *models.LoadDocument) error {
	query := `
		INSERT INTO load_documents (id, tenant_id, load_id, name, content_type, object_key, uploaded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`
	if _, err := r.db.Exec(ctx, query, doc.ID, doc.TenantID, doc.LoadID, doc.Name, doc.ContentType, doc.ObjectKey, doc.UploadedBy); err != nil {
		return fmt.Errorf("load: insert document: %w", err)
	}
	return nil
}

func (r *loadRepo) ListDocuments(ctx context.Context, tenantID, loadID uuid.UUID) ([]*models.LoadDocument, error) {
	query := `
		SELECT id, tenant_id, load_id, name, content_type, object_key, uploaded_by, created_at
		FROM load_documents
		WHERE tenant_id = $1 AND load_id = $2
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, tenantID, loadID)
	if err != nil {
		return nil, fmt.Errorf("load: list documents: %w", err)
	}
	defer rows.Close()

	var docs []*models.LoadDocument
	for rows.Next() {
		doc := &models.LoadDocument{}
		if err := rows.Scan(&doc.ID, &doc.TenantID, &doc.LoadID, &doc.Name, &doc.ContentType, &doc.ObjectKey, &doc.UploadedBy, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("load: scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// ListStaleInTransit returns in-transit loads not updated since olderThan,
// across all tenants. Used by the stale-load background sweep.
func (r *loadRepo) ListStaleInTransit(ctx context.Context, olderThan time.Time, limit int) ([]*models.Load, error) {
	query := `
		SELECT id, tenant_id, reference, status, assigned_driver_id, vehicle_id, rate_amount, currency, notes, created_at, updated_at
		FROM loads
		WHERE status IN ($1, $2, $3, $4, $5) AND updated_at < $6
		ORDER BY updated_at
		LIMIT $7
	`
	rows, err := r.db.Query(ctx, query,
		models.LoadStatusEnRoutePickup, models.LoadStatusAtPickup, models.LoadStatusLoaded,
		models.LoadStatusEnRouteDelivery, models.LoadStatusAtDelivery, olderThan, limit)
	if err != nil {
		return nil, fmt.Errorf("load: list stale: %w", err)
	}
	defer rows.Close()

	var loads []*models.Load
	for rows.Next() {
		load := &models.Load{}
		if err := rows.Scan(&load.ID, &load.TenantID, &load.Reference, &load.Status, &load.AssignedDriverID, &load.VehicleID, &load.RateAmount, &load.Currency, &load.Notes, &load.CreatedAt, &load.UpdatedAt); err != nil {
			return nil, fmt.Errorf("load: scan row: %w", err)
		}
		loads = append(loads, load)
	}
	return loads, rows.Err()
}

// appendHistory inserts one status-history row inside the active transaction.
// The table is INSERT-only.
func appendHistory(ctx context.Context, tx pgx.Tx, tenantID, loadID uuid.UUID, status string, actorID *uuid.UUID, notes, location *string) error {
	query := `
		INSERT INTO load_status_history (tenant_id, load_id, status, actor_id, notes, location, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`
	if _, err := tx.Exec(ctx, query, tenantID, loadID, status, actorID, notes, location); err != nil {
		return fmt.Errorf("load: append history: %w", err)
	}
	return nil
}

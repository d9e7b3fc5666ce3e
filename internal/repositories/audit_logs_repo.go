package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"freightdesk/internal/models"

	"github.com/google/uuid"
)

type AuditLogsRepository interface {
	Create(ctx context.Context, auditLog *models.AuditLog) error
	List(ctx context.Context, tenantID uuid.UUID, filters *models.AuditLogFilters) ([]*models.AuditLog, error)
}

type auditLogsRepo struct {
	db Database
}

func NewAuditLogsRepo(db Database) AuditLogsRepository {
	return &auditLogsRepo{db: db}
}

func (r *auditLogsRepo) Create(ctx context.Context, auditLog *models.AuditLog) error {
	if auditLog.ID == uuid.Nil {
		auditLog.ID = uuid.New()
	}
	auditLog.CreatedAt = time.Now()

	newValues, err := json.Marshal(auditLog.NewValues)
	if err != nil {
		return fmt.Errorf("audit: marshal new values: %w", err)
	}
	oldValues, err := json.Marshal(auditLog.OldValues)
	if err != nil {
		return fmt.Errorf("audit: marshal old values: %w", err)
	}

	query := `
		INSERT INTO audit_logs (id, tenant_id, table_name, record_id, action, new_values, old_values, changed_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if _, err := r.db.Exec(ctx, query, auditLog.ID, auditLog.TenantID, auditLog.TableName, auditLog.RecordID, auditLog.Action, newValues, oldValues, auditLog.ChangedBy, auditLog.CreatedAt); err != nil {
		return fmt.Errorf("audit: insert: %w", err)
	}
	return nil
}

func (r *auditLogsRepo) List(ctx context.Context, tenantID uuid.UUID, filters *models.AuditLogFilters) ([]*models.AuditLog, error) {
	query := `
		SELECT id, tenant_id, table_name, record_id, action, new_values, old_values, changed_by, created_at
		FROM audit_logs
		WHERE tenant_id = $1
	`
	args := []interface{}{tenantID}
	if filters.TableName != nil {
		args = append(args, *filters.TableName)
		query += fmt.Sprintf(" AND table_name = $%d", len(args))
	}
	if filters.RecordID != nil {
		args = append(args, *filters.RecordID)
		query += fmt.Sprintf(" AND record_id = $%d", len(args))
	}
	if filters.Action != nil {
		args = append(args, *filters.Action)
		query += fmt.Sprintf(" AND action = $%d", len(args))
	}
	if filters.ChangedBy != nil {
		args = append(args, *filters.ChangedBy)
		query += fmt.Sprintf(" AND changed_by = $%d", len(args))
	}
	if filters.StartDate != nil {
		args = append(args, *filters.StartDate)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if filters.EndDate != nil {
		args = append(args, *filters.EndDate)
		query += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit, filters.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("audit: list: %w", err)
	}
	defer rows.Close()

	var logs []*models.AuditLog
	for rows.Next() {
		entry := &models.AuditLog{}
		var newValues, oldValues []byte
		if err := rows.Scan(&entry.ID, &entry.TenantID, &entry.TableName, &entry.RecordID, &entry.Action, &newValues, &oldValues, &entry.ChangedBy, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("audit: scan row: %w", err)
		}
		if len(newValues) > 0 {
			if err := json.Unmarshal(newValues, &entry.NewValues); err != nil {
				return nil, fmt.Errorf("audit: unmarshal new values: %w", err)
			}
		}
		if len(oldValues) > 0 {
			if err := json.Unmarshal(oldValues, &entry.OldValues); err != nil {
				return nil, fmt.Errorf("audit: unmarshal old values: %w", err)
			}
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

package services

import (
	"context"
	"fmt"
	"time"

	"freightdesk/internal/models"
	"freightdesk/internal/repositories"

	"github.com/google/uuid"
)

// AuditLogsService records and queries change history rows.
type AuditLogsService interface {
	LogAction(ctx context.Context, tenantID uuid.UUID, tableName, recordID, action string, oldValues, newValues models.JSONB, changedBy *uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, filters *models.AuditLogFilters) ([]*models.AuditLog, error)
}

type auditLogsService struct {
	auditRepo repositories.AuditLogsRepository
}

func NewAuditLogsService(auditRepo repositories.AuditLogsRepository) AuditLogsService {
	return &auditLogsService{auditRepo: auditRepo}
}

// LogAction appends one audit row. Rows are never updated after insert.
func (s *auditLogsService) LogAction(ctx context.Context, tenantID uuid.UUID, tableName, recordID, action string, oldValues, newValues models.JSONB, changedBy *uuid.UUID) error {
	switch action {
	case models.ActionInsert, models.ActionUpdate, models.ActionDelete:
	default:
		return fmt.Errorf("invalid audit action: %s", action)
	}

	return s.auditRepo.Create(ctx, &models.AuditLog{
		ID:        uuid.New(),
		TenantID:  tenantID,
		TableName: tableName,
		RecordID:  recordID,
		Action:    action,
		OldValues: oldValues,
		NewValues: newValues,
		ChangedBy: changedBy,
		CreatedAt: time.Now(),
	})
}

// List returns audit rows matching the filters, newest first.
func (s *auditLogsService) List(ctx context.Context, tenantID uuid.UUID, filters *models.AuditLogFilters) ([]*models.AuditLog, error) {
	if filters == nil {
		filters = &models.AuditLogFilters{}
	}
	if filters.Limit <= 0 || filters.Limit > 100 {
		filters.Limit = 50
	}
	return s.auditRepo.List(ctx, tenantID, filters)
}

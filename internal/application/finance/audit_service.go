package finance

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/schoolerp/feeledger/internal/domain/finance"
)

// AuditService reads the finance audit trail
type AuditService struct {
	logs finance.AuditLogRepository
}

// NewAuditService creates a new AuditService
func NewAuditService(logs finance.AuditLogRepository) *AuditService {
	return &AuditService{logs: logs}
}

// List returns a page of audit entries, newest first
func (s *AuditService) List(ctx context.Context, tenantID uuid.UUID, filter AuditLogListFilter) ([]finance.AuditLog, int64, error) {
	entityID, err := parseOptionalUUID("entity_id", filter.EntityID)
	if err != nil {
		return nil, 0, err
	}
	f := finance.AuditLogFilter{
		Filter:     filter.toFilter(),
		EntityType: filter.EntityType,
		EntityID:   entityID,
	}
	if filter.Action != "" {
		action := finance.AuditAction(filter.Action)
		f.Action = &action
	}
	items, total, err := s.logs.FindAllForTenant(ctx, tenantID, f)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return items, total, nil
}

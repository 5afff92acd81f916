package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/schoolerp/feeledger/internal/domain/finance"
	"github.com/schoolerp/feeledger/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// AuditLogSortFields contains allowed sort fields for audit logs
var AuditLogSortFields = map[string]bool{
	"created_at":  true,
	"action":      true,
	"entity_type": true,
}

// GormAuditLogRepository implements finance.AuditLogRepository. Rows are
// never updated or deleted.
type GormAuditLogRepository struct {
	db *gorm.DB
}

// NewGormAuditLogRepository creates a new GormAuditLogRepository
func NewGormAuditLogRepository(db *gorm.DB) *GormAuditLogRepository {
	return &GormAuditLogRepository{db: db}
}

// Append inserts entries in one statement
func (r *GormAuditLogRepository) Append(ctx context.Context, entries ...*finance.AuditLog) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]*models.AuditLogModel, len(entries))
	for i, e := range entries {
		rows[i] = models.AuditLogModelFromDomain(e)
	}
	return translateError(r.db.WithContext(ctx).Create(rows).Error)
}

// FindAllForTenant lists audit entries, newest first by default
func (r *GormAuditLogRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter finance.AuditLogFilter) ([]finance.AuditLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.AuditLogModel{}).Scopes(forTenant(tenantID))
	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != nil {
		query = query.Where("entity_id = ?", *filter.EntityID)
	}
	if filter.Action != nil {
		query = query.Where("action = ?", *filter.Action)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.AuditLogModel
	if err := query.Scopes(paginate(filter.Filter, AuditLogSortFields, "created_at")).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	logs := make([]finance.AuditLog, len(rows))
	for i := range rows {
		logs[i] = *rows[i].ToDomain()
	}
	return logs, total, nil
}

var _ finance.AuditLogRepository = (*GormAuditLogRepository)(nil)

package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/schoolerp/feeledger/internal/domain/finance"
	"github.com/schoolerp/feeledger/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

var adjustmentColumns = []string{
	"status", "approved_by", "approved_at", "rejected_by", "rejected_at",
	"rejection_reason", "version", "updated_at",
}

// GormAdjustmentRepository implements finance.AdjustmentRepository. Discounts
// and scholarships share one model and live in separate tables.
type GormAdjustmentRepository struct {
	db *gorm.DB
}

// NewGormAdjustmentRepository creates a new GormAdjustmentRepository
func NewGormAdjustmentRepository(db *gorm.DB) *GormAdjustmentRepository {
	return &GormAdjustmentRepository{db: db}
}

func (r *GormAdjustmentRepository) table(ctx context.Context, kind finance.AdjustmentKind) *gorm.DB {
	return r.db.WithContext(ctx).Table(models.AdjustmentTable(kind))
}

// FindByIDForTenant finds an adjustment of kind by ID
func (r *GormAdjustmentRepository) FindByIDForTenant(ctx context.Context, tenantID uuid.UUID, kind finance.AdjustmentKind, id uuid.UUID) (*finance.Adjustment, error) {
	return r.find(r.table(ctx, kind), tenantID, kind, id)
}

// FindByIDForUpdate finds an adjustment and locks its row
func (r *GormAdjustmentRepository) FindByIDForUpdate(ctx context.Context, tenantID uuid.UUID, kind finance.AdjustmentKind, id uuid.UUID) (*finance.Adjustment, error) {
	return r.find(r.table(ctx, kind).Scopes(forUpdate), tenantID, kind, id)
}

func (r *GormAdjustmentRepository) find(db *gorm.DB, tenantID uuid.UUID, kind finance.AdjustmentKind, id uuid.UUID) (*finance.Adjustment, error) {
	var model models.AdjustmentModel
	if err := db.Scopes(forTenant(tenantID)).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(kind), nil
}

// FindByStudentFee returns discounts then scholarships of one ledger
func (r *GormAdjustmentRepository) FindByStudentFee(ctx context.Context, tenantID, studentFeeID uuid.UUID) ([]finance.Adjustment, error) {
	var result []finance.Adjustment
	for _, kind := range []finance.AdjustmentKind{finance.AdjustmentKindDiscount, finance.AdjustmentKindScholarship} {
		var rows []models.AdjustmentModel
		if err := r.table(ctx, kind).
			Scopes(forTenant(tenantID)).
			Where("student_fee_id = ?", studentFeeID).
			Order("created_at ASC").
			Find(&rows).Error; err != nil {
			return nil, err
		}
		for i := range rows {
			result = append(result, *rows[i].ToDomain(kind))
		}
	}
	return result, nil
}

// Create inserts an adjustment into the table for its kind
func (r *GormAdjustmentRepository) Create(ctx context.Context, a *finance.Adjustment) error {
	return translateError(r.table(ctx, a.Kind).Create(models.AdjustmentModelFromDomain(a)).Error)
}

// SaveWithLock writes the approval columns with optimistic locking
func (r *GormAdjustmentRepository) SaveWithLock(ctx context.Context, a *finance.Adjustment) error {
	model := models.AdjustmentModelFromDomain(a)
	result := r.table(ctx, a.Kind).
		Where("id = ? AND tenant_id = ? AND version = ?", a.ID, a.TenantID, a.Version-1).
		Select(adjustmentColumns).
		Updates(model)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return errConcurrentUpdate("adjustment")
	}
	return nil
}

var _ finance.AdjustmentRepository = (*GormAdjustmentRepository)(nil)

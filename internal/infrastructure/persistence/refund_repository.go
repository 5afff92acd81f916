package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/schoolerp/feeledger/internal/domain/finance"
	"github.com/schoolerp/feeledger/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RefundSortFields contains allowed sort fields for refunds
var RefundSortFields = map[string]bool{
	"created_at":    true,
	"updated_at":    true,
	"amount":        true,
	"refund_number": true,
	"status":        true,
}

var refundColumns = []string{
	"status", "approved_by", "approved_at", "rejected_by", "rejected_at", "rejection_reason",
	"processed_at", "completed_at", "ledger_reopened", "version", "updated_at",
}

// GormRefundRepository implements finance.RefundRepository using GORM
type GormRefundRepository struct {
	db *gorm.DB
}

// NewGormRefundRepository creates a new GormRefundRepository
func NewGormRefundRepository(db *gorm.DB) *GormRefundRepository {
	return &GormRefundRepository{db: db}
}

// FindByIDForTenant finds a refund by ID
func (r *GormRefundRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*finance.Refund, error) {
	return r.find(r.db.WithContext(ctx), tenantID, id)
}

// FindByIDForUpdate finds a refund and locks its row
func (r *GormRefundRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*finance.Refund, error) {
	return r.find(r.db.WithContext(ctx).Scopes(forUpdate), tenantID, id)
}

func (r *GormRefundRepository) find(db *gorm.DB, tenantID, id uuid.UUID) (*finance.Refund, error) {
	var model models.RefundModel
	if err := db.Scopes(forTenant(tenantID)).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists refunds matching filter
func (r *GormRefundRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter finance.RefundFilter) ([]finance.Refund, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.RefundModel{}).Scopes(forTenant(tenantID))
	if filter.PaymentID != nil {
		query = query.Where("payment_id = ?", *filter.PaymentID)
	}
	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.RefundModel
	if err := query.Scopes(paginate(filter.Filter, RefundSortFields, "created_at")).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	refunds := make([]finance.Refund, len(rows))
	for i := range rows {
		refunds[i] = *rows[i].ToDomain()
	}
	return refunds, total, nil
}

// Create inserts a refund
func (r *GormRefundRepository) Create(ctx context.Context, refund *finance.Refund) error {
	return translateError(r.db.WithContext(ctx).Create(models.RefundModelFromDomain(refund)).Error)
}

// SaveWithLock writes lifecycle columns with optimistic locking
func (r *GormRefundRepository) SaveWithLock(ctx context.Context, refund *finance.Refund) error {
	model := models.RefundModelFromDomain(refund)
	result := r.db.WithContext(ctx).
		Model(&models.RefundModel{}).
		Where("id = ? AND tenant_id = ? AND version = ?", refund.ID, refund.TenantID, refund.Version-1).
		Select(refundColumns).
		Updates(model)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return errConcurrentUpdate("refund")
	}
	return nil
}

// SumCommittedByPayment totals approved, processed and completed refunds of a payment
func (r *GormRefundRepository) SumCommittedByPayment(ctx context.Context, tenantID, paymentID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.RefundModel{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Scopes(forTenant(tenantID)).
		Where("payment_id = ? AND status IN ?", paymentID, finance.CommittedStatuses).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

var _ finance.RefundRepository = (*GormRefundRepository)(nil)

package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/schoolerp/feeledger/internal/domain/finance"
	"github.com/schoolerp/feeledger/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentSortFields contains allowed sort fields for payments
var PaymentSortFields = map[string]bool{
	"created_at":     true,
	"payment_date":   true,
	"amount":         true,
	"receipt_number": true,
	"method":         true,
}

// GormPaymentRepository implements finance.PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByIDForTenant finds a payment by ID
func (r *GormPaymentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*finance.Payment, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id), tenantID)
}

// FindByIDForUpdate finds a payment and locks its row. Refund approvals lock
// the payment to serialize the refundable cap check.
func (r *GormPaymentRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*finance.Payment, error) {
	return r.first(r.db.WithContext(ctx).Scopes(forUpdate).Where("id = ?", id), tenantID)
}

// FindByReceiptNumber finds a payment by its receipt number
func (r *GormPaymentRepository) FindByReceiptNumber(ctx context.Context, tenantID uuid.UUID, receiptNumber string) (*finance.Payment, error) {
	return r.first(r.db.WithContext(ctx).Where("receipt_number = ?", receiptNumber), tenantID)
}

func (r *GormPaymentRepository) first(db *gorm.DB, tenantID uuid.UUID) (*finance.Payment, error) {
	var model models.PaymentModel
	if err := db.Scopes(forTenant(tenantID)).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists payments matching filter
func (r *GormPaymentRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter finance.PaymentFilter) ([]finance.Payment, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.PaymentModel{}).Scopes(forTenant(tenantID))
	if filter.StudentFeeID != nil {
		query = query.Where("student_fee_id = ?", *filter.StudentFeeID)
	}
	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}
	if filter.Method != nil {
		query = query.Where("method = ?", *filter.Method)
	}
	if filter.FromDate != nil {
		query = query.Where("payment_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("payment_date <= ?", *filter.ToDate)
	}
	if filter.Search != "" {
		query = query.Where("receipt_number LIKE ? OR reference_number LIKE ?", filter.Search+"%", filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.PaymentModel
	if err := query.Scopes(paginate(filter.Filter, PaymentSortFields, "payment_date")).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	payments := make([]finance.Payment, len(rows))
	for i := range rows {
		payments[i] = *rows[i].ToDomain()
	}
	return payments, total, nil
}

// FindByStudentFee returns all payments of one ledger, oldest first
func (r *GormPaymentRepository) FindByStudentFee(ctx context.Context, tenantID, studentFeeID uuid.UUID) ([]finance.Payment, error) {
	var rows []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Scopes(forTenant(tenantID)).
		Where("student_fee_id = ?", studentFeeID).
		Order("payment_date ASC, receipt_number ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	payments := make([]finance.Payment, len(rows))
	for i := range rows {
		payments[i] = *rows[i].ToDomain()
	}
	return payments, nil
}

// Create inserts a payment. Payments are never updated.
func (r *GormPaymentRepository) Create(ctx context.Context, p *finance.Payment) error {
	return translateError(r.db.WithContext(ctx).Create(models.PaymentModelFromDomain(p)).Error)
}

// SumByStudentFee totals SUCCESS payments of one ledger
func (r *GormPaymentRepository) SumByStudentFee(ctx context.Context, tenantID, studentFeeID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Scopes(forTenant(tenantID)).
		Where("student_fee_id = ? AND status = ?", studentFeeID, finance.PaymentStatusSuccess).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

var _ finance.PaymentRepository = (*GormPaymentRepository)(nil)

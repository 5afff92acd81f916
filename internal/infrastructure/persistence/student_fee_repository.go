package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/feeledger/internal/domain/finance"
	"github.com/schoolerp/feeledger/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// StudentFeeSortFields contains allowed sort fields for student fees
var StudentFeeSortFields = map[string]bool{
	"created_at":     true,
	"updated_at":     true,
	"due_date":       true,
	"final_amount":   true,
	"balance_amount": true,
	"status":         true,
}

// ledgerColumns are the columns a ledger mutation may change
var ledgerColumns = []string{
	"discount_amount", "scholarship_amount", "tax_amount", "final_amount",
	"paid_amount", "balance_amount", "status", "due_date", "paid_at",
	"version", "updated_at",
}

// GormStudentFeeRepository implements finance.StudentFeeRepository using GORM
type GormStudentFeeRepository struct {
	db *gorm.DB
}

// NewGormStudentFeeRepository creates a new GormStudentFeeRepository
func NewGormStudentFeeRepository(db *gorm.DB) *GormStudentFeeRepository {
	return &GormStudentFeeRepository{db: db}
}

// FindByIDForTenant finds a student fee by ID for a school
func (r *GormStudentFeeRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*finance.StudentFee, error) {
	return r.find(r.db.WithContext(ctx), tenantID, id)
}

// FindByIDForUpdate loads the ledger row with SELECT ... FOR UPDATE. It must
// run inside a transaction for the lock to mean anything.
func (r *GormStudentFeeRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*finance.StudentFee, error) {
	return r.find(r.db.WithContext(ctx).Scopes(forUpdate), tenantID, id)
}

func (r *GormStudentFeeRepository) find(db *gorm.DB, tenantID, id uuid.UUID) (*finance.StudentFee, error) {
	var model models.StudentFeeModel
	if err := db.Scopes(forTenant(tenantID)).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists student fees matching filter
func (r *GormStudentFeeRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter finance.StudentFeeFilter) ([]finance.StudentFee, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.StudentFeeModel{}).Scopes(forTenant(tenantID))
	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}
	if filter.FeeStructureID != nil {
		query = query.Where("fee_structure_id = ?", *filter.FeeStructureID)
	}
	if filter.AcademicYearID != nil {
		query = query.Where("academic_year_id = ?", *filter.AcademicYearID)
	}
	if filter.AcademicUnitID != nil {
		query = query.Where("academic_unit_id = ?", *filter.AcademicUnitID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.StudentFeeModel
	if err := query.Scopes(paginate(filter.Filter, StudentFeeSortFields, "created_at")).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	fees := make([]finance.StudentFee, len(rows))
	for i := range rows {
		fees[i] = *rows[i].ToDomain()
	}
	return fees, total, nil
}

// ExistsForStudent reports whether the student already has a fee from the structure
func (r *GormStudentFeeRepository) ExistsForStudent(ctx context.Context, tenantID, studentID, feeStructureID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.StudentFeeModel{}).
		Scopes(forTenant(tenantID)).
		Where("student_id = ? AND fee_structure_id = ?", studentID, feeStructureID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts a new ledger row
func (r *GormStudentFeeRepository) Create(ctx context.Context, fee *finance.StudentFee) error {
	if err := fee.CheckInvariants(); err != nil {
		return err
	}
	return translateError(r.db.WithContext(ctx).Create(models.StudentFeeModelFromDomain(fee)).Error)
}

// SaveWithLock writes the ledger columns if the stored version is the one
// before the last mutation.
func (r *GormStudentFeeRepository) SaveWithLock(ctx context.Context, fee *finance.StudentFee) error {
	if err := fee.CheckInvariants(); err != nil {
		return err
	}
	model := models.StudentFeeModelFromDomain(fee)
	result := r.db.WithContext(ctx).
		Model(&models.StudentFeeModel{}).
		Where("id = ? AND tenant_id = ? AND version = ?", fee.ID, fee.TenantID, fee.Version-1).
		Select(ledgerColumns).
		Updates(model)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return errConcurrentUpdate("student fee")
	}
	return nil
}

// MarkOverdue flags PENDING and PARTIAL fees with a positive balance whose due
// date is before now, in one statement.
func (r *GormStudentFeeRepository) MarkOverdue(ctx context.Context, tenantID *uuid.UUID, now time.Time) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.StudentFeeModel{}).
		Where("status IN ?", []finance.FeeStatus{finance.FeeStatusPending, finance.FeeStatusPartial}).
		Where("due_date IS NOT NULL AND due_date < ?", now).
		Where("balance_amount > 0")
	if tenantID != nil {
		query = query.Scopes(forTenant(*tenantID))
	}
	result := query.Updates(map[string]interface{}{
		"status":     finance.FeeStatusOverdue,
		"version":    gorm.Expr("version + 1"),
		"updated_at": now,
	})
	if result.Error != nil {
		return 0, translateError(result.Error)
	}
	return result.RowsAffected, nil
}

var _ finance.StudentFeeRepository = (*GormStudentFeeRepository)(nil)

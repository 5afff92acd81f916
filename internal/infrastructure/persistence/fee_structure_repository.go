package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/schoolerp/feeledger/internal/domain/finance"
	"github.com/schoolerp/feeledger/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// FeeStructureSortFields contains allowed sort fields for fee structures
var FeeStructureSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"due_date":   true,
}

// GormFeeStructureRepository implements finance.FeeStructureRepository using GORM
type GormFeeStructureRepository struct {
	db *gorm.DB
}

// NewGormFeeStructureRepository creates a new GormFeeStructureRepository
func NewGormFeeStructureRepository(db *gorm.DB) *GormFeeStructureRepository {
	return &GormFeeStructureRepository{db: db}
}

func preloadComponents(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Components", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Preload("Components.Installments", func(db *gorm.DB) *gorm.DB { return db.Order("number ASC") })
}

// FindByIDForTenant finds a fee structure with its components
func (r *GormFeeStructureRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*finance.FeeStructure, error) {
	var model models.FeeStructureModel
	if err := r.db.WithContext(ctx).
		Scopes(forTenant(tenantID), preloadComponents).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists fee structures matching filter
func (r *GormFeeStructureRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter finance.FeeStructureFilter) ([]finance.FeeStructure, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.FeeStructureModel{}).Scopes(forTenant(tenantID))
	if filter.AcademicYearID != nil {
		query = query.Where("academic_year_id = ?", *filter.AcademicYearID)
	}
	if filter.AcademicUnitID != nil {
		query = query.Where("academic_unit_id = ?", *filter.AcademicUnitID)
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if filter.Search != "" {
		query = query.Where("LOWER(name) LIKE LOWER(?)", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.FeeStructureModel
	if err := query.
		Scopes(preloadComponents, paginate(filter.Filter, FeeStructureSortFields, "created_at")).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	structures := make([]finance.FeeStructure, len(rows))
	for i := range rows {
		structures[i] = *rows[i].ToDomain()
	}
	return structures, total, nil
}

// Save creates the structure or replaces it, components included. Updates are
// version checked.
func (r *GormFeeStructureRepository) Save(ctx context.Context, fs *finance.FeeStructure) error {
	model := models.FeeStructureModelFromDomain(fs)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if fs.Version <= 1 {
			return translateError(tx.Create(model).Error)
		}

		result := tx.Model(&models.FeeStructureModel{}).
			Where("id = ? AND tenant_id = ? AND version = ?", fs.ID, fs.TenantID, fs.Version-1).
			Select("name", "description", "due_date", "is_active", "version", "updated_at").
			Updates(map[string]interface{}{
				"name":        model.Name,
				"description": model.Description,
				"due_date":    model.DueDate,
				"is_active":   model.IsActive,
				"version":     model.Version,
				"updated_at":  model.UpdatedAt,
			})
		if result.Error != nil {
			return translateError(result.Error)
		}
		if result.RowsAffected == 0 {
			return errConcurrentUpdate("fee structure")
		}

		componentIDs := tx.Model(&models.FeeComponentModel{}).Select("id").Where("fee_structure_id = ?", fs.ID)
		if err := tx.Where("component_id IN (?)", componentIDs).Delete(&models.FeeInstallmentModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("fee_structure_id = ?", fs.ID).Delete(&models.FeeComponentModel{}).Error; err != nil {
			return err
		}
		if len(model.Components) == 0 {
			return nil
		}
		return tx.Create(&model.Components).Error
	})
}

// IsReferenced reports whether any student fee was created from the structure
func (r *GormFeeStructureRepository) IsReferenced(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.StudentFeeModel{}).
		Scopes(forTenant(tenantID)).
		Where("fee_structure_id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

var _ finance.FeeStructureRepository = (*GormFeeStructureRepository)(nil)

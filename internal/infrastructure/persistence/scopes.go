package persistence

import (
	"github.com/google/uuid"
	"github.com/schoolerp/feeledger/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// forTenant restricts a query to one school
func forTenant(tenantID uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("tenant_id = ?", tenantID)
	}
}

// forUpdate takes a row lock held until the transaction ends. The sqlite
// dialect drops the clause, which is fine with a single writer connection.
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// paginate applies ordering and paging from a normalized filter
func paginate(filter shared.Filter, allowed map[string]bool, defaultField string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		filter.Normalize()
		field := ValidateSortField(filter.OrderBy, allowed, defaultField)
		dir := ValidateSortOrder(filter.OrderDir)
		return db.Order(field + " " + dir).Offset(filter.Offset()).Limit(filter.PageSize)
	}
}

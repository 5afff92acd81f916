package migration

import (
	"fmt"

	"github.com/schoolerp/feeledger/internal/domain/finance"
	"github.com/schoolerp/feeledger/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// AutoMigrate creates the fee ledger tables from the GORM models. It backs
// the sqlite development mode; postgres deployments run the SQL files, which
// also carry the tenant-scoped unique and check constraints.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.FeeLedgerModels()...); err != nil {
		return fmt.Errorf("auto-migrate fee ledger: %w", err)
	}
	for _, kind := range []finance.AdjustmentKind{finance.AdjustmentKindDiscount, finance.AdjustmentKindScholarship} {
		table := models.AdjustmentTable(kind)
		if err := db.Table(table).AutoMigrate(&models.AdjustmentModel{}); err != nil {
			return fmt.Errorf("auto-migrate %s: %w", table, err)
		}
	}
	return nil
}

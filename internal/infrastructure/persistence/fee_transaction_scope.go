package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/schoolerp/feeledger/internal/domain/finance"
	"gorm.io/gorm"
)

// GormFeeTransactionScope implements finance.TransactionScope using GORM
// transactions. Each Execute is bounded by txTimeout, and on postgres every
// lock wait inside it by lockTimeout.
type GormFeeTransactionScope struct {
	db          *gorm.DB
	txTimeout   time.Duration
	lockTimeout time.Duration
}

// NewGormFeeTransactionScope creates a new GormFeeTransactionScope. Zero
// timeouts disable the corresponding bound.
func NewGormFeeTransactionScope(db *gorm.DB, txTimeout, lockTimeout time.Duration) *GormFeeTransactionScope {
	return &GormFeeTransactionScope{db: db, txTimeout: txTimeout, lockTimeout: lockTimeout}
}

// Execute runs fn within a database transaction. If fn returns an error the
// transaction is rolled back, otherwise it is committed.
func (s *GormFeeTransactionScope) Execute(ctx context.Context, fn func(repos finance.Repositories) error) error {
	if s.txTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.txTimeout)
		defer cancel()
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if s.lockTimeout > 0 && tx.Dialector.Name() == "postgres" {
			// SET LOCAL does not take bind parameters
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return fn(NewFeeRepositories(tx))
	})
	return translateError(err)
}

// NewFeeRepositories binds every fee ledger repository to db
func NewFeeRepositories(db *gorm.DB) finance.Repositories {
	return finance.Repositories{
		FeeStructures: NewGormFeeStructureRepository(db),
		StudentFees:   NewGormStudentFeeRepository(db),
		Adjustments:   NewGormAdjustmentRepository(db),
		Payments:      NewGormPaymentRepository(db),
		Refunds:       NewGormRefundRepository(db),
		Invoices:      NewGormInvoiceRepository(db),
		Settings:      NewGormSettingsRepository(db),
		AuditLogs:     NewGormAuditLogRepository(db),
	}
}

var _ finance.TransactionScope = (*GormFeeTransactionScope)(nil)

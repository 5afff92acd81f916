package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/feeledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// FeeStructureFilter defines filtering options for fee structure queries
type FeeStructureFilter struct {
	shared.Filter
	AcademicYearID *uuid.UUID
	AcademicUnitID *uuid.UUID
	ActiveOnly     bool
}

// FeeStructureRepository persists fee structures with their components
type FeeStructureRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*FeeStructure, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter FeeStructureFilter) ([]FeeStructure, int64, error)
	// Save creates or replaces the structure and its components
	Save(ctx context.Context, fs *FeeStructure) error
	// IsReferenced reports whether any student fee uses the structure
	IsReferenced(ctx context.Context, tenantID, id uuid.UUID) (bool, error)
}

// StudentFeeFilter defines filtering options for student fee queries
type StudentFeeFilter struct {
	shared.Filter
	StudentID      *uuid.UUID
	FeeStructureID *uuid.UUID
	AcademicYearID *uuid.UUID
	AcademicUnitID *uuid.UUID
	Status         *FeeStatus
}

// StudentFeeRepository persists ledger entries. Student fees are never deleted.
type StudentFeeRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*StudentFee, error)
	// FindByIDForUpdate loads the row with a row-level lock held until the
	// surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*StudentFee, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter StudentFeeFilter) ([]StudentFee, int64, error)
	ExistsForStudent(ctx context.Context, tenantID, studentID, feeStructureID uuid.UUID) (bool, error)
	Create(ctx context.Context, fee *StudentFee) error
	// SaveWithLock updates the row only if the stored version is the one the
	// aggregate was loaded with.
	SaveWithLock(ctx context.Context, fee *StudentFee) error
	// MarkOverdue flags unpaid fees past their due date. A nil tenant means all schools.
	MarkOverdue(ctx context.Context, tenantID *uuid.UUID, now time.Time) (int64, error)
}

// AdjustmentRepository persists discounts and scholarships
type AdjustmentRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID uuid.UUID, kind AdjustmentKind, id uuid.UUID) (*Adjustment, error)
	FindByIDForUpdate(ctx context.Context, tenantID uuid.UUID, kind AdjustmentKind, id uuid.UUID) (*Adjustment, error)
	FindByStudentFee(ctx context.Context, tenantID, studentFeeID uuid.UUID) ([]Adjustment, error)
	Create(ctx context.Context, a *Adjustment) error
	SaveWithLock(ctx context.Context, a *Adjustment) error
}

// PaymentFilter defines filtering options for payment queries
type PaymentFilter struct {
	shared.Filter
	StudentFeeID *uuid.UUID
	StudentID    *uuid.UUID
	Method       *PaymentMethod
	FromDate     *time.Time
	ToDate       *time.Time
}

// PaymentRepository persists payments. Payments are insert-only.
type PaymentRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Payment, error)
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Payment, error)
	FindByReceiptNumber(ctx context.Context, tenantID uuid.UUID, receiptNumber string) (*Payment, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter PaymentFilter) ([]Payment, int64, error)
	FindByStudentFee(ctx context.Context, tenantID, studentFeeID uuid.UUID) ([]Payment, error)
	Create(ctx context.Context, p *Payment) error
	// SumByStudentFee totals SUCCESS payments of one ledger
	SumByStudentFee(ctx context.Context, tenantID, studentFeeID uuid.UUID) (decimal.Decimal, error)
}

// RefundFilter defines filtering options for refund queries
type RefundFilter struct {
	shared.Filter
	PaymentID *uuid.UUID
	StudentID *uuid.UUID
	Status    *RefundStatus
}

// RefundRepository persists refunds
type RefundRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Refund, error)
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Refund, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter RefundFilter) ([]Refund, int64, error)
	Create(ctx context.Context, r *Refund) error
	SaveWithLock(ctx context.Context, r *Refund) error
	// SumCommittedByPayment totals the payment's refunds in CommittedStatuses
	SumCommittedByPayment(ctx context.Context, tenantID, paymentID uuid.UUID) (decimal.Decimal, error)
}

// InvoiceRepository persists invoice snapshots
type InvoiceRepository interface {
	Create(ctx context.Context, inv *Invoice) error
	FindByNumber(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (*Invoice, error)
}

// SettingsRepository persists per-school finance settings and counters
type SettingsRepository interface {
	// Get returns the school's settings, creating the default row if missing
	Get(ctx context.Context, tenantID uuid.UUID) (*FinanceSettings, error)
	// Save writes prefixes, padding and currency. Counters are never written.
	Save(ctx context.Context, s *FinanceSettings) error
	// NextNumber atomically increments the counter and returns the formatted
	// document number. Two committed callers never get the same value.
	NextNumber(ctx context.Context, tenantID uuid.UUID, kind SequenceKind) (string, error)
}

// AuditLogFilter defines filtering options for audit queries
type AuditLogFilter struct {
	shared.Filter
	EntityType string
	EntityID   *uuid.UUID
	Action     *AuditAction
}

// AuditLogRepository is append-only
type AuditLogRepository interface {
	Append(ctx context.Context, entries ...*AuditLog) error
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter AuditLogFilter) ([]AuditLog, int64, error)
}

// ReportRepository runs read-only aggregations over committed data
type ReportRepository interface {
	CollectionSummary(ctx context.Context, tenantID uuid.UUID, q CollectionQuery) (*CollectionSummary, error)
	DuesSummary(ctx context.Context, tenantID uuid.UUID, q DuesQuery) (*DuesSummary, error)
}

// Repositories groups the repositories bound to one transaction
type Repositories struct {
	FeeStructures FeeStructureRepository
	StudentFees   StudentFeeRepository
	Adjustments   AdjustmentRepository
	Payments      PaymentRepository
	Refunds       RefundRepository
	Invoices      InvoiceRepository
	Settings      SettingsRepository
	AuditLogs     AuditLogRepository
}

// TransactionScope runs fn with repositories bound to a single transaction.
// Any error from fn rolls back every write made through them.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}

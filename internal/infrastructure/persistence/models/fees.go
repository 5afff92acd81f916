package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/feeledger/internal/domain/finance"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// FeeStructureModel is the persistence model for the FeeStructure aggregate root.
type FeeStructureModel struct {
	TenantAggregateModel
	AcademicYearID uuid.UUID           `gorm:"type:uuid;not null;index"`
	AcademicUnitID *uuid.UUID          `gorm:"type:uuid;index"`
	Name           string              `gorm:"type:varchar(200);not null"`
	Description    string              `gorm:"type:text"`
	DueDate        *time.Time          `gorm:"type:date"`
	IsActive       bool                `gorm:"not null;default:true;index"`
	Components     []FeeComponentModel `gorm:"foreignKey:FeeStructureID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (FeeStructureModel) TableName() string {
	return "fee_structures"
}

// FeeComponentModel is one charge line of a fee structure.
type FeeComponentModel struct {
	ID             uuid.UUID             `gorm:"type:uuid;primary_key"`
	FeeStructureID uuid.UUID             `gorm:"type:uuid;not null;index"`
	Name           string                `gorm:"type:varchar(200);not null"`
	FeeType        finance.FeeType       `gorm:"type:varchar(20);not null"`
	Amount         decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Frequency      finance.FeeFrequency  `gorm:"type:varchar(20);not null;default:'ONE_TIME'"`
	IsMandatory    bool                  `gorm:"not null"`
	SortOrder      int                   `gorm:"not null;default:0"`
	Installments   []FeeInstallmentModel `gorm:"foreignKey:ComponentID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (FeeComponentModel) TableName() string {
	return "fee_components"
}

// FeeInstallmentModel is one scheduled part of a component.
type FeeInstallmentModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	ComponentID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Number      int             `gorm:"not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	DueDate     time.Time       `gorm:"type:date;not null"`
}

// TableName returns the table name for GORM
func (FeeInstallmentModel) TableName() string {
	return "fee_installments"
}

// ToDomain converts the persistence model to a domain FeeStructure.
func (m *FeeStructureModel) ToDomain() *finance.FeeStructure {
	fs := &finance.FeeStructure{
		AcademicYearID: m.AcademicYearID,
		AcademicUnitID: m.AcademicUnitID,
		Name:           m.Name,
		Description:    m.Description,
		DueDate:        m.DueDate,
		IsActive:       m.IsActive,
		Components:     make([]finance.FeeComponent, 0, len(m.Components)),
	}
	m.PopulateTenantAggregateRoot(&fs.TenantAggregateRoot)
	for _, c := range m.Components {
		comp := finance.FeeComponent{
			ID:          c.ID,
			Name:        c.Name,
			FeeType:     c.FeeType,
			Amount:      c.Amount,
			Frequency:   c.Frequency,
			IsMandatory: c.IsMandatory,
			SortOrder:   c.SortOrder,
		}
		for _, i := range c.Installments {
			comp.Installments = append(comp.Installments, finance.Installment{
				ID:      i.ID,
				Number:  i.Number,
				Amount:  i.Amount,
				DueDate: i.DueDate,
			})
		}
		fs.Components = append(fs.Components, comp)
	}
	return fs
}

// FeeStructureModelFromDomain creates a persistence model, components included.
func FeeStructureModelFromDomain(fs *finance.FeeStructure) *FeeStructureModel {
	m := &FeeStructureModel{
		AcademicYearID: fs.AcademicYearID,
		AcademicUnitID: fs.AcademicUnitID,
		Name:           fs.Name,
		Description:    fs.Description,
		DueDate:        fs.DueDate,
		IsActive:       fs.IsActive,
	}
	m.FromDomainTenantAggregateRoot(fs.TenantAggregateRoot)
	for _, c := range fs.Components {
		cm := FeeComponentModel{
			ID:             c.ID,
			FeeStructureID: fs.ID,
			Name:           c.Name,
			FeeType:        c.FeeType,
			Amount:         c.Amount,
			Frequency:      c.Frequency,
			IsMandatory:    c.IsMandatory,
			SortOrder:      c.SortOrder,
		}
		for _, i := range c.Installments {
			cm.Installments = append(cm.Installments, FeeInstallmentModel{
				ID:          i.ID,
				ComponentID: c.ID,
				Number:      i.Number,
				Amount:      i.Amount,
				DueDate:     i.DueDate,
			})
		}
		m.Components = append(m.Components, cm)
	}
	return m
}

// StudentFeeModel is the persistence model for the StudentFee ledger.
type StudentFeeModel struct {
	TenantAggregateModel
	StudentID         uuid.UUID         `gorm:"type:uuid;not null;index"`
	FeeStructureID    uuid.UUID         `gorm:"type:uuid;not null;index"`
	AcademicYearID    uuid.UUID         `gorm:"type:uuid;not null;index"`
	AcademicUnitID    *uuid.UUID        `gorm:"type:uuid;index"`
	TotalAmount       decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	DiscountAmount    decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	ScholarshipAmount decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	TaxAmount         decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	FinalAmount       decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	PaidAmount        decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	BalanceAmount     decimal.Decimal   `gorm:"type:decimal(18,4);not null;index"`
	Status            finance.FeeStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	DueDate           *time.Time        `gorm:"type:date;index"`
	PaidAt            *time.Time
}

// TableName returns the table name for GORM
func (StudentFeeModel) TableName() string {
	return "student_fees"
}

// ToDomain converts the persistence model to a domain StudentFee.
func (m *StudentFeeModel) ToDomain() *finance.StudentFee {
	sf := &finance.StudentFee{
		StudentID:         m.StudentID,
		FeeStructureID:    m.FeeStructureID,
		AcademicYearID:    m.AcademicYearID,
		AcademicUnitID:    m.AcademicUnitID,
		TotalAmount:       m.TotalAmount,
		DiscountAmount:    m.DiscountAmount,
		ScholarshipAmount: m.ScholarshipAmount,
		TaxAmount:         m.TaxAmount,
		FinalAmount:       m.FinalAmount,
		PaidAmount:        m.PaidAmount,
		BalanceAmount:     m.BalanceAmount,
		Status:            m.Status,
		DueDate:           m.DueDate,
		PaidAt:            m.PaidAt,
	}
	m.PopulateTenantAggregateRoot(&sf.TenantAggregateRoot)
	return sf
}

// FromDomain populates the persistence model from a domain StudentFee.
func (m *StudentFeeModel) FromDomain(sf *finance.StudentFee) {
	m.FromDomainTenantAggregateRoot(sf.TenantAggregateRoot)
	m.StudentID = sf.StudentID
	m.FeeStructureID = sf.FeeStructureID
	m.AcademicYearID = sf.AcademicYearID
	m.AcademicUnitID = sf.AcademicUnitID
	m.TotalAmount = sf.TotalAmount
	m.DiscountAmount = sf.DiscountAmount
	m.ScholarshipAmount = sf.ScholarshipAmount
	m.TaxAmount = sf.TaxAmount
	m.FinalAmount = sf.FinalAmount
	m.PaidAmount = sf.PaidAmount
	m.BalanceAmount = sf.BalanceAmount
	m.Status = sf.Status
	m.DueDate = sf.DueDate
	m.PaidAt = sf.PaidAt
}

// StudentFeeModelFromDomain creates a new persistence model from a domain StudentFee.
func StudentFeeModelFromDomain(sf *finance.StudentFee) *StudentFeeModel {
	m := &StudentFeeModel{}
	m.FromDomain(sf)
	return m
}

// AdjustmentModel backs both fee_discounts and fee_scholarships. The kind is
// implied by the table, see AdjustmentTable.
type AdjustmentModel struct {
	TenantAggregateModel
	StudentFeeID    uuid.UUID                `gorm:"type:uuid;not null;index"`
	StudentID       uuid.UUID                `gorm:"type:uuid;not null;index"`
	Name            string                   `gorm:"type:varchar(200)"`
	ValueType       finance.ValueType        `gorm:"type:varchar(20);not null"`
	Value           decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	Amount          decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	Reason          string                   `gorm:"type:text"`
	Status          finance.AdjustmentStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	ApprovedBy      *uuid.UUID               `gorm:"type:uuid"`
	ApprovedAt      *time.Time
	RejectedBy      *uuid.UUID `gorm:"type:uuid"`
	RejectedAt      *time.Time
	RejectionReason string `gorm:"type:varchar(500)"`
}

// AdjustmentTable returns the table holding adjustments of kind
func AdjustmentTable(kind finance.AdjustmentKind) string {
	if kind == finance.AdjustmentKindScholarship {
		return "fee_scholarships"
	}
	return "fee_discounts"
}

// ToDomain converts the persistence model to a domain Adjustment of kind.
func (m *AdjustmentModel) ToDomain(kind finance.AdjustmentKind) *finance.Adjustment {
	a := &finance.Adjustment{
		Kind:            kind,
		StudentFeeID:    m.StudentFeeID,
		StudentID:       m.StudentID,
		Name:            m.Name,
		ValueType:       m.ValueType,
		Value:           m.Value,
		Amount:          m.Amount,
		Reason:          m.Reason,
		Status:          m.Status,
		ApprovedBy:      m.ApprovedBy,
		ApprovedAt:      m.ApprovedAt,
		RejectedBy:      m.RejectedBy,
		RejectedAt:      m.RejectedAt,
		RejectionReason: m.RejectionReason,
	}
	m.PopulateTenantAggregateRoot(&a.TenantAggregateRoot)
	return a
}

// AdjustmentModelFromDomain creates a new persistence model from a domain Adjustment.
func AdjustmentModelFromDomain(a *finance.Adjustment) *AdjustmentModel {
	m := &AdjustmentModel{
		StudentFeeID:    a.StudentFeeID,
		StudentID:       a.StudentID,
		Name:            a.Name,
		ValueType:       a.ValueType,
		Value:           a.Value,
		Amount:          a.Amount,
		Reason:          a.Reason,
		Status:          a.Status,
		ApprovedBy:      a.ApprovedBy,
		ApprovedAt:      a.ApprovedAt,
		RejectedBy:      a.RejectedBy,
		RejectedAt:      a.RejectedAt,
		RejectionReason: a.RejectionReason,
	}
	m.FromDomainTenantAggregateRoot(a.TenantAggregateRoot)
	return m
}

// PaymentModel is the persistence model for fee payments.
type PaymentModel struct {
	TenantAggregateModel
	StudentFeeID    uuid.UUID             `gorm:"type:uuid;not null;index"`
	StudentID       uuid.UUID             `gorm:"type:uuid;not null;index"`
	Amount          decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Method          finance.PaymentMethod `gorm:"type:varchar(20);not null;index"`
	Status          finance.PaymentStatus `gorm:"type:varchar(20);not null;default:'SUCCESS';index"`
	ReceiptNumber   string                `gorm:"type:varchar(50);not null;index"`
	PaymentDate     time.Time             `gorm:"not null;index"`
	BankName        string                `gorm:"type:varchar(200)"`
	ReferenceNumber string                `gorm:"type:varchar(100)"`
	Remarks         string                `gorm:"type:text"`
	PayerEmail      string                `gorm:"type:varchar(254)"`
	Metadata        datatypes.JSONMap
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment.
func (m *PaymentModel) ToDomain() *finance.Payment {
	p := &finance.Payment{
		StudentFeeID:    m.StudentFeeID,
		StudentID:       m.StudentID,
		Amount:          m.Amount,
		Method:          m.Method,
		Status:          m.Status,
		ReceiptNumber:   m.ReceiptNumber,
		PaymentDate:     m.PaymentDate,
		BankName:        m.BankName,
		ReferenceNumber: m.ReferenceNumber,
		Remarks:         m.Remarks,
		PayerEmail:      m.PayerEmail,
	}
	if len(m.Metadata) > 0 {
		p.Metadata = map[string]interface{}(m.Metadata)
	}
	m.PopulateTenantAggregateRoot(&p.TenantAggregateRoot)
	return p
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment.
func PaymentModelFromDomain(p *finance.Payment) *PaymentModel {
	m := &PaymentModel{
		StudentFeeID:    p.StudentFeeID,
		StudentID:       p.StudentID,
		Amount:          p.Amount,
		Method:          p.Method,
		Status:          p.Status,
		ReceiptNumber:   p.ReceiptNumber,
		PaymentDate:     p.PaymentDate,
		BankName:        p.BankName,
		ReferenceNumber: p.ReferenceNumber,
		Remarks:         p.Remarks,
		PayerEmail:      p.PayerEmail,
	}
	if p.Metadata != nil {
		m.Metadata = datatypes.JSONMap(p.Metadata)
	}
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	return m
}

// RefundModel is the persistence model for refunds.
type RefundModel struct {
	TenantAggregateModel
	RefundNumber    string               `gorm:"type:varchar(50);not null;index"`
	PaymentID       uuid.UUID            `gorm:"type:uuid;not null;index"`
	StudentFeeID    uuid.UUID            `gorm:"type:uuid;not null;index"`
	StudentID       uuid.UUID            `gorm:"type:uuid;not null;index"`
	Amount          decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	Reason          string               `gorm:"type:text;not null"`
	Status          finance.RefundStatus `gorm:"type:varchar(20);not null;default:'INITIATED';index"`
	ApprovedBy      *uuid.UUID           `gorm:"type:uuid"`
	ApprovedAt      *time.Time
	RejectedBy      *uuid.UUID `gorm:"type:uuid"`
	RejectedAt      *time.Time
	RejectionReason string `gorm:"type:varchar(500)"`
	ProcessedAt     *time.Time
	CompletedAt     *time.Time
	LedgerReopened  bool `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (RefundModel) TableName() string {
	return "refunds"
}

// ToDomain converts the persistence model to a domain Refund.
func (m *RefundModel) ToDomain() *finance.Refund {
	r := &finance.Refund{
		RefundNumber:    m.RefundNumber,
		PaymentID:       m.PaymentID,
		StudentFeeID:    m.StudentFeeID,
		StudentID:       m.StudentID,
		Amount:          m.Amount,
		Reason:          m.Reason,
		Status:          m.Status,
		ApprovedBy:      m.ApprovedBy,
		ApprovedAt:      m.ApprovedAt,
		RejectedBy:      m.RejectedBy,
		RejectedAt:      m.RejectedAt,
		RejectionReason: m.RejectionReason,
		ProcessedAt:     m.ProcessedAt,
		CompletedAt:     m.CompletedAt,
		LedgerReopened:  m.LedgerReopened,
	}
	m.PopulateTenantAggregateRoot(&r.TenantAggregateRoot)
	return r
}

// RefundModelFromDomain creates a new persistence model from a domain Refund.
func RefundModelFromDomain(r *finance.Refund) *RefundModel {
	m := &RefundModel{
		RefundNumber:    r.RefundNumber,
		PaymentID:       r.PaymentID,
		StudentFeeID:    r.StudentFeeID,
		StudentID:       r.StudentID,
		Amount:          r.Amount,
		Reason:          r.Reason,
		Status:          r.Status,
		ApprovedBy:      r.ApprovedBy,
		ApprovedAt:      r.ApprovedAt,
		RejectedBy:      r.RejectedBy,
		RejectedAt:      r.RejectedAt,
		RejectionReason: r.RejectionReason,
		ProcessedAt:     r.ProcessedAt,
		CompletedAt:     r.CompletedAt,
		LedgerReopened:  r.LedgerReopened,
	}
	m.FromDomainTenantAggregateRoot(r.TenantAggregateRoot)
	return m
}

// InvoiceModel is the persistence model for invoice snapshots.
type InvoiceModel struct {
	TenantAggregateModel
	InvoiceNumber     string                                   `gorm:"type:varchar(50);not null;index"`
	StudentFeeID      uuid.UUID                                `gorm:"type:uuid;not null;index"`
	StudentID         uuid.UUID                                `gorm:"type:uuid;not null;index"`
	FeeStructureName  string                                   `gorm:"type:varchar(200);not null"`
	Lines             datatypes.JSONSlice[finance.InvoiceLine] `gorm:"not null"`
	TotalAmount       decimal.Decimal                          `gorm:"type:decimal(18,4);not null"`
	DiscountAmount    decimal.Decimal                          `gorm:"type:decimal(18,4);not null"`
	ScholarshipAmount decimal.Decimal                          `gorm:"type:decimal(18,4);not null"`
	TaxAmount         decimal.Decimal                          `gorm:"type:decimal(18,4);not null"`
	FinalAmount       decimal.Decimal                          `gorm:"type:decimal(18,4);not null"`
	PaidAmount        decimal.Decimal                          `gorm:"type:decimal(18,4);not null"`
	BalanceAmount     decimal.Decimal                          `gorm:"type:decimal(18,4);not null"`
	Status            finance.FeeStatus                        `gorm:"type:varchar(20);not null"`
	DueDate           *time.Time                               `gorm:"type:date"`
	IssuedAt          time.Time                                `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice.
func (m *InvoiceModel) ToDomain() *finance.Invoice {
	inv := &finance.Invoice{
		InvoiceNumber:     m.InvoiceNumber,
		StudentFeeID:      m.StudentFeeID,
		StudentID:         m.StudentID,
		FeeStructureName:  m.FeeStructureName,
		Lines:             []finance.InvoiceLine(m.Lines),
		TotalAmount:       m.TotalAmount,
		DiscountAmount:    m.DiscountAmount,
		ScholarshipAmount: m.ScholarshipAmount,
		TaxAmount:         m.TaxAmount,
		FinalAmount:       m.FinalAmount,
		PaidAmount:        m.PaidAmount,
		BalanceAmount:     m.BalanceAmount,
		Status:            m.Status,
		DueDate:           m.DueDate,
		IssuedAt:          m.IssuedAt,
	}
	m.PopulateTenantAggregateRoot(&inv.TenantAggregateRoot)
	return inv
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice.
func InvoiceModelFromDomain(inv *finance.Invoice) *InvoiceModel {
	m := &InvoiceModel{
		InvoiceNumber:     inv.InvoiceNumber,
		StudentFeeID:      inv.StudentFeeID,
		StudentID:         inv.StudentID,
		FeeStructureName:  inv.FeeStructureName,
		Lines:             datatypes.JSONSlice[finance.InvoiceLine](inv.Lines),
		TotalAmount:       inv.TotalAmount,
		DiscountAmount:    inv.DiscountAmount,
		ScholarshipAmount: inv.ScholarshipAmount,
		TaxAmount:         inv.TaxAmount,
		FinalAmount:       inv.FinalAmount,
		PaidAmount:        inv.PaidAmount,
		BalanceAmount:     inv.BalanceAmount,
		Status:            inv.Status,
		DueDate:           inv.DueDate,
		IssuedAt:          inv.IssuedAt,
	}
	m.FromDomainTenantAggregateRoot(inv.TenantAggregateRoot)
	return m
}

// FinanceSettingsModel holds one row of numbering settings per school.
type FinanceSettingsModel struct {
	TenantID        uuid.UUID `gorm:"type:uuid;primary_key"`
	ReceiptPrefix   string    `gorm:"type:varchar(20);not null;default:'RCP-'"`
	ReceiptSeq      int64     `gorm:"not null;default:0"`
	InvoicePrefix   string    `gorm:"type:varchar(20);not null;default:'INV-'"`
	InvoiceSeq      int64     `gorm:"not null;default:0"`
	RefundPrefix    string    `gorm:"type:varchar(20);not null;default:'RFD-'"`
	RefundSeq       int64     `gorm:"not null;default:0"`
	SequencePadding int       `gorm:"not null;default:6"`
	Currency        string    `gorm:"type:varchar(3);not null;default:'INR'"`
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (FinanceSettingsModel) TableName() string {
	return "finance_settings"
}

// ToDomain converts the persistence model to domain FinanceSettings.
func (m *FinanceSettingsModel) ToDomain() *finance.FinanceSettings {
	return &finance.FinanceSettings{
		TenantID:        m.TenantID,
		ReceiptPrefix:   m.ReceiptPrefix,
		ReceiptSeq:      m.ReceiptSeq,
		InvoicePrefix:   m.InvoicePrefix,
		InvoiceSeq:      m.InvoiceSeq,
		RefundPrefix:    m.RefundPrefix,
		RefundSeq:       m.RefundSeq,
		SequencePadding: m.SequencePadding,
		Currency:        m.Currency,
		UpdatedAt:       m.UpdatedAt,
	}
}

// FinanceSettingsModelFromDomain creates a settings row from domain settings.
func FinanceSettingsModelFromDomain(s *finance.FinanceSettings) *FinanceSettingsModel {
	return &FinanceSettingsModel{
		TenantID:        s.TenantID,
		ReceiptPrefix:   s.ReceiptPrefix,
		ReceiptSeq:      s.ReceiptSeq,
		InvoicePrefix:   s.InvoicePrefix,
		InvoiceSeq:      s.InvoiceSeq,
		RefundPrefix:    s.RefundPrefix,
		RefundSeq:       s.RefundSeq,
		SequencePadding: s.SequencePadding,
		Currency:        s.Currency,
		UpdatedAt:       s.UpdatedAt,
	}
}

// AuditLogModel is an append-only finance audit row.
type AuditLogModel struct {
	ID         uuid.UUID           `gorm:"type:uuid;primary_key"`
	TenantID   uuid.UUID           `gorm:"type:uuid;not null;index:idx_audit_tenant_created,priority:1"`
	Action     finance.AuditAction `gorm:"type:varchar(50);not null;index"`
	EntityType string              `gorm:"type:varchar(50);not null;index:idx_audit_entity,priority:1"`
	EntityID   uuid.UUID           `gorm:"type:uuid;not null;index:idx_audit_entity,priority:2"`
	ActorID    *uuid.UUID          `gorm:"type:uuid"`
	Amount     *decimal.Decimal    `gorm:"type:decimal(18,4)"`
	Details    datatypes.JSONMap
	CreatedAt  time.Time `gorm:"not null;index:idx_audit_tenant_created,priority:2"`
}

// TableName returns the table name for GORM
func (AuditLogModel) TableName() string {
	return "finance_audit_logs"
}

// ToDomain converts the persistence model to a domain AuditLog.
func (m *AuditLogModel) ToDomain() *finance.AuditLog {
	return &finance.AuditLog{
		ID:         m.ID,
		TenantID:   m.TenantID,
		Action:     m.Action,
		EntityType: m.EntityType,
		EntityID:   m.EntityID,
		ActorID:    m.ActorID,
		Amount:     m.Amount,
		Details:    map[string]interface{}(m.Details),
		CreatedAt:  m.CreatedAt,
	}
}

// AuditLogModelFromDomain creates a persistence model from a domain AuditLog.
func AuditLogModelFromDomain(l *finance.AuditLog) *AuditLogModel {
	return &AuditLogModel{
		ID:         l.ID,
		TenantID:   l.TenantID,
		Action:     l.Action,
		EntityType: l.EntityType,
		EntityID:   l.EntityID,
		ActorID:    l.ActorID,
		Amount:     l.Amount,
		Details:    datatypes.JSONMap(l.Details),
		CreatedAt:  l.CreatedAt,
	}
}

// FeeLedgerModels lists every model of the fee ledger, in dependency order.
// Adjustment tables are migrated separately because they share a model.
// Tenant-scoped unique constraints live in the SQL migrations.
func FeeLedgerModels() []interface{} {
	return []interface{}{
		&FeeStructureModel{},
		&FeeComponentModel{},
		&FeeInstallmentModel{},
		&StudentFeeModel{},
		&PaymentModel{},
		&RefundModel{},
		&InvoiceModel{},
		&FinanceSettingsModel{},
		&AuditLogModel{},
	}
}

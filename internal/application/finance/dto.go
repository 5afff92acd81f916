package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/feeledger/internal/domain/finance"
	"github.com/shopspring/decimal"
)

// ==================== Fee Structure DTOs ====================

// InstallmentInput is one scheduled part of a component amount
type InstallmentInput struct {
	Amount  decimal.Decimal `json:"amount" binding:"decimal_gt0"`
	DueDate time.Time       `json:"due_date" binding:"required"`
}

// FeeComponentInput is one charge line of a fee structure request
type FeeComponentInput struct {
	Name         string             `json:"name" binding:"required,min=1,max=200"`
	FeeType      string             `json:"fee_type" binding:"required,oneof=TUITION ADMISSION TRANSPORT EXAM LIBRARY HOSTEL LAB OTHER"`
	Amount       decimal.Decimal    `json:"amount" binding:"decimal_gt0"`
	Frequency    string             `json:"frequency" binding:"omitempty,oneof=ONE_TIME MONTHLY QUARTERLY HALF_YEARLY ANNUAL"`
	IsMandatory  *bool              `json:"is_mandatory"`
	Installments []InstallmentInput `json:"installments" binding:"omitempty,dive"`
}

// CreateFeeStructureRequest represents a request to author a fee structure
type CreateFeeStructureRequest struct {
	AcademicYearID uuid.UUID           `json:"academic_year_id" binding:"required"`
	AcademicUnitID *uuid.UUID          `json:"academic_unit_id"`
	Name           string              `json:"name" binding:"required,min=1,max=200"`
	Description    string              `json:"description" binding:"max=1000"`
	DueDate        *time.Time          `json:"due_date"`
	Components     []FeeComponentInput `json:"components" binding:"required,min=1,dive"`
}

// UpdateFeeStructureRequest replaces the editable fields of an unreferenced structure
type UpdateFeeStructureRequest struct {
	Name        string              `json:"name" binding:"required,min=1,max=200"`
	Description string              `json:"description" binding:"max=1000"`
	DueDate     *time.Time          `json:"due_date"`
	Components  []FeeComponentInput `json:"components" binding:"required,min=1,dive"`
}

// FeeStructureListFilter defines query parameters for listing fee structures
type FeeStructureListFilter struct {
	AcademicYearID string `form:"academic_year_id" binding:"omitempty,uuid"`
	AcademicUnitID string `form:"academic_unit_id" binding:"omitempty,uuid"`
	Active         bool   `form:"active"`
	ListParams
}

// ListParams are the paging and sorting query parameters shared by list endpoints
type ListParams struct {
	Search   string `form:"search" binding:"max=100"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by" binding:"max=50"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// InstallmentResponse represents an installment in API responses
type InstallmentResponse struct {
	Number  int             `json:"number"`
	Amount  decimal.Decimal `json:"amount"`
	DueDate time.Time       `json:"due_date"`
}

// FeeComponentResponse represents a fee component in API responses
type FeeComponentResponse struct {
	ID           uuid.UUID             `json:"id"`
	Name         string                `json:"name"`
	FeeType      string                `json:"fee_type"`
	Amount       decimal.Decimal       `json:"amount"`
	Frequency    string                `json:"frequency"`
	IsMandatory  bool                  `json:"is_mandatory"`
	SortOrder    int                   `json:"sort_order"`
	Installments []InstallmentResponse `json:"installments,omitempty"`
}

// FeeStructureResponse represents a fee structure in API responses
type FeeStructureResponse struct {
	ID             uuid.UUID              `json:"id"`
	SchoolID       uuid.UUID              `json:"school_id"`
	AcademicYearID uuid.UUID              `json:"academic_year_id"`
	AcademicUnitID *uuid.UUID             `json:"academic_unit_id,omitempty"`
	Name           string                 `json:"name"`
	Description    string                 `json:"description,omitempty"`
	DueDate        *time.Time             `json:"due_date,omitempty"`
	IsActive       bool                   `json:"is_active"`
	TotalAmount    decimal.Decimal        `json:"total_amount"`
	Components     []FeeComponentResponse `json:"components"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
	Version        int                    `json:"version"`
}

// ==================== Student Fee DTOs ====================

// CreateStudentFeeRequest instantiates a fee structure for one student
type CreateStudentFeeRequest struct {
	FeeStructureID uuid.UUID        `json:"fee_structure_id" binding:"required"`
	StudentID      uuid.UUID        `json:"student_id" binding:"required"`
	AcademicUnitID *uuid.UUID       `json:"academic_unit_id"`
	TaxAmount      *decimal.Decimal `json:"tax_amount" binding:"omitempty,decimal_gte0"`
	DueDate        *time.Time       `json:"due_date"`
}

// BulkCreateStudentFeesRequest instantiates a fee structure for many students
type BulkCreateStudentFeesRequest struct {
	FeeStructureID uuid.UUID        `json:"fee_structure_id" binding:"required"`
	StudentIDs     []uuid.UUID      `json:"student_ids" binding:"required,min=1,max=500"`
	AcademicUnitID *uuid.UUID       `json:"academic_unit_id"`
	TaxAmount      *decimal.Decimal `json:"tax_amount" binding:"omitempty,decimal_gte0"`
	DueDate        *time.Time       `json:"due_date"`
}

// BulkCreateStudentFeesResult lists created fees and students that already had one
type BulkCreateStudentFeesResult struct {
	Created []StudentFeeResponse `json:"created"`
	Skipped []uuid.UUID          `json:"skipped_student_ids"`
}

// StudentFeeListFilter defines query parameters for listing student fees
type StudentFeeListFilter struct {
	StudentID      string `form:"student_id" binding:"omitempty,uuid"`
	FeeStructureID string `form:"fee_structure_id" binding:"omitempty,uuid"`
	AcademicYearID string `form:"academic_year_id" binding:"omitempty,uuid"`
	AcademicUnitID string `form:"academic_unit_id" binding:"omitempty,uuid"`
	Status         string `form:"status" binding:"omitempty,oneof=PENDING PARTIAL PAID OVERDUE"`
	ListParams
}

// StudentFeeResponse represents a ledger entry in API responses
type StudentFeeResponse struct {
	ID                uuid.UUID       `json:"id"`
	SchoolID          uuid.UUID       `json:"school_id"`
	StudentID         uuid.UUID       `json:"student_id"`
	FeeStructureID    uuid.UUID       `json:"fee_structure_id"`
	AcademicYearID    uuid.UUID       `json:"academic_year_id"`
	AcademicUnitID    *uuid.UUID      `json:"academic_unit_id,omitempty"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	DiscountAmount    decimal.Decimal `json:"discount_amount"`
	ScholarshipAmount decimal.Decimal `json:"scholarship_amount"`
	TaxAmount         decimal.Decimal `json:"tax_amount"`
	FinalAmount       decimal.Decimal `json:"final_amount"`
	PaidAmount        decimal.Decimal `json:"paid_amount"`
	BalanceAmount     decimal.Decimal `json:"balance_amount"`
	Status            string          `json:"status"`
	DueDate           *time.Time      `json:"due_date,omitempty"`
	PaidAt            *time.Time      `json:"paid_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	Version           int             `json:"version"`
}

// StudentFeeDetailResponse is a ledger entry with its payments and adjustments
type StudentFeeDetailResponse struct {
	StudentFeeResponse
	FeeStructureName string               `json:"fee_structure_name"`
	Payments         []PaymentResponse    `json:"payments"`
	Adjustments      []AdjustmentResponse `json:"adjustments"`
}

// MarkOverdueResult reports how many fees an overdue run flagged
type MarkOverdueResult struct {
	Marked int64     `json:"marked"`
	AsOf   time.Time `json:"as_of"`
}

// ==================== Adjustment DTOs ====================

// ApplyAdjustmentRequest creates a discount or scholarship
type ApplyAdjustmentRequest struct {
	StudentFeeID uuid.UUID       `json:"student_fee_id" binding:"required"`
	Name         string          `json:"name" binding:"required,min=1,max=200"`
	ValueType    string          `json:"value_type" binding:"required,oneof=PERCENTAGE FLAT"`
	Value        decimal.Decimal `json:"value" binding:"decimal_gte0"`
	Reason       string          `json:"reason" binding:"max=500"`
}

// RejectRequest carries the reason of a rejection
type RejectRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// AdjustmentResponse represents a discount or scholarship in API responses
type AdjustmentResponse struct {
	ID              uuid.UUID       `json:"id"`
	Kind            string          `json:"kind"`
	StudentFeeID    uuid.UUID       `json:"student_fee_id"`
	StudentID       uuid.UUID       `json:"student_id"`
	Name            string          `json:"name"`
	ValueType       string          `json:"value_type"`
	Value           decimal.Decimal `json:"value"`
	Amount          decimal.Decimal `json:"amount"`
	Reason          string          `json:"reason,omitempty"`
	Status          string          `json:"status"`
	ApprovedBy      *uuid.UUID      `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time      `json:"approved_at,omitempty"`
	RejectedBy      *uuid.UUID      `json:"rejected_by,omitempty"`
	RejectedAt      *time.Time      `json:"rejected_at,omitempty"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
	CreatedBy       *uuid.UUID      `json:"created_by,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	Version         int             `json:"version"`
	// StudentFee is the ledger after approval, set when the call changed it
	StudentFee *StudentFeeResponse `json:"student_fee,omitempty"`
}

// ==================== Payment DTOs ====================

// CollectPaymentRequest represents a fee collection at the counter or online
type CollectPaymentRequest struct {
	StudentFeeID    uuid.UUID              `json:"student_fee_id" binding:"required"`
	Amount          decimal.Decimal        `json:"amount" binding:"decimal_gt0"`
	Method          string                 `json:"method" binding:"required,oneof=CASH CHEQUE DEMAND_DRAFT BANK_TRANSFER CARD UPI ONLINE"`
	BankName        string                 `json:"bank_name" binding:"max=100"`
	ReferenceNumber string                 `json:"reference_number" binding:"max=100"`
	PaymentDate     *time.Time             `json:"payment_date"`
	Remarks         string                 `json:"remarks" binding:"max=500"`
	PayerEmail      string                 `json:"payer_email" binding:"omitempty,email,max=254"`
	Metadata        map[string]interface{} `json:"metadata"`
}

// PaymentListFilter defines query parameters for listing payments
type PaymentListFilter struct {
	StudentFeeID string `form:"student_fee_id" binding:"omitempty,uuid"`
	StudentID    string `form:"student_id" binding:"omitempty,uuid"`
	Method       string `form:"method" binding:"omitempty,oneof=CASH CHEQUE DEMAND_DRAFT BANK_TRANSFER CARD UPI ONLINE"`
	FromDate     string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	ToDate       string `form:"to" binding:"omitempty,datetime=2006-01-02"`
	ListParams
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID              uuid.UUID              `json:"id"`
	SchoolID        uuid.UUID              `json:"school_id"`
	StudentFeeID    uuid.UUID              `json:"student_fee_id"`
	StudentID       uuid.UUID              `json:"student_id"`
	ReceiptNumber   string                 `json:"receipt_number"`
	Amount          decimal.Decimal        `json:"amount"`
	Method          string                 `json:"method"`
	Status          string                 `json:"status"`
	PaymentDate     time.Time              `json:"payment_date"`
	BankName        string                 `json:"bank_name,omitempty"`
	ReferenceNumber string                 `json:"reference_number,omitempty"`
	Remarks         string                 `json:"remarks,omitempty"`
	PayerEmail      string                 `json:"payer_email,omitempty"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
	CollectedBy     *uuid.UUID             `json:"collected_by,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	// StudentFee is the ledger state right after the collection
	StudentFee *StudentFeeResponse `json:"student_fee,omitempty"`
}

// CollectResult wraps a collected payment. Replayed is true when an
// Idempotency-Key matched an earlier collection.
type CollectResult struct {
	Payment  PaymentResponse
	Replayed bool
}

// ==================== Refund DTOs ====================

// InitiateRefundRequest starts a refund against a payment
type InitiateRefundRequest struct {
	PaymentID uuid.UUID       `json:"payment_id" binding:"required"`
	Amount    decimal.Decimal `json:"amount" binding:"decimal_gt0"`
	Reason    string          `json:"reason" binding:"required,min=1,max=500"`
}

// RefundListFilter defines query parameters for listing refunds
type RefundListFilter struct {
	PaymentID string `form:"payment_id" binding:"omitempty,uuid"`
	StudentID string `form:"student_id" binding:"omitempty,uuid"`
	Status    string `form:"status" binding:"omitempty,oneof=INITIATED PENDING_APPROVAL APPROVED REJECTED PROCESSED COMPLETED"`
	ListParams
}

// RefundResponse represents a refund in API responses
type RefundResponse struct {
	ID              uuid.UUID       `json:"id"`
	SchoolID        uuid.UUID       `json:"school_id"`
	RefundNumber    string          `json:"refund_number"`
	PaymentID       uuid.UUID       `json:"payment_id"`
	StudentFeeID    uuid.UUID       `json:"student_fee_id"`
	StudentID       uuid.UUID       `json:"student_id"`
	Amount          decimal.Decimal `json:"amount"`
	Reason          string          `json:"reason"`
	Status          string          `json:"status"`
	InitiatedBy     *uuid.UUID      `json:"initiated_by,omitempty"`
	ApprovedBy      *uuid.UUID      `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time      `json:"approved_at,omitempty"`
	RejectedBy      *uuid.UUID      `json:"rejected_by,omitempty"`
	RejectedAt      *time.Time      `json:"rejected_at,omitempty"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
	ProcessedAt     *time.Time      `json:"processed_at,omitempty"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
	LedgerReopened  bool            `json:"ledger_reopened"`
	CreatedAt       time.Time       `json:"created_at"`
	Version         int             `json:"version"`
}

// ==================== Report DTOs ====================

// CollectionSummaryQuery defines query parameters of the collection summary
type CollectionSummaryQuery struct {
	FromDate       string `form:"from_date" binding:"required,datetime=2006-01-02"`
	ToDate         string `form:"to_date" binding:"required,datetime=2006-01-02"`
	AcademicYearID string `form:"academic_year_id" binding:"omitempty,uuid"`
}

// DuesSummaryQuery defines query parameters of the dues summary
type DuesSummaryQuery struct {
	AcademicYearID string `form:"academic_year_id" binding:"omitempty,uuid"`
	AcademicUnitID string `form:"academic_unit_id" binding:"omitempty,uuid"`
	OverdueOnly    bool   `form:"overdue_only"`
}

// ==================== Invoice / Settings / Audit DTOs ====================

// GenerateInvoiceRequest snapshots a student fee into an invoice
type GenerateInvoiceRequest struct {
	StudentFeeID uuid.UUID `json:"student_fee_id" binding:"required"`
}

// UpdateSettingsRequest changes numbering and currency. Nil fields are unchanged.
type UpdateSettingsRequest struct {
	ReceiptPrefix   *string `json:"receipt_prefix" binding:"omitempty,max=20"`
	InvoicePrefix   *string `json:"invoice_prefix" binding:"omitempty,max=20"`
	RefundPrefix    *string `json:"refund_prefix" binding:"omitempty,max=20"`
	SequencePadding *int    `json:"sequence_padding" binding:"omitempty,min=1,max=12"`
	Currency        *string `json:"currency" binding:"omitempty,len=3"`
}

// AuditLogListFilter defines query parameters for the audit trail
type AuditLogListFilter struct {
	EntityType string `form:"entity_type" binding:"max=50"`
	EntityID   string `form:"entity_id" binding:"omitempty,uuid"`
	Action     string `form:"action" binding:"max=50"`
	ListParams
}

// ==================== Converters ====================

// ToFeeStructureResponse converts a domain fee structure to a response DTO
func ToFeeStructureResponse(fs *finance.FeeStructure) FeeStructureResponse {
	components := make([]FeeComponentResponse, len(fs.Components))
	for i, c := range fs.Components {
		var installments []InstallmentResponse
		for _, inst := range c.Installments {
			installments = append(installments, InstallmentResponse{Number: inst.Number, Amount: inst.Amount, DueDate: inst.DueDate})
		}
		components[i] = FeeComponentResponse{
			ID:           c.ID,
			Name:         c.Name,
			FeeType:      string(c.FeeType),
			Amount:       c.Amount,
			Frequency:    string(c.Frequency),
			IsMandatory:  c.IsMandatory,
			SortOrder:    c.SortOrder,
			Installments: installments,
		}
	}
	return FeeStructureResponse{
		ID:             fs.ID,
		SchoolID:       fs.TenantID,
		AcademicYearID: fs.AcademicYearID,
		AcademicUnitID: fs.AcademicUnitID,
		Name:           fs.Name,
		Description:    fs.Description,
		DueDate:        fs.DueDate,
		IsActive:       fs.IsActive,
		TotalAmount:    fs.TotalAmount(),
		Components:     components,
		CreatedAt:      fs.CreatedAt,
		UpdatedAt:      fs.UpdatedAt,
		Version:        fs.Version,
	}
}

// ToFeeStructureResponses converts a slice of fee structures
func ToFeeStructureResponses(items []finance.FeeStructure) []FeeStructureResponse {
	out := make([]FeeStructureResponse, len(items))
	for i := range items {
		out[i] = ToFeeStructureResponse(&items[i])
	}
	return out
}

// ToStudentFeeResponse converts a ledger entry to a response DTO
func ToStudentFeeResponse(sf *finance.StudentFee) StudentFeeResponse {
	return StudentFeeResponse{
		ID:                sf.ID,
		SchoolID:          sf.TenantID,
		StudentID:         sf.StudentID,
		FeeStructureID:    sf.FeeStructureID,
		AcademicYearID:    sf.AcademicYearID,
		AcademicUnitID:    sf.AcademicUnitID,
		TotalAmount:       sf.TotalAmount,
		DiscountAmount:    sf.DiscountAmount,
		ScholarshipAmount: sf.ScholarshipAmount,
		TaxAmount:         sf.TaxAmount,
		FinalAmount:       sf.FinalAmount,
		PaidAmount:        sf.PaidAmount,
		BalanceAmount:     sf.BalanceAmount,
		Status:            string(sf.Status),
		DueDate:           sf.DueDate,
		PaidAt:            sf.PaidAt,
		CreatedAt:         sf.CreatedAt,
		UpdatedAt:         sf.UpdatedAt,
		Version:           sf.Version,
	}
}

// ToStudentFeeResponses converts a slice of ledger entries
func ToStudentFeeResponses(items []finance.StudentFee) []StudentFeeResponse {
	out := make([]StudentFeeResponse, len(items))
	for i := range items {
		out[i] = ToStudentFeeResponse(&items[i])
	}
	return out
}

func studentFeeRef(sf *finance.StudentFee) *StudentFeeResponse {
	if sf == nil {
		return nil
	}
	resp := ToStudentFeeResponse(sf)
	return &resp
}

// ToAdjustmentResponse converts a discount or scholarship to a response DTO
func ToAdjustmentResponse(a *finance.Adjustment) AdjustmentResponse {
	return AdjustmentResponse{
		ID:              a.ID,
		Kind:            string(a.Kind),
		StudentFeeID:    a.StudentFeeID,
		StudentID:       a.StudentID,
		Name:            a.Name,
		ValueType:       string(a.ValueType),
		Value:           a.Value,
		Amount:          a.Amount,
		Reason:          a.Reason,
		Status:          string(a.Status),
		ApprovedBy:      a.ApprovedBy,
		ApprovedAt:      a.ApprovedAt,
		RejectedBy:      a.RejectedBy,
		RejectedAt:      a.RejectedAt,
		RejectionReason: a.RejectionReason,
		CreatedBy:       a.CreatedBy,
		CreatedAt:       a.CreatedAt,
		Version:         a.Version,
	}
}

// ToPaymentResponse converts a payment to a response DTO
func ToPaymentResponse(p *finance.Payment) PaymentResponse {
	return PaymentResponse{
		ID:              p.ID,
		SchoolID:        p.TenantID,
		StudentFeeID:    p.StudentFeeID,
		StudentID:       p.StudentID,
		ReceiptNumber:   p.ReceiptNumber,
		Amount:          p.Amount,
		Method:          string(p.Method),
		Status:          string(p.Status),
		PaymentDate:     p.PaymentDate,
		BankName:        p.BankName,
		ReferenceNumber: p.ReferenceNumber,
		Remarks:         p.Remarks,
		PayerEmail:      p.PayerEmail,
		Metadata:        p.Metadata,
		CollectedBy:     p.CreatedBy,
		CreatedAt:       p.CreatedAt,
	}
}

// ToPaymentResponses converts a slice of payments
func ToPaymentResponses(items []finance.Payment) []PaymentResponse {
	out := make([]PaymentResponse, len(items))
	for i := range items {
		out[i] = ToPaymentResponse(&items[i])
	}
	return out
}

// ToRefundResponse converts a refund to a response DTO
func ToRefundResponse(r *finance.Refund) RefundResponse {
	return RefundResponse{
		ID:              r.ID,
		SchoolID:        r.TenantID,
		RefundNumber:    r.RefundNumber,
		PaymentID:       r.PaymentID,
		StudentFeeID:    r.StudentFeeID,
		StudentID:       r.StudentID,
		Amount:          r.Amount,
		Reason:          r.Reason,
		Status:          string(r.Status),
		InitiatedBy:     r.CreatedBy,
		ApprovedBy:      r.ApprovedBy,
		ApprovedAt:      r.ApprovedAt,
		RejectedBy:      r.RejectedBy,
		RejectedAt:      r.RejectedAt,
		RejectionReason: r.RejectionReason,
		ProcessedAt:     r.ProcessedAt,
		CompletedAt:     r.CompletedAt,
		LedgerReopened:  r.LedgerReopened,
		CreatedAt:       r.CreatedAt,
		Version:         r.Version,
	}
}

// ToRefundResponses converts a slice of refunds
func ToRefundResponses(items []finance.Refund) []RefundResponse {
	out := make([]RefundResponse, len(items))
	for i := range items {
		out[i] = ToRefundResponse(&items[i])
	}
	return out
}

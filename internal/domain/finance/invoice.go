package finance

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/feeledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// InvoiceLine is one charge printed on an invoice
type InvoiceLine struct {
	Description string          `json:"description"`
	FeeType     FeeType         `json:"fee_type"`
	Amount      decimal.Decimal `json:"amount"`
}

// Invoice is a point-in-time snapshot of a student fee. It is never read back
// into the ledger.
type Invoice struct {
	shared.TenantAggregateRoot
	InvoiceNumber     string          `json:"invoice_number"`
	StudentFeeID      uuid.UUID       `json:"student_fee_id"`
	StudentID         uuid.UUID       `json:"student_id"`
	FeeStructureName  string          `json:"fee_structure_name"`
	Lines             []InvoiceLine   `json:"lines"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	DiscountAmount    decimal.Decimal `json:"discount_amount"`
	ScholarshipAmount decimal.Decimal `json:"scholarship_amount"`
	TaxAmount         decimal.Decimal `json:"tax_amount"`
	FinalAmount       decimal.Decimal `json:"final_amount"`
	PaidAmount        decimal.Decimal `json:"paid_amount"`
	BalanceAmount     decimal.Decimal `json:"balance_amount"`
	Status            FeeStatus       `json:"status"`
	DueDate           *time.Time      `json:"due_date,omitempty"`
	IssuedAt          time.Time       `json:"issued_at"`
}

// NewInvoice snapshots fee and the component lines of its structure
func NewInvoice(invoiceNumber string, fee *StudentFee, structure *FeeStructure, issuedBy uuid.UUID) (*Invoice, error) {
	if strings.TrimSpace(invoiceNumber) == "" {
		return nil, invalid("Invoice number cannot be empty")
	}
	if fee == nil || structure == nil {
		return nil, invalid("Student fee and fee structure are required")
	}
	if fee.FeeStructureID != structure.ID {
		return nil, invalid("Fee structure does not match the student fee")
	}

	lines := make([]InvoiceLine, 0, len(structure.Components))
	for _, c := range structure.Components {
		lines = append(lines, InvoiceLine{Description: c.Name, FeeType: c.FeeType, Amount: c.Amount})
	}

	inv := &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(fee.TenantID),
		InvoiceNumber:       invoiceNumber,
		StudentFeeID:        fee.ID,
		StudentID:           fee.StudentID,
		FeeStructureName:    structure.Name,
		Lines:               lines,
		TotalAmount:         fee.TotalAmount,
		DiscountAmount:      fee.DiscountAmount,
		ScholarshipAmount:   fee.ScholarshipAmount,
		TaxAmount:           fee.TaxAmount,
		FinalAmount:         fee.FinalAmount,
		PaidAmount:          fee.PaidAmount,
		BalanceAmount:       fee.BalanceAmount,
		Status:              fee.Status,
		DueDate:             fee.DueDate,
		IssuedAt:            time.Now(),
	}
	inv.SetCreatedBy(issuedBy)
	return inv, nil
}

// Receipt is the read model printed for a payment
type Receipt struct {
	ReceiptNumber    string          `json:"receipt_number"`
	PaymentID        uuid.UUID       `json:"payment_id"`
	PaymentDate      time.Time       `json:"payment_date"`
	Amount           decimal.Decimal `json:"amount"`
	Method           PaymentMethod   `json:"method"`
	BankName         string          `json:"bank_name,omitempty"`
	ReferenceNumber  string          `json:"reference_number,omitempty"`
	Remarks          string          `json:"remarks,omitempty"`
	StudentID        uuid.UUID       `json:"student_id"`
	StudentFeeID     uuid.UUID       `json:"student_fee_id"`
	FeeStructureName string          `json:"fee_structure_name"`
	FinalAmount      decimal.Decimal `json:"final_amount"`
	PaidAmount       decimal.Decimal `json:"paid_amount"`
	BalanceAmount    decimal.Decimal `json:"balance_amount"`
	FeeStatus        FeeStatus       `json:"fee_status"`
	Currency         string          `json:"currency"`
	CollectedBy      *uuid.UUID      `json:"collected_by,omitempty"`
}

// NewReceipt projects a payment and its ledger into a receipt. The ledger
// figures are the current ones, not a snapshot from collection time.
func NewReceipt(p *Payment, fee *StudentFee, structureName, currency string) *Receipt {
	return &Receipt{
		ReceiptNumber:    p.ReceiptNumber,
		PaymentID:        p.ID,
		PaymentDate:      p.PaymentDate,
		Amount:           p.Amount,
		Method:           p.Method,
		BankName:         p.BankName,
		ReferenceNumber:  p.ReferenceNumber,
		Remarks:          p.Remarks,
		StudentID:        p.StudentID,
		StudentFeeID:     p.StudentFeeID,
		FeeStructureName: structureName,
		FinalAmount:      fee.FinalAmount,
		PaidAmount:       fee.PaidAmount,
		BalanceAmount:    fee.BalanceAmount,
		FeeStatus:        fee.Status,
		Currency:         currency,
		CollectedBy:      p.CreatedBy,
	}
}

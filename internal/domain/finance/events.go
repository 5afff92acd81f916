package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/feeledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event type names
const (
	EventTypeFeeStructureCreated = "FeeStructureCreated"
	EventTypeStudentFeeCreated   = "StudentFeeCreated"
	EventTypeAdjustmentApproved  = "AdjustmentApproved"
	EventTypePaymentCollected    = "PaymentCollected"
	EventTypeRefundApproved      = "RefundApproved"
)

// FeeStructureCreatedEvent is raised when a fee structure is authored
type FeeStructureCreatedEvent struct {
	shared.BaseDomainEvent
	Name        string          `json:"name"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// NewFeeStructureCreatedEvent creates a FeeStructureCreatedEvent
func NewFeeStructureCreatedEvent(fs *FeeStructure) *FeeStructureCreatedEvent {
	return &FeeStructureCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeFeeStructureCreated, "FeeStructure", fs.ID, fs.TenantID),
		Name:            fs.Name,
		TotalAmount:     fs.TotalAmount(),
	}
}

// StudentFeeCreatedEvent is raised when a student is charged a fee structure
type StudentFeeCreatedEvent struct {
	shared.BaseDomainEvent
	StudentID   uuid.UUID       `json:"student_id"`
	FinalAmount decimal.Decimal `json:"final_amount"`
}

// NewStudentFeeCreatedEvent creates a StudentFeeCreatedEvent
func NewStudentFeeCreatedEvent(sf *StudentFee) *StudentFeeCreatedEvent {
	return &StudentFeeCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStudentFeeCreated, "StudentFee", sf.ID, sf.TenantID),
		StudentID:       sf.StudentID,
		FinalAmount:     sf.FinalAmount,
	}
}

// AdjustmentApprovedEvent is raised when a discount or scholarship reaches the ledger
type AdjustmentApprovedEvent struct {
	shared.BaseDomainEvent
	Kind          AdjustmentKind  `json:"kind"`
	StudentFeeID  uuid.UUID       `json:"student_fee_id"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceAmount decimal.Decimal `json:"balance_amount"`
}

// NewAdjustmentApprovedEvent creates an AdjustmentApprovedEvent
func NewAdjustmentApprovedEvent(a *Adjustment, fee *StudentFee) *AdjustmentApprovedEvent {
	return &AdjustmentApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAdjustmentApproved, "Adjustment", a.ID, a.TenantID),
		Kind:            a.Kind,
		StudentFeeID:    a.StudentFeeID,
		Amount:          a.Amount,
		BalanceAmount:   fee.BalanceAmount,
	}
}

// PaymentCollectedEvent is raised after a payment has been applied to a ledger
type PaymentCollectedEvent struct {
	shared.BaseDomainEvent
	ReceiptNumber string          `json:"receipt_number"`
	StudentFeeID  uuid.UUID       `json:"student_fee_id"`
	StudentID     uuid.UUID       `json:"student_id"`
	Amount        decimal.Decimal `json:"amount"`
	Method        PaymentMethod   `json:"method"`
	PayerEmail    string          `json:"payer_email,omitempty"`
	PaymentDate   time.Time       `json:"payment_date"`
	BalanceAmount decimal.Decimal `json:"balance_amount"`
	FeeStatus     FeeStatus       `json:"fee_status"`
}

// NewPaymentCollectedEvent creates a PaymentCollectedEvent
func NewPaymentCollectedEvent(p *Payment, fee *StudentFee) *PaymentCollectedEvent {
	return &PaymentCollectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentCollected, "Payment", p.ID, p.TenantID),
		ReceiptNumber:   p.ReceiptNumber,
		StudentFeeID:    p.StudentFeeID,
		StudentID:       p.StudentID,
		Amount:          p.Amount,
		Method:          p.Method,
		PayerEmail:      p.PayerEmail,
		PaymentDate:     p.PaymentDate,
		BalanceAmount:   fee.BalanceAmount,
		FeeStatus:       fee.Status,
	}
}

// RefundApprovedEvent is raised when a refund is approved
type RefundApprovedEvent struct {
	shared.BaseDomainEvent
	RefundNumber string          `json:"refund_number"`
	PaymentID    uuid.UUID       `json:"payment_id"`
	Amount       decimal.Decimal `json:"amount"`
}

// NewRefundApprovedEvent creates a RefundApprovedEvent
func NewRefundApprovedEvent(r *Refund) *RefundApprovedEvent {
	return &RefundApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRefundApproved, "Refund", r.ID, r.TenantID),
		RefundNumber:    r.RefundNumber,
		PaymentID:       r.PaymentID,
		Amount:          r.Amount,
	}
}

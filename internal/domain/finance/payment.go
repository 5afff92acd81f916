package finance

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/feeledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PaymentMethod is how a fee payment was made
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodCheque       PaymentMethod = "CHEQUE"
	PaymentMethodDemandDraft  PaymentMethod = "DEMAND_DRAFT"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCard         PaymentMethod = "CARD"
	PaymentMethodUPI          PaymentMethod = "UPI"
	PaymentMethodOnline       PaymentMethod = "ONLINE"
)

// IsValid checks if the method is known
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCheque, PaymentMethodDemandDraft, PaymentMethodBankTransfer,
		PaymentMethodCard, PaymentMethodUPI, PaymentMethodOnline:
		return true
	}
	return false
}

// RequiresReference is true for every non-cash method
func (m PaymentMethod) RequiresReference() bool {
	return m != PaymentMethodCash
}

// RequiresBankName is true for instruments drawn on a bank
func (m PaymentMethod) RequiresBankName() bool {
	return m == PaymentMethodCheque || m == PaymentMethodDemandDraft || m == PaymentMethodBankTransfer
}

// PaymentStatus of a recorded payment
type PaymentStatus string

const (
	PaymentStatusSuccess PaymentStatus = "SUCCESS"
)

// PaymentInput is the caller-provided part of a payment
type PaymentInput struct {
	Amount          decimal.Decimal
	Method          PaymentMethod
	BankName        string
	ReferenceNumber string
	PaymentDate     *time.Time
	Remarks         string
	PayerEmail      string
	Metadata        map[string]interface{}
}

// Validate checks method-specific requirements. Balance checks belong to the
// ledger and run under the row lock.
func (in *PaymentInput) Validate() error {
	if !in.Amount.IsPositive() {
		return shared.NewDomainError(CodeInvalidAmount, "Payment amount must be greater than zero")
	}
	if in.Method == "" {
		return shared.NewDomainError(CodeMissingField, "Payment method is required")
	}
	if !in.Method.IsValid() {
		return shared.NewDomainError(CodeInvalidMethod, fmt.Sprintf("Invalid payment method: %s", in.Method))
	}
	if in.Method.RequiresReference() && strings.TrimSpace(in.ReferenceNumber) == "" {
		return shared.NewDomainError(CodeMissingField, fmt.Sprintf("Reference number is required for %s payments", in.Method))
	}
	if in.Method.RequiresBankName() && strings.TrimSpace(in.BankName) == "" {
		return shared.NewDomainError(CodeMissingField, fmt.Sprintf("Bank name is required for %s payments", in.Method))
	}
	if in.PayerEmail != "" {
		if _, err := mail.ParseAddress(in.PayerEmail); err != nil {
			return invalid("Payer email is not a valid address")
		}
	}
	return nil
}

// Payment is an immutable record of money collected against a student fee
type Payment struct {
	shared.TenantAggregateRoot
	StudentFeeID    uuid.UUID              `json:"student_fee_id"`
	StudentID       uuid.UUID              `json:"student_id"`
	Amount          decimal.Decimal        `json:"amount"`
	Method          PaymentMethod          `json:"method"`
	Status          PaymentStatus          `json:"status"`
	ReceiptNumber   string                 `json:"receipt_number"`
	PaymentDate     time.Time              `json:"payment_date"`
	BankName        string                 `json:"bank_name,omitempty"`
	ReferenceNumber string                 `json:"reference_number,omitempty"`
	Remarks         string                 `json:"remarks,omitempty"`
	PayerEmail      string                 `json:"payer_email,omitempty"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
}

// NewPayment builds the payment row for a collection that has already been
// applied to fee. receiptNumber comes from the school's receipt sequence.
func NewPayment(fee *StudentFee, receiptNumber string, in PaymentInput, collectedBy uuid.UUID) (*Payment, error) {
	if fee == nil {
		return nil, invalid("Student fee is required")
	}
	if strings.TrimSpace(receiptNumber) == "" {
		return nil, invalid("Receipt number cannot be empty")
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	paidOn := time.Now()
	if in.PaymentDate != nil && !in.PaymentDate.IsZero() {
		paidOn = *in.PaymentDate
	}

	p := &Payment{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(fee.TenantID),
		StudentFeeID:        fee.ID,
		StudentID:           fee.StudentID,
		Amount:              in.Amount,
		Method:              in.Method,
		Status:              PaymentStatusSuccess,
		ReceiptNumber:       receiptNumber,
		PaymentDate:         paidOn,
		BankName:            strings.TrimSpace(in.BankName),
		ReferenceNumber:     strings.TrimSpace(in.ReferenceNumber),
		Remarks:             strings.TrimSpace(in.Remarks),
		PayerEmail:          strings.TrimSpace(in.PayerEmail),
		Metadata:            in.Metadata,
	}
	p.SetCreatedBy(collectedBy)
	p.AddDomainEvent(NewPaymentCollectedEvent(p, fee))
	return p, nil
}

// RefundableAmount is what can still be refunded given the amount already
// committed by approved, processed or completed refunds.
func (p *Payment) RefundableAmount(committed decimal.Decimal) decimal.Decimal {
	remaining := p.Amount.Sub(committed)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

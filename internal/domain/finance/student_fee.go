package finance

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/feeledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// FeeStatus represents the payment status of a student fee
type FeeStatus string

const (
	FeeStatusPending FeeStatus = "PENDING"
	FeeStatusPartial FeeStatus = "PARTIAL"
	FeeStatusPaid    FeeStatus = "PAID"
	FeeStatusOverdue FeeStatus = "OVERDUE"
)

// IsValid checks if the status is a valid FeeStatus
func (s FeeStatus) IsValid() bool {
	switch s {
	case FeeStatusPending, FeeStatusPartial, FeeStatusPaid, FeeStatusOverdue:
		return true
	}
	return false
}

// CanAcceptPayment returns true while something is still owed
func (s FeeStatus) CanAcceptPayment() bool {
	return s == FeeStatusPending || s == FeeStatusPartial || s == FeeStatusOverdue
}

// StudentFee is the per-student ledger entry instantiated from a fee structure.
//
// finalAmount = totalAmount - discountAmount - scholarshipAmount + taxAmount
// balanceAmount = finalAmount - paidAmount
type StudentFee struct {
	shared.TenantAggregateRoot
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
	Status            FeeStatus       `json:"status"`
	DueDate           *time.Time      `json:"due_date,omitempty"`
	PaidAt            *time.Time      `json:"paid_at,omitempty"`
}

// NewStudentFee instantiates a ledger entry for one student. totalAmount is
// fixed from the structure's component sum and never changes afterwards.
func NewStudentFee(structure *FeeStructure, studentID uuid.UUID, academicUnitID *uuid.UUID, taxAmount decimal.Decimal, dueDate *time.Time) (*StudentFee, error) {
	if structure == nil {
		return nil, invalid("Fee structure is required")
	}
	if !structure.IsActive {
		return nil, shared.NewDomainError(CodeStructureInactive, "Fee structure is inactive")
	}
	if studentID == uuid.Nil {
		return nil, invalid("Student ID cannot be empty")
	}
	if taxAmount.IsNegative() {
		return nil, shared.NewDomainError(CodeInvalidAmount, "Tax amount cannot be negative")
	}
	if academicUnitID == nil {
		academicUnitID = structure.AcademicUnitID
	}
	if dueDate == nil {
		dueDate = structure.DueDate
	}

	sf := &StudentFee{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(structure.TenantID),
		StudentID:           studentID,
		FeeStructureID:      structure.ID,
		AcademicYearID:      structure.AcademicYearID,
		AcademicUnitID:      academicUnitID,
		TotalAmount:         structure.TotalAmount(),
		DiscountAmount:      decimal.Zero,
		ScholarshipAmount:   decimal.Zero,
		TaxAmount:           taxAmount,
		PaidAmount:          decimal.Zero,
		Status:              FeeStatusPending,
		DueDate:             dueDate,
	}
	if err := sf.recompute(); err != nil {
		return nil, err
	}
	sf.AddDomainEvent(NewStudentFeeCreatedEvent(sf))
	return sf, nil
}

// recompute derives finalAmount and balanceAmount from the stored aggregates.
func (sf *StudentFee) recompute() error {
	final := sf.TotalAmount.Sub(sf.DiscountAmount).Sub(sf.ScholarshipAmount).Add(sf.TaxAmount)
	if final.IsNegative() {
		return shared.NewDomainError(CodeNegativeFinalAmount,
			fmt.Sprintf("Adjustments would make the final amount negative (%s)", final.StringFixed(2)))
	}
	sf.FinalAmount = final
	sf.BalanceAmount = final.Sub(sf.PaidAmount)
	return nil
}

// refreshStatus sets PAID when nothing is owed and PARTIAL once anything is
// paid. Otherwise the status is left alone (PENDING or OVERDUE).
func (sf *StudentFee) refreshStatus() {
	switch {
	case !sf.BalanceAmount.IsPositive():
		if sf.Status != FeeStatusPaid {
			now := time.Now()
			sf.PaidAt = &now
		}
		sf.Status = FeeStatusPaid
	case sf.PaidAmount.IsPositive():
		sf.Status = FeeStatusPartial
		sf.PaidAt = nil
	case sf.Status == FeeStatusPaid || sf.Status == FeeStatusPartial:
		sf.Status = FeeStatusPending
		sf.PaidAt = nil
	}
}

// ApplyAdjustment adds approved discount and scholarship deltas to the ledger.
// It must be called once per approval. On error the ledger is unchanged.
func (sf *StudentFee) ApplyAdjustment(deltaDiscount, deltaScholarship decimal.Decimal) error {
	if deltaDiscount.IsNegative() || deltaScholarship.IsNegative() {
		return shared.NewDomainError(CodeInvalidAmount, "Adjustment amounts cannot be negative")
	}
	prevDiscount, prevScholarship := sf.DiscountAmount, sf.ScholarshipAmount
	sf.DiscountAmount = sf.DiscountAmount.Add(deltaDiscount)
	sf.ScholarshipAmount = sf.ScholarshipAmount.Add(deltaScholarship)
	if err := sf.recompute(); err != nil {
		sf.DiscountAmount, sf.ScholarshipAmount = prevDiscount, prevScholarship
		_ = sf.recompute()
		return err
	}
	sf.refreshStatus()
	sf.IncrementVersion()
	return nil
}

// RecordPayment applies a collected amount to the ledger. Any amount above
// the balance is EXCEEDS_BALANCE, including any payment on a fully paid fee.
func (sf *StudentFee) RecordPayment(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.NewDomainError(CodeInvalidAmount, "Payment amount must be greater than zero")
	}
	if amount.GreaterThan(sf.BalanceAmount) {
		return shared.NewDomainError(CodeExceedsBalance,
			fmt.Sprintf("Payment amount %s exceeds balance %s", amount.StringFixed(2), sf.BalanceAmount.StringFixed(2)))
	}
	if !sf.Status.CanAcceptPayment() {
		return invalidState(fmt.Sprintf("Cannot collect payment for a fee in %s status", sf.Status))
	}
	sf.PaidAmount = sf.PaidAmount.Add(amount)
	sf.BalanceAmount = sf.FinalAmount.Sub(sf.PaidAmount)
	sf.refreshStatus()
	sf.IncrementVersion()
	return nil
}

// ReverseForRefund gives back an approved refund amount to the ledger so the
// balance is owed again. Only used when refunds are configured to reopen fees.
func (sf *StudentFee) ReverseForRefund(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.NewDomainError(CodeInvalidAmount, "Refund amount must be greater than zero")
	}
	if amount.GreaterThan(sf.PaidAmount) {
		return shared.NewDomainError(CodeExceedsRefundable,
			fmt.Sprintf("Refund amount %s exceeds paid amount %s", amount.StringFixed(2), sf.PaidAmount.StringFixed(2)))
	}
	sf.PaidAmount = sf.PaidAmount.Sub(amount)
	sf.BalanceAmount = sf.FinalAmount.Sub(sf.PaidAmount)
	sf.refreshStatus()
	sf.IncrementVersion()
	return nil
}

// MarkOverdue flags an unpaid fee whose due date has passed. Returns false
// when the fee does not qualify.
func (sf *StudentFee) MarkOverdue(now time.Time) bool {
	if sf.DueDate == nil || !sf.DueDate.Before(now) {
		return false
	}
	if sf.Status != FeeStatusPending && sf.Status != FeeStatusPartial {
		return false
	}
	if !sf.BalanceAmount.IsPositive() {
		return false
	}
	sf.Status = FeeStatusOverdue
	sf.IncrementVersion()
	return true
}

// CheckInvariants verifies the two ledger identities
func (sf *StudentFee) CheckInvariants() error {
	final := sf.TotalAmount.Sub(sf.DiscountAmount).Sub(sf.ScholarshipAmount).Add(sf.TaxAmount)
	if !final.Equal(sf.FinalAmount) {
		return shared.NewDomainError(CodeInvariantViolation,
			fmt.Sprintf("final amount %s does not match components %s", sf.FinalAmount, final))
	}
	if !sf.FinalAmount.Sub(sf.PaidAmount).Equal(sf.BalanceAmount) {
		return shared.NewDomainError(CodeInvariantViolation,
			fmt.Sprintf("balance %s does not match final %s minus paid %s", sf.BalanceAmount, sf.FinalAmount, sf.PaidAmount))
	}
	if !sf.Status.IsValid() {
		return shared.NewDomainError(CodeInvariantViolation, fmt.Sprintf("unknown status %s", sf.Status))
	}
	return nil
}

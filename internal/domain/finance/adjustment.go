package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/feeledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AdjustmentKind distinguishes discounts from scholarships
type AdjustmentKind string

const (
	AdjustmentKindDiscount    AdjustmentKind = "DISCOUNT"
	AdjustmentKindScholarship AdjustmentKind = "SCHOLARSHIP"
)

// IsValid checks if the kind is known
func (k AdjustmentKind) IsValid() bool {
	return k == AdjustmentKindDiscount || k == AdjustmentKindScholarship
}

// ValueType says how an adjustment value is interpreted
type ValueType string

const (
	ValueTypePercentage ValueType = "PERCENTAGE"
	ValueTypeFlat       ValueType = "FLAT"
)

// IsValid checks if the value type is known
func (v ValueType) IsValid() bool {
	return v == ValueTypePercentage || v == ValueTypeFlat
}

// AdjustmentStatus is the approval state of an adjustment
type AdjustmentStatus string

const (
	AdjustmentStatusPending  AdjustmentStatus = "PENDING"
	AdjustmentStatusApproved AdjustmentStatus = "APPROVED"
	AdjustmentStatusRejected AdjustmentStatus = "REJECTED"
)

var hundred = decimal.NewFromInt(100)

// Adjustment is a discount or scholarship against one student fee. It only
// touches the ledger when approved.
type Adjustment struct {
	shared.TenantAggregateRoot
	Kind            AdjustmentKind   `json:"kind"`
	StudentFeeID    uuid.UUID        `json:"student_fee_id"`
	StudentID       uuid.UUID        `json:"student_id"`
	Name            string           `json:"name"`
	ValueType       ValueType        `json:"value_type"`
	Value           decimal.Decimal  `json:"value"`
	Amount          decimal.Decimal  `json:"amount"`
	Reason          string           `json:"reason"`
	Status          AdjustmentStatus `json:"status"`
	ApprovedBy      *uuid.UUID       `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time       `json:"approved_at,omitempty"`
	RejectedBy      *uuid.UUID       `json:"rejected_by,omitempty"`
	RejectedAt      *time.Time       `json:"rejected_at,omitempty"`
	RejectionReason string           `json:"rejection_reason,omitempty"`
}

// NewAdjustment creates a PENDING adjustment for fee.
//
// Percentages resolve against fee.TotalAmount, not the current FinalAmount.
// Two sequential 10% discounts on 10000 are 1000 each, never 1000 then 900.
// Keep it that way unless the flat-base policy itself changes.
func NewAdjustment(kind AdjustmentKind, fee *StudentFee, name string, valueType ValueType, value decimal.Decimal, reason string, createdBy uuid.UUID) (*Adjustment, error) {
	if !kind.IsValid() {
		return nil, invalid(fmt.Sprintf("Invalid adjustment kind: %s", kind))
	}
	if fee == nil {
		return nil, invalid("Student fee is required")
	}
	if !valueType.IsValid() {
		return nil, invalid(fmt.Sprintf("Invalid value type: %s", valueType))
	}

	var amount decimal.Decimal
	switch valueType {
	case ValueTypePercentage:
		if value.IsNegative() || value.GreaterThan(hundred) {
			return nil, shared.NewDomainError(CodeInvalidAmount, "Percentage must be between 0 and 100")
		}
		amount = fee.TotalAmount.Mul(value).Div(hundred).Round(2)
	case ValueTypeFlat:
		if !value.IsPositive() {
			return nil, shared.NewDomainError(CodeInvalidAmount, "Flat amount must be greater than zero")
		}
		amount = value
	}

	a := &Adjustment{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(fee.TenantID),
		Kind:                kind,
		StudentFeeID:        fee.ID,
		StudentID:           fee.StudentID,
		Name:                strings.TrimSpace(name),
		ValueType:           valueType,
		Value:               value,
		Amount:              amount,
		Reason:              strings.TrimSpace(reason),
		Status:              AdjustmentStatusPending,
	}
	a.SetCreatedBy(createdBy)
	return a, nil
}

// Approve applies the adjustment to fee and marks it APPROVED. Anything other
// than PENDING is a state conflict, so a second approval never reaches the
// ledger.
func (a *Adjustment) Approve(approverID uuid.UUID, fee *StudentFee) error {
	if a.Status != AdjustmentStatusPending {
		return invalidState(fmt.Sprintf("%s is already %s", a.label(), a.Status))
	}
	if fee == nil || fee.ID != a.StudentFeeID {
		return invalid("Adjustment does not belong to this student fee")
	}

	var deltaDiscount, deltaScholarship = decimal.Zero, decimal.Zero
	if a.Kind == AdjustmentKindDiscount {
		deltaDiscount = a.Amount
	} else {
		deltaScholarship = a.Amount
	}
	if err := fee.ApplyAdjustment(deltaDiscount, deltaScholarship); err != nil {
		return err
	}

	now := time.Now()
	a.Status = AdjustmentStatusApproved
	a.ApprovedBy = &approverID
	a.ApprovedAt = &now
	a.IncrementVersion()
	a.AddDomainEvent(NewAdjustmentApprovedEvent(a, fee))
	return nil
}

// Reject closes a PENDING adjustment without touching the ledger
func (a *Adjustment) Reject(rejectedBy uuid.UUID, reason string) error {
	if a.Status != AdjustmentStatusPending {
		return invalidState(fmt.Sprintf("%s is already %s", a.label(), a.Status))
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewDomainError(CodeMissingField, "Rejection reason is required")
	}
	now := time.Now()
	a.Status = AdjustmentStatusRejected
	a.RejectedBy = &rejectedBy
	a.RejectedAt = &now
	a.RejectionReason = reason
	a.IncrementVersion()
	return nil
}

func (a *Adjustment) label() string {
	if a.Kind == AdjustmentKindScholarship {
		return "Scholarship"
	}
	return "Discount"
}

package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/feeledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// RefundStatus represents the lifecycle of a refund
type RefundStatus string

const (
	RefundStatusInitiated       RefundStatus = "INITIATED"
	RefundStatusPendingApproval RefundStatus = "PENDING_APPROVAL"
	RefundStatusApproved        RefundStatus = "APPROVED"
	RefundStatusRejected        RefundStatus = "REJECTED"
	RefundStatusProcessed       RefundStatus = "PROCESSED"
	RefundStatusCompleted       RefundStatus = "COMPLETED"
)

// IsValid checks if the status is known
func (s RefundStatus) IsValid() bool {
	switch s {
	case RefundStatusInitiated, RefundStatusPendingApproval, RefundStatusApproved,
		RefundStatusRejected, RefundStatusProcessed, RefundStatusCompleted:
		return true
	}
	return false
}

// CanApprove returns true for refunds still awaiting a decision
func (s RefundStatus) CanApprove() bool {
	return s == RefundStatusInitiated || s == RefundStatusPendingApproval
}

// CommittedStatuses are the statuses whose amounts count against a payment's
// refundable remainder.
var CommittedStatuses = []RefundStatus{RefundStatusApproved, RefundStatusProcessed, RefundStatusCompleted}

// Refund returns part of a payment to the payer
type Refund struct {
	shared.TenantAggregateRoot
	RefundNumber    string          `json:"refund_number"`
	PaymentID       uuid.UUID       `json:"payment_id"`
	StudentFeeID    uuid.UUID       `json:"student_fee_id"`
	StudentID       uuid.UUID       `json:"student_id"`
	Amount          decimal.Decimal `json:"amount"`
	Reason          string          `json:"reason"`
	Status          RefundStatus    `json:"status"`
	ApprovedBy      *uuid.UUID      `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time      `json:"approved_at,omitempty"`
	RejectedBy      *uuid.UUID      `json:"rejected_by,omitempty"`
	RejectedAt      *time.Time      `json:"rejected_at,omitempty"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
	ProcessedAt     *time.Time      `json:"processed_at,omitempty"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
	LedgerReopened  bool            `json:"ledger_reopened"`
}

// CheckRefundable fails when amount is larger than what is left on payment
// after committed refunds.
func CheckRefundable(payment *Payment, committed, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.NewDomainError(CodeInvalidAmount, "Refund amount must be greater than zero")
	}
	remaining := payment.RefundableAmount(committed)
	if amount.GreaterThan(remaining) {
		return shared.NewDomainError(CodeExceedsRefundable,
			fmt.Sprintf("Refund amount %s exceeds remaining refundable amount %s", amount.StringFixed(2), remaining.StringFixed(2)))
	}
	return nil
}

// NewRefund initiates a refund against payment. committed is the total of the
// payment's refunds in CommittedStatuses.
func NewRefund(payment *Payment, refundNumber string, amount, committed decimal.Decimal, reason string, initiatedBy uuid.UUID) (*Refund, error) {
	if payment == nil {
		return nil, invalid("Payment is required")
	}
	if strings.TrimSpace(refundNumber) == "" {
		return nil, invalid("Refund number cannot be empty")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, shared.NewDomainError(CodeMissingField, "Refund reason is required")
	}
	if err := CheckRefundable(payment, committed, amount); err != nil {
		return nil, err
	}

	r := &Refund{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(payment.TenantID),
		RefundNumber:        refundNumber,
		PaymentID:           payment.ID,
		StudentFeeID:        payment.StudentFeeID,
		StudentID:           payment.StudentID,
		Amount:              amount,
		Reason:              reason,
		Status:              RefundStatusInitiated,
	}
	r.SetCreatedBy(initiatedBy)
	return r, nil
}

// Submit moves an initiated refund into the approval queue
func (r *Refund) Submit() error {
	if r.Status != RefundStatusInitiated {
		return invalidState(fmt.Sprintf("Cannot submit refund in %s status", r.Status))
	}
	r.Status = RefundStatusPendingApproval
	r.IncrementVersion()
	return nil
}

// Approve is a one-way transition from INITIATED or PENDING_APPROVAL. The cap
// is checked again because other refunds of the same payment may have been
// approved since this one was initiated.
func (r *Refund) Approve(approverID uuid.UUID, payment *Payment, committed decimal.Decimal) error {
	if !r.Status.CanApprove() {
		return invalidState(fmt.Sprintf("Cannot approve refund in %s status", r.Status))
	}
	if payment == nil || payment.ID != r.PaymentID {
		return invalid("Refund does not belong to this payment")
	}
	if err := CheckRefundable(payment, committed, r.Amount); err != nil {
		return err
	}
	now := time.Now()
	r.Status = RefundStatusApproved
	r.ApprovedBy = &approverID
	r.ApprovedAt = &now
	r.IncrementVersion()
	r.AddDomainEvent(NewRefundApprovedEvent(r))
	return nil
}

// Reject closes a refund that has not been approved
func (r *Refund) Reject(rejectedBy uuid.UUID, reason string) error {
	if !r.Status.CanApprove() {
		return invalidState(fmt.Sprintf("Cannot reject refund in %s status", r.Status))
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewDomainError(CodeMissingField, "Rejection reason is required")
	}
	now := time.Now()
	r.Status = RefundStatusRejected
	r.RejectedBy = &rejectedBy
	r.RejectedAt = &now
	r.RejectionReason = reason
	r.IncrementVersion()
	return nil
}

// MarkProcessed records that the money has been disbursed
func (r *Refund) MarkProcessed() error {
	if r.Status != RefundStatusApproved {
		return invalidState(fmt.Sprintf("Cannot process refund in %s status", r.Status))
	}
	now := time.Now()
	r.Status = RefundStatusProcessed
	r.ProcessedAt = &now
	r.IncrementVersion()
	return nil
}

// Complete closes a processed refund
func (r *Refund) Complete() error {
	if r.Status != RefundStatusProcessed {
		return invalidState(fmt.Sprintf("Cannot complete refund in %s status", r.Status))
	}
	now := time.Now()
	r.Status = RefundStatusCompleted
	r.CompletedAt = &now
	r.IncrementVersion()
	return nil
}

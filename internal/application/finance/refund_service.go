package finance

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/schoolerp/feeledger/internal/domain/finance"
	"github.com/schoolerp/feeledger/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// RefundService runs the refund workflow:
// INITIATED -> PENDING_APPROVAL -> APPROVED -> PROCESSED -> COMPLETED, with
// REJECTED reachable before approval.
type RefundService struct {
	deps Dependencies
}

// NewRefundService creates a new RefundService
func NewRefundService(deps Dependencies) *RefundService {
	return &RefundService{deps: deps.withDefaults()}
}

// Initiate opens a refund against a payment. The payment row is locked so
// the refundable remainder is read consistently.
func (s *RefundService) Initiate(ctx context.Context, tenantID, userID uuid.UUID, req InitiateRefundRequest) (*RefundResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "refund", "initiate")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrSchoolID, tenantID.String(),
		telemetry.SpanAttrPaymentID, req.PaymentID.String(),
		telemetry.SpanAttrAmount, req.Amount.String(),
	)

	var refund *finance.Refund
	err := s.deps.Scope.Execute(ctx, func(repos finance.Repositories) error {
		payment, err := repos.Payments.FindByIDForUpdate(ctx, tenantID, req.PaymentID)
		if err != nil {
			return err
		}
		committed, err := repos.Refunds.SumCommittedByPayment(ctx, tenantID, payment.ID)
		if err != nil {
			return fmt.Errorf("failed to sum committed refunds: %w", err)
		}
		// Check before consuming a refund number
		if err := finance.CheckRefundable(payment, committed, req.Amount); err != nil {
			return err
		}
		number, err := repos.Settings.NextNumber(ctx, tenantID, finance.SequenceRefund)
		if err != nil {
			return fmt.Errorf("failed to allocate refund number: %w", err)
		}
		refund, err = finance.NewRefund(payment, number, req.Amount, committed, req.Reason, userID)
		if err != nil {
			return err
		}
		if err := repos.Refunds.Create(ctx, refund); err != nil {
			return fmt.Errorf("failed to create refund: %w", err)
		}
		return repos.AuditLogs.Append(ctx,
			finance.NewAuditLog(tenantID, finance.AuditRefundInitiated, "refund", refund.ID, userID).
				WithAmount(refund.Amount).
				With("refund_number", refund.RefundNumber).
				With("payment_id", payment.ID.String()).
				With("receipt_number", payment.ReceiptNumber))
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrRefundID, refund.ID.String())
	s.deps.Logger.Info("Refund initiated",
		zap.String("school_id", tenantID.String()),
		zap.String("refund_id", refund.ID.String()),
		zap.String("refund_number", refund.RefundNumber),
		zap.String("amount", refund.Amount.String()))
	resp := ToRefundResponse(refund)
	return &resp, nil
}

// Submit moves an INITIATED refund into the approval queue
func (s *RefundService) Submit(ctx context.Context, tenantID, userID, id uuid.UUID) (*RefundResponse, error) {
	return s.transition(ctx, tenantID, userID, id, finance.AuditRefundSubmitted, (*finance.Refund).Submit)
}

// Process records that an APPROVED refund has been disbursed
func (s *RefundService) Process(ctx context.Context, tenantID, userID, id uuid.UUID) (*RefundResponse, error) {
	return s.transition(ctx, tenantID, userID, id, finance.AuditRefundProcessed, (*finance.Refund).MarkProcessed)
}

// Complete closes a PROCESSED refund
func (s *RefundService) Complete(ctx context.Context, tenantID, userID, id uuid.UUID) (*RefundResponse, error) {
	return s.transition(ctx, tenantID, userID, id, finance.AuditRefundCompleted, (*finance.Refund).Complete)
}

// Reject closes a refund that has not been approved
func (s *RefundService) Reject(ctx context.Context, tenantID, userID, id uuid.UUID, req RejectRequest) (*RefundResponse, error) {
	return s.transition(ctx, tenantID, userID, id, finance.AuditRefundRejected, func(r *finance.Refund) error {
		return r.Reject(userID, req.Reason)
	})
}

func (s *RefundService) transition(
	ctx context.Context,
	tenantID, userID, id uuid.UUID,
	action finance.AuditAction,
	apply func(*finance.Refund) error,
) (*RefundResponse, error) {
	var refund *finance.Refund
	err := s.deps.Scope.Execute(ctx, func(repos finance.Repositories) error {
		var err error
		refund, err = repos.Refunds.FindByIDForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		from := refund.Status
		if err := apply(refund); err != nil {
			return err
		}
		if err := repos.Refunds.SaveWithLock(ctx, refund); err != nil {
			return fmt.Errorf("failed to save refund: %w", err)
		}
		entry := finance.NewAuditLog(tenantID, action, "refund", refund.ID, userID).
			WithAmount(refund.Amount).
			With("from_status", string(from)).
			With("to_status", string(refund.Status))
		if refund.RejectionReason != "" {
			entry.With("reason", refund.RejectionReason)
		}
		return repos.AuditLogs.Append(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	resp := ToRefundResponse(refund)
	return &resp, nil
}

// Approve commits a refund amount against its payment. The remaining
// refundable amount is checked again under the payment row lock, so two
// approvals of the same payment cannot together exceed it. When refunds are
// configured to reopen ledgers the student fee balance is restored as well.
func (s *RefundService) Approve(ctx context.Context, tenantID, userID, id uuid.UUID) (*RefundResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "refund", "approve")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrSchoolID, tenantID.String(),
		telemetry.SpanAttrRefundID, id.String(),
	)

	var refund *finance.Refund
	var fee *finance.StudentFee
	var opErr error
	telemetry.WithProfilingLabels(ctx, telemetry.FeeOperationLabels(telemetry.OperationApproveRefund, tenantID.String()), func(c context.Context) {
		opErr = s.deps.Scope.Execute(c, func(repos finance.Repositories) error {
			var err error
			refund, err = repos.Refunds.FindByIDForUpdate(c, tenantID, id)
			if err != nil {
				return err
			}
			payment, err := repos.Payments.FindByIDForUpdate(c, tenantID, refund.PaymentID)
			if err != nil {
				return err
			}
			committed, err := repos.Refunds.SumCommittedByPayment(c, tenantID, payment.ID)
			if err != nil {
				return fmt.Errorf("failed to sum committed refunds: %w", err)
			}
			if err := refund.Approve(userID, payment, committed); err != nil {
				return err
			}

			if s.deps.Options.RefundReopensLedger {
				fee, err = repos.StudentFees.FindByIDForUpdate(c, tenantID, refund.StudentFeeID)
				if err != nil {
					return err
				}
				if err := fee.ReverseForRefund(refund.Amount); err != nil {
					return err
				}
				if err := repos.StudentFees.SaveWithLock(c, fee); err != nil {
					return fmt.Errorf("failed to save student fee: %w", err)
				}
				refund.LedgerReopened = true
			}

			if err := repos.Refunds.SaveWithLock(c, refund); err != nil {
				return fmt.Errorf("failed to save refund: %w", err)
			}
			entry := finance.NewAuditLog(tenantID, finance.AuditRefundApproved, "refund", refund.ID, userID).
				WithAmount(refund.Amount).
				With("payment_id", payment.ID.String()).
				With("committed_before", committed.String()).
				With("ledger_reopened", refund.LedgerReopened)
			if fee != nil {
				entry.With("balance_amount", fee.BalanceAmount.String())
			}
			return repos.AuditLogs.Append(c, entry)
		})
	})
	if opErr != nil {
		telemetry.RecordError(span, opErr)
		return nil, opErr
	}

	if fee != nil {
		publishEvents(ctx, s.deps.EventPublisher, s.deps.Logger, refund, fee)
	} else {
		publishEvents(ctx, s.deps.EventPublisher, s.deps.Logger, refund)
	}
	s.deps.Metrics.RecordRefundApproved(ctx, tenantID, refund.Amount)
	s.deps.Logger.Info("Refund approved",
		zap.String("school_id", tenantID.String()),
		zap.String("refund_id", refund.ID.String()),
		zap.String("payment_id", refund.PaymentID.String()),
		zap.String("amount", refund.Amount.String()),
		zap.Bool("ledger_reopened", refund.LedgerReopened))

	resp := ToRefundResponse(refund)
	return &resp, nil
}

// Get returns one refund
func (s *RefundService) Get(ctx context.Context, tenantID, id uuid.UUID) (*RefundResponse, error) {
	r, err := s.deps.Repos.Refunds.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToRefundResponse(r)
	return &resp, nil
}

// List returns a page of refunds
func (s *RefundService) List(ctx context.Context, tenantID uuid.UUID, filter RefundListFilter) ([]RefundResponse, int64, error) {
	f := finance.RefundFilter{Filter: filter.toFilter()}
	var err error
	if f.PaymentID, err = parseOptionalUUID("payment_id", filter.PaymentID); err != nil {
		return nil, 0, err
	}
	if f.StudentID, err = parseOptionalUUID("student_id", filter.StudentID); err != nil {
		return nil, 0, err
	}
	if filter.Status != "" {
		status := finance.RefundStatus(filter.Status)
		f.Status = &status
	}

	items, total, err := s.deps.Repos.Refunds.FindAllForTenant(ctx, tenantID, f)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list refunds: %w", err)
	}
	return ToRefundResponses(items), total, nil
}

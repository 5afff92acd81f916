package finance

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/schoolerp/feeledger/internal/domain/finance"
	"github.com/schoolerp/feeledger/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// AdjustmentService creates, approves and rejects discounts and scholarships
type AdjustmentService struct {
	deps Dependencies
}

// NewAdjustmentService creates a new AdjustmentService
func NewAdjustmentService(deps Dependencies) *AdjustmentService {
	return &AdjustmentService{deps: deps.withDefaults()}
}

// Apply creates a PENDING adjustment. With discount auto-approval enabled a
// discount is approved in the same transaction and reaches the ledger at once.
func (s *AdjustmentService) Apply(ctx context.Context, tenantID, userID uuid.UUID, kind finance.AdjustmentKind, req ApplyAdjustmentRequest) (*AdjustmentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "adjustment", "apply")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrSchoolID, tenantID.String(),
		telemetry.SpanAttrStudentFeeID, req.StudentFeeID.String(),
		telemetry.SpanAttrAdjustmentKind, string(kind),
	)

	autoApprove := kind == finance.AdjustmentKindDiscount && s.deps.Options.DiscountAutoApprove

	var adj *finance.Adjustment
	var fee *finance.StudentFee
	err := s.deps.Scope.Execute(ctx, func(repos finance.Repositories) error {
		var err error
		if autoApprove {
			fee, err = repos.StudentFees.FindByIDForUpdate(ctx, tenantID, req.StudentFeeID)
		} else {
			fee, err = repos.StudentFees.FindByIDForTenant(ctx, tenantID, req.StudentFeeID)
		}
		if err != nil {
			return err
		}

		adj, err = finance.NewAdjustment(kind, fee, req.Name, finance.ValueType(req.ValueType), req.Value, req.Reason, userID)
		if err != nil {
			return err
		}
		audits := []*finance.AuditLog{
			finance.NewAuditLog(tenantID, finance.AuditAdjustmentCreated, adjustmentEntity(kind), adj.ID, userID).
				WithAmount(adj.Amount).
				With("student_fee_id", fee.ID.String()).
				With("value_type", string(adj.ValueType)).
				With("value", adj.Value.String()),
		}

		if autoApprove {
			if err := adj.Approve(userID, fee); err != nil {
				return err
			}
			if err := repos.StudentFees.SaveWithLock(ctx, fee); err != nil {
				return fmt.Errorf("failed to save student fee: %w", err)
			}
			audits = append(audits, approvalAudit(adj, fee, userID).With("auto_approved", true))
		}

		if err := repos.Adjustments.Create(ctx, adj); err != nil {
			return fmt.Errorf("failed to create adjustment: %w", err)
		}
		return repos.AuditLogs.Append(ctx, audits...)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrAdjustmentID, adj.ID.String())
	resp := ToAdjustmentResponse(adj)
	if autoApprove {
		s.afterApproval(ctx, adj, fee)
		resp.StudentFee = studentFeeRef(fee)
	}
	return &resp, nil
}

// Approve applies a PENDING adjustment to its ledger
func (s *AdjustmentService) Approve(ctx context.Context, tenantID, userID uuid.UUID, kind finance.AdjustmentKind, id uuid.UUID) (*AdjustmentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "adjustment", "approve")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrSchoolID, tenantID.String(),
		telemetry.SpanAttrAdjustmentID, id.String(),
		telemetry.SpanAttrAdjustmentKind, string(kind),
	)

	var adj *finance.Adjustment
	var fee *finance.StudentFee
	var opErr error
	telemetry.WithProfilingLabels(ctx, telemetry.FeeOperationLabels(telemetry.OperationApproveAdjustment, tenantID.String()), func(c context.Context) {
		opErr = s.deps.Scope.Execute(c, func(repos finance.Repositories) error {
			var err error
			adj, err = repos.Adjustments.FindByIDForUpdate(c, tenantID, kind, id)
			if err != nil {
				return err
			}
			fee, err = repos.StudentFees.FindByIDForUpdate(c, tenantID, adj.StudentFeeID)
			if err != nil {
				return err
			}
			if err := adj.Approve(userID, fee); err != nil {
				return err
			}
			if err := repos.Adjustments.SaveWithLock(c, adj); err != nil {
				return fmt.Errorf("failed to save adjustment: %w", err)
			}
			if err := repos.StudentFees.SaveWithLock(c, fee); err != nil {
				return fmt.Errorf("failed to save student fee: %w", err)
			}
			return repos.AuditLogs.Append(c, approvalAudit(adj, fee, userID))
		})
	})
	if opErr != nil {
		telemetry.RecordError(span, opErr)
		return nil, opErr
	}

	s.afterApproval(ctx, adj, fee)
	resp := ToAdjustmentResponse(adj)
	resp.StudentFee = studentFeeRef(fee)
	return &resp, nil
}

// Reject closes a PENDING adjustment without touching the ledger
func (s *AdjustmentService) Reject(ctx context.Context, tenantID, userID uuid.UUID, kind finance.AdjustmentKind, id uuid.UUID, req RejectRequest) (*AdjustmentResponse, error) {
	var adj *finance.Adjustment
	err := s.deps.Scope.Execute(ctx, func(repos finance.Repositories) error {
		var err error
		adj, err = repos.Adjustments.FindByIDForUpdate(ctx, tenantID, kind, id)
		if err != nil {
			return err
		}
		if err := adj.Reject(userID, req.Reason); err != nil {
			return err
		}
		if err := repos.Adjustments.SaveWithLock(ctx, adj); err != nil {
			return fmt.Errorf("failed to save adjustment: %w", err)
		}
		return repos.AuditLogs.Append(ctx,
			finance.NewAuditLog(tenantID, finance.AuditAdjustmentRejected, adjustmentEntity(kind), adj.ID, userID).
				WithAmount(adj.Amount).
				With("reason", adj.RejectionReason))
	})
	if err != nil {
		return nil, err
	}
	resp := ToAdjustmentResponse(adj)
	return &resp, nil
}

// Get returns one adjustment
func (s *AdjustmentService) Get(ctx context.Context, tenantID uuid.UUID, kind finance.AdjustmentKind, id uuid.UUID) (*AdjustmentResponse, error) {
	adj, err := s.deps.Repos.Adjustments.FindByIDForTenant(ctx, tenantID, kind, id)
	if err != nil {
		return nil, err
	}
	resp := ToAdjustmentResponse(adj)
	return &resp, nil
}

func (s *AdjustmentService) afterApproval(ctx context.Context, adj *finance.Adjustment, fee *finance.StudentFee) {
	publishEvents(ctx, s.deps.EventPublisher, s.deps.Logger, adj, fee)
	s.deps.Metrics.RecordAdjustmentApproved(ctx, adj.TenantID, string(adj.Kind))
	s.deps.Logger.Info("Adjustment approved",
		zap.String("school_id", adj.TenantID.String()),
		zap.String("adjustment_id", adj.ID.String()),
		zap.String("kind", string(adj.Kind)),
		zap.String("student_fee_id", fee.ID.String()),
		zap.String("amount", adj.Amount.String()),
		zap.String("balance_amount", fee.BalanceAmount.String()))
}

func approvalAudit(adj *finance.Adjustment, fee *finance.StudentFee, userID uuid.UUID) *finance.AuditLog {
	return finance.NewAuditLog(adj.TenantID, finance.AuditAdjustmentApproved, adjustmentEntity(adj.Kind), adj.ID, userID).
		WithAmount(adj.Amount).
		With("student_fee_id", fee.ID.String()).
		With("final_amount", fee.FinalAmount.String()).
		With("balance_amount", fee.BalanceAmount.String())
}

func adjustmentEntity(kind finance.AdjustmentKind) string {
	if kind == finance.AdjustmentKindScholarship {
		return "scholarship"
	}
	return "discount"
}

package finance

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/schoolerp/feeledger/internal/domain/finance"
	"github.com/schoolerp/feeledger/internal/domain/shared"
	"github.com/schoolerp/feeledger/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// PaymentService collects fee payments. Collection locks the ledger row,
// allocates a receipt number and writes the payment in one transaction.
type PaymentService struct {
	deps     Dependencies
	keyStore shared.RequestKeyStore
}

// NewPaymentService creates a new PaymentService. keyStore may be nil, in
// which case Idempotency-Key headers are ignored.
func NewPaymentService(deps Dependencies, keyStore shared.RequestKeyStore) *PaymentService {
	return &PaymentService{deps: deps.withDefaults(), keyStore: keyStore}
}

func idempotencyScope(tenantID uuid.UUID, key string) string {
	return "fee-payment:" + tenantID.String() + ":" + key
}

// Collect records a payment against a student fee. A repeated idempotencyKey
// returns the payment of the first successful call with Replayed set.
func (s *PaymentService) Collect(ctx context.Context, tenantID, userID uuid.UUID, idempotencyKey string, req CollectPaymentRequest) (*CollectResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "collect")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrSchoolID, tenantID.String(),
		telemetry.SpanAttrStudentFeeID, req.StudentFeeID.String(),
		telemetry.SpanAttrPaymentMethod, req.Method,
		telemetry.SpanAttrAmount, req.Amount.String(),
	)

	input := finance.PaymentInput{
		Amount:          req.Amount,
		Method:          finance.PaymentMethod(req.Method),
		BankName:        req.BankName,
		ReferenceNumber: req.ReferenceNumber,
		PaymentDate:     req.PaymentDate,
		Remarks:         req.Remarks,
		PayerEmail:      req.PayerEmail,
		Metadata:        req.Metadata,
	}
	if err := input.Validate(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var scopedKey string
	if idempotencyKey != "" && s.keyStore != nil {
		scopedKey = idempotencyScope(tenantID, idempotencyKey)
		claimed, value, err := s.keyStore.Claim(ctx, scopedKey, s.deps.Options.IdempotencyTTL)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("failed to claim idempotency key: %w", err)
		}
		if !claimed {
			return s.replay(ctx, tenantID, value)
		}
	}

	var payment *finance.Payment
	var fee *finance.StudentFee
	var opErr error
	telemetry.WithProfilingLabels(ctx, telemetry.FeeOperationLabels(telemetry.OperationCollectPayment, tenantID.String()), func(c context.Context) {
		opErr = s.deps.Scope.Execute(c, func(repos finance.Repositories) error {
			var err error
			fee, err = repos.StudentFees.FindByIDForUpdate(c, tenantID, req.StudentFeeID)
			if err != nil {
				return err
			}
			if err := fee.RecordPayment(input.Amount); err != nil {
				return err
			}
			receiptNumber, err := repos.Settings.NextNumber(c, tenantID, finance.SequenceReceipt)
			if err != nil {
				return fmt.Errorf("failed to allocate receipt number: %w", err)
			}
			payment, err = finance.NewPayment(fee, receiptNumber, input, userID)
			if err != nil {
				return err
			}
			if err := repos.Payments.Create(c, payment); err != nil {
				return fmt.Errorf("failed to create payment: %w", err)
			}
			if err := repos.StudentFees.SaveWithLock(c, fee); err != nil {
				return fmt.Errorf("failed to save student fee: %w", err)
			}
			return repos.AuditLogs.Append(c,
				finance.NewAuditLog(tenantID, finance.AuditPaymentCollected, "payment", payment.ID, userID).
					WithAmount(payment.Amount).
					With("receipt_number", payment.ReceiptNumber).
					With("method", string(payment.Method)).
					With("student_fee_id", fee.ID.String()).
					With("balance_amount", fee.BalanceAmount.String()))
		})
	})
	if opErr != nil {
		if scopedKey != "" {
			if err := s.keyStore.Release(context.WithoutCancel(ctx), scopedKey); err != nil {
				s.deps.Logger.Warn("Failed to release idempotency key",
					zap.String("key", scopedKey),
					zap.Error(err))
			}
		}
		telemetry.RecordError(span, opErr)
		return nil, opErr
	}

	if scopedKey != "" {
		if err := s.keyStore.Complete(context.WithoutCancel(ctx), scopedKey, payment.ID.String(), s.deps.Options.IdempotencyTTL); err != nil {
			s.deps.Logger.Warn("Failed to complete idempotency key",
				zap.String("key", scopedKey),
				zap.Error(err))
		}
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrPaymentID, payment.ID.String(),
		telemetry.SpanAttrReceiptNumber, payment.ReceiptNumber,
		telemetry.SpanAttrFeeStatus, string(fee.Status),
	)
	telemetry.AddEvent(span, "payment_collected",
		"receipt_number", payment.ReceiptNumber,
		"balance_amount", fee.BalanceAmount.String(),
	)

	publishEvents(ctx, s.deps.EventPublisher, s.deps.Logger, payment, fee)
	s.deps.Metrics.RecordPaymentCollected(ctx, tenantID, string(payment.Method), payment.Amount)
	s.deps.Logger.Info("Payment collected",
		zap.String("school_id", tenantID.String()),
		zap.String("payment_id", payment.ID.String()),
		zap.String("receipt_number", payment.ReceiptNumber),
		zap.String("student_fee_id", fee.ID.String()),
		zap.String("amount", payment.Amount.String()),
		zap.String("fee_status", string(fee.Status)))

	resp := ToPaymentResponse(payment)
	resp.StudentFee = studentFeeRef(fee)
	return &CollectResult{Payment: resp}, nil
}

// replay answers a request whose idempotency key is already known
func (s *PaymentService) replay(ctx context.Context, tenantID uuid.UUID, value string) (*CollectResult, error) {
	if value == "" {
		return nil, shared.ErrDuplicateRequest
	}
	paymentID, err := uuid.Parse(value)
	if err != nil {
		return nil, fmt.Errorf("corrupt idempotency record %q: %w", value, err)
	}
	payment, err := s.deps.Repos.Payments.FindByIDForTenant(ctx, tenantID, paymentID)
	if err != nil {
		return nil, err
	}
	resp := ToPaymentResponse(payment)
	if fee, err := s.deps.Repos.StudentFees.FindByIDForTenant(ctx, tenantID, payment.StudentFeeID); err == nil {
		resp.StudentFee = studentFeeRef(fee)
	}
	s.deps.Logger.Info("Replayed payment for idempotency key",
		zap.String("school_id", tenantID.String()),
		zap.String("payment_id", payment.ID.String()))
	return &CollectResult{Payment: resp, Replayed: true}, nil
}

// Get returns one payment
func (s *PaymentService) Get(ctx context.Context, tenantID, id uuid.UUID) (*PaymentResponse, error) {
	p, err := s.deps.Repos.Payments.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToPaymentResponse(p)
	return &resp, nil
}

// List returns a page of payments
func (s *PaymentService) List(ctx context.Context, tenantID uuid.UUID, filter PaymentListFilter) ([]PaymentResponse, int64, error) {
	f := finance.PaymentFilter{Filter: filter.toFilter()}
	var err error
	if f.StudentFeeID, err = parseOptionalUUID("student_fee_id", filter.StudentFeeID); err != nil {
		return nil, 0, err
	}
	if f.StudentID, err = parseOptionalUUID("student_id", filter.StudentID); err != nil {
		return nil, 0, err
	}
	if filter.Method != "" {
		method := finance.PaymentMethod(filter.Method)
		f.Method = &method
	}
	if f.FromDate, err = parseDate("from", filter.FromDate); err != nil {
		return nil, 0, err
	}
	to, err := parseDate("to", filter.ToDate)
	if err != nil {
		return nil, 0, err
	}
	if to != nil {
		end := endOfDay(*to)
		f.ToDate = &end
	}

	items, total, err := s.deps.Repos.Payments.FindAllForTenant(ctx, tenantID, f)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payments: %w", err)
	}
	return ToPaymentResponses(items), total, nil
}

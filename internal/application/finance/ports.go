package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/feeledger/internal/domain/finance"
	"github.com/shopspring/decimal"
)

// FeeMetrics records business counters. Implemented by telemetry.FeeMetrics.
type FeeMetrics interface {
	RecordPaymentCollected(ctx context.Context, tenantID uuid.UUID, method string, amount decimal.Decimal)
	RecordRefundApproved(ctx context.Context, tenantID uuid.UUID, amount decimal.Decimal)
	RecordAdjustmentApproved(ctx context.Context, tenantID uuid.UUID, kind string)
	RecordMarkedOverdue(ctx context.Context, count int64)
}

type nopMetrics struct{}

func (nopMetrics) RecordPaymentCollected(context.Context, uuid.UUID, string, decimal.Decimal) {}
func (nopMetrics) RecordRefundApproved(context.Context, uuid.UUID, decimal.Decimal)           {}
func (nopMetrics) RecordAdjustmentApproved(context.Context, uuid.UUID, string)                {}
func (nopMetrics) RecordMarkedOverdue(context.Context, int64)                                 {}

// ReceiptRenderer turns a receipt into a printable PDF
type ReceiptRenderer interface {
	RenderReceipt(ctx context.Context, receipt *finance.Receipt) ([]byte, error)
}

// ReceiptArchive stores rendered receipts
type ReceiptArchive interface {
	PutReceipt(ctx context.Context, tenantID uuid.UUID, receiptNumber string, pdf []byte) error
}

// ReceiptMailer delivers a payment receipt to the payer
type ReceiptMailer interface {
	SendReceipt(ctx context.Context, msg ReceiptEmail) error
}

// ReceiptEmail is the content of a receipt notification
type ReceiptEmail struct {
	To            string
	ReceiptNumber string
	Amount        decimal.Decimal
	Method        finance.PaymentMethod
	PaymentDate   time.Time
	BalanceAmount decimal.Decimal
	FeeStatus     finance.FeeStatus
}

// CollectionExporter renders a collection summary as a spreadsheet
type CollectionExporter interface {
	ExportCollectionSummary(summary *finance.CollectionSummary) ([]byte, error)
}

// Options are the behaviour switches of the fee ledger
type Options struct {
	// DiscountAutoApprove applies discounts to the ledger on creation
	DiscountAutoApprove bool
	// RefundReopensLedger makes an approved refund reduce the fee's paid amount
	RefundReopensLedger bool
	// IdempotencyTTL is how long Idempotency-Key results are remembered
	IdempotencyTTL time.Duration
}

package finance

import (
	"context"
	"fmt"

	"github.com/schoolerp/feeledger/internal/domain/finance"
	"github.com/schoolerp/feeledger/internal/domain/shared"
	"go.uber.org/zap"
)

// ReceiptEmailHandler mails a receipt to the payer after a collection when
// the payment carries a payer email.
type ReceiptEmailHandler struct {
	mailer ReceiptMailer
	logger *zap.Logger
}

// NewReceiptEmailHandler creates a new handler for payment collected events
func NewReceiptEmailHandler(mailer ReceiptMailer, logger *zap.Logger) *ReceiptEmailHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReceiptEmailHandler{mailer: mailer, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *ReceiptEmailHandler) EventTypes() []string {
	return []string{finance.EventTypePaymentCollected}
}

// Handle sends the receipt email
func (h *ReceiptEmailHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	collected, ok := event.(*finance.PaymentCollectedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", finance.EventTypePaymentCollected),
			zap.String("actual", event.EventType()))
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			finance.EventTypePaymentCollected, event.EventType())
	}
	if collected.PayerEmail == "" {
		return nil
	}

	err := h.mailer.SendReceipt(ctx, ReceiptEmail{
		To:            collected.PayerEmail,
		ReceiptNumber: collected.ReceiptNumber,
		Amount:        collected.Amount,
		Method:        collected.Method,
		PaymentDate:   collected.PaymentDate,
		BalanceAmount: collected.BalanceAmount,
		FeeStatus:     collected.FeeStatus,
	})
	if err != nil {
		h.logger.Error("failed to send receipt email",
			zap.String("receipt_number", collected.ReceiptNumber),
			zap.Error(err))
		return fmt.Errorf("failed to send receipt email: %w", err)
	}

	h.logger.Info("receipt email sent",
		zap.String("school_id", collected.TenantID().String()),
		zap.String("receipt_number", collected.ReceiptNumber))
	return nil
}

var _ shared.EventHandler = (*ReceiptEmailHandler)(nil)

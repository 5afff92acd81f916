package finance

import (
	"context"
	"testing"

	"github.com/schoolerp/feeledger/internal/domain/finance"
	"github.com/schoolerp/feeledger/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRefundService_Initiate(t *testing.T) {
	ctx := context.Background()

	t.Run("numbers a refund within the refundable amount", func(t *testing.T) {
		f := newFixture()
		_, payment := f.newPayment("10000", "5000")
		svc := NewRefundService(f.deps(Options{}))

		f.payments.On("FindByIDForUpdate", mock.Anything, f.tenantID, payment.ID).Return(payment, nil)
		f.refunds.On("SumCommittedByPayment", mock.Anything, f.tenantID, payment.ID).Return(dec("3000"), nil)
		f.settings.On("NextNumber", mock.Anything, f.tenantID, finance.SequenceRefund).Return("RFD-000001", nil)
		f.refunds.On("Create", mock.Anything, mock.AnythingOfType("*finance.Refund")).Return(nil)

		resp, err := svc.Initiate(ctx, f.tenantID, f.userID, InitiateRefundRequest{PaymentID: payment.ID, Amount: dec("2000"), Reason: "Withdrawn"})
		require.NoError(t, err)
		assert.Equal(t, "INITIATED", resp.Status)
		assert.Equal(t, "RFD-000001", resp.RefundNumber)
		assert.Equal(t, []finance.AuditAction{finance.AuditRefundInitiated}, f.audits.actions())
	})

	t.Run("amount above the remainder is rejected before numbering", func(t *testing.T) {
		f := newFixture()
		_, payment := f.newPayment("10000", "5000")
		svc := NewRefundService(f.deps(Options{}))

		f.payments.On("FindByIDForUpdate", mock.Anything, f.tenantID, payment.ID).Return(payment, nil)
		f.refunds.On("SumCommittedByPayment", mock.Anything, f.tenantID, payment.ID).Return(dec("3000"), nil)

		_, err := svc.Initiate(ctx, f.tenantID, f.userID, InitiateRefundRequest{PaymentID: payment.ID, Amount: dec("2000.01"), Reason: "Withdrawn"})
		de, ok := shared.GetDomainError(err)
		require.True(t, ok)
		assert.Equal(t, finance.CodeExceedsRefundable, de.Code)
		f.settings.AssertNotCalled(t, "NextNumber", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestRefundService_Approve(t *testing.T) {
	ctx := context.Background()

	newRefund := func(f *fixture, payment *finance.Payment, amount string) *finance.Refund {
		r, err := finance.NewRefund(payment, "RFD-000001", dec(amount), decimal.Zero, "Withdrawn", f.userID)
		require.NoError(t, err)
		return r
	}

	t.Run("re-checks the cap against refunds approved meanwhile", func(t *testing.T) {
		f := newFixture()
		_, payment := f.newPayment("10000", "5000")
		refund := newRefund(f, payment, "3000")
		svc := NewRefundService(f.deps(Options{}))

		f.refunds.On("FindByIDForUpdate", mock.Anything, f.tenantID, refund.ID).Return(refund, nil)
		f.payments.On("FindByIDForUpdate", mock.Anything, f.tenantID, payment.ID).Return(payment, nil)
		f.refunds.On("SumCommittedByPayment", mock.Anything, f.tenantID, payment.ID).Return(dec("3000"), nil)

		_, err := svc.Approve(ctx, f.tenantID, f.userID, refund.ID)
		de, ok := shared.GetDomainError(err)
		require.True(t, ok)
		assert.Equal(t, finance.CodeExceedsRefundable, de.Code)
		assert.Equal(t, finance.RefundStatusInitiated, refund.Status)
		f.refunds.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("payment-only refunds leave the ledger alone", func(t *testing.T) {
		f := newFixture()
		_, payment := f.newPayment("10000", "5000")
		refund := newRefund(f, payment, "2000")
		svc := NewRefundService(f.deps(Options{}))

		f.refunds.On("FindByIDForUpdate", mock.Anything, f.tenantID, refund.ID).Return(refund, nil)
		f.payments.On("FindByIDForUpdate", mock.Anything, f.tenantID, payment.ID).Return(payment, nil)
		f.refunds.On("SumCommittedByPayment", mock.Anything, f.tenantID, payment.ID).Return(decimal.Zero, nil)
		f.refunds.On("SaveWithLock", mock.Anything, refund).Return(nil)
		f.metrics.On("RecordRefundApproved", mock.Anything, f.tenantID, dec("2000")).Return()

		resp, err := svc.Approve(ctx, f.tenantID, f.userID, refund.ID)
		require.NoError(t, err)
		assert.Equal(t, "APPROVED", resp.Status)
		assert.False(t, resp.LedgerReopened)
		f.fees.AssertNotCalled(t, "FindByIDForUpdate", mock.Anything, mock.Anything, mock.Anything)
		assert.Equal(t, []string{finance.EventTypeRefundApproved}, f.publisher.types())
		f.metrics.AssertExpectations(t)
	})

	t.Run("reopening refunds restore the balance", func(t *testing.T) {
		f := newFixture()
		fee, payment := f.newPayment("5000", "5000")
		require.Equal(t, finance.FeeStatusPaid, fee.Status)
		refund := newRefund(f, payment, "2000")
		svc := NewRefundService(f.deps(Options{RefundReopensLedger: true}))

		f.refunds.On("FindByIDForUpdate", mock.Anything, f.tenantID, refund.ID).Return(refund, nil)
		f.payments.On("FindByIDForUpdate", mock.Anything, f.tenantID, payment.ID).Return(payment, nil)
		f.refunds.On("SumCommittedByPayment", mock.Anything, f.tenantID, payment.ID).Return(decimal.Zero, nil)
		f.fees.On("FindByIDForUpdate", mock.Anything, f.tenantID, fee.ID).Return(fee, nil)
		f.fees.On("SaveWithLock", mock.Anything, fee).Return(nil)
		f.refunds.On("SaveWithLock", mock.Anything, refund).Return(nil)
		f.metrics.On("RecordRefundApproved", mock.Anything, mock.Anything, mock.Anything).Return()

		resp, err := svc.Approve(ctx, f.tenantID, f.userID, refund.ID)
		require.NoError(t, err)
		assert.True(t, resp.LedgerReopened)
		assert.True(t, fee.PaidAmount.Equal(dec("3000")))
		assert.True(t, fee.BalanceAmount.Equal(dec("2000")))
		assert.Equal(t, finance.FeeStatusPartial, fee.Status)
	})
}

func TestRefundService_Workflow(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	_, payment := f.newPayment("10000", "5000")
	refund, err := finance.NewRefund(payment, "RFD-000009", dec("1000"), decimal.Zero, "Overcharged", f.userID)
	require.NoError(t, err)
	svc := NewRefundService(f.deps(Options{}))

	f.refunds.On("FindByIDForUpdate", mock.Anything, f.tenantID, refund.ID).Return(refund, nil)
	f.refunds.On("SaveWithLock", mock.Anything, refund).Return(nil)

	resp, err := svc.Submit(ctx, f.tenantID, f.userID, refund.ID)
	require.NoError(t, err)
	assert.Equal(t, "PENDING_APPROVAL", resp.Status)

	_, err = svc.Process(ctx, f.tenantID, f.userID, refund.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	resp, err = svc.Reject(ctx, f.tenantID, f.userID, refund.ID, RejectRequest{Reason: "Duplicate"})
	require.NoError(t, err)
	assert.Equal(t, "REJECTED", resp.Status)

	_, err = svc.Complete(ctx, f.tenantID, f.userID, refund.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	assert.Equal(t, []finance.AuditAction{finance.AuditRefundSubmitted, finance.AuditRefundRejected}, f.audits.actions())
	assert.Equal(t, "Duplicate", f.audits.entries[1].Details["reason"])
}

// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// FeeMetrics provides business metrics for the fee ledger.
// It tracks collections, refunds, adjustments and outstanding dues.
type FeeMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	paymentsCollected   *Counter
	paymentAmount       *Counter
	refundsApproved     *Counter
	refundAmount        *Counter
	adjustmentsApproved *Counter
	feesMarkedOverdue   *Counter

	// Gauge metrics (point-in-time values)
	outstandingDues *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	duesProvider DuesMetricsProvider
}

// DuesMetricsProvider reports outstanding balances for periodic collection
// without the telemetry layer depending on the finance domain.
type DuesMetricsProvider interface {
	// OutstandingByTenant returns the summed balance of unpaid fees per school
	OutstandingByTenant(ctx context.Context) (map[uuid.UUID]decimal.Decimal, error)
}

// FeeMetricsConfig holds configuration for fee metrics.
type FeeMetricsConfig struct {
	Meter        metric.Meter
	Logger       *zap.Logger
	DuesProvider DuesMetricsProvider
}

// NewFeeMetrics creates a new FeeMetrics instance.
func NewFeeMetrics(cfg FeeMetricsConfig) (*FeeMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	fm := &FeeMetrics{
		meter:        cfg.Meter,
		logger:       logger,
		stopChan:     make(chan struct{}),
		duesProvider: cfg.DuesProvider,
	}

	counters := []struct {
		target      **Counter
		name        string
		description string
		unit        string
	}{
		{&fm.paymentsCollected, "fee_payments_collected_total", "Total number of fee payments collected", "{payments}"},
		{&fm.paymentAmount, "fee_payment_amount_total", "Total collected amount in minor currency units", "{minor_units}"},
		{&fm.refundsApproved, "fee_refunds_approved_total", "Total number of refunds approved", "{refunds}"},
		{&fm.refundAmount, "fee_refund_amount_total", "Total approved refund amount in minor currency units", "{minor_units}"},
		{&fm.adjustmentsApproved, "fee_adjustments_approved_total", "Total number of discounts and scholarships approved", "{adjustments}"},
		{&fm.feesMarkedOverdue, "fee_marked_overdue_total", "Total number of student fees marked overdue", "{fees}"},
	}
	for _, c := range counters {
		counter, err := NewCounter(cfg.Meter, c.name, c.description, c.unit)
		if err != nil {
			return nil, err
		}
		*c.target = counter
	}

	var err error
	fm.outstandingDues, err = NewGauge(
		cfg.Meter,
		"fee_outstanding_dues",
		"Outstanding balance of unpaid fees in minor currency units",
		"{minor_units}",
	)
	if err != nil {
		return nil, err
	}

	return fm, nil
}

// minorUnits converts a decimal amount to an integer count of cents/paise.
func minorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).IntPart()
}

// RecordPaymentCollected records one committed collection.
func (fm *FeeMetrics) RecordPaymentCollected(ctx context.Context, tenantID uuid.UUID, method string, amount decimal.Decimal) {
	attrs := []attribute.KeyValue{
		AttrSchoolID.String(tenantID.String()),
		AttrPaymentMethod.String(method),
	}
	fm.paymentsCollected.Inc(ctx, attrs...)
	fm.paymentAmount.Add(ctx, minorUnits(amount), attrs...)
}

// RecordRefundApproved records an approved refund.
func (fm *FeeMetrics) RecordRefundApproved(ctx context.Context, tenantID uuid.UUID, amount decimal.Decimal) {
	fm.refundsApproved.Inc(ctx, AttrSchoolID.String(tenantID.String()))
	fm.refundAmount.Add(ctx, minorUnits(amount), AttrSchoolID.String(tenantID.String()))
}

// RecordAdjustmentApproved records an approved discount or scholarship.
func (fm *FeeMetrics) RecordAdjustmentApproved(ctx context.Context, tenantID uuid.UUID, kind string) {
	fm.adjustmentsApproved.Inc(ctx,
		AttrSchoolID.String(tenantID.String()),
		AttrAdjustmentKind.String(kind),
	)
}

// RecordMarkedOverdue records fees flagged by an overdue run.
func (fm *FeeMetrics) RecordMarkedOverdue(ctx context.Context, count int64) {
	if count <= 0 {
		return
	}
	fm.feesMarkedOverdue.Add(ctx, count)
}

// RecordOutstandingDues records the current outstanding balance of a school.
func (fm *FeeMetrics) RecordOutstandingDues(ctx context.Context, tenantID uuid.UUID, amount decimal.Decimal) {
	fm.outstandingDues.Record(ctx, minorUnits(amount), AttrSchoolID.String(tenantID.String()))
}

// StartPeriodicCollection starts periodic collection of the dues gauge.
// This is non-blocking - use Stop() to stop collection.
func (fm *FeeMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	fm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go fm.runPeriodicCollection(ctx, interval)
	})
}

func (fm *FeeMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	fm.collectDues(ctx)

	for {
		select {
		case <-fm.stopChan:
			fm.logger.Info("Stopping periodic fee metrics collection")
			return
		case <-ctx.Done():
			fm.logger.Info("Context cancelled, stopping periodic fee metrics collection")
			return
		case <-ticker.C:
			fm.collectDues(ctx)
		}
	}
}

func (fm *FeeMetrics) collectDues(ctx context.Context) {
	if fm.duesProvider == nil {
		fm.logger.Debug("No dues provider configured, skipping dues metrics collection")
		return
	}

	outstanding, err := fm.duesProvider.OutstandingByTenant(ctx)
	if err != nil {
		fm.logger.Warn("Failed to collect outstanding dues", zap.Error(err))
		return
	}
	for tenantID, amount := range outstanding {
		fm.RecordOutstandingDues(ctx, tenantID, amount)
	}
}

// Stop stops the periodic collection.
func (fm *FeeMetrics) Stop() {
	fm.stopOnce.Do(func() {
		close(fm.stopChan)
	})
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewFeeMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

package scheduler

import (
	"context"

	"github.com/google/uuid"
	appfinance "github.com/schoolerp/feeledger/internal/application/finance"
	"go.uber.org/zap"
)

// OverdueJobName identifies the overdue sweep in logs and LastRun
const OverdueJobName = "mark_overdue_fees"

// OverdueMarker flags unpaid fees whose due date has passed.
// Implemented by finance.StudentFeeService.
type OverdueMarker interface {
	MarkOverdue(ctx context.Context, tenantID *uuid.UUID, userID uuid.UUID) (*appfinance.MarkOverdueResult, error)
}

// OverdueJob sweeps every school for overdue fees
type OverdueJob struct {
	marker OverdueMarker
	logger *zap.Logger
}

// NewOverdueJob creates the overdue sweep job
func NewOverdueJob(marker OverdueMarker, logger *zap.Logger) *OverdueJob {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OverdueJob{marker: marker, logger: logger}
}

// Name implements Job
func (j *OverdueJob) Name() string { return OverdueJobName }

// Run marks overdue fees across all tenants as the system user
func (j *OverdueJob) Run(ctx context.Context) error {
	result, err := j.marker.MarkOverdue(ctx, nil, uuid.Nil)
	if err != nil {
		return err
	}
	j.logger.Info("Overdue sweep finished",
		zap.Int64("marked", result.Marked),
		zap.Time("as_of", result.AsOf))
	return nil
}

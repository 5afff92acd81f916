package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/feeledger/internal/domain/finance"
	"github.com/schoolerp/feeledger/internal/domain/shared"
	"github.com/schoolerp/feeledger/internal/infrastructure/telemetry"
)

// ReportService serves collection and dues summaries
type ReportService struct {
	reports  finance.ReportRepository
	exporter CollectionExporter
	now      func() time.Time
}

// NewReportService creates a new ReportService. exporter may be nil when
// spreadsheet export is not configured.
func NewReportService(reports finance.ReportRepository, exporter CollectionExporter) *ReportService {
	return &ReportService{reports: reports, exporter: exporter, now: time.Now}
}

// ErrExportUnavailable is returned when no spreadsheet exporter is configured
var ErrExportUnavailable = shared.NewDomainError("EXPORT_UNAVAILABLE", "Report export is not configured")

func (s *ReportService) collectionQuery(q CollectionSummaryQuery) (finance.CollectionQuery, error) {
	from, err := parseDate("from_date", q.FromDate)
	if err != nil {
		return finance.CollectionQuery{}, err
	}
	to, err := parseDate("to_date", q.ToDate)
	if err != nil {
		return finance.CollectionQuery{}, err
	}
	if from == nil || to == nil {
		return finance.CollectionQuery{}, shared.NewDomainError(shared.CodeInvalidInput, "from_date and to_date are required")
	}
	if to.Before(*from) {
		return finance.CollectionQuery{}, shared.NewDomainError(shared.CodeInvalidInput, "to_date must not be before from_date")
	}
	yearID, err := parseOptionalUUID("academic_year_id", q.AcademicYearID)
	if err != nil {
		return finance.CollectionQuery{}, err
	}
	return finance.CollectionQuery{FromDate: *from, ToDate: *to, AcademicYearID: yearID}, nil
}

// CollectionSummary totals SUCCESS payments between two dates, both inclusive
func (s *ReportService) CollectionSummary(ctx context.Context, tenantID uuid.UUID, q CollectionSummaryQuery) (*finance.CollectionSummary, error) {
	query, err := s.collectionQuery(q)
	if err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "report", "collection_summary")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrSchoolID, tenantID.String(),
		"from_date", q.FromDate,
		"to_date", q.ToDate,
	)

	var summary *finance.CollectionSummary
	telemetry.WithProfilingLabels(ctx, telemetry.FeeOperationLabels(telemetry.OperationCollectionReport, tenantID.String()), func(c context.Context) {
		summary, err = s.reports.CollectionSummary(c, tenantID, query)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to build collection summary: %w", err)
	}
	return summary, nil
}

// ExportCollectionSummary renders the collection summary as an XLSX workbook
// and returns it with a suggested file name.
func (s *ReportService) ExportCollectionSummary(ctx context.Context, tenantID uuid.UUID, q CollectionSummaryQuery) ([]byte, string, error) {
	if s.exporter == nil {
		return nil, "", ErrExportUnavailable
	}
	summary, err := s.CollectionSummary(ctx, tenantID, q)
	if err != nil {
		return nil, "", err
	}
	data, err := s.exporter.ExportCollectionSummary(summary)
	if err != nil {
		return nil, "", fmt.Errorf("failed to export collection summary: %w", err)
	}
	name := fmt.Sprintf("collections_%s_%s.xlsx", q.FromDate, q.ToDate)
	return data, name, nil
}

// DuesSummary lists outstanding balances as of now
func (s *ReportService) DuesSummary(ctx context.Context, tenantID uuid.UUID, q DuesSummaryQuery) (*finance.DuesSummary, error) {
	yearID, err := parseOptionalUUID("academic_year_id", q.AcademicYearID)
	if err != nil {
		return nil, err
	}
	unitID, err := parseOptionalUUID("academic_unit_id", q.AcademicUnitID)
	if err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "report", "dues_summary")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrSchoolID, tenantID.String(),
		"overdue_only", q.OverdueOnly,
	)

	var summary *finance.DuesSummary
	telemetry.WithProfilingLabels(ctx, telemetry.FeeOperationLabels(telemetry.OperationDuesReport, tenantID.String()), func(c context.Context) {
		summary, err = s.reports.DuesSummary(c, tenantID, finance.DuesQuery{
			AcademicYearID: yearID,
			AcademicUnitID: unitID,
			OverdueOnly:    q.OverdueOnly,
			AsOf:           s.now(),
		})
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to build dues summary: %w", err)
	}
	return summary, nil
}

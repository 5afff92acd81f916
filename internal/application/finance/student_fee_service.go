package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/feeledger/internal/domain/finance"
	"github.com/schoolerp/feeledger/internal/domain/shared"
	"github.com/schoolerp/feeledger/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StudentFeeService assigns fee structures to students and reads ledgers
type StudentFeeService struct {
	deps Dependencies
	now  func() time.Time
}

// NewStudentFeeService creates a new StudentFeeService
func NewStudentFeeService(deps Dependencies) *StudentFeeService {
	return &StudentFeeService{deps: deps.withDefaults(), now: time.Now}
}

func taxOrZero(tax *decimal.Decimal) decimal.Decimal {
	if tax == nil {
		return decimal.Zero
	}
	return *tax
}

// Create charges one student a fee structure. A student has at most one fee
// per structure.
func (s *StudentFeeService) Create(ctx context.Context, tenantID, userID uuid.UUID, req CreateStudentFeeRequest) (*StudentFeeResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "student_fee", "create")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrSchoolID, tenantID.String(),
		telemetry.SpanAttrFeeStructureID, req.FeeStructureID.String(),
	)

	var sf *finance.StudentFee
	err := s.deps.Scope.Execute(ctx, func(repos finance.Repositories) error {
		structure, err := repos.FeeStructures.FindByIDForTenant(ctx, tenantID, req.FeeStructureID)
		if err != nil {
			return err
		}
		exists, err := repos.StudentFees.ExistsForStudent(ctx, tenantID, req.StudentID, req.FeeStructureID)
		if err != nil {
			return fmt.Errorf("failed to check existing student fee: %w", err)
		}
		if exists {
			return shared.NewDomainError(shared.CodeAlreadyExists, "Student already has a fee for this fee structure")
		}
		sf, err = s.createOne(ctx, repos, structure, req.StudentID, req.AcademicUnitID, taxOrZero(req.TaxAmount), req.DueDate, userID)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrStudentFeeID, sf.ID.String())
	publishEvents(ctx, s.deps.EventPublisher, s.deps.Logger, sf)
	resp := ToStudentFeeResponse(sf)
	return &resp, nil
}

func (s *StudentFeeService) createOne(
	ctx context.Context,
	repos finance.Repositories,
	structure *finance.FeeStructure,
	studentID uuid.UUID,
	unitID *uuid.UUID,
	tax decimal.Decimal,
	due *time.Time,
	userID uuid.UUID,
) (*finance.StudentFee, error) {
	sf, err := finance.NewStudentFee(structure, studentID, unitID, tax, due)
	if err != nil {
		return nil, err
	}
	sf.SetCreatedBy(userID)
	if err := repos.StudentFees.Create(ctx, sf); err != nil {
		return nil, fmt.Errorf("failed to create student fee: %w", err)
	}
	err = repos.AuditLogs.Append(ctx,
		finance.NewAuditLog(sf.TenantID, finance.AuditStudentFeeCreated, "student_fee", sf.ID, userID).
			WithAmount(sf.FinalAmount).
			With("student_id", sf.StudentID.String()).
			With("fee_structure_id", structure.ID.String()))
	if err != nil {
		return nil, err
	}
	return sf, nil
}

// BulkCreate charges many students the same structure in one transaction.
// Students that already have a fee for it are skipped and reported.
func (s *StudentFeeService) BulkCreate(ctx context.Context, tenantID, userID uuid.UUID, req BulkCreateStudentFeesRequest) (*BulkCreateStudentFeesResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "student_fee", "bulk_create")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrSchoolID, tenantID.String(),
		telemetry.SpanAttrFeeStructureID, req.FeeStructureID.String(),
		"student_count", len(req.StudentIDs),
	)

	var created []*finance.StudentFee
	skipped := []uuid.UUID{}
	var opErr error
	telemetry.WithProfilingLabels(ctx, telemetry.FeeOperationLabels(telemetry.OperationCreateStudentFees, tenantID.String()), func(c context.Context) {
		opErr = s.deps.Scope.Execute(c, func(repos finance.Repositories) error {
			structure, err := repos.FeeStructures.FindByIDForTenant(c, tenantID, req.FeeStructureID)
			if err != nil {
				return err
			}
			seen := make(map[uuid.UUID]bool, len(req.StudentIDs))
			for _, studentID := range req.StudentIDs {
				if seen[studentID] {
					continue
				}
				seen[studentID] = true

				exists, err := repos.StudentFees.ExistsForStudent(c, tenantID, studentID, req.FeeStructureID)
				if err != nil {
					return fmt.Errorf("failed to check existing student fee: %w", err)
				}
				if exists {
					skipped = append(skipped, studentID)
					continue
				}
				sf, err := s.createOne(c, repos, structure, studentID, req.AcademicUnitID, taxOrZero(req.TaxAmount), req.DueDate, userID)
				if err != nil {
					return err
				}
				created = append(created, sf)
			}
			return nil
		})
	})
	if opErr != nil {
		telemetry.RecordError(span, opErr)
		return nil, opErr
	}

	result := &BulkCreateStudentFeesResult{
		Created: make([]StudentFeeResponse, 0, len(created)),
		Skipped: skipped,
	}
	for _, sf := range created {
		publishEvents(ctx, s.deps.EventPublisher, s.deps.Logger, sf)
		result.Created = append(result.Created, ToStudentFeeResponse(sf))
	}
	s.deps.Logger.Info("Student fees created",
		zap.String("school_id", tenantID.String()),
		zap.String("fee_structure_id", req.FeeStructureID.String()),
		zap.Int("created", len(created)),
		zap.Int("skipped", len(skipped)))
	return result, nil
}

// Get returns a ledger with its payments and adjustments
func (s *StudentFeeService) Get(ctx context.Context, tenantID, id uuid.UUID) (*StudentFeeDetailResponse, error) {
	repos := s.deps.Repos
	sf, err := repos.StudentFees.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	payments, err := repos.Payments.FindByStudentFee(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load payments: %w", err)
	}
	adjustments, err := repos.Adjustments.FindByStudentFee(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load adjustments: %w", err)
	}

	resp := &StudentFeeDetailResponse{
		StudentFeeResponse: ToStudentFeeResponse(sf),
		Payments:           ToPaymentResponses(payments),
		Adjustments:        make([]AdjustmentResponse, len(adjustments)),
	}
	for i := range adjustments {
		resp.Adjustments[i] = ToAdjustmentResponse(&adjustments[i])
	}
	if structure, err := repos.FeeStructures.FindByIDForTenant(ctx, tenantID, sf.FeeStructureID); err == nil {
		resp.FeeStructureName = structure.Name
	}
	return resp, nil
}

// List returns a page of student fees
func (s *StudentFeeService) List(ctx context.Context, tenantID uuid.UUID, filter StudentFeeListFilter) ([]StudentFeeResponse, int64, error) {
	f := finance.StudentFeeFilter{Filter: filter.toFilter()}
	var err error
	if f.StudentID, err = parseOptionalUUID("student_id", filter.StudentID); err != nil {
		return nil, 0, err
	}
	if f.FeeStructureID, err = parseOptionalUUID("fee_structure_id", filter.FeeStructureID); err != nil {
		return nil, 0, err
	}
	if f.AcademicYearID, err = parseOptionalUUID("academic_year_id", filter.AcademicYearID); err != nil {
		return nil, 0, err
	}
	if f.AcademicUnitID, err = parseOptionalUUID("academic_unit_id", filter.AcademicUnitID); err != nil {
		return nil, 0, err
	}
	if filter.Status != "" {
		status := finance.FeeStatus(filter.Status)
		f.Status = &status
	}

	items, total, err := s.deps.Repos.StudentFees.FindAllForTenant(ctx, tenantID, f)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list student fees: %w", err)
	}
	return ToStudentFeeResponses(items), total, nil
}

// MarkOverdue flags unpaid fees past their due date. A nil tenant runs the
// sweep for every school, which is what the scheduler does.
func (s *StudentFeeService) MarkOverdue(ctx context.Context, tenantID *uuid.UUID, userID uuid.UUID) (*MarkOverdueResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "student_fee", "mark_overdue")
	defer span.End()

	scope := ""
	if tenantID != nil {
		scope = tenantID.String()
		telemetry.SetAttribute(span, telemetry.SpanAttrSchoolID, scope)
	}

	now := s.now()
	var marked int64
	var opErr error
	telemetry.WithProfilingLabels(ctx, telemetry.FeeOperationLabels(telemetry.OperationMarkOverdue, scope), func(c context.Context) {
		opErr = s.deps.Scope.Execute(c, func(repos finance.Repositories) error {
			n, err := repos.StudentFees.MarkOverdue(c, tenantID, now)
			if err != nil {
				return fmt.Errorf("failed to mark overdue fees: %w", err)
			}
			marked = n
			if tenantID == nil || n == 0 {
				return nil
			}
			return repos.AuditLogs.Append(c,
				finance.NewAuditLog(*tenantID, finance.AuditStudentFeesMarkedDue, "student_fee", uuid.Nil, userID).
					With("count", n).
					With("as_of", now.Format(time.RFC3339)))
		})
	})
	if opErr != nil {
		telemetry.RecordError(span, opErr)
		return nil, opErr
	}

	telemetry.SetAttribute(span, "marked_count", marked)
	s.deps.Metrics.RecordMarkedOverdue(ctx, marked)
	s.deps.Logger.Info("Overdue sweep finished",
		zap.String("school_id", scope),
		zap.Int64("marked", marked))
	return &MarkOverdueResult{Marked: marked, AsOf: now}, nil
}

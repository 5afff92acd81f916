package finance

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/schoolerp/feeledger/internal/domain/finance"
	"github.com/schoolerp/feeledger/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// FeeStructureService manages fee structure templates
type FeeStructureService struct {
	deps Dependencies
}

// NewFeeStructureService creates a new FeeStructureService
func NewFeeStructureService(deps Dependencies) *FeeStructureService {
	return &FeeStructureService{deps: deps.withDefaults()}
}

func toComponentInputs(in []FeeComponentInput) []finance.ComponentInput {
	out := make([]finance.ComponentInput, len(in))
	for i, c := range in {
		mandatory := true
		if c.IsMandatory != nil {
			mandatory = *c.IsMandatory
		}
		installments := make([]finance.InstallmentInput, len(c.Installments))
		for j, inst := range c.Installments {
			installments[j] = finance.InstallmentInput{Amount: inst.Amount, DueDate: inst.DueDate}
		}
		out[i] = finance.ComponentInput{
			Name:         c.Name,
			FeeType:      finance.FeeType(c.FeeType),
			Amount:       c.Amount,
			Frequency:    finance.FeeFrequency(c.Frequency),
			IsMandatory:  mandatory,
			Installments: installments,
		}
	}
	return out
}

// Create authors a new active fee structure
func (s *FeeStructureService) Create(ctx context.Context, tenantID, userID uuid.UUID, req CreateFeeStructureRequest) (*FeeStructureResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "fee_structure", "create")
	defer span.End()

	fs, err := finance.NewFeeStructure(tenantID, req.AcademicYearID, req.AcademicUnitID,
		req.Name, req.Description, req.DueDate, toComponentInputs(req.Components))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	fs.SetCreatedBy(userID)
	telemetry.SetAttributes(span,
		telemetry.SpanAttrSchoolID, tenantID.String(),
		telemetry.SpanAttrFeeStructureID, fs.ID.String(),
		telemetry.SpanAttrAmount, fs.TotalAmount().String(),
	)

	err = s.deps.Scope.Execute(ctx, func(repos finance.Repositories) error {
		if err := repos.FeeStructures.Save(ctx, fs); err != nil {
			return fmt.Errorf("failed to save fee structure: %w", err)
		}
		return repos.AuditLogs.Append(ctx,
			finance.NewAuditLog(tenantID, finance.AuditFeeStructureCreated, "fee_structure", fs.ID, userID).
				WithAmount(fs.TotalAmount()).
				With("name", fs.Name))
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	publishEvents(ctx, s.deps.EventPublisher, s.deps.Logger, fs)
	s.deps.Logger.Info("Fee structure created",
		zap.String("school_id", tenantID.String()),
		zap.String("fee_structure_id", fs.ID.String()),
		zap.String("total_amount", fs.TotalAmount().String()))

	resp := ToFeeStructureResponse(fs)
	return &resp, nil
}

// Get returns one fee structure
func (s *FeeStructureService) Get(ctx context.Context, tenantID, id uuid.UUID) (*FeeStructureResponse, error) {
	fs, err := s.deps.Repos.FeeStructures.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToFeeStructureResponse(fs)
	return &resp, nil
}

// List returns a page of fee structures
func (s *FeeStructureService) List(ctx context.Context, tenantID uuid.UUID, filter FeeStructureListFilter) ([]FeeStructureResponse, int64, error) {
	yearID, err := parseOptionalUUID("academic_year_id", filter.AcademicYearID)
	if err != nil {
		return nil, 0, err
	}
	unitID, err := parseOptionalUUID("academic_unit_id", filter.AcademicUnitID)
	if err != nil {
		return nil, 0, err
	}

	items, total, err := s.deps.Repos.FeeStructures.FindAllForTenant(ctx, tenantID, finance.FeeStructureFilter{
		Filter:         filter.toFilter(),
		AcademicYearID: yearID,
		AcademicUnitID: unitID,
		ActiveOnly:     filter.Active,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list fee structures: %w", err)
	}
	return ToFeeStructureResponses(items), total, nil
}

// Update edits a structure no student fee references yet
func (s *FeeStructureService) Update(ctx context.Context, tenantID, userID, id uuid.UUID, req UpdateFeeStructureRequest) (*FeeStructureResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "fee_structure", "update")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrSchoolID, tenantID.String(),
		telemetry.SpanAttrFeeStructureID, id.String(),
	)

	var updated *finance.FeeStructure
	err := s.deps.Scope.Execute(ctx, func(repos finance.Repositories) error {
		fs, err := repos.FeeStructures.FindByIDForTenant(ctx, tenantID, id)
		if err != nil {
			return err
		}
		inUse, err := repos.FeeStructures.IsReferenced(ctx, tenantID, id)
		if err != nil {
			return fmt.Errorf("failed to check fee structure references: %w", err)
		}
		if err := fs.Update(req.Name, req.Description, req.DueDate, toComponentInputs(req.Components), inUse); err != nil {
			return err
		}
		if err := repos.FeeStructures.Save(ctx, fs); err != nil {
			return fmt.Errorf("failed to save fee structure: %w", err)
		}
		updated = fs
		return repos.AuditLogs.Append(ctx,
			finance.NewAuditLog(tenantID, finance.AuditFeeStructureUpdated, "fee_structure", fs.ID, userID).
				WithAmount(fs.TotalAmount()).
				With("version", fs.Version))
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	resp := ToFeeStructureResponse(updated)
	return &resp, nil
}

// Deactivate stops a structure from being assigned. Existing student fees are unaffected.
func (s *FeeStructureService) Deactivate(ctx context.Context, tenantID, userID, id uuid.UUID) (*FeeStructureResponse, error) {
	var fs *finance.FeeStructure
	err := s.deps.Scope.Execute(ctx, func(repos finance.Repositories) error {
		var err error
		fs, err = repos.FeeStructures.FindByIDForTenant(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := fs.Deactivate(); err != nil {
			return err
		}
		if err := repos.FeeStructures.Save(ctx, fs); err != nil {
			return fmt.Errorf("failed to save fee structure: %w", err)
		}
		return repos.AuditLogs.Append(ctx,
			finance.NewAuditLog(tenantID, finance.AuditFeeStructureDeactivated, "fee_structure", fs.ID, userID))
	})
	if err != nil {
		return nil, err
	}

	s.deps.Logger.Info("Fee structure deactivated",
		zap.String("school_id", tenantID.String()),
		zap.String("fee_structure_id", id.String()))
	resp := ToFeeStructureResponse(fs)
	return &resp, nil
}

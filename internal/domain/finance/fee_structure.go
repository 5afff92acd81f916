package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/feeledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// FeeType classifies a fee component
type FeeType string

const (
	FeeTypeTuition   FeeType = "TUITION"
	FeeTypeAdmission FeeType = "ADMISSION"
	FeeTypeTransport FeeType = "TRANSPORT"
	FeeTypeExam      FeeType = "EXAM"
	FeeTypeLibrary   FeeType = "LIBRARY"
	FeeTypeHostel    FeeType = "HOSTEL"
	FeeTypeLab       FeeType = "LAB"
	FeeTypeOther     FeeType = "OTHER"
)

// IsValid checks if the fee type is known
func (t FeeType) IsValid() bool {
	switch t {
	case FeeTypeTuition, FeeTypeAdmission, FeeTypeTransport, FeeTypeExam,
		FeeTypeLibrary, FeeTypeHostel, FeeTypeLab, FeeTypeOther:
		return true
	}
	return false
}

// FeeFrequency describes how often a component is charged
type FeeFrequency string

const (
	FrequencyOneTime    FeeFrequency = "ONE_TIME"
	FrequencyMonthly    FeeFrequency = "MONTHLY"
	FrequencyQuarterly  FeeFrequency = "QUARTERLY"
	FrequencyHalfYearly FeeFrequency = "HALF_YEARLY"
	FrequencyAnnual     FeeFrequency = "ANNUAL"
)

// IsValid checks if the frequency is known
func (f FeeFrequency) IsValid() bool {
	switch f {
	case FrequencyOneTime, FrequencyMonthly, FrequencyQuarterly, FrequencyHalfYearly, FrequencyAnnual:
		return true
	}
	return false
}

// Installment is one scheduled part of a component amount
type Installment struct {
	ID      uuid.UUID       `json:"id"`
	Number  int             `json:"number"`
	Amount  decimal.Decimal `json:"amount"`
	DueDate time.Time       `json:"due_date"`
}

// FeeComponent is a single charge line of a fee structure
type FeeComponent struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	FeeType      FeeType         `json:"fee_type"`
	Amount       decimal.Decimal `json:"amount"`
	Frequency    FeeFrequency    `json:"frequency"`
	IsMandatory  bool            `json:"is_mandatory"`
	SortOrder    int             `json:"sort_order"`
	Installments []Installment   `json:"installments,omitempty"`
}

// ComponentInput carries the fields needed to build a FeeComponent
type ComponentInput struct {
	Name         string
	FeeType      FeeType
	Amount       decimal.Decimal
	Frequency    FeeFrequency
	IsMandatory  bool
	Installments []InstallmentInput
}

// InstallmentInput carries the fields needed to build an Installment
type InstallmentInput struct {
	Amount  decimal.Decimal
	DueDate time.Time
}

// NewFeeComponent validates input and builds a component
func NewFeeComponent(in ComponentInput, sortOrder int) (*FeeComponent, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("Fee component name cannot be empty")
	}
	if !in.FeeType.IsValid() {
		return nil, invalid(fmt.Sprintf("Invalid fee type: %s", in.FeeType))
	}
	if in.Frequency == "" {
		in.Frequency = FrequencyOneTime
	}
	if !in.Frequency.IsValid() {
		return nil, invalid(fmt.Sprintf("Invalid fee frequency: %s", in.Frequency))
	}
	if !in.Amount.IsPositive() {
		return nil, shared.NewDomainError(CodeInvalidAmount, fmt.Sprintf("Amount of component %q must be positive", name))
	}

	c := &FeeComponent{
		ID:          uuid.New(),
		Name:        name,
		FeeType:     in.FeeType,
		Amount:      in.Amount,
		Frequency:   in.Frequency,
		IsMandatory: in.IsMandatory,
		SortOrder:   sortOrder,
	}

	if len(in.Installments) > 0 {
		sum := decimal.Zero
		for i, inst := range in.Installments {
			if !inst.Amount.IsPositive() {
				return nil, shared.NewDomainError(CodeInvalidAmount, fmt.Sprintf("Installment %d of %q must be positive", i+1, name))
			}
			if inst.DueDate.IsZero() {
				return nil, shared.NewDomainError(CodeMissingField, fmt.Sprintf("Installment %d of %q needs a due date", i+1, name))
			}
			sum = sum.Add(inst.Amount)
			c.Installments = append(c.Installments, Installment{
				ID:      uuid.New(),
				Number:  i + 1,
				Amount:  inst.Amount,
				DueDate: inst.DueDate,
			})
		}
		if !sum.Equal(in.Amount) {
			return nil, shared.NewDomainError(CodeInvalidAmount,
				fmt.Sprintf("Installments of %q sum to %s, expected %s", name, sum.StringFixed(2), in.Amount.StringFixed(2)))
		}
	}
	return c, nil
}

// FeeStructure is an admin-authored template of charges for a cohort
type FeeStructure struct {
	shared.TenantAggregateRoot
	AcademicYearID uuid.UUID      `json:"academic_year_id"`
	AcademicUnitID *uuid.UUID     `json:"academic_unit_id,omitempty"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	DueDate        *time.Time     `json:"due_date,omitempty"`
	IsActive       bool           `json:"is_active"`
	Components     []FeeComponent `json:"components"`
}

// NewFeeStructure creates an active fee structure with at least one component
func NewFeeStructure(
	tenantID, academicYearID uuid.UUID,
	academicUnitID *uuid.UUID,
	name, description string,
	dueDate *time.Time,
	components []ComponentInput,
) (*FeeStructure, error) {
	if tenantID == uuid.Nil {
		return nil, invalid("School ID cannot be empty")
	}
	if academicYearID == uuid.Nil {
		return nil, invalid("Academic year ID cannot be empty")
	}
	fs := &FeeStructure{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		AcademicYearID:      academicYearID,
		AcademicUnitID:      academicUnitID,
		IsActive:            true,
	}
	if err := fs.apply(name, description, dueDate, components); err != nil {
		return nil, err
	}
	fs.AddDomainEvent(NewFeeStructureCreatedEvent(fs))
	return fs, nil
}

func (fs *FeeStructure) apply(name, description string, dueDate *time.Time, inputs []ComponentInput) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return invalid("Fee structure name cannot be empty")
	}
	if len(name) > 200 {
		return invalid("Fee structure name cannot exceed 200 characters")
	}
	if len(inputs) == 0 {
		return invalid("Fee structure needs at least one component")
	}
	components := make([]FeeComponent, 0, len(inputs))
	for i, in := range inputs {
		c, err := NewFeeComponent(in, i+1)
		if err != nil {
			return err
		}
		components = append(components, *c)
	}
	fs.Name = name
	fs.Description = strings.TrimSpace(description)
	fs.DueDate = dueDate
	fs.Components = components
	return nil
}

// Update replaces the editable fields. inUse must report whether any student
// fee already references the structure; referenced structures are frozen.
func (fs *FeeStructure) Update(name, description string, dueDate *time.Time, components []ComponentInput, inUse bool) error {
	if inUse {
		return shared.NewDomainError(CodeStructureInUse, "Fee structure is referenced by student fees and cannot be changed")
	}
	if err := fs.apply(name, description, dueDate, components); err != nil {
		return err
	}
	fs.IncrementVersion()
	return nil
}

// Deactivate stops the structure from being assigned to new students
func (fs *FeeStructure) Deactivate() error {
	if !fs.IsActive {
		return invalidState("Fee structure is already inactive")
	}
	fs.IsActive = false
	fs.IncrementVersion()
	return nil
}

// TotalAmount returns the sum of all component amounts
func (fs *FeeStructure) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, c := range fs.Components {
		total = total.Add(c.Amount)
	}
	return total
}

package finance

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/feeledger/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFeeStructure(t *testing.T) {
	t.Run("builds ordered components", func(t *testing.T) {
		fs := newTestStructure(t, "6000", "1500", "500")
		require.Len(t, fs.Components, 3)
		for i, c := range fs.Components {
			assert.Equal(t, i+1, c.SortOrder)
			assert.NotEqual(t, uuid.Nil, c.ID)
		}
		assert.True(t, fs.TotalAmount().Equal(dec("8000")))
		assert.True(t, fs.IsActive)
		require.Len(t, fs.GetDomainEvents(), 1)
	})

	t.Run("defaults frequency to one time", func(t *testing.T) {
		fs, err := NewFeeStructure(uuid.New(), uuid.New(), nil, "Admission", "", nil, []ComponentInput{
			{Name: "Admission", FeeType: FeeTypeAdmission, Amount: dec("2000")},
		})
		require.NoError(t, err)
		assert.Equal(t, FrequencyOneTime, fs.Components[0].Frequency)
	})

	t.Run("installments must add up", func(t *testing.T) {
		d1 := time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)
		d2 := time.Date(2025, 10, 10, 0, 0, 0, 0, time.UTC)
		fs, err := NewFeeStructure(uuid.New(), uuid.New(), nil, "Term", "", nil, []ComponentInput{{
			Name: "Tuition", FeeType: FeeTypeTuition, Amount: dec("1000"), Frequency: FrequencyHalfYearly,
			Installments: []InstallmentInput{{Amount: dec("600"), DueDate: d1}, {Amount: dec("400"), DueDate: d2}},
		}})
		require.NoError(t, err)
		require.Len(t, fs.Components[0].Installments, 2)
		assert.Equal(t, 2, fs.Components[0].Installments[1].Number)

		_, err = NewFeeStructure(uuid.New(), uuid.New(), nil, "Term", "", nil, []ComponentInput{{
			Name: "Tuition", FeeType: FeeTypeTuition, Amount: dec("1000"),
			Installments: []InstallmentInput{{Amount: dec("600"), DueDate: d1}},
		}})
		de, ok := shared.GetDomainError(err)
		require.True(t, ok)
		assert.Equal(t, CodeInvalidAmount, de.Code)
	})

	invalid := []struct {
		name       string
		title      string
		components []ComponentInput
	}{
		{"empty name", " ", []ComponentInput{{Name: "T", FeeType: FeeTypeTuition, Amount: dec("1")}}},
		{"no components", "X", nil},
		{"unknown fee type", "X", []ComponentInput{{Name: "T", FeeType: "GYM", Amount: dec("1")}}},
		{"zero amount", "X", []ComponentInput{{Name: "T", FeeType: FeeTypeTuition, Amount: dec("0")}}},
		{"unknown frequency", "X", []ComponentInput{{Name: "T", FeeType: FeeTypeTuition, Amount: dec("1"), Frequency: "WEEKLY"}}},
	}
	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewFeeStructure(uuid.New(), uuid.New(), nil, tc.title, "", nil, tc.components)
			assert.Error(t, err)
		})
	}
}

func TestFeeStructure_Update(t *testing.T) {
	fs := newTestStructure(t, "100")
	components := []ComponentInput{{Name: "Tuition", FeeType: FeeTypeTuition, Amount: dec("250")}}

	err := fs.Update("Renamed", "", nil, components, true)
	de, ok := shared.GetDomainError(err)
	require.True(t, ok)
	assert.Equal(t, CodeStructureInUse, de.Code)
	assert.True(t, fs.TotalAmount().Equal(dec("100")))

	require.NoError(t, fs.Update("Renamed", "desc", nil, components, false))
	assert.Equal(t, "Renamed", fs.Name)
	assert.True(t, fs.TotalAmount().Equal(dec("250")))
	assert.Equal(t, 2, fs.Version)
}

func TestFeeStructure_Deactivate(t *testing.T) {
	fs := newTestStructure(t, "100")
	require.NoError(t, fs.Deactivate())
	assert.False(t, fs.IsActive)
	assert.ErrorIs(t, fs.Deactivate(), shared.ErrInvalidState)
}

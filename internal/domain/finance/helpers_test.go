package finance

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestStructure(t *testing.T, amounts ...string) *FeeStructure {
	t.Helper()
	components := make([]ComponentInput, 0, len(amounts))
	for i, a := range amounts {
		components = append(components, ComponentInput{
			Name:        []string{"Tuition", "Transport", "Library", "Exam"}[i%4],
			FeeType:     []FeeType{FeeTypeTuition, FeeTypeTransport, FeeTypeLibrary, FeeTypeExam}[i%4],
			Amount:      dec(a),
			Frequency:   FrequencyAnnual,
			IsMandatory: true,
		})
	}
	fs, err := NewFeeStructure(uuid.New(), uuid.New(), nil, "Grade 5 - 2025", "", nil, components)
	require.NoError(t, err)
	return fs
}

func newTestFee(t *testing.T, total string) *StudentFee {
	t.Helper()
	fs := newTestStructure(t, total)
	due := time.Now().AddDate(0, 1, 0)
	sf, err := NewStudentFee(fs, uuid.New(), nil, decimal.Zero, &due)
	require.NoError(t, err)
	return sf
}

func requireLedgerInvariants(t *testing.T, sf *StudentFee) {
	t.Helper()
	require.NoError(t, sf.CheckInvariants())
	require.True(t, sf.FinalAmount.Equal(sf.TotalAmount.Sub(sf.DiscountAmount).Sub(sf.ScholarshipAmount).Add(sf.TaxAmount)))
	require.True(t, sf.BalanceAmount.Equal(sf.FinalAmount.Sub(sf.PaidAmount)))
}

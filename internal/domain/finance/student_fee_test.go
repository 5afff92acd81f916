package finance

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/feeledger/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeeStatus_IsValid(t *testing.T) {
	for _, s := range []FeeStatus{FeeStatusPending, FeeStatusPartial, FeeStatusPaid, FeeStatusOverdue} {
		assert.True(t, s.IsValid(), s)
	}
	assert.False(t, FeeStatus("CANCELLED").IsValid())
	assert.False(t, FeeStatusPaid.CanAcceptPayment())
	assert.True(t, FeeStatusOverdue.CanAcceptPayment())
}

func TestNewStudentFee(t *testing.T) {
	t.Run("scenario A: totals fixed from components", func(t *testing.T) {
		sf := newTestFee(t, "10000")

		assert.True(t, sf.TotalAmount.Equal(dec("10000")))
		assert.True(t, sf.FinalAmount.Equal(dec("10000")))
		assert.True(t, sf.BalanceAmount.Equal(dec("10000")))
		assert.Equal(t, FeeStatusPending, sf.Status)
		assert.Equal(t, 1, sf.Version)
		requireLedgerInvariants(t, sf)
		require.Len(t, sf.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeStudentFeeCreated, sf.GetDomainEvents()[0].EventType())
	})

	t.Run("sums every component and adds tax", func(t *testing.T) {
		fs := newTestStructure(t, "6000", "2500.50", "499.50")
		sf, err := NewStudentFee(fs, uuid.New(), nil, dec("180"), nil)
		require.NoError(t, err)

		assert.True(t, sf.TotalAmount.Equal(dec("9000")))
		assert.True(t, sf.FinalAmount.Equal(dec("9180")))
		requireLedgerInvariants(t, sf)
	})

	t.Run("inherits unit and due date from structure", func(t *testing.T) {
		unit := uuid.New()
		due := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
		fs, err := NewFeeStructure(uuid.New(), uuid.New(), &unit, "Grade 1", "", &due, []ComponentInput{
			{Name: "Tuition", FeeType: FeeTypeTuition, Amount: dec("100")},
		})
		require.NoError(t, err)

		sf, err := NewStudentFee(fs, uuid.New(), nil, decimal.Zero, nil)
		require.NoError(t, err)
		assert.Equal(t, unit, *sf.AcademicUnitID)
		assert.Equal(t, due, *sf.DueDate)
		assert.Equal(t, fs.TenantID, sf.TenantID)
	})

	t.Run("rejects inactive structure", func(t *testing.T) {
		fs := newTestStructure(t, "100")
		require.NoError(t, fs.Deactivate())

		_, err := NewStudentFee(fs, uuid.New(), nil, decimal.Zero, nil)
		de, ok := shared.GetDomainError(err)
		require.True(t, ok)
		assert.Equal(t, CodeStructureInactive, de.Code)
	})

	t.Run("rejects missing student and negative tax", func(t *testing.T) {
		fs := newTestStructure(t, "100")
		_, err := NewStudentFee(fs, uuid.Nil, nil, decimal.Zero, nil)
		assert.Error(t, err)
		_, err = NewStudentFee(fs, uuid.New(), nil, dec("-1"), nil)
		assert.Error(t, err)
	})
}

func TestStudentFee_RecordPayment(t *testing.T) {
	t.Run("scenarios A to D", func(t *testing.T) {
		sf := newTestFee(t, "10000")

		// A: 10% discount
		require.NoError(t, sf.ApplyAdjustment(dec("1000"), decimal.Zero))
		assert.True(t, sf.DiscountAmount.Equal(dec("1000")))
		assert.True(t, sf.FinalAmount.Equal(dec("9000")))
		assert.True(t, sf.BalanceAmount.Equal(dec("9000")))
		assert.Equal(t, FeeStatusPending, sf.Status)

		// B
		require.NoError(t, sf.RecordPayment(dec("5000")))
		assert.True(t, sf.PaidAmount.Equal(dec("5000")))
		assert.True(t, sf.BalanceAmount.Equal(dec("4000")))
		assert.Equal(t, FeeStatusPartial, sf.Status)
		requireLedgerInvariants(t, sf)

		// C
		require.NoError(t, sf.RecordPayment(dec("4000")))
		assert.True(t, sf.BalanceAmount.IsZero())
		assert.Equal(t, FeeStatusPaid, sf.Status)
		assert.NotNil(t, sf.PaidAt)
		requireLedgerInvariants(t, sf)

		// D
		version := sf.Version
		err := sf.RecordPayment(dec("1"))
		de, ok := shared.GetDomainError(err)
		require.True(t, ok)
		assert.Equal(t, CodeExceedsBalance, de.Code)
		assert.True(t, sf.PaidAmount.Equal(dec("9000")))
		assert.Equal(t, FeeStatusPaid, sf.Status)
		assert.Equal(t, version, sf.Version)
	})

	t.Run("zero amount on a paid fee is still an invalid amount", func(t *testing.T) {
		sf := newTestFee(t, "500")
		require.NoError(t, sf.RecordPayment(dec("500")))

		de, ok := shared.GetDomainError(sf.RecordPayment(decimal.Zero))
		require.True(t, ok)
		assert.Equal(t, CodeInvalidAmount, de.Code)
	})

	t.Run("amount equal to balance pays in full", func(t *testing.T) {
		sf := newTestFee(t, "2500")
		require.NoError(t, sf.RecordPayment(dec("2500")))
		assert.Equal(t, FeeStatusPaid, sf.Status)
	})

	t.Run("amount greater than balance is rejected and ledger unchanged", func(t *testing.T) {
		sf := newTestFee(t, "2500")
		version := sf.Version

		err := sf.RecordPayment(dec("2500.01"))
		de, ok := shared.GetDomainError(err)
		require.True(t, ok)
		assert.Equal(t, CodeExceedsBalance, de.Code)
		assert.True(t, sf.PaidAmount.IsZero())
		assert.Equal(t, version, sf.Version)
	})

	t.Run("zero and negative amounts are rejected", func(t *testing.T) {
		sf := newTestFee(t, "2500")
		for _, a := range []string{"0", "-10"} {
			err := sf.RecordPayment(dec(a))
			de, ok := shared.GetDomainError(err)
			require.True(t, ok)
			assert.Equal(t, CodeInvalidAmount, de.Code)
		}
	})

	t.Run("payment on overdue fee becomes partial", func(t *testing.T) {
		sf := newTestFee(t, "1000")
		past := time.Now().AddDate(0, 0, -1)
		sf.DueDate = &past
		require.True(t, sf.MarkOverdue(time.Now()))

		require.NoError(t, sf.RecordPayment(dec("100")))
		assert.Equal(t, FeeStatusPartial, sf.Status)
	})

	t.Run("each mutation bumps version once", func(t *testing.T) {
		sf := newTestFee(t, "1000")
		require.NoError(t, sf.RecordPayment(dec("100")))
		require.NoError(t, sf.RecordPayment(dec("100")))
		assert.Equal(t, 3, sf.Version)
	})
}

func TestStudentFee_ApplyAdjustment(t *testing.T) {
	t.Run("rejects negative final amount and keeps ledger", func(t *testing.T) {
		sf := newTestFee(t, "1000")
		require.NoError(t, sf.ApplyAdjustment(dec("600"), decimal.Zero))

		err := sf.ApplyAdjustment(decimal.Zero, dec("500"))
		de, ok := shared.GetDomainError(err)
		require.True(t, ok)
		assert.Equal(t, CodeNegativeFinalAmount, de.Code)
		assert.True(t, sf.ScholarshipAmount.IsZero())
		assert.True(t, sf.FinalAmount.Equal(dec("400")))
		requireLedgerInvariants(t, sf)
	})

	t.Run("full waiver marks fee paid", func(t *testing.T) {
		sf := newTestFee(t, "1000")
		require.NoError(t, sf.ApplyAdjustment(decimal.Zero, dec("1000")))
		assert.True(t, sf.FinalAmount.IsZero())
		assert.Equal(t, FeeStatusPaid, sf.Status)
	})

	t.Run("rejects negative deltas", func(t *testing.T) {
		sf := newTestFee(t, "1000")
		assert.Error(t, sf.ApplyAdjustment(dec("-1"), decimal.Zero))
	})
}

func TestStudentFee_ReverseForRefund(t *testing.T) {
	sf := newTestFee(t, "1000")
	require.NoError(t, sf.RecordPayment(dec("1000")))
	require.Equal(t, FeeStatusPaid, sf.Status)

	require.NoError(t, sf.ReverseForRefund(dec("300")))
	assert.True(t, sf.PaidAmount.Equal(dec("700")))
	assert.True(t, sf.BalanceAmount.Equal(dec("300")))
	assert.Equal(t, FeeStatusPartial, sf.Status)
	assert.Nil(t, sf.PaidAt)
	requireLedgerInvariants(t, sf)

	require.NoError(t, sf.ReverseForRefund(dec("700")))
	assert.Equal(t, FeeStatusPending, sf.Status)

	assert.Error(t, sf.ReverseForRefund(dec("1")))
}

func TestStudentFee_MarkOverdue(t *testing.T) {
	now := time.Now()
	past := now.AddDate(0, 0, -3)
	future := now.AddDate(0, 0, 3)

	tests := []struct {
		name    string
		due     *time.Time
		pay     string
		want    bool
		wantSts FeeStatus
	}{
		{"no due date", nil, "", false, FeeStatusPending},
		{"not yet due", &future, "", false, FeeStatusPending},
		{"past due pending", &past, "", true, FeeStatusOverdue},
		{"past due partial", &past, "100", true, FeeStatusOverdue},
		{"past due paid", &past, "1000", false, FeeStatusPaid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sf := newTestFee(t, "1000")
			sf.DueDate = tt.due
			if tt.pay != "" {
				require.NoError(t, sf.RecordPayment(dec(tt.pay)))
			}
			assert.Equal(t, tt.want, sf.MarkOverdue(now))
			assert.Equal(t, tt.wantSts, sf.Status)
		})
	}
}

func TestStudentFee_CheckInvariants(t *testing.T) {
	sf := newTestFee(t, "1000")
	sf.BalanceAmount = dec("999")
	de, ok := shared.GetDomainError(sf.CheckInvariants())
	require.True(t, ok)
	assert.Equal(t, CodeInvariantViolation, de.Code)
}

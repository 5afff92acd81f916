package persistence

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/feeledger/internal/domain/finance"
	"github.com/schoolerp/feeledger/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeeStructureRepository_SQLite(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := t.Context()
	repo := NewGormFeeStructureRepository(db)
	tenantID := uuid.New()

	fs, sf := seedFee(t, db, tenantID, "12000")

	t.Run("round-trips components", func(t *testing.T) {
		got, err := repo.FindByIDForTenant(ctx, tenantID, fs.ID)
		require.NoError(t, err)
		assert.Equal(t, "Grade 5 - 2025", got.Name)
		require.Len(t, got.Components, 1)
		assert.True(t, got.TotalAmount().Equal(dec("12000")))
	})

	t.Run("other schools cannot see it", func(t *testing.T) {
		_, err := repo.FindByIDForTenant(ctx, uuid.New(), fs.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("reports references from student fees", func(t *testing.T) {
		used, err := repo.IsReferenced(ctx, tenantID, sf.FeeStructureID)
		require.NoError(t, err)
		assert.True(t, used)
	})

	t.Run("update replaces components", func(t *testing.T) {
		loaded, err := repo.FindByIDForTenant(ctx, tenantID, fs.ID)
		require.NoError(t, err)
		require.NoError(t, loaded.Update("Grade 5 - revised", "", nil, []finance.ComponentInput{
			{Name: "Tuition", FeeType: finance.FeeTypeTuition, Amount: dec("9000")},
			{Name: "Bus", FeeType: finance.FeeTypeTransport, Amount: dec("3000")},
		}, false))
		require.NoError(t, repo.Save(ctx, loaded))

		got, err := repo.FindByIDForTenant(ctx, tenantID, fs.ID)
		require.NoError(t, err)
		assert.Equal(t, "Grade 5 - revised", got.Name)
		assert.Len(t, got.Components, 2)
		assert.Equal(t, loaded.Version, got.Version)
	})

	t.Run("stale update conflicts", func(t *testing.T) {
		stale, err := repo.FindByIDForTenant(ctx, tenantID, fs.ID)
		require.NoError(t, err)
		fresh, err := repo.FindByIDForTenant(ctx, tenantID, fs.ID)
		require.NoError(t, err)

		require.NoError(t, fresh.Deactivate())
		require.NoError(t, repo.Save(ctx, fresh))

		require.NoError(t, stale.Deactivate())
		assert.ErrorIs(t, repo.Save(ctx, stale), shared.ErrConcurrencyConflict)
	})

	t.Run("lists with filters", func(t *testing.T) {
		items, total, err := repo.FindAllForTenant(ctx, tenantID, finance.FeeStructureFilter{Filter: shared.DefaultFilter()})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Len(t, items, 1)

		_, total, err = repo.FindAllForTenant(ctx, tenantID, finance.FeeStructureFilter{Filter: shared.DefaultFilter(), ActiveOnly: true})
		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
	})
}

func TestStudentFeeRepository_SQLite(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := t.Context()
	repo := NewGormStudentFeeRepository(db)
	tenantID := uuid.New()

	_, sf := seedFee(t, db, tenantID, "10000")

	t.Run("saves a payment with the version check", func(t *testing.T) {
		fee, err := repo.FindByIDForUpdate(ctx, tenantID, sf.ID)
		require.NoError(t, err)
		require.NoError(t, fee.RecordPayment(dec("4000")))
		require.NoError(t, repo.SaveWithLock(ctx, fee))

		got, err := repo.FindByIDForTenant(ctx, tenantID, sf.ID)
		require.NoError(t, err)
		assert.Equal(t, finance.FeeStatusPartial, got.Status)
		assert.True(t, got.PaidAmount.Equal(dec("4000")))
		assert.True(t, got.BalanceAmount.Equal(dec("6000")))
		assert.Equal(t, fee.Version, got.Version)
	})

	t.Run("rejects a stale writer", func(t *testing.T) {
		a, err := repo.FindByIDForTenant(ctx, tenantID, sf.ID)
		require.NoError(t, err)
		b, err := repo.FindByIDForTenant(ctx, tenantID, sf.ID)
		require.NoError(t, err)

		require.NoError(t, a.RecordPayment(dec("100")))
		require.NoError(t, repo.SaveWithLock(ctx, a))

		require.NoError(t, b.RecordPayment(dec("100")))
		assert.ErrorIs(t, repo.SaveWithLock(ctx, b), shared.ErrConcurrencyConflict)
	})

	t.Run("detects existing assignment", func(t *testing.T) {
		exists, err := repo.ExistsForStudent(ctx, tenantID, sf.StudentID, sf.FeeStructureID)
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsForStudent(ctx, tenantID, uuid.New(), sf.FeeStructureID)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("marks past-due fees overdue", func(t *testing.T) {
		n, err := repo.MarkOverdue(ctx, &tenantID, time.Now().UTC().AddDate(0, 2, 0))
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		got, err := repo.FindByIDForTenant(ctx, tenantID, sf.ID)
		require.NoError(t, err)
		assert.Equal(t, finance.FeeStatusOverdue, got.Status)

		n, err = repo.MarkOverdue(ctx, nil, time.Now().UTC().AddDate(0, 2, 0))
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)
	})

	t.Run("filters by status", func(t *testing.T) {
		status := finance.FeeStatusOverdue
		items, total, err := repo.FindAllForTenant(ctx, tenantID, finance.StudentFeeFilter{Filter: shared.DefaultFilter(), Status: &status})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Len(t, items, 1)
	})
}

func TestSettingsRepository_SQLite(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := t.Context()
	repo := NewGormSettingsRepository(db)
	tenantID := uuid.New()

	t.Run("creates defaults lazily", func(t *testing.T) {
		s, err := repo.Get(ctx, tenantID)
		require.NoError(t, err)
		assert.Equal(t, finance.DefaultReceiptPrefix, s.ReceiptPrefix)
		assert.Equal(t, int64(0), s.ReceiptSeq)
	})

	t.Run("numbers are sequential per kind", func(t *testing.T) {
		first, err := repo.NextNumber(ctx, tenantID, finance.SequenceReceipt)
		require.NoError(t, err)
		second, err := repo.NextNumber(ctx, tenantID, finance.SequenceReceipt)
		require.NoError(t, err)
		refund, err := repo.NextNumber(ctx, tenantID, finance.SequenceRefund)
		require.NoError(t, err)

		assert.Equal(t, "RCP-000001", first)
		assert.Equal(t, "RCP-000002", second)
		assert.Equal(t, "RFD-000001", refund)
	})

	t.Run("counters are independent per school", func(t *testing.T) {
		n, err := repo.NextNumber(ctx, uuid.New(), finance.SequenceReceipt)
		require.NoError(t, err)
		assert.Equal(t, "RCP-000001", n)
	})

	t.Run("save keeps counters", func(t *testing.T) {
		s, err := repo.Get(ctx, tenantID)
		require.NoError(t, err)
		prefix := "SCH-"
		padding := 4
		require.NoError(t, s.Apply(finance.SettingsUpdate{ReceiptPrefix: &prefix, SequencePadding: &padding}))
		s.ReceiptSeq = 0
		require.NoError(t, repo.Save(ctx, s))

		n, err := repo.NextNumber(ctx, tenantID, finance.SequenceReceipt)
		require.NoError(t, err)
		assert.Equal(t, "SCH-0003", n)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := repo.NextNumber(ctx, tenantID, finance.SequenceKind("VOUCHER"))
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestPaymentAndRefundRepositories_SQLite(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := t.Context()
	payments := NewGormPaymentRepository(db)
	refunds := NewGormRefundRepository(db)
	tenantID := uuid.New()

	_, sf := seedFee(t, db, tenantID, "10000")
	collectedBy := uuid.New()

	paidOn := time.Date(2025, 6, 10, 9, 30, 0, 0, time.UTC)
	require.NoError(t, sf.RecordPayment(dec("5000")))
	p, err := finance.NewPayment(sf, "RCP-000001", finance.PaymentInput{
		Amount:          dec("5000"),
		Method:          finance.PaymentMethodUPI,
		ReferenceNumber: "UPI-778",
		PaymentDate:     &paidOn,
		Metadata:        map[string]interface{}{"terminal": "front-desk"},
	}, collectedBy)
	require.NoError(t, err)
	require.NoError(t, payments.Create(ctx, p))

	t.Run("finds by receipt number", func(t *testing.T) {
		got, err := payments.FindByReceiptNumber(ctx, tenantID, "RCP-000001")
		require.NoError(t, err)
		assert.Equal(t, p.ID, got.ID)
		assert.Equal(t, "front-desk", got.Metadata["terminal"])
	})

	t.Run("duplicate receipt number is rejected", func(t *testing.T) {
		dup, err := finance.NewPayment(sf, "RCP-000001", finance.PaymentInput{Amount: dec("1"), Method: finance.PaymentMethodCash}, collectedBy)
		require.NoError(t, err)
		dup.ID = p.ID
		assert.ErrorIs(t, payments.Create(ctx, dup), shared.ErrAlreadyExists)
	})

	t.Run("sums successful payments", func(t *testing.T) {
		sum, err := payments.SumByStudentFee(ctx, tenantID, sf.ID)
		require.NoError(t, err)
		assert.True(t, sum.Equal(dec("5000")), sum.String())
	})

	t.Run("filters by method and date", func(t *testing.T) {
		method := finance.PaymentMethodUPI
		from := paidOn.AddDate(0, 0, -1)
		items, total, err := payments.FindAllForTenant(ctx, tenantID, finance.PaymentFilter{
			Filter: shared.DefaultFilter(), Method: &method, FromDate: &from,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Len(t, items, 1)

		cash := finance.PaymentMethodCash
		_, total, err = payments.FindAllForTenant(ctx, tenantID, finance.PaymentFilter{Filter: shared.DefaultFilter(), Method: &cash})
		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
	})

	t.Run("committed refunds count toward the cap", func(t *testing.T) {
		r, err := finance.NewRefund(p, "RFD-000001", dec("2000"), decimal.Zero, "sibling discount", collectedBy)
		require.NoError(t, err)
		require.NoError(t, refunds.Create(ctx, r))

		committed, err := refunds.SumCommittedByPayment(ctx, tenantID, p.ID)
		require.NoError(t, err)
		assert.True(t, committed.IsZero())

		locked, err := refunds.FindByIDForUpdate(ctx, tenantID, r.ID)
		require.NoError(t, err)
		require.NoError(t, locked.Approve(uuid.New(), p, committed))
		require.NoError(t, refunds.SaveWithLock(ctx, locked))

		committed, err = refunds.SumCommittedByPayment(ctx, tenantID, p.ID)
		require.NoError(t, err)
		assert.True(t, committed.Equal(dec("2000")), committed.String())
		assert.True(t, p.RefundableAmount(committed).Equal(dec("3000")))
	})
}

func TestAdjustmentRepository_SQLite(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := t.Context()
	repo := NewGormAdjustmentRepository(db)
	tenantID := uuid.New()
	_, sf := seedFee(t, db, tenantID, "10000")

	discount, err := finance.NewAdjustment(finance.AdjustmentKindDiscount, sf, "Sibling", finance.ValueTypePercentage, dec("10"), "second child", uuid.New())
	require.NoError(t, err)
	scholarship, err := finance.NewAdjustment(finance.AdjustmentKindScholarship, sf, "Merit", finance.ValueTypeFlat, dec("500"), "rank 1", uuid.New())
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, discount))
	require.NoError(t, repo.Create(ctx, scholarship))

	t.Run("kinds live in separate tables", func(t *testing.T) {
		_, err := repo.FindByIDForTenant(ctx, tenantID, finance.AdjustmentKindScholarship, discount.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		got, err := repo.FindByIDForTenant(ctx, tenantID, finance.AdjustmentKindDiscount, discount.ID)
		require.NoError(t, err)
		assert.Equal(t, finance.AdjustmentKindDiscount, got.Kind)
		assert.True(t, got.Amount.Equal(dec("1000")))
	})

	t.Run("lists both kinds for a ledger", func(t *testing.T) {
		all, err := repo.FindByStudentFee(ctx, tenantID, sf.ID)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, finance.AdjustmentKindDiscount, all[0].Kind)
		assert.Equal(t, finance.AdjustmentKindScholarship, all[1].Kind)
	})

	t.Run("approval is version checked", func(t *testing.T) {
		a, err := repo.FindByIDForUpdate(ctx, tenantID, finance.AdjustmentKindScholarship, scholarship.ID)
		require.NoError(t, err)
		require.NoError(t, a.Approve(uuid.New(), sf))
		require.NoError(t, repo.SaveWithLock(ctx, a))

		got, err := repo.FindByIDForTenant(ctx, tenantID, finance.AdjustmentKindScholarship, scholarship.ID)
		require.NoError(t, err)
		assert.Equal(t, finance.AdjustmentStatusApproved, got.Status)
		assert.NotNil(t, got.ApprovedAt)

		assert.ErrorIs(t, repo.SaveWithLock(ctx, a), shared.ErrConcurrencyConflict)
	})
}

func TestFeeTransactionScope_SQLite(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := t.Context()
	tenantID := uuid.New()
	_, sf := seedFee(t, db, tenantID, "10000")
	scope := NewGormFeeTransactionScope(db, 5*time.Second, time.Second)

	t.Run("rolls back every write on error", func(t *testing.T) {
		boom := errors.New("printer on fire")
		err := scope.Execute(ctx, func(repos finance.Repositories) error {
			fee, err := repos.StudentFees.FindByIDForUpdate(ctx, tenantID, sf.ID)
			if err != nil {
				return err
			}
			if err := fee.RecordPayment(dec("1000")); err != nil {
				return err
			}
			if _, err := repos.Settings.NextNumber(ctx, tenantID, finance.SequenceReceipt); err != nil {
				return err
			}
			if err := repos.StudentFees.SaveWithLock(ctx, fee); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		fee, err := NewGormStudentFeeRepository(db).FindByIDForTenant(ctx, tenantID, sf.ID)
		require.NoError(t, err)
		assert.True(t, fee.PaidAmount.IsZero())

		next, err := NewGormSettingsRepository(db).NextNumber(ctx, tenantID, finance.SequenceReceipt)
		require.NoError(t, err)
		assert.Equal(t, "RCP-000001", next)
	})

	t.Run("commits on success", func(t *testing.T) {
		err := scope.Execute(ctx, func(repos finance.Repositories) error {
			fee, err := repos.StudentFees.FindByIDForUpdate(ctx, tenantID, sf.ID)
			if err != nil {
				return err
			}
			if err := fee.RecordPayment(dec("1000")); err != nil {
				return err
			}
			if err := repos.StudentFees.SaveWithLock(ctx, fee); err != nil {
				return err
			}
			return repos.AuditLogs.Append(ctx, finance.NewAuditLog(tenantID, finance.AuditPaymentCollected, "StudentFee", fee.ID, uuid.New()).WithAmount(dec("1000")))
		})
		require.NoError(t, err)

		fee, err := NewGormStudentFeeRepository(db).FindByIDForTenant(ctx, tenantID, sf.ID)
		require.NoError(t, err)
		assert.True(t, fee.PaidAmount.Equal(dec("1000")))

		logs, total, err := NewGormAuditLogRepository(db).FindAllForTenant(ctx, tenantID, finance.AuditLogFilter{Filter: shared.DefaultFilter()})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, finance.AuditPaymentCollected, logs[0].Action)
		require.NotNil(t, logs[0].Amount)
		assert.True(t, logs[0].Amount.Equal(dec("1000")))
	})
}

func TestFeeReportRepository_SQLite(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := t.Context()
	tenantID := uuid.New()
	_, sf := seedFee(t, db, tenantID, "10000")
	payments := NewGormPaymentRepository(db)
	fees := NewGormStudentFeeRepository(db)

	day1 := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 6, 11, 15, 0, 0, 0, time.UTC)
	for i, in := range []finance.PaymentInput{
		{Amount: dec("3000"), Method: finance.PaymentMethodCash, PaymentDate: &day1},
		{Amount: dec("1500"), Method: finance.PaymentMethodUPI, ReferenceNumber: "U1", PaymentDate: &day1},
		{Amount: dec("500"), Method: finance.PaymentMethodCash, PaymentDate: &day2},
	} {
		fee, err := fees.FindByIDForUpdate(ctx, tenantID, sf.ID)
		require.NoError(t, err)
		require.NoError(t, fee.RecordPayment(in.Amount))
		require.NoError(t, fees.SaveWithLock(ctx, fee))
		p, err := finance.NewPayment(fee, finance.FormatSequence("RCP-", 6, int64(i+1)), in, uuid.New())
		require.NoError(t, err)
		require.NoError(t, payments.Create(ctx, p))
	}

	repo := NewGormFeeReportRepository(db)

	t.Run("collection summary groups by date, method and unit", func(t *testing.T) {
		day := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
		summary, err := repo.CollectionSummary(ctx, tenantID, finance.CollectionQuery{FromDate: day, ToDate: day.AddDate(0, 0, 1)})
		require.NoError(t, err)

		assert.True(t, summary.TotalAmount.Equal(dec("5000")), summary.TotalAmount.String())
		assert.Equal(t, int64(3), summary.PaymentCount)

		require.Len(t, summary.ByDate, 2)
		assert.Equal(t, "2025-06-10", summary.ByDate[0].Key)
		assert.True(t, summary.ByDate[0].Amount.Equal(dec("4500")))
		assert.Equal(t, "2025-06-11", summary.ByDate[1].Key)

		require.Len(t, summary.ByMethod, 2)
		assert.Equal(t, string(finance.PaymentMethodCash), summary.ByMethod[0].Key)
		assert.Equal(t, int64(2), summary.ByMethod[0].Count)

		require.Len(t, summary.ByClass, 1)
		assert.Equal(t, sf.AcademicUnitID.String(), summary.ByClass[0].Key)
	})

	t.Run("date range excludes other days", func(t *testing.T) {
		day := time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC)
		summary, err := repo.CollectionSummary(ctx, tenantID, finance.CollectionQuery{FromDate: day, ToDate: day})
		require.NoError(t, err)
		assert.True(t, summary.TotalAmount.Equal(dec("500")))
		assert.Equal(t, int64(1), summary.PaymentCount)
	})

	t.Run("dues summary lists outstanding balances", func(t *testing.T) {
		dues, err := repo.DuesSummary(ctx, tenantID, finance.DuesQuery{AsOf: time.Now().UTC()})
		require.NoError(t, err)
		assert.True(t, dues.TotalOutstanding.Equal(dec("5000")), dues.TotalOutstanding.String())
		assert.Equal(t, int64(1), dues.FeeCount)
		require.Len(t, dues.Items, 1)
		assert.Equal(t, sf.ID, dues.Items[0].StudentFeeID)

		overdue, err := repo.DuesSummary(ctx, tenantID, finance.DuesQuery{OverdueOnly: true, AsOf: time.Now().UTC()})
		require.NoError(t, err)
		assert.Equal(t, int64(0), overdue.FeeCount)
	})

	t.Run("outstanding by tenant feeds the dues gauge", func(t *testing.T) {
		other := uuid.New()
		seedFee(t, db, other, "750")

		outstanding, err := repo.OutstandingByTenant(ctx)
		require.NoError(t, err)
		assert.True(t, outstanding[tenantID].Equal(dec("5000")))
		assert.True(t, outstanding[other].Equal(dec("750")))
	})
}

package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/schoolerp/feeledger/internal/domain/finance"
	"github.com/schoolerp/feeledger/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// duesItemLimit caps the per-fee rows of a dues summary. Totals always cover
// every outstanding fee.
const duesItemLimit = 1000

const unassignedUnit = "unassigned"

// GormFeeReportRepository implements finance.ReportRepository with plain
// aggregate queries. Reads take no locks.
type GormFeeReportRepository struct {
	db *gorm.DB
}

// NewGormFeeReportRepository creates a new GormFeeReportRepository
func NewGormFeeReportRepository(db *gorm.DB) *GormFeeReportRepository {
	return &GormFeeReportRepository{db: db}
}

type bucketRow struct {
	Key    string          `gorm:"column:bucket_key"`
	Amount decimal.Decimal `gorm:"column:bucket_amount"`
	Count  int64           `gorm:"column:bucket_count"`
}

const bucketColumns = " AS bucket_key, COALESCE(SUM(%s), 0) AS bucket_amount, COUNT(*) AS bucket_count"

func toBuckets(rows []bucketRow) []finance.CollectionBucket {
	buckets := make([]finance.CollectionBucket, len(rows))
	for i, r := range rows {
		buckets[i] = finance.CollectionBucket{Key: r.Key, Amount: r.Amount, Count: r.Count}
	}
	return buckets
}

// dayExpr renders payment_date as YYYY-MM-DD in the current dialect
func (r *GormFeeReportRepository) dayExpr(column string) string {
	if r.db.Dialector.Name() == "sqlite" {
		return fmt.Sprintf("strftime('%%Y-%%m-%%d', %s)", column)
	}
	return fmt.Sprintf("to_char(%s, 'YYYY-MM-DD')", column)
}

func unitExpr(column string) string {
	return fmt.Sprintf("COALESCE(CAST(%s AS TEXT), '%s')", column, unassignedUnit)
}

// CollectionSummary aggregates SUCCESS payments with FromDate <= payment_date
// and payment_date < ToDate + 1 day.
func (r *GormFeeReportRepository) CollectionSummary(ctx context.Context, tenantID uuid.UUID, q finance.CollectionQuery) (*finance.CollectionSummary, error) {
	base := func() *gorm.DB {
		query := r.db.WithContext(ctx).
			Table(models.PaymentModel{}.TableName()+" AS p").
			Joins("JOIN student_fees sf ON sf.id = p.student_fee_id").
			Where("p.tenant_id = ? AND p.status = ?", tenantID, finance.PaymentStatusSuccess).
			Where("p.payment_date >= ? AND p.payment_date < ?", q.FromDate, q.ToDate.AddDate(0, 0, 1))
		if q.AcademicYearID != nil {
			query = query.Where("sf.academic_year_id = ?", *q.AcademicYearID)
		}
		return query
	}

	summary := &finance.CollectionSummary{FromDate: q.FromDate, ToDate: q.ToDate}

	var total bucketRow
	if err := base().
		Select("''" + fmt.Sprintf(bucketColumns, "p.amount")).
		Scan(&total).Error; err != nil {
		return nil, fmt.Errorf("collection totals: %w", err)
	}
	summary.TotalAmount = total.Amount
	summary.PaymentCount = total.Count

	groups := []struct {
		expr string
		dest *[]finance.CollectionBucket
	}{
		{r.dayExpr("p.payment_date"), &summary.ByDate},
		{"p.method", &summary.ByMethod},
		{unitExpr("sf.academic_unit_id"), &summary.ByClass},
	}
	for _, g := range groups {
		var rows []bucketRow
		if err := base().
			Select(g.expr + fmt.Sprintf(bucketColumns, "p.amount")).
			Group(g.expr).
			Order("bucket_key ASC").
			Scan(&rows).Error; err != nil {
			return nil, fmt.Errorf("collection groups: %w", err)
		}
		*g.dest = toBuckets(rows)
	}
	return summary, nil
}

// DuesSummary aggregates fees with a positive balance
func (r *GormFeeReportRepository) DuesSummary(ctx context.Context, tenantID uuid.UUID, q finance.DuesQuery) (*finance.DuesSummary, error) {
	base := func() *gorm.DB {
		query := r.db.WithContext(ctx).
			Model(&models.StudentFeeModel{}).
			Scopes(forTenant(tenantID)).
			Where("balance_amount > 0")
		if q.AcademicYearID != nil {
			query = query.Where("academic_year_id = ?", *q.AcademicYearID)
		}
		if q.AcademicUnitID != nil {
			query = query.Where("academic_unit_id = ?", *q.AcademicUnitID)
		}
		if q.OverdueOnly {
			query = query.Where("due_date IS NOT NULL AND due_date < ?", q.AsOf)
		}
		return query
	}

	summary := &finance.DuesSummary{}

	var total bucketRow
	if err := base().
		Select("''" + fmt.Sprintf(bucketColumns, "balance_amount")).
		Scan(&total).Error; err != nil {
		return nil, fmt.Errorf("dues totals: %w", err)
	}
	summary.TotalOutstanding = total.Amount
	summary.FeeCount = total.Count

	var byUnit []bucketRow
	unit := unitExpr("academic_unit_id")
	if err := base().
		Select(unit + fmt.Sprintf(bucketColumns, "balance_amount")).
		Group(unit).
		Order("bucket_key ASC").
		Scan(&byUnit).Error; err != nil {
		return nil, fmt.Errorf("dues groups: %w", err)
	}
	summary.ByClass = toBuckets(byUnit)

	var rows []models.StudentFeeModel
	if err := base().
		Order("due_date ASC, created_at ASC").
		Limit(duesItemLimit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("dues items: %w", err)
	}
	summary.Items = make([]finance.DuesItem, len(rows))
	for i, m := range rows {
		summary.Items[i] = finance.DuesItem{
			StudentFeeID:   m.ID,
			StudentID:      m.StudentID,
			AcademicUnitID: m.AcademicUnitID,
			FinalAmount:    m.FinalAmount,
			PaidAmount:     m.PaidAmount,
			BalanceAmount:  m.BalanceAmount,
			Status:         m.Status,
			DueDate:        m.DueDate,
		}
	}
	return summary, nil
}

var _ finance.ReportRepository = (*GormFeeReportRepository)(nil)

// OutstandingByTenant sums unpaid balances per school across all tenants.
// It feeds the outstanding dues gauge.
func (r *GormFeeReportRepository) OutstandingByTenant(ctx context.Context) (map[uuid.UUID]decimal.Decimal, error) {
	var rows []struct {
		TenantID uuid.UUID
		Total    decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&models.StudentFeeModel{}).
		Select("tenant_id, COALESCE(SUM(balance_amount), 0) AS total").
		Where("balance_amount > 0").
		Group("tenant_id").
		Scan(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}

	out := make(map[uuid.UUID]decimal.Decimal, len(rows))
	for _, row := range rows {
		out[row.TenantID] = row.Total
	}
	return out, nil
}

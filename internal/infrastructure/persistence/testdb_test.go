package persistence

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/schoolerp/feeledger/internal/domain/finance"
	"github.com/schoolerp/feeledger/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newSQLiteDB opens an in-memory database with the fee ledger schema
func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := NewDatabase(&config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: ":memory:",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.AutoMigrateFeeLedger())
	return db.DB
}

// newMockGormDB creates a postgres-dialect GORM handle over sqlmock
func newMockGormDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})
	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return gormDB, mock, mockDB
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// seedFee stores a structure of the given total and one student fee on it
func seedFee(t *testing.T, db *gorm.DB, tenantID uuid.UUID, total string) (*finance.FeeStructure, *finance.StudentFee) {
	t.Helper()
	ctx := t.Context()
	due := time.Now().UTC().AddDate(0, 1, 0)
	fs, err := finance.NewFeeStructure(tenantID, uuid.New(), nil, "Grade 5 - 2025", "", &due, []finance.ComponentInput{
		{Name: "Tuition", FeeType: finance.FeeTypeTuition, Amount: dec(total), Frequency: finance.FrequencyAnnual, IsMandatory: true},
	})
	require.NoError(t, err)
	require.NoError(t, NewGormFeeStructureRepository(db).Save(ctx, fs))

	unit := uuid.New()
	sf, err := finance.NewStudentFee(fs, uuid.New(), &unit, decimal.Zero, &due)
	require.NoError(t, err)
	require.NoError(t, NewGormStudentFeeRepository(db).Create(ctx, sf))
	return fs, sf
}

package persistence

import (
	"context"
	"testing"

	"github.com/schoolerp/feeledger/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDatabase(t *testing.T) {
	t.Run("opens sqlite in memory", func(t *testing.T) {
		db, err := NewDatabase(&config.DatabaseConfig{
			Driver:     config.DriverSQLite,
			SQLitePath: ":memory:",
		})
		require.NoError(t, err)
		defer db.Close()

		assert.Equal(t, config.DriverSQLite, db.Driver)
		assert.Equal(t, "sqlite", db.DB.Dialector.Name())
		assert.NoError(t, db.Ping(context.Background()))

		sqlDB, err := db.DB.DB()
		require.NoError(t, err)
		assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
	})

	t.Run("rejects unknown driver", func(t *testing.T) {
		_, err := NewDatabase(&config.DatabaseConfig{Driver: "mysql"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported database driver")
	})

	t.Run("ping fails after close", func(t *testing.T) {
		db, err := NewDatabase(&config.DatabaseConfig{
			Driver:     config.DriverSQLite,
			SQLitePath: ":memory:",
		})
		require.NoError(t, err)
		require.NoError(t, db.Close())
		assert.Error(t, db.Ping(context.Background()))
	})
}

func TestDatabase_MockedPostgres(t *testing.T) {
	gormDB, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()

	mock.ExpectPing()
	db := &Database{DB: gormDB, Driver: config.DriverPostgres}
	assert.NoError(t, db.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withCleanEnv unsets keys for the duration of the test and restores them after
func withCleanEnv(t *testing.T, keys ...string) func() {
	t.Helper()
	original := make(map[string]string, len(keys))
	for _, k := range keys {
		original[k] = os.Getenv(k)
	}
	unset := func() {
		for _, k := range keys {
			os.Unsetenv(k)
		}
	}
	t.Cleanup(func() {
		for k, v := range original {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	})
	unset()
	return unset
}

var envKeys = []string{
	"ERP_APP_NAME",
	"ERP_APP_ENV",
	"ERP_APP_PORT",
	"ERP_DATABASE_DRIVER",
	"ERP_DATABASE_HOST",
	"ERP_DATABASE_PORT",
	"ERP_DATABASE_USER",
	"ERP_DATABASE_PASSWORD",
	"ERP_DATABASE_DBNAME",
	"ERP_DATABASE_SSLMODE",
	"ERP_DATABASE_SQLITE_PATH",
	"ERP_DATABASE_MAX_OPEN_CONNS",
	"ERP_DATABASE_MAX_IDLE_CONNS",
	"ERP_JWT_SECRET",
	"ERP_FINANCE_TX_TIMEOUT",
	"ERP_FINANCE_LOCK_TIMEOUT",
	"ERP_FINANCE_DISCOUNT_AUTO_APPROVE",
	"ERP_FINANCE_REFUND_REOPENS_LEDGER",
	"ERP_SCHEDULER_OVERDUE_CRON",
	"ERP_STORAGE_ENABLED",
	"ERP_STORAGE_BUCKET",
	"ERP_EMAIL_ENABLED",
	"ERP_EMAIL_API_KEY",
	"ERP_TELEMETRY_SAMPLING_RATIO",
}

func TestLoad(t *testing.T) {
	clearEnv := withCleanEnv(t, envKeys...)

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "feeledger", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, DriverPostgres, cfg.Database.Driver)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "feeledger", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, 10*time.Second, cfg.Finance.TxTimeout)
		assert.Equal(t, 5*time.Second, cfg.Finance.LockTimeout)
		assert.False(t, cfg.Finance.DiscountAutoApprove)
		assert.False(t, cfg.Finance.RefundReopensLedger)
		assert.Equal(t, 24*time.Hour, cfg.Finance.IdempotencyTTL)
		assert.Equal(t, "0 1 * * *", cfg.Scheduler.OverdueCron)
		assert.True(t, cfg.Printing.Headless)
		assert.Equal(t, "en-IN", cfg.Printing.Locale)
		assert.Equal(t, "development", cfg.ErrReport.Environment)
	})

	t.Run("loads values from environment variables with ERP prefix", func(t *testing.T) {
		clearEnv()
		os.Setenv("ERP_APP_NAME", "fees-test")
		os.Setenv("ERP_DATABASE_HOST", "testdb.local")
		os.Setenv("ERP_DATABASE_PORT", "5433")
		os.Setenv("ERP_DATABASE_PASSWORD", "testpass")
		os.Setenv("ERP_DATABASE_SSLMODE", "require")
		os.Setenv("ERP_FINANCE_TX_TIMEOUT", "20s")
		os.Setenv("ERP_FINANCE_DISCOUNT_AUTO_APPROVE", "true")
		os.Setenv("ERP_FINANCE_REFUND_REOPENS_LEDGER", "true")
		os.Setenv("ERP_SCHEDULER_OVERDUE_CRON", "30 2 * * *")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "fees-test", cfg.App.Name)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "testpass", cfg.Database.Password)
		assert.Equal(t, "require", cfg.Database.SSLMode)
		assert.Equal(t, 20*time.Second, cfg.Finance.TxTimeout)
		assert.True(t, cfg.Finance.DiscountAutoApprove)
		assert.True(t, cfg.Finance.RefundReopensLedger)
		assert.Equal(t, "30 2 * * *", cfg.Scheduler.OverdueCron)
	})

	t.Run("sqlite driver uses file path as DSN", func(t *testing.T) {
		clearEnv()
		os.Setenv("ERP_DATABASE_DRIVER", "sqlite")
		os.Setenv("ERP_DATABASE_SQLITE_PATH", "/tmp/fees.db")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "/tmp/fees.db", cfg.Database.DSN())
	})

	t.Run("rejects unknown driver", func(t *testing.T) {
		clearEnv()
		os.Setenv("ERP_DATABASE_DRIVER", "mysql")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.driver")
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv()
		os.Setenv("ERP_DATABASE_MAX_OPEN_CONNS", "10")
		os.Setenv("ERP_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("validates MaxIdleConns cannot be negative", func(t *testing.T) {
		clearEnv()
		os.Setenv("ERP_DATABASE_MAX_IDLE_CONNS", "-1")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns cannot be negative")
	})

	t.Run("lock timeout cannot exceed transaction timeout", func(t *testing.T) {
		clearEnv()
		os.Setenv("ERP_FINANCE_TX_TIMEOUT", "2s")
		os.Setenv("ERP_FINANCE_LOCK_TIMEOUT", "5s")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "finance.lock_timeout")
	})

	t.Run("storage needs a bucket when enabled", func(t *testing.T) {
		clearEnv()
		os.Setenv("ERP_STORAGE_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.bucket")

		os.Setenv("ERP_STORAGE_BUCKET", "receipts")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "receipts", cfg.Storage.Bucket)
	})

	t.Run("email needs credentials when enabled", func(t *testing.T) {
		clearEnv()
		os.Setenv("ERP_EMAIL_ENABLED", "true")
		os.Setenv("ERP_EMAIL_API_KEY", "SG.key")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "email.from_email")
	})

	t.Run("sampling ratio out of range", func(t *testing.T) {
		clearEnv()
		os.Setenv("ERP_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sampling_ratio")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	clearEnv := withCleanEnv(t, envKeys...)

	setValidProductionBase := func() {
		os.Setenv("ERP_APP_ENV", "production")
		os.Setenv("ERP_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
		os.Setenv("ERP_DATABASE_PASSWORD", "secure-password")
		os.Setenv("ERP_DATABASE_SSLMODE", "require")
	}

	tests := []struct {
		name    string
		mutate  func()
		wantErr string
	}{
		{"requires jwt.secret", func() { os.Unsetenv("ERP_JWT_SECRET") }, "jwt.secret is required in production"},
		{"requires long jwt.secret", func() { os.Setenv("ERP_JWT_SECRET", "short-secret") }, "at least 32 characters"},
		{"requires database.password", func() { os.Unsetenv("ERP_DATABASE_PASSWORD") }, "database.password is required"},
		{"requires SSL", func() { os.Setenv("ERP_DATABASE_SSLMODE", "disable") }, "sslmode cannot be 'disable'"},
		{"requires postgres", func() { os.Setenv("ERP_DATABASE_DRIVER", "sqlite") }, "must be postgres in production"},
		{"valid config", func() {}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv()
			setValidProductionBase()
			tt.mutate()

			cfg, err := Load()
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "production", cfg.App.Env)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Driver:   DriverPostgres,
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost:5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})
}

func TestRedisConfig_Addr(t *testing.T) {
	r := RedisConfig{Host: "cache", Port: 6380}
	assert.Equal(t, "cache:6380", r.Addr())
}

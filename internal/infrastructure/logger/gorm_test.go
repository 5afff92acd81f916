package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func newObservedGorm(level gormlogger.LogLevel, opts ...GormLoggerOption) (*GormLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), level, opts...), logs
}

func sqlFn(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestGormLogger_LogModeCopies(t *testing.T) {
	l, _ := newObservedGorm(gormlogger.Info)
	other := l.LogMode(gormlogger.Error).(*GormLogger)
	assert.Equal(t, gormlogger.Info, l.logLevel)
	assert.Equal(t, gormlogger.Error, other.logLevel)
}

func TestGormLogger_TraceQueryCarriesContext(t *testing.T) {
	l, logs := newObservedGorm(gormlogger.Info)
	ctx, zl := WithRequestID(context.Background(), zap.NewNop(), "req-1")
	ctx, _ = WithSchoolID(ctx, zl, "school-1")

	l.Trace(ctx, time.Now(), sqlFn("SELECT * FROM student_fees", 3), nil)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "SQL Query", entry.Message)
	assert.Equal(t, zapcore.DebugLevel, entry.Level)
	assert.Equal(t, "req-1", entry.ContextMap()["request_id"])
	assert.Equal(t, "school-1", entry.ContextMap()["school_id"])
	assert.Equal(t, int64(3), entry.ContextMap()["rows"])
}

func TestGormLogger_TraceSlowQuery(t *testing.T) {
	l, logs := newObservedGorm(gormlogger.Warn, WithSlowThreshold(10*time.Millisecond))
	l.Trace(context.Background(), time.Now().Add(-time.Second), sqlFn("UPDATE student_fees", 1), nil)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)
	assert.Contains(t, logs.All()[0].Message, "SLOW SQL")
}

func TestGormLogger_TraceErrors(t *testing.T) {
	l, logs := newObservedGorm(gormlogger.Error)
	l.Trace(context.Background(), time.Now(), sqlFn("SELECT 1", 0), gormlogger.ErrRecordNotFound)
	assert.Zero(t, logs.Len(), "record not found is ignored by default")

	l.Trace(context.Background(), time.Now(), sqlFn("SELECT 1", 0), errors.New("canceling statement due to lock timeout"))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "SQL Error", logs.All()[0].Message)

	strict, strictLogs := newObservedGorm(gormlogger.Error, WithIgnoreRecordNotFoundError(false))
	strict.Trace(context.Background(), time.Now(), sqlFn("SELECT 1", 0), gormlogger.ErrRecordNotFound)
	assert.Equal(t, 1, strictLogs.Len())
}

func TestGormLogger_Silent(t *testing.T) {
	l, logs := newObservedGorm(gormlogger.Silent)
	l.Trace(context.Background(), time.Now(), sqlFn("SELECT 1", 0), errors.New("x"))
	l.Info(context.Background(), "hello %s", "world")
	assert.Zero(t, logs.Len())
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel(""))
}

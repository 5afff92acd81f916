// Package errreport forwards server errors and recovered panics to Rollbar.
package errreport

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/rollbar/rollbar-go"
	"github.com/schoolerp/feeledger/internal/infrastructure/config"
	"go.uber.org/zap/zapcore"
)

// notifier is the subset of *rollbar.Client the reporter uses
type notifier interface {
	ErrorWithExtras(level string, err error, extras map[string]interface{})
	RequestErrorWithExtras(level string, r *http.Request, err error, extras map[string]interface{})
	Close() error
}

// Reporter sends errors to Rollbar. A Reporter built without a token is
// disabled and every method is a no-op.
type Reporter struct {
	client notifier
}

// New creates a reporter from configuration
func New(cfg config.ErrReportConfig, codeVersion, serverHost string) *Reporter {
	if cfg.RollbarToken == "" {
		return &Reporter{}
	}
	return &Reporter{client: rollbar.New(cfg.RollbarToken, cfg.Environment, codeVersion, serverHost, "")}
}

// Enabled reports whether errors are forwarded
func (r *Reporter) Enabled() bool {
	return r != nil && r.client != nil
}

// ReportPanic sends a recovered panic with the request that caused it
func (r *Reporter) ReportPanic(req *http.Request, recovered interface{}, requestID string) {
	if !r.Enabled() {
		return
	}
	err, ok := recovered.(error)
	if !ok {
		err = fmt.Errorf("panic: %v", recovered)
	}
	r.client.RequestErrorWithExtras(rollbar.CRIT, req, err, map[string]interface{}{
		"request_id": requestID,
	})
}

// Core returns a zap core that forwards entries at or above the error level.
// Tee it with the normal core so error logs reach Rollbar as well.
func (r *Reporter) Core() zapcore.Core {
	if !r.Enabled() {
		return zapcore.NewNopCore()
	}
	return &rollbarCore{LevelEnabler: zapcore.ErrorLevel, client: r.client}
}

// Close flushes queued items
func (r *Reporter) Close() error {
	if !r.Enabled() {
		return nil
	}
	return r.client.Close()
}

type rollbarCore struct {
	zapcore.LevelEnabler
	client notifier
	fields []zapcore.Field
}

func (c *rollbarCore) With(fields []zapcore.Field) zapcore.Core {
	merged := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	merged = append(merged, c.fields...)
	merged = append(merged, fields...)
	return &rollbarCore{LevelEnabler: c.LevelEnabler, client: c.client, fields: merged}
}

func (c *rollbarCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *rollbarCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	var cause error
	for _, group := range [][]zapcore.Field{c.fields, fields} {
		for _, f := range group {
			if f.Type == zapcore.ErrorType && cause == nil {
				if e, ok := f.Interface.(error); ok {
					cause = e
				}
			}
			f.AddTo(enc)
		}
	}

	err := errors.New(ent.Message)
	if cause != nil {
		err = fmt.Errorf("%s: %w", ent.Message, cause)
	}
	extras := enc.Fields
	if ent.LoggerName != "" {
		extras["logger"] = ent.LoggerName
	}
	if ent.Caller.Defined {
		extras["caller"] = ent.Caller.TrimmedPath()
	}
	c.client.ErrorWithExtras(rollbarLevel(ent.Level), err, extras)
	return nil
}

func (c *rollbarCore) Sync() error { return nil }

func rollbarLevel(l zapcore.Level) string {
	if l > zapcore.ErrorLevel {
		return rollbar.CRIT
	}
	return rollbar.ERR
}

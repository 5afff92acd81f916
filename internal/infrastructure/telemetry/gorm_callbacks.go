package telemetry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

type gormHook struct {
	op     string
	before func(name string, fn func(*gorm.DB)) error
	after  func(name string, fn func(*gorm.DB)) error
}

func gormHooks(db *gorm.DB) []gormHook {
	cb := db.Callback()
	return []gormHook{
		{"create",
			func(n string, fn func(*gorm.DB)) error { return cb.Create().Before("gorm:create").Register(n, fn) },
			func(n string, fn func(*gorm.DB)) error { return cb.Create().After("gorm:create").Register(n, fn) }},
		{"query",
			func(n string, fn func(*gorm.DB)) error { return cb.Query().Before("gorm:query").Register(n, fn) },
			func(n string, fn func(*gorm.DB)) error { return cb.Query().After("gorm:query").Register(n, fn) }},
		{"update",
			func(n string, fn func(*gorm.DB)) error { return cb.Update().Before("gorm:update").Register(n, fn) },
			func(n string, fn func(*gorm.DB)) error { return cb.Update().After("gorm:update").Register(n, fn) }},
		{"delete",
			func(n string, fn func(*gorm.DB)) error { return cb.Delete().Before("gorm:delete").Register(n, fn) },
			func(n string, fn func(*gorm.DB)) error { return cb.Delete().After("gorm:delete").Register(n, fn) }},
		{"row",
			func(n string, fn func(*gorm.DB)) error { return cb.Row().Before("gorm:row").Register(n, fn) },
			func(n string, fn func(*gorm.DB)) error { return cb.Row().After("gorm:row").Register(n, fn) }},
		{"raw",
			func(n string, fn func(*gorm.DB)) error { return cb.Raw().Before("gorm:raw").Register(n, fn) },
			func(n string, fn func(*gorm.DB)) error { return cb.Raw().After("gorm:raw").Register(n, fn) }},
	}
}

type queryStartKey string

// timeQueries registers prefix:before_<op> and prefix:after_<op> around
// every GORM processor. after receives the processor name and the time
// since its before hook ran.
func timeQueries(db *gorm.DB, prefix string, after func(db *gorm.DB, op string, elapsed time.Duration)) error {
	key := queryStartKey(prefix)
	for _, h := range gormHooks(db) {
		op := h.op
		before := func(tx *gorm.DB) {
			ctx := tx.Statement.Context
			if ctx == nil {
				ctx = context.Background()
			}
			tx.Statement.Context = context.WithValue(ctx, key, time.Now())
		}
		done := func(tx *gorm.DB) {
			var elapsed time.Duration
			if tx.Statement.Context != nil {
				if start, ok := tx.Statement.Context.Value(key).(time.Time); ok {
					elapsed = time.Since(start)
				}
			}
			after(tx, op, elapsed)
		}
		if err := h.before(prefix+":before_"+op, before); err != nil {
			return fmt.Errorf("register %s:before_%s: %w", prefix, op, err)
		}
		if err := h.after(prefix+":after_"+op, done); err != nil {
			return fmt.Errorf("register %s:after_%s: %w", prefix, op, err)
		}
	}
	return nil
}

// sqlOperation names the statement kind for a GORM processor. Row and raw
// statements are classified by their leading keyword.
func sqlOperation(op, sql string) string {
	switch op {
	case "create":
		return "INSERT"
	case "query":
		return "SELECT"
	case "update":
		return "UPDATE"
	case "delete":
		return "DELETE"
	}
	sql = strings.ToUpper(strings.TrimSpace(sql))
	for _, kw := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(sql, kw) {
			return kw
		}
	}
	return "OTHER"
}

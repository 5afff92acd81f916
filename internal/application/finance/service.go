// Package finance holds the fee ledger use cases: fee structures, student
// fees, discounts and scholarships, payments, refunds, documents and reports.
package finance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/feeledger/internal/domain/finance"
	"github.com/schoolerp/feeledger/internal/domain/shared"
	"go.uber.org/zap"
)

// Dependencies holds what the fee ledger services share
type Dependencies struct {
	// Scope runs mutating use cases in one database transaction
	Scope finance.TransactionScope
	// Repos are non-transactional repositories used for reads
	Repos          finance.Repositories
	EventPublisher shared.EventPublisher
	Metrics        FeeMetrics
	Logger         *zap.Logger
	Options        Options
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Metrics == nil {
		d.Metrics = nopMetrics{}
	}
	if d.Options.IdempotencyTTL <= 0 {
		d.Options.IdempotencyTTL = 24 * time.Hour
	}
	return d
}

type eventSource interface {
	GetDomainEvents() []shared.DomainEvent
	ClearDomainEvents()
}

// publishEvents hands the pending events of committed aggregates to the bus.
// The ledger change is already durable, so a failure is only logged.
func publishEvents(ctx context.Context, publisher shared.EventPublisher, logger *zap.Logger, sources ...eventSource) {
	var events []shared.DomainEvent
	for _, src := range sources {
		if src == nil {
			continue
		}
		events = append(events, src.GetDomainEvents()...)
		src.ClearDomainEvents()
	}
	if publisher == nil || len(events) == 0 {
		return
	}
	if err := publisher.Publish(ctx, events...); err != nil {
		logger.Warn("Failed to publish domain events",
			zap.Int("event_count", len(events)),
			zap.Error(err))
	}
}

func notFound(entity string) error {
	return shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("%s not found", entity))
}

// parseOptionalUUID parses an id query parameter. Empty means no filter.
func parseOptionalUUID(field, value string) (*uuid.UUID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("Invalid %s: %s", field, value))
	}
	return &id, nil
}

// parseDate parses a YYYY-MM-DD query parameter as a UTC date
func parseDate(field, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation("2006-01-02", value, time.UTC)
	if err != nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("Invalid %s, expected YYYY-MM-DD: %s", field, value))
	}
	return &t, nil
}

// endOfDay returns the last instant of d so date ranges include the whole day
func endOfDay(d time.Time) time.Time {
	return d.Add(24*time.Hour - time.Nanosecond)
}

func (p ListParams) toFilter() shared.Filter {
	f := shared.DefaultFilter()
	if p.Page > 0 {
		f.Page = p.Page
	}
	if p.PageSize > 0 {
		f.PageSize = p.PageSize
	}
	if p.OrderBy != "" {
		f.OrderBy = p.OrderBy
	}
	if p.OrderDir != "" {
		f.OrderDir = p.OrderDir
	}
	f.Search = strings.TrimSpace(p.Search)
	f.Normalize()
	return f
}

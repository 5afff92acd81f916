package event

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/schoolerp/feeledger/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrQueueFull is returned by Publish when the dispatch queue has no room
var ErrQueueFull = errors.New("event queue is full")

// BusConfig sizes the dispatch pool
type BusConfig struct {
	Workers        int
	QueueSize      int
	HandlerTimeout time.Duration
}

// DefaultBusConfig returns the pool used by the server
func DefaultBusConfig() BusConfig {
	return BusConfig{Workers: 2, QueueSize: 256, HandlerTimeout: 30 * time.Second}
}

type delivery struct {
	handler shared.EventHandler
	event   shared.DomainEvent
}

// InMemoryEventBus dispatches events to registered handlers. Before Start
// (and after Stop) handlers run inline in Publish; while running they run on
// a worker pool so slow side effects such as sending email never hold up the
// request that produced the event.
type InMemoryEventBus struct {
	registry *HandlerRegistry
	logger   *zap.Logger
	cfg      BusConfig

	queue   chan delivery
	running atomic.Bool
	mu      sync.RWMutex
	wg      sync.WaitGroup
	failed  atomic.Int64
}

// NewInMemoryEventBus creates a bus with the default pool size
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	return NewInMemoryEventBusWithConfig(logger, DefaultBusConfig())
}

// NewInMemoryEventBusWithConfig creates a bus with an explicit pool size
func NewInMemoryEventBusWithConfig(logger *zap.Logger, cfg BusConfig) *InMemoryEventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1
	}
	return &InMemoryEventBus{
		registry: NewHandlerRegistry(),
		logger:   logger,
		cfg:      cfg,
	}
}

// Publish hands every event to its handlers. Handler failures are logged and
// counted, never returned; ErrQueueFull is the only error.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var dropped int
	for _, e := range events {
		for _, h := range b.registry.Handlers(e.EventType()) {
			if !b.running.Load() {
				b.dispatch(ctx, h, e)
				continue
			}
			select {
			case b.queue <- delivery{handler: h, event: e}:
			default:
				dropped++
				b.failed.Add(1)
				b.logger.Error("Event queue full, dropping delivery",
					zap.String("event_type", e.EventType()),
					zap.String("event_id", e.EventID().String()))
			}
		}
	}
	if dropped > 0 {
		return fmt.Errorf("%w: %d deliveries dropped", ErrQueueFull, dropped)
	}
	return nil
}

// Subscribe registers handler. With no explicit types the handler's own
// EventTypes are used.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("Event handler subscribed", zap.Strings("event_types", eventTypes))
}

// Start launches the worker pool
func (b *InMemoryEventBus) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running.Load() {
		return nil
	}
	b.queue = make(chan delivery, b.cfg.QueueSize)
	for i := 0; i < b.cfg.Workers; i++ {
		b.wg.Add(1)
		go b.worker(b.queue)
	}
	b.running.Store(true)
	b.logger.Info("Event bus started", zap.Int("workers", b.cfg.Workers), zap.Int("queue_size", b.cfg.QueueSize))
	return nil
}

// Stop closes the queue and waits for queued deliveries to finish or ctx to
// expire
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.mu.Lock()
	if !b.running.Load() {
		b.mu.Unlock()
		return nil
	}
	b.running.Store(false)
	close(b.queue)
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		b.logger.Info("Event bus stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("event bus stop: %w", ctx.Err())
	}
}

// Failed returns the number of deliveries that errored, panicked or were dropped
func (b *InMemoryEventBus) Failed() int64 {
	return b.failed.Load()
}

func (b *InMemoryEventBus) worker(queue <-chan delivery) {
	defer b.wg.Done()
	for d := range queue {
		ctx, cancel := context.WithTimeout(context.Background(), b.cfg.HandlerTimeout)
		b.dispatch(ctx, d.handler, d.event)
		cancel()
	}
}

func (b *InMemoryEventBus) dispatch(ctx context.Context, handler shared.EventHandler, e shared.DomainEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.failed.Add(1)
			b.logger.Error("Event handler panicked",
				zap.String("event_type", e.EventType()),
				zap.Any("panic", r))
		}
	}()

	if err := handler.Handle(ctx, e); err != nil {
		b.failed.Add(1)
		b.logger.Error("Event handler failed",
			zap.String("event_type", e.EventType()),
			zap.String("event_id", e.EventID().String()),
			zap.String("school_id", e.TenantID().String()),
			zap.Error(err))
	}
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)

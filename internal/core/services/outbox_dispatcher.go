package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SscSPs/property_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/property_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/property_ledger/internal/core/ports/services"
)

// OutboxDispatcherConfig holds polling settings for the dispatcher.
type OutboxDispatcherConfig struct {
	BatchSize    int
	PollInterval time.Duration
	// LeaseTimeout is how long a PROCESSING claim is honoured before another
	// poll may reclaim it.
	LeaseTimeout time.Duration
	// FinishTimeout is how long a claimed batch may keep running after the
	// dispatcher is stopped.
	FinishTimeout time.Duration
}

func (c OutboxDispatcherConfig) withDefaults() OutboxDispatcherConfig {
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 2 * time.Second
	}
	if c.LeaseTimeout <= 0 {
		c.LeaseTimeout = 5 * time.Minute
	}
	if c.FinishTimeout <= 0 {
		c.FinishTimeout = 30 * time.Second
	}
	return c
}

// OutboxDispatcher runs side effects for committed outbox events on its own
// goroutine. A failed event is marked FAILED and left for operators; the
// dispatcher never retries and never writes to the ledger.
type OutboxDispatcher struct {
	BaseService
	repo     portsrepo.OutboxRepository
	handlers []portssvc.SideEffectHandler
	config   OutboxDispatcherConfig
	logger   *slog.Logger

	wake   chan struct{}
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewOutboxDispatcher creates a dispatcher for handlers.
func NewOutboxDispatcher(repo portsrepo.OutboxRepository, config OutboxDispatcherConfig, logger *slog.Logger, handlers ...portssvc.SideEffectHandler) *OutboxDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &OutboxDispatcher{
		repo:     repo,
		handlers: handlers,
		config:   config.withDefaults(),
		logger:   logger.With(slog.String("component", "outbox_dispatcher")),
		wake:     make(chan struct{}, 1),
	}
}

var _ portssvc.OutboxDispatcher = (*OutboxDispatcher)(nil)

// Start launches the poll loop. Calling Start twice is a no-op.
func (d *OutboxDispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	d.wg.Add(1)
	go d.loop(ctx)

	d.logger.Info("Outbox dispatcher started",
		slog.Int("batch_size", d.config.BatchSize),
		slog.Duration("poll_interval", d.config.PollInterval),
		slog.Int("handlers", len(d.handlers)))
}

// Stop cancels the loop and waits for the in-flight batch to finish, for at
// most FinishTimeout.
func (d *OutboxDispatcher) Stop() {
	d.mu.Lock()
	cancel := d.cancel
	d.cancel = nil
	d.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	d.wg.Wait()
	d.logger.Info("Outbox dispatcher stopped")
}

// Notify requests an immediate poll without blocking the caller.
func (d *OutboxDispatcher) Notify() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *OutboxDispatcher) loop(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-d.wake:
		}
		// Drain full batches before waiting again.
		for ctx.Err() == nil {
			n, err := d.DispatchOnce(ctx)
			if err != nil {
				d.logger.Error("Failed to claim outbox events", slog.String("error", err.Error()))
				break
			}
			if n < d.config.BatchSize {
				break
			}
		}
	}
}

// DispatchOnce claims one batch, runs its handlers and records the outcome.
// It returns how many events were claimed. A claimed batch outlives ctx by
// up to FinishTimeout so its events are not left PROCESSING.
func (d *OutboxDispatcher) DispatchOnce(ctx context.Context) (int, error) {
	now := d.now()
	events, err := d.repo.ClaimBatch(ctx, d.config.BatchSize, now, now.Add(-d.config.LeaseTimeout))
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}

	batchCtx, cancel := d.finishing(ctx)
	defer cancel()
	for _, event := range events {
		d.dispatch(batchCtx, event)
	}
	return len(events), nil
}

// finishing detaches from ctx and cancels FinishTimeout after ctx is done.
func (d *OutboxDispatcher) finishing(ctx context.Context) (context.Context, context.CancelFunc) {
	batchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	stop := context.AfterFunc(ctx, func() {
		mu.Lock()
		defer mu.Unlock()
		d.logger.Info("Finishing claimed outbox batch before stopping", slog.Duration("finish_timeout", d.config.FinishTimeout))
		timer = time.AfterFunc(d.config.FinishTimeout, cancel)
	})
	return batchCtx, func() {
		stop()
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		cancel()
	}
}

func (d *OutboxDispatcher) dispatch(ctx context.Context, event domain.OutboxEvent) {
	logger := d.logger.With(
		slog.String("event_id", event.EventID),
		slog.String("event_type", event.EventType),
		slog.String("aggregate_id", event.AggregateID))

	var errs []error
	for _, h := range d.handlers {
		if !h.Handles(event.EventType) {
			continue
		}
		if err := d.runHandler(ctx, h, event); err != nil {
			logger.Error("Side effect failed", slog.String("handler", h.Name()), slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("%s: %w", h.Name(), err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		if markErr := d.repo.MarkFailed(ctx, event.EventID, err.Error(), d.now()); markErr != nil {
			logger.Error("Failed to mark outbox event failed", slog.String("error", markErr.Error()))
		}
		return
	}
	if err := d.repo.MarkSent(ctx, event.EventID, d.now()); err != nil {
		logger.Error("Failed to mark outbox event sent", slog.String("error", err.Error()))
		return
	}
	logger.Debug("Outbox event dispatched")
}

// runHandler isolates a panicking handler so the others still run.
func (d *OutboxDispatcher) runHandler(ctx context.Context, h portssvc.SideEffectHandler, event domain.OutboxEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h.Handle(ctx, event)
}

package bot

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"

	"meetupbot/internal/domain"
)

// Handler processes one update to completion.
type Handler interface {
	Handle(ctx context.Context, upd domain.Update)
}

// Dispatcher runs updates of different users concurrently, at most workers at a time,
// while updates of the same user are handled one by one in arrival order.
type Dispatcher struct {
	handler Handler
	logger  *slog.Logger
	slots   *semaphore.Weighted
	wg      sync.WaitGroup

	mu     sync.Mutex
	queues map[int64][]domain.Update
}

// NewDispatcher returns a Dispatcher. workers below one is treated as one.
func NewDispatcher(handler Handler, workers int, logger *slog.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{
		handler: handler,
		logger:  logger,
		slots:   semaphore.NewWeighted(int64(workers)),
		queues:  make(map[int64][]domain.Update),
	}
}

// Dispatch queues upd behind the user's earlier updates and returns immediately.
func (d *Dispatcher) Dispatch(ctx context.Context, upd domain.Update) {
	userID := upd.From.TelegramID

	d.mu.Lock()
	if q, busy := d.queues[userID]; busy {
		d.queues[userID] = append(q, upd)
		d.mu.Unlock()
		return
	}
	d.queues[userID] = nil
	d.mu.Unlock()

	d.wg.Add(1)
	go d.drain(context.WithoutCancel(ctx), userID, upd)
}

// Wait blocks until every dispatched update has been handled.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) drain(ctx context.Context, userID int64, upd domain.Update) {
	defer d.wg.Done()
	for {
		d.run(ctx, upd)

		d.mu.Lock()
		q := d.queues[userID]
		if len(q) == 0 {
			delete(d.queues, userID)
			d.mu.Unlock()
			return
		}
		upd, d.queues[userID] = q[0], q[1:]
		d.mu.Unlock()
	}
}

func (d *Dispatcher) run(ctx context.Context, upd domain.Update) {
	if err := d.slots.Acquire(ctx, 1); err != nil {
		d.logger.ErrorContext(ctx, "update dropped", "user_id", upd.From.TelegramID, "error", err)
		return
	}
	defer d.slots.Release(1)
	defer func() {
		if r := recover(); r != nil {
			d.logger.ErrorContext(ctx, "update handler panicked", "user_id", upd.From.TelegramID, "panic", r)
		}
	}()
	d.handler.Handle(ctx, upd)
}

package worker

import (
	"context"
	"sync/atomic"

	"apoyos/internal/amqp"
	applog "apoyos/internal/log"
)

// Purger drops every cached dashboard response.
type Purger interface {
	PurgeAll() int
}

// Consumer delivers support change messages to a handler until ctx ends.
type Consumer interface {
	Run(ctx context.Context, handler amqp.Handler) error
}

// InvalidationWorker empties the response caches whenever a support record
// changes, so the next dashboard request recomputes from the store.
type InvalidationWorker struct {
	purger    Purger
	logger    *applog.Logger
	processed atomic.Int64
	purged    atomic.Int64
}

func NewInvalidationWorker(purger Purger, logger *applog.Logger) *InvalidationWorker {
	if logger == nil {
		logger = applog.Nop()
	}
	return &InvalidationWorker{
		purger: purger,
		logger: logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleSupportChanged processes a single support change message from AMQP.
func (w *InvalidationWorker) HandleSupportChanged(ctx context.Context, msg *amqp.SupportChangedMessage) error {
	n := w.purger.PurgeAll()
	w.processed.Add(1)
	w.purged.Add(int64(n))

	w.logger.InfoContext(ctx, "Dashboard cache invalidated",
		applog.FieldOperation, applog.OpInvalidate,
		applog.FieldSupportID, msg.ID,
		applog.FieldAction, msg.Action,
		applog.FieldYear, msg.Year(),
		"purged", n)
	return nil
}

// Run blocks consuming from c until ctx is cancelled.
func (w *InvalidationWorker) Run(ctx context.Context, c Consumer) error {
	w.logger.InfoContext(ctx, "Starting invalidation worker")
	err := c.Run(ctx, w.HandleSupportChanged)
	if ctx.Err() != nil {
		w.logger.InfoContext(ctx, "Invalidation worker stopped")
		return nil
	}
	return err
}

// Stats reports messages handled and cache entries dropped so far.
func (w *InvalidationWorker) Stats() (processed, purged int64) {
	return w.processed.Load(), w.purged.Load()
}

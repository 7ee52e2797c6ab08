package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
	"expensetracker/internal/ports"
)

// ActivityWorker records transaction activity events delivered over AMQP.
type ActivityWorker struct {
	store     ports.ActivityStore
	now       func() time.Time
	processed atomic.Int64
	failed    atomic.Int64
}

func NewActivityWorker(store ports.ActivityStore) *ActivityWorker {
	return &ActivityWorker{store: store, now: time.Now}
}

// HandleActivityMessage stores the event carried by msg. Redelivered events
// are recorded once. A returned error makes the broker redeliver.
func (w *ActivityWorker) HandleActivityMessage(ctx context.Context, msg *amqp.ActivityMessage) error {
	e := msg.Event
	if !validAction(e.Action) {
		// Unknown actions cannot be retried into something valid.
		slog.WarnContext(ctx, "Dropping activity event with unknown action",
			"event_id", e.ID,
			"action", e.Action)
		return nil
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = msg.Timestamp
	}

	if err := w.store.RecordActivity(ctx, e); err != nil {
		w.failed.Add(1)
		return fmt.Errorf("record activity %s: %w", e.ID, err)
	}
	w.processed.Add(1)

	slog.InfoContext(ctx, "Recorded activity event",
		"event_id", e.ID,
		"action", e.Action,
		"user_id", e.UserID,
		"transaction_id", e.TransactionID,
		"lag", w.now().Sub(e.OccurredAt).Round(time.Millisecond))

	return nil
}

func validAction(a core.ActivityAction) bool {
	switch a {
	case core.ActionTransactionCreated, core.ActionTransactionUpdated, core.ActionTransactionDeleted:
		return true
	}
	return false
}

// Stats reports how many events were recorded and how many failed.
func (w *ActivityWorker) Stats() (processed, failed int64) {
	return w.processed.Load(), w.failed.Load()
}

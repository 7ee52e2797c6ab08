package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
	"expensetracker/internal/storage/memory"
)

type failingStore struct {
	*memory.Store
}

func (failingStore) RecordActivity(context.Context, core.ActivityEvent) error {
	return errors.New("disk full")
}

func message(id string, action core.ActivityAction) *amqp.ActivityMessage {
	return &amqp.ActivityMessage{
		Event: core.ActivityEvent{
			ID:            id,
			Action:        action,
			UserID:        1,
			TransactionID: 10,
			Amount:        core.MustParseMoney("12.50"),
			Date:          core.NewDate(2024, 9, 18),
		},
		Timestamp: time.Date(2024, 9, 18, 9, 0, 0, 0, time.UTC),
	}
}

func TestActivityWorker_HandleActivityMessage(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	w := NewActivityWorker(store)

	if err := w.HandleActivityMessage(ctx, message("evt-1", core.ActionTransactionCreated)); err != nil {
		t.Fatalf("HandleActivityMessage() error = %v", err)
	}
	// redelivery
	if err := w.HandleActivityMessage(ctx, message("evt-1", core.ActionTransactionCreated)); err != nil {
		t.Fatalf("redelivered HandleActivityMessage() error = %v", err)
	}
	if err := w.HandleActivityMessage(ctx, message("evt-2", core.ActionTransactionDeleted)); err != nil {
		t.Fatalf("HandleActivityMessage() error = %v", err)
	}

	events, _ := store.ListActivity(ctx, 1, 10)
	if len(events) != 2 {
		t.Fatalf("recorded %d events, want 2", len(events))
	}
	if events[0].ID != "evt-2" || events[1].ID != "evt-1" {
		t.Errorf("events = %+v", events)
	}
	if !events[1].OccurredAt.Equal(time.Date(2024, 9, 18, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("missing occurredAt not filled from message timestamp: %v", events[1].OccurredAt)
	}
}

func TestActivityWorker_DropsUnknownAction(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	w := NewActivityWorker(store)

	if err := w.HandleActivityMessage(ctx, message("evt-1", "transaction.exploded")); err != nil {
		t.Fatalf("HandleActivityMessage() error = %v", err)
	}
	if events, _ := store.ListActivity(ctx, 1, 10); len(events) != 0 {
		t.Errorf("recorded %d events, want 0", len(events))
	}
}

func TestActivityWorker_StoreFailureRequeues(t *testing.T) {
	w := NewActivityWorker(failingStore{memory.New()})

	err := w.HandleActivityMessage(context.Background(), message("evt-1", core.ActionTransactionUpdated))
	if err == nil {
		t.Fatal("HandleActivityMessage() should fail when the store fails")
	}

	processed, failed := w.Stats()
	if processed != 0 || failed != 1 {
		t.Errorf("Stats() = %d, %d; want 0, 1", processed, failed)
	}
}

package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/ports"
)

type transactionStore interface {
	ports.TransactionStore
	GetCategory(ctx context.Context, id, userID int64) (core.Category, error)
}

// TransactionService records income and expenses. Every change is announced
// on the activity publisher when one is configured.
type TransactionService struct {
	store     transactionStore
	publisher ports.ActivityPublisher
	now       func() time.Time
}

// NewTransactionService accepts a nil publisher.
func NewTransactionService(store transactionStore, publisher ports.ActivityPublisher) *TransactionService {
	return &TransactionService{store: store, publisher: publisher, now: time.Now}
}

func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.Note = strings.TrimSpace(t.Note)
	if err := t.Validate(); err != nil {
		return core.Transaction{}, core.BadRequestError(err)
	}

	exists, err := s.store.UserExists(ctx, t.UserID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("check user %d: %w", t.UserID, err)
	}
	if !exists {
		return core.Transaction{}, core.NotFoundError("user", t.UserID)
	}
	if _, err := s.store.GetCategory(ctx, t.CategoryID, t.UserID); err != nil {
		return core.Transaction{}, err
	}

	created, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	s.announce(ctx, core.ActionTransactionCreated, created)
	return created, nil
}

func (s *TransactionService) FindAll(ctx context.Context, userID int64) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx, userID)
}

func (s *TransactionService) Get(ctx context.Context, id, userID int64) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, id, userID)
}

func (s *TransactionService) Update(ctx context.Context, id, userID int64, patch core.TransactionPatch) (core.Transaction, error) {
	t, err := s.store.GetTransaction(ctx, id, userID)
	if err != nil {
		return core.Transaction{}, err
	}

	categoryChanged := patch.CategoryID != nil && *patch.CategoryID != t.CategoryID
	if patch.CategoryID != nil {
		if *patch.CategoryID <= 0 {
			return core.Transaction{}, core.BadRequestError(core.ErrCategoryRequired)
		}
		t.CategoryID = *patch.CategoryID
	}
	if patch.Amount != nil {
		t.Amount = *patch.Amount
	}
	if patch.Date != nil {
		t.Date = *patch.Date
	}
	if patch.Note != nil {
		t.Note = strings.TrimSpace(*patch.Note)
	}
	if err := t.ValidateFields(); err != nil {
		return core.Transaction{}, core.BadRequestError(err)
	}
	if categoryChanged {
		if _, err := s.store.GetCategory(ctx, t.CategoryID, userID); err != nil {
			return core.Transaction{}, err
		}
	}

	updated, err := s.store.UpdateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, err
	}

	s.announce(ctx, core.ActionTransactionUpdated, updated)
	return updated, nil
}

func (s *TransactionService) Remove(ctx context.Context, id, userID int64) error {
	t, err := s.store.GetTransaction(ctx, id, userID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTransaction(ctx, id, userID); err != nil {
		return err
	}

	s.announce(ctx, core.ActionTransactionDeleted, t)
	return nil
}

// announce logs the change and publishes it. A failed publish does not undo
// the change that was already stored.
func (s *TransactionService) announce(ctx context.Context, action core.ActivityAction, t core.Transaction) {
	applog.NewStructuredLogger(applog.FromContext(ctx)).
		LogTransactionChange(ctx, string(action), t.UserID, t.ID, t.Amount.Cents, t.Date.String())

	if s.publisher == nil {
		return
	}

	event := core.ActivityEvent{
		ID:            uuid.NewString(),
		Action:        action,
		UserID:        t.UserID,
		TransactionID: t.ID,
		Amount:        t.Amount,
		Date:          t.Date,
		OccurredAt:    s.now().UTC(),
	}
	if err := s.publisher.PublishActivity(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish activity event",
			"event_id", event.ID,
			"action", action,
			"transaction_id", t.ID,
			"error", err)
	}
}

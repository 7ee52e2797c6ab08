package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/storage/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []core.ActivityEvent
	err    error
}

func (p *recordingPublisher) PublishActivity(_ context.Context, e core.ActivityEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

type txFixture struct {
	svc       *TransactionService
	store     *memory.Store
	publisher *recordingPublisher
	user      core.User
	rent      core.Category
	salary    core.Category
}

func newTxFixture(t *testing.T) *txFixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	u, err := store.CreateUser(ctx, core.User{Email: "ada@example.com", FirstName: "Ada", LastName: "L"})
	if err != nil {
		t.Fatal(err)
	}
	rent, _ := store.CreateCategory(ctx, core.Category{UserID: u.ID, Name: "Rent", Type: core.Expense})
	salary, _ := store.CreateCategory(ctx, core.Category{UserID: u.ID, Name: "Salary", Type: core.Income})

	pub := &recordingPublisher{}
	svc := NewTransactionService(store, pub)
	svc.now = func() time.Time { return time.Date(2024, 9, 18, 12, 0, 0, 0, time.UTC) }

	return &txFixture{svc: svc, store: store, publisher: pub, user: u, rent: rent, salary: salary}
}

func (f *txFixture) newTx(amount string) core.Transaction {
	return core.Transaction{
		UserID:     f.user.ID,
		CategoryID: f.rent.ID,
		Amount:     core.MustParseMoney(amount),
		Date:       core.NewDate(2024, 9, 18),
		Note:       " september ",
	}
}

func TestTransactionService_Create(t *testing.T) {
	f := newTxFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.newTx("1200"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID == 0 || created.CategoryName != "Rent" || created.CategoryType != core.Expense || created.Note != "september" {
		t.Errorf("Create() = %+v", created)
	}

	if len(f.publisher.events) != 1 {
		t.Fatalf("published %d events, want 1", len(f.publisher.events))
	}
	e := f.publisher.events[0]
	if e.ID == "" || e.Action != core.ActionTransactionCreated || e.TransactionID != created.ID ||
		e.UserID != f.user.ID || e.Amount.Cents != 120000 || e.Date.String() != "2024-09-18" {
		t.Errorf("event = %+v", e)
	}
	if !e.OccurredAt.Equal(time.Date(2024, 9, 18, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("event time = %v", e.OccurredAt)
	}
}

func TestTransactionService_CreateRejects(t *testing.T) {
	f := newTxFixture(t)
	ctx := context.Background()
	other, _ := f.store.CreateUser(ctx, core.User{Email: "bob@example.com"})
	otherCat, _ := f.store.CreateCategory(ctx, core.Category{UserID: other.ID, Name: "Fuel", Type: core.Expense})

	tests := []struct {
		name   string
		modify func(*core.Transaction)
		kind   error
	}{
		{"zero amount", func(t *core.Transaction) { t.Amount = core.Money{} }, core.ErrBadRequest},
		{"negative amount", func(t *core.Transaction) { t.Amount = core.MustParseMoney("-1") }, core.ErrBadRequest},
		{"no date", func(t *core.Transaction) { t.Date = core.Date{} }, core.ErrBadRequest},
		{"no category", func(t *core.Transaction) { t.CategoryID = 0 }, core.ErrBadRequest},
		{"unknown user", func(t *core.Transaction) { t.UserID = 999 }, core.ErrNotFound},
		{"unknown category", func(t *core.Transaction) { t.CategoryID = 999 }, core.ErrNotFound},
		{"someone else's category", func(t *core.Transaction) { t.CategoryID = otherCat.ID }, core.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := f.newTx("10")
			tt.modify(&in)
			if _, err := f.svc.Create(ctx, in); !errors.Is(err, tt.kind) {
				t.Errorf("Create() error = %v, want %v", err, tt.kind)
			}
		})
	}
	if len(f.publisher.events) != 0 {
		t.Errorf("rejected creates published %d events", len(f.publisher.events))
	}
}

func TestTransactionService_PublishFailureKeepsChange(t *testing.T) {
	f := newTxFixture(t)
	f.publisher.err = errors.New("broker down")
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.newTx("5"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := f.svc.Get(ctx, created.ID, f.user.ID); err != nil {
		t.Errorf("transaction missing after failed publish: %v", err)
	}
}

func TestTransactionService_NilPublisher(t *testing.T) {
	f := newTxFixture(t)
	svc := NewTransactionService(f.store, nil)

	if _, err := svc.Create(context.Background(), f.newTx("5")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
}

func TestTransactionService_UpdateAndRemove(t *testing.T) {
	f := newTxFixture(t)
	ctx := context.Background()
	created, _ := f.svc.Create(ctx, f.newTx("100"))

	amount := core.MustParseMoney("7500")
	date := core.NewDate(2024, 9, 20)
	updated, err := f.svc.Update(ctx, created.ID, f.user.ID, core.TransactionPatch{
		CategoryID: &f.salary.ID,
		Amount:     &amount,
		Date:       &date,
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.CategoryName != "Salary" || updated.CategoryType != core.Income ||
		updated.Amount != amount || updated.Date.String() != "2024-09-20" || updated.Note != "september" {
		t.Errorf("Update() = %+v", updated)
	}

	zero := core.Money{}
	if _, err := f.svc.Update(ctx, created.ID, f.user.ID, core.TransactionPatch{Amount: &zero}); !errors.Is(err, core.ErrBadRequest) {
		t.Errorf("zero amount update error = %v, want ErrBadRequest", err)
	}
	missing := int64(999)
	if _, err := f.svc.Update(ctx, created.ID, f.user.ID, core.TransactionPatch{CategoryID: &missing}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("unknown category update error = %v, want ErrNotFound", err)
	}
	if _, err := f.svc.Update(ctx, created.ID, 999, core.TransactionPatch{}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("other user update error = %v, want ErrNotFound", err)
	}

	if err := f.svc.Remove(ctx, created.ID, f.user.ID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := f.svc.Remove(ctx, created.ID, f.user.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second Remove() error = %v, want ErrNotFound", err)
	}

	var actions []core.ActivityAction
	for _, e := range f.publisher.events {
		actions = append(actions, e.Action)
	}
	want := []core.ActivityAction{core.ActionTransactionCreated, core.ActionTransactionUpdated, core.ActionTransactionDeleted}
	if len(actions) != len(want) {
		t.Fatalf("actions = %v, want %v", actions, want)
	}
	for i := range want {
		if actions[i] != want[i] {
			t.Errorf("actions[%d] = %s, want %s", i, actions[i], want[i])
		}
	}
	if deleted := f.publisher.events[2]; deleted.Amount != amount {
		t.Errorf("delete event amount = %v, want %v", deleted.Amount, amount)
	}
}

func TestTransactionService_UpdateAfterCategoryDeleted(t *testing.T) {
	f := newTxFixture(t)
	ctx := context.Background()
	created, _ := f.svc.Create(ctx, f.newTx("100"))
	if err := f.store.DeleteCategory(ctx, f.rent.ID, f.user.ID); err != nil {
		t.Fatal(err)
	}

	note := "moved out"
	updated, err := f.svc.Update(ctx, created.ID, f.user.ID, core.TransactionPatch{Note: &note})
	if err != nil {
		t.Fatalf("note-only Update() error = %v", err)
	}
	if updated.CategoryID != 0 || updated.CategoryName != "" || updated.Note != "moved out" {
		t.Errorf("Update() = %+v", updated)
	}

	zero := int64(0)
	if _, err := f.svc.Update(ctx, created.ID, f.user.ID, core.TransactionPatch{CategoryID: &zero}); !errors.Is(err, core.ErrBadRequest) {
		t.Errorf("zero category update error = %v, want ErrBadRequest", err)
	}

	updated, err = f.svc.Update(ctx, created.ID, f.user.ID, core.TransactionPatch{CategoryID: &f.salary.ID})
	if err != nil {
		t.Fatalf("reassign Update() error = %v", err)
	}
	if updated.CategoryName != "Salary" {
		t.Errorf("reassigned category = %q, want Salary", updated.CategoryName)
	}
}

func TestTransactionService_FindAll(t *testing.T) {
	f := newTxFixture(t)
	ctx := context.Background()
	for _, amount := range []string{"1", "2", "3"} {
		if _, err := f.svc.Create(ctx, f.newTx(amount)); err != nil {
			t.Fatal(err)
		}
	}

	all, err := f.svc.FindAll(ctx, f.user.ID)
	if err != nil {
		t.Fatalf("FindAll() error = %v", err)
	}
	if len(all) != 3 || core.Sum(all).Cents != 600 {
		t.Errorf("FindAll() = %d transactions summing %v", len(all), core.Sum(all))
	}
	none, _ := f.svc.FindAll(ctx, 999)
	if none == nil || len(none) != 0 {
		t.Errorf("FindAll() for unknown user = %v, want empty", none)
	}
}

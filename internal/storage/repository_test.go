package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"expensetracker/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedUser(t *testing.T, repo *SQLiteRepository, email string) core.User {
	t.Helper()
	u, err := repo.CreateUser(context.Background(), core.User{Email: email, FirstName: "Ada", LastName: "Lovelace", PasswordHash: "hash"})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	return u
}

func seedCategory(t *testing.T, repo *SQLiteRepository, userID int64, name string, typ core.CategoryType) core.Category {
	t.Helper()
	c, err := repo.CreateCategory(context.Background(), core.Category{UserID: userID, Name: name, Type: typ})
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	return c
}

func seedTransaction(t *testing.T, repo *SQLiteRepository, userID, categoryID int64, amount string, date core.Date) core.Transaction {
	t.Helper()
	tx, err := repo.CreateTransaction(context.Background(), core.Transaction{
		UserID: userID, CategoryID: categoryID, Amount: core.MustParseMoney(amount), Date: date,
	})
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	return tx
}

func TestRunMigrations_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	for i := 0; i < 2; i++ {
		if err := RunMigrations(path); err != nil {
			t.Fatalf("RunMigrations() run %d error = %v", i+1, err)
		}
	}
}

func TestSQLiteRepository_Users(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	u := seedUser(t, repo, "ada@example.com")
	if u.ID == 0 {
		t.Fatal("CreateUser() did not assign an ID")
	}

	_, err := repo.CreateUser(ctx, core.User{Email: "ADA@example.com", FirstName: "A", LastName: "B"})
	if !errors.Is(err, core.ErrConflict) {
		t.Errorf("duplicate email error = %v, want ErrConflict", err)
	}

	byEmail, err := repo.GetUserByEmail(ctx, "Ada@Example.com")
	if err != nil || byEmail.ID != u.ID || byEmail.PasswordHash != "hash" {
		t.Errorf("GetUserByEmail() = %+v, %v", byEmail, err)
	}

	exists, err := repo.UserExists(ctx, u.ID)
	if err != nil || !exists {
		t.Errorf("UserExists(%d) = %v, %v", u.ID, exists, err)
	}
	if exists, _ := repo.UserExists(ctx, 999); exists {
		t.Error("UserExists(999) = true")
	}

	u.FirstName = "Augusta"
	updated, err := repo.UpdateUser(ctx, u)
	if err != nil || updated.FirstName != "Augusta" {
		t.Errorf("UpdateUser() = %+v, %v", updated, err)
	}

	if _, err := repo.GetUser(ctx, 999); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetUser(999) error = %v, want ErrNotFound", err)
	}
	if err := repo.DeleteUser(ctx, 999); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("DeleteUser(999) error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteRepository_DeleteUserCascades(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	u := seedUser(t, repo, "ada@example.com")
	c := seedCategory(t, repo, u.ID, "Rent", core.Expense)
	seedTransaction(t, repo, u.ID, c.ID, "1200", core.NewDate(2024, 9, 19))
	if err := repo.RecordActivity(ctx, core.ActivityEvent{ID: "e1", UserID: u.ID, Action: core.ActionTransactionCreated, Date: core.NewDate(2024, 9, 19), OccurredAt: time.Now()}); err != nil {
		t.Fatalf("RecordActivity() error = %v", err)
	}

	if err := repo.DeleteUser(ctx, u.ID); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}

	cats, _ := repo.ListCategories(ctx, u.ID)
	txs, _ := repo.ListTransactions(ctx, u.ID)
	events, _ := repo.ListActivity(ctx, u.ID, 10)
	if len(cats) != 0 || len(txs) != 0 || len(events) != 0 {
		t.Errorf("leftovers after delete: %d categories, %d transactions, %d events", len(cats), len(txs), len(events))
	}
}

func TestSQLiteRepository_Categories(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	u := seedUser(t, repo, "ada@example.com")
	other := seedUser(t, repo, "bob@example.com")

	c := seedCategory(t, repo, u.ID, "Rent", core.Expense)

	if _, err := repo.CreateCategory(ctx, core.Category{UserID: 999, Name: "X", Type: core.Income}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("CreateCategory for unknown user error = %v, want ErrNotFound", err)
	}
	if _, err := repo.GetCategory(ctx, c.ID, other.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetCategory by another user error = %v, want ErrNotFound", err)
	}

	c.Name = "Housing"
	updated, err := repo.UpdateCategory(ctx, c)
	if err != nil || updated.Name != "Housing" {
		t.Errorf("UpdateCategory() = %+v, %v", updated, err)
	}
	if _, err := repo.UpdateCategory(ctx, core.Category{ID: c.ID, UserID: other.ID, Name: "Mine", Type: core.Income}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("UpdateCategory by another user error = %v, want ErrNotFound", err)
	}

	if err := repo.DeleteCategory(ctx, c.ID, other.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("DeleteCategory by another user error = %v, want ErrNotFound", err)
	}
	if err := repo.DeleteCategory(ctx, c.ID, u.ID); err != nil {
		t.Fatalf("DeleteCategory() error = %v", err)
	}
	if cats, _ := repo.ListCategories(ctx, u.ID); len(cats) != 0 {
		t.Errorf("ListCategories() after delete = %+v", cats)
	}
}

func TestSQLiteRepository_TransactionsJoinAndWindows(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	u := seedUser(t, repo, "ada@example.com")
	salary := seedCategory(t, repo, u.ID, "Salary", core.Income)
	rent := seedCategory(t, repo, u.ID, "Rent", core.Expense)

	seedTransaction(t, repo, u.ID, salary.ID, "7500", core.NewDate(2024, 9, 18))
	created := seedTransaction(t, repo, u.ID, rent.ID, "1200.50", core.NewDate(2024, 9, 19))
	seedTransaction(t, repo, u.ID, rent.ID, "10", core.NewDate(2024, 9, 24))
	seedTransaction(t, repo, u.ID, rent.ID, "99", core.NewDate(2024, 9, 25))

	if created.CategoryName != "Rent" || created.CategoryType != core.Expense || created.Amount.String() != "1200.50" {
		t.Errorf("created transaction = %+v", created)
	}

	inRange, err := repo.FindByUserInRange(ctx, u.ID, core.NewDate(2024, 9, 18), core.NewDate(2024, 9, 24))
	if err != nil {
		t.Fatalf("FindByUserInRange() error = %v", err)
	}
	if len(inRange) != 3 {
		t.Fatalf("FindByUserInRange() returned %d rows, want 3 (both ends inclusive)", len(inRange))
	}
	if inRange[0].Date != core.NewDate(2024, 9, 18) || inRange[0].CategoryType != core.Income {
		t.Errorf("first row = %+v", inRange[0])
	}

	recent, err := repo.FindRecentByUser(ctx, u.ID, 2)
	if err != nil {
		t.Fatalf("FindRecentByUser() error = %v", err)
	}
	if len(recent) != 2 || recent[0].Date != core.NewDate(2024, 9, 25) || recent[1].Date != core.NewDate(2024, 9, 24) {
		t.Errorf("FindRecentByUser() = %+v", recent)
	}

	// Deleting a category detaches its transactions instead of removing them.
	if err := repo.DeleteCategory(ctx, rent.ID, u.ID); err != nil {
		t.Fatalf("DeleteCategory() error = %v", err)
	}
	detached, err := repo.GetTransaction(ctx, created.ID, u.ID)
	if err != nil {
		t.Fatalf("GetTransaction() error = %v", err)
	}
	if detached.CategoryID != 0 || detached.CategoryName != "" || detached.CategoryType != "" {
		t.Errorf("detached transaction = %+v", detached)
	}
}

func TestSQLiteRepository_TransactionOwnership(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	u := seedUser(t, repo, "ada@example.com")
	other := seedUser(t, repo, "bob@example.com")
	c := seedCategory(t, repo, u.ID, "Rent", core.Expense)
	tx := seedTransaction(t, repo, u.ID, c.ID, "5", core.NewDate(2024, 9, 19))

	if _, err := repo.GetTransaction(ctx, tx.ID, other.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetTransaction by another user error = %v", err)
	}

	tx.Note = "monthly"
	tx.Amount = core.MustParseMoney("6")
	updated, err := repo.UpdateTransaction(ctx, tx)
	if err != nil || updated.Note != "monthly" || updated.Amount.Cents != 600 {
		t.Errorf("UpdateTransaction() = %+v, %v", updated, err)
	}

	tx.UserID = other.ID
	if _, err := repo.UpdateTransaction(ctx, tx); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("UpdateTransaction by another user error = %v", err)
	}
	if err := repo.DeleteTransaction(ctx, tx.ID, other.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("DeleteTransaction by another user error = %v", err)
	}
	if err := repo.DeleteTransaction(ctx, tx.ID, u.ID); err != nil {
		t.Errorf("DeleteTransaction() error = %v", err)
	}
}

func TestSQLiteRepository_Activity(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	base := time.Date(2024, 9, 18, 10, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		e := core.ActivityEvent{
			ID:            id,
			Action:        core.ActionTransactionCreated,
			UserID:        1,
			TransactionID: int64(i + 1),
			Amount:        core.MustParseMoney("12.34"),
			Date:          core.NewDate(2024, 9, 18),
			OccurredAt:    base.Add(time.Duration(i) * 500 * time.Millisecond),
		}
		if err := repo.RecordActivity(ctx, e); err != nil {
			t.Fatalf("RecordActivity(%s) error = %v", id, err)
		}
	}
	// Redelivery of the same event is ignored.
	if err := repo.RecordActivity(ctx, core.ActivityEvent{ID: "a", UserID: 1, OccurredAt: base}); err != nil {
		t.Fatalf("RecordActivity duplicate error = %v", err)
	}

	events, err := repo.ListActivity(ctx, 1, 2)
	if err != nil {
		t.Fatalf("ListActivity() error = %v", err)
	}
	if len(events) != 2 || events[0].ID != "c" || events[1].ID != "b" {
		t.Fatalf("ListActivity() = %+v", events)
	}
	if events[0].Amount.String() != "12.34" || !events[0].OccurredAt.Equal(base.Add(time.Second)) {
		t.Errorf("event fields = %+v", events[0])
	}

	all, _ := repo.ListActivity(ctx, 1, 10)
	if len(all) != 3 {
		t.Errorf("ListActivity() = %d events, want 3", len(all))
	}
}

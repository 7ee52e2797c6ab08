// Package storage is the SQLite implementation of the repository ports.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"expensetracker/internal/core"
)

// Fixed width so that text ordering matches time ordering.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

// NewSQLiteRepository opens the database at dbPath, creating its directory,
// and applies pending migrations.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{db: db, queries: New(db)}, nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func sqliteCode(err error) int {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code()
	}
	return 0
}

func isUniqueViolation(err error) bool {
	return sqliteCode(err) == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

func isForeignKeyViolation(err error) bool {
	return sqliteCode(err) == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
}

// Users

func (r *SQLiteRepository) UserExists(ctx context.Context, userID int64) (bool, error) {
	exists, err := r.queries.UserExists(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("check user %d: %w", userID, err)
	}
	return exists, nil
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	row, err := r.queries.CreateUser(ctx, userToRow(u))
	if isUniqueViolation(err) {
		return core.User{}, core.ConflictError("Duplicate email: " + u.Email)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	slog.InfoContext(ctx, "User saved to SQLite", "user_id", row.ID, "is_oauth", row.IsOAuth)
	return rowToUser(row), nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id int64) (core.User, error) {
	row, err := r.queries.GetUser(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.NotFoundError("user", id)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user %d: %w", id, err)
	}
	return rowToUser(row), nil
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	row, err := r.queries.GetUserByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.NotFoundError("user", email)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return rowToUser(row), nil
}

func (r *SQLiteRepository) UpdateUser(ctx context.Context, u core.User) (core.User, error) {
	row, err := r.queries.UpdateUser(ctx, userToRow(u))
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.NotFoundError("user", u.ID)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("update user %d: %w", u.ID, err)
	}
	return rowToUser(row), nil
}

// DeleteUser removes the user. Categories and transactions go with it through
// ON DELETE CASCADE; activity rows have no foreign key and are removed here.
func (r *SQLiteRepository) DeleteUser(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete user: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	n, err := q.DeleteUser(ctx, id)
	if err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	if n == 0 {
		return core.NotFoundError("user", id)
	}
	if err := q.DeleteUserActivity(ctx, id); err != nil {
		return fmt.Errorf("delete activity of user %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete user: %w", err)
	}
	slog.InfoContext(ctx, "User deleted from SQLite", "user_id", id)
	return nil
}

// Categories

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	row, err := r.queries.CreateCategory(ctx, categoryRow{UserID: c.UserID, Name: c.Name, Type: string(c.Type)})
	if isForeignKeyViolation(err) {
		return core.Category{}, core.NotFoundError("user", c.UserID)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return rowToCategory(row), nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, userID int64) ([]core.Category, error) {
	rows, err := r.queries.ListCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories of user %d: %w", userID, err)
	}
	out := make([]core.Category, 0, len(rows))
	for _, row := range rows {
		out = append(out, rowToCategory(row))
	}
	return out, nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id, userID int64) (core.Category, error) {
	row, err := r.queries.GetCategory(ctx, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.NotFoundError("category", id)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %d: %w", id, err)
	}
	return rowToCategory(row), nil
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	row, err := r.queries.UpdateCategory(ctx, categoryRow{ID: c.ID, UserID: c.UserID, Name: c.Name, Type: string(c.Type)})
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.NotFoundError("category", c.ID)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("update category %d: %w", c.ID, err)
	}
	return rowToCategory(row), nil
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id, userID int64) error {
	n, err := r.queries.DeleteCategory(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	if n == 0 {
		return core.NotFoundError("category", id)
	}
	return nil
}

// Transactions

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	id, err := r.queries.CreateTransaction(ctx, transactionToRow(t))
	if isForeignKeyViolation(err) {
		return core.Transaction{}, core.NotFoundError("user", t.UserID)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"transaction_id", id,
		"user_id", t.UserID,
		"amount_cents", t.Amount.Cents,
		"date", t.Date.String())

	return r.GetTransaction(ctx, id, t.UserID)
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id, userID int64) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.NotFoundError("transaction", id)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return rowToTransaction(row)
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions of user %d: %w", userID, err)
	}
	return rowsToTransactions(rows)
}

func (r *SQLiteRepository) FindByUserInRange(ctx context.Context, userID int64, start, end core.Date) ([]core.Transaction, error) {
	rows, err := r.queries.TransactionsInRange(ctx, userID, start.String(), end.String())
	if err != nil {
		return nil, fmt.Errorf("transactions of user %d in %s..%s: %w", userID, start, end, err)
	}
	return rowsToTransactions(rows)
}

func (r *SQLiteRepository) FindRecentByUser(ctx context.Context, userID int64, limit int) ([]core.Transaction, error) {
	rows, err := r.queries.RecentTransactions(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent transactions of user %d: %w", userID, err)
	}
	return rowsToTransactions(rows)
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	n, err := r.queries.UpdateTransaction(ctx, transactionToRow(t))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %d: %w", t.ID, err)
	}
	if n == 0 {
		return core.Transaction{}, core.NotFoundError("transaction", t.ID)
	}
	return r.GetTransaction(ctx, t.ID, t.UserID)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id, userID int64) error {
	n, err := r.queries.DeleteTransaction(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	if n == 0 {
		return core.NotFoundError("transaction", id)
	}
	return nil
}

// Activity

func (r *SQLiteRepository) RecordActivity(ctx context.Context, e core.ActivityEvent) error {
	err := r.queries.InsertActivity(ctx, activityRow{
		ID:            e.ID,
		UserID:        e.UserID,
		TransactionID: e.TransactionID,
		Action:        string(e.Action),
		AmountCents:   e.Amount.Cents,
		Date:          e.Date.String(),
		OccurredAt:    e.OccurredAt.UTC().Format(timestampLayout),
	})
	if err != nil {
		return fmt.Errorf("record activity %s: %w", e.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) ListActivity(ctx context.Context, userID int64, limit int) ([]core.ActivityEvent, error) {
	rows, err := r.queries.ListActivity(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity of user %d: %w", userID, err)
	}
	out := make([]core.ActivityEvent, 0, len(rows))
	for _, row := range rows {
		date, err := core.ParseDate(row.Date)
		if err != nil {
			return nil, fmt.Errorf("activity %s: %w", row.ID, err)
		}
		occurred, err := time.Parse(time.RFC3339Nano, row.OccurredAt)
		if err != nil {
			return nil, fmt.Errorf("activity %s: parse occurred_at: %w", row.ID, err)
		}
		out = append(out, core.ActivityEvent{
			ID:            row.ID,
			Action:        core.ActivityAction(row.Action),
			UserID:        row.UserID,
			TransactionID: row.TransactionID,
			Amount:        core.Money{Cents: row.AmountCents},
			Date:          date,
			OccurredAt:    occurred,
		})
	}
	return out, nil
}

// Row mapping

func userToRow(u core.User) userRow {
	return userRow{
		ID:           u.ID,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		PasswordHash: u.PasswordHash,
		IsOAuth:      u.IsOAuth,
		OAuthID:      u.OAuthID,
		OAuthPicture: u.OAuthPicture,
	}
}

func rowToUser(row userRow) core.User {
	return core.User{
		ID:           row.ID,
		Email:        row.Email,
		FirstName:    row.FirstName,
		LastName:     row.LastName,
		PasswordHash: row.PasswordHash,
		IsOAuth:      row.IsOAuth,
		OAuthID:      row.OAuthID,
		OAuthPicture: row.OAuthPicture,
	}
}

func rowToCategory(row categoryRow) core.Category {
	return core.Category{ID: row.ID, UserID: row.UserID, Name: row.Name, Type: core.CategoryType(row.Type)}
}

func transactionToRow(t core.Transaction) transactionRow {
	return transactionRow{
		ID:          t.ID,
		UserID:      t.UserID,
		CategoryID:  sql.NullInt64{Int64: t.CategoryID, Valid: t.CategoryID > 0},
		AmountCents: t.Amount.Cents,
		Date:        t.Date.String(),
		Note:        t.Note,
	}
}

func rowToTransaction(row transactionRow) (core.Transaction, error) {
	date, err := core.ParseDate(row.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", row.ID, err)
	}
	return core.Transaction{
		ID:           row.ID,
		CategoryID:   row.CategoryID.Int64,
		UserID:       row.UserID,
		Amount:       core.Money{Cents: row.AmountCents},
		Date:         date,
		Note:         row.Note,
		CategoryName: row.CategoryName.String,
		CategoryType: core.CategoryType(row.CategoryType.String),
	}, nil
}

func rowsToTransactions(rows []transactionRow) ([]core.Transaction, error) {
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := rowToTransaction(row)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

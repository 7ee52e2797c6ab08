package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries holds the SQL statements of the repository, one method per query.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type userRow struct {
	ID           int64
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	IsOAuth      bool
	OAuthID      string
	OAuthPicture string
}

const userColumns = `id, email, first_name, last_name, password_hash, is_oauth, oauth_id, oauth_picture`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (userRow, error) {
	var u userRow
	err := s.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash, &u.IsOAuth, &u.OAuthID, &u.OAuthPicture)
	return u, err
}

const userExists = `SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)`

func (q *Queries) UserExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx, userExists, id).Scan(&exists)
	return exists, err
}

const createUser = `INSERT INTO users (email, first_name, last_name, password_hash, is_oauth, oauth_id, oauth_picture)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING ` + userColumns

func (q *Queries) CreateUser(ctx context.Context, u userRow) (userRow, error) {
	return scanUser(q.db.QueryRowContext(ctx, createUser,
		u.Email, u.FirstName, u.LastName, u.PasswordHash, u.IsOAuth, u.OAuthID, u.OAuthPicture))
}

const getUser = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

func (q *Queries) GetUser(ctx context.Context, id int64) (userRow, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUser, id))
}

const getUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE email = ?`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (userRow, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByEmail, email))
}

const updateUser = `UPDATE users
SET first_name = ?, last_name = ?, password_hash = ?, is_oauth = ?, oauth_id = ?, oauth_picture = ?
WHERE id = ?
RETURNING ` + userColumns

func (q *Queries) UpdateUser(ctx context.Context, u userRow) (userRow, error) {
	return scanUser(q.db.QueryRowContext(ctx, updateUser,
		u.FirstName, u.LastName, u.PasswordHash, u.IsOAuth, u.OAuthID, u.OAuthPicture, u.ID))
}

const deleteUser = `DELETE FROM users WHERE id = ?`

func (q *Queries) DeleteUser(ctx context.Context, id int64) (int64, error) {
	return affected(q.db.ExecContext(ctx, deleteUser, id))
}

const deleteUserActivity = `DELETE FROM activity_events WHERE user_id = ?`

func (q *Queries) DeleteUserActivity(ctx context.Context, userID int64) error {
	_, err := q.db.ExecContext(ctx, deleteUserActivity, userID)
	return err
}

type categoryRow struct {
	ID     int64
	UserID int64
	Name   string
	Type   string
}

const categoryColumns = `id, user_id, name, type`

func scanCategory(s rowScanner) (categoryRow, error) {
	var c categoryRow
	err := s.Scan(&c.ID, &c.UserID, &c.Name, &c.Type)
	return c, err
}

const createCategory = `INSERT INTO categories (user_id, name, type) VALUES (?, ?, ?)
RETURNING ` + categoryColumns

func (q *Queries) CreateCategory(ctx context.Context, c categoryRow) (categoryRow, error) {
	return scanCategory(q.db.QueryRowContext(ctx, createCategory, c.UserID, c.Name, c.Type))
}

const listCategories = `SELECT ` + categoryColumns + ` FROM categories WHERE user_id = ? ORDER BY id`

func (q *Queries) ListCategories(ctx context.Context, userID int64) ([]categoryRow, error) {
	rows, err := q.db.QueryContext(ctx, listCategories, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []categoryRow
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const getCategory = `SELECT ` + categoryColumns + ` FROM categories WHERE id = ? AND user_id = ?`

func (q *Queries) GetCategory(ctx context.Context, id, userID int64) (categoryRow, error) {
	return scanCategory(q.db.QueryRowContext(ctx, getCategory, id, userID))
}

const updateCategory = `UPDATE categories SET name = ?, type = ? WHERE id = ? AND user_id = ?
RETURNING ` + categoryColumns

func (q *Queries) UpdateCategory(ctx context.Context, c categoryRow) (categoryRow, error) {
	return scanCategory(q.db.QueryRowContext(ctx, updateCategory, c.Name, c.Type, c.ID, c.UserID))
}

const deleteCategory = `DELETE FROM categories WHERE id = ? AND user_id = ?`

func (q *Queries) DeleteCategory(ctx context.Context, id, userID int64) (int64, error) {
	return affected(q.db.ExecContext(ctx, deleteCategory, id, userID))
}

type transactionRow struct {
	ID           int64
	UserID       int64
	CategoryID   sql.NullInt64
	AmountCents  int64
	Date         string
	Note         string
	CategoryName sql.NullString
	CategoryType sql.NullString
}

// Transactions are always read joined with their category; a detached or
// deleted category leaves name and type NULL.
const transactionSelect = `SELECT t.id, t.user_id, t.category_id, t.amount_cents, t.date, t.note, c.name, c.type
FROM transactions t
LEFT JOIN categories c ON c.id = t.category_id`

func scanTransaction(s rowScanner) (transactionRow, error) {
	var t transactionRow
	err := s.Scan(&t.ID, &t.UserID, &t.CategoryID, &t.AmountCents, &t.Date, &t.Note, &t.CategoryName, &t.CategoryType)
	return t, err
}

func (q *Queries) queryTransactions(ctx context.Context, query string, args ...any) ([]transactionRow, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []transactionRow
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

const createTransaction = `INSERT INTO transactions (user_id, category_id, amount_cents, date, note)
VALUES (?, ?, ?, ?, ?)
RETURNING id`

func (q *Queries) CreateTransaction(ctx context.Context, t transactionRow) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, createTransaction, t.UserID, t.CategoryID, t.AmountCents, t.Date, t.Note).Scan(&id)
	return id, err
}

const getTransaction = transactionSelect + ` WHERE t.id = ? AND t.user_id = ?`

func (q *Queries) GetTransaction(ctx context.Context, id, userID int64) (transactionRow, error) {
	return scanTransaction(q.db.QueryRowContext(ctx, getTransaction, id, userID))
}

const listTransactions = transactionSelect + ` WHERE t.user_id = ? ORDER BY t.date, t.id`

func (q *Queries) ListTransactions(ctx context.Context, userID int64) ([]transactionRow, error) {
	return q.queryTransactions(ctx, listTransactions, userID)
}

// Dates are stored as YYYY-MM-DD text, so string comparison is date order.
const transactionsInRange = transactionSelect + ` WHERE t.user_id = ? AND t.date BETWEEN ? AND ? ORDER BY t.date, t.id`

func (q *Queries) TransactionsInRange(ctx context.Context, userID int64, start, end string) ([]transactionRow, error) {
	return q.queryTransactions(ctx, transactionsInRange, userID, start, end)
}

const recentTransactions = transactionSelect + ` WHERE t.user_id = ? ORDER BY t.date DESC, t.id DESC LIMIT ?`

func (q *Queries) RecentTransactions(ctx context.Context, userID int64, limit int) ([]transactionRow, error) {
	return q.queryTransactions(ctx, recentTransactions, userID, limit)
}

const updateTransaction = `UPDATE transactions SET category_id = ?, amount_cents = ?, date = ?, note = ?
WHERE id = ? AND user_id = ?`

func (q *Queries) UpdateTransaction(ctx context.Context, t transactionRow) (int64, error) {
	return affected(q.db.ExecContext(ctx, updateTransaction, t.CategoryID, t.AmountCents, t.Date, t.Note, t.ID, t.UserID))
}

const deleteTransaction = `DELETE FROM transactions WHERE id = ? AND user_id = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, id, userID int64) (int64, error) {
	return affected(q.db.ExecContext(ctx, deleteTransaction, id, userID))
}

type activityRow struct {
	ID            string
	UserID        int64
	TransactionID int64
	Action        string
	AmountCents   int64
	Date          string
	OccurredAt    string
}

const insertActivity = `INSERT INTO activity_events (id, user_id, transaction_id, action, amount_cents, date, occurred_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO NOTHING`

func (q *Queries) InsertActivity(ctx context.Context, a activityRow) error {
	_, err := q.db.ExecContext(ctx, insertActivity, a.ID, a.UserID, a.TransactionID, a.Action, a.AmountCents, a.Date, a.OccurredAt)
	return err
}

const listActivity = `SELECT id, user_id, transaction_id, action, amount_cents, date, occurred_at
FROM activity_events WHERE user_id = ?
ORDER BY occurred_at DESC, rowid DESC LIMIT ?`

func (q *Queries) ListActivity(ctx context.Context, userID int64, limit int) ([]activityRow, error) {
	rows, err := q.db.QueryContext(ctx, listActivity, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []activityRow
	for rows.Next() {
		var a activityRow
		if err := rows.Scan(&a.ID, &a.UserID, &a.TransactionID, &a.Action, &a.AmountCents, &a.Date, &a.OccurredAt); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func affected(res sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

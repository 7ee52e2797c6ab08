package ports

import (
	"context"

	"expensetracker/internal/core"
)

// Ports for outbound adapters. Lookups that miss return an error matching
// core.ErrNotFound.
type (
	// TransactionReader is everything the dashboard needs from storage.
	TransactionReader interface {
		UserExists(ctx context.Context, userID int64) (bool, error)
		// FindByUserInRange returns the user's transactions dated within
		// [start, end], both ends inclusive, joined with their category.
		FindByUserInRange(ctx context.Context, userID int64, start, end core.Date) ([]core.Transaction, error)
		// FindRecentByUser returns at most limit transactions, newest date first.
		FindRecentByUser(ctx context.Context, userID int64, limit int) ([]core.Transaction, error)
	}

	UserStore interface {
		UserExists(ctx context.Context, userID int64) (bool, error)
		CreateUser(ctx context.Context, u core.User) (core.User, error)
		GetUser(ctx context.Context, id int64) (core.User, error)
		GetUserByEmail(ctx context.Context, email string) (core.User, error)
		UpdateUser(ctx context.Context, u core.User) (core.User, error)
		DeleteUser(ctx context.Context, id int64) error
	}

	CategoryStore interface {
		CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
		ListCategories(ctx context.Context, userID int64) ([]core.Category, error)
		GetCategory(ctx context.Context, id, userID int64) (core.Category, error)
		UpdateCategory(ctx context.Context, c core.Category) (core.Category, error)
		DeleteCategory(ctx context.Context, id, userID int64) error
	}

	TransactionStore interface {
		TransactionReader
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error)
		GetTransaction(ctx context.Context, id, userID int64) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, id, userID int64) error
	}

	ActivityStore interface {
		// RecordActivity ignores events whose ID was already recorded.
		RecordActivity(ctx context.Context, e core.ActivityEvent) error
		ListActivity(ctx context.Context, userID int64, limit int) ([]core.ActivityEvent, error)
	}

	ActivityPublisher interface {
		PublishActivity(ctx context.Context, e core.ActivityEvent) error
	}

	// Store is a complete storage backend.
	Store interface {
		UserStore
		CategoryStore
		TransactionStore
		ActivityStore
		Ping(ctx context.Context) error
		Close() error
	}
)

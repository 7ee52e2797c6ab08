package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"expensetracker/internal/core"
)

// Store keeps everything in process memory. It implements ports.Store and is
// meant for development and tests.
type Store struct {
	mu         sync.Mutex
	nextID     int64
	users      []core.User
	categories []core.Category
	items      []core.Transaction
	activity   []core.ActivityEvent
}

func New() *Store {
	return &Store{}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

func (s *Store) UserExists(_ context.Context, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userIndex(userID) >= 0, nil
}

func (s *Store) userIndex(id int64) int {
	return slices.IndexFunc(s.users, func(u core.User) bool { return u.ID == id })
}

func (s *Store) CreateUser(_ context.Context, u core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return core.User{}, core.ConflictError("Duplicate email: " + u.Email)
		}
	}
	u.ID = s.id()
	u.Categories = nil
	s.users = append(s.users, u)
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id int64) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.userIndex(id)
	if i < 0 {
		return core.User{}, core.NotFoundError("user", id)
	}
	return s.users[i], nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return core.User{}, core.NotFoundError("user", email)
}

func (s *Store) UpdateUser(_ context.Context, u core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.userIndex(u.ID)
	if i < 0 {
		return core.User{}, core.NotFoundError("user", u.ID)
	}
	s.users[i] = u
	return u, nil
}

// DeleteUser removes the user together with their categories, transactions
// and activity.
func (s *Store) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.userIndex(id)
	if i < 0 {
		return core.NotFoundError("user", id)
	}
	s.users = slices.Delete(s.users, i, i+1)
	s.categories = slices.DeleteFunc(s.categories, func(c core.Category) bool { return c.UserID == id })
	s.items = slices.DeleteFunc(s.items, func(t core.Transaction) bool { return t.UserID == id })
	s.activity = slices.DeleteFunc(s.activity, func(e core.ActivityEvent) bool { return e.UserID == id })
	return nil
}

func (s *Store) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userIndex(c.UserID) < 0 {
		return core.Category{}, core.NotFoundError("user", c.UserID)
	}
	c.ID = s.id()
	s.categories = append(s.categories, c)
	return c, nil
}

func (s *Store) ListCategories(_ context.Context, userID int64) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.Category{}
	for _, c := range s.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Store) categoryIndex(id, userID int64) int {
	return slices.IndexFunc(s.categories, func(c core.Category) bool { return c.ID == id && c.UserID == userID })
}

func (s *Store) GetCategory(_ context.Context, id, userID int64) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.categoryIndex(id, userID)
	if i < 0 {
		return core.Category{}, core.NotFoundError("category", id)
	}
	return s.categories[i], nil
}

func (s *Store) UpdateCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.categoryIndex(c.ID, c.UserID)
	if i < 0 {
		return core.Category{}, core.NotFoundError("category", c.ID)
	}
	s.categories[i] = c
	return c, nil
}

// DeleteCategory detaches the category's transactions rather than removing
// them, like the SQL foreign key does.
func (s *Store) DeleteCategory(_ context.Context, id, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.categoryIndex(id, userID)
	if i < 0 {
		return core.NotFoundError("category", id)
	}
	s.categories = slices.Delete(s.categories, i, i+1)
	for j := range s.items {
		if s.items[j].CategoryID == id {
			s.items[j].CategoryID = 0
		}
	}
	return nil
}

// joined fills in the category name and type the way a LEFT JOIN would.
func (s *Store) joined(t core.Transaction) core.Transaction {
	t.CategoryName, t.CategoryType = "", ""
	for _, c := range s.categories {
		if c.ID == t.CategoryID {
			t.CategoryName, t.CategoryType = c.Name, c.Type
			break
		}
	}
	return t
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userIndex(t.UserID) < 0 {
		return core.Transaction{}, core.NotFoundError("user", t.UserID)
	}
	t.ID = s.id()
	t.CategoryName, t.CategoryType = "", ""
	s.items = append(s.items, t)
	return s.joined(t), nil
}

func (s *Store) selectTransactions(keep func(core.Transaction) bool) []core.Transaction {
	out := []core.Transaction{}
	for _, t := range s.items {
		if keep(t) {
			out = append(out, s.joined(t))
		}
	}
	slices.SortStableFunc(out, func(a, b core.Transaction) int { return a.Date.Compare(b.Date.Time) })
	return out
}

func (s *Store) ListTransactions(_ context.Context, userID int64) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectTransactions(func(t core.Transaction) bool { return t.UserID == userID }), nil
}

func (s *Store) FindByUserInRange(_ context.Context, userID int64, start, end core.Date) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectTransactions(func(t core.Transaction) bool {
		return t.UserID == userID && !t.Date.Before(start.Time) && !t.Date.After(end.Time)
	}), nil
}

func (s *Store) FindRecentByUser(_ context.Context, userID int64, limit int) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.selectTransactions(func(t core.Transaction) bool { return t.UserID == userID })
	slices.Reverse(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) transactionIndex(id, userID int64) int {
	return slices.IndexFunc(s.items, func(t core.Transaction) bool { return t.ID == id && t.UserID == userID })
}

func (s *Store) GetTransaction(_ context.Context, id, userID int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.transactionIndex(id, userID)
	if i < 0 {
		return core.Transaction{}, core.NotFoundError("transaction", id)
	}
	return s.joined(s.items[i]), nil
}

func (s *Store) UpdateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.transactionIndex(t.ID, t.UserID)
	if i < 0 {
		return core.Transaction{}, core.NotFoundError("transaction", t.ID)
	}
	t.CategoryName, t.CategoryType = "", ""
	s.items[i] = t
	return s.joined(t), nil
}

func (s *Store) DeleteTransaction(_ context.Context, id, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.transactionIndex(id, userID)
	if i < 0 {
		return core.NotFoundError("transaction", id)
	}
	s.items = slices.Delete(s.items, i, i+1)
	return nil
}

func (s *Store) RecordActivity(_ context.Context, e core.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.ContainsFunc(s.activity, func(x core.ActivityEvent) bool { return x.ID == e.ID }) {
		return nil
	}
	s.activity = append(s.activity, e)
	return nil
}

func (s *Store) ListActivity(_ context.Context, userID int64, limit int) ([]core.ActivityEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.ActivityEvent{}
	for i := len(s.activity) - 1; i >= 0 && len(out) < limit; i-- {
		if s.activity[i].UserID == userID {
			out = append(out, s.activity[i])
		}
	}
	return out, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"expensetracker/internal/auth"
	"expensetracker/internal/core"
	"expensetracker/internal/ports"
)

const invalidCredentials = "Invalid email/password"

// DefaultCategories are created for every new account.
var DefaultCategories = []core.Category{
	{Name: "Salary", Type: core.Income},
	{Name: "Freelance", Type: core.Income},
	{Name: "Rent", Type: core.Expense},
	{Name: "Groceries", Type: core.Expense},
	{Name: "Transport", Type: core.Expense},
	{Name: "Utilities", Type: core.Expense},
	{Name: "Entertainment", Type: core.Expense},
	{Name: "Health", Type: core.Expense},
}

type accountStore interface {
	ports.UserStore
	ports.CategoryStore
}

// UserService manages accounts and credentials.
type UserService struct {
	store  accountStore
	hasher *auth.PasswordHasher
	// invalidate drops cached category lists when a user's categories change
	// outside CategoryService.
	invalidate func(userID int64)
}

func NewUserService(store accountStore, hasher *auth.PasswordHasher) *UserService {
	return &UserService{store: store, hasher: hasher, invalidate: func(int64) {}}
}

// OnCategoriesChanged registers a hook called after seeding or removing a
// user's categories.
func (s *UserService) OnCategoriesChanged(fn func(userID int64)) {
	if fn != nil {
		s.invalidate = fn
	}
}

func (s *UserService) Register(ctx context.Context, email, password, firstName, lastName string) (core.User, error) {
	email = strings.TrimSpace(email)
	if err := core.ValidateRegistration(email, password, firstName, lastName); err != nil {
		return core.User{}, core.BadRequestError(err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return core.User{}, err
	}

	u, err := s.store.CreateUser(ctx, core.User{
		Email:        email,
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		PasswordHash: hash,
	})
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}

	if err := s.seedCategories(ctx, &u); err != nil {
		return core.User{}, err
	}

	slog.InfoContext(ctx, "User registered", "user_id", u.ID)
	return u, nil
}

// Authenticate returns the password user matching the credentials. Unknown
// emails and wrong passwords are indistinguishable to the caller.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (core.User, error) {
	u, err := s.store.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, core.ErrNotFound) {
		return core.User{}, core.UnauthorizedError(invalidCredentials)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user by email: %w", err)
	}
	if !s.hasher.Check(u.PasswordHash, password) {
		return core.User{}, core.UnauthorizedError(invalidCredentials)
	}
	return u, nil
}

// OAuth signs in a user authenticated by an external provider. A known email
// with the same provider id refreshes the stored profile; an unknown email
// creates a new account. isNew reports which of the two happened.
func (s *UserService) OAuth(ctx context.Context, p core.OAuthProfile) (u core.User, isNew bool, err error) {
	p.Email = strings.TrimSpace(p.Email)
	if err := core.ValidateEmail(p.Email); err != nil {
		return core.User{}, false, core.BadRequestError(err)
	}
	if strings.TrimSpace(p.OAuthID) == "" {
		return core.User{}, false, core.BadRequestError(errors.New("oauthId is required"))
	}

	existing, err := s.store.GetUserByEmail(ctx, p.Email)
	switch {
	case err == nil:
		if existing.OAuthID != p.OAuthID {
			return core.User{}, false, core.ConflictError("Duplicate email: " + p.Email)
		}
		existing.FirstName = p.FirstName
		existing.LastName = p.LastName
		existing.OAuthPicture = p.OAuthPicture
		existing.IsOAuth = true
		u, err = s.store.UpdateUser(ctx, existing)
		if err != nil {
			return core.User{}, false, fmt.Errorf("update oauth user: %w", err)
		}
		return u, false, nil
	case !errors.Is(err, core.ErrNotFound):
		return core.User{}, false, fmt.Errorf("get user by email: %w", err)
	}

	u, err = s.store.CreateUser(ctx, core.User{
		Email:        p.Email,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		IsOAuth:      true,
		OAuthID:      p.OAuthID,
		OAuthPicture: p.OAuthPicture,
	})
	if err != nil {
		return core.User{}, false, fmt.Errorf("create oauth user: %w", err)
	}
	if err := s.seedCategories(ctx, &u); err != nil {
		return core.User{}, false, err
	}

	slog.InfoContext(ctx, "OAuth user created", "user_id", u.ID, "provider", p.OAuthProvider)
	return u, true, nil
}

func (s *UserService) seedCategories(ctx context.Context, u *core.User) error {
	u.Categories = make([]core.Category, 0, len(DefaultCategories))
	for _, c := range DefaultCategories {
		c.UserID = u.ID
		created, err := s.store.CreateCategory(ctx, c)
		if err != nil {
			return fmt.Errorf("seed category %q: %w", c.Name, err)
		}
		u.Categories = append(u.Categories, created)
	}
	s.invalidate(u.ID)
	return nil
}

// Get returns the user together with their categories.
func (s *UserService) Get(ctx context.Context, id int64) (core.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return core.User{}, err
	}
	u.Categories, err = s.store.ListCategories(ctx, id)
	if err != nil {
		return core.User{}, fmt.Errorf("list categories: %w", err)
	}
	return u, nil
}

// Update applies the non-nil fields of patch. A new password is hashed before
// it is stored.
func (s *UserService) Update(ctx context.Context, id int64, patch core.UserPatch) (core.User, error) {
	if err := patch.Validate(); err != nil {
		return core.User{}, core.BadRequestError(err)
	}

	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return core.User{}, err
	}
	if patch.FirstName != nil {
		u.FirstName = strings.TrimSpace(*patch.FirstName)
	}
	if patch.LastName != nil {
		u.LastName = strings.TrimSpace(*patch.LastName)
	}
	if patch.Password != nil {
		if u.PasswordHash, err = s.hasher.Hash(*patch.Password); err != nil {
			return core.User{}, err
		}
	}

	return s.store.UpdateUser(ctx, u)
}

// Remove deletes the user and everything they own.
func (s *UserService) Remove(ctx context.Context, id int64) error {
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.invalidate(id)
	slog.InfoContext(ctx, "User removed", "user_id", id)
	return nil
}

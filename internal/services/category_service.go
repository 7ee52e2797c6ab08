package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"expensetracker/internal/cache"
	"expensetracker/internal/core"
	"expensetracker/internal/ports"
)

type categoryStore interface {
	ports.CategoryStore
	UserExists(ctx context.Context, userID int64) (bool, error)
}

// CategoryService manages a user's categories. Category lists are cached per
// user and dropped on every write.
type CategoryService struct {
	store categoryStore
	lists *cache.LRUCache[[]core.Category]
}

// NewCategoryService caches lists in lists when it is non-nil.
func NewCategoryService(store categoryStore, lists *cache.LRUCache[[]core.Category]) *CategoryService {
	return &CategoryService{store: store, lists: lists}
}

func listKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// Invalidate forgets the cached list for userID.
func (s *CategoryService) Invalidate(userID int64) {
	if s.lists != nil {
		s.lists.Delete(listKey(userID))
	}
}

func (s *CategoryService) Create(ctx context.Context, userID int64, name string, typ core.CategoryType) (core.Category, error) {
	c := core.Category{UserID: userID, Name: strings.TrimSpace(name), Type: typ}
	if err := c.Validate(); err != nil {
		return core.Category{}, core.BadRequestError(err)
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return core.Category{}, err
	}

	created, err := s.store.CreateCategory(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	s.Invalidate(userID)
	return created, nil
}

func (s *CategoryService) requireUser(ctx context.Context, userID int64) error {
	exists, err := s.store.UserExists(ctx, userID)
	if err != nil {
		return fmt.Errorf("check user %d: %w", userID, err)
	}
	if !exists {
		return core.NotFoundError("user", userID)
	}
	return nil
}

// FindAll returns the user's categories. The returned slice is shared with
// the cache and must not be modified.
func (s *CategoryService) FindAll(ctx context.Context, userID int64) ([]core.Category, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	load := func() ([]core.Category, error) {
		return s.store.ListCategories(ctx, userID)
	}
	if s.lists == nil {
		return load()
	}
	return s.lists.GetOrLoad(listKey(userID), load)
}

func (s *CategoryService) Get(ctx context.Context, id, userID int64) (core.Category, error) {
	return s.store.GetCategory(ctx, id, userID)
}

func (s *CategoryService) Update(ctx context.Context, id, userID int64, patch core.CategoryPatch) (core.Category, error) {
	c, err := s.store.GetCategory(ctx, id, userID)
	if err != nil {
		return core.Category{}, err
	}
	if patch.Name != nil {
		c.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Type != nil {
		c.Type = *patch.Type
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, core.BadRequestError(err)
	}

	updated, err := s.store.UpdateCategory(ctx, c)
	if err != nil {
		return core.Category{}, err
	}
	s.Invalidate(userID)
	return updated, nil
}

// Remove deletes the category. Its transactions are kept without a category.
func (s *CategoryService) Remove(ctx context.Context, id, userID int64) error {
	if err := s.store.DeleteCategory(ctx, id, userID); err != nil {
		return err
	}
	s.Invalidate(userID)
	return nil
}

package services

import (
	"context"
	"strings"

	"finledger/internal/core"
)

type CategoryService struct {
	*base
}

func (s *CategoryService) GetCategory(ctx context.Context, userID, id string) (core.Category, error) {
	return s.store.GetCategory(ctx, userID, id)
}

func (s *CategoryService) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	return s.store.ListCategories(ctx, userID)
}

func (s *CategoryService) CreateCategory(ctx context.Context, userID string, n core.NewCategory) (core.Category, error) {
	c := core.Category{
		ID:     s.newID(),
		UserID: userID,
		Name:   strings.TrimSpace(n.Name),
		Type:   n.Type,
		Color:  n.Color,
	}
	if c.Color == "" {
		c.Color = core.DefaultCategoryColor
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if err := s.store.InsertCategory(ctx, c); err != nil {
		return core.Category{}, err
	}
	return c, nil
}

func (s *CategoryService) UpdateCategory(ctx context.Context, userID, id string, patch core.CategoryPatch) (core.Category, error) {
	current, err := s.store.GetCategory(ctx, userID, id)
	if err != nil {
		return core.Category{}, err
	}
	updated := patch.Apply(current)
	if err := updated.Validate(); err != nil {
		return core.Category{}, err
	}
	if err := s.store.UpdateCategory(ctx, updated); err != nil {
		return core.Category{}, err
	}
	return updated, nil
}

// DeleteCategory removes the category; transactions keep their rows and
// lose the reference.
func (s *CategoryService) DeleteCategory(ctx context.Context, userID, id string) error {
	return s.store.DeleteCategory(ctx, userID, id)
}

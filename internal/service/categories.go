package service

import (
	"context"

	"github.com/google/uuid"

	"packd/internal/models"
	"packd/internal/repository"
)

// CategoryDetail is a category together with its items.
type CategoryDetail struct {
	models.Category
	Items []models.CategoryItem `json:"items"`
}

// Categories manages a user's category templates.
type Categories struct {
	store repository.Store
}

// NewCategories creates a Categories service
func NewCategories(store repository.Store) *Categories {
	return &Categories{store: store}
}

// List returns the user's categories ordered by name.
func (s *Categories) List(ctx context.Context, userID uuid.UUID) ([]models.Category, error) {
	return s.store.ListCategories(ctx, userID)
}

// ListWithItems returns every category of the user with its items.
func (s *Categories) ListWithItems(ctx context.Context, userID uuid.UUID) ([]CategoryDetail, error) {
	categories, err := s.store.ListCategories(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]CategoryDetail, 0, len(categories))
	for _, c := range categories {
		items, err := s.store.ListCategoryItems(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, CategoryDetail{Category: c, Items: items})
	}
	return out, nil
}

// Get returns one category with its items.
func (s *Categories) Get(ctx context.Context, userID, id uuid.UUID) (*CategoryDetail, error) {
	c, err := s.store.GetCategory(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	items, err := s.store.ListCategoryItems(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	return &CategoryDetail{Category: *c, Items: items}, nil
}

// Create adds a category. Names are not unique.
func (s *Categories) Create(ctx context.Context, userID uuid.UUID, name string) (*models.Category, error) {
	name, err := cleanName("name", name, models.CategoryNameMaxLen)
	if err != nil {
		return nil, err
	}
	c := &models.Category{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		CreatedAt: repository.Now(),
	}
	if err := s.store.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Rename changes a category's name. Trip snapshots keep the old name.
func (s *Categories) Rename(ctx context.Context, userID, id uuid.UUID, name string) (*models.Category, error) {
	name, err := cleanName("name", name, models.CategoryNameMaxLen)
	if err != nil {
		return nil, err
	}
	c, err := s.store.GetCategory(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	c.Name = name
	if err := s.store.UpdateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes a category and its items. Trips that used it are left intact.
func (s *Categories) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.store.DeleteCategory(ctx, userID, id)
}

// ListItems returns the items of an owned category.
func (s *Categories) ListItems(ctx context.Context, userID, categoryID uuid.UUID) ([]models.CategoryItem, error) {
	if _, err := s.store.GetCategory(ctx, userID, categoryID); err != nil {
		return nil, err
	}
	return s.store.ListCategoryItems(ctx, categoryID)
}

// GetItem returns one item of an owned category.
func (s *Categories) GetItem(ctx context.Context, userID, categoryID, itemID uuid.UUID) (*models.CategoryItem, error) {
	if _, err := s.store.GetCategory(ctx, userID, categoryID); err != nil {
		return nil, err
	}
	return s.store.GetCategoryItem(ctx, categoryID, itemID)
}

// CreateItem adds an item to an owned category.
func (s *Categories) CreateItem(ctx context.Context, userID, categoryID uuid.UUID, name string) (*models.CategoryItem, error) {
	name, err := cleanName("name", name, models.ItemNameMaxLen)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetCategory(ctx, userID, categoryID); err != nil {
		return nil, err
	}
	it := &models.CategoryItem{
		ID:         uuid.New(),
		CategoryID: categoryID,
		Name:       name,
		CreatedAt:  repository.Now(),
	}
	if err := s.store.CreateCategoryItem(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

// RenameItem changes the name of an item in an owned category.
func (s *Categories) RenameItem(ctx context.Context, userID, categoryID, itemID uuid.UUID, name string) (*models.CategoryItem, error) {
	name, err := cleanName("name", name, models.ItemNameMaxLen)
	if err != nil {
		return nil, err
	}
	it, err := s.GetItem(ctx, userID, categoryID, itemID)
	if err != nil {
		return nil, err
	}
	it.Name = name
	if err := s.store.UpdateCategoryItem(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

// DeleteItem removes an item from an owned category.
func (s *Categories) DeleteItem(ctx context.Context, userID, categoryID, itemID uuid.UUID) error {
	if _, err := s.store.GetCategory(ctx, userID, categoryID); err != nil {
		return err
	}
	return s.store.DeleteCategoryItem(ctx, categoryID, itemID)
}

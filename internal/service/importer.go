package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"packd/internal/apperr"
	"packd/internal/models"
	"packd/internal/repository"
)

// importNameMaxLen bounds both names in an import row.
const importNameMaxLen = 100

// ImportRow is one (category, item) pair of a bulk import.
type ImportRow struct {
	Category string `json:"category"`
	Item     string `json:"item"`
}

// ImportResult counts what a bulk import did.
type ImportResult struct {
	CategoriesCreated  int `json:"categories_created"`
	CategoriesExisting int `json:"categories_existing"`
	ItemsCreated       int `json:"items_created"`
	ItemsSkipped       int `json:"items_skipped"`
}

type importGroup struct {
	category string
	items    []string
}

// Importer loads categories and items in bulk.
type Importer struct {
	store repository.Store
}

// NewImporter creates an Importer
func NewImporter(store repository.Store) *Importer {
	return &Importer{store: store}
}

// groupRows validates the rows and groups item names by category in first-seen
// order, dropping exact duplicates.
func groupRows(rows []ImportRow) ([]importGroup, error) {
	if len(rows) == 0 {
		return nil, apperr.ValidationField("items", "At least one item is required.")
	}

	var groups []importGroup
	index := make(map[string]int)
	seen := make(map[string]map[string]bool)
	for i, row := range rows {
		category, err := cleanName(fmt.Sprintf("items[%d].category", i), row.Category, importNameMaxLen)
		if err != nil {
			return nil, err
		}
		item, err := cleanName(fmt.Sprintf("items[%d].item", i), row.Item, importNameMaxLen)
		if err != nil {
			return nil, err
		}

		gi, ok := index[category]
		if !ok {
			gi = len(groups)
			index[category] = gi
			groups = append(groups, importGroup{category: category})
			seen[category] = make(map[string]bool)
		}
		if seen[category][item] {
			continue
		}
		seen[category][item] = true
		groups[gi].items = append(groups[gi].items, item)
	}
	return groups, nil
}

// Import get-or-creates each category by exact name and adds the items it does
// not already have. The whole import is one transaction.
func (s *Importer) Import(ctx context.Context, userID uuid.UUID, rows []ImportRow) (*ImportResult, error) {
	groups, err := groupRows(rows)
	if err != nil {
		return nil, err
	}

	var res ImportResult
	err = s.store.WithTx(ctx, func(q repository.Queries) error {
		res = ImportResult{}
		if err := q.LockUser(ctx, userID); err != nil {
			return err
		}

		now := repository.Now()
		for _, g := range groups {
			category, err := q.GetCategoryByName(ctx, userID, g.category)
			switch {
			case err == nil:
				res.CategoriesExisting++
			case apperr.Is(err, apperr.CodeNotFound):
				category = &models.Category{ID: uuid.New(), UserID: userID, Name: g.category, CreatedAt: now}
				if err := q.CreateCategory(ctx, category); err != nil {
					return err
				}
				res.CategoriesCreated++
			default:
				return err
			}

			for _, name := range g.items {
				exists, err := q.CategoryItemExists(ctx, category.ID, name)
				if err != nil {
					return err
				}
				if exists {
					res.ItemsSkipped++
					continue
				}
				it := &models.CategoryItem{ID: uuid.New(), CategoryID: category.ID, Name: name, CreatedAt: now}
				if err := q.CreateCategoryItem(ctx, it); err != nil {
					return err
				}
				res.ItemsCreated++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

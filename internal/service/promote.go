package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"packd/internal/apperr"
	"packd/internal/models"
	"packd/internal/repository"
)

// Promote copies a trip item into one of the user's categories so later trips
// pick it up, and records that category as the item's source. categoryID is the
// raw value from the request. Promoting the same name twice fails VALIDATION.
func (s *Trips) Promote(ctx context.Context, userID, tripID, itemID uuid.UUID, categoryID string) (*models.CategoryItem, error) {
	var created *models.CategoryItem

	err := s.store.WithTx(ctx, func(q repository.Queries) error {
		if _, err := q.GetTrip(ctx, userID, tripID); err != nil {
			return err
		}
		item, err := q.GetTripItem(ctx, tripID, itemID)
		if err != nil {
			return err
		}

		raw := strings.TrimSpace(categoryID)
		if raw == "" {
			return apperr.ValidationField("category_id", "category_id is required")
		}
		cid, err := uuid.Parse(raw)
		if err != nil {
			return apperr.ValidationField("category_id", "category_id must be a valid UUID")
		}
		category, err := q.GetCategory(ctx, userID, cid)
		if err != nil {
			return err
		}

		exists, err := q.CategoryItemExists(ctx, category.ID, item.Name)
		if err != nil {
			return err
		}
		if exists {
			return apperr.Validation("Item already exists in this category")
		}

		created = &models.CategoryItem{
			ID:         uuid.New(),
			CategoryID: category.ID,
			Name:       item.Name,
			CreatedAt:  repository.Now(),
		}
		if err := q.CreateCategoryItem(ctx, created); err != nil {
			return err
		}

		source := category.ID
		item.SourceCategoryID = &source
		return q.UpdateTripItem(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

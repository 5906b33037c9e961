package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"packd/internal/apperr"
	"packd/internal/models"
	"packd/internal/repository"
)

// dashboardLimit caps the trip lists shown on the dashboard.
const dashboardLimit = 5

// TripSummary is a trip with its current progress.
type TripSummary struct {
	models.Trip
	Progress models.Progress `json:"progress"`
}

// TripCategoryDetail is a trip category with the items snapshotted into it.
type TripCategoryDetail struct {
	models.TripCategory
	Items []models.TripItem `json:"items"`
}

// TripDetail is the full checklist of a trip.
type TripDetail struct {
	models.Trip
	Progress       models.Progress      `json:"progress"`
	TripCategories []TripCategoryDetail `json:"trip_categories"`
	// CustomItems are custom items outside any trip category.
	CustomItems []models.TripItem `json:"-"`
}

// Dashboard summarises a user's trips and categories.
type Dashboard struct {
	ActiveTrips     []TripSummary
	CompletedTrips  []TripSummary
	TotalTrips      int
	TotalActive     int
	TotalCategories int
}

// CreateTripInput describes a new trip.
type CreateTripInput struct {
	Name string
	// CategoryIDs are snapshotted in this order. Ids the user does not own are skipped.
	CategoryIDs []uuid.UUID
	// TemplateID optionally names an earlier trip whose custom items are copied.
	TemplateID *uuid.UUID
}

// UpdateTripInput changes the fields that are set.
type UpdateTripInput struct {
	Name       *string
	IsComplete *bool
}

// TripItemInput describes a new custom trip item.
type TripItemInput struct {
	Name             string
	IsPacked         bool
	SourceCategoryID *uuid.UUID
}

// UpdateTripItemInput changes the fields that are set. SetSourceCategory
// distinguishes clearing the source category from leaving it alone.
type UpdateTripItemInput struct {
	Name              *string
	IsPacked          *bool
	SetSourceCategory bool
	SourceCategoryID  *uuid.UUID
}

// Trips manages trips and their checklists.
type Trips struct {
	store repository.Store
}

// NewTrips creates a Trips service
func NewTrips(store repository.Store) *Trips {
	return &Trips{store: store}
}

// List returns the user's trips, newest first, with progress.
func (s *Trips) List(ctx context.Context, userID uuid.UUID) ([]TripSummary, error) {
	trips, err := s.store.ListTrips(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]TripSummary, 0, len(trips))
	for _, t := range trips {
		p, err := s.store.TripProgress(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, TripSummary{Trip: t, Progress: p})
	}
	return out, nil
}

// Dashboard returns the most recent active and completed trips plus counts.
func (s *Trips) Dashboard(ctx context.Context, userID uuid.UUID) (*Dashboard, error) {
	trips, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	categories, err := s.store.ListCategories(ctx, userID)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		ActiveTrips:     make([]TripSummary, 0),
		CompletedTrips:  make([]TripSummary, 0),
		TotalTrips:      len(trips),
		TotalCategories: len(categories),
	}
	for _, t := range trips {
		if t.IsComplete {
			if len(d.CompletedTrips) < dashboardLimit {
				d.CompletedTrips = append(d.CompletedTrips, t)
			}
			continue
		}
		d.TotalActive++
		if len(d.ActiveTrips) < dashboardLimit {
			d.ActiveTrips = append(d.ActiveTrips, t)
		}
	}
	return d, nil
}

// Get returns a trip's checklist grouped by trip category.
func (s *Trips) Get(ctx context.Context, userID, id uuid.UUID) (*TripDetail, error) {
	t, err := s.store.GetTrip(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	tcs, err := s.store.ListTripCategories(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	items, err := s.store.ListTripItems(ctx, t.ID)
	if err != nil {
		return nil, err
	}

	d := &TripDetail{
		Trip:           *t,
		Progress:       models.ProgressOf(items),
		TripCategories: make([]TripCategoryDetail, 0, len(tcs)),
		CustomItems:    make([]models.TripItem, 0),
	}
	index := make(map[uuid.UUID]int, len(tcs))
	for i, tc := range tcs {
		index[tc.ID] = i
		d.TripCategories = append(d.TripCategories, TripCategoryDetail{TripCategory: tc, Items: make([]models.TripItem, 0)})
	}
	for _, it := range items {
		if it.TripCategoryID != nil {
			if i, ok := index[*it.TripCategoryID]; ok {
				d.TripCategories[i].Items = append(d.TripCategories[i].Items, it)
				continue
			}
		}
		if it.IsCustom {
			d.CustomItems = append(d.CustomItems, it)
		}
	}
	return d, nil
}

// Create snapshots the selected categories into a new trip and, when a template
// trip is given, copies its custom items. Everything happens in one transaction.
func (s *Trips) Create(ctx context.Context, userID uuid.UUID, in CreateTripInput) (*models.Trip, error) {
	name, err := cleanName("name", in.Name, models.TripNameMaxLen)
	if err != nil {
		return nil, err
	}

	now := repository.Now()
	trip := &models.Trip{ID: uuid.New(), UserID: userID, Name: name, CreatedAt: now}

	err = s.store.WithTx(ctx, func(q repository.Queries) error {
		if err := q.CreateTrip(ctx, trip); err != nil {
			return err
		}

		seen := make(map[uuid.UUID]bool, len(in.CategoryIDs))
		for _, categoryID := range in.CategoryIDs {
			if seen[categoryID] {
				continue
			}
			seen[categoryID] = true

			category, err := q.GetCategory(ctx, userID, categoryID)
			if apperr.Is(err, apperr.CodeNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if err := snapshotCategory(ctx, q, trip.ID, category, now); err != nil {
				return err
			}
		}

		if in.TemplateID == nil {
			return nil
		}
		return copyCustomItems(ctx, q, userID, *in.TemplateID, trip.ID, now)
	})
	if err != nil {
		return nil, err
	}
	return trip, nil
}

func snapshotCategory(ctx context.Context, q repository.Queries, tripID uuid.UUID, c *models.Category, now time.Time) error {
	categoryID := c.ID
	tc := &models.TripCategory{
		ID:           uuid.New(),
		TripID:       tripID,
		CategoryID:   &categoryID,
		CategoryName: c.Name,
	}
	if err := q.CreateTripCategory(ctx, tc); err != nil {
		return err
	}

	items, err := q.ListCategoryItems(ctx, c.ID)
	if err != nil {
		return err
	}
	for _, it := range items {
		tcID := tc.ID
		source := c.ID
		ti := &models.TripItem{
			ID:               uuid.New(),
			TripID:           tripID,
			TripCategoryID:   &tcID,
			Name:             it.Name,
			SourceCategoryID: &source,
			CreatedAt:        now,
		}
		if err := q.CreateTripItem(ctx, ti); err != nil {
			return err
		}
	}
	return nil
}

// copyCustomItems copies custom items of an owned template trip. A template the
// user does not own contributes nothing.
func copyCustomItems(ctx context.Context, q repository.Queries, userID, templateID, tripID uuid.UUID, now time.Time) error {
	if _, err := q.GetTrip(ctx, userID, templateID); err != nil {
		if apperr.Is(err, apperr.CodeNotFound) {
			return nil
		}
		return err
	}
	items, err := q.ListTripItems(ctx, templateID)
	if err != nil {
		return err
	}
	for _, it := range items {
		if !it.IsCustom {
			continue
		}
		ti := &models.TripItem{
			ID:               uuid.New(),
			TripID:           tripID,
			Name:             it.Name,
			IsCustom:         true,
			SourceCategoryID: it.SourceCategoryID,
			CreatedAt:        now,
		}
		if err := q.CreateTripItem(ctx, ti); err != nil {
			return err
		}
	}
	return nil
}

// TemplateCategoryIDs returns the categories a template trip was built from that
// the user still owns. An unknown template yields nothing.
func (s *Trips) TemplateCategoryIDs(ctx context.Context, userID, templateID uuid.UUID) ([]uuid.UUID, error) {
	if _, err := s.store.GetTrip(ctx, userID, templateID); err != nil {
		if apperr.Is(err, apperr.CodeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	tcs, err := s.store.ListTripCategories(ctx, templateID)
	if err != nil {
		return nil, err
	}
	var ids []uuid.UUID
	for _, tc := range tcs {
		if tc.CategoryID == nil {
			continue
		}
		if _, err := s.store.GetCategory(ctx, userID, *tc.CategoryID); err != nil {
			if apperr.Is(err, apperr.CodeNotFound) {
				continue
			}
			return nil, err
		}
		ids = append(ids, *tc.CategoryID)
	}
	return ids, nil
}

// Update changes a trip's name or completion flag.
func (s *Trips) Update(ctx context.Context, userID, id uuid.UUID, in UpdateTripInput) (*models.Trip, error) {
	t, err := s.store.GetTrip(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name, err := cleanName("name", *in.Name, models.TripNameMaxLen)
		if err != nil {
			return nil, err
		}
		t.Name = name
	}
	if in.IsComplete != nil {
		t.IsComplete = *in.IsComplete
	}
	if err := s.store.UpdateTrip(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// ToggleComplete flips a trip between active and completed.
func (s *Trips) ToggleComplete(ctx context.Context, userID, id uuid.UUID) (*models.Trip, error) {
	t, err := s.store.GetTrip(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	t.IsComplete = !t.IsComplete
	if err := s.store.UpdateTrip(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Delete removes a trip with all of its categories and items.
func (s *Trips) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.store.DeleteTrip(ctx, userID, id)
}

// ListItems returns all items of an owned trip.
func (s *Trips) ListItems(ctx context.Context, userID, tripID uuid.UUID) ([]models.TripItem, error) {
	if _, err := s.store.GetTrip(ctx, userID, tripID); err != nil {
		return nil, err
	}
	return s.store.ListTripItems(ctx, tripID)
}

// GetItem returns one item of an owned trip.
func (s *Trips) GetItem(ctx context.Context, userID, tripID, itemID uuid.UUID) (*models.TripItem, error) {
	if _, err := s.store.GetTrip(ctx, userID, tripID); err != nil {
		return nil, err
	}
	return s.store.GetTripItem(ctx, tripID, itemID)
}

// CreateItem adds a custom item to an owned trip.
func (s *Trips) CreateItem(ctx context.Context, userID, tripID uuid.UUID, in TripItemInput) (*models.TripItem, error) {
	name, err := cleanName("name", in.Name, models.ItemNameMaxLen)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetTrip(ctx, userID, tripID); err != nil {
		return nil, err
	}
	if err := s.checkSourceCategory(ctx, userID, in.SourceCategoryID); err != nil {
		return nil, err
	}

	ti := &models.TripItem{
		ID:               uuid.New(),
		TripID:           tripID,
		Name:             name,
		IsPacked:         in.IsPacked,
		IsCustom:         true,
		SourceCategoryID: in.SourceCategoryID,
		CreatedAt:        repository.Now(),
	}
	if err := s.store.CreateTripItem(ctx, ti); err != nil {
		return nil, err
	}
	return ti, nil
}

// UpdateItem edits an item of an owned trip. is_custom never changes.
func (s *Trips) UpdateItem(ctx context.Context, userID, tripID, itemID uuid.UUID, in UpdateTripItemInput) (*models.TripItem, error) {
	ti, err := s.GetItem(ctx, userID, tripID, itemID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name, err := cleanName("name", *in.Name, models.ItemNameMaxLen)
		if err != nil {
			return nil, err
		}
		ti.Name = name
	}
	if in.IsPacked != nil {
		ti.IsPacked = *in.IsPacked
	}
	if in.SetSourceCategory {
		if err := s.checkSourceCategory(ctx, userID, in.SourceCategoryID); err != nil {
			return nil, err
		}
		ti.SourceCategoryID = in.SourceCategoryID
	}
	if err := s.store.UpdateTripItem(ctx, ti); err != nil {
		return nil, err
	}
	return ti, nil
}

// TogglePacked flips the packed flag of a trip item.
func (s *Trips) TogglePacked(ctx context.Context, userID, tripID, itemID uuid.UUID) (*models.TripItem, error) {
	ti, err := s.GetItem(ctx, userID, tripID, itemID)
	if err != nil {
		return nil, err
	}
	ti.IsPacked = !ti.IsPacked
	if err := s.store.UpdateTripItem(ctx, ti); err != nil {
		return nil, err
	}
	return ti, nil
}

// DeleteItem removes an item from an owned trip.
func (s *Trips) DeleteItem(ctx context.Context, userID, tripID, itemID uuid.UUID) error {
	if _, err := s.store.GetTrip(ctx, userID, tripID); err != nil {
		return err
	}
	return s.store.DeleteTripItem(ctx, tripID, itemID)
}

// checkSourceCategory rejects a source category the user does not own.
func (s *Trips) checkSourceCategory(ctx context.Context, userID uuid.UUID, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	_, err := s.store.GetCategory(ctx, userID, *id)
	if apperr.Is(err, apperr.CodeNotFound) {
		return apperr.ValidationField("source_category", "source_category does not exist")
	}
	return err
}

package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"packd/internal/apperr"
	"packd/internal/models"
	"packd/internal/repository"
)

func setupTest(t *testing.T) (*Store, uuid.UUID) {
	t.Helper()
	s := New()
	u := &models.User{ID: uuid.New(), Username: "alice"}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return s, u.ID
}

func TestDuplicateUsername(t *testing.T) {
	s, _ := setupTest(t)
	err := s.CreateUser(context.Background(), &models.User{ID: uuid.New(), Username: "alice"})
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}

func TestCategoryOwnership(t *testing.T) {
	ctx := context.Background()
	s, alice := setupTest(t)
	bob := uuid.New()

	c := &models.Category{ID: uuid.New(), UserID: alice, Name: "Camping", CreatedAt: time.Now()}
	require.NoError(t, s.CreateCategory(ctx, c))

	_, err := s.GetCategory(ctx, bob, c.ID)
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))

	err = s.DeleteCategory(ctx, bob, c.ID)
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))

	err = s.UpdateCategory(ctx, &models.Category{ID: c.ID, UserID: bob, Name: "Stolen"})
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))

	got, err := s.GetCategory(ctx, alice, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Camping", got.Name)
}

func TestListCategoriesOrderedByName(t *testing.T) {
	ctx := context.Background()
	s, alice := setupTest(t)
	now := time.Now()

	for i, name := range []string{"Toiletries", "Camping", "Electronics"} {
		require.NoError(t, s.CreateCategory(ctx, &models.Category{
			ID: uuid.New(), UserID: alice, Name: name, CreatedAt: now.Add(time.Duration(i) * time.Second),
		}))
	}

	list, err := s.ListCategories(ctx, alice)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Camping", list[0].Name)
	assert.Equal(t, "Electronics", list[1].Name)
	assert.Equal(t, "Toiletries", list[2].Name)
}

func TestGetCategoryByNameReturnsOldest(t *testing.T) {
	ctx := context.Background()
	s, alice := setupTest(t)
	now := time.Now()

	older := &models.Category{ID: uuid.New(), UserID: alice, Name: "Gear", CreatedAt: now}
	newer := &models.Category{ID: uuid.New(), UserID: alice, Name: "Gear", CreatedAt: now.Add(time.Minute)}
	require.NoError(t, s.CreateCategory(ctx, newer))
	require.NoError(t, s.CreateCategory(ctx, older))

	got, err := s.GetCategoryByName(ctx, alice, "Gear")
	require.NoError(t, err)
	assert.Equal(t, older.ID, got.ID)
}

func TestDeleteCategoryKeepsTripSnapshot(t *testing.T) {
	ctx := context.Background()
	s, alice := setupTest(t)

	cat := &models.Category{ID: uuid.New(), UserID: alice, Name: "Camping", CreatedAt: time.Now()}
	require.NoError(t, s.CreateCategory(ctx, cat))
	require.NoError(t, s.CreateCategoryItem(ctx, &models.CategoryItem{ID: uuid.New(), CategoryID: cat.ID, Name: "Tent"}))

	trip := &models.Trip{ID: uuid.New(), UserID: alice, Name: "Lake", CreatedAt: time.Now()}
	require.NoError(t, s.CreateTrip(ctx, trip))
	tc := &models.TripCategory{ID: uuid.New(), TripID: trip.ID, CategoryID: &cat.ID, CategoryName: cat.Name}
	require.NoError(t, s.CreateTripCategory(ctx, tc))
	ti := &models.TripItem{ID: uuid.New(), TripID: trip.ID, TripCategoryID: &tc.ID, Name: "Tent"}
	require.NoError(t, s.CreateTripItem(ctx, ti))
	custom := &models.TripItem{ID: uuid.New(), TripID: trip.ID, Name: "Kayak", IsCustom: true, SourceCategoryID: &cat.ID}
	require.NoError(t, s.CreateTripItem(ctx, custom))

	require.NoError(t, s.DeleteCategory(ctx, alice, cat.ID))

	items, err := s.ListCategoryItems(ctx, cat.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	tcs, err := s.ListTripCategories(ctx, trip.ID)
	require.NoError(t, err)
	require.Len(t, tcs, 1)
	assert.Nil(t, tcs[0].CategoryID)
	assert.Equal(t, "Camping", tcs[0].CategoryName)

	gotItem, err := s.GetTripItem(ctx, trip.ID, ti.ID)
	require.NoError(t, err)
	require.NotNil(t, gotItem.CategoryName)
	assert.Equal(t, "Camping", *gotItem.CategoryName)

	gotCustom, err := s.GetTripItem(ctx, trip.ID, custom.ID)
	require.NoError(t, err)
	assert.Nil(t, gotCustom.SourceCategoryID)
}

func TestDeleteTripCascades(t *testing.T) {
	ctx := context.Background()
	s, alice := setupTest(t)

	trip := &models.Trip{ID: uuid.New(), UserID: alice, Name: "Lake", CreatedAt: time.Now()}
	require.NoError(t, s.CreateTrip(ctx, trip))
	tc := &models.TripCategory{ID: uuid.New(), TripID: trip.ID, CategoryName: "Camping"}
	require.NoError(t, s.CreateTripCategory(ctx, tc))
	require.NoError(t, s.CreateTripItem(ctx, &models.TripItem{ID: uuid.New(), TripID: trip.ID, TripCategoryID: &tc.ID, Name: "Tent"}))

	require.NoError(t, s.DeleteTrip(ctx, alice, trip.ID))

	tcs, _ := s.ListTripCategories(ctx, trip.ID)
	assert.Empty(t, tcs)
	items, _ := s.ListTripItems(ctx, trip.ID)
	assert.Empty(t, items)
}

func TestListTripItemsOrdering(t *testing.T) {
	ctx := context.Background()
	s, alice := setupTest(t)

	trip := &models.Trip{ID: uuid.New(), UserID: alice, Name: "Lake", CreatedAt: time.Now()}
	require.NoError(t, s.CreateTrip(ctx, trip))
	clothes := &models.TripCategory{ID: uuid.New(), TripID: trip.ID, CategoryName: "Clothes"}
	camping := &models.TripCategory{ID: uuid.New(), TripID: trip.ID, CategoryName: "Camping"}
	require.NoError(t, s.CreateTripCategory(ctx, clothes))
	require.NoError(t, s.CreateTripCategory(ctx, camping))

	add := func(tc *models.TripCategory, name string, custom bool) {
		var tcID *uuid.UUID
		if tc != nil {
			tcID = &tc.ID
		}
		require.NoError(t, s.CreateTripItem(ctx, &models.TripItem{
			ID: uuid.New(), TripID: trip.ID, TripCategoryID: tcID, Name: name, IsCustom: custom,
		}))
	}
	add(clothes, "Socks", false)
	add(camping, "Tent", false)
	add(camping, "Axe", true)
	add(camping, "Stove", false)
	add(nil, "Passport", true)

	items, err := s.ListTripItems(ctx, trip.ID)
	require.NoError(t, err)

	var names []string
	for _, it := range items {
		names = append(names, it.Name)
	}
	assert.Equal(t, []string{"Stove", "Tent", "Axe", "Socks", "Passport"}, names, "uncategorized items sort last")
}

func TestListTripsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s, alice := setupTest(t)
	now := time.Now()

	first := &models.Trip{ID: uuid.New(), UserID: alice, Name: "First", CreatedAt: now}
	second := &models.Trip{ID: uuid.New(), UserID: alice, Name: "Second", CreatedAt: now.Add(time.Hour)}
	require.NoError(t, s.CreateTrip(ctx, first))
	require.NoError(t, s.CreateTrip(ctx, second))
	require.NoError(t, s.CreateTrip(ctx, &models.Trip{ID: uuid.New(), UserID: uuid.New(), Name: "Other", CreatedAt: now}))

	trips, err := s.ListTrips(ctx, alice)
	require.NoError(t, err)
	require.Len(t, trips, 2)
	assert.Equal(t, "Second", trips[0].Name)
	assert.Equal(t, "First", trips[1].Name)
}

func TestTripProgress(t *testing.T) {
	ctx := context.Background()
	s, alice := setupTest(t)

	trip := &models.Trip{ID: uuid.New(), UserID: alice, Name: "Lake", CreatedAt: time.Now()}
	require.NoError(t, s.CreateTrip(ctx, trip))

	p, err := s.TripProgress(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Progress{}, p)

	for i, packed := range []bool{true, false, false} {
		require.NoError(t, s.CreateTripItem(ctx, &models.TripItem{
			ID: uuid.New(), TripID: trip.ID, Name: string(rune('a' + i)), IsPacked: packed,
		}))
	}

	p, err = s.TripProgress(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Progress{Packed: 1, Total: 3, Percentage: 33}, p)
}

func TestWithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s, alice := setupTest(t)
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(q repository.Queries) error {
		require.NoError(t, q.CreateTrip(ctx, &models.Trip{ID: uuid.New(), UserID: alice, Name: "Ghost", CreatedAt: time.Now()}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	trips, err := s.ListTrips(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, trips)
}

func TestWithTxCommits(t *testing.T) {
	ctx := context.Background()
	s, alice := setupTest(t)

	err := s.WithTx(ctx, func(q repository.Queries) error {
		require.NoError(t, q.LockUser(ctx, alice))
		return q.CreateTrip(ctx, &models.Trip{ID: uuid.New(), UserID: alice, Name: "Real", CreatedAt: time.Now()})
	})
	require.NoError(t, err)

	trips, err := s.ListTrips(ctx, alice)
	require.NoError(t, err)
	require.Len(t, trips, 1)
	assert.Equal(t, "Real", trips[0].Name)
}

func TestUpdateTripItemIgnoresImmutableFields(t *testing.T) {
	ctx := context.Background()
	s, alice := setupTest(t)

	trip := &models.Trip{ID: uuid.New(), UserID: alice, Name: "Lake", CreatedAt: time.Now()}
	require.NoError(t, s.CreateTrip(ctx, trip))
	ti := &models.TripItem{ID: uuid.New(), TripID: trip.ID, Name: "Tent"}
	require.NoError(t, s.CreateTripItem(ctx, ti))

	update := *ti
	update.Name = "Big tent"
	update.IsPacked = true
	update.IsCustom = true
	require.NoError(t, s.UpdateTripItem(ctx, &update))

	got, err := s.GetTripItem(ctx, trip.ID, ti.ID)
	require.NoError(t, err)
	assert.Equal(t, "Big tent", got.Name)
	assert.True(t, got.IsPacked)
	assert.False(t, got.IsCustom)
}

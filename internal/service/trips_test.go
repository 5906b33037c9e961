package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"packd/internal/apperr"
	"packd/internal/models"
)

func ptr[T any](v T) *T { return &v }

func TestCreateTripSnapshot(t *testing.T) {
	f := setupTest(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	toiletries := f.category(t, alice, "Toiletries", "Toothbrush", "Toothpaste")
	clothes := f.category(t, alice, "Clothes", "Socks", "Shirt", "Hat")
	foreign := f.category(t, bob, "Bob's", "Secret")

	trip, err := f.trips.Create(ctx, alice, CreateTripInput{
		Name:        "Japan 2025",
		CategoryIDs: []uuid.UUID{toiletries, foreign, clothes, toiletries},
	})
	require.NoError(t, err)

	detail, err := f.trips.Get(ctx, alice, trip.ID)
	require.NoError(t, err)

	require.Len(t, detail.TripCategories, 2, "foreign and duplicate ids are dropped")
	assert.Equal(t, "Clothes", detail.TripCategories[0].CategoryName)
	assert.Len(t, detail.TripCategories[0].Items, 3)
	assert.Equal(t, "Toiletries", detail.TripCategories[1].CategoryName)
	assert.Len(t, detail.TripCategories[1].Items, 2)
	assert.Equal(t, models.Progress{Packed: 0, Total: 5, Percentage: 0}, detail.Progress)

	for _, tc := range detail.TripCategories {
		require.NotNil(t, tc.CategoryID)
		for _, it := range tc.Items {
			assert.False(t, it.IsCustom)
			assert.False(t, it.IsPacked)
			require.NotNil(t, it.SourceCategoryID)
			assert.Equal(t, *tc.CategoryID, *it.SourceCategoryID)
			require.NotNil(t, it.CategoryName)
			assert.Equal(t, tc.CategoryName, *it.CategoryName)
		}
	}
}

func TestCreateTripWithoutCategories(t *testing.T) {
	f := setupTest(t)
	ctx := context.Background()
	alice := f.user(t, "alice")

	trip, err := f.trips.Create(ctx, alice, CreateTripInput{Name: "Day trip"})
	require.NoError(t, err)

	detail, err := f.trips.Get(ctx, alice, trip.ID)
	require.NoError(t, err)
	assert.Empty(t, detail.TripCategories)
	assert.Equal(t, models.Progress{}, detail.Progress)

	_, err = f.trips.Create(ctx, alice, CreateTripInput{Name: " "})
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}

func TestCreateTripIsAtomic(t *testing.T) {
	f := setupTest(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	a := f.category(t, alice, "A", "a1")
	b := f.category(t, alice, "B", "b1")

	failing := NewTrips(&failingStore{Store: f.store, failOn: 2})
	_, err := failing.Create(ctx, alice, CreateTripInput{Name: "Doomed", CategoryIDs: []uuid.UUID{a, b}})
	require.ErrorIs(t, err, errInjected)

	trips, err := f.trips.List(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, trips, "no trip survives a failed snapshot")
}

func TestCreateTripFromTemplate(t *testing.T) {
	f := setupTest(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	camping := f.category(t, alice, "Camping", "Tent")

	template, err := f.trips.Create(ctx, alice, CreateTripInput{Name: "Lake 2024", CategoryIDs: []uuid.UUID{camping}})
	require.NoError(t, err)
	_, err = f.trips.CreateItem(ctx, alice, template.ID, TripItemInput{Name: "Kayak", IsPacked: true, SourceCategoryID: &camping})
	require.NoError(t, err)
	_, err = f.trips.CreateItem(ctx, alice, template.ID, TripItemInput{Name: "Sunscreen"})
	require.NoError(t, err)

	ids, err := f.trips.TemplateCategoryIDs(ctx, alice, template.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{camping}, ids)

	trip, err := f.trips.Create(ctx, alice, CreateTripInput{Name: "Lake 2025", CategoryIDs: ids, TemplateID: &template.ID})
	require.NoError(t, err)

	detail, err := f.trips.Get(ctx, alice, trip.ID)
	require.NoError(t, err)
	require.Len(t, detail.CustomItems, 2)
	assert.Equal(t, "Kayak", detail.CustomItems[0].Name)
	assert.False(t, detail.CustomItems[0].IsPacked, "copied items start unpacked")
	require.NotNil(t, detail.CustomItems[0].SourceCategoryID)
	assert.Equal(t, camping, *detail.CustomItems[0].SourceCategoryID)
	assert.Nil(t, detail.CustomItems[1].SourceCategoryID)
	assert.Equal(t, 3, detail.Progress.Total)

	// another user's trip is not a usable template
	bobTrip, err := f.trips.Create(ctx, bob, CreateTripInput{Name: "Bob", TemplateID: &template.ID})
	require.NoError(t, err)
	bobDetail, err := f.trips.Get(ctx, bob, bobTrip.ID)
	require.NoError(t, err)
	assert.Empty(t, bobDetail.CustomItems)

	ids, err = f.trips.TemplateCategoryIDs(ctx, bob, template.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestTemplateSkipsDeletedCategories(t *testing.T) {
	f := setupTest(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	a := f.category(t, alice, "A", "a1")
	b := f.category(t, alice, "B", "b1")

	template, err := f.trips.Create(ctx, alice, CreateTripInput{Name: "T", CategoryIDs: []uuid.UUID{a, b}})
	require.NoError(t, err)
	require.NoError(t, f.categories.Delete(ctx, alice, a))

	ids, err := f.trips.TemplateCategoryIDs(ctx, alice, template.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{b}, ids)
}

func TestDeletingCategoryKeepsTripHistory(t *testing.T) {
	f := setupTest(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	camping := f.category(t, alice, "Camping", "Tent", "Stove")

	trip, err := f.trips.Create(ctx, alice, CreateTripInput{Name: "Lake", CategoryIDs: []uuid.UUID{camping}})
	require.NoError(t, err)
	_, err = f.categories.Rename(ctx, alice, camping, "Outdoors")
	require.NoError(t, err)
	require.NoError(t, f.categories.Delete(ctx, alice, camping))

	detail, err := f.trips.Get(ctx, alice, trip.ID)
	require.NoError(t, err)
	require.Len(t, detail.TripCategories, 1)
	tc := detail.TripCategories[0]
	assert.Equal(t, "Camping", tc.CategoryName, "name is a snapshot")
	assert.Nil(t, tc.CategoryID)
	require.Len(t, tc.Items, 2)
	for _, it := range tc.Items {
		assert.Nil(t, it.SourceCategoryID)
	}
}

func TestProgressAndToggle(t *testing.T) {
	f := setupTest(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	c := f.category(t, alice, "C", "1", "2", "3")

	trip, err := f.trips.Create(ctx, alice, CreateTripInput{Name: "T", CategoryIDs: []uuid.UUID{c}})
	require.NoError(t, err)
	items, err := f.trips.ListItems(ctx, alice, trip.ID)
	require.NoError(t, err)

	_, err = f.trips.TogglePacked(ctx, alice, trip.ID, items[0].ID)
	require.NoError(t, err)
	list, err := f.trips.List(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, models.Progress{Packed: 1, Total: 3, Percentage: 33}, list[0].Progress)

	_, err = f.trips.UpdateItem(ctx, alice, trip.ID, items[1].ID, UpdateTripItemInput{IsPacked: ptr(true)})
	require.NoError(t, err)
	detail, err := f.trips.Get(ctx, alice, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, 67, detail.Progress.Percentage)

	done, err := f.trips.ToggleComplete(ctx, alice, trip.ID)
	require.NoError(t, err)
	assert.True(t, done.IsComplete)
	again, err := f.trips.ToggleComplete(ctx, alice, trip.ID)
	require.NoError(t, err)
	assert.False(t, again.IsComplete)
}

func TestTripItemCRUD(t *testing.T) {
	f := setupTest(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	mine := f.category(t, alice, "Mine")
	theirs := f.category(t, bob, "Theirs")

	trip, err := f.trips.Create(ctx, alice, CreateTripInput{Name: "T"})
	require.NoError(t, err)

	it, err := f.trips.CreateItem(ctx, alice, trip.ID, TripItemInput{Name: "Passport"})
	require.NoError(t, err)
	assert.True(t, it.IsCustom, "created items are always custom")

	_, err = f.trips.CreateItem(ctx, alice, trip.ID, TripItemInput{Name: "Map", SourceCategoryID: &theirs})
	assert.True(t, apperr.Is(err, apperr.CodeValidation))

	upd, err := f.trips.UpdateItem(ctx, alice, trip.ID, it.ID, UpdateTripItemInput{
		Name:              ptr("Passport + visa"),
		SetSourceCategory: true,
		SourceCategoryID:  &mine,
	})
	require.NoError(t, err)
	assert.Equal(t, "Passport + visa", upd.Name)
	require.NotNil(t, upd.SourceCategoryID)
	assert.True(t, upd.IsCustom)

	cleared, err := f.trips.UpdateItem(ctx, alice, trip.ID, it.ID, UpdateTripItemInput{SetSourceCategory: true})
	require.NoError(t, err)
	assert.Nil(t, cleared.SourceCategoryID)

	_, err = f.trips.UpdateItem(ctx, alice, trip.ID, it.ID, UpdateTripItemInput{SetSourceCategory: true, SourceCategoryID: &theirs})
	assert.True(t, apperr.Is(err, apperr.CodeValidation))

	require.NoError(t, f.trips.DeleteItem(ctx, alice, trip.ID, it.ID))
	_, err = f.trips.GetItem(ctx, alice, trip.ID, it.ID)
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}

func TestTripIsolation(t *testing.T) {
	f := setupTest(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	c := f.category(t, alice, "C", "x")

	trip, err := f.trips.Create(ctx, alice, CreateTripInput{Name: "T", CategoryIDs: []uuid.UUID{c}})
	require.NoError(t, err)
	items, err := f.trips.ListItems(ctx, alice, trip.ID)
	require.NoError(t, err)
	itemID := items[0].ID

	notFound := func(err error) { t.Helper(); assert.True(t, apperr.Is(err, apperr.CodeNotFound), "%v", err) }

	_, err = f.trips.Get(ctx, bob, trip.ID)
	notFound(err)
	_, err = f.trips.Update(ctx, bob, trip.ID, UpdateTripInput{Name: ptr("x")})
	notFound(err)
	_, err = f.trips.ToggleComplete(ctx, bob, trip.ID)
	notFound(err)
	notFound(f.trips.Delete(ctx, bob, trip.ID))
	_, err = f.trips.ListItems(ctx, bob, trip.ID)
	notFound(err)
	_, err = f.trips.GetItem(ctx, bob, trip.ID, itemID)
	notFound(err)
	_, err = f.trips.CreateItem(ctx, bob, trip.ID, TripItemInput{Name: "x"})
	notFound(err)
	_, err = f.trips.UpdateItem(ctx, bob, trip.ID, itemID, UpdateTripItemInput{IsPacked: ptr(true)})
	notFound(err)
	notFound(f.trips.DeleteItem(ctx, bob, trip.ID, itemID))

	list, err := f.trips.List(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUpdateAndDeleteTrip(t *testing.T) {
	f := setupTest(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	c := f.category(t, alice, "C", "x")

	trip, err := f.trips.Create(ctx, alice, CreateTripInput{Name: "T", CategoryIDs: []uuid.UUID{c}})
	require.NoError(t, err)

	upd, err := f.trips.Update(ctx, alice, trip.ID, UpdateTripInput{Name: ptr("Renamed"), IsComplete: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", upd.Name)
	assert.True(t, upd.IsComplete)

	require.NoError(t, f.trips.Delete(ctx, alice, trip.ID))
	_, err = f.trips.Get(ctx, alice, trip.ID)
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))

	// the category is untouched
	detail, err := f.categories.Get(ctx, alice, c)
	require.NoError(t, err)
	assert.Len(t, detail.Items, 1)
}

func TestDashboard(t *testing.T) {
	f := setupTest(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	f.category(t, alice, "C")

	for i := 0; i < 7; i++ {
		_, err := f.trips.Create(ctx, alice, CreateTripInput{Name: "active"})
		require.NoError(t, err)
	}
	done, err := f.trips.Create(ctx, alice, CreateTripInput{Name: "done"})
	require.NoError(t, err)
	_, err = f.trips.ToggleComplete(ctx, alice, done.ID)
	require.NoError(t, err)

	d, err := f.trips.Dashboard(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, d.ActiveTrips, 5)
	assert.Len(t, d.CompletedTrips, 1)
	assert.Equal(t, 8, d.TotalTrips)
	assert.Equal(t, 7, d.TotalActive)
	assert.Equal(t, 1, d.TotalCategories)
}

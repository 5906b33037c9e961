package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"packd/internal/apperr"
)

func TestPromote(t *testing.T) {
	f := setupTest(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	gear := f.category(t, alice, "Gear", "Tent")

	trip, err := f.trips.Create(ctx, alice, CreateTripInput{Name: "Lake"})
	require.NoError(t, err)
	kayak, err := f.trips.CreateItem(ctx, alice, trip.ID, TripItemInput{Name: "Kayak"})
	require.NoError(t, err)

	created, err := f.trips.Promote(ctx, alice, trip.ID, kayak.ID, gear.String())
	require.NoError(t, err)
	assert.Equal(t, "Kayak", created.Name)
	assert.Equal(t, gear, created.CategoryID)

	got, err := f.trips.GetItem(ctx, alice, trip.ID, kayak.ID)
	require.NoError(t, err)
	require.NotNil(t, got.SourceCategoryID)
	assert.Equal(t, gear, *got.SourceCategoryID)
	assert.True(t, got.IsCustom)
	assert.Equal(t, "Kayak", got.Name)

	items, err := f.categories.ListItems(ctx, alice, gear)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	// a later trip picks the promoted item up
	next, err := f.trips.Create(ctx, alice, CreateTripInput{Name: "Lake again", CategoryIDs: []uuid.UUID{gear}})
	require.NoError(t, err)
	nextItems, err := f.trips.ListItems(ctx, alice, next.ID)
	require.NoError(t, err)
	assert.Len(t, nextItems, 2)
}

func TestPromoteDuplicateLeavesItemAlone(t *testing.T) {
	f := setupTest(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	gear := f.category(t, alice, "Gear", "Kayak")
	other := f.category(t, alice, "Other")

	trip, err := f.trips.Create(ctx, alice, CreateTripInput{Name: "Lake"})
	require.NoError(t, err)
	kayak, err := f.trips.CreateItem(ctx, alice, trip.ID, TripItemInput{Name: "Kayak", SourceCategoryID: &other})
	require.NoError(t, err)

	_, err = f.trips.Promote(ctx, alice, trip.ID, kayak.ID, gear.String())
	require.True(t, apperr.Is(err, apperr.CodeValidation))

	got, err := f.trips.GetItem(ctx, alice, trip.ID, kayak.ID)
	require.NoError(t, err)
	require.NotNil(t, got.SourceCategoryID)
	assert.Equal(t, other, *got.SourceCategoryID)

	items, err := f.categories.ListItems(ctx, alice, gear)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	// names are case-sensitive
	lower, err := f.trips.CreateItem(ctx, alice, trip.ID, TripItemInput{Name: "kayak"})
	require.NoError(t, err)
	_, err = f.trips.Promote(ctx, alice, trip.ID, lower.ID, gear.String())
	assert.NoError(t, err)
}

func TestPromoteErrors(t *testing.T) {
	f := setupTest(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	mine := f.category(t, alice, "Mine")
	theirs := f.category(t, bob, "Theirs")

	trip, err := f.trips.Create(ctx, alice, CreateTripInput{Name: "Lake"})
	require.NoError(t, err)
	item, err := f.trips.CreateItem(ctx, alice, trip.ID, TripItemInput{Name: "Kayak"})
	require.NoError(t, err)

	tests := []struct {
		name     string
		user     uuid.UUID
		trip     uuid.UUID
		item     uuid.UUID
		category string
		code     apperr.Code
	}{
		{"missing category id", alice, trip.ID, item.ID, "", apperr.CodeValidation},
		{"malformed category id", alice, trip.ID, item.ID, "not-a-uuid", apperr.CodeValidation},
		{"foreign category", alice, trip.ID, item.ID, theirs.String(), apperr.CodeNotFound},
		{"unknown item", alice, trip.ID, uuid.New(), mine.String(), apperr.CodeNotFound},
		{"foreign trip", bob, trip.ID, item.ID, theirs.String(), apperr.CodeNotFound},
		{"foreign trip without category", bob, trip.ID, item.ID, "", apperr.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.trips.Promote(ctx, tt.user, tt.trip, tt.item, tt.category)
			assert.True(t, apperr.Is(err, tt.code), "got %v", err)
		})
	}

	got, err := f.trips.GetItem(ctx, alice, trip.ID, item.ID)
	require.NoError(t, err)
	assert.Nil(t, got.SourceCategoryID)
}

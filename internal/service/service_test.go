package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"packd/internal/models"
	"packd/internal/repository"
	"packd/internal/repository/memory"
)

type fixture struct {
	store      *memory.Store
	categories *Categories
	trips      *Trips
	importer   *Importer
	accounts   *Accounts
}

func setupTest(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	return &fixture{
		store:      store,
		categories: NewCategories(store),
		trips:      NewTrips(store),
		importer:   NewImporter(store),
		accounts: NewAccounts(store, AccountsConfig{
			AdminGroup:  "admin",
			StaffGroup:  "staff",
			CreateUsers: true,
		}),
	}
}

func (f *fixture) user(t *testing.T, name string) uuid.UUID {
	t.Helper()
	u := &models.User{ID: uuid.New(), Username: name, CreatedAt: repository.Now(), UpdatedAt: repository.Now()}
	require.NoError(t, f.store.CreateUser(context.Background(), u))
	return u.ID
}

func (f *fixture) category(t *testing.T, userID uuid.UUID, name string, items ...string) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	c, err := f.categories.Create(ctx, userID, name)
	require.NoError(t, err)
	for _, it := range items {
		_, err := f.categories.CreateItem(ctx, userID, c.ID, it)
		require.NoError(t, err)
	}
	return c.ID
}

var errInjected = errors.New("injected failure")

// failingStore fails the Nth CreateTripCategory or the Nth CreateCategoryItem
// issued inside a transaction. Zero disables a counter.
type failingStore struct {
	repository.Store
	failOn     int
	failItemOn int
}

func (f *failingStore) WithTx(ctx context.Context, fn func(q repository.Queries) error) error {
	return f.Store.WithTx(ctx, func(q repository.Queries) error {
		return fn(&failingQueries{Queries: q, failOn: f.failOn, failItemOn: f.failItemOn})
	})
}

type failingQueries struct {
	repository.Queries
	calls      int
	failOn     int
	itemCalls  int
	failItemOn int
}

func (f *failingQueries) CreateCategoryItem(ctx context.Context, it *models.CategoryItem) error {
	f.itemCalls++
	if f.itemCalls == f.failItemOn {
		return errInjected
	}
	return f.Queries.CreateCategoryItem(ctx, it)
}

func (f *failingQueries) CreateTripCategory(ctx context.Context, tc *models.TripCategory) error {
	f.calls++
	if f.calls == f.failOn {
		return errInjected
	}
	return f.Queries.CreateTripCategory(ctx, tc)
}

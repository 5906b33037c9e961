// Package repository persists users, categories and trips.
//
// Every lookup of a user-owned record takes the owner's id and folds it into the
// query predicate, so a record owned by someone else is indistinguishable from a
// missing one. Child records (category items, trip categories, trip items) are
// looked up by their parent id after the parent has passed that check.
package repository

import (
	"context"

	"github.com/google/uuid"

	"packd/internal/models"
)

// Queries is the set of store operations available both outside and inside a transaction.
type Queries interface {
	// Users
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error

	// Categories
	ListCategories(ctx context.Context, userID uuid.UUID) ([]models.Category, error)
	GetCategory(ctx context.Context, userID, id uuid.UUID) (*models.Category, error)
	GetCategoryByName(ctx context.Context, userID uuid.UUID, name string) (*models.Category, error)
	CreateCategory(ctx context.Context, c *models.Category) error
	UpdateCategory(ctx context.Context, c *models.Category) error
	DeleteCategory(ctx context.Context, userID, id uuid.UUID) error

	// Category items
	ListCategoryItems(ctx context.Context, categoryID uuid.UUID) ([]models.CategoryItem, error)
	GetCategoryItem(ctx context.Context, categoryID, id uuid.UUID) (*models.CategoryItem, error)
	CategoryItemExists(ctx context.Context, categoryID uuid.UUID, name string) (bool, error)
	CreateCategoryItem(ctx context.Context, it *models.CategoryItem) error
	UpdateCategoryItem(ctx context.Context, it *models.CategoryItem) error
	DeleteCategoryItem(ctx context.Context, categoryID, id uuid.UUID) error

	// Trips
	ListTrips(ctx context.Context, userID uuid.UUID) ([]models.Trip, error)
	GetTrip(ctx context.Context, userID, id uuid.UUID) (*models.Trip, error)
	CreateTrip(ctx context.Context, t *models.Trip) error
	UpdateTrip(ctx context.Context, t *models.Trip) error
	DeleteTrip(ctx context.Context, userID, id uuid.UUID) error
	TripProgress(ctx context.Context, tripID uuid.UUID) (models.Progress, error)

	// Trip categories
	CreateTripCategory(ctx context.Context, tc *models.TripCategory) error
	ListTripCategories(ctx context.Context, tripID uuid.UUID) ([]models.TripCategory, error)

	// Trip items
	ListTripItems(ctx context.Context, tripID uuid.UUID) ([]models.TripItem, error)
	GetTripItem(ctx context.Context, tripID, id uuid.UUID) (*models.TripItem, error)
	CreateTripItem(ctx context.Context, it *models.TripItem) error
	// UpdateTripItem writes name, is_packed and source_category only.
	UpdateTripItem(ctx context.Context, it *models.TripItem) error
	DeleteTripItem(ctx context.Context, tripID, id uuid.UUID) error

	// LockUser serializes transactions that get-or-create records for one user.
	// It only has an effect inside WithTx.
	LockUser(ctx context.Context, userID uuid.UUID) error
}

// Store is a Queries backed by a database that can run all-or-nothing transactions.
type Store interface {
	Queries

	// WithTx runs fn in a transaction. The transaction commits if fn returns nil
	// and rolls back otherwise; nothing fn wrote is visible after a rollback.
	WithTx(ctx context.Context, fn func(q Queries) error) error

	Ping(ctx context.Context) error
	Close()
}

package memory

import (
	"context"

	"github.com/google/uuid"

	"packd/internal/models"
)

// Outside a transaction each call takes the store mutex and runs against the live state.

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.CreateUser(ctx, u)
}

func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.GetUserByID(ctx, id)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.GetUserByUsername(ctx, username)
}

func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.UpdateUser(ctx, u)
}

func (s *Store) ListCategories(ctx context.Context, userID uuid.UUID) ([]models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.ListCategories(ctx, userID)
}

func (s *Store) GetCategory(ctx context.Context, userID, id uuid.UUID) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.GetCategory(ctx, userID, id)
}

func (s *Store) GetCategoryByName(ctx context.Context, userID uuid.UUID, name string) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.GetCategoryByName(ctx, userID, name)
}

func (s *Store) CreateCategory(ctx context.Context, c *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.CreateCategory(ctx, c)
}

func (s *Store) UpdateCategory(ctx context.Context, c *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.UpdateCategory(ctx, c)
}

func (s *Store) DeleteCategory(ctx context.Context, userID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.DeleteCategory(ctx, userID, id)
}

func (s *Store) ListCategoryItems(ctx context.Context, categoryID uuid.UUID) ([]models.CategoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.ListCategoryItems(ctx, categoryID)
}

func (s *Store) GetCategoryItem(ctx context.Context, categoryID, id uuid.UUID) (*models.CategoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.GetCategoryItem(ctx, categoryID, id)
}

func (s *Store) CategoryItemExists(ctx context.Context, categoryID uuid.UUID, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.CategoryItemExists(ctx, categoryID, name)
}

func (s *Store) CreateCategoryItem(ctx context.Context, it *models.CategoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.CreateCategoryItem(ctx, it)
}

func (s *Store) UpdateCategoryItem(ctx context.Context, it *models.CategoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.UpdateCategoryItem(ctx, it)
}

func (s *Store) DeleteCategoryItem(ctx context.Context, categoryID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.DeleteCategoryItem(ctx, categoryID, id)
}

func (s *Store) ListTrips(ctx context.Context, userID uuid.UUID) ([]models.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.ListTrips(ctx, userID)
}

func (s *Store) GetTrip(ctx context.Context, userID, id uuid.UUID) (*models.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.GetTrip(ctx, userID, id)
}

func (s *Store) CreateTrip(ctx context.Context, t *models.Trip) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.CreateTrip(ctx, t)
}

func (s *Store) UpdateTrip(ctx context.Context, t *models.Trip) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.UpdateTrip(ctx, t)
}

func (s *Store) DeleteTrip(ctx context.Context, userID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.DeleteTrip(ctx, userID, id)
}

func (s *Store) TripProgress(ctx context.Context, tripID uuid.UUID) (models.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.TripProgress(ctx, tripID)
}

func (s *Store) CreateTripCategory(ctx context.Context, tc *models.TripCategory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.CreateTripCategory(ctx, tc)
}

func (s *Store) ListTripCategories(ctx context.Context, tripID uuid.UUID) ([]models.TripCategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.ListTripCategories(ctx, tripID)
}

func (s *Store) ListTripItems(ctx context.Context, tripID uuid.UUID) ([]models.TripItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.ListTripItems(ctx, tripID)
}

func (s *Store) GetTripItem(ctx context.Context, tripID, id uuid.UUID) (*models.TripItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.GetTripItem(ctx, tripID, id)
}

func (s *Store) CreateTripItem(ctx context.Context, ti *models.TripItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.CreateTripItem(ctx, ti)
}

func (s *Store) UpdateTripItem(ctx context.Context, ti *models.TripItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.UpdateTripItem(ctx, ti)
}

func (s *Store) DeleteTripItem(ctx context.Context, tripID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.DeleteTripItem(ctx, tripID, id)
}

func (s *Store) LockUser(ctx context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.LockUser(ctx, userID)
}

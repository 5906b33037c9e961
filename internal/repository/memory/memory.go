// Package memory is an in-process repository.Store. It backs DB_DRIVER=memory
// and the service and handler tests.
//
// Transactions run against a copy of the state that replaces the live state on
// commit, so a failed transaction leaves nothing behind. One mutex serializes
// every operation, transactions included.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"packd/internal/apperr"
	"packd/internal/models"
	"packd/internal/repository"
)

type state struct {
	users          map[uuid.UUID]models.User
	categories     map[uuid.UUID]models.Category
	categoryItems  map[uuid.UUID]models.CategoryItem
	trips          map[uuid.UUID]models.Trip
	tripCategories map[uuid.UUID]models.TripCategory
	tripItems      map[uuid.UUID]models.TripItem
}

func newState() *state {
	return &state{
		users:          map[uuid.UUID]models.User{},
		categories:     map[uuid.UUID]models.Category{},
		categoryItems:  map[uuid.UUID]models.CategoryItem{},
		trips:          map[uuid.UUID]models.Trip{},
		tripCategories: map[uuid.UUID]models.TripCategory{},
		tripItems:      map[uuid.UUID]models.TripItem{},
	}
}

func cloneMap[V any](m map[uuid.UUID]V) map[uuid.UUID]V {
	out := make(map[uuid.UUID]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// clone copies the state. Records are values and pointer fields are only ever
// replaced, never written through, so a shallow copy per record is enough.
func (s *state) clone() *state {
	return &state{
		users:          cloneMap(s.users),
		categories:     cloneMap(s.categories),
		categoryItems:  cloneMap(s.categoryItems),
		trips:          cloneMap(s.trips),
		tripCategories: cloneMap(s.tripCategories),
		tripItems:      cloneMap(s.tripItems),
	}
}

// Store is a thread-safe in-memory repository.Store.
type Store struct {
	mu sync.Mutex
	st *state
}

var _ repository.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{st: newState()}
}

// WithTx runs fn against a private copy of the state and publishes it if fn succeeds.
func (s *Store) WithTx(ctx context.Context, fn func(q repository.Queries) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return apperr.Internal(err)
	}
	work := s.st.clone()
	if err := fn(work); err != nil {
		return err
	}
	s.st = work
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}

// Users

func (s *state) CreateUser(_ context.Context, u *models.User) error {
	if _, ok := s.users[u.ID]; ok {
		return apperr.Validation("user already exists")
	}
	for _, existing := range s.users {
		if existing.Username == u.Username {
			return apperr.Validation("user already exists")
		}
	}
	s.users[u.ID] = *u
	return nil
}

func (s *state) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, apperr.NotFound("user")
	}
	return &u, nil
}

func (s *state) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, apperr.NotFound("user")
}

func (s *state) UpdateUser(_ context.Context, u *models.User) error {
	existing, ok := s.users[u.ID]
	if !ok {
		return apperr.NotFound("user")
	}
	existing.Email = u.Email
	existing.FirstName = u.FirstName
	existing.LastName = u.LastName
	existing.PasswordHash = u.PasswordHash
	existing.IsStaff = u.IsStaff
	existing.IsSuperuser = u.IsSuperuser
	existing.UpdatedAt = u.UpdatedAt
	s.users[u.ID] = existing
	return nil
}

// Categories

func (s *state) ListCategories(_ context.Context, userID uuid.UUID) ([]models.Category, error) {
	out := make([]models.Category, 0)
	for _, c := range s.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
	return out, nil
}

func (s *state) GetCategory(_ context.Context, userID, id uuid.UUID) (*models.Category, error) {
	c, ok := s.categories[id]
	if !ok || c.UserID != userID {
		return nil, apperr.NotFound("category")
	}
	return &c, nil
}

func (s *state) GetCategoryByName(ctx context.Context, userID uuid.UUID, name string) (*models.Category, error) {
	// ListCategories is ordered by (name, created_at), so the first match is the oldest
	all, _ := s.ListCategories(ctx, userID)
	for _, c := range all {
		if c.Name == name {
			return &c, nil
		}
	}
	return nil, apperr.NotFound("category")
}

func (s *state) CreateCategory(_ context.Context, c *models.Category) error {
	if _, ok := s.categories[c.ID]; ok {
		return apperr.Validation("category already exists")
	}
	s.categories[c.ID] = *c
	return nil
}

func (s *state) UpdateCategory(_ context.Context, c *models.Category) error {
	existing, ok := s.categories[c.ID]
	if !ok || existing.UserID != c.UserID {
		return apperr.NotFound("category")
	}
	existing.Name = c.Name
	s.categories[c.ID] = existing
	return nil
}

func (s *state) DeleteCategory(_ context.Context, userID, id uuid.UUID) error {
	c, ok := s.categories[id]
	if !ok || c.UserID != userID {
		return apperr.NotFound("category")
	}
	delete(s.categories, id)

	for itemID, it := range s.categoryItems {
		if it.CategoryID == id {
			delete(s.categoryItems, itemID)
		}
	}
	// trips keep their snapshot; only the back references are cleared
	for tcID, tc := range s.tripCategories {
		if tc.CategoryID != nil && *tc.CategoryID == id {
			tc.CategoryID = nil
			s.tripCategories[tcID] = tc
		}
	}
	for tiID, ti := range s.tripItems {
		if ti.SourceCategoryID != nil && *ti.SourceCategoryID == id {
			ti.SourceCategoryID = nil
			s.tripItems[tiID] = ti
		}
	}
	return nil
}

// Category items

func (s *state) ListCategoryItems(_ context.Context, categoryID uuid.UUID) ([]models.CategoryItem, error) {
	out := make([]models.CategoryItem, 0)
	for _, it := range s.categoryItems {
		if it.CategoryID == categoryID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
	return out, nil
}

func (s *state) GetCategoryItem(_ context.Context, categoryID, id uuid.UUID) (*models.CategoryItem, error) {
	it, ok := s.categoryItems[id]
	if !ok || it.CategoryID != categoryID {
		return nil, apperr.NotFound("category item")
	}
	return &it, nil
}

func (s *state) CategoryItemExists(_ context.Context, categoryID uuid.UUID, name string) (bool, error) {
	for _, it := range s.categoryItems {
		if it.CategoryID == categoryID && it.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (s *state) CreateCategoryItem(_ context.Context, it *models.CategoryItem) error {
	if _, ok := s.categoryItems[it.ID]; ok {
		return apperr.Validation("category item already exists")
	}
	s.categoryItems[it.ID] = *it
	return nil
}

func (s *state) UpdateCategoryItem(_ context.Context, it *models.CategoryItem) error {
	existing, ok := s.categoryItems[it.ID]
	if !ok || existing.CategoryID != it.CategoryID {
		return apperr.NotFound("category item")
	}
	existing.Name = it.Name
	s.categoryItems[it.ID] = existing
	return nil
}

func (s *state) DeleteCategoryItem(_ context.Context, categoryID, id uuid.UUID) error {
	it, ok := s.categoryItems[id]
	if !ok || it.CategoryID != categoryID {
		return apperr.NotFound("category item")
	}
	delete(s.categoryItems, id)
	return nil
}

// Trips

func (s *state) ListTrips(_ context.Context, userID uuid.UUID) ([]models.Trip, error) {
	out := make([]models.Trip, 0)
	for _, t := range s.trips {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
	return out, nil
}

func (s *state) GetTrip(_ context.Context, userID, id uuid.UUID) (*models.Trip, error) {
	t, ok := s.trips[id]
	if !ok || t.UserID != userID {
		return nil, apperr.NotFound("trip")
	}
	return &t, nil
}

func (s *state) CreateTrip(_ context.Context, t *models.Trip) error {
	if _, ok := s.trips[t.ID]; ok {
		return apperr.Validation("trip already exists")
	}
	s.trips[t.ID] = *t
	return nil
}

func (s *state) UpdateTrip(_ context.Context, t *models.Trip) error {
	existing, ok := s.trips[t.ID]
	if !ok || existing.UserID != t.UserID {
		return apperr.NotFound("trip")
	}
	existing.Name = t.Name
	existing.IsComplete = t.IsComplete
	s.trips[t.ID] = existing
	return nil
}

func (s *state) DeleteTrip(_ context.Context, userID, id uuid.UUID) error {
	t, ok := s.trips[id]
	if !ok || t.UserID != userID {
		return apperr.NotFound("trip")
	}
	delete(s.trips, id)
	for tcID, tc := range s.tripCategories {
		if tc.TripID == id {
			delete(s.tripCategories, tcID)
		}
	}
	for tiID, ti := range s.tripItems {
		if ti.TripID == id {
			delete(s.tripItems, tiID)
		}
	}
	return nil
}

func (s *state) TripProgress(_ context.Context, tripID uuid.UUID) (models.Progress, error) {
	var packed, total int
	for _, ti := range s.tripItems {
		if ti.TripID != tripID {
			continue
		}
		total++
		if ti.IsPacked {
			packed++
		}
	}
	return models.NewProgress(packed, total), nil
}

// Trip categories

func (s *state) CreateTripCategory(_ context.Context, tc *models.TripCategory) error {
	if _, ok := s.tripCategories[tc.ID]; ok {
		return apperr.Validation("trip category already exists")
	}
	s.tripCategories[tc.ID] = *tc
	return nil
}

func (s *state) ListTripCategories(_ context.Context, tripID uuid.UUID) ([]models.TripCategory, error) {
	out := make([]models.TripCategory, 0)
	for _, tc := range s.tripCategories {
		if tc.TripID == tripID {
			out = append(out, tc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.CategoryName != b.CategoryName {
			return a.CategoryName < b.CategoryName
		}
		return a.ID.String() < b.ID.String()
	})
	return out, nil
}

// Trip items

// withCategoryName fills the joined category name.
func (s *state) withCategoryName(ti models.TripItem) models.TripItem {
	ti.CategoryName = nil
	if ti.TripCategoryID != nil {
		if tc, ok := s.tripCategories[*ti.TripCategoryID]; ok {
			name := tc.CategoryName
			ti.CategoryName = &name
		}
	}
	return ti
}

func (s *state) ListTripItems(_ context.Context, tripID uuid.UUID) ([]models.TripItem, error) {
	out := make([]models.TripItem, 0)
	for _, ti := range s.tripItems {
		if ti.TripID == tripID {
			out = append(out, s.withCategoryName(ti))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		an, bn := a.CategoryName, b.CategoryName
		switch {
		case an == nil && bn != nil:
			return false
		case an != nil && bn == nil:
			return true
		case an != nil && bn != nil && *an != *bn:
			return *an < *bn
		}
		if a.IsCustom != b.IsCustom {
			return !a.IsCustom
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID.String() < b.ID.String()
	})
	return out, nil
}

func (s *state) GetTripItem(_ context.Context, tripID, id uuid.UUID) (*models.TripItem, error) {
	ti, ok := s.tripItems[id]
	if !ok || ti.TripID != tripID {
		return nil, apperr.NotFound("trip item")
	}
	ti = s.withCategoryName(ti)
	return &ti, nil
}

func (s *state) CreateTripItem(_ context.Context, ti *models.TripItem) error {
	if _, ok := s.tripItems[ti.ID]; ok {
		return apperr.Validation("trip item already exists")
	}
	stored := *ti
	stored.CategoryName = nil
	s.tripItems[ti.ID] = stored
	return nil
}

func (s *state) UpdateTripItem(_ context.Context, ti *models.TripItem) error {
	existing, ok := s.tripItems[ti.ID]
	if !ok || existing.TripID != ti.TripID {
		return apperr.NotFound("trip item")
	}
	existing.Name = ti.Name
	existing.IsPacked = ti.IsPacked
	existing.SourceCategoryID = ti.SourceCategoryID
	s.tripItems[ti.ID] = existing
	return nil
}

func (s *state) DeleteTripItem(_ context.Context, tripID, id uuid.UUID) error {
	ti, ok := s.tripItems[id]
	if !ok || ti.TripID != tripID {
		return apperr.NotFound("trip item")
	}
	delete(s.tripItems, id)
	return nil
}

// LockUser is a no-op: WithTx already holds the store mutex.
func (s *state) LockUser(context.Context, uuid.UUID) error {
	return nil
}

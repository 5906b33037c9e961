package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"packd/internal/apperr"
	"packd/internal/config"
	"packd/internal/models"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore is the production Store backed by a pgx connection pool.
type PostgresStore struct {
	*pgQueries
	pool *pgxpool.Pool
}

// Connect opens a pool from the database configuration and pings it.
func Connect(ctx context.Context, cfg *config.DatabaseConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	// simple protocol is required behind PgBouncer in transaction mode
	poolCfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	poolCfg.ConnConfig.RuntimeParams["application_name"] = "packd"
	poolCfg.ConnConfig.RuntimeParams["statement_timeout"] = strconv.FormatInt(cfg.QueryTimeout.Milliseconds(), 10)
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return NewPostgresStore(pool), nil
}

// NewPostgresStore wraps an existing pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pgQueries: &pgQueries{db: pool}, pool: pool}
}

// Pool exposes the underlying pool for migrations.
func (s *PostgresStore) Pool() *pgxpool.Pool {
	return s.pool
}

// WithTx runs fn inside a database transaction.
func (s *PostgresStore) WithTx(ctx context.Context, fn func(q Queries) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return apperr.Internal(fmt.Errorf("begin transaction: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(&pgQueries{db: tx, inTx: true}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return apperr.Internal(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

type pgQueries struct {
	db   DBTX
	inTx bool
}

// wrap converts driver errors into application errors.
func wrap(err error, entity string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(entity)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return apperr.Validation(fmt.Sprintf("%s already exists", entity))
	}
	return apperr.Internal(err)
}

// mustAffect turns a zero-row write into NOT_FOUND.
func mustAffect(tag pgconn.CommandTag, err error, entity string) error {
	if err != nil {
		return wrap(err, entity)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(entity)
	}
	return nil
}

// Users

const userColumns = `id, username, email, first_name, last_name, password_hash, is_staff, is_superuser, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName,
		&u.PasswordHash, &u.IsStaff, &u.IsSuperuser, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (q *pgQueries) CreateUser(ctx context.Context, u *models.User) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		u.ID, u.Username, u.Email, u.FirstName, u.LastName,
		u.PasswordHash, u.IsStaff, u.IsSuperuser, u.CreatedAt, u.UpdatedAt)
	return wrap(err, "user")
}

func (q *pgQueries) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := scanUser(q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	return u, wrap(err, "user")
}

func (q *pgQueries) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := scanUser(q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	return u, wrap(err, "user")
}

func (q *pgQueries) UpdateUser(ctx context.Context, u *models.User) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE users
            SET email = $1,
                first_name = $2,
                last_name = $3,
                password_hash = $4,
                is_staff = $5,
                is_superuser = $6,
                updated_at = $7
          WHERE id = $8`,
		u.Email, u.FirstName, u.LastName, u.PasswordHash, u.IsStaff, u.IsSuperuser, u.UpdatedAt, u.ID)
	return mustAffect(tag, err, "user")
}

// Categories

func (q *pgQueries) ListCategories(ctx context.Context, userID uuid.UUID) ([]models.Category, error) {
	rows, err := q.db.Query(ctx,
		`SELECT id, user_id, name, created_at
           FROM categories
          WHERE user_id = $1
          ORDER BY name, created_at, id`, userID)
	if err != nil {
		return nil, wrap(err, "category")
	}
	defer rows.Close()

	categories := make([]models.Category, 0)
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.CreatedAt); err != nil {
			return nil, wrap(err, "category")
		}
		categories = append(categories, c)
	}
	return categories, wrap(rows.Err(), "category")
}

func (q *pgQueries) GetCategory(ctx context.Context, userID, id uuid.UUID) (*models.Category, error) {
	var c models.Category
	err := q.db.QueryRow(ctx,
		`SELECT id, user_id, name, created_at FROM categories WHERE id = $1 AND user_id = $2`,
		id, userID).Scan(&c.ID, &c.UserID, &c.Name, &c.CreatedAt)
	if err != nil {
		return nil, wrap(err, "category")
	}
	return &c, nil
}

func (q *pgQueries) GetCategoryByName(ctx context.Context, userID uuid.UUID, name string) (*models.Category, error) {
	var c models.Category
	err := q.db.QueryRow(ctx,
		`SELECT id, user_id, name, created_at
           FROM categories
          WHERE user_id = $1 AND name = $2
          ORDER BY created_at, id
          LIMIT 1`,
		userID, name).Scan(&c.ID, &c.UserID, &c.Name, &c.CreatedAt)
	if err != nil {
		return nil, wrap(err, "category")
	}
	return &c, nil
}

func (q *pgQueries) CreateCategory(ctx context.Context, c *models.Category) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO categories (id, user_id, name, created_at) VALUES ($1, $2, $3, $4)`,
		c.ID, c.UserID, c.Name, c.CreatedAt)
	return wrap(err, "category")
}

func (q *pgQueries) UpdateCategory(ctx context.Context, c *models.Category) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE categories SET name = $1 WHERE id = $2 AND user_id = $3`,
		c.Name, c.ID, c.UserID)
	return mustAffect(tag, err, "category")
}

func (q *pgQueries) DeleteCategory(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM categories WHERE id = $1 AND user_id = $2`, id, userID)
	return mustAffect(tag, err, "category")
}

// Category items

func (q *pgQueries) ListCategoryItems(ctx context.Context, categoryID uuid.UUID) ([]models.CategoryItem, error) {
	rows, err := q.db.Query(ctx,
		`SELECT id, category_id, name, created_at
           FROM category_items
          WHERE category_id = $1
          ORDER BY name, created_at, id`, categoryID)
	if err != nil {
		return nil, wrap(err, "category item")
	}
	defer rows.Close()

	items := make([]models.CategoryItem, 0)
	for rows.Next() {
		var it models.CategoryItem
		if err := rows.Scan(&it.ID, &it.CategoryID, &it.Name, &it.CreatedAt); err != nil {
			return nil, wrap(err, "category item")
		}
		items = append(items, it)
	}
	return items, wrap(rows.Err(), "category item")
}

func (q *pgQueries) GetCategoryItem(ctx context.Context, categoryID, id uuid.UUID) (*models.CategoryItem, error) {
	var it models.CategoryItem
	err := q.db.QueryRow(ctx,
		`SELECT id, category_id, name, created_at FROM category_items WHERE id = $1 AND category_id = $2`,
		id, categoryID).Scan(&it.ID, &it.CategoryID, &it.Name, &it.CreatedAt)
	if err != nil {
		return nil, wrap(err, "category item")
	}
	return &it, nil
}

func (q *pgQueries) CategoryItemExists(ctx context.Context, categoryID uuid.UUID, name string) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM category_items WHERE category_id = $1 AND name = $2)`,
		categoryID, name).Scan(&exists)
	if err != nil {
		return false, wrap(err, "category item")
	}
	return exists, nil
}

func (q *pgQueries) CreateCategoryItem(ctx context.Context, it *models.CategoryItem) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO category_items (id, category_id, name, created_at) VALUES ($1, $2, $3, $4)`,
		it.ID, it.CategoryID, it.Name, it.CreatedAt)
	return wrap(err, "category item")
}

func (q *pgQueries) UpdateCategoryItem(ctx context.Context, it *models.CategoryItem) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE category_items SET name = $1 WHERE id = $2 AND category_id = $3`,
		it.Name, it.ID, it.CategoryID)
	return mustAffect(tag, err, "category item")
}

func (q *pgQueries) DeleteCategoryItem(ctx context.Context, categoryID, id uuid.UUID) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM category_items WHERE id = $1 AND category_id = $2`, id, categoryID)
	return mustAffect(tag, err, "category item")
}

// Trips

func (q *pgQueries) ListTrips(ctx context.Context, userID uuid.UUID) ([]models.Trip, error) {
	rows, err := q.db.Query(ctx,
		`SELECT id, user_id, name, is_complete, created_at
           FROM trips
          WHERE user_id = $1
          ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, wrap(err, "trip")
	}
	defer rows.Close()

	trips := make([]models.Trip, 0)
	for rows.Next() {
		var t models.Trip
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.IsComplete, &t.CreatedAt); err != nil {
			return nil, wrap(err, "trip")
		}
		trips = append(trips, t)
	}
	return trips, wrap(rows.Err(), "trip")
}

func (q *pgQueries) GetTrip(ctx context.Context, userID, id uuid.UUID) (*models.Trip, error) {
	var t models.Trip
	err := q.db.QueryRow(ctx,
		`SELECT id, user_id, name, is_complete, created_at FROM trips WHERE id = $1 AND user_id = $2`,
		id, userID).Scan(&t.ID, &t.UserID, &t.Name, &t.IsComplete, &t.CreatedAt)
	if err != nil {
		return nil, wrap(err, "trip")
	}
	return &t, nil
}

func (q *pgQueries) CreateTrip(ctx context.Context, t *models.Trip) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO trips (id, user_id, name, is_complete, created_at) VALUES ($1, $2, $3, $4, $5)`,
		t.ID, t.UserID, t.Name, t.IsComplete, t.CreatedAt)
	return wrap(err, "trip")
}

func (q *pgQueries) UpdateTrip(ctx context.Context, t *models.Trip) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE trips SET name = $1, is_complete = $2 WHERE id = $3 AND user_id = $4`,
		t.Name, t.IsComplete, t.ID, t.UserID)
	return mustAffect(tag, err, "trip")
}

func (q *pgQueries) DeleteTrip(ctx context.Context, userID, id uuid.UUID) error {
	// trip_categories and trip_items go with it (ON DELETE CASCADE)
	tag, err := q.db.Exec(ctx, `DELETE FROM trips WHERE id = $1 AND user_id = $2`, id, userID)
	return mustAffect(tag, err, "trip")
}

func (q *pgQueries) TripProgress(ctx context.Context, tripID uuid.UUID) (models.Progress, error) {
	var packed, total int
	err := q.db.QueryRow(ctx,
		`SELECT COUNT(*) FILTER (WHERE is_packed), COUNT(*) FROM trip_items WHERE trip_id = $1`,
		tripID).Scan(&packed, &total)
	if err != nil {
		return models.Progress{}, wrap(err, "trip")
	}
	return models.NewProgress(packed, total), nil
}

// Trip categories

func (q *pgQueries) CreateTripCategory(ctx context.Context, tc *models.TripCategory) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO trip_categories (id, trip_id, category_id, category_name) VALUES ($1, $2, $3, $4)`,
		tc.ID, tc.TripID, tc.CategoryID, tc.CategoryName)
	return wrap(err, "trip category")
}

func (q *pgQueries) ListTripCategories(ctx context.Context, tripID uuid.UUID) ([]models.TripCategory, error) {
	rows, err := q.db.Query(ctx,
		`SELECT id, trip_id, category_id, category_name
           FROM trip_categories
          WHERE trip_id = $1
          ORDER BY category_name, id`, tripID)
	if err != nil {
		return nil, wrap(err, "trip category")
	}
	defer rows.Close()

	out := make([]models.TripCategory, 0)
	for rows.Next() {
		var tc models.TripCategory
		if err := rows.Scan(&tc.ID, &tc.TripID, &tc.CategoryID, &tc.CategoryName); err != nil {
			return nil, wrap(err, "trip category")
		}
		out = append(out, tc)
	}
	return out, wrap(rows.Err(), "trip category")
}

// Trip items

const tripItemSelect = `
	SELECT ti.id, ti.trip_id, ti.trip_category_id, tc.category_name, ti.name,
	       ti.is_packed, ti.is_custom, ti.source_category_id, ti.created_at
	  FROM trip_items ti
	  LEFT JOIN trip_categories tc ON tc.id = ti.trip_category_id`

func scanTripItem(row pgx.Row) (*models.TripItem, error) {
	var it models.TripItem
	err := row.Scan(&it.ID, &it.TripID, &it.TripCategoryID, &it.CategoryName, &it.Name,
		&it.IsPacked, &it.IsCustom, &it.SourceCategoryID, &it.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (q *pgQueries) ListTripItems(ctx context.Context, tripID uuid.UUID) ([]models.TripItem, error) {
	rows, err := q.db.Query(ctx, tripItemSelect+`
	 WHERE ti.trip_id = $1
	 ORDER BY tc.category_name, ti.is_custom, ti.name, ti.id`, tripID)
	if err != nil {
		return nil, wrap(err, "trip item")
	}
	defer rows.Close()

	items := make([]models.TripItem, 0)
	for rows.Next() {
		it, err := scanTripItem(rows)
		if err != nil {
			return nil, wrap(err, "trip item")
		}
		items = append(items, *it)
	}
	return items, wrap(rows.Err(), "trip item")
}

func (q *pgQueries) GetTripItem(ctx context.Context, tripID, id uuid.UUID) (*models.TripItem, error) {
	it, err := scanTripItem(q.db.QueryRow(ctx, tripItemSelect+`
	 WHERE ti.id = $1 AND ti.trip_id = $2`, id, tripID))
	if err != nil {
		return nil, wrap(err, "trip item")
	}
	return it, nil
}

func (q *pgQueries) CreateTripItem(ctx context.Context, it *models.TripItem) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO trip_items (id, trip_id, trip_category_id, name, is_packed, is_custom, source_category_id, created_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		it.ID, it.TripID, it.TripCategoryID, it.Name, it.IsPacked, it.IsCustom, it.SourceCategoryID, it.CreatedAt)
	return wrap(err, "trip item")
}

func (q *pgQueries) UpdateTripItem(ctx context.Context, it *models.TripItem) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE trip_items
            SET name = $1,
                is_packed = $2,
                source_category_id = $3
          WHERE id = $4 AND trip_id = $5`,
		it.Name, it.IsPacked, it.SourceCategoryID, it.ID, it.TripID)
	return mustAffect(tag, err, "trip item")
}

func (q *pgQueries) DeleteTripItem(ctx context.Context, tripID, id uuid.UUID) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM trip_items WHERE id = $1 AND trip_id = $2`, id, tripID)
	return mustAffect(tag, err, "trip item")
}

// LockUser takes a transaction-scoped advisory lock keyed on the user id.
func (q *pgQueries) LockUser(ctx context.Context, userID uuid.UUID) error {
	if !q.inTx {
		return nil
	}
	_, err := q.db.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, userID.String())
	if err != nil {
		return apperr.Internal(fmt.Errorf("lock user %s: %w", userID, err))
	}
	return nil
}

// now is truncated to microseconds so values round-trip through TIMESTAMPTZ unchanged.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// Now returns the timestamp used for new records.
func Now() time.Time {
	return now()
}

package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// TripNameMaxLen bounds Trip.Name
const TripNameMaxLen = 200

// Trip is a packing checklist owned by a user
type Trip struct {
	ID         uuid.UUID `json:"id" db:"id"`
	UserID     uuid.UUID `json:"-" db:"user_id"`
	Name       string    `json:"name" db:"name"`
	IsComplete bool      `json:"is_complete" db:"is_complete"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// TripCategory records a category snapshot taken when the trip was created.
// CategoryName is a durable copy and is never re-synced with the source category.
type TripCategory struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	TripID       uuid.UUID  `json:"-" db:"trip_id"`
	CategoryID   *uuid.UUID `json:"category" db:"category_id"` // nulled when the category is deleted
	CategoryName string     `json:"category_name" db:"category_name"`
}

// TripItem is one line of a trip's checklist
type TripItem struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	TripID           uuid.UUID  `json:"-" db:"trip_id"`
	TripCategoryID   *uuid.UUID `json:"-" db:"trip_category_id"`
	CategoryName     *string    `json:"category_name" db:"category_name"` // joined from trip_categories
	Name             string     `json:"name" db:"name"`
	IsPacked         bool       `json:"is_packed" db:"is_packed"`
	IsCustom         bool       `json:"is_custom" db:"is_custom"`
	SourceCategoryID *uuid.UUID `json:"source_category" db:"source_category_id"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
}

// Progress is derived packing progress; it is never stored
type Progress struct {
	Packed     int `json:"packed"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// NewProgress computes the percentage of packed items, rounding half to even.
// An empty trip is 0%.
func NewProgress(packed, total int) Progress {
	p := Progress{Packed: packed, Total: total}
	if total > 0 {
		p.Percentage = int(math.RoundToEven(float64(packed) / float64(total) * 100))
	}
	return p
}

// ProgressOf counts packed items in a slice of trip items
func ProgressOf(items []TripItem) Progress {
	packed := 0
	for _, it := range items {
		if it.IsPacked {
			packed++
		}
	}
	return NewProgress(packed, len(items))
}

package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	// CategoryNameMaxLen bounds Category.Name
	CategoryNameMaxLen = 100
	// ItemNameMaxLen bounds CategoryItem.Name and TripItem.Name
	ItemNameMaxLen = 200
)

// Category is a reusable, user-owned template of packable items
type Category struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"-" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CategoryItem is a template item within a category
type CategoryItem struct {
	ID         uuid.UUID `json:"id" db:"id"`
	CategoryID uuid.UUID `json:"-" db:"category_id"`
	Name       string    `json:"name" db:"name"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

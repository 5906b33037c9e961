package dto

import (
	"encoding/json"

	"github.com/google/uuid"
)

// OptionalUUID is a nullable id field that remembers whether it was sent at all.
// Absent leaves Set false; null or "" sets it with a nil Value.
type OptionalUUID struct {
	Set   bool
	Value *uuid.UUID
}

// UnmarshalJSON implements json.Unmarshaler
func (o *OptionalUUID) UnmarshalJSON(b []byte) error {
	o.Set = true
	o.Value = nil
	if string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	o.Value = &id
	return nil
}

// CategoryRequest creates or renames a category
type CategoryRequest struct {
	Name *string `json:"name"`
}

// CategoryItemRequest creates or renames a category item
type CategoryItemRequest struct {
	Name *string `json:"name"`
}

// ImportRowRequest is one row of a bulk import
type ImportRowRequest struct {
	Category string `json:"category"`
	Item     string `json:"item"`
}

// ImportRequest is the bulk import payload
type ImportRequest struct {
	Items []ImportRowRequest `json:"items"`
}

// ImportResponse reports what a bulk import did
type ImportResponse struct {
	CategoriesCreated  int `json:"categories_created"`
	CategoriesExisting int `json:"categories_existing"`
	ItemsCreated       int `json:"items_created"`
	ItemsSkipped       int `json:"items_skipped"`
}

// CreateTripRequest represents the payload to create a trip.
// Categories are snapshotted in the order given.
type CreateTripRequest struct {
	Name       string   `json:"name"`
	Categories []string `json:"categories"`
	Template   *string  `json:"template,omitempty"`
}

// UpdateTripRequest represents fields allowed to update a trip
// All fields are optional; only provided ones will be updated
type UpdateTripRequest struct {
	Name       *string `json:"name"`
	IsComplete *bool   `json:"is_complete"`
}

// TripItemRequest creates or updates a trip item. is_custom is not accepted.
type TripItemRequest struct {
	Name           *string      `json:"name"`
	IsPacked       *bool        `json:"is_packed"`
	SourceCategory OptionalUUID `json:"source_category" swaggertype:"string"`
}

// PromoteRequest names the category a trip item is added to
type PromoteRequest struct {
	CategoryID string `json:"category_id"`
}

// SuccessResponse is returned by actions without a resource body
type SuccessResponse struct {
	Success bool `json:"success"`
}

package web

import (
	"github.com/google/uuid"

	"packd/internal/models"
	"packd/internal/service"
)

// LoginPage is the template data for the login page.
type LoginPage struct {
	PageData
	PasswordLoginEnabled bool
	OIDCEnabled          bool
	ConfigError          string
	Error                string
	FormUsername         string
	Next                 string
}

// RegisterPage is the template data for the registration page.
type RegisterPage struct {
	PageData
	Error        string
	FormUsername string
	FormEmail    string
}

// DashboardPage is the template data for the dashboard.
type DashboardPage struct {
	PageData
	Stats *service.Dashboard
}

// CategoriesPage is the template data for the category list.
type CategoriesPage struct {
	PageData
	Categories []service.CategoryDetail
	Error      string
	FormName   string
}

// CategoryPage is the template data for one category.
type CategoryPage struct {
	PageData
	Category *service.CategoryDetail
}

// TripsPage is the template data for the trip list.
type TripsPage struct {
	PageData
	ActiveTrips    []service.TripSummary
	CompletedTrips []service.TripSummary
}

// TripCreatePage is the template data for the new-trip form.
type TripCreatePage struct {
	PageData
	Categories []models.Category
	Trips      []service.TripSummary
	Template   *models.Trip
	Selected   []uuid.UUID
	Error      string
	FormName   string
}

// TripPage is the template data for a trip checklist.
type TripPage struct {
	PageData
	Trip       *service.TripDetail
	Categories []models.Category
}

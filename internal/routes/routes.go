package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"packd/internal/config"
	"packd/internal/handlers"
	"packd/internal/middleware"
	"packd/internal/web"
)

// Handlers groups everything the router dispatches to.
type Handlers struct {
	Auth       *handlers.AuthHandler
	Accounts   *handlers.AccountsHandler
	Categories *handlers.CategoriesHandler
	Trips      *handlers.TripsHandler
	Pages      *handlers.PagesHandler
	Health     *handlers.HealthHandler
}

// SetupRoutes configures all application routes
func SetupRoutes(h Handlers, cfg *config.Config) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Session(&cfg.JWT))

	// Health check routes
	r.Get("/healthz", h.Health.HealthCheck)
	r.Get("/livez", h.Health.LivenessCheck)
	r.Get("/readyz", h.Health.ReadinessCheck)

	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(c.Handler)

		// Authentication routes
		r.HandleFunc("/auth/register", h.Auth.Register)
		r.HandleFunc("/auth/login", h.Auth.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAPIUser)

			r.HandleFunc("/auth/me", h.Auth.Me)

			r.HandleFunc("/categories/", h.Categories.Categories)
			r.HandleFunc("/categories/import/", h.Categories.Import)
			r.HandleFunc("/categories/{id}/", h.Categories.Category)
			r.HandleFunc("/categories/{id}/items/", h.Categories.Items)
			r.HandleFunc("/categories/{id}/items/{itemID}/", h.Categories.Item)

			r.HandleFunc("/trips/", h.Trips.Trips)
			r.HandleFunc("/trips/{id}/", h.Trips.Trip)
			r.HandleFunc("/trips/{id}/complete/", h.Trips.ToggleComplete)
			r.HandleFunc("/trips/{id}/items/", h.Trips.Items)
			r.HandleFunc("/trips/{id}/items/{itemID}/", h.Trips.Item)
			r.HandleFunc("/trips/{id}/items/{itemID}/add-to-category/", h.Trips.AddToCategory)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(web.SecurityHeaders)

		r.HandleFunc("/accounts/login/", h.Accounts.Login)
		r.HandleFunc("/accounts/logout/", h.Accounts.Logout)
		r.HandleFunc("/accounts/register/", h.Accounts.Register)
		r.Get("/accounts/oidc/authenticate/", h.Accounts.OIDCAuthenticate)
		r.Get("/accounts/oidc/callback/", h.Accounts.OIDCCallback)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePageUser)

			r.Get("/", h.Pages.Dashboard)

			r.HandleFunc("/categories/", h.Pages.Categories)
			r.HandleFunc("/categories/{id}/", h.Pages.Category)
			r.Post("/categories/{id}/delete/", h.Pages.DeleteCategory)
			r.Post("/categories/{id}/items/", h.Pages.AddCategoryItem)
			r.Post("/categories/{id}/items/{itemID}/delete/", h.Pages.DeleteCategoryItem)

			r.Get("/trips/", h.Pages.Trips)
			r.HandleFunc("/trips/create/", h.Pages.CreateTrip)
			r.Get("/trips/{id}/", h.Pages.Trip)
			r.Post("/trips/{id}/complete/", h.Pages.ToggleTripComplete)
			r.Post("/trips/{id}/delete/", h.Pages.DeleteTrip)
			r.Post("/trips/{id}/items/", h.Pages.AddTripItem)
			r.Post("/trips/{id}/items/{itemID}/toggle/", h.Pages.ToggleTripItem)
			r.Post("/trips/{id}/items/{itemID}/add-to-category/", h.Pages.PromoteTripItem)
			r.Post("/trips/{id}/items/{itemID}/delete/", h.Pages.DeleteTripItem)
		})
	})

	return r
}

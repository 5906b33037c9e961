package handlers

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"packd/internal/apperr"
	"packd/internal/config"
	"packd/internal/middleware"
	"packd/internal/models"
	"packd/internal/service"
	"packd/internal/web"
)

// PagesHandler serves the server-rendered pages for signed-in users.
type PagesHandler struct {
	categories *service.Categories
	trips      *service.Trips
	config     *config.Config
	renderer   *web.Renderer
}

// NewPagesHandler creates a new PagesHandler
func NewPagesHandler(categories *service.Categories, trips *service.Trips, cfg *config.Config, renderer *web.Renderer) *PagesHandler {
	return &PagesHandler{categories: categories, trips: trips, config: cfg, renderer: renderer}
}

func (h *PagesHandler) page(w http.ResponseWriter, r *http.Request, title, nav string) web.PageData {
	return web.PageData{
		Title:    title,
		Nav:      nav,
		Username: middleware.UsernameFromContext(r.Context()),
		Flashes:  web.PopFlashes(w, r),
	}
}

func (h *PagesHandler) flash(w http.ResponseWriter, r *http.Request, level, message string) {
	web.AddFlash(w, r, h.config.Server.SecureCookies, level, message)
}

// fail sends validation problems back to the previous page as a flash and
// renders everything else as an error page.
func (h *PagesHandler) fail(w http.ResponseWriter, r *http.Request, back string, err error) {
	if apperr.Is(err, apperr.CodeValidation) {
		h.flash(w, r, "error", apperr.From(err).Message)
		http.Redirect(w, r, back, http.StatusFound)
		return
	}
	h.renderer.RenderError(w, h.page(w, r, "", ""), err)
}

func postOnly(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// Dashboard handles GET /
func (h *PagesHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.renderer.RenderError(w, web.PageData{}, err)
		return
	}
	stats, err := h.trips.Dashboard(r.Context(), userID)
	if err != nil {
		h.renderer.RenderError(w, h.page(w, r, "", "dashboard"), err)
		return
	}
	h.renderer.Render(w, "dashboard", web.DashboardPage{
		PageData: h.page(w, r, "Dashboard", "dashboard"),
		Stats:    stats,
	})
}

// Categories handles GET/POST /categories/
func (h *PagesHandler) Categories(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.renderer.RenderError(w, web.PageData{}, err)
		return
	}

	var formErr, formName string
	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		formName = r.FormValue("name")
		category, err := h.categories.Create(r.Context(), userID, formName)
		if err == nil {
			h.flash(w, r, "success", fmt.Sprintf("Category '%s' created.", category.Name))
			http.Redirect(w, r, fmt.Sprintf("/categories/%s/", category.ID), http.StatusFound)
			return
		}
		if !apperr.Is(err, apperr.CodeValidation) {
			h.renderer.RenderError(w, h.page(w, r, "", "categories"), err)
			return
		}
		formErr = apperr.From(err).Message
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	categories, err := h.categories.ListWithItems(r.Context(), userID)
	if err != nil {
		h.renderer.RenderError(w, h.page(w, r, "", "categories"), err)
		return
	}
	h.renderer.Render(w, "categories", web.CategoriesPage{
		PageData:   h.page(w, r, "Categories", "categories"),
		Categories: categories,
		Error:      formErr,
		FormName:   formName,
	})
}

// Category handles GET/POST /categories/{id}/. POST renames the category.
func (h *PagesHandler) Category(w http.ResponseWriter, r *http.Request) {
	userID, categoryID, err := h.categoryIDs(r)
	if err != nil {
		h.renderer.RenderError(w, h.page(w, r, "", "categories"), err)
		return
	}
	self := fmt.Sprintf("/categories/%s/", categoryID)

	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		if _, err := h.categories.Rename(r.Context(), userID, categoryID, r.FormValue("name")); err != nil {
			h.fail(w, r, self, err)
			return
		}
		h.flash(w, r, "success", "Category renamed.")
		http.Redirect(w, r, self, http.StatusFound)
		return
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	detail, err := h.categories.Get(r.Context(), userID, categoryID)
	if err != nil {
		h.renderer.RenderError(w, h.page(w, r, "", "categories"), err)
		return
	}
	h.renderer.Render(w, "category_detail", web.CategoryPage{
		PageData: h.page(w, r, detail.Name, "categories"),
		Category: detail,
	})
}

// DeleteCategory handles POST /categories/{id}/delete/
func (h *PagesHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if !postOnly(w, r) {
		return
	}
	userID, categoryID, err := h.categoryIDs(r)
	if err != nil {
		h.renderer.RenderError(w, h.page(w, r, "", "categories"), err)
		return
	}
	if err := h.categories.Delete(r.Context(), userID, categoryID); err != nil {
		h.fail(w, r, "/categories/", err)
		return
	}
	h.flash(w, r, "success", "Category deleted.")
	http.Redirect(w, r, "/categories/", http.StatusFound)
}

// AddCategoryItem handles POST /categories/{id}/items/
func (h *PagesHandler) AddCategoryItem(w http.ResponseWriter, r *http.Request) {
	if !postOnly(w, r) {
		return
	}
	userID, categoryID, err := h.categoryIDs(r)
	if err != nil {
		h.renderer.RenderError(w, h.page(w, r, "", "categories"), err)
		return
	}
	self := fmt.Sprintf("/categories/%s/", categoryID)
	item, err := h.categories.CreateItem(r.Context(), userID, categoryID, r.FormValue("name"))
	if err != nil {
		h.fail(w, r, self, err)
		return
	}
	h.flash(w, r, "success", fmt.Sprintf("Added '%s'.", item.Name))
	http.Redirect(w, r, self, http.StatusFound)
}

// DeleteCategoryItem handles POST /categories/{id}/items/{itemID}/delete/
func (h *PagesHandler) DeleteCategoryItem(w http.ResponseWriter, r *http.Request) {
	if !postOnly(w, r) {
		return
	}
	userID, categoryID, itemID, err := categoryItemIDs(r)
	if err != nil {
		h.renderer.RenderError(w, h.page(w, r, "", "categories"), err)
		return
	}
	self := fmt.Sprintf("/categories/%s/", categoryID)
	if err := h.categories.DeleteItem(r.Context(), userID, categoryID, itemID); err != nil {
		h.fail(w, r, self, err)
		return
	}
	http.Redirect(w, r, self, http.StatusFound)
}

// Trips handles GET /trips/
func (h *PagesHandler) Trips(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.renderer.RenderError(w, web.PageData{}, err)
		return
	}
	trips, err := h.trips.List(r.Context(), userID)
	if err != nil {
		h.renderer.RenderError(w, h.page(w, r, "", "trips"), err)
		return
	}

	page := web.TripsPage{
		PageData:       h.page(w, r, "Trips", "trips"),
		ActiveTrips:    make([]service.TripSummary, 0),
		CompletedTrips: make([]service.TripSummary, 0),
	}
	for _, t := range trips {
		if t.IsComplete {
			page.CompletedTrips = append(page.CompletedTrips, t)
		} else {
			page.ActiveTrips = append(page.ActiveTrips, t)
		}
	}
	h.renderer.Render(w, "trips", page)
}

// CreateTrip handles GET/POST /trips/create/. With ?template=<id> the form
// pre-selects the template's categories and creation copies its custom items.
func (h *PagesHandler) CreateTrip(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.renderer.RenderError(w, web.PageData{}, err)
		return
	}
	ctx := r.Context()

	page := web.TripCreatePage{}
	if raw := r.URL.Query().Get("template"); raw != "" {
		if templateID, err := uuid.Parse(raw); err == nil {
			detail, err := h.trips.Get(ctx, userID, templateID)
			switch {
			case err == nil:
				page.Template = &detail.Trip
			case !apperr.Is(err, apperr.CodeNotFound):
				h.renderer.RenderError(w, h.page(w, r, "", "trips"), err)
				return
			}
		}
	}

	switch r.Method {
	case http.MethodGet:
		if page.Template != nil {
			if page.Selected, err = h.trips.TemplateCategoryIDs(ctx, userID, page.Template.ID); err != nil {
				h.renderer.RenderError(w, h.page(w, r, "", "trips"), err)
				return
			}
		}
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			h.renderer.RenderError(w, h.page(w, r, "", "trips"), apperr.Validation("invalid form data"))
			return
		}
		page.FormName = r.PostForm.Get("name")
		in := service.CreateTripInput{Name: page.FormName}
		in.CategoryIDs, err = parseIDs("categories", r.PostForm["categories"])
		if err == nil {
			page.Selected = in.CategoryIDs
			if page.Template != nil {
				in.TemplateID = &page.Template.ID
			}
			var trip *models.Trip
			trip, err = h.trips.Create(ctx, userID, in)
			if err == nil {
				h.flash(w, r, "success", fmt.Sprintf("Trip '%s' created!", trip.Name))
				http.Redirect(w, r, fmt.Sprintf("/trips/%s/", trip.ID), http.StatusFound)
				return
			}
		}
		if !apperr.Is(err, apperr.CodeValidation) {
			h.renderer.RenderError(w, h.page(w, r, "", "trips"), err)
			return
		}
		page.Error = apperr.From(err).Message
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if page.Categories, err = h.categories.List(ctx, userID); err != nil {
		h.renderer.RenderError(w, h.page(w, r, "", "trips"), err)
		return
	}
	if page.Trips, err = h.trips.List(ctx, userID); err != nil {
		h.renderer.RenderError(w, h.page(w, r, "", "trips"), err)
		return
	}
	page.PageData = h.page(w, r, "New trip", "trips")
	h.renderer.Render(w, "trip_create", page)
}

// Trip handles GET /trips/{id}/
func (h *PagesHandler) Trip(w http.ResponseWriter, r *http.Request) {
	userID, tripID, err := tripIDs(r)
	if err != nil {
		h.renderer.RenderError(w, h.page(w, r, "", "trips"), err)
		return
	}
	detail, err := h.trips.Get(r.Context(), userID, tripID)
	if err != nil {
		h.renderer.RenderError(w, h.page(w, r, "", "trips"), err)
		return
	}
	categories, err := h.categories.List(r.Context(), userID)
	if err != nil {
		h.renderer.RenderError(w, h.page(w, r, "", "trips"), err)
		return
	}
	h.renderer.Render(w, "trip_detail", web.TripPage{
		PageData:   h.page(w, r, detail.Name, "trips"),
		Trip:       detail,
		Categories: categories,
	})
}

// ToggleTripComplete handles POST /trips/{id}/complete/
func (h *PagesHandler) ToggleTripComplete(w http.ResponseWriter, r *http.Request) {
	if !postOnly(w, r) {
		return
	}
	userID, tripID, err := tripIDs(r)
	if err != nil {
		h.renderer.RenderError(w, h.page(w, r, "", "trips"), err)
		return
	}
	trip, err := h.trips.ToggleComplete(r.Context(), userID, tripID)
	if err != nil {
		h.fail(w, r, "/trips/", err)
		return
	}
	if trip.IsComplete {
		h.flash(w, r, "success", fmt.Sprintf("Trip '%s' marked as complete.", trip.Name))
	} else {
		h.flash(w, r, "info", fmt.Sprintf("Trip '%s' reopened.", trip.Name))
	}
	http.Redirect(w, r, fmt.Sprintf("/trips/%s/", trip.ID), http.StatusFound)
}

// DeleteTrip handles POST /trips/{id}/delete/
func (h *PagesHandler) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	if !postOnly(w, r) {
		return
	}
	userID, tripID, err := tripIDs(r)
	if err != nil {
		h.renderer.RenderError(w, h.page(w, r, "", "trips"), err)
		return
	}
	if err := h.trips.Delete(r.Context(), userID, tripID); err != nil {
		h.fail(w, r, "/trips/", err)
		return
	}
	h.flash(w, r, "success", "Trip deleted.")
	http.Redirect(w, r, "/trips/", http.StatusFound)
}

// AddTripItem handles POST /trips/{id}/items/
func (h *PagesHandler) AddTripItem(w http.ResponseWriter, r *http.Request) {
	if !postOnly(w, r) {
		return
	}
	userID, tripID, err := tripIDs(r)
	if err != nil {
		h.renderer.RenderError(w, h.page(w, r, "", "trips"), err)
		return
	}
	self := fmt.Sprintf("/trips/%s/", tripID)
	if _, err := h.trips.CreateItem(r.Context(), userID, tripID, service.TripItemInput{Name: r.FormValue("name")}); err != nil {
		h.fail(w, r, self, err)
		return
	}
	http.Redirect(w, r, self, http.StatusFound)
}

// ToggleTripItem handles POST /trips/{id}/items/{itemID}/toggle/
func (h *PagesHandler) ToggleTripItem(w http.ResponseWriter, r *http.Request) {
	if !postOnly(w, r) {
		return
	}
	userID, tripID, itemID, err := tripItemIDs(r)
	if err != nil {
		h.renderer.RenderError(w, h.page(w, r, "", "trips"), err)
		return
	}
	self := fmt.Sprintf("/trips/%s/", tripID)
	if _, err := h.trips.TogglePacked(r.Context(), userID, tripID, itemID); err != nil {
		h.fail(w, r, self, err)
		return
	}
	http.Redirect(w, r, self, http.StatusFound)
}

// PromoteTripItem handles POST /trips/{id}/items/{itemID}/add-to-category/
func (h *PagesHandler) PromoteTripItem(w http.ResponseWriter, r *http.Request) {
	if !postOnly(w, r) {
		return
	}
	userID, tripID, itemID, err := tripItemIDs(r)
	if err != nil {
		h.renderer.RenderError(w, h.page(w, r, "", "trips"), err)
		return
	}
	self := fmt.Sprintf("/trips/%s/", tripID)
	item, err := h.trips.Promote(r.Context(), userID, tripID, itemID, r.FormValue("category_id"))
	if err != nil {
		h.fail(w, r, self, err)
		return
	}
	h.flash(w, r, "success", fmt.Sprintf("Added '%s' to the category.", item.Name))
	http.Redirect(w, r, self, http.StatusFound)
}

// DeleteTripItem handles POST /trips/{id}/items/{itemID}/delete/
func (h *PagesHandler) DeleteTripItem(w http.ResponseWriter, r *http.Request) {
	if !postOnly(w, r) {
		return
	}
	userID, tripID, itemID, err := tripItemIDs(r)
	if err != nil {
		h.renderer.RenderError(w, h.page(w, r, "", "trips"), err)
		return
	}
	self := fmt.Sprintf("/trips/%s/", tripID)
	if err := h.trips.DeleteItem(r.Context(), userID, tripID, itemID); err != nil {
		h.fail(w, r, self, err)
		return
	}
	http.Redirect(w, r, self, http.StatusFound)
}

func (h *PagesHandler) categoryIDs(r *http.Request) (userID, categoryID uuid.UUID, err error) {
	if userID, err = currentUser(r); err != nil {
		return
	}
	categoryID, err = pathID(r, "id", "category")
	return
}


package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"packd/internal/apperr"
	"packd/internal/dto"
	"packd/internal/service"
	"packd/internal/utils"
)

// TripsHandler manages trip-related endpoints
type TripsHandler struct {
	trips *service.Trips
}

// NewTripsHandler creates a new TripsHandler
func NewTripsHandler(trips *service.Trips) *TripsHandler {
	return &TripsHandler{trips: trips}
}

// Trips dispatches by HTTP method for /api/trips/
func (h *TripsHandler) Trips(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.ListTrips(w, r)
	case http.MethodPost:
		h.CreateTrip(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Trip dispatches by HTTP method for /api/trips/{id}/
func (h *TripsHandler) Trip(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.TripDetail(w, r)
	case http.MethodPut, http.MethodPatch:
		h.UpdateTrip(w, r)
	case http.MethodDelete:
		h.DeleteTrip(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Items dispatches by HTTP method for /api/trips/{id}/items/
func (h *TripsHandler) Items(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.ListItems(w, r)
	case http.MethodPost:
		h.CreateItem(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Item dispatches by HTTP method for /api/trips/{id}/items/{itemID}/
func (h *TripsHandler) Item(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.ItemDetail(w, r)
	case http.MethodPut, http.MethodPatch:
		h.UpdateItem(w, r)
	case http.MethodDelete:
		h.DeleteItem(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// ListTrips handles GET /api/trips/
// @Summary List trips
// @Description Lists the caller's trips, newest first, with packing progress
// @Tags trips
// @Produce json
// @Success 200 {array} service.TripSummary
// @Failure 403 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/trips/ [get]
func (h *TripsHandler) ListTrips(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	trips, err := h.trips.List(r.Context(), userID)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, trips)
}

// CreateTrip handles POST /api/trips/
// @Summary Create a new trip
// @Description Snapshots the selected categories into the trip in the order given.
// @Description With template, the template trip's custom items are copied too.
// @Tags trips
// @Accept json
// @Produce json
// @Param payload body dto.CreateTripRequest true "Trip payload"
// @Success 201 {object} service.TripDetail
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/trips/ [post]
func (h *TripsHandler) CreateTrip(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	var req dto.CreateTripRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		return // Error already handled by DecodeJSONRequest
	}

	in := service.CreateTripInput{Name: req.Name}
	if in.CategoryIDs, err = parseIDs("categories", req.Categories); err != nil {
		utils.WriteAppError(w, err)
		return
	}
	if req.Template != nil && *req.Template != "" {
		templateID, err := uuid.Parse(*req.Template)
		if err != nil {
			utils.WriteAppError(w, apperr.ValidationField("template", "template must be a valid UUID"))
			return
		}
		in.TemplateID = &templateID
	}

	trip, err := h.trips.Create(r.Context(), userID, in)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	detail, err := h.trips.Get(r.Context(), userID, trip.ID)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusCreated, detail)
}

// TripDetail handles GET /api/trips/{id}/
// @Summary Get a trip
// @Description Returns the trip with progress and its categories with their items
// @Tags trips
// @Produce json
// @Param id path string true "Trip ID"
// @Success 200 {object} service.TripDetail
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/trips/{id}/ [get]
func (h *TripsHandler) TripDetail(w http.ResponseWriter, r *http.Request) {
	userID, tripID, err := tripIDs(r)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	detail, err := h.trips.Get(r.Context(), userID, tripID)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, detail)
}

// UpdateTrip handles PUT/PATCH /api/trips/{id}/
// @Summary Update a trip
// @Description PUT requires name; PATCH changes only the fields sent
// @Tags trips
// @Accept json
// @Produce json
// @Param id path string true "Trip ID"
// @Param payload body dto.UpdateTripRequest true "Fields to update"
// @Success 200 {object} models.Trip
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/trips/{id}/ [put]
func (h *TripsHandler) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	userID, tripID, err := tripIDs(r)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	var req dto.UpdateTripRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		return
	}
	if r.Method == http.MethodPut && req.Name == nil {
		utils.WriteAppError(w, apperr.ValidationField("name", "name is required"))
		return
	}

	trip, err := h.trips.Update(r.Context(), userID, tripID, service.UpdateTripInput{
		Name:       req.Name,
		IsComplete: req.IsComplete,
	})
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, trip)
}

// DeleteTrip handles DELETE /api/trips/{id}/
// @Summary Delete a trip
// @Tags trips
// @Param id path string true "Trip ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/trips/{id}/ [delete]
func (h *TripsHandler) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	userID, tripID, err := tripIDs(r)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	if err := h.trips.Delete(r.Context(), userID, tripID); err != nil {
		utils.WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleComplete handles POST /api/trips/{id}/complete/
// @Summary Toggle trip completion
// @Tags trips
// @Produce json
// @Param id path string true "Trip ID"
// @Success 200 {object} models.Trip
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/trips/{id}/complete/ [post]
func (h *TripsHandler) ToggleComplete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, tripID, err := tripIDs(r)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	trip, err := h.trips.ToggleComplete(r.Context(), userID, tripID)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, trip)
}

// ListItems handles GET /api/trips/{id}/items/
// @Summary List trip items
// @Tags trips
// @Produce json
// @Param id path string true "Trip ID"
// @Success 200 {array} models.TripItem
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/trips/{id}/items/ [get]
func (h *TripsHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	userID, tripID, err := tripIDs(r)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	items, err := h.trips.ListItems(r.Context(), userID, tripID)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, items)
}

// CreateItem handles POST /api/trips/{id}/items/
// @Summary Add a custom item to a trip
// @Description Items added to a trip are always custom; is_custom is not accepted
// @Tags trips
// @Accept json
// @Produce json
// @Param id path string true "Trip ID"
// @Param payload body dto.TripItemRequest true "Item payload"
// @Success 201 {object} models.TripItem
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/trips/{id}/items/ [post]
func (h *TripsHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	userID, tripID, err := tripIDs(r)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	var req dto.TripItemRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		return
	}
	if req.Name == nil {
		utils.WriteAppError(w, apperr.ValidationField("name", "name is required"))
		return
	}

	in := service.TripItemInput{Name: *req.Name, SourceCategoryID: req.SourceCategory.Value}
	if req.IsPacked != nil {
		in.IsPacked = *req.IsPacked
	}
	item, err := h.trips.CreateItem(r.Context(), userID, tripID, in)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusCreated, item)
}

// ItemDetail handles GET /api/trips/{id}/items/{itemID}/
// @Summary Get a trip item
// @Tags trips
// @Produce json
// @Param id path string true "Trip ID"
// @Param itemID path string true "Item ID"
// @Success 200 {object} models.TripItem
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/trips/{id}/items/{itemID}/ [get]
func (h *TripsHandler) ItemDetail(w http.ResponseWriter, r *http.Request) {
	userID, tripID, itemID, err := tripItemIDs(r)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	item, err := h.trips.GetItem(r.Context(), userID, tripID, itemID)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, item)
}

// UpdateItem handles PUT/PATCH /api/trips/{id}/items/{itemID}/
// @Summary Update a trip item
// @Description PUT requires name; PATCH changes only the fields sent. is_custom cannot be changed.
// @Tags trips
// @Accept json
// @Produce json
// @Param id path string true "Trip ID"
// @Param itemID path string true "Item ID"
// @Param payload body dto.TripItemRequest true "Fields to update"
// @Success 200 {object} models.TripItem
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/trips/{id}/items/{itemID}/ [put]
func (h *TripsHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	userID, tripID, itemID, err := tripItemIDs(r)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	var req dto.TripItemRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		return
	}
	if r.Method == http.MethodPut && req.Name == nil {
		utils.WriteAppError(w, apperr.ValidationField("name", "name is required"))
		return
	}

	item, err := h.trips.UpdateItem(r.Context(), userID, tripID, itemID, service.UpdateTripItemInput{
		Name:              req.Name,
		IsPacked:          req.IsPacked,
		SetSourceCategory: req.SourceCategory.Set,
		SourceCategoryID:  req.SourceCategory.Value,
	})
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, item)
}

// DeleteItem handles DELETE /api/trips/{id}/items/{itemID}/
// @Summary Delete a trip item
// @Tags trips
// @Param id path string true "Trip ID"
// @Param itemID path string true "Item ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/trips/{id}/items/{itemID}/ [delete]
func (h *TripsHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	userID, tripID, itemID, err := tripItemIDs(r)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	if err := h.trips.DeleteItem(r.Context(), userID, tripID, itemID); err != nil {
		utils.WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddToCategory handles POST /api/trips/{id}/items/{itemID}/add-to-category/
// @Summary Add a trip item to a category
// @Description Copies the item into the category so future trips include it
// @Tags trips
// @Accept json
// @Produce json
// @Param id path string true "Trip ID"
// @Param itemID path string true "Item ID"
// @Param payload body dto.PromoteRequest true "Target category"
// @Success 201 {object} dto.SuccessResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/trips/{id}/items/{itemID}/add-to-category/ [post]
func (h *TripsHandler) AddToCategory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, tripID, itemID, err := tripItemIDs(r)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	var req dto.PromoteRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		return
	}
	if _, err := h.trips.Promote(r.Context(), userID, tripID, itemID, req.CategoryID); err != nil {
		utils.WriteAppError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusCreated, dto.SuccessResponse{Success: true})
}

func tripIDs(r *http.Request) (userID, tripID uuid.UUID, err error) {
	if userID, err = currentUser(r); err != nil {
		return
	}
	tripID, err = pathID(r, "id", "trip")
	return
}

func tripItemIDs(r *http.Request) (userID, tripID, itemID uuid.UUID, err error) {
	if userID, tripID, err = tripIDs(r); err != nil {
		return
	}
	itemID, err = pathID(r, "itemID", "trip item")
	return
}

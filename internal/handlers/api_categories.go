package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"packd/internal/apperr"
	"packd/internal/dto"
	"packd/internal/service"
	"packd/internal/utils"
)

// CategoriesHandler serves /api/categories
type CategoriesHandler struct {
	categories *service.Categories
	importer   *service.Importer
}

// NewCategoriesHandler creates a new CategoriesHandler
func NewCategoriesHandler(categories *service.Categories, importer *service.Importer) *CategoriesHandler {
	return &CategoriesHandler{categories: categories, importer: importer}
}

// Categories dispatches by HTTP method for /api/categories/
func (h *CategoriesHandler) Categories(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.ListCategories(w, r)
	case http.MethodPost:
		h.CreateCategory(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Category dispatches by HTTP method for /api/categories/{id}/
func (h *CategoriesHandler) Category(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.CategoryDetail(w, r)
	case http.MethodPut, http.MethodPatch:
		h.UpdateCategory(w, r)
	case http.MethodDelete:
		h.DeleteCategory(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Items dispatches by HTTP method for /api/categories/{id}/items/
func (h *CategoriesHandler) Items(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.ListItems(w, r)
	case http.MethodPost:
		h.CreateItem(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Item dispatches by HTTP method for /api/categories/{id}/items/{itemID}/
func (h *CategoriesHandler) Item(w http.ResponseWriter, r *http.Request) {
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

// ListCategories handles GET /api/categories/
// @Summary List categories
// @Description Lists the caller's categories with their items, ordered by name
// @Tags categories
// @Produce json
// @Success 200 {array} service.CategoryDetail
// @Failure 403 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/categories/ [get]
func (h *CategoriesHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	categories, err := h.categories.ListWithItems(r.Context(), userID)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, categories)
}

// CreateCategory handles POST /api/categories/
// @Summary Create a category
// @Tags categories
// @Accept json
// @Produce json
// @Param payload body dto.CategoryRequest true "Category payload"
// @Success 201 {object} models.Category
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/categories/ [post]
func (h *CategoriesHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	var req dto.CategoryRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		return // Error already handled by DecodeJSONRequest
	}
	if req.Name == nil {
		utils.WriteAppError(w, apperr.ValidationField("name", "name is required"))
		return
	}
	category, err := h.categories.Create(r.Context(), userID, *req.Name)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusCreated, category)
}

// CategoryDetail handles GET /api/categories/{id}/
// @Summary Get a category
// @Tags categories
// @Produce json
// @Param id path string true "Category ID"
// @Success 200 {object} service.CategoryDetail
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/categories/{id}/ [get]
func (h *CategoriesHandler) CategoryDetail(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	id, err := pathID(r, "id", "category")
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	category, err := h.categories.Get(r.Context(), userID, id)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, category)
}

// UpdateCategory handles PUT/PATCH /api/categories/{id}/
// @Summary Rename a category
// @Description PUT requires name; PATCH without name leaves the category unchanged
// @Tags categories
// @Accept json
// @Produce json
// @Param id path string true "Category ID"
// @Param payload body dto.CategoryRequest true "Category payload"
// @Success 200 {object} models.Category
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/categories/{id}/ [put]
func (h *CategoriesHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	id, err := pathID(r, "id", "category")
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	var req dto.CategoryRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		return
	}

	if req.Name == nil {
		if r.Method == http.MethodPut {
			utils.WriteAppError(w, apperr.ValidationField("name", "name is required"))
			return
		}
		detail, err := h.categories.Get(r.Context(), userID, id)
		if err != nil {
			utils.WriteAppError(w, err)
			return
		}
		utils.WriteJSONResponse(w, http.StatusOK, detail.Category)
		return
	}

	category, err := h.categories.Rename(r.Context(), userID, id, *req.Name)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, category)
}

// DeleteCategory handles DELETE /api/categories/{id}/
// @Summary Delete a category
// @Description Deletes the category and its items. Trips built from it keep their snapshot.
// @Tags categories
// @Param id path string true "Category ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/categories/{id}/ [delete]
func (h *CategoriesHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	id, err := pathID(r, "id", "category")
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	if err := h.categories.Delete(r.Context(), userID, id); err != nil {
		utils.WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListItems handles GET /api/categories/{id}/items/
// @Summary List category items
// @Tags categories
// @Produce json
// @Param id path string true "Category ID"
// @Success 200 {array} models.CategoryItem
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/categories/{id}/items/ [get]
func (h *CategoriesHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	categoryID, err := pathID(r, "id", "category")
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	items, err := h.categories.ListItems(r.Context(), userID, categoryID)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, items)
}

// CreateItem handles POST /api/categories/{id}/items/
// @Summary Add an item to a category
// @Tags categories
// @Accept json
// @Produce json
// @Param id path string true "Category ID"
// @Param payload body dto.CategoryItemRequest true "Item payload"
// @Success 201 {object} models.CategoryItem
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/categories/{id}/items/ [post]
func (h *CategoriesHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	categoryID, err := pathID(r, "id", "category")
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	var req dto.CategoryItemRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		return
	}
	if req.Name == nil {
		utils.WriteAppError(w, apperr.ValidationField("name", "name is required"))
		return
	}
	item, err := h.categories.CreateItem(r.Context(), userID, categoryID, *req.Name)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusCreated, item)
}

// ItemDetail handles GET /api/categories/{id}/items/{itemID}/
// @Summary Get a category item
// @Tags categories
// @Produce json
// @Param id path string true "Category ID"
// @Param itemID path string true "Item ID"
// @Success 200 {object} models.CategoryItem
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/categories/{id}/items/{itemID}/ [get]
func (h *CategoriesHandler) ItemDetail(w http.ResponseWriter, r *http.Request) {
	userID, categoryID, itemID, err := categoryItemIDs(r)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	item, err := h.categories.GetItem(r.Context(), userID, categoryID, itemID)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, item)
}

// UpdateItem handles PUT/PATCH /api/categories/{id}/items/{itemID}/
// @Summary Rename a category item
// @Tags categories
// @Accept json
// @Produce json
// @Param id path string true "Category ID"
// @Param itemID path string true "Item ID"
// @Param payload body dto.CategoryItemRequest true "Item payload"
// @Success 200 {object} models.CategoryItem
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/categories/{id}/items/{itemID}/ [put]
func (h *CategoriesHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	userID, categoryID, itemID, err := categoryItemIDs(r)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	var req dto.CategoryItemRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		return
	}

	if req.Name == nil {
		if r.Method == http.MethodPut {
			utils.WriteAppError(w, apperr.ValidationField("name", "name is required"))
			return
		}
		item, err := h.categories.GetItem(r.Context(), userID, categoryID, itemID)
		if err != nil {
			utils.WriteAppError(w, err)
			return
		}
		utils.WriteJSONResponse(w, http.StatusOK, item)
		return
	}

	item, err := h.categories.RenameItem(r.Context(), userID, categoryID, itemID, *req.Name)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, item)
}

// DeleteItem handles DELETE /api/categories/{id}/items/{itemID}/
// @Summary Delete a category item
// @Tags categories
// @Param id path string true "Category ID"
// @Param itemID path string true "Item ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/categories/{id}/items/{itemID}/ [delete]
func (h *CategoriesHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	userID, categoryID, itemID, err := categoryItemIDs(r)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	if err := h.categories.DeleteItem(r.Context(), userID, categoryID, itemID); err != nil {
		utils.WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Import handles POST /api/categories/import/
// @Summary Bulk import category items
// @Description Creates missing categories and items. Items already present are skipped.
// @Tags categories
// @Accept json
// @Produce json
// @Param payload body dto.ImportRequest true "Rows to import"
// @Success 201 {object} dto.ImportResponse
// @Failure 400 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/categories/import/ [post]
func (h *CategoriesHandler) Import(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, err := currentUser(r)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	var req dto.ImportRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		return
	}

	rows := make([]service.ImportRow, 0, len(req.Items))
	for _, it := range req.Items {
		rows = append(rows, service.ImportRow{Category: it.Category, Item: it.Item})
	}
	result, err := h.importer.Import(r.Context(), userID, rows)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusCreated, dto.ImportResponse{
		CategoriesCreated:  result.CategoriesCreated,
		CategoriesExisting: result.CategoriesExisting,
		ItemsCreated:       result.ItemsCreated,
		ItemsSkipped:       result.ItemsSkipped,
	})
}

func categoryItemIDs(r *http.Request) (userID, categoryID, itemID uuid.UUID, err error) {
	if userID, err = currentUser(r); err != nil {
		return
	}
	if categoryID, err = pathID(r, "id", "category"); err != nil {
		return
	}
	itemID, err = pathID(r, "itemID", "category item")
	return
}

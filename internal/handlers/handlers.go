// Package handlers holds the HTTP handlers for the JSON API and the pages.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"packd/internal/apperr"
	"packd/internal/middleware"
	"packd/internal/service"
)

// currentUser returns the authenticated user id. Routes are wrapped in
// RequireAPIUser or RequirePageUser, so a missing id is a routing mistake.
func currentUser(r *http.Request) (uuid.UUID, error) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, apperr.Unauthenticated("Authentication credentials were not provided.")
	}
	return id, nil
}

// pathID parses a chi URL parameter. Malformed ids are reported as not found.
func pathID(r *http.Request, param, entity string) (uuid.UUID, error) {
	return service.ParseID(chi.URLParam(r, param), entity)
}

// parseIDs parses a list of ids sent by a client.
func parseIDs(field string, raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, apperr.ValidationField(field, "\""+s+"\" is not a valid UUID")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

package utils

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"packd/internal/apperr"
	"packd/internal/dto"
)

// maxJSONBody caps request bodies decoded by DecodeJSONRequest.
const maxJSONBody = 1 << 20

// WriteJSONResponse writes a JSON response to the HTTP response writer
func WriteJSONResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("write json response: %v", err)
	}
}

// WriteErrorResponse writes an error in the standard dto.ErrorResponse shape
func WriteErrorResponse(w http.ResponseWriter, status int, code, message string) {
	WriteJSONResponse(w, status, dto.ErrorResponse{Error: code, Message: message})
}

// WriteAppError renders any error as JSON using its apperr code and status.
// Internal errors are logged and their details withheld from the client.
func WriteAppError(w http.ResponseWriter, err error) {
	aErr := apperr.From(err)
	if aErr.Code == apperr.CodeInternal {
		log.Printf("internal error: %v", err)
		WriteJSONResponse(w, aErr.Status, dto.ErrorResponse{Error: string(aErr.Code), Message: "internal server error"})
		return
	}
	resp := dto.ErrorResponse{Error: string(aErr.Code), Message: aErr.Message}
	if field, ok := aErr.Details["field"].(string); ok {
		resp.Field = field
	}
	WriteJSONResponse(w, aErr.Status, resp)
}

// DecodeJSONRequest decodes the request body into dst. On failure it writes a
// 400 response and returns the error, so callers just return.
func DecodeJSONRequest(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		msg := "request body must be valid JSON"
		if errors.Is(err, io.EOF) {
			msg = "request body is empty"
		}
		WriteErrorResponse(w, http.StatusBadRequest, string(apperr.CodeValidation), msg)
		return err
	}
	return nil
}

// SafeRedirect returns target if it stays on this site, otherwise fallback.
// Accepted are absolute paths ("/trips/") and absolute URLs whose host equals
// the request host and whose scheme matches the request's.
func SafeRedirect(r *http.Request, target, fallback string) string {
	target = strings.TrimSpace(target)
	if target == "" || strings.ContainsAny(target, "\\\r\n\t") {
		return fallback
	}
	if strings.HasPrefix(target, "/") {
		if strings.HasPrefix(target, "//") {
			return fallback
		}
		return target
	}

	u, err := url.Parse(target)
	if err != nil || u.Host == "" || u.User != nil {
		return fallback
	}
	if !strings.EqualFold(u.Host, r.Host) {
		return fallback
	}
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	if !strings.EqualFold(u.Scheme, scheme) {
		return fallback
	}
	return target
}

// Package handlers holds the HTTP handlers for the sobot API.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
)

const headerContentType = "Content-Type"

// paginationParams holds parsed limit and offset values.
type paginationParams struct {
	Limit  int
	Offset int
}

const (
	defaultPaginationLimit = 25
	maxPaginationLimit     = 100
)

// parsePaginationParams extracts and validates limit/offset from URL query
// params. Out-of-range or malformed values fall back to the defaults.
func parsePaginationParams(r *http.Request) paginationParams {
	limit := defaultPaginationLimit
	offset := 0

	if lim, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && lim > 0 {
		if lim > maxPaginationLimit {
			lim = maxPaginationLimit
		}
		limit = lim
	}

	if off, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && off >= 0 {
		offset = off
	}

	return paginationParams{Limit: limit, Offset: offset}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set(headerContentType, "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
	}
}

// writeError writes a JSON error response in the {"error": message} shape.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

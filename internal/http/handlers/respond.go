package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/routepulse/server/internal/errs"
)

// respondJSON writes v as a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// respondWithError sends a JSON error response
func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, map[string]string{"error": message})
}

// respondError maps a sentinel error from the core to its HTTP status.
// Unauthorized and forbidden responses never reveal whether a resource
// exists; not-found covers both missing IDs and failed state-gated
// transitions.
func respondError(w http.ResponseWriter, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, errs.ErrValidation):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, errs.ErrUnauthenticated),
		errors.Is(err, errs.ErrTokenExpired),
		errors.Is(err, errs.ErrTokenInvalid):
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, errs.ErrForbidden):
		respondWithError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, errs.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "not found")
	case errors.Is(err, errs.ErrConflict):
		respondWithError(w, http.StatusConflict, "already exists")
	default:
		log.Error("internal error", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON parses the request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errs.ErrValidation
	}
	return nil
}

// uuidParam parses a UUID URL parameter.
func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, errs.ErrValidation
	}
	return id, nil
}

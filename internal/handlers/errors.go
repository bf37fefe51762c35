package handlers

import (
	"errors"
	"net/http"

	"github.com/acmetrans/mgcp/internal/httpx"
	"github.com/acmetrans/mgcp/internal/services"
)

// writeServiceError maps the service error taxonomy onto HTTP statuses. Admin
// endpoints get the raw error text; client-facing pages render friendly views
// instead and never reach this helper for GETs.
func writeServiceError(w http.ResponseWriter, err error) {
	var (
		validationErr *services.ValidationError
		notFoundErr   *services.NotFoundError
		stateErr      *services.InvalidStateError
		conflictErr   *services.ConflictError
	)
	switch {
	case errors.As(err, &validationErr):
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", validationErr.Violations)
	case errors.As(err, &notFoundErr):
		httpx.JSONError(w, http.StatusNotFound, notFoundErr.Error(), nil)
	case errors.As(err, &stateErr):
		httpx.JSONError(w, http.StatusBadRequest, stateErr.Error(), nil)
	case errors.As(err, &conflictErr):
		httpx.JSONError(w, http.StatusConflict, conflictErr.Error(), nil)
	case errors.Is(err, services.ErrExpired):
		httpx.JSONError(w, http.StatusBadRequest, "proposal_expired", nil)
	default:
		httpx.JSONError(w, http.StatusInternalServerError, err.Error(), nil)
	}
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/expensio/expensio-be/internal/services"
)

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// respondError maps service failures to HTTP statuses. Anything outside the
// known taxonomy is logged and returned as a bare 500 with no internal
// detail.
func respondError(w http.ResponseWriter, err error) {
	var vErr *services.ValidationError
	if errors.As(err, &vErr) {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "Validation failed", Details: vErr.Details})
		return
	}

	switch {
	case errors.Is(err, services.ErrDuplicateEmail):
		respondJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrAccountDeactivated),
		errors.Is(err, services.ErrInvalidToken):
		respondJSON(w, http.StatusUnauthorized, errorBody{Error: err.Error()})
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrExpenseNotFound):
		respondJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, services.ErrIncorrectPassword):
		respondJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	default:
		log.Error().Err(err).Msg("Unhandled service error")
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal server error"})
	}
}

// Health reports service liveness.
func Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

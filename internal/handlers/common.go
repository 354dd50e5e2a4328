package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Alias1177/MatchScout/internal/inference"
)

// Health check endpoint
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"teams":     len(h.reports.Teams()),
		"timestamp": time.Now().UTC(),
	})
}

func (h *Handler) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) errorResponse(w http.ResponseWriter, status int, message string) {
	h.jsonResponse(w, status, map[string]string{"error": message})
}

// predictionStatus maps prediction errors to HTTP statuses.
func predictionStatus(err error) int {
	var unknown *inference.UnknownTeamError
	switch {
	case errors.Is(err, inference.ErrSameTeam):
		return http.StatusBadRequest
	case errors.As(err, &unknown):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func (h *Handler) predictionError(w http.ResponseWriter, err error) {
	status := predictionStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error().Err(err).Msg("Prediction failed")
		h.errorResponse(w, status, "prediction failed")
		return
	}
	h.errorResponse(w, status, err.Error())
}

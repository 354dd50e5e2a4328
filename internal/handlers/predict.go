package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/Alias1177/MatchScout/models"
)

type matchRequest struct {
	TeamA string `json:"team_a" validate:"required"`
	TeamB string `json:"team_b" validate:"required,nefield=TeamA"`
}

type predictionResponse struct {
	TeamA         string           `json:"team_a"`
	TeamB         string           `json:"team_b"`
	Schema        string           `json:"schema"`
	Probabilities labelledOutcomes `json:"probabilities"`
	Raw           labelledOutcomes `json:"raw"`
	Favourite     string           `json:"favourite"`
	StateA        models.TeamState `json:"state_a"`
	StateB        models.TeamState `json:"state_b"`
}

type labelledOutcomes struct {
	TeamBWin float64 `json:"team_b_win"`
	Draw     float64 `json:"draw"`
	TeamAWin float64 `json:"team_a_win"`
}

func label(p models.Probabilities) labelledOutcomes {
	return labelledOutcomes{TeamBWin: p.TeamBWin(), Draw: p.Draw(), TeamAWin: p.TeamAWin()}
}

func favourite(pred models.MatchPrediction) string {
	switch pred.Probabilities.Favourite() {
	case models.HomeWin:
		return pred.TeamA
	case models.AwayWin:
		return pred.TeamB
	}
	return "draw"
}

// decodeMatch reads and validates a team pair from the body.
func (h *Handler) decodeMatch(w http.ResponseWriter, r *http.Request) (matchRequest, bool) {
	var req matchRequest
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "invalid JSON body")
		return req, false
	}
	req.TeamA = strings.TrimSpace(req.TeamA)
	req.TeamB = strings.TrimSpace(req.TeamB)
	if err := h.validator.Struct(req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "team_a and team_b are required and must differ")
		return req, false
	}
	return req, true
}

// ListTeams returns the teams that can be predicted
func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, http.StatusOK, map[string][]string{"teams": h.reports.Teams()})
}

// PredictMatch returns the model probabilities only
func (h *Handler) PredictMatch(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeMatch(w, r)
	if !ok {
		return
	}
	pred, err := h.reports.Predict(req.TeamA, req.TeamB)
	if err != nil {
		h.predictionError(w, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, predictionResponse{
		TeamA:         pred.TeamA,
		TeamB:         pred.TeamB,
		Schema:        pred.Schema,
		Probabilities: label(pred.Probabilities),
		Raw:           label(pred.Raw),
		Favourite:     favourite(pred),
		StateA:        pred.StateA,
		StateB:        pred.StateB,
	})
}

// GenerateReport returns the full scout report
func (h *Handler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeMatch(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.reportTimeout)
	defer cancel()

	report, err := h.reports.Generate(ctx, req.TeamA, req.TeamB)
	if err != nil {
		h.predictionError(w, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, report)
}

// RecentReports lists the latest served reports
func (h *Handler) RecentReports(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		h.errorResponse(w, http.StatusNotFound, "report history is not configured")
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			h.errorResponse(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}
	reports, err := h.history.RecentReports(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list reports")
		h.errorResponse(w, http.StatusInternalServerError, "failed to list reports")
		return
	}
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{"reports": reports})
}

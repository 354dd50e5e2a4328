package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Alias1177/MatchScout/internal/database"
	"github.com/Alias1177/MatchScout/internal/inference"
	"github.com/Alias1177/MatchScout/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockReportService struct {
	PredictFunc  func(a, b string) (models.MatchPrediction, error)
	GenerateFunc func(ctx context.Context, a, b string) (*models.ScoutReport, error)
}

func (m *MockReportService) Teams() []string { return []string{"Lions", "Tigers", "Wolves"} }

func (m *MockReportService) Predict(a, b string) (models.MatchPrediction, error) {
	return m.PredictFunc(a, b)
}

func (m *MockReportService) Generate(ctx context.Context, a, b string) (*models.ScoutReport, error) {
	return m.GenerateFunc(ctx, a, b)
}

type MockHistory struct {
	reports []database.ReportSummary
	err     error
	limit   int
}

func (m *MockHistory) RecentReports(_ context.Context, limit int) ([]database.ReportSummary, error) {
	m.limit = limit
	return m.reports, m.err
}

func predictOK(a, b string) (models.MatchPrediction, error) {
	if a == "Bears" || b == "Bears" {
		return models.MatchPrediction{}, &inference.UnknownTeamError{Team: "Bears"}
	}
	return models.MatchPrediction{
		TeamA:         a,
		TeamB:         b,
		Schema:        "v6",
		Probabilities: models.Probabilities{0.2, 0.25, 0.55},
		Raw:           models.Probabilities{0.176, 0.235, 0.589},
	}, nil
}

func generateOK(_ context.Context, a, b string) (*models.ScoutReport, error) {
	pred, err := predictOK(a, b)
	if err != nil {
		return nil, err
	}
	return &models.ScoutReport{ID: "r1", Prediction: pred, Percents: "55% - 25% - 20%", Insight: "Lions <press> high.", Reasoning: "Skill."}, nil
}

func newTestHandler(history HistoryReader) http.Handler {
	svc := &MockReportService{PredictFunc: predictOK, GenerateFunc: generateOK}
	return New(Config{Reports: svc, History: history, ReportTimeout: time.Second}).Router()
}

func TestPredictMatch(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		expectedStatus int
	}{
		{"Success", `{"team_a":"Lions","team_b":"Tigers"}`, http.StatusOK},
		{"Same team", `{"team_a":"Lions","team_b":"Lions"}`, http.StatusBadRequest},
		{"Missing team", `{"team_a":"Lions"}`, http.StatusBadRequest},
		{"Blank team", `{"team_a":"  ","team_b":"Tigers"}`, http.StatusBadRequest},
		{"Invalid JSON", `{"team_a":`, http.StatusBadRequest},
		{"Unknown team", `{"team_a":"Lions","team_b":"Bears"}`, http.StatusNotFound},
	}
	router := newTestHandler(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
		})
	}
}

func TestPredictMatchResponse(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(`{"team_a":"Lions","team_b":"Tigers"}`))
	w := httptest.NewRecorder()
	newTestHandler(nil).ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp predictionResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "Lions", resp.Favourite)
	assert.Equal(t, 0.55, resp.Probabilities.TeamAWin)
	assert.Equal(t, 0.25, resp.Probabilities.Draw)
	assert.Equal(t, 0.2, resp.Probabilities.TeamBWin)
	assert.Equal(t, "v6", resp.Schema)
}

func TestGenerateReport(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/report", strings.NewReader(`{"team_a":"Lions","team_b":"Tigers"}`))
	w := httptest.NewRecorder()
	newTestHandler(nil).ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var report models.ScoutReport
	require.NoError(t, json.NewDecoder(w.Body).Decode(&report))
	assert.Equal(t, "r1", report.ID)
	assert.Equal(t, "55% - 25% - 20%", report.Percents)
}

func TestGenerateReportInternalError(t *testing.T) {
	svc := &MockReportService{
		PredictFunc: predictOK,
		GenerateFunc: func(context.Context, string, string) (*models.ScoutReport, error) {
			return nil, &inference.SchemaMismatchError{Want: "a", Got: "b"}
		},
	}
	router := New(Config{Reports: svc}).Router()

	req := httptest.NewRequest(http.MethodPost, "/api/report", strings.NewReader(`{"team_a":"Lions","team_b":"Tigers"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "mismatch")
}

func TestListTeamsAndHealth(t *testing.T) {
	router := newTestHandler(nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/teams", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var teams map[string][]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&teams))
	assert.Equal(t, []string{"Lions", "Tigers", "Wolves"}, teams["teams"])

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDashboard(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		expectedStatus int
		contains       string
	}{
		{"Form only", "", http.StatusOK, "<option selected>Lions</option>"},
		{"Report", "?team_a=Lions&team_b=Tigers", http.StatusOK, "Lions &lt;press&gt; high."},
		{"Same team", "?team_a=Lions&team_b=Lions", http.StatusBadRequest, "two different teams"},
		{"Unknown team", "?team_a=Lions&team_b=Bears", http.StatusNotFound, "unknown team"},
	}
	router := newTestHandler(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/"+tt.query, nil))
			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.contains)
		})
	}
}

func TestRecentReports(t *testing.T) {
	t.Run("Not configured", func(t *testing.T) {
		w := httptest.NewRecorder()
		newTestHandler(nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/reports/recent", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Limit", func(t *testing.T) {
		history := &MockHistory{reports: []database.ReportSummary{{ID: "r1", TeamA: "Lions", TeamB: "Tigers"}}}
		w := httptest.NewRecorder()
		newTestHandler(history).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/reports/recent?limit=5", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 5, history.limit)
		assert.Contains(t, w.Body.String(), `"id":"r1"`)
	})

	t.Run("Bad limit", func(t *testing.T) {
		w := httptest.NewRecorder()
		newTestHandler(&MockHistory{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/reports/recent?limit=0", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Store error", func(t *testing.T) {
		w := httptest.NewRecorder()
		newTestHandler(&MockHistory{err: errors.New("down")}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/reports/recent", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

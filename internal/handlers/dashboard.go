package handlers

import (
	"context"
	"fmt"
	"html/template"
	"net/http"

	"github.com/Alias1177/MatchScout/models"
)

var dashboardTmpl = template.Must(template.New("dashboard").Funcs(template.FuncMap{
	"pct": func(v float64) string { return fmt.Sprintf("%.1f%%", v*100) },
}).Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Match Scout</title></head>
<body>
<h1>Match Predictor</h1>
<p>AI-powered tactical scouting</p>
<form method="get" action="/">
  <select name="team_a">{{range .Teams}}<option{{if eq . $.TeamA}} selected{{end}}>{{.}}</option>{{end}}</select>
  vs
  <select name="team_b">{{range .Teams}}<option{{if eq . $.TeamB}} selected{{end}}>{{.}}</option>{{end}}</select>
  <button type="submit">Generate scout report</button>
</form>
{{with .Error}}<p class="error">{{.}}</p>{{end}}
{{with .Report}}
<div class="result-card">
  <h3>Tactical Analysis</h3>
  <p>{{.Prediction.TeamA}} {{pct .Prediction.Probabilities.TeamAWin}} / Draw {{pct .Prediction.Probabilities.Draw}} / {{.Prediction.TeamB}} {{pct .Prediction.Probabilities.TeamBWin}}</p>
  <h4>Percents</h4><p>{{.Percents}}</p>
  <h4>Insight</h4><p>{{.Insight}}</p>
  <h4>Reasoning</h4><p>{{.Reasoning}}</p>
  {{if .Degraded}}<p><em>Commentary unavailable, statistical forecast only.</em></p>{{end}}
</div>
{{end}}
</body>
</html>
`))

type dashboardData struct {
	Teams  []string
	TeamA  string
	TeamB  string
	Report *models.ScoutReport
	Error  string
}

// Dashboard renders the team picker and, when both teams are given, a report.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	teams := h.reports.Teams()
	data := dashboardData{
		Teams: teams,
		TeamA: r.URL.Query().Get("team_a"),
		TeamB: r.URL.Query().Get("team_b"),
	}
	if data.TeamA == "" && len(teams) > 0 {
		data.TeamA = teams[0]
	}
	if data.TeamB == "" && len(teams) > 1 {
		data.TeamB = teams[1]
	}

	status := http.StatusOK
	if r.URL.Query().Has("team_a") && r.URL.Query().Has("team_b") {
		if data.TeamA == data.TeamB {
			data.Error = "Please select two different teams."
			status = http.StatusBadRequest
		} else {
			ctx, cancel := context.WithTimeout(r.Context(), h.reportTimeout)
			defer cancel()
			report, err := h.reports.Generate(ctx, data.TeamA, data.TeamB)
			if err != nil {
				status = predictionStatus(err)
				data.Error = err.Error()
				if status == http.StatusInternalServerError {
					h.logger.Error().Err(err).Msg("Dashboard report failed")
					data.Error = "Prediction failed."
				}
			} else {
				data.Report = report
			}
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := dashboardTmpl.Execute(w, data); err != nil {
		h.logger.Error().Err(err).Msg("Failed to render dashboard")
	}
}

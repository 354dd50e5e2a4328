// Package evaluation scores probabilistic match predictions against results.
package evaluation

import (
	"math"
	"time"

	"github.com/Alias1177/MatchScout/models"
)

// Prediction is one scored match.
type Prediction struct {
	Probabilities models.Probabilities
	Actual        models.Outcome
	Date          time.Time
}

// Report holds the holdout metrics
type Report struct {
	Matches  int     `json:"matches"`
	Correct  int     `json:"correct"`
	Accuracy float64 `json:"accuracy"`
	LogLoss  float64 `json:"log_loss"`
	Brier    float64 `json:"brier"`

	// Confusion[actual][predicted]
	Confusion [models.NumOutcomes][models.NumOutcomes]int `json:"confusion"`

	MaxConsecutive struct {
		Hits   int `json:"hits"`
		Misses int `json:"misses"`
	} `json:"max_consecutive"`
	MonthlyAccuracy map[string]float64 `json:"monthly_accuracy"`
}

// probability floor for log loss
const epsilon = 1e-15

// Evaluate computes performance metrics for a chronologically ordered
// prediction series.
func Evaluate(preds []Prediction) *Report {
	r := &Report{MonthlyAccuracy: make(map[string]float64)}
	if len(preds) == 0 {
		return r
	}

	var logLoss, brier float64
	var hits, misses int
	for _, p := range preds {
		predicted := p.Probabilities.Favourite()
		r.Confusion[p.Actual][predicted]++
		if predicted == p.Actual {
			r.Correct++
			hits++
			misses = 0
		} else {
			misses++
			hits = 0
		}
		r.MaxConsecutive.Hits = max(r.MaxConsecutive.Hits, hits)
		r.MaxConsecutive.Misses = max(r.MaxConsecutive.Misses, misses)

		logLoss -= math.Log(math.Max(p.Probabilities[p.Actual], epsilon))
		for c := range p.Probabilities {
			target := 0.0
			if models.Outcome(c) == p.Actual {
				target = 1
			}
			d := p.Probabilities[c] - target
			brier += d * d
		}
	}

	n := float64(len(preds))
	r.Matches = len(preds)
	r.Accuracy = float64(r.Correct) / n
	r.LogLoss = logLoss / n
	r.Brier = brier / n
	calculateMonthlyStats(r, preds)
	return r
}

// calculateMonthlyStats aggregates accuracy by month
func calculateMonthlyStats(r *Report, preds []Prediction) {
	monthly := make(map[string]struct {
		hits  int
		total int
	})
	for _, p := range preds {
		month := p.Date.Format("2006-01")
		stats := monthly[month]
		stats.total++
		if p.Probabilities.Favourite() == p.Actual {
			stats.hits++
		}
		monthly[month] = stats
	}
	for month, stats := range monthly {
		r.MonthlyAccuracy[month] = float64(stats.hits) / float64(stats.total)
	}
}

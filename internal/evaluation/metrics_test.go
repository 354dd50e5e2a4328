package evaluation

import (
	"math"
	"testing"
	"time"

	"github.com/Alias1177/MatchScout/models"
	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	jan := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	preds := []Prediction{
		{Probabilities: models.Probabilities{0.1, 0.2, 0.7}, Actual: models.HomeWin, Date: jan},
		{Probabilities: models.Probabilities{0.6, 0.3, 0.1}, Actual: models.AwayWin, Date: jan},
		{Probabilities: models.Probabilities{0.2, 0.3, 0.5}, Actual: models.Draw, Date: feb},
		{Probabilities: models.Probabilities{0.5, 0.4, 0.1}, Actual: models.Draw, Date: feb},
	}

	r := Evaluate(preds)
	assert.Equal(t, 4, r.Matches)
	assert.Equal(t, 2, r.Correct)
	assert.InDelta(t, 0.5, r.Accuracy, 1e-12)

	wantLogLoss := -(math.Log(0.7) + math.Log(0.6) + math.Log(0.3) + math.Log(0.4)) / 4
	assert.InDelta(t, wantLogLoss, r.LogLoss, 1e-12)

	// (0.01+0.04+0.09) + (0.16+0.09+0.01) + (0.04+0.49+0.25) + (0.25+0.36+0.01)
	assert.InDelta(t, (0.14+0.26+0.78+0.62)/4, r.Brier, 1e-12)

	assert.Equal(t, 1, r.Confusion[models.HomeWin][models.HomeWin])
	assert.Equal(t, 1, r.Confusion[models.AwayWin][models.AwayWin])
	assert.Equal(t, 1, r.Confusion[models.Draw][models.HomeWin])
	assert.Equal(t, 1, r.Confusion[models.Draw][models.AwayWin])

	assert.Equal(t, 2, r.MaxConsecutive.Hits)
	assert.Equal(t, 2, r.MaxConsecutive.Misses)
	assert.Equal(t, map[string]float64{"2024-01": 1, "2024-02": 0}, r.MonthlyAccuracy)
}

func TestEvaluateClampsZeroProbability(t *testing.T) {
	r := Evaluate([]Prediction{{Probabilities: models.Probabilities{1, 0, 0}, Actual: models.HomeWin}})
	assert.False(t, math.IsInf(r.LogLoss, 0))
	assert.InDelta(t, -math.Log(epsilon), r.LogLoss, 1e-9)
}

func TestEvaluateEmpty(t *testing.T) {
	r := Evaluate(nil)
	assert.Zero(t, r.Matches)
	assert.Zero(t, r.Accuracy)
	assert.NotNil(t, r.MonthlyAccuracy)
}

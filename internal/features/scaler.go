package features

import (
	"errors"
	"fmt"
	"math"

	"github.com/Alias1177/MatchScout/models"
)

// ScalerKind selects the normalisation applied to the gap features.
type ScalerKind string

const (
	ZScore ScalerKind = "zscore"
	MinMax ScalerKind = "minmax"
)

// GapNames are the inputs of the dominance composite, in Scaler column order.
var GapNames = []string{"skill_gap", "recent_form_gap", "season_form_gap", "defense_gap"}

// Gaps returns the four gap features of a row from T1's point of view.
// A positive defense gap means T1 concedes less than T2.
func Gaps(r *models.FeatureRow) [4]float64 {
	return [4]float64{
		r.SkillGap,
		r.T1OP - r.T2OP,
		r.T1SOP - r.T2SOP,
		r.T2DS - r.T1DS,
	}
}

// Scaler is fit once on the training table and only read afterwards.
type Scaler struct {
	Kind ScalerKind `json:"kind"`
	// Center and Scale are mean/std for z-score and min/(max-min) for min-max.
	Center [4]float64 `json:"center"`
	Scale  [4]float64 `json:"scale"`
}

// FitScaler learns the normalisation of the gap features over rows.
func FitScaler(kind ScalerKind, rows []models.FeatureRow) (*Scaler, error) {
	if len(rows) == 0 {
		return nil, errors.New("fit scaler: no rows")
	}
	s := &Scaler{Kind: kind}
	switch kind {
	case ZScore:
		var sum, sumSq [4]float64
		for i := range rows {
			g := Gaps(&rows[i])
			for j, v := range g {
				sum[j] += v
				sumSq[j] += v * v
			}
		}
		n := float64(len(rows))
		for j := range sum {
			mean := sum[j] / n
			// population variance, as sklearn's StandardScaler
			variance := sumSq[j]/n - mean*mean
			if variance < 0 {
				variance = 0
			}
			s.Center[j] = mean
			s.Scale[j] = math.Sqrt(variance)
		}
	case MinMax:
		var lo, hi [4]float64
		for j := range lo {
			lo[j], hi[j] = math.Inf(1), math.Inf(-1)
		}
		for i := range rows {
			for j, v := range Gaps(&rows[i]) {
				lo[j] = math.Min(lo[j], v)
				hi[j] = math.Max(hi[j], v)
			}
		}
		for j := range lo {
			s.Center[j] = lo[j]
			s.Scale[j] = hi[j] - lo[j]
		}
	default:
		return nil, fmt.Errorf("fit scaler: unknown kind %q", kind)
	}
	for j := range s.Scale {
		if s.Scale[j] == 0 {
			s.Scale[j] = 1
		}
	}
	return s, nil
}

// Transform normalises the gaps of one row.
func (s *Scaler) Transform(g [4]float64) [4]float64 {
	var out [4]float64
	for j, v := range g {
		out[j] = (v - s.Center[j]) / s.Scale[j]
	}
	return out
}

// Dominance is the weighted sum of the scaled gaps.
func Dominance(s *Scaler, w Weights, r *models.FeatureRow) float64 {
	z := s.Transform(Gaps(r))
	return w.Skill*z[0] + w.Recent*z[1] + w.Season*z[2] + w.Defense*z[3]
}

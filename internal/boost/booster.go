// Package boost is a small multinomial gradient-boosted tree classifier in
// the style of XGBoost's multi:softprob objective: one regression tree per
// class per round, fit on second-order gradient statistics of the softmax
// loss with L2-regularised leaf weights.
package boost

import (
	"errors"
	"fmt"
	"math"
)

// Params are the booster hyper-parameters.
type Params struct {
	NEstimators    int     `json:"n_estimators"`
	MaxDepth       int     `json:"max_depth"`
	LearningRate   float64 `json:"learning_rate"`
	RegLambda      float64 `json:"reg_lambda"`
	MinChildWeight float64 `json:"min_child_weight"`
	Gamma          float64 `json:"gamma"`
	BaseScore      float64 `json:"base_score"`
	NumClass       int     `json:"num_class"`
}

// DefaultParams are the production hyper-parameters: a shallow, heavily
// regularised ensemble for a small and noisy match log.
func DefaultParams() Params {
	return Params{
		NEstimators:    40,
		MaxDepth:       3,
		LearningRate:   0.05,
		RegLambda:      15,
		MinChildWeight: 1,
		Gamma:          0,
		BaseScore:      0.5,
		NumClass:       3,
	}
}

func (p Params) validate() error {
	switch {
	case p.NEstimators <= 0:
		return fmt.Errorf("n_estimators must be positive, got %d", p.NEstimators)
	case p.MaxDepth <= 0:
		return fmt.Errorf("max_depth must be positive, got %d", p.MaxDepth)
	case p.LearningRate <= 0:
		return fmt.Errorf("learning_rate must be positive, got %v", p.LearningRate)
	case p.RegLambda < 0:
		return fmt.Errorf("reg_lambda must not be negative, got %v", p.RegLambda)
	case p.NumClass < 2:
		return fmt.Errorf("num_class must be at least 2, got %d", p.NumClass)
	}
	return nil
}

// Model is a fitted booster. It is never modified after Fit.
type Model struct {
	Params      Params   `json:"params"`
	NumFeatures int      `json:"num_features"`
	Trees       [][]Tree `json:"trees"` // [round][class]
}

// ErrFeatureCount is returned when a vector has the wrong width.
var ErrFeatureCount = errors.New("feature count mismatch")

// Fit trains a model on rows x with integer class labels y in [0, NumClass).
func Fit(x [][]float64, y []int, p Params) (*Model, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if len(x) == 0 {
		return nil, errors.New("fit: empty training set")
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("fit: %d rows but %d labels", len(x), len(y))
	}
	width := len(x[0])
	if width == 0 {
		return nil, errors.New("fit: rows have no features")
	}
	for i, row := range x {
		if len(row) != width {
			return nil, fmt.Errorf("fit: row %d: %w: %d, want %d", i, ErrFeatureCount, len(row), width)
		}
		if y[i] < 0 || y[i] >= p.NumClass {
			return nil, fmt.Errorf("fit: row %d: label %d outside [0,%d)", i, y[i], p.NumClass)
		}
	}

	k := p.NumClass
	margins := make([][]float64, len(x))
	for i := range margins {
		margins[i] = make([]float64, k)
		for c := range margins[i] {
			margins[i][c] = p.BaseScore
		}
	}

	m := &Model{Params: p, NumFeatures: width, Trees: make([][]Tree, 0, p.NEstimators)}
	grad := make([]float64, len(x))
	hess := make([]float64, len(x))
	probs := make([][]float64, len(x))

	for round := 0; round < p.NEstimators; round++ {
		for i := range x {
			probs[i] = softmax(margins[i])
		}
		trees := make([]Tree, k)
		for c := 0; c < k; c++ {
			for i := range x {
				pr := probs[i][c]
				target := 0.0
				if y[i] == c {
					target = 1
				}
				grad[i] = pr - target
				hess[i] = math.Max(2*pr*(1-pr), 1e-16)
			}
			trees[c] = buildTree(x, grad, hess, p)
		}
		for i := range x {
			for c := 0; c < k; c++ {
				margins[i][c] += trees[c].Predict(x[i])
			}
		}
		m.Trees = append(m.Trees, trees)
	}
	return m, nil
}

// PredictProba returns the class distribution for one feature vector.
func (m *Model) PredictProba(x []float64) ([]float64, error) {
	if len(x) != m.NumFeatures {
		return nil, fmt.Errorf("%w: %d, want %d", ErrFeatureCount, len(x), m.NumFeatures)
	}
	margins := make([]float64, m.Params.NumClass)
	for c := range margins {
		margins[c] = m.Params.BaseScore
	}
	for _, round := range m.Trees {
		for c := range round {
			margins[c] += round[c].Predict(x)
		}
	}
	return softmax(margins), nil
}

// Importance sums split gains per feature over all trees.
func (m *Model) Importance() []float64 {
	imp := make([]float64, m.NumFeatures)
	for _, round := range m.Trees {
		for _, t := range round {
			for _, n := range t.Nodes {
				if n.Feature >= 0 && n.Feature < len(imp) {
					imp[n.Feature] += n.Gain
				}
			}
		}
	}
	return imp
}

// Validate checks the structure of a model read from disk.
func (m *Model) Validate() error {
	if err := m.Params.validate(); err != nil {
		return err
	}
	if m.NumFeatures <= 0 {
		return fmt.Errorf("model has %d features", m.NumFeatures)
	}
	for r, round := range m.Trees {
		if len(round) != m.Params.NumClass {
			return fmt.Errorf("round %d has %d trees, want %d", r, len(round), m.Params.NumClass)
		}
		for c, t := range round {
			if len(t.Nodes) == 0 {
				return fmt.Errorf("round %d class %d: empty tree", r, c)
			}
			for i, n := range t.Nodes {
				if n.Feature < 0 {
					continue
				}
				if n.Feature >= m.NumFeatures || n.Left <= i || n.Right <= i || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
					return fmt.Errorf("round %d class %d: malformed node %d", r, c, i)
				}
			}
		}
	}
	return nil
}

func softmax(margins []float64) []float64 {
	maxM := math.Inf(-1)
	for _, v := range margins {
		maxM = math.Max(maxM, v)
	}
	out := make([]float64, len(margins))
	var sum float64
	for i, v := range margins {
		out[i] = math.Exp(v - maxM)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

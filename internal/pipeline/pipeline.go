// Package pipeline runs the offline training: feature engineering over the
// match log followed by one classifier fit.
package pipeline

import (
	"fmt"
	"math"
	"time"

	"github.com/Alias1177/MatchScout/internal/boost"
	"github.com/Alias1177/MatchScout/internal/evaluation"
	"github.com/Alias1177/MatchScout/internal/features"
	"github.com/Alias1177/MatchScout/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options configure a training run.
type Options struct {
	Schema features.Schema
	Params boost.Params
	// HoldoutFraction > 0 evaluates a model fit on the earlier matches
	// against the latest ones before the final fit on everything.
	HoldoutFraction float64
}

// Result is everything a serving process needs.
type Result struct {
	Schema    features.Schema
	Model     *boost.Model
	Table     *features.Table
	TrainedAt time.Time
	Holdout   *evaluation.Report // nil when no holdout was requested
}

// Trainer owns the logger of a training run.
type Trainer struct {
	logger zerolog.Logger
}

func NewTrainer() *Trainer {
	return &Trainer{logger: log.With().Str("component", "pipeline").Logger()}
}

// Train builds the symmetric feature table and fits the classifier on it.
func (t *Trainer) Train(matches []models.MatchRecord, attributes []models.TeamAttributeRecord, opts Options) (*Result, error) {
	schema := opts.Schema
	t.logger.Info().
		Str("schema", schema.Name).
		Strs("columns", schema.Columns).
		Int("matches", len(matches)).
		Int("attributes", len(attributes)).
		Msg("Starting training run")

	var holdout *evaluation.Report
	if opts.HoldoutFraction > 0 {
		report, err := t.evaluateHoldout(matches, attributes, opts)
		if err != nil {
			return nil, fmt.Errorf("holdout evaluation: %w", err)
		}
		holdout = report
	}

	table, err := features.BuildTable(matches, attributes, schema)
	if err != nil {
		return nil, fmt.Errorf("building feature table: %w", err)
	}

	model, err := fit(schema, table.Rows, opts.Params)
	if err != nil {
		return nil, err
	}

	t.logger.Info().
		Int("rows", len(table.Rows)).
		Int("trees", len(model.Trees)*model.Params.NumClass).
		Str("fingerprint", schema.Fingerprint()[:12]).
		Msg("Model trained for neutral venue")

	return &Result{
		Schema:    schema,
		Model:     model,
		Table:     table,
		TrainedAt: time.Now().UTC(),
		Holdout:   holdout,
	}, nil
}

// Train is a convenience wrapper around a default Trainer.
func Train(matches []models.MatchRecord, attributes []models.TeamAttributeRecord, opts Options) (*Result, error) {
	return NewTrainer().Train(matches, attributes, opts)
}

func fit(schema features.Schema, rows []models.FeatureRow, params boost.Params) (*boost.Model, error) {
	x := make([][]float64, len(rows))
	y := make([]int, len(rows))
	for i := range rows {
		v, err := schema.Vector(&rows[i])
		if err != nil {
			return nil, err
		}
		x[i] = v
		y[i] = int(rows[i].Result)
	}
	model, err := boost.Fit(x, y, params)
	if err != nil {
		return nil, fmt.Errorf("fitting classifier: %w", err)
	}
	return model, nil
}

// evaluateHoldout splits the chronologically sorted matches, builds features
// over the full history (form is point-in-time, so later matches never feed
// earlier rows) and scores a model fit on the earlier original rows plus
// their mirrors against the later original rows.
func (t *Trainer) evaluateHoldout(matches []models.MatchRecord, attributes []models.TeamAttributeRecord, opts Options) (*evaluation.Report, error) {
	if opts.HoldoutFraction >= 1 {
		return nil, fmt.Errorf("holdout fraction must be below 1, got %v", opts.HoldoutFraction)
	}
	table, err := features.BuildTable(matches, attributes, opts.Schema)
	if err != nil {
		return nil, err
	}

	originals := table.Originals()
	mirrors := table.Rows[len(originals):]
	cut := len(originals) - int(math.Round(float64(len(originals))*opts.HoldoutFraction))
	if cut < 1 || cut >= len(originals) {
		return nil, fmt.Errorf("holdout of %v leaves no training or test matches out of %d", opts.HoldoutFraction, len(originals))
	}

	train := append(append([]models.FeatureRow(nil), originals[:cut]...), mirrors[:cut]...)
	model, err := fit(opts.Schema, train, opts.Params)
	if err != nil {
		return nil, err
	}

	test := originals[cut:]
	preds := make([]evaluation.Prediction, 0, len(test))
	for i := range test {
		x, err := opts.Schema.Vector(&test[i])
		if err != nil {
			return nil, err
		}
		p, err := model.PredictProba(x)
		if err != nil {
			return nil, err
		}
		var probs models.Probabilities
		copy(probs[:], p)
		preds = append(preds, evaluation.Prediction{Probabilities: probs, Actual: test[i].Result, Date: test[i].Date})
	}

	report := evaluation.Evaluate(preds)
	t.logger.Info().
		Int("train_matches", cut).
		Int("test_matches", len(test)).
		Float64("accuracy", report.Accuracy).
		Float64("log_loss", report.LogLoss).
		Float64("brier", report.Brier).
		Msg("Holdout evaluation")
	return report, nil
}

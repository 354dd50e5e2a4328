// Command train builds the feature table from the match log, fits the
// classifier and writes the serving artifacts.
package main

import (
	"flag"
	"sort"
	"strings"

	"github.com/Alias1177/MatchScout/internal/app"
	"github.com/Alias1177/MatchScout/internal/artifacts"
	"github.com/Alias1177/MatchScout/internal/boost"
	"github.com/Alias1177/MatchScout/internal/config"
	"github.com/Alias1177/MatchScout/internal/dataset"
	"github.com/Alias1177/MatchScout/internal/features"
	"github.com/Alias1177/MatchScout/internal/pipeline"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	app.SetupLogger(cfg.LogLevel)

	matchesPath := flag.String("matches", cfg.MatchLogPath, "match log CSV")
	attributesPath := flag.String("attributes", cfg.TeamAttributesPath, "team attributes CSV")
	outDir := flag.String("out", cfg.ArtifactDir, "artifact directory")
	schemaName := flag.String("schema", cfg.FeatureSchema, "feature schema: "+strings.Join(features.SchemaNames(), ", "))
	holdout := flag.Float64("holdout", 0, "fraction of the latest matches held out for evaluation, 0 disables")
	flag.Parse()

	var overrides config.SchemaOverrides
	if cfg.SchemaFile != "" {
		overrides, err = config.LoadSchemaOverrides(cfg.SchemaFile)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load schema file")
		}
	}
	// environment wins over the schema file
	if cfg.FormWindow > 0 {
		overrides.FormWindow = cfg.FormWindow
	}
	if cfg.SmoothingK > 0 {
		overrides.Smoothing = cfg.SmoothingK
	}
	schema, err := features.Resolve(*schemaName, overrides)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to resolve feature schema")
	}

	matches, err := dataset.LoadMatches(*matchesPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *matchesPath).Msg("Failed to load match log")
	}
	attributes, err := dataset.LoadAttributes(*attributesPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *attributesPath).Msg("Failed to load team attributes")
	}

	params := boost.DefaultParams()
	params.NEstimators = cfg.NEstimators
	params.MaxDepth = cfg.MaxDepth
	params.LearningRate = cfg.LearningRate
	params.RegLambda = cfg.RegLambda

	res, err := pipeline.Train(matches, attributes, pipeline.Options{
		Schema:          schema,
		Params:          params,
		HoldoutFraction: *holdout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Training failed")
	}

	if h := res.Holdout; h != nil {
		log.Info().
			Int("matches", h.Matches).
			Float64("accuracy", h.Accuracy).
			Float64("log_loss", h.LogLoss).
			Float64("brier", h.Brier).
			Int("max_hits", h.MaxConsecutive.Hits).
			Int("max_misses", h.MaxConsecutive.Misses).
			Msg("Holdout evaluation")
	}
	logImportance(res)

	if err := artifacts.Save(*outDir, res); err != nil {
		log.Fatal().Err(err).Str("dir", *outDir).Msg("Failed to save artifacts")
	}
	log.Info().Str("dir", *outDir).Str("schema", schema.Name).Msg("Artifacts saved")
}

func logImportance(res *pipeline.Result) {
	imp := res.Model.Importance()
	order := make([]int, len(imp))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return imp[order[a]] > imp[order[b]] })

	var total float64
	for _, v := range imp {
		total += v
	}
	for _, i := range order {
		share := 0.0
		if total > 0 {
			share = imp[i] / total
		}
		log.Info().Str("feature", res.Schema.Columns[i]).Float64("share", share).Msg("Feature importance")
	}
}

// Package app wires the serving stack shared by the HTTP server and the bot.
package app

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/Alias1177/MatchScout/internal/api/openai"
	"github.com/Alias1177/MatchScout/internal/artifacts"
	"github.com/Alias1177/MatchScout/internal/cache"
	"github.com/Alias1177/MatchScout/internal/config"
	"github.com/Alias1177/MatchScout/internal/database"
	"github.com/Alias1177/MatchScout/internal/inference"
	"github.com/Alias1177/MatchScout/internal/report"
	"github.com/Alias1177/MatchScout/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetupLogger points the global logger at a console writer.
func SetupLogger(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

// App is the loaded serving stack.
type App struct {
	Predictor *inference.Predictor
	Reports   *report.Service
	History   *database.DB // nil when no database is configured

	closers []io.Closer
}

// New loads the artifacts and connects the optional collaborators. Missing
// artifacts are fatal; an unreachable cache or database is logged and skipped.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	bundle, err := artifacts.Load(cfg.ArtifactDir)
	if err != nil {
		if errors.Is(err, artifacts.ErrArtifactMissing) {
			log.Error().Str("dir", cfg.ArtifactDir).Msg("Artifacts not found, run the train command first")
		}
		return nil, err
	}

	schema := bundle.Schema
	if cfg.SmoothingK > 0 {
		schema.Smoothing = cfg.SmoothingK
	}
	predictor, err := inference.NewPredictor(bundle.Model, bundle.Scaler, schema, bundle.Fingerprint, bundle.Rows)
	if err != nil {
		return nil, err
	}

	if cfg.LLMAPIKey == "" {
		log.Warn().Msg("No language model API key set, reports will be degraded")
	}
	llm := openai.NewClient(openai.ClientOptions{
		APIKey:         cfg.LLMAPIKey,
		BaseURL:        cfg.LLMBaseURL,
		Model:          cfg.LLMModel,
		Timeout:        cfg.LLMTimeout,
		RequestsPerSec: float64(cfg.LLMRequestsPerSec),
		MaxRetries:     cfg.LLMMaxRetries,
	})

	a := &App{Predictor: predictor}

	var reportCache models.ReportCache
	if cfg.RedisURL != "" {
		c, err := cache.New(ctx, cfg.RedisURL, cfg.ReportCacheTTL)
		if err != nil {
			log.Warn().Err(err).Msg("Report cache unavailable, continuing without it")
		} else {
			reportCache = c
			a.closers = append(a.closers, c)
		}
	}

	var history models.ReportHistory
	if cfg.DB.Enabled() {
		db, err := database.New(ctx, database.ConnectionParams{
			Host:     cfg.DB.Host,
			Port:     cfg.DB.Port,
			User:     cfg.DB.User,
			Password: cfg.DB.Password,
			DBName:   cfg.DB.DBName,
			SSLMode:  cfg.DB.SSLMode,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Report history unavailable, continuing without it")
		} else {
			history = db
			a.History = db
			a.closers = append(a.closers, db)
		}
	}

	a.Reports = report.NewService(predictor, llm, reportCache, history)
	return a, nil
}

// Close releases the optional collaborators.
func (a *App) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			log.Warn().Err(err).Msg("Close failed")
		}
	}
}

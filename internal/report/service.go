// Package report combines a model prediction with the language model's
// scouting commentary.
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Alias1177/MatchScout/internal/inference"
	"github.com/Alias1177/MatchScout/internal/metrics"
	"github.com/Alias1177/MatchScout/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DegradedInsight replaces the commentary when the language model is down.
const DegradedInsight = "AI scouting is temporarily unavailable. The forecast above comes from the statistical model alone."

// Predictor is the part of the inference adapter the service needs.
type Predictor interface {
	Predict(teamA, teamB string) (models.MatchPrediction, error)
	Teams() []string
	// Version changes whenever the same matchup could predict differently.
	Version() string
}

// Service generates scout reports. Cache and history are optional.
type Service struct {
	predictor Predictor
	llm       models.Completer
	cache     models.ReportCache
	history   models.ReportHistory
	logger    zerolog.Logger
	now       func() time.Time
}

// NewService creates a report service. cache and history may be nil.
func NewService(predictor Predictor, llm models.Completer, cache models.ReportCache, history models.ReportHistory) *Service {
	return &Service{
		predictor: predictor,
		llm:       llm,
		cache:     cache,
		history:   history,
		logger:    log.With().Str("component", "report_service").Logger(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Teams lists the teams a report can be generated for.
func (s *Service) Teams() []string {
	return s.predictor.Teams()
}

// Predict runs the model only.
func (s *Service) Predict(teamA, teamB string) (models.MatchPrediction, error) {
	pred, err := s.predictor.Predict(teamA, teamB)
	if err != nil {
		metrics.PredictionErrors.WithLabelValues(errorReason(err)).Inc()
		return models.MatchPrediction{}, err
	}
	metrics.Predictions.WithLabelValues(pred.Probabilities.Favourite().String()).Inc()
	return pred, nil
}

// Generate predicts the match and asks the language model to explain it.
// Prediction errors are returned; a failing language model only degrades
// the report.
func (s *Service) Generate(ctx context.Context, teamA, teamB string) (*models.ScoutReport, error) {
	pred, err := s.Predict(teamA, teamB)
	if err != nil {
		return nil, err
	}

	key := s.cacheKey(teamA, teamB)
	if cached := s.lookup(ctx, key); cached != nil {
		cached.Prediction = pred
		return cached, nil
	}

	report := &models.ScoutReport{
		ID:          uuid.NewString(),
		Prediction:  pred,
		GeneratedAt: s.now(),
	}

	text, err := s.llm.GenerateCompletion(ctx, BuildPrompt(pred))
	if err != nil {
		s.logger.Error().Err(err).Str("team_a", teamA).Str("team_b", teamB).Msg("Language model failed, serving degraded report")
		report.Degraded = true
		report.Percents = FormatPercents(pred.Probabilities)
		report.Insight = DegradedInsight
		report.Reasoning = ReasoningFallback
	} else {
		sections := Parse(text)
		report.Percents = sections.Percents
		report.Insight = sections.Insight
		report.Reasoning = sections.Reasoning
		report.RawText = text
		s.store(ctx, key, report)
	}

	if s.history != nil {
		if err := s.history.SaveReport(ctx, report); err != nil {
			s.logger.Warn().Err(err).Str("report_id", report.ID).Msg("Failed to record report history")
		}
	}

	s.logger.Info().
		Str("report_id", report.ID).
		Str("team_a", teamA).
		Str("team_b", teamB).
		Str("favourite", pred.Probabilities.Favourite().String()).
		Bool("degraded", report.Degraded).
		Msg("Scout report generated")
	return report, nil
}

// cacheKey includes the predictor version so a retrained model or a new
// smoothing factor never serves reports of the old one.
func (s *Service) cacheKey(teamA, teamB string) string {
	v := s.predictor.Version()
	if len(v) > 16 {
		v = v[:16]
	}
	return fmt.Sprintf("scout:report:%s:%s:%s", v, teamA, teamB)
}

func (s *Service) lookup(ctx context.Context, key string) *models.ScoutReport {
	if s.cache == nil {
		return nil
	}
	cached, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		metrics.ReportCache.WithLabelValues("error").Inc()
		s.logger.Warn().Err(err).Str("key", key).Msg("Report cache lookup failed")
		return nil
	}
	if !ok {
		metrics.ReportCache.WithLabelValues("miss").Inc()
		return nil
	}
	metrics.ReportCache.WithLabelValues("hit").Inc()
	cached.Cached = true
	return cached
}

func (s *Service) store(ctx context.Context, key string, report *models.ScoutReport) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, report); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Report cache store failed")
	}
}

func errorReason(err error) string {
	var unknown *inference.UnknownTeamError
	var mismatch *inference.SchemaMismatchError
	switch {
	case errors.Is(err, inference.ErrSameTeam):
		return "same_team"
	case errors.As(err, &unknown):
		return "unknown_team"
	case errors.As(err, &mismatch):
		return "schema_mismatch"
	}
	return "internal"
}

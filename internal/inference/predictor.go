// Package inference turns a pair of team names into smoothed outcome
// probabilities using the trained model and the processed match table.
package inference

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/Alias1177/MatchScout/internal/boost"
	"github.com/Alias1177/MatchScout/internal/features"
	"github.com/Alias1177/MatchScout/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/blake2b"
)

// ErrSameTeam is returned when a team is matched against itself.
var ErrSameTeam = errors.New("a team cannot play itself")

// UnknownTeamError is returned for teams that never appear in the processed table.
type UnknownTeamError struct {
	Team string
}

func (e *UnknownTeamError) Error() string {
	return fmt.Sprintf("unknown team %q", e.Team)
}

// SchemaMismatchError means the model was trained on a different feature
// layout than the one inference would build.
type SchemaMismatchError struct {
	Want string
	Got  string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("feature schema mismatch: model expects %s, inference builds %s", e.Want, e.Got)
}

// CheckSchema compares a schema read from disk with the one this build
// computes. Any difference in layout is a *SchemaMismatchError.
func CheckSchema(stored features.Schema) error {
	if err := stored.Compatible(); err != nil {
		return &SchemaMismatchError{
			Want: fmt.Sprintf("%s v%d %v", stored.Name, stored.Version, stored.Columns),
			Got:  err.Error(),
		}
	}
	return nil
}

// Predictor is immutable after construction and safe for concurrent use.
type Predictor struct {
	model       *boost.Model
	scaler      *features.Scaler
	schema      features.Schema
	fingerprint string
	latest      map[string]models.FeatureRow
	teams       []string
	version     string
	logger      zerolog.Logger
}

// NewPredictor indexes the latest processed row of every team. fingerprint is
// the schema fingerprint stored alongside the model.
func NewPredictor(model *boost.Model, scaler *features.Scaler, schema features.Schema, fingerprint string, rows []models.FeatureRow) (*Predictor, error) {
	if model == nil {
		return nil, errors.New("predictor: nil model")
	}
	if len(rows) == 0 {
		return nil, errors.New("predictor: empty processed match table")
	}
	if err := CheckSchema(schema); err != nil {
		return nil, err
	}

	latest := make(map[string]models.FeatureRow)
	for _, r := range rows {
		for _, team := range []string{r.HomeTeam, r.AwayTeam} {
			if cur, ok := latest[team]; !ok || newer(r, cur) {
				latest[team] = r
			}
		}
	}
	teams := make([]string, 0, len(latest))
	for team := range latest {
		teams = append(teams, team)
	}
	sort.Strings(teams)

	version, err := modelVersion(model, scaler, schema, fingerprint, latest, teams)
	if err != nil {
		return nil, err
	}

	p := &Predictor{
		model:       model,
		scaler:      scaler,
		schema:      schema,
		fingerprint: fingerprint,
		latest:      latest,
		teams:       teams,
		version:     version,
		logger:      log.With().Str("component", "predictor").Logger(),
	}
	p.logger.Info().
		Str("schema", schema.Name).
		Int("teams", len(teams)).
		Float64("smoothing", schema.Smoothing).
		Msg("Predictor ready")
	return p, nil
}

// modelVersion hashes everything a prediction depends on: the trees, the
// scaler, the schema with its smoothing and the indexed team states.
func modelVersion(model *boost.Model, scaler *features.Scaler, schema features.Schema, fingerprint string, latest map[string]models.FeatureRow, teams []string) (string, error) {
	h, _ := blake2b.New256(nil)
	fmt.Fprintf(h, "%s\x00%v\x00", fingerprint, schema.Smoothing)
	enc := json.NewEncoder(h)
	if err := enc.Encode(model); err != nil {
		return "", fmt.Errorf("predictor: hashing model: %w", err)
	}
	if err := enc.Encode(scaler); err != nil {
		return "", fmt.Errorf("predictor: hashing scaler: %w", err)
	}
	for _, team := range teams {
		if err := enc.Encode(latest[team]); err != nil {
			return "", fmt.Errorf("predictor: hashing team state: %w", err)
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// newer orders rows by (date, seq); on a tie the original orientation wins.
func newer(r, cur models.FeatureRow) bool {
	if !r.Date.Equal(cur.Date) {
		return r.Date.After(cur.Date)
	}
	if r.Seq != cur.Seq {
		return r.Seq > cur.Seq
	}
	return !r.Mirrored && cur.Mirrored
}

// Teams returns the known team names, sorted.
func (p *Predictor) Teams() []string {
	return append([]string(nil), p.teams...)
}

// Schema returns the feature schema predictions are built with.
func (p *Predictor) Schema() features.Schema {
	return p.schema
}

// Version identifies the loaded model, its smoothing and team states. Two
// predictors with equal versions return equal predictions.
func (p *Predictor) Version() string {
	return p.version
}

// Snapshot is the team's state as of its most recent match.
func (p *Predictor) Snapshot(team string) (models.TeamState, error) {
	row, ok := p.latest[team]
	if !ok {
		return models.TeamState{}, &UnknownTeamError{Team: team}
	}
	s := models.TeamState{Team: team, AsOf: row.Date}
	if row.HomeTeam == team {
		s.Skill, s.Offense, s.Defense = row.T1Skill, row.T1OP, row.T1DS
		s.SeasonOffense, s.SeasonDefense = row.T1SOP, row.T1SDS
	} else {
		s.Skill, s.Offense, s.Defense = row.T2Skill, row.T2OP, row.T2DS
		s.SeasonOffense, s.SeasonDefense = row.T2SOP, row.T2SDS
	}
	return s, nil
}

// Predict returns the smoothed probabilities of teamA beating, drawing with
// and losing to teamB, slot order {team_b_win, draw, team_a_win}.
func (p *Predictor) Predict(teamA, teamB string) (models.MatchPrediction, error) {
	if teamA == teamB {
		return models.MatchPrediction{}, ErrSameTeam
	}
	a, err := p.Snapshot(teamA)
	if err != nil {
		return models.MatchPrediction{}, err
	}
	b, err := p.Snapshot(teamB)
	if err != nil {
		return models.MatchPrediction{}, err
	}

	x, err := p.vector(a, b)
	if err != nil {
		return models.MatchPrediction{}, err
	}
	raw, err := p.model.PredictProba(x)
	if err != nil {
		return models.MatchPrediction{}, fmt.Errorf("model prediction: %w", err)
	}

	var rawProbs models.Probabilities
	copy(rawProbs[:], raw)
	pred := models.MatchPrediction{
		TeamA:         teamA,
		TeamB:         teamB,
		Raw:           rawProbs,
		Probabilities: Smooth(rawProbs, p.schema.Smoothing),
		StateA:        a,
		StateB:        b,
		Schema:        p.schema.Name,
	}
	p.logger.Debug().
		Str("team_a", teamA).
		Str("team_b", teamB).
		Floats64("probabilities", pred.Probabilities[:]).
		Msg("Prediction")
	return pred, nil
}

// vector rebuilds a feature row with teamA on the T1 side and checks the
// layout against the model before anything is scored.
func (p *Predictor) vector(a, b models.TeamState) ([]float64, error) {
	got := p.schema.Fingerprint()
	if got != p.fingerprint {
		return nil, &SchemaMismatchError{Want: p.fingerprint, Got: got}
	}

	row := models.FeatureRow{
		HomeTeam: a.Team,
		AwayTeam: b.Team,
		T1Skill:  a.Skill,
		T2Skill:  b.Skill,
		SkillGap: a.Skill - b.Skill,
		T1OP:     a.Offense,
		T1DS:     a.Defense,
		T2OP:     b.Offense,
		T2DS:     b.Defense,
		T1SOP:    a.SeasonOffense,
		T1SDS:    a.SeasonDefense,
		T2SOP:    b.SeasonOffense,
		T2SDS:    b.SeasonDefense,
	}
	if p.schema.UsesScaler {
		if p.scaler == nil {
			return nil, &SchemaMismatchError{Want: p.fingerprint, Got: got + " without a scaler"}
		}
		row.Dominance = features.Dominance(p.scaler, p.schema.Weights, &row)
	}

	x, err := p.schema.Vector(&row)
	if err != nil {
		return nil, &SchemaMismatchError{Want: p.fingerprint, Got: err.Error()}
	}
	if len(x) != p.model.NumFeatures {
		return nil, &SchemaMismatchError{
			Want: fmt.Sprintf("%d features", p.model.NumFeatures),
			Got:  fmt.Sprintf("%d features (%v)", len(x), p.schema.Columns),
		}
	}
	return x, nil
}

// Smooth pulls a distribution towards uniform: raw*k + (1-k)/3. Every class
// ends up in [(1-k)/3, k+(1-k)/3] and the sum is preserved.
func Smooth(raw models.Probabilities, k float64) models.Probabilities {
	var out models.Probabilities
	floor := (1 - k) / models.NumOutcomes
	for i, v := range raw {
		out[i] = v*k + floor
	}
	return out
}

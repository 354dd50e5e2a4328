// Package artifacts persists what training produces and serving loads: the
// model, the optional scaler and the processed match table.
package artifacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Alias1177/MatchScout/internal/boost"
	"github.com/Alias1177/MatchScout/internal/evaluation"
	"github.com/Alias1177/MatchScout/internal/features"
	"github.com/Alias1177/MatchScout/internal/inference"
	"github.com/Alias1177/MatchScout/internal/pipeline"
	"github.com/Alias1177/MatchScout/models"
	"github.com/rs/zerolog/log"
)

const (
	ModelFile   = "model.json"
	ScalerFile  = "scaler.json"
	MatchesFile = "processed_matches.db"

	formatVersion = 1
)

// ErrArtifactMissing is returned when a required file is not on disk.
var ErrArtifactMissing = errors.New("artifact missing")

// Bundle is a loaded set of artifacts.
type Bundle struct {
	Schema      features.Schema
	Fingerprint string
	Model       *boost.Model
	Scaler      *features.Scaler
	Rows        []models.FeatureRow
	TrainedAt   time.Time
	Holdout     *evaluation.Report
}

type modelFile struct {
	FormatVersion int                `json:"format_version"`
	Schema        features.Schema    `json:"schema"`
	Fingerprint   string             `json:"fingerprint"`
	TrainedAt     time.Time          `json:"trained_at"`
	Booster       *boost.Model       `json:"booster"`
	Holdout       *evaluation.Report `json:"holdout,omitempty"`
}

// Save writes the artifacts of a training run into dir.
func Save(dir string, res *pipeline.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	fingerprint := res.Schema.Fingerprint()

	mf := modelFile{
		FormatVersion: formatVersion,
		Schema:        res.Schema,
		Fingerprint:   fingerprint,
		TrainedAt:     res.TrainedAt,
		Booster:       res.Model,
		Holdout:       res.Holdout,
	}
	if err := writeJSON(filepath.Join(dir, ModelFile), mf); err != nil {
		return err
	}

	scalerPath := filepath.Join(dir, ScalerFile)
	if res.Table.Scaler != nil {
		if err := writeJSON(scalerPath, res.Table.Scaler); err != nil {
			return err
		}
	} else if err := os.Remove(scalerPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale scaler: %w", err)
	}

	meta := map[string]string{
		"schema":      res.Schema.Name,
		"fingerprint": fingerprint,
		"rows":        strconv.Itoa(len(res.Table.Rows)),
		"trained_at":  res.TrainedAt.UTC().Format(time.RFC3339),
	}
	if err := writeMatches(filepath.Join(dir, MatchesFile), res.Table.Rows, meta); err != nil {
		return fmt.Errorf("write processed matches: %w", err)
	}

	log.Info().
		Str("dir", dir).
		Str("schema", res.Schema.Name).
		Int("rows", len(res.Table.Rows)).
		Msg("Artifacts saved")
	return nil
}

// Load reads the artifacts in dir. A missing file is reported as
// ErrArtifactMissing.
func Load(dir string) (*Bundle, error) {
	var mf modelFile
	if err := readJSON(filepath.Join(dir, ModelFile), &mf); err != nil {
		return nil, err
	}
	if mf.FormatVersion != formatVersion {
		return nil, fmt.Errorf("%s: unsupported format version %d", ModelFile, mf.FormatVersion)
	}
	if mf.Booster == nil {
		return nil, fmt.Errorf("%s: no booster", ModelFile)
	}
	if err := mf.Booster.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", ModelFile, err)
	}
	if err := inference.CheckSchema(mf.Schema); err != nil {
		return nil, fmt.Errorf("%s: %w", ModelFile, err)
	}

	b := &Bundle{
		Schema:      mf.Schema,
		Fingerprint: mf.Fingerprint,
		Model:       mf.Booster,
		TrainedAt:   mf.TrainedAt,
		Holdout:     mf.Holdout,
	}

	if mf.Schema.UsesScaler {
		var s features.Scaler
		if err := readJSON(filepath.Join(dir, ScalerFile), &s); err != nil {
			return nil, err
		}
		b.Scaler = &s
	}

	dbPath := filepath.Join(dir, MatchesFile)
	if _, err := os.Stat(dbPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactMissing, dbPath)
		}
		return nil, err
	}
	rows, meta, err := readMatches(dbPath)
	if err != nil {
		return nil, fmt.Errorf("read processed matches: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: no processed matches", dbPath)
	}
	if fp := meta["fingerprint"]; fp != mf.Fingerprint {
		return nil, fmt.Errorf("%s was built for schema %q (%s), model expects %s", dbPath, meta["schema"], fp, mf.Fingerprint)
	}
	b.Rows = rows

	log.Info().
		Str("dir", dir).
		Str("schema", b.Schema.Name).
		Int("rows", len(rows)).
		Time("trained_at", b.TrainedAt).
		Msg("Artifacts loaded")
	return b, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrArtifactMissing, path)
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

package features

import (
	"encoding/binary"
	"errors"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Alias1177/MatchScout/internal/config"
	"github.com/Alias1177/MatchScout/models"
	"golang.org/x/crypto/blake2b"
)

// Weights are the fixed coefficients of the dominance composite. They are a
// hand-tuned override, not something the classifier learns.
type Weights struct {
	Skill   float64 `json:"skill"`
	Recent  float64 `json:"recent_form"`
	Season  float64 `json:"season_form"`
	Defense float64 `json:"defense"`
}

var DefaultWeights = Weights{Skill: 0.15, Recent: 0.35, Season: 0.25, Defense: 0.25}

// Schema describes one feature layout. Training and inference both build
// vectors through the same Schema, so the column order cannot drift.
type Schema struct {
	Name       string     `json:"name"`
	Version    int        `json:"version"`
	Columns    []string   `json:"columns"`
	FormWindow int        `json:"form_window"`
	Smoothing  float64    `json:"smoothing"`
	UsesSeason bool       `json:"uses_season"`
	UsesScaler bool       `json:"uses_scaler"`
	ScalerKind ScalerKind `json:"scaler_kind,omitempty"`
	Weights    Weights    `json:"weights"`
}

// Column names.
const (
	ColT1Skill    = "t1_skill"
	ColT2Skill    = "t2_skill"
	ColSkillGap   = "skill_gap"
	ColT1OP       = "t1_op"
	ColT1DS       = "t1_ds"
	ColT2OP       = "t2_op"
	ColT2DS       = "t2_ds"
	ColT1SOP      = "t1_sop"
	ColT1SDS      = "t1_sds"
	ColT2SOP      = "t2_sop"
	ColT2SDS      = "t2_sds"
	ColT1Momentum = "t1_momentum"
	ColT2Momentum = "t2_momentum"
	ColDominance  = "dominance"
)

var columnValues = map[string]func(r *models.FeatureRow) float64{
	ColT1Skill:    func(r *models.FeatureRow) float64 { return r.T1Skill },
	ColT2Skill:    func(r *models.FeatureRow) float64 { return r.T2Skill },
	ColSkillGap:   func(r *models.FeatureRow) float64 { return r.SkillGap },
	ColT1OP:       func(r *models.FeatureRow) float64 { return r.T1OP },
	ColT1DS:       func(r *models.FeatureRow) float64 { return r.T1DS },
	ColT2OP:       func(r *models.FeatureRow) float64 { return r.T2OP },
	ColT2DS:       func(r *models.FeatureRow) float64 { return r.T2DS },
	ColT1SOP:      func(r *models.FeatureRow) float64 { return r.T1SOP },
	ColT1SDS:      func(r *models.FeatureRow) float64 { return r.T1SDS },
	ColT2SOP:      func(r *models.FeatureRow) float64 { return r.T2SOP },
	ColT2SDS:      func(r *models.FeatureRow) float64 { return r.T2SDS },
	ColT1Momentum: func(r *models.FeatureRow) float64 { return r.T1OP - r.T1SOP },
	ColT2Momentum: func(r *models.FeatureRow) float64 { return r.T2OP - r.T2SOP },
	ColDominance:  func(r *models.FeatureRow) float64 { return r.Dominance },
}

var registry = map[string]Schema{
	"v5": {
		Name:       "v5",
		Version:    1,
		Columns:    []string{ColT1Skill, ColT2Skill, ColSkillGap, ColT1OP, ColT1DS, ColT2OP, ColT2DS},
		FormWindow: 3,
		Smoothing:  0.8,
	},
	"v6": {
		Name:       "v6",
		Version:    1,
		Columns:    []string{ColSkillGap, ColT1OP, ColT1DS, ColT2OP, ColT2DS},
		FormWindow: 4,
		Smoothing:  0.85,
	},
	"season": {
		Name:    "season",
		Version: 1,
		Columns: []string{
			ColSkillGap, ColT1OP, ColT1DS, ColT2OP, ColT2DS,
			ColT1SOP, ColT1SDS, ColT2SOP, ColT2SDS, ColT1Momentum, ColT2Momentum,
		},
		FormWindow: 4,
		Smoothing:  0.85,
		UsesSeason: true,
	},
	"dominance": {
		Name:       "dominance",
		Version:    1,
		Columns:    []string{ColDominance},
		FormWindow: 4,
		Smoothing:  0.85,
		UsesSeason: true,
		UsesScaler: true,
		ScalerKind: ZScore,
		Weights:    DefaultWeights,
	},
}

// DefaultSchema is used when nothing is configured.
const DefaultSchema = "v6"

// SchemaNames lists the registered schemas.
func SchemaNames() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupSchema returns a copy of a registered schema.
func LookupSchema(name string) (Schema, error) {
	s, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Schema{}, fmt.Errorf("unknown feature schema %q (known: %s)", name, strings.Join(SchemaNames(), ", "))
	}
	s.Columns = append([]string(nil), s.Columns...)
	return s, nil
}

// Resolve picks the schema named in the overrides (or name when the
// overrides leave it empty) and applies the remaining overrides on top.
func Resolve(name string, o config.SchemaOverrides) (Schema, error) {
	if o.Schema != "" {
		name = o.Schema
	}
	s, err := LookupSchema(name)
	if err != nil {
		return Schema{}, err
	}
	if o.FormWindow > 0 {
		s.FormWindow = o.FormWindow
	}
	if o.Smoothing > 0 {
		s.Smoothing = o.Smoothing
	}
	if o.Scaler != "" && s.UsesScaler {
		kind := ScalerKind(strings.ToLower(o.Scaler))
		if kind != ZScore && kind != MinMax {
			return Schema{}, fmt.Errorf("unknown scaler %q", o.Scaler)
		}
		s.ScalerKind = kind
	}
	if w := o.Weights.Skill; w != nil {
		s.Weights.Skill = *w
	}
	if w := o.Weights.Recent; w != nil {
		s.Weights.Recent = *w
	}
	if w := o.Weights.Season; w != nil {
		s.Weights.Season = *w
	}
	if w := o.Weights.Defense; w != nil {
		s.Weights.Defense = *w
	}
	return s, nil
}

// ErrUnknownColumn is returned for a column this build cannot compute.
var ErrUnknownColumn = errors.New("unknown feature column")

// Vector lays out a row in the schema's column order.
func (s Schema) Vector(r *models.FeatureRow) ([]float64, error) {
	v := make([]float64, len(s.Columns))
	for i, col := range s.Columns {
		value, ok := columnValues[col]
		if !ok {
			return nil, fmt.Errorf("schema %q: %w %q", s.Name, ErrUnknownColumn, col)
		}
		v[i] = value(r)
	}
	return v, nil
}

// Fingerprint identifies the layout and meaning of the vector. Smoothing is
// applied after the model and is left out; the form window and the dominance
// weights change what the columns mean and are included.
func (s Schema) Fingerprint() string {
	h, _ := blake2b.New256(nil)
	fmt.Fprintf(h, "%s\x00%d\x00%s\x00", s.Name, s.Version, strings.Join(s.Columns, ","))
	fmt.Fprintf(h, "window=%d\x00season=%t\x00", s.FormWindow, s.UsesSeason)
	if s.UsesScaler {
		fmt.Fprintf(h, "%s\x00", s.ScalerKind)
		for _, w := range []float64{s.Weights.Skill, s.Weights.Recent, s.Weights.Season, s.Weights.Defense} {
			var buf [8]byte
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(w))
			h.Write(buf[:])
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Validate checks that every column is known.
func (s Schema) Validate() error {
	if len(s.Columns) == 0 {
		return fmt.Errorf("schema %q has no columns", s.Name)
	}
	for _, col := range s.Columns {
		if _, ok := columnValues[col]; !ok {
			return fmt.Errorf("schema %q: unknown column %q", s.Name, col)
		}
	}
	if s.Smoothing < 0 || s.Smoothing > 1 {
		return fmt.Errorf("schema %q: smoothing %v outside [0,1]", s.Name, s.Smoothing)
	}
	return nil
}

// Compatible checks a schema read from disk against the registered schema of
// the same name: same version, same columns, same season and scaler usage.
// Tunable values (window, smoothing, scaler kind, weights) may differ.
func (s Schema) Compatible() error {
	if err := s.Validate(); err != nil {
		return err
	}
	reg, err := LookupSchema(s.Name)
	if err != nil {
		return err
	}
	if s.Version != reg.Version {
		return fmt.Errorf("schema %q: version %d, this build has version %d", s.Name, s.Version, reg.Version)
	}
	if strings.Join(s.Columns, ",") != strings.Join(reg.Columns, ",") {
		return fmt.Errorf("schema %q: columns %v, this build has %v", s.Name, s.Columns, reg.Columns)
	}
	if s.UsesSeason != reg.UsesSeason || s.UsesScaler != reg.UsesScaler {
		return fmt.Errorf("schema %q: season/scaler usage differs from this build", s.Name)
	}
	return nil
}

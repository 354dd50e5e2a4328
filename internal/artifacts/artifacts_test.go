package artifacts

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Alias1177/MatchScout/internal/boost"
	"github.com/Alias1177/MatchScout/internal/features"
	"github.com/Alias1177/MatchScout/internal/inference"
	"github.com/Alias1177/MatchScout/internal/pipeline"
	"github.com/Alias1177/MatchScout/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trainResult(t *testing.T, schemaName string) *pipeline.Result {
	t.Helper()
	var matches []models.MatchRecord
	teams := []string{"North", "South", "East"}
	for i := 0; i < 12; i++ {
		matches = append(matches, models.MatchRecord{
			Seq:       i,
			Date:      time.Date(2023, 8, 1+i*3, 0, 0, 0, 0, time.UTC),
			HomeTeam:  teams[i%3],
			AwayTeam:  teams[(i+1)%3],
			HomeScore: i % 4,
			AwayScore: (i + 1) % 3,
		})
	}
	attrs := []models.TeamAttributeRecord{
		{TeamName: "North", EffectiveFrom: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), SkillRating: 1650},
	}
	schema, err := features.LookupSchema(schemaName)
	require.NoError(t, err)
	res, err := pipeline.Train(matches, attrs, pipeline.Options{Schema: schema, Params: boost.DefaultParams()})
	require.NoError(t, err)
	return res
}

func TestSaveLoadRoundTrip(t *testing.T) {
	for _, name := range []string{"v6", "dominance"} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			res := trainResult(t, name)
			require.NoError(t, Save(dir, res))

			b, err := Load(dir)
			require.NoError(t, err)
			assert.Equal(t, res.Schema, b.Schema)
			assert.Equal(t, res.Schema.Fingerprint(), b.Fingerprint)
			assert.True(t, res.TrainedAt.Equal(b.TrainedAt))
			assert.Equal(t, res.Table.Scaler, b.Scaler)
			require.Len(t, b.Rows, len(res.Table.Rows))
			assert.ElementsMatch(t, res.Table.Rows, b.Rows)

			for i := 1; i < len(b.Rows); i++ {
				assert.False(t, b.Rows[i].Date.Before(b.Rows[i-1].Date), "rows must be chronological")
			}

			x, err := res.Schema.Vector(&res.Table.Rows[0])
			require.NoError(t, err)
			want, err := res.Model.PredictProba(x)
			require.NoError(t, err)
			got, err := b.Model.PredictProba(x)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestSaveRemovesStaleScaler(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Save(dir, trainResult(t, "dominance")))
	require.FileExists(t, filepath.Join(dir, ScalerFile))

	require.NoError(t, Save(dir, trainResult(t, "v5")))
	assert.NoFileExists(t, filepath.Join(dir, ScalerFile))

	b, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "v5", b.Schema.Name)
	assert.Nil(t, b.Scaler)
}

func TestLoadMissingArtifacts(t *testing.T) {
	tests := []struct {
		name   string
		remove string
	}{
		{"model", ModelFile},
		{"scaler", ScalerFile},
		{"matches", MatchesFile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, Save(dir, trainResult(t, "dominance")))
			require.NoError(t, os.Remove(filepath.Join(dir, tt.remove)))

			_, err := Load(dir)
			assert.True(t, errors.Is(err, ErrArtifactMissing), "got %v", err)
		})
	}
}

func TestLoadRejectsForeignMatchTable(t *testing.T) {
	dir := t.TempDir()
	other := t.TempDir()
	require.NoError(t, Save(dir, trainResult(t, "v6")))
	require.NoError(t, Save(other, trainResult(t, "v5")))

	data, err := os.ReadFile(filepath.Join(other, MatchesFile))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, MatchesFile), data, 0o644))

	_, err = Load(dir)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrArtifactMissing))
}

func TestLoadRejectsCorruptModel(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Save(dir, trainResult(t, "v6")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ModelFile), []byte(`{"format_version": 1}`), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestLoadRejectsStaleSchema(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Save(dir, trainResult(t, "v6")))

	path := filepath.Join(dir, ModelFile)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	doc["schema"].(map[string]any)["columns"] = []string{"skill_gap", "t1_form", "t1_ds", "t2_form", "t2_ds"}
	data, err = json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err = Load(dir)
	var mismatch *inference.SchemaMismatchError
	assert.True(t, errors.As(err, &mismatch), "got %v", err)
}

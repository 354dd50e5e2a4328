package report

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Alias1177/MatchScout/internal/inference"
	"github.com/Alias1177/MatchScout/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Sections
	}{
		{
			name: "all sections",
			text: "### PERCENTS\n55% - 25% - 20%\n\n### INSIGHT\nLions press high.\n\n### REASONING\nSkill gap dominates.",
			want: Sections{Percents: "55% - 25% - 20%", Insight: "Lions press high.", Reasoning: "Skill gap dominates."},
		},
		{
			name: "bold markers and lower case keywords",
			text: "**### percents**\n40% - 30% - 30%\n### Insight:\nTight game.\n### REASONING\n**Even** sides.",
			want: Sections{Percents: "40% - 30% - 30%", Insight: "Tight game.", Reasoning: "Even sides."},
		},
		{
			name: "inline heading value",
			text: "### PERCENTS: 60% - 20% - 20%\n### INSIGHT\nOne-sided.",
			want: Sections{Percents: "60% - 20% - 20%", Insight: "One-sided.", Reasoning: ReasoningFallback},
		},
		{
			name: "no structure",
			text: "The **Lions** should win comfortably.",
			want: Sections{Percents: PercentsFallback, Insight: "The Lions should win comfortably.", Reasoning: ReasoningFallback},
		},
		{
			name: "missing insight keeps whole text",
			text: "### PERCENTS\n50% - 25% - 25%",
			want: Sections{Percents: "50% - 25% - 25%", Insight: "### PERCENTS\n50% - 25% - 25%", Reasoning: ReasoningFallback},
		},
		{
			name: "empty",
			text: "",
			want: Sections{Percents: PercentsFallback, Insight: "", Reasoning: ReasoningFallback},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.text))
		})
	}
}

func samplePrediction() models.MatchPrediction {
	return models.MatchPrediction{
		TeamA:         "Lions",
		TeamB:         "Tigers",
		Probabilities: models.Probabilities{0.2, 0.25, 0.55},
		StateA:        models.TeamState{Team: "Lions", Skill: 1620, Offense: 2.5, Defense: 0.75},
		StateB:        models.TeamState{Team: "Tigers", Skill: 1540, Offense: 1.5, Defense: 1.25},
		Schema:        "v6",
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(samplePrediction())

	for _, want := range []string{
		"MATCH: Lions vs Tigers",
		"neutral venue",
		"- Lions Win: 55.0%",
		"- Draw: 25.0%",
		"- Tigers Win: 20.0%",
		"- Lions: 2.5 goals/game scored",
		"skill 1620",
		"### PERCENTS\n55% - 25% - 20%",
		"### INSIGHT",
		"### REASONING",
	} {
		assert.Contains(t, prompt, want)
	}
	assert.NotContains(t, prompt, "season average")
}

type fakePredictor struct {
	pred    models.MatchPrediction
	err     error
	version string
	calls   int
}

func (f *fakePredictor) Predict(a, b string) (models.MatchPrediction, error) {
	f.calls++
	if f.err != nil {
		return models.MatchPrediction{}, f.err
	}
	p := f.pred
	p.TeamA, p.TeamB = a, b
	return p, nil
}

func (f *fakePredictor) Teams() []string { return []string{"Lions", "Tigers"} }

func (f *fakePredictor) Version() string {
	if f.version == "" {
		return "0123456789abcdef0123"
	}
	return f.version
}

type fakeLLM struct {
	text    string
	err     error
	prompts []string
}

func (f *fakeLLM) GenerateCompletion(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.text, f.err
}

type memoryCache struct {
	items map[string]models.ScoutReport
	err   error
}

func (m *memoryCache) Get(_ context.Context, key string) (*models.ScoutReport, bool, error) {
	if m.err != nil {
		return nil, false, m.err
	}
	r, ok := m.items[key]
	if !ok {
		return nil, false, nil
	}
	return &r, true, nil
}

func (m *memoryCache) Set(_ context.Context, key string, r *models.ScoutReport) error {
	if m.err != nil {
		return m.err
	}
	m.items[key] = *r
	return nil
}

type recordingHistory struct {
	saved []*models.ScoutReport
	err   error
}

func (h *recordingHistory) SaveReport(_ context.Context, r *models.ScoutReport) error {
	h.saved = append(h.saved, r)
	return h.err
}

const llmAnswer = "### PERCENTS\n55% - 25% - 20%\n### INSIGHT\nLions control midfield.\n### REASONING\nHigher skill."

func TestGenerate(t *testing.T) {
	llm := &fakeLLM{text: llmAnswer}
	cache := &memoryCache{items: map[string]models.ScoutReport{}}
	history := &recordingHistory{}
	svc := NewService(&fakePredictor{pred: samplePrediction()}, llm, cache, history)

	r, err := svc.Generate(context.Background(), "Lions", "Tigers")
	require.NoError(t, err)
	assert.NotEmpty(t, r.ID)
	assert.False(t, r.Degraded)
	assert.False(t, r.Cached)
	assert.Equal(t, "55% - 25% - 20%", r.Percents)
	assert.Equal(t, "Lions control midfield.", r.Insight)
	assert.Equal(t, "Higher skill.", r.Reasoning)
	assert.Equal(t, llmAnswer, r.RawText)
	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "MATCH: Lions vs Tigers")
	assert.Len(t, cache.items, 1)
	assert.Len(t, history.saved, 1)

	again, err := svc.Generate(context.Background(), "Lions", "Tigers")
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Equal(t, r.ID, again.ID)
	assert.Len(t, llm.prompts, 1, "cache hit must not call the model")

	for key := range cache.items {
		assert.True(t, strings.HasPrefix(key, "scout:report:"))
		assert.True(t, strings.HasSuffix(key, ":Lions:Tigers"))
	}
}

func TestGenerateCacheFollowsModelVersion(t *testing.T) {
	cache := &memoryCache{items: map[string]models.ScoutReport{}}
	llm := &fakeLLM{text: llmAnswer}

	before := samplePrediction()
	old := NewService(&fakePredictor{pred: before, version: "aaaaaaaaaaaaaaaa-old"}, llm, cache, nil)
	first, err := old.Generate(context.Background(), "Lions", "Tigers")
	require.NoError(t, err)
	assert.False(t, first.Cached)

	after := samplePrediction()
	after.Probabilities = models.Probabilities{0.5, 0.3, 0.2}
	retrained := NewService(&fakePredictor{pred: after, version: "bbbbbbbbbbbbbbbb-new"}, llm, cache, nil)
	second, err := retrained.Generate(context.Background(), "Lions", "Tigers")
	require.NoError(t, err)
	assert.False(t, second.Cached, "a retrained model must not reuse the old report")
	assert.Equal(t, after.Probabilities, second.Prediction.Probabilities)
	assert.Len(t, llm.prompts, 2)
	assert.Len(t, cache.items, 2)

	again, err := retrained.Generate(context.Background(), "Lions", "Tigers")
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Equal(t, after.Probabilities, again.Prediction.Probabilities)
}

func TestGenerateDegradesWhenModelFails(t *testing.T) {
	cache := &memoryCache{items: map[string]models.ScoutReport{}}
	history := &recordingHistory{}
	svc := NewService(&fakePredictor{pred: samplePrediction()}, &fakeLLM{err: errors.New("503")}, cache, history)

	r, err := svc.Generate(context.Background(), "Lions", "Tigers")
	require.NoError(t, err)
	assert.True(t, r.Degraded)
	assert.Equal(t, DegradedInsight, r.Insight)
	assert.Equal(t, "55% - 25% - 20%", r.Percents)
	assert.Equal(t, ReasoningFallback, r.Reasoning)
	assert.Empty(t, cache.items, "degraded reports are not cached")
	assert.Len(t, history.saved, 1)
}

func TestGenerateReturnsPredictionErrors(t *testing.T) {
	llm := &fakeLLM{text: llmAnswer}
	svc := NewService(&fakePredictor{err: &inference.UnknownTeamError{Team: "Wolves"}}, llm, nil, nil)

	_, err := svc.Generate(context.Background(), "Lions", "Wolves")
	var unknown *inference.UnknownTeamError
	assert.True(t, errors.As(err, &unknown))
	assert.Empty(t, llm.prompts)
}

func TestGenerateToleratesCacheAndHistoryFailures(t *testing.T) {
	cache := &memoryCache{err: errors.New("connection refused")}
	history := &recordingHistory{err: errors.New("db down")}
	svc := NewService(&fakePredictor{pred: samplePrediction()}, &fakeLLM{text: llmAnswer}, cache, history)

	r, err := svc.Generate(context.Background(), "Lions", "Tigers")
	require.NoError(t, err)
	assert.False(t, r.Degraded)
}

func TestErrorReason(t *testing.T) {
	assert.Equal(t, "same_team", errorReason(inference.ErrSameTeam))
	assert.Equal(t, "unknown_team", errorReason(&inference.UnknownTeamError{Team: "X"}))
	assert.Equal(t, "schema_mismatch", errorReason(&inference.SchemaMismatchError{}))
	assert.Equal(t, "internal", errorReason(errors.New("boom")))
}

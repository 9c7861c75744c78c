package highlights

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/interview-insights/internal/terms"
	"github.com/jonathan/interview-insights/internal/types"
)

func newSynthesizer(t *testing.T) *Synthesizer {
	t.Helper()
	tables, err := terms.Default()
	require.NoError(t, err)
	s, err := New(tables)
	require.NoError(t, err)
	return s
}

func emptyInput() Input {
	return Input{
		Sentiment: types.NeutralSentiment(),
		Insights:  types.NewInsights(),
		Questions: types.NewCategorizedQuestions(),
	}
}

func TestSynthesize_Default(t *testing.T) {
	got, err := newSynthesizer(t).Synthesize(emptyInput())
	require.NoError(t, err)
	assert.Equal(t, []string{types.DefaultHighlight}, got)
}

func TestSynthesize_RuleOrder(t *testing.T) {
	in := emptyInput()
	in.Sentiment = types.SentimentResult{Label: types.SentimentPositive, Confidence: 0.9}
	in.Verdict = "Selected"
	in.Insights[types.InsightDifficultyIndicators] = []string{"tricky", "lengthy"}
	in.Insights[types.InsightPreparationTips] = []string{"Focus on graphs"}
	in.Insights[types.InsightPositiveAspects] = []string{"friendly"}
	in.Insights[types.InsightTechnologies] = []string{"docker", "kafka", "redis", "aws"}
	in.Questions[types.CategorySystemDesign] = []string{"Design a cache."}
	in.Questions[types.CategoryCoding] = []string{"Reverse a list.", "Merge intervals."}
	in.Rounds = 3

	got, err := newSynthesizer(t).Synthesize(in)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Overall positive interview experience",
		"Verdict: Selected",
		"Interview difficulty: tricky",
		"1 system design question asked",
		"2 coding questions asked",
		"Includes preparation advice",
		"Highlights positive aspects",
		"Mentions technologies: docker, kafka, redis",
		"3 interview rounds",
	}, got)
}

func TestSynthesize_RedFlagsSuppressPositive(t *testing.T) {
	in := emptyInput()
	in.Sentiment = types.SentimentResult{Label: types.SentimentNegative, Confidence: 1}
	in.Insights[types.InsightRedFlags] = []string{"ghosted"}
	in.Insights[types.InsightPositiveAspects] = []string{"friendly"}
	in.Rounds = 1

	got, err := newSynthesizer(t).Synthesize(in)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Challenging interview experience",
		"Contains potential red flags: ghosted",
	}, got)
}

func TestNew_RejectsUnknownField(t *testing.T) {
	var doc map[string]any
	require.NoError(t, json.Unmarshal(terms.DefaultJSON(), &doc))
	doc["highlights"].(map[string]any)["rules"] = []any{
		map[string]any{"kind": "verdict", "template": "Verdict: {{.Outcome}}"},
	}
	data, err := json.Marshal(doc)
	require.NoError(t, err)

	tables, err := terms.Parse("custom.json", data)
	require.NoError(t, err)

	_, err = New(tables)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "highlight rule 0")
}

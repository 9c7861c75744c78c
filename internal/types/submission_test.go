package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSubmission() RawSubmission {
	return RawSubmission{
		Company:    "Acme",
		Role:       "Backend Engineer",
		Experience: "Round 1: Technical\nExplain how HashMap works internally.",
	}
}

func TestRawSubmission_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(s *RawSubmission)
		wantError bool
		field     string
	}{
		{name: "valid minimal", mutate: func(_ *RawSubmission) {}},
		{name: "missing company", mutate: func(s *RawSubmission) { s.Company = "" }, wantError: true, field: "company"},
		{name: "blank role", mutate: func(s *RawSubmission) { s.Role = "   " }, wantError: true, field: "role"},
		{name: "empty experience", mutate: func(s *RawSubmission) { s.Experience = "" }, wantError: true, field: "experience"},
		{name: "whitespace experience", mutate: func(s *RawSubmission) { s.Experience = "\n\t " }, wantError: true, field: "experience"},
		{name: "known verdict", mutate: func(s *RawSubmission) { s.Verdict = "Selected" }},
		{name: "unknown verdict", mutate: func(s *RawSubmission) { s.Verdict = "Hired" }, wantError: true, field: "verdict"},
		{name: "very hard difficulty", mutate: func(s *RawSubmission) { s.Difficulty = "Very Hard" }},
		{name: "unknown difficulty", mutate: func(s *RawSubmission) { s.Difficulty = "Impossible" }, wantError: true, field: "difficulty"},
		{name: "bad email", mutate: func(s *RawSubmission) { s.Email = "not-an-email" }, wantError: true, field: "email"},
		{name: "good email", mutate: func(s *RawSubmission) { s.Email = "dev@example.com" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := validSubmission()
			tt.mutate(&sub)
			err := sub.Validate()
			if !tt.wantError {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			fields := FieldErrors(err)
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestNewSubmissionValidator(t *testing.T) {
	v, err := newSubmissionValidator()
	require.NoError(t, err)

	type sample struct {
		Name  string `validate:"notblank"`
		Level string `validate:"difficulty"`
	}
	require.NoError(t, v.Struct(sample{Name: "x", Level: "Hard"}))
	assert.Error(t, v.Struct(sample{Name: "  ", Level: "Hard"}))
	assert.Error(t, v.Struct(sample{Name: "x", Level: "Impossible"}))
}

func TestRawSubmission_SourceOrDefault(t *testing.T) {
	sub := validSubmission()
	assert.Equal(t, SourceUserSubmission, sub.SourceOrDefault())

	sub.Source = "GeeksforGeeks"
	assert.Equal(t, "GeeksforGeeks", sub.SourceOrDefault())
}

func TestNewRecord_NeutralDefaults(t *testing.T) {
	sub := validSubmission()
	sub.Tags = []string{"java"}

	rec := NewRecord(&sub, "exp_1", "2024-01-01T00:00:00.000Z")

	assert.Equal(t, "exp_1", rec.ID)
	assert.Equal(t, sub.Company, rec.Company)
	assert.Equal(t, sub.Experience, rec.Experience)
	assert.False(t, rec.NLPProcessed)
	assert.Equal(t, NeutralSentiment(), rec.SentimentAnalysis)
	assert.Equal(t, []string{DefaultHighlight}, rec.Highlights)
	assert.Len(t, rec.CategorizedQuestions, len(Categories))
	assert.Len(t, rec.ExtractedInsights, len(InsightKinds))

	// tags are copied, not shared
	rec.Tags[0] = "changed"
	assert.Equal(t, "java", sub.Tags[0])
}

func TestProcessedExperience_JSONHasNoNullCollections(t *testing.T) {
	sub := validSubmission()
	rec := NewRecord(&sub, "exp_1", "2024-01-01T00:00:00.000Z")

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	for _, key := range []string{"tags", "interview_rounds", "highlights", "raw_questions", "roundwise_questions", "categorized_questions", "extracted_insights"} {
		assert.NotNil(t, raw[key], key)
	}
	assert.Equal(t, "neutral", raw["sentiment_analysis"].(map[string]any)["sentiment"])
	assert.Equal(t, 0.5, raw["sentiment_analysis"].(map[string]any)["confidence"])
	assert.Len(t, raw, 20)
}

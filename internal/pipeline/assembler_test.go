package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/interview-insights/internal/highlights"
	"github.com/jonathan/interview-insights/internal/questions"
	"github.com/jonathan/interview-insights/internal/schemas"
	"github.com/jonathan/interview-insights/internal/segment"
	"github.com/jonathan/interview-insights/internal/terms"
	"github.com/jonathan/interview-insights/internal/types"
	schemafiles "github.com/jonathan/interview-insights/schemas"
)

var fixedTime = time.Date(2024, 3, 9, 14, 5, 7, 123_000_000, time.UTC)

func newAssembler(t *testing.T, opts ...Option) *Assembler {
	t.Helper()
	tables, err := terms.Default()
	require.NoError(t, err)

	base := []Option{WithClock(ClockFunc(func() time.Time { return fixedTime }))}
	a, err := New(tables, append(base, opts...)...)
	require.NoError(t, err)
	return a
}

func acmeSubmission() *types.RawSubmission {
	return &types.RawSubmission{
		Company:    "Acme",
		Role:       "Backend Engineer",
		Experience: "Round 1: Technical\nExplain how HashMap works internally.\nRound 2: HR\nTell me about a time you handled conflict.",
		Verdict:    "Selected",
		Tags:       []string{"java", "backend"},
	}
}

type failingSegmenter struct{}

func (failingSegmenter) Segment(string) ([]types.RoundSegment, error) {
	return nil, errors.New("segmenter exploded")
}

type panickingClassifier struct{}

func (panickingClassifier) Classify(string) types.Category {
	panic("classifier table corrupted")
}

type failingHighlighter struct{}

func (failingHighlighter) Synthesize(highlights.Input) ([]string, error) {
	return nil, errors.New("template failed")
}

type nilInsights struct{}

func (nilInsights) Extract(string) types.Insights { return nil }

// slowExtractor delays the first round so later rounds finish first.
type slowExtractor struct {
	inner QuestionExtractor
}

func (s slowExtractor) Extract(text string) []string {
	if strings.Contains(text, "first") {
		time.Sleep(30 * time.Millisecond)
	}
	return s.inner.Extract(text)
}

func TestRun_AcmeExample(t *testing.T) {
	a := newAssembler(t)

	result := a.Run(context.Background(), acmeSubmission())
	require.NoError(t, result.Err)
	assert.Equal(t, Processed, result.Outcome)
	require.NotNil(t, result.Analysis)

	rec := result.Record
	assert.Equal(t, fmt.Sprintf("exp_%d", fixedTime.UnixMilli()), rec.ID)
	assert.Equal(t, "2024-03-09T14:05:07.123Z", rec.SubmittedAt)
	assert.True(t, rec.NLPProcessed)
	assert.Equal(t, []string{"Round 1: Technical", "Round 2: HR"}, rec.InterviewRounds)
	assert.Contains(t, rec.CategorizedQuestions[types.CategoryTechnical], "Explain how HashMap works internally.")
	assert.Contains(t, rec.CategorizedQuestions[types.CategoryBehavioral], "Tell me about a time you handled conflict.")
	assert.Len(t, rec.RoundwiseQuestions, 2)
	assert.Equal(t, []string{"Explain how HashMap works internally."}, rec.RoundwiseQuestions["Round 1: Technical"])
	assert.Equal(t, []string{
		"Explain how HashMap works internally.",
		"Tell me about a time you handled conflict.",
	}, rec.RawQuestions)
	assert.Contains(t, rec.Highlights, "Verdict: Selected")
	assert.Contains(t, rec.Highlights, "2 interview rounds")
	assert.Equal(t, types.SourceUserSubmission, rec.Source)
	assert.Equal(t, []string{"java", "backend"}, rec.Tags)
}

func TestRun_GhostedExample(t *testing.T) {
	a := newAssembler(t)
	sub := &types.RawSubmission{
		Company:    "Initech",
		Role:       "SDE",
		Experience: "The interviewer ghosted me after the final round",
	}

	rec := a.Process(context.Background(), sub)
	assert.True(t, rec.NLPProcessed)
	assert.NotEmpty(t, rec.ExtractedInsights[types.InsightRedFlags])
	assert.Equal(t, types.SentimentNegative, rec.FeedbackSentiment)
	assert.Equal(t, types.SentimentNegative, rec.SentimentAnalysis.Label)
}

func TestRun_NeutralWithoutCues(t *testing.T) {
	rec := newAssembler(t).Process(context.Background(), &types.RawSubmission{
		Company: "Acme", Role: "SDE", Experience: "We discussed arrays and trees.",
	})

	assert.True(t, rec.NLPProcessed)
	assert.Equal(t, types.SentimentNeutral, rec.FeedbackSentiment)
	assert.Equal(t, 0.5, rec.SentimentAnalysis.Confidence)
	assert.Equal(t, []string{types.GeneralRound}, rec.InterviewRounds)
}

func TestRun_Fallback(t *testing.T) {
	tests := []struct {
		name  string
		opts  []Option
		text  string
		stage Stage
	}{
		{name: "segmenter error", opts: []Option{WithSegmenter(failingSegmenter{})}, stage: StageSegment},
		{name: "malformed text", text: "Round 1\n\xff bad bytes", stage: StageSegment},
		{name: "classifier panic in worker", opts: []Option{WithClassifier(panickingClassifier{})}, stage: StageClassify},
		{name: "highlight error", opts: []Option{WithHighlighter(failingHighlighter{})}, stage: StageHighlights},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := acmeSubmission()
			if tt.text != "" {
				sub.Experience = tt.text
			}
			result := newAssembler(t, tt.opts...).Run(context.Background(), sub)

			assert.Equal(t, Degraded, result.Outcome)
			assert.Nil(t, result.Analysis)

			var stageErr *StageError
			require.ErrorAs(t, result.Err, &stageErr)
			assert.Equal(t, tt.stage, stageErr.Stage)

			rec := result.Record
			assert.False(t, rec.NLPProcessed)
			assert.Equal(t, types.SentimentNeutral, rec.FeedbackSentiment)
			assert.Equal(t, types.NeutralSentiment(), rec.SentimentAnalysis)
			assert.Equal(t, sub.Company, rec.Company)
			assert.Equal(t, sub.Role, rec.Role)
			assert.Equal(t, sub.Experience, rec.Experience)
			assert.Equal(t, []string{types.DefaultHighlight}, rec.Highlights)
			assert.Empty(t, rec.InterviewRounds)
			assert.Empty(t, rec.RoundwiseQuestions)
			assert.Empty(t, rec.RawQuestions)
			assert.NotEmpty(t, rec.ID)
			assert.NotEmpty(t, rec.SubmittedAt)
			for _, c := range types.Categories {
				assert.Empty(t, rec.CategorizedQuestions[c])
			}
		})
	}
}

func TestRun_MalformedTextWrapsSegmentError(t *testing.T) {
	sub := acmeSubmission()
	sub.Experience = "\xff"

	result := newAssembler(t).Run(context.Background(), sub)
	assert.ErrorIs(t, result.Err, segment.ErrMalformedText)
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := newAssembler(t).Run(ctx, acmeSubmission())
	assert.Equal(t, Degraded, result.Outcome)
	assert.ErrorIs(t, result.Err, context.Canceled)
	assert.False(t, result.Record.NLPProcessed)
}

func TestRun_NilInsightsNormalized(t *testing.T) {
	rec := newAssembler(t, WithInsightExtractor(nilInsights{})).Process(context.Background(), acmeSubmission())

	assert.True(t, rec.NLPProcessed)
	require.Len(t, rec.ExtractedInsights, len(types.InsightKinds))
	for _, kind := range types.InsightKinds {
		assert.NotNil(t, rec.ExtractedInsights[kind])
	}
}

func TestRun_EmptyExperience(t *testing.T) {
	rec := newAssembler(t).Process(context.Background(), &types.RawSubmission{Company: "Acme", Role: "SDE"})

	assert.True(t, rec.NLPProcessed)
	assert.Empty(t, rec.InterviewRounds)
	assert.Empty(t, rec.RoundwiseQuestions)
	assert.Equal(t, []string{types.DefaultHighlight}, rec.Highlights)
}

func TestRun_KeepsSubmittedID(t *testing.T) {
	sub := acmeSubmission()
	sub.ID = "exp_42"

	rec := newAssembler(t).Process(context.Background(), sub)
	assert.Equal(t, "exp_42", rec.ID)
}

func TestRun_RoundCountInvariant(t *testing.T) {
	a := newAssembler(t)
	texts := []string{
		"Round 1\nWhat is a heap?\nRound 2\nNothing asked here.",
		"Intro text.\nTechnical Round\nReverse a linked list.\nTechnical Round\nWhat is a deadlock?",
		"Just a paragraph with no rounds at all.",
		"HR Round",
		"HR\nWhy this company?\nHR\nWhy should we hire you?\nHR (2)\nAny questions for us?",
		"Round 1 was hard. Round 2 was easy.",
	}

	for _, text := range texts {
		rec := a.Process(context.Background(), &types.RawSubmission{Company: "Acme", Role: "SDE", Experience: text})
		require.True(t, rec.NLPProcessed, text)
		assert.Equal(t, len(rec.InterviewRounds), len(rec.RoundwiseQuestions), text)
		for _, label := range rec.InterviewRounds {
			assert.Contains(t, rec.RoundwiseQuestions, label)
		}
	}
}

func TestRun_QuestionsOnHeaderLines(t *testing.T) {
	text := "Round 1: Explain how HashMap works internally.\nRound 2: What is a deadlock?\nRound 3 - Implement an LRU cache with O(1) operations."
	rec := newAssembler(t).Process(context.Background(), &types.RawSubmission{Company: "Acme", Role: "SDE", Experience: text})

	require.True(t, rec.NLPProcessed)
	assert.Equal(t, []string{"Round 1", "Round 2", "Round 3"}, rec.InterviewRounds)
	assert.Equal(t, []string{
		"Explain how HashMap works internally.",
		"What is a deadlock?",
		"Implement an LRU cache with O(1) operations.",
	}, rec.RawQuestions)
	assert.Equal(t, []string{"What is a deadlock?"}, rec.RoundwiseQuestions["Round 2"])
	assert.Equal(t, []string{"Implement an LRU cache with O(1) operations."}, rec.RoundwiseQuestions["Round 3"])
}

func TestRun_PreservesRoundOrder(t *testing.T) {
	tables, err := terms.Default()
	require.NoError(t, err)
	a := newAssembler(t,
		WithQuestionExtractor(slowExtractor{inner: questions.NewExtractor(tables)}),
		WithWorkers(4),
	)

	text := "Round 1\nThe first round: what is a heap?\nRound 2\nWhat is a stack?\nRound 3\nWhat is a queue?"
	rec := a.Process(context.Background(), &types.RawSubmission{Company: "Acme", Role: "SDE", Experience: text})

	assert.Equal(t, []string{"Round 1", "Round 2", "Round 3"}, rec.InterviewRounds)
	assert.Equal(t, []string{"The first round: what is a heap?", "What is a stack?", "What is a queue?"}, rec.RawQuestions)
}

func TestRun_Concurrent(t *testing.T) {
	a := newAssembler(t, WithIDSource(NewMillisIDs(0)))
	want := a.Process(context.Background(), acmeSubmission())

	var wg sync.WaitGroup
	ids := make([]string, 32)
	for i := range ids {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := a.Process(context.Background(), acmeSubmission())
			ids[i] = rec.ID
			assert.Equal(t, want.RawQuestions, rec.RawQuestions)
			assert.Equal(t, want.Highlights, rec.Highlights)
		}()
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestRun_RecordsMatchSchema(t *testing.T) {
	a := newAssembler(t)

	processed := a.Process(context.Background(), acmeSubmission())
	assert.NoError(t, schemas.ValidateDocument(schemafiles.ProcessedExperience, processed))

	degraded := newAssembler(t, WithSegmenter(failingSegmenter{})).Process(context.Background(), acmeSubmission())
	assert.NoError(t, schemas.ValidateDocument(schemafiles.ProcessedExperience, degraded))
}

func TestRun_Progress(t *testing.T) {
	var stages []Stage
	a := newAssembler(t, WithProgress(func(e ProgressEvent) {
		stages = append(stages, e.Stage)
	}))

	a.Process(context.Background(), acmeSubmission())
	assert.Equal(t, []Stage{StageSegment, StageQuestions, StageInsights, StageSentiment, StageHighlights}, stages)
}

func TestRun_PerRoundSentiment(t *testing.T) {
	sub := acmeSubmission()
	sub.Experience = "Round 1\nThe interviewer was rude.\nRound 2\nGreat chat with a friendly manager."

	result := newAssembler(t).Run(context.Background(), sub)
	require.Equal(t, Processed, result.Outcome)
	require.Len(t, result.Analysis.Rounds, 2)
	assert.Equal(t, types.SentimentNegative, result.Analysis.Rounds[0].Sentiment.Label)
	assert.Equal(t, types.SentimentPositive, result.Analysis.Rounds[1].Sentiment.Label)
}

func TestMillisIDs(t *testing.T) {
	ids := NewMillisIDs(0)
	now := time.UnixMilli(1_700_000_000_000)

	assert.Equal(t, "exp_1700000000000", ids.NextID(now))
	assert.Equal(t, "exp_1700000000001", ids.NextID(now))
	assert.Equal(t, "exp_1700000000002", ids.NextID(now.Add(-time.Second)))
	assert.Equal(t, "exp_1700000005000", ids.NextID(now.Add(5*time.Second)))
}

func TestMaxMillisID(t *testing.T) {
	ms, ok := ParseMillisID("exp_1700000000123")
	require.True(t, ok)
	assert.Equal(t, int64(1_700_000_000_123), ms)

	for _, id := range []string{"", "exp_", "exp_abc", "exp_-5", "1700000000123"} {
		_, ok := ParseMillisID(id)
		assert.False(t, ok, id)
	}

	assert.Equal(t, int64(0), MaxMillisID(nil))
	assert.Equal(t, int64(1_700_000_000_900), MaxMillisID([]string{"exp_1700000000100", "exp_globex", "exp_1700000000900"}))

	ids := NewMillisIDs(MaxMillisID([]string{"exp_1700000000900"}))
	assert.Equal(t, "exp_1700000000901", ids.NextID(time.UnixMilli(1_700_000_000_000)))
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "processed", Processed.String())
	assert.Equal(t, "degraded", Degraded.String())
}

package observability

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/interview-insights/internal/ingestion"
	"github.com/jonathan/interview-insights/internal/pipeline"
	"github.com/jonathan/interview-insights/internal/types"
)

func sampleResult() *pipeline.Result {
	questions := types.NewCategorizedQuestions()
	questions[types.CategoryTechnical] = []string{"What is a deadlock?", "Explain TCP?", "What is DNS?", "What is a mutex?"}
	questions[types.CategoryBehavioral] = []string{"Tell me about a conflict?"}

	insights := types.NewInsights()
	insights[types.InsightTopics] = []string{"Operating Systems", "Networking"}
	insights[types.InsightPreparationTips] = []string{"practice graphs daily"}

	return &pipeline.Result{
		Outcome: pipeline.Processed,
		Record: types.ProcessedExperience{
			ID:                   "exp_1",
			Company:              "Acme Corp",
			Role:                 "Backend Engineer",
			Verdict:              "Selected",
			NLPProcessed:         true,
			SentimentAnalysis:    types.SentimentResult{Label: "positive", Confidence: 0.75},
			CategorizedQuestions: questions,
			ExtractedInsights:    insights,
			Highlights:           []string{"Positive overall experience"},
		},
		Analysis: &pipeline.Analysis{
			Rounds: []pipeline.RoundAnalysis{
				{
					Segment:   types.RoundSegment{Label: "Round 1: Technical", Ordinal: 1, Kind: "technical"},
					Questions: make([]types.ExtractedQuestion, 4),
					Sentiment: types.SentimentResult{Label: "positive", Confidence: 0.8},
				},
				{
					Segment:   types.RoundSegment{Label: "Round 2: HR", Ordinal: 2},
					Questions: make([]types.ExtractedQuestion, 1),
					Sentiment: types.SentimentResult{Label: "neutral", Confidence: 0.5},
				},
			},
		},
	}
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintResult(sampleResult())
	output := buf.String()

	for _, want := range []string{
		"EXPERIENCE", "Acme Corp", "Backend Engineer", "positive (0.75)", "Positive overall experience",
		"INTERVIEW ROUNDS", "Round 1: Technical [technical]", "4 questions",
		"QUESTIONS BY CATEGORY", "Total questions: 5", "technical (4)", "... and 1 more", "behavioral (1)",
		"INSIGHTS", "topics:", "preparation_tips:",
		"SENTIMENT BY ROUND", "neutral",
	} {
		assert.Contains(t, output, want)
	}
	assert.NotContains(t, output, "What is a mutex?")
	assert.NotContains(t, output, "red_flags")
}

func TestPrintResult_Degraded(t *testing.T) {
	result := sampleResult()
	result.Outcome = pipeline.Degraded
	result.Analysis = nil
	result.Err = errors.New("segment stage failed: boom")

	var buf bytes.Buffer
	NewPrinter(&buf).PrintResult(result)
	output := buf.String()

	assert.Contains(t, output, "ANALYSIS DEGRADED")
	assert.Contains(t, output, "segment stage failed: boom")
	assert.NotContains(t, output, "INTERVIEW ROUNDS")
}

func TestPrint_NilAndEmpty(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintResult(nil)
	p.PrintRecord(nil)
	p.PrintSource(nil)
	p.PrintRounds(nil)
	p.PrintRoundSentiment(&pipeline.Analysis{})
	p.PrintQuestions(types.NewCategorizedQuestions())
	p.PrintInsights(types.NewInsights())

	assert.Empty(t, buf.String())
}

func TestPrintSource(t *testing.T) {
	var buf bytes.Buffer
	meta := ingestion.NewMetadata("What is DNS?", "stdin")
	meta.Rendered = true
	NewPrinter(&buf).PrintSource(meta)

	output := buf.String()
	assert.Contains(t, output, "stdin")
	assert.Contains(t, output, "12 chars, 1 lines")
	assert.Contains(t, output, "headless browser")
}

func TestPrintBox_TruncatesLongLines(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).printBox("TITLE", strings.Repeat("é", 100))

	for _, line := range strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n") {
		assert.Equal(t, boxWidth, len([]rune(line)), line)
	}
	assert.Contains(t, buf.String(), "...")
}

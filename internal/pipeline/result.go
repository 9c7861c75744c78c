package pipeline

import (
	"fmt"

	"github.com/jonathan/interview-insights/internal/types"
)

// Outcome tells a fully analysed record from a degraded one.
type Outcome int

const (
	Processed Outcome = iota
	Degraded
)

func (o Outcome) String() string {
	switch o {
	case Processed:
		return "processed"
	case Degraded:
		return "degraded"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Stage names one step of the analysis.
type Stage string

const (
	StageSegment    Stage = "segment"
	StageQuestions  Stage = "questions"
	StageClassify   Stage = "classify"
	StageSentiment  Stage = "sentiment"
	StageInsights   Stage = "insights"
	StageHighlights Stage = "highlights"
)

// StageError is a failure, or a recovered panic, inside one stage.
type StageError struct {
	Stage Stage
	Round string
	Err   error
}

func (e *StageError) Error() string {
	if e.Round != "" {
		return fmt.Sprintf("%s stage failed in round %q: %v", e.Stage, e.Round, e.Err)
	}
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// RoundAnalysis is the per-round output kept in memory for callers that
// want more than the persisted record.
type RoundAnalysis struct {
	Segment   types.RoundSegment
	Questions []types.ExtractedQuestion
	Sentiment types.SentimentResult
}

// Analysis holds everything a processed run produced.
type Analysis struct {
	Rounds     []RoundAnalysis
	Sentiment  types.SentimentResult
	Insights   types.Insights
	Highlights []string
}

// Questions returns every extracted question in round order.
func (a *Analysis) Questions() []types.ExtractedQuestion {
	var out []types.ExtractedQuestion
	for _, r := range a.Rounds {
		out = append(out, r.Questions...)
	}
	return out
}

// Result is the outcome of one run. Record is always complete: on a
// Degraded outcome it carries neutral defaults, Analysis is nil, and Err
// says why.
type Result struct {
	Outcome  Outcome
	Record   types.ProcessedExperience
	Analysis *Analysis
	Err      error
}

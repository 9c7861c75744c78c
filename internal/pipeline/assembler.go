// Package pipeline turns a raw interview submission into a processed record.
// The Assembler is the single entry point: it runs segmentation, question
// extraction and classification, sentiment scoring, insight extraction and
// highlight synthesis, and falls back to a degraded record when any of them fails.
package pipeline

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/interview-insights/internal/highlights"
	"github.com/jonathan/interview-insights/internal/insights"
	"github.com/jonathan/interview-insights/internal/questions"
	"github.com/jonathan/interview-insights/internal/segment"
	"github.com/jonathan/interview-insights/internal/sentiment"
	"github.com/jonathan/interview-insights/internal/telemetry"
	"github.com/jonathan/interview-insights/internal/terms"
	"github.com/jonathan/interview-insights/internal/types"
)

// DefaultWorkers bounds per-round parallelism.
const DefaultWorkers = 4

type Segmenter interface {
	Segment(text string) ([]types.RoundSegment, error)
}

type QuestionExtractor interface {
	Extract(text string) []string
}

type QuestionClassifier interface {
	Classify(question string) types.Category
}

type InsightExtractor interface {
	Extract(text string) types.Insights
}

type SentimentScorer interface {
	Score(text string) types.SentimentResult
}

type HighlightSynthesizer interface {
	Synthesize(in highlights.Input) ([]string, error)
}

// Assembler holds immutable components; each run keeps its state local, so
// one Assembler serves concurrent callers.
type Assembler struct {
	segmenter  Segmenter
	extractor  QuestionExtractor
	classifier QuestionClassifier
	insights   InsightExtractor
	scorer     SentimentScorer
	highlights HighlightSynthesizer

	logger     *zap.Logger
	tracer     trace.Tracer
	clock      Clock
	ids        IDSource
	workers    int
	onProgress ProgressCallback
}

// Option customizes an Assembler.
type Option func(*Assembler)

func WithSegmenter(s Segmenter) Option { return func(a *Assembler) { a.segmenter = s } }

func WithQuestionExtractor(e QuestionExtractor) Option {
	return func(a *Assembler) { a.extractor = e }
}

func WithClassifier(c QuestionClassifier) Option { return func(a *Assembler) { a.classifier = c } }

func WithInsightExtractor(e InsightExtractor) Option { return func(a *Assembler) { a.insights = e } }

func WithSentimentScorer(s SentimentScorer) Option { return func(a *Assembler) { a.scorer = s } }

func WithHighlighter(h HighlightSynthesizer) Option { return func(a *Assembler) { a.highlights = h } }

func WithLogger(l *zap.Logger) Option { return func(a *Assembler) { a.logger = l } }

func WithTracer(t trace.Tracer) Option { return func(a *Assembler) { a.tracer = t } }

func WithClock(c Clock) Option { return func(a *Assembler) { a.clock = c } }

func WithIDSource(ids IDSource) Option { return func(a *Assembler) { a.ids = ids } }

// WithWorkers sets how many rounds are analysed at once. Values below 1 mean 1.
func WithWorkers(n int) Option {
	return func(a *Assembler) {
		if n < 1 {
			n = 1
		}
		a.workers = n
	}
}

// WithProgress registers a callback invoked after each stage.
func WithProgress(cb ProgressCallback) Option { return func(a *Assembler) { a.onProgress = cb } }

// New builds an Assembler whose components are compiled from tables.
func New(tables *terms.Tables, opts ...Option) (*Assembler, error) {
	synth, err := highlights.New(tables)
	if err != nil {
		return nil, fmt.Errorf("failed to build highlight rules: %w", err)
	}

	a := &Assembler{
		segmenter:  segment.New(tables),
		extractor:  questions.NewExtractor(tables),
		classifier: questions.NewClassifier(tables),
		insights:   insights.New(tables),
		scorer:     sentiment.New(tables),
		highlights: synth,
		logger:     zap.NewNop(),
		tracer:     telemetry.GetTracer("interview-insights/pipeline"),
		clock:      SystemClock,
		ids:        NewMillisIDs(0),
		workers:    DefaultWorkers,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Observe returns a copy of a that reports stage progress to cb. The copy
// shares a's components and id source.
func (a *Assembler) Observe(cb ProgressCallback) *Assembler {
	c := *a
	c.onProgress = cb
	return &c
}

// Process returns the record for sub. It never fails: analysis errors yield
// the degraded record.
func (a *Assembler) Process(ctx context.Context, sub *types.RawSubmission) types.ProcessedExperience {
	return a.Run(ctx, sub).Record
}

// Run analyses sub and reports whether the record was fully processed.
// A submission that already carries an id keeps it.
func (a *Assembler) Run(ctx context.Context, sub *types.RawSubmission) Result {
	if sub == nil {
		sub = &types.RawSubmission{}
	}

	now := a.clock.Now()
	id := sub.ID
	if id == "" {
		id = a.ids.NextID(now)
	}
	record := types.NewRecord(sub, id, FormatTimestamp(now))

	ctx, span := a.tracer.Start(ctx, "pipeline.Run")
	defer span.End()
	span.SetAttributes(telemetry.String("experience.id", id), telemetry.String("experience.company", sub.Company))

	analysis, err := a.analyze(ctx, id, sub)
	if err != nil {
		telemetry.RecordError(span, err)
		a.logger.Warn("Experience analysis degraded",
			zap.String("id", id),
			zap.String("company", sub.Company),
			zap.Error(err),
		)
		return Result{Outcome: Degraded, Record: record, Err: err}
	}

	apply(&record, analysis)
	span.SetAttributes(telemetry.Int("experience.rounds", len(analysis.Rounds)), telemetry.Bool("experience.nlp_processed", true))
	a.logger.Debug("Experience processed",
		zap.String("id", id),
		zap.Int("rounds", len(analysis.Rounds)),
		zap.Int("questions", len(record.RawQuestions)),
		zap.String("sentiment", record.FeedbackSentiment),
	)
	return Result{Outcome: Processed, Record: record, Analysis: analysis}
}

func (a *Assembler) analyze(ctx context.Context, id string, sub *types.RawSubmission) (*Analysis, error) {
	text := sub.Experience

	var segments []types.RoundSegment
	err := a.guard(ctx, StageSegment, "", func() error {
		var err error
		segments, err = a.segmenter.Segment(text)
		return err
	})
	if err != nil {
		return nil, err
	}
	a.emitProgress(StageSegment, id, fmt.Sprintf("Detected %d rounds", len(segments)), segments)

	rounds := make([]RoundAnalysis, len(segments))
	var found types.Insights

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers + 1)

	g.Go(func() error {
		return a.guard(gctx, StageInsights, "", func() error {
			found = normalizeInsights(a.insights.Extract(text))
			return nil
		})
	})

	for i, seg := range segments {
		i, seg := i, seg
		// Cancellation is only observed between rounds.
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := a.analyzeRound(gctx, seg)
			if err != nil {
				return err
			}
			rounds[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analysis abandoned: %w", err)
	}
	a.emitProgress(StageQuestions, id, fmt.Sprintf("Extracted %d questions", countQuestions(rounds)), rounds)
	a.emitProgress(StageInsights, id, "Extracted insights", found)

	var overall types.SentimentResult
	err = a.guard(ctx, StageSentiment, "", func() error {
		overall = a.scorer.Score(text)
		return nil
	})
	if err != nil {
		return nil, err
	}
	a.emitProgress(StageSentiment, id, fmt.Sprintf("Sentiment %s (%.2f)", overall.Label, overall.Confidence), overall)

	analysis := &Analysis{Rounds: rounds, Sentiment: overall, Insights: found}

	err = a.guard(ctx, StageHighlights, "", func() error {
		var err error
		analysis.Highlights, err = a.highlights.Synthesize(highlights.Input{
			Sentiment: overall,
			Insights:  found,
			Questions: categorize(rounds),
			Rounds:    countHeaded(rounds),
			Verdict:   sub.Verdict,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	a.emitProgress(StageHighlights, id, fmt.Sprintf("Synthesized %d highlights", len(analysis.Highlights)), analysis.Highlights)

	return analysis, nil
}

func (a *Assembler) analyzeRound(ctx context.Context, seg types.RoundSegment) (RoundAnalysis, error) {
	r := RoundAnalysis{Segment: seg, Questions: []types.ExtractedQuestion{}}

	var texts []string
	err := a.guard(ctx, StageQuestions, seg.Label, func() error {
		texts = a.extractor.Extract(seg.Text)
		return nil
	})
	if err != nil {
		return r, err
	}

	err = a.guard(ctx, StageClassify, seg.Label, func() error {
		for _, q := range texts {
			r.Questions = append(r.Questions, types.ExtractedQuestion{
				Text:     q,
				Round:    seg.Label,
				Category: a.classifier.Classify(q),
			})
		}
		return nil
	})
	if err != nil {
		return r, err
	}

	err = a.guard(ctx, StageSentiment, seg.Label, func() error {
		r.Sentiment = a.scorer.Score(seg.Text)
		return nil
	})
	return r, err
}

// guard runs fn inside a span and converts an error or panic into a StageError.
func (a *Assembler) guard(ctx context.Context, stage Stage, round string, fn func() error) (err error) {
	_, span := a.tracer.Start(ctx, "pipeline."+string(stage))
	defer span.End()
	if round != "" {
		span.SetAttributes(telemetry.String("round", round))
	}

	defer func() {
		if r := recover(); r != nil {
			err = &StageError{Stage: stage, Round: round, Err: fmt.Errorf("panic: %v", r)}
		}
		telemetry.RecordError(span, err)
	}()

	if err := fn(); err != nil {
		return &StageError{Stage: stage, Round: round, Err: err}
	}
	return nil
}

// apply copies a processed analysis into record.
func apply(record *types.ProcessedExperience, analysis *Analysis) {
	record.NLPProcessed = true
	record.SentimentAnalysis = analysis.Sentiment
	record.FeedbackSentiment = analysis.Sentiment.Label
	record.CategorizedQuestions = categorize(analysis.Rounds)
	record.ExtractedInsights = analysis.Insights
	record.Highlights = analysis.Highlights

	record.InterviewRounds = make([]string, 0, len(analysis.Rounds))
	record.RoundwiseQuestions = make(map[string][]string, len(analysis.Rounds))
	record.RawQuestions = []string{}
	for _, r := range analysis.Rounds {
		label := r.Segment.Label
		record.InterviewRounds = append(record.InterviewRounds, label)
		texts := make([]string, 0, len(r.Questions))
		for _, q := range r.Questions {
			texts = append(texts, q.Text)
		}
		record.RoundwiseQuestions[label] = texts
		record.RawQuestions = append(record.RawQuestions, texts...)
	}
}

func categorize(rounds []RoundAnalysis) types.CategorizedQuestions {
	out := types.NewCategorizedQuestions()
	for _, r := range rounds {
		for _, q := range r.Questions {
			category := q.Category
			if _, ok := out[category]; !ok {
				category = types.CategoryOther
			}
			out[category] = append(out[category], q.Text)
		}
	}
	return out
}

// normalizeInsights makes sure every kind is present and non-nil.
func normalizeInsights(in types.Insights) types.Insights {
	out := types.NewInsights()
	for _, kind := range types.InsightKinds {
		if values := in[kind]; values != nil {
			out[kind] = values
		}
	}
	return out
}

func countQuestions(rounds []RoundAnalysis) int {
	n := 0
	for _, r := range rounds {
		n += len(r.Questions)
	}
	return n
}

// countHeaded counts rounds introduced by a header, so a General preamble
// does not inflate the round count.
func countHeaded(rounds []RoundAnalysis) int {
	n := 0
	for _, r := range rounds {
		if r.Segment.Kind != segment.KindGeneral {
			n++
		}
	}
	return n
}

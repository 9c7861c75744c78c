// Package service runs submissions through the pipeline and serves the
// stored records. Transports (HTTP, NATS, CLI) talk only to Service.
package service

import (
	"context"
	stderrors "errors"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/jonathan/interview-insights/internal/cache"
	"github.com/jonathan/interview-insights/internal/errors"
	"github.com/jonathan/interview-insights/internal/messaging"
	"github.com/jonathan/interview-insights/internal/pipeline"
	"github.com/jonathan/interview-insights/internal/store"
	"github.com/jonathan/interview-insights/internal/telemetry"
	"github.com/jonathan/interview-insights/internal/types"
)

// StatsCacheKey holds the cached Stats.
const StatsCacheKey = "interview-insights:stats"

// ValidationMessage is returned when required submission fields are missing.
const ValidationMessage = "Company and role are required fields"

// maxAppendAttempts bounds retries of a generated id that is already stored.
const maxAppendAttempts = 3

// Processor turns a submission into a record.
type Processor interface {
	Run(ctx context.Context, sub *types.RawSubmission) pipeline.Result
}

// observer is a Processor that can report stage progress.
type observer interface {
	Observe(cb pipeline.ProgressCallback) *pipeline.Assembler
}

// SubmitResult reports a stored submission.
type SubmitResult struct {
	ID           string `json:"experience_id"`
	NLPProcessed bool   `json:"nlp_processed"`
}

type Service struct {
	processor Processor
	store     store.Store
	cache     cache.Cache
	publisher messaging.Publisher
	statsTTL  time.Duration
	logger    *zap.Logger
	tracer    trace.Tracer
}

// Option customizes a Service.
type Option func(*Service)

// WithCache enables the stats read-through cache.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		s.statsTTL = ttl
	}
}

// WithPublisher publishes an event after each stored submission.
func WithPublisher(p messaging.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func New(processor Processor, st store.Store, opts ...Option) *Service {
	s := &Service{
		processor: processor,
		store:     st,
		publisher: messaging.NopPublisher{},
		logger:    zap.NewNop(),
		tracer:    telemetry.GetTracer("interview-insights/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates sub, analyses it and stores the record. A failed analysis
// still stores the degraded record; only validation and storage errors fail.
func (s *Service) Submit(ctx context.Context, sub *types.RawSubmission) (SubmitResult, error) {
	return s.submit(ctx, s.processor, sub)
}

// SubmitStream is Submit with stage progress reported to cb. Processors
// that cannot report progress run silently.
func (s *Service) SubmitStream(ctx context.Context, sub *types.RawSubmission, cb pipeline.ProgressCallback) (SubmitResult, error) {
	var processor Processor = s.processor
	if o, ok := s.processor.(observer); ok && cb != nil {
		processor = o.Observe(cb)
	}
	return s.submit(ctx, processor, sub)
}

func (s *Service) submit(ctx context.Context, processor Processor, sub *types.RawSubmission) (SubmitResult, error) {
	ctx, span := s.tracer.Start(ctx, "service.Submit")
	defer span.End()

	if sub == nil {
		return SubmitResult{}, errors.InvalidInput(ValidationMessage, nil)
	}
	if err := sub.Validate(); err != nil {
		telemetry.RecordError(span, err)
		return SubmitResult{}, errors.InvalidInput(ValidationMessage, err).WithFields(types.FieldErrors(err))
	}

	// Generated ids can collide with ones issued by another process sharing
	// the store; those runs are retried with a fresh id.
	var (
		result pipeline.Result
		record types.ProcessedExperience
	)
	for attempt := 1; ; attempt++ {
		result = processor.Run(ctx, sub)
		record = result.Record
		err := s.store.Append(ctx, record)
		if err == nil {
			break
		}
		if stderrors.Is(err, store.ErrDuplicateID) && sub.ID == "" && attempt < maxAppendAttempts {
			s.logger.Warn("Generated id already stored, retrying", zap.String("id", record.ID), zap.Int("attempt", attempt))
			continue
		}
		telemetry.RecordError(span, err)
		if stderrors.Is(err, store.ErrDuplicateID) {
			return SubmitResult{}, errors.Conflict("Experience already exists", err)
		}
		return SubmitResult{}, errors.Internal("Failed to submit experience", err)
	}
	span.SetAttributes(
		telemetry.String("experience.id", record.ID),
		telemetry.Bool("experience.nlp_processed", record.NLPProcessed),
	)

	s.invalidateStats(ctx)

	event := messaging.ExperienceProcessed{
		ID:                record.ID,
		NLPProcessed:      record.NLPProcessed,
		Company:           record.Company,
		Role:              record.Role,
		FeedbackSentiment: record.FeedbackSentiment,
	}
	if err := s.publisher.PublishProcessed(ctx, event); err != nil {
		s.logger.Warn("Failed to publish processed event", zap.String("id", record.ID), zap.Error(err))
	}

	s.logger.Info("Experience submitted",
		zap.String("id", record.ID),
		zap.String("company", record.Company),
		zap.String("outcome", result.Outcome.String()),
	)
	return SubmitResult{ID: record.ID, NLPProcessed: record.NLPProcessed}, nil
}

func (s *Service) List(ctx context.Context) ([]types.ProcessedExperience, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, errors.Internal("Failed to load experiences", err)
	}
	return records, nil
}

func (s *Service) Get(ctx context.Context, id string) (types.ProcessedExperience, error) {
	record, err := s.store.Get(ctx, id)
	if stderrors.Is(err, store.ErrNotFound) {
		return record, errors.NotFound("Experience not found", err)
	}
	if err != nil {
		return record, errors.Internal("Failed to load experience", err)
	}
	return record, nil
}

func (s *Service) Filter(ctx context.Context, q store.Query) ([]types.ProcessedExperience, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, errors.Internal("Failed to filter experiences", err)
	}
	return store.Filter(records, q), nil
}

// Stats reads through the cache. Cache failures are logged and the stats
// are computed from the store.
func (s *Service) Stats(ctx context.Context) (store.Stats, error) {
	if s.cache != nil {
		var cached store.Stats
		err := s.cache.Get(ctx, StatsCacheKey, &cached)
		if err == nil {
			return cached, nil
		}
		if !stderrors.Is(err, cache.ErrNotFound) {
			s.logger.Warn("Stats cache read failed", zap.Error(err))
		}
	}

	records, err := s.store.List(ctx)
	if err != nil {
		return store.Stats{}, errors.Internal("Failed to get experience statistics", err)
	}
	stats := store.ComputeStats(records)

	if s.cache != nil {
		if err := s.cache.Set(ctx, StatsCacheKey, &stats, s.statsTTL); err != nil {
			s.logger.Warn("Stats cache write failed", zap.Error(err))
		}
	}
	return stats, nil
}

func (s *Service) invalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, StatsCacheKey); err != nil {
		s.logger.Warn("Stats cache invalidation failed", zap.Error(err))
	}
}

// NewIDSource returns an id source that continues after the highest
// exp_<unix-millis> id already in st, so processes sharing a store do not
// reissue stored ids.
func NewIDSource(ctx context.Context, st store.Store) (*pipeline.MillisIDs, error) {
	records, err := st.List(ctx)
	if err != nil {
		return nil, errors.Unavailable("reading stored ids", err)
	}
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return pipeline.NewMillisIDs(pipeline.MaxMillisID(ids)), nil
}

package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/jonathan/interview-insights/internal/errors"
	"github.com/jonathan/interview-insights/internal/telemetry"
	"github.com/jonathan/interview-insights/internal/types"
)

// SubmitFunc handles one decoded submission.
type SubmitFunc func(ctx context.Context, sub *types.RawSubmission) error

// Subscriber feeds submissions from a NATS queue into a SubmitFunc.
type Subscriber struct {
	logger  *zap.Logger
	nc      *nats.Conn
	tracer  trace.Tracer
	subject string
	submit  SubmitFunc
	sub     *nats.Subscription
}

func NewSubscriber(logger *zap.Logger, nc *nats.Conn, subject string, submit SubmitFunc) *Subscriber {
	return &Subscriber{
		logger:  logger,
		nc:      nc,
		tracer:  telemetry.GetTracer("interview-insights/worker"),
		subject: subject,
		submit:  submit,
	}
}

// Start queue-subscribes to the submission subject.
func (s *Subscriber) Start() error {
	sub, err := s.nc.QueueSubscribe(s.subject, QueueGroup, s.handleMsg)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", s.subject, err)
	}
	s.sub = sub
	s.logger.Info("Registered NATS subscription",
		zap.String("subject", s.subject),
		zap.String("queue", QueueGroup),
	)
	return nil
}

// Stop drains the subscription so in-flight messages finish.
func (s *Subscriber) Stop() error {
	if s.sub == nil {
		return nil
	}
	return s.sub.Drain()
}

func (s *Subscriber) handleMsg(msg *nats.Msg) {
	if err := s.Handle(context.Background(), msg.Data); err != nil {
		s.logger.Error("Failed to handle submission",
			zap.Error(err),
			zap.String("subject", msg.Subject),
		)
		return
	}
	s.logger.Info("Handled submission", zap.String("subject", msg.Subject))
}

// Handle decodes one payload and submits it. Undecodable payloads are
// rejected with InvalidInput and never reach the SubmitFunc. Ids are always
// assigned by the pipeline, so a queued id is dropped.
func (s *Subscriber) Handle(ctx context.Context, data []byte) error {
	ctx, span := s.tracer.Start(ctx, "handleSubmission")
	defer span.End()
	span.SetAttributes(telemetry.Int("message.size", len(data)))

	var sub types.RawSubmission
	if err := json.Unmarshal(data, &sub); err != nil {
		err := errors.InvalidInput("decoding submission payload", err)
		telemetry.RecordError(span, err)
		return err
	}
	sub.ID = ""

	if err := s.submit(ctx, &sub); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	return nil
}

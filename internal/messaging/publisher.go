package messaging

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/jonathan/interview-insights/internal/errors"
	"github.com/jonathan/interview-insights/internal/telemetry"
)

var tracer = telemetry.GetTracer("interview-insights/messaging")

type Publisher interface {
	PublishProcessed(ctx context.Context, event ExperienceProcessed) error
	Close()
}

type natsPublisher struct {
	conn    *nats.Conn
	subject string
	logger  *zap.Logger
}

// NewPublisher publishes processing events on subject over conn.
func NewPublisher(conn *nats.Conn, subject string, logger *zap.Logger) Publisher {
	return &natsPublisher{
		conn:    conn,
		subject: subject,
		logger:  logger,
	}
}

// NewProcessedMsg encodes event with a message id derived from the record id,
// so redeliveries of the same event can be deduplicated downstream.
func NewProcessedMsg(subject string, event ExperienceProcessed) (*nats.Msg, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, errors.Internal("marshaling processed event", err)
	}

	msg := nats.NewMsg(subject)
	msg.Data = data
	msg.Header.Set(nats.MsgIdHdr, uuid.NewSHA1(uuid.NameSpaceOID, []byte(event.ID)).String())
	return msg, nil
}

func (p *natsPublisher) PublishProcessed(ctx context.Context, event ExperienceProcessed) error {
	_, span := tracer.Start(ctx, "PublishProcessed")
	defer span.End()

	msg, err := NewProcessedMsg(p.subject, event)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	span.SetAttributes(
		telemetry.String("nats.subject", p.subject),
		telemetry.Int("message.size", len(msg.Data)),
	)

	if err := p.conn.PublishMsg(msg); err != nil {
		telemetry.RecordError(span, err)
		p.logger.Error("failed to publish processed event",
			zap.String("id", event.ID),
			zap.Error(err))
		return errors.Unavailable("publishing to NATS", err)
	}

	p.logger.Debug("published processed event",
		zap.String("id", event.ID),
		zap.String("subject", p.subject))
	return nil
}

func (p *natsPublisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}

// NopPublisher drops events. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishProcessed(context.Context, ExperienceProcessed) error { return nil }

func (NopPublisher) Close() {}

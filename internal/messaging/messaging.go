// Package messaging carries submissions and processing events over NATS.
package messaging

import (
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/jonathan/interview-insights/internal/config"
	"github.com/jonathan/interview-insights/internal/errors"
)

// QueueGroup load-balances submissions across workers.
const QueueGroup = "interview-insights"

// ExperienceProcessed is published after a record is stored.
type ExperienceProcessed struct {
	ID                string `json:"id"`
	NLPProcessed      bool   `json:"nlp_processed"`
	Company           string `json:"company"`
	Role              string `json:"role"`
	FeedbackSentiment string `json:"feedback_sentiment"`
}

// Connect dials the NATS server named by cfg.NATSURL.
func Connect(cfg *config.Config, name string, logger *zap.Logger) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name(name),
		nats.Timeout(cfg.NATSConnTimeout),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("Disconnected from NATS", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
	}

	conn, err := nats.Connect(cfg.NATSURL, opts...)
	if err != nil {
		return nil, errors.Unavailable("connecting to NATS", err)
	}
	return conn, nil
}

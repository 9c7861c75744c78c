package messaging

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jonathan/interview-insights/internal/errors"
	"github.com/jonathan/interview-insights/internal/types"
)

func TestNewProcessedMsg(t *testing.T) {
	event := ExperienceProcessed{
		ID:                "exp_1710000000000",
		NLPProcessed:      true,
		Company:           "Acme",
		Role:              "SDE",
		FeedbackSentiment: "positive",
	}

	msg, err := NewProcessedMsg("experiences.processed", event)
	require.NoError(t, err)

	assert.Equal(t, "experiences.processed", msg.Subject)
	assert.JSONEq(t, `{
		"id": "exp_1710000000000",
		"nlp_processed": true,
		"company": "Acme",
		"role": "SDE",
		"feedback_sentiment": "positive"
	}`, string(msg.Data))

	again, err := NewProcessedMsg("experiences.processed", event)
	require.NoError(t, err)
	assert.NotEmpty(t, msg.Header.Get(nats.MsgIdHdr))
	assert.Equal(t, msg.Header.Get(nats.MsgIdHdr), again.Header.Get(nats.MsgIdHdr))
}

func TestSubscriber_Handle(t *testing.T) {
	var got *types.RawSubmission
	s := NewSubscriber(zap.NewNop(), nil, "experiences.submitted", func(_ context.Context, sub *types.RawSubmission) error {
		got = sub
		return nil
	})

	payload, err := json.Marshal(types.RawSubmission{Company: "Acme", Role: "SDE", Experience: "Round 1"})
	require.NoError(t, err)

	require.NoError(t, s.Handle(context.Background(), payload))
	require.NotNil(t, got)
	assert.Equal(t, "Acme", got.Company)
	assert.Equal(t, "Round 1", got.Experience)
}

func TestSubscriber_HandleDropsQueuedID(t *testing.T) {
	var got *types.RawSubmission
	s := NewSubscriber(zap.NewNop(), nil, "experiences.submitted", func(_ context.Context, sub *types.RawSubmission) error {
		got = sub
		return nil
	})

	payload := []byte(`{"id":"exp_9999999999999","company":"Acme","role":"SDE","experience":"Round 1"}`)
	require.NoError(t, s.Handle(context.Background(), payload))
	require.NotNil(t, got)
	assert.Empty(t, got.ID)
	assert.Equal(t, "Acme", got.Company)
}

func TestSubscriber_HandleInvalidPayload(t *testing.T) {
	called := false
	s := NewSubscriber(zap.NewNop(), nil, "experiences.submitted", func(context.Context, *types.RawSubmission) error {
		called = true
		return nil
	})

	err := s.Handle(context.Background(), []byte("not json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTypeInvalidInput))
	assert.False(t, called)
}

func TestSubscriber_HandlePropagatesSubmitError(t *testing.T) {
	boom := stderrors.New("store down")
	s := NewSubscriber(zap.NewNop(), nil, "experiences.submitted", func(context.Context, *types.RawSubmission) error {
		return boom
	})

	err := s.Handle(context.Background(), []byte(`{"company":"Acme"}`))
	assert.ErrorIs(t, err, boom)
}

func TestSubscriber_StopWithoutStart(t *testing.T) {
	s := NewSubscriber(zap.NewNop(), nil, "x", nil)
	assert.NoError(t, s.Stop())
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.PublishProcessed(context.Background(), ExperienceProcessed{ID: "exp_1"}))
	p.Close()
}

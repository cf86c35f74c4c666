package eventlog

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// StreamName is the JetStream stream capturing every chat event topic.
const StreamName = "CHAT_EVENTS"

// JetStream implements Publisher on a NATS JetStream stream. Records go
// out with async publish; failed acks surface only in the error handler
// log, keeping the broadcast path free of log latency.
type JetStream struct {
	js  nats.JetStreamContext
	log *zerolog.Logger
}

// NewJetStream sets up the stream and returns the publisher.
func NewJetStream(nc *nats.Conn, logger *zerolog.Logger) (*JetStream, error) {
	js, err := nc.JetStream(nats.PublishAsyncErrHandler(func(_ nats.JetStream, msg *nats.Msg, err error) {
		logger.Error().Err(err).Str("subject", msg.Subject).Msg("event log publish failed, record dropped")
	}))
	if err != nil {
		return nil, fmt.Errorf("jetstream context: %w", err)
	}

	_, err = js.AddStream(&nats.StreamConfig{
		Name:     StreamName,
		Subjects: []string{"chat.>"},
		Storage:  nats.FileStorage,
	})
	if err != nil && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		return nil, fmt.Errorf("create stream %s: %w", StreamName, err)
	}

	return &JetStream{js: js, log: logger}, nil
}

// Publish appends the record to the topic, keyed by chat id via the
// subject so the stream preserves per-room order. Fire-and-forget.
func (j *JetStream) Publish(topic, chatID string, record any) {
	data, err := json.Marshal(record)
	if err != nil {
		j.log.Error().Err(err).Str("topic", topic).Msg("failed to encode log record")
		return
	}
	subject := topic + "." + chatID
	if _, err := j.js.PublishAsync(subject, data); err != nil {
		j.log.Error().Err(err).Str("subject", subject).Msg("failed to enqueue log record")
	}
}

// Package eventlog publishes chat events to the durable, replayable
// log. The log is best-effort from the realtime core's perspective:
// publishing never blocks or fails a broadcast.
package eventlog

import "github.com/rs/zerolog"

// Log topics, one per event kind. The durable-log consumers (persist
// workers, analytics) subscribe per topic.
const (
	TopicMessageSent    = "chat.message.sent"
	TopicMessageRead    = "chat.message.read"
	TopicReaction       = "chat.reaction"
	TopicMessageDeleted = "chat.message.deleted"
)

// Publisher appends a record to a topic, keyed by chat so the log
// preserves per-room order. Implementations are fire-and-forget:
// failures are logged, never returned to the event path.
type Publisher interface {
	Publish(topic, chatID string, record any)
}

// Nop discards records. Used in single-node mode without a log backend
// and in tests that don't assert on the log.
type Nop struct {
	log *zerolog.Logger
}

// NewNop builds a discarding publisher.
func NewNop(logger *zerolog.Logger) *Nop {
	return &Nop{log: logger}
}

// Publish drops the record.
func (n *Nop) Publish(topic, chatID string, _ any) {
	if n.log != nil {
		n.log.Debug().Str("topic", topic).Str("chat_id", chatID).Msg("event log disabled, dropping record")
	}
}

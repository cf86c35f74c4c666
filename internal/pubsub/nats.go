package pubsub

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/sochat/realtime-server/internal/core"
)

// DefaultSubject carries every broadcast frame. The frame itself holds
// the room, so one subscription per instance is enough.
const DefaultSubject = "sochat.broadcast"

// NATSRelay republishes hub broadcasts over a NATS subject and feeds
// received frames back to the local deliver callback. Pure plumbing:
// frames are relayed opaque, never interpreted.
type NATSRelay struct {
	nc      *nats.Conn
	subject string
	sub     *nats.Subscription
	log     *zerolog.Logger
}

// NewNATSRelay subscribes to the broadcast subject and returns the
// relay. The subscription is live before this returns, satisfying the
// startup ordering requirement: bind the relay before accepting
// connections.
func NewNATSRelay(nc *nats.Conn, subject string, deliver func(core.RelayFrame), logger *zerolog.Logger) (*NATSRelay, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	r := &NATSRelay{nc: nc, subject: subject, log: logger}

	sub, err := nc.Subscribe(subject, func(msg *nats.Msg) {
		var frame core.RelayFrame
		if err := json.Unmarshal(msg.Data, &frame); err != nil {
			logger.Warn().Err(err).Msg("relay: dropping malformed frame")
			return
		}
		deliver(frame)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}
	r.sub = sub
	return r, nil
}

// Publish implements core.Relay. The frame comes back through the
// subscription on every instance, the origin included, which is where
// local delivery happens.
func (r *NATSRelay) Publish(frame core.RelayFrame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}
	if err := r.nc.Publish(r.subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", r.subject, err)
	}
	return nil
}

// Close drops the subscription. The NATS connection is owned by the
// caller and stays open.
func (r *NATSRelay) Close() error {
	if r.sub == nil {
		return nil
	}
	return r.sub.Unsubscribe()
}

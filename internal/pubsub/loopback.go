// Package pubsub binds the hub's broadcast primitive to a distributed
// publish/subscribe backbone so a broadcast issued on one instance
// reaches connections held by every instance.
package pubsub

import "github.com/sochat/realtime-server/internal/core"

// Loopback is the single-node relay: frames go straight back to the
// local deliver callback. Used when the server runs without a backbone
// and throughout the tests.
type Loopback struct {
	deliver func(core.RelayFrame)
}

// NewLoopback builds a relay that hands every published frame to the
// given delivery callback synchronously.
func NewLoopback(deliver func(core.RelayFrame)) *Loopback {
	return &Loopback{deliver: deliver}
}

// Publish implements core.Relay.
func (l *Loopback) Publish(frame core.RelayFrame) error {
	l.deliver(frame)
	return nil
}

// Close implements io.Closer for symmetry with the NATS relay.
func (l *Loopback) Close() error { return nil }

package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Bridge delivers one session's payloads to its local subscribers exactly
// once, whichever path they arrive on.
type Bridge struct {
	sessionID   string
	bus         *Bus
	seen        *SeenSet
	broadcaster Broadcaster
	unsubscribe func() error
	logger      zerolog.Logger
}

// NewBridge wires a session to the broadcaster. A nil broadcaster keeps
// delivery local; a nil seen set uses DefaultSeenTTL.
func NewBridge(sessionID string, broadcaster Broadcaster, seen *SeenSet, logger zerolog.Logger) (*Bridge, error) {
	if seen == nil {
		seen = NewSeenSet(DefaultSeenTTL, nil)
	}
	logger = logger.With().Str("component", "notify").Str("session_id", sessionID).Logger()

	b := &Bridge{
		sessionID:   sessionID,
		bus:         NewBus(logger),
		seen:        seen,
		broadcaster: broadcaster,
		logger:      logger,
	}

	if broadcaster != nil {
		unsubscribe, err := broadcaster.Subscribe(sessionID, b.receive)
		if err != nil {
			return nil, fmt.Errorf("failed to subscribe bridge: %w", err)
		}
		b.unsubscribe = unsubscribe
	}
	return b, nil
}

// Bus returns the session's local event bus.
func (b *Bridge) Bus() *Bus {
	return b.bus
}

// Deliver handles a payload received by this instance and republishes it to
// the others. It reports false for a payload already handled.
func (b *Bridge) Deliver(ctx context.Context, p Payload) (bool, error) {
	if !b.seen.Add(PayloadID(p)) {
		b.logger.Debug().Str("message_id", p.MessageID).Msg("skipping duplicate payload")
		return false, nil
	}
	b.process(p)

	if b.broadcaster == nil {
		return true, nil
	}
	if err := b.broadcaster.Publish(ctx, b.sessionID, p); err != nil {
		return true, fmt.Errorf("failed to broadcast payload: %w", err)
	}
	return true, nil
}

func (b *Bridge) receive(p Payload) {
	if !b.seen.Add(PayloadID(p)) {
		return
	}
	b.process(p)
}

func (b *Bridge) process(p Payload) {
	ev, ok := NewEvent(p)
	if !ok {
		b.logger.Debug().Str("message_id", p.MessageID).Msg("payload carries no event")
		return
	}

	n := b.bus.Publish(ev)
	b.logger.Debug().
		Str("event", string(ev.Name)).
		Str("type", p.Type()).
		Int("subscribers", n).
		Msg("dispatched event")
}

// Close detaches the bridge from the broadcaster and closes the bus.
func (b *Bridge) Close() error {
	var err error
	if b.unsubscribe != nil {
		err = b.unsubscribe()
	}
	b.bus.Close()
	return err
}

package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// DefaultSubjectPrefix is the subject root of session broadcasts.
const DefaultSubjectPrefix = "storefront.fcm_updates"

type natsBroadcaster struct {
	conn   *nats.Conn
	prefix string
	logger zerolog.Logger
}

// ConnectNATS dials the broker and returns a broadcaster that owns the
// connection.
func ConnectNATS(url, prefix string, logger zerolog.Logger) (Broadcaster, error) {
	logger = logger.With().Str("component", "nats").Logger()

	conn, err := nats.Connect(url,
		nats.Name("storefront"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn().Err(err).Msg("disconnected from NATS")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info().Str("url", c.ConnectedUrl()).Msg("reconnected to NATS")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	logger.Info().Str("url", conn.ConnectedUrl()).Msg("connected to NATS")
	return NewNATSBroadcaster(conn, prefix, logger), nil
}

// NewNATSBroadcaster publishes each session on <prefix>.<sessionID>.
func NewNATSBroadcaster(conn *nats.Conn, prefix string, logger zerolog.Logger) Broadcaster {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &natsBroadcaster{conn: conn, prefix: prefix, logger: logger}
}

func (n *natsBroadcaster) subject(sessionID string) string {
	return n.prefix + "." + sessionID
}

func (n *natsBroadcaster) Publish(ctx context.Context, sessionID string, p Payload) error {
	if err := validSessionID(sessionID); err != nil {
		return err
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}
	if err := n.conn.Publish(n.subject(sessionID), data); err != nil {
		return fmt.Errorf("failed to publish payload: %w", err)
	}
	return nil
}

func (n *natsBroadcaster) Subscribe(sessionID string, fn Handler) (func() error, error) {
	if err := validSessionID(sessionID); err != nil {
		return nil, err
	}

	sub, err := n.conn.Subscribe(n.subject(sessionID), func(msg *nats.Msg) {
		var p Payload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			n.logger.Error().Err(err).Str("subject", msg.Subject).Msg("failed to unmarshal payload")
			return
		}
		fn(p)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", n.subject(sessionID), err)
	}
	return sub.Unsubscribe, nil
}

func (n *natsBroadcaster) Close() error {
	if n.conn.IsClosed() {
		return nil
	}
	return n.conn.Drain()
}

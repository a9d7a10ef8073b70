package apiclient

import (
	"context"
	"errors"

	"storefront/internal/config"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// NewBreaker builds the circuit breaker shared by every session's client.
// Only transport failures and 5xx responses count towards tripping it;
// client errors and callers giving up do not.
func NewBreaker(cfg config.BreakerConfig, logger zerolog.Logger) *gobreaker.CircuitBreaker {
	logger = logger.With().Str("component", "breaker").Logger()

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "marketplace-backend",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(cfg.MaxFailures)
		},
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			var apiErr *APIError
			return errors.As(err, &apiErr) && apiErr.Status < 500
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})
}

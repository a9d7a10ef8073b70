// Package storefront assembles everything one browser session needs: its
// persisted state, request cache, backend client, wishlist, notification
// bridge and the page services built on them.
package storefront

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"storefront/internal/apiclient"
	"storefront/internal/cache"
	"storefront/internal/notify"
	"storefront/internal/service"
	"storefront/internal/wishlist"

	"github.com/rs/zerolog"
)

// Storefront is one open browser session.
type Storefront struct {
	Cache    *cache.Cache
	Client   *apiclient.Client
	Wishlist *wishlist.Store
	Bridge   *notify.Bridge

	Catalog  service.CatalogService
	Cart     service.CartService
	Checkout service.CheckoutService
	Orders   service.OrderService
	Chat     service.ChatService
	Account  service.AccountService
	Rewards  service.RewardsService

	state    *sessionState
	lastUsed atomic.Int64
	logger   zerolog.Logger
}

// ID returns the session id.
func (s *Storefront) ID() string {
	return s.state.ID()
}

// Authenticated reports whether the session holds backend tokens.
func (s *Storefront) Authenticated() bool {
	return s.Client.Authenticated()
}

// CurrentRetailer returns the retailer the customer last opened.
func (s *Storefront) CurrentRetailer() int64 {
	return s.state.CurrentRetailer()
}

// RegisterDevice sends a push token to the backend and keeps it on the
// session.
func (s *Storefront) RegisterDevice(ctx context.Context, token string) error {
	if err := s.Account.RegisterDevice(ctx, token); err != nil {
		return err
	}
	return s.state.SetDeviceToken(ctx, token)
}

// Deliver hands a foreground push payload to the session's bridge.
func (s *Storefront) Deliver(ctx context.Context, p notify.Payload) (bool, error) {
	return s.Bridge.Deliver(ctx, p)
}

func (s *Storefront) use(now time.Time) {
	s.lastUsed.Store(now.UnixNano())
}

func (s *Storefront) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastUsed.Load()))
}

// expired runs when a refresh failed and the tokens were dropped.
func (s *Storefront) expired() {
	s.Wishlist.Reset()
	s.logger.Info().Msg("session expired, login required")
}

// Close releases the bridge and drops cached responses.
func (s *Storefront) Close() error {
	s.Cache.Clear()
	if err := s.Bridge.Close(); err != nil {
		return fmt.Errorf("failed to close notification bridge: %w", err)
	}
	return nil
}

package storefront

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"storefront/internal/apiclient"
	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/geocode"
	"storefront/internal/notify"
	"storefront/internal/service"
	"storefront/internal/session"
	"storefront/internal/snapshot"
	"storefront/internal/wishlist"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"
)

// Options configures a Manager.
type Options struct {
	Backend  config.BackendConfig
	CacheTTL time.Duration
	Sessions session.Store

	// Snapshot seeds every new session cache. It may be nil.
	Snapshot *snapshot.Snapshot

	HTTPClient  *http.Client
	Breaker     *gobreaker.CircuitBreaker
	Broadcaster notify.Broadcaster
	Geocoder    geocode.Geocoder

	// Now defaults to time.Now.
	Now func() time.Time

	Logger zerolog.Logger
}

// Manager keeps the storefronts of the sessions this instance is serving.
type Manager struct {
	opts   Options
	now    func() time.Time
	logger zerolog.Logger

	opening singleflight.Group

	mu   sync.Mutex
	open map[string]*Storefront
}

// NewManager creates a Manager.
func NewManager(opts Options) *Manager {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{
		opts:   opts,
		now:    now,
		logger: opts.Logger.With().Str("component", "storefront").Logger(),
		open:   make(map[string]*Storefront),
	}
}

// Open returns the storefront of sessionID, loading the session or starting
// a new one when the id is empty, malformed or unknown.
func (m *Manager) Open(ctx context.Context, sessionID string) (*Storefront, error) {
	if sf := m.lookup(sessionID); sf != nil {
		m.refresh(ctx, sf)
		return sf, nil
	}
	if !session.ValidID(sessionID) {
		return m.create(ctx)
	}

	v, err, _ := m.opening.Do(sessionID, func() (any, error) {
		if sf := m.lookup(sessionID); sf != nil {
			return sf, nil
		}
		sess, err := m.opts.Sessions.Get(ctx, sessionID)
		if errors.Is(err, session.ErrNotFound) {
			return nil, session.ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load session: %w", err)
		}
		return m.build(sess)
	})
	if errors.Is(err, session.ErrNotFound) {
		m.logger.Debug().Str("session_id", sessionID).Msg("unknown session, starting a new one")
		return m.create(ctx)
	}
	if err != nil {
		return nil, err
	}
	return v.(*Storefront), nil
}

func (m *Manager) lookup(sessionID string) *Storefront {
	if sessionID == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sf, ok := m.open[sessionID]
	if ok {
		sf.use(m.now())
	}
	return sf
}

// refresh brings an open storefront in line with the stored session. When
// another instance logged in, out or rotated the tokens, the cached backend
// reads and the wishlist belong to the old identity and are dropped.
func (m *Manager) refresh(ctx context.Context, sf *Storefront) {
	changed, err := sf.state.reload(ctx)
	if err != nil {
		m.logger.Warn().Err(err).Str("session_id", sf.ID()).Msg("failed to reload session")
		return
	}
	if changed {
		m.logger.Debug().Str("session_id", sf.ID()).Msg("session changed on another instance")
		sf.Cache.Clear()
		sf.Wishlist.Reset()
	}
}

func (m *Manager) create(ctx context.Context) (*Storefront, error) {
	sess := session.New(m.now().UTC())
	if err := m.opts.Sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	m.logger.Info().Str("session_id", sess.ID).Msg("session created")
	return m.build(sess)
}

// build wires the per-session components and registers the storefront.
func (m *Manager) build(sess *session.Session) (*Storefront, error) {
	logger := m.opts.Logger.With().Str("session_id", sess.ID).Logger()
	state := newSessionState(m.opts.Sessions, sess, m.now)

	c := cache.New(
		cache.WithTTL(m.opts.CacheTTL),
		cache.WithClock(m.now),
		cache.WithLogger(logger),
	)
	if seeded := c.Seed(m.opts.Snapshot.Entries()); seeded > 0 {
		logger.Debug().Int("entries", seeded).Msg("seeded session cache from snapshot")
	}

	sf := &Storefront{Cache: c, state: state, logger: logger}

	client, err := apiclient.New(apiclient.Options{
		BaseURL:          m.opts.Backend.BaseURL,
		RefreshPath:      m.opts.Backend.RefreshPath,
		HTTPClient:       m.opts.HTTPClient,
		Cache:            c,
		Tokens:           state,
		Breaker:          m.opts.Breaker,
		OnSessionExpired: func() { sf.expired() },
		Logger:           logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}
	sf.Client = client

	bridge, err := notify.NewBridge(sess.ID, m.opts.Broadcaster, nil, logger)
	if err != nil {
		return nil, err
	}
	sf.Bridge = bridge
	sf.Wishlist = wishlist.New(client, logger)

	sf.Catalog = service.NewCatalogService(client, client, client, state, logger)
	sf.Cart = service.NewCartService(client, client, state, logger)
	sf.Checkout = service.NewCheckoutService(client, client, client, client, state, logger)
	sf.Orders = service.NewOrderService(client, logger)
	sf.Chat = service.NewChatService(client, logger)
	sf.Account = service.NewAccountService(client, client, m.opts.Geocoder, sf.Wishlist, logger)
	sf.Rewards = service.NewRewardsService(client, client, state, logger)

	sf.use(m.now())

	m.mu.Lock()
	m.open[sess.ID] = sf
	m.mu.Unlock()
	return sf, nil
}

// Len returns the number of open storefronts.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.open)
}

// Sweep closes storefronts unused for idle, refreshes the stored timestamp
// of the ones still in use and reloads them, then purges stored sessions idle for longer
// than idle. It returns how many storefronts were closed.
func (m *Manager) Sweep(ctx context.Context, idle time.Duration) (int, error) {
	now := m.now()

	var stale, live []*Storefront
	m.mu.Lock()
	for id, sf := range m.open {
		if sf.idleSince(now) >= idle {
			stale = append(stale, sf)
			delete(m.open, id)
		} else {
			live = append(live, sf)
		}
	}
	m.mu.Unlock()

	for _, sf := range stale {
		if err := sf.Close(); err != nil {
			m.logger.Warn().Err(err).Str("session_id", sf.ID()).Msg("failed to close idle storefront")
		}
	}
	for _, sf := range live {
		if err := sf.state.touch(ctx); err != nil {
			m.logger.Warn().Err(err).Str("session_id", sf.ID()).Msg("failed to touch session")
			continue
		}
		m.refresh(ctx, sf)
	}

	purged, err := m.opts.Sessions.Purge(ctx, now.Add(-idle))
	if err != nil {
		return len(stale), fmt.Errorf("failed to purge sessions: %w", err)
	}

	if len(stale) > 0 || purged > 0 {
		m.logger.Info().
			Int("closed", len(stale)).
			Int("purged", purged).
			Int("open", len(live)).
			Msg("swept idle sessions")
	}
	return len(stale), nil
}

// Close closes every open storefront.
func (m *Manager) Close() error {
	m.mu.Lock()
	open := m.open
	m.open = make(map[string]*Storefront)
	m.mu.Unlock()

	var errs []error
	for _, sf := range open {
		if err := sf.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

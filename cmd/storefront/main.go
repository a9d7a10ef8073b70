package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/apiclient"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/geocode"
	"storefront/internal/notify"
	"storefront/internal/router"
	"storefront/internal/session"
	"storefront/internal/snapshot"
	"storefront/internal/storefront"
	"storefront/internal/telemetry"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting storefront server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := telemetry.Setup(cfg.Tracing, os.Stdout)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Error().Err(err).Msg("failed to flush traces")
		}
	}()

	sessions, closeSessions, err := newSessionStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSessions()

	broadcaster, err := newBroadcaster(cfg.NATS, logger)
	if err != nil {
		return err
	}
	defer broadcaster.Close()

	httpClient := telemetry.NewHTTPClient(cfg.Backend.Timeout)

	manager := storefront.NewManager(storefront.Options{
		Backend:     cfg.Backend,
		CacheTTL:    cfg.Cache.TTL,
		Sessions:    sessions,
		Snapshot:    loadSnapshot(ctx, cfg.Snapshot, logger),
		HTTPClient:  httpClient,
		Breaker:     apiclient.NewBreaker(cfg.Breaker, logger),
		Broadcaster: broadcaster,
		Geocoder:    geocode.New(cfg.Geocoding, httpClient, logger),
		Logger:      logger,
	})
	defer func() {
		if err := manager.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close storefronts")
		}
	}()

	go sweep(ctx, manager, cfg.Session.IdleTimeout, logger)

	// Initialize router
	mux := router.New(router.NewHandlers(logger), manager, cfg.Session, logger)
	if cfg.Tracing.Enabled {
		mux = telemetry.Middleware(cfg.Tracing.ServiceName)(mux)
	}

	// Create HTTP server. WriteTimeout stays zero so event streams stay open.
	server := &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Str("backend", cfg.Backend.BaseURL).
			Str("session_store", cfg.Session.Store).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Stop sweeping. Closing the storefronts closes their event buses,
		// which ends the open event streams; other requests run to completion.
		cancel()
		server.RegisterOnShutdown(func() {
			if err := manager.Close(); err != nil {
				logger.Error().Err(err).Msg("failed to close storefronts")
			}
		})

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// newSessionStore opens the configured session store. The returned func
// releases its connections.
func newSessionStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (session.Store, func(), error) {
	switch cfg.Session.Store {
	case config.SessionStorePostgres:
		pool, err := database.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := session.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return session.NewPostgresStore(pool, logger), pool.Close, nil

	case config.SessionStoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("redis session store connected")
		closeClient := func() {
			if err := client.Close(); err != nil {
				logger.Error().Err(err).Msg("failed to close redis client")
			}
		}
		return session.NewRedisStore(client, cfg.Session.IdleTimeout, logger), closeClient, nil

	default:
		logger.Info().Msg("using in-memory session store")
		return session.NewMemoryStore(), func() {}, nil
	}
}

// newBroadcaster connects to NATS when enabled. A single instance shares
// notifications in process.
func newBroadcaster(cfg config.NATSConfig, logger zerolog.Logger) (notify.Broadcaster, error) {
	if !cfg.Enabled {
		return notify.NewMemoryBroadcaster(), nil
	}
	b, err := notify.ConnectNATS(cfg.URL, cfg.SubjectPrefix, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return b, nil
}

// loadSnapshot loads the catalogue snapshot that seeds new session caches.
// Failures are logged and leave sessions unseeded.
func loadSnapshot(ctx context.Context, cfg config.SnapshotConfig, logger zerolog.Logger) *snapshot.Snapshot {
	if !cfg.Enabled {
		return nil
	}

	var s3Loader snapshot.Loader
	if cfg.S3Enabled {
		l, err := snapshot.NewS3Loader(ctx, cfg.Bucket, cfg.Region, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 loader, falling back to local file system only")
		} else {
			s3Loader = l
		}
	}

	loader := snapshot.NewFallbackLoader(s3Loader, snapshot.NewFileLoader(logger), cfg.Prefix, cfg.S3Enabled, logger)
	snap, err := loader.Load(ctx, cfg.Path)
	if err != nil {
		logger.Warn().Err(err).Msg("catalogue snapshot unavailable, sessions start with an empty cache")
		return nil
	}
	return snap
}

// sweep closes idle storefronts until ctx is done.
func sweep(ctx context.Context, manager *storefront.Manager, idle time.Duration, logger zerolog.Logger) {
	interval := idle / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := manager.Sweep(ctx, idle); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msg("session sweep failed")
			}
		}
	}
}

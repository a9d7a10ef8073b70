package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"storefront/internal/apiclient"
	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/model"
	"storefront/internal/snapshot"
	"storefront/internal/telemetry"
)

// anonymous is a token source for public catalogue reads.
type anonymous struct {
	mu     sync.Mutex
	tokens model.Tokens
}

func (a *anonymous) Tokens() model.Tokens {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.tokens
}

func (a *anonymous) SetTokens(_ context.Context, tokens model.Tokens) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tokens = tokens
	return nil
}

func (a *anonymous) ClearTokens(context.Context) error {
	return a.SetTokens(context.Background(), model.Tokens{})
}

// The snapshot command reads the public catalogue of every retailer from the backend
// and writes it to the configured snapshot path, ready to warm new sessions.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := config.NewLogger(cfg.Logger)

	out := cfg.Snapshot.Path
	if len(os.Args) > 1 {
		out = os.Args[1]
	}
	if out == "" {
		log.Fatal("No snapshot path configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	store := cache.New(cache.WithTTL(time.Hour), cache.WithLogger(logger))
	client, err := apiclient.New(apiclient.Options{
		BaseURL:     cfg.Backend.BaseURL,
		RefreshPath: cfg.Backend.RefreshPath,
		HTTPClient:  telemetry.NewHTTPClient(cfg.Backend.Timeout),
		Cache:       store,
		Tokens:      &anonymous{},
		Logger:      logger,
	})
	if err != nil {
		log.Fatalf("Failed to create backend client: %v", err)
	}

	retailers, err := client.Retailers(ctx, model.RetailerQuery{}, false)
	if err != nil {
		log.Fatalf("Failed to list retailers: %v", err)
	}

	for _, r := range retailers {
		if _, err := client.Retailer(ctx, r.ID, false); err != nil {
			log.Fatalf("Failed to read retailer %d: %v", r.ID, err)
		}
		// Optional sections are left out of the snapshot when they fail.
		if _, err := client.Categories(ctx, r.ID, false); err != nil {
			logger.Warn().Err(err).Int64("retailer_id", r.ID).Msg("skipping categories")
		}
		if _, err := client.Featured(ctx, r.ID, false); err != nil {
			logger.Warn().Err(err).Int64("retailer_id", r.ID).Msg("skipping featured products")
		}
		if _, err := client.BestSelling(ctx, r.ID, false); err != nil {
			logger.Warn().Err(err).Int64("retailer_id", r.ID).Msg("skipping best sellers")
		}
	}

	records, err := toRecords(store.Entries())
	if err != nil {
		log.Fatalf("Failed to encode snapshot: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}
	if err := writeSnapshot(out, records); err != nil {
		log.Fatalf("Failed to write %s: %v", out, err)
	}

	fmt.Printf("Wrote %s with %d records for %d retailers\n", out, len(records), len(retailers))
}

func toRecords(entries []cache.Entry) ([]snapshot.Record, error) {
	records := make([]snapshot.Record, 0, len(entries))
	for _, e := range entries {
		payload, err := json.Marshal(e.Value)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s: %w", e.Key, err)
		}
		records = append(records, snapshot.Record{
			Key:      e.Key,
			Tags:     e.Tags,
			Payload:  payload,
			StoredAt: e.StoredAt,
		})
	}
	return records, nil
}

func writeSnapshot(path string, records []snapshot.Record) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if err := snapshot.Encode(file, records); err != nil {
		return err
	}
	return file.Sync()
}

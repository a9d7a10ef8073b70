package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/database"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const schema = `
	CREATE TABLE IF NOT EXISTS storefront_sessions (
		id            TEXT PRIMARY KEY,
		access_token  TEXT NOT NULL DEFAULT '',
		refresh_token TEXT NOT NULL DEFAULT '',
		retailer_id   BIGINT NOT NULL DEFAULT 0,
		device_token  TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL
	)
`

const updatedIndex = `
	CREATE INDEX IF NOT EXISTS storefront_sessions_updated_at_idx
		ON storefront_sessions (updated_at)
`

// postgresStore implements Store on a PostgreSQL table.
type postgresStore struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgresStore creates a PostgreSQL-backed session store.
func NewPostgresStore(pool *pgxpool.Pool, logger zerolog.Logger) Store {
	return &postgresStore{
		pool:   pool,
		logger: logger.With().Str("store", "postgres").Logger(),
	}
}

// EnsureSchema creates the sessions table when it does not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if err := database.Migrate(ctx, pool, schema, updatedIndex); err != nil {
		return fmt.Errorf("failed to ensure session schema: %w", err)
	}
	return nil
}

func (r *postgresStore) Get(ctx context.Context, id string) (*Session, error) {
	query := `
		SELECT id, access_token, refresh_token, retailer_id, device_token, created_at, updated_at
		FROM storefront_sessions
		WHERE id = $1
	`

	var s Session
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID,
		&s.AccessToken,
		&s.RefreshToken,
		&s.RetailerID,
		&s.DeviceToken,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error().Err(err).Str("session_id", id).Msg("failed to get session")
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return &s, nil
}

func (r *postgresStore) Save(ctx context.Context, s *Session) error {
	query := `
		INSERT INTO storefront_sessions
			(id, access_token, refresh_token, retailer_id, device_token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			access_token  = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			retailer_id   = EXCLUDED.retailer_id,
			device_token  = EXCLUDED.device_token,
			updated_at    = EXCLUDED.updated_at
	`

	_, err := r.pool.Exec(ctx, query,
		s.ID,
		s.AccessToken,
		s.RefreshToken,
		s.RetailerID,
		s.DeviceToken,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("session_id", s.ID).Msg("failed to save session")
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *postgresStore) Touch(ctx context.Context, id string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE storefront_sessions SET updated_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		r.logger.Error().Err(err).Str("session_id", id).Msg("failed to touch session")
		return fmt.Errorf("failed to touch session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresStore) Delete(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM storefront_sessions WHERE id = $1`, id); err != nil {
		r.logger.Error().Err(err).Str("session_id", id).Msg("failed to delete session")
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (r *postgresStore) Purge(ctx context.Context, before time.Time) (int, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM storefront_sessions WHERE updated_at < $1`, before)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to purge sessions")
		return 0, fmt.Errorf("failed to purge sessions: %w", err)
	}

	removed := int(tag.RowsAffected())
	if removed > 0 {
		r.logger.Info().Int("removed", removed).Msg("purged idle sessions")
	}
	return removed, nil
}

package snapshot

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

// fileLoader reads snapshots from the local file system.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a file-based snapshot loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "snapshot-loader").Logger(),
	}
}

func (l *fileLoader) Load(ctx context.Context, filePath string) (*Snapshot, error) {
	l.logger.Info().Str("file", filePath).Msg("loading catalogue snapshot")

	file, err := os.Open(filePath)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to open snapshot file")
		return nil, fmt.Errorf("failed to open snapshot file %s: %w", filePath, err)
	}
	defer file.Close()

	snap, err := Decode(ctx, file)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to decode snapshot file")
		return nil, fmt.Errorf("failed to load snapshot %s: %w", filePath, err)
	}

	l.logger.Info().
		Str("file", filePath).
		Int("entries", snap.Len()).
		Msg("catalogue snapshot loaded")

	return snap, nil
}

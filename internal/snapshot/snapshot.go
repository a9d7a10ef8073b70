// Package snapshot loads the public catalogue snapshot used to warm new
// session caches. A snapshot is a gzipped JSON-lines file, one Record per
// line.
package snapshot

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"storefront/internal/cache"
)

// Record is one line of a snapshot file. StoredAt is when the payload was
// read from the backend; records without it count as read at seeding time.
type Record struct {
	Key      string           `json:"key"`
	Tags     []cache.Resource `json:"tags,omitempty"`
	Payload  json.RawMessage  `json:"payload"`
	StoredAt time.Time        `json:"stored_at,omitzero"`
}

// Snapshot is an immutable set of cache entries.
type Snapshot struct {
	entries []cache.Entry
}

// Empty returns a snapshot with no entries.
func Empty() *Snapshot {
	return &Snapshot{}
}

// Entries returns the entries to seed into a cache. They keep the time they
// were read, so a snapshot older than the cache TTL seeds nothing.
func (s *Snapshot) Entries() []cache.Entry {
	if s == nil {
		return nil
	}
	return s.entries
}

// Len returns the number of entries.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Loader loads a snapshot from a location.
type Loader interface {
	Load(ctx context.Context, location string) (*Snapshot, error)
}

// Decode reads a gzipped JSON-lines stream. Blank lines and records without
// a key or payload are skipped; a later record for the same key replaces an
// earlier one.
func Decode(ctx context.Context, r io.Reader) (*Snapshot, error) {
	gzipReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	scanner := bufio.NewScanner(gzipReader)
	scanner.Buffer(make([]byte, 64*1024), 8*1024*1024)

	index := make(map[string]int)
	var entries []cache.Entry

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo%1000 == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}

		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("invalid snapshot record on line %d: %w", lineNo, err)
		}
		if rec.Key == "" || len(rec.Payload) == 0 {
			continue
		}

		entry := cache.Entry{
			Key:      rec.Key,
			Tags:     rec.Tags,
			Value:    rec.Payload,
			StoredAt: rec.StoredAt,
		}
		if i, ok := index[rec.Key]; ok {
			entries[i] = entry
			continue
		}
		index[rec.Key] = len(entries)
		entries = append(entries, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	return &Snapshot{entries: entries}, nil
}

// Encode writes records as a gzipped JSON-lines stream.
func Encode(w io.Writer, records []Record) error {
	gzipWriter := gzip.NewWriter(w)
	enc := json.NewEncoder(gzipWriter)

	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			gzipWriter.Close()
			return fmt.Errorf("failed to encode snapshot record %s: %w", rec.Key, err)
		}
	}

	if err := gzipWriter.Close(); err != nil {
		return fmt.Errorf("failed to finish snapshot stream: %w", err)
	}
	return nil
}

package snapshot

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"storefront/internal/cache"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeSnapshotFile creates a gzipped snapshot in a temp dir.
func writeSnapshotFile(t *testing.T, name string, records []Record) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()

	require.NoError(t, Encode(file, records))
	return path
}

func sampleRecords() []Record {
	return []Record{
		{
			Key:     "retailer_1",
			Tags:    []cache.Resource{cache.Res("retailer", "1")},
			Payload: json.RawMessage(`{"id":1,"business_name":"Fresh Mart"}`),
		},
		{
			Key:     "categories_1",
			Tags:    []cache.Resource{cache.Res("categories", "1")},
			Payload: json.RawMessage(`[{"id":3,"name":"Fruit"}]`),
		},
	}
}

func TestDecode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sampleRecords()))

	snap, err := Decode(context.Background(), &buf)
	require.NoError(t, err)
	require.Equal(t, 2, snap.Len())

	entries := snap.Entries()
	assert.Equal(t, "retailer_1", entries[0].Key)
	assert.Equal(t, []cache.Resource{cache.Res("retailer", "1")}, entries[0].Tags)
	assert.JSONEq(t, `{"id":1,"business_name":"Fresh Mart"}`, string(entries[0].Value.(json.RawMessage)))
	assert.True(t, entries[0].StoredAt.IsZero())
}

func TestDecode_SkipsBlankAndIncompleteLines(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(`{"key":"a","payload":1}

   
{"key":"","payload":2}
{"key":"b"}
{"key":"a","payload":3}
`))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	snap, err := Decode(context.Background(), &buf)
	require.NoError(t, err)
	require.Equal(t, 1, snap.Len())
	assert.Equal(t, json.RawMessage(`3`), snap.Entries()[0].Value)
}

func TestDecode_InvalidRecord(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte("{\"key\":\"a\",\"payload\":1}\nnot json\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	_, err = Decode(context.Background(), &buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestDecode_NotGzip(t *testing.T) {
	_, err := Decode(context.Background(), bytes.NewBufferString("plain text"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create gzip reader")
}

func TestFileLoader_Load(t *testing.T) {
	path := writeSnapshotFile(t, "catalogue.jsonl.gz", sampleRecords())

	snap, err := NewFileLoader(zerolog.Nop()).Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Len())
}

func TestFileLoader_FileNotFound(t *testing.T) {
	_, err := NewFileLoader(zerolog.Nop()).Load(context.Background(), "/nonexistent/catalogue.jsonl.gz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open snapshot file")
}

func TestSnapshot_SeedsCache(t *testing.T) {
	path := writeSnapshotFile(t, "catalogue.jsonl.gz", sampleRecords())
	snap, err := NewFileLoader(zerolog.Nop()).Load(context.Background(), path)
	require.NoError(t, err)

	c := cache.New()
	assert.Equal(t, 2, c.Seed(snap.Entries()))

	type retailer struct {
		ID           int64  `json:"id"`
		BusinessName string `json:"business_name"`
	}
	got, err := cache.Fetch(context.Background(), c, "retailer_1", nil, false, func(ctx context.Context) (retailer, error) {
		t.Fatal("snapshot entry should be served without a fetch")
		return retailer{}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Fresh Mart", got.BusinessName)

	c.Invalidate(cache.Kind("retailer"))
	assert.Equal(t, []string{"categories_1"}, c.Keys())
}

func TestSnapshot_StaleRecordsSeedNothing(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	records := sampleRecords()
	records[0].StoredAt = now.Add(-10 * time.Minute)
	records[1].StoredAt = now.Add(-time.Minute)

	path := writeSnapshotFile(t, "catalogue.jsonl.gz", records)
	snap, err := NewFileLoader(zerolog.Nop()).Load(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, records[0].StoredAt.Equal(snap.Entries()[0].StoredAt))

	c := cache.New(cache.WithTTL(5*time.Minute), cache.WithClock(func() time.Time { return now }))
	assert.Equal(t, 1, c.Seed(snap.Entries()))

	_, ok := c.Get("retailer_1")
	assert.False(t, ok)
	_, ok = c.Get("categories_1")
	assert.True(t, ok)
}

func TestNilSnapshot(t *testing.T) {
	var snap *Snapshot
	assert.Zero(t, snap.Len())
	assert.Nil(t, snap.Entries())
	assert.Zero(t, Empty().Len())
}

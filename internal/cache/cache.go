// Package cache is the per-session request cache that sits in front of the
// marketplace backend. Reads for the same key are collapsed into a single
// backend call, successful results stay fresh for a fixed window, and
// mutations invalidate entries by resource tag.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL is the freshness window measured from the time a value is stored.
const DefaultTTL = 5 * time.Minute

// Clock returns the current time.
type Clock func() time.Time

// Resource tags a cached value with the backend resource it was read from.
// An empty ID on an invalidation request matches every ID of that Kind.
type Resource struct {
	Kind string `json:"kind"`
	ID   string `json:"id,omitempty"`
}

// Kind returns a Resource that matches every entry of the given kind.
func Kind(kind string) Resource {
	return Resource{Kind: kind}
}

// Res returns a Resource for a single identified entity.
func Res(kind, id string) Resource {
	return Resource{Kind: kind, ID: id}
}

func (r Resource) covers(tag Resource) bool {
	return tag.Kind == r.Kind && (r.ID == "" || tag.ID == r.ID)
}

func (r Resource) String() string {
	if r.ID == "" {
		return r.Kind
	}
	return r.Kind + ":" + r.ID
}

// Entry is a stored value. It is also the unit used by Seed.
type Entry struct {
	Key      string
	Tags     []Resource
	Value    any
	StoredAt time.Time
}

// FetchFunc performs the backend read for a key.
type FetchFunc func(ctx context.Context) (any, error)

type flight struct {
	tags  []Resource
	stale bool
}

// Cache is safe for concurrent use.
type Cache struct {
	ttl    time.Duration
	now    Clock
	logger zerolog.Logger

	mu       sync.Mutex
	entries  map[string]*Entry
	inflight map[string]*flight
	group    singleflight.Group
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock injects the time source.
func WithClock(clock Clock) Option {
	return func(c *Cache) {
		if clock != nil {
			c.now = clock
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger.With().Str("component", "cache").Logger()
	}
}

// New creates an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		ttl:      DefaultTTL,
		now:      time.Now,
		logger:   zerolog.Nop(),
		entries:  make(map[string]*Entry),
		inflight: make(map[string]*flight),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the freshness window.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Fetch returns the cached value for key when it is still fresh and force is
// false. Otherwise it joins the in-flight read for key, or starts one with fn.
//
// The read runs detached from the caller's cancellation so that one caller
// giving up does not fail the others; each caller still returns early when its
// own ctx is done. A read whose key is invalidated before it settles is handed
// to its waiters but never stored.
func (c *Cache) Fetch(ctx context.Context, key string, tags []Resource, force bool, fn FetchFunc) (any, error) {
	if !force {
		if v, ok := c.Get(key); ok {
			c.logger.Debug().Str("key", key).Msg("cache hit")
			return v, nil
		}
	}

	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		f := &flight{tags: tags}
		c.mu.Lock()
		c.inflight[key] = f
		c.mu.Unlock()

		c.logger.Debug().Str("key", key).Bool("force", force).Msg("cache miss, fetching")
		v, err := fn(detached)

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.inflight[key] == f {
			delete(c.inflight, key)
		}
		if err != nil {
			return nil, err
		}
		if f.stale {
			c.logger.Debug().Str("key", key).Msg("discarding result invalidated in flight")
			return v, nil
		}
		c.entries[key] = &Entry{Key: key, Tags: tags, Value: v, StoredAt: c.now()}
		return v, nil
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Get returns the value stored under key if it is still fresh.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || !c.fresh(e) {
		return nil, false
	}
	return e.Value, true
}

// Set stores value under key as of now.
func (c *Cache) Set(key string, value any, tags ...Resource) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &Entry{Key: key, Tags: tags, Value: value, StoredAt: c.now()}
}

// Seed stores entries that do not already have a value. Entries without a
// StoredAt are stamped with the current time; entries already past the TTL
// are skipped.
func (c *Cache) Seed(entries []Entry) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	seeded := 0
	for _, e := range entries {
		if e.Key == "" {
			continue
		}
		if _, exists := c.entries[e.Key]; exists {
			continue
		}
		stored := e
		if stored.StoredAt.IsZero() {
			stored.StoredAt = c.now()
		}
		if !c.fresh(&stored) {
			continue
		}
		c.entries[e.Key] = &stored
		seeded++
	}
	return seeded
}

// Delete removes key and marks any in-flight read for it as stale.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	c.abandonLocked(key)
}

// Invalidate removes every entry tagged with one of the given resources and
// marks matching in-flight reads as stale. It returns the number of stored
// entries removed.
func (c *Cache) Invalidate(resources ...Resource) int {
	if len(resources) == 0 {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.entries {
		if matchesAny(resources, e.Tags) {
			delete(c.entries, key)
			removed++
		}
	}
	for key, f := range c.inflight {
		if matchesAny(resources, f.tags) {
			c.abandonLocked(key)
		}
	}

	c.logger.Debug().
		Str("resources", fmt.Sprint(resources)).
		Int("removed", removed).
		Msg("cache invalidated")
	return removed
}

// InvalidatePrefix removes every key starting with prefix.
func (c *Cache) InvalidatePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			removed++
		}
	}
	for key := range c.inflight {
		if strings.HasPrefix(key, prefix) {
			c.abandonLocked(key)
		}
	}
	return removed
}

// Clear drops all entries and abandons every in-flight read.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*Entry)
	for key := range c.inflight {
		c.abandonLocked(key)
	}
	c.logger.Debug().Msg("cache cleared")
}

// Len returns the number of stored entries, fresh or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Keys returns the stored keys in sorted order.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Entries returns copies of the fresh entries in key order.
func (c *Cache) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		if c.fresh(e) {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// abandonLocked detaches the in-flight read for key so its result is not
// stored and the next Fetch starts a new read. c.mu must be held.
func (c *Cache) abandonLocked(key string) {
	f, ok := c.inflight[key]
	if !ok {
		return
	}
	f.stale = true
	delete(c.inflight, key)
	c.group.Forget(key)
}

func (c *Cache) fresh(e *Entry) bool {
	return c.now().Sub(e.StoredAt) < c.ttl
}

func matchesAny(resources, tags []Resource) bool {
	for _, r := range resources {
		for _, t := range tags {
			if r.covers(t) {
				return true
			}
		}
	}
	return false
}

// Fetch is the typed form of (*Cache).Fetch. Values seeded from a snapshot
// are held as raw JSON and decoded into T on the way out.
func Fetch[T any](ctx context.Context, c *Cache, key string, tags []Resource, force bool, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	v, err := c.Fetch(ctx, key, tags, force, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		return zero, err
	}

	switch typed := v.(type) {
	case T:
		return typed, nil
	case json.RawMessage:
		var out T
		if err := json.Unmarshal(typed, &out); err != nil {
			return zero, fmt.Errorf("failed to decode cached %s: %w", key, err)
		}
		return out, nil
	default:
		return zero, fmt.Errorf("cached %s holds %T", key, v)
	}
}

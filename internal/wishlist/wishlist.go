// Package wishlist keeps a session's wishlist membership with optimistic
// toggles. Each product id moves through idle, pending and then committed or
// rolled back; toggles that arrive while a request is pending are folded into
// that request instead of racing it.
package wishlist

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"

	"storefront/internal/apiclient"

	"github.com/rs/zerolog"
)

// State is the lifecycle of one product id.
type State string

const (
	StateIdle       State = "idle"
	StatePending    State = "pending"
	StateCommitted  State = "committed"
	StateRolledBack State = "rolled_back"
)

type entry struct {
	member    bool // what the page shows
	confirmed bool // what the backend last accepted
	state     State
	done      chan struct{}
	err       error
}

// Store is safe for concurrent use.
type Store struct {
	api    apiclient.WishlistAPI
	logger zerolog.Logger

	mu      sync.Mutex
	entries map[string]*entry
	loaded  bool // entries reflect the backend at least once
}

// New creates an empty Store.
func New(api apiclient.WishlistAPI, logger zerolog.Logger) *Store {
	return &Store{
		api:     api,
		logger:  logger.With().Str("component", "wishlist").Logger(),
		entries: make(map[string]*entry),
	}
}

// ID normalises a product identifier to the string form used as a key.
// Integral numbers and numeric strings map to the same id.
func ID(v any) string {
	switch id := v.(type) {
	case string:
		return strings.TrimSpace(id)
	case int:
		return strconv.Itoa(id)
	case int32:
		return strconv.FormatInt(int64(id), 10)
	case int64:
		return strconv.FormatInt(id, 10)
	case float64:
		if id == math.Trunc(id) {
			return strconv.FormatInt(int64(id), 10)
		}
		return strconv.FormatFloat(id, 'f', -1, 64)
	case json.Number:
		return id.String()
	case fmt.Stringer:
		return id.String()
	default:
		return fmt.Sprint(v)
	}
}

// Load replaces membership with the backend's wishlist. Ids with a pending
// toggle keep their optimistic value. On error the current state is kept.
func (s *Store) Load(ctx context.Context, force bool) error {
	ids, err := s.api.Wishlist(ctx, force)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to load wishlist, keeping current state")
		return fmt.Errorf("failed to load wishlist: %w", err)
	}

	server := make(map[string]bool, len(ids))
	for _, id := range ids {
		server[ID(id)] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, e := range s.entries {
		if e.state == StatePending {
			e.confirmed = server[id]
			continue
		}
		if !server[id] {
			delete(s.entries, id)
		}
	}
	for id := range server {
		e, ok := s.entries[id]
		if !ok {
			s.entries[id] = &entry{member: true, confirmed: true, state: StateIdle}
			continue
		}
		if e.state != StatePending {
			e.member, e.confirmed = true, true
		}
	}

	s.loaded = true
	s.logger.Debug().Int("count", len(server)).Msg("wishlist loaded")
	return nil
}

// Toggle flips membership of id straight away and reconciles it with the
// backend. It returns the settled membership; on failure the id is rolled
// back to the last confirmed value and the error is returned. A store that
// was never loaded loads first, so the flip starts from the backend's view.
func (s *Store) Toggle(ctx context.Context, id string) (bool, error) {
	id = ID(id)
	if id == "" {
		return false, fmt.Errorf("product id is required")
	}

	s.mu.Lock()
	loaded := s.loaded
	s.mu.Unlock()
	if !loaded {
		if err := s.Load(ctx, false); err != nil {
			return false, err
		}
	}

	s.mu.Lock()
	e, ok := s.entries[id]
	if !ok {
		e = &entry{state: StateIdle}
		s.entries[id] = e
	}
	e.member = !e.member

	if e.state == StatePending {
		done := e.done
		s.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return false, ctx.Err()
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		return e.member, e.err
	}

	e.state = StatePending
	e.err = nil
	e.done = make(chan struct{})
	s.mu.Unlock()

	return s.drive(context.WithoutCancel(ctx), id, e)
}

// drive issues one request at a time until the backend matches the latest
// desired membership.
func (s *Store) drive(ctx context.Context, id string, e *entry) (bool, error) {
	for {
		s.mu.Lock()
		want := e.member
		if want == e.confirmed {
			e.state = StateCommitted
			s.settle(e)
			s.mu.Unlock()
			return want, nil
		}
		s.mu.Unlock()

		var err error
		if want {
			err = s.api.AddToWishlist(ctx, id)
		} else {
			err = s.api.RemoveFromWishlist(ctx, id)
		}

		s.mu.Lock()
		if err != nil {
			e.member = e.confirmed
			e.state = StateRolledBack
			e.err = err
			s.settle(e)
			member := e.member
			s.mu.Unlock()

			s.logger.Warn().Err(err).Str("product_id", id).Bool("wanted", want).Msg("wishlist toggle failed, rolled back")
			return member, err
		}
		e.confirmed = want
		s.mu.Unlock()
	}
}

// settle releases waiters. s.mu must be held.
func (s *Store) settle(e *entry) {
	if e.done != nil {
		close(e.done)
		e.done = nil
	}
}

// IsWishlisted reports the displayed membership of id.
func (s *Store) IsWishlisted(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[ID(id)]
	return ok && e.member
}

// State returns the lifecycle state of id.
func (s *Store) State(id string) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[ID(id)]; ok {
		return e.state
	}
	return StateIdle
}

// IDs returns the displayed wishlist in sorted order.
func (s *Store) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.entries))
	for id, e := range s.entries {
		if e.member {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Reset forgets all membership, for logout.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*entry)
	s.loaded = false
}

package storefront

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"storefront/internal/model"
	"storefront/internal/session"
)

// sessionState is the persisted half of a storefront. It hands the backend
// tokens to the API client and remembers the selected retailer, writing
// every change through to the session store.
type sessionState struct {
	store session.Store
	now   func() time.Time

	mu   sync.RWMutex
	sess session.Session
}

func newSessionState(store session.Store, sess *session.Session, now func() time.Time) *sessionState {
	return &sessionState{store: store, now: now, sess: *sess}
}

func (s *sessionState) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sess.ID
}

func (s *sessionState) snapshot() session.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sess
}

// update applies fn to the latest stored record and persists the result.
// Other instances may have written the session since this one loaded it, so
// the stored copy wins over the local one for every field fn leaves alone.
// The in-memory copy is only replaced once the store accepted the write.
func (s *sessionState) update(ctx context.Context, fn func(*session.Session)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.sess
	stored, err := s.store.Get(ctx, s.sess.ID)
	switch {
	case err == nil:
		next = *stored
	case !errors.Is(err, session.ErrNotFound):
		return fmt.Errorf("failed to load session: %w", err)
	}

	fn(&next)
	next.UpdatedAt = s.now()
	if err := s.store.Save(ctx, &next); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	s.sess = next
	return nil
}

// touch marks the session as in use without rewriting its fields. A session
// purged elsewhere is written back from the local copy.
func (s *sessionState) touch(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	at := s.now()
	err := s.store.Touch(ctx, s.sess.ID, at)
	if errors.Is(err, session.ErrNotFound) {
		next := s.sess
		next.UpdatedAt = at
		if err := s.store.Save(ctx, &next); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		s.sess = next
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	s.sess.UpdatedAt = at
	return nil
}

// reload adopts the stored record. It reports whether the backend identity
// changed, which is the case after a login, logout or token rotation on
// another instance.
func (s *sessionState) reload(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.store.Get(ctx, s.sess.ID)
	if errors.Is(err, session.ErrNotFound) {
		if err := s.store.Save(ctx, &s.sess); err != nil {
			return false, fmt.Errorf("failed to save session: %w", err)
		}
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load session: %w", err)
	}

	changed := stored.RefreshToken != s.sess.RefreshToken ||
		stored.Authenticated() != s.sess.Authenticated()
	s.sess = *stored
	return changed, nil
}

func (s *sessionState) Tokens() model.Tokens {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.Tokens{Access: s.sess.AccessToken, Refresh: s.sess.RefreshToken}
}

func (s *sessionState) SetTokens(ctx context.Context, tokens model.Tokens) error {
	return s.update(ctx, func(sess *session.Session) {
		sess.AccessToken = tokens.Access
		if tokens.Refresh != "" {
			sess.RefreshToken = tokens.Refresh
		}
	})
}

func (s *sessionState) ClearTokens(ctx context.Context) error {
	return s.update(ctx, func(sess *session.Session) {
		sess.ClearTokens()
	})
}

func (s *sessionState) CurrentRetailer() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sess.RetailerID
}

func (s *sessionState) SetCurrentRetailer(ctx context.Context, retailerID int64) error {
	if s.CurrentRetailer() == retailerID {
		return nil
	}
	return s.update(ctx, func(sess *session.Session) {
		sess.RetailerID = retailerID
	})
}

func (s *sessionState) SetDeviceToken(ctx context.Context, token string) error {
	return s.update(ctx, func(sess *session.Session) {
		sess.DeviceToken = token
	})
}

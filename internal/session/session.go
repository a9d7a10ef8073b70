// Package session persists the per-browser client state: backend tokens,
// the selected retailer and the push device token.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no session exists for an id.
var ErrNotFound = errors.New("session not found")

// Session is the client state for one browser.
type Session struct {
	ID           string    `json:"id"`
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	RetailerID   int64     `json:"retailer_id,omitempty"`
	DeviceToken  string    `json:"device_token,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// New returns an empty session with a fresh random id.
func New(now time.Time) *Session {
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Authenticated reports whether the session carries an access token.
func (s *Session) Authenticated() bool {
	return s.AccessToken != ""
}

// ClearTokens forgets both backend tokens.
func (s *Session) ClearTokens() {
	s.AccessToken = ""
	s.RefreshToken = ""
}

// Store persists sessions.
type Store interface {
	// Get returns the session for id or ErrNotFound.
	Get(ctx context.Context, id string) (*Session, error)

	// Save inserts or replaces the session.
	Save(ctx context.Context, s *Session) error

	// Touch moves the session's UpdatedAt to at without rewriting any other
	// field. It returns ErrNotFound when the session does not exist.
	Touch(ctx context.Context, id string, at time.Time) error

	// Delete removes the session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// Purge removes sessions not updated since before and returns how many
	// were removed.
	Purge(ctx context.Context, before time.Time) (int, error)
}

// ValidID reports whether id looks like an id produced by New.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

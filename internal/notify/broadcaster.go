package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Handler receives payloads broadcast for a session.
type Handler func(Payload)

// Broadcaster shares payloads between every instance serving a session.
type Broadcaster interface {
	Publish(ctx context.Context, sessionID string, p Payload) error
	Subscribe(sessionID string, fn Handler) (unsubscribe func() error, err error)
	Close() error
}

// ErrBroadcasterClosed is returned after Close.
var ErrBroadcasterClosed = errors.New("broadcaster closed")

func validSessionID(id string) error {
	if id == "" || strings.ContainsAny(id, ".*> \t\r\n") {
		return fmt.Errorf("invalid session id %q for broadcast", id)
	}
	return nil
}

type memorySub struct {
	fn Handler
}

type memoryBroadcaster struct {
	mu     sync.RWMutex
	subs   map[string][]*memorySub
	closed bool
}

// NewMemoryBroadcaster shares payloads between bridges of one process.
// Handlers run synchronously on the publishing goroutine.
func NewMemoryBroadcaster() Broadcaster {
	return &memoryBroadcaster{subs: make(map[string][]*memorySub)}
}

func (m *memoryBroadcaster) Publish(ctx context.Context, sessionID string, p Payload) error {
	if err := validSessionID(sessionID); err != nil {
		return err
	}

	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return ErrBroadcasterClosed
	}
	subs := append([]*memorySub(nil), m.subs[sessionID]...)
	m.mu.RUnlock()

	for _, sub := range subs {
		sub.fn(p)
	}
	return nil
}

func (m *memoryBroadcaster) Subscribe(sessionID string, fn Handler) (func() error, error) {
	if err := validSessionID(sessionID); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrBroadcasterClosed
	}
	sub := &memorySub{fn: fn}
	m.subs[sessionID] = append(m.subs[sessionID], sub)

	return func() error {
		m.mu.Lock()
		defer m.mu.Unlock()
		subs := m.subs[sessionID]
		for i, s := range subs {
			if s == sub {
				m.subs[sessionID] = append(subs[:i:i], subs[i+1:]...)
				break
			}
		}
		if len(m.subs[sessionID]) == 0 {
			delete(m.subs, sessionID)
		}
		return nil
	}, nil
}

func (m *memoryBroadcaster) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.subs = make(map[string][]*memorySub)
	return nil
}

package notify

import (
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// DefaultSeenTTL is how long a payload id is remembered.
const DefaultSeenTTL = 5 * time.Minute

// SeenSet remembers payload ids for a while.
type SeenSet struct {
	ttl time.Duration
	now func() time.Time

	mu   sync.Mutex
	seen map[string]time.Time
}

// NewSeenSet creates a set whose ids expire after ttl. A nil now uses
// time.Now.
func NewSeenSet(ttl time.Duration, now func() time.Time) *SeenSet {
	if ttl <= 0 {
		ttl = DefaultSeenTTL
	}
	if now == nil {
		now = time.Now
	}
	return &SeenSet{ttl: ttl, now: now, seen: make(map[string]time.Time)}
}

// Add records id and reports whether it was not already present.
func (s *SeenSet) Add(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, at := range s.seen {
		if now.Sub(at) >= s.ttl {
			delete(s.seen, k)
		}
	}
	if _, ok := s.seen[id]; ok {
		return false
	}
	s.seen[id] = now
	return true
}

// Len returns the number of remembered ids, expired ones included until the
// next Add.
func (s *SeenSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

// PayloadID is the provider message id, or a hash of the payload when the
// provider did not set one. Map keys are marshalled in sorted order, so equal
// payloads hash equally.
func PayloadID(p Payload) string {
	if p.MessageID != "" {
		return p.MessageID
	}
	data, err := json.Marshal(p)
	if err != nil {
		return ""
	}
	return "h:" + strconv.FormatUint(xxhash.Sum64(data), 16)
}

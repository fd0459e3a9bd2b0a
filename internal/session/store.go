// Package session keeps specification documents between RPC calls.
package session

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/salwks/sdsmcp/internal/apperr"
	"github.com/salwks/sdsmcp/internal/specdoc"
)

// Metadata is fixed when a session is created.
type Metadata struct {
	Platform         specdoc.Platform
	Complexity       specdoc.Complexity
	AdvancedFeatures bool
}

// Session is a snapshot of one stored document. Spec is a private copy.
type Session struct {
	ID             string
	Spec           *specdoc.Specification
	Metadata       Metadata
	CreatedAt      time.Time
	LastModifiedAt time.Time
}

func (s *Session) snapshot() Session {
	out := *s
	out.Spec = s.Spec.Clone()
	return out
}

// Store is a bounded in-memory session map. Least recently used sessions are
// evicted past the size bound; entries also expire after ttl (0 disables expiry).
type Store struct {
	mu       sync.Mutex
	cache    *expirable.LRU[string, *Session]
	now      func() time.Time
	observer func(int)
	live     atomic.Int64
}

// Option customises a Store.
type Option func(*Store)

// WithSizeObserver is called with the live session count after every change,
// including LRU eviction and TTL expiry. It may run on the expiry goroutine.
func WithSizeObserver(fn func(int)) Option {
	return func(s *Store) { s.observer = fn }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(maxEntries int, ttl time.Duration, opts ...Option) *Store {
	if maxEntries <= 0 {
		maxEntries = 256
	}
	s := &Store{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.cache = expirable.NewLRU[string, *Session](maxEntries, s.evicted, ttl)
	return s
}

// NewID returns an identifier of the form spec_<unix millis>_<8 hex chars>.
func NewID(now time.Time) string {
	return fmt.Sprintf("spec_%d_%s", now.UnixMilli(), uuid.NewString()[:8])
}

// Create stores a copy of spec and returns the new session id.
func (s *Store) Create(spec *specdoc.Specification, meta Metadata) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	id := NewID(now)
	s.live.Add(1)
	s.cache.Add(id, &Session{ID: id, Spec: spec.Clone(), Metadata: meta, CreatedAt: now})
	s.notify()
	return id
}

// Get returns a snapshot of the session.
func (s *Store) Get(id string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.cache.Get(id)
	if !ok {
		return Session{}, false
	}
	return sess.snapshot(), true
}

// Update replaces the stored document and stamps LastModifiedAt.
func (s *Store) Update(id string, spec *specdoc.Specification) error {
	_, err := s.Mutate(id, func(Session) (*specdoc.Specification, error) {
		return spec, nil
	})
	return err
}

// Mutate runs fn against a snapshot under the store lock and stores the
// returned document. The stored session is untouched when fn fails.
func (s *Store) Mutate(id string, fn func(Session) (*specdoc.Specification, error)) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.cache.Get(id)
	if !ok {
		return Session{}, notFound(id)
	}

	next, err := fn(sess.snapshot())
	if err != nil {
		return Session{}, err
	}

	updated := *sess
	updated.Spec = next.Clone()
	updated.LastModifiedAt = s.now()
	s.cache.Add(id, &updated)
	return updated.snapshot(), nil
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Len()
}

// evicted runs under the cache's own lock, so it must not call back into s.cache.
func (s *Store) evicted(string, *Session) {
	s.live.Add(-1)
	s.notify()
}

func (s *Store) notify() {
	if s.observer != nil {
		s.observer(int(s.live.Load()))
	}
}

func notFound(id string) error {
	return apperr.Validation("lookup session", "session_id", "session %q not found or expired", id)
}

package session

import (
	"crypto/rand"
	stdErrors "errors"
	"fmt"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/akodkod/konsol/internal/evaluator"
	"github.com/akodkod/konsol/internal/hostruntime"
)

// ErrNotFound is returned by Require when an identifier does not name a
// live session.
var ErrNotFound = stdErrors.New("session not found")

// BootError wraps a host-runtime boot failure. The boot flag only sets on
// success, so a later session create retries.
type BootError struct {
	Err error
}

func (e *BootError) Error() string { return "host runtime boot failed: " + e.Err.Error() }

func (e *BootError) Unwrap() error { return e.Err }

// Store is the registry of live sessions keyed by opaque identifier. The
// first successful create boots the host runtime; subsequent creates reuse
// the booted environment. Sessions are destroyed en bloc on shutdown.
//
// Entries live in a TTL cache so idle sessions can be expired when the
// deployment asks for it; with a zero TTL sessions never expire and live
// until shutdown.
type Store struct {
	cache   *ttlcache.Cache[string, *Session]
	runtime hostruntime.Runtime
	booted  bool
}

// NewStore creates a Store over the given host runtime. idleTTL > 0 enables
// idle-session expiry with touch-on-access; zero disables it.
func NewStore(rt hostruntime.Runtime, idleTTL time.Duration) *Store {
	ttl := ttlcache.NoTTL
	if idleTTL > 0 {
		ttl = idleTTL
	}
	c := ttlcache.New[string, *Session](
		ttlcache.WithTTL[string, *Session](ttl),
	)
	if idleTTL > 0 {
		go c.Start()
	}
	return &Store{cache: c, runtime: rt}
}

// Create boots the host runtime if this is the first session, then
// registers a fresh session with its own evaluation context.
func (s *Store) Create() (*Session, error) {
	if !s.booted {
		if s.runtime != nil {
			if err := s.runtime.Boot(); err != nil {
				return nil, &BootError{Err: err}
			}
		}
		s.booted = true
	}

	ctx, err := evaluator.NewContext()
	if err != nil {
		return nil, fmt.Errorf("create evaluation context: %w", err)
	}

	sess := &Session{
		ID:        newSessionID(),
		Context:   ctx,
		CreatedAt: time.Now(),
	}
	s.cache.Set(sess.ID, sess, ttlcache.DefaultTTL)
	return sess, nil
}

// Get returns the session for the identifier, or nil. A hit refreshes the
// session's idle TTL.
func (s *Store) Get(id string) *Session {
	item := s.cache.Get(id)
	if item == nil {
		return nil
	}
	return item.Value()
}

// Require returns the session for the identifier or ErrNotFound.
func (s *Store) Require(id string) (*Session, error) {
	sess := s.Get(id)
	if sess == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return sess, nil
}

// InvalidateAll destroys every live session. Called on shutdown.
func (s *Store) InvalidateAll() {
	s.cache.DeleteAll()
}

// Count returns the number of live sessions, for observability.
func (s *Store) Count() int {
	return s.cache.Len()
}

// Booted reports whether the host runtime has been booted.
func (s *Store) Booted() bool {
	return s.booted
}

// Close stops the cache's expiration loop, if one is running.
func (s *Store) Close() {
	s.cache.Stop()
}

// newSessionID generates a random 128-bit identifier rendered as a
// hyphenated hexadecimal string.
func newSessionID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand does not fail on supported platforms.
		panic("session: read random bytes: " + err.Error())
	}
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
}

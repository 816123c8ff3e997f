// Package session keeps one Selection State per viewer.
//
// Each browser talking to the server, and each run of the terminal
// explorer, owns a [Session]: the selected location, direction and display
// mode plus the flow keys of the scene it last rendered. The keys let the
// next render diff against the previous one so entering flows fade in.
//
// Stores are provided for different backends:
//   - memory: in-process map for a single server instance
//   - redis: shared storage for multi-instance deployments
//   - file: JSON files for the CLI, so explore resumes the last selection
//
// # Usage
//
//	store := session.NewMemoryStore()
//	sess := session.New(flow.DefaultSelection(), session.DefaultTTL)
//	store.Set(ctx, sess)
//
//	sess, err := store.Get(ctx, id)
//	if err != nil {
//	    return err
//	}
//	if sess == nil {
//	    // Session not found or expired
//	}
//
// Expiry is measured on a package clock that tests replace with [SetClock].
package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/matzehuels/flowmap/pkg/flow"
)

// DefaultTTL is the default session duration.
const DefaultTTL = 24 * time.Hour

var clock = clockwork.NewRealClock()

// SetClock swaps the time source for expiry. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Session stores one viewer's Selection State.
type Session struct {
	ID        string         `json:"id"`
	Selection flow.Selection `json:"selection"`

	// Keys are the flow keys of the last rendered scene, in drawing order.
	Keys []string `json:"keys,omitempty"`

	// Width is the viewport width of the last render.
	Width float64 `json:"width,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// New creates a session with a random id for the given selection.
func New(sel flow.Selection, ttl time.Duration) *Session {
	now := clock.Now()
	return &Session{
		ID:        uuid.NewString(),
		Selection: sel,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return clock.Now().After(s.ExpiresAt)
}

// Touch extends the session by ttl from now.
func (s *Session) Touch(ttl time.Duration) {
	s.ExpiresAt = clock.Now().Add(ttl)
}

// Rendered records the keys and width of a finished render.
func (s *Session) Rendered(keys []string, width float64) {
	s.Keys = append(s.Keys[:0:0], keys...)
	s.Width = width
}

// ValidID reports whether id has the form of a session id. Cookie values
// are checked with it before they reach a store.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID.
	// Returns nil, nil if the session doesn't exist or has expired.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Set stores a session.
	Set(ctx context.Context, session *Session) error

	// Delete removes a session.
	Delete(ctx context.Context, sessionID string) error

	// Cleanup removes expired sessions and returns how many remain
	// (may skip the scan for Redis, which expires keys itself).
	Cleanup(ctx context.Context) (int, error)

	// Close releases resources held by the store.
	Close() error
}

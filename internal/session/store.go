// Package session holds the in-process conversation registry. Sessions live
// only as long as the hosting process; nothing is ever persisted or deleted.
package session

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Entry is one prompt/response exchange. Immutable once appended.
type Entry struct {
	Prompt    string    `json:"prompt"`
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is a conversation with append-only history.
type Session struct {
	ID           string    `json:"id"`
	StartedAt    time.Time `json:"started_at"`
	LastActivity time.Time `json:"last_activity"`
	History      []Entry   `json:"history"`
}

// Summary is a point-in-time view of one session for listings.
type Summary struct {
	ID           string    `json:"id"`
	StartedAt    time.Time `json:"started_at"`
	LastActivity time.Time `json:"last_activity"`
	MessageCount int       `json:"message_count"`
}

// Store is the process-wide session registry. At most one session is
// "current" at any time; commands executed without an explicit session id
// have their history recorded there by the caller's choice, not ambiently.
//
// Store is safe for concurrent use. Two in-flight commands appending to the
// same session land in completion order, which need not match issuance
// order; that ordering is deliberately unspecified.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	order    []string
	current  string
	entropy  io.Reader
}

// NewStore creates an empty registry.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
		entropy:  ulid.Monotonic(rand.Reader, 0),
	}
}

// Create allocates a new session with a time-derived unique id, makes it the
// current session, and returns its id.
func (s *Store) Create() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	id := ulid.MustNew(ulid.Timestamp(now), s.entropy).String()
	s.sessions[id] = &Session{
		ID:           id,
		StartedAt:    now,
		LastActivity: now,
	}
	s.order = append(s.order, id)
	s.current = id
	return id
}

// Get returns a copy of the session, so callers cannot mutate stored history.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	cp := *sess
	cp.History = append([]Entry(nil), sess.History...)
	return &cp, true
}

// List snapshots all sessions in creation order. Each call re-derives the
// summaries from current state.
func (s *Store) List() []Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Summary, 0, len(s.order))
	for _, id := range s.order {
		sess := s.sessions[id]
		out = append(out, Summary{
			ID:           sess.ID,
			StartedAt:    sess.StartedAt,
			LastActivity: sess.LastActivity,
			MessageCount: len(sess.History),
		})
	}
	return out
}

// Append records one exchange and bumps the session's last activity.
// Unknown ids are a no-op; the return value reports whether the id was known.
func (s *Store) Append(id, prompt, response string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return false
	}
	now := time.Now().UTC()
	sess.History = append(sess.History, Entry{
		Prompt:    prompt,
		Response:  response,
		Timestamp: now,
	})
	sess.LastActivity = now
	return true
}

// Current returns the id of the current session, or "" before the first Create.
func (s *Store) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// SetCurrent switches the current pointer to a known session id.
func (s *Store) SetCurrent(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return false
	}
	s.current = id
	return true
}

/*
Package session implements the cookie-token session store.

This file defines the Store struct, which owns the private token table, issues
and validates opaque session tokens, and removes expired sessions through a
deadline-driven sweeper. Expiry is time-driven: Validate does not compare
deadlines itself, it only consults the table the sweeper maintains.
*/
package session

import (
	"container/heap"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"groupchat/internal/pkg/logx"
	"groupchat/internal/pkg/randx"
)

// Clock abstracts wall-clock reads so expiry is testable without real delays.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }

// record holds the server-side state of one active session.
type record struct {
	username  string
	createdAt time.Time
	// expiresAt is zero for sessions created without a max age; those
	// sessions end only on explicit logout.
	expiresAt time.Time
}

// expiryEntry schedules the removal of one token at a deadline.
type expiryEntry struct {
	at    time.Time
	token string
}

// expiryHeap is a min-heap of expiry entries ordered by deadline.
type expiryHeap []expiryEntry

func (h expiryHeap) Len() int            { return len(h) }
func (h expiryHeap) Less(i, j int) bool  { return h[i].at.Before(h[j].at) }
func (h expiryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *expiryHeap) Push(x any)         { *h = append(*h, x.(expiryEntry)) }
func (h *expiryHeap) Pop() any {
	old := *h
	n := len(old)
	entry := old[n-1]
	*h = old[:n-1]
	return entry
}

// Store issues, validates, and expires opaque session tokens bound to a
// username. The token table is private to the Store; one Store is created per
// server process and passed explicitly to the components that need it.
type Store struct {
	mu       sync.Mutex
	sessions map[string]record
	expiries expiryHeap

	clock Clock

	wake chan struct{}
	stop chan struct{}
	done chan struct{}

	logger zerolog.Logger
}

// NewStore constructs a session Store using the given clock and starts its
// background sweeper. Call Close to stop the sweeper.
func NewStore(clock Clock) *Store {
	s := &Store{
		sessions: make(map[string]record),
		clock:    clock,
		wake:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logx.Logger().With().Str("component", "session").Logger(),
	}

	go s.runSweeper()

	return s
}

// Create generates a cryptographically random token for the username and
// records it. A maxAge of zero schedules no expiry at all: the session
// persists until explicit deletion. It returns the token for cookie transport.
func (s *Store) Create(username string, maxAge time.Duration) (string, error) {
	token, err := randx.SessionToken()
	if err != nil {
		return "", err
	}

	now := s.clock.Now()

	rec := record{
		username:  username,
		createdAt: now,
	}

	s.mu.Lock()
	if maxAge > 0 {
		rec.expiresAt = now.Add(maxAge)
		heap.Push(&s.expiries, expiryEntry{at: rec.expiresAt, token: token})
	}
	s.sessions[token] = rec
	s.mu.Unlock()

	if maxAge > 0 {
		s.notifySweeper()
	}

	s.logger.Debug().
		Str("username", username).
		Dur("max_age", maxAge).
		Msg("Session created.")

	return token, nil
}

// Validate looks up the token and returns the bound username. It reports false
// for a token that is unknown, malformed, or already swept. The expiry
// deadline itself is not re-checked here; removal is the sweeper's job.
func (s *Store) Validate(token string) (string, bool) {
	if token == "" {
		return "", false
	}

	s.mu.Lock()
	rec, ok := s.sessions[token]
	s.mu.Unlock()

	if !ok {
		return "", false
	}

	return rec.username, true
}

// Delete invalidates the token immediately (logout). Deleting an unknown
// token is a no-op.
func (s *Store) Delete(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// Sweep removes every session whose deadline is at or before now and returns
// the number of sessions removed. Stale heap entries for tokens already
// logged out are discarded silently.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for s.expiries.Len() > 0 && !s.expiries[0].at.After(now) {
		entry := heap.Pop(&s.expiries).(expiryEntry)

		rec, ok := s.sessions[entry.token]
		if !ok || rec.expiresAt.IsZero() || rec.expiresAt.After(now) {
			continue
		}

		delete(s.sessions, entry.token)
		removed++
	}

	if removed > 0 {
		s.logger.Debug().Int("removed", removed).Msg("Expired sessions swept.")
	}

	return removed
}

// Close stops the background sweeper.
func (s *Store) Close() {
	close(s.stop)
	<-s.done
}

// notifySweeper nudges the sweeper to re-read its next deadline.
func (s *Store) notifySweeper() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// runSweeper waits until the earliest scheduled deadline and sweeps. Removal
// is best-effort with respect to exact timing; the guarantee is only that a
// swept session is unusable by the next Validate call.
func (s *Store) runSweeper() {
	defer close(s.done)

	for {
		s.mu.Lock()
		var next time.Time
		hasNext := s.expiries.Len() > 0
		if hasNext {
			next = s.expiries[0].at
		}
		s.mu.Unlock()

		if !hasNext {
			select {
			case <-s.wake:
				continue
			case <-s.stop:
				return
			}
		}

		delay := next.Sub(s.clock.Now())
		if delay <= 0 {
			s.Sweep(s.clock.Now())
			continue
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
			s.Sweep(s.clock.Now())
		case <-s.wake:
			timer.Stop()
		case <-s.stop:
			timer.Stop()
			return
		}
	}
}

// Package session holds the per-user state carried between interactions:
// parsed tables, the last successful correspondence, the last grouping
// result and its summary rows, and the chosen working-days value. State is
// explicit and passed into each step; "start over" resets it wholesale.
package session

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"sheetbridge/pkg/contracts/domain"
)

// FileRole distinguishes the two uploads.
type FileRole string

const (
	RoleReference FileRole = "reference"
	RoleSource    FileRole = "source"
)

// Upload is one parsed input file.
type Upload struct {
	Table       *domain.Table
	SheetUsed   string
	Fingerprint string
}

// State is everything one session carries between interactions. A failed
// step leaves previously derived fields intact; only a new successful run
// (or Reset) replaces them.
type State struct {
	ID        string
	CreatedAt time.Time
	Touched   time.Time

	Uploads        map[FileRole]*Upload
	Correspondence *domain.Correspondence
	Projected      *domain.Table
	Groups         []domain.Group
	Summaries      []domain.SummaryRow
	WorkingDays    int
}

func newState(id string) *State {
	now := time.Now()
	return &State{
		ID:        id,
		CreatedAt: now,
		Touched:   now,
		Uploads:   make(map[FileRole]*Upload),
	}
}

// Store owns all live sessions. The HTTP server is concurrent even though
// each workflow is synchronous, so access is serialized here.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*State
	ttl      time.Duration
	cache    *ParseCache
	logger   *slog.Logger
	done     chan struct{}
	stopOnce sync.Once
}

// NewStore creates a session store whose sessions expire after idleTTL.
// cache may be nil when no parse memoization is wanted.
func NewStore(idleTTL time.Duration, cache *ParseCache, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		sessions: make(map[string]*State),
		ttl:      idleTTL,
		cache:    cache,
		logger:   logger.With(slog.String("component", "session_store")),
		done:     make(chan struct{}),
	}
	go s.janitor()
	return s
}

// Create starts a new session and returns it.
func (s *Store) Create() *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := newState(uuid.NewString())
	s.sessions[state.ID] = state
	s.logger.Info("session created", slog.String("session_id", state.ID))
	return state
}

// ErrNotFound marks a missing or expired session.
var ErrNotFound = fmt.Errorf("session not found")

// Update runs fn against the session's state under the store lock and
// refreshes its idle deadline.
func (s *Store) Update(id string, fn func(*State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	state.Touched = time.Now()
	return fn(state)
}

// View is Update for read-only callers.
func (s *Store) View(id string, fn func(*State) error) error {
	return s.Update(id, fn)
}

// Reset is the "start over" action: it reinitializes every field of the
// session and invalidates its cached parsed tables.
func (s *Store) Reset(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if s.cache != nil {
		for _, up := range state.Uploads {
			s.cache.Invalidate(up.Fingerprint)
		}
	}
	s.sessions[id] = newState(id)
	s.logger.Info("session reset", slog.String("session_id", id))
	return nil
}

// Close stops the expiry janitor.
func (s *Store) Close() {
	s.stopOnce.Do(func() { close(s.done) })
}

func (s *Store) janitor() {
	interval := s.ttl / 2
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Store) sweep() {
	s.mu.Lock()
	cutoff := time.Now().Add(-s.ttl)
	for id, state := range s.sessions {
		if state.Touched.Before(cutoff) {
			delete(s.sessions, id)
			s.logger.Info("session expired", slog.String("session_id", id))
		}
	}
	s.mu.Unlock()

	if s.cache != nil {
		s.cache.Sweep()
	}
}

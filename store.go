package session

import (
	"sync"

	"github.com/goliatone/go-print"
	"github.com/google/uuid"
)

// Subscription is a cancellable handle returned by Store.Subscribe.
type Subscription struct {
	id     uuid.UUID
	cancel func()
}

// Unsubscribe removes the listener. Safe to call more than once.
func (s Subscription) Unsubscribe() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Store owns the AuthState and its subscriber list. It is the only place
// the engine mutates session state; feature code reads snapshots and
// subscribes, never writes.
//
// Every write is guarded by a monotonically increasing generation counter.
// Resolutions capture the generation when they begin and their outcome is
// discarded if another writer (a newer resolution or a sign-out) advanced
// it since: last writer wins, and a stale in-flight success can never
// resurrect an authenticated state.
type Store struct {
	mu          sync.Mutex
	phase       AuthPhase
	state       AuthState
	generation  uint64
	subscribers map[uuid.UUID]func(AuthState)
	logger      Logger
	debug       bool
}

// StoreOption customizes store construction.
type StoreOption func(*Store)

// WithStoreLogger overrides the default printf logger.
func WithStoreLogger(logger Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStoreDebug enables pretty-printed state dumps on every write.
func WithStoreDebug(debug bool) StoreOption {
	return func(s *Store) {
		s.debug = debug
	}
}

// NewStore returns a store in the cold-start state: unauthenticated and
// loading, waiting for the first resolution.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		phase:       PhaseIdle,
		state:       AuthState{IsLoading: true},
		subscribers: map[uuid.UUID]func(AuthState){},
		logger:      defLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Snapshot returns the current AuthState.
func (s *Store) Snapshot() AuthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Phase returns the current lifecycle phase.
func (s *Store) Phase() AuthPhase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Generation returns the current write generation.
func (s *Store) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Subscribe registers a listener invoked with a snapshot after every state
// change. The listener runs on the writer's goroutine; keep it cheap.
func (s *Store) Subscribe(fn func(AuthState)) Subscription {
	id := uuid.New()

	s.mu.Lock()
	s.subscribers[id] = fn
	s.mu.Unlock()

	return Subscription{
		id: id,
		cancel: func() {
			s.mu.Lock()
			delete(s.subscribers, id)
			s.mu.Unlock()
		},
	}
}

// BeginResolution moves the store into the resolving phase, marks it
// loading, and returns the generation the caller must present when
// reporting the outcome.
func (s *Store) BeginResolution() uint64 {
	s.mu.Lock()
	if !canTransition(s.phase, PhaseResolving) {
		// Reachable only from a corrupted phase; resolve anyway but say so.
		s.logger.Warn("unexpected phase %q at resolution start", s.phase)
	}
	s.phase = PhaseResolving
	s.state.IsLoading = true
	s.generation++
	gen := s.generation
	state, listeners := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(state, listeners)
	return gen
}

// CompleteResolution records a successful resolution. Returns false when
// the result is stale and was discarded.
func (s *Store) CompleteResolution(gen uint64, user *UserIdentity) bool {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		s.logger.Debug("discarding stale resolution success (gen %d)", gen)
		return false
	}
	s.phase = PhaseAuthenticated
	s.state.User = user
	s.state.IsAuthenticated = true
	state, listeners := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(state, listeners)
	return true
}

// FailResolution records a failed resolution, clearing the user. Returns
// false when the result is stale and was discarded.
func (s *Store) FailResolution(gen uint64) bool {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		s.logger.Debug("discarding stale resolution failure (gen %d)", gen)
		return false
	}
	s.phase = PhaseUnauthenticated
	s.state.User = nil
	s.state.IsAuthenticated = false
	state, listeners := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(state, listeners)
	return true
}

// ClearLoading drops the loading flag if the caller is still the current
// writer. A newer resolution owns the flag otherwise.
func (s *Store) ClearLoading(gen uint64) {
	s.mu.Lock()
	if gen != s.generation || !s.state.IsLoading {
		s.mu.Unlock()
		return
	}
	s.state.IsLoading = false
	state, listeners := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(state, listeners)
}

// ForceUnauthenticated clears local session state unconditionally and
// advances the generation so in-flight resolutions become stale. Used for
// sign-out and provider failure events where remote state may already be
// invalid and no network call should be made.
func (s *Store) ForceUnauthenticated(reason string) {
	s.mu.Lock()
	s.generation++
	s.phase = PhaseUnauthenticated
	s.state = AuthState{}
	state, listeners := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Info("session invalidated: %s", reason)
	s.notify(state, listeners)
}

func (s *Store) snapshotLocked() (AuthState, []func(AuthState)) {
	listeners := make([]func(AuthState), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		if fn != nil {
			listeners = append(listeners, fn)
		}
	}
	return s.state, listeners
}

func (s *Store) notify(state AuthState, listeners []func(AuthState)) {
	if s.debug {
		s.logger.Debug("auth state: %s", print.MaybePrettyJSON(state))
	}
	for _, fn := range listeners {
		fn(state)
	}
}

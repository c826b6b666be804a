package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultSettleDelay is how long the synchronizer waits after an auth
// redirect URL arrives before re-resolving. The provider SDK may not have
// finished persisting tokens the instant the URL event fires; reading the
// session immediately risks a stale read.
const DefaultSettleDelay = 500 * time.Millisecond

// URLSource delivers inbound deep-link URLs. InitialURL exposes a URL that
// was already pending when the engine started (a cold start completing a
// redirect).
type URLSource interface {
	Subscribe(fn func(url string)) Subscription
	InitialURL() (string, bool)
}

// URLEvents is the default URLSource: a small dispatcher that platform
// glue (see the deeplink package) pushes inbound URLs into.
type URLEvents struct {
	mu         sync.Mutex
	listeners  map[uuid.UUID]func(string)
	initialURL string
}

// NewURLEvents returns an empty dispatcher.
func NewURLEvents() *URLEvents {
	return &URLEvents{
		listeners: map[uuid.UUID]func(string){},
	}
}

// SetInitialURL records a URL that arrived before any subscriber attached.
func (u *URLEvents) SetInitialURL(url string) {
	u.mu.Lock()
	u.initialURL = url
	u.mu.Unlock()
}

// InitialURL implements URLSource.
func (u *URLEvents) InitialURL() (string, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.initialURL, u.initialURL != ""
}

// Subscribe implements URLSource.
func (u *URLEvents) Subscribe(fn func(url string)) Subscription {
	id := uuid.New()

	u.mu.Lock()
	u.listeners[id] = fn
	u.mu.Unlock()

	return Subscription{
		id: id,
		cancel: func() {
			u.mu.Lock()
			delete(u.listeners, id)
			u.mu.Unlock()
		},
	}
}

// Dispatch delivers a URL to every listener.
func (u *URLEvents) Dispatch(url string) {
	u.mu.Lock()
	listeners := make([]func(string), 0, len(u.listeners))
	for _, fn := range u.listeners {
		if fn != nil {
			listeners = append(listeners, fn)
		}
	}
	u.mu.Unlock()

	for _, fn := range listeners {
		fn(url)
	}
}

// AuthChecker re-resolves the session state. Satisfied by Resolver.
type AuthChecker interface {
	CheckAuthState(ctx context.Context) AuthState
}

// Synchronizer keeps the store current as external signals arrive: the
// provider lifecycle hub and inbound deep-link URLs.
type Synchronizer struct {
	hub     *Hub
	urls    URLSource
	checker AuthChecker
	store   *Store
	logger  Logger

	settleDelay  time.Duration
	schemeMarker string

	mu          sync.Mutex
	settleTimer *time.Timer
	closed      bool

	hubSub Subscription
	urlSub Subscription
}

// SynchronizerOption customizes synchronizer construction.
type SynchronizerOption func(*Synchronizer)

// WithSettleDelay overrides the post-redirect settle delay.
func WithSettleDelay(delay time.Duration) SynchronizerOption {
	return func(s *Synchronizer) {
		if delay > 0 {
			s.settleDelay = delay
		}
	}
}

// WithSynchronizerLogger overrides the default printf logger.
func WithSynchronizerLogger(logger Logger) SynchronizerOption {
	return func(s *Synchronizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSynchronizer wires the hub and URL source to the checker and store.
// schemeMarker is the app's custom redirect scheme; only URLs containing
// it are treated as auth callbacks. The synchronizer is inert until Start.
func NewSynchronizer(hub *Hub, urls URLSource, checker AuthChecker, store *Store, schemeMarker string, opts ...SynchronizerOption) *Synchronizer {
	s := &Synchronizer{
		hub:          hub,
		urls:         urls,
		checker:      checker,
		store:        store,
		logger:       defLogger{},
		settleDelay:  DefaultSettleDelay,
		schemeMarker: schemeMarker,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Start subscribes to both sources and handles a redirect URL that was
// already pending at mount time.
func (s *Synchronizer) Start() {
	s.hubSub = s.hub.Subscribe(s.onHubMessage)

	if s.urls != nil {
		s.urlSub = s.urls.Subscribe(s.onURL)
		if url, ok := s.urls.InitialURL(); ok {
			s.onURL(url)
		}
	}
}

// Close tears down both subscriptions and cancels any pending settle
// timer. Safe to call more than once.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.settleTimer != nil {
		s.settleTimer.Stop()
		s.settleTimer = nil
	}
	s.mu.Unlock()

	s.hubSub.Unsubscribe()
	s.urlSub.Unsubscribe()
}

func (s *Synchronizer) onHubMessage(msg HubMessage) {
	switch msg.Event {
	case EventSignedIn, EventSignInWithRedirect, EventTokenRefresh:
		s.logger.Debug("hub event %q, re-resolving session", msg.Event)
		s.checker.CheckAuthState(context.Background())
	case EventSignedOut, EventTokenRefreshFailure, EventSignInWithRedirectFailure:
		// Remote state may already be invalid; never call out here.
		s.store.ForceUnauthenticated(string(msg.Event))
	default:
		s.logger.Debug("ignoring hub event %q", msg.Event)
	}
}

func (s *Synchronizer) onURL(url string) {
	if s.schemeMarker == "" || !strings.Contains(url, s.schemeMarker) {
		return
	}

	s.logger.Debug("auth redirect URL received, settling for %s", s.settleDelay)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.settleTimer != nil {
		s.settleTimer.Stop()
	}
	s.settleTimer = time.AfterFunc(s.settleDelay, func() {
		s.checker.CheckAuthState(context.Background())
	})
}

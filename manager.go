package session

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// Manager owns the session engine: one store, one resolver, one
// synchronizer, constructed once and injected at the application root.
// Feature code talks to the manager (or the header provider it exposes)
// and never mutates state directly.
type Manager struct {
	provider IdentityProvider
	config   Config
	logger   Logger
	clock    func() time.Time
	legacy   LegacyStore

	hub      *Hub
	urls     *URLEvents
	store    *Store
	janitor  *Janitor
	resolver *Resolver
	headers  *HeaderProvider
	sync     *Synchronizer
}

// Option customizes manager construction.
type Option func(*Manager)

// WithLogger sets the logger shared by every component.
func WithLogger(logger Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithConfig replaces the default config.
func WithConfig(cfg Config) Option {
	return func(m *Manager) {
		m.config = cfg
	}
}

// WithDeepLinkScheme sets the redirect scheme marker on the default config.
func WithDeepLinkScheme(scheme string) Option {
	return func(m *Manager) {
		m.config.DeepLinkScheme = scheme
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) Option {
	return func(m *Manager) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// WithLegacyStore sets the device-local cache the janitor purges. Without
// one, legacy cleanup is a no-op.
func WithLegacyStore(store LegacyStore) Option {
	return func(m *Manager) {
		m.legacy = store
	}
}

// WithHub shares an externally owned lifecycle hub, letting a provider
// publish events into the engine.
func WithHub(hub *Hub) Option {
	return func(m *Manager) {
		if hub != nil {
			m.hub = hub
		}
	}
}

// WithURLEvents shares an externally owned URL dispatcher, letting
// platform glue forward deep links into the engine.
func WithURLEvents(urls *URLEvents) Option {
	return func(m *Manager) {
		if urls != nil {
			m.urls = urls
		}
	}
}

// New builds the engine around an identity provider. The manager is inert
// until Start.
func New(provider IdentityProvider, opts ...Option) (*Manager, error) {
	if provider == nil {
		return nil, goerrors.New("identity provider is required", goerrors.CategoryBadInput)
	}

	m := &Manager{
		provider: provider,
		config:   DefaultConfig(),
		logger:   defLogger{},
		clock:    time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	if err := m.config.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid session config")
	}

	if m.hub == nil {
		m.hub = NewHub()
	}
	if m.urls == nil {
		m.urls = NewURLEvents()
	}

	m.store = NewStore(
		WithStoreLogger(m.logger),
		WithStoreDebug(m.config.Debug),
	)
	m.janitor = NewJanitor(m.legacy, m.logger)
	m.resolver = NewResolver(provider, m.store, m.janitor,
		WithResolverLogger(m.logger),
		WithResolverClock(m.clock),
		WithResolverSkewMargin(m.config.SkewMargin),
		WithResolverTimeout(m.config.ResolveTimeout),
	)
	m.headers = NewHeaderProvider(m.store, m.resolver, m.logger)
	m.sync = NewSynchronizer(m.hub, m.urls, m.resolver, m.store, m.config.DeepLinkScheme,
		WithSettleDelay(m.config.SettleDelay),
		WithSynchronizerLogger(m.logger),
	)

	return m, nil
}

// Start subscribes to external events and runs the cold-start resolution,
// returning the first settled state.
func (m *Manager) Start(ctx context.Context) AuthState {
	m.sync.Start()
	return m.resolver.CheckAuthState(ctx)
}

// Close tears down event subscriptions. The store remains readable.
func (m *Manager) Close() {
	m.sync.Close()
}

// State returns the current AuthState snapshot.
func (m *Manager) State() AuthState {
	return m.store.Snapshot()
}

// Phase returns the current lifecycle phase.
func (m *Manager) Phase() AuthPhase {
	return m.store.Phase()
}

// Subscribe registers a state listener.
func (m *Manager) Subscribe(fn func(AuthState)) Subscription {
	return m.store.Subscribe(fn)
}

// CheckAuthState forces a full re-resolution.
func (m *Manager) CheckAuthState(ctx context.Context) AuthState {
	return m.resolver.CheckAuthState(ctx)
}

// AuthHeaders returns headers for a protected request, re-validating the
// session first.
func (m *Manager) AuthHeaders(ctx context.Context) (map[string]string, error) {
	return m.headers.AuthHeaders(ctx)
}

// UserID returns the authenticated user's stable id.
func (m *Manager) UserID() (string, error) {
	return m.headers.UserID()
}

// SignOut clears local state unconditionally. The provider call is best
// effort; its failure is logged and swallowed because remote state may
// already be gone.
func (m *Manager) SignOut(ctx context.Context) {
	if err := m.provider.SignOut(ctx); err != nil {
		m.logger.Warn("provider sign out failed: %v", err)
	}
	m.store.ForceUnauthenticated("sign out")
	m.janitor.ClearLegacyAuthStorage(ctx)
}

// Hub exposes the lifecycle hub so providers can publish events.
func (m *Manager) Hub() *Hub {
	return m.hub
}

// URLEvents exposes the URL dispatcher so platform glue can forward deep
// links.
func (m *Manager) URLEvents() *URLEvents {
	return m.urls
}

// Headers exposes the header provider for feature code that only needs
// the outbound surface.
func (m *Manager) Headers() *HeaderProvider {
	return m.headers
}

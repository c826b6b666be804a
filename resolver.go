package session

import (
	"context"
	"time"
)

// Default timings. The skew margin absorbs clock drift and network latency
// before a token counts as expired; the resolve timeout bounds provider
// calls so a dead network cannot leave the store loading forever.
const (
	DefaultSkewMargin     = 60 * time.Second
	DefaultResolveTimeout = 10 * time.Second
)

// ResolvedSession is the triple produced by a successful resolution.
type ResolvedSession struct {
	Session *AuthSession
	IDToken string
	Claims  TokenClaims
}

// Resolver fetches identity and a currently-valid token from the provider,
// performing at most one forced refresh, and reports outcomes to the store.
type Resolver struct {
	provider IdentityProvider
	store    *Store
	janitor  *Janitor
	logger   Logger
	now      func() time.Time

	skewMargin     time.Duration
	resolveTimeout time.Duration
}

// ResolverOption customizes resolver construction.
type ResolverOption func(*Resolver)

// WithResolverLogger overrides the default printf logger.
func WithResolverLogger(logger Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithResolverClock injects a custom clock (useful for tests).
func WithResolverClock(clock func() time.Time) ResolverOption {
	return func(r *Resolver) {
		if clock != nil {
			r.now = clock
		}
	}
}

// WithResolverSkewMargin overrides the expiry skew margin.
func WithResolverSkewMargin(margin time.Duration) ResolverOption {
	return func(r *Resolver) {
		if margin > 0 {
			r.skewMargin = margin
		}
	}
}

// WithResolverTimeout overrides the time bound on provider calls within
// one resolution.
func WithResolverTimeout(timeout time.Duration) ResolverOption {
	return func(r *Resolver) {
		if timeout > 0 {
			r.resolveTimeout = timeout
		}
	}
}

// NewResolver wires a resolver to the provider, store, and janitor.
func NewResolver(provider IdentityProvider, store *Store, janitor *Janitor, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		provider:       provider,
		store:          store,
		janitor:        janitor,
		logger:         defLogger{},
		now:            time.Now,
		skewMargin:     DefaultSkewMargin,
		resolveTimeout: DefaultResolveTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// ResolveValidSession fetches the provider session and validates token
// expiry against the skew margin. When the token is inside the margin and
// forceRefresh is false it retries exactly once with a forced refresh;
// a token still expired after that fails with ErrTokenExpired.
func (r *Resolver) ResolveValidSession(ctx context.Context, forceRefresh bool) (*ResolvedSession, error) {
	sess, err := r.provider.FetchAuthSession(ctx, FetchOptions{ForceRefresh: forceRefresh})
	if err != nil {
		return nil, providerFailure("fetch_auth_session", err)
	}

	if sess == nil || sess.IDToken == nil || (sess.IDToken.Raw == "" && len(sess.IDToken.Payload) == 0) {
		return nil, ErrNoToken
	}

	claims := ParseIDTokenPayload(sess.IDToken)

	if expiresAtMs, ok := claims.ExpiresAtMs(); ok {
		nowMs := r.now().UnixMilli()
		if expiresAtMs <= nowMs+r.skewMargin.Milliseconds() {
			if !forceRefresh {
				r.logger.Debug("token inside skew margin, retrying with forced refresh")
				return r.ResolveValidSession(ctx, true)
			}
			return nil, ErrTokenExpired
		}
	}

	return &ResolvedSession{
		Session: sess,
		IDToken: sess.IDToken.Raw,
		Claims:  claims,
	}, nil
}

// CheckAuthState runs a full resolution and folds the outcome into the
// store. Every internal failure is converted into an unauthenticated
// state here; nothing propagates to callers. Legacy cache keys are purged
// on both outcomes, and the loading flag always clears in a final step.
func (r *Resolver) CheckAuthState(ctx context.Context) AuthState {
	gen := r.store.BeginResolution()

	ctx, cancel := context.WithTimeout(ctx, r.resolveTimeout)
	defer cancel()

	defer r.store.ClearLoading(gen)
	defer r.janitor.ClearLegacyAuthStorage(ctx)

	user, err := r.provider.GetCurrentUser(ctx)
	if err != nil {
		r.logger.Info("auth check failed fetching user record: %v", err)
		r.store.FailResolution(gen)
		return r.store.Snapshot()
	}

	resolved, err := r.ResolveValidSession(ctx, false)
	if err != nil {
		r.logger.Info("auth check failed resolving session: %v", err)
		r.store.FailResolution(gen)
		return r.store.Snapshot()
	}

	identity := buildIdentity(user, resolved.Claims)
	if !identity.Valid() {
		r.logger.Info("auth check failed: %v", ErrMissingIdentity)
		r.store.FailResolution(gen)
		return r.store.Snapshot()
	}

	r.store.CompleteResolution(gen, identity)
	return r.store.Snapshot()
}

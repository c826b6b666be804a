package session

import "context"

// Header names and static values emitted for protected requests.
const (
	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"

	bearerPrefix    = "Bearer "
	contentTypeJSON = "application/json"
)

// HeaderProvider issues request headers for protected calls. It shares the
// exact validation path with the store's IsAuthenticated flag, so a
// UI-visible authenticated state can never fail to produce valid headers:
// it flips to unauthenticated first and the caller is told to re-auth
// before any network request goes out.
type HeaderProvider struct {
	store    *Store
	resolver *Resolver
	logger   Logger
}

// NewHeaderProvider wires the header provider to the shared store and
// resolver.
func NewHeaderProvider(store *Store, resolver *Resolver, logger Logger) *HeaderProvider {
	if logger == nil {
		logger = defLogger{}
	}
	return &HeaderProvider{
		store:    store,
		resolver: resolver,
		logger:   logger,
	}
}

// AuthHeaders returns headers for a protected request. When the store is
// not authenticated it fails immediately without touching the network.
// Otherwise the session is re-resolved freshly; cached claims are never
// good enough to mint an Authorization header. Any resolution failure
// forces the store unauthenticated and re-raises the re-auth sentinel.
func (h *HeaderProvider) AuthHeaders(ctx context.Context) (map[string]string, error) {
	if !h.store.Snapshot().IsAuthenticated {
		return nil, requireReauth(nil)
	}

	ctx, cancel := context.WithTimeout(ctx, h.resolver.resolveTimeout)
	defer cancel()

	resolved, err := h.resolver.ResolveValidSession(ctx, false)
	if err != nil {
		h.logger.Warn("header validation failed, invalidating session: %v", err)
		h.store.ForceUnauthenticated("header validation failed")
		return nil, requireReauth(err)
	}

	return map[string]string{
		HeaderAuthorization: bearerPrefix + resolved.IDToken,
		HeaderContentType:   contentTypeJSON,
	}, nil
}

// UserID returns the authenticated user's stable id. There is no guest or
// anonymous fallback; an unauthenticated store or an identity without an
// id both fail with the re-auth sentinel.
func (h *HeaderProvider) UserID() (string, error) {
	state := h.store.Snapshot()
	if !state.IsAuthenticated || !state.User.Valid() {
		return "", requireReauth(nil)
	}
	return state.User.ID, nil
}

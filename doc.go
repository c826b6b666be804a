// Package session is an authentication session engine: it resolves,
// caches, validates, refreshes, and invalidates a user's session against a
// hosted identity provider, and is the single source of truth consumed by
// every protected-resource call.
//
// Core guarantee:
//   - AuthState.IsAuthenticated is true only when the most recently
//     completed resolution produced a non-expired ID token and a valid
//     identity. The flag and the header-issuance path (HeaderProvider)
//     share the same validation routine, so an authenticated UI can never
//     fail to produce valid headers; the state flips to unauthenticated
//     first and callers receive the AUTHENTICATION_REQUIRED sentinel.
//
// External signals:
//   - Synchronizer folds the provider lifecycle hub and inbound deep-link
//     URLs into store updates. Sign-out style events force local
//     unauthenticated state without network calls; sign-in style events
//     trigger a full re-resolution. Redirect URLs wait out a short settle
//     delay before resolving, because the provider SDK may still be
//     persisting tokens when the URL event fires.
//
// Concurrency:
//   - The store's generation counter makes state writes last-writer-wins.
//     A sign-out is never overwritten by a slower in-flight resolution
//     that started before it.
//
// Providers live in subpackages (provider/cognito); the deeplink package
// bridges browser redirect flows on desktop, and localstore supplies the
// device-local cache whose deprecated keys the janitor purges.
package session

package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-session"
	"github.com/stretchr/testify/require"
)

const testSigningKey = "test-signing-key"

// makeIDToken signs claims into a compact JWT. The engine never verifies
// signatures, but a real token exercises the same wire shape the provider
// hands back.
func makeIDToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte(testSigningKey))
	require.NoError(t, err)
	return signed
}

func sessionWithToken(raw string) *session.AuthSession {
	return &session.AuthSession{IDToken: &session.IDToken{Raw: raw}}
}

// fakeProvider is a configurable IdentityProvider stub.
type fakeProvider struct {
	mu sync.Mutex

	user    *session.ProviderUser
	userErr error

	session  *session.AuthSession
	fetchErr error

	// refreshedSession is returned for forced refreshes when set.
	refreshedSession *session.AuthSession
	refreshErr       error

	signOutErr error

	// fetchGate, when set, blocks FetchAuthSession until closed.
	fetchGate chan struct{}

	getUserCalls     int
	fetchCalls       int
	forcedFetchCalls int
	signOutCalls     int
}

func (f *fakeProvider) GetCurrentUser(ctx context.Context) (*session.ProviderUser, error) {
	f.mu.Lock()
	f.getUserCalls++
	user, err := f.user, f.userErr
	f.mu.Unlock()
	return user, err
}

func (f *fakeProvider) FetchAuthSession(ctx context.Context, opts session.FetchOptions) (*session.AuthSession, error) {
	f.mu.Lock()
	f.fetchCalls++
	if opts.ForceRefresh {
		f.forcedFetchCalls++
	}
	gate := f.fetchGate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if opts.ForceRefresh {
		if f.refreshErr != nil {
			return nil, f.refreshErr
		}
		if f.refreshedSession != nil {
			return f.refreshedSession, nil
		}
	}
	return f.session, f.fetchErr
}

func (f *fakeProvider) SignOut(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signOutCalls++
	return f.signOutErr
}

func (f *fakeProvider) counts() (getUser, fetch, forced, signOut int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getUserCalls, f.fetchCalls, f.forcedFetchCalls, f.signOutCalls
}

// fakeLegacyStore records removals and can fail on demand.
type fakeLegacyStore struct {
	mu        sync.Mutex
	removed   []string
	removeErr error
}

func (f *fakeLegacyStore) Remove(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, key)
	return f.removeErr
}

func (f *fakeLegacyStore) removedKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.removed))
	copy(out, f.removed)
	return out
}

// quietLogger keeps test output clean.
type quietLogger struct{}

func (quietLogger) Debug(string, ...any) {}
func (quietLogger) Info(string, ...any)  {}
func (quietLogger) Warn(string, ...any)  {}
func (quietLogger) Error(string, ...any) {}

func frozenClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

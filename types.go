package session

import (
	"context"
	"fmt"
	"strings"
)

// Logger is the minimal logging surface used across the engine.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// ProviderUser is the user record returned by the identity provider.
type ProviderUser struct {
	UserID   string
	Username string

	// LoginID is the identifier the user signed in with, usually an email.
	LoginID string
}

// IDToken is the identity token handed back by the provider. Some SDKs
// expose a materialized payload next to the compact JWT string; when
// Payload is present it takes precedence over decoding Raw.
type IDToken struct {
	Raw     string
	Payload map[string]any
}

// AuthSession is the provider session wrapper. A session without an ID
// token is treated as unauthenticated.
type AuthSession struct {
	IDToken *IDToken
}

// FetchOptions controls how the provider session is fetched.
type FetchOptions struct {
	ForceRefresh bool
}

// IdentityProvider is the contract the engine consumes. Implementations
// wrap a hosted identity service (see provider/cognito).
type IdentityProvider interface {
	GetCurrentUser(ctx context.Context) (*ProviderUser, error)
	FetchAuthSession(ctx context.Context, opts FetchOptions) (*AuthSession, error)
	SignOut(ctx context.Context) error
}

// LegacyStore is the device-local cache that still holds deprecated
// credential keys. Only removal is required by the engine; richer
// implementations (see localstore) may expose more.
type LegacyStore interface {
	Remove(ctx context.Context, key string) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] SESSION "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] SESSION "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] SESSION "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] SESSION "+newline(format), args...)
}

func newline(format string) string {
	if strings.HasSuffix(format, "\n") {
		return format
	}
	return format + "\n"
}

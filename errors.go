package session

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	// TextCodeAuthenticationRequired is the literal contract between the
	// engine and feature code issuing protected requests. Callers must
	// treat it as "prompt re-authentication", never as a transient
	// failure to retry.
	TextCodeAuthenticationRequired = "AUTHENTICATION_REQUIRED"

	TextCodeNoToken             = "session_no_token"
	TextCodeTokenExpired        = "session_token_expired"
	TextCodeMissingIdentity     = "session_missing_identity"
	TextCodeProviderUnavailable = "session_provider_unavailable"
)

// ErrNoToken is returned when the resolved provider session carries no ID token.
var ErrNoToken = goerrors.New("auth session has no ID token", goerrors.CategoryAuth).
	WithTextCode(TextCodeNoToken).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenExpired is returned when the token expiry falls inside the skew
// margin even after one forced refresh.
var ErrTokenExpired = goerrors.New("ID token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrMissingIdentity is returned when neither claims nor the provider user
// record yield a stable user id.
var ErrMissingIdentity = goerrors.New("identity has no stable id", goerrors.CategoryAuth).
	WithTextCode(TextCodeMissingIdentity).
	WithCode(goerrors.CodeUnauthorized)

// ErrProviderUnavailable is returned on transport-level failures reaching
// the identity provider.
var ErrProviderUnavailable = goerrors.New("identity provider unreachable", goerrors.CategoryOperation).
	WithTextCode(TextCodeProviderUnavailable)

// ErrAuthenticationRequired is surfaced to feature code by AuthHeaders and
// UserID. It is the only engine error callers are expected to branch on.
var ErrAuthenticationRequired = goerrors.New("authentication required", goerrors.CategoryAuth).
	WithTextCode(TextCodeAuthenticationRequired).
	WithCode(goerrors.CodeUnauthorized)

// IsAuthenticationRequired reports whether err carries the
// AUTHENTICATION_REQUIRED contract code.
func IsAuthenticationRequired(err error) bool {
	return hasTextCode(err, TextCodeAuthenticationRequired)
}

// IsNoToken reports whether err means the session carried no ID token.
func IsNoToken(err error) bool {
	return hasTextCode(err, TextCodeNoToken)
}

// IsTokenExpired reports whether err means the token stayed expired after
// the forced refresh retry.
func IsTokenExpired(err error) bool {
	return hasTextCode(err, TextCodeTokenExpired)
}

// IsMissingIdentity reports whether err means no stable user id was found.
func IsMissingIdentity(err error) bool {
	return hasTextCode(err, TextCodeMissingIdentity)
}

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == code
	}
	return false
}

// requireReauth clones the caller-facing sentinel and attaches the
// underlying resolution failure.
func requireReauth(cause error) error {
	clone := ErrAuthenticationRequired.Clone()
	if clone == nil {
		return ErrAuthenticationRequired
	}
	if cause != nil {
		clone.Source = cause
		return clone.WithMetadata(map[string]any{
			"cause": cause.Error(),
		})
	}
	return clone
}

// providerFailure normalizes a transport error into the provider
// unavailable sentinel, keeping the source chain intact.
func providerFailure(operation string, cause error) error {
	clone := ErrProviderUnavailable.Clone()
	if clone == nil {
		return cause
	}
	clone.Source = cause
	meta := map[string]any{"operation": operation}
	if cause != nil {
		meta["cause"] = cause.Error()
	}
	return clone.WithMetadata(meta)
}

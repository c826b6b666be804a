package session

import "context"

// Deprecated cache keys from earlier releases that stored credentials
// locally. They are retained only so every resolution outcome can purge
// them.
const (
	LegacyKeyUserInfo           = "user_info"
	LegacyKeyAuthTokens         = "auth_tokens"
	LegacyKeyProviderLoginToken = "cognito_login_token"
)

var legacyAuthKeys = []string{
	LegacyKeyUserInfo,
	LegacyKeyAuthTokens,
	LegacyKeyProviderLoginToken,
}

// Janitor removes deprecated cached-credential keys. Cleanup is strictly
// best effort: failures are logged and never block the auth flow.
type Janitor struct {
	store  LegacyStore
	logger Logger
}

// NewJanitor returns a janitor over the given legacy store. A nil store
// yields a no-op janitor.
func NewJanitor(store LegacyStore, logger Logger) *Janitor {
	if logger == nil {
		logger = defLogger{}
	}
	return &Janitor{store: store, logger: logger}
}

// ClearLegacyAuthStorage removes every deprecated key.
func (j *Janitor) ClearLegacyAuthStorage(ctx context.Context) {
	if j == nil || j.store == nil {
		return
	}
	for _, key := range legacyAuthKeys {
		if err := j.store.Remove(ctx, key); err != nil {
			j.logger.Warn("legacy cache cleanup failed for %q: %v", key, err)
		}
	}
}

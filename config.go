package session

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

// Config holds engine tunables. Zero values fall back to defaults in
// DefaultConfig; an explicit Config must pass Validate.
type Config struct {
	// DeepLinkScheme is the custom scheme marker identifying auth redirect
	// callbacks, e.g. "myapp://auth".
	DeepLinkScheme string

	// SettleDelay is the wait between a redirect URL arriving and the
	// session re-resolution it triggers.
	SettleDelay time.Duration

	// ResolveTimeout bounds provider calls during one resolution.
	ResolveTimeout time.Duration

	// SkewMargin is subtracted from token expiry before a token counts as
	// expired.
	SkewMargin time.Duration

	// Debug enables pretty-printed state dumps.
	Debug bool
}

// DefaultConfig returns the engine defaults. The deep-link scheme has no
// sensible default and must be set by the caller.
func DefaultConfig() Config {
	return Config{
		SettleDelay:    DefaultSettleDelay,
		ResolveTimeout: DefaultResolveTimeout,
		SkewMargin:     DefaultSkewMargin,
	}
}

// Validate checks the config is complete and internally consistent.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.DeepLinkScheme, validation.Required),
		validation.Field(&c.SettleDelay, validation.By(positiveDuration)),
		validation.Field(&c.ResolveTimeout, validation.By(positiveDuration)),
		validation.Field(&c.SkewMargin, validation.By(positiveDuration)),
	)
}

func positiveDuration(value any) error {
	d, ok := value.(time.Duration)
	if !ok {
		return fmt.Errorf("must be a duration")
	}
	if d <= 0 {
		return fmt.Errorf("must be positive")
	}
	return nil
}

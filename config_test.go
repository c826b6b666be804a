package session_test

import (
	"testing"
	"time"

	"github.com/goliatone/go-session"
	"github.com/stretchr/testify/assert"
)

func TestConfig_Defaults(t *testing.T) {
	cfg := session.DefaultConfig()

	assert.Equal(t, 500*time.Millisecond, cfg.SettleDelay)
	assert.Equal(t, 10*time.Second, cfg.ResolveTimeout)
	assert.Equal(t, 60*time.Second, cfg.SkewMargin)
	assert.Empty(t, cfg.DeepLinkScheme)
}

func TestConfig_Validate(t *testing.T) {
	valid := session.DefaultConfig()
	valid.DeepLinkScheme = "myapp://auth"

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, valid.Validate())
	})

	t.Run("missing scheme", func(t *testing.T) {
		cfg := valid
		cfg.DeepLinkScheme = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("zero settle delay", func(t *testing.T) {
		cfg := valid
		cfg.SettleDelay = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("negative timeout", func(t *testing.T) {
		cfg := valid
		cfg.ResolveTimeout = -time.Second
		assert.Error(t, cfg.Validate())
	})

	t.Run("negative skew margin", func(t *testing.T) {
		cfg := valid
		cfg.SkewMargin = -time.Minute
		assert.Error(t, cfg.Validate())
	})
}

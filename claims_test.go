package session_test

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJWTPayload_RoundTrip(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	token := makeIDToken(t, jwt.MapClaims{
		"sub":              "user-123",
		"exp":              exp,
		"email":            "pepe@example.com",
		"name":             "Pepe Rone",
		"picture":          "https://cdn.example.com/pepe.png",
		"cognito:username": "pepe",
	})

	claims := session.DecodeJWTPayload(token)

	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, "pepe@example.com", claims.Email)
	assert.Equal(t, "Pepe Rone", claims.Name)
	assert.Equal(t, "https://cdn.example.com/pepe.png", claims.Picture)
	assert.Equal(t, "pepe", claims.Username)

	require.NotNil(t, claims.ExpiresAt)
	assert.Equal(t, exp, claims.ExpiresAt.Unix())

	ms, ok := claims.ExpiresAtMs()
	require.True(t, ok)
	assert.Equal(t, exp*1000, ms)
}

func TestDecodeJWTPayload_Base64URLAlphabet(t *testing.T) {
	// Payload chosen so the base64url form contains '-' and '_' and needs
	// padding restored.
	payload := `{"sub":"abc?~~>def","name":"x"}`
	segment := base64.RawURLEncoding.EncodeToString([]byte(payload))
	require.True(t, strings.ContainsAny(segment, "-_"))

	claims := session.DecodeJWTPayload("header." + segment + ".signature")

	assert.Equal(t, "abc?~~>def", claims.Subject)
	assert.Equal(t, "x", claims.Name)
}

func TestDecodeJWTPayload_MalformedNeverPanics(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"empty string", ""},
		{"no separators", "not-a-jwt"},
		{"two segments", "header.payload"},
		{"four segments", "a.b.c.d"},
		{"invalid base64", "header.!!!!.signature"},
		{"valid base64 invalid json", "header." + base64.RawURLEncoding.EncodeToString([]byte("not json")) + ".sig"},
		{"json scalar payload", "header." + base64.RawURLEncoding.EncodeToString([]byte(`42`)) + ".sig"},
		{"exp wrong type", "header." + base64.RawURLEncoding.EncodeToString([]byte(`{"exp":"tomorrow"}`)) + ".sig"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				claims := session.DecodeJWTPayload(tt.token)
				assert.True(t, claims.IsZero())
			})
		})
	}
}

func TestParseIDTokenPayload(t *testing.T) {
	t.Run("materialized payload wins over raw", func(t *testing.T) {
		raw := makeIDToken(t, jwt.MapClaims{"sub": "from-raw"})
		tok := &session.IDToken{
			Raw: raw,
			Payload: map[string]any{
				"sub":   "from-payload",
				"email": "payload@example.com",
			},
		}

		claims := session.ParseIDTokenPayload(tok)

		assert.Equal(t, "from-payload", claims.Subject)
		assert.Equal(t, "payload@example.com", claims.Email)
	})

	t.Run("falls back to decoding the string form", func(t *testing.T) {
		raw := makeIDToken(t, jwt.MapClaims{"sub": "from-raw"})
		claims := session.ParseIDTokenPayload(&session.IDToken{Raw: raw})
		assert.Equal(t, "from-raw", claims.Subject)
	})

	t.Run("nil token yields zero claims", func(t *testing.T) {
		assert.True(t, session.ParseIDTokenPayload(nil).IsZero())
	})

	t.Run("unmarshalable payload degrades to zero claims", func(t *testing.T) {
		tok := &session.IDToken{
			Payload: map[string]any{"sub": func() {}},
		}
		assert.NotPanics(t, func() {
			assert.True(t, session.ParseIDTokenPayload(tok).IsZero())
		})
	})
}

func TestTokenClaims_ExpiresAtMs_NoExp(t *testing.T) {
	_, ok := session.TokenClaims{}.ExpiresAtMs()
	assert.False(t, ok)
}

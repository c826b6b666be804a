package session

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims holds the decoded ID token payload fields the engine uses.
// Claims are only trusted for expiry and identity extraction; signature
// verification is delegated to the provider that issued the token.
type TokenClaims struct {
	Subject     string           `json:"sub,omitempty"`
	ExpiresAt   *jwt.NumericDate `json:"exp,omitempty"`
	Email       string           `json:"email,omitempty"`
	Name        string           `json:"name,omitempty"`
	Picture     string           `json:"picture,omitempty"`
	Username    string           `json:"cognito:username,omitempty"`
	PhoneNumber string           `json:"phone_number,omitempty"`
}

// IsZero reports whether no claim fields were decoded.
func (c TokenClaims) IsZero() bool {
	return c == TokenClaims{}
}

// ExpiresAtMs returns the expiry in unix milliseconds. The second return
// is false when the token carries no exp claim.
func (c TokenClaims) ExpiresAtMs() (int64, bool) {
	if c.ExpiresAt == nil {
		return 0, false
	}
	return c.ExpiresAt.UnixMilli(), true
}

// DecodeJWTPayload decodes the payload segment of a compact JWT without
// verifying it. Any failure at any step degrades to zero-value claims;
// decoding never panics and never returns an error, so session resolution
// falls back to "no claims" instead of crashing.
func DecodeJWTPayload(token string) TokenClaims {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return TokenClaims{}
	}

	payload := base64URLToStd(parts[1])

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return TokenClaims{}
	}

	var claims TokenClaims
	if err := json.Unmarshal(raw, &claims); err != nil {
		return TokenClaims{}
	}
	return claims
}

// ParseIDTokenPayload extracts claims from a provider token. A payload the
// SDK already materialized wins over decoding the compact string form.
func ParseIDTokenPayload(tok *IDToken) TokenClaims {
	if tok == nil {
		return TokenClaims{}
	}
	if len(tok.Payload) > 0 {
		return claimsFromMap(tok.Payload)
	}
	return DecodeJWTPayload(tok.Raw)
}

func claimsFromMap(payload map[string]any) TokenClaims {
	raw, err := json.Marshal(payload)
	if err != nil {
		return TokenClaims{}
	}
	var claims TokenClaims
	if err := json.Unmarshal(raw, &claims); err != nil {
		return TokenClaims{}
	}
	return claims
}

// base64URLToStd rewrites a base64url segment into standard base64,
// restoring the padding stripped by JWT encoders.
func base64URLToStd(segment string) string {
	out := strings.ReplaceAll(segment, "-", "+")
	out = strings.ReplaceAll(out, "_", "/")
	if rem := len(out) % 4; rem != 0 {
		out += strings.Repeat("=", 4-rem)
	}
	return out
}

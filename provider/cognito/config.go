package cognito

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-session"
	"golang.org/x/oauth2"
)

// Config configures the Cognito identity provider.
type Config struct {
	// Region is the user pool's AWS region.
	Region string

	// ClientID is the user pool app client id.
	ClientID string

	// HostedUIDomain is the pool's hosted UI base URL, e.g.
	// "https://myapp.auth.us-east-1.amazoncognito.com". Required only for
	// browser sign-in.
	HostedUIDomain string

	// RedirectURL is where the hosted UI sends the authorization code: a
	// custom scheme on mobile or a loopback listener on desktop.
	RedirectURL string

	// Scopes for the hosted UI flow. Defaults to openid/email/profile.
	Scopes []string

	// Hub receives lifecycle events when set.
	Hub *session.Hub

	// API overrides the SDK client, mainly for tests.
	API CognitoAPI

	// HTTPClient is used for the token exchange.
	HTTPClient *http.Client

	Logger session.Logger
}

// DefaultScopes returns the default hosted UI scopes.
func DefaultScopes() []string {
	return []string{"openid", "email", "profile"}
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Region) == "" {
		return fmt.Errorf("cognito: region is required")
	}
	if strings.TrimSpace(c.ClientID) == "" {
		return fmt.Errorf("cognito: client id is required")
	}
	return nil
}

func (c *Config) oauthConfig() *oauth2.Config {
	if c.HostedUIDomain == "" {
		return nil
	}
	domain := strings.TrimRight(c.HostedUIDomain, "/")
	scopes := c.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes()
	}
	return &oauth2.Config{
		ClientID:    c.ClientID,
		RedirectURL: c.RedirectURL,
		Scopes:      scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  domain + "/oauth2/authorize",
			TokenURL: domain + "/oauth2/token",
		},
	}
}

func (c *Config) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}

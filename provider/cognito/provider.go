package cognito

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/goliatone/go-session"
	"golang.org/x/oauth2"
)

// Cognito user attribute names consumed when mapping the user record.
const (
	attrSub   = "sub"
	attrEmail = "email"
)

// CognitoAPI captures the pool operations the provider uses, so tests can
// substitute a fake for the SDK client.
type CognitoAPI interface {
	GetUser(ctx context.Context, in *cip.GetUserInput, optFns ...func(*cip.Options)) (*cip.GetUserOutput, error)
	InitiateAuth(ctx context.Context, in *cip.InitiateAuthInput, optFns ...func(*cip.Options)) (*cip.InitiateAuthOutput, error)
	GlobalSignOut(ctx context.Context, in *cip.GlobalSignOutInput, optFns ...func(*cip.Options)) (*cip.GlobalSignOutOutput, error)
}

type tokenSet struct {
	idToken      string
	accessToken  string
	refreshToken string
}

// Provider implements session.IdentityProvider backed by a Cognito user
// pool. Tokens live in memory; the engine decodes expiry from claims and
// asks for a forced refresh when needed.
type Provider struct {
	config Config
	api    CognitoAPI
	oauth  *oauth2.Config
	hub    *session.Hub
	logger session.Logger

	mu     sync.Mutex
	tokens tokenSet
}

var _ session.IdentityProvider = (*Provider)(nil)

// New creates a Cognito-backed identity provider.
func New(cfg Config) (*Provider, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	api := cfg.API
	if api == nil {
		api = cip.New(cip.Options{
			Region:      cfg.Region,
			Credentials: aws.AnonymousCredentials{},
		})
	}

	logger := cfg.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	return &Provider{
		config: cfg,
		api:    api,
		oauth:  cfg.oauthConfig(),
		hub:    cfg.Hub,
		logger: logger,
	}, nil
}

// GetCurrentUser implements session.IdentityProvider. It maps the pool's
// user record onto the engine's provider user shape.
func (p *Provider) GetCurrentUser(ctx context.Context) (*session.ProviderUser, error) {
	access := p.snapshotTokens().accessToken
	if access == "" {
		return nil, fmt.Errorf("cognito: no signed-in user")
	}

	out, err := p.api.GetUser(ctx, &cip.GetUserInput{
		AccessToken: aws.String(access),
	})
	if err != nil {
		return nil, fmt.Errorf("cognito: failed to fetch user record: %w", err)
	}

	user := &session.ProviderUser{
		Username: aws.ToString(out.Username),
	}
	for _, attr := range out.UserAttributes {
		switch aws.ToString(attr.Name) {
		case attrSub:
			user.UserID = aws.ToString(attr.Value)
		case attrEmail:
			user.LoginID = aws.ToString(attr.Value)
		}
	}
	return user, nil
}

// FetchAuthSession implements session.IdentityProvider. Without tokens it
// returns an empty session so the engine degrades to its no-token failure
// instead of a transport error. A forced refresh exchanges the refresh
// token for fresh credentials.
func (p *Provider) FetchAuthSession(ctx context.Context, opts session.FetchOptions) (*session.AuthSession, error) {
	tokens := p.snapshotTokens()

	if opts.ForceRefresh && tokens.refreshToken != "" {
		refreshed, err := p.refresh(ctx, tokens.refreshToken)
		if err != nil {
			p.publish(session.EventTokenRefreshFailure, map[string]any{"error": err.Error()})
			return nil, err
		}
		tokens = refreshed
		p.publish(session.EventTokenRefresh, nil)
	}

	if tokens.idToken == "" {
		return &session.AuthSession{}, nil
	}

	return &session.AuthSession{
		IDToken: &session.IDToken{Raw: tokens.idToken},
	}, nil
}

// SignOut implements session.IdentityProvider. The pool call is best
// effort; local tokens always clear and the signedOut event always fires.
func (p *Provider) SignOut(ctx context.Context) error {
	access := p.snapshotTokens().accessToken

	var err error
	if access != "" {
		_, err = p.api.GlobalSignOut(ctx, &cip.GlobalSignOutInput{
			AccessToken: aws.String(access),
		})
		if err != nil {
			p.logger.Warn("cognito global sign out failed: %v", err)
		}
	}

	p.setTokens(tokenSet{})
	p.publish(session.EventSignedOut, nil)
	return err
}

func (p *Provider) refresh(ctx context.Context, refreshToken string) (tokenSet, error) {
	out, err := p.api.InitiateAuth(ctx, &cip.InitiateAuthInput{
		AuthFlow: types.AuthFlowTypeRefreshTokenAuth,
		ClientId: aws.String(p.config.ClientID),
		AuthParameters: map[string]string{
			"REFRESH_TOKEN": refreshToken,
		},
	})
	if err != nil {
		return tokenSet{}, fmt.Errorf("cognito: token refresh failed: %w", err)
	}

	result := out.AuthenticationResult
	if result == nil {
		return tokenSet{}, fmt.Errorf("cognito: token refresh returned no credentials")
	}

	tokens := tokenSet{
		idToken:      aws.ToString(result.IdToken),
		accessToken:  aws.ToString(result.AccessToken),
		refreshToken: aws.ToString(result.RefreshToken),
	}
	// Refresh responses usually omit the refresh token; keep the old one.
	if tokens.refreshToken == "" {
		tokens.refreshToken = refreshToken
	}

	p.setTokens(tokens)
	return tokens, nil
}

// BeginHostedUI returns the hosted UI authorization URL and the PKCE
// verifier the caller must present to CompleteHostedUI.
func (p *Provider) BeginHostedUI(state string) (authURL, verifier string, err error) {
	if p.oauth == nil {
		return "", "", fmt.Errorf("cognito: hosted UI domain not configured")
	}
	verifier = oauth2.GenerateVerifier()
	authURL = p.oauth.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
	return authURL, verifier, nil
}

// CompleteHostedUI exchanges the authorization code delivered by the
// redirect for tokens and publishes the redirect outcome event.
func (p *Provider) CompleteHostedUI(ctx context.Context, code, verifier string) error {
	if p.oauth == nil {
		return fmt.Errorf("cognito: hosted UI domain not configured")
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.config.httpClient())

	tok, err := p.oauth.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		p.publish(session.EventSignInWithRedirectFailure, map[string]any{"error": err.Error()})
		return fmt.Errorf("cognito: code exchange failed: %w", err)
	}

	idToken, _ := tok.Extra("id_token").(string)
	p.setTokens(tokenSet{
		idToken:      idToken,
		accessToken:  tok.AccessToken,
		refreshToken: tok.RefreshToken,
	})

	p.publish(session.EventSignInWithRedirect, nil)
	return nil
}

// SeedTokens installs an externally obtained token set, e.g. restored by
// platform glue or minted in tests.
func (p *Provider) SeedTokens(idToken, accessToken, refreshToken string) {
	p.setTokens(tokenSet{
		idToken:      idToken,
		accessToken:  accessToken,
		refreshToken: refreshToken,
	})
}

func (p *Provider) snapshotTokens() tokenSet {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tokens
}

func (p *Provider) setTokens(tokens tokenSet) {
	p.mu.Lock()
	p.tokens = tokens
	p.mu.Unlock()
}

func (p *Provider) publish(event session.AuthEvent, data map[string]any) {
	if p.hub == nil {
		return
	}
	p.hub.Publish(session.HubMessage{Event: event, Data: data})
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

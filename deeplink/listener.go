// Package deeplink bridges browser-based auth redirects into the session
// engine on platforms without a custom URL scheme. It runs a loopback HTTP
// listener that receives the provider's redirect, completes the code
// exchange, forwards the callback URL into the engine's URL source, and
// renders a small "you can close this window" page.
package deeplink

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/django/v3"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-session"
)

//go:embed views
var viewsFS embed.FS

// DefaultCallbackPath is where the provider redirect lands.
const DefaultCallbackPath = "/auth/callback"

// Exchanger completes a hosted UI code exchange. Satisfied by
// cognito.Provider.
type Exchanger interface {
	CompleteHostedUI(ctx context.Context, code, verifier string) error
}

// Config configures the loopback listener.
type Config struct {
	// Addr to bind, e.g. "127.0.0.1:49152".
	Addr string

	// CallbackPath defaults to DefaultCallbackPath.
	CallbackPath string

	// URLs is the engine's URL dispatcher; every received callback URL is
	// forwarded there.
	URLs *session.URLEvents

	// Exchanger completes the code exchange before the URL is forwarded,
	// so the engine's settle-then-resolve finds tokens in place.
	Exchanger Exchanger

	Logger session.Logger
}

// Listener is the loopback redirect listener.
type Listener struct {
	config Config
	urls   *session.URLEvents
	logger session.Logger
	srv    router.Server[*fiber.App]
	app    *fiber.App

	mu        sync.Mutex
	verifiers map[string]string
}

// New builds the listener and its routes. Call Start to begin serving.
func New(cfg Config) (*Listener, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("deeplink: listen address is required")
	}
	if cfg.URLs == nil {
		return nil, fmt.Errorf("deeplink: URL dispatcher is required")
	}
	if cfg.CallbackPath == "" {
		cfg.CallbackPath = DefaultCallbackPath
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	views, err := fs.Sub(viewsFS, "views")
	if err != nil {
		return nil, fmt.Errorf("deeplink: unable to scope embedded views: %w", err)
	}
	engine := django.NewFileSystem(http.FS(views), ".html")

	l := &Listener{
		config:    cfg,
		urls:      cfg.URLs,
		logger:    logger,
		verifiers: map[string]string{},
	}

	l.srv = router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		l.app = router.DefaultFiberOptions(fiber.New(fiber.Config{
			Views:                 engine,
			DisableStartupMessage: true,
		}))
		return l.app
	})

	l.srv.Router().Get(cfg.CallbackPath, l.handleCallback)

	return l, nil
}

// RegisterFlow stores the PKCE verifier for a pending hosted UI flow,
// keyed by the OAuth state parameter.
func (l *Listener) RegisterFlow(state, verifier string) {
	l.mu.Lock()
	l.verifiers[state] = verifier
	l.mu.Unlock()
}

// Start begins serving the loopback listener.
func (l *Listener) Start() {
	l.logger.Info("deeplink listener on %s%s", l.config.Addr, l.config.CallbackPath)
	l.srv.Serve(l.config.Addr)
}

// Close shuts the listener down.
func (l *Listener) Close() error {
	if l.app == nil {
		return nil
	}
	return l.app.Shutdown()
}

// CallbackURL returns the redirect URL providers should be configured
// with.
func (l *Listener) CallbackURL() string {
	return "http://" + l.config.Addr + l.config.CallbackPath
}

func (l *Listener) handleCallback(ctx router.Context) error {
	if errCode := ctx.Query("error"); errCode != "" {
		l.logger.Warn("auth redirect returned error %q: %s", errCode, ctx.Query("error_description"))
		return ctx.Render("signin_complete", router.ViewContext{
			"title":   "Sign-in failed",
			"message": "The sign-in attempt was not completed. You can close this window and try again.",
		})
	}

	code := ctx.Query("code")
	state := ctx.Query("state")
	if code == "" {
		return ctx.Status(http.StatusBadRequest).SendString("missing authorization code")
	}

	if l.config.Exchanger != nil {
		verifier := l.takeVerifier(state)
		if err := l.config.Exchanger.CompleteHostedUI(ctx.Context(), code, verifier); err != nil {
			l.logger.Error("code exchange failed: %v", err)
			return ctx.Render("signin_complete", router.ViewContext{
				"title":   "Sign-in failed",
				"message": "We could not complete the sign-in. You can close this window and try again.",
			})
		}
	}

	l.urls.Dispatch(l.callbackURL(code, state))

	return ctx.Render("signin_complete", router.ViewContext{
		"title":   "Sign-in complete",
		"message": "You are signed in. You can close this window and return to the app.",
	})
}

func (l *Listener) takeVerifier(state string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	verifier := l.verifiers[state]
	delete(l.verifiers, state)
	return verifier
}

func (l *Listener) callbackURL(code, state string) string {
	query := url.Values{}
	query.Set("code", code)
	if state != "" {
		query.Set("state", state)
	}
	base := strings.TrimRight(l.CallbackURL(), "/")
	return base + "?" + query.Encode()
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

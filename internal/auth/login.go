package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotx/internal/server"
	"github.com/desertthunder/spotx/internal/shared"
)

const (
	DefaultLoginTimeout = 60 * time.Second

	shutdownTimeout = 2 * time.Second
)

// EventEmitter records lifecycle events. Implementations must not fail the caller.
type EventEmitter interface {
	Emit(event string, data map[string]any)
}

// LoginOptions configures a [Coordinator].
type LoginOptions struct {
	Credentials Credentials

	// RedirectURI pins the callback port when set. Otherwise Ports are probed in order.
	RedirectURI  string
	Ports        []int
	Timeout      time.Duration
	ProbeTimeout time.Duration

	Store      *Store
	HTTPClient *http.Client
	Logger     *log.Logger
	Events     EventEmitter

	// OpenBrowser launches the authorization URL. Failures are logged and ignored.
	OpenBrowser func(string) error

	// OnAuthorize runs before the browser is opened with the URL and the redirect URI in use.
	OnAuthorize func(authURL, redirectURI string)
}

// AuthSession is the transient state of one login attempt.
type AuthSession struct {
	State       string
	RedirectURI string
	Port        int
	Code        string
}

// LoginResult is returned by a successful [Coordinator.Login].
type LoginResult struct {
	Token       *TokenRecord
	RedirectURI string
	Port        int
	Scopes      []string
}

// Coordinator runs the authorization code flow against a loopback callback listener.
type Coordinator struct {
	opts LoginOptions
	now  func() time.Time
}

// NewCoordinator creates a coordinator, filling in defaults for unset options.
func NewCoordinator(opts LoginOptions) *Coordinator {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultLoginTimeout
	}
	if len(opts.Ports) == 0 {
		opts.Ports = DefaultCallbackPorts
	}
	if len(opts.Credentials.Scopes) == 0 {
		opts.Credentials.Scopes = DefaultScopes
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}
	return &Coordinator{opts: opts, now: time.Now}
}

// Login obtains and persists a token. The callback listener is stopped before Login returns.
func (c *Coordinator) Login(ctx context.Context) (*LoginResult, error) {
	result, err := c.login(ctx)
	if err != nil {
		c.emit("auth.login_failed", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.emit("auth.login_completed", map[string]any{
		"redirect_uri":  result.RedirectURI,
		"callback_port": result.Port,
		"scopes":        result.Scopes,
	})
	return result, nil
}

func (c *Coordinator) login(ctx context.Context) (*LoginResult, error) {
	if !c.opts.Credentials.Configured() {
		return nil, fmt.Errorf("%w: client_id and client_secret are required, run `spotx setup`", shared.ErrConfigurationMissing)
	}

	sess, err := c.newSession()
	if err != nil {
		return nil, err
	}

	cfg := c.opts.Credentials.OAuthConfig(sess.RedirectURI)
	authURL := cfg.AuthCodeURL(sess.State)

	c.opts.Logger.Debug("starting login", "redirect_uri", sess.RedirectURI)
	c.emit("auth.login_started", map[string]any{
		"redirect_uri":  sess.RedirectURI,
		"callback_port": sess.Port,
	})

	if err := c.awaitCode(ctx, sess, authURL); err != nil {
		return nil, err
	}

	tok, err := cfg.Exchange(withHTTPClient(ctx, c.opts.HTTPClient), sess.Code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrTokenExchangeFailed, err)
	}

	rec := recordFromToken(tok, c.now())
	if c.opts.Store != nil {
		if err := c.opts.Store.Save(rec); err != nil {
			return nil, err
		}
	}

	return &LoginResult{
		Token:       rec,
		RedirectURI: sess.RedirectURI,
		Port:        sess.Port,
		Scopes:      cfg.Scopes,
	}, nil
}

// newSession picks the callback port and generates a fresh state nonce.
func (c *Coordinator) newSession() (*AuthSession, error) {
	var (
		port        int
		redirectURI string
		err         error
	)

	if c.opts.RedirectURI != "" {
		if port, err = parseRedirectOverride(c.opts.RedirectURI); err != nil {
			return nil, err
		}
		if portInUse(port, c.opts.ProbeTimeout) {
			return nil, fmt.Errorf("%w: redirect_uri port %d is in use", shared.ErrNoPortAvailable, port)
		}
		redirectURI = c.opts.RedirectURI
	} else {
		if port, err = SelectPort(c.opts.Ports, c.opts.ProbeTimeout); err != nil {
			return nil, err
		}
		redirectURI = RedirectURI(port)
	}

	state, err := shared.GenerateState()
	if err != nil {
		return nil, err
	}

	return &AuthSession{State: state, RedirectURI: redirectURI, Port: port}, nil
}

// awaitCode serves the callback until a code arrives, the timeout elapses, or ctx is cancelled.
func (c *Coordinator) awaitCode(ctx context.Context, sess *AuthSession, authURL string) error {
	ln, err := net.Listen("tcp", net.JoinHostPort(LoopbackHost, strconv.Itoa(sess.Port)))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrNoPortAvailable, err)
	}

	callback := server.NewCallbackHandler(sess.State)
	router := server.NewBasicRouter()
	router.Use(server.LogRequests(c.opts.Logger))
	router.Handler(callback)
	router.Handle(http.MethodGet, "/", http.HandlerFunc(server.WaitingPage))

	srv := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()
	defer c.shutdown(srv)

	if c.opts.OnAuthorize != nil {
		c.opts.OnAuthorize(authURL, sess.RedirectURI)
	}
	if err := c.opts.OpenBrowser(authURL); err != nil {
		c.opts.Logger.Warn("could not open browser, visit the URL manually", "error", err)
	}

	timer := time.NewTimer(c.opts.Timeout)
	defer timer.Stop()

	select {
	case result := <-callback.Result():
		if err := result.Error(); err != nil {
			return err
		}
		sess.Code = result.Code
		return nil
	case err := <-serveErr:
		return fmt.Errorf("callback server failed: %w", err)
	case <-timer.C:
		return fmt.Errorf("%w: no callback within %s", shared.ErrAuthTimeout, c.opts.Timeout)
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", shared.ErrAuthCancelled, ctx.Err())
	}
}

func (c *Coordinator) shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		c.opts.Logger.Debug("forcing callback server close", "error", err)
		srv.Close()
	}
}

func (c *Coordinator) emit(event string, data map[string]any) {
	if c.opts.Events != nil {
		c.opts.Events.Emit(event, data)
	}
}

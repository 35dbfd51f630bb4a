package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"tuneshift/internal/services"
	"tuneshift/internal/shared"
)

// youtubeScope grants playlist management on the authorizing account.
const youtubeScope = "https://www.googleapis.com/auth/youtube"

// defaultConsentTimeout bounds how long the flow waits for the user to
// complete the consent screen.
const defaultConsentTimeout = 3 * time.Minute

// GoogleEndpoint is the OAuth2 endpoint for Google accounts.
var GoogleEndpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.google.com/o/oauth2/auth",
	TokenURL: "https://oauth2.googleapis.com/token",
}

// ConsentFlow produces YouTube access tokens for the publishing pipeline.
//
// A persisted token is served while still valid, refreshed via its refresh
// token when expired, and re-acquired through a browser consent flow against
// a temporary localhost callback server when neither works.
type ConsentFlow struct {
	oauth       *oauth2.Config
	addr        string
	logger      *log.Logger
	openBrowser func(string) error
	persist     func(*oauth2.Token) error
	timeout     time.Duration

	mu     sync.Mutex
	cached *oauth2.Token
}

var _ services.TokenProvider = (*ConsentFlow)(nil)

// NewConsentFlow builds a flow from the application config. Tokens acquired
// or refreshed are written back to configPath unless it is empty.
func NewConsentFlow(cfg *shared.Config, configPath string, logger *log.Logger) (*ConsentFlow, error) {
	yt := cfg.Credentials.YouTube
	if yt.ClientID == "" || yt.ClientSecret == "" {
		return nil, fmt.Errorf("%w: youtube client_id and client_secret are required", shared.ErrMissingCredentials)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	redirect := yt.RedirectURI
	if redirect == "" {
		redirect = fmt.Sprintf("http://%s/callback", addr)
	}

	flow := &ConsentFlow{
		oauth: &oauth2.Config{
			ClientID:     yt.ClientID,
			ClientSecret: yt.ClientSecret,
			RedirectURL:  redirect,
			Scopes:       []string{youtubeScope},
			Endpoint:     GoogleEndpoint,
		},
		addr:        addr,
		logger:      logger,
		openBrowser: shared.OpenBrowser,
		timeout:     defaultConsentTimeout,
	}

	if yt.AccessToken != "" || yt.RefreshToken != "" {
		flow.cached = &oauth2.Token{
			AccessToken:  yt.AccessToken,
			RefreshToken: yt.RefreshToken,
			Expiry:       yt.TokenExpiry,
			TokenType:    "Bearer",
		}
	}

	if configPath != "" {
		flow.persist = func(token *oauth2.Token) error {
			cfg.Credentials.YouTube.AccessToken = token.AccessToken
			if token.RefreshToken != "" {
				cfg.Credentials.YouTube.RefreshToken = token.RefreshToken
			}
			cfg.Credentials.YouTube.TokenExpiry = token.Expiry
			return shared.SaveConfig(cfg, configPath)
		}
	}

	return flow, nil
}

// GetAccessToken returns a valid token, refreshing or re-running the consent
// flow as needed. Safe for concurrent use.
func (f *ConsentFlow) GetAccessToken(ctx context.Context) (*oauth2.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cached.Valid() {
		return f.cached, nil
	}

	if f.cached != nil && f.cached.RefreshToken != "" {
		token, err := f.oauth.TokenSource(ctx, f.cached).Token()
		if err == nil {
			f.store(token)
			return token, nil
		}
		f.logger.Warnf("%v: %v", shared.ErrRefreshFailed, err)
	}

	token, err := f.authorize(ctx)
	if err != nil {
		return nil, err
	}

	f.store(token)
	return token, nil
}

// store caches the token and persists it if a persist hook is configured.
func (f *ConsentFlow) store(token *oauth2.Token) {
	f.cached = token
	if f.persist != nil {
		if err := f.persist(token); err != nil {
			f.logger.Warnf("failed to persist token: %v", err)
		}
	}
}

// authorize runs the interactive browser consent flow: start a callback
// server, open the consent URL, and wait for exactly one callback.
func (f *ConsentFlow) authorize(ctx context.Context) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	listener, err := net.Listen("tcp", f.addr)
	if err != nil {
		return nil, fmt.Errorf("failed to start callback server: %w", err)
	}

	if f.oauth.RedirectURL == "" {
		f.oauth.RedirectURL = fmt.Sprintf("http://%s/callback", listener.Addr())
	}

	handler := NewCallbackHandler(f.oauth, state)
	router := NewBasicRouter()
	router.Use(RequestLogger(f.logger))
	router.Handler(handler)

	srv := &http.Server{Handler: router}
	go srv.Serve(listener)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	authURL := f.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	f.logger.Info("waiting for YouTube authorization", "url", authURL)

	if err := f.openBrowser(authURL); err != nil {
		f.logger.Warnf("failed to open browser, visit the URL manually: %v", err)
	}

	select {
	case result := <-handler.Result():
		if err := result.Error(); err != nil {
			return nil, err
		}
		return result.Token, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(f.timeout):
		return nil, fmt.Errorf("%w: no authorization callback received", shared.ErrTimeout)
	}
}

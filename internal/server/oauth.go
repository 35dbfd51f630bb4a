package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/oauth2"

	"tuneshift/internal/shared"
)

// ConsentResult carries the outcome of a browser consent flow.
type ConsentResult struct {
	Token *oauth2.Token
	err   error
}

func (r *ConsentResult) Error() error {
	return r.err
}

// CallbackHandler handles the OAuth2 authorization code callback from Google.
// Implements the [Handler] interface for registration with a [Router].
type CallbackHandler struct {
	config      *oauth2.Config
	state       string
	resultChan  chan ConsentResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewCallbackHandler creates a callback handler bound to the given OAuth2
// config and state token. The state token must be cryptographically random.
func NewCallbackHandler(config *oauth2.Config, state string) *CallbackHandler {
	return &CallbackHandler{
		config:     config,
		state:      state,
		resultChan: make(chan ConsentResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{"/callback"}
}

// ServeHTTP validates the state parameter, exchanges the authorization code
// for tokens, and delivers the result through the result channel.
//
// Only the first callback is processed; repeats get a 400.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	if state := r.URL.Query().Get("state"); state != h.state {
		h.send(ConsentResult{err: fmt.Errorf("%w: state parameter mismatch", shared.ErrAuthFailed)})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		errParam := r.URL.Query().Get("error")

		var err error
		if errParam == "access_denied" {
			err = fmt.Errorf("%w: user declined the consent screen", shared.ErrConsentDenied)
		} else {
			err = fmt.Errorf("%w: %s - %s", shared.ErrAuthFailed, errParam, r.URL.Query().Get("error_description"))
		}

		h.send(ConsentResult{err: err})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	token, err := h.config.Exchange(context.Background(), code)
	if err != nil {
		h.send(ConsentResult{err: fmt.Errorf("%w: token exchange failed: %v", shared.ErrAuthFailed, err)})
		http.Error(w, "Token exchange failed", http.StatusInternalServerError)
		return
	}

	h.send(ConsentResult{Token: token})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, consentSuccessPage)
}

// send delivers the consent result exactly once and closes the channel.
func (h *CallbackHandler) send(result ConsentResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the channel that receives the flow's single outcome.
//
// The channel receives exactly one result and is then closed.
func (h *CallbackHandler) Result() <-chan ConsentResult {
	return h.resultChan
}

const consentSuccessPage = `
<!DOCTYPE html>
<html>
<head>
    <title>Authorization Successful</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #FF0000; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>&#10003; YouTube Access Granted</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`

package server

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"sync"

	"github.com/desertthunder/spotx/internal/shared"
)

// CallbackPath is the redirect path registered with the identity provider.
const CallbackPath = "/callback"

// CallbackResult carries the outcome of the provider redirect: an authorization code or an error.
type CallbackResult struct {
	Code string
	err  error
}

func (c CallbackResult) Error() error {
	return c.err
}

// CallbackHandler receives the OAuth2 authorization-code redirect and hands the code to the
// login flow over a channel. It does not exchange the code itself.
type CallbackHandler struct {
	state     string
	results   chan CallbackResult
	once      sync.Once
	mu        sync.Mutex
	delivered bool
}

// NewCallbackHandler creates a handler that only accepts redirects carrying state.
func NewCallbackHandler(state string) *CallbackHandler {
	return &CallbackHandler{
		state:   state,
		results: make(chan CallbackResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{CallbackPath}
}

// ServeHTTP handles the redirect.
//
// A mismatched state is rejected without ending the flow, so a stray request cannot abort a login.
// A provider error (e.g. access_denied) ends it with [shared.ErrAuthCancelled].
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	code, providerErr := q.Get("code"), q.Get("error")
	if code == "" && providerErr == "" {
		WaitingPage(w, r)
		return
	}

	if subtle.ConstantTimeCompare([]byte(q.Get("state")), []byte(h.state)) != 1 {
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	if h.delivered {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.delivered = true
	h.mu.Unlock()

	if providerErr != "" {
		h.Send(CallbackResult{err: fmt.Errorf("%w: %s %s", shared.ErrAuthCancelled, providerErr, q.Get("error_description"))})
		writePage(w, http.StatusOK, "Authorization Cancelled", "Spotify did not grant access. You can close this window.")
		return
	}

	h.Send(CallbackResult{Code: code})
	writePage(w, http.StatusOK, "✓ Connected to Spotify", "You can close this window and return to the terminal.")
}

// Send delivers result to the waiting login flow (only once).
func (h *CallbackHandler) Send(result CallbackResult) {
	h.once.Do(func() {
		h.results <- result
		close(h.results)
	})
}

// Result returns the channel that receives exactly one result and is then closed.
func (h *CallbackHandler) Result() <-chan CallbackResult {
	return h.results
}

// WaitingPage answers every request that is not a completed redirect.
func WaitingPage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "Waiting for Spotify callback...")
}

func writePage(w http.ResponseWriter, status int, title, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head>
    <title>spotx</title>
    <style>
        body { background: #000; color: #1DB954; font-family: -apple-system, system-ui, sans-serif;
               display: flex; justify-content: center; align-items: center; height: 100vh; margin: 0; }
        .container { text-align: center; }
        h1 { font-size: 3em; margin: 0 0 1rem 0; }
        p { font-size: 1.25em; color: #fff; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>%s</h1>
        <p>%s</p>
    </div>
</body>
</html>
`, title, message)
}

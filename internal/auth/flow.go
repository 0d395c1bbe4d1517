package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nikitatsym/ticktick-mcp/internal/browser"
	"github.com/nikitatsym/ticktick-mcp/internal/logging"
)

const (
	defaultCallbackAddr    = "localhost:8742"
	callbackPath           = "/callback"
	interactiveFlowTimeout = 5 * time.Minute
)

// openBrowser is swapped out in tests.
var openBrowser = browser.OpenURL

const successPage = `<!DOCTYPE html>
<html>
<head><title>ticktick-mcp</title></head>
<body>
<h2>Authorization complete</h2>
<p>You can close this window and return to your terminal.</p>
</body>
</html>`

// callbackResult carries the query parameters of the authorization
// redirect.
type callbackResult struct {
	code     string
	state    string
	errParam string
}

// callbackServer is a one-shot local listener for the authorization
// redirect. The listener is bound up front so a busy port surfaces as a
// bind failure before the browser opens.
type callbackServer struct {
	listener net.Listener
	server   *http.Server
	result   chan callbackResult
}

func startCallbackServer(addr string) (*callbackServer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to bind callback listener on %s: %w", addr, err)
	}

	s := &callbackServer{
		listener: ln,
		result:   make(chan callbackResult, 1),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, s.handleCallback)
	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		_ = s.server.Serve(ln)
	}()

	return s, nil
}

func (s *callbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	res := callbackResult{
		code:     query.Get("code"),
		state:    query.Get("state"),
		errParam: query.Get("error"),
	}

	// Only the first callback counts; stale or duplicate callbacks are
	// dropped here and rejected by the state check in the flow.
	select {
	case s.result <- res:
	default:
	}

	if res.errParam != "" || res.code == "" {
		http.Error(w, "Authorization failed. You can close this window.", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = fmt.Fprint(w, successPage)
}

func (s *callbackServer) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = s.server.Shutdown(ctx)
}

// interactiveFlow opens the provider's authorization page in a browser and
// waits for the redirect on a local listener. The listener is released on
// every exit path; the wait is bounded by the flow timeout.
func (m *Manager) interactiveFlow(ctx context.Context) (*TokenRecord, error) {
	state := uuid.NewString()

	srv, err := startCallbackServer(m.callbackAddr)
	if err != nil {
		return nil, &AuthError{Op: "interactive flow", Hint: remediationHint, Err: err}
	}
	defer srv.stop()

	redirectURI := fmt.Sprintf("http://%s%s", m.callbackAddr, callbackPath)
	authURL := m.oauthConfig(redirectURI).AuthCodeURL(state)
	m.logger.Info("waiting for authorization in browser",
		logging.Operation("interactive flow"))
	if err := openBrowser(authURL); err != nil {
		m.logger.Warn("could not open browser, visit the authorization URL manually",
			logging.Err(err), "url", authURL)
	}

	var res callbackResult
	select {
	case res = <-srv.result:
	case <-time.After(m.flowTimeout):
		return nil, &AuthError{Op: "interactive flow", Hint: remediationHint,
			Err: errors.New("timed out waiting for authorization callback")}
	case <-ctx.Done():
		return nil, &AuthError{Op: "interactive flow", Hint: remediationHint, Err: ctx.Err()}
	}

	if res.errParam != "" {
		return nil, &AuthError{Op: "interactive flow", Hint: remediationHint,
			Err: fmt.Errorf("provider returned error %q", res.errParam)}
	}
	if res.state != state {
		// A mismatched state signals a forged or stale callback; the code
		// it carries must never reach the token endpoint.
		return nil, &AuthError{Op: "interactive flow", Hint: remediationHint,
			Err: errors.New("state token mismatch in authorization callback")}
	}
	if res.code == "" {
		return nil, &AuthError{Op: "interactive flow", Hint: remediationHint,
			Err: errors.New("authorization callback carried no code")}
	}

	rec, err := m.exchange(ctx, res.code, redirectURI)
	if err != nil {
		return nil, err
	}
	if err := m.store.Save(rec); err != nil {
		m.logger.Warn("failed to persist token record", logging.Err(err))
	}
	m.logger.Info("tokens saved", "path", m.store.Path())
	return rec, nil
}

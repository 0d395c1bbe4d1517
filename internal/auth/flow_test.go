package auth

import (
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// freeAddr reserves a localhost port and releases it for the flow to bind.
func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

// browserStub replaces the real browser opener and simulates the provider
// redirecting back to the local callback.
func browserStub(t *testing.T, callback func(authURL *url.URL)) func() {
	t.Helper()
	orig := openBrowser
	openBrowser = func(rawURL string) error {
		u, err := url.Parse(rawURL)
		require.NoError(t, err)
		callback(u)
		return nil
	}
	return func() { openBrowser = orig }
}

func TestInteractiveFlowSuccess(t *testing.T) {
	idp := newFakeIDP()
	srv := httptest.NewServer(idp.handler())
	defer srv.Close()

	addr := freeAddr(t)
	store := tempStore(t)
	m := newTestManager(t, srv, Options{
		Store:        store,
		CallbackAddr: addr,
		FlowTimeout:  5 * time.Second,
	})
	m.noBrowser = false

	restore := browserStub(t, func(authURL *url.URL) {
		state := authURL.Query().Get("state")
		assert.NotEmpty(t, state)
		assert.Equal(t, "code", authURL.Query().Get("response_type"))

		resp, err := http.Get("http://" + addr + callbackPath + "?code=granted-code&state=" + state)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
	defer restore()

	token, err := m.AccessToken(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "new-access", token)

	calls := idp.tokenCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "authorization_code", calls[0].grantType)
	assert.Equal(t, "granted-code", calls[0].code)
	assert.Equal(t, "http://"+addr+callbackPath, calls[0].redirectURI)

	persisted := store.Load()
	require.NotNil(t, persisted)
	assert.Equal(t, "new-access", persisted.AccessToken)
}

func TestInteractiveFlowStateMismatch(t *testing.T) {
	idp := newFakeIDP()
	srv := httptest.NewServer(idp.handler())
	defer srv.Close()

	addr := freeAddr(t)
	m := newTestManager(t, srv, Options{
		CallbackAddr: addr,
		FlowTimeout:  5 * time.Second,
	})
	m.noBrowser = false

	restore := browserStub(t, func(*url.URL) {
		resp, err := http.Get("http://" + addr + callbackPath + "?code=forged-code&state=forged-state")
		require.NoError(t, err)
		resp.Body.Close()
	})
	defer restore()

	_, err := m.AccessToken(t.Context())
	require.Error(t, err)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Empty(t, idp.tokenCalls(), "a forged callback must never reach the token endpoint")
}

func TestInteractiveFlowMissingCode(t *testing.T) {
	idp := newFakeIDP()
	srv := httptest.NewServer(idp.handler())
	defer srv.Close()

	addr := freeAddr(t)
	m := newTestManager(t, srv, Options{
		CallbackAddr: addr,
		FlowTimeout:  5 * time.Second,
	})
	m.noBrowser = false

	restore := browserStub(t, func(authURL *url.URL) {
		state := authURL.Query().Get("state")
		resp, err := http.Get("http://" + addr + callbackPath + "?state=" + state)
		require.NoError(t, err)
		resp.Body.Close()
	})
	defer restore()

	_, err := m.AccessToken(t.Context())
	require.Error(t, err)
	assert.Empty(t, idp.tokenCalls())
}

func TestInteractiveFlowTimeout(t *testing.T) {
	idp := newFakeIDP()
	srv := httptest.NewServer(idp.handler())
	defer srv.Close()

	addr := freeAddr(t)
	m := newTestManager(t, srv, Options{
		CallbackAddr: addr,
		FlowTimeout:  100 * time.Millisecond,
	})
	m.noBrowser = false

	restore := browserStub(t, func(*url.URL) {})
	defer restore()

	start := time.Now()
	_, err := m.AccessToken(t.Context())
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)

	// The listener must be released after the timeout.
	ln, err := net.Listen("tcp", addr)
	require.NoError(t, err)
	_ = ln.Close()
}

func TestInteractiveFlowBindFailure(t *testing.T) {
	idp := newFakeIDP()
	srv := httptest.NewServer(idp.handler())
	defer srv.Close()

	addr := freeAddr(t)
	// Occupy the callback port so the flow cannot bind it.
	ln, err := net.Listen("tcp", addr)
	require.NoError(t, err)
	defer ln.Close()

	m := newTestManager(t, srv, Options{
		CallbackAddr: addr,
		FlowTimeout:  time.Second,
	})
	m.noBrowser = false

	restore := browserStub(t, func(*url.URL) {
		t.Error("browser must not open when the listener cannot bind")
	})
	defer restore()

	_, err = m.AccessToken(t.Context())
	require.Error(t, err)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Empty(t, idp.tokenCalls())
}

func TestDuplicateCallbackIsIgnored(t *testing.T) {
	idp := newFakeIDP()
	srv := httptest.NewServer(idp.handler())
	defer srv.Close()

	addr := freeAddr(t)
	m := newTestManager(t, srv, Options{
		CallbackAddr: addr,
		FlowTimeout:  5 * time.Second,
	})
	m.noBrowser = false

	restore := browserStub(t, func(authURL *url.URL) {
		state := authURL.Query().Get("state")
		// First callback wins; the stale duplicate is dropped.
		for _, qs := range []string{
			"?code=first-code&state=" + state,
			"?code=stale-code&state=stale",
		} {
			resp, err := http.Get("http://" + addr + callbackPath + qs)
			require.NoError(t, err)
			resp.Body.Close()
		}
	})
	defer restore()

	token, err := m.AccessToken(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "new-access", token)

	calls := idp.tokenCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "first-code", calls[0].code)
}

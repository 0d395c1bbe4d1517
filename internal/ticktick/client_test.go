package ticktick

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCreds is an in-memory credential source with call counting.
type fakeCreds struct {
	mu           sync.Mutex
	token        string
	refreshedTo  string
	refreshErr   error
	accessCalls  int
	refreshCalls int
}

func (f *fakeCreds) AccessToken(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accessCalls++
	return f.token, nil
}

func (f *fakeCreds) ForceRefresh(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshCalls++
	if f.refreshErr != nil {
		return "", f.refreshErr
	}
	f.token = f.refreshedTo
	return f.refreshedTo, nil
}

// apiCall captures one request the fake API received.
type apiCall struct {
	method string
	path   string
	auth   string
	body   []byte
}

type fakeAPI struct {
	mu      sync.Mutex
	calls   []apiCall
	handler func(call apiCall, w http.ResponseWriter)
}

func (f *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	call := apiCall{
		method: r.Method,
		path:   r.URL.Path,
		auth:   r.Header.Get("Authorization"),
		body:   body,
	}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	handler := f.handler
	f.mu.Unlock()
	handler(call, w)
}

func (f *fakeAPI) received() []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]apiCall(nil), f.calls...)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func newTestClient(t *testing.T, api *fakeAPI, creds *fakeCreds) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(api.serve))
	t.Cleanup(srv.Close)
	return NewClient(creds, Options{
		BaseURL: srv.URL,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestRequestSuccess(t *testing.T) {
	api := &fakeAPI{handler: func(call apiCall, w http.ResponseWriter) {
		writeJSON(w, http.StatusOK, []map[string]string{{"id": "p1", "name": "Work"}})
	}}
	creds := &fakeCreds{token: "tok-1"}
	c := newTestClient(t, api, creds)

	projects, err := c.ListProjects(t.Context())
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "p1", projects[0].ID)

	calls := api.received()
	require.Len(t, calls, 1)
	assert.Equal(t, "Bearer tok-1", calls[0].auth)
	assert.Equal(t, "/project", calls[0].path)
	assert.Equal(t, 0, creds.refreshCalls)
}

func TestUnauthorizedTriggersSingleRefreshAndRetry(t *testing.T) {
	api := &fakeAPI{handler: func(call apiCall, w http.ResponseWriter) {
		if call.auth != "Bearer tok-fresh" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "token expired"})
			return
		}
		writeJSON(w, http.StatusOK, []map[string]string{{"id": "p1"}})
	}}
	creds := &fakeCreds{token: "tok-stale", refreshedTo: "tok-fresh"}
	c := newTestClient(t, api, creds)

	projects, err := c.ListProjects(t.Context())
	require.NoError(t, err)
	assert.Len(t, projects, 1)

	calls := api.received()
	require.Len(t, calls, 2, "exactly one retry after the 401")
	assert.Equal(t, "Bearer tok-stale", calls[0].auth)
	assert.Equal(t, "Bearer tok-fresh", calls[1].auth)
	assert.Equal(t, 1, creds.refreshCalls)
}

func TestUnauthorizedWithFailedRefreshSurfacesOriginalError(t *testing.T) {
	api := &fakeAPI{handler: func(call apiCall, w http.ResponseWriter) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "bad token"})
	}}
	creds := &fakeCreds{token: "tok-stale", refreshErr: errors.New("no refresh token available")}
	c := newTestClient(t, api, creds)

	_, err := c.ListProjects(t.Context())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Contains(t, apiErr.Body, "bad token", "the original 401 surfaces, not the refresh failure")

	assert.Len(t, api.received(), 1, "no retry when recovery is impossible")
	assert.Equal(t, 1, creds.refreshCalls)
}

func TestRetriedUnauthorizedIsNotRetriedAgain(t *testing.T) {
	api := &fakeAPI{handler: func(call apiCall, w http.ResponseWriter) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "still rejected"})
	}}
	creds := &fakeCreds{token: "tok-stale", refreshedTo: "tok-fresh"}
	c := newTestClient(t, api, creds)

	_, err := c.ListProjects(t.Context())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)

	assert.Len(t, api.received(), 2, "a rejected refreshed token must not trigger further retries")
	assert.Equal(t, 1, creds.refreshCalls)
}

func TestNonUnauthorizedErrorsAreNotRetried(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"validation error", http.StatusBadRequest},
		{"forbidden", http.StatusForbidden},
		{"not found", http.StatusNotFound},
		{"server error", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{handler: func(call apiCall, w http.ResponseWriter) {
				writeJSON(w, tt.status, map[string]string{"error": "nope"})
			}}
			creds := &fakeCreds{token: "tok-1"}
			c := newTestClient(t, api, creds)

			_, err := c.ListProjects(t.Context())
			require.Error(t, err)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, http.MethodGet, apiErr.Method)
			assert.Equal(t, "/project", apiErr.Path)

			assert.Len(t, api.received(), 1)
			assert.Equal(t, 0, creds.refreshCalls)
		})
	}
}

func TestEmptyBodySuccess(t *testing.T) {
	api := &fakeAPI{handler: func(call apiCall, w http.ResponseWriter) {
		w.WriteHeader(http.StatusOK)
	}}
	creds := &fakeCreds{token: "tok-1"}
	c := newTestClient(t, api, creds)

	require.NoError(t, c.CompleteTask(t.Context(), "p1", "t1"))
	require.NoError(t, c.DeleteTask(t.Context(), "p1", "t1"))

	calls := api.received()
	require.Len(t, calls, 2)
	assert.Equal(t, "/project/p1/task/t1/complete", calls[0].path)
	assert.Equal(t, http.MethodDelete, calls[1].method)
}

func TestCreateTaskSendsOnlySetFields(t *testing.T) {
	api := &fakeAPI{handler: func(call apiCall, w http.ResponseWriter) {
		writeJSON(w, http.StatusOK, map[string]any{"id": "t1", "projectId": "p1", "title": "Buy milk"})
	}}
	creds := &fakeCreds{token: "tok-1"}
	c := newTestClient(t, api, creds)

	created, err := c.CreateTask(t.Context(), &Task{Title: "Buy milk"})
	require.NoError(t, err)
	assert.Equal(t, "t1", created.ID)

	calls := api.received()
	require.Len(t, calls, 1)

	var sent map[string]any
	require.NoError(t, json.Unmarshal(calls[0].body, &sent))
	assert.Equal(t, map[string]any{"title": "Buy milk"}, sent)
}

func TestUpdateTaskPreservesZeroPriority(t *testing.T) {
	api := &fakeAPI{handler: func(call apiCall, w http.ResponseWriter) {
		writeJSON(w, http.StatusOK, map[string]any{"id": "t1"})
	}}
	creds := &fakeCreds{token: "tok-1"}
	c := newTestClient(t, api, creds)

	priority := PriorityNone
	_, err := c.UpdateTask(t.Context(), "t1", &Task{ProjectID: "p1", Priority: &priority})
	require.NoError(t, err)

	var sent map[string]any
	require.NoError(t, json.Unmarshal(api.received()[0].body, &sent))
	assert.Equal(t, float64(0), sent["priority"], "explicit priority 0 must be sent")
}

func TestBatchCreateTasks(t *testing.T) {
	api := &fakeAPI{handler: func(call apiCall, w http.ResponseWriter) {
		writeJSON(w, http.StatusOK, map[string]any{"ids": []string{"t1", "t2"}})
	}}
	creds := &fakeCreds{token: "tok-1"}
	c := newTestClient(t, api, creds)

	raw, err := c.BatchCreateTasks(t.Context(), []Task{{Title: "a"}, {Title: "b"}})
	require.NoError(t, err)
	assert.NotNil(t, raw)

	calls := api.received()
	require.Len(t, calls, 1)
	assert.Equal(t, "/batch/task", calls[0].path)

	var sent map[string][]Task
	require.NoError(t, json.Unmarshal(calls[0].body, &sent))
	assert.Len(t, sent["add"], 2)
}

func TestInboxIDProbe(t *testing.T) {
	api := &fakeAPI{handler: func(call apiCall, w http.ResponseWriter) {
		switch {
		case call.method == http.MethodPost && call.path == "/task":
			writeJSON(w, http.StatusOK, map[string]any{"id": "probe-task", "projectId": "inbox12345"})
		case call.method == http.MethodDelete:
			w.WriteHeader(http.StatusOK)
		default:
			writeJSON(w, http.StatusOK, map[string]any{
				"project": map[string]any{"id": "inbox12345"},
				"tasks":   []any{},
			})
		}
	}}
	creds := &fakeCreds{token: "tok-1"}
	c := newTestClient(t, api, creds)

	inboxID, err := c.InboxID(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "inbox12345", inboxID)

	calls := api.received()
	require.Len(t, calls, 2)
	assert.Equal(t, "/task", calls[0].path)
	assert.Equal(t, "/project/inbox12345/task/probe-task", calls[1].path)

	// Cached: no further probes.
	again, err := c.InboxID(t.Context())
	require.NoError(t, err)
	assert.Equal(t, inboxID, again)
	assert.Len(t, api.received(), 2)

	data, err := c.InboxData(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "inbox12345", data.Project.ID)
}

func TestInboxProbeCleanupFailureIsTolerated(t *testing.T) {
	api := &fakeAPI{handler: func(call apiCall, w http.ResponseWriter) {
		switch {
		case call.method == http.MethodPost:
			writeJSON(w, http.StatusOK, map[string]any{"id": "probe-task", "projectId": "inbox99"})
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "boom"})
		}
	}}
	creds := &fakeCreds{token: "tok-1"}
	c := newTestClient(t, api, creds)

	inboxID, err := c.InboxID(t.Context())
	require.NoError(t, err, "probe cleanup is best effort")
	assert.Equal(t, "inbox99", inboxID)
}

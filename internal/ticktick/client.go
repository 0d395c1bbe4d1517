package ticktick

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/nikitatsym/ticktick-mcp/internal/logging"
)

// DefaultBaseURL is the TickTick Open API base.
const DefaultBaseURL = "https://api.ticktick.com/open/v1"

// CredentialSource supplies the bearer token for API calls and the
// reactive recovery primitive for unauthorized responses. Implemented by
// auth.Manager.
type CredentialSource interface {
	// AccessToken returns the current valid access token, resolving it on
	// first use and caching afterwards.
	AccessToken(ctx context.Context) (string, error)

	// ForceRefresh refreshes the persisted credentials and returns the new
	// access token. It fails when no refresh token or client credentials
	// are available.
	ForceRefresh(ctx context.Context) (string, error)
}

// OperationRecorder records API operation outcomes. Implemented by the
// instrumentation metrics recorder; nil disables recording.
type OperationRecorder interface {
	RecordAPIOperation(ctx context.Context, operation, status string, duration time.Duration)
}

// APIError is a non-success response from the TickTick API that survived
// the retry policy.
type APIError struct {
	Status int
	Method string
	Path   string
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ticktick api error %d %s %s: %s", e.Status, e.Method, e.Path, e.Body)
}

// Options configures a Client.
type Options struct {
	// BaseURL overrides the API base, primarily for tests.
	BaseURL string

	HTTPClient *http.Client
	Logger     *slog.Logger
	Metrics    OperationRecorder
}

// Client issues authenticated requests against the TickTick Open API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	creds      CredentialSource
	logger     *slog.Logger
	metrics    OperationRecorder

	mu      sync.Mutex
	inboxID string
}

// NewClient creates a client backed by the given credential source.
func NewClient(creds CredentialSource, opts Options) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		creds:      creds,
		logger:     logger,
		metrics:    opts.Metrics,
	}
}

// response is one completed HTTP exchange with the body fully read, so the
// original failure text survives a retry decision.
type response struct {
	status      int
	contentType string
	body        []byte
}

func (c *Client) do(ctx context.Context, method, path, token string, payload []byte) (*response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s %s failed: %w", method, path, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return &response{
		status:      res.StatusCode,
		contentType: res.Header.Get("Content-Type"),
		body:        data,
	}, nil
}

// request is the single authenticated request primitive every operation
// routes through. On a 401 it attempts exactly one recovery: force a token
// refresh and reissue the identical request once. Any other status is never
// retried, and a failed recovery surfaces the original 401.
//
// A nil result with a nil error is an empty-body success (completion and
// deletion endpoints), distinct from a parsed empty object.
func (c *Client) request(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	op := method + " " + path
	start := time.Now()
	raw, err := c.requestOnce(ctx, method, path, body)
	if c.metrics != nil {
		status := logging.StatusSuccess
		if err != nil {
			status = logging.StatusError
		}
		c.metrics.RecordAPIOperation(ctx, op, status, time.Since(start))
	}
	return raw, err
}

func (c *Client) requestOnce(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	token, err := c.creds.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	res, err := c.do(ctx, method, path, token, payload)
	if err != nil {
		return nil, err
	}

	if res.status == http.StatusUnauthorized {
		newToken, refreshErr := c.creds.ForceRefresh(ctx)
		if refreshErr != nil {
			// Recovery is impossible or the refresh itself failed: surface
			// the original unauthorized response.
			c.logger.Debug("token refresh after 401 failed",
				logging.Err(refreshErr),
				slog.String(logging.KeyMethod, method),
				slog.String(logging.KeyPath, path))
		} else {
			c.logger.Info("retrying request with refreshed token",
				slog.String(logging.KeyMethod, method),
				slog.String(logging.KeyPath, path))
			retried, err := c.do(ctx, method, path, newToken, payload)
			if err != nil {
				return nil, err
			}
			res = retried
		}
	}

	if res.status >= 400 {
		return nil, &APIError{
			Status: res.status,
			Method: method,
			Path:   path,
			Body:   string(res.body),
		}
	}

	mediaType, _, _ := mime.ParseMediaType(res.contentType)
	if mediaType != "application/json" || len(res.body) == 0 {
		return nil, nil
	}
	return json.RawMessage(res.body), nil
}

// get decodes a JSON response into out.
func (c *Client) get(ctx context.Context, path string, out any) error {
	raw, err := c.request(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("empty response for GET %s", path)
	}
	return json.Unmarshal(raw, out)
}

// post issues a JSON POST and decodes the response into out when out is
// non-nil and the response carries a body.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	raw, err := c.request(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	if out == nil || raw == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	_, err := c.request(ctx, http.MethodDelete, path, nil)
	return err
}

package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/nikitatsym/ticktick-mcp/internal/logging"
)

const remediationHint = `No usable TickTick credentials found.
Run "ticktick-mcp auth" to authorize in a browser, or visit
` + HostedRedirectURI + ` to obtain an access token and set
TICKTICK_ACCESS_TOKEN (or TICKTICK_AUTH_CODE together with
TICKTICK_CLIENT_ID and TICKTICK_CLIENT_SECRET).`

// RefreshRecorder records token refresh outcomes. Implemented by the
// instrumentation metrics recorder; nil disables recording.
type RefreshRecorder interface {
	RecordTokenRefresh(ctx context.Context, status string, duration time.Duration)
}

// Options configures a Manager.
type Options struct {
	ClientID     string
	ClientSecret string

	// AccessToken and RefreshToken are a directly injected credential pair
	// (highest-priority source, unknown expiry).
	AccessToken  string
	RefreshToken string

	// AuthCode is a one-time authorization code for headless bootstrap.
	AuthCode string

	// NoBrowser disables the interactive authorization flow.
	NoBrowser bool

	// Store overrides the default token store. Required in tests.
	Store *Store

	// Endpoints overrides the identity provider URLs.
	Endpoints Endpoints

	// RedirectURI overrides the hosted redirect page used for code exchange.
	RedirectURI string

	// CallbackAddr overrides the interactive flow's listener address.
	CallbackAddr string

	// FlowTimeout overrides the interactive flow's callback timeout.
	FlowTimeout time.Duration

	HTTPClient *http.Client
	Logger     *slog.Logger
	Metrics    RefreshRecorder
}

// Manager resolves, caches, refreshes, and persists the access token.
// It is handed to the API client as its credential source.
type Manager struct {
	clientID        string
	clientSecret    string
	injectedAccess  string
	injectedRefresh string
	authCode        string
	noBrowser       bool
	store           *Store
	endpoints       Endpoints
	redirectURI     string
	callbackAddr    string
	flowTimeout     time.Duration
	httpClient      *http.Client
	logger          *slog.Logger
	metrics         RefreshRecorder

	mu       sync.Mutex
	token    string
	codeUsed bool
}

// NewManager creates a credential manager. When opts.Store is nil the
// default per-user store is used.
func NewManager(opts Options) (*Manager, error) {
	store := opts.Store
	if store == nil {
		var err error
		store, err = NewStore()
		if err != nil {
			return nil, err
		}
	}

	endpoints := opts.Endpoints
	if endpoints.AuthURL == "" {
		endpoints.AuthURL = DefaultAuthURL
	}
	if endpoints.TokenURL == "" {
		endpoints.TokenURL = DefaultTokenURL
	}

	redirectURI := opts.RedirectURI
	if redirectURI == "" {
		redirectURI = HostedRedirectURI
	}

	callbackAddr := opts.CallbackAddr
	if callbackAddr == "" {
		callbackAddr = defaultCallbackAddr
	}

	flowTimeout := opts.FlowTimeout
	if flowTimeout <= 0 {
		flowTimeout = interactiveFlowTimeout
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		clientID:        opts.ClientID,
		clientSecret:    opts.ClientSecret,
		injectedAccess:  opts.AccessToken,
		injectedRefresh: opts.RefreshToken,
		authCode:        opts.AuthCode,
		noBrowser:       opts.NoBrowser,
		store:           store,
		endpoints:       endpoints,
		redirectURI:     redirectURI,
		callbackAddr:    callbackAddr,
		flowTimeout:     flowTimeout,
		httpClient:      httpClient,
		logger:          logger,
		metrics:         opts.Metrics,
	}, nil
}

// Store returns the token store backing this manager.
func (m *Manager) Store() *Store {
	return m.store
}

func (m *Manager) hasClientCredentials() bool {
	return m.clientID != "" && m.clientSecret != ""
}

func (m *Manager) cachedToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

func (m *Manager) setCachedToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
}

// tokenSource is one step in the ordered resolution chain. resolve returns
// (nil, nil) when the source is not applicable; an error falls through to
// the next source.
type tokenSource struct {
	name    string
	resolve func(ctx context.Context) (*TokenRecord, error)
}

func (m *Manager) sources() []tokenSource {
	return []tokenSource{
		{"env", m.resolveInjected},
		{"disk", m.resolvePersisted},
		{"code", m.resolveAuthCode},
		{"interactive", m.resolveInteractive},
	}
}

// AccessToken returns the current valid access token, resolving it through
// the source chain on first use and caching it in memory afterwards.
// Resolution performs no HTTP calls while the cached token stands.
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	if token := m.cachedToken(); token != "" {
		return token, nil
	}

	for _, src := range m.sources() {
		rec, err := src.resolve(ctx)
		if err != nil {
			m.logger.Warn("credential source failed, trying next",
				logging.Source(src.name), logging.Err(err))
			continue
		}
		if rec == nil {
			continue
		}
		m.logger.Debug("access token resolved",
			logging.Source(src.name),
			slog.String("token", logging.SanitizeToken(rec.AccessToken)))
		m.setCachedToken(rec.AccessToken)
		return rec.AccessToken, nil
	}

	return "", &AuthError{Op: "credential resolution", Hint: remediationHint,
		Err: errors.New("no credential source yielded a token")}
}

// resolveInjected uses a directly injected access token. The pair is
// persisted so later reactive refreshes have a refresh token to work with.
// Injected tokens have unknown expiry and are never proactively refreshed.
func (m *Manager) resolveInjected(_ context.Context) (*TokenRecord, error) {
	if m.injectedAccess == "" {
		return nil, nil
	}
	rec := &TokenRecord{
		AccessToken:  m.injectedAccess,
		RefreshToken: m.injectedRefresh,
	}
	if err := m.store.Save(rec); err != nil {
		m.logger.Warn("failed to persist injected token", logging.Err(err))
	}
	return rec, nil
}

// resolvePersisted loads the durable record. A record within the expiry
// buffer is refreshed when possible; a failed or impossible refresh
// discards the record for this resolution only (the on-disk copy stays).
func (m *Manager) resolvePersisted(ctx context.Context) (*TokenRecord, error) {
	rec := m.store.Load()
	if rec == nil {
		return nil, nil
	}
	if !rec.NeedsRefresh(time.Now()) {
		return rec, nil
	}
	if rec.RefreshToken == "" || !m.hasClientCredentials() {
		m.logger.Debug("persisted token expired and cannot be refreshed")
		return nil, nil
	}
	m.logger.Info("access token expired, refreshing")
	return m.refreshAndPersist(ctx, rec.RefreshToken)
}

// resolveAuthCode exchanges a configured one-time authorization code.
// The code is consumed on first attempt regardless of outcome.
func (m *Manager) resolveAuthCode(ctx context.Context) (*TokenRecord, error) {
	m.mu.Lock()
	code := m.authCode
	used := m.codeUsed
	m.codeUsed = true
	m.mu.Unlock()

	if code == "" || used || !m.hasClientCredentials() {
		return nil, nil
	}
	m.logger.Info("exchanging authorization code for tokens")
	rec, err := m.ExchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := m.store.Save(rec); err != nil {
		m.logger.Warn("failed to persist token record", logging.Err(err))
	}
	m.logger.Info("tokens saved", slog.String("path", m.store.Path()))
	return rec, nil
}

// resolveInteractive runs the browser authorization flow when the
// environment allows local user interaction.
func (m *Manager) resolveInteractive(ctx context.Context) (*TokenRecord, error) {
	if m.noBrowser || !m.hasClientCredentials() {
		return nil, nil
	}
	return m.interactiveFlow(ctx)
}

// refreshAndPersist is the single code path that mutates on-disk credential
// state after a refresh; the proactive expiry check and the reactive
// unauthorized recovery both converge here.
func (m *Manager) refreshAndPersist(ctx context.Context, refreshToken string) (*TokenRecord, error) {
	rec, err := m.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if err := m.store.Save(rec); err != nil {
		m.logger.Warn("failed to persist refreshed token", logging.Err(err))
	}
	m.logger.Info("token refreshed")
	return rec, nil
}

// Authorize performs an explicit authorization and persists the result.
// A non-empty code is exchanged directly; otherwise the interactive
// browser flow runs. Used by the auth command for first-run setup.
func (m *Manager) Authorize(ctx context.Context, code string) (*TokenRecord, error) {
	if !m.hasClientCredentials() {
		return nil, &AuthError{Op: "authorize", Hint: remediationHint,
			Err: errors.New("client credentials not configured")}
	}

	if code != "" {
		rec, err := m.ExchangeCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if err := m.store.Save(rec); err != nil {
			return nil, &AuthError{Op: "authorize", Err: err}
		}
		m.setCachedToken(rec.AccessToken)
		return rec, nil
	}

	if m.noBrowser {
		return nil, &AuthError{Op: "authorize", Hint: remediationHint,
			Err: errors.New("interactive flow disabled and no authorization code given")}
	}
	rec, err := m.interactiveFlow(ctx)
	if err != nil {
		return nil, err
	}
	m.setCachedToken(rec.AccessToken)
	return rec, nil
}

// ForceRefresh is the reactive recovery primitive used after an
// unauthorized API response: refresh from the persisted record, persist,
// and update the in-memory cache. It fails when no refresh token or client
// credentials are available.
func (m *Manager) ForceRefresh(ctx context.Context) (string, error) {
	rec := m.store.Load()
	if rec == nil || rec.RefreshToken == "" {
		return "", &AuthError{Op: "token refresh", Hint: remediationHint,
			Err: errors.New("no refresh token available")}
	}
	if !m.hasClientCredentials() {
		return "", &AuthError{Op: "token refresh", Hint: remediationHint,
			Err: errors.New("client credentials not configured")}
	}
	newRec, err := m.refreshAndPersist(ctx, rec.RefreshToken)
	if err != nil {
		return "", err
	}
	m.setCachedToken(newRec.AccessToken)
	return newRec.AccessToken, nil
}

// Status describes the configured credential sources without exposing any
// token material.
type Status struct {
	HasInjectedToken     bool   `json:"hasInjectedToken"`
	HasPersistedRecord   bool   `json:"hasPersistedRecord"`
	PersistedHasRefresh  bool   `json:"persistedHasRefresh"`
	HasAuthCode          bool   `json:"hasAuthCode"`
	HasClientCredentials bool   `json:"hasClientCredentials"`
	InteractiveAvailable bool   `json:"interactiveAvailable"`
	TokenPath            string `json:"tokenPath"`
}

// Status reports which credential sources are currently available.
func (m *Manager) Status() Status {
	rec := m.store.Load()
	return Status{
		HasInjectedToken:     m.injectedAccess != "",
		HasPersistedRecord:   rec != nil,
		PersistedHasRefresh:  rec != nil && rec.RefreshToken != "",
		HasAuthCode:          m.authCode != "",
		HasClientCredentials: m.hasClientCredentials(),
		InteractiveAvailable: !m.noBrowser && m.hasClientCredentials(),
		TokenPath:            m.store.Path(),
	}
}

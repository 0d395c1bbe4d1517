package server

import (
	"context"
	"sync"

	"github.com/nikitatsym/ticktick-mcp/internal/auth"
	"github.com/nikitatsym/ticktick-mcp/internal/instrumentation"
	"github.com/nikitatsym/ticktick-mcp/internal/ticktick"
)

// ServerContext holds the shared dependencies for the MCP server.
type ServerContext struct {
	ctx         context.Context
	cancel      context.CancelFunc
	authManager *auth.Manager
	client      *ticktick.Client
	metrics     *instrumentation.Metrics
	audit       *instrumentation.AuditLogger
	readOnly    bool
	mu          sync.RWMutex
	shutdown    bool
}

// ContextOptions configures a ServerContext.
type ContextOptions struct {
	// AuthManager resolves and refreshes TickTick credentials.
	AuthManager *auth.Manager

	// Client is the TickTick API client shared by all tools.
	Client *ticktick.Client

	// Metrics records tool and API metrics. Nil disables recording.
	Metrics *instrumentation.Metrics

	// Audit logs tool invocations. Nil disables audit logging.
	Audit *instrumentation.AuditLogger

	// ReadOnly blocks all mutating tools when true.
	ReadOnly bool
}

// NewServerContext creates a new server context.
func NewServerContext(ctx context.Context, opts ContextOptions) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)

	return &ServerContext{
		ctx:         shutdownCtx,
		cancel:      cancel,
		authManager: opts.AuthManager,
		client:      opts.Client,
		metrics:     opts.Metrics,
		audit:       opts.Audit,
		readOnly:    opts.ReadOnly,
	}
}

// Context returns the server context.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Client returns the TickTick API client.
func (sc *ServerContext) Client() *ticktick.Client {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.client
}

// SetClient replaces the TickTick API client.
func (sc *ServerContext) SetClient(client *ticktick.Client) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.client = client
}

// AuthManager returns the credential manager.
func (sc *ServerContext) AuthManager() *auth.Manager {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.authManager
}

// Metrics returns the metrics recorder, which may be nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// Audit returns the audit logger, which may be nil.
func (sc *ServerContext) Audit() *instrumentation.AuditLogger {
	return sc.audit
}

// ReadOnly returns whether mutating tools are blocked.
func (sc *ServerContext) ReadOnly() bool {
	return sc.readOnly
}

// IsShutdown returns whether the server has been shut down.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}

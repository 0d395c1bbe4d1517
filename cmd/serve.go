package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/nikitatsym/ticktick-mcp/internal/auth"
	"github.com/nikitatsym/ticktick-mcp/internal/config"
	"github.com/nikitatsym/ticktick-mcp/internal/instrumentation"
	"github.com/nikitatsym/ticktick-mcp/internal/logging"
	"github.com/nikitatsym/ticktick-mcp/internal/server"
	"github.com/nikitatsym/ticktick-mcp/internal/ticktick"
	"github.com/nikitatsym/ticktick-mcp/internal/tools/auth_tools"
	"github.com/nikitatsym/ticktick-mcp/internal/tools/project_tools"
	"github.com/nikitatsym/ticktick-mcp/internal/tools/task_tools"
)

// serveOptions holds the resolved serve command configuration.
type serveOptions struct {
	Transport      string
	HTTPAddr       string
	Yolo           bool
	ClientID       string
	ClientSecret   string
	ConfigFile     string
	LogFile        string
	Debug          bool
	DisableBrowser bool
	MetricsEnabled bool
	MetricsAddr    string
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server to provide TickTick
project and task tools for AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport

Safety Mode:
  By default, the server operates in read-only mode, providing only safe
  operations. Use --yolo to enable write operations (task creation,
  project deletion, etc.)

Credentials:
  Provide TickTick OAuth client credentials via --client-id and
  --client-secret flags or the TICKTICK_CLIENT_ID and
  TICKTICK_CLIENT_SECRET env vars. Tokens are resolved from
  TICKTICK_ACCESS_TOKEN / TICKTICK_REFRESH_TOKEN, the stored token file,
  TICKTICK_AUTH_CODE, or an interactive browser flow, in that order.
  Run "ticktick-mcp auth" once to authorize interactively.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Debug, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&opts.Transport, "transport", "stdio", "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&opts.HTTPAddr, "http-addr", ":8080", "HTTP server address (for streamable-http transport)")
	cmd.Flags().BoolVar(&opts.Yolo, "yolo", false, "Enable write operations (task creation, project deletion, etc.). Default is read-only mode.")
	cmd.Flags().StringVar(&opts.ClientID, "client-id", "", "TickTick OAuth client ID. Can also use TICKTICK_CLIENT_ID env var.")
	cmd.Flags().StringVar(&opts.ClientSecret, "client-secret", "", "TickTick OAuth client secret. Can also use TICKTICK_CLIENT_SECRET env var.")
	cmd.Flags().StringVar(&opts.ConfigFile, "config", "", "Path to a YAML configuration file")
	cmd.Flags().StringVar(&opts.LogFile, "log-file", "", "Write logs to a rotated file instead of stderr")
	cmd.Flags().BoolVar(&opts.DisableBrowser, "no-browser", false, "Disable the interactive browser authorization flow. Can also use TICKTICK_NO_BROWSER env var.")
	cmd.Flags().BoolVar(&opts.MetricsEnabled, "metrics", false, "Enable the Prometheus metrics server on a dedicated port")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address")

	return cmd
}

func runServe(opts serveOptions) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return err
	}
	// Flags win over file and environment values.
	if opts.ClientID != "" {
		cfg.ClientID = opts.ClientID
	}
	if opts.ClientSecret != "" {
		cfg.ClientSecret = opts.ClientSecret
	}
	if opts.DisableBrowser {
		cfg.NoBrowser = true
	}

	// The stdio transport owns stdout, so logs go to stderr or a file.
	logger := logging.Setup(logging.Options{
		Debug: opts.Debug,
		File:  opts.LogFile,
	})

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.Warn("error during instrumentation shutdown", logging.Err(err))
		}
	}()

	var store *auth.Store
	if cfg.TokenFile != "" {
		store = auth.NewStoreAt(cfg.TokenFile)
	}
	authManager, err := auth.NewManager(auth.Options{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		AccessToken:  cfg.AccessToken,
		RefreshToken: cfg.RefreshToken,
		AuthCode:     cfg.AuthCode,
		NoBrowser:    cfg.NoBrowser,
		Store:        store,
		Logger:       logger,
		Metrics:      provider.Metrics(),
	})
	if err != nil {
		return fmt.Errorf("failed to create credential manager: %w", err)
	}

	client := ticktick.NewClient(authManager, ticktick.Options{
		Logger:  logger,
		Metrics: provider.Metrics(),
	})

	// readOnly is the inverse of yolo
	readOnly := !opts.Yolo

	serverContext := server.NewServerContext(shutdownCtx, server.ContextOptions{
		AuthManager: authManager,
		Client:      client,
		Metrics:     provider.Metrics(),
		Audit:       instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging),
		ReadOnly:    readOnly,
	})
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("error during server context shutdown", logging.Err(err))
		}
	}()

	healthChecker := server.NewHealthChecker(serverContext)

	// Start metrics server if enabled
	var metricsServer *server.MetricsServer
	if opts.MetricsEnabled && provider.Enabled() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    opts.MetricsAddr,
			InstrumentationProvider: provider,
			HealthChecker:           healthChecker,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server failed", logging.Err(err))
			}
		}()
		logger.Info("metrics server started", slog.String("addr", metricsServer.Addr()))
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				logger.Warn("error during metrics server shutdown", logging.Err(err))
			}
		}()
	}

	// Create MCP server
	mcpSrv := newMCPServer(version)

	if readOnly {
		logger.Info("starting server in read-only mode (use --yolo to enable write operations)")
	} else {
		logger.Info("starting server with write operations enabled (--yolo flag is set)")
	}

	// Register all tools
	if err := registerAllTools(mcpSrv, serverContext, readOnly); err != nil {
		return err
	}

	// Start the appropriate server based on transport type
	switch opts.Transport {
	case "stdio":
		return runStdioServer(mcpSrv)
	case "streamable-http":
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, opts.HTTPAddr, healthChecker, provider, logger)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", opts.Transport)
	}
}

// newMCPServer builds the MCP server shared by serve and generate-docs.
// Recovery keeps a panicking tool handler from taking down the whole
// long-lived server; the fault surfaces as an error result instead.
func newMCPServer(version string) *mcpserver.MCPServer {
	return mcpserver.NewMCPServer("ticktick-mcp", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithRecovery(),
	)
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

// registerAllTools registers every MCP tool group with the server.
func registerAllTools(mcpSrv *mcpserver.MCPServer, ctx *server.ServerContext, readOnly bool) error {
	type toolRegistration struct {
		name     string
		register func() error
	}

	registrations := []toolRegistration{
		{
			name: "Auth",
			register: func() error {
				return auth_tools.RegisterAuthTools(mcpSrv, ctx)
			},
		},
		{
			name: "Projects",
			register: func() error {
				return project_tools.RegisterProjectTools(mcpSrv, ctx, readOnly)
			},
		},
		{
			name: "Tasks",
			register: func() error {
				return task_tools.RegisterTaskTools(mcpSrv, ctx, readOnly)
			},
		},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s tools: %w", reg.name, err)
		}
	}

	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, addr string, health *server.HealthChecker, provider *instrumentation.Provider, logger *slog.Logger) error {
	streamable := mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithEndpointPath("/mcp"),
	)

	mux := http.NewServeMux()
	mux.Handle("/mcp", server.InstrumentHTTPHandler("/mcp", streamable, provider.Metrics()))
	health.RegisterHealthEndpoints(mux)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("streamable HTTP server starting",
		slog.String("addr", addr),
		slog.String("endpoint", "/mcp"))

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
		health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	logger.Info("HTTP server stopped")
	return nil
}

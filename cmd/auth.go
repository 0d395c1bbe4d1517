package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nikitatsym/ticktick-mcp/internal/auth"
	"github.com/nikitatsym/ticktick-mcp/internal/config"
	"github.com/nikitatsym/ticktick-mcp/internal/logging"
)

func newAuthCmd() *cobra.Command {
	var (
		debugMode    bool
		clientID     string
		clientSecret string
		configFile   string
		authCode     string
	)

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize against TickTick and store the credentials",
		Long: `Run the TickTick OAuth authorization flow and persist the resulting
tokens for later serve runs.

Without --code, a browser window opens on the TickTick authorization
page and a local listener waits for the redirect. With --code, the
given one-time authorization code is exchanged directly, which suits
headless hosts.

Client credentials are read from --client-id/--client-secret, the
TICKTICK_CLIENT_ID and TICKTICK_CLIENT_SECRET env vars, or the config
file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuth(cmd.Context(), configFile, clientID, clientSecret, authCode, debugMode)
		},
	}

	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&clientID, "client-id", "", "TickTick OAuth client ID. Can also use TICKTICK_CLIENT_ID env var.")
	cmd.Flags().StringVar(&clientSecret, "client-secret", "", "TickTick OAuth client secret. Can also use TICKTICK_CLIENT_SECRET env var.")
	cmd.Flags().StringVar(&configFile, "config", "", "Path to a YAML configuration file")
	cmd.Flags().StringVar(&authCode, "code", "", "One-time authorization code to exchange instead of the browser flow")

	return cmd
}

func runAuth(ctx context.Context, configFile, clientID, clientSecret, authCode string, debugMode bool) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if clientID != "" {
		cfg.ClientID = clientID
	}
	if clientSecret != "" {
		cfg.ClientSecret = clientSecret
	}

	logger := logging.Setup(logging.Options{Debug: debugMode})

	if !cfg.HasClientCredentials() {
		return fmt.Errorf("client credentials are required: set --client-id and --client-secret or the %s and %s env vars",
			config.EnvClientID, config.EnvClientSecret)
	}

	var store *auth.Store
	if cfg.TokenFile != "" {
		store = auth.NewStoreAt(cfg.TokenFile)
	}
	manager, err := auth.NewManager(auth.Options{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		NoBrowser:    cfg.NoBrowser,
		Store:        store,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create credential manager: %w", err)
	}

	if _, err := manager.Authorize(ctx, authCode); err != nil {
		return err
	}

	fmt.Printf("Authorization successful. Tokens saved to %s\n", manager.Store().Path())
	return nil
}

// Package config loads ticktick-mcp configuration from a YAML file, a .env
// file, and process environment variables. Explicit values win over file
// values; file values win over the environment defaults baked in here.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variable names recognized for configuration.
const (
	EnvClientID     = "TICKTICK_CLIENT_ID"
	EnvClientSecret = "TICKTICK_CLIENT_SECRET"
	EnvAccessToken  = "TICKTICK_ACCESS_TOKEN"
	EnvRefreshToken = "TICKTICK_REFRESH_TOKEN"
	EnvAuthCode     = "TICKTICK_AUTH_CODE"
	EnvNoBrowser    = "TICKTICK_NO_BROWSER"
)

// Config holds the credential and client identity configuration.
type Config struct {
	// ClientID and ClientSecret identify this installation against the
	// TickTick identity provider. Required for code exchange and refresh.
	ClientID     string `yaml:"client-id"`
	ClientSecret string `yaml:"client-secret"`

	// AccessToken and RefreshToken are a directly injected credential pair.
	// When AccessToken is set it takes priority over every other source.
	AccessToken  string `yaml:"access-token"`
	RefreshToken string `yaml:"refresh-token"`

	// AuthCode is a one-time authorization code for first-run bootstrap on
	// hosts without a browser.
	AuthCode string `yaml:"auth-code"`

	// NoBrowser disables the interactive authorization flow.
	NoBrowser bool `yaml:"no-browser"`

	// TokenFile overrides the default token storage path.
	TokenFile string `yaml:"token-file"`
}

// Load builds a Config from the optional YAML file at path, a .env file in
// the working directory if one exists, and the process environment.
// Environment variables override YAML values so that container deployments
// can patch a mounted config file.
func Load(path string) (*Config, error) {
	// Best effort: a missing .env file is the common case.
	_ = godotenv.Load()

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overlays environment variables onto the config.
func (c *Config) applyEnv() {
	if v := os.Getenv(EnvClientID); v != "" {
		c.ClientID = v
	}
	if v := os.Getenv(EnvClientSecret); v != "" {
		c.ClientSecret = v
	}
	if v := os.Getenv(EnvAccessToken); v != "" {
		c.AccessToken = v
	}
	if v := os.Getenv(EnvRefreshToken); v != "" {
		c.RefreshToken = v
	}
	if v := os.Getenv(EnvAuthCode); v != "" {
		c.AuthCode = v
	}
	if os.Getenv(EnvNoBrowser) == "true" {
		c.NoBrowser = true
	}
}

// HasClientCredentials reports whether both client id and secret are set.
func (c *Config) HasClientCredentials() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

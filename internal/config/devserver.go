// ABOUTME: Configuration loading for the reference development server
// ABOUTME: Loads TOML config with environment variable expansion and defaults

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// DevServerConfig represents the development server configuration
type DevServerConfig struct {
	Server   DevServerAddr  `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Uploads  UploadsConfig  `toml:"uploads"`
	Auth     AuthConfig     `toml:"auth"`
	Gemini   GeminiConfig   `toml:"gemini"`
	Logging  LoggingConfig  `toml:"logging"`
}

// DevServerAddr holds the listen address
type DevServerAddr struct {
	Addr string `toml:"addr"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// UploadsConfig holds where uploaded documents are kept
type UploadsConfig struct {
	Dir string `toml:"dir"`
}

// AuthConfig holds authentication configuration. An empty secret disables auth.
type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret"`
}

// GeminiConfig enables generated answers when an API key is present.
type GeminiConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// DefaultDevServer returns the development server defaults.
func DefaultDevServer() *DevServerConfig {
	cfg := &DevServerConfig{}
	cfg.applyDefaults()
	return cfg
}

// DevServerPath returns $GENIA_DEVSERVER_CONFIG, or devserver.toml under the
// XDG config directory.
func DevServerPath() string {
	if p := os.Getenv("GENIA_DEVSERVER_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(configDir(), "devserver.toml")
}

// LoadDevServer reads config from the given path, expanding environment variables.
func LoadDevServer(path string) (*DevServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	var cfg DevServerConfig
	if _, err := toml.Decode(expanded, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func (c *DevServerConfig) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = "127.0.0.1:8000"
	}
	if c.Database.Path == "" {
		c.Database.Path = "genia.db"
	}
	if c.Uploads.Dir == "" {
		c.Uploads.Dir = "uploads"
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.5-flash"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate checks that required config fields are present and valid.
func (c *DevServerConfig) Validate() error {
	if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 bytes")
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

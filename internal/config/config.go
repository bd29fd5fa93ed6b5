// ABOUTME: Configuration loading and parsing for the genia terminal client
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when a field is left empty
const (
	DefaultServerURL     = "http://localhost:8000"
	DefaultOwnerID       = "1"
	DefaultAnswerTimeout = 60 * time.Second
	DefaultUploadTimeout = 5 * time.Minute
)

// Config represents the complete client configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	OwnerID  string         `yaml:"owner_id"`
	Timeouts TimeoutsConfig `yaml:"timeouts"`
	Logging  LoggingConfig  `yaml:"logging"`

	// Token is the bearer token, read from GENIA_TOKEN or the token file.
	Token string `yaml:"-"`
}

// ServerConfig holds the backend location
type ServerConfig struct {
	URL string `yaml:"url"`
}

// TimeoutsConfig holds per-call time bounds
type TimeoutsConfig struct {
	Answer time.Duration `yaml:"-"`
	Upload time.Duration `yaml:"-"`

	// Raw string values for YAML unmarshaling
	AnswerRaw string `yaml:"answer"`
	UploadRaw string `yaml:"upload"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// DefaultPath returns $GENIA_CONFIG, or client.yaml under the XDG config directory.
func DefaultPath() string {
	if p := os.Getenv("GENIA_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(configDir(), "client.yaml")
}

// TokenPath returns the location of the bearer token file.
func TokenPath() string {
	return filepath.Join(configDir(), "token")
}

func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "genia")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "genia")
	}
	return filepath.Join(home, ".config", "genia")
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// LoadOrDefault loads path when it exists and falls back to Default otherwise.
// The bearer token is resolved either way.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg, err = Default(), nil
	}
	if err != nil {
		return nil, err
	}

	token, err := LoadToken(TokenPath())
	if err != nil {
		return nil, err
	}
	cfg.Token = token
	return cfg, nil
}

// LoadToken returns $GENIA_TOKEN, or the trimmed contents of path. A missing
// file means no token.
func LoadToken(path string) (string, error) {
	if tok := os.Getenv("GENIA_TOKEN"); tok != "" {
		return strings.TrimSpace(tok), nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

func (c *Config) applyDefaults() {
	if c.Server.URL == "" {
		c.Server.URL = DefaultServerURL
	}
	if c.OwnerID == "" {
		c.OwnerID = DefaultOwnerID
	}
	if c.Timeouts.Answer == 0 {
		c.Timeouts.Answer = DefaultAnswerTimeout
	}
	if c.Timeouts.Upload == 0 {
		c.Timeouts.Upload = DefaultUploadTimeout
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.URL)
	if err != nil {
		return fmt.Errorf("server.url is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server.url must use http or https scheme")
	}

	if c.Timeouts.Answer < 0 {
		return fmt.Errorf("timeouts.answer must not be negative")
	}
	if c.Timeouts.Upload < 0 {
		return fmt.Errorf("timeouts.upload must not be negative")
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Timeouts.AnswerRaw != "" {
		cfg.Timeouts.Answer, err = time.ParseDuration(cfg.Timeouts.AnswerRaw)
		if err != nil {
			return fmt.Errorf("parsing answer timeout %q: %w", cfg.Timeouts.AnswerRaw, err)
		}
	}

	if cfg.Timeouts.UploadRaw != "" {
		cfg.Timeouts.Upload, err = time.ParseDuration(cfg.Timeouts.UploadRaw)
		if err != nil {
			return fmt.Errorf("parsing upload timeout %q: %w", cfg.Timeouts.UploadRaw, err)
		}
	}

	return nil
}

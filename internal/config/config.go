// Package config handles the XDG configuration directory, file paths and the
// optional config.yaml settings file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// AppName is the application directory name.
	AppName = "tasklist"

	// SettingsFile is the optional YAML settings filename.
	SettingsFile = "config.yaml"

	// OAuthClientFile is the OAuth client credentials filename.
	OAuthClientFile = "oauth_client.json"

	// TokenFile is the stored OAuth token filename.
	TokenFile = "token.json"

	// DefaultBaseURL is the REST Task Service the client talks to when
	// nothing else is configured.
	DefaultBaseURL = "http://localhost:5000"

	// DefaultListenAddr is the address `tasklist serve` binds to.
	DefaultListenAddr = "localhost:5000"
)

// Backend names accepted in config.yaml and by --backend.
const (
	BackendREST        = "rest"
	BackendGoogleTasks = "googletasks"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Backend selects the Task Service implementation.
	Backend string

	// BaseURL is the REST Task Service base URL.
	BaseURL string

	// Timeout bounds each Task Service request. Zero means no deadline.
	Timeout time.Duration

	// ListenAddr is the address the development Task Service listens on.
	ListenAddr string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool
}

// settings mirrors config.yaml.
type settings struct {
	Backend    string `yaml:"backend"`
	BaseURL    string `yaml:"base_url"`
	Timeout    string `yaml:"timeout"`
	ListenAddr string `yaml:"listen_addr"`
}

// New creates a new Config with the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/tasklist or $HOME/.config/tasklist.
// Settings from config.yaml in that directory are applied when the file exists.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	cfg := &Config{
		Dir:        dir,
		Backend:    BackendREST,
		BaseURL:    DefaultBaseURL,
		ListenAddr: DefaultListenAddr,
	}
	if err := cfg.loadSettings(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadSettings overlays config.yaml onto the defaults. A missing file is not an error.
func (c *Config) loadSettings() error {
	data, err := os.ReadFile(c.SettingsPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", SettingsFile, err)
	}

	var s settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid %s: %w", SettingsFile, err)
	}

	if s.Backend != "" {
		if err := c.SetBackend(s.Backend); err != nil {
			return fmt.Errorf("invalid %s: %w", SettingsFile, err)
		}
	}
	if s.BaseURL != "" {
		c.BaseURL = strings.TrimRight(s.BaseURL, "/")
	}
	if s.Timeout != "" {
		d, err := time.ParseDuration(s.Timeout)
		if err != nil || d < 0 {
			return fmt.Errorf("invalid %s: bad timeout %q", SettingsFile, s.Timeout)
		}
		c.Timeout = d
	}
	if s.ListenAddr != "" {
		c.ListenAddr = s.ListenAddr
	}
	return nil
}

// SetBackend validates and sets the backend name.
func (c *Config) SetBackend(name string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case BackendREST, BackendGoogleTasks:
		c.Backend = name
		return nil
	default:
		return fmt.Errorf("unknown backend: %s", name)
	}
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// SettingsPath returns the path to config.yaml.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.Dir, SettingsFile)
}

// OAuthClientPath returns the path to the OAuth client credentials file.
func (c *Config) OAuthClientPath() string {
	return filepath.Join(c.Dir, OAuthClientFile)
}

// TokenPath returns the path to the stored OAuth token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasOAuthClient checks if the OAuth client credentials file exists.
func (c *Config) HasOAuthClient() bool {
	_, err := os.Stat(c.OAuthClientPath())
	return err == nil
}

// HasToken checks if the token file exists.
func (c *Config) HasToken() bool {
	_, err := os.Stat(c.TokenPath())
	return err == nil
}

// RemoveToken deletes the token file.
func (c *Config) RemoveToken() error {
	return os.Remove(c.TokenPath())
}

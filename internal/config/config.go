// Package config handles persistent user configuration for perfsight.
//
// Configuration is stored as JSON at ~/.config/perfsight/config.json (or the
// platform-equivalent path returned by os.UserConfigDir).
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	appDir   = "perfsight"
	fileName = "config.json"
)

// Defaults applied by the accessors when a key is unset.
const (
	DefaultBackend         = "sqlite"
	DefaultServerURL       = "http://127.0.0.1:7878"
	DefaultListenAddr      = "127.0.0.1:7878"
	DefaultLogLevel        = "info"
	DefaultAutosaveDelayMs = 600
)

// pathOverride, when non-empty, replaces the default config file path.
// Intended for testing. Use SetPath / ResetPath to manage.
var pathOverride string

// SetPath overrides the config file path. Intended for testing.
func SetPath(p string) { pathOverride = p }

// ResetPath clears the path override, reverting to the default. Intended for testing.
func ResetPath() { pathOverride = "" }

// Config holds user preferences that persist across invocations.
type Config struct {
	Backend         string `json:"backend,omitempty" validate:"omitempty,oneof=sqlite http"`
	ServerURL       string `json:"server_url,omitempty" validate:"omitempty,http_url"`
	DatabasePath    string `json:"database_path,omitempty"`
	LogLevel        string `json:"log_level,omitempty" validate:"omitempty,oneof=debug info warn error"`
	LogFile         string `json:"log_file,omitempty"`
	AutosaveDelayMs int    `json:"autosave_delay_ms,omitempty" validate:"gte=0,lte=60000"`
	ListenAddr      string `json:"listen_addr,omitempty" validate:"omitempty,hostname_port"`
	HTTPRetries     int    `json:"http_retries,omitempty" validate:"gte=0,lte=10"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every set field against its allowed values.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// BackendName returns the configured backend or the default.
func (c *Config) BackendName() string {
	if c.Backend == "" {
		return DefaultBackend
	}
	return c.Backend
}

// ServerURLOrDefault returns the configured server URL or the default.
func (c *Config) ServerURLOrDefault() string {
	if c.ServerURL == "" {
		return DefaultServerURL
	}
	return c.ServerURL
}

// ListenAddrOrDefault returns the configured listen address or the default.
func (c *Config) ListenAddrOrDefault() string {
	if c.ListenAddr == "" {
		return DefaultListenAddr
	}
	return c.ListenAddr
}

// LogLevelOrDefault returns the configured log level or "info".
func (c *Config) LogLevelOrDefault() string {
	if c.LogLevel == "" {
		return DefaultLogLevel
	}
	return c.LogLevel
}

// AutosaveDelay returns the debounce delay for comparison autosave.
func (c *Config) AutosaveDelay() time.Duration {
	if c.AutosaveDelayMs <= 0 {
		return DefaultAutosaveDelayMs * time.Millisecond
	}
	return time.Duration(c.AutosaveDelayMs) * time.Millisecond
}

// Path returns the absolute path to the config file.
// If SetPath has been called, that value is returned instead.
// Otherwise it uses os.UserConfigDir which resolves to
// ~/Library/Application Support on macOS, ~/.config on Linux, and
// %AppData% on Windows.
func Path() (string, error) {
	if pathOverride != "" {
		return pathOverride, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: unable to determine config directory: %w", err)
	}
	return filepath.Join(base, appDir, fileName), nil
}

// Load reads the config file from disk and returns the parsed Config.
// If the file does not exist, a zero-value Config is returned (not an error).
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom reads the config from the given path. If path is empty, the
// default Path() is used.
func LoadFrom(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = Path()
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	return &cfg, nil
}

// Save writes the config to disk, creating the parent directory if needed.
func (c *Config) Save() error {
	return c.SaveTo("")
}

// SaveTo writes the config to the given path. If path is empty, the
// default Path() is used.
func (c *Config) SaveTo(path string) error {
	if path == "" {
		var err error
		path, err = Path()
		if err != nil {
			return err
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("config: failed to create directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("config: failed to marshal config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: failed to write %s: %w", path, err)
	}

	return nil
}

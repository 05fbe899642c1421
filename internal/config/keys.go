package config

import (
	"fmt"
	"strconv"
	"strings"
)

// KeySpec describes a single configuration key.
type KeySpec struct {
	// Name is the CLI-facing key name (e.g. "backend").
	Name string

	// Description is a short human-readable explanation shown in help text.
	Description string

	// Default is the effective value when the key is unset, if it has one.
	Default string

	// Choices lists the accepted values of enumerated keys.
	Choices []string

	// Get returns the current value for this key from a loaded Config.
	Get func(cfg *Config) string

	// Set applies a value for this key to the given Config (in memory only;
	// the caller is responsible for calling Validate and Save).
	Set func(cfg *Config, value string) error
}

func setString(field func(*Config) *string) func(*Config, string) error {
	return func(cfg *Config, v string) error {
		*field(cfg) = v
		return nil
	}
}

// getInt renders an integer field, leaving zero as unset.
func getInt(field func(*Config) *int) func(*Config) string {
	return func(cfg *Config) string {
		if *field(cfg) == 0 {
			return ""
		}
		return strconv.Itoa(*field(cfg))
	}
}

func setInt(name string, field func(*Config) *int) func(*Config, string) error {
	return func(cfg *Config, v string) error {
		if v == "" {
			*field(cfg) = 0
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s must be an integer: %w", name, err)
		}
		*field(cfg) = n
		return nil
	}
}

// Keys is the authoritative list of all supported configuration keys.
// To add a new option: add a field to Config and append a KeySpec here.
var Keys = []KeySpec{
	{
		Name:        "backend",
		Description: "Where reports are stored: sqlite (local) or http (perfsight serve)",
		Default:     DefaultBackend,
		Choices:     []string{"sqlite", "http"},
		Get:         func(cfg *Config) string { return cfg.Backend },
		Set:         setString(func(cfg *Config) *string { return &cfg.Backend }),
	},
	{
		Name:        "server-url",
		Description: "Base URL of the perfsight server used by the http backend",
		Default:     DefaultServerURL,
		Get:         func(cfg *Config) string { return cfg.ServerURL },
		Set:         setString(func(cfg *Config) *string { return &cfg.ServerURL }),
	},
	{
		Name:        "database-path",
		Description: "SQLite database file used by the sqlite backend",
		Get:         func(cfg *Config) string { return cfg.DatabasePath },
		Set:         setString(func(cfg *Config) *string { return &cfg.DatabasePath }),
	},
	{
		Name:        "log-level",
		Description: "Minimum log level: debug, info, warn or error",
		Default:     DefaultLogLevel,
		Choices:     []string{"debug", "info", "warn", "error"},
		Get:         func(cfg *Config) string { return cfg.LogLevel },
		Set:         setString(func(cfg *Config) *string { return &cfg.LogLevel }),
	},
	{
		Name:        "log-file",
		Description: "Write JSON logs to this file (rotated) instead of stderr",
		Get:         func(cfg *Config) string { return cfg.LogFile },
		Set:         setString(func(cfg *Config) *string { return &cfg.LogFile }),
	},
	{
		Name:        "autosave-delay-ms",
		Description: "Debounce delay before comparison selections are saved",
		Default:     strconv.Itoa(DefaultAutosaveDelayMs),
		Get:         getInt(func(cfg *Config) *int { return &cfg.AutosaveDelayMs }),
		Set:         setInt("autosave-delay-ms", func(cfg *Config) *int { return &cfg.AutosaveDelayMs }),
	},
	{
		Name:        "http-retries",
		Description: "Extra attempts for failed reads against the http backend (0 disables retries)",
		Default:     "0",
		Get:         getInt(func(cfg *Config) *int { return &cfg.HTTPRetries }),
		Set:         setInt("http-retries", func(cfg *Config) *int { return &cfg.HTTPRetries }),
	},
	{
		Name:        "listen-addr",
		Description: "Address perfsight serve listens on",
		Default:     DefaultListenAddr,
		Get:         func(cfg *Config) string { return cfg.ListenAddr },
		Set:         setString(func(cfg *Config) *string { return &cfg.ListenAddr }),
	},
}

// Lookup returns the KeySpec for the given name, or nil if not found.
// The name is matched case-insensitively after trimming whitespace.
func Lookup(name string) *KeySpec {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for i := range Keys {
		if Keys[i].Name == normalized {
			return &Keys[i]
		}
	}
	return nil
}

// KeyNames returns the names of all registered keys.
func KeyNames() []string {
	names := make([]string, len(Keys))
	for i, k := range Keys {
		names[i] = k.Name
	}
	return names
}

// KeysHelp builds a formatted block listing all available keys and their
// descriptions, suitable for inclusion in Cobra Long help text.
func KeysHelp() string {
	if len(Keys) == 0 {
		return ""
	}

	maxLen := 0
	for _, k := range Keys {
		if len(k.Name) > maxLen {
			maxLen = len(k.Name)
		}
	}

	var b strings.Builder
	b.WriteString("Available keys:\n")
	for _, k := range Keys {
		fmt.Fprintf(&b, "  %-*s   %s\n", maxLen, k.Name, k.Description)
	}
	return b.String()
}

// Package cmdutil holds the plumbing shared by the perfsight commands:
// backend selection, logging and output formatting.
package cmdutil

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nathanbeddoewebdev/perfsight/internal/backend"
	"nathanbeddoewebdev/perfsight/internal/config"
	"nathanbeddoewebdev/perfsight/internal/logging"
	"nathanbeddoewebdev/perfsight/internal/report/domain"
	"nathanbeddoewebdev/perfsight/internal/services/comparison"
)

// cliLogLevel keeps store and service chatter off the terminal unless the
// user asks for it.
const cliLogLevel = "warn"

// Env is everything a command needs to talk to the configured backend.
type Env struct {
	Config      *config.Config
	Log         *zap.Logger
	BackendName string
	Backend     backend.Manager
}

// AddBackendFlags registers the --backend and --log-level flags on a noun
// command so every subcommand inherits them.
func AddBackendFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("backend", "", "Report backend: sqlite or http (overrides config)")
	cmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error (overrides config)")
}

// AddOutputFlag registers the -o flag.
func AddOutputFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "table", "Output format: table or json")
}

// Output returns the value of the -o flag.
func Output(cmd *cobra.Command) string {
	output, _ := cmd.Flags().GetString("output")
	return output
}

// Open loads the configuration, builds the logger and opens the backend.
// Flags override the configured values.
func Open(cmd *cobra.Command) (*Env, error) {
	return open(cmd, cliLogLevel)
}

// OpenServer is Open for long-running commands; an unset log level falls
// back to the configured default instead of warn.
func OpenServer(cmd *cobra.Command) (*Env, error) {
	return open(cmd, config.DefaultLogLevel)
}

func open(cmd *cobra.Command, defaultLevel string) (*Env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	name := cfg.BackendName()
	if f := cmd.Flag("backend"); f != nil && f.Changed {
		name = f.Value.String()
	}

	level := cfg.LogLevel
	if f := cmd.Flag("log-level"); f != nil && f.Changed {
		level = f.Value.String()
	}
	if level == "" {
		level = defaultLevel
	}
	log, err := logging.New(logging.Options{
		Level:  level,
		File:   cfg.LogFile,
		Stderr: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, err
	}

	m, err := backend.Open(name, cfg, log)
	if err != nil {
		return nil, err
	}
	log.Debug("backend opened", zap.String("backend", name))

	return &Env{Config: cfg, Log: log, BackendName: name, Backend: m}, nil
}

// Service returns a comparison service over the environment's backend.
func (e *Env) Service() *comparison.Service {
	return comparison.NewService(e.Backend,
		comparison.WithLogger(e.Log.Named("comparison")),
		comparison.WithAutosaveDelay(e.Config.AutosaveDelay()),
	)
}

// Close releases the backend and flushes the logger.
func (e *Env) Close() {
	if err := e.Backend.Close(); err != nil {
		e.Log.Warn("backend close failed", zap.Error(err))
	}
	_ = e.Log.Sync()
}

// PrintJSON encodes v as indented JSON to the command's stdout.
func PrintJSON(cmd *cobra.Command, v any) {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

// ParseID parses a positive numeric id argument.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q: %w", s, domain.ErrInvalidInput)
	}
	return id, nil
}

// ParseIDList parses a comma-separated list of ids such as "1,2,3".
func ParseIDList(s string) ([]int64, error) {
	var ids []int64
	for part := range strings.SplitSeq(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		id, err := ParseID(part)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ParseIntList parses a comma-separated list of integers such as PIDs.
func ParseIntList(s string) ([]int, error) {
	out := []int{}
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", part, domain.ErrInvalidInput)
		}
		out = append(out, n)
	}
	return out, nil
}

// FormatFloat renders an optional value with a fixed precision, or "-".
func FormatFloat(v *float64, precision int) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', precision, 64)
}

// FormatDelta renders a signed change, or "-" when absent.
func FormatDelta(v *float64, precision int) string {
	if v == nil {
		return "-"
	}
	s := strconv.FormatFloat(*v, 'f', precision, 64)
	if *v > 0 {
		s = "+" + s
	}
	return s
}

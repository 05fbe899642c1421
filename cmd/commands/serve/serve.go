// Package serve implements "perfsight serve", the HTTP API over the local
// report store.
package serve

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"nathanbeddoewebdev/perfsight/cmd/commands/cmdutil"
	"nathanbeddoewebdev/perfsight/internal/api"
	"nathanbeddoewebdev/perfsight/internal/metrics"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewCommand returns the "serve" command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve reports and comparisons over HTTP",
		Long: `Serve the report store and the analytics engine as a JSON API.

Other perfsight installations can use it with "perfsight config set backend
http" and "perfsight config set server-url <url>". Prometheus metrics are
exposed on /metrics.

Examples:
  perfsight serve
  perfsight serve --addr 0.0.0.0:7878`,
		Args:         cobra.NoArgs,
		RunE:         runServe,
		SilenceUsage: true,
	}

	cmd.Flags().String("addr", "", "Listen address (overrides config)")
	cmdutil.AddBackendFlags(cmd)

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	env, err := cmdutil.OpenServer(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	if env.BackendName != "sqlite" {
		return fmt.Errorf("serve needs the sqlite backend, got %q", env.BackendName)
	}

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = env.Config.ListenAddrOrDefault()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := api.New(env.Backend,
		api.WithLogger(env.Log.Named("api")),
		api.WithMetrics(metrics.New()),
	)
	if err := srv.ListenAndServe(ctx, addr); err != nil {
		env.Log.Error("server stopped", zap.Error(err))
		return err
	}
	return nil
}

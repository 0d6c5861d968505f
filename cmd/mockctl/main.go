package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := buildRoot(newCommand(os.Stdout, os.Stderr))
	if err := root.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// buildRoot creates the command tree. Running the root command with no
// argument, or with any argument other than "stop", starts the mock servers.
func buildRoot(c *command) *cobra.Command {
	root := createRootCommand(c)
	root.AddCommand(
		createStartCommand(c),
		createStopCommand(c),
		createStatusCommand(c, &StatusFlags{}),
		createVersionCommand(c),
	)
	return root
}

func createRootCommand(c *command) *cobra.Command {
	root := &cobra.Command{
		Use:   "mockctl [stop]",
		Short: "Start and stop local API mock servers",
		Long: `mockctl launches one mocking-tool process per configured OpenAPI document
(by default Prism for accounts on :4010 and petstore on :4020), records their
pids in a pid file and terminates the whole process trees on "mockctl stop".

Examples:
  mockctl                          # start the mock servers
  mockctl stop                     # stop them and remove the pid file
  mockctl status --listen :9090    # serve liveness and metrics over HTTP
  mockctl --config mocks.toml      # custom server roster`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			arg := ""
			if len(args) == 1 {
				arg = args[0]
			}
			return c.Run(cmd.Context(), arg)
		},
	}
	f := c.global
	root.PersistentFlags().StringVar(&f.ConfigPath, "config", "", "path to TOML config file (optional)")
	root.PersistentFlags().StringVar(&f.PIDFile, "pid-file", "", "pid file path (default .prism-pids.json)")
	root.PersistentFlags().StringVar(&f.Tool, "tool", "", `mocking tool command (default "npx prism")`)
	root.PersistentFlags().StringVar(&f.LogLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&f.LogFile, "log-file", "", "also write JSON logs to this rotated file")
	root.PersistentFlags().StringVar(&f.HistoryDSN, "history-dsn", "", "export lifecycle events (sqlite://, postgres://, clickhouse://)")
	return root
}

func createStartCommand(c *command) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the configured mock servers and record their pids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.Run(cmd.Context(), "start")
		},
	}
}

func createStopCommand(c *command) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Terminate every recorded process tree and remove the pid file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.Run(cmd.Context(), "stop")
		},
	}
}

func createStatusCommand(c *command, flags *StatusFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether recorded pids are still running",
		Long: `Show whether recorded pids are still running.

With --listen the status is served over HTTP until interrupted:
  GET  /status     recorded pids as JSON
  POST /stop       same as "mockctl stop"
  GET  /metrics    Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.Status(cmd.Context(), *flags)
		},
	}
	cmd.Flags().BoolVar(&flags.JSON, "json", false, "print JSON instead of a table")
	cmd.Flags().StringVar(&flags.Listen, "listen", "", "serve status and metrics on this address (e.g. :9090)")
	cmd.Flags().StringVar(&flags.BasePath, "base-path", "", "URL prefix for HTTP endpoints")
	return cmd
}

func createVersionCommand(c *command) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the mockctl version",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			c.Version()
		},
	}
}

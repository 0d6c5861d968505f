package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/loykin/mockctl/internal/server"
	"github.com/loykin/mockctl/internal/supervisor"
)

// command implements the CLI actions independent of cobra.
type command struct {
	out    io.Writer
	errOut io.Writer
	global *GlobalFlags

	// extra supervisor options, used by tests
	supervisorOpts []supervisor.Option
}

func newCommand(out, errOut io.Writer) *command {
	return &command{out: out, errOut: errOut, global: &GlobalFlags{}}
}

// Run starts or stops the configured mock servers depending on arg.
func (c *command) Run(ctx context.Context, arg string) error {
	s, err := c.openSession()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	mode := supervisor.ParseMode(arg)
	s.logger.Debug("running", slog.String("mode", mode.String()), slog.String("pid_file", s.sup.PIDFile()))
	return s.sup.Run(ctx, mode, s.cfg.ServerList())
}

// Status prints the liveness of recorded pids, or serves it over HTTP when
// flags.Listen is set.
func (c *command) Status(ctx context.Context, flags StatusFlags) error {
	s, err := c.openSession()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	if flags.Listen != "" {
		return c.serveStatus(ctx, s, flags)
	}

	sts, err := s.sup.Status()
	if err != nil {
		return err
	}
	if flags.JSON {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(sts)
	}
	if len(sts) == 0 {
		_, _ = fmt.Fprintf(c.out, "No mock servers recorded in %s\n", s.sup.PIDFile())
		return nil
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "PID\tALIVE\tSTARTED\tCHILDREN\tCOMMAND")
	for _, st := range sts {
		started := "-"
		if !st.StartedAt.IsZero() {
			started = st.StartedAt.Format(time.RFC3339)
		}
		_, _ = fmt.Fprintf(tw, "%d\t%t\t%s\t%d\t%s\n", st.PID, st.Alive, started, st.Children, st.Cmdline)
	}
	return tw.Flush()
}

func (c *command) serveStatus(ctx context.Context, s *session, flags StatusFlags) error {
	srv, addr, err := server.NewServer(flags.Listen, flags.BasePath, s.sup)
	if err != nil {
		return fmt.Errorf("listen %s: %w", flags.Listen, err)
	}
	s.logger.Info("serving status", slog.String("addr", addr.String()), slog.String("base_path", flags.BasePath))
	<-ctx.Done()
	s.logger.Info("shutting down status server")
	return server.Shutdown(srv, 5*time.Second)
}

func (c *command) Version() {
	_, _ = fmt.Fprintf(c.out, "mockctl %s\n", version)
}

package supervisor

import (
	"context"
	"fmt"
	"log/slog"
)

// Mode selects what Run does.
type Mode int

const (
	ModeStart Mode = iota
	ModeStop
)

func (m Mode) String() string {
	if m == ModeStop {
		return "stop"
	}
	return "start"
}

// ParseMode maps a CLI argument to a Mode: "stop" stops, anything else
// (including no argument) starts.
func ParseMode(arg string) Mode {
	if arg == "stop" {
		return ModeStop
	}
	return ModeStart
}

// Run executes mode and writes a short report to the output writer.
// In stop mode individual termination failures are logged and do not make Run
// fail.
func (s *Supervisor) Run(ctx context.Context, mode Mode, servers []Server) error {
	if mode == ModeStop {
		return s.runStop(ctx)
	}
	return s.runStart(ctx, servers)
}

func (s *Supervisor) runStop(ctx context.Context) error {
	results, err := s.StopAll(ctx)
	if err != nil {
		return err
	}
	for _, r := range Failed(results) {
		s.logger.Warn("could not terminate process", slog.Int("pid", r.PID), slog.Any("error", r.Err))
	}
	_, _ = fmt.Fprintln(s.out, "Mock servers stopped.")
	return nil
}

func (s *Supervisor) runStart(ctx context.Context, servers []Server) error {
	if _, err := s.StartAll(ctx, servers); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(s.out, "Mock servers running:")
	for _, srv := range servers {
		_, _ = fmt.Fprintf(s.out, "   %s -> %s\n", srv.Name, srv.URL())
	}
	return nil
}

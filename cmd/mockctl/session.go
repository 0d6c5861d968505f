package main

import (
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/loykin/mockctl/internal/config"
	"github.com/loykin/mockctl/internal/history"
	"github.com/loykin/mockctl/internal/history/factory"
	"github.com/loykin/mockctl/internal/metrics"
	"github.com/loykin/mockctl/internal/supervisor"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
)

// session holds everything one command invocation opens: the resolved config,
// the logger, the optional history sink and the supervisor wired to them.
type session struct {
	cfg     *config.FileConfig
	logger  *slog.Logger
	sup     *supervisor.Supervisor
	closers []io.Closer
}

// openSession loads the config file, applies flag overrides and wires the
// supervisor.
func (c *command) openSession() (*session, error) {
	cfg, err := config.Load(c.global.ConfigPath)
	if err != nil {
		return nil, err
	}
	c.applyOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	lc := cfg.LoggerConfig()
	if lc.Slog.Color && !isTerminal(c.errOut) {
		lc.Slog.Color = false
	}
	logger, logCloser := lc.NewSlogger(c.errOut)
	s := &session{cfg: cfg, logger: logger, closers: []io.Closer{logCloser}}

	childEnv, err := cfg.ChildEnv()
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Debug("metrics registration failed", slog.Any("error", err))
	}

	opts := []supervisor.Option{
		supervisor.WithTool(cfg.Tool),
		supervisor.WithLogger(logger),
		supervisor.WithOutput(c.out),
		supervisor.WithEnv(childEnv),
	}
	if sink := s.openHistory(cfg.HistoryDSN()); sink != nil {
		opts = append(opts, supervisor.WithHistory(sink))
	}
	opts = append(opts, c.supervisorOpts...)
	s.sup = supervisor.New(cfg.PIDFile, opts...)
	return s, nil
}

// openHistory returns nil when dsn is empty or the sink cannot be opened; the
// latter is logged and the command proceeds without history.
func (s *session) openHistory(dsn string) history.Sink {
	if dsn == "" {
		return nil
	}
	sink, err := factory.NewSinkFromDSN(dsn)
	if err != nil {
		s.logger.Warn("history disabled", slog.Any("error", err))
		return nil
	}
	if cl, ok := sink.(io.Closer); ok {
		s.closers = append(s.closers, cl)
	}
	return sink
}

// Close releases the history sink and the log file.
func (s *session) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i].Close())
	}
	return errors.Join(errs...)
}

func (c *command) applyOverrides(cfg *config.FileConfig) {
	g := c.global
	if g.PIDFile != "" {
		cfg.PIDFile = g.PIDFile
	}
	if g.Tool != "" {
		cfg.Tool = g.Tool
	}
	if g.LogLevel != "" || g.LogFile != "" {
		if cfg.Log == nil {
			cfg.Log = &config.LogConfig{}
		}
		if g.LogLevel != "" {
			cfg.Log.Level = g.LogLevel
		}
		if g.LogFile != "" {
			cfg.Log.File = g.LogFile
		}
	}
	if g.HistoryDSN != "" {
		cfg.History = &config.HistoryConfig{DSN: g.HistoryDSN}
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Package supervisor launches mock server processes, records their pids in a
// pid file and terminates them on a later invocation.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/loykin/mockctl/internal/history"
	"github.com/loykin/mockctl/internal/metrics"
	"github.com/loykin/mockctl/internal/pidfile"
	"github.com/loykin/mockctl/internal/process"
)

// ManagedProcess is a spawned child. Only PID is ever persisted.
type ManagedProcess struct {
	PID       int       `json:"pid"`
	Name      string    `json:"name"`
	Port      int       `json:"port"`
	StartedAt time.Time `json:"started_at"`
}

// StopResult is the outcome of terminating one recorded pid.
type StopResult struct {
	PID int
	Err error
}

func (r StopResult) OK() bool { return r.Err == nil }

// Failed returns the results whose termination attempt failed.
func Failed(results []StopResult) []StopResult {
	var out []StopResult
	for _, r := range results {
		if !r.OK() {
			out = append(out, r)
		}
	}
	return out
}

// Supervisor owns a pid file and the roster of processes started through it.
// Children are never waited on; they keep running after the supervisor exits.
type Supervisor struct {
	mu     sync.Mutex
	pids   pidfile.File
	roster []ManagedProcess

	tool   string
	logger *slog.Logger
	out    io.Writer
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	env    []string
	sink   history.Sink
	kill   func(pid int) error
}

type Option func(*Supervisor)

// WithTool sets the mocking tool command prefix (default "npx prism").
func WithTool(tool string) Option {
	return func(s *Supervisor) {
		if tool != "" {
			s.tool = tool
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Supervisor) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithOutput sets where user-facing report lines are written (default stdout).
func WithOutput(w io.Writer) Option {
	return func(s *Supervisor) {
		if w != nil {
			s.out = w
		}
	}
}

// WithChildIO overrides the standard streams handed to children, which
// otherwise inherit the supervisor's own. Children are not waited on, so
// anything other than *os.File or nil (the null device) would leave a copying
// goroutine behind; pass files.
func WithChildIO(stdin *os.File, stdout, stderr *os.File) Option {
	return func(s *Supervisor) {
		s.stdin = fileOrNil(stdin)
		s.stdout = fileOrNil(stdout)
		s.stderr = fileOrNil(stderr)
	}
}

// WithEnv sets the complete environment of spawned children ("K=V" entries).
// Nil means children inherit the supervisor's environment.
func WithEnv(env []string) Option {
	return func(s *Supervisor) { s.env = env }
}

// WithHistory exports start and stop events to sink.
func WithHistory(sink history.Sink) Option {
	return func(s *Supervisor) { s.sink = sink }
}

// withKill replaces process tree termination in tests.
func withKill(fn func(pid int) error) Option {
	return func(s *Supervisor) { s.kill = fn }
}

// New creates a Supervisor bound to the pid file at path. An empty path means
// pidfile.DefaultPath.
func New(path string, opts ...Option) *Supervisor {
	s := &Supervisor{
		pids:   pidfile.New(path),
		tool:   DefaultTool,
		logger: slog.Default(),
		out:    os.Stdout,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		kill:   process.KillTree,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// PIDFile returns the path of the pid file.
func (s *Supervisor) PIDFile() string { return s.pids.Path }

// Tool returns the mocking tool command prefix.
func (s *Supervisor) Tool() string { return s.tool }

// Roster returns a copy of the processes started by this Supervisor.
func (s *Supervisor) Roster() []ManagedProcess {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ManagedProcess, len(s.roster))
	copy(out, s.roster)
	return out
}

// Start spawns command with args, inheriting the configured standard streams,
// and returns the child's pid. It does not wait for the child.
func (s *Supervisor) Start(ctx context.Context, name, command string, args []string) (int, error) {
	return s.start(ctx, name, 0, command, args)
}

func (s *Supervisor) start(ctx context.Context, name string, port int, command string, args []string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	spec := process.Spec{Name: name, Command: command, Args: args, Env: s.env}
	if err := spec.Validate(); err != nil {
		return 0, err
	}
	cmd := spec.BuildCommand()
	cmd.Stdin = s.stdin
	cmd.Stdout = s.stdout
	cmd.Stderr = s.stderr
	if err := cmd.Start(); err != nil {
		metrics.IncSpawnFailure(name)
		return 0, fmt.Errorf("start %s (%s): %w", name, command, err)
	}
	pid := cmd.Process.Pid
	// Drop our handle; the child outlives us.
	_ = cmd.Process.Release()

	s.mu.Lock()
	s.roster = append(s.roster, ManagedProcess{PID: pid, Name: name, Port: port, StartedAt: time.Now()})
	s.mu.Unlock()

	metrics.IncSpawn(name)
	s.logger.Debug("process spawned", slog.String("name", name), slog.Int("pid", pid), slog.Any("args", cmd.Args))
	s.record(ctx, history.EventStart, history.Record{Name: name, PID: pid, Port: port, Status: history.StatusSpawned})
	return pid, nil
}

// Persist overwrites the pid file with pids.
func (s *Supervisor) Persist(pids []int) error {
	if err := s.pids.Save(pids); err != nil {
		return err
	}
	metrics.SetTracked(len(pids))
	return nil
}

// Load returns the pids recorded in the pid file, or an empty slice when the
// file does not exist.
func (s *Supervisor) Load() ([]int, error) {
	return s.pids.Load()
}

// StartAll spawns servers in order and persists their pids. When a spawn
// fails, the pids started so far are still persisted so a later stop can
// terminate them, and the spawn error is returned.
func (s *Supervisor) StartAll(ctx context.Context, servers []Server) ([]int, error) {
	s.warnStillAlive()
	pids := make([]int, 0, len(servers))
	for _, srv := range servers {
		pid, err := s.start(ctx, srv.Name, srv.Port, s.tool, srv.Args())
		if err != nil {
			if len(pids) > 0 {
				if perr := s.Persist(pids); perr != nil {
					err = errors.Join(err, perr)
				}
			}
			return pids, err
		}
		s.logger.Info("mock server started", slog.String("name", srv.Name), slog.Int("pid", pid), slog.Int("port", srv.Port))
		pids = append(pids, pid)
	}
	if err := s.Persist(pids); err != nil {
		return pids, err
	}
	return pids, nil
}

// warnStillAlive logs recorded pids that are still running before the pid
// file gets overwritten.
func (s *Supervisor) warnStillAlive() {
	prev, err := s.Load()
	if err != nil {
		s.logger.Warn("ignoring unreadable pid file", slog.String("path", s.pids.Path), slog.Any("error", err))
		return
	}
	var alive []int
	for _, pid := range prev {
		if process.Alive(pid) {
			alive = append(alive, pid)
		}
	}
	if len(alive) > 0 {
		s.logger.Warn("previously started processes are still running; run stop first to terminate them",
			slog.String("path", s.pids.Path), slog.Any("pids", alive))
	}
}

// StopAll terminates the process tree of every recorded pid, then removes the
// pid file. A failed termination is reported in its StopResult and does not
// stop the loop. The error is non-nil only when the pid file cannot be read or
// removed.
func (s *Supervisor) StopAll(ctx context.Context) ([]StopResult, error) {
	pids, err := s.Load()
	if err != nil {
		return nil, err
	}
	results := make([]StopResult, 0, len(pids))
	for _, pid := range pids {
		r := StopResult{PID: pid, Err: s.kill(pid)}
		results = append(results, r)

		rec := history.Record{PID: pid, Status: history.StatusTerminated}
		if r.Err != nil {
			metrics.IncTermination(metrics.ResultFailed)
			rec.Status = history.StatusFailed
			rec.Error = r.Err.Error()
			s.logger.Debug("termination failed", slog.Int("pid", pid), slog.Any("error", r.Err))
		} else {
			metrics.IncTermination(metrics.ResultTerminated)
			s.logger.Debug("termination signaled", slog.Int("pid", pid))
		}
		s.record(ctx, history.EventStop, rec)
	}
	if err := s.pids.Remove(); err != nil {
		return results, fmt.Errorf("remove pid file %s: %w", s.pids.Path, err)
	}
	metrics.SetTracked(0)

	s.mu.Lock()
	s.roster = nil
	s.mu.Unlock()
	return results, nil
}

// Status inspects every recorded pid.
func (s *Supervisor) Status() ([]process.Status, error) {
	pids, err := s.Load()
	if err != nil {
		return nil, err
	}
	out := make([]process.Status, 0, len(pids))
	n := 0
	for _, pid := range pids {
		st := process.Inspect(pid)
		if st.Alive {
			n++
		}
		out = append(out, st)
	}
	metrics.SetTracked(len(pids))
	metrics.SetAlive(n)
	return out, nil
}

// record forwards an event to the history sink. Failures are logged only.
func (s *Supervisor) record(ctx context.Context, t history.EventType, rec history.Record) {
	if s.sink == nil {
		return
	}
	if err := s.sink.Send(ctx, history.NewEvent(t, rec)); err != nil {
		s.logger.Warn("history export failed", slog.String("event", string(t)), slog.Int("pid", rec.PID), slog.Any("error", err))
	}
}

func fileOrNil(f *os.File) io.ReadWriter {
	if f == nil {
		return nil
	}
	return f
}

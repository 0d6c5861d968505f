package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Default rotation settings for the log file.
const (
	DefaultMaxSizeMB  = 10 // MB
	DefaultMaxBackups = 3  // number of backup files
	DefaultMaxAgeDays = 7  // days
)

type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// SlogConfig controls the terminal handler.
type SlogConfig struct {
	Level      Level
	Format     Format
	Color      bool
	TimeStamps bool
	Source     bool
}

// FileConfig describes an optional rotated log file. Rotation parameters
// follow lumberjack semantics. File output is always JSON.
type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Config combines terminal and file logging.
type Config struct {
	Slog SlogConfig
	File FileConfig
}

// Default returns colored text output at info level without timestamps.
func Default() Config {
	return Config{Slog: SlogConfig{Level: LevelInfo, Format: FormatText, Color: true}}
}

// ParseLevel converts a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case LevelDebug:
		return slog.LevelDebug, nil
	case LevelInfo, "":
		return slog.LevelInfo, nil
	case LevelWarn, "warning":
		return slog.LevelWarn, nil
	case LevelError:
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// FileWriter returns a rotating writer for File.Path, or nil when no path is set.
func (c Config) FileWriter() io.WriteCloser {
	if c.File.Path == "" {
		return nil
	}
	if dir := filepath.Dir(c.File.Path); dir != "." {
		_ = os.MkdirAll(dir, 0o750)
	}
	return &lj.Logger{
		Filename:   c.File.Path,
		MaxSize:    valOr(c.File.MaxSizeMB, DefaultMaxSizeMB),
		MaxBackups: valOr(c.File.MaxBackups, DefaultMaxBackups),
		MaxAge:     valOr(c.File.MaxAgeDays, DefaultMaxAgeDays),
		Compress:   c.File.Compress,
	}
}

// NewSlogger builds a logger writing to w (typically os.Stderr) and, when
// configured, to the rotating log file. The returned closer releases the file
// and is never nil.
func (c Config) NewSlogger(w io.Writer) (*slog.Logger, io.Closer) {
	lvl, _ := ParseLevel(string(c.Slog.Level))
	opts := &slog.HandlerOptions{Level: lvl, AddSource: c.Slog.Source}

	var term slog.Handler
	switch {
	case c.Slog.Format == FormatJSON:
		term = slog.NewJSONHandler(w, opts)
	case c.Slog.Color:
		term = NewColorTextHandler(w, opts, c.Slog.TimeStamps)
	default:
		term = slog.NewTextHandler(w, withTime(opts, c.Slog.TimeStamps))
	}

	fw := c.FileWriter()
	if fw == nil {
		return slog.New(term), nopCloser{}
	}
	file := slog.NewJSONHandler(fw, &slog.HandlerOptions{Level: lvl, AddSource: c.Slog.Source})
	return slog.New(teeHandler{term, file}), fw
}

// withTime drops the time attribute unless timestamps are requested.
func withTime(opts *slog.HandlerOptions, show bool) *slog.HandlerOptions {
	if show {
		return opts
	}
	o := *opts
	o.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
		if len(groups) == 0 && a.Key == slog.TimeKey {
			return slog.Attr{}
		}
		return a
	}
	return &o
}

func valOr(v int, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

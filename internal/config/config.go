package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/loykin/mockctl/internal/env"
	"github.com/loykin/mockctl/internal/logger"
	"github.com/loykin/mockctl/internal/pidfile"
	"github.com/loykin/mockctl/internal/supervisor"
	"github.com/spf13/viper"
)

// FileConfig represents the top-level TOML structure:
//
//	pid_file = ".prism-pids.json"
//	tool = "npx prism"
//	env = ["FOO=bar"]
//	env_files = [".env"]
//
//	[log]
//	level = "info"
//	file = "mockctl.log"
//
//	[history]
//	dsn = "sqlite://history.db"
//
//	[[servers]]
//	name = "accounts"
//	spec = "../api/accounts.yaml"
//	port = 4010
//	flags = ["--errors", "--cors", "--dynamic"]
type FileConfig struct {
	PIDFile  string         `toml:"pid_file" mapstructure:"pid_file"`
	Tool     string         `toml:"tool" mapstructure:"tool"`
	Env      []string       `toml:"env" mapstructure:"env"`
	EnvFiles []string       `toml:"env_files" mapstructure:"env_files"`
	Log      *LogConfig     `toml:"log" mapstructure:"log"`
	History  *HistoryConfig `toml:"history" mapstructure:"history"`
	Servers  []ServerConfig `toml:"servers" mapstructure:"servers"`
}

type LogConfig struct {
	Level      string `toml:"level" mapstructure:"level"`
	Format     string `toml:"format" mapstructure:"format"`
	Color      *bool  `toml:"color" mapstructure:"color"`
	TimeStamps bool   `toml:"timestamps" mapstructure:"timestamps"`
	File       string `toml:"file" mapstructure:"file"`
	MaxSizeMB  int    `toml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `toml:"compress" mapstructure:"compress"`
}

// HistoryConfig selects the lifecycle history sink. An empty DSN disables it.
type HistoryConfig struct {
	DSN string `toml:"dsn" mapstructure:"dsn"`
}

type ServerConfig struct {
	Name  string   `toml:"name" mapstructure:"name"`
	Spec  string   `toml:"spec" mapstructure:"spec"`
	Port  int      `toml:"port" mapstructure:"port"`
	Host  string   `toml:"host" mapstructure:"host"`
	Flags []string `toml:"flags" mapstructure:"flags"`
}

// Default returns the built-in configuration: the two default mock servers
// launched with the default tool.
func Default() *FileConfig {
	fc := &FileConfig{PIDFile: pidfile.DefaultPath, Tool: supervisor.DefaultTool}
	for _, s := range supervisor.DefaultServers() {
		fc.Servers = append(fc.Servers, ServerConfig{Name: s.Name, Spec: s.Spec, Port: s.Port, Flags: s.Flags})
	}
	return fc
}

// Load reads the TOML file at path. An empty path returns Default(). Keys the
// file leaves out fall back to their defaults; a file with no [[servers]]
// keeps the default roster.
func Load(path string) (*FileConfig, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	v.SetDefault("pid_file", pidfile.DefaultPath)
	v.SetDefault("tool", supervisor.DefaultTool)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var fc FileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	if len(fc.Servers) == 0 {
		fc.Servers = Default().Servers
	}
	if err := fc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &fc, nil
}

// Validate checks the server roster: names and ports must be unique, ports in
// range and every server must name a spec file.
func (c *FileConfig) Validate() error {
	if len(c.Servers) == 0 {
		return errors.New("no servers configured")
	}
	names := make(map[string]bool, len(c.Servers))
	ports := make(map[int]string, len(c.Servers))
	var errs []error
	for i, s := range c.Servers {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			errs = append(errs, fmt.Errorf("servers[%d]: name is required", i))
			continue
		}
		if names[name] {
			errs = append(errs, fmt.Errorf("server %s: duplicate name", name))
		}
		names[name] = true
		if strings.TrimSpace(s.Spec) == "" {
			errs = append(errs, fmt.Errorf("server %s: spec is required", name))
		}
		if s.Port < 1 || s.Port > 65535 {
			errs = append(errs, fmt.Errorf("server %s: port %d out of range", name, s.Port))
			continue
		}
		if other, ok := ports[s.Port]; ok {
			errs = append(errs, fmt.Errorf("server %s: port %d already used by %s", name, s.Port, other))
		}
		ports[s.Port] = name
	}
	if c.Log != nil {
		if _, err := logger.ParseLevel(c.Log.Level); err != nil {
			errs = append(errs, err)
		}
		switch logger.Format(strings.ToLower(c.Log.Format)) {
		case "", logger.FormatText, logger.FormatJSON:
		default:
			errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
		}
	}
	return errors.Join(errs...)
}

// ServerList converts the roster; servers without flags get
// supervisor.DefaultFlags.
func (c *FileConfig) ServerList() []supervisor.Server {
	out := make([]supervisor.Server, 0, len(c.Servers))
	for _, s := range c.Servers {
		flags := s.Flags
		if flags == nil {
			flags = supervisor.DefaultFlags
		}
		out = append(out, supervisor.Server{
			Name:  strings.TrimSpace(s.Name),
			Spec:  s.Spec,
			Port:  s.Port,
			Host:  s.Host,
			Flags: append([]string(nil), flags...),
		})
	}
	return out
}

// LoggerConfig maps [log] onto logger.Config, starting from logger.Default().
func (c *FileConfig) LoggerConfig() logger.Config {
	lc := logger.Default()
	if c.Log == nil {
		return lc
	}
	if c.Log.Level != "" {
		lc.Slog.Level = logger.Level(strings.ToLower(c.Log.Level))
	}
	if c.Log.Format != "" {
		lc.Slog.Format = logger.Format(strings.ToLower(c.Log.Format))
	}
	if c.Log.Color != nil {
		lc.Slog.Color = *c.Log.Color
	}
	lc.Slog.TimeStamps = c.Log.TimeStamps
	lc.File = logger.FileConfig{
		Path:       c.Log.File,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
		Compress:   c.Log.Compress,
	}
	return lc
}

// HistoryDSN returns the configured history DSN, if any.
func (c *FileConfig) HistoryDSN() string {
	if c.History == nil {
		return ""
	}
	return strings.TrimSpace(c.History.DSN)
}

// ChildEnv composes the environment for spawned servers: the supervisor's own
// environment, then env_files in order, then env entries. It returns nil when
// neither key is set so children simply inherit.
func (c *FileConfig) ChildEnv() ([]string, error) {
	if len(c.Env) == 0 && len(c.EnvFiles) == 0 {
		return nil, nil
	}
	e := env.New()
	e.FromOS()
	for _, p := range c.EnvFiles {
		if err := e.LoadFile(p); err != nil {
			return nil, err
		}
	}
	return e.Merge(c.Env), nil
}

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/loykin/mockctl/internal/logger"
	"github.com/loykin/mockctl/internal/pidfile"
	"github.com/loykin/mockctl/internal/supervisor"
)

func writeTOML(t *testing.T, data string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "mockctl.toml")
	if err := os.WriteFile(p, []byte(data), 0o644); err != nil {
		t.Fatalf("write toml: %v", err)
	}
	return p
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	fc, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if fc.PIDFile != pidfile.DefaultPath || fc.Tool != supervisor.DefaultTool {
		t.Fatalf("unexpected defaults: %+v", fc)
	}
	if !reflect.DeepEqual(fc.ServerList(), supervisor.DefaultServers()) {
		t.Fatalf("unexpected servers: %+v", fc.ServerList())
	}
}

func TestLoad_Minimal(t *testing.T) {
	p := writeTOML(t, `tool = "prism"`)
	fc, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if fc.Tool != "prism" || fc.PIDFile != pidfile.DefaultPath {
		t.Fatalf("unexpected config: %+v", fc)
	}
	if len(fc.Servers) != 2 {
		t.Fatalf("expected default roster, got %+v", fc.Servers)
	}
}

func TestLoad_Full(t *testing.T) {
	p := writeTOML(t, `
pid_file = "/tmp/mocks.json"
tool = "prism"
env = ["A=1"]

[log]
level = "debug"
format = "json"
color = false
file = "/tmp/mockctl.log"
max_size_mb = 5

[history]
dsn = "sqlite:///tmp/h.db"

[[servers]]
name = "users"
spec = "api/users.yaml"
port = 5000
host = "127.0.0.1"

[[servers]]
name = "orders"
spec = "api/orders.yaml"
port = 5001
flags = ["--dynamic"]
`)
	fc, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if fc.PIDFile != "/tmp/mocks.json" || fc.HistoryDSN() != "sqlite:///tmp/h.db" || len(fc.Env) != 1 {
		t.Fatalf("unexpected top-level fields: %+v", fc)
	}
	servers := fc.ServerList()
	if len(servers) != 2 {
		t.Fatalf("expected 2 servers, got %d", len(servers))
	}
	if servers[0].Host != "127.0.0.1" || !reflect.DeepEqual(servers[0].Flags, supervisor.DefaultFlags) {
		t.Fatalf("unexpected first server: %+v", servers[0])
	}
	if !reflect.DeepEqual(servers[1].Flags, []string{"--dynamic"}) {
		t.Fatalf("unexpected flags: %v", servers[1].Flags)
	}

	lc := fc.LoggerConfig()
	if lc.Slog.Level != logger.LevelDebug || lc.Slog.Format != logger.FormatJSON || lc.Slog.Color {
		t.Fatalf("unexpected slog config: %+v", lc.Slog)
	}
	if lc.File.Path != "/tmp/mockctl.log" || lc.File.MaxSizeMB != 5 {
		t.Fatalf("unexpected file config: %+v", lc.File)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if _, err := Load(writeTOML(t, "tool = ")); err == nil {
		t.Fatalf("expected parse error")
	}
	_, err := Load(writeTOML(t, `
[[servers]]
name = "a"
spec = "a.yaml"
port = 4010
[[servers]]
name = "a"
spec = "b.yaml"
port = 4010
`))
	if err == nil || !strings.Contains(err.Error(), "duplicate name") || !strings.Contains(err.Error(), "already used") {
		t.Fatalf("expected duplicate errors, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		servers []ServerConfig
		log     *LogConfig
		want    string
	}{
		{"ok", []ServerConfig{{Name: "a", Spec: "a.yaml", Port: 1}}, nil, ""},
		{"none", nil, nil, "no servers"},
		{"no name", []ServerConfig{{Spec: "a.yaml", Port: 1}}, nil, "name is required"},
		{"no spec", []ServerConfig{{Name: "a", Port: 1}}, nil, "spec is required"},
		{"port zero", []ServerConfig{{Name: "a", Spec: "a.yaml"}}, nil, "out of range"},
		{"port high", []ServerConfig{{Name: "a", Spec: "a.yaml", Port: 65536}}, nil, "out of range"},
		{"bad level", []ServerConfig{{Name: "a", Spec: "a.yaml", Port: 1}}, &LogConfig{Level: "loud"}, "unknown log level"},
		{"bad format", []ServerConfig{{Name: "a", Spec: "a.yaml", Port: 1}}, &LogConfig{Format: "xml"}, "unknown log format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := &FileConfig{Servers: tt.servers, Log: tt.log}
			err := fc.Validate()
			if tt.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoggerConfigDefaults(t *testing.T) {
	fc := Default()
	if got := fc.LoggerConfig(); !reflect.DeepEqual(got, logger.Default()) {
		t.Fatalf("unexpected logger config: %+v", got)
	}
	if fc.HistoryDSN() != "" {
		t.Fatalf("history should be disabled by default")
	}
}

func TestChildEnv(t *testing.T) {
	fc := Default()
	envs, err := fc.ChildEnv()
	if err != nil || envs != nil {
		t.Fatalf("expected inherited env, got %v (%v)", envs, err)
	}

	t.Setenv("MOCKCTL_BASE", "base")
	dotenv := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(dotenv, []byte("FROM_FILE=f\nTOP=file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	fc.EnvFiles = []string{dotenv}
	fc.Env = []string{"TOP=tv"}
	envs, err = fc.ChildEnv()
	if err != nil {
		t.Fatalf("ChildEnv: %v", err)
	}
	m := map[string]string{}
	for _, kv := range envs {
		if i := strings.IndexByte(kv, '='); i > 0 {
			m[kv[:i]] = kv[i+1:]
		}
	}
	if m["MOCKCTL_BASE"] != "base" || m["FROM_FILE"] != "f" || m["TOP"] != "tv" {
		t.Fatalf("unexpected env: %v", m)
	}

	fc.EnvFiles = []string{filepath.Join(t.TempDir(), "missing.env")}
	if _, err := fc.ChildEnv(); err == nil {
		t.Fatalf("expected error for missing env file")
	}
}

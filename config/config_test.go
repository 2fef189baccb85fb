package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool  { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }

func TestResolverWithMockFS(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		"./cmd/pipestudio/config.yml": true,
		"./config.yml":                true,
		"./.env":                      true,
	}}
	resolver := &Resolver{FileSystem: fs}
	files := resolver.ResolveFiles("pipestudio", LoaderConfig{})
	if files.ConfigFile != "./cmd/pipestudio/config.yml" {
		t.Errorf("expected cmd config to win, got %q", files.ConfigFile)
	}
	if files.EnvFile != "./.env" {
		t.Errorf("expected ./.env, got %q", files.EnvFile)
	}
}

func TestResolverExplicitPaths(t *testing.T) {
	resolver := &Resolver{FileSystem: &mockFS{}}
	files := resolver.ResolveFiles("pipestudio", LoaderConfig{ConfigFile: "/etc/ps.yml", EnvFile: "/etc/ps.env"})
	if files.ConfigFile != "/etc/ps.yml" || files.EnvFile != "/etc/ps.env" {
		t.Errorf("explicit paths should be kept, got %+v", files)
	}
}

func TestEnvKeyVariants(t *testing.T) {
	got := envKeyVariants("PREVIEW_POLL_INTERVAL")
	want := []string{"preview_poll_interval", "preview.poll_interval", "preview.poll.interval"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("got %v, want %v", got, want)
	}
	if v := envKeyVariants("NAMESPACE"); len(v) != 1 || v[0] != "namespace" {
		t.Errorf("single segment should map to itself, got %v", v)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadConfig_StudioYAML(t *testing.T) {
	path := writeConfig(t, `
name: studio-test
namespace: sales
backend:
  base_url: http://cdap.local:11015
  timeout: 10s
preview:
  poll_interval: 2s
  legacy_status_check: true
state:
  driver: redis
  redis:
    addr: localhost:6379
artifacts:
  - name: cdap-data-pipeline
    version: 6.9.0
    scope: SYSTEM
`)
	var cfg Studio
	if err := LoadConfig("pipestudio", &cfg, WithConfigFile(path), WithDefaults(StudioDefaults())); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if cfg.Namespace != "sales" {
		t.Errorf("expected namespace sales, got %q", cfg.Namespace)
	}
	if cfg.Backend.Timeout != 10*time.Second {
		t.Errorf("expected 10s timeout, got %s", cfg.Backend.Timeout)
	}
	if cfg.Preview.PollInterval != 2*time.Second {
		t.Errorf("expected 2s poll interval, got %s", cfg.Preview.PollInterval)
	}
	if !cfg.Preview.Enabled {
		t.Error("preview.enabled should default to true")
	}
	if !cfg.Preview.LegacyStatusCheck {
		t.Error("expected legacy_status_check from file")
	}
	if cfg.Preview.TimerInterval != 500*time.Millisecond {
		t.Errorf("expected 500ms timer default, got %s", cfg.Preview.TimerInterval)
	}
	if len(cfg.Artifacts) != 1 || cfg.Artifacts[0].Scope != "SYSTEM" {
		t.Errorf("unexpected artifacts %+v", cfg.Artifacts)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	path := writeConfig(t, "namespace: sales\n")
	t.Setenv("PIPESTUDIO_NAMESPACE", "ops")
	t.Setenv("PIPESTUDIO_PREVIEW_POLL_INTERVAL", "750ms")
	t.Setenv("PIPESTUDIO_STATE_REDIS_ADDR", "redis:6379")

	var cfg Studio
	if err := LoadConfig("pipestudio", &cfg, WithConfigFile(path)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Namespace != "ops" {
		t.Errorf("expected env to override namespace, got %q", cfg.Namespace)
	}
	if cfg.Preview.PollInterval != 750*time.Millisecond {
		t.Errorf("expected 750ms, got %s", cfg.Preview.PollInterval)
	}
	if cfg.State.Redis.Addr != "redis:6379" {
		t.Errorf("expected redis addr from env, got %q", cfg.State.Redis.Addr)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	var cfg Studio
	err := LoadConfig("nonexistent-service", &cfg, WithConfigFile("/nonexistent/path.yml"), WithFileSystem(&mockFS{}))
	if err != nil {
		t.Fatalf("expected LoadConfig to succeed with missing file, got %v", err)
	}
}

func TestStudioValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Studio)
		errMsg string
	}{
		{"defaults valid", func(*Studio) {}, ""},
		{"bad environment", func(c *Studio) { c.Environment = "qa" }, "config.environment"},
		{"relative base url", func(c *Studio) { c.Backend.BaseURL = "cdap.local" }, "base_url"},
		{"poll too fast", func(c *Studio) { c.Preview.PollInterval = time.Millisecond }, "poll_interval"},
		{"unknown driver", func(c *Studio) { c.State.Driver = "etcd" }, "state.driver"},
		{"redis without addr", func(c *Studio) { c.State.Driver = "redis" }, "redis.addr"},
		{"otel without endpoint", func(c *Studio) { c.Observability.Enabled = true }, "endpoint"},
		{"artifact without version", func(c *Studio) {
			c.Artifacts = []ArtifactConfig{{Name: "cdap-data-pipeline"}}
		}, "artifacts[0]"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var cfg Studio
			cfg.ApplyDefaults()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.errMsg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.errMsg) {
				t.Errorf("expected error containing %q, got %v", tc.errMsg, err)
			}
		})
	}
}

func TestServerConfigAddr(t *testing.T) {
	var cfg Studio
	cfg.ApplyDefaults()
	if got := cfg.Server.Addr(); got != "127.0.0.1:8089" {
		t.Errorf("unexpected addr %q", got)
	}
}

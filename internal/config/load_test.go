package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "frameload.yaml", `
log:
  level: debug
frame:
  interval: 32ms
watch:
  enabled: true
  paths:
    - /tmp/a
    - /tmp/b
  debounce: 200ms
pulse:
  enabled: true
  spec: "@every 5s"
  burst: 3
history:
  driver: file
  path: /tmp/runs.jsonl
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("log.level = %q", cfg.Log.Level)
	}
	if d, _ := cfg.Frame.IntervalOrDefault(); d != 32*time.Millisecond {
		t.Fatalf("frame.interval = %v", d)
	}
	if len(cfg.Watch.Paths) != 2 || cfg.Watch.Paths[1] != "/tmp/b" {
		t.Fatalf("watch.paths = %v", cfg.Watch.Paths)
	}
	if d, _ := cfg.Watch.DebounceOrDefault(); d != 200*time.Millisecond {
		t.Fatalf("watch.debounce = %v", d)
	}
	if cfg.Pulse.BurstOrDefault() != 3 {
		t.Fatalf("pulse.burst = %d", cfg.Pulse.BurstOrDefault())
	}
	if cfg.History.Driver != "file" {
		t.Fatalf("history.driver = %q", cfg.History.Driver)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "frameload.yaml", `log: {level: info}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Log.ConsoleEnabled() {
		t.Fatal("console should default to enabled")
	}
	if d, _ := cfg.Frame.IntervalOrDefault(); d != 16*time.Millisecond {
		t.Fatalf("frame.interval default = %v", d)
	}
	if d, _ := cfg.Watch.DebounceOrDefault(); d != 250*time.Millisecond {
		t.Fatalf("watch.debounce default = %v", d)
	}
	if d, _ := cfg.Pulse.ThrottleOrDefault(); d != 500*time.Millisecond {
		t.Fatalf("pulse.throttle default = %v", d)
	}
	if cfg.Pulse.BurstOrDefault() != 5 {
		t.Fatalf("pulse.burst default = %d", cfg.Pulse.BurstOrDefault())
	}
}

func TestLoadRejectsUnknownField(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "frameload.yaml", `
log:
  levle: debug
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "frameload.yaml", `
frame:
  interval: fast
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for bad duration")
	}
	if !strings.Contains(err.Error(), "frame.interval") {
		t.Fatalf("error %q does not name the field", err)
	}
}

func TestLoadRejectsBadHistoryDriver(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "frameload.yaml", `
history:
  driver: postgres
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown history driver")
	}
}

func TestLoadWatchRequiresPaths(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "frameload.yaml", `
watch:
  enabled: true
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for watch without paths")
	}
}

func TestLoadJSON(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "frameload.json", `{"pulse": {"enabled": true, "spec": "@every 1s"}}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Pulse.Enabled || cfg.Pulse.Spec != "@every 1s" {
		t.Fatalf("pulse = %+v", cfg.Pulse)
	}
}

func TestLoadRejectsTrailingJSON(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "frameload.json", `{}{}`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for trailing data")
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if !os.IsNotExist(err) {
		t.Fatalf("err = %v, want not-exist", err)
	}
}

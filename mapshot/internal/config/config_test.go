package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mapshot.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const minimal = `
targets:
  - id: downtown
    url: https://example.test/downtown
`

func TestLoadFile_Defaults(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, minimal))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.Viewport.Width != 1600 || cfg.Viewport.Height != 1200 {
		t.Errorf("viewport defaults: got %dx%d", cfg.Viewport.Width, cfg.Viewport.Height)
	}
	if cfg.Stabilize.Dwell != 1200*time.Millisecond {
		t.Errorf("dwell default: got %v", cfg.Stabilize.Dwell)
	}
	if cfg.Stabilize.Timeout != 14*time.Second {
		t.Errorf("timeout default: got %v", cfg.Stabilize.Timeout)
	}
	if cfg.Capture.Retries != 3 {
		t.Errorf("retries default: got %d", cfg.Capture.Retries)
	}
	if cfg.Capture.Padding != 8 {
		t.Errorf("padding default: got %v", cfg.Capture.Padding)
	}
	if cfg.Targets[0].Policy != "largest" {
		t.Errorf("policy default: got %q", cfg.Targets[0].Policy)
	}
	if cfg.Targets[0].Output != "downtown.png" {
		t.Errorf("output default: got %q", cfg.Targets[0].Output)
	}
	for _, blocked := range cfg.Browser.ResourceBlocking {
		if blocked == "images" {
			t.Error("images blocked by default")
		}
	}
}

func TestLoadFile_FullConfig(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, `
browser:
  stealth: headful
  resource_blocking: [fonts]
viewport:
  width: 1920
  height: 1080
  device_scale: 2
stabilize:
  poll_interval: 200ms
  dwell: 900ms
  timeout: 12s
capture:
  retries: 2
  padding: 10
  format: jpeg
output_dir: captures
hide_chrome: [".cookie-banner", "#topnav"]
targets:
  - id: harbour
    url: https://example.test/harbour
    output: harbour.jpg
    selectors: ["#map"]
    policy: union
    layers: [tile_pane, overlay]
    exclude: [".map-controls"]
sinks:
  - type: stdout
  - type: webhook
    url: https://hooks.example.test/mapshot
history:
  db_path: mapshot.db
`))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.Stabilize.PollInterval != 200*time.Millisecond {
		t.Errorf("poll interval: got %v", cfg.Stabilize.PollInterval)
	}
	if cfg.Capture.Retries != 2 {
		t.Errorf("retries: got %d", cfg.Capture.Retries)
	}
	if len(cfg.Targets[0].Layers) != 2 {
		t.Errorf("layers: got %v", cfg.Targets[0].Layers)
	}
	if len(cfg.Sinks) != 2 || cfg.Sinks[1].URL == "" {
		t.Errorf("sinks: got %+v", cfg.Sinks)
	}
	if cfg.History.DBPath != "mapshot.db" {
		t.Errorf("history: got %q", cfg.History.DBPath)
	}
}

func TestLoadFile_RejectsNoTargets(t *testing.T) {
	_, err := LoadFile(writeConfig(t, "output_dir: out\n"))
	if err == nil || !strings.Contains(err.Error(), "no targets") {
		t.Errorf("got %v, want no-targets error", err)
	}
}

func TestLoadFile_RejectsDuplicateIDs(t *testing.T) {
	_, err := LoadFile(writeConfig(t, `
targets:
  - {id: a, url: https://x.test/1}
  - {id: a, url: https://x.test/2}
`))
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("got %v, want duplicate-id error", err)
	}
}

func TestLoadFile_RejectsUnknownPolicy(t *testing.T) {
	_, err := LoadFile(writeConfig(t, `
targets:
  - {id: a, url: https://x.test/1, policy: biggest}
`))
	if err == nil || !strings.Contains(err.Error(), "policy") {
		t.Errorf("got %v, want policy error", err)
	}
}

func TestApplyEnv_Overrides(t *testing.T) {
	t.Setenv(EnvViewportW, "2560")
	t.Setenv(EnvViewportH, "1440")
	t.Setenv(EnvDeviceScale, "2")
	t.Setenv(EnvStabilizeMS, "800")
	t.Setenv(EnvMapPadding, "12")
	t.Setenv(EnvOutputDir, "/tmp/maps")

	cfg, err := LoadFile(writeConfig(t, minimal))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.Viewport.Width != 2560 || cfg.Viewport.Height != 1440 {
		t.Errorf("viewport override: got %dx%d", cfg.Viewport.Width, cfg.Viewport.Height)
	}
	if cfg.Viewport.DeviceScale != 2 {
		t.Errorf("device scale override: got %v", cfg.Viewport.DeviceScale)
	}
	if cfg.Stabilize.Dwell != 800*time.Millisecond {
		t.Errorf("dwell override: got %v", cfg.Stabilize.Dwell)
	}
	if cfg.Capture.Padding != 12 {
		t.Errorf("padding override: got %v", cfg.Capture.Padding)
	}
	if cfg.OutputDir != "/tmp/maps" {
		t.Errorf("output dir override: got %q", cfg.OutputDir)
	}
}

func TestApplyEnv_GarbageIgnored(t *testing.T) {
	t.Setenv(EnvViewportW, "wide")
	t.Setenv(EnvStabilizeMS, "-5")

	cfg, err := LoadFile(writeConfig(t, minimal))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Viewport.Width != 1600 {
		t.Errorf("garbage width applied: got %d", cfg.Viewport.Width)
	}
	if cfg.Stabilize.Dwell != 1200*time.Millisecond {
		t.Errorf("negative dwell applied: got %v", cfg.Stabilize.Dwell)
	}
}

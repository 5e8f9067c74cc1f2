// Package config handles mapshot configuration from YAML files plus
// environment overrides for the handful of tunables operators flip per
// deployment (viewport, device scale, dwell, padding).
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level mapshot configuration.
type Config struct {
	Browser    BrowserConfig   `yaml:"browser"`
	Viewport   ViewportConfig  `yaml:"viewport"`
	Stabilize  StabilizeConfig `yaml:"stabilize"`
	Capture    CaptureConfig   `yaml:"capture"`
	OutputDir  string          `yaml:"output_dir"`
	// HideChrome selectors are suppressed on every page before probing.
	HideChrome []string        `yaml:"hide_chrome"`
	Targets    []TargetConfig  `yaml:"targets"`
	Sinks      []SinkConfig    `yaml:"sinks"`
	History    HistoryConfig   `yaml:"history"`
}

// BrowserConfig controls Chrome lifecycle.
type BrowserConfig struct {
	Remote           string   `yaml:"remote"`
	MemoryLimit      int64    `yaml:"memory_limit"`
	ResourceBlocking []string `yaml:"resource_blocking"`
	Stealth          string   `yaml:"stealth"` // headless | headful
	XvfbDisplay      string   `yaml:"xvfb_display"`
}

// ViewportConfig sets the base capture surface.
type ViewportConfig struct {
	Width       int     `yaml:"width"`
	Height      int     `yaml:"height"`
	DeviceScale float64 `yaml:"device_scale"`
}

// StabilizeConfig tunes the settle detector.
type StabilizeConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	Dwell        time.Duration `yaml:"dwell"`
	Timeout      time.Duration `yaml:"timeout"`
}

// CaptureConfig tunes the per-target attempt loop.
type CaptureConfig struct {
	Retries         int           `yaml:"retries"`
	Backoff         time.Duration `yaml:"backoff"`
	Padding         float64       `yaml:"padding"`
	Margin          int           `yaml:"margin"`
	MinBytes        int           `yaml:"min_bytes"`
	MinWidth        float64       `yaml:"min_width"`
	MinHeight       float64       `yaml:"min_height"`
	Format          string        `yaml:"format"` // png | jpeg
	Quality         int           `yaml:"quality"`
	NavigateTimeout time.Duration `yaml:"navigate_timeout"`
}

// TargetConfig defines one named map to capture.
type TargetConfig struct {
	ID        string   `yaml:"id"`
	URL       string   `yaml:"url"`
	Output    string   `yaml:"output"` // relative paths resolve under output_dir
	Selectors []string `yaml:"selectors"`
	Policy    string   `yaml:"policy"` // largest | union
	Layers    []string `yaml:"layers"` // union policy: roles to collect
	Exclude   []string `yaml:"exclude"`
}

// SinkConfig defines a result output backend.
type SinkConfig struct {
	Type string `yaml:"type"` // stdout | webhook
	URL  string `yaml:"url"`  // for webhook
}

// HistoryConfig enables the SQLite capture ledger.
type HistoryConfig struct {
	DBPath string `yaml:"db_path"` // empty disables history
}

// LoadFile reads a YAML configuration file, applies defaults and
// environment overrides, and validates.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Browser.MemoryLimit <= 0 {
		c.Browser.MemoryLimit = 1 << 30
	}
	if c.Browser.Stealth == "" {
		c.Browser.Stealth = "headless"
	}
	if c.Browser.XvfbDisplay == "" {
		c.Browser.XvfbDisplay = ":99"
	}
	if c.Browser.ResourceBlocking == nil {
		c.Browser.ResourceBlocking = []string{"fonts", "media"}
	}
	if c.Viewport.Width <= 0 {
		c.Viewport.Width = 1600
	}
	if c.Viewport.Height <= 0 {
		c.Viewport.Height = 1200
	}
	if c.Viewport.DeviceScale <= 0 {
		c.Viewport.DeviceScale = 1
	}
	if c.Stabilize.PollInterval <= 0 {
		c.Stabilize.PollInterval = 150 * time.Millisecond
	}
	if c.Stabilize.Dwell <= 0 {
		c.Stabilize.Dwell = 1200 * time.Millisecond
	}
	if c.Stabilize.Timeout <= 0 {
		c.Stabilize.Timeout = 14 * time.Second
	}
	if c.Capture.Retries <= 0 {
		c.Capture.Retries = 3
	}
	if c.Capture.Backoff <= 0 {
		c.Capture.Backoff = 2 * time.Second
	}
	if c.Capture.Padding <= 0 {
		c.Capture.Padding = 8
	}
	if c.Capture.Margin <= 0 {
		c.Capture.Margin = 64
	}
	if c.Capture.MinBytes <= 0 {
		c.Capture.MinBytes = 4096
	}
	if c.Capture.MinWidth <= 0 {
		c.Capture.MinWidth = 64
	}
	if c.Capture.MinHeight <= 0 {
		c.Capture.MinHeight = 64
	}
	if c.Capture.Format == "" {
		c.Capture.Format = "png"
	}
	if c.Capture.Quality <= 0 {
		c.Capture.Quality = 90
	}
	if c.Capture.NavigateTimeout <= 0 {
		c.Capture.NavigateTimeout = 30 * time.Second
	}
	if c.OutputDir == "" {
		c.OutputDir = "out"
	}
	for i := range c.Targets {
		if c.Targets[i].Policy == "" {
			c.Targets[i].Policy = "largest"
		}
		if c.Targets[i].Output == "" && c.Targets[i].ID != "" {
			c.Targets[i].Output = c.Targets[i].ID + ".png"
		}
	}
}

// Validate rejects configurations that cannot run.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return fmt.Errorf("config: no targets defined")
	}
	seen := make(map[string]bool, len(c.Targets))
	for i, t := range c.Targets {
		if t.ID == "" {
			return fmt.Errorf("config: target %d has no id", i)
		}
		if seen[t.ID] {
			return fmt.Errorf("config: duplicate target id %q", t.ID)
		}
		seen[t.ID] = true
		if t.URL == "" {
			return fmt.Errorf("config: target %q has no url", t.ID)
		}
		switch t.Policy {
		case "largest", "union":
		default:
			return fmt.Errorf("config: target %q: unknown policy %q", t.ID, t.Policy)
		}
	}
	switch c.Capture.Format {
	case "png", "jpeg", "jpg":
	default:
		return fmt.Errorf("config: unknown capture format %q", c.Capture.Format)
	}
	return nil
}

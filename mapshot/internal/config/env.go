package config

import (
	"os"
	"strconv"
	"time"
)

// Environment overrides recognised after file defaults. These are the
// knobs operators tune per deployment without editing the target list.
const (
	EnvViewportW   = "VIEWPORT_W"         // capture resolution width
	EnvViewportH   = "VIEWPORT_H"         // capture resolution height
	EnvDeviceScale = "DEVICE_SCALE"       // output sharpness multiplier
	EnvStabilizeMS = "STABILIZE_MS"       // dwell threshold in milliseconds
	EnvMapPadding  = "MAP_PADDING"        // region padding in pixels
	EnvOutputDir   = "MAPSHOT_OUTPUT_DIR" // output directory override
)

// ApplyEnv overlays environment variables onto the loaded configuration.
// Unparseable values are ignored; the file value stands.
func (c *Config) ApplyEnv() {
	if v, ok := envInt(EnvViewportW); ok {
		c.Viewport.Width = v
	}
	if v, ok := envInt(EnvViewportH); ok {
		c.Viewport.Height = v
	}
	if v, ok := envFloat(EnvDeviceScale); ok {
		c.Viewport.DeviceScale = v
	}
	if v, ok := envInt(EnvStabilizeMS); ok {
		c.Stabilize.Dwell = time.Duration(v) * time.Millisecond
	}
	if v, ok := envFloat(EnvMapPadding); ok {
		c.Capture.Padding = v
	}
	if v := os.Getenv(EnvOutputDir); v != "" {
		c.OutputDir = v
	}
}

func envInt(key string) (int, bool) {
	s := os.Getenv(key)
	if s == "" {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

func envFloat(key string) (float64, bool) {
	s := os.Getenv(key)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

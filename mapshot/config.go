package mapshot

import (
	"github.com/hazyhaar/mapshot/mapshot/internal/config"
)

// Config is the top-level mapshot configuration. Re-exported from internal.
type Config = config.Config

// BrowserConfig controls Chrome lifecycle.
type BrowserConfig = config.BrowserConfig

// ViewportConfig sets the base capture surface.
type ViewportConfig = config.ViewportConfig

// StabilizeConfig tunes the settle detector.
type StabilizeConfig = config.StabilizeConfig

// CaptureConfig tunes the per-target attempt loop.
type CaptureConfig = config.CaptureConfig

// TargetConfig defines one named map to capture.
type TargetConfig = config.TargetConfig

// SinkConfig defines a result output backend.
type SinkConfig = config.SinkConfig

// HistoryConfig enables the SQLite capture ledger.
type HistoryConfig = config.HistoryConfig

// LoadConfigFile reads a YAML configuration file, applying defaults and
// environment overrides.
func LoadConfigFile(path string) (*Config, error) {
	return config.LoadFile(path)
}

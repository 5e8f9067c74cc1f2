// Package capture drives one target from navigation to a validated image
// file: stabilize, select a region, fit the viewport, rasterize, validate,
// retry on any failure, fall back to a placeholder when the budget is
// spent. The browser is consumed through the Engine interface so the whole
// loop runs against a fake in tests.
package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/hazyhaar/mapshot/mapshot/geometry"
	"github.com/hazyhaar/mapshot/mapshot/internal/region"
	"github.com/hazyhaar/mapshot/mapshot/internal/stabilize"
)

// Engine is the automation capability the orchestrator requires: navigate,
// query geometry, size the viewport, rasterize a region. Nothing else.
type Engine interface {
	// Navigate loads the URL and waits for the page to settle enough to
	// probe. A fresh navigation also discards style overrides from any
	// previous target.
	Navigate(ctx context.Context, url string) error
	// HideChrome injects a style override suppressing non-map page chrome.
	HideChrome(ctx context.Context, selectors []string) error
	// Probe returns the current map candidates (read-only).
	Probe(ctx context.Context) ([]geometry.Candidate, error)
	// QueryBoxes returns the bounding boxes of elements matching the
	// given selectors, for exclusion regions.
	QueryBoxes(ctx context.Context, selectors []string) ([]geometry.Box, error)
	// Viewport reports the current viewport size in CSS pixels.
	Viewport(ctx context.Context) (w, h int, err error)
	// SetViewport resizes the viewport.
	SetViewport(ctx context.Context, w, h int) error
	// CaptureRegion rasterizes exactly the given page region.
	CaptureRegion(ctx context.Context, box geometry.Box) ([]byte, error)
}

// Target is one named map to capture.
type Target struct {
	ID      string
	URL     string
	Output  string
	Hints   []string // selector hints, tried before the framework sweep
	Policy  region.Policy
	Layers  []geometry.Role // union policy: roles to collect
	Exclude []string        // selectors whose nested layers are dropped
}

// Config tunes the per-target attempt loop.
type Config struct {
	// Retries is the total attempt budget. Default: 3.
	Retries int
	// Backoff between attempts. Default: 2s.
	Backoff time.Duration
	// Padding around the selected region in CSS pixels. Default: 8.
	Padding float64
	// Margin is the safety border required between region and viewport
	// edge before rasterizing. Default: 64.
	Margin int
	// MaxViewport caps viewport growth. Default: 4096.
	MaxViewport int
	// Format is "png" (default) or "jpeg".
	Format string
	// MinBytes for validation. Default: DefaultMinBytes.
	MinBytes int
	// HideChrome selectors suppressed on every page.
	HideChrome []string

	Stabilize stabilize.Config

	// Sleep is injectable for tests. Default: timer-based, context-aware.
	Sleep  func(ctx context.Context, d time.Duration) error
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Retries <= 0 {
		c.Retries = 3
	}
	if c.Backoff <= 0 {
		c.Backoff = 2 * time.Second
	}
	if c.Padding <= 0 {
		c.Padding = 8
	}
	if c.Margin <= 0 {
		c.Margin = 64
	}
	if c.MaxViewport <= 0 {
		c.MaxViewport = 4096
	}
	if c.Format == "" {
		c.Format = "png"
	}
	if c.MinBytes <= 0 {
		c.MinBytes = DefaultMinBytes
	}
	if c.Sleep == nil {
		c.Sleep = func(ctx context.Context, d time.Duration) error {
			t := time.NewTimer(d)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-t.C:
				return nil
			}
		}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Status of a finished target.
type Status string

const (
	StatusCaptured    Status = "captured"
	StatusPlaceholder Status = "placeholder"
)

// Result is the per-target outcome. Exactly one file exists at
// Target.Output when Run returns without error, whichever status.
type Result struct {
	TargetID string        `json:"target_id"`
	Status   Status        `json:"status"`
	Path     string        `json:"path"`
	Bytes    int           `json:"bytes"`
	Attempts int           `json:"attempts"`
	Region   geometry.Box  `json:"region"`
	Policy   region.Policy `json:"policy,omitempty"`
	Stable   bool          `json:"stable"`
	Err      string        `json:"error,omitempty"`
}

// Run captures one target with bounded retries. The returned error is
// non-nil only for environment-level failures (the placeholder itself
// could not be written, or the context died); capture failures degrade to
// a placeholder result.
func Run(ctx context.Context, e Engine, tgt Target, cfg Config) (*Result, error) {
	cfg.defaults()
	log := cfg.Logger

	var lastErr error
	for attempt := 1; attempt <= cfg.Retries; attempt++ {
		if attempt > 1 {
			if err := cfg.Sleep(ctx, cfg.Backoff); err != nil {
				return nil, err
			}
		}

		res, err := runAttempt(ctx, e, tgt, cfg)
		if err == nil {
			res.Attempts = attempt
			log.Info("capture: target done",
				"target", tgt.ID, "attempt", attempt,
				"bytes", res.Bytes, "region", res.Region.Key(), "policy", res.Policy)
			return res, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		lastErr = err
		log.Warn("capture: attempt failed",
			"target", tgt.ID, "attempt", attempt, "error", err)
	}

	// Budget spent: emit the placeholder so the output path always exists.
	if err := WritePlaceholder(tgt.Output); err != nil {
		return nil, err
	}
	log.Warn("capture: all attempts failed, placeholder written",
		"target", tgt.ID, "attempts", cfg.Retries, "error", lastErr)

	return &Result{
		TargetID: tgt.ID,
		Status:   StatusPlaceholder,
		Path:     tgt.Output,
		Bytes:    len(placeholderPNG),
		Attempts: cfg.Retries,
		Err:      lastErr.Error(),
	}, nil
}

func runAttempt(ctx context.Context, e Engine, tgt Target, cfg Config) (*Result, error) {
	if err := e.Navigate(ctx, tgt.URL); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNavigation, tgt.URL, err)
	}

	// Visual-only: removes chrome from candidacy, does not reflow the map.
	if len(cfg.HideChrome) > 0 {
		if err := e.HideChrome(ctx, cfg.HideChrome); err != nil {
			cfg.Logger.Debug("capture: hide chrome failed", "target", tgt.ID, "error", err)
		}
	}

	scfg := cfg.Stabilize
	scfg.Logger = cfg.Logger
	st, err := stabilize.Wait(ctx, stabilize.ProbeFunc(func(ctx context.Context) ([]geometry.Candidate, error) {
		return e.Probe(ctx)
	}), scfg)
	if err != nil {
		if errors.Is(err, stabilize.ErrNoCandidate) {
			return nil, fmt.Errorf("%w: %v", ErrNoRegion, err)
		}
		return nil, err
	}

	var exclude []geometry.Box
	if len(tgt.Exclude) > 0 {
		exclude, err = e.QueryBoxes(ctx, tgt.Exclude)
		if err != nil {
			cfg.Logger.Debug("capture: exclusion query failed", "target", tgt.ID, "error", err)
		}
	}

	box, used, err := region.Select(st.Candidates, region.Options{
		Policy:     tgt.Policy,
		Padding:    cfg.Padding,
		LayerRoles: tgt.Layers,
		Exclude:    exclude,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoRegion, err)
	}

	if err := ensureViewport(ctx, e, box, cfg); err != nil {
		return nil, err
	}

	buf, err := e.CaptureRegion(ctx, box)
	if err != nil {
		return nil, fmt.Errorf("%w: rasterize: %v", ErrInvalidCapture, err)
	}
	if err := Validate(buf, cfg.Format, cfg.MinBytes); err != nil {
		return nil, err
	}

	if err := os.WriteFile(tgt.Output, buf, 0o644); err != nil {
		return nil, fmt.Errorf("capture: write %s: %w", tgt.Output, err)
	}

	return &Result{
		TargetID: tgt.ID,
		Status:   StatusCaptured,
		Path:     tgt.Output,
		Bytes:    len(buf),
		Region:   box,
		Policy:   used,
		Stable:   st.State == stabilize.StateStable,
	}, nil
}

// ensureViewport grows the viewport so the region plus safety margin fits.
// A region partially outside the viewport cannot be rasterized correctly,
// so padding enlarges the viewport rather than being clamped to it.
func ensureViewport(ctx context.Context, e Engine, box geometry.Box, cfg Config) error {
	vw, vh, err := e.Viewport(ctx)
	if err != nil {
		return fmt.Errorf("%w: query viewport: %v", ErrViewport, err)
	}

	needW := int(math.Ceil(box.Right())) + cfg.Margin
	needH := int(math.Ceil(box.Bottom())) + cfg.Margin
	if needW <= vw && needH <= vh {
		return nil
	}
	if needW > cfg.MaxViewport || needH > cfg.MaxViewport {
		return fmt.Errorf("%w: region %s needs %dx%d, cap %d",
			ErrViewport, box.Key(), needW, needH, cfg.MaxViewport)
	}

	if needW < vw {
		needW = vw
	}
	if needH < vh {
		needH = vh
	}
	if err := e.SetViewport(ctx, needW, needH); err != nil {
		return fmt.Errorf("%w: resize to %dx%d: %v", ErrViewport, needW, needH, err)
	}
	return nil
}

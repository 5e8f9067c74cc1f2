// Package mapshot captures screenshots of dynamically-rendered embedded
// maps. It orchestrates Chrome headless as a disposable component: per
// configured target it navigates, waits for the map's geometry to
// stabilize, selects a tight region, rasterizes it, and writes one image
// file. When a page never yields a usable map, a placeholder is written
// instead so every target still produces a file.
package mapshot

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hazyhaar/mapshot/mapshot/geometry"
	"github.com/hazyhaar/mapshot/mapshot/internal/browser"
	"github.com/hazyhaar/mapshot/mapshot/internal/capture"
	"github.com/hazyhaar/mapshot/mapshot/internal/config"
	"github.com/hazyhaar/mapshot/mapshot/internal/history"
	"github.com/hazyhaar/mapshot/mapshot/internal/idgen"
	"github.com/hazyhaar/mapshot/mapshot/internal/region"
	"github.com/hazyhaar/mapshot/mapshot/internal/report"
	"github.com/hazyhaar/mapshot/mapshot/internal/stabilize"
)

// RunReport aggregates the per-target outcomes of one run. The caller
// decides exit status from this, not from suppressed errors: a placeholder
// is a reported degradation, not a hidden one.
type RunReport struct {
	RunID        string           `json:"run_id"`
	Results      []capture.Result `json:"results"`
	Captured     int              `json:"captured"`
	Placeholders int              `json:"placeholders"`
}

// engineFactory builds the capture engine for one target. Swapped out in
// tests for a browserless fake.
type engineFactory func(ctx context.Context, tgt config.TargetConfig) (capture.Engine, func(), error)

// Runner is the top-level orchestrator. Create one per run.
type Runner struct {
	cfg       *config.Config
	mgr       *browser.Manager
	sinks     *report.Router
	hist      *history.Store
	logger    *slog.Logger
	runID     string
	newEngine engineFactory
}

// NewTargetID returns a short random identifier for ad-hoc targets that
// have no configured id.
func NewTargetID() string {
	return idgen.NanoID(8)()
}

// New creates a Runner from configuration.
func New(cfg *config.Config, logger *slog.Logger, sinks ...report.Sink) *Runner {
	if logger == nil {
		logger = slog.Default()
	}

	stealthLevel := browser.LevelHeadless
	if cfg.Browser.Stealth == "headful" {
		stealthLevel = browser.LevelHeadful
	}

	mgr := browser.NewManager(browser.Config{
		RemoteURL:        cfg.Browser.Remote,
		MemoryLimit:      cfg.Browser.MemoryLimit,
		ResourceBlocking: cfg.Browser.ResourceBlocking,
		Stealth:          stealthLevel,
		XvfbDisplay:      cfg.Browser.XvfbDisplay,
		Logger:           logger,
	})

	r := &Runner{
		cfg:    cfg,
		mgr:    mgr,
		sinks:  report.NewRouter(logger, sinks...),
		logger: logger,
		runID:  idgen.Prefixed("run_", idgen.NanoID(12))(),
	}
	r.newEngine = r.openTab
	return r
}

// Start prepares the run: output directory, capture ledger, browser.
// Failures here are environment-level and fatal.
func (r *Runner) Start(ctx context.Context) error {
	if err := os.MkdirAll(r.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("mapshot: create output dir %s: %w", r.cfg.OutputDir, err)
	}

	if r.cfg.History.DBPath != "" {
		h, err := history.Open(r.cfg.History.DBPath, r.runID)
		if err != nil {
			return fmt.Errorf("mapshot: open history: %w", err)
		}
		r.hist = h
	}

	if err := r.mgr.Start(ctx); err != nil {
		return fmt.Errorf("mapshot: start browser: %w", err)
	}
	return nil
}

// Run processes all targets sequentially: one target fully completed
// (capture or placeholder) before the next begins. One target's failure
// never fails its siblings.
func (r *Runner) Run(ctx context.Context) (*RunReport, error) {
	rep := &RunReport{RunID: r.runID}

	for _, tc := range r.cfg.Targets {
		if err := ctx.Err(); err != nil {
			return rep, err
		}

		res, err := r.runTarget(ctx, tc)
		if err != nil {
			// Environment-level: placeholder unwritable or context dead.
			return rep, err
		}

		rep.Results = append(rep.Results, *res)
		switch res.Status {
		case capture.StatusCaptured:
			rep.Captured++
		case capture.StatusPlaceholder:
			rep.Placeholders++
		}

		if r.hist != nil {
			r.hist.Record(ctx, *res)
		}
		if err := r.sinks.Send(ctx, *res); err != nil {
			r.logger.Warn("mapshot: report send failed", "target", res.TargetID, "error", err)
		}

		r.mgr.CheckHealth(ctx)
	}

	r.logger.Info("mapshot: run complete",
		"run", rep.RunID, "captured", rep.Captured, "placeholders", rep.Placeholders)
	return rep, nil
}

// Stop shuts down the browser and closes sinks and the ledger.
func (r *Runner) Stop() {
	r.sinks.Close()
	if r.hist != nil {
		r.hist.Close()
	}
	r.mgr.Close()
}

func (r *Runner) runTarget(ctx context.Context, tc config.TargetConfig) (*capture.Result, error) {
	tgt := capture.Target{
		ID:      tc.ID,
		URL:     tc.URL,
		Output:  r.outputPath(tc),
		Hints:   tc.Selectors,
		Policy:  region.Policy(tc.Policy),
		Layers:  layerRoles(tc.Layers),
		Exclude: tc.Exclude,
	}

	e, closeEngine, err := r.newEngine(ctx, tc)
	if err != nil {
		// No tab means no attempt loop ran; emit the placeholder here so
		// the output-path guarantee holds even for engine failures.
		r.logger.Warn("mapshot: engine unavailable", "target", tc.ID, "error", err)
		if werr := capture.WritePlaceholder(tgt.Output); werr != nil {
			return nil, werr
		}
		return &capture.Result{
			TargetID: tc.ID,
			Status:   capture.StatusPlaceholder,
			Path:     tgt.Output,
			Err:      err.Error(),
		}, nil
	}
	defer closeEngine()

	return capture.Run(ctx, e, tgt, capture.Config{
		Retries:    r.cfg.Capture.Retries,
		Backoff:    r.cfg.Capture.Backoff,
		Padding:    r.cfg.Capture.Padding,
		Margin:     r.cfg.Capture.Margin,
		Format:     r.cfg.Capture.Format,
		MinBytes:   r.cfg.Capture.MinBytes,
		HideChrome: r.cfg.HideChrome,
		Stabilize: stabilize.Config{
			PollInterval: r.cfg.Stabilize.PollInterval,
			Dwell:        r.cfg.Stabilize.Dwell,
			Timeout:      r.cfg.Stabilize.Timeout,
			Logger:       r.logger,
		},
		Logger: r.logger,
	})
}

// openTab is the default engine factory: a fresh stealth tab per target,
// so style overrides from one target cannot leak into the next.
func (r *Runner) openTab(ctx context.Context, tc config.TargetConfig) (capture.Engine, func(), error) {
	tab, err := browser.NewTab(ctx, r.mgr, browser.TabConfig{
		Width:           r.cfg.Viewport.Width,
		Height:          r.cfg.Viewport.Height,
		DeviceScale:     r.cfg.Viewport.DeviceScale,
		NavigateTimeout: r.cfg.Capture.NavigateTimeout,
		Hints:           tc.Selectors,
		Min:             geometry.MinSize{Width: r.cfg.Capture.MinWidth, Height: r.cfg.Capture.MinHeight},
		Format:          r.cfg.Capture.Format,
		Quality:         r.cfg.Capture.Quality,
	})
	if err != nil {
		return nil, nil, err
	}
	return tab, func() { tab.Close() }, nil
}

func (r *Runner) outputPath(tc config.TargetConfig) string {
	if filepath.IsAbs(tc.Output) {
		return tc.Output
	}
	return filepath.Join(r.cfg.OutputDir, tc.Output)
}

func layerRoles(names []string) []geometry.Role {
	roles := make([]geometry.Role, 0, len(names))
	for _, n := range names {
		roles = append(roles, geometry.Role(n))
	}
	return roles
}

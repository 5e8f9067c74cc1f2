package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/hazyhaar/mapshot/mapshot/geometry"
	"github.com/hazyhaar/mapshot/mapshot/internal/probe"
)

// TabConfig carries the per-target settings a Tab needs to act as the
// capture engine.
type TabConfig struct {
	// Viewport base size and device pixel scale.
	Width, Height int
	DeviceScale   float64

	// NavigateTimeout bounds one page load. Default: 30s.
	NavigateTimeout time.Duration

	// Hints are the target's selector hints for the probe.
	Hints []string
	// Min is the candidate viability threshold.
	Min geometry.MinSize

	// Format for CaptureRegion: "png" (default) or "jpeg".
	Format string
	// Quality for jpeg. Default: 90.
	Quality int
}

func (c *TabConfig) defaults() {
	if c.Width <= 0 {
		c.Width = 1600
	}
	if c.Height <= 0 {
		c.Height = 1200
	}
	if c.DeviceScale <= 0 {
		c.DeviceScale = 1
	}
	if c.NavigateTimeout <= 0 {
		c.NavigateTimeout = 30 * time.Second
	}
	if c.Format == "" {
		c.Format = "png"
	}
	if c.Quality <= 0 {
		c.Quality = 90
	}
}

// Tab wraps a Rod page with capture-specific setup: stealth, resource
// blocking, viewport emulation. One Tab per target; style overrides cannot
// leak across targets because each gets a fresh page.
type Tab struct {
	Page   *rod.Page
	cfg    TabConfig
	mgr    *Manager
	vw, vh int
}

// NewTab creates a blank tab on the managed browser with stealth applied
// at headless level, blocks configured resource types, and sets the base
// viewport.
func NewTab(ctx context.Context, mgr *Manager, cfg TabConfig) (*Tab, error) {
	cfg.defaults()

	b := mgr.Browser()
	if b == nil {
		return nil, fmt.Errorf("browser: no active browser")
	}

	page, err := stealth.Page(b)
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	if len(mgr.cfg.ResourceBlocking) > 0 {
		if err := applyResourceBlocking(page, mgr.cfg.ResourceBlocking); err != nil {
			mgr.cfg.Logger.Warn("browser: resource blocking failed", "error", err)
		}
	}

	t := &Tab{Page: page, cfg: cfg, mgr: mgr}
	if err := t.SetViewport(ctx, cfg.Width, cfg.Height); err != nil {
		page.Close()
		return nil, err
	}
	return t, nil
}

// Navigate loads the URL with the configured timeout and waits for the
// load event. WaitLoad timing out is not fatal: map pages keep streaming
// tiles long past load, which is exactly what stabilization handles.
func (t *Tab) Navigate(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, t.cfg.NavigateTimeout)
	defer cancel()

	if err := t.Page.Context(navCtx).Navigate(url); err != nil {
		return fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	if err := t.Page.Context(navCtx).WaitLoad(); err != nil {
		t.mgr.cfg.Logger.Warn("browser: wait load timeout", "url", url, "error", err)
	}
	return nil
}

// HideChrome injects a style override setting the given selectors to
// display:none. Visual-only; the hidden elements also drop out of probe
// candidacy because their computed style is no longer visible.
func (t *Tab) HideChrome(ctx context.Context, selectors []string) error {
	if len(selectors) == 0 {
		return nil
	}
	css := ""
	for i, sel := range selectors {
		if i > 0 {
			css += ", "
		}
		css += sel
	}
	css += " { display: none !important; }"

	_, err := t.Page.Context(ctx).Eval(`(css) => {
		const style = document.createElement('style');
		style.setAttribute('data-mapshot', 'hide-chrome');
		style.textContent = css;
		document.head.appendChild(style);
	}`, css)
	if err != nil {
		return fmt.Errorf("browser: hide chrome: %w", err)
	}
	return nil
}

// Probe runs the candidate scan with the tab's hints and threshold.
func (t *Tab) Probe(ctx context.Context) ([]geometry.Candidate, error) {
	return probe.Collect(ctx, t.Page, probe.Options{Hints: t.cfg.Hints, Min: t.cfg.Min})
}

// QueryBoxes returns the bounding boxes of elements matching the given
// selectors. Missing elements contribute nothing.
func (t *Tab) QueryBoxes(ctx context.Context, selectors []string) ([]geometry.Box, error) {
	res, err := t.Page.Context(ctx).Eval(`(sels) => {
		const out = [];
		for (const sel of sels) {
			let els;
			try { els = document.querySelectorAll(sel); } catch (e) { continue; }
			for (const el of els) {
				const r = el.getBoundingClientRect();
				out.push({x: r.left, y: r.top, width: r.width, height: r.height});
			}
		}
		return JSON.stringify(out);
	}`, selectors)
	if err != nil {
		return nil, fmt.Errorf("browser: query boxes: %w", err)
	}

	var boxes []geometry.Box
	if err := json.Unmarshal([]byte(res.Value.Str()), &boxes); err != nil {
		return nil, fmt.Errorf("browser: decode boxes: %w", err)
	}
	return boxes, nil
}

// Viewport reports the current emulated viewport size.
func (t *Tab) Viewport(ctx context.Context) (int, int, error) {
	return t.vw, t.vh, nil
}

// SetViewport resizes the emulated viewport, keeping the device scale.
func (t *Tab) SetViewport(ctx context.Context, w, h int) error {
	err := proto.EmulationSetDeviceMetricsOverride{
		Width:             w,
		Height:            h,
		DeviceScaleFactor: t.cfg.DeviceScale,
		Mobile:            false,
	}.Call(t.Page.Context(ctx))
	if err != nil {
		return fmt.Errorf("browser: set viewport %dx%d: %w", w, h, err)
	}
	t.vw, t.vh = w, h
	return nil
}

// CaptureRegion rasterizes exactly the given page region. The clip is in
// CSS pixels; the device scale set on the viewport multiplies the output
// resolution.
func (t *Tab) CaptureRegion(ctx context.Context, box geometry.Box) ([]byte, error) {
	opts := &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
		Clip: &proto.PageViewport{
			X:      box.X,
			Y:      box.Y,
			Width:  box.Width,
			Height: box.Height,
			Scale:  1,
		},
	}
	if t.cfg.Format == "jpeg" || t.cfg.Format == "jpg" {
		opts.Format = proto.PageCaptureScreenshotFormatJpeg
		opts.Quality = gson.Int(t.cfg.Quality)
	}

	buf, err := t.Page.Context(ctx).Screenshot(false, opts)
	if err != nil {
		return nil, fmt.Errorf("browser: screenshot: %w", err)
	}
	return buf, nil
}

// Close closes the tab.
func (t *Tab) Close() error {
	if t.Page != nil {
		return t.Page.Close()
	}
	return nil
}

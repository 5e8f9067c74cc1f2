// Package stabilize waits for a page's map geometry to stop moving.
//
// Map pages re-layout asynchronously: tile loading, pan animation,
// zoom-to-fit. Sampling once is unreliable and polling forever is
// unbounded, so the detector polls the probe until the best candidate's
// quantized geometry holds still for a dwell period, or gives up at a hard
// ceiling and hands back whatever it last saw.
package stabilize

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hazyhaar/mapshot/mapshot/geometry"
	"github.com/hazyhaar/mapshot/mapshot/internal/region"
)

// ErrNoCandidate means the probe never returned a viable element before
// the hard ceiling.
var ErrNoCandidate = errors.New("stabilize: no candidate ever appeared")

// Prober samples the page for candidate geometry. Implementations must be
// read-only against current render state; a page with no matching elements
// returns an empty slice, not an error.
type Prober interface {
	Probe(ctx context.Context) ([]geometry.Candidate, error)
}

// ProbeFunc adapts a function to the Prober interface.
type ProbeFunc func(ctx context.Context) ([]geometry.Candidate, error)

func (f ProbeFunc) Probe(ctx context.Context) ([]geometry.Candidate, error) { return f(ctx) }

// State is the detector's terminal state.
type State string

const (
	StateStable  State = "stable"
	StateTimeout State = "timeout"
)

// Config tunes the detector. Now and Sleep are injectable so tests run
// without real waiting.
type Config struct {
	// PollInterval between probe ticks. Default: 150ms.
	PollInterval time.Duration
	// Dwell is how long the geometry key must hold before the region
	// counts as stable. Default: 1200ms.
	Dwell time.Duration
	// Timeout is the hard ceiling on the whole wait. Default: 14s.
	Timeout time.Duration

	Now    func() time.Time
	Sleep  func(ctx context.Context, d time.Duration) error
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = 150 * time.Millisecond
	}
	if c.Dwell <= 0 {
		c.Dwell = 1200 * time.Millisecond
	}
	if c.Timeout <= 0 {
		c.Timeout = 14 * time.Second
	}
	if c.Now == nil {
		c.Now = time.Now
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

// Result is the detector outcome. On StateTimeout the box is the best
// candidate from the most recent successful tick (best-effort capture is
// still worth attempting).
type Result struct {
	State State
	// Box is the unpadded bounding box of the winning candidate.
	Box geometry.Box
	// Candidates is the probe sample the box came from, so the union
	// policy can reuse it without re-probing.
	Candidates []geometry.Candidate
	// Ticks is the number of probe samples taken.
	Ticks int
}

// Wait polls the prober until the largest candidate's geometry is stable
// or the ceiling is reached. Dwell state is local to this call and
// discarded on return.
func Wait(ctx context.Context, p Prober, cfg Config) (*Result, error) {
	cfg.defaults()
	log := cfg.Logger

	start := cfg.Now()
	var (
		lastKey     string
		stableSince time.Time
		best        geometry.Box
		bestSample  []geometry.Candidate
		seen        bool
		ticks       int
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ticks++
		cands, err := p.Probe(ctx)
		if err != nil {
			// A failed evaluate is transient on a re-rendering page.
			log.Debug("stabilize: probe failed", "tick", ticks, "error", err)
			cands = nil
		}

		box, selErr := region.Largest(cands, 0)
		if selErr == nil {
			seen = true
			best = box
			bestSample = cands

			key := box.Key()
			now := cfg.Now()
			if key == lastKey {
				if now.Sub(stableSince) >= cfg.Dwell {
					return &Result{State: StateStable, Box: box, Candidates: cands, Ticks: ticks}, nil
				}
			} else {
				lastKey = key
				stableSince = now
			}
		}
		// No candidate on this tick: the dwell clock is neither advanced
		// nor reset; the element may simply not have mounted yet.

		if cfg.Now().Sub(start) >= cfg.Timeout {
			if !seen {
				return nil, ErrNoCandidate
			}
			log.Warn("stabilize: ceiling reached, using best-effort region",
				"ticks", ticks, "box", best.Key())
			return &Result{State: StateTimeout, Box: best, Candidates: bestSample, Ticks: ticks}, nil
		}

		if err := cfg.Sleep(ctx, cfg.PollInterval); err != nil {
			return nil, err
		}
	}
}

// Package probe queries the live page for the geometry of map-like
// elements. The scan itself runs as injected JavaScript; everything after
// the raw samples come back is pure Go and unit-testable.
package probe

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-rod/rod"

	"github.com/hazyhaar/mapshot/mapshot/geometry"
)

// Sample is one element as reported by the page-side scan, before the
// viability filter.
type Sample struct {
	Role    string  `json:"role"`
	Sel     string  `json:"sel"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	W       float64 `json:"w"`
	H       float64 `json:"h"`
	Visible bool    `json:"visible"`
}

// Options configures a probe.
type Options struct {
	// Hints are target-specific selectors tried before the framework sweep.
	Hints []string
	// Min is the viability threshold. Zero values mean the 64px defaults.
	Min geometry.MinSize
}

func (o *Options) defaults() {
	if o.Min.Width <= 0 {
		o.Min.Width = 64
	}
	if o.Min.Height <= 0 {
		o.Min.Height = 64
	}
}

// Collect evaluates the scan on the page and returns the filtered
// candidates. A page with no matching elements yields an empty slice.
func Collect(ctx context.Context, page *rod.Page, opts Options) ([]geometry.Candidate, error) {
	opts.defaults()

	res, err := page.Context(ctx).Eval(Script(opts.Hints))
	if err != nil {
		return nil, fmt.Errorf("probe: eval: %w", err)
	}

	var samples []Sample
	if err := json.Unmarshal([]byte(res.Value.Str()), &samples); err != nil {
		return nil, fmt.Errorf("probe: decode samples: %w", err)
	}

	return Filter(samples, opts.Min), nil
}

// Filter applies the candidacy invariant: visible per computed style, wider
// and taller than the minimum, and at least partially inside the viewport.
func Filter(samples []Sample, min geometry.MinSize) []geometry.Candidate {
	cands := make([]geometry.Candidate, 0, len(samples))
	for _, s := range samples {
		if !s.Visible {
			continue
		}
		box := geometry.Box{X: s.X, Y: s.Y, Width: s.W, Height: s.H}
		if !geometry.Viable(box, min) {
			continue
		}
		cands = append(cands, geometry.Candidate{
			Role:     geometry.Role(s.Role),
			Selector: s.Sel,
			Box:      box,
			Visible:  true,
		})
	}
	return cands
}

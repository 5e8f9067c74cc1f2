// Package region chooses the pixel rectangle to rasterize from a set of
// probed candidates. Two policies: the single largest visible element, or
// the union of all matching layer panes.
package region

import (
	"errors"

	"github.com/hazyhaar/mapshot/mapshot/geometry"
)

// ErrNoRegion means no candidate survived selection. The caller treats
// this as a soft failure: retry, alternate policy, or placeholder, never
// a zero-area capture.
var ErrNoRegion = errors.New("region: no viable region")

// Policy selects between the two region strategies.
type Policy string

const (
	PolicyLargest Policy = "largest"
	PolicyUnion   Policy = "union"
)

// Options configures a selection.
type Options struct {
	Policy Policy
	// Padding in CSS pixels, applied symmetrically and clamped at the
	// page origin.
	Padding float64
	// LayerRoles are the roles collected by the union policy. Empty means
	// all tile/overlay/canvas panes.
	LayerRoles []geometry.Role
	// Exclude lists boxes (chrome, controls) whose nested candidates are
	// dropped from the union.
	Exclude []geometry.Box
}

var defaultLayerRoles = []geometry.Role{
	geometry.RoleTilePane,
	geometry.RoleOverlay,
	geometry.RoleCanvas,
}

// Largest returns the visible candidate with maximum area, padded. Ties
// break in first-seen order.
func Largest(cands []geometry.Candidate, padding float64) (geometry.Box, error) {
	best := -1
	var bestArea float64
	for i, c := range cands {
		if !c.Visible {
			continue
		}
		if a := c.Box.Area(); a > bestArea {
			bestArea = a
			best = i
		}
	}
	if best < 0 || bestArea == 0 {
		return geometry.Box{}, ErrNoRegion
	}
	return cands[best].Box.Pad(padding), nil
}

// Union collects every visible candidate whose role is in layerRoles,
// drops those nested inside an excluded box, and returns the padded
// minimal covering box.
func Union(cands []geometry.Candidate, layerRoles []geometry.Role, exclude []geometry.Box, padding float64) (geometry.Box, error) {
	if len(layerRoles) == 0 {
		layerRoles = defaultLayerRoles
	}
	roleSet := make(map[geometry.Role]bool, len(layerRoles))
	for _, r := range layerRoles {
		roleSet[r] = true
	}

	var boxes []geometry.Box
	for _, c := range cands {
		if !c.Visible || !roleSet[c.Role] {
			continue
		}
		if excluded(c.Box, exclude) {
			continue
		}
		boxes = append(boxes, c.Box)
	}

	u := geometry.Union(boxes)
	if u.Empty() {
		return geometry.Box{}, ErrNoRegion
	}
	return u.Pad(padding), nil
}

// Select dispatches on policy. The union policy falls back to largest when
// no layer pane matched, so a canvas-only or image-only page still yields a
// region. The policy actually used is returned alongside the box.
func Select(cands []geometry.Candidate, opts Options) (geometry.Box, Policy, error) {
	switch opts.Policy {
	case PolicyUnion:
		box, err := Union(cands, opts.LayerRoles, opts.Exclude, opts.Padding)
		if err == nil {
			return box, PolicyUnion, nil
		}
		box, err = Largest(cands, opts.Padding)
		if err != nil {
			return geometry.Box{}, PolicyUnion, err
		}
		return box, PolicyLargest, nil
	default:
		box, err := Largest(cands, opts.Padding)
		return box, PolicyLargest, err
	}
}

func excluded(b geometry.Box, exclude []geometry.Box) bool {
	for _, ex := range exclude {
		if ex.Contains(b) {
			return true
		}
	}
	return false
}

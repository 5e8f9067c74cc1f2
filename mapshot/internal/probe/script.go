package probe

import (
	"encoding/json"
	"strings"

	"github.com/hazyhaar/mapshot/mapshot/geometry"
)

// selectorGroup pairs a CSS selector with the role its matches are tagged
// with. Groups are scanned in priority order; an element already claimed
// by an earlier group is not re-reported by a later one.
type selectorGroup struct {
	Selector string
	Role     geometry.Role
}

// frameworkGroups covers the DOM technologies map embeds actually use:
// tile-based frameworks with positioned panes (Leaflet, MapLibre/Mapbox,
// OpenLayers, Google), canvas renderers, and plain image maps.
var frameworkGroups = []selectorGroup{
	{".leaflet-container", geometry.RoleContainer},
	{".mapboxgl-map", geometry.RoleContainer},
	{".maplibregl-map", geometry.RoleContainer},
	{".ol-viewport", geometry.RoleContainer},
	{".gm-style", geometry.RoleContainer},
	{".leaflet-tile-pane", geometry.RoleTilePane},
	{".mapboxgl-canvas-container", geometry.RoleTilePane},
	{".maplibregl-canvas-container", geometry.RoleTilePane},
	{".leaflet-overlay-pane", geometry.RoleOverlay},
	{".leaflet-marker-pane", geometry.RoleOverlay},
	{"canvas", geometry.RoleCanvas},
	{"[class*=\"map\"]", geometry.RoleUnknown},
	{"img", geometry.RoleImage},
}

// Script builds the page-side scan. Hint selectors from the target config
// come first so an explicit hint always outranks the broad sweep. The
// script is read-only against render state and returns a JSON array of raw
// samples; elements that do not exist simply produce no entries.
func Script(hints []string) string {
	groups := make([]selectorGroup, 0, len(hints)+len(frameworkGroups))
	for _, h := range hints {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		groups = append(groups, selectorGroup{Selector: h, Role: geometry.RoleContainer})
	}
	groups = append(groups, frameworkGroups...)

	type jsGroup struct {
		Sel  string `json:"sel"`
		Role string `json:"role"`
	}
	jsGroups := make([]jsGroup, len(groups))
	for i, g := range groups {
		jsGroups[i] = jsGroup{Sel: g.Selector, Role: string(g.Role)}
	}
	encoded, _ := json.Marshal(jsGroups)

	return `() => {
		const groups = ` + string(encoded) + `;
		const seen = new Set();
		const out = [];
		for (const g of groups) {
			let els;
			try { els = document.querySelectorAll(g.sel); } catch (e) { continue; }
			for (const el of els) {
				if (seen.has(el)) continue;
				seen.add(el);
				const r = el.getBoundingClientRect();
				const s = window.getComputedStyle(el);
				const visible = s.visibility !== 'hidden' &&
					s.display !== 'none' &&
					parseFloat(s.opacity) > 0;
				out.push({
					role: g.role, sel: g.sel,
					x: r.left, y: r.top, w: r.width, h: r.height,
					visible: visible,
				});
			}
		}
		return JSON.stringify(out);
	}`
}

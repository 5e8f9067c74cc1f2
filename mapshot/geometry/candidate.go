package geometry

// Role classifies what kind of map element a candidate is. The probe tags
// each match so the union policy can pick out layer panes independently of
// the single-largest rule.
type Role string

const (
	RoleContainer Role = "container" // top-level map container (leaflet/mapbox/ol root)
	RoleTilePane  Role = "tile_pane" // absolutely-positioned tile layer pane
	RoleOverlay   Role = "overlay"   // marker/vector overlay pane
	RoleCanvas    Role = "canvas"    // canvas-based renderer surface
	RoleImage     Role = "image"     // plain <img> map rendering
	RoleUnknown   Role = "unknown"   // broad-sweep match with no framework signature
)

// Candidate is one probed element: its matched selector, role, and box.
// Candidates are ephemeral: they exist only within one probe sample and
// carry no live DOM handle.
type Candidate struct {
	Role     Role   `json:"role"`
	Selector string `json:"selector"`
	Box      Box    `json:"box"`
	Visible  bool   `json:"visible"`
}

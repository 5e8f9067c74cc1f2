package region

import (
	"errors"
	"testing"

	"github.com/hazyhaar/mapshot/mapshot/geometry"
)

func cand(role geometry.Role, x, y, w, h float64) geometry.Candidate {
	return geometry.Candidate{
		Role:    role,
		Box:     geometry.Box{X: x, Y: y, Width: w, Height: h},
		Visible: true,
	}
}

func TestLargest_PicksMaxArea(t *testing.T) {
	cands := []geometry.Candidate{
		cand(geometry.RoleCanvas, 0, 0, 100, 100),
		cand(geometry.RoleContainer, 0, 0, 800, 600),
		cand(geometry.RoleImage, 0, 0, 400, 300),
	}

	got, err := Largest(cands, 0)
	if err != nil {
		t.Fatalf("Largest: %v", err)
	}
	want := geometry.Box{X: 0, Y: 0, Width: 800, Height: 600}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestLargest_TieBreaksFirstSeen(t *testing.T) {
	cands := []geometry.Candidate{
		cand(geometry.RoleCanvas, 10, 0, 100, 100),
		cand(geometry.RoleCanvas, 20, 0, 100, 100),
	}

	got, err := Largest(cands, 0)
	if err != nil {
		t.Fatalf("Largest: %v", err)
	}
	if got.X != 10 {
		t.Errorf("tie not broken by first-seen order: got X=%v", got.X)
	}
}

func TestLargest_SkipsInvisible(t *testing.T) {
	cands := []geometry.Candidate{
		{Role: geometry.RoleContainer, Box: geometry.Box{Width: 800, Height: 600}, Visible: false},
		cand(geometry.RoleCanvas, 0, 0, 100, 100),
	}

	got, err := Largest(cands, 0)
	if err != nil {
		t.Fatalf("Largest: %v", err)
	}
	if got.Width != 100 {
		t.Errorf("invisible candidate selected: got %+v", got)
	}
}

func TestLargest_NoCandidates(t *testing.T) {
	if _, err := Largest(nil, 8); !errors.Is(err, ErrNoRegion) {
		t.Errorf("got %v, want ErrNoRegion", err)
	}
}

func TestLargest_AppliesPadding(t *testing.T) {
	cands := []geometry.Candidate{cand(geometry.RoleContainer, 100, 100, 200, 200)}

	got, err := Largest(cands, 8)
	if err != nil {
		t.Fatalf("Largest: %v", err)
	}
	want := geometry.Box{X: 92, Y: 92, Width: 216, Height: 216}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestUnion_CoversDisjointLayers(t *testing.T) {
	cands := []geometry.Candidate{
		cand(geometry.RoleTilePane, 10, 10, 100, 100),
		cand(geometry.RoleOverlay, 200, 50, 60, 60),
		cand(geometry.RoleContainer, 0, 0, 500, 500), // not a layer role
	}

	got, err := Union(cands, nil, nil, 10)
	if err != nil {
		t.Fatalf("Union: %v", err)
	}
	// Min/max of the two layer panes, expanded by exactly the padding.
	want := geometry.Box{X: 0, Y: 0, Width: 270, Height: 120}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestUnion_PaddingClampedNearOrigin(t *testing.T) {
	cands := []geometry.Candidate{cand(geometry.RoleTilePane, 3, 2, 100, 100)}

	got, err := Union(cands, nil, nil, 10)
	if err != nil {
		t.Fatalf("Union: %v", err)
	}
	// Top-left clamps at zero; the far edges move by exactly the padding.
	want := geometry.Box{X: 0, Y: 0, Width: 113, Height: 112}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if got.Right() != 113 || got.Bottom() != 112 {
		t.Errorf("far edges: got (%v,%v), want (113,112)", got.Right(), got.Bottom())
	}
}

func TestUnion_DropsExcludedNested(t *testing.T) {
	controls := geometry.Box{X: 400, Y: 0, Width: 200, Height: 200}
	cands := []geometry.Candidate{
		cand(geometry.RoleTilePane, 10, 10, 100, 100),
		cand(geometry.RoleOverlay, 420, 20, 50, 50), // inside the controls box
	}

	got, err := Union(cands, nil, []geometry.Box{controls}, 0)
	if err != nil {
		t.Fatalf("Union: %v", err)
	}
	want := geometry.Box{X: 10, Y: 10, Width: 100, Height: 100}
	if got != want {
		t.Errorf("excluded layer leaked into union: got %+v, want %+v", got, want)
	}
}

func TestUnion_AllExcluded(t *testing.T) {
	everything := geometry.Box{X: 0, Y: 0, Width: 5000, Height: 5000}
	cands := []geometry.Candidate{cand(geometry.RoleTilePane, 10, 10, 100, 100)}

	if _, err := Union(cands, nil, []geometry.Box{everything}, 0); !errors.Is(err, ErrNoRegion) {
		t.Errorf("got %v, want ErrNoRegion", err)
	}
}

func TestUnion_NeverReturnsZeroArea(t *testing.T) {
	cands := []geometry.Candidate{
		{Role: geometry.RoleTilePane, Box: geometry.Box{X: 5, Y: 5}, Visible: true},
	}

	if _, err := Union(cands, nil, nil, 0); !errors.Is(err, ErrNoRegion) {
		t.Errorf("zero-area union not rejected: err=%v", err)
	}
}

func TestSelect_UnionFallsBackToLargest(t *testing.T) {
	// Only a container, no layer panes at all.
	cands := []geometry.Candidate{cand(geometry.RoleContainer, 0, 0, 800, 600)}

	box, used, err := Select(cands, Options{Policy: PolicyUnion})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if used != PolicyLargest {
		t.Errorf("fallback policy not reported: got %q", used)
	}
	if box.Width != 800 {
		t.Errorf("got %+v", box)
	}
}

func TestSelect_NoCandidatesAtAll(t *testing.T) {
	if _, _, err := Select(nil, Options{Policy: PolicyUnion}); !errors.Is(err, ErrNoRegion) {
		t.Errorf("got %v, want ErrNoRegion", err)
	}
}

// Package geometry defines the pixel-rectangle types shared by mapshot's
// probe, selector, and capture layers. These are the public API contract:
// consumers embedding mapshot import this package to receive regions.
package geometry

import (
	"fmt"
	"math"
)

// Box is a rectangle in page-relative CSS pixels (not device-pixel-scaled).
// Boxes are values: produced fresh on every probe and never mutated.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Area returns width × height. Negative dimensions count as zero.
func (b Box) Area() float64 {
	if b.Width <= 0 || b.Height <= 0 {
		return 0
	}
	return b.Width * b.Height
}

// Empty reports whether the box has no positive area.
func (b Box) Empty() bool { return b.Area() == 0 }

// Right returns the x coordinate of the right edge.
func (b Box) Right() float64 { return b.X + b.Width }

// Bottom returns the y coordinate of the bottom edge.
func (b Box) Bottom() float64 { return b.Y + b.Height }

// Key returns the quantized geometry fingerprint used for stabilization:
// coordinates rounded to whole pixels. Sub-pixel jitter from transforms
// must not count as layout change.
func (b Box) Key() string {
	return fmt.Sprintf("%d:%d:%d:%d",
		int(math.Round(b.X)), int(math.Round(b.Y)),
		int(math.Round(b.Width)), int(math.Round(b.Height)))
}

// Pad expands the box symmetrically by px on every side. The top-left is
// clamped at zero so the region never starts outside the page; the clamped
// overshoot is removed from the size, so the far edges move by exactly px.
func (b Box) Pad(px float64) Box {
	if px <= 0 {
		return b
	}
	out := Box{
		X:      b.X - px,
		Y:      b.Y - px,
		Width:  b.Width + 2*px,
		Height: b.Height + 2*px,
	}
	if out.X < 0 {
		out.Width += out.X
		out.X = 0
	}
	if out.Y < 0 {
		out.Height += out.Y
		out.Y = 0
	}
	return out
}

// Contains reports whether inner lies entirely within b.
func (b Box) Contains(inner Box) bool {
	return inner.X >= b.X && inner.Y >= b.Y &&
		inner.Right() <= b.Right() && inner.Bottom() <= b.Bottom()
}

// Union returns the minimal box covering all inputs. Empty input yields a
// zero box; callers must check Empty before acting on it.
func Union(boxes []Box) Box {
	if len(boxes) == 0 {
		return Box{}
	}
	minX, minY := boxes[0].X, boxes[0].Y
	maxX, maxY := boxes[0].Right(), boxes[0].Bottom()
	for _, b := range boxes[1:] {
		minX = math.Min(minX, b.X)
		minY = math.Min(minY, b.Y)
		maxX = math.Max(maxX, b.Right())
		maxY = math.Max(maxY, b.Bottom())
	}
	return Box{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// MinSize is the viability threshold applied to probed boxes.
type MinSize struct {
	Width  float64
	Height float64
}

// Viable reports whether a box is large enough and at least partially on
// screen (bottom and right edges past the origin). Elements failing this
// are never candidates, regardless of DOM presence.
func Viable(b Box, min MinSize) bool {
	if b.Width <= min.Width || b.Height <= min.Height {
		return false
	}
	return b.Bottom() > 0 && b.Right() > 0
}

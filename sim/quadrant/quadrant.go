// Package quadrant implements the axis-aligned square regions that govern
// each node of a Barnes-Hut quadtree.
package quadrant

import "github.com/barneshut-nbody/distsim/core/vector2"

// Quadrant is an immutable, value-like square region centered at (CX, CY)
// with side length S. S must be strictly positive.
type Quadrant struct {
	CX, CY float64
	S      float64
}

// New returns a Quadrant centered at (cx, cy) with side s.
func New(cx, cy, s float64) Quadrant {
	return Quadrant{CX: cx, CY: cy, S: s}
}

// Contains reports whether point p lies inside the quadrant, i.e.
// |p.X-cx| <= s/2 and |p.Y-cy| <= s/2.
func (q Quadrant) Contains(p vector2.Vector2) bool {
	half := q.S / 2
	return abs(p.X-q.CX) <= half && abs(p.Y-q.CY) <= half
}

// Length returns the quadrant's side length.
func (q Quadrant) Length() float64 {
	return q.S
}

// Quadrants groups the four children produced by Subdivide.
type Quadrants struct {
	NW, NE, SW, SE Quadrant
}

// Subdivide splits q into four quadrants of side s/2, offset by +-s/4 from
// q's center.
func (q Quadrant) Subdivide() Quadrants {
	half := q.S / 2
	quarter := q.S / 4
	return Quadrants{
		NW: New(q.CX-quarter, q.CY+quarter, half),
		NE: New(q.CX+quarter, q.CY+quarter, half),
		SW: New(q.CX-quarter, q.CY-quarter, half),
		SE: New(q.CX+quarter, q.CY-quarter, half),
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// Package tree implements the Barnes-Hut quadtree: insertion with
// recursive center-of-mass aggregation, and approximate force evaluation
// against a probe body.
package tree

import (
	"github.com/barneshut-nbody/distsim/sim/body"
	"github.com/barneshut-nbody/distsim/sim/quadrant"
)

// maxDepth bounds the recursion used to resolve coincident bodies during
// insertion. In practice softening and randomized initial conditions make
// exact coincidence negligible (spec.md §4.3); beyond this depth, further
// bodies inserted into the same leaf are merged into its pseudo-body
// instead of triggering another subdivision.
const maxDepth = 64

// node is the recursive tree node. Three logical variants exist, folded
// into a single struct per spec.md §9:
//   - Empty: Body == nil, Children all nil.
//   - External (leaf): Body holds the one inserted body, Children all nil.
//   - Internal: Body holds the aggregate pseudo-body, and all four Children
//     are set (an empty sub-quadrant is a child with Body == nil).
type node struct {
	quad     quadrant.Quadrant
	body     *body.Body
	children [4]*node
}

func newNode(q quadrant.Quadrant) *node {
	return &node{quad: q}
}

func (n *node) isLeaf() bool {
	return n.children[0] == nil && n.children[1] == nil &&
		n.children[2] == nil && n.children[3] == nil
}

// childIndex returns which of the four sub-quadrants of q contains p,
// using q's center as the partition point (0=NW, 1=NE, 2=SW, 3=SE).
func childIndex(q quadrant.Quadrant, x, y float64) int {
	west := x < q.CX
	north := y >= q.CY
	switch {
	case west && north:
		return 0 // NW
	case !west && north:
		return 1 // NE
	case west && !north:
		return 2 // SW
	default:
		return 3 // SE
	}
}

func (n *node) insert(b *body.Body, depth int) {
	if n.body == nil && n.isLeaf() {
		n.body = b
		return
	}

	if n.isLeaf() {
		if depth >= maxDepth {
			n.body = n.body.Plus(b)
			return
		}

		old := n.body
		n.body = old.Plus(b)

		kids := n.quad.Subdivide()
		n.children[0] = newNode(kids.NW)
		n.children[1] = newNode(kids.NE)
		n.children[2] = newNode(kids.SW)
		n.children[3] = newNode(kids.SE)

		n.children[childIndex(n.quad, old.Position.X, old.Position.Y)].insert(old, depth+1)
		n.children[childIndex(n.quad, b.Position.X, b.Position.Y)].insert(b, depth+1)
		return
	}

	n.body = n.body.Plus(b)
	idx := childIndex(n.quad, b.Position.X, b.Position.Y)
	// Internal nodes always have all four children populated by the
	// promotion step above, so n.children[idx] is never nil here.
	n.children[idx].insert(b, depth+1)
}

// applyForce recursively accumulates the gravitational force this subtree
// exerts onto probe, writing directly into probe's accumulated force via
// body.AccumulateForceFrom.
func (n *node) applyForce(probe *body.Body, theta float64) {
	if n.body == nil {
		return
	}

	if n.isLeaf() {
		if n.body == probe {
			return
		}
		probe.AccumulateForceFrom(n.body)
		return
	}

	d := probe.Position.Distance(n.body.Position)
	if d != 0 && n.quad.Length()/d < theta {
		probe.AccumulateForceFrom(n.body)
		return
	}

	for _, c := range n.children {
		if c != nil {
			c.applyForce(probe, theta)
		}
	}
}

// BHTree is a Barnes-Hut quadtree built from scratch each simulation step
// and discarded once force evaluation completes.
type BHTree struct {
	root  *node
	theta float64
}

// New constructs an empty BHTree governing root, using acceptance ratio
// theta, normally in (0, 1]. With theta == 0 the acceptance test never
// passes, so every internal node is opened and the force is the exact
// pairwise sum; a negative theta is a programmer error.
func New(root quadrant.Quadrant, theta float64) *BHTree {
	return &BHTree{root: newNode(root), theta: theta}
}

// Insert adds b to the tree. b must lie inside the tree's root quadrant;
// callers are expected to filter with body.Inside before calling Insert.
func (t *BHTree) Insert(b *body.Body) {
	t.root.insert(b, 0)
}

// UpdateForce recursively accumulates gravitational force from the tree's
// mass distribution onto probe, using the multipole acceptance criterion
// s/d < theta. A body is never allowed to exert force on itself: the leaf
// case compares probe against the leaf's body by pointer identity.
func (t *BHTree) UpdateForce(probe *body.Body) {
	t.root.applyForce(probe, t.theta)
}

// Mass returns the tree's total aggregate mass, zero for an empty tree.
func (t *BHTree) Mass() float64 {
	if t.root.body == nil {
		return 0
	}
	return t.root.body.Mass
}

// CenterOfMass returns the tree's aggregate center of mass. Only
// meaningful when Mass() > 0.
func (t *BHTree) CenterOfMass() (x, y float64) {
	if t.root.body == nil {
		return 0, 0
	}
	return t.root.body.Position.X, t.root.body.Position.Y
}

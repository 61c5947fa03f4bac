// Package body implements the point-mass bodies that make up the
// simulation, their Newtonian interaction, and their kinematic update.
package body

import (
	"math"

	"github.com/google/uuid"

	"github.com/barneshut-nbody/distsim/core/constants"
	"github.com/barneshut-nbody/distsim/core/vector2"
	"github.com/barneshut-nbody/distsim/sim/quadrant"
)

// Color tags a body for the Renderer; it has no effect on the physics.
type Color struct {
	R, G, B uint8
}

// Body is a point mass with position, velocity, accumulated force, mass and
// a renderer color tag. Mass is constant over the simulation; Force is
// zeroed at the start of each force pass via ResetForce.
//
// Bodies are always handled by pointer so that self-force identity checks
// (see tree.BHTree.UpdateForce) can use Go pointer equality, per spec.
type Body struct {
	ID uuid.UUID

	Position vector2.Vector2
	Velocity vector2.Vector2
	Force    vector2.Vector2
	Mass     float64
	Color    Color
}

// New constructs a Body with a fresh ID.
func New(pos, vel vector2.Vector2, mass float64, color Color) *Body {
	return &Body{
		ID:       uuid.New(),
		Position: pos,
		Velocity: vel,
		Mass:     mass,
		Color:    color,
	}
}

// Inside reports whether b's position lies within q.
func (b *Body) Inside(q quadrant.Quadrant) bool {
	return q.Contains(b.Position)
}

// DistanceTo returns the Euclidean distance between b and other.
func (b *Body) DistanceTo(other *Body) float64 {
	return b.Position.Distance(other.Position)
}

// ResetForce zeroes the accumulated force.
func (b *Body) ResetForce() {
	b.Force = vector2.Zero
}

// AddForce accumulates (dfx, dfy) into the running force.
func (b *Body) AddForce(df vector2.Vector2) {
	b.Force = b.Force.Add(df)
}

// newtonianForce returns the softened Newtonian gravitational force other
// exerts on self: F = G*m1*m2 / (d^2 + eps^2), directed from self toward
// other. Coincident bodies (d == 0) yield zero force.
func newtonianForce(self, other *Body) vector2.Vector2 {
	d := self.Position.Distance(other.Position)
	denom := d*d + constants.DefaultSoftening*constants.DefaultSoftening
	if denom == 0 {
		return vector2.Zero
	}
	mag := constants.G * self.Mass * other.Mass / denom
	if d == 0 {
		// Direction is undefined at exact coincidence; softening keeps the
		// magnitude finite but there is no meaningful unit vector.
		return vector2.Zero
	}
	dir := other.Position.Sub(self.Position).Scale(1 / d)
	return dir.Scale(mag)
}

// ComputeForceFrom sets b's accumulated force to the contribution from
// other, replacing whatever was previously accumulated.
func (b *Body) ComputeForceFrom(other *Body) {
	b.Force = newtonianForce(b, other)
}

// AccumulateForceFrom adds other's gravitational contribution to b's
// running force.
func (b *Body) AccumulateForceFrom(other *Body) {
	b.AddForce(newtonianForce(b, other))
}

// Update advances b by one semi-implicit (symplectic) Euler step of size
// dt: velocity is updated from the accumulated force first, then position
// is updated from the new velocity. A massless body keeps its velocity.
func (b *Body) Update(dt float64) {
	if b.Mass != 0 {
		accel := b.Force.Scale(1 / b.Mass)
		b.Velocity = b.Velocity.Add(accel.Scale(dt))
	}
	b.Position = b.Position.Add(b.Velocity.Scale(dt))
}

// Plus returns a pseudo-body at the mass-weighted midpoint of b and other,
// with their summed mass. It carries no velocity or force and is used only
// for tree aggregation.
func (b *Body) Plus(other *Body) *Body {
	total := b.Mass + other.Mass
	if total == 0 {
		return &Body{Position: vector2.Vector2{
			X: (b.Position.X + other.Position.X) / 2,
			Y: (b.Position.Y + other.Position.Y) / 2,
		}}
	}
	x := (b.Position.X*b.Mass + other.Position.X*other.Mass) / total
	y := (b.Position.Y*b.Mass + other.Position.Y*other.Mass) / total
	return &Body{
		Position: vector2.Vector2{X: x, Y: y},
		Mass:     total,
	}
}

// IsFinite reports whether the body's position, velocity and force are all
// finite. A non-finite value indicates a numeric error per spec's error
// taxonomy and is never expected under normal inputs.
func (b *Body) IsFinite() bool {
	vals := []float64{
		b.Position.X, b.Position.Y,
		b.Velocity.X, b.Velocity.Y,
		b.Force.X, b.Force.Y,
	}
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

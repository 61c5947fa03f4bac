package body_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/barneshut-nbody/distsim/core/vector2"
	"github.com/barneshut-nbody/distsim/sim/body"
	"github.com/barneshut-nbody/distsim/sim/quadrant"
)

func TestInside(t *testing.T) {
	q := quadrant.New(0, 0, 10)
	b := body.New(vector2.Vector2{X: 1, Y: 1}, vector2.Zero, 1, body.Color{})
	assert.True(t, b.Inside(q))

	out := body.New(vector2.Vector2{X: 100, Y: 100}, vector2.Zero, 1, body.Color{})
	assert.False(t, out.Inside(q))
}

func TestDistanceTo(t *testing.T) {
	a := body.New(vector2.Vector2{X: 0, Y: 0}, vector2.Zero, 1, body.Color{})
	b := body.New(vector2.Vector2{X: 3, Y: 4}, vector2.Zero, 1, body.Color{})
	assert.Equal(t, 5.0, a.DistanceTo(b))
}

func TestResetAndAddForce(t *testing.T) {
	b := body.New(vector2.Zero, vector2.Zero, 1, body.Color{})
	b.AddForce(vector2.Vector2{X: 1, Y: 2})
	b.AddForce(vector2.Vector2{X: 1, Y: -1})
	assert.Equal(t, vector2.Vector2{X: 2, Y: 1}, b.Force)

	b.ResetForce()
	assert.Equal(t, vector2.Zero, b.Force)
}

func TestComputeForceFromReplaces(t *testing.T) {
	a := body.New(vector2.Vector2{X: 0, Y: 0}, vector2.Zero, 1e10, body.Color{})
	other := body.New(vector2.Vector2{X: 1e6, Y: 0}, vector2.Zero, 1e10, body.Color{})

	a.AddForce(vector2.Vector2{X: 99, Y: 99})
	a.ComputeForceFrom(other)

	assert.Greater(t, a.Force.X, 0.0)
	assert.Equal(t, 0.0, a.Force.Y)
}

func TestAccumulateForceFromAdds(t *testing.T) {
	a := body.New(vector2.Vector2{X: 0, Y: 0}, vector2.Zero, 1e10, body.Color{})
	other := body.New(vector2.Vector2{X: 1e6, Y: 0}, vector2.Zero, 1e10, body.Color{})

	a.AddForce(vector2.Vector2{X: 5, Y: 0})
	a.AccumulateForceFrom(other)

	assert.Greater(t, a.Force.X, 5.0)
}

func TestSoftenedCoincidenceIsFinite(t *testing.T) {
	a := body.New(vector2.Vector2{X: 0, Y: 0}, vector2.Zero, 1e10, body.Color{})
	other := body.New(vector2.Vector2{X: 0, Y: 0}, vector2.Zero, 1e10, body.Color{})

	a.ComputeForceFrom(other)
	assert.True(t, a.IsFinite())
	assert.Equal(t, vector2.Zero, a.Force)
}

func TestUpdateSymplecticEuler(t *testing.T) {
	b := body.New(vector2.Vector2{X: 0, Y: 0}, vector2.Vector2{X: 1, Y: 0}, 2, body.Color{})
	b.Force = vector2.Vector2{X: 4, Y: 0} // a = F/m = 2

	b.Update(1.0)

	assert.Equal(t, vector2.Vector2{X: 3, Y: 0}, b.Velocity)
	assert.Equal(t, vector2.Vector2{X: 3, Y: 0}, b.Position)
}

func TestUpdateIdempotentAtZeroDt(t *testing.T) {
	b := body.New(vector2.Vector2{X: 5, Y: 5}, vector2.Vector2{X: 1, Y: 1}, 2, body.Color{})
	b.Force = vector2.Vector2{X: 10, Y: 10}

	before := *b
	b.Update(0)

	assert.Equal(t, before.Position, b.Position)
	assert.Equal(t, before.Velocity, b.Velocity)
}

func TestPlusMassWeightedMidpoint(t *testing.T) {
	a := body.New(vector2.Vector2{X: 0, Y: 0}, vector2.Zero, 1, body.Color{})
	b := body.New(vector2.Vector2{X: 10, Y: 0}, vector2.Zero, 3, body.Color{})

	agg := a.Plus(b)

	assert.Equal(t, 4.0, agg.Mass)
	assert.InDelta(t, 7.5, agg.Position.X, 1e-9)
}

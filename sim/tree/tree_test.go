package tree_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barneshut-nbody/distsim/core/vector2"
	"github.com/barneshut-nbody/distsim/sim/body"
	"github.com/barneshut-nbody/distsim/sim/quadrant"
	"github.com/barneshut-nbody/distsim/sim/tree"
)

func sampleBodies(n int, seed int64) []*body.Body {
	r := rand.New(rand.NewSource(seed))
	bodies := make([]*body.Body, n)
	for i := range bodies {
		bodies[i] = body.New(
			vector2.Vector2{X: r.Float64()*200 - 100, Y: r.Float64()*200 - 100},
			vector2.Zero,
			1+r.Float64()*10,
			body.Color{},
		)
	}
	return bodies
}

func buildTree(bodies []*body.Body, root quadrant.Quadrant, theta float64) *tree.BHTree {
	t := tree.New(root, theta)
	for _, b := range bodies {
		if b.Inside(root) {
			t.Insert(b)
		}
	}
	return t
}

func TestMassConservation(t *testing.T) {
	root := quadrant.New(0, 0, 300)
	bodies := sampleBodies(50, 1)
	bh := buildTree(bodies, root, 0.5)

	var want float64
	for _, b := range bodies {
		want += b.Mass
	}

	assert.InDelta(t, want, bh.Mass(), want*1e-9)
}

func TestInsertionOrderIndependence(t *testing.T) {
	root := quadrant.New(0, 0, 300)
	bodies := sampleBodies(40, 2)

	shuffled := make([]*body.Body, len(bodies))
	copy(shuffled, bodies)
	rand.New(rand.NewSource(99)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	t1 := buildTree(bodies, root, 0.5)
	t2 := buildTree(shuffled, root, 0.5)

	assert.InDelta(t, t1.Mass(), t2.Mass(), 1e-9)

	x1, y1 := t1.CenterOfMass()
	x2, y2 := t2.CenterOfMass()
	assert.InDelta(t, x1, x2, 1e-6)
	assert.InDelta(t, y1, y2, 1e-6)
}

func TestSelfForceIsZero(t *testing.T) {
	root := quadrant.New(0, 0, 300)
	bodies := sampleBodies(20, 3)
	bh := buildTree(bodies, root, 0.0) // theta = 0: always recurse to exactness

	probe := bodies[5]
	probe.ResetForce()
	bh.UpdateForce(probe)

	var direct vector2.Vector2
	for _, other := range bodies {
		if other == probe {
			continue
		}
		tmp := body.New(probe.Position, vector2.Zero, probe.Mass, body.Color{})
		tmp.ComputeForceFrom(other)
		direct = direct.Add(tmp.Force)
	}

	assert.InDelta(t, direct.X, probe.Force.X, math.Abs(direct.X)*1e-9+1e-6)
	assert.InDelta(t, direct.Y, probe.Force.Y, math.Abs(direct.Y)*1e-9+1e-6)
}

func TestEmptyTreeYieldsZeroForce(t *testing.T) {
	root := quadrant.New(0, 0, 300)
	bh := tree.New(root, 0.5)

	probe := body.New(vector2.Vector2{X: 1, Y: 1}, vector2.Zero, 5, body.Color{})
	bh.UpdateForce(probe)

	assert.Equal(t, vector2.Zero, probe.Force)
}

func TestRingParityDirectSumAtThetaZero(t *testing.T) {
	root := quadrant.New(0, 0, 1000)
	bodies := sampleBodies(16, 7)
	bh := buildTree(bodies, root, 0.0)

	for _, probe := range bodies {
		probe.ResetForce()
	}
	for _, probe := range bodies {
		bh.UpdateForce(probe)
	}

	for _, probe := range bodies {
		var direct vector2.Vector2
		for _, other := range bodies {
			if other == probe {
				continue
			}
			tmp := body.New(probe.Position, vector2.Zero, probe.Mass, body.Color{})
			tmp.ComputeForceFrom(other)
			direct = direct.Add(tmp.Force)
		}
		require.InDelta(t, direct.X, probe.Force.X, math.Abs(direct.X)*1e-9+1e-9)
		require.InDelta(t, direct.Y, probe.Force.Y, math.Abs(direct.Y)*1e-9+1e-9)
	}
}

func TestQuadrantContainment(t *testing.T) {
	root := quadrant.New(0, 0, 300)
	bodies := sampleBodies(30, 11)
	for _, b := range bodies {
		require.True(t, b.Inside(root))
	}
	// Tree construction itself never panics or misplaces an out-of-bounds
	// body since all sampled bodies are inside root.
	buildTree(bodies, root, 0.5)
}

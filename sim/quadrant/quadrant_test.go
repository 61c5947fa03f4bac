package quadrant_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/barneshut-nbody/distsim/core/vector2"
	"github.com/barneshut-nbody/distsim/sim/quadrant"
)

func TestContains(t *testing.T) {
	q := quadrant.New(0, 0, 10)

	assert.True(t, q.Contains(vector2.Vector2{X: 5, Y: 5}))
	assert.True(t, q.Contains(vector2.Vector2{X: -5, Y: -5}))
	assert.False(t, q.Contains(vector2.Vector2{X: 5.1, Y: 0}))
}

func TestSubdivide(t *testing.T) {
	q := quadrant.New(0, 0, 10)
	kids := q.Subdivide()

	for _, k := range []quadrant.Quadrant{kids.NW, kids.NE, kids.SW, kids.SE} {
		assert.Equal(t, 5.0, k.Length())
	}

	assert.Equal(t, quadrant.New(-2.5, 2.5, 5), kids.NW)
	assert.Equal(t, quadrant.New(2.5, 2.5, 5), kids.NE)
	assert.Equal(t, quadrant.New(-2.5, -2.5, 5), kids.SW)
	assert.Equal(t, quadrant.New(2.5, -2.5, 5), kids.SE)
}

func TestLength(t *testing.T) {
	q := quadrant.New(1, 2, 7)
	assert.Equal(t, 7.0, q.Length())
}

package simulator

import (
	"math"
	"math/rand"

	"github.com/barneshut-nbody/distsim/core/constants"
	"github.com/barneshut-nbody/distsim/core/vector2"
	"github.com/barneshut-nbody/distsim/sim/body"
)

// InitialBodies generates this process's portion of the initial body
// distribution per spec.md §6: positions uniform in [0, R], velocities
// proportional to the cube of a uniform random in [0, R] scaled by -0.1,
// constant mass. Even ranks negate x/vx; ranks in the upper half by rank
// negate y/vy, yielding four spatial quadrants of initial bodies. Rank 0's
// body index 0 is replaced in place with the central anchor.
func InitialBodies(c Config) []*body.Body {
	rng := rand.New(rand.NewSource(c.Seed))
	portion := c.Portion()
	bodies := make([]*body.Body, portion)

	negateX := c.Rank%2 == 0
	negateY := c.Rank >= c.P/2

	for i := range bodies {
		x := rng.Float64() * c.R
		y := rng.Float64() * c.R

		vx := math.Pow(rng.Float64()*c.R, 3) * -0.1
		vy := math.Pow(rng.Float64()*c.R, 3) * -0.1

		if negateX {
			x, vx = -x, -vx
		}
		if negateY {
			y, vy = -y, -vy
		}

		bodies[i] = body.New(
			vector2.Vector2{X: x, Y: y},
			vector2.Vector2{X: vx, Y: vy},
			constants.DefaultBodyMass,
			body.Color{},
		)
	}

	if c.Rank == 0 && len(bodies) > 0 {
		bodies[0] = body.New(vector2.Zero, vector2.Zero, constants.AnchorMass, body.Color{})
	}

	return bodies
}

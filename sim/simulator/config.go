// Package simulator ties the quadrant, body, tree, and exchange packages
// into the per-step driver of spec.md §4.5, plus the configuration and
// initial-condition generation of spec.md §6.
package simulator

import (
	"fmt"

	"github.com/barneshut-nbody/distsim/core/constants"
	"github.com/barneshut-nbody/distsim/internal/envconfig"
	"github.com/barneshut-nbody/distsim/sim/simerr"
)

// Config holds the launch-time options of spec.md §6's configuration
// table, loaded from the environment the way
// reddit-cluster-map/backend/internal/config.Load does.
type Config struct {
	// N is the total number of bodies across all processes.
	N int
	// P is the number of peer processes in this run.
	P int
	// Rank is this process's rank, 0 <= Rank < P.
	Rank int
	// R is the simulation radius: half the side of the root quadrant.
	R float64
	// Dt is the integration time step.
	Dt float64
	// Theta is the Barnes-Hut acceptance ratio.
	Theta float64
	// Seed is the RNG seed for this process's initial conditions. Per
	// spec.md §6 it is process-varying; Load derives it from NBODY_SEED
	// and Rank unless NBODY_SEED_FIXED is set.
	Seed int64
	// Render enables the all-gather + draw + barrier phase of step 6.
	Render bool
	// Steps bounds the run; zero means unbounded (run until signaled).
	Steps int
}

// Load reads NBODY_* environment variables into a Config for the given
// rank and process count, applying spec.md §6's defaults from
// core/constants. It does not validate; call Validate separately so
// configuration errors are classified distinctly from parse errors.
func Load(rank, p int) Config {
	seed := envconfig.Int("NBODY_SEED", 0)
	if !envconfig.Bool("NBODY_SEED_FIXED", false) {
		seed = seed*1_000_003 + seedMix(rank)
	}

	return Config{
		N:      envconfig.Int("NBODY_N", constants.DefaultBodyCount),
		P:      p,
		Rank:   rank,
		R:      envconfig.Float64("NBODY_R", constants.DefaultRadius),
		Dt:     envconfig.Float64("NBODY_DT", constants.DefaultTimeStep),
		Theta:  envconfig.Float64("NBODY_THETA", constants.DefaultTheta),
		Seed:   int64(seed),
		Render: envconfig.Bool("NBODY_RENDER", true),
		Steps:  envconfig.Int("NBODY_STEPS", 0),
	}
}

func seedMix(rank int) int {
	return rank*2654435761 + 1
}

// Portion returns N/P, the number of bodies this process owns.
func (c Config) Portion() int {
	return c.N / c.P
}

// Validate checks the configuration errors spec.md §7 names: N not
// divisible by P, or a non-positive R, dt, or theta.
func (c Config) Validate() error {
	if c.P <= 0 {
		return fmt.Errorf("simulator: process count %d must be positive: %w", c.P, simerr.ErrConfiguration)
	}
	if c.N%c.P != 0 {
		return fmt.Errorf("simulator: N=%d not divisible by P=%d: %w", c.N, c.P, simerr.ErrConfiguration)
	}
	if c.R <= 0 {
		return fmt.Errorf("simulator: R=%g must be positive: %w", c.R, simerr.ErrConfiguration)
	}
	if c.Dt <= 0 {
		return fmt.Errorf("simulator: dt=%g must be positive: %w", c.Dt, simerr.ErrConfiguration)
	}
	if c.Theta <= 0 {
		return fmt.Errorf("simulator: theta=%g must be positive: %w", c.Theta, simerr.ErrConfiguration)
	}
	if c.Rank < 0 || c.Rank >= c.P {
		return fmt.Errorf("simulator: rank %d out of range [0,%d): %w", c.Rank, c.P, simerr.ErrConfiguration)
	}
	return nil
}

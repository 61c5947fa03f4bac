// Package exchange implements the ForceExchange ring-rotation protocol of
// spec.md §4.4: P-1 rounds that let each process evaluate, with its local
// Barnes-Hut tree, the forces its bodies exert on every other process's
// bodies, and return those partial forces to their owners.
package exchange

import (
	"context"
	"fmt"

	"github.com/barneshut-nbody/distsim/core/vector2"
	"github.com/barneshut-nbody/distsim/internal/telemetry"
	"github.com/barneshut-nbody/distsim/sim/body"
	"github.com/barneshut-nbody/distsim/sim/tree"
	"github.com/barneshut-nbody/distsim/transport"
)

// Run executes the full ring protocol for one simulation step. owned must
// be the same ordered slice of bodies used to build localTree, and each
// owned[i] has already had its local-tree force pass applied before Run is
// called (spec.md §4.5 step 3 precedes the ring protocol). Each round gets
// its own child span so a multi-process run's ring rounds line up in a
// trace backend.
func Run(ctx context.Context, tr transport.Transport, localTree *tree.BHTree, owned []*body.Body) error {
	p := tr.Size()
	rank := tr.Rank()
	portion := len(owned)

	if p == 1 {
		return nil // no peers: local pass already is the whole answer.
	}

	bufX := make([]float64, portion)
	bufY := make([]float64, portion)
	bufM := make([]float64, portion)

	for r := 1; r < p; r++ {
		if err := runRound(ctx, tr, localTree, owned, bufX, bufY, bufM, r, rank, p); err != nil {
			return err
		}
		telemetry.RingRoundsTotal.Inc()
	}

	return nil
}

func runRound(ctx context.Context, tr transport.Transport, localTree *tree.BHTree, owned []*body.Body, bufX, bufY, bufM []float64, r, rank, p int) error {
	_, span := telemetry.StartSpan(ctx, "exchange.round")
	defer span.End()

	to := transport.Mod(rank+r, p)
	from := transport.Mod(rank-r, p)
	portion := len(owned)

	for i, b := range owned {
		bufX[i] = b.Position.X
		bufY[i] = b.Position.Y
		bufM[i] = b.Mass
	}

	if err := tr.SendRecvReplace(bufX, to, from); err != nil {
		return fmt.Errorf("exchange: round %d position-x: %w", r, err)
	}
	if err := tr.SendRecvReplace(bufY, to, from); err != nil {
		return fmt.Errorf("exchange: round %d position-y: %w", r, err)
	}
	if err := tr.SendRecvReplace(bufM, to, from); err != nil {
		return fmt.Errorf("exchange: round %d mass: %w", r, err)
	}

	for i := 0; i < portion; i++ {
		probe := body.New(
			vector2.Vector2{X: bufX[i], Y: bufY[i]},
			vector2.Zero,
			bufM[i],
			body.Color{},
		)
		localTree.UpdateForce(probe)
		bufX[i] = probe.Force.X
		bufY[i] = probe.Force.Y
	}

	if err := tr.SendRecvReplace(bufX, from, to); err != nil {
		return fmt.Errorf("exchange: round %d force-x: %w", r, err)
	}
	if err := tr.SendRecvReplace(bufY, from, to); err != nil {
		return fmt.Errorf("exchange: round %d force-y: %w", r, err)
	}

	for i, b := range owned {
		b.AddForce(vector2.Vector2{X: bufX[i], Y: bufY[i]})
	}

	return nil
}

package simulator

import (
	"context"
	"fmt"
	"time"

	"github.com/barneshut-nbody/distsim/internal/telemetry"
	"github.com/barneshut-nbody/distsim/render"
	"github.com/barneshut-nbody/distsim/sim/body"
	"github.com/barneshut-nbody/distsim/sim/exchange"
	"github.com/barneshut-nbody/distsim/sim/quadrant"
	"github.com/barneshut-nbody/distsim/sim/simerr"
	"github.com/barneshut-nbody/distsim/sim/tree"
	"github.com/barneshut-nbody/distsim/transport"
)

// Simulator drives the per-step loop of spec.md §4.5 for one process:
// tree build, local force pass, ring exchange, integration, and the
// optional visualization phase.
type Simulator struct {
	cfg       Config
	transport transport.Transport
	renderer  render.Renderer
	owned     []*body.Body
	step      int
}

// New constructs a Simulator for this process's owned bodies. tr is the
// peer transport (transport/local or transport/tcp); renderer may be
// render.Null{} when cfg.Render is false.
func New(cfg Config, tr transport.Transport, renderer render.Renderer, owned []*body.Body) *Simulator {
	return &Simulator{cfg: cfg, transport: tr, renderer: renderer, owned: owned}
}

// Step advances the simulation by one time step, per spec.md §4.5.
func (s *Simulator) Step(ctx context.Context) error {
	ctx, span := telemetry.StartSpan(ctx, "simulator.step")
	defer span.End()

	root := quadrant.New(0, 0, 2*s.cfg.R)
	bh := tree.New(root, s.cfg.Theta)

	if err := s.buildLocalTree(ctx, bh, root); err != nil {
		return err
	}
	if err := s.localForcePass(ctx, bh); err != nil {
		return err
	}
	if err := s.ringExchange(ctx, bh); err != nil {
		return err
	}
	s.integrate(ctx)

	if s.cfg.Render {
		if err := s.visualize(ctx); err != nil {
			return err
		}
	}

	s.step++
	return nil
}

// Run steps the simulation until ctx is canceled, or for cfg.Steps steps
// if that bound is nonzero (spec.md §4.5 "Termination").
func (s *Simulator) Run(ctx context.Context) error {
	for s.cfg.Steps == 0 || s.step < s.cfg.Steps {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if err := s.Step(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *Simulator) buildLocalTree(ctx context.Context, bh *tree.BHTree, root quadrant.Quadrant) error {
	_, span := telemetry.StartSpan(ctx, "simulator.tree_build")
	defer span.End()

	start := time.Now()
	defer func() { telemetry.StepDuration.WithLabelValues("tree_build").Observe(time.Since(start).Seconds()) }()

	for _, b := range s.owned {
		if !b.Inside(root) {
			// Drifted outside the root region: silently excluded from the
			// local tree for this step (spec.md §4.5 step 2), but it still
			// integrates and still receives forces via the ring protocol.
			telemetry.BodiesSkippedTotal.Inc()
			continue
		}
		bh.Insert(b)
	}
	return nil
}

func (s *Simulator) localForcePass(ctx context.Context, bh *tree.BHTree) error {
	_, span := telemetry.StartSpan(ctx, "simulator.local_force")
	defer span.End()

	start := time.Now()
	defer func() { telemetry.StepDuration.WithLabelValues("local_force").Observe(time.Since(start).Seconds()) }()

	for _, b := range s.owned {
		b.ResetForce()
		bh.UpdateForce(b)
		if !b.IsFinite() {
			return fmt.Errorf("simulator: non-finite force on body after local pass: %w", simerr.ErrNumeric)
		}
	}
	return nil
}

func (s *Simulator) ringExchange(ctx context.Context, bh *tree.BHTree) error {
	spanCtx, span := telemetry.StartSpan(ctx, "simulator.ring_exchange")
	defer span.End()

	start := time.Now()
	defer func() { telemetry.StepDuration.WithLabelValues("ring_exchange").Observe(time.Since(start).Seconds()) }()

	if err := exchange.Run(spanCtx, s.transport, bh, s.owned); err != nil {
		telemetry.MessagingErrorsTotal.Inc()
		return fmt.Errorf("simulator: %w: %w", simerr.ErrMessaging, err)
	}
	return nil
}

func (s *Simulator) integrate(_ context.Context) {
	start := time.Now()
	defer func() { telemetry.StepDuration.WithLabelValues("integrate").Observe(time.Since(start).Seconds()) }()

	for _, b := range s.owned {
		b.Update(s.cfg.Dt)
	}
}

func (s *Simulator) visualize(ctx context.Context) error {
	_, span := telemetry.StartSpan(ctx, "simulator.gather")
	defer span.End()

	start := time.Now()
	defer func() { telemetry.StepDuration.WithLabelValues("gather").Observe(time.Since(start).Seconds()) }()

	send := make([]float64, len(s.owned)*3)
	for i, b := range s.owned {
		send[i*3] = b.Position.X
		send[i*3+1] = b.Position.Y
		send[i*3+2] = float64(colorCode(b.Color))
	}

	all, err := s.transport.AllGather(send)
	if err != nil {
		telemetry.MessagingErrorsTotal.Inc()
		return fmt.Errorf("simulator: %w: %w", simerr.ErrMessaging, err)
	}

	if s.transport.Rank() == 0 {
		if err := s.renderer.Clear(render.Color{}); err != nil {
			return err
		}
		for i := 0; i+2 < len(all); i += 3 {
			c := decodeColor(all[i+2])
			if err := s.renderer.DrawPoint(all[i], all[i+1], c); err != nil {
				return err
			}
		}
		if err := s.renderer.Flush(); err != nil {
			return err
		}
	}

	if err := s.transport.Barrier(); err != nil {
		telemetry.MessagingErrorsTotal.Inc()
		return fmt.Errorf("simulator: %w: %w", simerr.ErrMessaging, err)
	}
	return nil
}

// colorCode/decodeColor pack a render.Color into a single float64 lane of
// the all-gather buffer, since AllGather moves []float64 only.
func colorCode(c body.Color) uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

func decodeColor(v float64) render.Color {
	code := uint32(v)
	return render.Color{
		R: uint8(code >> 16),
		G: uint8(code >> 8),
		B: uint8(code),
	}
}

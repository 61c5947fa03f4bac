// Command nbody launches one process of the distributed Barnes-Hut
// N-body simulation described by SPEC_FULL.md. It can run as a
// single-binary cluster of in-process peers (-mode=local, the default,
// good for development and the test scenarios) or as one process of a
// real multi-process job connected over TCP (-mode=tcp), grounded on
// reddit-cluster-map/backend/cmd/server and cmd/crawler's bootstrap,
// signal-handling, and shutdown idiom.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/yaml.v3"

	"github.com/barneshut-nbody/distsim/internal/envconfig"
	"github.com/barneshut-nbody/distsim/internal/obslog"
	"github.com/barneshut-nbody/distsim/internal/telemetry"
	"github.com/barneshut-nbody/distsim/render"
	pngrender "github.com/barneshut-nbody/distsim/render/png"
	wsrender "github.com/barneshut-nbody/distsim/render/ws"
	"github.com/barneshut-nbody/distsim/sim/simerr"
	"github.com/barneshut-nbody/distsim/sim/simulator"
	"github.com/barneshut-nbody/distsim/transport"
	"github.com/barneshut-nbody/distsim/transport/local"
	"github.com/barneshut-nbody/distsim/transport/tcp"
)

// scenario is a named preset layered on top of the env-driven Config,
// the way Helen9125-Barnes-Hut-Simulation/main.go switches on a command
// argument to pick width/time/theta/scaling before running.
type scenario struct {
	n     int
	r     float64
	dt    float64
	theta float64
}

var scenarios = map[string]scenario{
	"default":      {n: 4000, r: 2.8e6, dt: 0.1, theta: 0.5},
	"cluster":      {n: 12000, r: 8e6, dt: 0.05, theta: 0.6},
	"anchor-heavy": {n: 2000, r: 1.5e6, dt: 0.1, theta: 0.3},
}

// scenarioOverrides mirrors scenario but with pointer fields, so a YAML
// file only needs to name the knobs it wants to change from the named
// preset, the way niceyeti-tabular's reinforcement-learning config loads
// a YAML fragment over a baked-in default before unmarshaling it onto the
// running config.
type scenarioOverrides struct {
	N     *int     `yaml:"n"`
	R     *float64 `yaml:"r"`
	Dt    *float64 `yaml:"dt"`
	Theta *float64 `yaml:"theta"`
}

// loadScenarioFile reads a YAML scenario-override file and applies it on
// top of base. An empty path is a no-op so -scenario-file stays optional.
func loadScenarioFile(path string, base scenario) (scenario, error) {
	if path == "" {
		return base, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return scenario{}, fmt.Errorf("cmd/nbody: reading scenario file %q: %w: %w", path, simerr.ErrConfiguration, err)
	}
	var ov scenarioOverrides
	if err := yaml.Unmarshal(raw, &ov); err != nil {
		return scenario{}, fmt.Errorf("cmd/nbody: parsing scenario file %q: %w: %w", path, simerr.ErrConfiguration, err)
	}
	if ov.N != nil {
		base.n = *ov.N
	}
	if ov.R != nil {
		base.r = *ov.R
	}
	if ov.Dt != nil {
		base.dt = *ov.Dt
	}
	if ov.Theta != nil {
		base.theta = *ov.Theta
	}
	return base, nil
}

func main() {
	_ = godotenv.Load()

	mode := flag.String("mode", "local", "cluster substrate: local or tcp")
	scenarioName := flag.String("scenario", "default", "named preset: default, cluster, or anchor-heavy")
	scenarioFile := flag.String("scenario-file", "", "optional YAML file overriding n/r/dt/theta on top of -scenario")
	procs := flag.Int("procs", 4, "number of peer processes (local mode only)")
	rank := flag.Int("rank", 0, "this process's rank (tcp mode only)")
	peerAddrs := flag.String("peers", "", "comma-separated host:port of every peer, index = rank (tcp mode only)")
	metricsAddr := flag.String("metrics-addr", ":9090", "address for the /metrics and /healthz status mux")
	flag.Parse()

	os.Exit(run(*mode, *scenarioName, *scenarioFile, *procs, *rank, *peerAddrs, *metricsAddr))
}

func run(mode, scenarioName, scenarioFile string, procs, rank int, peerAddrs, metricsAddr string) int {
	logger := obslog.Init(rank, envconfig.String("NBODY_LOG_LEVEL", "info"))

	if err := telemetry.InitErrorReporting(envconfig.String("ENV", "development")); err != nil {
		logger.Warn("error reporting init failed", "error", err)
	}
	shutdownTracing, err := telemetry.InitTracing("nbody")
	if err != nil {
		logger.Warn("tracing init failed", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	go serveStatus(metricsAddr, logger)

	sc, ok := scenarios[scenarioName]
	if !ok {
		err := fmt.Errorf("cmd/nbody: unknown scenario %q: %w", scenarioName, simerr.ErrConfiguration)
		logger.Error("startup failed", "error", err)
		return finish(err, 0, shutdownTracing, ctx)
	}
	sc, err = loadScenarioFile(scenarioFile, sc)
	if err != nil {
		logger.Error("startup failed", "error", err)
		return finish(err, 0, shutdownTracing, ctx)
	}

	switch mode {
	case "local":
		return runLocal(ctx, procs, sc, logger, shutdownTracing)
	case "tcp":
		return runTCP(ctx, rank, strings.Split(peerAddrs, ","), sc, logger, shutdownTracing)
	default:
		err := fmt.Errorf("cmd/nbody: unknown mode %q: %w", mode, simerr.ErrConfiguration)
		logger.Error("startup failed", "error", err)
		return finish(err, 0, shutdownTracing, ctx)
	}
}

// runLocal spins up procs in-process peers on transport/local and runs
// each one's Simulator in its own goroutine, for development and
// single-binary demos.
func runLocal(ctx context.Context, procs int, sc scenario, logger *slog.Logger, shutdownTracing func(context.Context) error) int {
	peers, err := local.NewCluster(procs)
	if err != nil {
		err = fmt.Errorf("cmd/nbody: %w: %w", simerr.ErrConfiguration, err)
		logger.Error("cluster init failed", "error", err)
		return finish(err, 0, shutdownTracing, ctx)
	}

	hub := wsrender.NewHub()
	go serveRenderHub(hub, logger)

	var wg sync.WaitGroup
	errs := make([]error, procs)
	for r := 0; r < procs; r++ {
		wg.Add(1)
		go func(r int) {
			defer wg.Done()
			errs[r] = runOneProcess(ctx, peers[r], r, procs, sc, logger, hub)
		}(r)
	}
	wg.Wait()

	var firstErr error
	for _, e := range errs {
		if e != nil && firstErr == nil {
			firstErr = e
		}
	}
	return finish(firstErr, 0, shutdownTracing, ctx)
}

// runTCP joins a real multi-process job as a single peer over TCP.
func runTCP(ctx context.Context, rank int, addrs []string, sc scenario, logger *slog.Logger, shutdownTracing func(context.Context) error) int {
	tr, err := tcp.Dial(rank, addrs, 30*time.Second)
	if err != nil {
		err = fmt.Errorf("cmd/nbody: %w: %w", simerr.ErrMessaging, err)
		logger.Error("tcp dial failed", "error", err)
		return finish(err, rank, shutdownTracing, ctx)
	}
	defer tr.Close()

	var renderer render.Renderer = render.Null{}
	if rank == 0 {
		r, err := pngrender.New(envconfig.String("NBODY_PNG_DIR", "./frames"), 800, sc.r)
		if err != nil {
			logger.Warn("png renderer init failed, disabling render", "error", err)
		} else {
			renderer = r
		}
	}

	err = runSimulator(ctx, tr, rank, len(addrs), sc, logger, renderer)
	return finish(err, rank, shutdownTracing, ctx)
}

func runOneProcess(ctx context.Context, tr transport.Transport, rank, procs int, sc scenario, logger *slog.Logger, hub *wsrender.Hub) error {
	var renderer render.Renderer = render.Null{}
	if rank == 0 {
		renderer = wsrender.New(hub, 30)
	}
	return runSimulator(ctx, tr, rank, procs, sc, logger, renderer)
}

func runSimulator(ctx context.Context, tr transport.Transport, rank, procs int, sc scenario, logger *slog.Logger, renderer render.Renderer) error {
	cfg := simulator.Load(rank, procs)
	cfg.N, cfg.R, cfg.Dt, cfg.Theta = sc.n, sc.r, sc.dt, sc.theta

	if err := cfg.Validate(); err != nil {
		logger.Error("configuration invalid", "error", err, "rank", rank)
		return err
	}

	owned := simulator.InitialBodies(cfg)
	logger.Info("starting simulator", "rank", rank, "portion", len(owned), "n", cfg.N, "p", cfg.P)

	sim := simulator.New(cfg, tr, renderer, owned)
	if err := sim.Run(ctx); err != nil {
		telemetry.ReportFatal(err, rank, 0)
		logger.Error("simulator stopped with error", "error", err, "rank", rank)
		return err
	}
	return nil
}

func serveStatus(addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		logger.Warn("status mux stopped", "error", err)
	}
}

func serveRenderHub(hub *wsrender.Hub, logger *slog.Logger) {
	addr := envconfig.String("NBODY_WS_ADDR", ":9091")
	if err := http.ListenAndServe(addr, hub.Mux()); err != nil && err != http.ErrServerClosed {
		logger.Warn("render hub stopped", "error", err)
	}
}

func finish(err error, rank int, shutdownTracing func(context.Context) error, ctx context.Context) int {
	if shutdownTracing != nil {
		_ = shutdownTracing(ctx)
	}
	code := simerr.ExitCode(err)
	if err != nil {
		slog.Default().Error("process exiting", "error", err, "exit_code", code, "rank", rank)
	}
	return code
}

// Package local provides an in-process Transport substrate: P peers
// connected by Go channels instead of network sockets. It is the default
// substrate for single-binary runs and for testing the §8 invariants,
// generalizing the goroutine-pool/channel idiom the teacher repo uses for
// its worker pool (simulation/world.WorkerPool) from "submit closures" to
// "numbered peers exchanging fixed-size float64 buffers."
package local

import (
	"fmt"
	"sync"

	"github.com/barneshut-nbody/distsim/transport"
)

// cluster is the shared state backing every peer Transport in one
// in-process run.
type cluster struct {
	n     int
	chans [][]chan []float64
	hub   *hub
}

// NewCluster returns p Transport values, one per rank, wired together
// in-process. p must be >= 1.
func NewCluster(p int) ([]transport.Transport, error) {
	if p < 1 {
		return nil, fmt.Errorf("local: cluster size must be >= 1, got %d", p)
	}

	c := &cluster{n: p, hub: newHub(p)}
	c.chans = make([][]chan []float64, p)
	for i := range c.chans {
		c.chans[i] = make([]chan []float64, p)
		for j := range c.chans[i] {
			if i != j {
				c.chans[i][j] = make(chan []float64, 4)
			}
		}
	}

	peers := make([]transport.Transport, p)
	for r := 0; r < p; r++ {
		peers[r] = &Transport{rank: r, cluster: c}
	}
	return peers, nil
}

// Transport is one peer's view of an in-process cluster.
type Transport struct {
	rank    int
	cluster *cluster
}

// Rank returns this peer's rank.
func (t *Transport) Rank() int { return t.rank }

// Size returns the number of peers in the cluster.
func (t *Transport) Size() int { return t.cluster.n }

// SendRecvReplace sends a copy of buf to `to` and overwrites buf with the
// payload received from `from`.
func (t *Transport) SendRecvReplace(buf []float64, to, from int) error {
	if to == t.rank || from == t.rank {
		return fmt.Errorf("local: rank %d cannot exchange with itself (to=%d from=%d)", t.rank, to, from)
	}

	out := make([]float64, len(buf))
	copy(out, buf)
	t.cluster.chans[t.rank][to] <- out

	received := <-t.cluster.chans[from][t.rank]
	if len(received) != len(buf) {
		return fmt.Errorf("local: buffer length mismatch from rank %d: got %d want %d", from, len(received), len(buf))
	}
	copy(buf, received)
	return nil
}

// AllGather concatenates every rank's send slice into a single slice, in
// rank order.
func (t *Transport) AllGather(send []float64) ([]float64, error) {
	return t.cluster.hub.allGather(t.rank, send)
}

// Barrier blocks until every peer in the cluster has called Barrier.
func (t *Transport) Barrier() error {
	return t.cluster.hub.barrier()
}

// Close is a no-op for the in-process substrate.
func (t *Transport) Close() error { return nil }

// hub coordinates the collective operations (AllGather, Barrier) that have
// no natural point-to-point channel pairing.
type hub struct {
	mu   sync.Mutex
	cond *sync.Cond
	n    int

	barrierCount int
	barrierGen   int

	gatherBuf   [][]float64
	gatherCount int
	gatherGen   int
}

func newHub(n int) *hub {
	h := &hub{n: n, gatherBuf: make([][]float64, n)}
	h.cond = sync.NewCond(&h.mu)
	return h
}

func (h *hub) barrier() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	gen := h.barrierGen
	h.barrierCount++
	if h.barrierCount == h.n {
		h.barrierCount = 0
		h.barrierGen++
		h.cond.Broadcast()
		return nil
	}
	for gen == h.barrierGen {
		h.cond.Wait()
	}
	return nil
}

func (h *hub) allGather(rank int, send []float64) ([]float64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	gen := h.gatherGen
	h.gatherBuf[rank] = send
	h.gatherCount++
	if h.gatherCount == h.n {
		h.gatherCount = 0
		h.gatherGen++
		h.cond.Broadcast()
	} else {
		for gen == h.gatherGen {
			h.cond.Wait()
		}
	}

	result := make([]float64, 0, h.n*len(send))
	for i := 0; i < h.n; i++ {
		if len(h.gatherBuf[i]) != len(send) {
			return nil, fmt.Errorf("local: all-gather length mismatch at rank %d: got %d want %d", i, len(h.gatherBuf[i]), len(send))
		}
		result = append(result, h.gatherBuf[i]...)
	}
	return result, nil
}

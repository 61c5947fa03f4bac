package tcp_test

import (
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barneshut-nbody/distsim/transport/tcp"
)

func freePorts(t *testing.T, n int) []string {
	t.Helper()
	addrs := make([]string, n)
	for i := range addrs {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		addrs[i] = ln.Addr().String()
		require.NoError(t, ln.Close())
	}
	return addrs
}

func dialAll(t *testing.T, addrs []string) []*tcp.Transport {
	t.Helper()
	size := len(addrs)
	transports := make([]*tcp.Transport, size)

	var wg sync.WaitGroup
	errs := make([]error, size)
	for r := 0; r < size; r++ {
		r := r
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr, err := tcp.Dial(r, addrs, 5*time.Second)
			transports[r] = tr
			errs[r] = err
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	return transports
}

func TestTCPSendRecvReplace(t *testing.T) {
	addrs := freePorts(t, 3)
	transports := dialAll(t, addrs)
	defer func() {
		for _, tr := range transports {
			_ = tr.Close()
		}
	}()

	results := make([][]float64, 3)
	var wg sync.WaitGroup
	for r := 0; r < 3; r++ {
		r := r
		wg.Add(1)
		go func() {
			defer wg.Done()
			buf := []float64{float64(r)}
			to := (r + 1) % 3
			from := (r + 2) % 3
			require.NoError(t, transports[r].SendRecvReplace(buf, to, from))
			results[r] = buf
		}()
	}
	wg.Wait()

	for r := 0; r < 3; r++ {
		from := (r + 2) % 3
		assert.Equal(t, []float64{float64(from)}, results[r], fmt.Sprintf("rank %d", r))
	}
}

func TestTCPAllGatherAndBarrier(t *testing.T) {
	addrs := freePorts(t, 3)
	transports := dialAll(t, addrs)
	defer func() {
		for _, tr := range transports {
			_ = tr.Close()
		}
	}()

	results := make([][]float64, 3)
	var wg sync.WaitGroup
	for r := 0; r < 3; r++ {
		r := r
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := transports[r].AllGather([]float64{float64(r) * 2})
			require.NoError(t, err)
			results[r] = got
			require.NoError(t, transports[r].Barrier())
		}()
	}
	wg.Wait()

	want := []float64{0, 2, 4}
	for r := 0; r < 3; r++ {
		assert.Equal(t, want, results[r])
	}
}

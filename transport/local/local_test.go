package local_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barneshut-nbody/distsim/transport"
	"github.com/barneshut-nbody/distsim/transport/local"
)

func TestSendRecvReplaceRoundTrip(t *testing.T) {
	peers, err := local.NewCluster(3)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([][]float64, 3)

	for r := 0; r < 3; r++ {
		wg.Add(1)
		go func(r int, p transport.Transport) {
			defer wg.Done()
			buf := []float64{float64(r), float64(r) * 10}
			to := (r + 1) % 3
			from := transport.Mod(r-1, 3)
			require.NoError(t, p.SendRecvReplace(buf, to, from))
			results[r] = buf
		}(r, peers[r])
	}
	wg.Wait()

	// rank r receives from (r-1) mod 3, whose sent buffer was [from, from*10].
	for r := 0; r < 3; r++ {
		from := transport.Mod(r-1, 3)
		assert.Equal(t, []float64{float64(from), float64(from) * 10}, results[r])
	}
}

func TestAllGatherOrdering(t *testing.T) {
	peers, err := local.NewCluster(4)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([][]float64, 4)

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func(r int, p transport.Transport) {
			defer wg.Done()
			got, err := p.AllGather([]float64{float64(r)})
			require.NoError(t, err)
			results[r] = got
		}(r, peers[r])
	}
	wg.Wait()

	want := []float64{0, 1, 2, 3}
	for r := 0; r < 4; r++ {
		assert.Equal(t, want, results[r])
	}
}

func TestBarrierReleasesAllPeers(t *testing.T) {
	peers, err := local.NewCluster(5)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for r := 0; r < 5; r++ {
		wg.Add(1)
		go func(p transport.Transport) {
			defer wg.Done()
			_ = p.Barrier()
		}(peers[r])
	}
	wg.Wait()
}

func TestModNormalizesNegative(t *testing.T) {
	assert.Equal(t, 2, transport.Mod(-1, 3))
	assert.Equal(t, 0, transport.Mod(-3, 3))
	assert.Equal(t, 1, transport.Mod(4, 3))
}

// Package tcp implements a real multi-process Transport substrate: a
// full mesh of persistent TCP connections, framed with encoding/gob. See
// DESIGN.md for why gob (stdlib) is used here instead of a pack-provided
// RPC framework.
//
// Topology: rank i listens on addrs[i] and dials every rank j > i once
// during Dial, establishing exactly one bidirectional connection per
// unordered pair before the run loop starts, matching spec.md §6
// ("Initialization ... calls bracket the whole run").
package tcp

import (
	"encoding/gob"
	"fmt"
	"net"
	"sync"
	"time"
)

// message is the wire frame for every exchange kind.
type message struct {
	Kind string // "hello", "xchg", "gather-send", "gather-result", "barrier-ready", "barrier-go"
	Data []float64
}

type peerConn struct {
	conn net.Conn
	enc  *gob.Encoder
	dec  *gob.Decoder
	wmu  sync.Mutex // serializes writes from this process to this peer
}

// Transport is one peer's view of a TCP-connected cluster.
type Transport struct {
	rank  int
	peers map[int]*peerConn // keyed by rank, never includes self
	size  int

	rmu sync.Mutex // guards peers while Dial's goroutines register connections
}

// Dial establishes the full mesh for rank among addrs (addrs[i] is rank
// i's listen address) and returns a ready Transport. It blocks until this
// rank has accepted a connection from every lower rank and connected to
// every higher rank.
func Dial(rank int, addrs []string, acceptTimeout time.Duration) (*Transport, error) {
	size := len(addrs)
	if rank < 0 || rank >= size {
		return nil, fmt.Errorf("tcp: rank %d out of range for %d addrs", rank, size)
	}

	t := &Transport{rank: rank, size: size, peers: make(map[int]*peerConn)}

	ln, err := net.Listen("tcp", addrs[rank])
	if err != nil {
		return nil, fmt.Errorf("tcp: listen on %s: %w", addrs[rank], err)
	}
	defer ln.Close()

	var wg sync.WaitGroup
	errs := make(chan error, size)

	// Accept connections from every lower rank.
	lower := rank
	if lower > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ln.(*net.TCPListener).SetDeadline(time.Now().Add(acceptTimeout)); err != nil {
				errs <- err
				return
			}
			for i := 0; i < lower; i++ {
				conn, err := ln.Accept()
				if err != nil {
					errs <- fmt.Errorf("tcp: accept: %w", err)
					return
				}
				t.register(conn)
			}
		}()
	}

	// Dial every higher rank.
	for j := rank + 1; j < size; j++ {
		j := j
		wg.Add(1)
		go func() {
			defer wg.Done()
			var conn net.Conn
			var err error
			deadline := time.Now().Add(acceptTimeout)
			for time.Now().Before(deadline) {
				conn, err = net.Dial("tcp", addrs[j])
				if err == nil {
					break
				}
				time.Sleep(20 * time.Millisecond)
			}
			if err != nil {
				errs <- fmt.Errorf("tcp: dial rank %d at %s: %w", j, addrs[j], err)
				return
			}
			t.mustAssociate(conn, j)
		}()
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return t, nil
}

// register accepts an inbound connection and learns its rank by reading a
// one-shot hello frame.
func (t *Transport) register(conn net.Conn) {
	dec := gob.NewDecoder(conn)
	var hello message
	if err := dec.Decode(&hello); err != nil {
		conn.Close()
		return
	}
	rank := int(hello.Data[0])
	t.associate(conn, rank, dec)
}

// mustAssociate dials out and announces our own rank with a hello frame.
func (t *Transport) mustAssociate(conn net.Conn, peerRank int) {
	enc := gob.NewEncoder(conn)
	_ = enc.Encode(message{Kind: "hello", Data: []float64{float64(t.rank)}})
	t.associateWithEncoder(conn, peerRank, enc, gob.NewDecoder(conn))
}

func (t *Transport) associate(conn net.Conn, peerRank int, dec *gob.Decoder) {
	t.associateWithEncoder(conn, peerRank, gob.NewEncoder(conn), dec)
}

func (t *Transport) associateWithEncoder(conn net.Conn, peerRank int, enc *gob.Encoder, dec *gob.Decoder) {
	t.rmu.Lock()
	defer t.rmu.Unlock()
	t.peers[peerRank] = &peerConn{conn: conn, enc: enc, dec: dec}
}

func (t *Transport) peer(rank int) (*peerConn, error) {
	p, ok := t.peers[rank]
	if !ok {
		return nil, fmt.Errorf("tcp: no connection to rank %d", rank)
	}
	return p, nil
}

// Rank returns this process's rank.
func (t *Transport) Rank() int { return t.rank }

// Size returns the number of peers in the mesh.
func (t *Transport) Size() int { return t.size }

// SendRecvReplace sends buf to peer `to` and overwrites buf with the
// payload received from `from`, matching in-flight sends and receives
// concurrently to avoid deadlock when to == from.
func (t *Transport) SendRecvReplace(buf []float64, to, from int) error {
	if to == t.rank || from == t.rank {
		return fmt.Errorf("tcp: rank %d cannot exchange with itself (to=%d from=%d)", t.rank, to, from)
	}

	toPeer, err := t.peer(to)
	if err != nil {
		return err
	}
	fromPeer, err := t.peer(from)
	if err != nil {
		return err
	}

	sendErr := make(chan error, 1)
	go func() {
		toPeer.wmu.Lock()
		defer toPeer.wmu.Unlock()
		sendErr <- toPeer.enc.Encode(message{Kind: "xchg", Data: buf})
	}()

	var reply message
	recvErr := fromPeer.dec.Decode(&reply)
	if err := <-sendErr; err != nil {
		return fmt.Errorf("tcp: send to rank %d: %w", to, err)
	}
	if recvErr != nil {
		return fmt.Errorf("tcp: receive from rank %d: %w", from, recvErr)
	}
	if len(reply.Data) != len(buf) {
		return fmt.Errorf("tcp: buffer length mismatch from rank %d: got %d want %d", from, len(reply.Data), len(buf))
	}
	copy(buf, reply.Data)
	return nil
}

// AllGather centralizes on rank 0: every other rank sends its slice to
// rank 0, which concatenates in rank order and broadcasts the result back.
func (t *Transport) AllGather(send []float64) ([]float64, error) {
	if t.rank == 0 {
		gathered := make([][]float64, t.size)
		gathered[0] = send
		for r := 1; r < t.size; r++ {
			p, err := t.peer(r)
			if err != nil {
				return nil, err
			}
			var m message
			if err := p.dec.Decode(&m); err != nil {
				return nil, fmt.Errorf("tcp: gather from rank %d: %w", r, err)
			}
			gathered[r] = m.Data
		}

		result := make([]float64, 0, t.size*len(send))
		for _, g := range gathered {
			result = append(result, g...)
		}

		for r := 1; r < t.size; r++ {
			p, _ := t.peer(r)
			p.wmu.Lock()
			err := p.enc.Encode(message{Kind: "gather-result", Data: result})
			p.wmu.Unlock()
			if err != nil {
				return nil, fmt.Errorf("tcp: broadcast gather result to rank %d: %w", r, err)
			}
		}
		return result, nil
	}

	root, err := t.peer(0)
	if err != nil {
		return nil, err
	}
	root.wmu.Lock()
	err = root.enc.Encode(message{Kind: "gather-send", Data: send})
	root.wmu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("tcp: send to rank 0: %w", err)
	}

	var reply message
	if err := root.dec.Decode(&reply); err != nil {
		return nil, fmt.Errorf("tcp: receive gather result: %w", err)
	}
	return reply.Data, nil
}

// Barrier centralizes on rank 0: every other rank signals readiness and
// waits for the go-ahead.
func (t *Transport) Barrier() error {
	if t.rank == 0 {
		for r := 1; r < t.size; r++ {
			p, err := t.peer(r)
			if err != nil {
				return err
			}
			var m message
			if err := p.dec.Decode(&m); err != nil {
				return fmt.Errorf("tcp: barrier wait on rank %d: %w", r, err)
			}
		}
		for r := 1; r < t.size; r++ {
			p, _ := t.peer(r)
			p.wmu.Lock()
			err := p.enc.Encode(message{Kind: "barrier-go"})
			p.wmu.Unlock()
			if err != nil {
				return fmt.Errorf("tcp: barrier release rank %d: %w", r, err)
			}
		}
		return nil
	}

	root, err := t.peer(0)
	if err != nil {
		return err
	}
	root.wmu.Lock()
	err = root.enc.Encode(message{Kind: "barrier-ready"})
	root.wmu.Unlock()
	if err != nil {
		return fmt.Errorf("tcp: barrier signal: %w", err)
	}

	var m message
	return root.dec.Decode(&m)
}

// Close closes every peer connection.
func (t *Transport) Close() error {
	var first error
	for _, p := range t.peers {
		if err := p.conn.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

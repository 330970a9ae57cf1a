package antientropy

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/netshard-io/mtkv/internal/merkle"
	"github.com/netshard-io/mtkv/internal/protocol"
	"github.com/netshard-io/mtkv/internal/store"
)

// fakePeer is a minimal peer that answers exactly the verbs the
// anti-entropy engine issues as an initiator (GET, GET_ALL,
// GET_MERKLE_ROOT, GET_PATHS, PROPAGATE SET), backed by its own store
// and Merkle index. It exists so engine tests can exercise the real
// wire protocol without depending on the node package.
type fakePeer struct {
	store    *store.Store
	index    *merkle.Index
	listener net.Listener
}

func newFakePeer(t *testing.T) *fakePeer {
	t.Helper()
	s := store.New()
	idx := merkle.New()
	s.AttachIndex(idx)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	p := &fakePeer{store: s, index: idx, listener: ln}
	go p.serve()
	t.Cleanup(func() { ln.Close() })
	return p
}

func (p *fakePeer) addr() string {
	return p.listener.Addr().String()
}

func (p *fakePeer) serve() {
	for {
		conn, err := p.listener.Accept()
		if err != nil {
			return
		}
		go p.handle(conn)
	}
}

func (p *fakePeer) handle(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))
	buf := make([]byte, protocol.BufGetPaths)
	n, err := conn.Read(buf)
	if err != nil && err != io.EOF {
		return
	}
	req, err := protocol.Parse(buf[:n])
	if err != nil {
		return
	}

	if req.Propagate == protocol.PropagateSetOp {
		p.store.Set(req.Key, req.Value, req.Timestamp)
		return
	}
	if req.Propagate == protocol.PropagateDelOp {
		p.store.Delete(req.Key, req.Timestamp)
		return
	}

	switch req.Op {
	case protocol.VerbGet:
		conn.Write(p.store.Get(req.Key))
	case protocol.VerbGetAll:
		snap := p.store.Snapshot()
		keys := make([][]byte, len(snap))
		ts := make([]uint64, len(snap))
		for i, e := range snap {
			keys[i], ts[i] = e.Key, e.Timestamp
		}
		conn.Write([]byte(protocol.EncodeGetAll(keys, ts)))
	case protocol.VerbGetMerkleRoot:
		if p.index.Empty() {
			conn.Write([]byte(protocol.RespEmpty))
			return
		}
		conn.Write([]byte(p.index.Root().String()))
	case protocol.VerbGetPaths:
		pairs := p.index.Paths(req.Keys)
		conn.Write([]byte(protocol.EncodeGetPaths(pairs)))
	}
}

func newTestEngine(s *store.Store, idx *merkle.Index, peerAddr string) *Engine {
	return New(Config{
		Store:    s,
		Index:    idx,
		PeerAddr: func() string { return peerAddr },
		Interval: time.Hour, // tests call runCycle directly
	})
}

func TestRunCycleNoopWithNoPeer(t *testing.T) {
	s := store.New()
	idx := merkle.New()
	s.AttachIndex(idx)
	e := newTestEngine(s, idx, "")
	if err := e.runCycle(); err != nil {
		t.Fatalf("runCycle with no peer: %v", err)
	}
}

func TestRunCycleFullStateWhenLocalEmpty(t *testing.T) {
	peer := newFakePeer(t)
	peer.store.Set([]byte("k"), []byte("v"), 10)

	s := store.New()
	idx := merkle.New()
	s.AttachIndex(idx)
	e := newTestEngine(s, idx, peer.addr())

	if err := e.runCycle(); err != nil {
		t.Fatalf("runCycle: %v", err)
	}
	if v := s.Get([]byte("k")); string(v) != "v" {
		t.Fatalf("local store after full-state pull = %q, want %q", v, "v")
	}
}

func TestRunCycleMerkleFastPathNoop(t *testing.T) {
	peer := newFakePeer(t)
	peer.store.Set([]byte("k"), []byte("v"), 10)

	s := store.New()
	idx := merkle.New()
	s.AttachIndex(idx)
	s.Set([]byte("k"), []byte("v"), 10)

	e := newTestEngine(s, idx, peer.addr())
	if err := e.runCycle(); err != nil {
		t.Fatalf("runCycle: %v", err)
	}
	if v := s.Get([]byte("k")); string(v) != "v" {
		t.Fatalf("local store changed unexpectedly: %q", v)
	}
}

func TestRunCyclePullsDivergedKey(t *testing.T) {
	peer := newFakePeer(t)
	peer.store.Set([]byte("shared"), []byte("peer-value"), 100)

	s := store.New()
	idx := merkle.New()
	s.AttachIndex(idx)
	s.Set([]byte("shared"), []byte("local-value"), 50)

	e := newTestEngine(s, idx, peer.addr())
	if err := e.runCycle(); err != nil {
		t.Fatalf("runCycle: %v", err)
	}
	if v := s.Get([]byte("shared")); string(v) != "peer-value" {
		t.Fatalf("local store after merkle pull = %q, want %q", v, "peer-value")
	}
}

func TestRunCyclePushesLocalOnlyKeyViaFullState(t *testing.T) {
	peer := newFakePeer(t)

	s := store.New()
	idx := merkle.New()
	s.AttachIndex(idx)
	s.Set([]byte("local-only"), []byte("v"), 5)

	e := newTestEngine(s, idx, peer.addr())
	if err := e.runCycle(); err != nil {
		t.Fatalf("runCycle: %v", err)
	}
	// PROPAGATE SET is sent without waiting for a reply, so the peer
	// may apply it after runCycle has returned.
	deadline := time.Now().Add(2 * time.Second)
	for {
		v := peer.store.Get([]byte("local-only"))
		if string(v) == "v" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("peer store after push = %q, want %q", v, "v")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRunCycleFallsBackOnTransportError(t *testing.T) {
	s := store.New()
	idx := merkle.New()
	s.AttachIndex(idx)
	s.Set([]byte("k"), []byte("v"), 1)

	// Nothing listens on this port: GetMerkleRoot fails, triggering
	// the full-state fallback, which also fails, so runCycle reports
	// the original cause.
	e := newTestEngine(s, idx, "127.0.0.1:1")
	if err := e.runCycle(); err == nil {
		t.Fatalf("runCycle against an unreachable peer, want an error")
	}
}

package node

import (
	"io"
	"net"
	"time"

	"github.com/netshard-io/mtkv/internal/protocol"
)

// sessionBuf is sized for the largest verb this node accepts as a
// listener; GET_PATHS requests (not responses) are the largest, since
// a caller can list many keys in one request.
const sessionBuf = protocol.BufGetPaths

// handleConn reads exactly one request from conn, dispatches it, and
// writes exactly one response (or none, for PROPAGATE), then closes
// the connection. This is the one-shot, request-per-connection
// session model spec.md §4.4 requires.
func (n *Node) handleConn(conn net.Conn) {
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(10 * time.Second))

	buf := make([]byte, sessionBuf)
	nRead, err := conn.Read(buf)
	if err != nil && err != io.EOF {
		return
	}
	if nRead == 0 {
		return
	}

	resp := n.dispatch(buf[:nRead])
	if resp == nil {
		return
	}
	_, _ = conn.Write(resp)
}

// dispatch parses raw and executes it against the store and index,
// returning the bytes to write back, or nil when no response is
// expected (PROPAGATE).
func (n *Node) dispatch(raw []byte) []byte {
	req, err := protocol.Parse(raw)
	if err != nil {
		return []byte(protocol.RespInvalidCommand)
	}

	switch {
	case req.Propagate == protocol.PropagateSetOp:
		n.store.Set(req.Key, req.Value, req.Timestamp)
		return nil
	case req.Propagate == protocol.PropagateDelOp:
		n.store.Delete(req.Key, req.Timestamp)
		return nil
	}

	switch req.Op {
	case protocol.VerbGet:
		return n.store.Get(req.Key)

	case protocol.VerbSet:
		ts := nowMillis()
		if !n.store.Set(req.Key, req.Value, ts) {
			return []byte(protocol.RespOutdatedTS)
		}
		n.propagateSet(req.Key, req.Value, ts)
		return []byte(protocol.RespOK)

	case protocol.VerbDel:
		value := n.store.Get(req.Key)
		ts := nowMillis()
		if !n.store.Delete(req.Key, ts) {
			return []byte(protocol.RespKeyNotFoundOrOld)
		}
		n.propagateDel(req.Key, value, ts)
		return []byte(protocol.RespOK)

	case protocol.VerbGetAll:
		snapshot := n.store.Snapshot()
		keys := make([][]byte, len(snapshot))
		ts := make([]uint64, len(snapshot))
		for i, e := range snapshot {
			keys[i] = e.Key
			ts[i] = e.Timestamp
		}
		return []byte(protocol.EncodeGetAll(keys, ts))

	case protocol.VerbGetMerkleRoot:
		if n.index.Empty() {
			return []byte(protocol.RespEmpty)
		}
		return []byte(n.index.Root().String())

	case protocol.VerbGetPaths:
		pairs := n.index.Paths(req.Keys)
		return []byte(protocol.EncodeGetPaths(pairs))

	default:
		return []byte(protocol.RespInvalidCommand)
	}
}

func nowMillis() uint64 {
	return uint64(time.Now().UnixMilli())
}

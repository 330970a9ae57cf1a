package node

import (
	"fmt"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/netshard-io/mtkv/internal/protocol"
)

const maxPropagateAttempts = 5

// propagateSet fires PROPAGATE SET to the configured peer on a
// detached goroutine with exponential backoff, tracked in n.propWG so
// Close can wait for it. A local SET that has no peer configured is
// a no-op.
func (n *Node) propagateSet(key, value []byte, ts uint64) {
	n.propagate(func(addr string) error {
		return protocol.NewClient(addr).PropagateSet(key, value, ts)
	})
}

// propagateDel fires PROPAGATE DEL to the configured peer, same
// retry discipline as propagateSet.
func (n *Node) propagateDel(key, value []byte, ts uint64) {
	n.propagate(func(addr string) error {
		return protocol.NewClient(addr).PropagateDel(key, value, ts)
	})
}

func (n *Node) propagate(send func(addr string) error) {
	addr := n.PeerAddr()
	if addr == "" {
		return
	}

	n.propWG.Add(1)
	go func() {
		defer n.propWG.Done()
		defer func() {
			if r := recover(); r != nil {
				n.onError(fmt.Errorf("node: propagation panic: %v", r))
			}
		}()
		n.retryPropagate(addr, send)
	}()
}

// retryPropagate attempts send up to maxPropagateAttempts times, with
// delays 100, 200, 400, 800, 1600 ms (RandomizationFactor disabled so
// the schedule is exact, per spec). The final attempt's failure is
// dropped: anti-entropy is relied on to converge the key eventually.
func (n *Node) retryPropagate(addr string, send func(addr string) error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = 1600 * time.Millisecond
	b.Reset()

	for attempt := 1; attempt <= maxPropagateAttempts; attempt++ {
		time.Sleep(b.NextBackOff())
		if err := send(addr); err == nil {
			return
		} else if attempt == maxPropagateAttempts {
			n.onError(fmt.Errorf("node: propagate to %s: exhausted %d attempts: %w", addr, maxPropagateAttempts, err))
		}
	}
}

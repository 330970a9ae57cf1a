// Package antientropy implements the background reconciliation
// protocol: periodically compare Merkle summaries with the configured
// peer, narrow down to the differing keys, and pull the authoritative
// value for each — falling back to a classical full key-timestamp
// exchange when a Merkle summary isn't available or the exchange
// fails partway through.
package antientropy

import (
	"context"
	"fmt"
	"time"

	"github.com/netshard-io/mtkv/internal/merkle"
	"github.com/netshard-io/mtkv/internal/protocol"
	"github.com/netshard-io/mtkv/internal/store"
)

// DefaultInterval is the cycle cadence spec.md mandates.
const DefaultInterval = 5 * time.Second

// Config configures an Engine.
type Config struct {
	Store *store.Store
	Index *merkle.Index

	// PeerAddr is read fresh on every cycle so it reflects whatever
	// discovery has resolved by then; an empty address makes the
	// cycle a no-op.
	PeerAddr func() string

	Interval time.Duration
	OnError  func(error)
}

// Engine runs the anti-entropy state machine on a dedicated
// long-lived loop.
type Engine struct {
	store    *store.Store
	index    *merkle.Index
	peerAddr func() string
	interval time.Duration
	onError  func(error)
}

// New returns an Engine ready to Start.
func New(cfg Config) *Engine {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	onError := cfg.OnError
	if onError == nil {
		onError = func(error) {}
	}
	return &Engine{
		store:    cfg.Store,
		index:    cfg.Index,
		peerAddr: cfg.PeerAddr,
		interval: interval,
		onError:  onError,
	}
}

// Start runs cycles on a ticker until ctx is canceled. A cycle that
// errors is logged via OnError; the loop continues regardless.
func (e *Engine) Start(ctx context.Context) error {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			e.safeCycle()
		}
	}
}

func (e *Engine) safeCycle() {
	defer func() {
		if r := recover(); r != nil {
			e.onError(fmt.Errorf("antientropy: cycle panic: %v", r))
		}
	}()
	if err := e.runCycle(); err != nil {
		e.onError(fmt.Errorf("antientropy: cycle: %w", err))
	}
}

// runCycle implements the initiator-side state machine from
// spec.md §4.3.
func (e *Engine) runCycle() error {
	addr := e.peerAddr()
	if addr == "" {
		return nil
	}
	client := protocol.NewClient(addr)

	if e.index.Empty() {
		return e.fullStateExchange(client)
	}
	localRoot := e.index.Root()

	remoteRoot, ok, err := client.GetMerkleRoot()
	if err != nil {
		return e.fallback(client, fmt.Errorf("get merkle root: %w", err))
	}
	if !ok {
		return e.fullStateExchange(client)
	}
	if remoteRoot == localRoot {
		return nil
	}

	keys := e.store.Keys()
	remotePairs, err := client.GetPaths(keys)
	if err != nil {
		return e.fallback(client, fmt.Errorf("get paths: %w", err))
	}

	diffs := e.index.FindDifferences(remotePairs)
	for _, key := range diffs {
		value, err := client.Get(key)
		if err != nil {
			return e.fallback(client, fmt.Errorf("pull %q: %w", key, err))
		}
		// The peer's leaf differs from ours, so it is presumed
		// authoritative for this key; the local clock at pull time
		// is used as the new timestamp so a later, even-newer write
		// elsewhere still wins on the next cycle.
		e.store.Set(key, value, nowMillis())
	}
	return nil
}

// fallback retries once via FullStateExchange after a transport or
// parse error interrupts the Merkle path, per spec.md §4.3 step 7.
func (e *Engine) fallback(client *protocol.Client, cause error) error {
	if err := e.fullStateExchange(client); err != nil {
		return fmt.Errorf("%w (full-state fallback also failed: %v)", cause, err)
	}
	return nil
}

func nowMillis() uint64 {
	return uint64(time.Now().UnixMilli())
}

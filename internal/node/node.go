// Package node ties the KV store, the Merkle index, and the
// anti-entropy engine together behind a TCP accept loop: one request
// per connection, dispatched by verb, with local SET/DEL additionally
// propagated to the configured peer in the background.
package node

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/netshard-io/mtkv/internal/antientropy"
	"github.com/netshard-io/mtkv/internal/discovery"
	"github.com/netshard-io/mtkv/internal/merkle"
	"github.com/netshard-io/mtkv/internal/store"
)

// Config configures a Node.
type Config struct {
	// ListenAddr is the local TCP address to accept connections on.
	ListenAddr string

	// PeerAddr is the one configured peer's address, host:port. May
	// be empty if PeerID is set and discovery is expected to resolve
	// it, or if the node should run with no peer at all.
	PeerAddr string

	// PeerID, if set, is resolved to an address via mDNS discovery
	// when PeerAddr is empty.
	PeerID          string
	NodeID          string
	EnableDiscovery bool

	// AntiEntropyInterval overrides the anti-entropy cycle cadence;
	// defaults to 5 seconds, per spec.
	AntiEntropyInterval time.Duration

	// OnError receives errors from background loops (accept,
	// anti-entropy, propagation) that would otherwise have nowhere
	// to go. Defaults to logging via the standard log package.
	OnError func(error)
}

// Node owns the KV store, the Merkle index, and the anti-entropy
// engine for one replica, plus the TCP front-end that serves them.
type Node struct {
	cfg     Config
	onError func(error)

	store       *store.Store
	index       *merkle.Index
	antiEntropy *antientropy.Engine
	discovery   *discovery.Resolver

	mu       sync.RWMutex
	peerAddr string
	closed   bool

	listener net.Listener
	propWG   sync.WaitGroup

	cancel context.CancelFunc
	group  *errgroup.Group
}

// New constructs a Node. The KV store and Merkle index are wired
// together immediately; the anti-entropy engine and any peer
// discovery are started by ListenAndServe.
func New(cfg Config) *Node {
	onError := cfg.OnError
	if onError == nil {
		onError = defaultOnError
	}

	n := &Node{
		cfg:      cfg,
		onError:  onError,
		store:    store.New(),
		index:    merkle.New(),
		peerAddr: cfg.PeerAddr,
	}
	n.store.AttachIndex(n.index)
	n.antiEntropy = antientropy.New(antientropy.Config{
		Store:    n.store,
		Index:    n.index,
		PeerAddr: n.PeerAddr,
		Interval: cfg.AntiEntropyInterval,
		OnError:  onError,
	})
	return n
}

// PeerAddr returns the node's current view of the peer address,
// which discovery may update after construction.
func (n *Node) PeerAddr() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.peerAddr
}

func (n *Node) setPeerAddr(addr string) {
	n.mu.Lock()
	n.peerAddr = addr
	n.mu.Unlock()
}

// Store exposes the underlying KV store, primarily for tests and the
// command-line front end.
func (n *Node) Store() *store.Store { return n.store }

// Index exposes the underlying Merkle index.
func (n *Node) Index() *merkle.Index { return n.index }

// Addr returns the listener's actual address, or nil before
// ListenAndServe has bound it. Primarily useful in tests that bind to
// "127.0.0.1:0" and need the chosen port.
func (n *Node) Addr() net.Addr {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.listener == nil {
		return nil
	}
	return n.listener.Addr()
}

// Get returns the value stored under key, and whether it was found.
// It never touches the peer: reads are always served from local
// state, exactly like a GET over the wire.
func (n *Node) Get(key []byte) ([]byte, bool) {
	value := n.store.Get(key)
	if value == nil {
		return nil, false
	}
	return value, true
}

// Set stores value under key with the current wall-clock timestamp
// and propagates the write to the configured peer in the background.
// It mirrors the local-write path of a SET request arriving over the
// wire: a write the store rejects as outdated is not propagated.
func (n *Node) Set(key, value []byte) {
	ts := nowMillis()
	if !n.store.Set(key, value, ts) {
		return
	}
	n.propagateSet(key, value, ts)
}

// Delete removes key if present, returning whether it was deleted,
// and propagates the deletion to the configured peer in the
// background on success.
func (n *Node) Delete(key []byte) bool {
	value := n.store.Get(key)
	ts := nowMillis()
	if !n.store.Delete(key, ts) {
		return false
	}
	n.propagateDel(key, value, ts)
	return true
}

// ListenAndServe starts the accept loop, the anti-entropy engine, and
// (if configured) peer discovery, and blocks until ctx is canceled or
// an unrecoverable error occurs in one of them.
func (n *Node) ListenAndServe(ctx context.Context) error {
	listener, err := net.Listen("tcp", n.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("node: listen on %s: %w", n.cfg.ListenAddr, err)
	}
	n.mu.Lock()
	n.listener = listener
	n.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	n.cancel = cancel
	group, gctx := errgroup.WithContext(ctx)
	n.group = group

	if n.cfg.EnableDiscovery && n.cfg.PeerID != "" {
		onResolve := n.setPeerAddr
		if n.cfg.PeerAddr != "" {
			// A static peer address takes priority over discovery.
			onResolve = func(string) {}
		}
		resolver, err := discovery.NewResolver(n.cfg.NodeID, n.cfg.ListenAddr, n.cfg.PeerID, onResolve)
		if err != nil {
			listener.Close()
			return fmt.Errorf("node: start discovery: %w", err)
		}
		n.discovery = resolver
	}

	group.Go(func() error {
		return n.acceptLoop(gctx, listener)
	})
	group.Go(func() error {
		return n.antiEntropy.Start(gctx)
	})
	group.Go(func() error {
		// Unblock Accept once ctx is canceled. Close closes the
		// listener itself, so leave it alone once Close has begun.
		<-gctx.Done()
		n.mu.RLock()
		closing := n.closed
		n.mu.RUnlock()
		if !closing {
			listener.Close()
		}
		return nil
	})

	err = group.Wait()
	if err != nil && ctx.Err() != nil {
		// Shutdown via context cancellation, not a real failure.
		return nil
	}
	return err
}

func (n *Node) acceptLoop(ctx context.Context, listener net.Listener) error {
	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return fmt.Errorf("node: accept: %w", err)
			}
		}
		go n.safeHandle(conn)
	}
}

func (n *Node) safeHandle(conn net.Conn) {
	defer func() {
		if r := recover(); r != nil {
			n.onError(fmt.Errorf("node: session panic: %v", r))
		}
	}()
	n.handleConn(conn)
}

// Close stops the listener, the anti-entropy engine, and any peer
// discovery, then waits for in-flight propagation goroutines to
// finish retrying or give up.
func (n *Node) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	n.mu.Unlock()

	if n.discovery != nil {
		n.discovery.Close()
	}
	if n.cancel != nil {
		n.cancel()
	}
	n.mu.RLock()
	listener := n.listener
	n.mu.RUnlock()
	var listenErr error
	if listener != nil {
		listenErr = listener.Close()
	}
	if n.group != nil {
		_ = n.group.Wait()
	}
	n.propWG.Wait()
	return listenErr
}

func defaultOnError(err error) {
	stdLog(err)
}

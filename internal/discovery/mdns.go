// Package discovery resolves the address of the one configured peer
// via mDNS. It is adapted from a teacher implementation that
// discovered an open-ended, growing peer set (internal/discovery in
// the original gossip node); here there is always exactly one peer to
// find, so browsing stops being about topology management and starts
// being about "what's this one peer's current address."
package discovery

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/grandcat/zeroconf"
)

const serviceName = "_mtkv._tcp"

// Resolver announces this node on the LAN and resolves the address of
// a single named peer.
type Resolver struct {
	nodeID string
	peerID string
	server *zeroconf.Server
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewResolver registers nodeID's service on listenAddr and starts
// browsing for peerID. onResolve is called for each IPv4 and IPv6
// address of every sighting of a matching service entry, in host:port
// form; it may be called more than once if the peer has several
// addresses, its address changes, or it restarts.
func NewResolver(nodeID, listenAddr, peerID string, onResolve func(addr string)) (*Resolver, error) {
	_, portStr, err := net.SplitHostPort(listenAddr)
	if err != nil {
		return nil, fmt.Errorf("discovery: invalid listen addr: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("discovery: invalid port: %w", err)
	}

	server, err := zeroconf.Register(nodeID, serviceName, "local.", port, []string{
		"node=" + nodeID,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("discovery: register: %w", err)
	}

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		server.Shutdown()
		return nil, fmt.Errorf("discovery: resolver: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	entries := make(chan *zeroconf.ServiceEntry)
	r := &Resolver{
		nodeID: nodeID,
		peerID: peerID,
		server: server,
		cancel: cancel,
	}

	r.wg.Add(1)
	go r.browseLoop(entries, onResolve)

	if err := resolver.Browse(ctx, serviceName, "local.", entries); err != nil {
		cancel()
		server.Shutdown()
		r.wg.Wait()
		return nil, fmt.Errorf("discovery: browse: %w", err)
	}

	return r, nil
}

func (r *Resolver) browseLoop(entries <-chan *zeroconf.ServiceEntry, onResolve func(addr string)) {
	defer r.wg.Done()
	for entry := range entries {
		if !r.isPeer(entry) {
			continue
		}
		for _, ip := range entry.AddrIPv4 {
			onResolve(net.JoinHostPort(ip.String(), strconv.Itoa(entry.Port)))
		}
		for _, ip := range entry.AddrIPv6 {
			onResolve(net.JoinHostPort(ip.String(), strconv.Itoa(entry.Port)))
		}
	}
}

func (r *Resolver) isPeer(entry *zeroconf.ServiceEntry) bool {
	for _, txt := range entry.Text {
		if txt == "node="+r.peerID {
			return true
		}
	}
	return false
}

// Close stops browsing and tears down this node's own service
// registration.
func (r *Resolver) Close() {
	if r == nil {
		return
	}
	r.cancel()
	r.wg.Wait()
	r.server.Shutdown()
}

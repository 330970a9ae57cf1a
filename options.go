package mtkv

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
	"time"

	"github.com/netshard-io/mtkv/internal/node"
)

// Option configures the database on creation.
// Return an error to reject an invalid option value.
type Option func(*node.Config) error

func defaultConfig() node.Config {
	return node.Config{
		AntiEntropyInterval: 5 * time.Second,
	}
}

func finalize(c *node.Config) error {
	if c.NodeID == "" {
		id, err := randomNodeID()
		if err != nil {
			return err
		}
		c.NodeID = id
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("mtkv: listen address is required")
	}
	if err := validateAddr(c.ListenAddr); err != nil {
		return err
	}
	if c.PeerAddr != "" {
		if err := validateAddr(c.PeerAddr); err != nil {
			return err
		}
	}
	if c.EnableDiscovery && c.PeerID == "" {
		return fmt.Errorf("mtkv: discovery requires a peer id")
	}
	if c.AntiEntropyInterval <= 0 {
		return fmt.Errorf("mtkv: anti-entropy interval must be positive")
	}
	return nil
}

// WithNodeID sets a stable node identifier, used in mDNS discovery
// announcements. If omitted, a random ID is generated.
func WithNodeID(nodeID string) Option {
	return func(c *node.Config) error {
		if nodeID == "" {
			return fmt.Errorf("mtkv: node id cannot be empty")
		}
		c.NodeID = nodeID
		return nil
	}
}

// WithListenAddr sets the local address this node accepts connections
// on, in host:port form. It is validated with net.SplitHostPort.
func WithListenAddr(addr string) Option {
	return func(c *node.Config) error {
		if addr == "" {
			return fmt.Errorf("mtkv: listen addr cannot be empty")
		}
		if err := validateAddr(addr); err != nil {
			return err
		}
		c.ListenAddr = addr
		return nil
	}
}

// WithPeerAddr sets the one configured peer's address directly. An
// address set this way takes priority over anything discovery later
// resolves.
func WithPeerAddr(addr string) Option {
	return func(c *node.Config) error {
		if addr == "" {
			return fmt.Errorf("mtkv: peer addr cannot be empty")
		}
		if err := validateAddr(addr); err != nil {
			return err
		}
		c.PeerAddr = addr
		return nil
	}
}

// WithPeerID sets the identifier of the one peer to resolve via mDNS
// when discovery is enabled and no static peer address is known.
func WithPeerID(peerID string) Option {
	return func(c *node.Config) error {
		if peerID == "" {
			return fmt.Errorf("mtkv: peer id cannot be empty")
		}
		c.PeerID = peerID
		return nil
	}
}

// WithDiscovery enables or disables mDNS resolution of the configured
// peer's address.
func WithDiscovery(enabled bool) Option {
	return func(c *node.Config) error {
		c.EnableDiscovery = enabled
		return nil
	}
}

// WithAntiEntropyInterval sets how often the background anti-entropy
// cycle runs. Defaults to 5 seconds.
func WithAntiEntropyInterval(interval time.Duration) Option {
	return func(c *node.Config) error {
		if interval <= 0 {
			return fmt.Errorf("mtkv: anti-entropy interval must be positive")
		}
		c.AntiEntropyInterval = interval
		return nil
	}
}

// WithErrorHandler sets a callback for internal errors (accept loop,
// anti-entropy, propagation) that have no other way to surface.
// It is best-effort and must be fast and non-blocking.
func WithErrorHandler(handler func(error)) Option {
	return func(c *node.Config) error {
		if handler == nil {
			return fmt.Errorf("mtkv: error handler cannot be nil")
		}
		c.OnError = handler
		return nil
	}
}

func randomNodeID() (string, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("mtkv: generate node id: %w", err)
	}
	return hex.EncodeToString(buf[:]), nil
}

func validateAddr(addr string) error {
	_, _, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("mtkv: invalid address %q: %w", addr, err)
	}
	return nil
}

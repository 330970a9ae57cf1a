package mtkv

import (
	"context"
	"sync"

	"github.com/netshard-io/mtkv/internal/node"
)

// DB represents a running mtkv node: a local key-value store, its
// Merkle index, and the TCP front end and background anti-entropy
// loop that keep it synchronized with one configured peer.
//
// It is safe for concurrent use by multiple goroutines.
type DB struct {
	cfg  node.Config
	node *node.Node

	mu     sync.RWMutex
	closed bool
}

// New constructs a DB with the provided options but does not start
// serving; call ListenAndServe to begin accepting connections and
// running anti-entropy.
func New(opts ...Option) (*DB, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	if err := finalize(&cfg); err != nil {
		return nil, err
	}

	return &DB{
		cfg:  cfg,
		node: node.New(cfg),
	}, nil
}

// ListenAndServe starts the TCP accept loop and the background
// anti-entropy cycle, and blocks until ctx is canceled or an
// unrecoverable error occurs.
func (db *DB) ListenAndServe(ctx context.Context) error {
	if err := db.check(); err != nil {
		return err
	}
	return db.node.ListenAndServe(ctx)
}

// Set stores value under key with the current timestamp and
// propagates the write to the configured peer in the background.
func (db *DB) Set(key, value []byte) error {
	if err := db.check(); err != nil {
		return err
	}
	db.node.Set(key, value)
	return nil
}

// Get returns the value stored under key. It returns ErrKeyNotFound
// if the key is absent.
func (db *DB) Get(key []byte) ([]byte, error) {
	if err := db.check(); err != nil {
		return nil, err
	}
	value, ok := db.node.Get(key)
	if !ok {
		return nil, ErrKeyNotFound
	}
	return value, nil
}

// Delete removes key, propagating the deletion to the configured peer
// on success. It returns ErrKeyNotFound if the key is absent.
func (db *DB) Delete(key []byte) error {
	if err := db.check(); err != nil {
		return err
	}
	if !db.node.Delete(key) {
		return ErrKeyNotFound
	}
	return nil
}

// PeerAddr returns the DB's current view of the peer address, which
// discovery may have updated since construction.
func (db *DB) PeerAddr() string {
	return db.node.PeerAddr()
}

// Close stops the listener, the anti-entropy loop, and any peer
// discovery, and waits for in-flight propagation to finish.
func (db *DB) Close() error {
	db.mu.Lock()
	if db.closed {
		db.mu.Unlock()
		return nil
	}
	db.closed = true
	db.mu.Unlock()
	return db.node.Close()
}

func (db *DB) check() error {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.closed {
		return ErrClosed
	}
	return nil
}

// Package mtkv provides an embedded, two-peer, eventually-consistent
// key-value store with Merkle-tree anti-entropy.
//
// # Overview
//
// mtkv is designed for simple, low-latency data sharing between
// exactly two service instances without external dependencies. Each
// node accepts one request per TCP connection; a local write is
// propagated to the peer in the foreground, and a background
// anti-entropy cycle reconciles anything propagation missed by
// comparing Merkle tree summaries and pulling only the keys that
// differ.
//
// # Data model
//
// Keys and values are opaque byte strings. Writes carry an explicit
// millisecond timestamp and are resolved last-writer-wins: ties
// accept, so replaying the same write twice is harmless.
//
// # Networking
//
// The anti-entropy loop and the TCP listener start together when
// ListenAndServe is called. A peer address can be given directly or
// resolved via mDNS from a peer ID — there is still only ever one
// peer, discovery just finds its current address.
//
// Example
//
//	db, err := mtkv.New(
//		mtkv.WithListenAddr("127.0.0.1:9001"),
//		mtkv.WithPeerAddr("127.0.0.1:9002"),
//	)
//	if err != nil {
//		// handle error
//	}
//	go db.ListenAndServe(context.Background())
//	_ = db.Set([]byte("key"), []byte("value"))
//	_, _ = db.Get([]byte("key"))
package mtkv

// Command mtkv-node runs a standalone mtkv node: a TCP listener
// serving the wire protocol, plus the background anti-entropy loop
// that reconciles it against one configured peer.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/netshard-io/mtkv"
)

func main() {
	var (
		nodeID     = flag.String("id", "", "node id (random if empty)")
		listenAddr = flag.String("listen", "127.0.0.1:9001", "address to accept connections on")
		peerAddr   = flag.String("peer", "", "static peer address (host:port)")
		peerID     = flag.String("peer-id", "", "peer id to resolve via mDNS when -peer is unset")
		discover   = flag.Bool("discover", false, "resolve the peer's address via mDNS")
		aeInterval = flag.Duration("anti-entropy-interval", 5*time.Second, "anti-entropy cycle interval")
	)
	flag.Parse()

	opts := []mtkv.Option{
		mtkv.WithListenAddr(*listenAddr),
		mtkv.WithAntiEntropyInterval(*aeInterval),
	}
	if *nodeID != "" {
		opts = append(opts, mtkv.WithNodeID(*nodeID))
	}
	if *peerAddr != "" {
		opts = append(opts, mtkv.WithPeerAddr(*peerAddr))
	}
	if *peerID != "" {
		opts = append(opts, mtkv.WithPeerID(*peerID))
	}
	if *discover {
		opts = append(opts, mtkv.WithDiscovery(true))
	}

	db, err := mtkv.New(opts...)
	if err != nil {
		log.Fatalf("mtkv-node: init: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- db.ListenAndServe(ctx)
	}()

	log.Printf("mtkv-node: listening on %s", *listenAddr)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sig:
		log.Printf("mtkv-node: shutting down")
		cancel()
		<-errCh
	case err := <-errCh:
		if err != nil {
			log.Fatalf("mtkv-node: serve: %v", err)
		}
	}
}
